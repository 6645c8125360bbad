package optimizer

import (
	"context"
	"fmt"

	"github.com/younsl/s3optimizer/internal/models"
	"github.com/younsl/s3optimizer/pkg/utils"
)

// BuildPolicyDocument turns a recommendation into a lifecycle policy with one
// rule per transition, named OptimizationRule1..N in transition order
func BuildPolicyDocument(rec models.Recommendation) models.LifecyclePolicy {
	rules := make([]models.PolicyRule, 0, len(rec.Transitions))
	for i, t := range rec.Transitions {
		rules = append(rules, models.PolicyRule{
			ID:     fmt.Sprintf("OptimizationRule%d", i+1),
			Status: models.RuleStatusEnabled,
			Transitions: []models.PolicyTransition{
				{Days: t.Days, StorageClass: t.StorageClass},
			},
		})
	}
	return models.LifecyclePolicy{Rules: rules}
}

// ApplyPolicy writes policy to a bucket and reports whether it succeeded.
// In dry-run mode the policy is only printed and the provider is never called.
func (a *Auditor) ApplyPolicy(ctx context.Context, bucketName string, policy models.LifecyclePolicy, dryRun bool) bool {
	if dryRun {
		doc, err := utils.FormatJSON(policy)
		if err != nil {
			a.logger.Error().Err(err).Str("bucket", bucketName).Msg("Failed to render lifecycle policy")
			return false
		}
		fmt.Fprintf(a.out, "[DRY RUN] Would apply policy to %s:\n%s\n", bucketName, doc)
		return true
	}

	if err := a.provider.PutLifecycle(ctx, bucketName, policy); err != nil {
		a.logger.Error().Err(err).Str("bucket", bucketName).Msg("Failed to apply lifecycle policy")
		return false
	}

	a.logger.Info().Str("bucket", bucketName).Int("rules", len(policy.Rules)).Msg("Applied lifecycle policy")
	return true
}
