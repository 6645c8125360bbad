package optimizer

import (
	"strings"

	"github.com/younsl/s3optimizer/internal/models"
	"github.com/younsl/s3optimizer/pkg/pricing"
)

// MinRecommendSizeGB is the bucket size below which no strategy is recommended
const MinRecommendSizeGB = 1.0

// Strategy labels
const (
	StrategyAggressiveTiering  = "Intelligent-Tiering + Glacier"
	StrategyDeepArchive        = "Deep Archive"
	StrategyIntelligentTiering = "Intelligent-Tiering"
)

// strategy describes a recommendation template. unitCost is the estimated
// blended USD per GB-month once the transitions have taken effect and
// savingsPercentage is a display label, not derived from unitCost.
type strategy struct {
	name              string
	transitions       []models.Transition
	unitCost          float64
	savingsPercentage int
}

var (
	// Logs and backups: aggressive archival
	aggressiveTiering = strategy{
		name: StrategyAggressiveTiering,
		transitions: []models.Transition{
			{Days: 30, StorageClass: models.StorageClassIntelligentTiering},
			{Days: 90, StorageClass: models.StorageClassGlacierIR},
		},
		unitCost:          0.004,
		savingsPercentage: 83,
	}

	// Archives: immediate deep archive
	deepArchive = strategy{
		name: StrategyDeepArchive,
		transitions: []models.Transition{
			{Days: 0, StorageClass: models.StorageClassDeepArchive},
		},
		unitCost:          0.00099,
		savingsPercentage: 96,
	}

	// General purpose
	intelligentTiering = strategy{
		name: StrategyIntelligentTiering,
		transitions: []models.Transition{
			{Days: 30, StorageClass: models.StorageClassIntelligentTiering},
		},
		unitCost:          0.0025,
		savingsPercentage: 89,
	}
)

// classify picks a strategy from the bucket name. The first matching rule
// wins, so "db-backup-archive" is tiered aggressively, not deep archived.
func classify(bucketName string) strategy {
	name := strings.ToLower(bucketName)
	switch {
	case strings.Contains(name, "log") || strings.Contains(name, "backup"):
		return aggressiveTiering
	case strings.Contains(name, "archive"):
		return deepArchive
	default:
		return intelligentTiering
	}
}

// Recommend returns a lifecycle strategy for a bucket and its estimated
// monthly savings. Buckets under MinRecommendSizeGB get no recommendation
// and zero savings.
func (a *Auditor) Recommend(bucketName string, sizeBytes int64) (*models.Recommendation, float64) {
	sizeGB := pricing.BytesToGB(sizeBytes)
	if sizeGB < MinRecommendSizeGB {
		return nil, 0
	}

	currentCost := a.EstimateCurrentCost(sizeBytes)
	s := classify(bucketName)

	transitions := make([]models.Transition, len(s.transitions))
	copy(transitions, s.transitions)

	rec := &models.Recommendation{
		Strategy:          s.name,
		Transitions:       transitions,
		EstimatedCost:     sizeGB * s.unitCost,
		SavingsPercentage: s.savingsPercentage,
	}

	return rec, currentCost - rec.EstimatedCost
}
