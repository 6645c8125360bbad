package optimizer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/younsl/s3optimizer/internal/models"
	"github.com/younsl/s3optimizer/pkg/pricing"
)

// Provider is the storage provider the Auditor reads from and writes to
type Provider interface {
	ListBuckets(ctx context.Context) ([]models.Bucket, error)
	GetLifecycle(ctx context.Context, bucketName string) (models.LifecycleState, error)
	GetBucketSize(ctx context.Context, bucketName string) (int64, error)
	GetObjectCount(ctx context.Context, bucketName string) (int64, error)
	PutLifecycle(ctx context.Context, bucketName string, policy models.LifecyclePolicy) error
}

// ProgressFunc is called before each bucket is audited
type ProgressFunc func(index, total int, bucketName string)

// Options configures an Auditor
type Options struct {
	// StandardCostPerGB is the USD per GB-month of STANDARD storage
	StandardCostPerGB float64
	ErrorPolicy       ErrorPolicy
	Logger            zerolog.Logger
	// Out receives dry-run output. Defaults to os.Stdout.
	Out io.Writer
}

// Auditor audits buckets for missing lifecycle policies and recommends
// storage class transitions. Buckets are processed one at a time.
type Auditor struct {
	provider     Provider
	standardRate float64
	errorPolicy  ErrorPolicy
	logger       zerolog.Logger
	out          io.Writer
	now          func() time.Time

	// OnBucket, when set, reports audit progress
	OnBucket ProgressFunc
}

// NewAuditor creates an Auditor backed by provider
func NewAuditor(provider Provider, opts Options) *Auditor {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	errorPolicy := opts.ErrorPolicy
	if errorPolicy == "" {
		errorPolicy = ErrorPolicyLenient
	}

	return &Auditor{
		provider:     provider,
		standardRate: opts.StandardCostPerGB,
		errorPolicy:  errorPolicy,
		logger:       opts.Logger,
		out:          out,
		now:          time.Now,
	}
}

// ListBuckets returns every bucket known to the provider, unfiltered
func (a *Auditor) ListBuckets(ctx context.Context) ([]models.Bucket, error) {
	return a.provider.ListBuckets(ctx)
}

// GetLifecycle returns the lifecycle state of a bucket. Under the lenient
// policy a lookup failure is logged and reported as not configured.
// Cancellation is always returned.
func (a *Auditor) GetLifecycle(ctx context.Context, bucketName string) (models.LifecycleState, error) {
	state, err := a.provider.GetLifecycle(ctx, bucketName)
	if err == nil {
		return state, nil
	}
	if a.mustFail(ctx, err) {
		return models.LifecycleState{}, err
	}

	a.logger.Warn().Err(err).Str("bucket", bucketName).Msg("Error getting lifecycle, treating as not configured")
	return models.LifecycleState{}, nil
}

// GetSize returns the bucket size in bytes. Under the lenient policy a
// lookup failure is reported as 0.
func (a *Auditor) GetSize(ctx context.Context, bucketName string) (int64, error) {
	size, err := a.provider.GetBucketSize(ctx, bucketName)
	return a.metricOrZero(ctx, bucketName, "size", size, err)
}

// GetObjectCount returns the number of objects in a bucket. Under the
// lenient policy a lookup failure is reported as 0.
func (a *Auditor) GetObjectCount(ctx context.Context, bucketName string) (int64, error) {
	count, err := a.provider.GetObjectCount(ctx, bucketName)
	return a.metricOrZero(ctx, bucketName, "object count", count, err)
}

func (a *Auditor) metricOrZero(ctx context.Context, bucketName, metric string, value int64, err error) (int64, error) {
	if err == nil {
		return value, nil
	}
	if a.mustFail(ctx, err) {
		return 0, err
	}

	a.logger.Debug().Err(err).Str("bucket", bucketName).Str("metric", metric).Msg("Metric unavailable, using 0")
	return 0, nil
}

// mustFail reports whether a lookup error aborts the audit. An interrupted
// run never degrades to defaults, whatever the policy.
func (a *Auditor) mustFail(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return a.errorPolicy == ErrorPolicyStrict
}

// EstimateCurrentCost returns the monthly STANDARD storage cost of sizeBytes
func (a *Auditor) EstimateCurrentCost(sizeBytes int64) float64 {
	return pricing.MonthlyStorageCost(sizeBytes, a.standardRate)
}

// AuditAll audits every bucket in listing order. A recommendation is made
// only for buckets without a lifecycle policy that are larger than
// MinRecommendSizeGB.
func (a *Auditor) AuditAll(ctx context.Context) (*models.AuditReport, error) {
	buckets, err := a.ListBuckets(ctx)
	if err != nil {
		return nil, err
	}

	report := &models.AuditReport{
		GeneratedAt: a.now(),
		Records:     make([]models.AuditRecord, 0, len(buckets)),
	}
	report.Summary.TotalBuckets = len(buckets)

	for i, bucket := range buckets {
		if a.OnBucket != nil {
			a.OnBucket(i+1, len(buckets), bucket.Name)
		}
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("audit interrupted at bucket %s: %w", bucket.Name, err)
		}

		record, err := a.auditBucket(ctx, bucket.Name, &report.Summary)
		if err != nil {
			return nil, fmt.Errorf("error auditing bucket %s: %w", bucket.Name, err)
		}
		report.Records = append(report.Records, record)
	}

	report.CompletedAt = a.now()
	return report, nil
}

// auditBucket builds the record of a single bucket and adds it to summary
func (a *Auditor) auditBucket(ctx context.Context, bucketName string, summary *models.AuditSummary) (models.AuditRecord, error) {
	lifecycle, err := a.GetLifecycle(ctx, bucketName)
	if err != nil {
		return models.AuditRecord{}, err
	}

	var metrics models.Metrics
	if metrics.SizeBytes, err = a.GetSize(ctx, bucketName); err != nil {
		return models.AuditRecord{}, err
	}
	if metrics.ObjectCount, err = a.GetObjectCount(ctx, bucketName); err != nil {
		return models.AuditRecord{}, err
	}

	sizeBytes := metrics.SizeBytes
	sizeGB := pricing.BytesToGB(sizeBytes)
	currentCost := a.EstimateCurrentCost(sizeBytes)

	label := models.NoRecommendation
	var savings float64
	if !lifecycle.Configured && sizeGB > MinRecommendSizeGB {
		rec, s := a.Recommend(bucketName, sizeBytes)
		if rec != nil {
			label = rec.Strategy
			savings = s
			summary.BucketsWithoutLifecycle++
			summary.TotalPotentialSavings += savings
		}
	}

	summary.TotalSizeBytes += sizeBytes
	summary.TotalObjects += metrics.ObjectCount
	summary.TotalCurrentCost += currentCost

	a.logger.Debug().
		Str("bucket", bucketName).
		Float64("size_gb", sizeGB).
		Int64("objects", metrics.ObjectCount).
		Bool("lifecycle", lifecycle.Configured).
		Int("lifecycle_rules", len(lifecycle.RuleIDs)).
		Str("recommendation", label).
		Msg("Bucket audited")

	return models.AuditRecord{
		BucketName:       bucketName,
		SizeGB:           round2(sizeGB),
		ObjectCount:      metrics.ObjectCount,
		HasLifecycle:     lifecycle.Configured,
		CurrentCost:      round2(currentCost),
		Recommendation:   label,
		PotentialSavings: round2(savings),
	}, nil
}

// round2 rounds to cents, the precision of report values
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
