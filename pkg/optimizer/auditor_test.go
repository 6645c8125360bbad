package optimizer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/younsl/s3optimizer/internal/models"
)

const (
	gb           = int64(1 << 30)
	standardRate = 0.023
)

type fakeBucket struct {
	name      string
	lifecycle bool
	size      int64
	objects   int64

	lifecycleErr error
	sizeErr      error
	countErr     error
}

type fakeProvider struct {
	buckets []fakeBucket
	listErr error
	putErr  error

	putCalls []string
}

func (f *fakeProvider) find(name string) fakeBucket {
	for _, b := range f.buckets {
		if b.name == name {
			return b
		}
	}
	return fakeBucket{}
}

func (f *fakeProvider) ListBuckets(ctx context.Context) ([]models.Bucket, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var buckets []models.Bucket
	for _, b := range f.buckets {
		buckets = append(buckets, models.Bucket{Name: b.name})
	}
	return buckets, nil
}

func (f *fakeProvider) GetLifecycle(ctx context.Context, bucketName string) (models.LifecycleState, error) {
	b := f.find(bucketName)
	if b.lifecycleErr != nil {
		return models.LifecycleState{}, b.lifecycleErr
	}
	if !b.lifecycle {
		return models.LifecycleState{}, nil
	}
	return models.LifecycleState{Configured: true, RuleIDs: []string{"existing"}}, nil
}

func (f *fakeProvider) GetBucketSize(ctx context.Context, bucketName string) (int64, error) {
	b := f.find(bucketName)
	return b.size, b.sizeErr
}

func (f *fakeProvider) GetObjectCount(ctx context.Context, bucketName string) (int64, error) {
	b := f.find(bucketName)
	return b.objects, b.countErr
}

func (f *fakeProvider) PutLifecycle(ctx context.Context, bucketName string, policy models.LifecyclePolicy) error {
	f.putCalls = append(f.putCalls, bucketName)
	return f.putErr
}

func newTestAuditor(provider Provider, policy ErrorPolicy) *Auditor {
	return NewAuditor(provider, Options{
		StandardCostPerGB: standardRate,
		ErrorPolicy:       policy,
		Logger:            zerolog.Nop(),
		Out:               &bytes.Buffer{},
	})
}

func TestEstimateCurrentCostIsLinear(t *testing.T) {
	a := newTestAuditor(&fakeProvider{}, ErrorPolicyLenient)

	assert.InDelta(t, 500*standardRate, a.EstimateCurrentCost(500*gb), 1e-9)
	assert.InDelta(t, 2*a.EstimateCurrentCost(7*gb), a.EstimateCurrentCost(14*gb), 1e-9)
	assert.Zero(t, a.EstimateCurrentCost(0))
}

func TestAuditAll(t *testing.T) {
	provider := &fakeProvider{buckets: []fakeBucket{
		{name: "prod-logs-archive", size: 500 * gb, objects: 120000},
		{name: "tiny-bucket", size: gb / 2, objects: 10},
		{name: "managed-data", lifecycle: true, size: 200 * gb, objects: 42},
		{name: "cold-archive", size: 100 * gb, objects: 7},
		{name: "exactly-one-gb", size: gb, objects: 1},
	}}
	a := newTestAuditor(provider, ErrorPolicyLenient)

	var progress []string
	a.OnBucket = func(index, total int, bucketName string) {
		assert.Equal(t, 5, total)
		progress = append(progress, bucketName)
	}

	report, err := a.AuditAll(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Records, 5)
	assert.Equal(t, []string{"prod-logs-archive", "tiny-bucket", "managed-data", "cold-archive", "exactly-one-gb"}, progress)
	assert.False(t, report.GeneratedAt.IsZero())
	assert.False(t, report.CompletedAt.Before(report.GeneratedAt))

	logs := report.Records[0]
	assert.Equal(t, "prod-logs-archive", logs.BucketName)
	assert.Equal(t, 500.0, logs.SizeGB)
	assert.Equal(t, int64(120000), logs.ObjectCount)
	assert.False(t, logs.HasLifecycle)
	assert.Equal(t, 11.5, logs.CurrentCost)
	assert.Equal(t, StrategyAggressiveTiering, logs.Recommendation)
	assert.Equal(t, 9.5, logs.PotentialSavings) // 11.5 - 500*0.004

	tiny := report.Records[1]
	assert.Equal(t, models.NoRecommendation, tiny.Recommendation)
	assert.Zero(t, tiny.PotentialSavings)
	assert.Equal(t, 0.5, tiny.SizeGB)

	managed := report.Records[2]
	assert.True(t, managed.HasLifecycle)
	assert.Equal(t, models.NoRecommendation, managed.Recommendation)
	assert.Zero(t, managed.PotentialSavings)

	cold := report.Records[3]
	assert.Equal(t, StrategyDeepArchive, cold.Recommendation)
	assert.Equal(t, 2.2, cold.PotentialSavings) // 2.3 - 0.099, rounded

	// Exactly 1 GB is not "larger than" the threshold
	assert.Equal(t, models.NoRecommendation, report.Records[4].Recommendation)

	summary := report.Summary
	assert.Equal(t, 5, summary.TotalBuckets)
	assert.Equal(t, 2, summary.BucketsWithoutLifecycle)
	assert.Equal(t, 500*gb+gb/2+200*gb+100*gb+gb, summary.TotalSizeBytes)
	assert.Equal(t, int64(120000+10+42+7+1), summary.TotalObjects)
	assert.InDelta(t, (500+0.5+200+100+1)*standardRate, summary.TotalCurrentCost, 1e-9)
	assert.InDelta(t, 9.5+(2.3-0.099), summary.TotalPotentialSavings, 1e-9)
	assert.InDelta(t, 12*(9.5+(2.3-0.099)), summary.AnnualSavings(), 1e-9)
}

func TestAuditAllListError(t *testing.T) {
	a := newTestAuditor(&fakeProvider{listErr: errors.New("InvalidAccessKeyId")}, ErrorPolicyLenient)

	_, err := a.AuditAll(context.Background())
	assert.ErrorContains(t, err, "InvalidAccessKeyId")
}

func TestAuditAllEmpty(t *testing.T) {
	a := newTestAuditor(&fakeProvider{}, ErrorPolicyLenient)

	report, err := a.AuditAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Records)
	assert.Zero(t, report.Summary.TotalBuckets)
}

func TestLenientPolicyDegradesToDefaults(t *testing.T) {
	provider := &fakeProvider{buckets: []fakeBucket{
		{name: "broken-lifecycle", size: 50 * gb, lifecycleErr: errors.New("AccessDenied")},
		{name: "broken-metrics", sizeErr: errors.New("throttled"), countErr: errors.New("throttled")},
		{name: "healthy", size: 10 * gb, objects: 3},
	}}
	a := newTestAuditor(provider, ErrorPolicyLenient)

	report, err := a.AuditAll(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Records, 3)

	// Unknown lifecycle is treated as absent, so a recommendation is made
	assert.False(t, report.Records[0].HasLifecycle)
	assert.Equal(t, StrategyIntelligentTiering, report.Records[0].Recommendation)

	assert.Zero(t, report.Records[1].SizeGB)
	assert.Zero(t, report.Records[1].ObjectCount)
	assert.Equal(t, models.NoRecommendation, report.Records[1].Recommendation)

	assert.Equal(t, "healthy", report.Records[2].BucketName)
}

func TestStrictPolicyAborts(t *testing.T) {
	tests := []struct {
		name   string
		bucket fakeBucket
	}{
		{name: "lifecycle", bucket: fakeBucket{name: "b", lifecycleErr: errors.New("AccessDenied")}},
		{name: "size", bucket: fakeBucket{name: "b", sizeErr: errors.New("throttled")}},
		{name: "object count", bucket: fakeBucket{name: "b", countErr: errors.New("throttled")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAuditor(&fakeProvider{buckets: []fakeBucket{tt.bucket}}, ErrorPolicyStrict)

			report, err := a.AuditAll(context.Background())
			assert.Error(t, err)
			assert.Nil(t, report)
		})
	}
}

func TestAuditAllStopsWhenCanceled(t *testing.T) {
	provider := &fakeProvider{buckets: []fakeBucket{
		{name: "a-logs", lifecycle: true, size: 100 * gb, objects: 5},
		{name: "b-data", lifecycle: true, size: 100 * gb, objects: 5},
	}}

	for _, policy := range []ErrorPolicy{ErrorPolicyLenient, ErrorPolicyStrict} {
		t.Run(string(policy), func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			a := newTestAuditor(provider, policy)
			a.OnBucket = func(index, total int, bucketName string) {
				if bucketName == "b-data" {
					cancel()
				}
			}

			report, err := a.AuditAll(ctx)
			assert.ErrorIs(t, err, context.Canceled)
			assert.Nil(t, report)
		})
	}
}

func TestLenientPolicyReturnsCancellation(t *testing.T) {
	provider := &fakeProvider{buckets: []fakeBucket{{
		name:         "b-data",
		lifecycleErr: fmt.Errorf("operation error S3: %w", context.Canceled),
		sizeErr:      context.DeadlineExceeded,
		countErr:     errors.New("request send failed"),
	}}}
	a := newTestAuditor(provider, ErrorPolicyLenient)

	_, err := a.GetLifecycle(context.Background(), "b-data")
	assert.ErrorIs(t, err, context.Canceled)

	_, err = a.GetSize(context.Background(), "b-data")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// A plain failure on a canceled context is not degraded to 0 either
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = a.GetObjectCount(ctx, "b-data")
	assert.Error(t, err)

	count, err := a.GetObjectCount(context.Background(), "b-data")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestNewAuditorDefaults(t *testing.T) {
	a := NewAuditor(&fakeProvider{}, Options{StandardCostPerGB: standardRate})

	assert.Equal(t, ErrorPolicyLenient, a.errorPolicy)
	assert.NotNil(t, a.out)
}

func TestParseMode(t *testing.T) {
	for _, s := range []string{"audit", "recommend", "apply"} {
		mode, err := ParseMode(s)
		assert.NoError(t, err, s)
		assert.Equal(t, Mode(s), mode)
	}

	for _, s := range []string{"delete", "AUDIT", " audit ", ""} {
		_, err := ParseMode(s)
		assert.ErrorIs(t, err, ErrUnknownMode, s)
	}
}

func TestParseErrorPolicy(t *testing.T) {
	p, err := ParseErrorPolicy("STRICT")
	require.NoError(t, err)
	assert.Equal(t, ErrorPolicyStrict, p)

	p, err = ParseErrorPolicy("lenient")
	require.NoError(t, err)
	assert.Equal(t, ErrorPolicyLenient, p)

	_, err = ParseErrorPolicy("panic")
	assert.ErrorIs(t, err, ErrUnknownErrorPolicy)
}
