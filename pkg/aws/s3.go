package aws

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/ec2/imds"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/younsl/s3optimizer/internal/models"
	"github.com/younsl/s3optimizer/pkg/utils"
)

// errCodeNoSuchLifecycle is returned by S3 when a bucket has no lifecycle configuration
const errCodeNoSuchLifecycle = "NoSuchLifecycleConfiguration"

// regionUSEast1 is the region of buckets with an empty location constraint
const regionUSEast1 = "us-east-1"

// S3API is the subset of the S3 API used by S3Client
type S3API interface {
	ListBuckets(ctx context.Context, params *s3.ListBucketsInput, optFns ...func(*s3.Options)) (*s3.ListBucketsOutput, error)
	GetBucketLocation(ctx context.Context, params *s3.GetBucketLocationInput, optFns ...func(*s3.Options)) (*s3.GetBucketLocationOutput, error)
	GetBucketLifecycleConfiguration(ctx context.Context, params *s3.GetBucketLifecycleConfigurationInput, optFns ...func(*s3.Options)) (*s3.GetBucketLifecycleConfigurationOutput, error)
	PutBucketLifecycleConfiguration(ctx context.Context, params *s3.PutBucketLifecycleConfigurationInput, optFns ...func(*s3.Options)) (*s3.PutBucketLifecycleConfigurationOutput, error)
}

// CloudWatchAPI is the subset of the CloudWatch API used by S3Client
type CloudWatchAPI interface {
	GetMetricStatistics(ctx context.Context, params *cloudwatch.GetMetricStatisticsInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.GetMetricStatisticsOutput, error)
}

// regionalAPIs are the S3 and CloudWatch clients bound to one region.
// S3 storage metrics are only published in the bucket's own region.
type regionalAPIs struct {
	s3 S3API
	cw CloudWatchAPI
}

// S3Client holds the S3 and CloudWatch clients shared by every call of an
// audit run. Buckets are listed through the home region; lifecycle and
// metric calls go to a client for the bucket's own region.
type S3Client struct {
	home   regionalAPIs
	region string

	// newAPIs builds the clients of a region other than the home region
	newAPIs func(region string) regionalAPIs

	mu            sync.Mutex
	regional      map[string]regionalAPIs // region -> clients
	bucketRegions map[string]string       // bucket -> region

	now func() time.Time
}

// NewS3Client creates a new S3Client
func NewS3Client(ctx context.Context, region string) (*S3Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithRetryMode(aws.RetryModeStandard),
		config.WithEC2IMDSClientEnableState(imds.ClientEnabled),
	)
	if err != nil {
		return nil, fmt.Errorf("error loading AWS config: %w", err)
	}

	newAPIs := func(region string) regionalAPIs {
		return regionalAPIs{
			s3: s3.NewFromConfig(cfg, func(o *s3.Options) {
				o.Region = region
				o.UsePathStyle = true
			}),
			cw: cloudwatch.NewFromConfig(cfg, func(o *cloudwatch.Options) {
				o.Region = region
			}),
		}
	}

	client := newS3Client(newAPIs(region), region)
	client.newAPIs = newAPIs
	return client, nil
}

// NewS3ClientFromAPIs creates an S3Client from existing API implementations.
// The same implementations serve every bucket region.
func NewS3ClientFromAPIs(s3API S3API, cwAPI CloudWatchAPI, region string) *S3Client {
	home := regionalAPIs{s3: s3API, cw: cwAPI}
	client := newS3Client(home, region)
	client.newAPIs = func(string) regionalAPIs { return home }
	return client
}

func newS3Client(home regionalAPIs, region string) *S3Client {
	return &S3Client{
		home:          home,
		region:        region,
		regional:      make(map[string]regionalAPIs),
		bucketRegions: make(map[string]string),
		now:           time.Now,
	}
}

// ListBuckets returns all buckets in the order S3 lists them
func (c *S3Client) ListBuckets(ctx context.Context) ([]models.Bucket, error) {
	result, err := c.home.s3.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, fmt.Errorf("error listing S3 buckets: %w", err)
	}

	buckets := make([]models.Bucket, 0, len(result.Buckets))
	for _, bucket := range result.Buckets {
		buckets = append(buckets, models.Bucket{
			Name:         utils.SafeDeref(bucket.Name),
			CreationDate: utils.SafeTime(bucket.CreationDate),
		})
	}

	return buckets, nil
}

// GetLifecycle returns the lifecycle state of a bucket. A bucket without a
// lifecycle configuration is not an error.
func (c *S3Client) GetLifecycle(ctx context.Context, bucketName string) (models.LifecycleState, error) {
	apis, err := c.apisFor(ctx, bucketName)
	if err != nil {
		return models.LifecycleState{}, err
	}

	result, err := apis.s3.GetBucketLifecycleConfiguration(ctx, &s3.GetBucketLifecycleConfigurationInput{
		Bucket: aws.String(bucketName),
	})
	if err != nil {
		if IsNoSuchLifecycle(err) {
			return models.LifecycleState{}, nil
		}
		return models.LifecycleState{}, fmt.Errorf("error getting lifecycle for %s: %w", bucketName, err)
	}

	state := models.LifecycleState{Configured: true}
	for _, rule := range result.Rules {
		state.RuleIDs = append(state.RuleIDs, utils.SafeDeref(rule.ID))
	}

	return state, nil
}

// PutLifecycle replaces the lifecycle configuration of a bucket
func (c *S3Client) PutLifecycle(ctx context.Context, bucketName string, policy models.LifecyclePolicy) error {
	apis, err := c.apisFor(ctx, bucketName)
	if err != nil {
		return err
	}

	_, err = apis.s3.PutBucketLifecycleConfiguration(ctx, &s3.PutBucketLifecycleConfigurationInput{
		Bucket: aws.String(bucketName),
		LifecycleConfiguration: &types.BucketLifecycleConfiguration{
			Rules: toLifecycleRules(policy),
		},
	})
	if err != nil {
		return fmt.Errorf("error putting lifecycle for %s: %w", bucketName, err)
	}

	return nil
}

// apisFor returns the clients for the region a bucket lives in
func (c *S3Client) apisFor(ctx context.Context, bucketName string) (regionalAPIs, error) {
	region, err := c.bucketRegion(ctx, bucketName)
	if err != nil {
		return regionalAPIs{}, err
	}
	if region == c.region {
		return c.home, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	apis, ok := c.regional[region]
	if !ok {
		apis = c.newAPIs(region)
		c.regional[region] = apis
	}
	return apis, nil
}

// bucketRegion determines the region of a bucket, once per bucket
func (c *S3Client) bucketRegion(ctx context.Context, bucketName string) (string, error) {
	c.mu.Lock()
	region, ok := c.bucketRegions[bucketName]
	c.mu.Unlock()
	if ok {
		return region, nil
	}

	location, err := c.home.s3.GetBucketLocation(ctx, &s3.GetBucketLocationInput{
		Bucket: aws.String(bucketName),
	})
	if err != nil {
		return "", fmt.Errorf("error getting region for %s: %w", bucketName, err)
	}

	region = locationToRegion(location.LocationConstraint)

	c.mu.Lock()
	c.bucketRegions[bucketName] = region
	c.mu.Unlock()

	return region, nil
}

// locationToRegion converts a bucket location constraint to a region code.
// An empty constraint means us-east-1 and the legacy "EU" means eu-west-1.
func locationToRegion(constraint types.BucketLocationConstraint) string {
	switch constraint {
	case "":
		return regionUSEast1
	case types.BucketLocationConstraintEu:
		return "eu-west-1"
	}
	return string(constraint)
}

// IsNoSuchLifecycle reports whether err means the bucket has no lifecycle configuration
func IsNoSuchLifecycle(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode() == errCodeNoSuchLifecycle
	}
	return false
}

// toLifecycleRules converts a policy document into S3 lifecycle rules.
// Every rule applies to the whole bucket.
func toLifecycleRules(policy models.LifecyclePolicy) []types.LifecycleRule {
	rules := make([]types.LifecycleRule, 0, len(policy.Rules))
	for _, rule := range policy.Rules {
		transitions := make([]types.Transition, 0, len(rule.Transitions))
		for _, t := range rule.Transitions {
			transitions = append(transitions, types.Transition{
				Days:         aws.Int32(t.Days),
				StorageClass: types.TransitionStorageClass(t.StorageClass),
			})
		}

		rules = append(rules, types.LifecycleRule{
			ID:          aws.String(rule.ID),
			Status:      types.ExpirationStatus(rule.Status),
			Filter:      &types.LifecycleRuleFilter{Prefix: aws.String("")},
			Transitions: transitions,
		})
	}
	return rules
}
