package aws

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwTypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

const (
	// S3 storage metrics are published once a day
	metricsLookbackDays  = 2
	metricsPeriodSeconds = 86400

	namespaceS3 = "AWS/S3"

	metricBucketSizeBytes = "BucketSizeBytes"
	metricNumberOfObjects = "NumberOfObjects"

	storageTypeStandard = "StandardStorage"
	storageTypeAll      = "AllStorageTypes"
)

// GetBucketSize returns the most recent STANDARD storage size of a bucket in
// bytes, or 0 when CloudWatch has no datapoint yet
func (c *S3Client) GetBucketSize(ctx context.Context, bucketName string) (int64, error) {
	avg, err := c.latestDailyAverage(ctx, bucketName, metricBucketSizeBytes, storageTypeStandard)
	if err != nil {
		return 0, fmt.Errorf("error getting bucket size metrics: %w", err)
	}
	return int64(avg), nil
}

// GetObjectCount returns the most recent object count of a bucket, or 0 when
// CloudWatch has no datapoint yet
func (c *S3Client) GetObjectCount(ctx context.Context, bucketName string) (int64, error) {
	avg, err := c.latestDailyAverage(ctx, bucketName, metricNumberOfObjects, storageTypeAll)
	if err != nil {
		return 0, fmt.Errorf("error getting object count metrics: %w", err)
	}
	return int64(avg), nil
}

// latestDailyAverage returns the Average of the newest daily datapoint of an
// S3 storage metric within the lookback window
func (c *S3Client) latestDailyAverage(ctx context.Context, bucketName, metricName, storageType string) (float64, error) {
	endTime := c.now()
	startTime := endTime.AddDate(0, 0, -metricsLookbackDays)

	input := &cloudwatch.GetMetricStatisticsInput{
		Namespace:  aws.String(namespaceS3),
		MetricName: aws.String(metricName),
		Dimensions: []cwTypes.Dimension{
			{
				Name:  aws.String("BucketName"),
				Value: aws.String(bucketName),
			},
			{
				Name:  aws.String("StorageType"),
				Value: aws.String(storageType),
			},
		},
		StartTime:  aws.Time(startTime),
		EndTime:    aws.Time(endTime),
		Period:     aws.Int32(metricsPeriodSeconds),
		Statistics: []cwTypes.Statistic{cwTypes.StatisticAverage},
	}

	apis, err := c.apisFor(ctx, bucketName)
	if err != nil {
		return 0, err
	}

	result, err := apis.cw.GetMetricStatistics(ctx, input)
	if err != nil {
		return 0, err
	}

	if len(result.Datapoints) == 0 {
		return 0, nil
	}

	// Newest first; datapoints without a timestamp sort last
	datapoints := result.Datapoints
	sort.SliceStable(datapoints, func(i, j int) bool {
		if datapoints[i].Timestamp == nil {
			return false
		}
		if datapoints[j].Timestamp == nil {
			return true
		}
		return datapoints[i].Timestamp.After(*datapoints[j].Timestamp)
	})

	if datapoints[0].Average == nil {
		return 0, nil
	}
	return *datapoints[0].Average, nil
}
