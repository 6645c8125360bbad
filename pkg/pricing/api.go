package pricing

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/pricing"
	"github.com/aws/aws-sdk-go-v2/service/pricing/types"
	"github.com/younsl/s3optimizer/pkg/utils"
)

// The AWS Pricing API is only available in us-east-1 and ap-south-1
const pricingRegion = "us-east-1"

// ProductsAPI is the subset of the Pricing API used by Client
type ProductsAPI interface {
	GetProducts(ctx context.Context, params *pricing.GetProductsInput, optFns ...func(*pricing.Options)) (*pricing.GetProductsOutput, error)
}

// Client looks up S3 storage prices from the AWS Pricing API
type Client struct {
	api   ProductsAPI
	stats *Stats

	mu    sync.RWMutex
	cache map[string]float64 // region/storage class -> USD per GB-month
}

// NewClient creates a Client backed by the AWS Pricing API
func NewClient(ctx context.Context) (*Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(pricingRegion))
	if err != nil {
		return nil, fmt.Errorf("error loading AWS config for pricing API: %w", err)
	}

	return NewClientFromAPI(pricing.NewFromConfig(cfg)), nil
}

// NewClientFromAPI creates a Client from an existing Pricing API implementation
func NewClientFromAPI(api ProductsAPI) *Client {
	return &Client{
		api:   api,
		stats: NewStats(),
		cache: make(map[string]float64),
	}
}

// Stats returns the API call statistics collected by this client
func (c *Client) Stats() *Stats {
	return c.stats
}

// GetS3StoragePrice returns the first-tier USD per GB-month price of a
// storage class (an analysis.storage_costs key) in region
func (c *Client) GetS3StoragePrice(ctx context.Context, region, storageClass string) (float64, PricingSource, error) {
	volumeType, ok := volumeTypes[storageClass]
	if !ok {
		return 0, "", fmt.Errorf("unknown storage class %s", storageClass)
	}

	location, ok := utils.PricingLocation(region)
	if !ok {
		return 0, "", fmt.Errorf("no pricing location for region %s", region)
	}

	cacheKey := region + "/" + storageClass
	c.mu.RLock()
	price, found := c.cache[cacheKey]
	c.mu.RUnlock()
	if found {
		c.stats.UpdateCacheHitStats(serviceS3, region)
		return price, PricingSourceCache, nil
	}

	filters := []types.Filter{
		{
			Type:  types.FilterTypeTermMatch,
			Field: aws.String("location"),
			Value: aws.String(location),
		},
		{
			Type:  types.FilterTypeTermMatch,
			Field: aws.String("productFamily"),
			Value: aws.String("Storage"),
		},
		{
			Type:  types.FilterTypeTermMatch,
			Field: aws.String("volumeType"),
			Value: aws.String(volumeType),
		},
	}

	resp, err := c.api.GetProducts(ctx, &pricing.GetProductsInput{
		ServiceCode: aws.String("AmazonS3"),
		Filters:     filters,
		MaxResults:  aws.Int32(1),
	})
	if err != nil {
		c.stats.UpdateAPIFailureStats(serviceS3, region)
		return 0, "", fmt.Errorf("error calling AWS Pricing API: %w", err)
	}

	if len(resp.PriceList) == 0 {
		c.stats.UpdateAPIFailureStats(serviceS3, region)
		return 0, "", fmt.Errorf("no pricing found for %s in region %s", storageClass, region)
	}

	price, err = ExtractOnDemandPrice(resp.PriceList[0])
	if err != nil {
		c.stats.UpdateAPIFailureStats(serviceS3, region)
		return 0, "", err
	}

	c.mu.Lock()
	c.cache[cacheKey] = price
	c.mu.Unlock()
	c.stats.UpdateAPISuccessStats(serviceS3, region)

	return price, PricingSourceAPI, nil
}
