package pricing

import "github.com/younsl/s3optimizer/internal/config"

// PricingSource represents the source of pricing information
type PricingSource string

const (
	// PricingSourceAPI indicates pricing data came from AWS API
	PricingSourceAPI PricingSource = "API"

	// PricingSourceCache indicates pricing data came from cache
	PricingSourceCache PricingSource = "Cache"

	// PricingSourceConfig indicates pricing data came from the config file
	PricingSourceConfig PricingSource = "Config"
)

// Service name used for API call statistics
const serviceS3 = "s3"

// BytesPerGB is the binary gigabyte used for all cost arithmetic
const BytesPerGB = 1 << 30

// BytesPerTB is the binary terabyte used for summary totals
const BytesPerTB = 1 << 40

// volumeTypes maps storage cost keys to the AWS Pricing API volumeType attribute
var volumeTypes = map[string]string{
	config.CostStandard:           "Standard",
	config.CostStandardIA:         "Standard - Infrequent Access",
	config.CostIntelligentTiering: "Intelligent-Tiering Frequent Access",
	config.CostGlacierIR:          "Glacier Instant Retrieval",
	config.CostGlacier:            "Amazon Glacier",
	config.CostDeepArchive:        "Glacier Deep Archive",
}
