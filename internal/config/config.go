package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Storage cost keys recognised in analysis.storage_costs
const (
	CostStandard           = "standard"
	CostStandardIA         = "standard_ia"
	CostIntelligentTiering = "intelligent_tiering"
	CostGlacierIR          = "glacier_ir"
	CostGlacier            = "glacier"
	CostDeepArchive        = "deep_archive"
)

// Error policies for per-bucket provider failures
const (
	OnErrorLenient = "lenient"
	OnErrorStrict  = "strict"
)

// DefaultFile is the config path used when --config is not given
const DefaultFile = "config.yaml"

// Configuration represents the complete application configuration
type Configuration struct {
	Analysis AnalysisConfig `yaml:"analysis"`
}

// AnalysisConfig represents cost analysis settings
type AnalysisConfig struct {
	// StorageCosts maps a storage class key to USD per GB-month
	StorageCosts map[string]float64 `yaml:"storage_costs"`

	// OnError selects how lifecycle and metrics lookup failures are handled
	OnError string `yaml:"on_error"`
}

// NewDefault returns a configuration with defaults for optional settings.
// Storage costs have no default and must come from the file.
func NewDefault() *Configuration {
	return &Configuration{
		Analysis: AnalysisConfig{
			StorageCosts: map[string]float64{},
			OnError:      OnErrorLenient,
		},
	}
}

// Load reads, parses and validates the configuration file
func Load(filename string) (*Configuration, error) {
	cfg := NewDefault()
	if err := cfg.LoadFromFile(filename); err != nil {
		return nil, err
	}
	cfg.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", filename, err)
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Configuration) LoadFromFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// LoadFromEnv applies environment overrides
func (c *Configuration) LoadFromEnv() {
	if val := os.Getenv("S3OPTIMIZER_ON_ERROR"); val != "" {
		c.Analysis.OnError = strings.ToLower(val)
	}
}

// Validate validates the configuration
func (c *Configuration) Validate() error {
	standard, ok := c.Analysis.StorageCosts[CostStandard]
	if !ok {
		return fmt.Errorf("analysis.storage_costs.%s is required", CostStandard)
	}
	if standard <= 0 {
		return fmt.Errorf("analysis.storage_costs.%s must be greater than 0", CostStandard)
	}

	// Sorted for a stable error message
	keys := make([]string, 0, len(c.Analysis.StorageCosts))
	for key := range c.Analysis.StorageCosts {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if c.Analysis.StorageCosts[key] < 0 {
			return fmt.Errorf("analysis.storage_costs.%s must not be negative", key)
		}
	}

	switch c.Analysis.OnError {
	case OnErrorLenient, OnErrorStrict:
	default:
		return fmt.Errorf("invalid on_error: %s (must be one of: %s, %s)",
			c.Analysis.OnError, OnErrorLenient, OnErrorStrict)
	}

	return nil
}

// CostPerGB returns the configured USD per GB-month for a storage class key
func (c *Configuration) CostPerGB(storageClass string) (float64, error) {
	cost, ok := c.Analysis.StorageCosts[storageClass]
	if !ok {
		return 0, fmt.Errorf("no storage cost configured for %s", storageClass)
	}
	return cost, nil
}
