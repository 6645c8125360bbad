package models

import "time"

// Storage classes used as lifecycle transition targets
const (
	StorageClassIntelligentTiering = "INTELLIGENT_TIERING"
	StorageClassGlacierIR          = "GLACIER_IR"
	StorageClassDeepArchive        = "DEEP_ARCHIVE"
)

// RuleStatusEnabled is the status assigned to generated lifecycle rules
const RuleStatusEnabled = "Enabled"

// NoRecommendation is the recommendation label of buckets without a recommendation
const NoRecommendation = "N/A"

// Bucket represents an S3 bucket as returned by the bucket listing
type Bucket struct {
	Name         string
	CreationDate time.Time
}

// LifecycleState describes whether a bucket has a lifecycle configuration.
// Rule IDs are kept for display only and are not interpreted.
type LifecycleState struct {
	Configured bool
	RuleIDs    []string
}

// Metrics is a point-in-time snapshot of bucket storage metrics
type Metrics struct {
	SizeBytes   int64
	ObjectCount int64
}

// Transition moves objects to StorageClass after Days days
type Transition struct {
	Days         int32
	StorageClass string
}

// Recommendation is a suggested lifecycle strategy for a bucket
type Recommendation struct {
	Strategy          string
	Transitions       []Transition
	EstimatedCost     float64 // monthly, USD, after transitions
	SavingsPercentage int     // fixed label per strategy
}

// AuditRecord is one row of the audit report
type AuditRecord struct {
	BucketName       string
	SizeGB           float64
	ObjectCount      int64
	HasLifecycle     bool
	CurrentCost      float64
	Recommendation   string
	PotentialSavings float64
}

// AuditSummary holds running totals accumulated over an audit
type AuditSummary struct {
	TotalBuckets            int
	BucketsWithoutLifecycle int
	TotalSizeBytes          int64
	TotalObjects            int64
	TotalCurrentCost        float64
	TotalPotentialSavings   float64
}

// AnnualSavings returns the potential savings over twelve months
func (s AuditSummary) AnnualSavings() float64 {
	return s.TotalPotentialSavings * 12
}

// AuditReport is the ordered result of auditing all buckets
type AuditReport struct {
	GeneratedAt time.Time // scan start
	CompletedAt time.Time
	Records     []AuditRecord
	Summary     AuditSummary
}

// LifecyclePolicy is a bucket lifecycle configuration document
type LifecyclePolicy struct {
	Rules []PolicyRule `json:"Rules"`
}

// PolicyRule is a single lifecycle rule
type PolicyRule struct {
	ID          string             `json:"ID"`
	Status      string             `json:"Status"`
	Transitions []PolicyTransition `json:"Transitions"`
}

// PolicyTransition is a transition entry within a lifecycle rule
type PolicyTransition struct {
	Days         int32  `json:"Days"`
	StorageClass string `json:"StorageClass"`
}
