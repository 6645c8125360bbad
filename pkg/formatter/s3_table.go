package formatter

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/younsl/s3optimizer/internal/models"
	"github.com/younsl/s3optimizer/pkg/pricing"
)

// PrintAuditTable prints audit records as a table in listing order
func PrintAuditTable(w io.Writer, report *models.AuditReport, scanDuration time.Duration) {
	if len(report.Records) == 0 {
		fmt.Fprintln(w, "No S3 buckets found.")
		return
	}

	printTimestamp(w, report.CompletedAt, scanDuration)

	// Setup tabwriter for kubernetes style tables
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)

	fmt.Fprintln(tw, "NAME\tSIZE\tOBJECTS\tLIFECYCLE\tMONTHLY COST\tRECOMMENDATION\tMONTHLY SAVINGS")

	for _, record := range report.Records {
		fmt.Fprintf(tw, "%s\t%.2f GB\t%s\t%s\t$%.2f\t%s\t%s\n",
			record.BucketName,
			record.SizeGB,
			humanize.Comma(record.ObjectCount),
			yesNo(record.HasLifecycle),
			record.CurrentCost,
			record.Recommendation,
			formatSavings(record),
		)
	}

	printAuditTotals(tw, report.Summary)

	tw.Flush()
}

// formatSavings renders the savings column, N/A when nothing is recommended
func formatSavings(record models.AuditRecord) string {
	if record.Recommendation == models.NoRecommendation {
		return models.NoRecommendation
	}
	return fmt.Sprintf("$%.2f", record.PotentialSavings)
}

// printAuditTotals prints the summary totals at the bottom of the table.
// Totals come from the unrounded summary so they agree with PrintAuditSummary.
func printAuditTotals(tw *tabwriter.Writer, summary models.AuditSummary) {
	fmt.Fprintf(tw, "Total:\t%.2f GB\t%s\t\t$%.2f\t\t$%.2f\n",
		pricing.BytesToGB(summary.TotalSizeBytes),
		humanize.Comma(summary.TotalObjects),
		summary.TotalCurrentCost,
		summary.TotalPotentialSavings,
	)
}

// PrintAuditSummary prints the running totals of an audit
func PrintAuditSummary(w io.Writer, summary models.AuditSummary) {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)

	fmt.Fprintln(tw, "\n## S3 LIFECYCLE SUMMARY:")
	fmt.Fprintf(tw, "Total buckets:\t%d\n", summary.TotalBuckets)
	fmt.Fprintf(tw, "Buckets without lifecycle:\t%d\n", summary.BucketsWithoutLifecycle)
	fmt.Fprintf(tw, "Total storage:\t%.2f TB (%s)\n",
		pricing.BytesToTB(summary.TotalSizeBytes),
		humanize.IBytes(uint64(summary.TotalSizeBytes)))
	fmt.Fprintf(tw, "Current monthly cost:\t$%.2f\n", summary.TotalCurrentCost)
	fmt.Fprintf(tw, "Potential monthly savings:\t$%.2f\n", summary.TotalPotentialSavings)
	fmt.Fprintf(tw, "Potential annual savings:\t$%.2f\n", summary.AnnualSavings())

	tw.Flush()

	if summary.BucketsWithoutLifecycle > 0 {
		fmt.Fprintln(w, "\n## RECOMMENDATIONS:")
		fmt.Fprintln(w, "- Add lifecycle policies to the buckets listed with a recommendation")
		fmt.Fprintln(w, "- Check access patterns first: Glacier classes charge for retrieval")
	}
}
