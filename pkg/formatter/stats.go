package formatter

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
)

// PrintPricingAPIStats prints the statistics of pricing API calls
// (service -> region -> {success, failure, cache})
func PrintPricingAPIStats(w io.Writer, stats map[string]map[string]map[string]int) {
	if len(stats) == 0 {
		return
	}

	fmt.Fprintln(w, "\n## AWS Pricing API Call Statistics")

	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)

	fmt.Fprintln(tw, "SERVICE\tREGION\tAPI CALLS\tSUCCESS\tFAILURE\tCACHE HITS\tSUCCESS RATE")

	services := make([]string, 0, len(stats))
	for service := range stats {
		services = append(services, service)
	}
	sort.Strings(services)

	for _, service := range services {
		regions := make([]string, 0, len(stats[service]))
		for region := range stats[service] {
			regions = append(regions, region)
		}
		sort.Strings(regions)

		for _, region := range regions {
			statValues := stats[service][region]
			success := statValues["success"]
			failure := statValues["failure"]
			cache := statValues["cache"]
			total := success + failure

			successRate := 0.0
			if total > 0 {
				successRate = float64(success) / float64(total) * 100.0
			}

			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%.1f%%\n",
				service,
				region,
				total,
				success,
				failure,
				cache,
				successRate,
			)
		}
	}

	tw.Flush()
}
