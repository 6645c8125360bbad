package formatter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/younsl/s3optimizer/internal/models"
)

// CSVHeader is the fixed column order of exported reports
var CSVHeader = []string{
	"bucket_name",
	"size_gb",
	"object_count",
	"has_lifecycle",
	"current_cost",
	"recommendation",
	"potential_savings",
}

// ExportToCSV writes records to a CSV file, replacing any existing file
func ExportToCSV(records []models.AuditRecord, outputFile string) (err error) {
	f, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("error creating report file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("error closing report file: %w", cerr)
		}
	}()

	return WriteCSV(f, records)
}

// WriteCSV writes a header row followed by one row per record, in order
func WriteCSV(w io.Writer, records []models.AuditRecord) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("error writing report header: %w", err)
	}

	for _, record := range records {
		row := []string{
			record.BucketName,
			formatFloat(record.SizeGB),
			strconv.FormatInt(record.ObjectCount, 10),
			strconv.FormatBool(record.HasLifecycle),
			formatFloat(record.CurrentCost),
			record.Recommendation,
			formatFloat(record.PotentialSavings),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("error writing report row for %s: %w", record.BucketName, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("error writing report: %w", err)
	}

	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
