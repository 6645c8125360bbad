package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/younsl/s3optimizer/internal/config"
	"github.com/younsl/s3optimizer/internal/version"
	"github.com/younsl/s3optimizer/pkg/aws"
	"github.com/younsl/s3optimizer/pkg/formatter"
	"github.com/younsl/s3optimizer/pkg/optimizer"
	"github.com/younsl/s3optimizer/pkg/pricing"
	"github.com/younsl/s3optimizer/pkg/utils"
)

// newProvider builds the storage provider of an audit run
var newProvider = func(ctx context.Context, region string) (optimizer.Provider, error) {
	return aws.NewS3Client(ctx, region)
}

// options holds the parsed command line flags
type options struct {
	mode        string
	configFile  string
	outputFile  string
	bucketName  string
	region      string
	dryRun      bool
	strict      bool
	livePricing bool
	debug       bool
	showVersion bool
}

func main() {
	var opts options

	rootCmd := &cobra.Command{
		Use:   "s3optimizer",
		Short: "CLI tool to find S3 buckets without lifecycle policies",
		Long: `s3optimizer audits S3 buckets for missing lifecycle policies,
estimates their monthly storage cost and recommends cheaper
storage class transitions.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.showVersion {
				fmt.Println(version.Get())
				return nil
			}
			return run(cmd.Context(), opts, os.Stdout)
		},
	}

	modes := make([]string, 0, len(optimizer.Modes))
	for _, m := range optimizer.Modes {
		modes = append(modes, string(m))
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&opts.mode, "mode", "m", "", fmt.Sprintf("Operation mode (%s)", strings.Join(modes, ", ")))
	flags.StringVarP(&opts.configFile, "config", "c", config.DefaultFile, "Config file")
	flags.StringVarP(&opts.outputFile, "output", "o", "", "Output CSV file")
	flags.StringVarP(&opts.bucketName, "bucket", "b", "", "Specific bucket name")
	flags.StringVarP(&opts.region, "region", "r", utils.DefaultRegion, "AWS region for API calls")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "Print lifecycle policies instead of applying them (apply mode only)")
	flags.BoolVar(&opts.strict, "strict", false, "Abort when a lifecycle or metrics lookup fails")
	flags.BoolVar(&opts.livePricing, "live-pricing", false, "Look up the STANDARD storage price from the AWS Pricing API")
	flags.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	flags.BoolVarP(&opts.showVersion, "version", "v", false, "Show version information")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// newLogger creates the console logger used for warnings and diagnostics
func newLogger(debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// run validates flags, loads configuration and dispatches on the mode
func run(ctx context.Context, opts options, out io.Writer) error {
	logger := newLogger(opts.debug)

	if opts.mode == "" {
		return fmt.Errorf("--mode is required")
	}
	mode, err := optimizer.ParseMode(opts.mode)
	if err != nil {
		return err
	}

	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return err
	}

	errorPolicy, err := optimizer.ParseErrorPolicy(cfg.Analysis.OnError)
	if err != nil {
		return err
	}
	if opts.strict {
		errorPolicy = optimizer.ErrorPolicyStrict
	}

	switch mode {
	case optimizer.ModeAudit, optimizer.ModeRecommend:
		return runAudit(ctx, out, logger, cfg, errorPolicy, opts)
	case optimizer.ModeApply:
		return optimizer.ErrApplyNotImplemented
	default:
		return fmt.Errorf("%w: %s", optimizer.ErrUnknownMode, mode)
	}
}

// runAudit audits every bucket, prints the report and optionally exports it
func runAudit(ctx context.Context, out io.Writer, logger zerolog.Logger, cfg *config.Configuration, errorPolicy optimizer.ErrorPolicy, opts options) error {
	if !utils.IsValidRegion(opts.region) {
		return fmt.Errorf("invalid region '%s'", opts.region)
	}

	if opts.bucketName != "" {
		logger.Warn().Str("bucket", opts.bucketName).Msg("--bucket is ignored in audit and recommend modes, auditing all buckets")
	}

	standardRate, err := cfg.CostPerGB(config.CostStandard)
	if err != nil {
		return err
	}

	var pricingClient *pricing.Client
	if opts.livePricing {
		standardRate, pricingClient = lookupStandardRate(ctx, logger, opts.region, standardRate)
	}

	provider, err := newProvider(ctx, opts.region)
	if err != nil {
		return err
	}

	auditor := optimizer.NewAuditor(provider, optimizer.Options{
		StandardCostPerGB: standardRate,
		ErrorPolicy:       errorPolicy,
		Logger:            logger,
		Out:               out,
	})

	fmt.Fprintln(out, "Starting S3 lifecycle audit ...")
	scanStartTime := time.Now()

	s := spinner.New(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriter(out))
	s.Suffix = " Listing S3 buckets ..."
	s.Start()

	auditor.OnBucket = func(index, total int, bucketName string) {
		s.Suffix = fmt.Sprintf(" Analyzing bucket %d/%d: %s", index, total, bucketName)
	}

	report, err := auditor.AuditAll(ctx)
	scanDuration := time.Since(scanStartTime)
	if err != nil {
		s.Stop()
		return err
	}

	s.FinalMSG = fmt.Sprintf("✓ [%d buckets found] S3 buckets analyzed - Completed in %.2f seconds\n",
		len(report.Records), scanDuration.Seconds())
	s.Stop()

	formatter.PrintAuditTable(out, report, scanDuration)
	formatter.PrintAuditSummary(out, report.Summary)

	if pricingClient != nil {
		formatter.PrintPricingAPIStats(out, pricingClient.Stats().Snapshot())
	}

	if opts.outputFile != "" {
		if err := formatter.ExportToCSV(report.Records, opts.outputFile); err != nil {
			return err
		}
		fmt.Fprintf(out, "\n✓ Report saved to %s\n", opts.outputFile)
	}

	return nil
}

// lookupStandardRate replaces the configured STANDARD rate with the Pricing
// API price. The configured rate is kept when the lookup fails.
func lookupStandardRate(ctx context.Context, logger zerolog.Logger, region string, configured float64) (float64, *pricing.Client) {
	pricingClient, err := pricing.NewClient(ctx)
	if err != nil {
		logger.Warn().Err(err).Str("source", string(pricing.PricingSourceConfig)).Msg("Pricing API unavailable, using configured storage cost")
		return configured, nil
	}

	price, source, err := pricingClient.GetS3StoragePrice(ctx, region, config.CostStandard)
	if err != nil {
		logger.Warn().Err(err).Str("source", string(pricing.PricingSourceConfig)).Float64("usd_per_gb", configured).Msg("Pricing lookup failed, using configured storage cost")
		return configured, pricingClient
	}

	logger.Info().
		Str("region", region).
		Str("source", string(source)).
		Float64("usd_per_gb", price).
		Float64("configured", configured).
		Msg("Using STANDARD storage price from AWS Pricing API")
	return price, pricingClient
}
