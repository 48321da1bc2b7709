package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/revgeo/internal/config"
	"github.com/sells-group/revgeo/internal/pipeline"
	"github.com/sells-group/revgeo/internal/table"
)

var (
	reverseInput        string
	reverseOutput       string
	reverseDelimiter    string
	reverseEncoding     string
	reverseSheet        string
	reverseLatCol       string
	reverseLonCol       string
	reverseAddressCol   string
	reverseSentinel     string
	reverseCleaned      string
	reverseSkipCleaning bool
	reverseCreateSample bool
)

// reverseOptions carries the per-invocation inputs of the reverse command.
type reverseOptions struct {
	Input        string
	Output       string
	Cleaned      string
	CreateSample bool
}

var reverseCmd = &cobra.Command{
	Use:   "reverse",
	Short: "Add an address column to a table of coordinates",
	Example: `  revgeo reverse --input sites.csv --output sites_geocoded.csv --api-key $KEY
  revgeo reverse --input sites.xlsx --output out.xlsx --provider nominatim --user-agent "ops@example.com" --delay 1s`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		applyTableFlags(cmd, cfg)

		_, err := runReverse(ctx, cfg, reverseOptions{
			Input:        reverseInput,
			Output:       reverseOutput,
			Cleaned:      reverseCleaned,
			CreateSample: reverseCreateSample,
		})
		return err
	},
}

// runReverse executes one batch run. The credential is checked before the
// input is read so a missing key never reaches the provider.
func runReverse(ctx context.Context, c *config.Config, opts reverseOptions) (pipeline.Stats, error) {
	if err := c.Validate("reverse"); err != nil {
		return pipeline.Stats{}, err
	}

	log := zap.L().With(zap.String("run_id", uuid.NewString()))

	pcfg, err := pipelineConfig(c)
	if err != nil {
		return pipeline.Stats{}, err
	}
	pcfg.CleanedPath = opts.Cleaned

	if opts.CreateSample {
		if _, statErr := os.Stat(opts.Input); os.IsNotExist(statErr) {
			if err := table.WriteSample(opts.Input, pcfg.Table.Delimiter); err != nil {
				return pipeline.Stats{}, eris.Wrap(err, "create sample input")
			}
			log.Info("created sample input", zap.String("path", opts.Input))
		}
	}

	rev, closeFn, err := initReverser(ctx, c.Geocode)
	if err != nil {
		return pipeline.Stats{}, err
	}
	defer closeFn()

	progress := newProgressReporter(os.Stderr, stderrIsTerminal(), log)
	p := pipeline.New(rev, pcfg, pipeline.WithProgress(progress.Update))

	stats, err := p.Process(ctx, opts.Input, opts.Output)
	progress.Finish()
	if err != nil {
		return stats, err
	}

	log.Info("reverse complete",
		zap.String("provider", rev.Name()),
		zap.String("output", opts.Output),
		zap.Int("total", stats.Total),
		zap.Int("geocoded", stats.Geocoded),
		zap.Int("failed", stats.Failed),
		zap.Int("invalid", stats.Invalid),
		zap.Duration("duration", stats.Duration),
	)
	return stats, nil
}

// applyTableFlags overrides table config with flags set on the command line.
func applyTableFlags(cmd *cobra.Command, c *config.Config) {
	fs := cmd.Flags()
	if fs.Changed("delimiter") {
		c.Table.Delimiter = reverseDelimiter
	}
	if fs.Changed("encoding") {
		c.Table.Encoding = reverseEncoding
	}
	if fs.Changed("sheet") {
		c.Table.Sheet = reverseSheet
	}
	if fs.Changed("lat-col") {
		c.Table.LatCol = reverseLatCol
	}
	if fs.Changed("lon-col") {
		c.Table.LonCol = reverseLonCol
	}
	if fs.Changed("address-col") {
		c.Table.AddressCol = reverseAddressCol
	}
	if fs.Changed("sentinel") {
		c.Table.Sentinel = reverseSentinel
	}
	if fs.Changed("skip-cleaning") {
		c.Table.SkipCleaning = reverseSkipCleaning
	}
}

func init() {
	f := reverseCmd.Flags()
	f.StringVar(&reverseInput, "input", "", "input table: .csv, .tsv, .txt or .xlsx (required)")
	f.StringVar(&reverseOutput, "output", "", "output table; format follows the extension (required)")
	f.StringVar(&reverseDelimiter, "delimiter", "", "input delimiter: comma, semicolon, tab, pipe or a single character (default: detect)")
	f.StringVar(&reverseEncoding, "encoding", "", "input text encoding, e.g. latin1 (default UTF-8)")
	f.StringVar(&reverseSheet, "sheet", "", "XLSX sheet name (default: first sheet)")
	f.StringVar(&reverseLatCol, "lat-col", "", "latitude column name or 0-based index (default: detect)")
	f.StringVar(&reverseLonCol, "lon-col", "", "longitude column name or 0-based index (default: detect)")
	f.StringVar(&reverseAddressCol, "address-col", pipeline.DefaultAddressColumn, "name of the address column to write")
	f.StringVar(&reverseSentinel, "sentinel", "", "address written when a row has no result")
	f.StringVar(&reverseCleaned, "cleaned", "", "also write the cleaned input table to this path")
	f.BoolVar(&reverseSkipCleaning, "skip-cleaning", false, "keep whitespace around header names and coordinate values")
	f.BoolVar(&reverseCreateSample, "create-sample", false, "write a sample coordinates file to --input if it does not exist")
	_ = reverseCmd.MarkFlagRequired("input")
	_ = reverseCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(reverseCmd)
}
