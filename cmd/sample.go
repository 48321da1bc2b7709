package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/revgeo/internal/table"
)

var (
	sampleOutput    string
	sampleDelimiter string
)

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Write a small sample coordinates file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		delim, err := table.ParseDelimiter(sampleDelimiter)
		if err != nil {
			return eris.Wrap(err, "parse delimiter")
		}
		if err := table.WriteSample(sampleOutput, delim); err != nil {
			return eris.Wrap(err, "write sample")
		}
		zap.L().Info("sample written", zap.String("path", sampleOutput))
		return nil
	},
}

func init() {
	sampleCmd.Flags().StringVar(&sampleOutput, "output", "", "path of the sample file (required)")
	sampleCmd.Flags().StringVar(&sampleDelimiter, "delimiter", ";", "delimiter for the sample file")
	_ = sampleCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(sampleCmd)
}
