package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/revgeo/internal/config"
	"github.com/sells-group/revgeo/internal/table"
)

var (
	lookupLat float64
	lookupLng float64
)

var lookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "Reverse geocode a single coordinate and print the result as JSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runLookup(cmd.Context(), cfg, lookupLat, lookupLng, cmd.OutOrStdout())
	},
}

func runLookup(ctx context.Context, c *config.Config, lat, lng float64, w io.Writer) error {
	if err := c.Validate("lookup"); err != nil {
		return err
	}
	if !table.ValidCoordinate(lat, lng) {
		return eris.Errorf("coordinate %v,%v out of range", lat, lng)
	}

	rev, closeFn, err := initReverser(ctx, c.Geocode)
	if err != nil {
		return err
	}
	defer closeFn()

	result, err := rev.ReverseGeocode(ctx, lat, lng)
	if err != nil {
		return eris.Wrap(err, "lookup")
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func init() {
	lookupCmd.Flags().Float64Var(&lookupLat, "lat", 0, "latitude in decimal degrees (required)")
	lookupCmd.Flags().Float64Var(&lookupLng, "lng", 0, "longitude in decimal degrees (required)")
	_ = lookupCmd.MarkFlagRequired("lat")
	_ = lookupCmd.MarkFlagRequired("lng")
	rootCmd.AddCommand(lookupCmd)
}
