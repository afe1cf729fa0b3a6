package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/techindex-cli/internal/pipeline"
	placesapi "github.com/sells-group/techindex-cli/pkg/places"
)

var placesDryRun bool

var placesCmd = &cobra.Command{
	Use:   "places",
	Short: "Fetch place lookups for density targets and build candidates",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("pipeline"); err != nil {
			return err
		}
		dir, err := initDir()
		if err != nil {
			return err
		}

		var client placesapi.Client
		if placesDryRun {
			client = &placesapi.Stub{}
		} else {
			client, err = initPlacesClient()
			if err != nil {
				return err
			}
		}
		p := pipeline.New(cfg, dir, nil, client)

		return withLock(dir, func() error {
			art, err := p.Places(cmd.Context())
			if err != nil {
				return err
			}
			zap.L().Info("candidate artifact written",
				zap.Int("rows", art.Counts.Rows),
				zap.Int("facility_seeded", art.Counts.FacilitySeeded),
			)
			return nil
		})
	},
}

func init() {
	placesCmd.Flags().BoolVar(&placesDryRun, "dry-run", false, "log lookups without calling the API")
	rootCmd.AddCommand(placesCmd)
}
