package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/techindex-cli/internal/pipeline"
	"github.com/sells-group/techindex-cli/internal/store"
	placesapi "github.com/sells-group/techindex-cli/pkg/places"
)

var (
	runRosterFile   string
	runFacilityFile string
	runDryRun       bool
	runNoSink       bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline from roster export to tech index",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("pipeline"); err != nil {
			return err
		}
		dir, err := initDir()
		if err != nil {
			return err
		}

		var st store.Store
		if !runNoSink {
			st, err = initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
			if err := st.Migrate(ctx); err != nil {
				return eris.Wrap(err, "migrate store")
			}
		}

		var client placesapi.Client
		if runDryRun {
			client = &placesapi.Stub{}
		} else {
			client, err = initPlacesClient()
			if err != nil {
				return err
			}
		}

		p := pipeline.New(cfg, dir, st, client)
		summary, err := p.Run(ctx, runRosterFile, runFacilityFile)
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}

		zap.L().Info("run complete",
			zap.Int("roster_rows", summary.RosterRows),
			zap.Int("targets", summary.Targets),
			zap.Int("tech", summary.Tech),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	},
}

func init() {
	runCmd.Flags().StringVar(&runRosterFile, "roster", "", "roster export path (required)")
	runCmd.Flags().StringVar(&runFacilityFile, "facilities", "", "facility export path (optional)")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "stub the place lookups")
	runCmd.Flags().BoolVar(&runNoSink, "no-sink", false, "skip run records and the store upsert")
	_ = runCmd.MarkFlagRequired("roster")
	rootCmd.AddCommand(runCmd)
}
