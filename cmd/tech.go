package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/techindex-cli/internal/pipeline"
	"github.com/sells-group/techindex-cli/internal/store"
)

var techNoSink bool

var techCmd = &cobra.Command{
	Use:   "tech",
	Short: "Join candidates to the roster and build the tech index",
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
		if !techNoSink {
			st, err = initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
			if err := st.Migrate(ctx); err != nil {
				return eris.Wrap(err, "migrate store")
			}
		}
		p := pipeline.New(cfg, dir, st, nil)

		return withLock(dir, func() error {
			art, err := p.Tech(ctx)
			if err != nil {
				return err
			}
			zap.L().Info("tech index written",
				zap.Int("tech", art.Counts.Tech),
				zap.Int("joined", art.Counts.Joined),
				zap.Int("missing", art.Counts.Missing),
			)
			return nil
		})
	},
}

func init() {
	techCmd.Flags().BoolVar(&techNoSink, "no-sink", false, "skip the store upsert, write the artifact only")
	rootCmd.AddCommand(techCmd)
}
