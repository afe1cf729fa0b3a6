package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rollupCmd = &cobra.Command{
	Use:   "rollup",
	Short: "Build per-address anchors from the roster index",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := initPipeline()
		if err != nil {
			return err
		}
		dir, err := initDir()
		if err != nil {
			return err
		}
		return withLock(dir, func() error {
			art, err := p.Rollup(cmd.Context())
			if err != nil {
				return err
			}
			zap.L().Info("rollup written", zap.Int("anchors", art.Counts.Anchors))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(rollupCmd)
}
