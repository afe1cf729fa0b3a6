package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var densityCmd = &cobra.Command{
	Use:   "density",
	Short: "Gate and rank anchors into lookup targets",
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
			art, err := p.Density(cmd.Context())
			if err != nil {
				return err
			}
			zap.L().Info("density targets written", zap.Int("targets", len(art.Rows)))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(densityCmd)
}
