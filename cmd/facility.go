package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var facilityFile string

var facilityCmd = &cobra.Command{
	Use:   "facility",
	Short: "Merge facility records with roster-derived org signals",
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
			art, err := p.Facility(cmd.Context(), facilityFile)
			if err != nil {
				return err
			}
			zap.L().Info("facility artifact written",
				zap.Int("rows", art.Counts.Rows),
				zap.Int("joined", art.Counts.Joined),
			)
			return nil
		})
	},
}

func init() {
	facilityCmd.Flags().StringVar(&facilityFile, "file", "", "facility export path, .csv or .xlsx (required)")
	_ = facilityCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(facilityCmd)
}
