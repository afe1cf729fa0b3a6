package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/techindex-cli/internal/artifact"
)

var rosterFile string

var rosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "Ingest a license roster export and build the address index",
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
			idx, err := p.RosterIndex(cmd.Context(), rosterFile)
			if err != nil {
				return err
			}
			zap.L().Info("roster index written",
				zap.Int("rows", idx.Counts.Rows),
				zap.Int("addresses", idx.Counts.Addresses),
			)
			return nil
		})
	},
}

// withLock runs fn under the artifact directory's advisory lock.
func withLock(dir *artifact.Dir, fn func() error) error {
	lock, err := dir.Acquire()
	if err != nil {
		return err
	}
	defer lock.Release() //nolint:errcheck
	return fn()
}

func init() {
	rosterCmd.Flags().StringVar(&rosterFile, "file", "", "roster export path, .csv or .xlsx (required)")
	_ = rosterCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(rosterCmd)
}
