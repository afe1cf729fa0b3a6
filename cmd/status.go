package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/techindex-cli/internal/artifact"
	"github.com/sells-group/techindex-cli/internal/model"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show latest artifact versions and row counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := initDir()
		if err != nil {
			return err
		}
		formatStatus(os.Stdout, dir)
		return nil
	},
}

type stageStatus struct {
	stage    string
	latest   string
	versions int
	rows     int
}

func stageRows(dir *artifact.Dir, stage string) (int, error) {
	switch stage {
	case artifact.StageRosterIndex:
		var idx model.RosterIndex
		if err := dir.Load(stage, &idx); err != nil {
			return 0, err
		}
		return idx.Counts.Indexed, nil
	case artifact.StageRollup:
		var art model.RollupArtifact
		if err := dir.Load(stage, &art); err != nil {
			return 0, err
		}
		return art.Counts.Anchors, nil
	case artifact.StageDensity:
		var art model.DensityArtifact
		if err := dir.Load(stage, &art); err != nil {
			return 0, err
		}
		return len(art.Rows), nil
	case artifact.StagePlaces:
		var art model.PlacesArtifact
		if err := dir.Load(stage, &art); err != nil {
			return 0, err
		}
		return art.Counts.Rows, nil
	case artifact.StageFacility:
		var art model.FacilityArtifact
		if err := dir.Load(stage, &art); err != nil {
			return 0, err
		}
		return art.Counts.Rows, nil
	case artifact.StageTech:
		var art model.TechArtifact
		if err := dir.Load(stage, &art); err != nil {
			return 0, err
		}
		return art.Counts.Tech, nil
	}
	return 0, eris.Errorf("unknown stage: %s", stage)
}

func collectStatus(dir *artifact.Dir) []stageStatus {
	stages := []string{
		artifact.StageRosterIndex,
		artifact.StageRollup,
		artifact.StageDensity,
		artifact.StageFacility,
		artifact.StagePlaces,
		artifact.StageTech,
	}

	out := make([]stageStatus, 0, len(stages))
	for _, stage := range stages {
		s := stageStatus{stage: stage, latest: "-"}
		if path, err := dir.LatestPath(stage); err == nil {
			s.latest = path
			if versions, err := dir.Versions(stage); err == nil {
				s.versions = len(versions)
			}
			if rows, err := stageRows(dir, stage); err == nil {
				s.rows = rows
			}
		}
		out = append(out, s)
	}
	return out
}

func formatStatus(out io.Writer, dir *artifact.Dir) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "STAGE\tROWS\tVERSIONS\tLATEST")
	_, _ = fmt.Fprintln(w, "-----\t----\t--------\t------")
	for _, s := range collectStatus(dir) {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", s.stage, s.rows, s.versions, s.latest)
	}
	_ = w.Flush()
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
