package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/techindex-cli/internal/artifact"
	"github.com/sells-group/techindex-cli/internal/model"
)

func TestCollectStatus_EmptyDir(t *testing.T) {
	dir := testArtifactDir(t)

	statuses := collectStatus(dir)
	require.Len(t, statuses, 6)
	for _, s := range statuses {
		assert.Equal(t, "-", s.latest)
		assert.Equal(t, 0, s.rows)
	}
}

func TestCollectStatus_WithArtifacts(t *testing.T) {
	dir := testArtifactDir(t)
	seedTechArtifact(t, dir)
	_, err := dir.Save(artifact.StageDensity, model.DensityArtifact{
		Rows: []model.DensityRow{{}, {}},
	})
	require.NoError(t, err)

	byStage := make(map[string]stageStatus)
	for _, s := range collectStatus(dir) {
		byStage[s.stage] = s
	}

	assert.Equal(t, 1, byStage[artifact.StageTech].rows)
	assert.Equal(t, 1, byStage[artifact.StageTech].versions)
	assert.Equal(t, 2, byStage[artifact.StageDensity].rows)
	assert.Equal(t, "-", byStage[artifact.StageRollup].latest)
}

func TestFormatStatus(t *testing.T) {
	dir := testArtifactDir(t)
	seedTechArtifact(t, dir)

	var buf bytes.Buffer
	formatStatus(&buf, dir)

	out := buf.String()
	assert.Contains(t, out, "STAGE")
	assert.Contains(t, out, "tech")
	assert.Contains(t, out, "roster-index")
}
