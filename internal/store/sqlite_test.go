package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/techindex-cli/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func entity(id, key, city, segment string, score int) model.TechEntity {
	return model.TechEntity{
		ID:         id,
		AddressKey: key,
		City:       city,
		Premise:    model.Premise{MatchScore: score},
		Segment:    model.Segment{Label: segment},
	}
}

// --- Runs ---

func TestSQLite_Run_Lifecycle(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusRunning, run.Status)

	summary := &model.RunSummary{RosterRows: 1200, Anchors: 340, Tech: 85, Joined: 80}
	require.NoError(t, st.CompleteRun(ctx, run.ID, summary))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, got.Status)
	require.NotNil(t, got.Summary)
	assert.Equal(t, 340, got.Summary.Anchors)
	assert.Equal(t, 85, got.Summary.Tech)
}

func TestSQLite_Run_StatusUpdate_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	err := st.UpdateRunStatus(context.Background(), "missing-run", model.RunStatusFailed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")
}

func TestSQLite_Run_List_FilterByStatus(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	r1, err := st.CreateRun(ctx)
	require.NoError(t, err)
	_, err = st.CreateRun(ctx)
	require.NoError(t, err)
	require.NoError(t, st.UpdateRunStatus(ctx, r1.ID, model.RunStatusFailed))

	failed, err := st.ListRuns(ctx, RunFilter{Status: model.RunStatusFailed})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, r1.ID, failed[0].ID)

	all, err := st.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

// --- Phases ---

func TestSQLite_Phase_CreateAndComplete(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx)
	require.NoError(t, err)

	phase, err := st.CreatePhase(ctx, run.ID, "rollup")
	require.NoError(t, err)
	assert.Equal(t, model.PhaseStatusRunning, phase.Status)

	phase.Status = model.PhaseStatusComplete
	phase.Counts = map[string]int{"anchors": 340}
	phase.DurationMS = 87
	require.NoError(t, st.CompletePhase(ctx, phase))
}

func TestSQLite_Phase_Complete_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	err := st.CompletePhase(context.Background(), &model.RunPhase{ID: "missing", Status: model.PhaseStatusComplete})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "phase not found")
}

// --- Tech entities ---

func TestSQLite_Tech_UpsertAndGet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	e := entity("123-main-st-denver-co-80202", "123 MAIN ST|DENVER|CO|80202", "DENVER", model.SegmentIndieTech, 45)
	e.DisplayName = "Shear Genius"

	n, err := st.UpsertTechEntities(ctx, []model.TechEntity{e})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := st.GetTechEntity(ctx, e.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Shear Genius", got.DisplayName)
	assert.Equal(t, 45, got.Premise.MatchScore)
}

func TestSQLite_Tech_Get_Missing(t *testing.T) {
	st := newTestSQLiteStore(t)

	got, err := st.GetTechEntity(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLite_Tech_Upsert_Overwrite(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	e := entity("1-a-st", "1 A ST|DENVER|CO|80202", "DENVER", model.SegmentUnknown, 10)
	_, err := st.UpsertTechEntities(ctx, []model.TechEntity{e})
	require.NoError(t, err)

	e.Segment.Label = model.SegmentCorpSuite
	e.Premise.MatchScore = 75
	_, err = st.UpsertTechEntities(ctx, []model.TechEntity{e})
	require.NoError(t, err)

	got, err := st.GetTechEntity(ctx, e.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.SegmentCorpSuite, got.Segment.Label)
	assert.Equal(t, 75, got.Premise.MatchScore)
}

func TestSQLite_Tech_List_FilterAndOrder(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.UpsertTechEntities(ctx, []model.TechEntity{
		entity("a", "1 A ST|DENVER|CO|80202", "DENVER", model.SegmentIndieTech, 30),
		entity("b", "2 B ST|DENVER|CO|80202", "DENVER", model.SegmentIndieTech, 75),
		entity("c", "3 C ST|BOULDER|CO|80301", "BOULDER", model.SegmentCorpSuite, 50),
	})
	require.NoError(t, err)

	denver, err := st.ListTechEntities(ctx, TechFilter{City: "DENVER"})
	require.NoError(t, err)
	require.Len(t, denver, 2)
	// Highest match score first.
	assert.Equal(t, "b", denver[0].ID)
	assert.Equal(t, "a", denver[1].ID)

	corp, err := st.ListTechEntities(ctx, TechFilter{Segment: model.SegmentCorpSuite})
	require.NoError(t, err)
	require.Len(t, corp, 1)
	assert.Equal(t, "c", corp[0].ID)

	limited, err := st.ListTechEntities(ctx, TechFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLite_Tech_Upsert_Empty(t *testing.T) {
	st := newTestSQLiteStore(t)

	n, err := st.UpsertTechEntities(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
