package artifact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/techindex-cli/internal/model"
)

func newTestDir(t *testing.T) *Dir {
	t.Helper()
	d, err := NewDir(t.TempDir())
	require.NoError(t, err)
	return d
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	d := newTestDir(t)

	in := model.RollupArtifact{
		Anchors: []model.RosterAnchor{{
			AddressKey: "100 MAIN ST|DENVER|CO|80202",
			Counts:     model.AnchorCounts{Total: 3, Active: 2, UniqueNames: 2},
			TopNames:   []model.NameCount{{Name: "JANE DOE", Count: 2}},
			Bucket:     "2-3",
			Tier:       "2-3",
		}},
		Counts: model.RollupCounts{Anchors: 1, Dist: map[string]int{"2-3": 1}, TopN: 5},
	}

	name, err := d.Save(StageRollup, in)
	require.NoError(t, err)
	assert.Contains(t, name, "rollup-")

	var out model.RollupArtifact
	require.NoError(t, d.Load(StageRollup, &out))
	assert.Equal(t, in, out)
}

func TestSave_RepointsLatest(t *testing.T) {
	d := newTestDir(t)

	_, err := d.Save(StageDensity, map[string]int{"v": 1})
	require.NoError(t, err)
	second, err := d.Save(StageDensity, map[string]int{"v": 2})
	require.NoError(t, err)

	path, err := d.LatestPath(StageDensity)
	require.NoError(t, err)
	assert.Equal(t, second, filepath.Base(path))

	var out map[string]int
	require.NoError(t, d.Load(StageDensity, &out))
	assert.Equal(t, 2, out["v"])

	versions, err := d.Versions(StageDensity)
	require.NoError(t, err)
	assert.Len(t, versions, 2)
}

func TestLoad_MissingListsTriedPaths(t *testing.T) {
	d := newTestDir(t)

	var out map[string]int
	err := d.Load(StageTech, &out)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrMissingInput))
	assert.Contains(t, err.Error(), "tech")
	assert.Contains(t, err.Error(), "latest")
}

func TestLatestPath_FallsBackWithoutPointer(t *testing.T) {
	d := newTestDir(t)
	dir := filepath.Join(d.Root, StageRollup)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rollup-20240101T000000.json"), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rollup-20240201T000000.json"), []byte("{}"), 0o644))

	path, err := d.LatestPath(StageRollup)
	require.NoError(t, err)
	assert.Equal(t, "rollup-20240201T000000.json", filepath.Base(path))
}

func TestLock_ExclusiveAndRetryable(t *testing.T) {
	d := newTestDir(t)

	lock, err := d.Acquire()
	require.NoError(t, err)

	_, err = d.Acquire()
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrLocked))

	require.NoError(t, lock.Release())
	second, err := d.Acquire()
	require.NoError(t, err)
	require.NoError(t, second.Release())
	require.NoError(t, second.Release()) // double release is harmless
}

func TestEventLog_AppendReplaySeen(t *testing.T) {
	d := newTestDir(t)
	log := d.FetchLog()

	require.NoError(t, log.Append(model.FetchEvent{AddressKey: "A", Query: "q1"}))
	require.NoError(t, log.Append(model.FetchEvent{AddressKey: "B", Query: "q2"}))
	require.NoError(t, log.Append(model.FetchEvent{AddressKey: "A", Query: "q1 again"}))

	var keys []string
	require.NoError(t, log.Replay(func(ev model.FetchEvent) error {
		keys = append(keys, ev.AddressKey)
		return nil
	}))
	assert.Equal(t, []string{"A", "B", "A"}, keys)

	seen, err := log.SeenKeys()
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"A": true, "B": true}, seen)
}

func TestEventLog_MissingIsEmpty(t *testing.T) {
	d := newTestDir(t)
	seen, err := d.FetchLog().SeenKeys()
	require.NoError(t, err)
	assert.Empty(t, seen)
}
