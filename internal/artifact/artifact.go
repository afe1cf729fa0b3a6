// Package artifact persists versioned JSON stage outputs. Each save writes a
// timestamped file via temp-file-then-rename and repoints a "latest" pointer,
// so readers never observe a partial write and a crash mid-stage leaves the
// previous artifact intact.
package artifact

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Stage names double as artifact directory names.
const (
	StageRosterIndex = "roster-index"
	StageRollup      = "rollup"
	StageDensity     = "density"
	StagePlaces      = "places"
	StageFacility    = "facility"
	StageTech        = "tech"
)

// ErrMissingInput marks a required upstream artifact that does not exist.
// The wrapped message lists every path tried so operators can fix placement
// rather than guess.
var ErrMissingInput = eris.New("artifact: missing input")

const latestPointer = "latest"

// Dir is a root directory holding one subdirectory per stage.
type Dir struct {
	Root string
}

// NewDir creates the artifact root if needed.
func NewDir(root string) (*Dir, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, eris.Wrapf(err, "artifact: create root %s", root)
	}
	return &Dir{Root: root}, nil
}

func (d *Dir) stageDir(stage string) string {
	return filepath.Join(d.Root, stage)
}

// Save writes v as the new version of a stage artifact and repoints latest.
// Returns the versioned filename written.
func (d *Dir) Save(stage string, v any) (string, error) {
	dir := d.stageDir(stage)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", eris.Wrapf(err, "artifact: create dir %s", dir)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", eris.Wrapf(err, "artifact: marshal %s", stage)
	}

	name := stage + "-" + time.Now().UTC().Format("20060102T150405") + ".json"
	if err := writeAtomic(filepath.Join(dir, name), data); err != nil {
		return "", err
	}

	// The pointer itself is also written atomically so a concurrent reader
	// sees either the old or the new version name, never a torn one.
	if err := writeAtomic(filepath.Join(dir, latestPointer), []byte(name+"\n")); err != nil {
		return "", err
	}
	return name, nil
}

// Load reads the latest version of a stage artifact into v. A missing stage
// directory, pointer, or file yields ErrMissingInput with the tried paths.
func (d *Dir) Load(stage string, v any) error {
	path, err := d.LatestPath(stage)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(ErrMissingInput, "%s (tried: %s)", stage, path)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return eris.Wrapf(err, "artifact: unmarshal %s", path)
	}
	return nil
}

// LatestPath resolves the latest pointer for a stage. Falls back to the
// lexically-last versioned file when the pointer is absent (pre-pointer
// artifacts placed by hand).
func (d *Dir) LatestPath(stage string) (string, error) {
	dir := d.stageDir(stage)
	pointer := filepath.Join(dir, latestPointer)

	if data, err := os.ReadFile(pointer); err == nil {
		name := strings.TrimSpace(string(data))
		if name != "" {
			return filepath.Join(dir, name), nil
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", eris.Wrapf(ErrMissingInput, "%s (tried: %s, %s/%s-*.json)", stage, pointer, dir, stage)
	}
	var versions []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), stage+"-") && strings.HasSuffix(e.Name(), ".json") {
			versions = append(versions, e.Name())
		}
	}
	if len(versions) == 0 {
		return "", eris.Wrapf(ErrMissingInput, "%s (tried: %s, %s/%s-*.json)", stage, pointer, dir, stage)
	}
	sort.Strings(versions)
	return filepath.Join(dir, versions[len(versions)-1]), nil
}

// Versions lists a stage's versioned artifact filenames, oldest first.
func (d *Dir) Versions(stage string) ([]string, error) {
	entries, err := os.ReadDir(d.stageDir(stage))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "artifact: read dir %s", stage)
	}
	var versions []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), stage+"-") && strings.HasSuffix(e.Name(), ".json") {
			versions = append(versions, e.Name())
		}
	}
	sort.Strings(versions)
	return versions, nil
}

// writeAtomic writes data to a temp file in the target's directory and
// renames it into place.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return eris.Wrapf(err, "artifact: create temp in %s", dir)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()          //nolint:errcheck
		os.Remove(tmpName)   //nolint:errcheck
		return eris.Wrapf(err, "artifact: write temp for %s", path)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName) //nolint:errcheck
		return eris.Wrapf(err, "artifact: close temp for %s", path)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName) //nolint:errcheck
		return eris.Wrapf(err, "artifact: rename into %s", path)
	}
	return nil
}
