package artifact

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/sells-group/techindex-cli/internal/model"
)

const fetchLogName = "places-fetch.log.jsonl"

// EventLog is the append-only record of external place-lookup fetches, one
// JSON object per line. It is re-derivable state modeled explicitly as an
// event log: the dedup "seen" set is rebuilt by replay, never stored.
type EventLog struct {
	path string
}

// FetchLog returns the event log for the artifact directory.
func (d *Dir) FetchLog() *EventLog {
	return &EventLog{path: filepath.Join(d.Root, fetchLogName)}
}

// Append writes one event. Each append is a single O_APPEND write of one
// line, so concurrent appenders within a run never interleave mid-line.
func (l *EventLog) Append(ev model.FetchEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return eris.Wrap(err, "eventlog: marshal event")
	}
	data = append(data, '\n')

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return eris.Wrapf(err, "eventlog: open %s", l.path)
	}
	defer f.Close() //nolint:errcheck

	if _, err := f.Write(data); err != nil {
		return eris.Wrapf(err, "eventlog: append to %s", l.path)
	}
	return nil
}

// Replay streams every event to fn in append order. A missing log is an
// empty log. Unparseable lines abort the replay: a corrupt dedup cache must
// be surfaced, not skipped past.
func (l *EventLog) Replay(fn func(model.FetchEvent) error) error {
	f, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return eris.Wrapf(err, "eventlog: open %s", l.path)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var ev model.FetchEvent
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			return eris.Wrapf(err, "eventlog: parse %s line %d", l.path, line)
		}
		if err := fn(ev); err != nil {
			return err
		}
	}
	return eris.Wrapf(scanner.Err(), "eventlog: scan %s", l.path)
}

// SeenKeys rebuilds the set of address keys already fetched successfully.
// Failed fetches stay in the log for audit but do not suppress a retry.
func (l *EventLog) SeenKeys() (map[string]bool, error) {
	seen := make(map[string]bool)
	err := l.Replay(func(ev model.FetchEvent) error {
		if ev.Error == "" {
			seen[ev.AddressKey] = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return seen, nil
}
