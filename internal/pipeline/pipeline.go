// Package pipeline orchestrates the tech index stages end to end and records
// each run in the sink store.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/techindex-cli/internal/artifact"
	"github.com/sells-group/techindex-cli/internal/config"
	"github.com/sells-group/techindex-cli/internal/density"
	"github.com/sells-group/techindex-cli/internal/facility"
	"github.com/sells-group/techindex-cli/internal/ingest"
	"github.com/sells-group/techindex-cli/internal/model"
	"github.com/sells-group/techindex-cli/internal/places"
	"github.com/sells-group/techindex-cli/internal/rollup"
	"github.com/sells-group/techindex-cli/internal/roster"
	"github.com/sells-group/techindex-cli/internal/store"
	"github.com/sells-group/techindex-cli/internal/tech"
	placesapi "github.com/sells-group/techindex-cli/pkg/places"
)

// Pipeline orchestrates the stages against one artifact directory.
// The store and the lookup client are optional: without a store no run
// records are written and the final index is not upserted; without a client
// the places stage reports a configuration error.
type Pipeline struct {
	cfg    *config.Config
	dir    *artifact.Dir
	store  store.Store
	client placesapi.Client
}

// New creates a Pipeline.
func New(cfg *config.Config, dir *artifact.Dir, st store.Store, client placesapi.Client) *Pipeline {
	return &Pipeline{cfg: cfg, dir: dir, store: st, client: client}
}

// RosterIndex ingests the license roster and writes the roster-index
// artifact.
func (p *Pipeline) RosterIndex(ctx context.Context, path string) (*model.RosterIndex, error) {
	t, err := ingest.ReadFile(path)
	if err != nil {
		return nil, err
	}
	idx, err := roster.Index(t)
	if err != nil {
		return nil, err
	}
	if _, err := p.dir.Save(artifact.StageRosterIndex, idx); err != nil {
		return nil, err
	}
	return idx, nil
}

// Rollup builds per-address anchors from the roster-index artifact.
func (p *Pipeline) Rollup(ctx context.Context) (*model.RollupArtifact, error) {
	var idx model.RosterIndex
	if err := p.dir.Load(artifact.StageRosterIndex, &idx); err != nil {
		return nil, err
	}
	art := rollup.Build(&idx)
	if _, err := p.dir.Save(artifact.StageRollup, art); err != nil {
		return nil, err
	}
	return art, nil
}

// Density gates and ranks the rollup anchors into lookup targets.
func (p *Pipeline) Density(ctx context.Context) (*model.DensityArtifact, error) {
	var roll model.RollupArtifact
	if err := p.dir.Load(artifact.StageRollup, &roll); err != nil {
		return nil, err
	}
	art := density.Filter(roll.Anchors, p.cfg.Density.Knobs())
	if _, err := p.dir.Save(artifact.StageDensity, art); err != nil {
		return nil, err
	}
	return art, nil
}

// Facility ingests the facility roster, derives org signals from the roster
// index, and writes the merged facility artifact.
func (p *Pipeline) Facility(ctx context.Context, path string) (*model.FacilityArtifact, error) {
	var idx model.RosterIndex
	if err := p.dir.Load(artifact.StageRosterIndex, &idx); err != nil {
		return nil, err
	}

	t, err := ingest.ReadFile(path)
	if err != nil {
		return nil, err
	}
	facilities, skipped, err := facility.FromTable(t)
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		zap.L().Warn("pipeline: facility rows skipped", zap.Int("skipped", skipped))
	}

	brands, err := facility.LoadBrands(p.cfg.Facility.BrandsFile)
	if err != nil {
		return nil, err
	}

	art := facility.Merge(facilities, facility.BuildOrgSignals(&idx), brands)
	if _, err := p.dir.Save(artifact.StageFacility, art); err != nil {
		return nil, err
	}
	return art, nil
}

// Places fetches lookup results for the density targets and writes the
// candidate artifact. Previously fetched addresses are skipped via the event
// log; facility records seed candidates for addresses the lookup never
// returned.
func (p *Pipeline) Places(ctx context.Context) (*model.PlacesArtifact, error) {
	if p.client == nil {
		return nil, eris.New("pipeline: places client not configured")
	}

	var dens model.DensityArtifact
	if err := p.dir.Load(artifact.StageDensity, &dens); err != nil {
		return nil, err
	}

	fetcher := places.NewFetcher(p.client, p.dir.FetchLog(), p.cfg.Places.Workers, p.cfg.Places.QPS)
	stats, err := fetcher.Fetch(ctx, dens.Rows)
	if err != nil {
		return nil, err
	}
	zap.L().Info("pipeline: places fetch done", zap.String("stats", stats.String()))

	events, err := fetcher.Events()
	if err != nil {
		return nil, err
	}

	// The facility artifact is an optional seed source.
	var fac model.FacilityArtifact
	if err := p.dir.Load(artifact.StageFacility, &fac); err != nil {
		if !eris.Is(err, artifact.ErrMissingInput) {
			return nil, err
		}
	}

	art := places.BuildArtifact(events, fac.Rows)
	if _, err := p.dir.Save(artifact.StagePlaces, art); err != nil {
		return nil, err
	}
	return art, nil
}

// Tech joins the candidates to the roster and writes the final tech index;
// with a store configured the entities are also upserted into the sink.
func (p *Pipeline) Tech(ctx context.Context) (*model.TechArtifact, error) {
	var cand model.PlacesArtifact
	if err := p.dir.Load(artifact.StagePlaces, &cand); err != nil {
		return nil, err
	}
	var idx model.RosterIndex
	if err := p.dir.Load(artifact.StageRosterIndex, &idx); err != nil {
		return nil, err
	}

	art := tech.BuildArtifact(cand.Rows, &idx)
	if _, err := p.dir.Save(artifact.StageTech, art); err != nil {
		return nil, err
	}

	if p.store != nil {
		n, err := p.store.UpsertTechEntities(ctx, art.Tech)
		if err != nil {
			return nil, err
		}
		zap.L().Info("pipeline: tech index upserted", zap.Int("entities", n))
	}
	return art, nil
}

// Run executes every stage in dependency order under the artifact lock.
// facilityPath may be empty, which skips the facility stage.
func (p *Pipeline) Run(ctx context.Context, rosterPath, facilityPath string) (*model.RunSummary, error) {
	lock, err := p.dir.Acquire()
	if err != nil {
		return nil, err
	}
	defer lock.Release() //nolint:errcheck

	log := zap.L().With(zap.String("roster", rosterPath))
	log.Info("pipeline: starting run")

	var runID string
	if p.store != nil {
		run, err := p.store.CreateRun(ctx)
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: create run")
		}
		runID = run.ID
	}

	setStatus := func(status model.RunStatus) {
		if p.store == nil {
			return
		}
		if err := p.store.UpdateRunStatus(ctx, runID, status); err != nil {
			log.Warn("pipeline: failed to update status", zap.Error(err))
		}
	}

	trackPhase := func(name string, fn func() (map[string]int, error)) error {
		var phase *model.RunPhase
		if p.store != nil {
			var phaseErr error
			phase, phaseErr = p.store.CreatePhase(ctx, runID, name)
			if phaseErr != nil {
				log.Warn("pipeline: failed to create phase", zap.String("phase", name), zap.Error(phaseErr))
			}
		}

		start := time.Now()
		counts, fnErr := fn()
		duration := time.Since(start).Milliseconds()

		if fnErr != nil {
			log.Error("pipeline: phase failed",
				zap.String("phase", name),
				zap.Int64("duration_ms", duration),
				zap.Error(fnErr),
			)
		} else {
			log.Info("pipeline: phase complete",
				zap.String("phase", name),
				zap.Int64("duration_ms", duration),
			)
		}

		if phase != nil {
			phase.Counts = counts
			phase.DurationMS = duration
			phase.Status = model.PhaseStatusComplete
			if fnErr != nil {
				phase.Status = model.PhaseStatusFailed
				phase.Error = fnErr.Error()
			}
			if err := p.store.CompletePhase(ctx, phase); err != nil {
				log.Warn("pipeline: failed to complete phase", zap.String("phase", name), zap.Error(err))
			}
		}
		return fnErr
	}

	fail := func(err error) (*model.RunSummary, error) {
		setStatus(model.RunStatusFailed)
		return nil, err
	}

	summary := &model.RunSummary{}

	if err := trackPhase("roster_index", func() (map[string]int, error) {
		idx, err := p.RosterIndex(ctx, rosterPath)
		if err != nil {
			return nil, err
		}
		summary.RosterRows = idx.Counts.Rows
		summary.Addresses = idx.Counts.Addresses
		return map[string]int{"rows": idx.Counts.Rows, "addresses": idx.Counts.Addresses}, nil
	}); err != nil {
		return fail(err)
	}

	if err := trackPhase("rollup", func() (map[string]int, error) {
		roll, err := p.Rollup(ctx)
		if err != nil {
			return nil, err
		}
		summary.Anchors = roll.Counts.Anchors
		return map[string]int{"anchors": roll.Counts.Anchors}, nil
	}); err != nil {
		return fail(err)
	}

	if err := trackPhase("density", func() (map[string]int, error) {
		dens, err := p.Density(ctx)
		if err != nil {
			return nil, err
		}
		summary.Targets = len(dens.Rows)
		return map[string]int{"targets": len(dens.Rows)}, nil
	}); err != nil {
		return fail(err)
	}

	if facilityPath != "" {
		if err := trackPhase("facility", func() (map[string]int, error) {
			fac, err := p.Facility(ctx, facilityPath)
			if err != nil {
				return nil, err
			}
			summary.Facilities = fac.Counts.Rows
			return map[string]int{"rows": fac.Counts.Rows, "joined": fac.Counts.Joined}, nil
		}); err != nil {
			return fail(err)
		}
	}

	if err := trackPhase("places", func() (map[string]int, error) {
		cand, err := p.Places(ctx)
		if err != nil {
			return nil, err
		}
		summary.Candidates = cand.Counts.Rows
		return map[string]int{"candidates": cand.Counts.Rows}, nil
	}); err != nil {
		return fail(err)
	}

	if err := trackPhase("tech", func() (map[string]int, error) {
		art, err := p.Tech(ctx)
		if err != nil {
			return nil, err
		}
		summary.Tech = art.Counts.Tech
		summary.Joined = art.Counts.Joined
		return map[string]int{
			"tech":    art.Counts.Tech,
			"joined":  art.Counts.Joined,
			"missing": art.Counts.Missing,
		}, nil
	}); err != nil {
		return fail(err)
	}

	if p.store != nil {
		if err := p.store.CompleteRun(ctx, runID, summary); err != nil {
			log.Warn("pipeline: failed to complete run", zap.Error(err))
		}
	}

	log.Info("pipeline: run complete",
		zap.Int("roster_rows", summary.RosterRows),
		zap.Int("anchors", summary.Anchors),
		zap.Int("targets", summary.Targets),
		zap.Int("tech", summary.Tech),
		zap.Int("joined", summary.Joined),
	)
	return summary, nil
}
