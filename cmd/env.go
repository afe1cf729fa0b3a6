package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/techindex-cli/internal/artifact"
	"github.com/sells-group/techindex-cli/internal/pipeline"
	"github.com/sells-group/techindex-cli/internal/store"
	"github.com/sells-group/techindex-cli/pkg/places"
)

func initDir() (*artifact.Dir, error) {
	return artifact.NewDir(cfg.Data.Dir)
}

func initStore(ctx context.Context) (store.Store, error) {
	if err := cfg.Validate("sink"); err != nil {
		return nil, err
	}
	switch cfg.Store.Driver {
	case "sqlite":
		return store.NewSQLite(cfg.Store.SQLitePath)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initPlacesClient() (places.Client, error) {
	if err := cfg.Validate("places"); err != nil {
		return nil, err
	}
	return places.NewClient(cfg.Places.Key, places.WithBaseURL(cfg.Places.BaseURL)), nil
}

// initPipeline assembles a pipeline for offline stages: artifact dir only,
// no sink and no lookup client.
func initPipeline() (*pipeline.Pipeline, error) {
	if err := cfg.Validate("pipeline"); err != nil {
		return nil, err
	}
	dir, err := initDir()
	if err != nil {
		return nil, err
	}
	return pipeline.New(cfg, dir, nil, nil), nil
}
