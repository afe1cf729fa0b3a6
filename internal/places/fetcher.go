package places

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/techindex-cli/internal/artifact"
	"github.com/sells-group/techindex-cli/internal/model"
	"github.com/sells-group/techindex-cli/pkg/places"
)

// Fetcher performs place lookups for density targets with bounded
// concurrency. Result order into the log is not request order; dedup is by
// address key via the replayed event log, not by position.
type Fetcher struct {
	client  places.Client
	log     *artifact.EventLog
	workers int
	limiter *rate.Limiter
}

// NewFetcher builds a fetcher. qps bounds the request rate across all
// workers; workers <= 1 degrades to the sequential reference flow.
func NewFetcher(client places.Client, log *artifact.EventLog, workers int, qps float64) *Fetcher {
	if workers < 1 {
		workers = 1
	}
	if qps <= 0 {
		qps = 1
	}
	return &Fetcher{
		client:  client,
		log:     log,
		workers: workers,
		limiter: rate.NewLimiter(rate.Limit(qps), 1),
	}
}

// Query builds the lookup query string for a target address.
func Query(a model.RosterAnchor) string {
	parts := []string{a.Address1}
	if a.City != "" {
		parts = append(parts, a.City)
	}
	tail := strings.TrimSpace(a.State + " " + a.Zip)
	if tail != "" {
		parts = append(parts, tail)
	}
	return strings.Join(parts, ", ")
}

// FetchStats counts one fetch run.
type FetchStats struct {
	Queued      int
	AlreadySeen int
	Fetched     int
	Failed      int
}

// Fetch looks up every not-yet-seen target and appends one event per lookup
// to the log. Lookup failures are logged as error events and counted; they
// never abort the batch.
func (f *Fetcher) Fetch(ctx context.Context, targets []model.DensityRow) (*FetchStats, error) {
	seen, err := f.log.SeenKeys()
	if err != nil {
		return nil, eris.Wrap(err, "places: rebuild seen set")
	}

	stats := &FetchStats{Queued: len(targets)}
	var mu sync.Mutex

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(f.workers)

	queued := make(map[string]bool, len(targets))
	for _, target := range targets {
		key := target.AddressKey
		if seen[key] || queued[key] {
			stats.AlreadySeen++
			continue
		}
		queued[key] = true

		anchor := target.RosterAnchor
		g.Go(func() error {
			if err := f.limiter.Wait(gCtx); err != nil {
				return eris.Wrap(err, "places: rate limit wait")
			}

			query := Query(anchor)
			ev := model.FetchEvent{
				AddressKey: key,
				Query:      query,
				FetchedAt:  time.Now().UTC().Format(time.RFC3339),
			}

			resp, err := f.client.TextSearch(gCtx, query)
			if err != nil {
				ev.Error = err.Error()
				zap.L().Warn("places: lookup failed",
					zap.String("address_key", key),
					zap.Error(err),
				)
			} else {
				for _, p := range resp.Places {
					ev.Places = append(ev.Places, model.FetchResult{
						Name:             p.DisplayName.Text,
						FormattedAddress: p.FormattedAddress,
						Phone:            p.NationalPhone,
						Website:          p.WebsiteURI,
						Types:            p.Types,
					})
				}
			}

			mu.Lock()
			defer mu.Unlock()
			if appendErr := f.log.Append(ev); appendErr != nil {
				return appendErr
			}
			if ev.Error != "" {
				stats.Failed++
			} else {
				stats.Fetched++
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return stats, err
	}

	zap.L().Info("places: fetch complete",
		zap.Int("queued", stats.Queued),
		zap.Int("already_seen", stats.AlreadySeen),
		zap.Int("fetched", stats.Fetched),
		zap.Int("failed", stats.Failed),
	)
	return stats, nil
}

// Events reads every logged fetch event back for candidate building.
func (f *Fetcher) Events() ([]model.FetchEvent, error) {
	var events []model.FetchEvent
	err := f.log.Replay(func(ev model.FetchEvent) error {
		events = append(events, ev)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

// String implements fmt.Stringer for log lines.
func (s *FetchStats) String() string {
	return fmt.Sprintf("queued=%d seen=%d fetched=%d failed=%d", s.Queued, s.AlreadySeen, s.Fetched, s.Failed)
}
