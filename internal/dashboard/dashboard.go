// Package dashboard assembles the overview screen: entity statistics,
// financial summary and the latest plantings, loaded concurrently.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"farmdash/internal/enrich"
	"farmdash/internal/ledger"
	"farmdash/internal/services"
	"farmdash/internal/stats"
)

// RecentPlantings is how many plantings the dashboard shows.
const RecentPlantings = 3

// ErrStale is returned by a load that was overtaken by a newer one. The
// snapshot returned with it is complete but was not published.
var ErrStale = errors.New("dashboard load superseded")

// Source provides the pieces of a snapshot.
type Source interface {
	FieldStats(ctx context.Context) (stats.FieldStats, error)
	CropStats(ctx context.Context) (stats.CropStats, error)
	PlantingStats(ctx context.Context) (stats.PlantingStats, error)
	FinanceStats(ctx context.Context) (ledger.Summary, error)
	RecentPlantings(ctx context.Context, limit int) ([]enrich.PlantingView, error)
}

type Snapshot struct {
	Generation      uint64                `json:"generation"`
	LoadedAt        time.Time             `json:"loadedAt"`
	Fields          stats.FieldStats      `json:"fields"`
	Crops           stats.CropStats       `json:"crops"`
	Plantings       stats.PlantingStats   `json:"plantings"`
	Finance         ledger.Summary        `json:"finance"`
	RecentPlantings []enrich.PlantingView `json:"recentPlantings"`
}

// Loader loads snapshots. Every Load takes a new generation; only the
// newest generation's result is published.
type Loader struct {
	src Source
	now func() time.Time

	generation atomic.Uint64

	mu     sync.RWMutex
	latest *Snapshot
}

func NewLoader(src Source) *Loader {
	return &Loader{src: src, now: time.Now}
}

// WithClock overrides the load timestamp clock.
func (l *Loader) WithClock(now func() time.Time) *Loader {
	l.now = now
	return l
}

// Load fetches every piece concurrently. The first failure cancels the
// rest and fails the load as a whole. A load overtaken by a newer one
// returns its snapshot with ErrStale and leaves Latest untouched.
func (l *Loader) Load(ctx context.Context) (Snapshot, error) {
	gen := l.generation.Add(1)
	snap := Snapshot{Generation: gen}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		snap.Fields, err = l.src.FieldStats(gctx)
		return wrap("field stats", err)
	})
	g.Go(func() (err error) {
		snap.Crops, err = l.src.CropStats(gctx)
		return wrap("crop stats", err)
	})
	g.Go(func() (err error) {
		snap.Plantings, err = l.src.PlantingStats(gctx)
		return wrap("planting stats", err)
	})
	g.Go(func() (err error) {
		snap.Finance, err = l.src.FinanceStats(gctx)
		return wrap("finance stats", err)
	})
	g.Go(func() (err error) {
		snap.RecentPlantings, err = l.src.RecentPlantings(gctx, RecentPlantings)
		return wrap("recent plantings", err)
	})
	if err := g.Wait(); err != nil {
		slog.ErrorContext(ctx, "Dashboard load failed", "generation", gen, "error", err)
		return Snapshot{}, fmt.Errorf("load dashboard: %w", err)
	}

	snap.LoadedAt = l.now().UTC()
	if current := l.generation.Load(); current != gen {
		slog.DebugContext(ctx, "Not publishing stale dashboard load", "generation", gen, "current", current)
		return snap, ErrStale
	}

	l.mu.Lock()
	if l.latest == nil || l.latest.Generation < gen {
		l.latest = &snap
	}
	l.mu.Unlock()
	return snap, nil
}

// Latest returns the most recently published snapshot.
func (l *Loader) Latest() (Snapshot, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.latest == nil {
		return Snapshot{}, false
	}
	return *l.latest, true
}

func wrap(what string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", what, err)
}

// serviceSource reads the snapshot pieces from the entity services.
type serviceSource struct {
	svc *services.Services
}

// FromServices adapts the entity services to a Source.
func FromServices(svc *services.Services) Source {
	return serviceSource{svc: svc}
}

func (s serviceSource) FieldStats(ctx context.Context) (stats.FieldStats, error) {
	return s.svc.Fields.Stats(ctx)
}

func (s serviceSource) CropStats(ctx context.Context) (stats.CropStats, error) {
	return s.svc.Crops.Stats(ctx)
}

func (s serviceSource) PlantingStats(ctx context.Context) (stats.PlantingStats, error) {
	return s.svc.Plantings.Stats(ctx)
}

func (s serviceSource) FinanceStats(ctx context.Context) (ledger.Summary, error) {
	return s.svc.Finance.Stats(ctx)
}

func (s serviceSource) RecentPlantings(ctx context.Context, limit int) ([]enrich.PlantingView, error) {
	return s.svc.Plantings.Recent(ctx, limit)
}
