package dashboard

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"farmdash/internal/core"
	"farmdash/internal/enrich"
	"farmdash/internal/ledger"
	"farmdash/internal/services"
	"farmdash/internal/stats"
	"farmdash/internal/storage/memory"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// stubSource answers from fixed values. When gate is set, the first
// FieldStats call signals entered and blocks until gate closes or ctx
// ends; later calls return at once.
type stubSource struct {
	fields    stats.FieldStats
	failCrops error
	gate      chan struct{}
	entered   chan struct{}
	calls     atomic.Int32
}

func (s *stubSource) FieldStats(ctx context.Context) (stats.FieldStats, error) {
	n := s.calls.Add(1)
	if s.gate != nil && n == 1 {
		if s.entered != nil {
			close(s.entered)
		}
		select {
		case <-s.gate:
		case <-ctx.Done():
			return stats.FieldStats{}, ctx.Err()
		}
	}
	return stats.FieldStats{TotalFields: s.fields.TotalFields + int(n)}, nil
}

func (s *stubSource) CropStats(context.Context) (stats.CropStats, error) {
	return stats.CropStats{TotalCrops: 2}, s.failCrops
}

func (s *stubSource) PlantingStats(context.Context) (stats.PlantingStats, error) {
	return stats.PlantingStats{TotalRecords: 4}, nil
}

func (s *stubSource) FinanceStats(context.Context) (ledger.Summary, error) {
	return ledger.Summary{TotalIncome: 500}, nil
}

func (s *stubSource) RecentPlantings(_ context.Context, limit int) ([]enrich.PlantingView, error) {
	return make([]enrich.PlantingView, limit), nil
}

func TestLoad(t *testing.T) {
	l := NewLoader(&stubSource{fields: stats.FieldStats{TotalFields: 6}})
	snap, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if snap.Fields.TotalFields != 7 || snap.Crops.TotalCrops != 2 || snap.Finance.TotalIncome != 500 {
		t.Errorf("snapshot = %+v", snap)
	}
	if len(snap.RecentPlantings) != RecentPlantings {
		t.Errorf("recent plantings = %d, want %d", len(snap.RecentPlantings), RecentPlantings)
	}
	latest, ok := l.Latest()
	if !ok || latest.Generation != snap.Generation {
		t.Errorf("Latest() = %+v, %v", latest, ok)
	}
}

func TestLoadAllOrNothing(t *testing.T) {
	boom := errors.New("crops unavailable")
	// FieldStats blocks until the failing sibling cancels the group.
	l := NewLoader(&stubSource{failCrops: boom, gate: make(chan struct{})})
	_, err := l.Load(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("Load() error = %v, want %v", err, boom)
	}
	if _, ok := l.Latest(); ok {
		t.Error("failed load was published")
	}
}

func TestStaleLoadDiscarded(t *testing.T) {
	src := &stubSource{gate: make(chan struct{}), entered: make(chan struct{})}
	l := NewLoader(src)

	type result struct {
		snap Snapshot
		err  error
	}
	firstDone := make(chan result, 1)
	go func() {
		snap, err := l.Load(context.Background())
		firstDone <- result{snap, err}
	}()
	<-src.entered

	second, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("second Load() error = %v", err)
	}
	close(src.gate)
	first := <-firstDone
	if !errors.Is(first.err, ErrStale) {
		t.Fatalf("first Load() error = %v, want ErrStale", first.err)
	}
	if first.snap.Generation != 1 || first.snap.Fields.TotalFields != 1 || first.snap.LoadedAt.IsZero() {
		t.Errorf("stale snapshot = %+v, want the completed first load", first.snap)
	}

	latest, _ := l.Latest()
	if latest.Generation != second.Generation || latest.Fields.TotalFields != 2 {
		t.Errorf("Latest() = %+v, want the second load", latest)
	}
}

func TestLoadCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	l := NewLoader(&stubSource{gate: make(chan struct{})})
	if _, err := l.Load(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}

func TestFromServices(t *testing.T) {
	now := time.Date(2025, 4, 20, 9, 0, 0, 0, time.UTC)
	svc := services.New(services.Deps{Store: memory.New(), Now: func() time.Time { return now }})
	ctx := context.Background()
	f, err := svc.Fields.Create(ctx, core.Field{Name: "North", SizeInAcres: 12.5, Location: "East"})
	if err != nil {
		t.Fatalf("create field: %v", err)
	}
	for day := 1; day <= 4; day++ {
		_, err := svc.Plantings.Create(ctx, core.PlantingRecord{
			CropID: 9, FieldID: f.ID, PlantingDate: core.NewDate(2025, 4, day),
			SeedQuantity: 1, PlantingMethod: "Broadcasting",
		})
		if err != nil {
			t.Fatalf("create planting: %v", err)
		}
	}

	snap, err := NewLoader(FromServices(svc)).WithClock(func() time.Time { return now }).Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if snap.Fields.TotalFields != 1 || snap.Plantings.TotalRecords != 4 || len(snap.RecentPlantings) != 3 {
		t.Errorf("snapshot = %+v", snap)
	}
	if got := snap.RecentPlantings[0]; got.PlantingDate.String() != "2025-04-04" || got.CropName != enrich.UnknownCrop {
		t.Errorf("first recent planting = %+v", got)
	}
	if !snap.LoadedAt.Equal(now) {
		t.Errorf("LoadedAt = %v", snap.LoadedAt)
	}
}
