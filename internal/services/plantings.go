package services

import (
	"context"

	"farmdash/internal/core"
	"farmdash/internal/enrich"
	"farmdash/internal/records"
	"farmdash/internal/stats"
)

// DefaultRecentPlantings is the page size of Recent when none is given.
const DefaultRecentPlantings = 5

type PlantingService struct {
	*entityService[core.PlantingRecord]
	refs refLoader
}

func NewPlantingService(d Deps) *PlantingService {
	return &PlantingService{
		entityService: newEntityService[core.PlantingRecord](d, records.Plantings),
		refs:          newRefLoader(d.Store),
	}
}

func (s *PlantingService) ListEnriched(ctx context.Context, opts records.ListOptions) ([]enrich.PlantingView, error) {
	return enrichedList(ctx, s.entityService, s.refs, opts, enrich.Refs.Planting)
}

func recentOptions(limit int) records.ListOptions {
	if limit <= 0 {
		limit = DefaultRecentPlantings
	}
	return records.ListOptions{
		Sort:  []records.Sort{{Field: "plantingDate", Desc: true}},
		Limit: limit,
	}
}

// Recent returns the latest plantings by planting date, newest first.
func (s *PlantingService) Recent(ctx context.Context, limit int) ([]enrich.PlantingView, error) {
	return s.ListEnriched(ctx, recentOptions(limit))
}

func (s *PlantingService) Stats(ctx context.Context) (stats.PlantingStats, error) {
	recs, err := s.List(ctx, records.ListOptions{})
	if err != nil {
		return stats.PlantingStats{}, err
	}
	return stats.Plantings(recs, s.now()), nil
}
