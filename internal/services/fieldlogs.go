package services

import (
	"context"
	"time"

	"farmdash/internal/core"
	"farmdash/internal/enrich"
	"farmdash/internal/records"
	"farmdash/internal/stats"
)

const attrTotalCost = "totalCost"

type FertilizerService struct {
	*entityService[core.FertilizerRecord]
	refs refLoader
}

func NewFertilizerService(d Deps) *FertilizerService {
	s := newEntityService[core.FertilizerRecord](d, records.Fertilizers)
	s.prepare = func(r *core.FertilizerRecord, _ time.Time) { r.ComputeTotal() }
	s.reconcile = func(current core.FertilizerRecord, merged *core.FertilizerRecord, patch records.Record, _ time.Time) error {
		merged.ComputeTotal()
		if merged.TotalCost == current.TotalCost {
			delete(patch, attrTotalCost)
			return nil
		}
		patch[attrTotalCost] = merged.TotalCost
		return nil
	}
	return &FertilizerService{entityService: s, refs: newRefLoader(d.Store)}
}

func (s *FertilizerService) ListEnriched(ctx context.Context, opts records.ListOptions) ([]enrich.FertilizerView, error) {
	return enrichedList(ctx, s.entityService, s.refs, opts, enrich.Refs.Fertilizer)
}

func (s *FertilizerService) ByField(ctx context.Context, fieldID int64) ([]enrich.FertilizerView, error) {
	return s.ListEnriched(ctx, byField(fieldID))
}

func (s *FertilizerService) Stats(ctx context.Context) (stats.FertilizerStats, error) {
	recs, err := s.List(ctx, records.ListOptions{})
	if err != nil {
		return stats.FertilizerStats{}, err
	}
	return stats.Fertilizers(recs), nil
}

type IrrigationService struct {
	*entityService[core.IrrigationRecord]
	refs refLoader
}

func NewIrrigationService(d Deps) *IrrigationService {
	return &IrrigationService{
		entityService: newEntityService[core.IrrigationRecord](d, records.Irrigations),
		refs:          newRefLoader(d.Store),
	}
}

func (s *IrrigationService) ListEnriched(ctx context.Context, opts records.ListOptions) ([]enrich.IrrigationView, error) {
	return enrichedList(ctx, s.entityService, s.refs, opts, enrich.Refs.Irrigation)
}

func (s *IrrigationService) ByField(ctx context.Context, fieldID int64) ([]enrich.IrrigationView, error) {
	return s.ListEnriched(ctx, byField(fieldID))
}

func (s *IrrigationService) Stats(ctx context.Context) (stats.IrrigationStats, error) {
	recs, err := s.List(ctx, records.ListOptions{})
	if err != nil {
		return stats.IrrigationStats{}, err
	}
	return stats.Irrigations(recs), nil
}

type PestService struct {
	*entityService[core.PestObservation]
	refs refLoader
}

func NewPestService(d Deps) *PestService {
	s := newEntityService[core.PestObservation](d, records.Pests)
	s.prepare = func(p *core.PestObservation, _ time.Time) { p.ApplyDefaults() }
	return &PestService{entityService: s, refs: newRefLoader(d.Store)}
}

func (s *PestService) ListEnriched(ctx context.Context, opts records.ListOptions) ([]enrich.PestView, error) {
	return enrichedList(ctx, s.entityService, s.refs, opts, enrich.Refs.Pest)
}

func (s *PestService) ByField(ctx context.Context, fieldID int64) ([]enrich.PestView, error) {
	return s.ListEnriched(ctx, byField(fieldID))
}

func (s *PestService) Stats(ctx context.Context) (stats.PestStats, error) {
	obs, err := s.List(ctx, records.ListOptions{})
	if err != nil {
		return stats.PestStats{}, err
	}
	return stats.Pests(obs), nil
}
