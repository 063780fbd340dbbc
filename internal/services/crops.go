package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"farmdash/internal/amqp"
	"farmdash/internal/core"
	"farmdash/internal/enrich"
	"farmdash/internal/records"
	"farmdash/internal/stats"
)

const (
	attrGrowthStage  = "growthStage"
	attrStageHistory = "stageHistory"
)

type CropService struct {
	*entityService[core.Crop]
	refs refLoader
}

func NewCropService(d Deps) *CropService {
	s := newEntityService[core.Crop](d, records.Crops)
	s.prepare = func(c *core.Crop, now time.Time) { c.ApplyDefaults(now) }
	s.reconcile = reconcileCropStage
	return &CropService{entityService: s, refs: newRefLoader(d.Store)}
}

// reconcileCropStage keeps the stage history append-only on a plain
// update: a growthStage in the patch goes through AdvanceStage and a
// supplied stageHistory is ignored.
func reconcileCropStage(current core.Crop, merged *core.Crop, patch records.Record, now time.Time) error {
	delete(patch, attrStageHistory)
	merged.StageHistory = current.StageHistory
	if _, ok := patch[attrGrowthStage]; !ok {
		return nil
	}
	delete(patch, attrGrowthStage)
	target := merged.GrowthStage
	merged.GrowthStage = current.GrowthStage
	changed, err := merged.AdvanceStage(target, now)
	if err != nil {
		return validationError(attrGrowthStage, err.Error())
	}
	if !changed {
		return nil
	}
	return stagePatch(patch, *merged)
}

func stagePatch(patch records.Record, c core.Crop) error {
	history, err := records.EncodeValue(c.StageHistory)
	if err != nil {
		return err
	}
	patch[attrGrowthStage] = string(c.GrowthStage)
	patch[attrStageHistory] = history
	return nil
}

// SetStage moves the crop to the named stage. Choosing the current stage
// writes nothing and returns the crop unchanged with changed=false.
func (s *CropService) SetStage(ctx context.Context, id int64, name string) (crop core.Crop, changed bool, err error) {
	stage, err := core.ParseGrowthStage(name)
	if err != nil {
		return core.Crop{}, false, validationError(attrGrowthStage, err.Error())
	}
	crop, err = s.Get(ctx, id)
	if err != nil {
		return core.Crop{}, false, err
	}
	changed, err = crop.AdvanceStage(stage, s.now())
	if err != nil {
		return core.Crop{}, false, validationError(attrGrowthStage, err.Error())
	}
	if !changed {
		return crop, false, nil
	}

	patch := records.Record{}
	if err := stagePatch(patch, crop); err != nil {
		return core.Crop{}, false, err
	}
	updated, err := s.table.Update(ctx, id, patch)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to update growth stage", "id", id, "stage", stage, "error", err)
		return core.Crop{}, false, fmt.Errorf("set stage of crop %d: %w", id, err)
	}
	slog.InfoContext(ctx, "Crop stage changed", "id", id, "stage", stage, "history", len(updated.StageHistory))
	s.publish(ctx, amqp.ActionStageChanged, id, updated)
	return updated, true, nil
}

func (s *CropService) ListEnriched(ctx context.Context, opts records.ListOptions) ([]enrich.CropView, error) {
	return enrichedList(ctx, s.entityService, s.refs, opts, enrich.Refs.Crop)
}

func (s *CropService) Stats(ctx context.Context) (stats.CropStats, error) {
	crops, err := s.List(ctx, records.ListOptions{})
	if err != nil {
		return stats.CropStats{}, err
	}
	return stats.Crops(crops), nil
}
