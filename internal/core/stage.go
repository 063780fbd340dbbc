package core

import (
	"fmt"
	"time"
)

// GrowthStage is the operator-tracked maturity label of a crop. It is
// independent of CropStatus.
type GrowthStage string

const (
	StagePlanted      GrowthStage = "Planted"
	StageGerminated   GrowthStage = "Germinated"
	StageVegetative   GrowthStage = "Vegetative"
	StageFlowering    GrowthStage = "Flowering"
	StageFruiting     GrowthStage = "Fruiting"
	StageHarvestReady GrowthStage = "Harvest Ready"
)

// GrowthStages lists the stages in their fixed order.
var GrowthStages = []GrowthStage{
	StagePlanted,
	StageGerminated,
	StageVegetative,
	StageFlowering,
	StageFruiting,
	StageHarvestReady,
}

// StageEntry records one stage change. Entries are only ever appended.
type StageEntry struct {
	Stage     GrowthStage `json:"stage"`
	Date      time.Time   `json:"date"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// Index returns the position of s in GrowthStages, or -1.
func (s GrowthStage) Index() int {
	for i, g := range GrowthStages {
		if g == s {
			return i
		}
	}
	return -1
}

func (s GrowthStage) Valid() bool { return s.Index() >= 0 }

// ParseGrowthStage validates a stage name.
func ParseGrowthStage(name string) (GrowthStage, error) {
	s := GrowthStage(name)
	if !s.Valid() {
		return "", fmt.Errorf("unknown growth stage %q", name)
	}
	return s, nil
}

// AdvanceStage moves the crop to stage, appending a history entry stamped
// with now. Any stage may follow any other. Selecting the current stage
// changes nothing and reports false. Status is never touched.
func (c *Crop) AdvanceStage(stage GrowthStage, now time.Time) (bool, error) {
	if !stage.Valid() {
		return false, fmt.Errorf("unknown growth stage %q", stage)
	}
	if stage == c.currentStage() {
		return false, nil
	}
	now = now.UTC()
	history := make([]StageEntry, len(c.StageHistory), len(c.StageHistory)+1)
	copy(history, c.StageHistory)
	c.StageHistory = append(history, StageEntry{Stage: stage, Date: now, UpdatedAt: now})
	c.GrowthStage = stage
	return true, nil
}

// currentStage treats a crop without a stage as Planted.
func (c *Crop) currentStage() GrowthStage {
	if c.GrowthStage == "" {
		return StagePlanted
	}
	return c.GrowthStage
}
