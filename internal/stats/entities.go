package stats

import (
	"time"

	"farmdash/internal/core"
)

type FieldStats struct {
	TotalFields  int     `json:"totalFields"`
	ActiveFields int     `json:"activeFields"`
	FallowFields int     `json:"fallowFields"`
	TotalAcres   float64 `json:"totalAcres"`
}

func Fields(fields []core.Field) FieldStats {
	return FieldStats{
		TotalFields:  len(fields),
		ActiveFields: Count(fields, func(f core.Field) bool { return f.Status == core.FieldActive }),
		FallowFields: Count(fields, func(f core.Field) bool { return f.Status == core.FieldFallow }),
		TotalAcres:   core.RoundTenth(Sum(fields, func(f core.Field) float64 { return f.SizeInAcres }, nil)),
	}
}

type CropStats struct {
	TotalCrops     int `json:"totalCrops"`
	ActiveCrops    int `json:"activeCrops"`
	ReadyToHarvest int `json:"readyToHarvest"`
	Harvested      int `json:"harvested"`
}

func Crops(crops []core.Crop) CropStats {
	return CropStats{
		TotalCrops: len(crops),
		ActiveCrops: Count(crops, func(c core.Crop) bool {
			return c.Status == core.CropGrowing || c.Status == core.CropPlanted
		}),
		ReadyToHarvest: Count(crops, func(c core.Crop) bool { return c.Status == core.CropReady }),
		Harvested:      Count(crops, func(c core.Crop) bool { return c.Status == core.CropHarvested }),
	}
}

type PlantingStats struct {
	TotalRecords     int `json:"totalRecords"`
	ThisMonthRecords int `json:"thisMonthRecords"`
	UniqueCrops      int `json:"uniqueCrops"`
	UniqueFields     int `json:"uniqueFields"`
}

// Plantings counts this month's records from the first of now's month,
// UTC.
func Plantings(recs []core.PlantingRecord, now time.Time) PlantingStats {
	start := core.MonthStart(now)
	return PlantingStats{
		TotalRecords: len(recs),
		ThisMonthRecords: Count(recs, func(p core.PlantingRecord) bool {
			return !p.PlantingDate.IsZero() && p.PlantingDate.OnOrAfter(start)
		}),
		UniqueCrops:  Distinct(recs, func(p core.PlantingRecord) int64 { return p.CropID }),
		UniqueFields: Distinct(recs, func(p core.PlantingRecord) int64 { return p.FieldID }),
	}
}

type FertilizerStats struct {
	TotalApplications     int     `json:"totalApplications"`
	TotalCost             float64 `json:"totalCost"`
	AvgCostPerApplication float64 `json:"avgCostPerApplication"`
	UniqueFertilizerTypes int     `json:"uniqueFertilizerTypes"`
}

func Fertilizers(recs []core.FertilizerRecord) FertilizerStats {
	total := Sum(recs, func(r core.FertilizerRecord) float64 { return r.TotalCost }, nil)
	return FertilizerStats{
		TotalApplications:     len(recs),
		TotalCost:             core.RoundMoney(total),
		AvgCostPerApplication: core.RoundMoney(Average(total, len(recs))),
		UniqueFertilizerTypes: Distinct(recs, func(r core.FertilizerRecord) string { return r.FertilizerType }),
	}
}

type IrrigationStats struct {
	TotalRecords              int     `json:"totalRecords"`
	TotalWaterUsed            float64 `json:"totalWaterUsed"`
	AverageWaterPerIrrigation float64 `json:"averageWaterPerIrrigation"`
}

func Irrigations(recs []core.IrrigationRecord) IrrigationStats {
	water := Sum(recs, func(r core.IrrigationRecord) float64 { return r.WaterAmount }, nil)
	return IrrigationStats{
		TotalRecords:              len(recs),
		TotalWaterUsed:            core.RoundMoney(water),
		AverageWaterPerIrrigation: core.RoundMoney(Average(water, len(recs))),
	}
}

type PestStats struct {
	TotalObservations  int     `json:"totalObservations"`
	ActiveIssues       int     `json:"activeIssues"`
	ResolvedIssues     int     `json:"resolvedIssues"`
	MonitoringIssues   int     `json:"monitoringIssues"`
	AvgSeverity        float64 `json:"avgSeverity"`
	TotalTreatmentCost float64 `json:"totalTreatmentCost"`
	TotalAffectedArea  float64 `json:"totalAffectedArea"`
}

func status(s core.PestStatus) func(core.PestObservation) bool {
	return func(p core.PestObservation) bool { return p.Status == s }
}

func Pests(obs []core.PestObservation) PestStats {
	severity := Sum(obs, func(p core.PestObservation) float64 { return float64(p.SeverityLevel) }, nil)
	return PestStats{
		TotalObservations:  len(obs),
		ActiveIssues:       Count(obs, status(core.PestActive)),
		ResolvedIssues:     Count(obs, status(core.PestResolved)),
		MonitoringIssues:   Count(obs, status(core.PestMonitoring)),
		AvgSeverity:        core.RoundTenth(Average(severity, len(obs))),
		TotalTreatmentCost: core.RoundMoney(Sum(obs, func(p core.PestObservation) float64 { return p.TreatmentCost }, nil)),
		TotalAffectedArea:  core.RoundTenth(Sum(obs, func(p core.PestObservation) float64 { return p.AffectedArea }, nil)),
	}
}

type TaskStats struct {
	TotalTasks          int     `json:"totalTasks"`
	Pending             int     `json:"pending"`
	InProgress          int     `json:"inProgress"`
	Completed           int     `json:"completed"`
	Overdue             int     `json:"overdue"`
	TotalEstimatedHours float64 `json:"totalEstimatedHours"`
	TotalActualHours    float64 `json:"totalActualHours"`
}

// Tasks counts a task as overdue when its due date is before today (UTC)
// and it is not completed.
func Tasks(tasks []core.Task, now time.Time) TaskStats {
	today := core.DateOf(now)
	byStatus := func(s core.TaskStatus) func(core.Task) bool {
		return func(t core.Task) bool { return t.Status == s }
	}
	return TaskStats{
		TotalTasks: len(tasks),
		Pending:    Count(tasks, byStatus(core.TaskPending)),
		InProgress: Count(tasks, byStatus(core.TaskInProgress)),
		Completed:  Count(tasks, byStatus(core.TaskCompleted)),
		Overdue: Count(tasks, func(t core.Task) bool {
			return !t.DueDate.IsZero() && t.DueDate.Before(today) && t.Status != core.TaskCompleted
		}),
		TotalEstimatedHours: core.RoundMoney(Sum(tasks, func(t core.Task) float64 { return t.EstimatedHours }, nil)),
		TotalActualHours:    core.RoundMoney(Sum(tasks, func(t core.Task) float64 { return t.ActualHours }, nil)),
	}
}

type EquipmentStats struct {
	TotalEquipment   int `json:"totalEquipment"`
	Operational      int `json:"operational"`
	UnderMaintenance int `json:"underMaintenance"`
	Inactive         int `json:"inactive"`
}

func Equipment(items []core.Equipment) EquipmentStats {
	byStatus := func(s core.EquipmentStatus) func(core.Equipment) bool {
		return func(e core.Equipment) bool { return e.OperationalStatus == s }
	}
	return EquipmentStats{
		TotalEquipment:   len(items),
		Operational:      Count(items, byStatus(core.EquipmentOperational)),
		UnderMaintenance: Count(items, byStatus(core.EquipmentUnderMaintenance)),
		Inactive:         Count(items, byStatus(core.EquipmentInactive)),
	}
}
