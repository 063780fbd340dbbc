package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// ErrValidation is matched by every *ValidationError.
var ErrValidation = errors.New("validation failed")

// ValidationError carries one message per offending attribute. Validation
// is exhaustive: every rule runs before the error is returned.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

type checker struct {
	fields map[string]string
}

func (c *checker) check(ok bool, field, msg string) {
	if ok {
		return
	}
	if c.fields == nil {
		c.fields = make(map[string]string)
	}
	if _, seen := c.fields[field]; !seen {
		c.fields[field] = msg
	}
}

func (c *checker) required(s, field string) {
	c.check(strings.TrimSpace(s) != "", field, "is required")
}

func (c *checker) err() error {
	if len(c.fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: c.fields}
}

func (f Field) Validate() error {
	var c checker
	c.required(f.Name, "name")
	c.check(f.SizeInAcres > 0, "sizeInAcres", "must be a positive number")
	c.required(f.Location, "location")
	c.check(contains([]FieldStatus{FieldActive, FieldFallow, FieldMaintenance}, f.Status),
		"status", "must be active, fallow or maintenance")
	return c.err()
}

func (cr Crop) Validate() error {
	var c checker
	c.required(cr.Name, "name")
	c.required(cr.Variety, "variety")
	c.check(cr.FieldID > 0, "fieldId", "is required")
	c.check(!cr.PlantingDate.IsZero(), "plantingDate", "is required")
	if !cr.EstimatedHarvest.IsZero() && !cr.PlantingDate.IsZero() {
		c.check(cr.EstimatedHarvest.After(cr.PlantingDate), "estimatedHarvest", "must be after planting date")
	}
	c.check(contains([]CropStatus{CropPlanted, CropGrowing, CropReady, CropHarvested}, cr.Status),
		"status", "must be planted, growing, ready or harvested")
	c.check(cr.GrowthStage.Valid(), "growthStage", fmt.Sprintf("unknown growth stage %q", cr.GrowthStage))
	return c.err()
}

func (p PlantingRecord) Validate() error {
	var c checker
	c.check(p.CropID > 0, "cropId", "is required")
	c.check(p.FieldID > 0, "fieldId", "is required")
	c.check(!p.PlantingDate.IsZero(), "plantingDate", "is required")
	c.check(p.SeedQuantity > 0, "seedQuantity", "must be a positive number")
	c.required(p.PlantingMethod, "plantingMethod")
	c.check(contains(PlantingMethods, p.PlantingMethod), "plantingMethod", "is not a known planting method")
	return c.err()
}

func (r FertilizerRecord) Validate() error {
	var c checker
	c.required(r.FertilizerType, "fertilizerType")
	c.check(r.FieldID > 0, "fieldId", "is required")
	c.check(!r.ApplicationDate.IsZero(), "applicationDate", "is required")
	c.check(r.QuantityUsed > 0, "quantityUsed", "must be a positive number")
	c.check(r.CostPerUnit >= 0, "costPerUnit", "cannot be negative")
	return c.err()
}

func (r IrrigationRecord) Validate() error {
	var c checker
	c.check(r.FieldID > 0, "fieldId", "is required")
	c.check(!r.Date.IsZero(), "date", "is required")
	c.check(r.Duration > 0, "duration", "must be a positive number")
	c.check(r.WaterAmount > 0, "waterAmount", "must be a positive number")
	return c.err()
}

func (p PestObservation) Validate() error {
	var c checker
	c.required(p.PestType, "pestType")
	c.check(contains([]PestCategory{PestCategoryPest, PestCategoryDisease, PestCategoryWeed}, p.Category),
		"category", "must be Pest, Disease or Weed")
	c.check(p.SeverityLevel >= 1 && p.SeverityLevel <= 5, "severityLevel", "must be between 1 and 5")
	c.check(p.FieldID > 0, "fieldId", "is required")
	c.check(!p.ObservationDate.IsZero(), "observationDate", "is required")
	c.check(p.AffectedArea >= 0, "affectedArea", "cannot be negative")
	if p.AffectedAreaUnit != "" {
		c.check(contains(AreaUnits, p.AffectedAreaUnit), "affectedAreaUnit", "is not a known area unit")
	}
	c.check(p.TreatmentCost >= 0, "treatmentCost", "cannot be negative")
	c.check(contains([]PestStatus{PestActive, PestMonitoring, PestResolved}, p.Status),
		"status", "must be Active, Monitoring or Resolved")
	return c.err()
}

func (e Equipment) Validate() error {
	var c checker
	c.required(e.Name, "name")
	c.required(e.Type, "type")
	c.check(contains([]EquipmentStatus{EquipmentOperational, EquipmentInactive, EquipmentUnderMaintenance}, e.OperationalStatus),
		"operationalStatus", "must be operational, inactive or under maintenance")
	return c.err()
}

func (t Task) Validate() error {
	var c checker
	c.required(t.Name, "name")
	c.check(contains([]TaskStatus{TaskPending, TaskInProgress, TaskCompleted}, t.Status),
		"status", "must be Pending, In Progress or Completed")
	c.check(contains([]TaskPriority{PriorityLow, PriorityMedium, PriorityHigh}, t.Priority),
		"priority", "must be Low, Medium or High")
	c.check(t.EstimatedHours >= 0, "estimatedHours", "cannot be negative")
	c.check(t.ActualHours >= 0, "actualHours", "cannot be negative")
	return c.err()
}

func (e Expense) Validate() error {
	var c checker
	c.check(e.FieldID > 0, "fieldId", "is required")
	c.check(contains(ExpenseCategories, e.Category), "category", "is not a known expense category")
	c.required(e.Description, "description")
	c.check(utf8.RuneCountInString(e.Description) <= 200, "description", "too long (max 200 characters)")
	c.check(e.Amount > 0, "amount", "must be a positive number")
	c.check(!e.Date.IsZero(), "date", "is required")
	return c.err()
}

func (i Income) Validate() error {
	var c checker
	c.check(i.FieldID > 0, "fieldId", "is required")
	c.required(i.Description, "description")
	c.check(utf8.RuneCountInString(i.Description) <= 200, "description", "too long (max 200 characters)")
	c.check(i.Quantity > 0, "quantity", "must be a positive number")
	c.check(i.PricePerUnit > 0, "pricePerUnit", "must be a positive number")
	c.check(i.Amount > 0, "amount", "must be a positive number")
	c.check(!i.Date.IsZero(), "date", "is required")
	return c.err()
}
