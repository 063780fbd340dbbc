package enrich

import "farmdash/internal/core"

type ExpenseView struct {
	core.Expense
	FieldName string `json:"fieldName"`
	CropName  string `json:"cropName"`
}

type IncomeView struct {
	core.Income
	FieldName string `json:"fieldName"`
	CropName  string `json:"cropName"`
}

type PlantingView struct {
	core.PlantingRecord
	FieldName string `json:"fieldName"`
	CropName  string `json:"cropName"`
}

type FertilizerView struct {
	core.FertilizerRecord
	FieldName string `json:"fieldName"`
	CropName  string `json:"cropName"`
}

type IrrigationView struct {
	core.IrrigationRecord
	FieldName string `json:"fieldName"`
}

type PestView struct {
	core.PestObservation
	FieldName string `json:"fieldName"`
	CropName  string `json:"cropName"`
}

type CropView struct {
	core.Crop
	FieldName string `json:"fieldName"`
}

type TaskView struct {
	core.Task
	FieldName string `json:"fieldName"`
	CropName  string `json:"cropName"`
}

type EquipmentView struct {
	core.Equipment
	FieldName string `json:"fieldName"`
}

// Expense crop names are never "Unknown": an unresolved crop reads N/A.
func (r Refs) Expense(e core.Expense) ExpenseView {
	return ExpenseView{
		Expense:   e,
		FieldName: r.Fields.Name(e.FieldID, UnknownField),
		CropName:  r.Crops.Optional(e.CropID, NotApplicable, NotApplicable),
	}
}

// Income prefers the linked crop's name, then the free-text crop name on
// the record.
func (r Refs) Income(i core.Income) IncomeView {
	crop := r.Crops.Optional(i.CropID, "", "")
	if crop == "" {
		crop = i.CropName
	}
	if crop == "" {
		crop = NotApplicable
	}
	return IncomeView{
		Income:    i,
		FieldName: r.Fields.Name(i.FieldID, UnknownField),
		CropName:  crop,
	}
}

func (r Refs) Planting(p core.PlantingRecord) PlantingView {
	return PlantingView{
		PlantingRecord: p,
		FieldName:      r.Fields.Name(p.FieldID, UnknownField),
		CropName:       r.Crops.Name(p.CropID, UnknownCrop),
	}
}

func (r Refs) Fertilizer(f core.FertilizerRecord) FertilizerView {
	return FertilizerView{
		FertilizerRecord: f,
		FieldName:        r.Fields.Name(f.FieldID, UnknownField),
		CropName:         r.Crops.Optional(f.CropID, NotApplicable, UnknownCrop),
	}
}

func (r Refs) Irrigation(i core.IrrigationRecord) IrrigationView {
	return IrrigationView{
		IrrigationRecord: i,
		FieldName:        r.Fields.Name(i.FieldID, UnknownField),
	}
}

func (r Refs) Pest(p core.PestObservation) PestView {
	return PestView{
		PestObservation: p,
		FieldName:       r.Fields.Name(p.FieldID, UnknownField),
		CropName:        r.Crops.Optional(p.CropID, NotApplicable, UnknownCrop),
	}
}

func (r Refs) Crop(c core.Crop) CropView {
	return CropView{Crop: c, FieldName: r.Fields.Name(c.FieldID, UnknownField)}
}

func (r Refs) Task(t core.Task) TaskView {
	return TaskView{
		Task:      t,
		FieldName: r.Fields.Optional(t.FieldID, NoField, NoField),
		CropName:  r.Crops.Optional(t.CropID, NotApplicable, UnknownCrop),
	}
}

func (r Refs) Equipment(e core.Equipment) EquipmentView {
	return EquipmentView{
		Equipment: e,
		FieldName: r.Fields.Optional(e.FieldID, NotApplicable, UnknownField),
	}
}
