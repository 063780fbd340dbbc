package enrich

import (
	"encoding/json"
	"testing"

	"farmdash/internal/core"
)

func ptr(v int64) *int64 { return &v }

var (
	testFields = []core.Field{{ID: 1, Name: "North"}, {ID: 2, Name: "River"}}
	testCrops  = []core.Crop{{ID: 10, Name: "Corn"}}
)

func TestPlantingWithDanglingField(t *testing.T) {
	r := NewRefs(testFields, testCrops)
	v := r.Planting(core.PlantingRecord{ID: 1, FieldID: 99, CropID: 10})
	if v.FieldName != UnknownField {
		t.Errorf("FieldName = %q, want %q", v.FieldName, UnknownField)
	}
	if v.CropName != "Corn" {
		t.Errorf("CropName = %q, want Corn", v.CropName)
	}
	v = r.Planting(core.PlantingRecord{FieldID: 1, CropID: 11})
	if v.CropName != UnknownCrop {
		t.Errorf("CropName = %q, want %q", v.CropName, UnknownCrop)
	}
}

func TestIncomeCropChain(t *testing.T) {
	r := NewRefs(testFields, testCrops)
	tests := []struct {
		name string
		in   core.Income
		want string
	}{
		{name: "linked crop", in: core.Income{CropID: ptr(10), CropName: "Maize"}, want: "Corn"},
		{name: "dangling crop falls back to record name", in: core.Income{CropID: ptr(11), CropName: "Maize"}, want: "Maize"},
		{name: "no crop at all", in: core.Income{}, want: NotApplicable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Income(tt.in).CropName; got != tt.want {
				t.Errorf("CropName = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOptionalReferences(t *testing.T) {
	r := NewRefs(testFields, testCrops)
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"expense without crop", r.Expense(core.Expense{FieldID: 1}).CropName, NotApplicable},
		{"expense with dangling crop", r.Expense(core.Expense{FieldID: 1, CropID: ptr(5)}).CropName, NotApplicable},
		{"expense field", r.Expense(core.Expense{FieldID: 2}).FieldName, "River"},
		{"pest with dangling crop", r.Pest(core.PestObservation{FieldID: 1, CropID: ptr(5)}).CropName, UnknownCrop},
		{"fertilizer without crop", r.Fertilizer(core.FertilizerRecord{FieldID: 1}).CropName, NotApplicable},
		{"unassigned equipment", r.Equipment(core.Equipment{}).FieldName, NotApplicable},
		{"equipment on missing field", r.Equipment(core.Equipment{FieldID: ptr(7)}).FieldName, UnknownField},
		{"task without field", r.Task(core.Task{}).FieldName, NoField},
		{"task crop", r.Task(core.Task{CropID: ptr(10)}).CropName, "Corn"},
		{"crop field", r.Crop(core.Crop{FieldID: 3}).FieldName, UnknownField},
		{"irrigation field", r.Irrigation(core.IrrigationRecord{FieldID: 1}).FieldName, "North"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestViewJSONIsFlat(t *testing.T) {
	r := NewRefs(testFields, testCrops)
	b, err := json.Marshal(r.Expense(core.Expense{ID: 3, FieldID: 1, Amount: 12.5}))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if m["fieldName"] != "North" || m["amount"] != 12.5 || m["id"] != 3.0 {
		t.Errorf("json = %s", b)
	}
}

func TestMap(t *testing.T) {
	r := NewRefs(nil, nil)
	got := Map([]core.IrrigationRecord{{FieldID: 1}, {FieldID: 2}}, r.Irrigation)
	if len(got) != 2 || got[1].FieldName != UnknownField {
		t.Errorf("Map() = %+v", got)
	}
}
