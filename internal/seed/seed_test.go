package seed

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"farmdash/internal/core"
	"farmdash/internal/records"
	"farmdash/internal/services"
	"farmdash/internal/storage/memory"
)

const farm = `
fields:
  - name: North
    sizeInAcres: 40
    location: East ridge
crops:
  - name: Corn
    variety: Sweet
    field: North
    plantingDate: 2025-03-01
plantings:
  - crop: Corn
    field: North
    plantingDate: "2025-03-02"
    seedQuantity: 12
    plantingMethod: Row Planting
expenses:
  - field: North
    description: Seed order
    amount: 120.555
    date: 2025-03-01
    category: Seeds
incomes:
  - field: North
    crop: Corn
    description: Corn sale
    quantity: 100
    pricePerUnit: 5
    date: 2025-04-01
`

func newServices() *services.Services {
	now := time.Date(2025, 4, 20, 0, 0, 0, 0, time.UTC)
	return services.New(services.Deps{Store: memory.New(), Now: func() time.Time { return now }})
}

func TestApply(t *testing.T) {
	f, err := Parse(strings.NewReader(farm))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	svc := newServices()
	ctx := context.Background()

	got, err := Apply(ctx, svc, f)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	want := Result{records.Fields: 1, records.Crops: 1, records.Plantings: 1, records.Expenses: 1, records.Incomes: 1}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Apply() mismatch (-want +got):\n%s", diff)
	}

	crops, _ := svc.Crops.List(ctx, records.ListOptions{})
	if len(crops) != 1 || crops[0].FieldID != 1 || crops[0].PlantingDate.String() != "2025-03-01" {
		t.Errorf("crops = %+v", crops)
	}
	if crops[0].GrowthStage != core.StagePlanted {
		t.Errorf("seeded crop stage = %q, want defaults applied", crops[0].GrowthStage)
	}
	incomes, _ := svc.Incomes.List(ctx, records.ListOptions{})
	if len(incomes) != 1 || incomes[0].Amount != 500 || incomes[0].CropID == nil || *incomes[0].CropID != crops[0].ID {
		t.Errorf("incomes = %+v", incomes)
	}
}

func TestApplyErrors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{
			name:    "unknown field reference",
			doc:     "crops:\n  - name: Corn\n    variety: Sweet\n    field: Nowhere\n    plantingDate: 2025-03-01\n",
			wantErr: `crops[0]: unknown field "Nowhere"`,
		},
		{
			name:    "validation failure",
			doc:     "fields:\n  - name: North\n    sizeInAcres: 0\n    location: East\n",
			wantErr: "fields[0]: validation failed",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse(strings.NewReader(tt.doc))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			_, err = Apply(context.Background(), newServices(), f)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Apply() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestParseRejectsUnknownSections(t *testing.T) {
	if _, err := Parse(strings.NewReader("livestock:\n  - name: Daisy\n")); err == nil {
		t.Error("expected error for unknown section")
	}
}

func TestParseEmpty(t *testing.T) {
	f, err := Parse(strings.NewReader(""))
	if err != nil || len(f.Fields) != 0 {
		t.Errorf("Parse(empty) = %+v, %v", f, err)
	}
}
