package core

import "time"

type (
	FieldStatus     string
	CropStatus      string
	PestCategory    string
	PestStatus      string
	EquipmentStatus string
	TaskStatus      string
	TaskPriority    string
	ExpenseCategory string
	TransactionKind string
)

const (
	FieldActive      FieldStatus = "active"
	FieldFallow      FieldStatus = "fallow"
	FieldMaintenance FieldStatus = "maintenance"

	CropPlanted   CropStatus = "planted"
	CropGrowing   CropStatus = "growing"
	CropReady     CropStatus = "ready"
	CropHarvested CropStatus = "harvested"

	PestCategoryPest    PestCategory = "Pest"
	PestCategoryDisease PestCategory = "Disease"
	PestCategoryWeed    PestCategory = "Weed"

	PestActive     PestStatus = "Active"
	PestMonitoring PestStatus = "Monitoring"
	PestResolved   PestStatus = "Resolved"

	EquipmentOperational      EquipmentStatus = "operational"
	EquipmentInactive         EquipmentStatus = "inactive"
	EquipmentUnderMaintenance EquipmentStatus = "under maintenance"

	TaskPending    TaskStatus = "Pending"
	TaskInProgress TaskStatus = "In Progress"
	TaskCompleted  TaskStatus = "Completed"

	PriorityLow    TaskPriority = "Low"
	PriorityMedium TaskPriority = "Medium"
	PriorityHigh   TaskPriority = "High"

	KindExpense TransactionKind = "expense"
	KindIncome  TransactionKind = "income"
)

// Field is a parcel of land.
type Field struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	SizeInAcres float64     `json:"sizeInAcres"`
	Location    string      `json:"location"`
	Status      FieldStatus `json:"status"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// Crop is a planting on a field. FieldID is a lookup-only reference.
type Crop struct {
	ID               int64        `json:"id"`
	Name             string       `json:"name"`
	Variety          string       `json:"variety"`
	FieldID          int64        `json:"fieldId"`
	PlantingDate     Date         `json:"plantingDate"`
	EstimatedHarvest Date         `json:"estimatedHarvest"`
	Status           CropStatus   `json:"status"`
	GrowthStage      GrowthStage  `json:"growthStage"`
	StageHistory     []StageEntry `json:"stageHistory"`
	Notes            string       `json:"notes"`
	CreatedAt        time.Time    `json:"createdAt"`
}

type PlantingRecord struct {
	ID             int64     `json:"id"`
	CropID         int64     `json:"cropId"`
	FieldID        int64     `json:"fieldId"`
	PlantingDate   Date      `json:"plantingDate"`
	SeedQuantity   float64   `json:"seedQuantity"`
	PlantingMethod string    `json:"plantingMethod"`
	Notes          string    `json:"notes"`
	CreatedAt      time.Time `json:"createdAt"`
}

type FertilizerRecord struct {
	ID                int64     `json:"id"`
	FieldID           int64     `json:"fieldId"`
	CropID            *int64    `json:"cropId"`
	FertilizerType    string    `json:"fertilizerType"`
	ApplicationDate   Date      `json:"applicationDate"`
	QuantityUsed      float64   `json:"quantityUsed"`
	Unit              string    `json:"unit"`
	CostPerUnit       float64   `json:"costPerUnit"`
	TotalCost         float64   `json:"totalCost"`
	ApplicationMethod string    `json:"applicationMethod"`
	Notes             string    `json:"notes"`
	CreatedAt         time.Time `json:"createdAt"`
}

type IrrigationRecord struct {
	ID               int64     `json:"id"`
	FieldID          int64     `json:"fieldId"`
	Date             Date      `json:"date"`
	Duration         float64   `json:"duration"`
	WaterAmount      float64   `json:"waterAmount"`
	IrrigationMethod string    `json:"irrigationMethod"`
	Notes            string    `json:"notes"`
	CreatedAt        time.Time `json:"createdAt"`
}

type PestObservation struct {
	ID                int64        `json:"id"`
	FieldID           int64        `json:"fieldId"`
	CropID            *int64       `json:"cropId"`
	PestType          string       `json:"pestType"`
	Category          PestCategory `json:"category"`
	SeverityLevel     int          `json:"severityLevel"`
	AffectedArea      float64      `json:"affectedArea"`
	AffectedAreaUnit  string       `json:"affectedAreaUnit"`
	ObservationDate   Date         `json:"observationDate"`
	Description       string       `json:"description"`
	TreatmentApplied  string       `json:"treatmentApplied"`
	TreatmentDate     Date         `json:"treatmentDate"`
	TreatmentCost     float64      `json:"treatmentCost"`
	Status            PestStatus   `json:"status"`
	WeatherConditions string       `json:"weatherConditions"`
	ObservedBy        string       `json:"observedBy"`
	FollowUpRequired  bool         `json:"followUpRequired"`
	FollowUpDate      Date         `json:"followUpDate"`
	Notes             string       `json:"notes"`
	CreatedAt         time.Time    `json:"createdAt"`
}

type Equipment struct {
	ID                  int64           `json:"id"`
	Name                string          `json:"name"`
	Type                string          `json:"type"`
	PurchaseDate        Date            `json:"purchaseDate"`
	MaintenanceSchedule string          `json:"maintenanceSchedule"`
	OperationalStatus   EquipmentStatus `json:"operationalStatus"`
	FieldID             *int64          `json:"fieldId"`
	Notes               string          `json:"notes"`
	Description         string          `json:"description"`
	CreatedAt           time.Time       `json:"createdAt"`
}

type Task struct {
	ID             int64        `json:"id"`
	Name           string       `json:"name"`
	Description    string       `json:"description"`
	Status         TaskStatus   `json:"status"`
	Priority       TaskPriority `json:"priority"`
	AssignedTo     string       `json:"assignedTo"`
	DueDate        Date         `json:"dueDate"`
	FieldID        *int64       `json:"fieldId"`
	CropID         *int64       `json:"cropId"`
	EstimatedHours float64      `json:"estimatedHours"`
	ActualHours    float64      `json:"actualHours"`
	Notes          string       `json:"notes"`
	Tags           string       `json:"tags"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

// Expense is money spent. Amount carries full float precision; rounding is
// a presentation concern.
type Expense struct {
	ID           int64           `json:"id"`
	FieldID      int64           `json:"fieldId"`
	CropID       *int64          `json:"cropId"`
	Category     ExpenseCategory `json:"category"`
	Description  string          `json:"description"`
	Amount       float64         `json:"amount"`
	Quantity     float64         `json:"quantity"`
	Unit         string          `json:"unit"`
	PricePerUnit float64         `json:"pricePerUnit"`
	Date         Date            `json:"date"`
	Supplier     string          `json:"supplier"`
	Notes        string          `json:"notes"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// Income is money received from selling produce.
type Income struct {
	ID           int64     `json:"id"`
	FieldID      int64     `json:"fieldId"`
	CropID       *int64    `json:"cropId"`
	CropName     string    `json:"cropName"`
	Description  string    `json:"description"`
	Amount       float64   `json:"amount"`
	Quantity     float64   `json:"quantity"`
	Unit         string    `json:"unit"`
	PricePerUnit float64   `json:"pricePerUnit"`
	Date         Date      `json:"date"`
	Buyer        string    `json:"buyer"`
	Notes        string    `json:"notes"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ApplyDefaults fills in the attributes a new record gets when the caller
// leaves them empty.
func (f *Field) ApplyDefaults() {
	if f.Status == "" {
		f.Status = FieldActive
	}
}

func (c *Crop) ApplyDefaults(now time.Time) {
	if c.Status == "" {
		c.Status = CropGrowing
	}
	if c.GrowthStage == "" {
		c.GrowthStage = StagePlanted
	}
	if len(c.StageHistory) == 0 {
		c.StageHistory = []StageEntry{{Stage: c.GrowthStage, Date: now.UTC(), UpdatedAt: now.UTC()}}
	}
}

// ComputeTotal derives TotalCost from quantity and unit cost.
func (r *FertilizerRecord) ComputeTotal() {
	r.TotalCost = RoundMoney(r.QuantityUsed * r.CostPerUnit)
}

func (p *PestObservation) ApplyDefaults() {
	if p.Status == "" {
		p.Status = PestActive
	}
}

func (e *Equipment) ApplyDefaults() {
	if e.OperationalStatus == "" {
		e.OperationalStatus = EquipmentOperational
	}
}

func (t *Task) ApplyDefaults() {
	if t.Status == "" {
		t.Status = TaskPending
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
}

func (e *Expense) ApplyDefaults() {
	if e.Category == "" {
		e.Category = CategoryOther
	}
}

// DeriveAmount sets Amount from quantity and price when it was not given.
func (i *Income) DeriveAmount() {
	if i.Amount == 0 && i.Quantity > 0 && i.PricePerUnit > 0 {
		i.Amount = i.Quantity * i.PricePerUnit
	}
}
