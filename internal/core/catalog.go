package core

const (
	CategorySeeds       ExpenseCategory = "Seeds"
	CategoryFertilizer  ExpenseCategory = "Fertilizer"
	CategoryEquipment   ExpenseCategory = "Equipment"
	CategoryLabor       ExpenseCategory = "Labor"
	CategoryFuel        ExpenseCategory = "Fuel"
	CategoryMaintenance ExpenseCategory = "Maintenance"
	CategoryPesticides  ExpenseCategory = "Pesticides"
	CategoryUtilities   ExpenseCategory = "Utilities"
	CategoryInsurance   ExpenseCategory = "Insurance"
	CategoryOther       ExpenseCategory = "Other"
)

var ExpenseCategories = []ExpenseCategory{
	CategorySeeds, CategoryFertilizer, CategoryEquipment, CategoryLabor, CategoryFuel,
	CategoryMaintenance, CategoryPesticides, CategoryUtilities, CategoryInsurance, CategoryOther,
}

var PlantingMethods = []string{
	"Direct Seeding",
	"Transplanting",
	"Broadcasting",
	"Row Planting",
	"Hill Planting",
	"Drill Seeding",
	"No-Till",
	"Hydroponic",
}

var FertilizerTypes = []string{
	"Nitrogen (Urea)",
	"NPK 10-10-10",
	"NPK 15-15-15",
	"NPK 20-20-20",
	"Phosphorus (DAP)",
	"Potassium (Muriate)",
	"Organic Compost",
	"Liquid Fertilizer",
}

// Units are the measures accepted on expense and income lines.
var Units = []Unit{
	{"kg", "Kilograms (kg)"},
	{"lbs", "Pounds (lbs)"},
	{"tons", "Tons"},
	{"liters", "Liters"},
	{"gallons", "Gallons"},
	{"hours", "Hours"},
	{"units", "Units"},
}

var AreaUnits = []string{"acres", "hectares", "sq ft", "sq m"}

type Unit struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type PestGroup struct {
	Category PestCategory `json:"category"`
	Types    []string     `json:"types"`
}

var PestTypes = []PestGroup{
	{PestCategoryPest, []string{"Aphids", "Cutworm", "Corn Borer", "Thrips", "Spider Mites", "Whiteflies", "Caterpillars", "Beetles"}},
	{PestCategoryDisease, []string{"Powdery Mildew", "Leaf Spot", "Rust", "Blight", "Root Rot", "Wilt", "Mosaic Virus", "Anthracnose"}},
	{PestCategoryWeed, []string{"Pigweed", "Lambsquarters", "Foxtail", "Bindweed", "Thistle", "Dandelion", "Crabgrass", "Johnson Grass"}},
}

// Catalog bundles every fixed pick-list the UI offers.
type Catalog struct {
	PlantingMethods   []string          `json:"plantingMethods"`
	FertilizerTypes   []string          `json:"fertilizerTypes"`
	ExpenseCategories []ExpenseCategory `json:"expenseCategories"`
	Units             []Unit            `json:"units"`
	AreaUnits         []string          `json:"areaUnits"`
	PestTypes         []PestGroup       `json:"pestTypes"`
	GrowthStages      []GrowthStage     `json:"growthStages"`
}

func DefaultCatalog() Catalog {
	return Catalog{
		PlantingMethods:   PlantingMethods,
		FertilizerTypes:   FertilizerTypes,
		ExpenseCategories: ExpenseCategories,
		Units:             Units,
		AreaUnits:         AreaUnits,
		PestTypes:         PestTypes,
		GrowthStages:      GrowthStages,
	}
}

func contains[T comparable](list []T, v T) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
