package model

// Core domain types for generated instances. JSON keys are the document
// format consumed by downstream solvers.

// Product is a fuel product carried by trucks and demanded by stations.
type Product string

const (
	Essence Product = "essence"
	Gasoil  Product = "gasoil"
)

// Products is the fixed product set, in generation order.
var Products = []Product{Essence, Gasoil}

// Quantities maps a product to a non-negative quantity (litres).
type Quantities map[Product]int

// Sum returns the total over all products.
func (q Quantities) Sum() int {
	total := 0
	for _, v := range q {
		total += v
	}
	return total
}

type Coordinates struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Site is a located entity with a global distance-matrix index.
type Site struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Coordinates Coordinates `json:"coordinates"`
	Index       int         `json:"index"`
}

type Garage struct {
	Site
}

type Depot struct {
	Site
	Stock Quantities `json:"stock,omitempty"`
}

type Station struct {
	Site
	Demand Quantities `json:"demand"`
}

// Truck starts from HomeGarage. Product is set when the truck is dedicated
// to a single product.
type Truck struct {
	ID         string  `json:"id"`
	HomeGarage string  `json:"home_garage"`
	Capacity   int     `json:"capacity"`
	Product    Product `json:"product,omitempty"`
}

// DistanceMatrix is indexed by Site.Index.
type DistanceMatrix [][]float64

type DemandRange struct {
	Min int `json:"min" yaml:"min" validate:"gte=0"`
	Max int `json:"max" yaml:"max" validate:"gte=0,lte=1000000,gtefield=Min"`
}

type Metadata struct {
	ID               string  `json:"id,omitempty"`
	Name             string  `json:"name,omitempty"`
	GeneratedAt      string  `json:"generated_at"`
	Difficulty       string  `json:"difficulty"`
	ZoneSizeKm       float64 `json:"zone_size_km"`
	Description      string  `json:"description"`
	Seed             int64   `json:"seed"`
	Policy           string  `json:"policy"`
	GeneratorVersion string  `json:"generator_version,omitempty"`
}

type Parameters struct {
	NGarages        int         `json:"n_garages"`
	NDepots         int         `json:"n_depots"`
	NStations       int         `json:"n_stations"`
	NTrucks         int         `json:"n_trucks"`
	TruckCapacity   int         `json:"truck_capacity"`
	Products        []Product   `json:"products"`
	DemandRange     DemandRange `json:"demand_range"`
	Policy          string      `json:"policy"`
	StockMultiplier float64     `json:"stock_multiplier,omitempty"`
}

type Statistics struct {
	TotalDemand               Quantities `json:"total_demand"`
	RequiredTrucks            Quantities `json:"required_trucks"`
	MinTotalRequiredTrucks    int        `json:"min_total_required_trucks"`
	TotalTrucksAvailable      int        `json:"total_trucks_available"`
	TrucksPerProduct          Quantities `json:"trucks_per_product,omitempty"`
	EffectiveCapacity         int        `json:"effective_capacity"`
	TotalStock                Quantities `json:"total_stock,omitempty"`
	AvgDistanceToNearestDepot float64    `json:"avg_distance_to_nearest_depot"`
}

// Instance is the aggregate root of one generated problem.
type Instance struct {
	Metadata       Metadata       `json:"metadata"`
	Parameters     Parameters     `json:"parameters"`
	Garages        []Garage       `json:"garages"`
	Depots         []Depot        `json:"depots"`
	Stations       []Station      `json:"stations"`
	Trucks         []Truck        `json:"trucks,omitempty"`
	DistanceMatrix DistanceMatrix `json:"distance_matrix"`
	Statistics     Statistics     `json:"statistics"`
}

// Summary is the list view of a stored instance.
type Summary struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	Difficulty  string `json:"difficulty"`
	Policy      string `json:"policy"`
	NStations   int    `json:"n_stations"`
	NTrucks     int    `json:"n_trucks"`
	GeneratedAt string `json:"generated_at"`
}

// Summarize builds the list view of inst under id.
func Summarize(id string, inst *Instance) Summary {
	return Summary{
		ID:          id,
		Name:        inst.Metadata.Name,
		Difficulty:  inst.Metadata.Difficulty,
		Policy:      inst.Metadata.Policy,
		NStations:   inst.Parameters.NStations,
		NTrucks:     inst.Parameters.NTrucks,
		GeneratedAt: inst.Metadata.GeneratedAt,
	}
}
