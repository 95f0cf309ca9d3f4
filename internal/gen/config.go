package gen

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"petrovrp/internal/model"
)

// ErrInvalidConfig is returned before any sampling when a Config is malformed.
var ErrInvalidConfig = errors.New("invalid instance config")

// Size limits accepted by Validate. They keep the distance matrix, the
// fleet and every demand or stock total within memory and int range.
const (
	MaxGarages         = 100
	MaxDepots          = 100
	MaxStations        = 1000
	MaxStationDemand   = 1_000_000
	MaxTruckCapacity   = 1_000_000_000
	MaxZoneSize        = 100_000.0
	MaxStockMultiplier = 100.0
	MaxFleet           = 10_000
)

// Config holds the parameters of one instance. A nil Seed means "not
// pinned": GenerateInstance uses 0 and a batch assigns base + position.
type Config struct {
	Name               string                    `json:"name,omitempty" yaml:"name,omitempty"`
	Seed               *int64                    `json:"seed,omitempty" yaml:"seed,omitempty"`
	NGarages           int                       `json:"n_garages" yaml:"n_garages" validate:"min=1,max=100"`
	NDepots            int                       `json:"n_depots" yaml:"n_depots" validate:"min=1,max=100"`
	NStations          int                       `json:"n_stations" yaml:"n_stations" validate:"min=1,max=1000"`
	TruckCapacity      int                       `json:"truck_capacity" yaml:"truck_capacity" validate:"min=1,max=1000000000"`
	ZoneSize           float64                   `json:"zone_size" yaml:"zone_size" validate:"gt=0,lte=100000"`
	DemandRange        model.DemandRange         `json:"demand_range" yaml:"demand_range"`
	Difficulty         Difficulty                `json:"difficulty" yaml:"difficulty" validate:"required,oneof=easy medium hard"`
	Policy             PolicyKind                `json:"policy,omitempty" yaml:"policy,omitempty" validate:"omitempty,oneof=fleet stock"`
	StockMultiplier    float64                   `json:"stock_multiplier,omitempty" yaml:"stock_multiplier,omitempty" validate:"omitempty,gt=1,lte=100"`
	DemandPolicy       DemandPolicyKind          `json:"demand_policy,omitempty" yaml:"demand_policy,omitempty" validate:"omitempty,oneof=uniform sparse"`
	AbsenceProbability map[model.Product]float64 `json:"absence_probability,omitempty" yaml:"absence_probability,omitempty" validate:"omitempty,dive,keys,oneof=essence gasoil,endkeys,gte=0,lte=1"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// SeedValue is the seed the instance is generated with.
func (c Config) SeedValue() int64 {
	if c.Seed == nil {
		return 0
	}
	return *c.Seed
}

// WithSeed returns a copy of c pinned to seed.
func (c Config) WithSeed(seed int64) Config {
	c.Seed = &seed
	return c
}

// Normalize fills policy defaults. The receiver is left untouched.
func (c Config) Normalize() Config {
	if c.Policy == "" {
		c.Policy = PolicyFleet
	}
	if c.DemandPolicy == "" {
		c.DemandPolicy = DemandUniform
	}
	switch c.Policy {
	case PolicyStock:
		if c.StockMultiplier == 0 {
			c.StockMultiplier = DefaultStockMultiplier
		}
	case PolicyFleet:
		c.StockMultiplier = 0
	}
	if c.DemandPolicy == DemandSparse && len(c.AbsenceProbability) == 0 {
		c.AbsenceProbability = make(map[model.Product]float64, len(DefaultAbsence))
		for p, v := range DefaultAbsence {
			c.AbsenceProbability[p] = v
		}
	}
	return c
}

// Validate reports every malformed field at once, wrapped in ErrInvalidConfig.
func (c Config) Validate() error {
	var msgs []string
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		for _, fe := range verrs {
			msgs = append(msgs, describe(fe))
		}
	}
	if math.IsInf(c.ZoneSize, 0) {
		msgs = append(msgs, "zone_size must be finite")
	}
	if len(msgs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
	}
	if worst := c.worstCaseFleet(); worst > MaxFleet {
		return fmt.Errorf("%w: demand up to %d per station over %d stations may need %d trucks of capacity %d, limit is %d",
			ErrInvalidConfig, c.DemandRange.Max, c.NStations, worst, c.TruckCapacity, MaxFleet)
	}
	return nil
}

// worstCaseFleet is the fleet a policy would allocate if every station
// asked for DemandRange.Max of every product. Only meaningful on a config
// whose fields passed validation.
func (c Config) worstCaseFleet() int {
	capacity := c.TruckCapacity
	if c.Policy == PolicyStock {
		if p, ok := Profile(c.Difficulty); ok {
			capacity = minPerturbedCapacity(capacity, p)
		}
	}
	perProduct := RequiredTrucks(c.DemandRange.Max*c.NStations, capacity)
	return AvailableTrucks(perProduct*len(model.Products), c.Difficulty)
}

func describe(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "min", "gte":
		return fmt.Sprintf("%s must be >= %s (got %v)", field, fe.Param(), fe.Value())
	case "gt":
		return fmt.Sprintf("%s must be > %s (got %v)", field, fe.Param(), fe.Value())
	case "max":
		return fmt.Sprintf("%s must be <= %s (got %v)", field, fe.Param(), fe.Value())
	case "lte":
		return fmt.Sprintf("%s must be <= %s (got %v)", field, fe.Param(), fe.Value())
	case "gtefield":
		return fmt.Sprintf("%s must be >= %s (got %v)", field, strings.ToLower(fe.Param()), fe.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s] (got %q)", field, fe.Param(), fe.Value())
	case "required":
		return fmt.Sprintf("%s is required", field)
	default:
		return fmt.Sprintf("%s failed %q (got %v)", field, fe.Tag(), fe.Value())
	}
}
