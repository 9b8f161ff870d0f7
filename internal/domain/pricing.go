package domain

import "strings"

// PricingMethod is the billing model selected for a carrier engagement.
type PricingMethod string

const (
	MethodUnknown PricingMethod = ""
	MethodPerKm   PricingMethod = "PER_KM"
	MethodPerTrip PricingMethod = "PER_TRIP"
	MethodPerM3   PricingMethod = "PER_M3"
)

// ParsePricingMethod translates the external vocabularies ("perKm",
// "per_km", "PER_KM", ...) into the internal enumeration.
// Unrecognised values map to MethodUnknown.
func ParsePricingMethod(s string) PricingMethod {
	k := strings.ToLower(strings.TrimSpace(s))
	k = strings.NewReplacer("_", "", "-", "", " ", "").Replace(k)
	switch k {
	case "perkm":
		return MethodPerKm
	case "pertrip":
		return MethodPerTrip
	case "perm3":
		return MethodPerM3
	default:
		return MethodUnknown
	}
}

func (m PricingMethod) Valid() bool {
	return m == MethodPerKm || m == MethodPerTrip || m == MethodPerM3
}

func (m PricingMethod) String() string {
	if m == MethodUnknown {
		return "UNKNOWN"
	}
	return string(m)
}

// PricingInput holds the rate parameters of a transport request.
// Every monetary field is optional; the zero value means "not charged".
type PricingInput struct {
	Method        PricingMethod
	BaseRate      float64
	PricePerKm    float64
	PricePerTrip  float64
	PricePerM3    float64
	StopFee       float64
	FuelSurcharge float64
	TollFee       float64
	InsuranceFee  float64
}

// Aggregates are the derived totals a cost is computed from.
// They are recomputed from their sources on every change, never stored.
type Aggregates struct {
	TotalDistanceKm float64
	TotalStops      int
	TotalVolume     float64
}

// CostBreakdown is the read-only result of a cost computation.
// TotalCost always equals the sum of the four components; rounding to whole
// currency units happens only at display or persistence time.
type CostBreakdown struct {
	BaseCost      float64
	DistanceCost  float64
	StopCost      float64
	SurchargeCost float64
	TotalCost     float64
	Formula       string
}
