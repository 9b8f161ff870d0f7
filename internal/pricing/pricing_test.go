package pricing

import (
	"math"
	"strings"
	"testing"

	"transport-request-service/internal/domain"
)

func nearlyEqual(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("%s = %v, want %v", name, got, want)
	}
}

func TestCalculate_PerKmWithinIncludedDistance(t *testing.T) {
	in := domain.PricingInput{Method: domain.MethodPerKm, BaseRate: 50000, PricePerKm: 10000}
	b := Calculate(in, domain.Aggregates{TotalDistanceKm: 2})

	nearlyEqual(t, "baseCost", b.BaseCost, 50000)
	nearlyEqual(t, "distanceCost", b.DistanceCost, 0)
	nearlyEqual(t, "totalCost", b.TotalCost, 50000)
}

func TestCalculate_PerKmBeyondIncludedDistance(t *testing.T) {
	in := domain.PricingInput{
		Method:     domain.MethodPerKm,
		BaseRate:   50000,
		PricePerKm: 10000,
		StopFee:    20000,
		TollFee:    5000,
	}
	b := Calculate(in, domain.Aggregates{TotalDistanceKm: 10, TotalStops: 2})

	nearlyEqual(t, "baseCost", b.BaseCost, 50000)
	nearlyEqual(t, "distanceCost", b.DistanceCost, 60000)
	nearlyEqual(t, "stopCost", b.StopCost, 40000)
	nearlyEqual(t, "surchargeCost", b.SurchargeCost, 5000)
	nearlyEqual(t, "totalCost", b.TotalCost, 155000)
}

func TestCalculate_PerM3(t *testing.T) {
	in := domain.PricingInput{Method: domain.MethodPerM3, PricePerM3: 200000, StopFee: 15000, BaseRate: 99999}
	b := Calculate(in, domain.Aggregates{TotalVolume: 3.5, TotalStops: 1, TotalDistanceKm: 50})

	nearlyEqual(t, "baseCost", b.BaseCost, 0)
	nearlyEqual(t, "distanceCost", b.DistanceCost, 700000)
	nearlyEqual(t, "stopCost", b.StopCost, 15000)
	nearlyEqual(t, "totalCost", b.TotalCost, 715000)
}

func TestCalculate_PerTrip(t *testing.T) {
	in := domain.PricingInput{
		Method:        domain.MethodPerTrip,
		PricePerTrip:  800000,
		PricePerKm:    10000,
		FuelSurcharge: 1000,
		InsuranceFee:  2000,
	}
	b := Calculate(in, domain.Aggregates{TotalDistanceKm: 120, TotalStops: 3})

	nearlyEqual(t, "baseCost", b.BaseCost, 800000)
	nearlyEqual(t, "distanceCost", b.DistanceCost, 0)
	nearlyEqual(t, "surchargeCost", b.SurchargeCost, 3000)
	nearlyEqual(t, "totalCost", b.TotalCost, 803000)
}

func TestCalculate_UnknownMethod(t *testing.T) {
	in := domain.PricingInput{Method: "PER_PALLET", BaseRate: 1, StopFee: 1, TollFee: 1}
	b := Calculate(in, domain.Aggregates{TotalDistanceKm: 10, TotalStops: 2})

	if b.BaseCost != 0 || b.DistanceCost != 0 || b.StopCost != 0 || b.SurchargeCost != 0 || b.TotalCost != 0 {
		t.Fatalf("expected zero breakdown, got %+v", b)
	}
	if !strings.Contains(b.Formula, "unknown pricing method") {
		t.Fatalf("formula = %q, want unknown method notice", b.Formula)
	}
}

func TestCalculate_AllZeroInputs(t *testing.T) {
	for _, m := range []domain.PricingMethod{domain.MethodPerKm, domain.MethodPerTrip, domain.MethodPerM3} {
		b := Calculate(domain.PricingInput{Method: m}, domain.Aggregates{})
		nearlyEqual(t, string(m)+" totalCost", b.TotalCost, 0)
	}
}

func TestCalculate_Additivity(t *testing.T) {
	methods := []domain.PricingMethod{domain.MethodPerKm, domain.MethodPerTrip, domain.MethodPerM3, "bogus"}
	for _, m := range methods {
		for d := 0.0; d <= 20; d += 2.5 {
			in := domain.PricingInput{
				Method: m, BaseRate: 30000, PricePerKm: 7000, PricePerTrip: 450000,
				PricePerM3: 120000, StopFee: 10000, FuelSurcharge: 3000, TollFee: 4000, InsuranceFee: 500,
			}
			b := Calculate(in, domain.Aggregates{TotalDistanceKm: d, TotalStops: 3, TotalVolume: d / 4})
			nearlyEqual(t, "total", b.TotalCost, b.BaseCost+b.DistanceCost+b.StopCost+b.SurchargeCost)
		}
	}
}

func TestCalculate_PerKmMonotonic(t *testing.T) {
	in := domain.PricingInput{Method: domain.MethodPerKm, BaseRate: 50000, PricePerKm: 10000, StopFee: 1000}
	agg := domain.Aggregates{TotalStops: 1}

	flat := Calculate(in, agg).TotalCost
	prev := flat
	for d := 0.0; d <= 30; d += 0.5 {
		agg.TotalDistanceKm = d
		got := Calculate(in, agg).TotalCost
		if d <= IncludedKm && got != flat {
			t.Fatalf("distance %v: cost %v, want constant %v", d, got, flat)
		}
		if got < prev {
			t.Fatalf("distance %v: cost %v decreased from %v", d, got, prev)
		}
		prev = got
	}
}

func TestCalculate_FormulaShowsTotal(t *testing.T) {
	in := domain.PricingInput{Method: domain.MethodPerKm, BaseRate: 50000, PricePerKm: 10000}
	b := Calculate(in, domain.Aggregates{TotalDistanceKm: 10})

	if !strings.HasPrefix(b.Formula, "PER_KM: ") {
		t.Fatalf("formula = %q", b.Formula)
	}
	if !strings.HasSuffix(b.Formula, "total 110.000") {
		t.Fatalf("formula = %q, want total 110.000", b.Formula)
	}
}
