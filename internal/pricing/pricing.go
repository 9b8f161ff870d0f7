// Package pricing turns rate parameters and request aggregates into a cost
// breakdown. It is pure: no I/O, no clock, no shared state.
package pricing

import (
	"fmt"
	"strings"

	"transport-request-service/internal/domain"
	"transport-request-service/internal/numfmt"
)

// IncludedKm is the distance covered by the base rate of per-kilometer pricing.
const IncludedKm = 4.0

// Calculate computes the cost breakdown for one transport request.
// Unknown methods yield an all-zero breakdown whose formula says so.
func Calculate(in domain.PricingInput, agg domain.Aggregates) domain.CostBreakdown {
	distance := nonNegative(agg.TotalDistanceKm)
	volume := nonNegative(agg.TotalVolume)
	stops := max(agg.TotalStops, 0)

	if !in.Method.Valid() {
		return domain.CostBreakdown{
			Formula: fmt.Sprintf("unknown pricing method %q: no cost computed", string(in.Method)),
		}
	}

	var b domain.CostBreakdown
	switch in.Method {
	case domain.MethodPerKm:
		b.BaseCost = in.BaseRate
		if distance > IncludedKm {
			b.DistanceCost = (distance - IncludedKm) * in.PricePerKm
		}
	case domain.MethodPerTrip:
		b.BaseCost = in.PricePerTrip
	case domain.MethodPerM3:
		b.DistanceCost = volume * in.PricePerM3
	}

	b.StopCost = in.StopFee * float64(stops)
	b.SurchargeCost = in.FuelSurcharge + in.TollFee + in.InsuranceFee
	b.TotalCost = b.BaseCost + b.DistanceCost + b.StopCost + b.SurchargeCost
	b.Formula = formula(in, distance, stops, volume, b)

	return b
}

// formula renders the audit string from the values already placed in b so the
// text can never disagree with the charged amount.
func formula(in domain.PricingInput, distance float64, stops int, volume float64, b domain.CostBreakdown) string {
	n := func(v float64) string { return numfmt.FormatNumber(v, 2) }

	var sb strings.Builder
	sb.WriteString(in.Method.String())
	sb.WriteString(": ")

	switch in.Method {
	case domain.MethodPerKm:
		if distance > IncludedKm {
			fmt.Fprintf(&sb, "base %s + (%s km - %s km) x %s = %s",
				n(b.BaseCost), n(distance), n(IncludedKm), n(in.PricePerKm), n(b.BaseCost+b.DistanceCost))
		} else {
			fmt.Fprintf(&sb, "base %s (%s km <= %s km) = %s",
				n(b.BaseCost), n(distance), n(IncludedKm), n(b.BaseCost+b.DistanceCost))
		}
	case domain.MethodPerTrip:
		fmt.Fprintf(&sb, "trip %s", n(b.BaseCost))
	case domain.MethodPerM3:
		fmt.Fprintf(&sb, "%s m3 x %s = %s", n(volume), n(in.PricePerM3), n(b.DistanceCost))
	}

	fmt.Fprintf(&sb, "; stops %d x %s = %s", stops, n(in.StopFee), n(b.StopCost))
	fmt.Fprintf(&sb, "; surcharges %s + %s + %s = %s",
		n(in.FuelSurcharge), n(in.TollFee), n(in.InsuranceFee), n(b.SurchargeCost))
	fmt.Fprintf(&sb, "; total %s", n(b.TotalCost))

	return sb.String()
}

func nonNegative(v float64) float64 {
	if v < 0 || v != v {
		return 0
	}
	return v
}
