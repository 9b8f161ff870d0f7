package handlers

import (
	"net/http"

	"transport-request-service/internal/api/dto"
	"transport-request-service/internal/domain"
	"transport-request-service/internal/numfmt"
	"transport-request-service/internal/pricing"
)

// Cost computes a breakdown from explicit inputs without touching any session.
func Cost(w http.ResponseWriter, r *http.Request) {
	var req dto.CostRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.TotalStops < 0 {
		writeError(w, r, http.StatusBadRequest, "total_stops must be non-negative")
		return
	}

	b := pricing.Calculate(pricingInput(req.PricingInput), domain.Aggregates{
		TotalDistanceKm: req.TotalDistanceKm.Float(),
		TotalStops:      req.TotalStops,
		TotalVolume:     req.TotalVolume.Float(),
	})

	writeJSON(w, r, http.StatusOK, costResponse(b))
}

// pricingInput translates the external pricing vocabulary at the boundary.
func pricingInput(in dto.PricingInput) domain.PricingInput {
	return domain.PricingInput{
		Method:        domain.ParsePricingMethod(in.Method),
		BaseRate:      in.BaseRate.Float(),
		PricePerKm:    in.PricePerKm.Float(),
		PricePerTrip:  in.PricePerTrip.Float(),
		PricePerM3:    in.PricePerM3.Float(),
		StopFee:       in.StopFee.Float(),
		FuelSurcharge: in.FuelSurcharge.Float(),
		TollFee:       in.TollFee.Float(),
		InsuranceFee:  in.InsuranceFee.Float(),
	}
}

func pricingResponse(in domain.PricingInput) dto.PricingResponse {
	return dto.PricingResponse{
		Method:        in.Method.String(),
		BaseRate:      in.BaseRate,
		PricePerKm:    in.PricePerKm,
		PricePerTrip:  in.PricePerTrip,
		PricePerM3:    in.PricePerM3,
		StopFee:       in.StopFee,
		FuelSurcharge: in.FuelSurcharge,
		TollFee:       in.TollFee,
		InsuranceFee:  in.InsuranceFee,
	}
}

func costResponse(b domain.CostBreakdown) dto.CostResponse {
	rounded := numfmt.RoundCurrency(b.TotalCost)
	return dto.CostResponse{
		BaseCost:        b.BaseCost,
		DistanceCost:    b.DistanceCost,
		StopCost:        b.StopCost,
		SurchargeCost:   b.SurchargeCost,
		TotalCost:       b.TotalCost,
		EstimatedCost:   rounded,
		EstimatedCostVN: numfmt.FormatNumber(rounded, 0),
		Formula:         b.Formula,
	}
}
