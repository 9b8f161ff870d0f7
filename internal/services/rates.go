package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"transport-request-service/internal/domain"
	"transport-request-service/internal/ports"
)

// ApplyCarrierRate looks up the rate card for the form's carrier and method
// and returns it as pricing input. Vehicle type is ignored for PER_M3.
func ApplyCarrierRate(ctx context.Context, rates ports.CarrierRateProvider, form DraftForm) (domain.PricingInput, error) {
	if rates == nil {
		return domain.PricingInput{}, errors.New("apply carrier rate: no rate provider configured")
	}
	if strings.TrimSpace(form.Carrier) == "" || !form.Method.Valid() {
		return domain.PricingInput{}, errors.New("apply carrier rate: carrier and pricing method are required")
	}

	q := ports.RateQuery{
		CarrierName: form.Carrier,
		Method:      form.Method,
		VehicleType: form.VehicleType,
		ServiceArea: form.ServiceArea,
	}
	if form.Method == domain.MethodPerM3 {
		q.VehicleType = ""
	}

	rate, err := rates.GetRate(ctx, q)
	if err != nil {
		return domain.PricingInput{}, fmt.Errorf("apply carrier rate: %w", err)
	}

	in := rate.PricingInput()
	in.Method = form.Method
	return in, nil
}
