package services

import (
	"fmt"
	"regexp"
	"strings"

	"transport-request-service/internal/domain"
	"transport-request-service/internal/numfmt"
	"transport-request-service/internal/pricing"
	"transport-request-service/internal/registry"
)

var sourceCodePattern = regexp.MustCompile(`^[A-Z]+\d+`)

// draftView is a read-only view of a session used by validation and
// payload assembly. The owning session holds its lock while a view is in use.
type draftView struct {
	form      DraftForm
	pricing   domain.PricingInput
	reg       *registry.Registry
	distances map[string]float64
	locations []domain.Location
}

func (v draftView) totalDistanceKm() float64 {
	var total float64
	for _, k := range v.reg.SelectedStopKeys() {
		total += v.distances[k]
	}
	return total
}

func (v draftView) aggregates() domain.Aggregates {
	_, volume := v.reg.SelectionTotals()
	return domain.Aggregates{
		TotalDistanceKm: v.totalDistanceKm(),
		TotalStops:      len(v.reg.SelectedStopKeys()),
		TotalVolume:     volume,
	}
}

func (v draftView) pricingInput() domain.PricingInput {
	in := v.pricing
	in.Method = v.form.Method
	return in
}

func (v draftView) cost() domain.CostBreakdown {
	return pricing.Calculate(v.pricingInput(), v.aggregates())
}

// validateSubmission lists every missing item blocking a submission.
// An empty result means the draft may be submitted.
func validateSubmission(v draftView) []string {
	var msgs []string
	f := v.form

	if strings.TrimSpace(f.PickupLocationID) == "" {
		msgs = append(msgs, "pickup location is required")
	}
	if strings.TrimSpace(f.Carrier) == "" {
		msgs = append(msgs, "carrier is required")
	}
	if !f.Method.Valid() {
		msgs = append(msgs, "pricing method is required")
	}
	if f.Method != domain.MethodPerM3 && strings.TrimSpace(f.VehicleType) == "" {
		msgs = append(msgs, "vehicle type is required")
	}
	if strings.TrimSpace(f.ServiceArea) == "" {
		msgs = append(msgs, "service area is required")
	}
	if strings.TrimSpace(f.Department) == "" {
		msgs = append(msgs, "department is required")
	}

	stops := len(v.reg.SelectedStopKeys())
	switch {
	case stops == 0:
		msgs = append(msgs, "at least one stop point must be selected")
	case stops > domain.MaxStopPoints:
		msgs = append(msgs, fmt.Sprintf("at most %d stop points may be selected", domain.MaxStopPoints))
	}
	if len(v.reg.SelectedTransferIDs()) == 0 {
		msgs = append(msgs, "at least one transfer must be selected")
	}

	packages, volume := v.reg.SelectionTotals()
	if packages <= 0 {
		msgs = append(msgs, "total packages must be greater than 0")
	}
	if volume <= 0 {
		msgs = append(msgs, "total volume must be greater than 0")
	}
	if f.Method == domain.MethodPerKm && v.totalDistanceKm() <= 0 {
		msgs = append(msgs, "total distance must be greater than 0 for per-kilometer pricing")
	}

	return msgs
}

// assemblePayload builds the persistence payload. The estimated cost is
// computed here, from the same inputs the payload carries.
func assemblePayload(v draftView) domain.SubmissionPayload {
	p := domain.SubmissionPayload{
		RequestID:   v.form.RequestID,
		Carrier:     v.form.Carrier,
		VehicleType: v.form.VehicleType,
		ServiceArea: v.form.ServiceArea,
		Department:  v.form.Department,
		Note:        v.form.Note,
		Pricing:     v.pricingInput(),
	}
	if v.form.Method == domain.MethodPerM3 {
		p.VehicleType = ""
	}

	for _, l := range v.locations {
		if l.LocationID == v.form.PickupLocationID {
			p.PickupAddress = l.Address
			p.PickupCode = l.Code
			break
		}
	}

	for i, key := range v.reg.SelectedStopKeys() {
		sp, _ := v.reg.StopPoint(key)
		totals := v.reg.StopTotals(key)

		line := domain.StopLine{
			Index:        i + 1,
			StopKey:      key,
			Address:      sp.DeliveryAddress,
			SourceCode:   sourceCode(sp.DeliveryAddress, v.locations),
			Packages:     totals.Packages,
			Volume:       totals.Volume,
			DistanceKm:   v.distances[key],
			OrderCount:   totals.OrderCount,
			ProductCount: totals.Products,
			TransferIDs:  strings.Join(totals.TransferIDs, ","),
		}
		p.Stops = append(p.Stops, line)

		p.TotalPackages += line.Packages
		p.TotalVolume += line.Volume
		p.TotalDistanceKm += line.DistanceKm
		p.TotalOrders += line.OrderCount
		p.TotalProducts += line.ProductCount
	}

	cost := pricing.Calculate(p.Pricing, domain.Aggregates{
		TotalDistanceKm: p.TotalDistanceKm,
		TotalStops:      len(p.Stops),
		TotalVolume:     p.TotalVolume,
	})
	p.EstimatedCost = numfmt.RoundCurrency(cost.TotalCost)
	p.Formula = cost.Formula

	return p
}

// sourceCode derives the short code of a stop, e.g. "ST14" from
// "ST14 - 88 Le Loi". Falls back to the code of a location whose address
// matches.
func sourceCode(address string, locations []domain.Location) string {
	addr := strings.TrimSpace(address)
	if code := sourceCodePattern.FindString(addr); code != "" {
		return code
	}

	needle := strings.ToLower(normalizeAddress(addr))
	if needle == "" {
		return ""
	}
	for _, l := range locations {
		la := strings.ToLower(normalizeAddress(l.Address))
		if la == "" || l.Code == "" {
			continue
		}
		if strings.Contains(needle, la) || strings.Contains(la, needle) {
			return l.Code
		}
	}
	return ""
}
