package handlers

import (
	"net/http"
	"strings"

	"transport-request-service/internal/api/dto"
	"transport-request-service/internal/domain"
	"transport-request-service/internal/ports"
)

// CatalogHandler exposes read-only transfer and location listings.
type CatalogHandler struct {
	Transfers ports.TransferRepository
	Locations ports.LocationDirectory
}

func (h *CatalogHandler) ListTransfers(w http.ResponseWriter, r *http.Request) {
	pickup := strings.TrimSpace(r.URL.Query().Get("pickup_location_id"))
	if pickup == "" {
		writeError(w, r, http.StatusBadRequest, "pickup_location_id is required")
		return
	}

	transfers, err := h.Transfers.ListPendingTransfers(r.Context(), pickup)
	if err != nil {
		writeServiceError(w, r, "list transfers", err)
		return
	}

	res := dto.ListTransfersResponse{Transfers: make([]dto.TransferResponse, 0, len(transfers))}
	for _, t := range transfers {
		res.Transfers = append(res.Transfers, transferResponse(t))
	}

	writeJSON(w, r, http.StatusOK, res)
}

func (h *CatalogHandler) ListLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := h.Locations.ListLocations(r.Context())
	if err != nil {
		writeServiceError(w, r, "list locations", err)
		return
	}

	res := dto.ListLocationsResponse{Locations: make([]dto.LocationResponse, 0, len(locations))}
	for _, l := range locations {
		res.Locations = append(res.Locations, dto.LocationResponse{
			LocationID: l.LocationID,
			Code:       l.Code,
			Address:    l.Address,
			Category:   l.Category,
			Status:     l.Status,
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}

func transferResponse(t domain.Transfer) dto.TransferResponse {
	return dto.TransferResponse{
		TransferID:       t.TransferID,
		DeliveryAddress:  t.DeliveryAddress,
		TotalPackages:    t.TotalPackages,
		Volume:           t.Volume,
		TotalProducts:    t.TotalProducts,
		PickupLocationID: t.PickupLocationID,
		Status:           t.Status,
	}
}
