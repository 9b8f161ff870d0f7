package handlers

import (
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"transport-request-service/internal/api/dto"
	"transport-request-service/internal/domain"
	"transport-request-service/internal/platform/obs"
	"transport-request-service/internal/services"
)

// SessionHandler exposes draft transport requests. Every mutating call
// recomputes distances afterwards, the way an editing dialog would.
type SessionHandler struct {
	Store     *services.SessionStore
	Submitter *services.Submitter
}

func (h *SessionHandler) session(w http.ResponseWriter, r *http.Request) (*services.Session, bool) {
	s, err := h.Store.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, http.StatusNotFound, "session not found")
		return nil, false
	}
	return s, true
}

func (h *SessionHandler) Open(w http.ResponseWriter, r *http.Request) {
	var req dto.OpenSessionRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	s := h.Store.Open(req.RequestID)
	obs.L(r.Context()).Info("session opened", zap.String("session_id", s.ID))
	writeJSON(w, r, http.StatusCreated, sessionResponse(s.Snapshot(), nil))
}

// Close discards a session and deletes its persisted draft, if any.
func (h *SessionHandler) Close(w http.ResponseWriter, r *http.Request) {
	s, err := h.Store.Close(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, http.StatusNotFound, "session not found")
		return
	}

	if err := h.Submitter.Abandon(r.Context(), s); err != nil {
		writeServiceError(w, r, "abandon draft", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, sessionResponse(s.Snapshot(), nil))
}

func (h *SessionHandler) UpdateForm(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req dto.FormRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	u := services.FormUpdate{
		PickupLocationID: req.PickupLocationID,
		Carrier:          req.Carrier,
		VehicleType:      req.VehicleType,
		ServiceArea:      req.ServiceArea,
		Department:       req.Department,
		Note:             req.Note,
	}
	if req.Method != nil {
		m := domain.ParsePricingMethod(*req.Method)
		if *req.Method != "" && !m.Valid() {
			writeError(w, r, http.StatusBadRequest, "pricing_method must be PER_KM, PER_TRIP or PER_M3")
			return
		}
		u.Method = &m
	}
	if req.Pricing != nil {
		in := pricingInput(*req.Pricing)
		u.Pricing = &in
	}

	pickupBefore := s.Form().PickupLocationID
	applied, err := s.UpdateForm(r.Context(), u)
	if err != nil {
		writeServiceError(w, r, "update form", err)
		return
	}
	if s.Form().PickupLocationID != pickupBefore {
		s.RecomputeDistances(r.Context())
	}

	writeJSON(w, r, http.StatusOK, sessionResponse(s.Snapshot(), &applied))
}

func (h *SessionHandler) SelectTransfer(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	if err := s.SelectTransfer(chi.URLParam(r, "transferID")); err != nil {
		writeServiceError(w, r, "select transfer", err)
		return
	}
	s.RecomputeDistances(r.Context())

	writeJSON(w, r, http.StatusOK, sessionResponse(s.Snapshot(), nil))
}

func (h *SessionHandler) DeselectTransfer(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	s.DeselectTransfer(chi.URLParam(r, "transferID"))
	s.RecomputeDistances(r.Context())

	writeJSON(w, r, http.StatusOK, sessionResponse(s.Snapshot(), nil))
}

func (h *SessionHandler) RecomputeDistances(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	res, applied := s.RecomputeDistances(r.Context())
	writeJSON(w, r, http.StatusOK, dto.DistancesResponse{
		Distances: res.Distances,
		TotalKm:   res.TotalKm,
		Error:     res.Err,
		Applied:   applied,
	})
}

func (h *SessionHandler) Validate(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	msgs := s.Validate()
	if msgs == nil {
		msgs = []string{}
	}
	writeJSON(w, r, http.StatusOK, dto.ValidateResponse{OK: len(msgs) == 0, Messages: msgs})
}

func (h *SessionHandler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	id, err := h.Submitter.SaveDraft(r.Context(), s)
	if err != nil {
		writeServiceError(w, r, "save draft", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.DraftResponse{RequestID: id})
}

func (h *SessionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	res, err := h.Submitter.Submit(r.Context(), s)
	if err != nil {
		writeServiceError(w, r, "submit", err)
		return
	}

	p := res.Payload
	out := dto.SubmitResponse{
		RequestID:       res.RequestID,
		PickupAddress:   p.PickupAddress,
		Stops:           make([]dto.StopLineResponse, 0, len(p.Stops)),
		TotalPackages:   p.TotalPackages,
		TotalVolume:     p.TotalVolume,
		TotalDistanceKm: p.TotalDistanceKm,
		TotalOrders:     p.TotalOrders,
		TotalProducts:   p.TotalProducts,
		EstimatedCost:   p.EstimatedCost,
		Formula:         p.Formula,
		Warnings:        res.Warnings,
	}
	for _, st := range p.Stops {
		out.Stops = append(out.Stops, dto.StopLineResponse{
			Index:        st.Index,
			StopKey:      st.StopKey,
			Address:      st.Address,
			SourceCode:   st.SourceCode,
			Packages:     st.Packages,
			Volume:       st.Volume,
			DistanceKm:   st.DistanceKm,
			OrderCount:   st.OrderCount,
			ProductCount: st.ProductCount,
			TransferIDs:  st.TransferIDs,
		})
	}

	writeJSON(w, r, http.StatusCreated, out)
}

func sessionResponse(snap services.Snapshot, rateApplied *bool) dto.SessionResponse {
	res := dto.SessionResponse{
		ID: snap.ID,
		Form: dto.FormResponse{
			PickupLocationID: snap.Form.PickupLocationID,
			Carrier:          snap.Form.Carrier,
			Method:           string(snap.Form.Method),
			VehicleType:      snap.Form.VehicleType,
			ServiceArea:      snap.Form.ServiceArea,
			Department:       snap.Form.Department,
			Note:             snap.Form.Note,
			RequestID:        snap.Form.RequestID,
		},
		Pricing:             pricingResponse(snap.Pricing),
		RateApplied:         rateApplied,
		Transfers:           make([]dto.TransferResponse, 0, len(snap.Transfers)),
		SelectedTransferIDs: snap.SelectedTransferIDs,
		StopPoints:          make([]dto.StopPointResponse, 0, len(snap.StopPoints)),
		SelectedStopKeys:    snap.SelectedStopKeys,
		DistanceError:       snap.DistanceError,
		Cost:                costResponse(snap.Cost),
		Draft:               snap.Draft,
		Submitted:           snap.Submitted,
	}

	for _, t := range snap.Transfers {
		res.Transfers = append(res.Transfers, transferResponse(t))
	}

	for _, sp := range snap.StopPoints {
		totals := snap.StopTotals[sp.Key]
		out := dto.StopPointResponse{
			Key:                 sp.Key,
			DeliveryAddress:     sp.DeliveryAddress,
			TransferIDs:         sp.TransferIDs,
			Selected:            slices.Contains(snap.SelectedStopKeys, sp.Key),
			Packages:            totals.Packages,
			Volume:              totals.Volume,
			Products:            totals.Products,
			OrderCount:          totals.OrderCount,
			SelectedTransferIDs: totals.TransferIDs,
		}
		if km, ok := snap.Distances[sp.Key]; ok {
			out.DistanceKm = &km
			res.TotalDistanceKm += km
		}
		res.StopPoints = append(res.StopPoints, out)
	}

	return res
}
