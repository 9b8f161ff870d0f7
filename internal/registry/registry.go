// Package registry keeps the delivery address -> stop point mapping of one
// draft transport request consistent with the user's transfer selection.
//
// A Registry is owned by a single session and is not safe for concurrent use;
// the owning session serialises access.
package registry

import (
	"fmt"
	"slices"

	"transport-request-service/internal/domain"
)

type Registry struct {
	transfers     map[string]domain.Transfer
	transferOrder []string

	stops     []*domain.StopPoint
	byAddress map[string]*domain.StopPoint

	selected      map[string]struct{}
	selectedStops map[string]struct{}
}

func New() *Registry {
	return &Registry{
		transfers:     map[string]domain.Transfer{},
		byAddress:     map[string]*domain.StopPoint{},
		selected:      map[string]struct{}{},
		selectedStops: map[string]struct{}{},
	}
}

// Reset replaces the transfer catalogue, typically after a pickup location
// change, and clears every selection and stop point.
func (r *Registry) Reset(transfers []domain.Transfer) {
	r.transfers = make(map[string]domain.Transfer, len(transfers))
	r.transferOrder = make([]string, 0, len(transfers))
	for _, t := range transfers {
		if _, dup := r.transfers[t.TransferID]; dup {
			continue
		}
		r.transfers[t.TransferID] = t
		r.transferOrder = append(r.transferOrder, t.TransferID)
	}

	r.stops = nil
	r.byAddress = map[string]*domain.StopPoint{}
	r.selected = map[string]struct{}{}
	r.selectedStops = map[string]struct{}{}
}

// Transfer returns a catalogue entry.
func (r *Registry) Transfer(id string) (domain.Transfer, bool) {
	t, ok := r.transfers[id]
	return t, ok
}

// Transfers returns the catalogue in load order.
func (r *Registry) Transfers() []domain.Transfer {
	out := make([]domain.Transfer, 0, len(r.transferOrder))
	for _, id := range r.transferOrder {
		out = append(out, r.transfers[id])
	}
	return out
}

// SelectTransfer adds a transfer to the selection, creating the stop point of
// its delivery address on first use. Creating an eleventh stop point fails
// with domain.ErrStopCapacity and leaves the registry untouched.
func (r *Registry) SelectTransfer(transferID string) error {
	t, ok := r.transfers[transferID]
	if !ok {
		return fmt.Errorf("select transfer %q: %w", transferID, domain.ErrUnknownTransfer)
	}

	if sp, ok := r.byAddress[t.DeliveryAddress]; ok {
		if !sp.HasMember(transferID) {
			sp.TransferIDs = append(sp.TransferIDs, transferID)
			sp.TotalPackages += t.TotalPackages
			sp.TotalVolume += t.Volume
		}
		r.selected[transferID] = struct{}{}
		r.Reconcile()
		return nil
	}

	if len(r.stops) >= domain.MaxStopPoints {
		return fmt.Errorf("select transfer %q: at most %d stop points: %w",
			transferID, domain.MaxStopPoints, domain.ErrStopCapacity)
	}

	// Build the stop point completely before publishing it.
	sp := &domain.StopPoint{
		Key:             r.nextKey(),
		DeliveryAddress: t.DeliveryAddress,
	}
	for _, id := range r.transferOrder {
		m := r.transfers[id]
		if m.DeliveryAddress != t.DeliveryAddress {
			continue
		}
		sp.TransferIDs = append(sp.TransferIDs, id)
		sp.TotalPackages += m.TotalPackages
		sp.TotalVolume += m.Volume
	}

	r.stops = append(r.stops, sp)
	r.byAddress[sp.DeliveryAddress] = sp
	r.selected[transferID] = struct{}{}
	r.Reconcile()
	return nil
}

// DeselectTransfer drops a transfer from the selection. Stop point
// membership is not trimmed.
func (r *Registry) DeselectTransfer(transferID string) {
	delete(r.selected, transferID)
	r.Reconcile()
}

// Reconcile recomputes the selected stop point keys as exactly the stop
// points with at least one selected member. Stop points left without a
// selected member are dropped from the table, which frees their key and
// their slot under the capacity limit.
func (r *Registry) Reconcile() {
	r.selectedStops = make(map[string]struct{}, len(r.stops))
	kept := r.stops[:0]
	for _, sp := range r.stops {
		if r.hasSelectedMember(sp) {
			r.selectedStops[sp.Key] = struct{}{}
			kept = append(kept, sp)
			continue
		}
		delete(r.byAddress, sp.DeliveryAddress)
	}
	clear(r.stops[len(kept):])
	r.stops = kept
}

func (r *Registry) hasSelectedMember(sp *domain.StopPoint) bool {
	for _, id := range sp.TransferIDs {
		if _, ok := r.selected[id]; ok {
			return true
		}
	}
	return false
}

// nextKey returns the lowest free stopN key.
func (r *Registry) nextKey() string {
	used := make(map[string]struct{}, len(r.stops))
	for _, sp := range r.stops {
		used[sp.Key] = struct{}{}
	}
	for n := 1; ; n++ {
		k := domain.StopKey(n)
		if _, ok := used[k]; !ok {
			return k
		}
	}
}

// IsSelected reports whether a transfer is currently selected.
func (r *Registry) IsSelected(transferID string) bool {
	_, ok := r.selected[transferID]
	return ok
}

// SelectedTransferIDs returns the selection in catalogue order.
func (r *Registry) SelectedTransferIDs() []string {
	out := make([]string, 0, len(r.selected))
	for _, id := range r.transferOrder {
		if _, ok := r.selected[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// SelectedStopKeys returns the selected stop point keys in insertion order.
func (r *Registry) SelectedStopKeys() []string {
	out := make([]string, 0, len(r.selectedStops))
	for _, sp := range r.stops {
		if _, ok := r.selectedStops[sp.Key]; ok {
			out = append(out, sp.Key)
		}
	}
	return out
}

// StopPoints returns copies of the stop point table in insertion order.
func (r *Registry) StopPoints() []domain.StopPoint {
	out := make([]domain.StopPoint, 0, len(r.stops))
	for _, sp := range r.stops {
		c := *sp
		c.TransferIDs = slices.Clone(sp.TransferIDs)
		out = append(out, c)
	}
	return out
}

// StopPoint returns a copy of one stop point.
func (r *Registry) StopPoint(key string) (domain.StopPoint, bool) {
	for _, sp := range r.stops {
		if sp.Key == key {
			c := *sp
			c.TransferIDs = slices.Clone(sp.TransferIDs)
			return c, true
		}
	}
	return domain.StopPoint{}, false
}

// StopTotals aggregates a stop point over its currently selected members.
func (r *Registry) StopTotals(key string) domain.StopTotals {
	var out domain.StopTotals
	for _, sp := range r.stops {
		if sp.Key != key {
			continue
		}
		for _, id := range sp.TransferIDs {
			if _, ok := r.selected[id]; !ok {
				continue
			}
			t := r.transfers[id]
			out.Packages += t.TotalPackages
			out.Volume += t.Volume
			out.Products += t.TotalProducts
			out.OrderCount++
			out.TransferIDs = append(out.TransferIDs, id)
		}
		break
	}
	return out
}

// SelectionTotals sums packages and volume over the selected transfers.
func (r *Registry) SelectionTotals() (packages int, volume float64) {
	for id := range r.selected {
		t := r.transfers[id]
		packages += t.TotalPackages
		volume += t.Volume
	}
	return packages, volume
}
