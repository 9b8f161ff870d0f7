package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"transport-request-service/internal/domain"
)

type LocationSeed struct {
	LocationID string `json:"location_id"`
	Code       string `json:"code"`
	Address    string `json:"address"`
	Category   string `json:"category"`
	Status     string `json:"status"`
}

type TransferSeed struct {
	TransferID       string  `json:"transfer_id"`
	DeliveryAddress  string  `json:"delivery_address"`
	TotalPackages    int     `json:"total_packages"`
	Volume           float64 `json:"volume"`
	TotalProducts    int     `json:"total_products"`
	PickupLocationID string  `json:"pickup_location_id"`
}

type CarrierRateSeed struct {
	CarrierName   string  `json:"carrier_name"`
	Method        string  `json:"pricing_method"`
	VehicleType   string  `json:"vehicle_type"`
	ServiceArea   string  `json:"service_area"`
	BaseRate      float64 `json:"base_rate"`
	PerKmRate     float64 `json:"per_km_rate"`
	PerM3Rate     float64 `json:"per_m3_rate"`
	PerTripRate   float64 `json:"per_trip_rate"`
	StopFee       float64 `json:"stop_fee"`
	FuelSurcharge float64 `json:"fuel_surcharge"`
	RemoteAreaFee float64 `json:"remote_area_fee"`
	InsuranceRate float64 `json:"insurance_rate"`
}

type Seed struct {
	Locations    []LocationSeed    `json:"locations"`
	Transfers    []TransferSeed    `json:"transfers"`
	CarrierRates []CarrierRateSeed `json:"carrier_rates"`
}

// ParseSeed decodes and validates seed data. Pricing methods are normalized.
func ParseSeed(raw []byte) (Seed, error) {
	var s Seed
	if err := json.Unmarshal(raw, &s); err != nil {
		return Seed{}, fmt.Errorf("seed: parse json: %w", err)
	}

	known := make(map[string]bool, len(s.Locations))
	for i := range s.Locations {
		l := &s.Locations[i]
		l.LocationID = strings.TrimSpace(l.LocationID)
		l.Address = strings.TrimSpace(l.Address)
		if l.LocationID == "" {
			return Seed{}, fmt.Errorf("seed: location at index %d: location_id cannot be empty", i+1)
		}
		if l.Address == "" {
			return Seed{}, fmt.Errorf("seed: location %q: address cannot be empty", l.LocationID)
		}
		if l.Status == "" {
			l.Status = "active"
		}
		known[l.LocationID] = true
	}

	for i := range s.Transfers {
		t := &s.Transfers[i]
		t.TransferID = strings.TrimSpace(t.TransferID)
		t.DeliveryAddress = strings.TrimSpace(t.DeliveryAddress)
		if t.TransferID == "" {
			return Seed{}, fmt.Errorf("seed: transfer at index %d: transfer_id cannot be empty", i+1)
		}
		if t.DeliveryAddress == "" {
			return Seed{}, fmt.Errorf("seed: transfer %q: delivery_address cannot be empty", t.TransferID)
		}
		if t.TotalPackages < 0 || t.Volume < 0 || t.TotalProducts < 0 {
			return Seed{}, fmt.Errorf("seed: transfer %q: quantities must be non-negative", t.TransferID)
		}
		if !known[t.PickupLocationID] {
			return Seed{}, fmt.Errorf("seed: transfer %q: unknown pickup_location_id %q", t.TransferID, t.PickupLocationID)
		}
	}

	for i := range s.CarrierRates {
		r := &s.CarrierRates[i]
		m := domain.ParsePricingMethod(r.Method)
		if !m.Valid() {
			return Seed{}, fmt.Errorf("seed: carrier rate at index %d: unknown pricing method %q", i+1, r.Method)
		}
		if strings.TrimSpace(r.CarrierName) == "" {
			return Seed{}, fmt.Errorf("seed: carrier rate at index %d: carrier_name cannot be empty", i+1)
		}
		r.Method = string(m)
	}

	return s, nil
}

// Populate the database with locations, transfers and rate cards from a JSON file.
func SeedFromJSON(ctx context.Context, db *sql.DB, jsonPath string) error {
	raw, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed: read %q: %w", jsonPath, err)
	}

	s, err := ParseSeed(raw)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed: begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, l := range s.Locations {
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO locations (location_id, code, address, category, status)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (location_id) DO UPDATE SET
			code = EXCLUDED.code,
			address = EXCLUDED.address,
			category = EXCLUDED.category,
			status = EXCLUDED.status;
		`, l.LocationID, l.Code, l.Address, l.Category, l.Status); err != nil {
			return fmt.Errorf("seed: insert location %q: %w", l.LocationID, err)
		}
	}

	for _, t := range s.Transfers {
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO transfers (
			transfer_id, delivery_address, total_packages, volume, total_products,
			pickup_location_id, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (transfer_id) DO UPDATE SET
			delivery_address = EXCLUDED.delivery_address,
			total_packages = EXCLUDED.total_packages,
			volume = EXCLUDED.volume,
			total_products = EXCLUDED.total_products,
			pickup_location_id = EXCLUDED.pickup_location_id,
			status = EXCLUDED.status,
			request_id = NULL;
		`, t.TransferID, t.DeliveryAddress, t.TotalPackages, t.Volume, t.TotalProducts,
			t.PickupLocationID, domain.TransferStatusPending); err != nil {
			return fmt.Errorf("seed: insert transfer %q: %w", t.TransferID, err)
		}
	}

	for _, r := range s.CarrierRates {
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO carrier_rates (
			carrier_name, pricing_method, vehicle_type, service_area,
			base_rate, per_km_rate, per_m3_rate, per_trip_rate,
			stop_fee, fuel_surcharge, remote_area_fee, insurance_rate
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (carrier_name, pricing_method, vehicle_type, service_area) DO UPDATE SET
			base_rate = EXCLUDED.base_rate,
			per_km_rate = EXCLUDED.per_km_rate,
			per_m3_rate = EXCLUDED.per_m3_rate,
			per_trip_rate = EXCLUDED.per_trip_rate,
			stop_fee = EXCLUDED.stop_fee,
			fuel_surcharge = EXCLUDED.fuel_surcharge,
			remote_area_fee = EXCLUDED.remote_area_fee,
			insurance_rate = EXCLUDED.insurance_rate;
		`, r.CarrierName, r.Method, r.VehicleType, r.ServiceArea,
			r.BaseRate, r.PerKmRate, r.PerM3Rate, r.PerTripRate,
			r.StopFee, r.FuelSurcharge, r.RemoteAreaFee, r.InsuranceRate); err != nil {
			return fmt.Errorf("seed: insert carrier rate %s/%s: %w", r.CarrierName, r.Method, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed: commit tx: %w", err)
	}

	return nil
}
