package repositories

import (
	"strings"
	"testing"
)

func TestParseSeed_NormalizesMethodsAndDefaults(t *testing.T) {
	raw := []byte(`{
		"locations": [{"location_id": "L1", "code": "WH01", "address": " 1 Main St "}],
		"transfers": [{"transfer_id": "T1", "delivery_address": "12 Le Loi", "total_packages": 3, "volume": 1.5, "pickup_location_id": "L1"}],
		"carrier_rates": [{"carrier_name": "FastTruck", "pricing_method": "per-km", "per_km_rate": 10000}]
	}`)

	s, err := ParseSeed(raw)
	if err != nil {
		t.Fatalf("ParseSeed: %v", err)
	}
	if s.Locations[0].Address != "1 Main St" {
		t.Fatalf("address not trimmed: %q", s.Locations[0].Address)
	}
	if s.Locations[0].Status != "active" {
		t.Fatalf("status default: got %q", s.Locations[0].Status)
	}
	if s.CarrierRates[0].Method != "PER_KM" {
		t.Fatalf("method: got %q, want PER_KM", s.CarrierRates[0].Method)
	}
}

func TestParseSeed_Rejects(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"bad json", `{`, "parse json"},
		{"empty location id", `{"locations":[{"address":"x"}]}`, "location_id cannot be empty"},
		{"unknown pickup", `{"locations":[{"location_id":"L1","address":"x"}],"transfers":[{"transfer_id":"T1","delivery_address":"a","pickup_location_id":"L9"}]}`, "unknown pickup_location_id"},
		{"negative packages", `{"locations":[{"location_id":"L1","address":"x"}],"transfers":[{"transfer_id":"T1","delivery_address":"a","total_packages":-1,"pickup_location_id":"L1"}]}`, "non-negative"},
		{"bad method", `{"carrier_rates":[{"carrier_name":"A","pricing_method":"per_pallet"}]}`, "unknown pricing method"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseSeed([]byte(tc.raw))
			if err == nil {
				t.Fatalf("expected error containing %q", tc.want)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not contain %q", err, tc.want)
			}
		})
	}
}
