package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/sells-group/revgeo/internal/config"
)

const testKey = "test-key"

// newGoogleServer fakes the Geocoding API. Requests with the wrong key are
// denied; coordinates missing from answers get ZERO_RESULTS.
func newGoogleServer(t *testing.T, answers map[string]string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")

		q := r.URL.Query()
		if q.Get("key") != testKey {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"status":        "REQUEST_DENIED",
				"error_message": "The provided API key is invalid.",
				"results":       []any{},
			})
			return
		}

		addr, ok := answers[q.Get("latlng")]
		if !ok {
			_ = json.NewEncoder(w).Encode(map[string]any{"status": "ZERO_RESULTS", "results": []any{}})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":  "OK",
			"results": []any{map[string]any{"formatted_address": addr}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

// testConfig returns a config pointing the google provider at baseURL.
func testConfig(baseURL, apiKey string) *config.Config {
	c := &config.Config{}
	c.Geocode.Provider = "google"
	c.Geocode.APIKey = apiKey
	c.Geocode.BaseURL = baseURL
	c.Geocode.TimeoutSecs = 5
	c.Table.AddressCol = "address"
	c.Server.Port = 8080
	c.Server.MaxBodyBytes = 1 << 20
	return c
}
