package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const googleGeocodeURL = "https://maps.googleapis.com/maps/api/geocode/json"

// googleGeocodeResponse is the JSON response from the Google Geocoding API.
type googleGeocodeResponse struct {
	Results      []googleResult `json:"results"`
	Status       string         `json:"status"`
	ErrorMessage string         `json:"error_message"`
}

type googleResult struct {
	FormattedAddress  string                   `json:"formatted_address"`
	AddressComponents []googleAddressComponent `json:"address_components"`
	Types             []string                 `json:"types"`
}

type googleAddressComponent struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

// GoogleOption configures the GoogleReverser.
type GoogleOption func(*GoogleReverser)

// WithGoogleBaseURL overrides the default Geocoding API endpoint.
func WithGoogleBaseURL(u string) GoogleOption {
	return func(g *GoogleReverser) {
		g.baseURL = u
	}
}

// WithGoogleHTTPClient overrides the default http.Client.
func WithGoogleHTTPClient(hc *http.Client) GoogleOption {
	return func(g *GoogleReverser) {
		g.httpClient = hc
	}
}

// WithGoogleTimeout sets the per-request timeout of the default http.Client.
func WithGoogleTimeout(d time.Duration) GoogleOption {
	return func(g *GoogleReverser) {
		g.httpClient.Timeout = d
	}
}

// WithGoogleLanguage sets the language results are returned in.
func WithGoogleLanguage(lang string) GoogleOption {
	return func(g *GoogleReverser) {
		g.language = lang
	}
}

// WithGoogleResultTypes restricts results to the given address types
// (e.g. "street_address", "locality").
func WithGoogleResultTypes(types ...string) GoogleOption {
	return func(g *GoogleReverser) {
		g.resultTypes = types
	}
}

// GoogleReverser reverse geocodes with the Google Geocoding API.
type GoogleReverser struct {
	apiKey      string
	baseURL     string
	language    string
	resultTypes []string
	httpClient  *http.Client
}

// NewGoogleReverser creates a GoogleReverser authenticated with apiKey.
func NewGoogleReverser(apiKey string, opts ...GoogleOption) *GoogleReverser {
	g := &GoogleReverser{
		apiKey:     apiKey,
		baseURL:    googleGeocodeURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Name implements Reverser.
func (g *GoogleReverser) Name() string { return ProviderGoogle }

// ReverseGeocode implements Reverser.
func (g *GoogleReverser) ReverseGeocode(ctx context.Context, lat, lng float64) (*ReverseResult, error) {
	params := url.Values{
		"latlng": {formatLatLng(lat, lng)},
		"key":    {g.apiKey},
	}
	if g.language != "" {
		params.Set("language", g.language)
	}
	if len(g.resultTypes) > 0 {
		params.Set("result_type", strings.Join(g.resultTypes, "|"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: google build request")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, transportError(ProviderGoogle, eris.Wrap(err, "geocode: google request"))
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(ProviderGoogle, eris.Wrap(err, "geocode: google read body"))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &LookupError{
			Kind:       kindForHTTPStatus(resp.StatusCode),
			Provider:   ProviderGoogle,
			StatusCode: resp.StatusCode,
			Err:        eris.Errorf("geocode: google returned status %d", resp.StatusCode),
		}
	}

	var googleResp googleGeocodeResponse
	if err := json.Unmarshal(body, &googleResp); err != nil {
		return nil, &LookupError{
			Kind:       KindProvider,
			Provider:   ProviderGoogle,
			StatusCode: resp.StatusCode,
			Err:        eris.Wrap(err, "geocode: google parse response"),
		}
	}

	if googleResp.Status != "OK" || len(googleResp.Results) == 0 {
		status := googleResp.Status
		if status == "OK" {
			status = "ZERO_RESULTS"
		}
		le := &LookupError{
			Kind:       googleStatusToKind(status),
			Provider:   ProviderGoogle,
			Status:     status,
			StatusCode: resp.StatusCode,
		}
		if googleResp.ErrorMessage != "" {
			le.Err = eris.New(googleResp.ErrorMessage)
		}
		return nil, le
	}

	return googleToResult(googleResp.Results[0]), nil
}

// googleStatusToKind maps a Geocoding API status to a failure Kind.
func googleStatusToKind(status string) Kind {
	switch strings.ToUpper(status) {
	case "ZERO_RESULTS":
		return KindNoResult
	case "REQUEST_DENIED":
		return KindCredential
	case "OVER_QUERY_LIMIT", "OVER_DAILY_LIMIT":
		return KindRateLimited
	case "INVALID_REQUEST":
		return KindInvalidRequest
	default:
		return KindProvider
	}
}

func googleToResult(r googleResult) *ReverseResult {
	out := &ReverseResult{
		FormattedAddress: r.FormattedAddress,
		Source:           ProviderGoogle,
	}

	var number, route string
	for _, c := range r.AddressComponents {
		switch {
		case hasType(c.Types, "street_number"):
			number = c.LongName
		case hasType(c.Types, "route"):
			route = c.LongName
		case hasType(c.Types, "locality"):
			out.City = c.LongName
		case hasType(c.Types, "administrative_area_level_1"):
			out.State = c.ShortName
		case hasType(c.Types, "postal_code"):
			out.ZipCode = c.LongName
		case hasType(c.Types, "country"):
			out.Country = c.ShortName
		}
	}
	out.Street = strings.TrimSpace(number + " " + route)

	return out
}

func hasType(types []string, want string) bool {
	for _, t := range types {
		if t == want {
			return true
		}
	}
	return false
}

// formatLatLng renders a coordinate pair the way the HTTP providers expect it.
func formatLatLng(lat, lng float64) string {
	return strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lng, 'f', -1, 64)
}
