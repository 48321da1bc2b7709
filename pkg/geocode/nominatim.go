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

const nominatimReverseURL = "https://nominatim.openstreetmap.org/reverse"

// nominatimResponse is the jsonv2 response from the Nominatim reverse endpoint.
type nominatimResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
	Address     struct {
		HouseNumber string `json:"house_number"`
		Road        string `json:"road"`
		City        string `json:"city"`
		Town        string `json:"town"`
		Village     string `json:"village"`
		State       string `json:"state"`
		Postcode    string `json:"postcode"`
		CountryCode string `json:"country_code"`
	} `json:"address"`
}

// NominatimOption configures the NominatimReverser.
type NominatimOption func(*NominatimReverser)

// WithNominatimBaseURL points the reverser at a self-hosted Nominatim instance.
func WithNominatimBaseURL(u string) NominatimOption {
	return func(n *NominatimReverser) {
		n.baseURL = u
	}
}

// WithNominatimHTTPClient overrides the default http.Client.
func WithNominatimHTTPClient(hc *http.Client) NominatimOption {
	return func(n *NominatimReverser) {
		n.httpClient = hc
	}
}

// WithNominatimTimeout sets the per-request timeout of the default http.Client.
func WithNominatimTimeout(d time.Duration) NominatimOption {
	return func(n *NominatimReverser) {
		n.httpClient.Timeout = d
	}
}

// WithNominatimLanguage sets the accept-language parameter.
func WithNominatimLanguage(lang string) NominatimOption {
	return func(n *NominatimReverser) {
		n.language = lang
	}
}

// NominatimReverser reverse geocodes with an OpenStreetMap Nominatim server.
// Nominatim has no API key; its usage policy requires an identifying
// User-Agent, which takes the role of the credential.
type NominatimReverser struct {
	userAgent  string
	baseURL    string
	language   string
	httpClient *http.Client
}

// NewNominatimReverser creates a NominatimReverser identifying itself as userAgent.
func NewNominatimReverser(userAgent string, opts ...NominatimOption) *NominatimReverser {
	n := &NominatimReverser{
		userAgent:  userAgent,
		baseURL:    nominatimReverseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Name implements Reverser.
func (n *NominatimReverser) Name() string { return ProviderNominatim }

// ReverseGeocode implements Reverser.
func (n *NominatimReverser) ReverseGeocode(ctx context.Context, lat, lng float64) (*ReverseResult, error) {
	params := url.Values{
		"lat":            {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":            {strconv.FormatFloat(lng, 'f', -1, 64)},
		"format":         {"jsonv2"},
		"addressdetails": {"1"},
	}
	if n.language != "" {
		params.Set("accept-language", n.language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: nominatim build request")
	}
	req.Header.Set("User-Agent", n.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return nil, transportError(ProviderNominatim, eris.Wrap(err, "geocode: nominatim request"))
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(ProviderNominatim, eris.Wrap(err, "geocode: nominatim read body"))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &LookupError{
			Kind:       kindForHTTPStatus(resp.StatusCode),
			Provider:   ProviderNominatim,
			StatusCode: resp.StatusCode,
			Err:        eris.Errorf("geocode: nominatim returned status %d", resp.StatusCode),
		}
	}

	var nr nominatimResponse
	if err := json.Unmarshal(body, &nr); err != nil {
		return nil, &LookupError{
			Kind:       KindProvider,
			Provider:   ProviderNominatim,
			StatusCode: resp.StatusCode,
			Err:        eris.Wrap(err, "geocode: nominatim parse response"),
		}
	}

	if nr.Error != "" || nr.DisplayName == "" {
		le := &LookupError{Kind: KindNoResult, Provider: ProviderNominatim, StatusCode: resp.StatusCode}
		if nr.Error != "" {
			le.Err = eris.New(nr.Error)
		}
		return nil, le
	}

	city := nr.Address.City
	if city == "" {
		city = nr.Address.Town
	}
	if city == "" {
		city = nr.Address.Village
	}

	return &ReverseResult{
		FormattedAddress: nr.DisplayName,
		Street:           strings.TrimSpace(nr.Address.HouseNumber + " " + nr.Address.Road),
		City:             city,
		State:            nr.Address.State,
		ZipCode:          nr.Address.Postcode,
		Country:          strings.ToUpper(nr.Address.CountryCode),
		Source:           ProviderNominatim,
	}, nil
}
