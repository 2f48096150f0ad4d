package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/samirrijal/placeshare/internal/core/domain"
	"github.com/samirrijal/placeshare/internal/pkg/metrics"
)

// GoogleClient resolves addresses with the Google Geocoding API.
type GoogleClient struct {
	client  *fasthttp.Client
	baseURL string
	apiKey  string
	timeout time.Duration
}

// NewGoogleClient creates a client for baseURL (normally
// https://maps.googleapis.com/maps/api/geocode/json).
func NewGoogleClient(baseURL, apiKey string, timeout time.Duration) *GoogleClient {
	return &GoogleClient{
		client: &fasthttp.Client{
			Name:                "placeshare-geocoder",
			MaxConnsPerHost:     32,
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: 30 * time.Second,
		},
		baseURL: baseURL,
		apiKey:  apiKey,
		timeout: timeout,
	}
}

type googleResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Geocode returns the first result's location. An address with no results
// wraps domain.ErrAddressNotFound.
func (g *GoogleClient) Geocode(ctx context.Context, address string) (domain.GeoPoint, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	q := url.Values{}
	q.Set("address", address)
	q.Set("key", g.apiKey)
	req.SetRequestURI(g.baseURL + "?" + q.Encode())
	req.Header.SetMethod(fasthttp.MethodGet)

	timeout := g.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	if timeout <= 0 {
		return domain.GeoPoint{}, fmt.Errorf("geocode: %w", context.DeadlineExceeded)
	}

	start := time.Now()
	err := g.client.DoTimeout(req, resp, timeout)
	metrics.GeocodeDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("geocode request: %w", err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return domain.GeoPoint{}, fmt.Errorf("geocode: upstream status %d", resp.StatusCode())
	}

	var body googleResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return domain.GeoPoint{}, fmt.Errorf("geocode decode: %w", err)
	}

	switch body.Status {
	case "OK":
	case "ZERO_RESULTS":
		return domain.GeoPoint{}, fmt.Errorf("%w: %q", domain.ErrAddressNotFound, address)
	default:
		return domain.GeoPoint{}, fmt.Errorf("geocode: status %s: %s", body.Status, body.ErrorMessage)
	}
	if len(body.Results) == 0 {
		return domain.GeoPoint{}, fmt.Errorf("%w: %q", domain.ErrAddressNotFound, address)
	}

	loc := body.Results[0].Geometry.Location
	return domain.GeoPoint{Lat: loc.Lat, Lng: loc.Lng}, nil
}
