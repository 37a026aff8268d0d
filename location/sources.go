package location

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// StaticSource always reports the same coordinates, e.g. for a fixed
// installation like a home panic button.
type StaticSource struct {
	Latitude  float64
	Longitude float64
}

func (source StaticSource) CurrentFix(ctx context.Context) (Fix, error) {
	if err := ctx.Err(); err != nil {
		return Fix{}, err
	}

	return Fix{Latitude: source.Latitude, Longitude: source.Longitude}, nil
}

// NoSource never produces a fix.
type NoSource struct{}

func (NoSource) CurrentFix(ctx context.Context) (Fix, error) {
	return Fix{}, ErrNoSource
}

// HTTPSource queries a geolocation endpoint that answers with JSON carrying
// either "lat"/"lon" or "latitude"/"longitude".
type HTTPSource struct {
	URL    string
	Client *http.Client
}

type geolocationResponse struct {
	Status    string   `json:"status"`
	Message   string   `json:"message"`
	Lat       *float64 `json:"lat"`
	Lon       *float64 `json:"lon"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func NewHTTPSource(url string) *HTTPSource {
	return &HTTPSource{URL: url, Client: &http.Client{Timeout: 30 * time.Second}}
}

func (source *HTTPSource) CurrentFix(ctx context.Context) (Fix, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source.URL, nil)
	if err != nil {
		return Fix{}, fmt.Errorf("HTTPSource: %v", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := source.Client.Do(req)
	if err != nil {
		return Fix{}, fmt.Errorf("HTTPSource: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return Fix{}, fmt.Errorf("HTTPSource: unexpected status %v", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return Fix{}, fmt.Errorf("HTTPSource: %v", err)
	}

	data := geolocationResponse{}
	if err := json.Unmarshal(body, &data); err != nil {
		return Fix{}, fmt.Errorf("HTTPSource: %v", err)
	}

	if data.Status != "" && data.Status != "success" {
		return Fix{}, fmt.Errorf("HTTPSource: lookup failed: %v %v", data.Status, data.Message)
	}

	latitude, longitude := data.Lat, data.Lon
	if latitude == nil || longitude == nil {
		latitude, longitude = data.Latitude, data.Longitude
	}

	if latitude == nil || longitude == nil {
		return Fix{}, fmt.Errorf("HTTPSource: response has no coordinates")
	}

	return Fix{Latitude: *latitude, Longitude: *longitude}, nil
}
