package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Shivanand-hulikatti/eventhub/internal/model"
)

// ErrNoResult is returned when the geocoder finds no candidate.
var ErrNoResult = errors.New("no geocoding result")

// NominatimClient queries a Nominatim-compatible search endpoint.
type NominatimClient struct {
	baseURL   string
	userAgent string
	http      *http.Client
}

// NewNominatimClient builds a client whose requests time out after timeout.
func NewNominatimClient(baseURL, userAgent string, timeout time.Duration) *NominatimClient {
	return &NominatimClient{
		baseURL:   baseURL,
		userAgent: userAgent,
		http:      &http.Client{Timeout: timeout},
	}
}

type nominatimPlace struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Lookup resolves address to the first candidate's coordinates.
func (c *NominatimClient) Lookup(ctx context.Context, address string) (model.Coordinates, error) {
	q := url.Values{}
	q.Set("q", address)
	q.Set("format", "json")
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return model.Coordinates{}, fmt.Errorf("build geocode request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return model.Coordinates{}, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return model.Coordinates{}, fmt.Errorf("geocode request: unexpected status %d", resp.StatusCode)
	}

	var places []nominatimPlace
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&places); err != nil {
		return model.Coordinates{}, fmt.Errorf("decode geocode response: %w", err)
	}
	if len(places) == 0 {
		return model.Coordinates{}, ErrNoResult
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return model.Coordinates{}, fmt.Errorf("parse latitude %q: %w", places[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return model.Coordinates{}, fmt.Errorf("parse longitude %q: %w", places[0].Lon, err)
	}
	return model.Coordinates{Latitude: lat, Longitude: lon}, nil
}
