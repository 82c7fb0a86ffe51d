package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Shivanand-hulikatti/eventhub/internal/model"
)

// dailyMetrics are the daily series requested from the forecast API.
const dailyMetrics = "temperature_2m_max,temperature_2m_min,precipitation_probability_max"

// DateLayout is the calendar date format used on the wire and in cache keys.
const DateLayout = "2006-01-02"

// OpenMeteoClient fetches single-day forecasts from an Open-Meteo-compatible
// endpoint.
type OpenMeteoClient struct {
	baseURL string
	http    *http.Client
}

// NewOpenMeteoClient builds a client whose requests time out after timeout.
func NewOpenMeteoClient(baseURL string, timeout time.Duration) *OpenMeteoClient {
	return &OpenMeteoClient{baseURL: baseURL, http: &http.Client{Timeout: timeout}}
}

// Daily returns the raw forecast payload for exactly one day.
func (c *OpenMeteoClient) Daily(ctx context.Context, at model.Coordinates, date time.Time) (json.RawMessage, error) {
	day := date.Format(DateLayout)

	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(at.Latitude, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(at.Longitude, 'f', -1, 64))
	q.Set("daily", dailyMetrics)
	q.Set("timezone", "auto")
	q.Set("start_date", day)
	q.Set("end_date", day)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build forecast request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("forecast request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read forecast response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("forecast request: unexpected status %d", resp.StatusCode)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("forecast response is not valid JSON")
	}
	return json.RawMessage(body), nil
}
