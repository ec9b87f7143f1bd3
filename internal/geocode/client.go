// Package geocode resolves free-text places to coordinates through a
// Nominatim-compatible search endpoint.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

var (
	ErrUnavailable      = errors.New("geocoding failed")
	ErrLocationNotFound = errors.New("location not found")
)

type Coordinates struct {
	Lat float64
	Lon float64
}

type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

// NewClient builds a client for baseURL. A nil httpClient means
// http.DefaultClient.
func NewClient(baseURL, userAgent string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, userAgent: userAgent, httpClient: httpClient}
}

type place struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Geocode makes exactly one request for "location, country" and returns the
// first match.
func (c *Client) Geocode(ctx context.Context, location, country string) (Coordinates, error) {
	q := url.Values{}
	q.Set("q", location+", "+country)
	q.Set("format", "json")
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return Coordinates{}, fmt.Errorf("geocode: build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Coordinates{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Coordinates{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var places []place
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return Coordinates{}, fmt.Errorf("geocode: decode response: %w", err)
	}
	if len(places) == 0 {
		return Coordinates{}, fmt.Errorf("%w: %s, %s", ErrLocationNotFound, location, country)
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("geocode: parse lat %q: %w", places[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("geocode: parse lon %q: %w", places[0].Lon, err)
	}
	return Coordinates{Lat: lat, Lon: lon}, nil
}
