package geocode

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Result is one resolved place from the upstream geocoder.
type Result struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

// Client talks to a Nominatim-compatible geocoding service. Lookups
// are best-effort: upstream failures come back as an empty result,
// never as an error the caller has to branch on.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

// Forward resolves a free-text address to candidate coordinates.
func (c *Client) Forward(ctx context.Context, query string) []Result {
	if query == "" {
		return nil
	}
	u := c.baseURL + "/search?format=json&limit=5&q=" + url.QueryEscape(query)

	var raw []struct {
		DisplayName string `json:"display_name"`
		Lat         string `json:"lat"`
		Lon         string `json:"lon"`
	}
	if !c.get(ctx, u, &raw) {
		return nil
	}

	results := make([]Result, 0, len(raw))
	for _, r := range raw {
		lat, err1 := strconv.ParseFloat(r.Lat, 64)
		lng, err2 := strconv.ParseFloat(r.Lon, 64)
		if err1 != nil || err2 != nil {
			continue
		}
		results = append(results, Result{Name: r.DisplayName, Lat: lat, Lng: lng})
	}
	return results
}

// Reverse resolves coordinates to a display address. Empty string
// means "no result".
func (c *Client) Reverse(ctx context.Context, lat, lng float64) string {
	u := c.baseURL + "/reverse?format=json" +
		"&lat=" + strconv.FormatFloat(lat, 'f', -1, 64) +
		"&lon=" + strconv.FormatFloat(lng, 'f', -1, 64)

	var raw struct {
		DisplayName string `json:"display_name"`
	}
	if !c.get(ctx, u, &raw) {
		return ""
	}
	return raw.DisplayName
}

func (c *Client) get(ctx context.Context, u string, out any) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", "pinquest/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		log.Printf("geocode request failed: %v", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("geocode upstream status %d", resp.StatusCode)
		return false
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		log.Printf("geocode decode failed: %v", err)
		return false
	}
	return true
}
