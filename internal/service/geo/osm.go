// Package geo resolves places, points of interest and routes. Geocoding
// and POI search run on OpenStreetMap services and need no credentials;
// nearby search and directions use Google Maps when a key is configured.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nomada-travel/nomada/backend/internal/log"
	"github.com/nomada-travel/nomada/backend/internal/model/travel"
)

// Nominatim's usage policy requires an identifying User-Agent.
const userAgent = "nomada-backend/1.0 (travel-demo)"

const (
	nominatimBaseURL = "https://nominatim.openstreetmap.org"
	overpassBaseURL  = "https://overpass-api.de/api"

	defaultGeocodeLimit = 5
	geocodeLimitCap     = 10

	defaultPOIRadiusM = 500
	minPOIRadiusM     = 50
	maxPOIRadiusM     = 5000
	defaultPOILimit   = 20
	poiLimitCap       = 50
)

// NominatimClient geocodes free-text queries and coordinates.
type NominatimClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewNominatimClient creates a Nominatim client. An empty baseURL selects
// the public instance.
func NewNominatimClient(baseURL string) *NominatimClient {
	if baseURL == "" {
		baseURL = nominatimBaseURL
	}
	return &NominatimClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type nominatimResult struct {
	Lat         string            `json:"lat"`
	Lon         string            `json:"lon"`
	DisplayName string            `json:"display_name"`
	Type        string            `json:"type"`
	Importance  float64           `json:"importance"`
	Address     map[string]string `json:"address"`
}

// Geocode resolves a free-text place query to candidate locations.
func (c *NominatimClient) Geocode(ctx context.Context, query string, limit int) ([]travel.Place, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query is required")
	}
	if limit < 1 {
		limit = defaultGeocodeLimit
	}
	if limit > geocodeLimitCap {
		limit = geocodeLimitCap
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "jsonv2")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("addressdetails", "1")

	var items []nominatimResult
	if err := c.get(ctx, "/search?"+params.Encode(), &items); err != nil {
		return nil, fmt.Errorf("nominatim search: %w", err)
	}

	places := make([]travel.Place, 0, len(items))
	for _, item := range items {
		lat, latErr := strconv.ParseFloat(item.Lat, 64)
		lon, lonErr := strconv.ParseFloat(item.Lon, 64)
		if latErr != nil || lonErr != nil {
			log.Debug().Str("lat", item.Lat).Str("lon", item.Lon).Msg("skipping unparsable geocode result")
			continue
		}
		places = append(places, travel.Place{
			Lat:         lat,
			Lon:         lon,
			DisplayName: item.DisplayName,
			Type:        item.Type,
			Importance:  item.Importance,
			Address:     item.Address,
		})
	}
	return places, nil
}

// ReverseGeocode resolves a coordinate to the closest address. Zoom runs
// from 3 (country) to 18 (building) and is clamped.
func (c *NominatimClient) ReverseGeocode(ctx context.Context, lat, lon float64, zoom int) (travel.Place, error) {
	if zoom < 3 {
		zoom = 3
	}
	if zoom > 18 {
		zoom = 18
	}

	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("zoom", strconv.Itoa(zoom))
	params.Set("format", "jsonv2")
	params.Set("addressdetails", "1")

	var item nominatimResult
	if err := c.get(ctx, "/reverse?"+params.Encode(), &item); err != nil {
		return travel.Place{}, fmt.Errorf("nominatim reverse: %w", err)
	}

	place := travel.Place{Lat: lat, Lon: lon, DisplayName: item.DisplayName, Address: item.Address}
	if parsed, err := strconv.ParseFloat(item.Lat, 64); err == nil {
		place.Lat = parsed
	}
	if parsed, err := strconv.ParseFloat(item.Lon, 64); err == nil {
		place.Lon = parsed
	}
	return place, nil
}

func (c *NominatimClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("nominatim API error [%d]: %s", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

// OverpassClient searches OpenStreetMap POI data.
type OverpassClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewOverpassClient creates an Overpass client. An empty baseURL selects
// the public instance.
func NewOverpassClient(baseURL string) *OverpassClient {
	if baseURL == "" {
		baseURL = overpassBaseURL
	}
	return &OverpassClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type overpassElement struct {
	ID     int64             `json:"id"`
	Type   string            `json:"type"`
	Lat    *float64          `json:"lat"`
	Lon    *float64          `json:"lon"`
	Center *struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"center"`
	Tags map[string]string `json:"tags"`
}

// SearchPOI finds tagged nodes, ways and relations around a coordinate.
// The tag defaults to amenity=restaurant.
func (c *OverpassClient) SearchPOI(ctx context.Context, q travel.POIQuery) ([]travel.POI, error) {
	radius := q.RadiusM
	if radius == 0 {
		radius = defaultPOIRadiusM
	}
	if radius < minPOIRadiusM {
		radius = minPOIRadiusM
	}
	if radius > maxPOIRadiusM {
		radius = maxPOIRadiusM
	}
	limit := q.Limit
	if limit == 0 {
		limit = defaultPOILimit
	}
	if limit < 1 {
		limit = 1
	}
	if limit > poiLimitCap {
		limit = poiLimitCap
	}
	key := q.Key
	if key == "" {
		key = "amenity"
	}
	value := q.Value
	if value == "" {
		value = "restaurant"
	}

	lat := strconv.FormatFloat(q.Lat, 'f', -1, 64)
	lon := strconv.FormatFloat(q.Lon, 'f', -1, 64)
	around := fmt.Sprintf("(around:%d,%s,%s)", radius, lat, lon)
	query := fmt.Sprintf(`[out:json][timeout:25];
(
  node[%q=%q]%s;
  way[%q=%q]%s;
  relation[%q=%q]%s;
);
out center %d;`, key, value, around, key, value, around, key, value, around, limit)

	form := url.Values{}
	form.Set("data", query)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/interpreter", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("overpass API error [%d]: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Elements []overpassElement `json:"elements"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	elements := result.Elements
	if len(elements) > limit {
		elements = elements[:limit]
	}
	pois := make([]travel.POI, 0, len(elements))
	for _, el := range elements {
		poi := travel.POI{ID: el.ID, OSMType: el.Type, Tags: el.Tags}
		switch {
		case el.Lat != nil && el.Lon != nil:
			poi.Lat, poi.Lon = *el.Lat, *el.Lon
		case el.Center != nil:
			poi.Lat, poi.Lon = el.Center.Lat, el.Center.Lon
		default:
			continue
		}
		pois = append(pois, poi)
	}
	return pois, nil
}
