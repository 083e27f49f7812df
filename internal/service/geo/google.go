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
	"strings"
	"time"

	"github.com/nomada-travel/nomada/backend/internal/model/travel"
)

const googleBaseURL = "https://maps.googleapis.com/maps/api"

// ErrNoResults is returned when a lookup succeeds but matches nothing.
var ErrNoResults = errors.New("no results")

// GoogleClient calls the Google Maps web services.
type GoogleClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewGoogleClient creates a Google Maps client. An empty baseURL selects
// the production API.
func NewGoogleClient(baseURL, apiKey string) *GoogleClient {
	if baseURL == "" {
		baseURL = googleBaseURL
	}
	return &GoogleClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

// Enabled reports whether an API key is configured.
func (c *GoogleClient) Enabled() bool {
	return c != nil && c.apiKey != ""
}

type googlePlace struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	Rating           float64  `json:"rating"`
	UserRatingsTotal int      `json:"user_ratings_total"`
	Vicinity         string   `json:"vicinity"`
	FormattedAddress string   `json:"formatted_address"`
	Types            []string `json:"types"`
	Geometry         struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
	OpeningHours struct {
		OpenNow bool `json:"open_now"`
	} `json:"opening_hours"`
}

// NearbySearch finds places around the query coordinate, dropping results
// below the requested minimum rating.
func (c *GoogleClient) NearbySearch(ctx context.Context, q travel.NearbyQuery) ([]travel.NearbyPlace, error) {
	radius := q.RadiusM
	if radius <= 0 {
		radius = 1500
	}

	params := url.Values{}
	params.Set("location", formatLatLng(q.Lat, q.Lng))
	params.Set("radius", strconv.Itoa(radius))
	if q.Keyword != "" {
		params.Set("keyword", q.Keyword)
	}
	if q.Type != "" {
		params.Set("type", q.Type)
	}
	if q.OpenNow {
		params.Set("opennow", "true")
	}

	var result struct {
		Results []googlePlace `json:"results"`
	}
	if err := c.get(ctx, "/place/nearbysearch/json", params, &result); err != nil {
		return nil, fmt.Errorf("nearby search: %w", err)
	}

	places := make([]travel.NearbyPlace, 0, len(result.Results))
	for _, p := range result.Results {
		if q.MinRating > 0 && p.Rating < q.MinRating {
			continue
		}
		places = append(places, travel.NearbyPlace{
			PlaceID:          p.PlaceID,
			Name:             p.Name,
			Rating:           p.Rating,
			UserRatingsTotal: p.UserRatingsTotal,
			Address:          p.Vicinity,
			Lat:              p.Geometry.Location.Lat,
			Lng:              p.Geometry.Location.Lng,
			Types:            p.Types,
			OpenNow:          p.OpeningHours.OpenNow,
		})
	}
	return places, nil
}

// Geocode resolves an address to its first matching location.
func (c *GoogleClient) Geocode(ctx context.Context, address string) (travel.Place, error) {
	params := url.Values{}
	params.Set("address", address)

	var result struct {
		Results []googlePlace `json:"results"`
	}
	if err := c.get(ctx, "/geocode/json", params, &result); err != nil {
		return travel.Place{}, fmt.Errorf("geocode: %w", err)
	}
	if len(result.Results) == 0 {
		return travel.Place{}, ErrNoResults
	}

	first := result.Results[0]
	return travel.Place{
		Lat:         first.Geometry.Location.Lat,
		Lon:         first.Geometry.Location.Lng,
		DisplayName: first.FormattedAddress,
	}, nil
}

// ReverseGeocode resolves a coordinate to its first matching address.
func (c *GoogleClient) ReverseGeocode(ctx context.Context, lat, lng float64) (travel.Place, error) {
	params := url.Values{}
	params.Set("latlng", formatLatLng(lat, lng))

	var result struct {
		Results []googlePlace `json:"results"`
	}
	if err := c.get(ctx, "/geocode/json", params, &result); err != nil {
		return travel.Place{}, fmt.Errorf("reverse geocode: %w", err)
	}
	if len(result.Results) == 0 {
		return travel.Place{}, ErrNoResults
	}

	first := result.Results[0]
	return travel.Place{
		Lat:         lat,
		Lon:         lng,
		DisplayName: first.FormattedAddress,
		Type:        strings.Join(first.Types, ","),
	}, nil
}

// Directions returns the first route between two free-text locations.
// Mode defaults to driving.
func (c *GoogleClient) Directions(ctx context.Context, origin, destination, mode string) (travel.Route, error) {
	if mode == "" {
		mode = "driving"
	}
	params := url.Values{}
	params.Set("origin", origin)
	params.Set("destination", destination)
	params.Set("mode", mode)

	var result struct {
		Routes []struct {
			Summary string `json:"summary"`
			Legs    []struct {
				Distance struct {
					Text string `json:"text"`
				} `json:"distance"`
				Duration struct {
					Text string `json:"text"`
				} `json:"duration"`
				StartAddress string `json:"start_address"`
				EndAddress   string `json:"end_address"`
			} `json:"legs"`
		} `json:"routes"`
	}
	if err := c.get(ctx, "/directions/json", params, &result); err != nil {
		return travel.Route{}, fmt.Errorf("directions: %w", err)
	}
	if len(result.Routes) == 0 {
		return travel.Route{}, ErrNoResults
	}

	first := result.Routes[0]
	route := travel.Route{Summary: first.Summary}
	for _, leg := range first.Legs {
		route.Legs = append(route.Legs, travel.RouteLeg{
			Distance:     leg.Distance.Text,
			Duration:     leg.Duration.Text,
			StartAddress: leg.StartAddress,
			EndAddress:   leg.EndAddress,
		})
	}
	return route, nil
}

func formatLatLng(lat, lng float64) string {
	return strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lng, 'f', -1, 64)
}

func (c *GoogleClient) get(ctx context.Context, path string, params url.Values, out any) error {
	params.Set("key", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

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
		return fmt.Errorf("google maps API error [%d]: %s", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}
