package geo

import (
	"context"
	"fmt"

	"github.com/nomada-travel/nomada/backend/internal/model/travel"
)

// Service bundles the location providers behind one surface. OSM calls
// always work; Google calls fail fast without a key.
type Service struct {
	nominatim *NominatimClient
	overpass  *OverpassClient
	google    *GoogleClient
}

// NewService wires the providers.
func NewService(nominatim *NominatimClient, overpass *OverpassClient, google *GoogleClient) *Service {
	return &Service{nominatim: nominatim, overpass: overpass, google: google}
}

// GoogleEnabled reports whether Google-backed lookups are available.
func (s *Service) GoogleEnabled() bool {
	return s.google.Enabled()
}

// Geocode resolves a free-text place query via Nominatim.
func (s *Service) Geocode(ctx context.Context, query string, limit int) ([]travel.Place, error) {
	return s.nominatim.Geocode(ctx, query, limit)
}

// ReverseGeocode resolves a coordinate via Nominatim.
func (s *Service) ReverseGeocode(ctx context.Context, lat, lon float64, zoom int) (travel.Place, error) {
	return s.nominatim.ReverseGeocode(ctx, lat, lon, zoom)
}

// SearchPOI finds tagged places around a coordinate via Overpass.
func (s *Service) SearchPOI(ctx context.Context, q travel.POIQuery) ([]travel.POI, error) {
	return s.overpass.SearchPOI(ctx, q)
}

// NearbyPlaces finds rated places around a coordinate via Google.
func (s *Service) NearbyPlaces(ctx context.Context, q travel.NearbyQuery) ([]travel.NearbyPlace, error) {
	if !s.google.Enabled() {
		return nil, fmt.Errorf("google maps is not configured")
	}
	return s.google.NearbySearch(ctx, q)
}

// Directions returns a route between two free-text locations via Google.
func (s *Service) Directions(ctx context.Context, origin, destination, mode string) (travel.Route, error) {
	if !s.google.Enabled() {
		return travel.Route{}, fmt.Errorf("google maps is not configured")
	}
	return s.google.Directions(ctx, origin, destination, mode)
}
