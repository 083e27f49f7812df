package geo

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nomada-travel/nomada/backend/internal/model/travel"
	"github.com/nomada-travel/nomada/backend/internal/service/geo"
	"github.com/nomada-travel/nomada/backend/pkg/utils"
)

// Handler exposes the location lookups. Nominatim and Overpass routes
// need no credentials; the Google routes answer 503 without a key.
type Handler struct {
	svc *geo.Service
}

// New creates the geo handler.
func New(svc *geo.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the geo routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/geo", func(r chi.Router) {
		r.Get("/geocode", h.handleGeocode)
		r.Get("/reverse", h.handleReverse)
		r.Get("/poi", h.handlePOI)
		r.Get("/nearby", h.handleNearby)
		r.Get("/directions", h.handleDirections)
	})
}

func (h *Handler) handleGeocode(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		utils.RespondError(w, http.StatusBadRequest, "q is required")
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, "limit must be a number")
			return
		}
		limit = n
	}

	places, err := h.svc.Geocode(r.Context(), query, limit)
	if err != nil {
		utils.RespondError(w, http.StatusBadGateway, "geocoding failed")
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"results": places})
}

func (h *Handler) handleReverse(w http.ResponseWriter, r *http.Request) {
	lat, lon, ok := parseLatLon(w, r, "lat", "lon")
	if !ok {
		return
	}
	zoom := 0
	if v := r.URL.Query().Get("zoom"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, "zoom must be a number")
			return
		}
		zoom = n
	}

	place, err := h.svc.ReverseGeocode(r.Context(), lat, lon, zoom)
	if err != nil {
		utils.RespondError(w, http.StatusBadGateway, "reverse geocoding failed")
		return
	}
	utils.RespondJSON(w, http.StatusOK, place)
}

func (h *Handler) handlePOI(w http.ResponseWriter, r *http.Request) {
	lat, lon, ok := parseLatLon(w, r, "lat", "lon")
	if !ok {
		return
	}
	q := r.URL.Query()
	query := travel.POIQuery{
		Lat:   lat,
		Lon:   lon,
		Key:   q.Get("key"),
		Value: q.Get("value"),
	}
	if query.Key == "" {
		utils.RespondError(w, http.StatusBadRequest, "key is required")
		return
	}
	if v := q.Get("radius"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, "radius must be a number")
			return
		}
		query.RadiusM = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, "limit must be a number")
			return
		}
		query.Limit = n
	}

	pois, err := h.svc.SearchPOI(r.Context(), query)
	if err != nil {
		utils.RespondError(w, http.StatusBadGateway, "poi search failed")
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"results": pois})
}

func (h *Handler) handleNearby(w http.ResponseWriter, r *http.Request) {
	if !h.svc.GoogleEnabled() {
		utils.RespondError(w, http.StatusServiceUnavailable, "google maps is not configured")
		return
	}
	lat, lng, ok := parseLatLon(w, r, "lat", "lng")
	if !ok {
		return
	}
	q := r.URL.Query()
	query := travel.NearbyQuery{
		Lat:     lat,
		Lng:     lng,
		Keyword: q.Get("keyword"),
		Type:    q.Get("type"),
		OpenNow: q.Get("open_now") == "true",
	}
	if v := q.Get("radius"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, "radius must be a number")
			return
		}
		query.RadiusM = n
	}
	if v := q.Get("min_rating"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, "min_rating must be a number")
			return
		}
		query.MinRating = f
	}

	places, err := h.svc.NearbyPlaces(r.Context(), query)
	if err != nil {
		utils.RespondError(w, http.StatusBadGateway, "nearby search failed")
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"results": places})
}

func (h *Handler) handleDirections(w http.ResponseWriter, r *http.Request) {
	if !h.svc.GoogleEnabled() {
		utils.RespondError(w, http.StatusServiceUnavailable, "google maps is not configured")
		return
	}
	q := r.URL.Query()
	origin := strings.TrimSpace(q.Get("origin"))
	destination := strings.TrimSpace(q.Get("destination"))
	if origin == "" || destination == "" {
		utils.RespondError(w, http.StatusBadRequest, "origin and destination are required")
		return
	}

	route, err := h.svc.Directions(r.Context(), origin, destination, q.Get("mode"))
	if err != nil {
		utils.RespondError(w, http.StatusBadGateway, "directions lookup failed")
		return
	}
	utils.RespondJSON(w, http.StatusOK, route)
}

func parseLatLon(w http.ResponseWriter, r *http.Request, latKey, lonKey string) (float64, float64, bool) {
	q := r.URL.Query()
	lat, err := strconv.ParseFloat(q.Get(latKey), 64)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, latKey+" is required")
		return 0, 0, false
	}
	lon, err := strconv.ParseFloat(q.Get(lonKey), 64)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, lonKey+" is required")
		return 0, 0, false
	}
	return lat, lon, true
}
