package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/nomada-travel/nomada/backend/internal/model/travel"
	"github.com/nomada-travel/nomada/backend/internal/service/flight"
	"github.com/nomada-travel/nomada/backend/internal/service/geo"
	"github.com/nomada-travel/nomada/backend/internal/service/hotel"
)

var errMissingArg = errors.New("missing required argument")

// Tool is one callable entry in the agent's registry. Args maps argument
// names to the natural-language descriptions shown to the model.
type Tool struct {
	Name        string
	Description string
	Args        map[string]string
	Run         func(ctx context.Context, args map[string]any) (any, error)
}

// Registry holds the tools the agent may call, in the order they are
// presented to the model.
type Registry struct {
	tools []Tool
	index map[string]int
}

// NewRegistry assembles the travel tool set. Services that are not
// configured still register their tools; calls against them fail with the
// service's own error, which the agent surfaces as an apology.
func NewRegistry(flights *flight.Service, hotels *hotel.Service, geoSvc *geo.Service) *Registry {
	r := &Registry{index: make(map[string]int)}

	r.add(Tool{
		Name:        "search_flights",
		Description: "Search for flight offers based on the provided origin, destination, and dates.",
		Args: map[string]string{
			"origin":         "string (required) - the IATA code for the origin airport (e.g., 'JFK').",
			"destination":    "string (required) - the IATA code for the destination airport (e.g., 'LHR').",
			"departure_date": "string (required) - the departure date in YYYY-MM-DD format.",
			"return_date":    "string (optional) - the return date for round-trip flights.",
			"passengers":     "integer (optional) - the number of passengers (default is 1).",
			"cabin_class":    "string (optional) - the cabin class (default is 'economy').",
			"max_offers":     "integer (optional) - maximum number of flight offers to return (default is 5).",
		},
		Run: func(ctx context.Context, args map[string]any) (any, error) {
			origin, err := stringArg(args, "origin", true)
			if err != nil {
				return nil, err
			}
			destination, err := stringArg(args, "destination", true)
			if err != nil {
				return nil, err
			}
			departureDate, err := stringArg(args, "departure_date", true)
			if err != nil {
				return nil, err
			}
			returnDate, _ := stringArg(args, "return_date", false)
			return flights.Search(ctx, travel.FlightQuery{
				Origin:        origin,
				Destination:   destination,
				DepartureDate: departureDate,
				ReturnDate:    returnDate,
				Passengers:    intArg(args, "passengers", 1),
				CabinClass:    stringArgOr(args, "cabin_class", travel.CabinEconomy),
				MaxOffers:     intArg(args, "max_offers", 5),
			})
		},
	})

	r.add(Tool{
		Name:        "get_flight_order",
		Description: "Retrieve a flight order by its ID.",
		Args: map[string]string{
			"order_id": "string (required) - the order ID (e.g., 'ord_abc123xyz').",
		},
		Run: func(ctx context.Context, args map[string]any) (any, error) {
			orderID, err := stringArg(args, "order_id", true)
			if err != nil {
				return nil, err
			}
			return flights.Order(ctx, orderID)
		},
	})

	r.add(Tool{
		Name:        "search_hotels",
		Description: "Search hotel availability for a destination code over a stay window.",
		Args: map[string]string{
			"destination_code": "string (required) - the Hotelbeds destination code (e.g., 'PMI').",
			"check_in":         "string (required) - the check-in date in YYYY-MM-DD format.",
			"check_out":        "string (required) - the check-out date in YYYY-MM-DD format.",
			"adults":           "integer (optional) - adults per room (default is 2).",
			"limit":            "integer (optional) - maximum number of hotels to return (default is 5).",
		},
		Run: func(ctx context.Context, args map[string]any) (any, error) {
			code, err := stringArg(args, "destination_code", true)
			if err != nil {
				return nil, err
			}
			checkIn, err := stringArg(args, "check_in", true)
			if err != nil {
				return nil, err
			}
			checkOut, err := stringArg(args, "check_out", true)
			if err != nil {
				return nil, err
			}
			return hotels.Search(ctx, travel.HotelQuery{
				DestinationCode: code,
				CheckIn:         checkIn,
				CheckOut:        checkOut,
				Rooms:           []travel.RoomStay{{Adults: intArg(args, "adults", 2)}},
				Limit:           intArg(args, "limit", 5),
			})
		},
	})

	r.add(Tool{
		Name:        "geocode",
		Description: "Resolve a free-form place name to coordinates and an address.",
		Args: map[string]string{
			"query": "string (required) - the place to look up (e.g., 'Lisbon, Portugal').",
			"limit": "integer (optional) - maximum number of matches (default is 3).",
		},
		Run: func(ctx context.Context, args map[string]any) (any, error) {
			query, err := stringArg(args, "query", true)
			if err != nil {
				return nil, err
			}
			return geoSvc.Geocode(ctx, query, intArg(args, "limit", 3))
		},
	})

	r.add(Tool{
		Name:        "search_poi",
		Description: "Find points of interest around a coordinate using OpenStreetMap tags.",
		Args: map[string]string{
			"lat":      "number (required) - latitude of the search center.",
			"lon":      "number (required) - longitude of the search center.",
			"key":      "string (optional) - OSM tag key (default is 'tourism').",
			"value":    "string (optional) - OSM tag value (default is 'attraction').",
			"radius_m": "integer (optional) - search radius in meters (default is 2000).",
			"limit":    "integer (optional) - maximum number of results (default is 10).",
		},
		Run: func(ctx context.Context, args map[string]any) (any, error) {
			lat, err := floatArg(args, "lat")
			if err != nil {
				return nil, err
			}
			lon, err := floatArg(args, "lon")
			if err != nil {
				return nil, err
			}
			return geoSvc.SearchPOI(ctx, travel.POIQuery{
				Lat:     lat,
				Lon:     lon,
				Key:     stringArgOr(args, "key", "tourism"),
				Value:   stringArgOr(args, "value", "attraction"),
				RadiusM: intArg(args, "radius_m", 2000),
				Limit:   intArg(args, "limit", 10),
			})
		},
	})

	r.add(Tool{
		Name:        "save_flight_choice",
		Description: "Remember a flight offer the traveler picked so it can be booked later.",
		Args: map[string]string{
			"offer_id":       "string (required) - the offer ID the traveler chose.",
			"airline":        "string (optional) - the operating airline name.",
			"price":          "number (optional) - the offer's total price.",
			"currency":       "string (optional) - the price currency code.",
			"cabin_class":    "string (optional) - the cabin class of the offer.",
			"origin":         "string (optional) - origin IATA code.",
			"destination":    "string (optional) - destination IATA code.",
			"departure_date": "string (optional) - departure date in YYYY-MM-DD format.",
			"return_date":    "string (optional) - return date for round trips.",
		},
		Run: func(ctx context.Context, args map[string]any) (any, error) {
			offerID, err := stringArg(args, "offer_id", true)
			if err != nil {
				return nil, err
			}
			price, _ := floatArg(args, "price")
			choice := travel.FlightChoice{
				OfferID:       offerID,
				Airline:       stringArgOr(args, "airline", ""),
				Price:         price,
				Currency:      stringArgOr(args, "currency", ""),
				CabinClass:    stringArgOr(args, "cabin_class", ""),
				Origin:        stringArgOr(args, "origin", ""),
				Destination:   stringArgOr(args, "destination", ""),
				DepartureDate: stringArgOr(args, "departure_date", ""),
				ReturnDate:    stringArgOr(args, "return_date", ""),
			}
			id, err := flights.SaveChoice(ctx, choice)
			if err != nil {
				return nil, err
			}
			choice.ID = id
			return choice, nil
		},
	})

	return r
}

func (r *Registry) add(t Tool) {
	r.index[t.Name] = len(r.tools)
	r.tools = append(r.tools, t)
}

// Lookup finds a tool by name.
func (r *Registry) Lookup(name string) (Tool, bool) {
	i, ok := r.index[name]
	if !ok {
		return Tool{}, false
	}
	return r.tools[i], true
}

// Tools returns the registry in presentation order.
func (r *Registry) Tools() []Tool {
	return r.tools
}

func stringArg(args map[string]any, name string, required bool) (string, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		if required {
			return "", fmt.Errorf("%w: %s", errMissingArg, name)
		}
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("argument %s must be a string, got %T", name, raw)
	}
	if required && s == "" {
		return "", fmt.Errorf("%w: %s", errMissingArg, name)
	}
	return s, nil
}

func stringArgOr(args map[string]any, name, fallback string) string {
	s, err := stringArg(args, name, false)
	if err != nil || s == "" {
		return fallback
	}
	return s
}

// intArg tolerates the float64 numbers JSON decoding produces.
func intArg(args map[string]any, name string, fallback int) int {
	raw, ok := args[name]
	if !ok || raw == nil {
		return fallback
	}
	switch v := raw.(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return fallback
	}
}

func floatArg(args map[string]any, name string) (float64, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return 0, fmt.Errorf("%w: %s", errMissingArg, name)
	}
	switch v := raw.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("argument %s must be a number, got %T", name, raw)
	}
}
