// Package hotel searches availability and books rooms through the
// Hotelbeds API.
package hotel

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/nomada-travel/nomada/backend/internal/model/travel"
)

const (
	// The client targets the Hotelbeds test environment.
	hotelbedsBaseURL = "https://api.test.hotelbeds.com"

	defaultHotelLimit = 5
	hotelLimitCap     = 50

	adultAge = 30
	childAge = 8
)

// HotelbedsClient is a thin client for the Hotelbeds hotel API. Requests
// are signed per call with SHA256(apiKey + secret + timestamp).
type HotelbedsClient struct {
	baseURL    string
	apiKey     string
	secret     string
	httpClient *http.Client
	now        func() time.Time
}

// NewHotelbedsClient creates a Hotelbeds client. An empty baseURL selects
// the test environment.
func NewHotelbedsClient(baseURL, apiKey, secret string) *HotelbedsClient {
	if baseURL == "" {
		baseURL = hotelbedsBaseURL
	}
	return &HotelbedsClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		secret:  secret,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		now: time.Now,
	}
}

type hbPax struct {
	RoomID int    `json:"roomId"`
	Type   string `json:"type"`
	Age    int    `json:"age"`
}

type hbOccupancy struct {
	Rooms    int     `json:"rooms"`
	Adults   int     `json:"adults"`
	Children int     `json:"children"`
	Paxes    []hbPax `json:"paxes"`
}

type hbAvailabilityRequest struct {
	Stay struct {
		CheckIn  string `json:"checkIn"`
		CheckOut string `json:"checkOut"`
	} `json:"stay"`
	Occupancies []hbOccupancy `json:"occupancies"`
	Destination struct {
		Code string `json:"code"`
	} `json:"destination"`
	Filter struct {
		MaxHotels int     `json:"maxHotels"`
		MinRate   float64 `json:"minRate,omitempty"`
		MaxRate   float64 `json:"maxRate,omitempty"`
	} `json:"filter"`
}

type hbRate struct {
	RateKey  string      `json:"rateKey"`
	Net      json.Number `json:"net"`
	RateType string      `json:"rateType"`
}

type hbRoom struct {
	Code  string   `json:"code"`
	Name  string   `json:"name"`
	Rates []hbRate `json:"rates"`
}

type hbHotel struct {
	Code            int         `json:"code"`
	Name            string      `json:"name"`
	CategoryName    string      `json:"categoryName"`
	Currency        string      `json:"currency"`
	MinRate         json.Number `json:"minRate"`
	MaxRate         json.Number `json:"maxRate"`
	DestinationName string      `json:"destinationName"`
	ZoneName        string      `json:"zoneName"`
	Address         string      `json:"address"`
	Coordinates     struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"coordinates"`
	Facilities []struct {
		FacilityName string `json:"facilityName"`
		Description  string `json:"description"`
	} `json:"facilities"`
	Rooms []hbRoom `json:"rooms"`
}

type hbBooking struct {
	Reference    string `json:"reference"`
	Status       string `json:"status"`
	CreationDate string `json:"creationDate"`
	Hotel        struct {
		Name string `json:"name"`
	} `json:"hotel"`
	TotalNet              json.Number `json:"totalNet"`
	Currency              string      `json:"currency"`
	CancellationReference string      `json:"cancellationReference"`
}

type hbBookingEnvelope struct {
	Booking hbBooking `json:"booking"`
}

// SearchHotels runs an availability search for the query's destination and
// stay window. Rooms default to one double room.
func (c *HotelbedsClient) SearchHotels(ctx context.Context, q travel.HotelQuery) ([]travel.HotelOffer, error) {
	dest := strings.ToUpper(strings.TrimSpace(q.DestinationCode))
	if dest == "" {
		return nil, fmt.Errorf("destination code is required")
	}
	if q.CheckIn == "" || q.CheckOut == "" {
		return nil, fmt.Errorf("check-in and check-out dates are required")
	}

	limit := q.Limit
	if limit == 0 {
		limit = defaultHotelLimit
	}
	if limit < 1 {
		limit = 1
	}
	if limit > hotelLimitCap {
		limit = hotelLimitCap
	}

	rooms := q.Rooms
	if len(rooms) == 0 {
		rooms = []travel.RoomStay{{Adults: 2}}
	}

	var req hbAvailabilityRequest
	req.Stay.CheckIn = q.CheckIn
	req.Stay.CheckOut = q.CheckOut
	req.Destination.Code = dest
	req.Filter.MaxHotels = limit
	req.Filter.MinRate = q.MinRate
	req.Filter.MaxRate = q.MaxRate
	for i, room := range rooms {
		occ := hbOccupancy{Rooms: 1, Adults: room.Adults, Children: room.Children}
		for a := 0; a < room.Adults; a++ {
			occ.Paxes = append(occ.Paxes, hbPax{RoomID: i + 1, Type: "AD", Age: adultAge})
		}
		for ch := 0; ch < room.Children; ch++ {
			occ.Paxes = append(occ.Paxes, hbPax{RoomID: i + 1, Type: "CH", Age: childAge})
		}
		req.Occupancies = append(req.Occupancies, occ)
	}

	var resp struct {
		Hotels struct {
			Hotels []hbHotel `json:"hotels"`
		} `json:"hotels"`
	}
	if err := c.do(ctx, http.MethodPost, "/hotel-api/1.0/hotels", req, &resp); err != nil {
		return nil, fmt.Errorf("hotel availability: %w", err)
	}

	hotels := resp.Hotels.Hotels
	if len(hotels) > limit {
		hotels = hotels[:limit]
	}
	offers := make([]travel.HotelOffer, 0, len(hotels))
	for _, h := range hotels {
		offers = append(offers, normalizeHotel(h))
	}
	return offers, nil
}

func normalizeHotel(h hbHotel) travel.HotelOffer {
	offer := travel.HotelOffer{
		Code:        h.Code,
		Name:        h.Name,
		Category:    h.CategoryName,
		Currency:    h.Currency,
		MinRate:     h.MinRate.String(),
		MaxRate:     h.MaxRate.String(),
		Destination: h.DestinationName,
		Zone:        h.ZoneName,
		Address:     h.Address,
		Latitude:    h.Coordinates.Latitude,
		Longitude:   h.Coordinates.Longitude,
	}
	for _, f := range h.Facilities {
		switch {
		case f.FacilityName != "":
			offer.Facilities = append(offer.Facilities, f.FacilityName)
		case f.Description != "":
			offer.Facilities = append(offer.Facilities, f.Description)
		}
	}
	for _, room := range h.Rooms {
		out := travel.HotelRoom{Code: room.Code, Name: room.Name}
		for _, rate := range room.Rates {
			out.Rates = append(out.Rates, travel.HotelRate{
				RateKey:  rate.RateKey,
				Net:      rate.Net.String(),
				RateType: rate.RateType,
			})
		}
		offer.Rooms = append(offer.Rooms, out)
	}
	return offer
}

// Book creates a booking from availability rate keys.
func (c *HotelbedsClient) Book(ctx context.Context, req travel.HotelBookingRequest) (travel.HotelBooking, error) {
	if req.Holder.Name == "" || req.Holder.Surname == "" {
		return travel.HotelBooking{}, fmt.Errorf("booking holder name and surname are required")
	}
	if len(req.Rooms) == 0 {
		return travel.HotelBooking{}, fmt.Errorf("at least one room with a rate key is required")
	}

	var envelope hbBookingEnvelope
	if err := c.do(ctx, http.MethodPost, "/hotel-api/1.0/bookings", req, &envelope); err != nil {
		return travel.HotelBooking{}, fmt.Errorf("create hotel booking: %w", err)
	}
	return normalizeBooking(envelope.Booking), nil
}

// GetBooking retrieves a booking by reference.
func (c *HotelbedsClient) GetBooking(ctx context.Context, reference string) (travel.HotelBooking, error) {
	var envelope hbBookingEnvelope
	if err := c.do(ctx, http.MethodGet, "/hotel-api/1.0/bookings/"+reference, nil, &envelope); err != nil {
		return travel.HotelBooking{}, fmt.Errorf("fetch hotel booking: %w", err)
	}
	return normalizeBooking(envelope.Booking), nil
}

// CancelBooking cancels a booking by reference.
func (c *HotelbedsClient) CancelBooking(ctx context.Context, reference string) (travel.HotelBooking, error) {
	var envelope hbBookingEnvelope
	if err := c.do(ctx, http.MethodDelete, "/hotel-api/1.0/bookings/"+reference, nil, &envelope); err != nil {
		return travel.HotelBooking{}, fmt.Errorf("cancel hotel booking: %w", err)
	}
	return normalizeBooking(envelope.Booking), nil
}

func normalizeBooking(b hbBooking) travel.HotelBooking {
	return travel.HotelBooking{
		Reference:             b.Reference,
		Status:                b.Status,
		HotelName:             b.Hotel.Name,
		CreationDate:          b.CreationDate,
		TotalNet:              b.TotalNet.String(),
		Currency:              b.Currency,
		CancellationReference: b.CancellationReference,
	}
}

// signature derives the per-request Hotelbeds signature.
func (c *HotelbedsClient) signature() string {
	ts := strconv.FormatInt(c.now().Unix(), 10)
	sum := sha256.Sum256([]byte(c.apiKey + c.secret + ts))
	return hex.EncodeToString(sum[:])
}

// do sends one API request and decodes the response into out.
func (c *HotelbedsClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Api-key", c.apiKey)
	req.Header.Set("X-Signature", c.signature())
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("hotelbeds API error [%d]: %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}
	return nil
}
