// Package flight searches and books flights through the Duffel API.
package flight

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/nomada-travel/nomada/backend/internal/model/travel"
)

const (
	duffelBaseURL = "https://api.duffel.com"
	// Duffel rejects requests without an explicit API version.
	duffelVersion = "v2"

	defaultMaxOffers = 5
	maxOffersCap     = 20
)

// ErrPassengerDetails is returned when an order is attempted without the
// passenger fields Duffel requires for ticketing.
var ErrPassengerDetails = errors.New("missing required passenger details")

// DuffelClient is a thin client for the Duffel flights API.
type DuffelClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewDuffelClient creates a Duffel client. An empty baseURL selects the
// production API.
func NewDuffelClient(baseURL, token string) *DuffelClient {
	if baseURL == "" {
		baseURL = duffelBaseURL
	}
	return &DuffelClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type duffelSlice struct {
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureDate string `json:"departure_date"`
}

type duffelPassengerType struct {
	Type string `json:"type"`
}

type duffelOfferRequest struct {
	Data struct {
		Slices     []duffelSlice         `json:"slices"`
		Passengers []duffelPassengerType `json:"passengers"`
		CabinClass string                `json:"cabin_class"`
	} `json:"data"`
}

type duffelNamed struct {
	Name string `json:"name"`
}

type duffelPassenger struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title,omitempty"`
	Gender      string `json:"gender,omitempty"`
	GivenName   string `json:"given_name,omitempty"`
	FamilyName  string `json:"family_name,omitempty"`
	BornOn      string `json:"born_on,omitempty"`
	Email       string `json:"email,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

type duffelOffer struct {
	ID            string            `json:"id"`
	TotalAmount   string            `json:"total_amount"`
	TotalCurrency string            `json:"total_currency"`
	CabinClass    string            `json:"cabin_class"`
	Owner         duffelNamed       `json:"owner"`
	Passengers    []duffelPassenger `json:"passengers"`
}

type duffelPayment struct {
	Type     string `json:"type"`
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

type duffelOrderRequest struct {
	Data struct {
		SelectedOffers []string          `json:"selected_offers"`
		Passengers     []duffelPassenger `json:"passengers"`
		Type           string            `json:"type"`
		Payments       []duffelPayment   `json:"payments,omitempty"`
	} `json:"data"`
}

type duffelAirport struct {
	IATACode string `json:"iata_code"`
}

type duffelSegment struct {
	Origin                       duffelAirport `json:"origin"`
	Destination                  duffelAirport `json:"destination"`
	DepartingAt                  string        `json:"departing_at"`
	ArrivingAt                   string        `json:"arriving_at"`
	MarketingCarrier             duffelNamed   `json:"marketing_carrier"`
	MarketingCarrierFlightNumber string        `json:"marketing_carrier_flight_number"`
	Aircraft                     duffelNamed   `json:"aircraft"`
	Duration                     string        `json:"duration"`
}

type duffelOrder struct {
	ID                string            `json:"id"`
	BookingReference  string            `json:"booking_reference"`
	TotalAmount       string            `json:"total_amount"`
	TotalCurrency     string            `json:"total_currency"`
	Type              string            `json:"type"`
	PaymentRequiredBy string            `json:"payment_required_by"`
	CreatedAt         string            `json:"created_at"`
	Passengers        []duffelPassenger `json:"passengers"`
	Slices            []struct {
		Segments []duffelSegment `json:"segments"`
	} `json:"slices"`
}

type duffelCancellation struct {
	ID             string `json:"id"`
	RefundAmount   string `json:"refund_amount"`
	RefundCurrency string `json:"refund_currency"`
}

// SearchOffers creates an offer request for the query and fetches the
// resulting offers, capped at the query's MaxOffers.
func (c *DuffelClient) SearchOffers(ctx context.Context, q travel.FlightQuery) ([]travel.FlightOffer, error) {
	origin := strings.ToUpper(strings.TrimSpace(q.Origin))
	destination := strings.ToUpper(strings.TrimSpace(q.Destination))
	if origin == "" || destination == "" {
		return nil, fmt.Errorf("origin and destination are required")
	}
	if q.DepartureDate == "" {
		return nil, fmt.Errorf("departure date is required")
	}

	cabin := strings.ToLower(q.CabinClass)
	if cabin == "" {
		cabin = travel.CabinEconomy
	}
	switch cabin {
	case travel.CabinEconomy, travel.CabinPremiumEconomy, travel.CabinBusiness, travel.CabinFirst:
	default:
		return nil, fmt.Errorf("invalid cabin class %q", q.CabinClass)
	}

	passengers := q.Passengers
	if passengers < 1 {
		passengers = 1
	}
	maxOffers := q.MaxOffers
	if maxOffers == 0 {
		maxOffers = defaultMaxOffers
	}
	if maxOffers < 1 {
		maxOffers = 1
	}
	if maxOffers > maxOffersCap {
		maxOffers = maxOffersCap
	}

	var req duffelOfferRequest
	req.Data.Slices = []duffelSlice{{Origin: origin, Destination: destination, DepartureDate: q.DepartureDate}}
	if q.ReturnDate != "" {
		req.Data.Slices = append(req.Data.Slices, duffelSlice{Origin: destination, Destination: origin, DepartureDate: q.ReturnDate})
	}
	req.Data.Passengers = make([]duffelPassengerType, passengers)
	for i := range req.Data.Passengers {
		req.Data.Passengers[i] = duffelPassengerType{Type: "adult"}
	}
	req.Data.CabinClass = cabin

	var created struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/air/offer_requests", req, &created); err != nil {
		return nil, fmt.Errorf("create offer request: %w", err)
	}
	if created.Data.ID == "" {
		return nil, fmt.Errorf("offer request created without an id")
	}

	var offers struct {
		Data []duffelOffer `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/air/offers?offer_request_id="+created.Data.ID, nil, &offers); err != nil {
		return nil, fmt.Errorf("fetch offers: %w", err)
	}

	if len(offers.Data) > maxOffers {
		offers.Data = offers.Data[:maxOffers]
	}

	results := make([]travel.FlightOffer, 0, len(offers.Data))
	for _, o := range offers.Data {
		results = append(results, normalizeOffer(o, cabin))
	}
	return results, nil
}

func normalizeOffer(o duffelOffer, fallbackCabin string) travel.FlightOffer {
	airline := o.Owner.Name
	if airline == "" {
		airline = "Unknown"
	}
	price, _ := strconv.ParseFloat(o.TotalAmount, 64)
	currency := o.TotalCurrency
	if currency == "" {
		currency = "USD"
	}
	cabin := o.CabinClass
	if cabin == "" {
		cabin = fallbackCabin
	}
	return travel.FlightOffer{
		ID:         o.ID,
		Airline:    airline,
		Price:      price,
		Currency:   currency,
		CabinClass: cabin,
	}
}

// GetOffer fetches one offer and returns it in normalized form.
func (c *DuffelClient) GetOffer(ctx context.Context, offerID string) (travel.FlightOffer, error) {
	offer, err := c.getOffer(ctx, offerID)
	if err != nil {
		return travel.FlightOffer{}, err
	}
	return normalizeOffer(offer, ""), nil
}

// getOffer fetches the raw offer so orders can reuse its price and
// passenger ids.
func (c *DuffelClient) getOffer(ctx context.Context, offerID string) (duffelOffer, error) {
	var envelope struct {
		Data duffelOffer `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/air/offers/"+offerID, nil, &envelope); err != nil {
		return duffelOffer{}, fmt.Errorf("fetch offer: %w", err)
	}
	if envelope.Data.ID == "" {
		return duffelOffer{}, fmt.Errorf("offer %s not found in response", offerID)
	}
	return envelope.Data, nil
}

// CreateOrder books the offer. Passengers given in the request are merged
// index-wise with the passenger ids minted on the offer; every passenger
// must end up with the full identity Duffel needs. Instant orders are paid
// from the Duffel balance, hold orders defer payment.
func (c *DuffelClient) CreateOrder(ctx context.Context, req travel.OrderRequest) (travel.FlightOrder, error) {
	offer, err := c.getOffer(ctx, req.OfferID)
	if err != nil {
		return travel.FlightOrder{}, err
	}

	payload, err := mergePassengers(req.Passengers, offer.Passengers)
	if err != nil {
		return travel.FlightOrder{}, err
	}

	var orderReq duffelOrderRequest
	orderReq.Data.SelectedOffers = []string{req.OfferID}
	orderReq.Data.Passengers = payload
	if req.Hold {
		orderReq.Data.Type = "hold"
	} else {
		orderReq.Data.Type = "instant"
		orderReq.Data.Payments = []duffelPayment{{
			Type:     "balance",
			Amount:   offer.TotalAmount,
			Currency: offer.TotalCurrency,
		}}
	}

	var envelope struct {
		Data duffelOrder `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/air/orders", orderReq, &envelope); err != nil {
		return travel.FlightOrder{}, fmt.Errorf("create order: %w", err)
	}
	return normalizeOrder(envelope.Data), nil
}

// mergePassengers overlays caller-supplied details on the offer's passengers
// so the order always carries the offer's passenger ids.
func mergePassengers(given []travel.Passenger, fromOffer []duffelPassenger) ([]duffelPassenger, error) {
	merged := make([]duffelPassenger, 0, len(fromOffer))
	if len(given) == 0 {
		merged = append(merged, fromOffer...)
	} else {
		for i, p := range given {
			base := duffelPassenger{}
			if i < len(fromOffer) {
				base = fromOffer[i]
			}
			if p.ID != "" {
				base.ID = p.ID
			}
			if p.Title != "" {
				base.Title = p.Title
			}
			if p.Gender != "" {
				base.Gender = p.Gender
			}
			if p.GivenName != "" {
				base.GivenName = p.GivenName
			}
			if p.FamilyName != "" {
				base.FamilyName = p.FamilyName
			}
			if p.BornOn != "" {
				base.BornOn = p.BornOn
			}
			if p.Email != "" {
				base.Email = p.Email
			}
			if p.PhoneNumber != "" {
				base.PhoneNumber = p.PhoneNumber
			}
			merged = append(merged, base)
		}
	}

	if len(merged) == 0 {
		return nil, fmt.Errorf("%w: no passenger data available", ErrPassengerDetails)
	}
	for i, p := range merged {
		var missing []string
		if p.ID == "" {
			missing = append(missing, "id")
		}
		if p.Title == "" {
			missing = append(missing, "title")
		}
		if p.Gender == "" {
			missing = append(missing, "gender")
		}
		if p.GivenName == "" {
			missing = append(missing, "given_name")
		}
		if p.FamilyName == "" {
			missing = append(missing, "family_name")
		}
		if p.BornOn == "" {
			missing = append(missing, "born_on")
		}
		if p.Email == "" {
			missing = append(missing, "email")
		}
		if p.PhoneNumber == "" {
			missing = append(missing, "phone_number")
		}
		if len(missing) > 0 {
			return nil, fmt.Errorf("%w: passenger %d needs %s", ErrPassengerDetails, i, strings.Join(missing, ", "))
		}
	}
	return merged, nil
}

// GetOrder retrieves an order with its passengers and flattened itinerary.
func (c *DuffelClient) GetOrder(ctx context.Context, orderID string) (travel.FlightOrder, error) {
	var envelope struct {
		Data duffelOrder `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/air/orders/"+orderID, nil, &envelope); err != nil {
		return travel.FlightOrder{}, fmt.Errorf("fetch order: %w", err)
	}
	if envelope.Data.ID == "" {
		return travel.FlightOrder{}, fmt.Errorf("order %s not found in response", orderID)
	}
	return normalizeOrder(envelope.Data), nil
}

func normalizeOrder(o duffelOrder) travel.FlightOrder {
	order := travel.FlightOrder{
		OrderID:           o.ID,
		BookingReference:  o.BookingReference,
		Total:             o.TotalAmount,
		Currency:          o.TotalCurrency,
		Type:              o.Type,
		PaymentRequiredBy: o.PaymentRequiredBy,
		CreatedAt:         o.CreatedAt,
	}
	for _, p := range o.Passengers {
		order.Passengers = append(order.Passengers, travel.Passenger{
			ID:          p.ID,
			Title:       p.Title,
			Gender:      p.Gender,
			GivenName:   p.GivenName,
			FamilyName:  p.FamilyName,
			BornOn:      p.BornOn,
			Email:       p.Email,
			PhoneNumber: p.PhoneNumber,
		})
	}
	for _, slice := range o.Slices {
		for _, seg := range slice.Segments {
			order.Itinerary = append(order.Itinerary, travel.FlightSegment{
				Origin:      seg.Origin.IATACode,
				Destination: seg.Destination.IATACode,
				DepartingAt: seg.DepartingAt,
				ArrivingAt:  seg.ArrivingAt,
				Flight:      strings.TrimSpace(seg.MarketingCarrier.Name + " " + seg.MarketingCarrierFlightNumber),
				Aircraft:    seg.Aircraft.Name,
				Duration:    seg.Duration,
			})
		}
	}
	return order
}

// CancelOrder requests a cancellation and confirms it to finalize the
// refund. When the confirm step fails the unconfirmed cancellation is
// returned alongside the error so the caller still has its id.
func (c *DuffelClient) CancelOrder(ctx context.Context, orderID string) (travel.FlightCancellation, error) {
	createReq := map[string]any{"data": map[string]any{"order_id": orderID}}
	var created struct {
		Data duffelCancellation `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/air/order_cancellations", createReq, &created); err != nil {
		return travel.FlightCancellation{}, fmt.Errorf("create cancellation: %w", err)
	}
	if created.Data.ID == "" {
		return travel.FlightCancellation{}, fmt.Errorf("cancellation created without an id")
	}

	result := travel.FlightCancellation{
		OrderID:        orderID,
		CancellationID: created.Data.ID,
		RefundAmount:   created.Data.RefundAmount,
		RefundCurrency: created.Data.RefundCurrency,
	}

	confirmReq := map[string]any{"data": map[string]any{}}
	var confirmed struct {
		Data duffelCancellation `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/air/order_cancellations/"+created.Data.ID+"/actions/confirm", confirmReq, &confirmed); err != nil {
		return result, fmt.Errorf("confirm cancellation: %w", err)
	}

	result.Confirmed = true
	if confirmed.Data.RefundAmount != "" {
		result.RefundAmount = confirmed.Data.RefundAmount
	}
	if confirmed.Data.RefundCurrency != "" {
		result.RefundCurrency = confirmed.Data.RefundCurrency
	}
	return result, nil
}

// do sends one API request and decodes the response into out.
func (c *DuffelClient) do(ctx context.Context, method, path string, body, out any) error {
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
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Duffel-Version", duffelVersion)

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
		return fmt.Errorf("duffel API error [%d]: %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}
	return nil
}
