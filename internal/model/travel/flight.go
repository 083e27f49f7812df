package travel

import "time"

// Cabin classes accepted by the flight search.
const (
	CabinEconomy        = "economy"
	CabinPremiumEconomy = "premium_economy"
	CabinBusiness       = "business"
	CabinFirst          = "first"
)

// FlightQuery describes a one-way or round-trip offer search between two
// IATA airport codes.
type FlightQuery struct {
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureDate string `json:"departureDate"`
	ReturnDate    string `json:"returnDate,omitempty"`
	Passengers    int    `json:"passengers"`
	CabinClass    string `json:"cabinClass"`
	MaxOffers     int    `json:"maxOffers"`
}

// FlightOffer is the condensed offer presented to the traveler.
type FlightOffer struct {
	ID         string  `json:"id"`
	Airline    string  `json:"airline"`
	Price      float64 `json:"price"`
	Currency   string  `json:"currency"`
	CabinClass string  `json:"cabinClass"`
}

// Passenger identifies one traveler on an order. Only ID is required when
// the order reuses the passengers attached to the offer.
type Passenger struct {
	ID          string `json:"id"`
	Title       string `json:"title,omitempty"`
	Gender      string `json:"gender,omitempty"`
	GivenName   string `json:"givenName,omitempty"`
	FamilyName  string `json:"familyName,omitempty"`
	BornOn      string `json:"bornOn,omitempty"`
	Email       string `json:"email,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
}

// FlightSegment is one leg of a booked itinerary.
type FlightSegment struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	DepartingAt string `json:"departingAt"`
	ArrivingAt  string `json:"arrivingAt"`
	Flight      string `json:"flight"`
	Aircraft    string `json:"aircraft,omitempty"`
	Duration    string `json:"duration,omitempty"`
}

// OrderRequest turns a selected offer into an order. Hold orders defer
// payment until ticketing.
type OrderRequest struct {
	OfferID    string      `json:"offerId"`
	Passengers []Passenger `json:"passengers,omitempty"`
	Hold       bool        `json:"hold"`
}

// FlightOrder is a created or retrieved order.
type FlightOrder struct {
	OrderID           string          `json:"orderId"`
	BookingReference  string          `json:"bookingReference"`
	Total             string          `json:"total"`
	Currency          string          `json:"currency"`
	Type              string          `json:"type,omitempty"`
	PaymentRequiredBy string          `json:"paymentRequiredBy,omitempty"`
	CreatedAt         string          `json:"createdAt,omitempty"`
	Passengers        []Passenger     `json:"passengers,omitempty"`
	Itinerary         []FlightSegment `json:"itinerary,omitempty"`
}

// FlightCancellation is the outcome of an order cancellation.
type FlightCancellation struct {
	OrderID        string `json:"orderId"`
	CancellationID string `json:"cancellationId"`
	RefundAmount   string `json:"refundAmount,omitempty"`
	RefundCurrency string `json:"refundCurrency,omitempty"`
	Confirmed      bool   `json:"confirmed"`
}

// FlightChoice records an offer the traveler picked, for later recall.
type FlightChoice struct {
	ID            int64     `json:"id"`
	OfferID       string    `json:"offerId"`
	Airline       string    `json:"airline"`
	Price         float64   `json:"price"`
	Currency      string    `json:"currency"`
	CabinClass    string    `json:"cabinClass"`
	Origin        string    `json:"origin"`
	Destination   string    `json:"destination"`
	DepartureDate string    `json:"departureDate"`
	ReturnDate    string    `json:"returnDate,omitempty"`
	PassengerIDs  []string  `json:"passengerIds,omitempty"`
	ChosenAt      time.Time `json:"chosenAt"`
}
