package flight

import (
	"context"
	"errors"
	"fmt"

	"github.com/nomada-travel/nomada/backend/internal/log"
	"github.com/nomada-travel/nomada/backend/internal/model/travel"
	"github.com/nomada-travel/nomada/backend/internal/store"
)

// Notifier delivers the post-booking confirmation email.
type Notifier interface {
	SendFlightConfirmation(ctx context.Context, to string, order travel.FlightOrder) error
}

// Service owns flight search and booking. Orders go through Duffel;
// successful bookings are recorded per user and confirmed by email.
type Service struct {
	api      *DuffelClient
	store    *store.Store
	notifier Notifier
}

// NewService wires the Duffel client with optional persistence and mail.
// A nil store skips booking records, a nil notifier skips email.
func NewService(api *DuffelClient, st *store.Store, notifier Notifier) *Service {
	return &Service{api: api, store: st, notifier: notifier}
}

// Enabled reports whether Duffel credentials are configured.
func (s *Service) Enabled() bool {
	return s.api != nil && s.api.token != ""
}

// Search returns normalized offers for the query.
func (s *Service) Search(ctx context.Context, q travel.FlightQuery) ([]travel.FlightOffer, error) {
	return s.api.SearchOffers(ctx, q)
}

// Book creates the order, records it as a booking for userEmail and sends
// the confirmation email. Record and email failures are logged, not
// returned: the order already exists at that point.
func (s *Service) Book(ctx context.Context, userEmail string, req travel.OrderRequest) (travel.FlightOrder, error) {
	order, err := s.api.CreateOrder(ctx, req)
	if err != nil {
		return travel.FlightOrder{}, err
	}

	s.recordBooking(ctx, userEmail, order)

	if s.notifier != nil {
		if err := s.notifier.SendFlightConfirmation(ctx, userEmail, order); err != nil {
			log.Warn().Err(err).Str("order_id", order.OrderID).Msg("booking email failed")
		}
	}
	return order, nil
}

func (s *Service) recordBooking(ctx context.Context, userEmail string, order travel.FlightOrder) {
	if s.store == nil || userEmail == "" {
		return
	}
	booking := travel.Booking{
		UserEmail: userEmail,
		Kind:      travel.BookingKindFlight,
		Ref:       order.OrderID,
		Title:     bookingTitle(order),
		Details: map[string]any{
			"bookingReference": order.BookingReference,
			"total":            order.Total,
			"currency":         order.Currency,
		},
	}
	if _, err := s.store.SaveBooking(ctx, booking); err != nil {
		log.Warn().Err(err).Str("order_id", order.OrderID).Msg("failed to record booking")
	}
}

func bookingTitle(order travel.FlightOrder) string {
	if len(order.Itinerary) == 0 {
		return "Flight order " + order.OrderID
	}
	first := order.Itinerary[0]
	last := order.Itinerary[len(order.Itinerary)-1]
	return first.Origin + " to " + last.Destination
}

// Offer retrieves an existing offer by id.
func (s *Service) Offer(ctx context.Context, offerID string) (travel.FlightOffer, error) {
	return s.api.GetOffer(ctx, offerID)
}

// Order retrieves an existing order.
func (s *Service) Order(ctx context.Context, orderID string) (travel.FlightOrder, error) {
	return s.api.GetOrder(ctx, orderID)
}

// Cancel cancels the order with Duffel and marks the user's booking record
// cancelled. A record that was never saved is not an error.
func (s *Service) Cancel(ctx context.Context, userEmail, orderID string) (travel.FlightCancellation, error) {
	cancellation, err := s.api.CancelOrder(ctx, orderID)
	if err != nil {
		return cancellation, err
	}

	if s.store != nil && userEmail != "" {
		if err := s.store.CancelBooking(ctx, userEmail, orderID); err != nil && !errors.Is(err, store.ErrBookingNotFound) {
			log.Warn().Err(err).Str("order_id", orderID).Msg("failed to mark booking cancelled")
		}
	}
	return cancellation, nil
}

// SaveChoice persists the traveler's selected offer for later recall.
func (s *Service) SaveChoice(ctx context.Context, choice travel.FlightChoice) (int64, error) {
	if s.store == nil {
		return 0, fmt.Errorf("flight choices need a store")
	}
	return s.store.SaveFlightChoice(ctx, choice)
}

// RecentChoices returns the latest saved choices, newest first.
func (s *Service) RecentChoices(ctx context.Context, limit int) ([]travel.FlightChoice, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.LoadFlightChoices(ctx, limit)
}
