package hotel

import (
	"context"
	"errors"

	"github.com/nomada-travel/nomada/backend/internal/log"
	"github.com/nomada-travel/nomada/backend/internal/model/travel"
	"github.com/nomada-travel/nomada/backend/internal/store"
)

// Service owns hotel availability and booking. Bookings go through
// Hotelbeds and successful ones are recorded per user.
type Service struct {
	api   *HotelbedsClient
	store *store.Store
}

// NewService wires the Hotelbeds client with optional persistence. A nil
// store skips booking records.
func NewService(api *HotelbedsClient, st *store.Store) *Service {
	return &Service{api: api, store: st}
}

// Enabled reports whether Hotelbeds credentials are configured.
func (s *Service) Enabled() bool {
	return s.api != nil && s.api.apiKey != "" && s.api.secret != ""
}

// Search returns normalized availability for the query.
func (s *Service) Search(ctx context.Context, q travel.HotelQuery) ([]travel.HotelOffer, error) {
	return s.api.SearchHotels(ctx, q)
}

// Book creates the booking and records it for userEmail. Record failures
// are logged, not returned: the booking already exists at that point.
func (s *Service) Book(ctx context.Context, userEmail string, req travel.HotelBookingRequest) (travel.HotelBooking, error) {
	booking, err := s.api.Book(ctx, req)
	if err != nil {
		return travel.HotelBooking{}, err
	}

	if s.store != nil && userEmail != "" {
		record := travel.Booking{
			UserEmail: userEmail,
			Kind:      travel.BookingKindHotel,
			Ref:       booking.Reference,
			Title:     bookingTitle(booking),
			Details: map[string]any{
				"status":   booking.Status,
				"totalNet": booking.TotalNet,
				"currency": booking.Currency,
			},
		}
		if _, err := s.store.SaveBooking(ctx, record); err != nil {
			log.Warn().Err(err).Str("reference", booking.Reference).Msg("failed to record hotel booking")
		}
	}
	return booking, nil
}

func bookingTitle(b travel.HotelBooking) string {
	if b.HotelName != "" {
		return b.HotelName
	}
	return "Hotel booking " + b.Reference
}

// Booking retrieves a booking by reference.
func (s *Service) Booking(ctx context.Context, reference string) (travel.HotelBooking, error) {
	return s.api.GetBooking(ctx, reference)
}

// Cancel cancels the booking with Hotelbeds and marks the user's record
// cancelled. A record that was never saved is not an error.
func (s *Service) Cancel(ctx context.Context, userEmail, reference string) (travel.HotelBooking, error) {
	booking, err := s.api.CancelBooking(ctx, reference)
	if err != nil {
		return travel.HotelBooking{}, err
	}

	if s.store != nil && userEmail != "" {
		if err := s.store.CancelBooking(ctx, userEmail, reference); err != nil && !errors.Is(err, store.ErrBookingNotFound) {
			log.Warn().Err(err).Str("reference", reference).Msg("failed to mark hotel booking cancelled")
		}
	}
	return booking, nil
}
