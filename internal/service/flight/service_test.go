package flight_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/nomada-travel/nomada/backend/internal/model/travel"
	"github.com/nomada-travel/nomada/backend/internal/service/flight"
	"github.com/nomada-travel/nomada/backend/internal/store"
)

type stubNotifier struct {
	to     string
	orders []travel.FlightOrder
}

func (s *stubNotifier) SendFlightConfirmation(ctx context.Context, to string, order travel.FlightOrder) error {
	s.to = to
	s.orders = append(s.orders, order)
	return nil
}

func newBookingServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/air/offers/off_1":
			writeJSON(t, w, http.StatusOK, map[string]any{"data": map[string]any{
				"id": "off_1", "total_amount": "450.10", "total_currency": "EUR",
				"passengers": []any{fullOfferPassenger("pas_1")},
			}})
		case r.Method == http.MethodPost && r.URL.Path == "/air/orders":
			writeJSON(t, w, http.StatusCreated, map[string]any{"data": map[string]any{
				"id": "ord_1", "booking_reference": "ABC123",
				"total_amount": "450.10", "total_currency": "EUR", "type": "instant",
				"passengers": []any{fullOfferPassenger("pas_1")},
				"slices": []any{map[string]any{"segments": []any{map[string]any{
					"origin":      map[string]any{"iata_code": "MAD"},
					"destination": map[string]any{"iata_code": "LIS"},
					"marketing_carrier": map[string]any{"name": "Iberia"}, "marketing_carrier_flight_number": "6001",
				}}}},
			}})
		case r.Method == http.MethodPost && r.URL.Path == "/air/order_cancellations":
			writeJSON(t, w, http.StatusCreated, map[string]any{"data": map[string]any{"id": "ocr_1", "refund_amount": "450.10", "refund_currency": "EUR"}})
		case r.Method == http.MethodPost && r.URL.Path == "/air/order_cancellations/ocr_1/actions/confirm":
			writeJSON(t, w, http.StatusOK, map[string]any{"data": map[string]any{"id": "ocr_1"}})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestBookRecordsBookingAndNotifies(t *testing.T) {
	server := newBookingServer(t)
	defer server.Close()

	st, err := store.Open(filepath.Join(t.TempDir(), "nomada.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()

	notifier := &stubNotifier{}
	svc := flight.NewService(flight.NewDuffelClient(server.URL, "tok"), st, notifier)

	ctx := context.Background()
	order, err := svc.Book(ctx, "ana@example.com", travel.OrderRequest{OfferID: "off_1"})
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if order.OrderID != "ord_1" {
		t.Fatalf("unexpected order: %+v", order)
	}

	if notifier.to != "ana@example.com" || len(notifier.orders) != 1 {
		t.Fatalf("expected one confirmation to the traveler, got to=%q orders=%d", notifier.to, len(notifier.orders))
	}

	bookings, err := st.ListBookings(ctx, "ana@example.com")
	if err != nil {
		t.Fatalf("list bookings: %v", err)
	}
	if len(bookings) != 1 {
		t.Fatalf("expected 1 booking record, got %d", len(bookings))
	}
	b := bookings[0]
	if b.Kind != travel.BookingKindFlight || b.Ref != "ord_1" || b.Title != "MAD to LIS" {
		t.Fatalf("unexpected booking record: %+v", b)
	}
	if b.Details["bookingReference"] != "ABC123" {
		t.Fatalf("expected the booking reference in details, got %v", b.Details)
	}
}

func TestCancelMarksBookingCancelled(t *testing.T) {
	server := newBookingServer(t)
	defer server.Close()

	st, err := store.Open(filepath.Join(t.TempDir(), "nomada.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()

	svc := flight.NewService(flight.NewDuffelClient(server.URL, "tok"), st, nil)
	ctx := context.Background()

	if _, err := svc.Book(ctx, "ana@example.com", travel.OrderRequest{OfferID: "off_1"}); err != nil {
		t.Fatalf("book: %v", err)
	}

	cancellation, err := svc.Cancel(ctx, "ana@example.com", "ord_1")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if !cancellation.Confirmed {
		t.Fatal("expected a confirmed cancellation")
	}

	bookings, err := st.ListBookings(ctx, "ana@example.com")
	if err != nil {
		t.Fatalf("list bookings: %v", err)
	}
	if bookings[0].Status != travel.BookingStatusCancelled {
		t.Fatalf("expected the record to be cancelled, got %q", bookings[0].Status)
	}
}

func TestChoicesRoundTripThroughService(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "nomada.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()

	svc := flight.NewService(flight.NewDuffelClient("", "tok"), st, nil)
	ctx := context.Background()

	if _, err := svc.SaveChoice(ctx, travel.FlightChoice{OfferID: "off_1", Airline: "Iberia", Origin: "MAD", Destination: "LIS"}); err != nil {
		t.Fatalf("save choice: %v", err)
	}
	choices, err := svc.RecentChoices(ctx, 5)
	if err != nil {
		t.Fatalf("recent choices: %v", err)
	}
	if len(choices) != 1 || choices[0].OfferID != "off_1" {
		t.Fatalf("unexpected choices: %v", choices)
	}
}

func TestEnabledNeedsAToken(t *testing.T) {
	if flight.NewService(flight.NewDuffelClient("", ""), nil, nil).Enabled() {
		t.Fatal("expected the service to be disabled without a token")
	}
	if !flight.NewService(flight.NewDuffelClient("", "tok"), nil, nil).Enabled() {
		t.Fatal("expected the service to be enabled with a token")
	}
}
