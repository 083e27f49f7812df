package flight_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nomada-travel/nomada/backend/internal/model/travel"
	"github.com/nomada-travel/nomada/backend/internal/service/flight"
)

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatalf("encode response: %v", err)
	}
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		t.Fatalf("decode request body: %v", err)
	}
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected a data envelope, got %v", body)
	}
	return data
}

func TestSearchOffersRoundTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Duffel-Version") != "v2" {
			t.Errorf("expected Duffel-Version v2, got %q", r.Header.Get("Duffel-Version"))
		}
		if r.Header.Get("Authorization") != "Bearer test-token" {
			t.Errorf("unexpected authorization header %q", r.Header.Get("Authorization"))
		}
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/air/offer_requests":
			data := decodeBody(t, r)
			slices := data["slices"].([]any)
			if len(slices) != 2 {
				t.Errorf("expected 2 slices for a round trip, got %d", len(slices))
			}
			first := slices[0].(map[string]any)
			if first["origin"] != "MAD" || first["destination"] != "LIS" {
				t.Errorf("expected normalized codes, got %v", first)
			}
			back := slices[1].(map[string]any)
			if back["origin"] != "LIS" || back["destination"] != "MAD" {
				t.Errorf("expected the return slice to flip the route, got %v", back)
			}
			if passengers := data["passengers"].([]any); len(passengers) != 2 {
				t.Errorf("expected 2 passengers, got %d", len(passengers))
			}
			if data["cabin_class"] != "economy" {
				t.Errorf("expected cabin class to default to economy, got %v", data["cabin_class"])
			}
			writeJSON(t, w, http.StatusCreated, map[string]any{"data": map[string]any{"id": "orq_1"}})
		case r.Method == http.MethodGet && r.URL.Path == "/air/offers":
			if got := r.URL.Query().Get("offer_request_id"); got != "orq_1" {
				t.Errorf("expected offer_request_id orq_1, got %q", got)
			}
			writeJSON(t, w, http.StatusOK, map[string]any{"data": []map[string]any{
				{"id": "off_1", "total_amount": "120.50", "total_currency": "EUR", "cabin_class": "economy", "owner": map[string]any{"name": "Iberia"}},
				{"id": "off_2", "total_amount": "89.00", "owner": map[string]any{}},
				{"id": "off_3", "total_amount": "301.00", "total_currency": "EUR", "owner": map[string]any{"name": "TAP"}},
			}})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := flight.NewDuffelClient(server.URL, "test-token")
	offers, err := client.SearchOffers(context.Background(), travel.FlightQuery{
		Origin:        " mad ",
		Destination:   "lis",
		DepartureDate: "2026-09-01",
		ReturnDate:    "2026-09-08",
		Passengers:    2,
		MaxOffers:     2,
	})
	if err != nil {
		t.Fatalf("search offers: %v", err)
	}
	if len(offers) != 2 {
		t.Fatalf("expected offers capped at 2, got %d", len(offers))
	}
	if offers[0].ID != "off_1" || offers[0].Airline != "Iberia" || offers[0].Price != 120.50 {
		t.Fatalf("unexpected first offer: %+v", offers[0])
	}
	if offers[1].Airline != "Unknown" {
		t.Fatalf("expected a missing owner to read Unknown, got %q", offers[1].Airline)
	}
	if offers[1].Currency != "USD" {
		t.Fatalf("expected a missing currency to default to USD, got %q", offers[1].Currency)
	}
	if offers[1].CabinClass != "economy" {
		t.Fatalf("expected the query cabin as fallback, got %q", offers[1].CabinClass)
	}
}

func TestSearchOffersRejectsInvalidCabin(t *testing.T) {
	client := flight.NewDuffelClient("http://invalid.test", "tok")
	_, err := client.SearchOffers(context.Background(), travel.FlightQuery{
		Origin: "MAD", Destination: "LIS", DepartureDate: "2026-09-01", CabinClass: "steerage",
	})
	if err == nil || !strings.Contains(err.Error(), "invalid cabin class") {
		t.Fatalf("expected an invalid cabin error, got %v", err)
	}
}

func fullOfferPassenger(id string) map[string]any {
	return map[string]any{
		"id": id, "title": "mr", "gender": "m", "given_name": "Bob", "family_name": "Lee",
		"born_on": "1990-01-01", "email": "bob@example.com", "phone_number": "+34600000000",
	}
}

func TestCreateOrderInstantPaysFromBalance(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/air/offers/off_1":
			writeJSON(t, w, http.StatusOK, map[string]any{"data": map[string]any{
				"id": "off_1", "total_amount": "450.10", "total_currency": "EUR",
				"passengers": []any{fullOfferPassenger("pas_1")},
			}})
		case r.Method == http.MethodPost && r.URL.Path == "/air/orders":
			data := decodeBody(t, r)
			if data["type"] != "instant" {
				t.Errorf("expected an instant order, got %v", data["type"])
			}
			selected := data["selected_offers"].([]any)
			if len(selected) != 1 || selected[0] != "off_1" {
				t.Errorf("unexpected selected offers %v", selected)
			}
			payments := data["payments"].([]any)
			payment := payments[0].(map[string]any)
			if payment["type"] != "balance" || payment["amount"] != "450.10" || payment["currency"] != "EUR" {
				t.Errorf("expected a balance payment for the offer total, got %v", payment)
			}
			writeJSON(t, w, http.StatusCreated, map[string]any{"data": map[string]any{
				"id": "ord_1", "booking_reference": "ABC123",
				"total_amount": "450.10", "total_currency": "EUR", "type": "instant",
				"passengers": []any{fullOfferPassenger("pas_1")},
				"slices": []any{map[string]any{"segments": []any{map[string]any{
					"origin":      map[string]any{"iata_code": "MAD"},
					"destination": map[string]any{"iata_code": "LIS"},
					"departing_at": "2026-09-01T10:00", "arriving_at": "2026-09-01T11:20",
					"marketing_carrier": map[string]any{"name": "Iberia"}, "marketing_carrier_flight_number": "6001",
					"aircraft": map[string]any{"name": "Airbus A320"}, "duration": "PT1H20M",
				}}}},
			}})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := flight.NewDuffelClient(server.URL, "test-token")
	order, err := client.CreateOrder(context.Background(), travel.OrderRequest{OfferID: "off_1"})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if order.OrderID != "ord_1" || order.BookingReference != "ABC123" {
		t.Fatalf("unexpected order: %+v", order)
	}
	if len(order.Itinerary) != 1 {
		t.Fatalf("expected 1 itinerary segment, got %d", len(order.Itinerary))
	}
	seg := order.Itinerary[0]
	if seg.Origin != "MAD" || seg.Destination != "LIS" || seg.Flight != "Iberia 6001" {
		t.Fatalf("unexpected segment: %+v", seg)
	}
}

func TestCreateOrderHoldSkipsPayment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/air/offers/off_1":
			writeJSON(t, w, http.StatusOK, map[string]any{"data": map[string]any{
				"id": "off_1", "total_amount": "450.10", "total_currency": "EUR",
				"passengers": []any{fullOfferPassenger("pas_1")},
			}})
		case r.Method == http.MethodPost && r.URL.Path == "/air/orders":
			data := decodeBody(t, r)
			if data["type"] != "hold" {
				t.Errorf("expected a hold order, got %v", data["type"])
			}
			if _, ok := data["payments"]; ok {
				t.Error("expected hold orders to omit payments")
			}
			writeJSON(t, w, http.StatusCreated, map[string]any{"data": map[string]any{
				"id": "ord_2", "total_amount": "450.10", "total_currency": "EUR", "type": "hold",
				"payment_required_by": "2026-08-30T12:00:00Z",
			}})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := flight.NewDuffelClient(server.URL, "test-token")
	order, err := client.CreateOrder(context.Background(), travel.OrderRequest{OfferID: "off_1", Hold: true})
	if err != nil {
		t.Fatalf("create hold order: %v", err)
	}
	if order.Type != "hold" || order.PaymentRequiredBy == "" {
		t.Fatalf("unexpected hold order: %+v", order)
	}
}

func TestCreateOrderReportsMissingPassengerDetails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && r.URL.Path == "/air/offers/off_1" {
			writeJSON(t, w, http.StatusOK, map[string]any{"data": map[string]any{
				"id": "off_1", "total_amount": "450.10", "total_currency": "EUR",
				"passengers": []any{map[string]any{"id": "pas_1"}},
			}})
			return
		}
		t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := flight.NewDuffelClient(server.URL, "test-token")
	_, err := client.CreateOrder(context.Background(), travel.OrderRequest{OfferID: "off_1"})
	if !errors.Is(err, flight.ErrPassengerDetails) {
		t.Fatalf("expected ErrPassengerDetails, got %v", err)
	}
	if !strings.Contains(err.Error(), "given_name") {
		t.Fatalf("expected the missing fields to be named, got %v", err)
	}
}

func TestCancelOrderConfirmsAndReturnsRefund(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/air/order_cancellations":
			data := decodeBody(t, r)
			if data["order_id"] != "ord_1" {
				t.Errorf("expected order_id ord_1, got %v", data["order_id"])
			}
			writeJSON(t, w, http.StatusCreated, map[string]any{"data": map[string]any{
				"id": "ocr_1", "refund_amount": "450.10", "refund_currency": "EUR",
			}})
		case r.Method == http.MethodPost && r.URL.Path == "/air/order_cancellations/ocr_1/actions/confirm":
			writeJSON(t, w, http.StatusOK, map[string]any{"data": map[string]any{
				"id": "ocr_1", "refund_amount": "440.00", "refund_currency": "EUR",
			}})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := flight.NewDuffelClient(server.URL, "test-token")
	cancellation, err := client.CancelOrder(context.Background(), "ord_1")
	if err != nil {
		t.Fatalf("cancel order: %v", err)
	}
	if !cancellation.Confirmed {
		t.Fatal("expected the cancellation to be confirmed")
	}
	if cancellation.CancellationID != "ocr_1" || cancellation.RefundAmount != "440.00" {
		t.Fatalf("expected the confirmed refund amount, got %+v", cancellation)
	}
}

func TestDuffelErrorsCarryStatusAndBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusUnprocessableEntity, map[string]any{
			"errors": []map[string]any{{"title": "Offer expired"}},
		})
	}))
	defer server.Close()

	client := flight.NewDuffelClient(server.URL, "test-token")
	_, err := client.SearchOffers(context.Background(), travel.FlightQuery{
		Origin: "MAD", Destination: "LIS", DepartureDate: "2026-09-01",
	})
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "422") || !strings.Contains(err.Error(), "Offer expired") {
		t.Fatalf("expected the status and body in the error, got %v", err)
	}
}
