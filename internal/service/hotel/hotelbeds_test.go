package hotel_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nomada-travel/nomada/backend/internal/model/travel"
	"github.com/nomada-travel/nomada/backend/internal/service/hotel"
	"github.com/nomada-travel/nomada/backend/internal/store"
)

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatalf("encode response: %v", err)
	}
}

func TestSearchHotelsBuildsOccupanciesAndNormalizes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/hotel-api/1.0/hotels" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Header.Get("Api-key") != "key" {
			t.Errorf("expected the Api-key header, got %q", r.Header.Get("Api-key"))
		}
		if r.Header.Get("X-Signature") == "" {
			t.Error("expected a request signature")
		}

		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		stay := body["stay"].(map[string]any)
		if stay["checkIn"] != "2026-09-01" || stay["checkOut"] != "2026-09-05" {
			t.Errorf("unexpected stay %v", stay)
		}
		dest := body["destination"].(map[string]any)
		if dest["code"] != "PMI" {
			t.Errorf("expected destination PMI, got %v", dest["code"])
		}
		occupancies := body["occupancies"].([]any)
		if len(occupancies) != 1 {
			t.Fatalf("expected 1 occupancy, got %d", len(occupancies))
		}
		occ := occupancies[0].(map[string]any)
		if occ["adults"] != float64(2) || occ["children"] != float64(1) {
			t.Errorf("unexpected occupancy %v", occ)
		}
		paxes := occ["paxes"].([]any)
		if len(paxes) != 3 {
			t.Fatalf("expected paxes for 2 adults and 1 child, got %d", len(paxes))
		}
		last := paxes[2].(map[string]any)
		if last["type"] != "CH" || last["age"] != float64(8) {
			t.Errorf("expected a child pax with the default age, got %v", last)
		}
		filter := body["filter"].(map[string]any)
		if filter["maxHotels"] != float64(2) || filter["maxRate"] != float64(300) {
			t.Errorf("unexpected filter %v", filter)
		}

		writeJSON(t, w, http.StatusOK, map[string]any{"hotels": map[string]any{"hotels": []map[string]any{
			{
				"code": 1234, "name": "Palma Bay Resort", "categoryName": "4 STARS",
				"currency": "EUR", "minRate": "107.90", "maxRate": "210.00",
				"destinationName": "Palma", "zoneName": "Playa de Palma",
				"coordinates": map[string]any{"latitude": 39.51, "longitude": 2.73},
				"rooms": []map[string]any{{
					"code": "DBL.ST", "name": "DOUBLE STANDARD",
					"rates": []map[string]any{{"rateKey": "rk_1", "net": "107.90", "rateType": "BOOKABLE"}},
				}},
			},
			{"code": 5678, "name": "Overflow Hotel"},
			{"code": 9999, "name": "Should Be Capped"},
		}}})
	}))
	defer server.Close()

	client := hotel.NewHotelbedsClient(server.URL, "key", "secret")
	offers, err := client.SearchHotels(context.Background(), travel.HotelQuery{
		DestinationCode: " pmi ",
		CheckIn:         "2026-09-01",
		CheckOut:        "2026-09-05",
		Rooms:           []travel.RoomStay{{Adults: 2, Children: 1}},
		Limit:           2,
		MaxRate:         300,
	})
	if err != nil {
		t.Fatalf("search hotels: %v", err)
	}
	if len(offers) != 2 {
		t.Fatalf("expected offers capped at 2, got %d", len(offers))
	}
	first := offers[0]
	if first.Code != 1234 || first.Name != "Palma Bay Resort" || first.MinRate != "107.90" {
		t.Fatalf("unexpected first offer: %+v", first)
	}
	if len(first.Rooms) != 1 || first.Rooms[0].Rates[0].RateKey != "rk_1" {
		t.Fatalf("expected the rate key to survive normalization, got %+v", first.Rooms)
	}
	if first.Latitude != 39.51 {
		t.Fatalf("expected coordinates, got %+v", first)
	}
}

func TestSearchHotelsRequiresDestinationAndDates(t *testing.T) {
	client := hotel.NewHotelbedsClient("http://invalid.test", "key", "secret")
	if _, err := client.SearchHotels(context.Background(), travel.HotelQuery{CheckIn: "2026-09-01", CheckOut: "2026-09-05"}); err == nil {
		t.Fatal("expected an error without a destination")
	}
	if _, err := client.SearchHotels(context.Background(), travel.HotelQuery{DestinationCode: "PMI"}); err == nil {
		t.Fatal("expected an error without stay dates")
	}
}

func TestBookAndCancelRoundTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/hotel-api/1.0/bookings":
			var body map[string]any
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatalf("decode request: %v", err)
			}
			holder := body["holder"].(map[string]any)
			if holder["name"] != "Ana" || holder["surname"] != "Garcia" {
				t.Errorf("unexpected holder %v", holder)
			}
			if body["clientReference"] != "nomada-1" {
				t.Errorf("expected the client reference, got %v", body["clientReference"])
			}
			rooms := body["rooms"].([]any)
			room := rooms[0].(map[string]any)
			if room["rateKey"] != "rk_1" {
				t.Errorf("expected the rate key, got %v", room["rateKey"])
			}
			writeJSON(t, w, http.StatusOK, map[string]any{"booking": map[string]any{
				"reference": "100-200300", "status": "CONFIRMED", "creationDate": "2026-08-21",
				"hotel":    map[string]any{"name": "Palma Bay Resort"},
				"totalNet": 107.9, "currency": "EUR",
			}})
		case r.Method == http.MethodDelete && r.URL.Path == "/hotel-api/1.0/bookings/100-200300":
			writeJSON(t, w, http.StatusOK, map[string]any{"booking": map[string]any{
				"reference": "100-200300", "status": "CANCELLED", "cancellationReference": "crf_1",
			}})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := hotel.NewHotelbedsClient(server.URL, "key", "secret")
	booking, err := client.Book(context.Background(), travel.HotelBookingRequest{
		Holder:          travel.Holder{Name: "Ana", Surname: "Garcia"},
		Rooms:           []travel.BookedRoom{{RateKey: "rk_1", Paxes: []travel.Pax{{RoomID: 1, Type: "AD", Name: "Ana", Surname: "Garcia"}}}},
		ClientReference: "nomada-1",
	})
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if booking.Reference != "100-200300" || booking.Status != "CONFIRMED" {
		t.Fatalf("unexpected booking: %+v", booking)
	}
	if booking.HotelName != "Palma Bay Resort" || booking.TotalNet != "107.9" {
		t.Fatalf("expected hotel name and numeric total as string, got %+v", booking)
	}

	cancelled, err := client.CancelBooking(context.Background(), "100-200300")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != "CANCELLED" || cancelled.CancellationReference != "crf_1" {
		t.Fatalf("unexpected cancellation: %+v", cancelled)
	}
}

func TestBookValidatesHolderAndRooms(t *testing.T) {
	client := hotel.NewHotelbedsClient("http://invalid.test", "key", "secret")
	_, err := client.Book(context.Background(), travel.HotelBookingRequest{
		Rooms: []travel.BookedRoom{{RateKey: "rk_1"}},
	})
	if err == nil || !strings.Contains(err.Error(), "holder") {
		t.Fatalf("expected a holder error, got %v", err)
	}
	_, err = client.Book(context.Background(), travel.HotelBookingRequest{
		Holder: travel.Holder{Name: "Ana", Surname: "Garcia"},
	})
	if err == nil || !strings.Contains(err.Error(), "room") {
		t.Fatalf("expected a rooms error, got %v", err)
	}
}

func TestServiceBookRecordsAndCancelUpdates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/hotel-api/1.0/bookings":
			writeJSON(t, w, http.StatusOK, map[string]any{"booking": map[string]any{
				"reference": "100-200300", "status": "CONFIRMED",
				"hotel":    map[string]any{"name": "Palma Bay Resort"},
				"totalNet": 107.9, "currency": "EUR",
			}})
		case r.Method == http.MethodDelete && r.URL.Path == "/hotel-api/1.0/bookings/100-200300":
			writeJSON(t, w, http.StatusOK, map[string]any{"booking": map[string]any{
				"reference": "100-200300", "status": "CANCELLED",
			}})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	st, err := store.Open(filepath.Join(t.TempDir(), "nomada.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()

	svc := hotel.NewService(hotel.NewHotelbedsClient(server.URL, "key", "secret"), st)
	ctx := context.Background()

	booking, err := svc.Book(ctx, "ana@example.com", travel.HotelBookingRequest{
		Holder:          travel.Holder{Name: "Ana", Surname: "Garcia"},
		Rooms:           []travel.BookedRoom{{RateKey: "rk_1"}},
		ClientReference: "nomada-1",
	})
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	records, err := st.ListBookings(ctx, "ana@example.com")
	if err != nil {
		t.Fatalf("list bookings: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 booking record, got %d", len(records))
	}
	if records[0].Kind != travel.BookingKindHotel || records[0].Ref != booking.Reference || records[0].Title != "Palma Bay Resort" {
		t.Fatalf("unexpected record: %+v", records[0])
	}

	if _, err := svc.Cancel(ctx, "ana@example.com", booking.Reference); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	records, err = st.ListBookings(ctx, "ana@example.com")
	if err != nil {
		t.Fatalf("list bookings after cancel: %v", err)
	}
	if records[0].Status != travel.BookingStatusCancelled {
		t.Fatalf("expected the record to be cancelled, got %q", records[0].Status)
	}
}

func TestServiceEnabledNeedsBothCredentials(t *testing.T) {
	if hotel.NewService(hotel.NewHotelbedsClient("", "key", ""), nil).Enabled() {
		t.Fatal("expected the service to be disabled without a secret")
	}
	if !hotel.NewService(hotel.NewHotelbedsClient("", "key", "secret"), nil).Enabled() {
		t.Fatal("expected the service to be enabled with both credentials")
	}
}
