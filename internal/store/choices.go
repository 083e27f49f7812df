package store

import (
	"context"
	"strings"
	"time"

	"github.com/nomada-travel/nomada/backend/internal/model/travel"
)

// SaveFlightChoice persists an offer the traveller picked so the agent can
// recall it in later turns.
func (s *Store) SaveFlightChoice(ctx context.Context, c travel.FlightChoice) (int64, error) {
	chosen := c.ChosenAt
	if chosen.IsZero() {
		chosen = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO flight_choices (offer_id, airline, price, currency, cabin_class,
		                             origin, destination, departure_date, return_date,
		                             passenger_ids, chosen_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.OfferID, c.Airline, c.Price, c.Currency, c.CabinClass,
		c.Origin, c.Destination, c.DepartureDate, c.ReturnDate,
		strings.Join(c.PassengerIDs, ","), chosen.Unix(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// LoadFlightChoices returns the most recently saved choices, newest first.
func (s *Store) LoadFlightChoices(ctx context.Context, limit int) ([]travel.FlightChoice, error) {
	if limit < 1 {
		limit = 1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, offer_id, airline, price, currency, cabin_class,
		        origin, destination, departure_date, return_date, passenger_ids, chosen_at
		 FROM flight_choices ORDER BY chosen_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var choices []travel.FlightChoice
	for rows.Next() {
		var (
			c          travel.FlightChoice
			passengers string
			chosen     int64
		)
		if err := rows.Scan(&c.ID, &c.OfferID, &c.Airline, &c.Price, &c.Currency, &c.CabinClass,
			&c.Origin, &c.Destination, &c.DepartureDate, &c.ReturnDate, &passengers, &chosen); err != nil {
			return nil, err
		}
		if passengers != "" {
			c.PassengerIDs = strings.Split(passengers, ",")
		}
		c.ChosenAt = time.Unix(chosen, 0).UTC()
		choices = append(choices, c)
	}
	return choices, rows.Err()
}
