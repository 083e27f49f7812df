package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nomada-travel/nomada/backend/internal/model/travel"
)

// ErrBookingNotFound is returned when a cancellation targets a reference
// the user never booked.
var ErrBookingNotFound = errors.New("booking not found")

// SaveBooking records an active reservation and returns its id.
func (s *Store) SaveBooking(ctx context.Context, b travel.Booking) (int64, error) {
	details := b.Details
	if details == nil {
		details = map[string]any{}
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return 0, fmt.Errorf("encode booking details: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO bookings (user_email, type, ref, title, detail_json, status, created_at)
		 VALUES (?, ?, ?, ?, ?, 'active', ?)`,
		b.UserEmail, b.Kind, b.Ref, b.Title, string(raw), time.Now().Unix(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListBookings returns the user's bookings, newest first.
func (s *Store) ListBookings(ctx context.Context, userEmail string) ([]travel.Booking, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_email, type, ref, title, detail_json, status, created_at
		 FROM bookings WHERE user_email = ? ORDER BY created_at DESC, id DESC`,
		userEmail,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []travel.Booking
	for rows.Next() {
		var (
			b       travel.Booking
			detail  string
			created int64
		)
		if err := rows.Scan(&b.ID, &b.UserEmail, &b.Kind, &b.Ref, &b.Title, &detail, &b.Status, &created); err != nil {
			return nil, err
		}
		if detail != "" {
			if err := json.Unmarshal([]byte(detail), &b.Details); err != nil {
				return nil, fmt.Errorf("decode booking details: %w", err)
			}
		}
		b.CreatedAt = time.Unix(created, 0).UTC()
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// CancelBooking marks the user's reservation with the given reference as
// cancelled. The row is kept for history.
func (s *Store) CancelBooking(ctx context.Context, userEmail, ref string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE bookings SET status = 'cancelled' WHERE user_email = ? AND ref = ?`,
		userEmail, ref,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrBookingNotFound
	}
	return nil
}
