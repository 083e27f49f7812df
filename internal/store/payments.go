package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nomada-travel/nomada/backend/internal/model/travel"
)

// ErrPaymentNotFound is returned when no record matches the lookup key.
var ErrPaymentNotFound = errors.New("payment not found")

// UpsertPayment writes the record keyed by its payment intent id, updating
// in place when the intent is already tracked.
func (s *Store) UpsertPayment(ctx context.Context, p travel.PaymentRecord) error {
	metadata := ""
	if len(p.Metadata) > 0 {
		raw, err := json.Marshal(p.Metadata)
		if err != nil {
			return fmt.Errorf("encode payment metadata: %w", err)
		}
		metadata = string(raw)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE payments
		 SET offer_id = ?, order_id = ?, amount = ?, currency = ?, status = ?,
		     customer_email = ?, card_brand = ?, card_last4 = ?, metadata_json = ?,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE stripe_payment_intent_id = ?`,
		p.OfferID, p.OrderID, p.Amount, p.Currency, p.Status,
		p.CustomerEmail, p.CardBrand, p.CardLast4, metadata,
		p.IntentID,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n > 0 {
		return nil
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO payments (stripe_payment_intent_id, offer_id, order_id, amount, currency,
		                       status, customer_email, card_brand, card_last4, metadata_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.IntentID, p.OfferID, p.OrderID, p.Amount, p.Currency,
		p.Status, p.CustomerEmail, p.CardBrand, p.CardLast4, metadata,
	)
	return err
}

// GetPaymentByIntentID loads the record for a Stripe payment intent.
func (s *Store) GetPaymentByIntentID(ctx context.Context, intentID string) (travel.PaymentRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, stripe_payment_intent_id, offer_id, order_id, amount, currency,
		        status, customer_email, card_brand, card_last4, metadata_json,
		        created_at, updated_at
		 FROM payments WHERE stripe_payment_intent_id = ?`,
		intentID,
	)
	return scanPayment(row)
}

// GetPaymentByOrderID loads the record linked to a flight order.
func (s *Store) GetPaymentByOrderID(ctx context.Context, orderID string) (travel.PaymentRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, stripe_payment_intent_id, offer_id, order_id, amount, currency,
		        status, customer_email, card_brand, card_last4, metadata_json,
		        created_at, updated_at
		 FROM payments WHERE order_id = ? ORDER BY id DESC LIMIT 1`,
		orderID,
	)
	return scanPayment(row)
}

// UpdatePaymentStatus moves the record to a new lifecycle status.
func (s *Store) UpdatePaymentStatus(ctx context.Context, intentID, status string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE payments SET status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE stripe_payment_intent_id = ?`,
		status, intentID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrPaymentNotFound
	}
	return nil
}

// LinkPaymentToOrder attaches the flight order created after a successful
// charge to the payment record.
func (s *Store) LinkPaymentToOrder(ctx context.Context, intentID, orderID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE payments SET order_id = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE stripe_payment_intent_id = ?`,
		orderID, intentID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrPaymentNotFound
	}
	return nil
}

// ListPaymentsByEmail returns the customer's payments, newest first.
func (s *Store) ListPaymentsByEmail(ctx context.Context, email string) ([]travel.PaymentRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, stripe_payment_intent_id, offer_id, order_id, amount, currency,
		        status, customer_email, card_brand, card_last4, metadata_json,
		        created_at, updated_at
		 FROM payments WHERE customer_email = ? ORDER BY created_at DESC, id DESC`,
		email,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []travel.PaymentRecord
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayment(row rowScanner) (travel.PaymentRecord, error) {
	var (
		p        travel.PaymentRecord
		metadata string
	)
	err := row.Scan(&p.ID, &p.IntentID, &p.OfferID, &p.OrderID, &p.Amount, &p.Currency,
		&p.Status, &p.CustomerEmail, &p.CardBrand, &p.CardLast4, &metadata,
		&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return travel.PaymentRecord{}, ErrPaymentNotFound
	}
	if err != nil {
		return travel.PaymentRecord{}, err
	}
	if metadata != "" {
		if err := json.Unmarshal([]byte(metadata), &p.Metadata); err != nil {
			return travel.PaymentRecord{}, fmt.Errorf("decode payment metadata: %w", err)
		}
	}
	return p, nil
}
