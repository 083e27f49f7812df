package payment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/paymentintent"
	"github.com/stripe/stripe-go/v79/refund"

	"github.com/nomada-travel/nomada/backend/internal/log"
	"github.com/nomada-travel/nomada/backend/internal/model/travel"
	"github.com/nomada-travel/nomada/backend/internal/store"
)

var (
	ErrNotConfigured     = errors.New("stripe is not configured")
	ErrInvalidAmount     = errors.New("invalid payment amount")
	ErrPaymentIncomplete = errors.New("payment not completed")
)

// Service processes card payments through Stripe PaymentIntents and
// mirrors every transition into the payments store.
type Service struct {
	store   *store.Store
	enabled bool
}

// NewService configures the Stripe client. An empty secret key leaves the
// service disabled; every call then fails with ErrNotConfigured.
func NewService(st *store.Store, secretKey string) *Service {
	if secretKey != "" {
		stripe.Key = secretKey
	}
	return &Service{store: st, enabled: secretKey != ""}
}

// Enabled reports whether a Stripe secret key is present.
func (s *Service) Enabled() bool { return s.enabled }

// CreateIntentRequest describes one charge to collect.
type CreateIntentRequest struct {
	Amount        string            `json:"amount"`
	Currency      string            `json:"currency"`
	OfferID       string            `json:"offerId"`
	CustomerEmail string            `json:"customerEmail,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// Intent is the client-facing slice of a PaymentIntent.
type Intent struct {
	IntentID     string `json:"paymentIntentId"`
	ClientSecret string `json:"clientSecret,omitempty"`
	AmountCents  int64  `json:"amountCents"`
	Currency     string `json:"currency"`
	Status       string `json:"status"`
}

// CreateIntent opens a PaymentIntent for the given amount and records it.
func (s *Service) CreateIntent(ctx context.Context, req CreateIntentRequest) (Intent, error) {
	if !s.enabled {
		return Intent{}, ErrNotConfigured
	}

	cents, err := toCents(req.Amount)
	if err != nil {
		return Intent{}, err
	}
	currency := strings.ToLower(strings.TrimSpace(req.Currency))
	if currency == "" {
		return Intent{}, fmt.Errorf("%w: missing currency", ErrInvalidAmount)
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(cents),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata("offer_id", req.OfferID)
	params.AddMetadata("product", "flight_booking")
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	if req.CustomerEmail != "" {
		params.ReceiptEmail = stripe.String(req.CustomerEmail)
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		return Intent{}, fmt.Errorf("create payment intent: %w", err)
	}

	record := travel.PaymentRecord{
		IntentID:      pi.ID,
		OfferID:       req.OfferID,
		Amount:        req.Amount,
		Currency:      strings.ToUpper(currency),
		Status:        string(pi.Status),
		CustomerEmail: req.CustomerEmail,
		Metadata:      req.Metadata,
	}
	if err := s.store.UpsertPayment(ctx, record); err != nil {
		log.Error().Err(err).Str("intent_id", pi.ID).Msg("failed to record payment intent")
	}

	log.Info().Str("intent_id", pi.ID).Str("amount", req.Amount).Str("currency", record.Currency).Msg("payment intent created")

	return Intent{
		IntentID:     pi.ID,
		ClientSecret: pi.ClientSecret,
		AmountCents:  cents,
		Currency:     record.Currency,
		Status:       string(pi.Status),
	}, nil
}

// ConfirmIntent verifies a PaymentIntent has succeeded and records the
// card details from its latest charge. A pending or failed intent returns
// ErrPaymentIncomplete.
func (s *Service) ConfirmIntent(ctx context.Context, intentID string) (travel.PaymentRecord, error) {
	if !s.enabled {
		return travel.PaymentRecord{}, ErrNotConfigured
	}

	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	params.AddExpand("latest_charge")

	pi, err := paymentintent.Get(intentID, params)
	if err != nil {
		return travel.PaymentRecord{}, fmt.Errorf("retrieve payment intent: %w", err)
	}

	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		_ = s.store.UpdatePaymentStatus(ctx, intentID, string(pi.Status))
		return travel.PaymentRecord{}, fmt.Errorf("%w: status %s", ErrPaymentIncomplete, pi.Status)
	}

	record := travel.PaymentRecord{
		IntentID: pi.ID,
		Amount:   formatAmount(pi.Amount),
		Currency: strings.ToUpper(string(pi.Currency)),
		Status:   string(pi.Status),
	}
	if pi.ReceiptEmail != "" {
		record.CustomerEmail = pi.ReceiptEmail
	}
	if pi.Metadata != nil {
		record.OfferID = pi.Metadata["offer_id"]
		record.Metadata = pi.Metadata
	}
	if charge := pi.LatestCharge; charge != nil && charge.PaymentMethodDetails != nil && charge.PaymentMethodDetails.Card != nil {
		record.CardBrand = string(charge.PaymentMethodDetails.Card.Brand)
		record.CardLast4 = charge.PaymentMethodDetails.Card.Last4
	}

	if err := s.store.UpsertPayment(ctx, record); err != nil {
		log.Error().Err(err).Str("intent_id", pi.ID).Msg("failed to record confirmed payment")
	}

	if stored, err := s.store.GetPaymentByIntentID(ctx, intentID); err == nil {
		return stored, nil
	}
	return record, nil
}

// GetIntent reports the current status without requiring success.
func (s *Service) GetIntent(ctx context.Context, intentID string) (Intent, error) {
	if !s.enabled {
		return Intent{}, ErrNotConfigured
	}

	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := paymentintent.Get(intentID, params)
	if err != nil {
		return Intent{}, fmt.Errorf("retrieve payment intent: %w", err)
	}

	_ = s.store.UpdatePaymentStatus(ctx, intentID, string(pi.Status))

	return Intent{
		IntentID:    pi.ID,
		AmountCents: pi.Amount,
		Currency:    strings.ToUpper(string(pi.Currency)),
		Status:      string(pi.Status),
	}, nil
}

// Refund is the outcome of a full or partial refund.
type Refund struct {
	RefundID    string `json:"refundId"`
	Status      string `json:"status"`
	AmountCents int64  `json:"amountCents"`
	Currency    string `json:"currency"`
}

// RefundIntent refunds a PaymentIntent. amount is a decimal string for a
// partial refund, or empty to refund in full.
func (s *Service) RefundIntent(ctx context.Context, intentID, amount string) (Refund, error) {
	if !s.enabled {
		return Refund{}, ErrNotConfigured
	}

	params := &stripe.RefundParams{PaymentIntent: stripe.String(intentID)}
	params.Context = ctx
	if amount != "" {
		cents, err := toCents(amount)
		if err != nil {
			return Refund{}, err
		}
		params.Amount = stripe.Int64(cents)
	}

	ref, err := refund.New(params)
	if err != nil {
		return Refund{}, fmt.Errorf("create refund: %w", err)
	}

	_ = s.store.UpdatePaymentStatus(ctx, intentID, "refunded")

	log.Info().Str("intent_id", intentID).Str("refund_id", ref.ID).Msg("refund created")

	return Refund{
		RefundID:    ref.ID,
		Status:      string(ref.Status),
		AmountCents: ref.Amount,
		Currency:    strings.ToUpper(string(ref.Currency)),
	}, nil
}

// LinkOrder attaches a created travel order to the payment that funded it.
func (s *Service) LinkOrder(ctx context.Context, intentID, orderID string) error {
	return s.store.LinkPaymentToOrder(ctx, intentID, orderID)
}

// ListPayments returns payment records for a traveler, newest first.
func (s *Service) ListPayments(ctx context.Context, email string) ([]travel.PaymentRecord, error) {
	return s.store.ListPaymentsByEmail(ctx, email)
}

// toCents converts a decimal amount string to the smallest currency unit.
func toCents(amount string) (int64, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(amount), 64)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	return int64(math.Round(value * 100)), nil
}

func formatAmount(cents int64) string {
	return strconv.FormatFloat(float64(cents)/100, 'f', 2, 64)
}
