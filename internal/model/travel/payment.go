package travel

import "time"

// PaymentRecord mirrors one Stripe payment intent through its lifecycle
// and links it to the travel order it paid for.
type PaymentRecord struct {
	ID            int64             `json:"id"`
	IntentID      string            `json:"intentId"`
	OfferID       string            `json:"offerId,omitempty"`
	OrderID       string            `json:"orderId,omitempty"`
	Amount        string            `json:"amount"`
	Currency      string            `json:"currency"`
	Status        string            `json:"status"`
	CustomerEmail string            `json:"customerEmail,omitempty"`
	CardBrand     string            `json:"cardBrand,omitempty"`
	CardLast4     string            `json:"cardLast4,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}
