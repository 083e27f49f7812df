package travel

import "time"

// Booking kinds and statuses.
const (
	BookingKindFlight = "flight"
	BookingKindHotel  = "hotel"

	BookingStatusActive    = "active"
	BookingStatusCancelled = "cancelled"
)

// Booking is a stored reservation of either kind, keyed to the traveler's
// email. Cancelling flips the status; records are kept.
type Booking struct {
	ID        int64          `json:"id"`
	UserEmail string         `json:"userEmail"`
	Kind      string         `json:"type"`
	Ref       string         `json:"ref"`
	Title     string         `json:"title"`
	Details   map[string]any `json:"details,omitempty"`
	Status    string         `json:"status"`
	CreatedAt time.Time      `json:"createdAt"`
}
