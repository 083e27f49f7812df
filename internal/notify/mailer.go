// Package notify sends transactional mail for completed bookings.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/wneessen/go-mail"

	"github.com/nomada-travel/nomada/backend/internal/log"
	"github.com/nomada-travel/nomada/backend/internal/model/travel"
)

// Mailer delivers booking confirmations over SMTP. A Mailer with missing
// credentials is valid and skips every send, so callers never need to
// branch on configuration.
type Mailer struct {
	host string
	port int
	user string
	pass string
	from string
}

// NewMailer builds a Mailer from SMTP settings. From falls back to the
// username when empty.
func NewMailer(host string, port int, user, pass, from string) *Mailer {
	if from == "" {
		from = user
	}
	return &Mailer{host: host, port: port, user: user, pass: pass, from: from}
}

// Configured reports whether the Mailer has everything it needs to send.
func (m *Mailer) Configured() bool {
	return m != nil && m.host != "" && m.port != 0 && m.user != "" && m.pass != "" && m.from != ""
}

// SendFlightConfirmation mails a booking summary to the traveler and every
// passenger with an email on the order. Without SMTP configuration it logs
// and returns nil.
func (m *Mailer) SendFlightConfirmation(ctx context.Context, to string, order travel.FlightOrder) error {
	if !m.Configured() {
		log.Debug().Str("order_id", order.OrderID).Msg("email not sent: SMTP not configured")
		return nil
	}

	recipients := collectRecipients(to, order.Passengers)
	if len(recipients) == 0 {
		log.Debug().Str("order_id", order.OrderID).Msg("email not sent: no recipients")
		return nil
	}

	ref := order.BookingReference
	if ref == "" {
		ref = order.OrderID
	}

	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := msg.To(recipients...); err != nil {
		return fmt.Errorf("set recipients: %w", err)
	}
	msg.Subject("Your Nomada flight booking " + ref)
	msg.SetBodyString(mail.TypeTextPlain, flightBody(order, ref))

	client, err := mail.NewClient(m.host,
		mail.WithPort(m.port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.user),
		mail.WithPassword(m.pass),
	)
	if err != nil {
		return fmt.Errorf("create mail client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send booking email: %w", err)
	}
	log.Info().Str("order_id", order.OrderID).Strs("to", recipients).Msg("sent booking confirmation")
	return nil
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func collectRecipients(to string, passengers []travel.Passenger) []string {
	seen := make(map[string]bool)
	var recipients []string
	add := func(addr string) {
		addr = strings.TrimSpace(addr)
		if addr == "" || seen[addr] {
			return
		}
		seen[addr] = true
		recipients = append(recipients, addr)
	}
	add(to)
	for _, p := range passengers {
		add(p.Email)
	}
	return recipients
}

func flightBody(order travel.FlightOrder, ref string) string {
	orNA := func(s string) string {
		if s == "" {
			return "N/A"
		}
		return s
	}

	var b strings.Builder
	b.WriteString("Thank you for booking with Nomada.\n\n")
	b.WriteString("Booking Summary\n")
	fmt.Fprintf(&b, " - Booking reference: %s\n", ref)
	fmt.Fprintf(&b, " - Order ID: %s\n", order.OrderID)
	fmt.Fprintf(&b, " - Type: %s\n", orNA(order.Type))
	fmt.Fprintf(&b, " - Total: %s %s\n", order.Total, order.Currency)
	fmt.Fprintf(&b, " - Payment required by: %s\n", orNA(order.PaymentRequiredBy))

	b.WriteString("\nPassenger(s):\n")
	for _, p := range order.Passengers {
		fmt.Fprintf(&b, " - %s %s %s (%s) DOB: %s Email: %s Phone: %s\n",
			titleCase(p.Title), p.GivenName, p.FamilyName, p.Gender, p.BornOn, p.Email, p.PhoneNumber)
	}

	b.WriteString("\nItinerary:\n")
	for i, seg := range order.Itinerary {
		fmt.Fprintf(&b, "Leg %d: %s to %s\n", i+1, seg.Origin, seg.Destination)
		fmt.Fprintf(&b, "  Departure: %s\n", orNA(seg.DepartingAt))
		fmt.Fprintf(&b, "  Arrival:   %s\n", orNA(seg.ArrivingAt))
		fmt.Fprintf(&b, "  Flight:    %s\n", seg.Flight)
		fmt.Fprintf(&b, "  Aircraft:  %s\n", seg.Aircraft)
		fmt.Fprintf(&b, "  Duration:  %s\n\n", seg.Duration)
	}
	return b.String()
}
