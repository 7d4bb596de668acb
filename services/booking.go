package services

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"cafebot/models"
	"cafebot/pkg/logger"
)

// Table reservations are not stored; the booking flow produces exactly one
// notification to the tenant's admin and staff channel.

var bookingWhenRe = regexp.MustCompile(`^(\d{2})\.(\d{2}) (\d{2}):(\d{2})$`)

// ValidateBookingWhen checks the strict "DD.MM HH:MM" pattern.
func ValidateBookingWhen(s string) error {
	m := bookingWhenRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return &ValidationError{Hint: "use the format DD.MM HH:MM, for example 24.12 18:30"}
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	hour, _ := strconv.Atoi(m[3])
	minute, _ := strconv.Atoi(m[4])
	if day < 1 || day > 31 || month < 1 || month > 12 || hour > 23 || minute > 59 {
		return &ValidationError{Hint: "that date or time does not exist, use DD.MM HH:MM"}
	}
	return nil
}

// ValidateParty parses the party size, an integer in [1,10].
func ValidateParty(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 || n > 10 {
		return 0, &ValidationError{Hint: "send a number of guests from 1 to 10"}
	}
	return n, nil
}

// ValidateQuantity parses an order quantity, an integer in [1,5].
func ValidateQuantity(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 || n > 5 {
		return 0, &ValidationError{Hint: "send a quantity from 1 to 5"}
	}
	return n, nil
}

// BookingAllowed gates the booking flow: the feature flag must be on, and the
// tenant must be open unless it explicitly allows booking while closed.
func BookingAllowed(t *models.TenantContext, now time.Time) error {
	if !t.BookingEnabled {
		return ErrBookingDisabled
	}
	if !t.OpenAt(now) && !t.BookingWhenClosed {
		return ErrTenantClosed
	}
	return nil
}

// Bookings fans a completed reservation request out to the tenant's admin and
// staff channel. Delivery uses the same mechanism as order notifications.
type Bookings struct {
	tenants    *Tenants
	dispatcher *Dispatcher
	log        *logger.Logger
}

func NewBookings(tenants *Tenants, dispatcher *Dispatcher, log *logger.Logger) *Bookings {
	return &Bookings{tenants: tenants, dispatcher: dispatcher, log: log}
}

func (b *Bookings) Submit(ctx context.Context, tenant *models.TenantContext, userID int64, customerName string, draft models.BookingDraft, comment string) {
	text := bookingNotification(tenant, customerName, userID, draft, comment)
	if tenant.AdminID != 0 {
		b.dispatcher.Enqueue(Effect{Kind: EffectNotify, Tenant: tenant.ID, ChatID: tenant.AdminID, Text: text})
	}
	if tenant.StaffNotify {
		if staffChat, ok, err := b.tenants.StaffChat(ctx, tenant.ID); err == nil && ok {
			b.dispatcher.Enqueue(Effect{Kind: EffectNotify, Tenant: tenant.ID, ChatID: staffChat, Text: text})
		} else if err != nil {
			b.log.Errorw("staff chat lookup failed", "tenant", tenant.ID, "error", err)
		}
	}
}

func bookingNotification(tenant *models.TenantContext, customerName string, userID int64, draft models.BookingDraft, comment string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📋 Table request — %s\n", tenant.Title)
	fmt.Fprintf(&sb, "From: %s (id %d)\n", customerName, userID)
	fmt.Fprintf(&sb, "When: %s\n", draft.When)
	fmt.Fprintf(&sb, "Guests: %d\n", draft.Party)
	if comment != "" {
		fmt.Fprintf(&sb, "Comment: %s\n", comment)
	}
	return sb.String()
}
