package models

import (
	"fmt"
	"time"
)

// TenantContext is a point-in-time snapshot of one cafe: static configuration
// merged with live overrides from the store. Re-read on every operation that
// needs it, never cached across steps.
type TenantContext struct {
	ID      string
	Title   string
	Phone   string
	Address string

	AdminID int64 // 0 = unset

	WorkStart        int // local hour, inclusive
	WorkEnd          int // local hour, exclusive
	RateLimitSeconds int

	OrdersEnabled     bool
	BookingEnabled    bool
	BookingWhenClosed bool
	StaffNotify       bool

	// Menu maps item name to unit price. Its key set is the only valid set
	// of addressable items.
	Menu map[string]int64
}

// OpenAt reports whether the cafe is inside working hours at t (local time).
func (t *TenantContext) OpenAt(now time.Time) bool {
	h := now.Hour()
	return t.WorkStart <= h && h < t.WorkEnd
}

func (t *TenantContext) RateLimitWindow() time.Duration {
	return time.Duration(t.RateLimitSeconds) * time.Second
}

// HasItem reports whether name is currently on the live menu.
func (t *TenantContext) HasItem(name string) bool {
	_, ok := t.Menu[name]
	return ok
}

func (t *TenantContext) HoursLine() string {
	return fmt.Sprintf("%02d:00–%02d:00", t.WorkStart, t.WorkEnd)
}
