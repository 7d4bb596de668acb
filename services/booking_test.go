package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cafebot/models"
)

func TestValidateBookingWhen(t *testing.T) {
	tests := []struct {
		in string
		ok bool
	}{
		{"24.12 18:30", true},
		{"01.01 00:00", true},
		{"31.12 23:59", true},
		{" 24.12 18:30 ", true},
		{"24.12", false},
		{"24/12 18:30", false},
		{"24.12 18.30", false},
		{"32.01 10:00", false},
		{"00.01 10:00", false},
		{"15.13 10:00", false},
		{"15.06 24:00", false},
		{"15.06 10:60", false},
		{"tomorrow", false},
		{"", false},
	}
	for _, tt := range tests {
		err := ValidateBookingWhen(tt.in)
		if tt.ok {
			assert.NoError(t, err, tt.in)
		} else {
			var ve *ValidationError
			assert.ErrorAs(t, err, &ve, tt.in)
		}
	}
}

func TestValidateParty(t *testing.T) {
	for _, in := range []string{"1", "10", " 4 "} {
		_, err := ValidateParty(in)
		assert.NoError(t, err, in)
	}
	for _, in := range []string{"0", "11", "-1", "four", ""} {
		_, err := ValidateParty(in)
		assert.Error(t, err, in)
	}
}

func TestValidateQuantity(t *testing.T) {
	n, err := ValidateQuantity("3")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	for _, in := range []string{"0", "6", "2.5", "lots", ""} {
		_, err := ValidateQuantity(in)
		assert.Error(t, err, in)
	}
}

func TestBookingAllowed(t *testing.T) {
	open := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	closed := time.Date(2026, 3, 14, 23, 0, 0, 0, time.UTC)

	tc := &models.TenantContext{WorkStart: 9, WorkEnd: 21, BookingEnabled: true, BookingWhenClosed: true}
	assert.NoError(t, BookingAllowed(tc, open))
	assert.NoError(t, BookingAllowed(tc, closed))

	tc.BookingWhenClosed = false
	assert.NoError(t, BookingAllowed(tc, open))
	assert.ErrorIs(t, BookingAllowed(tc, closed), ErrTenantClosed)

	tc.BookingEnabled = false
	assert.ErrorIs(t, BookingAllowed(tc, open), ErrBookingDisabled)
}

func TestBookingSubmitNotifies(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.tenants.BindStaffChat(ctx, "central", -100500))

	tc, err := env.tenants.Effective(ctx, "central")
	require.NoError(t, err)

	env.bookings.Submit(ctx, tc, 42, "Ann", models.BookingDraft{When: "24.12 18:30", Party: 4}, "birthday")
	env.dispatcher.DrainOnce(ctx)

	msgs := env.gateway.messages()
	require.Len(t, msgs, 2)
	for _, m := range msgs {
		assert.Contains(t, m.Text, "Table request")
		assert.Contains(t, m.Text, "24.12 18:30")
		assert.Contains(t, m.Text, "Guests: 4")
		assert.Contains(t, m.Text, "birthday")
	}
}
