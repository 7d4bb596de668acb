package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cafebot/models"
)

func TestEffectiveDefaults(t *testing.T) {
	env := newTestEnv(t)

	// "annex" omits hours, rate limit and flags; defaults fill them in.
	tc, err := env.tenants.Effective(context.Background(), "annex")
	require.NoError(t, err)
	assert.Equal(t, 9, tc.WorkStart)
	assert.Equal(t, 21, tc.WorkEnd)
	assert.Equal(t, 60, tc.RateLimitSeconds)
	assert.True(t, tc.OrdersEnabled)
	assert.True(t, tc.BookingEnabled)
	assert.True(t, tc.BookingWhenClosed)
	assert.True(t, tc.StaffNotify)
}

func TestEffectiveUnknown(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.tenants.Effective(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrUnknownTenant)
}

func TestEffectiveProfileOverrides(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.tenants.SetProfileField(ctx, "central", "title", "Central Reborn"))
	require.NoError(t, env.tenants.SetProfileField(ctx, "central", "work_start", "8"))
	require.NoError(t, env.tenants.SetProfileField(ctx, "central", "work_end", "22"))
	require.NoError(t, env.tenants.SetProfileField(ctx, "central", "orders_enabled", "0"))

	tc, err := env.tenants.Effective(ctx, "central")
	require.NoError(t, err)
	assert.Equal(t, "Central Reborn", tc.Title)
	assert.Equal(t, 8, tc.WorkStart)
	assert.Equal(t, 22, tc.WorkEnd)
	assert.False(t, tc.OrdersEnabled)
	// Untouched fields keep their static values.
	assert.Equal(t, "+100200300", tc.Phone)
}

func TestEffectiveMenuOverride(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// A live menu replaces the static one entirely.
	require.NoError(t, env.tenants.SetMenuItem(ctx, "central", "Flat White", 220))

	tc, err := env.tenants.Effective(ctx, "central")
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"Flat White": 220}, tc.Menu)

	require.NoError(t, env.tenants.DeleteMenuItem(ctx, "central", "Flat White"))
	tc, err = env.tenants.Effective(ctx, "central")
	require.NoError(t, err)
	assert.Equal(t, int64(200), tc.Menu["Latte"], "static menu returns once overrides are gone")
}

func TestSetMenuItemValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	assert.Error(t, env.tenants.SetMenuItem(ctx, "central", "", 100))
	assert.Error(t, env.tenants.SetMenuItem(ctx, "central", "Latte", 0))
	assert.Error(t, env.tenants.SetMenuItem(ctx, "central", "Latte", -5))
}

func TestResolveDirectBindsDefault(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id, err := env.tenants.Resolve(ctx, 42, 42, false, models.Entry{Kind: models.DirectEntry})
	require.NoError(t, err)
	assert.Equal(t, "central", id)

	// The binding is sticky: later events resolve to the same tenant.
	id, err = env.tenants.Resolve(ctx, 42, 42, false, models.Entry{Kind: models.DirectEntry})
	require.NoError(t, err)
	assert.Equal(t, "central", id)
}

func TestResolveGuestEntryRebinds(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.tenants.Resolve(ctx, 42, 42, false, models.Entry{Kind: models.DirectEntry})
	require.NoError(t, err)

	id, err := env.tenants.Resolve(ctx, 42, 42, false, models.Entry{Kind: models.GuestEntry, Tenant: "annex"})
	require.NoError(t, err)
	assert.Equal(t, "annex", id)

	// Sticky after the deep link too.
	id, err = env.tenants.Resolve(ctx, 42, 42, false, models.Entry{Kind: models.DirectEntry})
	require.NoError(t, err)
	assert.Equal(t, "annex", id)
}

func TestResolveGroup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Unbound group falls back to the default tenant.
	id, err := env.tenants.Resolve(ctx, 42, -100, true, models.Entry{Kind: models.DirectEntry})
	require.NoError(t, err)
	assert.Equal(t, "central", id)

	require.NoError(t, env.tenants.BindGroup(ctx, -100, "annex"))
	id, err = env.tenants.Resolve(ctx, 42, -100, true, models.Entry{Kind: models.DirectEntry})
	require.NoError(t, err)
	assert.Equal(t, "annex", id)
}

func TestIsAdmin(t *testing.T) {
	env := newTestEnv(t)
	tc, err := env.tenants.Effective(context.Background(), "central")
	require.NoError(t, err)

	assert.True(t, env.tenants.IsAdmin(tc, 501), "tenant admin")
	assert.True(t, env.tenants.IsAdmin(tc, 900), "superadmin passes every tenant")
	assert.False(t, env.tenants.IsAdmin(tc, 502), "another tenant's admin")
	assert.False(t, env.tenants.IsAdmin(tc, 42))
}

func TestStaffChatRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, ok, err := env.tenants.StaffChat(ctx, "central")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, env.tenants.BindStaffChat(ctx, "central", -100500))
	id, ok, err := env.tenants.StaffChat(ctx, "central")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(-100500), id)
}

func TestOpenAt(t *testing.T) {
	tc := &models.TenantContext{WorkStart: 9, WorkEnd: 21}
	at := func(h int) time.Time { return time.Date(2026, 3, 14, h, 30, 0, 0, time.UTC) }

	assert.False(t, tc.OpenAt(at(8)))
	assert.True(t, tc.OpenAt(at(9)))
	assert.True(t, tc.OpenAt(at(20)))
	assert.False(t, tc.OpenAt(at(21)))
}
