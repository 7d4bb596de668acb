package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cafebot/config"
	"cafebot/models"
	"cafebot/pkg/logger"
)

func newTestWinback(env *testEnv) *Winback {
	cfg := config.WinbackConfig{
		Interval:     6 * time.Hour,
		WindowStart:  10,
		WindowEnd:    20,
		CycleDays:    7,
		CooldownDays: 14,
	}
	return NewWinback(env.store, env.tenants, env.customers, env.gateway, nil,
		logger.NewNop(), cfg, func() time.Time { return env.now })
}

func daysAgo(now time.Time, d int) time.Time {
	return now.AddDate(0, 0, -d)
}

func TestEligible(t *testing.T) {
	now := fixedNow()
	base := models.CustomerProfile{LastOrderTS: daysAgo(now, 10).Unix()}

	assert.True(t, Eligible(&base, now, 7, 14))

	fresh := base
	fresh.LastOrderTS = daysAgo(now, 3).Unix()
	assert.False(t, Eligible(&fresh, now, 7, 14), "recent order")

	opted := base
	opted.OptOut = true
	assert.False(t, Eligible(&opted, now, 7, 14), "opted out")

	never := base
	never.LastOrderTS = 0
	assert.False(t, Eligible(&never, now, 7, 14), "no orders yet")

	contacted := base
	contacted.LastTriggerTS = daysAgo(now, 5).Unix()
	assert.False(t, Eligible(&contacted, now, 7, 14), "inside cooldown")

	contacted.LastTriggerTS = daysAgo(now, 20).Unix()
	assert.True(t, Eligible(&contacted, now, 7, 14), "cooldown expired")
}

func TestPromoCode(t *testing.T) {
	now := fixedNow()
	code := PromoCode(42, now)
	assert.True(t, strings.HasPrefix(code, "WB-"))
	assert.Equal(t, code, PromoCode(42, now), "stable inside the hour bucket")
	assert.NotEqual(t, code, PromoCode(43, now))
}

func TestSweepSendsToLapsedCustomer(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	w := newTestWinback(env)

	// One lapsed customer who mostly drinks Mocha.
	at := daysAgo(env.now, 10)
	items := []PricedItem{{Name: "Mocha", Qty: 3, Amount: 750}, {Name: "Latte", Qty: 1, Amount: 200}}
	require.NoError(t, env.customers.RecordOrder(ctx, "central", 42, items, 950, at))

	w.Sweep(ctx)

	msgs := env.gateway.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, int64(42), msgs[0].ChatID)
	assert.Contains(t, msgs[0].Text, "Mocha")
	assert.Contains(t, msgs[0].Text, "WB-")

	p, err := env.customers.Profile(ctx, "central", 42)
	require.NoError(t, err)
	assert.Equal(t, env.now.Unix(), p.LastTriggerTS)

	// A second sweep inside the cooldown sends nothing more.
	w.Sweep(ctx)
	assert.Len(t, env.gateway.messages(), 1)
}

func TestSweepSkipsOptedOut(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	w := newTestWinback(env)

	items := []PricedItem{{Name: "Latte", Qty: 1, Amount: 200}}
	require.NoError(t, env.customers.RecordOrder(ctx, "central", 42, items, 200, daysAgo(env.now, 10)))
	require.NoError(t, env.customers.SetOptOut(ctx, "central", 42, true))

	w.Sweep(ctx)
	assert.Empty(t, env.gateway.messages())
}

func TestSweepRemovesUnreachable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	w := newTestWinback(env)

	items := []PricedItem{{Name: "Latte", Qty: 1, Amount: 200}}
	require.NoError(t, env.customers.RecordOrder(ctx, "central", 42, items, 200, daysAgo(env.now, 10)))
	env.gateway.fail[42] = ErrRecipientUnreachable

	w.Sweep(ctx)

	ids, err := env.customers.Known(ctx, "central")
	require.NoError(t, err)
	assert.Empty(t, ids, "unreachable customer dropped from the directory")
}

func TestFavoriteDrink(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.customers.FavoriteDrink(ctx, "central", 42)
	require.NoError(t, err)

	require.NoError(t, env.customers.RecordOrder(ctx, "central", 42,
		[]PricedItem{{Name: "Latte", Qty: 1, Amount: 200}}, 200, daysAgo(env.now, 3)))
	require.NoError(t, env.customers.RecordOrder(ctx, "central", 42,
		[]PricedItem{{Name: "Mocha", Qty: 2, Amount: 500}}, 500, daysAgo(env.now, 2)))

	fav, err := env.customers.FavoriteDrink(ctx, "central", 42)
	require.NoError(t, err)
	assert.Equal(t, "Mocha", fav)
}

func TestInsideWindow(t *testing.T) {
	env := newTestEnv(t)
	w := newTestWinback(env)

	at := func(h int) time.Time { return time.Date(2026, 3, 14, h, 0, 0, 0, time.UTC) }
	assert.False(t, w.insideWindow(at(9)))
	assert.True(t, w.insideWindow(at(10)))
	assert.True(t, w.insideWindow(at(19)))
	assert.False(t, w.insideWindow(at(20)))
}
