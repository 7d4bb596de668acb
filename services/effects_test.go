package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherIsolatesFailures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.gateway.fail[999] = errors.New("network down")

	env.dispatcher.Enqueue(Effect{Kind: EffectNotify, Tenant: "central", ChatID: 999, Text: "never arrives"})
	env.dispatcher.Enqueue(Effect{Kind: EffectUpdateStats, Tenant: "central",
		Items: []PricedItem{{Name: "Latte", Qty: 1, Amount: 200}}, Total: 200})
	env.dispatcher.Enqueue(Effect{Kind: EffectNotify, Tenant: "central", ChatID: 501, Text: "arrives"})

	env.dispatcher.DrainOnce(ctx)

	// The failed notify did not stop the effects behind it.
	st, err := env.stats.Tenant(ctx, "central")
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.Orders)

	msgs := env.gateway.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, int64(501), msgs[0].ChatID)
}

func TestDispatcherUpdatesProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.dispatcher.Enqueue(Effect{Kind: EffectUpdateProfile, Tenant: "central", UserID: 42,
		Items: []PricedItem{{Name: "Mocha", Qty: 2, Amount: 500}}, Total: 500, At: env.now})
	env.dispatcher.DrainOnce(ctx)

	p, err := env.customers.Profile(ctx, "central", 42)
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.Orders)
	assert.Equal(t, "Mocha", p.LastDrink)
	assert.Equal(t, env.now.Unix(), p.LastOrderTS)
}
