package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"cafebot/config"
	"cafebot/pkg/logger"
	"cafebot/store"
)

func newTestStore(t *testing.T) (*store.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return store.NewWithClient(client), mr
}

// newTenantFile builds a two-cafe directory: "central" is always open with a
// small menu, "annex" is open 9-21 and has a staff-notify admin.
func newTenantFile() *config.TenantFile {
	return &config.TenantFile{
		DefaultCafeID: "central",
		SuperadminID:  900,
		ChatsToCafe:   map[string]string{},
		Cafes: map[string]config.TenantEntry{
			"central": {
				Title:            "Central Cafe",
				Phone:            "+100200300",
				Address:          "Main street 1",
				AdminID:          501,
				WorkStart:        0,
				WorkEnd:          24,
				RateLimitSeconds: 60,
				Menu: map[string]int64{
					"Latte": 200,
					"Mocha": 250,
				},
			},
			"annex": {
				Title:   "Annex",
				AdminID: 502,
				Menu: map[string]int64{
					"Espresso": 150,
				},
			},
		},
	}
}

type sentMessage struct {
	ChatID int64
	Text   string
}

// fakeGateway records sends and can fail per chat id.
type fakeGateway struct {
	mu   sync.Mutex
	sent []sentMessage
	fail map[int64]error
}

func (g *fakeGateway) Send(_ context.Context, chatID int64, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.fail[chatID]; err != nil {
		return err
	}
	g.sent = append(g.sent, sentMessage{ChatID: chatID, Text: text})
	return nil
}

func (g *fakeGateway) messages() []sentMessage {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]sentMessage, len(g.sent))
	copy(out, g.sent)
	return out
}

func fixedNow() time.Time {
	return time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
}

// testEnv wires the full service graph over miniredis.
type testEnv struct {
	store      *store.Store
	mr         *miniredis.Miniredis
	tenants    *Tenants
	convs      *Conversations
	customers  *Customers
	stats      *Stats
	gateway    *fakeGateway
	dispatcher *Dispatcher
	checkout   *Checkout
	bookings   *Bookings
	now        time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st, mr := newTestStore(t)
	log := logger.NewNop()
	env := &testEnv{store: st, mr: mr, now: fixedNow()}
	env.gateway = &fakeGateway{fail: map[int64]error{}}
	env.tenants = NewTenants(st, newTenantFile())
	env.convs = NewConversations(st)
	env.customers = NewCustomers(st)
	env.stats = NewStats(st)
	env.dispatcher = NewDispatcher(env.gateway, env.stats, env.customers, log)
	env.checkout = NewCheckout(st, env.tenants, env.dispatcher, log, func() time.Time { return env.now })
	env.bookings = NewBookings(env.tenants, env.dispatcher, log)
	return env
}
