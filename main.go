package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/bsm/redislock"

	"cafebot/bot"
	"cafebot/config"
	"cafebot/pkg/logger"
	"cafebot/services"
	"cafebot/store"
)

func main() {
	log := logger.New()
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalw("config load failed", "error", err)
	}
	tenantFile, err := config.LoadTenants(cfg.TenantsPath)
	if err != nil {
		log.Fatalw("tenants load failed", "path", cfg.TenantsPath, "error", err)
	}

	st, err := store.New(cfg.Redis)
	if err != nil {
		log.Fatalw("store connect failed", "addr", cfg.Redis.Addr, "error", err)
	}
	defer st.Close()

	// All clocks in the system run on the cafes' local civil time.
	offset := time.Duration(cfg.TZOffsetHours) * time.Hour
	now := func() time.Time { return time.Now().UTC().Add(offset) }

	notifier, err := bot.NewNotifier(cfg.Telegram)
	if err != nil {
		log.Fatalw("notifier init failed", "error", err)
	}

	tenants := services.NewTenants(st, tenantFile)
	convs := services.NewConversations(st)
	customers := services.NewCustomers(st)
	stats := services.NewStats(st)
	dispatcher := services.NewDispatcher(notifier, stats, customers, log)
	checkout := services.NewCheckout(st, tenants, dispatcher, log, now)
	bookings := services.NewBookings(tenants, dispatcher, log)
	winback := services.NewWinback(st, tenants, customers, notifier,
		redislock.New(st.Client()), log, cfg.Winback, now)

	b, err := bot.New(cfg.Telegram, bot.Deps{
		Tenants:       tenants,
		Conversations: convs,
		Checkout:      checkout,
		Bookings:      bookings,
		Customers:     customers,
		Stats:         stats,
		Log:           log,
		Now:           now,
	})
	if err != nil {
		log.Fatalw("bot init failed", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go dispatcher.Run(ctx)
	go winback.Run(ctx)

	log.Infow("cafebot started", "tenants", len(tenantFile.Cafes))
	b.Start(ctx)

	// Give in-flight effects a moment to drain before the process exits.
	time.Sleep(time.Second)
	log.Infow("cafebot stopped")
}
