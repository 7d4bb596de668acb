package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bsm/redislock"

	"cafebot/config"
	"cafebot/models"
	"cafebot/pkg/logger"
	"cafebot/store"
)

// Winback is the recurring re-engagement sweep: every interval, inside the
// configured local time-of-day window, it scans all tenants' known customers
// and offers lapsed ones their favorite drink with a display-only promo code.
//
// The scan is linear over tenants × customers; fine while customer counts
// stay small. A best-effort lock keeps multiple workers from double-sending;
// if the lock cannot be obtained the sweep is simply skipped until the next
// tick. Per-customer failures are isolated and never abort the sweep.
type Winback struct {
	store     *store.Store
	tenants   *Tenants
	customers *Customers
	gateway   Gateway
	locker    *redislock.Client
	log       *logger.Logger
	cfg       config.WinbackConfig
	now       func() time.Time
}

func NewWinback(st *store.Store, tenants *Tenants, customers *Customers, gateway Gateway, locker *redislock.Client, log *logger.Logger, cfg config.WinbackConfig, now func() time.Time) *Winback {
	if now == nil {
		now = time.Now
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 6 * time.Hour
	}
	if cfg.CycleDays <= 0 {
		cfg.CycleDays = 7
	}
	if cfg.CooldownDays <= 0 {
		cfg.CooldownDays = 14
	}
	return &Winback{store: st, tenants: tenants, customers: customers, gateway: gateway, locker: locker, log: log, cfg: cfg, now: now}
}

// Run ticks until ctx is cancelled. An in-flight sweep interrupted by
// shutdown is abandoned with no checkpoint; the next run restarts from the
// first tenant.
func (w *Winback) Run(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !w.insideWindow(w.now()) {
				continue
			}
			w.Sweep(ctx)
		}
	}
}

func (w *Winback) insideWindow(now time.Time) bool {
	h := now.Hour()
	return w.cfg.WindowStart <= h && h < w.cfg.WindowEnd
}

// Sweep runs one pass over all tenants. Exported so tests and ops tooling can
// trigger it directly.
func (w *Winback) Sweep(ctx context.Context) {
	if w.locker != nil {
		lock, err := w.locker.Obtain(ctx, store.WinbackLockKey, 5*time.Minute, nil)
		if errors.Is(err, redislock.ErrNotObtained) {
			w.log.Infow("winback sweep already running elsewhere, skipping")
			return
		}
		if err != nil {
			w.log.Warnw("winback lock error, proceeding without lock", "error", err)
		} else {
			defer func() {
				if err := lock.Release(ctx); err != nil {
					w.log.Warnw("winback lock release failed", "error", err)
				}
			}()
		}
	}

	for _, tenantID := range w.tenants.IDs() {
		if ctx.Err() != nil {
			return
		}
		w.sweepTenant(ctx, tenantID)
	}
}

func (w *Winback) sweepTenant(ctx context.Context, tenantID string) {
	tenant, err := w.tenants.Effective(ctx, tenantID)
	if err != nil {
		w.log.Errorw("winback tenant load failed", "tenant", tenantID, "error", err)
		return
	}
	ids, err := w.customers.Known(ctx, tenantID)
	if err != nil {
		w.log.Errorw("winback customer list failed", "tenant", tenantID, "error", err)
		return
	}
	for _, userID := range ids {
		if ctx.Err() != nil {
			return
		}
		if err := w.processCustomer(ctx, tenant, userID); err != nil {
			w.log.Errorw("winback customer failed", "tenant", tenantID, "user", userID, "error", err)
		}
	}
}

func (w *Winback) processCustomer(ctx context.Context, tenant *models.TenantContext, userID int64) error {
	profile, err := w.customers.Profile(ctx, tenant.ID, userID)
	if err != nil {
		return err
	}
	now := w.now()
	if !Eligible(profile, now, w.cfg.CycleDays, w.cfg.CooldownDays) {
		return nil
	}

	favorite, err := w.customers.FavoriteDrink(ctx, tenant.ID, userID)
	if err != nil {
		return err
	}
	text := outreachMessage(tenant, favorite, PromoCode(userID, now))

	if err := w.gateway.Send(ctx, userID, text); err != nil {
		if errors.Is(err, ErrRecipientUnreachable) {
			return w.customers.Remove(ctx, tenant.ID, userID)
		}
		return err
	}
	return w.customers.MarkOutreach(ctx, tenant.ID, userID, now)
}

// Eligible decides whether a customer gets an outreach message now. Skips
// opted-out customers, anyone whose last order is younger than the
// re-engagement cycle, and anyone contacted within the cooldown period.
func Eligible(p *models.CustomerProfile, now time.Time, cycleDays, cooldownDays int) bool {
	if p.OptOut || p.LastOrderTS == 0 {
		return false
	}
	if now.Unix()-p.LastOrderTS < int64(cycleDays)*86400 {
		return false
	}
	if p.LastTriggerTS != 0 && now.Unix()-p.LastTriggerTS < int64(cooldownDays)*86400 {
		return false
	}
	return true
}

// PromoCode derives a deterministic-looking, display-only code from the user
// id and the current hour bucket. No discount enforcement is implied.
func PromoCode(userID int64, now time.Time) string {
	seed := userID ^ (now.Unix() / 3600)
	if seed < 0 {
		seed = -seed
	}
	return "WB-" + strings.ToUpper(strconv.FormatInt(seed, 36))
}

func outreachMessage(tenant *models.TenantContext, favorite, promo string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "👋 We miss you at %s!\n\n", tenant.Title)
	if favorite != "" {
		fmt.Fprintf(&b, "Your favorite %s is waiting ☕️\n", favorite)
	} else {
		b.WriteString("Drop by for a coffee ☕️\n")
	}
	fmt.Fprintf(&b, "Show code %s at the counter.\n", promo)
	if tenant.Address != "" {
		fmt.Fprintf(&b, "📍 %s\n", tenant.Address)
	}
	return b.String()
}
