package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"cafebot/models"
	"cafebot/pkg/logger"
	"cafebot/store"
)

// Checkout validates and finalizes orders: rate limiting, pricing against the
// live menu, snapshot persistence and post-commit effect fan-out.
type Checkout struct {
	store      *store.Store
	tenants    *Tenants
	dispatcher *Dispatcher
	log        *logger.Logger
	now        func() time.Time
}

func NewCheckout(st *store.Store, tenants *Tenants, dispatcher *Dispatcher, log *logger.Logger, now func() time.Time) *Checkout {
	if now == nil {
		now = time.Now
	}
	return &Checkout{store: st, tenants: tenants, dispatcher: dispatcher, log: log, now: now}
}

// OrderResult is the outcome of a successful finalize.
type OrderResult struct {
	Total        int64
	Items        []PricedItem
	Skipped      []string // cart items that fell off the live menu and priced at nothing
	ReadyMinutes int      // 0 = as soon as possible
}

// Finalize converts a cart into a confirmed, notified order.
//
// The orders-enabled and open-hours gates are re-checked against the live
// tenant, not trusted from the conversation that led here.
//
// The rate-limit marker is written with an atomic set-if-not-exists using the
// tenant's window as expiry, so two concurrent attempts cannot both pass.
// The window is re-read from the tenant at this moment, never cached from an
// earlier conversation step. Everything after the marker is best-effort: the
// snapshot write fails the call, but stats, profile and notifications run in
// the dispatcher and never block the user-facing success.
func (c *Checkout) Finalize(ctx context.Context, userID int64, tenantID string, cart models.Cart, readyMinutes int, customerName string) (*OrderResult, error) {
	if cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	tenant, err := c.tenants.Effective(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	now := c.now()
	if !tenant.OrdersEnabled {
		return nil, ErrOrdersDisabled
	}
	if !tenant.OpenAt(now) {
		return nil, ErrTenantClosed
	}

	rlKey := store.RateLimitKey(userID)
	set, err := c.store.SetNX(ctx, rlKey, strconv.FormatInt(now.Unix(), 10), tenant.RateLimitWindow())
	if err != nil {
		return nil, storeErr(err)
	}
	if !set {
		retry, err := c.store.TTL(ctx, rlKey)
		if err != nil || retry <= 0 {
			retry = tenant.RateLimitWindow()
		}
		return nil, &RateLimitedError{RetryAfter: retry}
	}

	items, total, skipped := priceItems(cart, tenant.Menu)

	snap := models.OrderSnapshot{Cart: cart.Clone(), Total: total, Timestamp: now}
	if err := c.store.SetJSON(ctx, store.LastOrderKey(tenantID, userID), snap, 0); err != nil {
		// Roll the marker back so a failed checkout does not cost the user
		// their rate-limit window.
		if derr := c.store.Del(ctx, rlKey); derr != nil {
			c.log.Errorw("rate limit marker rollback failed", "user", userID, "error", derr)
		}
		return nil, storeErr(err)
	}

	result := &OrderResult{Total: total, Items: items, Skipped: skipped, ReadyMinutes: readyMinutes}

	c.dispatcher.Enqueue(Effect{Kind: EffectUpdateStats, Tenant: tenantID, Items: items, Total: total})
	c.dispatcher.Enqueue(Effect{Kind: EffectUpdateProfile, Tenant: tenantID, UserID: userID, Items: items, Total: total, At: now})

	text := orderNotification(tenant, customerName, userID, result)
	if tenant.AdminID != 0 {
		c.dispatcher.Enqueue(Effect{Kind: EffectNotify, Tenant: tenantID, ChatID: tenant.AdminID, Text: text})
	}
	if tenant.StaffNotify {
		if staffChat, ok, err := c.tenants.StaffChat(ctx, tenantID); err == nil && ok {
			c.dispatcher.Enqueue(Effect{Kind: EffectNotify, Tenant: tenantID, ChatID: staffChat, Text: text})
		} else if err != nil {
			c.log.Errorw("staff chat lookup failed", "tenant", tenantID, "error", err)
		}
	}

	return result, nil
}

func priceItems(cart models.Cart, menu map[string]int64) (items []PricedItem, total int64, skipped []string) {
	names := make([]string, 0, len(cart))
	for name := range cart {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		price, ok := menu[name]
		if !ok {
			skipped = append(skipped, name)
			continue
		}
		amount := price * int64(cart[name])
		items = append(items, PricedItem{Name: name, Qty: cart[name], Amount: amount})
		total += amount
	}
	return items, total, skipped
}

func orderNotification(tenant *models.TenantContext, customerName string, userID int64, r *OrderResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🧾 New order — %s\n", tenant.Title)
	fmt.Fprintf(&b, "From: %s (id %d)\n\n", customerName, userID)
	for _, it := range r.Items {
		fmt.Fprintf(&b, "• %s × %d — %d\n", it.Name, it.Qty, it.Amount)
	}
	fmt.Fprintf(&b, "\nTotal: %d\n", r.Total)
	if r.ReadyMinutes > 0 {
		fmt.Fprintf(&b, "Ready in: %d min\n", r.ReadyMinutes)
	} else {
		b.WriteString("Ready: as soon as possible\n")
	}
	return b.String()
}
