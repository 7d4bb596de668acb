package services

import (
	"context"
	"fmt"
	"strconv"

	"cafebot/config"
	"cafebot/models"
	"cafebot/store"
)

// Tenants is the tenant directory and resolver: static per-tenant
// configuration merged with live overrides held in the store.
type Tenants struct {
	store *store.Store
	file  *config.TenantFile
}

func NewTenants(st *store.Store, file *config.TenantFile) *Tenants {
	return &Tenants{store: st, file: file}
}

func (t *Tenants) Known(id string) bool {
	_, ok := t.file.Cafes[id]
	return ok
}

func (t *Tenants) DefaultID() string {
	return t.file.DefaultCafeID
}

func (t *Tenants) IDs() []string {
	ids := make([]string, 0, len(t.file.Cafes))
	for id := range t.file.Cafes {
		ids = append(ids, id)
	}
	return ids
}

// IsAdmin reports whether userID administers the tenant. The superadmin from
// the directory file passes every tenant's check.
func (t *Tenants) IsAdmin(tenant *models.TenantContext, userID int64) bool {
	if t.file.SuperadminID != 0 && userID == t.file.SuperadminID {
		return true
	}
	return tenant.AdminID != 0 && userID == tenant.AdminID
}

// Effective builds the point-in-time TenantContext for id: static entry plus
// live overrides from the profile and menu hashes. Overrides win.
func (t *Tenants) Effective(ctx context.Context, id string) (*models.TenantContext, error) {
	entry, ok := t.file.Cafes[id]
	if !ok {
		return nil, ErrUnknownTenant
	}

	tc := &models.TenantContext{
		ID:                id,
		Title:             entry.Title,
		Phone:             entry.Phone,
		Address:           entry.Address,
		AdminID:           entry.AdminID,
		WorkStart:         entry.WorkStart,
		WorkEnd:           entry.WorkEnd,
		RateLimitSeconds:  entry.RateLimitSeconds,
		OrdersEnabled:     boolOr(entry.OrdersEnabled, true),
		BookingEnabled:    boolOr(entry.BookingEnabled, true),
		BookingWhenClosed: boolOr(entry.BookingWhenClosed, true),
		StaffNotify:       boolOr(entry.StaffNotify, true),
		Menu:              make(map[string]int64, len(entry.Menu)),
	}
	if tc.WorkEnd == 0 {
		tc.WorkStart, tc.WorkEnd = 9, 21
	}
	if tc.RateLimitSeconds <= 0 {
		tc.RateLimitSeconds = 60
	}
	for name, price := range entry.Menu {
		if price > 0 {
			tc.Menu[name] = price
		}
	}

	prof, err := t.store.HGetAll(ctx, store.TenantProfileKey(id))
	if err != nil {
		return nil, storeErr(err)
	}
	applyProfileOverrides(tc, prof)

	menu, err := t.store.HGetAll(ctx, store.TenantMenuKey(id))
	if err != nil {
		return nil, storeErr(err)
	}
	if len(menu) > 0 {
		live := make(map[string]int64, len(menu))
		for name, raw := range menu {
			price, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || price <= 0 {
				continue
			}
			live[name] = price
		}
		if len(live) > 0 {
			tc.Menu = live
		}
	}

	return tc, nil
}

func applyProfileOverrides(tc *models.TenantContext, prof map[string]string) {
	if v := prof["title"]; v != "" {
		tc.Title = v
	}
	if v := prof["phone"]; v != "" {
		tc.Phone = v
	}
	if v := prof["address"]; v != "" {
		tc.Address = v
	}
	if v := prof["admin_id"]; v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			tc.AdminID = id
		}
	}
	for field, dst := range map[string]*int{
		"work_start":         &tc.WorkStart,
		"work_end":           &tc.WorkEnd,
		"rate_limit_seconds": &tc.RateLimitSeconds,
	} {
		if v := prof[field]; v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	for field, dst := range map[string]*bool{
		"orders_enabled":  &tc.OrdersEnabled,
		"booking_enabled": &tc.BookingEnabled,
		"staff_notify":    &tc.StaffNotify,
	} {
		if v := prof[field]; v != "" {
			*dst = v == "1" || v == "true"
		}
	}
}

// Resolve maps an inbound event to an active tenant id. A payload naming an
// unknown tenant has already been degraded to DirectEntry by the parser, so
// resolution never fails on bad payloads.
func (t *Tenants) Resolve(ctx context.Context, userID, chatID int64, group bool, entry models.Entry) (string, error) {
	if group {
		id, ok, err := t.store.Get(ctx, store.GroupTenantKey(chatID))
		if err != nil {
			return "", storeErr(err)
		}
		if ok && t.Known(id) {
			return id, nil
		}
		return t.DefaultID(), nil
	}

	switch entry.Kind {
	case models.GuestEntry, models.AdminEntry:
		if err := t.BindUser(ctx, userID, entry.Tenant); err != nil {
			return "", err
		}
		return entry.Tenant, nil
	}

	if mapped, ok := t.file.ChatsToCafe[strconv.FormatInt(chatID, 10)]; ok && t.Known(mapped) {
		return mapped, nil
	}

	id, ok, err := t.store.Get(ctx, store.UserTenantKey(userID))
	if err != nil {
		return "", storeErr(err)
	}
	if ok && t.Known(id) {
		return id, nil
	}

	def := t.DefaultID()
	if err := t.BindUser(ctx, userID, def); err != nil {
		return "", err
	}
	return def, nil
}

func (t *Tenants) BindUser(ctx context.Context, userID int64, tenantID string) error {
	return storeErr(t.store.Set(ctx, store.UserTenantKey(userID), tenantID, 0))
}

func (t *Tenants) BindGroup(ctx context.Context, chatID int64, tenantID string) error {
	return storeErr(t.store.Set(ctx, store.GroupTenantKey(chatID), tenantID, 0))
}

// BindStaffChat records chatID as the tenant's staff notification channel.
func (t *Tenants) BindStaffChat(ctx context.Context, tenantID string, chatID int64) error {
	return storeErr(t.store.Set(ctx, store.StaffChatKey(tenantID), strconv.FormatInt(chatID, 10), 0))
}

// StaffChat returns the bound staff channel, if any.
func (t *Tenants) StaffChat(ctx context.Context, tenantID string) (int64, bool, error) {
	raw, ok, err := t.store.Get(ctx, store.StaffChatKey(tenantID))
	if err != nil {
		return 0, false, storeErr(err)
	}
	if !ok {
		return 0, false, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, nil
	}
	return id, true, nil
}

// SetMenuItem writes a live menu override. Price must be positive.
func (t *Tenants) SetMenuItem(ctx context.Context, tenantID, name string, price int64) error {
	if name == "" {
		return fmt.Errorf("item name is required")
	}
	if price <= 0 {
		return fmt.Errorf("price must be positive")
	}
	return storeErr(t.store.HSet(ctx, store.TenantMenuKey(tenantID), name, strconv.FormatInt(price, 10)))
}

func (t *Tenants) DeleteMenuItem(ctx context.Context, tenantID, name string) error {
	return storeErr(t.store.HDel(ctx, store.TenantMenuKey(tenantID), name))
}

// SetProfileField writes a single live profile override (title, phone,
// address, work_start, work_end, rate_limit_seconds, ...).
func (t *Tenants) SetProfileField(ctx context.Context, tenantID, field, value string) error {
	return storeErr(t.store.HSet(ctx, store.TenantProfileKey(tenantID), field, value))
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
