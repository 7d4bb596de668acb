package services

import (
	"context"
	"sort"
	"strconv"
	"time"

	"cafebot/models"
	"cafebot/store"
)

// Customers maintains per-(tenant, user) profiles, the per-tenant customer
// directory and drink frequencies. Profiles are append/increment only; the
// directory membership is the only thing ever removed, and only when the
// gateway reports the recipient unreachable.
type Customers struct {
	store *store.Store
}

func NewCustomers(st *store.Store) *Customers {
	return &Customers{store: st}
}

// RecordOrder applies one successful checkout to the customer's profile and
// drink frequency.
func (c *Customers) RecordOrder(ctx context.Context, tenantID string, userID int64, items []PricedItem, total int64, at time.Time) error {
	member := strconv.FormatInt(userID, 10)
	if err := c.store.SAdd(ctx, store.CustomersKey(tenantID), member); err != nil {
		return storeErr(err)
	}

	key := store.CustomerProfileKey(tenantID, userID)
	ts := strconv.FormatInt(at.Unix(), 10)
	if err := c.store.HSetNX(ctx, key, models.ProfileFieldFirstOrderTS, ts); err != nil {
		return storeErr(err)
	}
	if err := c.store.HSet(ctx, key,
		models.ProfileFieldLastOrderTS, ts,
		models.ProfileFieldLastTotal, strconv.FormatInt(total, 10),
		models.ProfileFieldLastDrink, mainItem(items),
	); err != nil {
		return storeErr(err)
	}
	if err := c.store.HIncrBy(ctx, key, models.ProfileFieldOrders, 1); err != nil {
		return storeErr(err)
	}
	if err := c.store.HIncrBy(ctx, key, models.ProfileFieldSpend, total); err != nil {
		return storeErr(err)
	}

	freqKey := store.DrinkFrequencyKey(tenantID, userID)
	for _, it := range items {
		if err := c.store.HIncrBy(ctx, freqKey, it.Name, int64(it.Qty)); err != nil {
			return storeErr(err)
		}
	}
	return nil
}

// mainItem picks the dominant line of the order: highest quantity, ties by
// name for determinism.
func mainItem(items []PricedItem) string {
	best := ""
	bestQty := 0
	for _, it := range items {
		if it.Qty > bestQty || (it.Qty == bestQty && (best == "" || it.Name < best)) {
			best, bestQty = it.Name, it.Qty
		}
	}
	return best
}

func (c *Customers) Profile(ctx context.Context, tenantID string, userID int64) (*models.CustomerProfile, error) {
	h, err := c.store.HGetAll(ctx, store.CustomerProfileKey(tenantID, userID))
	if err != nil {
		return nil, storeErr(err)
	}
	p := &models.CustomerProfile{
		FirstOrderTS:  parseInt(h[models.ProfileFieldFirstOrderTS]),
		LastOrderTS:   parseInt(h[models.ProfileFieldLastOrderTS]),
		LastTotal:     parseInt(h[models.ProfileFieldLastTotal]),
		LastDrink:     h[models.ProfileFieldLastDrink],
		Orders:        parseInt(h[models.ProfileFieldOrders]),
		Spend:         parseInt(h[models.ProfileFieldSpend]),
		LastTriggerTS: parseInt(h[models.ProfileFieldLastTriggerTS]),
	}
	if v := h[models.ProfileFieldOptOut]; v == "1" || v == "true" {
		p.OptOut = true
	}
	return p, nil
}

func (c *Customers) SetOptOut(ctx context.Context, tenantID string, userID int64, optOut bool) error {
	v := "0"
	if optOut {
		v = "1"
	}
	return storeErr(c.store.HSet(ctx, store.CustomerProfileKey(tenantID, userID), models.ProfileFieldOptOut, v))
}

// MarkOutreach stamps the last outreach time after a successful win-back send.
func (c *Customers) MarkOutreach(ctx context.Context, tenantID string, userID int64, at time.Time) error {
	return storeErr(c.store.HSet(ctx, store.CustomerProfileKey(tenantID, userID),
		models.ProfileFieldLastTriggerTS, strconv.FormatInt(at.Unix(), 10)))
}

// Known lists the tenant's known customer ids.
func (c *Customers) Known(ctx context.Context, tenantID string) ([]int64, error) {
	members, err := c.store.SMembers(ctx, store.CustomersKey(tenantID))
	if err != nil {
		return nil, storeErr(err)
	}
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		if id, err := strconv.ParseInt(m, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// Remove drops the user from the tenant's customer directory so future sweeps
// skip them. The profile itself is kept.
func (c *Customers) Remove(ctx context.Context, tenantID string, userID int64) error {
	return storeErr(c.store.SRem(ctx, store.CustomersKey(tenantID), strconv.FormatInt(userID, 10)))
}

// FavoriteDrink returns the item with the highest cumulative ordered quantity,
// falling back to the last-ordered item when no frequency data exists.
func (c *Customers) FavoriteDrink(ctx context.Context, tenantID string, userID int64) (string, error) {
	freq, err := c.store.HGetAll(ctx, store.DrinkFrequencyKey(tenantID, userID))
	if err != nil {
		return "", storeErr(err)
	}

	best := ""
	var bestQty int64 = -1
	names := make([]string, 0, len(freq))
	for name := range freq {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		qty := parseInt(freq[name])
		if qty > bestQty {
			best, bestQty = name, qty
		}
	}
	if best != "" {
		return best, nil
	}

	p, err := c.Profile(ctx, tenantID, userID)
	if err != nil {
		return "", err
	}
	return p.LastDrink, nil
}

// LastOrder returns the persisted snapshot of the user's last checkout.
func (c *Customers) LastOrder(ctx context.Context, tenantID string, userID int64) (*models.OrderSnapshot, bool, error) {
	var snap models.OrderSnapshot
	ok, err := c.store.GetJSON(ctx, store.LastOrderKey(tenantID, userID), &snap)
	if err != nil {
		return nil, false, storeErr(err)
	}
	return &snap, ok, nil
}

func parseInt(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}
