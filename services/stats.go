package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"cafebot/store"
)

// Stats keeps tenant-level aggregate counters: orders count, revenue and
// per-item quantity/revenue. Simple monotonic counters, not transactional
// with the checkout itself.
type Stats struct {
	store *store.Store
}

func NewStats(st *store.Store) *Stats {
	return &Stats{store: st}
}

func (s *Stats) RecordOrder(ctx context.Context, tenantID string, items []PricedItem, total int64) error {
	if err := s.store.Incr(ctx, store.StatsOrdersKey(tenantID)); err != nil {
		return storeErr(err)
	}
	if err := s.store.IncrBy(ctx, store.StatsRevenueKey(tenantID), total); err != nil {
		return storeErr(err)
	}
	for _, it := range items {
		if err := s.store.HIncrBy(ctx, store.StatsItemsKey(tenantID), it.Name, int64(it.Qty)); err != nil {
			return storeErr(err)
		}
		if err := s.store.HIncrBy(ctx, store.StatsItemRevenueKey(tenantID), it.Name, it.Amount); err != nil {
			return storeErr(err)
		}
	}
	return nil
}

// TenantStats is the aggregate view shown to admins.
type TenantStats struct {
	Orders  int64
	Revenue int64
	Items   map[string]int64
}

func (s *Stats) Tenant(ctx context.Context, tenantID string) (*TenantStats, error) {
	out := &TenantStats{Items: map[string]int64{}}

	if raw, ok, err := s.store.Get(ctx, store.StatsOrdersKey(tenantID)); err != nil {
		return nil, storeErr(err)
	} else if ok {
		out.Orders, _ = strconv.ParseInt(raw, 10, 64)
	}
	if raw, ok, err := s.store.Get(ctx, store.StatsRevenueKey(tenantID)); err != nil {
		return nil, storeErr(err)
	} else if ok {
		out.Revenue, _ = strconv.ParseInt(raw, 10, 64)
	}

	items, err := s.store.HGetAll(ctx, store.StatsItemsKey(tenantID))
	if err != nil {
		return nil, storeErr(err)
	}
	for name, raw := range items {
		qty, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		out.Items[name] = qty
	}
	return out, nil
}

// Summary renders the admin statistics screen, items sorted by quantity.
func (st *TenantStats) Summary(title string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 %s\n\nOrders: %d\nRevenue: %d\n", title, st.Orders, st.Revenue)

	type itemCount struct {
		name string
		qty  int64
	}
	items := make([]itemCount, 0, len(st.Items))
	for name, qty := range st.Items {
		items = append(items, itemCount{name, qty})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].qty != items[j].qty {
			return items[i].qty > items[j].qty
		}
		return items[i].name < items[j].name
	})
	if len(items) > 0 {
		b.WriteString("\nBy item:\n")
		for _, it := range items {
			fmt.Fprintf(&b, "• %s — %d\n", it.name, it.qty)
		}
	}
	return b.String()
}
