package models

import "time"

// OrderSnapshot is the last successful checkout for one user at one tenant,
// overwritten on every checkout. Used to offer "repeat last order".
type OrderSnapshot struct {
	Cart      Cart      `json:"cart"`
	Total     int64     `json:"total"`
	Timestamp time.Time `json:"timestamp"`
}

// CustomerProfile mirrors the per-(tenant, user) profile hash. Counters only
// ever grow; the record itself is removed only when the messaging gateway
// reports the recipient unreachable.
type CustomerProfile struct {
	FirstOrderTS  int64  // unix seconds
	LastOrderTS   int64
	LastTotal     int64
	LastDrink     string
	Orders        int64
	Spend         int64
	OptOut        bool
	LastTriggerTS int64
}

// Profile hash field names.
const (
	ProfileFieldFirstOrderTS  = "first_order_ts"
	ProfileFieldLastOrderTS   = "last_order_ts"
	ProfileFieldLastTotal     = "last_total"
	ProfileFieldLastDrink     = "last_drink"
	ProfileFieldOrders        = "orders"
	ProfileFieldSpend         = "spend"
	ProfileFieldOptOut        = "opt_out"
	ProfileFieldLastTriggerTS = "last_trigger_ts"
)
