package bot

import (
	"sort"

	"cafebot/models"
)

// Button labels double as the wire format: reply keyboards echo the label
// back as message text.
const (
	btnCall    = "📞 Contact"
	btnHours   = "⏰ Hours"
	btnBook    = "📋 Book a table"
	btnCart    = "🛒 Cart"
	btnRepeat  = "🔁 Repeat last order"
	btnStop    = "🔕 Stop offers"

	btnCancel  = "Cancel"
	btnConfirm = "Confirm"

	btnAddMore  = "➕ Add more"
	btnClear    = "🗑 Clear"
	btnEdit     = "✏️ Edit"
	btnCheckout = "✅ Checkout"

	btnPlus   = "+1"
	btnMinus  = "-1"
	btnRemove = "Remove"
	btnDone   = "Done"

	btnNow  = "Now"
	btnIn10 = "In 10 min"
	btnIn20 = "In 20 min"
	btnIn30 = "In 30 min"

	btnAdminLinks    = "My links"
	btnAdminStats    = "📊 Stats"
	btnAdminAddItem  = "➕ Add item"
	btnAdminDelItem  = "➖ Delete item"
	btnAdminEditInfo = "✏️ Edit info"
	btnAdminPreview  = "Open menu"
)

// readyMinutes maps a ready-time button to its lead time.
var readyMinutes = map[string]int{
	btnNow:  0,
	btnIn10: 10,
	btnIn20: 20,
	btnIn30: 30,
}

func menuNames(menu map[string]int64) []string {
	names := make([]string, 0, len(menu))
	for name := range menu {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// kbGuest is the idle-menu keyboard: one row per menu item plus info rows.
func kbGuest(menu map[string]int64, withRepeat, withCart bool) [][]string {
	var rows [][]string
	if withRepeat {
		rows = append(rows, []string{btnRepeat})
	}
	for _, name := range menuNames(menu) {
		rows = append(rows, []string{name})
	}
	if withCart {
		rows = append(rows, []string{btnCart})
	}
	rows = append(rows, []string{btnCall, btnHours})
	rows = append(rows, []string{btnBook})
	return rows
}

// kbInfo is shown when ordering is unavailable (closed, disabled).
func kbInfo() [][]string {
	return [][]string{
		{btnCall, btnHours},
		{btnBook},
	}
}

func kbQty() [][]string {
	return [][]string{
		{"1", "2", "3"},
		{"4", "5", btnCancel},
	}
}

func kbCart() [][]string {
	return [][]string{
		{btnCheckout},
		{btnAddMore, btnEdit},
		{btnClear, btnCancel},
	}
}

func kbConfirm() [][]string {
	return [][]string{
		{btnConfirm, btnCart},
		{btnCancel},
	}
}

func kbReady() [][]string {
	return [][]string{
		{btnNow, btnIn10},
		{btnIn20, btnIn30},
		{btnCancel},
	}
}

func kbCancel() [][]string {
	return [][]string{{btnCancel}}
}

// kbEditPick lists cart items plus Done.
func kbEditPick(cart models.Cart) [][]string {
	names := make([]string, 0, len(cart))
	for name := range cart {
		names = append(names, name)
	}
	sort.Strings(names)

	var rows [][]string
	for _, name := range names {
		rows = append(rows, []string{name})
	}
	rows = append(rows, []string{btnDone})
	return rows
}

func kbEditItem() [][]string {
	return [][]string{
		{btnPlus, btnMinus},
		{btnRemove, btnDone},
	}
}

func kbAdmin() [][]string {
	return [][]string{
		{btnAdminLinks},
		{btnAdminStats},
		{btnAdminAddItem, btnAdminDelItem},
		{btnAdminEditInfo},
		{btnAdminPreview},
	}
}

// kbMenuPick lists live menu items plus Cancel (admin delete flow).
func kbMenuPick(menu map[string]int64) [][]string {
	var rows [][]string
	for _, name := range menuNames(menu) {
		rows = append(rows, []string{name})
	}
	rows = append(rows, []string{btnCancel})
	return rows
}

// kbFields lists editable tenant profile fields.
func kbFields() [][]string {
	return [][]string{
		{"title", "phone"},
		{"address"},
		{"work_start", "work_end"},
		{"rate_limit_seconds"},
		{btnCancel},
	}
}
