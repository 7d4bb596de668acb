package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"cafebot/models"
)

var profileFields = map[string]bool{
	"title":              true,
	"phone":              true,
	"address":            true,
	"work_start":         true,
	"work_end":           true,
	"rate_limit_seconds": true,
}

var numericFields = map[string]bool{
	"work_start":         true,
	"work_end":           true,
	"rate_limit_seconds": true,
}

func (b *Bot) adminScreen(tenant *models.TenantContext) []reply {
	var s strings.Builder
	fmt.Fprintf(&s, "🔧 %s — admin panel\n\n", tenant.Title)
	fmt.Fprintf(&s, "Customer link:\nhttps://t.me/%s?start=%s\n\n", b.botName, tenant.ID)
	fmt.Fprintf(&s, "Admin link:\nhttps://t.me/%s?start=admin:%s\n\n", b.botName, tenant.ID)
	fmt.Fprintf(&s, "Add to a staff group:\nhttps://t.me/%s?startgroup=%s\nthen send /bind %s there.", b.botName, tenant.ID, tenant.ID)
	return []reply{{text: s.String(), kb: kbAdmin()}}
}

func (b *Bot) adminStats(ctx context.Context, ev event, tenant *models.TenantContext) []reply {
	if !b.tenants.IsAdmin(tenant, ev.userID) {
		return []reply{{text: "This command is for cafe administrators."}}
	}
	st, err := b.stats.Tenant(ctx, tenant.ID)
	if err != nil {
		return storeFail()
	}
	return []reply{{text: st.Summary(tenant.Title), kb: kbAdmin()}}
}

// processAdmin handles admin buttons and admin edit steps. Returns nil when
// the event is not an admin interaction, letting the guest flow take it
// (admins can order like anyone else).
func (b *Bot) processAdmin(ctx context.Context, ev event, tenant *models.TenantContext, state *models.ConversationState) []reply {
	switch state.Step {
	case models.StepAdminAddName, models.StepAdminAddPrice,
		models.StepAdminDelPick, models.StepAdminEditField, models.StepAdminEditValue:
		return b.advanceAdmin(ctx, ev, tenant, state)
	}

	switch ev.text {
	case btnAdminLinks:
		return b.adminScreen(tenant)
	case btnAdminStats:
		return b.adminStats(ctx, ev, tenant)
	case btnAdminPreview:
		now := b.now()
		if !tenant.OpenAt(now) {
			return []reply{{text: closedText(tenant, now), kb: kbAdmin()}}
		}
		return []reply{{text: greetingText(tenant, ev.name, now), kb: kbGuest(tenant.Menu, false, false)}}
	case btnAdminAddItem:
		state.Step = models.StepAdminAddName
		return b.saved(ctx, ev, state, reply{text: "Item name?", kb: kbCancel()})
	case btnAdminDelItem:
		if len(tenant.Menu) == 0 {
			return []reply{{text: "The menu is empty.", kb: kbAdmin()}}
		}
		state.Step = models.StepAdminDelPick
		return b.saved(ctx, ev, state, reply{text: "Which item to delete?", kb: kbMenuPick(tenant.Menu)})
	case btnAdminEditInfo:
		state.Step = models.StepAdminEditField
		return b.saved(ctx, ev, state, reply{text: "Which field?", kb: kbFields()})
	}
	return nil
}

func (b *Bot) advanceAdmin(ctx context.Context, ev event, tenant *models.TenantContext, state *models.ConversationState) []reply {
	if ev.text == btnCancel {
		state.ResetKeepCart()
		return b.saved(ctx, ev, state, reply{text: "Cancelled.", kb: kbAdmin()})
	}

	switch state.Step {
	case models.StepAdminAddName:
		name := strings.TrimSpace(ev.text)
		if name == "" || strings.HasPrefix(name, "/") {
			return []reply{{text: "Send the item name as plain text.", kb: kbCancel()}}
		}
		state.Item = name
		state.Step = models.StepAdminAddPrice
		return b.saved(ctx, ev, state, reply{text: fmt.Sprintf("Price for %s?", name), kb: kbCancel()})

	case models.StepAdminAddPrice:
		price, err := strconv.ParseInt(strings.TrimSpace(ev.text), 10, 64)
		if err != nil || price <= 0 {
			return []reply{{text: "Send a positive whole number.", kb: kbCancel()}}
		}
		name := state.Item
		if err := b.tenants.SetMenuItem(ctx, tenant.ID, name, price); err != nil {
			return storeFail()
		}
		state.ResetKeepCart()
		return b.saved(ctx, ev, state,
			reply{text: fmt.Sprintf("Added %s for %d.", name, price), kb: kbAdmin()})

	case models.StepAdminDelPick:
		if !tenant.HasItem(ev.text) {
			return []reply{{text: "Pick an item from the menu:", kb: kbMenuPick(tenant.Menu)}}
		}
		if err := b.tenants.DeleteMenuItem(ctx, tenant.ID, ev.text); err != nil {
			return storeFail()
		}
		state.ResetKeepCart()
		return b.saved(ctx, ev, state, reply{text: fmt.Sprintf("%s deleted.", ev.text), kb: kbAdmin()})

	case models.StepAdminEditField:
		field := strings.TrimSpace(ev.text)
		if !profileFields[field] {
			return []reply{{text: "Pick a field:", kb: kbFields()}}
		}
		state.Item = field
		state.Step = models.StepAdminEditValue
		return b.saved(ctx, ev, state, reply{text: fmt.Sprintf("New value for %s?", field), kb: kbCancel()})

	case models.StepAdminEditValue:
		field := state.Item
		value := strings.TrimSpace(ev.text)
		if numericFields[field] {
			if _, err := strconv.Atoi(value); err != nil {
				return []reply{{text: "Send a whole number.", kb: kbCancel()}}
			}
		} else if value == "" {
			return []reply{{text: "Send a non-empty value.", kb: kbCancel()}}
		}
		if err := b.tenants.SetProfileField(ctx, tenant.ID, field, value); err != nil {
			return storeFail()
		}
		state.ResetKeepCart()
		return b.saved(ctx, ev, state, reply{text: fmt.Sprintf("%s updated.", field), kb: kbAdmin()})
	}
	return nil
}
