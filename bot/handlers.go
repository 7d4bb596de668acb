package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cafebot/models"
	"cafebot/services"
)

// event is one inbound gateway message, already reduced to what the core
// needs: identities, chat kind, text and the optional start payload.
type event struct {
	userID  int64
	chatID  int64
	group   bool
	name    string
	text    string
	payload string
	isStart bool
}

// reply is one outbound render: a text body plus a declarative keyboard.
type reply struct {
	text string
	kb   [][]string
}

const genericRetryText = "Something went wrong on our side. Please try again in a minute."

func storeFail() []reply {
	return []reply{{text: genericRetryText}}
}

// process routes one event through tenant resolution into commands, admin
// flows or the conversation machine, and returns the renders to send.
func (b *Bot) process(ctx context.Context, ev event) []reply {
	if ev.group {
		return b.processGroup(ctx, ev)
	}
	if ev.isStart {
		return b.handleStart(ctx, ev)
	}

	switch cmd(ev.text) {
	case "ping":
		return []reply{{text: "pong"}}
	case "myid":
		return []reply{{text: fmt.Sprintf("Your ID: %d", ev.userID)}}
	}

	tenant, state, fail := b.load(ctx, ev)
	if fail != nil {
		return fail
	}

	switch cmd(ev.text) {
	case "stats":
		return b.adminStats(ctx, ev, tenant)
	case "cancel":
		// Same semantics as the per-step Cancel buttons: only a cancel at the
		// cart root abandons the cart itself.
		switch state.Step {
		case models.StepViewingCart, models.StepConfirmation:
			state.Reset()
		default:
			state.ResetKeepCart()
		}
		return b.saved(ctx, ev, state, reply{text: "Cancelled.", kb: b.guestKB(tenant, state)})
	}

	if b.tenants.IsAdmin(tenant, ev.userID) {
		if rs := b.processAdmin(ctx, ev, tenant, state); rs != nil {
			return rs
		}
	}
	return b.advance(ctx, ev, tenant, state)
}

func cmd(text string) string {
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	c := strings.Fields(text)[0][1:]
	if i := strings.IndexByte(c, '@'); i >= 0 {
		c = c[:i]
	}
	return c
}

// load re-derives the active tenant context and conversation state. Called at
// the top of every handler; nothing is cached across events.
func (b *Bot) load(ctx context.Context, ev event) (*models.TenantContext, *models.ConversationState, []reply) {
	tenantID, err := b.tenants.Resolve(ctx, ev.userID, ev.chatID, false, models.Entry{Kind: models.DirectEntry})
	if err != nil {
		b.log.Errorw("tenant resolve failed", "user", ev.userID, "error", err)
		return nil, nil, storeFail()
	}
	tenant, err := b.tenants.Effective(ctx, tenantID)
	if err != nil {
		b.log.Errorw("tenant load failed", "tenant", tenantID, "error", err)
		return nil, nil, storeFail()
	}
	state, err := b.convs.Get(ctx, ev.userID, ev.chatID, tenantID)
	if err != nil {
		b.log.Errorw("conversation load failed", "user", ev.userID, "error", err)
		return nil, nil, storeFail()
	}
	return tenant, state, nil
}

func (b *Bot) saved(ctx context.Context, ev event, state *models.ConversationState, rs ...reply) []reply {
	if err := b.convs.Save(ctx, ev.userID, ev.chatID, state); err != nil {
		b.log.Errorw("conversation save failed", "user", ev.userID, "error", err)
		return storeFail()
	}
	return rs
}

func (b *Bot) handleStart(ctx context.Context, ev event) []reply {
	entry := models.ParseEntryPayload(ev.payload, false, b.tenants.Known)

	if entry.Kind == models.AdminEntry {
		tenant, err := b.tenants.Effective(ctx, entry.Tenant)
		if err != nil {
			return storeFail()
		}
		if !b.tenants.IsAdmin(tenant, ev.userID) {
			return []reply{{text: "This admin link is not for your account."}}
		}
		if err := b.tenants.BindUser(ctx, ev.userID, entry.Tenant); err != nil {
			return storeFail()
		}
		if err := b.convs.Clear(ctx, ev.userID, ev.chatID); err != nil {
			return storeFail()
		}
		return b.adminScreen(tenant)
	}

	tenantID, err := b.tenants.Resolve(ctx, ev.userID, ev.chatID, false, entry)
	if err != nil {
		return storeFail()
	}
	tenant, err := b.tenants.Effective(ctx, tenantID)
	if err != nil {
		return storeFail()
	}

	state := models.NewConversation(tenantID)
	if fail := b.saved(ctx, ev, state); fail != nil {
		return fail
	}

	if b.tenants.IsAdmin(tenant, ev.userID) {
		return b.adminScreen(tenant)
	}

	now := b.now()
	if !tenant.OpenAt(now) {
		return []reply{{text: closedText(tenant, now), kb: kbInfo()}}
	}
	return []reply{{
		text: greetingText(tenant, ev.name, now),
		kb:   kbGuest(tenant.Menu, b.offerRepeat(ctx, ev, tenant), false),
	}}
}

// offerRepeat reports whether to show the repeat-last-order button: a stored
// snapshot exists and its date differs from today's.
func (b *Bot) offerRepeat(ctx context.Context, ev event, tenant *models.TenantContext) bool {
	snap, ok, err := b.customers.LastOrder(ctx, tenant.ID, ev.userID)
	if err != nil || !ok {
		return false
	}
	y1, m1, d1 := snap.Timestamp.Date()
	y2, m2, d2 := b.now().Date()
	return y1 != y2 || m1 != m2 || d1 != d2
}

func (b *Bot) processGroup(ctx context.Context, ev event) []reply {
	if ev.isStart {
		// A startgroup deep link delivers its payload as a /start argument.
		entry := models.ParseEntryPayload(ev.payload, true, b.tenants.Known)
		if entry.Kind == models.StaffGroupEntry {
			return b.bindGroupTo(ctx, ev, entry.Tenant)
		}
		return nil
	}
	switch cmd(ev.text) {
	case "ping":
		return []reply{{text: "pong"}}
	case "bind":
		return b.bindGroup(ctx, ev)
	}
	return nil
}

func (b *Bot) bindGroup(ctx context.Context, ev event) []reply {
	parts := strings.Fields(ev.text)
	if len(parts) < 2 || !b.tenants.Known(parts[1]) {
		return []reply{{text: "Usage: /bind <cafe_id>"}}
	}
	return b.bindGroupTo(ctx, ev, parts[1])
}

// bindGroupTo links a staff group to a tenant and makes it the tenant's
// notification channel. Only that tenant's admin may do it.
func (b *Bot) bindGroupTo(ctx context.Context, ev event, tenantID string) []reply {
	tenant, err := b.tenants.Effective(ctx, tenantID)
	if err != nil {
		return storeFail()
	}
	if !b.tenants.IsAdmin(tenant, ev.userID) {
		return []reply{{text: "Only this cafe's administrator can bind the group."}}
	}
	if err := b.tenants.BindGroup(ctx, ev.chatID, tenantID); err != nil {
		return storeFail()
	}
	if err := b.tenants.BindStaffChat(ctx, tenantID, ev.chatID); err != nil {
		return storeFail()
	}
	return []reply{{text: fmt.Sprintf("Group bound to %s. Order and booking notifications will arrive here.", tenant.Title)}}
}

// advance runs one transition of the conversation machine.
func (b *Bot) advance(ctx context.Context, ev event, tenant *models.TenantContext, state *models.ConversationState) []reply {
	switch state.Step {
	case models.StepIdle:
		return b.onIdle(ctx, ev, tenant, state)
	case models.StepQuantity:
		return b.onQuantity(ctx, ev, tenant, state)
	case models.StepViewingCart:
		return b.onViewingCart(ctx, ev, tenant, state)
	case models.StepEditingPick:
		return b.onEditingPick(ctx, ev, tenant, state)
	case models.StepEditingItem:
		return b.onEditingItem(ctx, ev, tenant, state)
	case models.StepConfirmation:
		return b.onConfirmation(ctx, ev, tenant, state)
	case models.StepReadyTime:
		return b.onReadyTime(ctx, ev, tenant, state)
	case models.StepBookingWhen, models.StepBookingParty, models.StepBookingComment:
		return b.onBooking(ctx, ev, tenant, state)
	}
	// Unknown step (stale record from an older version): start over.
	state.Reset()
	return b.saved(ctx, ev, state, reply{text: "Pick a drink:", kb: b.guestKB(tenant, state)})
}

func (b *Bot) guestKB(tenant *models.TenantContext, state *models.ConversationState) [][]string {
	return kbGuest(tenant.Menu, false, !state.Cart.IsEmpty())
}

func (b *Bot) cartView(tenant *models.TenantContext, state *models.ConversationState) reply {
	return reply{text: services.CartSummary(state.Cart, tenant.Menu), kb: kbCart()}
}

func (b *Bot) onIdle(ctx context.Context, ev event, tenant *models.TenantContext, state *models.ConversationState) []reply {
	switch ev.text {
	case btnCart:
		state.Step = models.StepViewingCart
		return b.saved(ctx, ev, state, b.cartView(tenant, state))
	case btnCall:
		return []reply{{text: contactText(tenant)}}
	case btnHours:
		return []reply{{text: hoursText(tenant, b.now())}}
	case btnStop:
		if err := b.customers.SetOptOut(ctx, tenant.ID, ev.userID, true); err != nil {
			return storeFail()
		}
		return []reply{{text: "You won't receive offers anymore."}}
	case btnBook:
		return b.startBooking(ctx, ev, tenant, state)
	case btnRepeat:
		return b.repeatLastOrder(ctx, ev, tenant, state)
	}

	if tenant.HasItem(ev.text) {
		if blocked := b.orderingBlocked(tenant, state); blocked != nil {
			return blocked
		}
		state.Step = models.StepQuantity
		state.Item = ev.text
		return b.saved(ctx, ev, state,
			reply{text: choiceText() + "\nHow many? (1–5)", kb: kbQty()})
	}

	return []reply{{text: "Pick a drink from the menu:", kb: b.guestKB(tenant, state)}}
}

// orderingBlocked checks the open-hours and orders-enabled gates. The cart is
// preserved when blocked; the returned keyboard still carries it.
func (b *Bot) orderingBlocked(tenant *models.TenantContext, state *models.ConversationState) []reply {
	if !tenant.OrdersEnabled {
		return []reply{{text: fmt.Sprintf("%s is not taking orders right now.", tenant.Title), kb: b.guestKB(tenant, state)}}
	}
	now := b.now()
	if !tenant.OpenAt(now) {
		kb := kbInfo()
		if !state.Cart.IsEmpty() {
			kb = kbCart()
		}
		return []reply{{text: closedText(tenant, now), kb: kb}}
	}
	return nil
}

func (b *Bot) onQuantity(ctx context.Context, ev event, tenant *models.TenantContext, state *models.ConversationState) []reply {
	if ev.text == btnCancel {
		state.Item = ""
		state.Step = models.StepViewingCart
		return b.saved(ctx, ev, state, b.cartView(tenant, state))
	}

	qty, err := services.ValidateQuantity(ev.text)
	if err != nil {
		return []reply{{text: validationHint(err), kb: kbQty()}}
	}

	if errors.Is(services.ItemOnMenu(tenant, state.Item), services.ErrItemUnavailable) {
		item := state.Item
		state.Item = ""
		state.Step = models.StepViewingCart
		return b.saved(ctx, ev, state,
			reply{text: fmt.Sprintf("%s is no longer available.", item)},
			b.cartView(tenant, state))
	}

	state.Cart.Add(state.Item, qty)
	state.Item = ""
	state.Step = models.StepViewingCart
	return b.saved(ctx, ev, state, b.cartView(tenant, state))
}

func (b *Bot) onViewingCart(ctx context.Context, ev event, tenant *models.TenantContext, state *models.ConversationState) []reply {
	switch ev.text {
	case btnAddMore:
		state.Step = models.StepIdle
		return b.saved(ctx, ev, state, reply{text: "Pick a drink:", kb: b.guestKB(tenant, state)})
	case btnClear:
		state.Cart = models.Cart{}
		return b.saved(ctx, ev, state, reply{text: "Cart cleared.", kb: kbCart()})
	case btnEdit:
		if state.Cart.IsEmpty() {
			return []reply{{text: "Your cart is empty.", kb: kbCart()}}
		}
		state.Step = models.StepEditingPick
		return b.saved(ctx, ev, state, reply{text: "Which item?", kb: kbEditPick(state.Cart)})
	case btnCheckout:
		if state.Cart.IsEmpty() {
			return []reply{{text: "Your cart is empty — add something first.", kb: kbCart()}}
		}
		if blocked := b.orderingBlocked(tenant, state); blocked != nil {
			return blocked
		}
		total, _ := services.PriceCart(state.Cart, tenant.Menu)
		state.LastTotal = total
		state.Step = models.StepConfirmation
		return b.saved(ctx, ev, state,
			reply{text: services.CartSummary(state.Cart, tenant.Menu) + "\n\nConfirm the order?", kb: kbConfirm()})
	case btnCancel:
		state.Reset()
		return b.saved(ctx, ev, state, reply{text: "Cancelled.", kb: b.guestKB(tenant, state)})
	}
	return []reply{b.cartView(tenant, state)}
}

func (b *Bot) onEditingPick(ctx context.Context, ev event, tenant *models.TenantContext, state *models.ConversationState) []reply {
	if ev.text == btnDone {
		state.Step = models.StepViewingCart
		return b.saved(ctx, ev, state, b.cartView(tenant, state))
	}
	if _, ok := state.Cart[ev.text]; ok {
		state.Step = models.StepEditingItem
		state.Item = ev.text
		return b.saved(ctx, ev, state,
			reply{text: fmt.Sprintf("%s × %d", ev.text, state.Cart[ev.text]), kb: kbEditItem()})
	}
	return []reply{{text: "Pick an item from your cart:", kb: kbEditPick(state.Cart)}}
}

func (b *Bot) onEditingItem(ctx context.Context, ev event, tenant *models.TenantContext, state *models.ConversationState) []reply {
	item := state.Item
	switch ev.text {
	case btnPlus, btnMinus:
		delta := 1
		if ev.text == btnMinus {
			delta = -1
		}
		state.Cart.Adjust(item, delta)
		if _, ok := state.Cart[item]; !ok {
			state.Item = ""
			state.Step = models.StepEditingPick
			return b.saved(ctx, ev, state,
				reply{text: fmt.Sprintf("%s removed.", item), kb: kbEditPick(state.Cart)})
		}
		return b.saved(ctx, ev, state,
			reply{text: fmt.Sprintf("%s × %d", item, state.Cart[item]), kb: kbEditItem()})
	case btnRemove:
		state.Cart.Remove(item)
		state.Item = ""
		state.Step = models.StepEditingPick
		return b.saved(ctx, ev, state,
			reply{text: fmt.Sprintf("%s removed.", item), kb: kbEditPick(state.Cart)})
	case btnDone:
		state.Item = ""
		state.Step = models.StepViewingCart
		return b.saved(ctx, ev, state, b.cartView(tenant, state))
	}
	return []reply{{text: fmt.Sprintf("%s × %d", item, state.Cart[item]), kb: kbEditItem()}}
}

func (b *Bot) onConfirmation(ctx context.Context, ev event, tenant *models.TenantContext, state *models.ConversationState) []reply {
	switch ev.text {
	case btnConfirm:
		if blocked := b.orderingBlocked(tenant, state); blocked != nil {
			state.Step = models.StepViewingCart
			if fail := b.saved(ctx, ev, state); fail != nil {
				return fail
			}
			return blocked
		}
		state.Step = models.StepReadyTime
		return b.saved(ctx, ev, state, reply{text: "When should it be ready?", kb: kbReady()})
	case btnCart:
		state.Step = models.StepViewingCart
		return b.saved(ctx, ev, state, b.cartView(tenant, state))
	case btnCancel:
		state.Reset()
		return b.saved(ctx, ev, state, reply{text: "Cancelled.", kb: b.guestKB(tenant, state)})
	}
	return []reply{{text: "Confirm the order?", kb: kbConfirm()}}
}

func (b *Bot) onReadyTime(ctx context.Context, ev event, tenant *models.TenantContext, state *models.ConversationState) []reply {
	if ev.text == btnCancel {
		state.Step = models.StepViewingCart
		return b.saved(ctx, ev, state, b.cartView(tenant, state))
	}
	mins, ok := readyMinutes[ev.text]
	if !ok {
		return []reply{{text: "Pick a ready time:", kb: kbReady()}}
	}

	result, err := b.checkout.Finalize(ctx, ev.userID, state.Tenant, state.Cart, mins, ev.name)
	if err != nil {
		return b.finalizeFailed(ctx, ev, tenant, state, err)
	}

	state.Reset()
	text := fmt.Sprintf("✅ %s\n\nTotal: %d", finishText(ev.name), result.Total)
	if result.ReadyMinutes > 0 {
		text += fmt.Sprintf("\nReady in %d minutes.", result.ReadyMinutes)
	}
	return b.saved(ctx, ev, state, reply{text: text, kb: b.guestKB(tenant, state)})
}

func (b *Bot) finalizeFailed(ctx context.Context, ev event, tenant *models.TenantContext, state *models.ConversationState, err error) []reply {
	var rl *services.RateLimitedError
	switch {
	case errors.As(err, &rl):
		// The pending order is dropped, not queued.
		if cerr := b.convs.Clear(ctx, ev.userID, ev.chatID); cerr != nil {
			return storeFail()
		}
		return []reply{{
			text: fmt.Sprintf("⏳ Please wait %d seconds before the next order.", int(rl.RetryAfter.Seconds())+1),
			kb:   kbInfo(),
		}}
	case errors.Is(err, services.ErrEmptyCart):
		state.Step = models.StepViewingCart
		return b.saved(ctx, ev, state, reply{text: "Your cart is empty.", kb: kbCart()})
	case errors.Is(err, services.ErrOrdersDisabled):
		state.Step = models.StepViewingCart
		return b.saved(ctx, ev, state,
			reply{text: fmt.Sprintf("%s is not taking orders right now.", tenant.Title), kb: kbCart()})
	case errors.Is(err, services.ErrTenantClosed):
		state.Step = models.StepViewingCart
		return b.saved(ctx, ev, state,
			reply{text: closedText(tenant, b.now()), kb: kbCart()})
	}
	if services.IsStoreUnavailable(err) {
		b.log.Errorw("checkout store failure", "user", ev.userID, "tenant", state.Tenant, "error", err)
	} else {
		b.log.Errorw("checkout failed", "user", ev.userID, "tenant", state.Tenant, "error", err)
	}
	return storeFail()
}

func (b *Bot) startBooking(ctx context.Context, ev event, tenant *models.TenantContext, state *models.ConversationState) []reply {
	if err := services.BookingAllowed(tenant, b.now()); err != nil {
		if errors.Is(err, services.ErrBookingDisabled) {
			return []reply{{text: fmt.Sprintf("%s does not take table requests here.", tenant.Title)}}
		}
		return []reply{{text: closedText(tenant, b.now()), kb: kbInfo()}}
	}
	state.Step = models.StepBookingWhen
	state.Booking = &models.BookingDraft{}
	return b.saved(ctx, ev, state,
		reply{text: "When should we expect you? Send DD.MM HH:MM, for example 24.12 18:30", kb: kbCancel()})
}

func (b *Bot) onBooking(ctx context.Context, ev event, tenant *models.TenantContext, state *models.ConversationState) []reply {
	if ev.text == btnCancel {
		state.ResetKeepCart()
		return b.saved(ctx, ev, state, reply{text: "Cancelled.", kb: b.guestKB(tenant, state)})
	}
	if state.Booking == nil {
		state.Booking = &models.BookingDraft{}
	}

	switch state.Step {
	case models.StepBookingWhen:
		if err := services.ValidateBookingWhen(ev.text); err != nil {
			return []reply{{text: validationHint(err), kb: kbCancel()}}
		}
		state.Booking.When = strings.TrimSpace(ev.text)
		state.Step = models.StepBookingParty
		return b.saved(ctx, ev, state, reply{text: "How many guests? (1–10)", kb: kbCancel()})

	case models.StepBookingParty:
		n, err := services.ValidateParty(ev.text)
		if err != nil {
			return []reply{{text: validationHint(err), kb: kbCancel()}}
		}
		state.Booking.Party = n
		state.Step = models.StepBookingComment
		return b.saved(ctx, ev, state, reply{text: "Any comment? Name, occasion — or send a dash.", kb: kbCancel()})

	case models.StepBookingComment:
		comment := strings.TrimSpace(ev.text)
		if comment == "-" {
			comment = ""
		}
		b.bookings.Submit(ctx, tenant, ev.userID, ev.name, *state.Booking, comment)
		state.ResetKeepCart()
		return b.saved(ctx, ev, state,
			reply{text: "✅ Request sent! The cafe will get back to you.", kb: b.guestKB(tenant, state)})
	}
	return nil
}

func (b *Bot) repeatLastOrder(ctx context.Context, ev event, tenant *models.TenantContext, state *models.ConversationState) []reply {
	snap, ok, err := b.customers.LastOrder(ctx, tenant.ID, ev.userID)
	if err != nil {
		return storeFail()
	}
	if !ok {
		return []reply{{text: "No previous order found.", kb: b.guestKB(tenant, state)}}
	}

	filtered := services.FilterCart(snap.Cart, tenant.Menu)
	if filtered.IsEmpty() {
		return []reply{{text: "Those items are no longer on the menu.", kb: b.guestKB(tenant, state)}}
	}
	if blocked := b.orderingBlocked(tenant, state); blocked != nil {
		return blocked
	}

	state.Cart = filtered
	total, _ := services.PriceCart(state.Cart, tenant.Menu)
	state.LastTotal = total
	state.Step = models.StepConfirmation
	return b.saved(ctx, ev, state,
		reply{text: services.CartSummary(state.Cart, tenant.Menu) + "\n\nConfirm the order?", kb: kbConfirm()})
}

func validationHint(err error) string {
	var ve *services.ValidationError
	if errors.As(err, &ve) {
		return "Please " + ve.Hint + "."
	}
	return err.Error()
}
