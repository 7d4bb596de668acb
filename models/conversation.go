package models

// Conversation steps. One explicit machine; there is no implicit fallthrough
// between steps, and each step uses only the fields documented for it.
const (
	StepIdle            = "idle"
	StepQuantity        = "selecting_quantity"  // Item holds the pending menu item
	StepViewingCart     = "viewing_cart"
	StepEditingPick     = "editing_pick"        // choosing which cart item to edit
	StepEditingItem     = "editing_item"        // Item holds the item being edited
	StepConfirmation    = "waiting_confirmation" // LastTotal holds the quoted total
	StepReadyTime       = "waiting_ready_time"

	StepBookingWhen    = "booking_when"
	StepBookingParty   = "booking_party" // Booking.When is set
	StepBookingComment = "booking_comment"

	StepAdminAddName   = "admin_add_name"
	StepAdminAddPrice  = "admin_add_price" // Item holds the pending menu item name
	StepAdminDelPick   = "admin_del_pick"
	StepAdminEditField = "admin_edit_field"
	StepAdminEditValue = "admin_edit_value" // Item holds the profile field name
)

// BookingDraft carries the in-progress table reservation.
type BookingDraft struct {
	When  string `json:"when"` // "DD.MM HH:MM"
	Party int    `json:"party"`
}

// ConversationState is the per-(user, chat) conversation record. Created on
// first interaction, reset to idle on completion, cancellation or error.
type ConversationState struct {
	Step      string        `json:"step"`
	Tenant    string        `json:"tenant"`
	Item      string        `json:"item,omitempty"`
	Cart      Cart          `json:"cart,omitempty"`
	LastTotal int64         `json:"last_total,omitempty"`
	Booking   *BookingDraft `json:"booking,omitempty"`
}

// NewConversation returns an idle state bound to tenant.
func NewConversation(tenant string) *ConversationState {
	return &ConversationState{Step: StepIdle, Tenant: tenant, Cart: Cart{}}
}

// Reset returns the state to idle, dropping all transient fields but keeping
// the tenant binding. The cart is dropped too; use ResetKeepCart where the
// flow preserves it.
func (s *ConversationState) Reset() {
	s.Step = StepIdle
	s.Item = ""
	s.Cart = Cart{}
	s.LastTotal = 0
	s.Booking = nil
}

// ResetKeepCart drops transient fields but preserves the cart contents.
func (s *ConversationState) ResetKeepCart() {
	cart := s.Cart
	s.Reset()
	if cart != nil {
		s.Cart = cart
	}
}
