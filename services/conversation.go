package services

import (
	"context"
	"time"

	"cafebot/models"
	"cafebot/store"
)

// Conversation state lives in the store so the core can run across multiple
// worker processes. It is re-read at the top of each handler; there is no
// in-process cache.
const conversationTTL = 24 * time.Hour

type Conversations struct {
	store *store.Store
}

func NewConversations(st *store.Store) *Conversations {
	return &Conversations{store: st}
}

// Get loads the state for (user, chat), creating an idle one bound to
// tenantID when none exists.
func (c *Conversations) Get(ctx context.Context, userID, chatID int64, tenantID string) (*models.ConversationState, error) {
	var state models.ConversationState
	ok, err := c.store.GetJSON(ctx, store.ConversationKey(userID, chatID), &state)
	if err != nil {
		return nil, storeErr(err)
	}
	if !ok {
		return models.NewConversation(tenantID), nil
	}
	if state.Cart == nil {
		state.Cart = models.Cart{}
	}
	state.Tenant = tenantID
	return &state, nil
}

func (c *Conversations) Save(ctx context.Context, userID, chatID int64, state *models.ConversationState) error {
	return storeErr(c.store.SetJSON(ctx, store.ConversationKey(userID, chatID), state, conversationTTL))
}

func (c *Conversations) Clear(ctx context.Context, userID, chatID int64) error {
	return storeErr(c.store.Del(ctx, store.ConversationKey(userID, chatID)))
}
