package services

import "context"

// Gateway is the outbound half of the messaging boundary: deliver one text
// message to one chat. Rendering mechanics (parse mode, keyboards) belong to
// the adapter, not the core.
//
// A permanent delivery failure is reported as ErrRecipientUnreachable; any
// other error is transient.
type Gateway interface {
	Send(ctx context.Context, chatID int64, text string) error
}
