package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"cafebot/config"
	"cafebot/pkg/logger"
	"cafebot/services"
)

// Deps bundles the injected service context; the bot holds no state of its
// own beyond the API handles.
type Deps struct {
	Tenants       *services.Tenants
	Conversations *services.Conversations
	Checkout      *services.Checkout
	Bookings      *services.Bookings
	Customers     *services.Customers
	Stats         *services.Stats
	Log           *logger.Logger
	Now           func() time.Time
}

type Bot struct {
	api     *tgbotapi.BotAPI
	botName string

	tenants   *services.Tenants
	convs     *services.Conversations
	checkout  *services.Checkout
	bookings  *services.Bookings
	customers *services.Customers
	stats     *services.Stats
	log       *logger.Logger
	now       func() time.Time
}

func New(cfg config.TelegramConfig, d Deps) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram api: %w", err)
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Bot{
		api:       api,
		botName:   api.Self.UserName,
		tenants:   d.Tenants,
		convs:     d.Conversations,
		checkout:  d.Checkout,
		bookings:  d.Bookings,
		customers: d.Customers,
		stats:     d.Stats,
		log:       d.Log,
		now:       d.Now,
	}, nil
}

// Start consumes updates until ctx is cancelled. Each update is handled as an
// independent short-lived task; no ordering is assumed between users.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		if update.Message == nil || update.Message.From == nil {
			continue
		}
		msg := update.Message
		go b.handleMessage(ctx, msg)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Errorw("handler panic", "chat", msg.Chat.ID, "panic", r)
		}
	}()

	ev := event{
		userID: msg.From.ID,
		chatID: msg.Chat.ID,
		group:  msg.Chat.IsGroup() || msg.Chat.IsSuperGroup(),
		name:   firstName(msg),
		text:   strings.TrimSpace(msg.Text),
	}
	if msg.IsCommand() && msg.Command() == "start" {
		ev.isStart = true
		ev.payload = strings.TrimSpace(msg.CommandArguments())
	}

	hctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	for _, r := range b.process(hctx, ev) {
		b.send(ev.chatID, r.text, r.kb)
	}
}

func firstName(msg *tgbotapi.Message) string {
	if msg.From == nil || msg.From.FirstName == "" {
		return "friend"
	}
	return msg.From.FirstName
}

func (b *Bot) send(chatID int64, text string, kb [][]string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if kb != nil {
		msg.ReplyMarkup = replyKeyboard(kb)
	}
	if _, err := b.api.Send(msg); err != nil {
		b.log.Errorw("send failed", "chat", chatID, "error", err)
	}
}

func replyKeyboard(rows [][]string) tgbotapi.ReplyKeyboardMarkup {
	var kbRows [][]tgbotapi.KeyboardButton
	for _, row := range rows {
		var btns []tgbotapi.KeyboardButton
		for _, label := range row {
			btns = append(btns, tgbotapi.NewKeyboardButton(label))
		}
		kbRows = append(kbRows, btns)
	}
	kb := tgbotapi.NewReplyKeyboard(kbRows...)
	kb.ResizeKeyboard = true
	return kb
}

// Notifier sends admin/staff/outreach messages, on a dedicated bot token when
// configured (so order notifications come from a separate sender identity).
// It implements services.Gateway.
type Notifier struct {
	api *tgbotapi.BotAPI
}

func NewNotifier(cfg config.TelegramConfig) (*Notifier, error) {
	token := cfg.NotifyToken
	if token == "" {
		token = cfg.Token
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("notifier api: %w", err)
	}
	return &Notifier{api: api}, nil
}

func (n *Notifier) Send(ctx context.Context, chatID int64, text string) error {
	_, err := n.api.Send(tgbotapi.NewMessage(chatID, text))
	if err != nil && isUnreachable(err) {
		return services.ErrRecipientUnreachable
	}
	return err
}

// isUnreachable classifies permanent delivery failures: the recipient blocked
// the bot, deleted their account, or the chat no longer exists.
func isUnreachable(err error) bool {
	s := err.Error()
	return strings.Contains(s, "Forbidden") ||
		strings.Contains(s, "chat not found") ||
		strings.Contains(s, "user is deactivated")
}
