// Package telegram adapts the Bot API client to the small send/receive
// surface the rest of the bot depends on.
package telegram

import (
	"context"
	"errors"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ParseMode values for Outgoing.
const (
	ModePlain    = ""
	ModeMarkdown = tgbotapi.ModeMarkdown
)

// Outgoing is one message to send.
type Outgoing struct {
	ChatID         int64
	Text           string
	ParseMode      string
	Keyboard       [][]string // reply keyboard rows, nil keeps the current one
	RemoveKeyboard bool
	ReplyTo        int
}

// Inbound is one text message received from a user.
type Inbound struct {
	UserID           int64
	ChatID           int64
	FirstName        string
	UserName         string
	Text             string
	ReplyToMessageID int // 0 when the message is not a reply
}

// Sender sends a message and returns its message id.
type Sender interface {
	Send(ctx context.Context, msg Outgoing) (int, error)
}

// Command is an entry of the bot's command menu.
type Command struct {
	Name        string
	Description string
}

// Bot is the Sender backed by the Telegram Bot API.
type Bot struct {
	API *tgbotapi.BotAPI
}

var _ Sender = (*Bot)(nil)

// NewBot authorises token against the Bot API.
func NewBot(token string) (*Bot, error) {
	return NewBotWithEndpoint(token, tgbotapi.APIEndpoint)
}

// NewBotWithEndpoint is NewBot against another API endpoint format
// (e.g. a local Bot API server).
func NewBotWithEndpoint(token, endpoint string) (*Bot, error) {
	if token == "" {
		return nil, errors.New("telegram: empty token")
	}
	api, err := tgbotapi.NewBotAPIWithAPIEndpoint(token, endpoint)
	if err != nil {
		return nil, err
	}
	return &Bot{API: api}, nil
}

func (b *Bot) Send(ctx context.Context, msg Outgoing) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m, err := b.API.Send(buildMessage(msg))
	if err != nil {
		return 0, err
	}
	return m.MessageID, nil
}

// SetCommands registers the command list shown by Telegram clients.
func (b *Bot) SetCommands(cmds []Command) error {
	list := make([]tgbotapi.BotCommand, 0, len(cmds))
	for _, c := range cmds {
		list = append(list, tgbotapi.BotCommand{Command: c.Name, Description: c.Description})
	}
	_, err := b.API.Request(tgbotapi.NewSetMyCommands(list...))
	return err
}

// Listen long-polls updates and calls handle for every text message until
// ctx is done. Messages are handled one at a time in arrival order.
func (b *Bot) Listen(ctx context.Context, handle func(context.Context, Inbound)) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.API.GetUpdatesChan(u)
	go func() {
		<-ctx.Done()
		b.API.StopReceivingUpdates()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			in, ok := ToInbound(upd)
			if !ok {
				continue
			}
			handle(ctx, in)
		}
	}
}

// ToInbound extracts a text message from an update. Commands are
// normalised to "/name" without the @bot suffix.
func ToInbound(upd tgbotapi.Update) (Inbound, bool) {
	msg := upd.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return Inbound{}, false
	}
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return Inbound{}, false
	}
	if msg.IsCommand() {
		text = "/" + msg.Command()
		if args := strings.TrimSpace(msg.CommandArguments()); args != "" {
			log.Printf("user %d: ignoring arguments of /%s", msg.From.ID, msg.Command())
		}
	}
	in := Inbound{
		UserID:    msg.From.ID,
		ChatID:    msg.Chat.ID,
		FirstName: msg.From.FirstName,
		UserName:  msg.From.UserName,
		Text:      text,
	}
	if msg.ReplyToMessage != nil {
		in.ReplyToMessageID = msg.ReplyToMessage.MessageID
	}
	return in, true
}

func buildMessage(msg Outgoing) tgbotapi.MessageConfig {
	cfg := tgbotapi.NewMessage(msg.ChatID, msg.Text)
	cfg.ParseMode = msg.ParseMode
	cfg.ReplyToMessageID = msg.ReplyTo
	switch {
	case msg.RemoveKeyboard:
		cfg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(false)
	case msg.Keyboard != nil:
		rows := make([][]tgbotapi.KeyboardButton, 0, len(msg.Keyboard))
		for _, r := range msg.Keyboard {
			row := make([]tgbotapi.KeyboardButton, 0, len(r))
			for _, label := range r {
				row = append(row, tgbotapi.NewKeyboardButton(label))
			}
			rows = append(rows, tgbotapi.NewKeyboardButtonRow(row...))
		}
		kb := tgbotapi.NewReplyKeyboard(rows...)
		kb.ResizeKeyboard = true
		cfg.ReplyMarkup = kb
	}
	return cfg
}

// SplitText cuts text into chunks of at most limit runes, preferring line
// breaks, so each fits in one Telegram message.
func SplitText(text string, limit int) []string {
	runes := []rune(text)
	var parts []string
	for len(runes) > limit {
		cut := limit
		for i := limit; i > limit/2; i-- {
			if runes[i-1] == '\n' {
				cut = i
				break
			}
		}
		parts = append(parts, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 || len(parts) == 0 {
		parts = append(parts, string(runes))
	}
	return parts
}

// MaxMessageLength is Telegram's limit for one text message.
const MaxMessageLength = 4096

// EscapeMarkdown escapes user-provided text embedded in a ModeMarkdown message.
func EscapeMarkdown(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}
