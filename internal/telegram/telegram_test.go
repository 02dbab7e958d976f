package telegram

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func TestToInbound(t *testing.T) {
	upd := tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 10,
		From:      &tgbotapi.User{ID: 42, FirstName: "Sami", UserName: "sami"},
		Chat:      &tgbotapi.Chat{ID: 42},
		Text:      "  hello  ",
		ReplyToMessage: &tgbotapi.Message{
			MessageID: 7,
		},
	}}
	in, ok := ToInbound(upd)
	if !ok {
		t.Fatalf("expected a text message")
	}
	if in.UserID != 42 || in.ChatID != 42 || in.Text != "hello" || in.ReplyToMessageID != 7 {
		t.Fatalf("unexpected inbound: %+v", in)
	}
	if in.FirstName != "Sami" || in.UserName != "sami" {
		t.Fatalf("profile not copied: %+v", in)
	}
}

func TestToInbound_Command(t *testing.T) {
	text := "/start@qaher_bot"
	upd := tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: 1},
		Chat: &tgbotapi.Chat{ID: 1},
		Text: text,
		Entities: []tgbotapi.MessageEntity{
			{Type: "bot_command", Offset: 0, Length: len(text)},
		},
	}}
	in, ok := ToInbound(upd)
	if !ok || in.Text != "/start" {
		t.Fatalf("command not normalised: %+v", in)
	}
}

func TestToInbound_SkipsNonText(t *testing.T) {
	cases := []tgbotapi.Update{
		{},
		{Message: &tgbotapi.Message{From: &tgbotapi.User{ID: 1}, Chat: &tgbotapi.Chat{ID: 1}}},
		{Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1}, Text: "x"}},
	}
	for i, upd := range cases {
		if _, ok := ToInbound(upd); ok {
			t.Fatalf("case %d: expected update to be skipped", i)
		}
	}
}

func TestBuildMessage(t *testing.T) {
	cfg := buildMessage(Outgoing{
		ChatID:    5,
		Text:      "menu",
		ParseMode: ModeMarkdown,
		Keyboard:  [][]string{{"a", "b"}, {"c"}},
		ReplyTo:   3,
	})
	if cfg.ChatID != 5 || cfg.Text != "menu" || cfg.ParseMode != tgbotapi.ModeMarkdown || cfg.ReplyToMessageID != 3 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	kb, ok := cfg.ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup)
	if !ok {
		t.Fatalf("expected reply keyboard, got %T", cfg.ReplyMarkup)
	}
	if len(kb.Keyboard) != 2 || kb.Keyboard[0][1].Text != "b" || !kb.ResizeKeyboard {
		t.Fatalf("unexpected keyboard: %+v", kb)
	}

	cfg = buildMessage(Outgoing{ChatID: 5, Text: "x", RemoveKeyboard: true})
	if _, ok := cfg.ReplyMarkup.(tgbotapi.ReplyKeyboardRemove); !ok {
		t.Fatalf("expected keyboard removal, got %T", cfg.ReplyMarkup)
	}

	cfg = buildMessage(Outgoing{ChatID: 5, Text: "x"})
	if cfg.ReplyMarkup != nil {
		t.Fatalf("expected no markup, got %T", cfg.ReplyMarkup)
	}
}

func TestSplitText(t *testing.T) {
	if got := SplitText("short", 10); len(got) != 1 || got[0] != "short" {
		t.Fatalf("split = %q", got)
	}
	text := strings.Repeat("line\n", 10)
	parts := SplitText(text, 12)
	if strings.Join(parts, "") != text {
		t.Fatalf("split lost text: %q", parts)
	}
	for _, p := range parts {
		if len([]rune(p)) > 12 {
			t.Fatalf("part too long: %q", p)
		}
	}
	if got := SplitText("", 10); len(got) != 1 {
		t.Fatalf("empty text should give one part, got %q", got)
	}
}

func TestBot_Send(t *testing.T) {
	var (
		mu   sync.Mutex
		sent []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			fmt.Fprint(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"qaher","username":"qaher_bot"}}`)
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			_ = r.ParseForm()
			mu.Lock()
			sent = append(sent, r.FormValue("chat_id")+":"+r.FormValue("text"))
			mu.Unlock()
			fmt.Fprint(w, `{"ok":true,"result":{"message_id":99,"date":0,"chat":{"id":7,"type":"private"},"text":"hi"}}`)
		default:
			fmt.Fprint(w, `{"ok":false,"error_code":404,"description":"Not Found"}`)
		}
	}))
	defer srv.Close()

	bot, err := NewBotWithEndpoint("TOKEN", srv.URL+"/bot%s/%s")
	if err != nil {
		t.Fatalf("new bot: %v", err)
	}
	id, err := bot.Send(context.Background(), Outgoing{ChatID: 7, Text: "hi"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if id != 99 {
		t.Fatalf("message id = %d", id)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(sent) != 1 || sent[0] != "7:hi" {
		t.Fatalf("sent = %v", sent)
	}
}

func TestBot_SendCancelled(t *testing.T) {
	b := &Bot{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := b.Send(ctx, Outgoing{ChatID: 1, Text: "x"}); err == nil {
		t.Fatalf("expected context error")
	}
}
