// Package testutil provides fakes shared by package tests.
package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/mdminegoub-netizen/qaher-bot/internal/telegram"
)

// ErrBlocked is returned for chats listed in FakeSender.FailFor.
var ErrBlocked = errors.New("testutil: bot was blocked by the user")

// FakeSender records outgoing messages instead of calling Telegram.
type FakeSender struct {
	mu      sync.Mutex
	nextID  int
	Sent    []telegram.Outgoing
	ids     []int
	FailFor map[int64]bool
}

func NewFakeSender() *FakeSender {
	return &FakeSender{nextID: 1000, FailFor: map[int64]bool{}}
}

func (f *FakeSender) Send(ctx context.Context, msg telegram.Outgoing) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailFor[msg.ChatID] {
		return 0, ErrBlocked
	}
	f.nextID++
	f.Sent = append(f.Sent, msg)
	f.ids = append(f.ids, f.nextID)
	return f.nextID, nil
}

// Fail makes every later send to chatID fail.
func (f *FakeSender) Fail(chatID int64) {
	f.mu.Lock()
	f.FailFor[chatID] = true
	f.mu.Unlock()
}

// To returns the messages sent to chatID.
func (f *FakeSender) To(chatID int64) []telegram.Outgoing {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []telegram.Outgoing
	for _, m := range f.Sent {
		if m.ChatID == chatID {
			out = append(out, m)
		}
	}
	return out
}

// Last returns the last message sent to chatID.
func (f *FakeSender) Last(chatID int64) (telegram.Outgoing, bool) {
	msgs := f.To(chatID)
	if len(msgs) == 0 {
		return telegram.Outgoing{}, false
	}
	return msgs[len(msgs)-1], true
}

// LastID is the message id returned by the latest successful send.
func (f *FakeSender) LastID() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nextID
}

// LastIDTo is the message id of the last message sent to chatID, or 0.
func (f *FakeSender) LastIDTo(chatID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.Sent) - 1; i >= 0; i-- {
		if f.Sent[i].ChatID == chatID {
			return f.ids[i]
		}
	}
	return 0
}

// Reset forgets the recorded messages.
func (f *FakeSender) Reset() {
	f.mu.Lock()
	f.Sent = nil
	f.ids = nil
	f.mu.Unlock()
}
