// Package relay forwards support messages to the admin, routes the admin's
// replies back, and fans messages out to many users.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mdminegoub-netizen/qaher-bot/internal/messages"
	"github.com/mdminegoub-netizen/qaher-bot/internal/models"
	"github.com/mdminegoub-netizen/qaher-bot/internal/storage"
	"github.com/mdminegoub-netizen/qaher-bot/internal/telegram"
)

// ErrNoAdmin is returned by ForwardToAdmin when no admin is configured.
var ErrNoAdmin = errors.New("relay: no admin configured")

// Result counts a fan-out. Only totals are reported, never recipients.
type Result struct {
	Attempted int
	Sent      int
	Failed    int
}

type Config struct {
	AdminID  int64         // 0 disables admin features
	Interval time.Duration // pause between fan-out sends
	Clock    clockwork.Clock
}

type Relay struct {
	sender   telegram.Sender
	store    storage.Store
	msgs     *messages.Catalog
	adminID  int64
	interval time.Duration
	clock    clockwork.Clock
}

func New(sender telegram.Sender, store storage.Store, msgs *messages.Catalog, cfg Config) *Relay {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return &Relay{
		sender:   sender,
		store:    store,
		msgs:     msgs,
		adminID:  cfg.AdminID,
		interval: cfg.Interval,
		clock:    cfg.Clock,
	}
}

// HasAdmin reports whether support forwarding is available.
func (r *Relay) HasAdmin() bool {
	return r.adminID != 0
}

// IsAdmin reports whether userID is the configured admin.
func (r *Relay) IsAdmin(userID int64) bool {
	return r.adminID != 0 && userID == r.adminID
}

// ForwardToAdmin sends a user's support message to the admin and remembers
// which user the forwarded message belongs to.
func (r *Relay) ForwardToAdmin(ctx context.Context, rec *models.UserRecord, text string) error {
	if r.adminID == 0 {
		return ErrNoAdmin
	}
	msgID, err := r.sender.Send(ctx, telegram.Outgoing{
		ChatID: r.adminID,
		Text:   r.msgs.SupportForward(rec, text),
	})
	if err != nil {
		return fmt.Errorf("relay: forward from %d: %w", rec.UserID, err)
	}
	ref := storage.RelayRef{MessageID: msgID, UserID: rec.UserID, CreatedAt: r.clock.Now()}
	if err := r.store.PutRelayRef(ctx, ref); err != nil {
		log.Printf("warning: relay: message %d from %d delivered but not routable: %v", msgID, rec.UserID, err)
	}
	return nil
}

// ReplyTarget resolves the user behind a forwarded message id.
func (r *Relay) ReplyTarget(ctx context.Context, messageID int) (int64, bool, error) {
	if messageID == 0 {
		return 0, false, nil
	}
	userID, err := r.store.RelayTarget(ctx, messageID)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return userID, true, nil
}

// DeliverReply sends the admin's text to userID unchanged.
func (r *Relay) DeliverReply(ctx context.Context, userID int64, text string) error {
	if _, err := r.sender.Send(ctx, telegram.Outgoing{ChatID: userID, Text: text}); err != nil {
		return fmt.Errorf("relay: reply to %d: %w", userID, err)
	}
	return nil
}

// Broadcast sends text to every known user. The error is only about loading
// the recipient list; delivery failures are counted in the Result.
func (r *Relay) Broadcast(ctx context.Context, text string) (Result, error) {
	recs, err := r.store.List(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("relay: list recipients: %w", err)
	}
	ids := make([]int64, 0, len(recs))
	for _, rec := range recs {
		ids = append(ids, rec.UserID)
	}
	res := r.FanOut(ctx, ids, func(id int64) telegram.Outgoing {
		return telegram.Outgoing{ChatID: id, Text: text}
	})
	log.Printf("broadcast: attempted=%d sent=%d failed=%d", res.Attempted, res.Sent, res.Failed)
	return res, nil
}

// FanOut sends compose(id) to each recipient in order. A failed send is
// logged and skipped. It stops early when ctx is done.
func (r *Relay) FanOut(ctx context.Context, recipients []int64, compose func(userID int64) telegram.Outgoing) Result {
	var res Result
	for i, id := range recipients {
		if i > 0 && r.interval > 0 {
			select {
			case <-ctx.Done():
			case <-r.clock.After(r.interval):
			}
		}
		if ctx.Err() != nil {
			log.Printf("fan-out stopped after %d of %d recipients: %v", res.Attempted, len(recipients), ctx.Err())
			break
		}
		res.Attempted++
		if _, err := r.sender.Send(ctx, compose(id)); err != nil {
			res.Failed++
			log.Printf("send to %d: %v", id, err)
			continue
		}
		res.Sent++
	}
	return res
}
