package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"

	"github.com/mdminegoub-netizen/qaher-bot/internal/messages"
	"github.com/mdminegoub-netizen/qaher-bot/internal/models"
	"github.com/mdminegoub-netizen/qaher-bot/internal/relay"
	"github.com/mdminegoub-netizen/qaher-bot/internal/session"
	"github.com/mdminegoub-netizen/qaher-bot/internal/storage"
	"github.com/mdminegoub-netizen/qaher-bot/internal/telegram"
)

const JobName = "daily_reminders"

// Config is when the daily reminder goes out.
type Config struct {
	Hour     int
	Minute   int
	Location *time.Location // nil means UTC
}

// Notifier sends the daily reminder to every user who has it enabled.
type Notifier struct {
	Store    storage.Store
	Relay    *relay.Relay
	Session  *session.Machine
	Messages *messages.Catalog
}

// Run sends one reminder per enabled user. Delivery failures are isolated
// and only counted.
func (n *Notifier) Run(ctx context.Context) relay.Result {
	recs, err := n.Store.List(ctx)
	if err != nil {
		log.Println("daily reminders: list users:", err)
		return relay.Result{}
	}

	byID := make(map[int64]*models.UserRecord, len(recs))
	ids := make([]int64, 0, len(recs))
	for _, rec := range recs {
		if !rec.DailyReminderEnabled {
			continue
		}
		byID[rec.UserID] = rec
		ids = append(ids, rec.UserID)
	}

	res := n.Relay.FanOut(ctx, ids, func(id int64) telegram.Outgoing {
		rec := byID[id]
		elapsed, started := n.Session.Elapsed(rec)
		status := n.Messages.StreakStatus(rec, elapsed, started)
		return telegram.Outgoing{
			ChatID:    id,
			Text:      n.Messages.DailyReminder(rec.DisplayName, status, rec.LatestNote()),
			ParseMode: telegram.ModeMarkdown,
		}
	})
	log.Printf("daily reminders: attempted=%d sent=%d failed=%d", res.Attempted, res.Sent, res.Failed)
	return res
}

// Start registers the daily job and starts the scheduler. The scheduler is
// shut down when ctx is done.
func Start(ctx context.Context, cfg Config, n *Notifier, clock clockwork.Clock) (gocron.Scheduler, error) {
	if cfg.Hour < 0 || cfg.Hour > 23 || cfg.Minute < 0 || cfg.Minute > 59 {
		return nil, fmt.Errorf("scheduler: invalid daily time %02d:%02d", cfg.Hour, cfg.Minute)
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	opts := []gocron.SchedulerOption{gocron.WithLocation(loc)}
	if clock != nil {
		opts = append(opts, gocron.WithClock(clock))
	}

	s, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, err
	}

	_, err = s.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(
			gocron.NewAtTime(uint(cfg.Hour), uint(cfg.Minute), 0),
		)),
		gocron.NewTask(func() {
			n.Run(ctx)
		}),
		gocron.WithName(JobName),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, err
	}

	s.Start()
	go func() {
		<-ctx.Done()
		if err := s.Shutdown(); err != nil {
			log.Println("scheduler shutdown:", err)
		}
	}()
	return s, nil
}
