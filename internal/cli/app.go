package cli

import (
	"fmt"
	"log"

	"github.com/jonboulle/clockwork"

	"github.com/mdminegoub-netizen/qaher-bot/internal/config"
	"github.com/mdminegoub-netizen/qaher-bot/internal/handlers"
	"github.com/mdminegoub-netizen/qaher-bot/internal/messages"
	"github.com/mdminegoub-netizen/qaher-bot/internal/relay"
	"github.com/mdminegoub-netizen/qaher-bot/internal/scheduler"
	"github.com/mdminegoub-netizen/qaher-bot/internal/session"
	"github.com/mdminegoub-netizen/qaher-bot/internal/storage"
	"github.com/mdminegoub-netizen/qaher-bot/internal/telegram"
)

// app holds the wired components shared by the subcommands.
type app struct {
	cfg      *config.Config
	clock    clockwork.Clock
	store    storage.Store
	msgs     *messages.Catalog
	session  *session.Machine
	bot      *telegram.Bot
	relay    *relay.Relay
	notifier *scheduler.Notifier
}

// openStore loads the configuration and opens the configured store.
func openStore() (*config.Config, storage.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	store, err := storage.Open(cfg.StoreDriver, cfg.StoreDSN())
	if err != nil {
		return nil, nil, fmt.Errorf("open %s store: %w", cfg.StoreDriver, err)
	}
	return cfg, store, nil
}

// newApp connects to Telegram and wires every component. The caller
// closes the store through app.close.
func newApp() (*app, error) {
	cfg, store, err := openStore()
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, clock: clockwork.NewRealClock(), store: store}

	if a.msgs, err = messages.Load(cfg.ContentFile); err != nil {
		a.close()
		return nil, err
	}
	if a.bot, err = telegram.NewBot(cfg.BotToken); err != nil {
		a.close()
		return nil, fmt.Errorf("connect to telegram: %w", err)
	}

	a.session = session.New(a.clock, cfg.PendingTTL)
	a.relay = relay.New(a.bot, store, a.msgs, relay.Config{
		AdminID:  cfg.AdminID,
		Interval: cfg.BroadcastInterval,
		Clock:    a.clock,
	})
	a.notifier = &scheduler.Notifier{
		Store:    store,
		Relay:    a.relay,
		Session:  a.session,
		Messages: a.msgs,
	}
	return a, nil
}

func (a *app) handler() *handlers.Handler {
	return handlers.NewHandler(a.bot, a.store, a.session, a.relay, a.msgs, a.cfg.NotesShown)
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		log.Println("warning: close store:", err)
	}
}
