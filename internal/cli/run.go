package cli

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mdminegoub-netizen/qaher-bot/internal/handlers"
	"github.com/mdminegoub-netizen/qaher-bot/internal/scheduler"
	"github.com/mdminegoub-netizen/qaher-bot/internal/web"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Serve the bot until interrupted",
	RunE:  runBot,
}

func runBot(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	log.Printf("authorized on account %s", a.bot.API.Self.UserName)
	if a.cfg.AdminID == 0 {
		log.Println("warning: ADMIN_ID is not set, support relay and admin commands are disabled")
	}
	if err := a.bot.SetCommands(handlers.Commands()); err != nil {
		log.Println("warning: set commands:", err)
	}

	if _, err := scheduler.Start(ctx, scheduler.Config{
		Hour:     a.cfg.DailyHour,
		Minute:   a.cfg.DailyMinute,
		Location: a.cfg.Location,
	}, a.notifier, nil); err != nil {
		return err
	}
	log.Printf("daily reminders at %02d:%02d %s", a.cfg.DailyHour, a.cfg.DailyMinute, a.cfg.Location)

	if a.cfg.HTTPAddr != "" {
		srv := web.NewServer(appVersion, a.clock)
		go func() {
			if err := srv.Run(ctx, a.cfg.HTTPAddr); err != nil {
				log.Println("web server:", err)
			}
		}()
		log.Printf("keep-alive server on %s", a.cfg.HTTPAddr)
	}

	h := a.handler()
	a.bot.Listen(ctx, h.HandleMessage)
	log.Println("shutting down")
	return nil
}
