package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/mdminegoub-netizen/qaher-bot/internal/handlers"
	"github.com/mdminegoub-netizen/qaher-bot/internal/storage"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print user statistics from the store",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	_, store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()
	return printStats(cmd.Context(), cmd.OutOrStdout(), store, time.Now())
}

func printStats(ctx context.Context, w io.Writer, store storage.Store, now time.Time) error {
	recs, err := store.List(ctx)
	if err != nil {
		return err
	}
	s := handlers.Summarize(recs, now)
	fmt.Fprintf(w, "users:           %d\n", s.Total)
	fmt.Fprintf(w, "active today:    %d\n", s.ActiveToday)
	fmt.Fprintf(w, "reminders on:    %d\n", s.RemindersOn)
	fmt.Fprintf(w, "running streaks: %d\n", s.RunningStreaks)
	return nil
}
