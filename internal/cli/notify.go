package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Send the daily reminder once, now",
	RunE:  runNotify,
}

func runNotify(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	res := a.notifier.Run(cmd.Context())
	fmt.Fprintf(cmd.OutOrStdout(), "reminders: attempted=%d sent=%d failed=%d\n",
		res.Attempted, res.Sent, res.Failed)
	return nil
}
