package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mdminegoub-netizen/qaher-bot/internal/storage"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Copy every user record from the configured store into another one",
	Long: `migrate copies all user records from the configured store into the store
given by --to and --dsn, e.g. from a legacy user_data.json into SQLite.
Existing records in the target are replaced per user. The relay references
that route admin replies are copied too.`,
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().String("to", storage.DriverSQLite, "Target store driver (sqlite, postgres or json)")
	migrateCmd.Flags().String("dsn", "", "Target file path or connection string")
	_ = migrateCmd.MarkFlagRequired("dsn")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	driver, _ := cmd.Flags().GetString("to")
	dsn, _ := cmd.Flags().GetString("dsn")

	_, src, err := openStore()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := storage.Open(driver, dsn)
	if err != nil {
		return fmt.Errorf("open target %s store: %w", driver, err)
	}
	defer dst.Close()

	n, err := copyRecords(cmd.Context(), src, dst)
	if err != nil {
		return err
	}
	refs, err := copyRelayRefs(cmd.Context(), src, dst)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "migrated %d users and %d relay references to %s\n", n, refs, driver)
	return nil
}

func copyRecords(ctx context.Context, src, dst storage.Store) (int, error) {
	recs, err := src.LoadAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("load source: %w", err)
	}
	if err := dst.SaveAll(ctx, recs); err != nil {
		return 0, fmt.Errorf("save target: %w", err)
	}
	return len(recs), nil
}

// copyRelayRefs keeps admin replies to support messages forwarded before
// the migration routable.
func copyRelayRefs(ctx context.Context, src, dst storage.Store) (int, error) {
	refs, err := src.RelayRefs(ctx)
	if err != nil {
		return 0, fmt.Errorf("load source relay refs: %w", err)
	}
	for _, ref := range refs {
		if err := dst.PutRelayRef(ctx, ref); err != nil {
			return 0, fmt.Errorf("save relay ref %d: %w", ref.MessageID, err)
		}
	}
	return len(refs), nil
}
