package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"remindbot/internal/models"
	"remindbot/internal/scheduler"
	"remindbot/internal/storage"
)

var pendingDB string

func newPendingCmd() *cobra.Command {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "bot.db"
	}
	cmd := &cobra.Command{
		Use:   "pending",
		Short: "List reminders that are still to be delivered",
		Long: `List every reminder that has not fired yet, oldest first.

Examples:
  remindbot pending
  remindbot pending --db postgres://bot@localhost/bot`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := storage.New(pendingDB, 0)
			if err != nil {
				return fmt.Errorf("open storage: %w", err)
			}
			defer func() { _ = db.Close() }()
			return printPending(cmd.Context(), cmd.OutOrStdout(), db)
		},
	}
	cmd.Flags().StringVar(&pendingDB, "db", dsn, "SQLite path or postgres:// URL")
	return cmd
}

func printPending(ctx context.Context, out io.Writer, store scheduler.PendingStore) error {
	pending := false
	list, err := store.ListReminders(ctx, models.ReminderFilter{Expired: &pending})
	if err != nil {
		return fmt.Errorf("list pending reminders: %w", err)
	}
	if len(list) == 0 {
		_, err := fmt.Fprintln(out, "No pending reminders")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tREMIND AT (UTC)\tUSER\tCHAT\tTEXT")
	for _, r := range list {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n", r.ID, r.RemindTime, r.UserTag, r.ChatID, r.Text)
	}
	return w.Flush()
}
