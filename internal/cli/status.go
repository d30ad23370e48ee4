package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/sitewatch/internal/infra/session"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show backend reachability and session state",
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	store, cleanup, err := newSessionStore(cfg)
	if err != nil {
		slog.Error("Failed to init session store", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	ctx := context.Background()
	client := newClient(cfg, store)

	backend := "unreachable"
	if h, err := client.Health(ctx); err == nil {
		backend = h.Status
	}

	sessionState := "none"
	expires := "-"
	user := "-"
	if s, err := store.Load(ctx); err == nil {
		sessionState = "active"
		if s.Expired(time.Now()) {
			sessionState = "expired"
		}
		expires = s.ExpiresAt.Format("2006-01-02 15:04:05")
		user = s.User.Email
	} else if !errors.Is(err, session.ErrNoSession) {
		sessionState = "unreadable"
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "BACKEND\tSESSION\tUSER\tEXPIRES")
	_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", backend, sessionState, user, expires)
	_ = w.Flush()
}
