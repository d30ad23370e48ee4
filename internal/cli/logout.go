package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vietddude/sitewatch/internal/infra/session"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Invalidate the stored session",
	Run:   runLogout,
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}

func runLogout(cmd *cobra.Command, args []string) {
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

	session.NewInvalidator(store, nil, slog.Default()).Invalidate(context.Background())
	fmt.Println("Session cleared")
}
