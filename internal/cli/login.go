package cli

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vietddude/sitewatch/internal/core/config"
	"github.com/vietddude/sitewatch/internal/infra/api"
	"github.com/vietddude/sitewatch/internal/infra/session"
)

var loginEmail string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate against the backend and store the session",
	Run:   runLogin,
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email (required)")
	_ = loginCmd.MarkFlagRequired("email")
	rootCmd.AddCommand(loginCmd)
}

// newSessionStore builds the configured session store. The returned cleanup
// closes any held connection.
func newSessionStore(cfg *config.AppConfig) (session.Store, func(), error) {
	switch cfg.Session.Backend {
	case "", "file":
		return session.NewFileStore(cfg.Session.Path), func() {}, nil
	case "redis":
		rs, err := session.NewRedisStore(cfg.Session.Redis)
		if err != nil {
			return nil, nil, err
		}
		return rs, func() { _ = rs.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
	}
}

// newClient builds a one-shot API client with the router's inert default
// handlers; CLI subcommands report errors directly instead of reacting to
// routed outcomes.
func newClient(cfg *config.AppConfig, store session.Store) *api.Client {
	return api.New(cfg.API, store, api.NewRouter(slog.Default()), slog.Default())
}

func runLogin(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	password := os.Getenv("SITEWATCH_PASSWORD")
	if password == "" {
		fmt.Print("Password: ")
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil {
			slog.Error("Failed to read password", "error", err)
			os.Exit(1)
		}
		password = strings.TrimSpace(line)
	}

	store, cleanup, err := newSessionStore(cfg)
	if err != nil {
		slog.Error("Failed to init session store", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	client := newClient(cfg, store)
	s, err := client.Login(context.Background(), loginEmail, password)
	if err != nil {
		slog.Error("Login failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Logged in as %s (%s), session valid until %s\n",
		s.User.FullName, s.User.Email, s.ExpiresAt.Format("2006-01-02 15:04:05"))
}
