package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fanhub-app/fanhub/internal/infra/config"
	"github.com/fanhub-app/fanhub/internal/infra/logging"
	"github.com/fanhub-app/fanhub/internal/repo/kv"
	"github.com/fanhub-app/fanhub/internal/svc/messagesvc"
	"github.com/fanhub-app/fanhub/internal/svc/sessionsvc"
)

const (
	appName = "fanhub"
	svcName = "fanctl"
)

// Version information set at build time.
var version = "dev"

type Config struct {
	config.EnvConfig

	Log      logging.LoggerConfig     `envPrefix:"LOG_"`
	Session  sessionsvc.SessionConfig `envPrefix:"API_"`
	Messages messagesvc.MessageConfig `envPrefix:"API_"`
	KV       kv.Config                `envPrefix:"KV_"`
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "fanctl",
		Short: "Command line client for the fanhub backend",
		Long: `fanctl talks to the fanhub backend from the terminal.

It shares its session storage with the web front end, so a login
performed here is visible there and vice versa.

Environment:
  FANHUB_FANCTL_API_BASE_URL   backend base URL (default http://localhost:8000)
  FANHUB_FANCTL_KV_BACKEND     session storage backend (sqlite, redis or memory)`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		loginCmd(),
		signupCmd(),
		logoutCmd(),
		whoamiCmd(),
		messagesCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}
}

// services holds the wired clients a command works with.
type services struct {
	cfg      Config
	session  *sessionsvc.SessionService
	messages *messagesvc.MessageService
}

func newServices(ctx context.Context) (*services, error) {
	var (
		cfg Config

		configPrefix = strings.ToUpper(strings.Join([]string{appName, svcName}, "_"))
		loggerName   = strings.ToLower(strings.Join([]string{appName, svcName}, "."))
	)

	if err := config.Parse(ctx, &cfg, configPrefix); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	logging.Configure(ctx, cfg.Log, loggerName)

	sessionSvc, err := sessionsvc.NewSessionService(kv.Factory(cfg.KV), cfg.Session, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("new session service: %w", err)
	}

	return &services{
		cfg:      cfg,
		session:  sessionSvc,
		messages: messagesvc.NewMessageService(cfg.Messages, nil),
	}, nil
}

func (s *services) Close() {
	_ = s.session.Close()
}

// promptIfEmpty reads value from the terminal when the flag was not given.
func promptIfEmpty(value, label string) (string, error) {
	if value != "" {
		return value, nil
	}

	fmt.Fprintf(os.Stderr, "%s: ", label)

	reader := bufio.NewReader(os.Stdin)

	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
	}

	return strings.TrimSpace(line), nil
}
