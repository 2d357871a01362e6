package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/fanhub-app/fanhub/internal/domain"
	"github.com/fanhub-app/fanhub/internal/infra/config"
	"github.com/fanhub-app/fanhub/internal/infra/logging"
	"github.com/fanhub-app/fanhub/internal/infra/metrics"
	"github.com/fanhub-app/fanhub/internal/infra/transport/http"
	"github.com/fanhub-app/fanhub/internal/repo/kv"
	"github.com/fanhub-app/fanhub/internal/svc/messagesvc"
	"github.com/fanhub-app/fanhub/internal/svc/sessionsvc"
	"github.com/fanhub-app/fanhub/internal/svc/websvc"
)

const (
	appName = "fanhub"
	svcName = "webapp"
)

type Config struct {
	config.EnvConfig

	Log      logging.LoggerConfig       `envPrefix:"LOG_"`
	Session  sessionsvc.SessionConfig   `envPrefix:"API_"`
	Messages messagesvc.MessageConfig   `envPrefix:"API_"`
	HTTP     websvc.HTTPTransportConfig `envPrefix:"HTTP_"`
	KV       kv.Config                  `envPrefix:"KV_"`
}

func main() {
	var (
		cfg Config
		ctx = context.Background()

		configPrefix = strings.ToUpper(strings.Join([]string{appName, svcName}, "_"))
		loggerName   = strings.ToLower(strings.Join([]string{appName, svcName}, "."))
	)

	if err := config.Parse(ctx, &cfg, configPrefix); err != nil {
		panic(err)
	}

	logging.Configure(ctx, cfg.Log, loggerName)

	if err := run(ctx, cfg); err != nil {
		panic(err)
	}
}

func run(ctx context.Context, cfg Config) (err error) {
	log := logging.GetLogger("cmd.webapp")

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "error", "err", err)
			panic(err)
		}

		log.InfoContext(ctx, "shutdown")
	}()

	mtr := metrics.New(prometheus.DefaultRegisterer)

	sessionSvc, err := sessionsvc.NewSessionService(
		kv.Factory(cfg.KV),
		cfg.Session,
		nil,
		mtr,
	)
	if err != nil {
		return fmt.Errorf("new session service: %w", err)
	}
	defer sessionSvc.Close()

	unsubscribe := sessionSvc.Subscribe(func(session domain.Session) {
		log.InfoContext(ctx, "session changed",
			"authenticated", session.Authenticated(),
			"username", session.User.Username(),
		)
	})
	defer unsubscribe()

	messageSvc := messagesvc.NewMessageService(cfg.Messages, nil)

	httpTransport := websvc.NewHTTPTransport(sessionSvc, messageSvc, cfg.HTTP)

	if err := http.ListenAndServe(ctx, httpTransport, cfg.HTTP.HTTPTransportConfig, mtr); err != nil {
		return fmt.Errorf("listen and serve: %w", err)
	}

	return nil
}
