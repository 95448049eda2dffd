package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"courier/internal/config"
	"courier/internal/constants"
	"courier/internal/correlate"
	"courier/internal/dispatch"
	"courier/internal/envelope"
	"courier/internal/logger"
	"courier/internal/relay"
	"courier/internal/supervisor"
	"courier/internal/telegram"
	"courier/pkg/health"
	"courier/pkg/metrics"
)

type App struct {
	Config *config.Config
	Logger logger.Logger

	supervisor *supervisor.Supervisor
	poller     *telegram.Poller
	server     *http.Server
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	if sugaredLogger, ok := log.(*logger.SugaredLogger); ok {
		sugaredLogger.SetServiceName("connector-service")
	}
	return &App{
		Config: cfg,
		Logger: log,
	}
}

func (a *App) Initialize(ctx context.Context) error {
	allowed := a.Config.Telegram.AllowedUsers()
	if len(allowed) == 0 {
		a.Logger.WarnwCtx(ctx, "TELEGRAM_ALLOWLIST is not set, the bot is open to everyone")
		a.Logger.WarnwCtx(ctx, "Set telegram.allowlist to a comma-separated list of allowed user ids or usernames")
	}

	table := correlate.NewTable()
	queue := relay.NewQueue()
	registry := relay.NewChatRegistry()
	codec := envelope.NewCodec(a.Config.Connector.ID)

	client := telegram.NewClient(a.Config.Telegram.Token, a.Config.Telegram.PollTimeout)
	router := dispatch.NewRouter(table, registry, client, a.Logger)

	a.supervisor = supervisor.New(supervisor.Config{
		BaseURL:        a.Config.Backend.URL,
		SessionTimeout: a.Config.Backend.SessionTimeout,
	}, table, queue, router, a.Logger)

	handler := telegram.NewHandler(
		codec,
		table,
		queue,
		registry,
		client,
		allowed,
		a.Config.Connector.ReplyTimeout,
		a.Logger,
	)
	a.poller = telegram.NewPoller(client, handler, a.Config.Telegram.PollTimeout, a.Logger)

	metrics.RegisterConnectorMetrics()

	if err := a.initHTTPServer(ctx); err != nil {
		return fmt.Errorf("failed to initialize HTTP server: %w", err)
	}

	return nil
}

func (a *App) initHTTPServer(ctx context.Context) error {
	mux := http.NewServeMux()

	healthRegistry := health.NewCheckerRegistry()
	healthRegistry.Register(health.NewStreamChecker(a.supervisor.Connected))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		h := healthRegistry.Check(r.Context())
		statusCode := http.StatusOK
		if h.Status == health.StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		fmt.Fprintf(w, `{"status":"%s","timestamp":"%s"}`, h.Status, h.Timestamp.Format(time.RFC3339))
	})

	mux.Handle("/metrics", promhttp.Handler())

	a.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler: mux,
	}

	return nil
}

func (a *App) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	if a.server != nil {
		g.Go(func() error {
			a.Logger.InfowCtx(ctx, "HTTP server starting", "port", a.Config.Server.Port)
			if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return fmt.Errorf("HTTP server error: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		return a.supervisor.Run(gCtx)
	})

	g.Go(func() error {
		return a.poller.Run(gCtx)
	})

	g.Go(func() error {
		<-gCtx.Done()
		return a.shutdownHTTPServer()
	})

	return g.Wait()
}

func (a *App) shutdownHTTPServer() error {
	if a.server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown error: %w", err)
	}
	return nil
}
