package main

import (
	"context"
	"errors"
	logg "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jaam8/election_bot/internal/api"
	"github.com/jaam8/election_bot/internal/clock"
	"github.com/jaam8/election_bot/internal/config"
	"github.com/jaam8/election_bot/internal/eventlog"
	"github.com/jaam8/election_bot/internal/identity"
	"github.com/jaam8/election_bot/internal/metrics"
	"github.com/jaam8/election_bot/internal/repository"
	srv "github.com/jaam8/election_bot/internal/service"
	"github.com/jaam8/election_bot/pkg/logger"
	"github.com/jaam8/election_bot/pkg/tarantool"
	"github.com/mattermost/mattermost-server/v6/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()
	cfg, err := config.New()
	if err != nil {
		logg.Fatalf("failed to load config: %s", err)
	}
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		logg.Fatalf("failed to initalize logger: %s", err)
	}
	defer func() { _ = log.Sync() }()

	sinks, closeSinks, err := auditSinks(cfg, log)
	if err != nil {
		logg.Fatalf("failed to set up audit: %s", err)
	}
	defer closeSinks()

	events := eventlog.New(log, sinks...)
	guard := identity.New(log)
	m := metrics.New(prometheus.DefaultRegisterer)
	repo := repository.New(events, log)
	service := srv.New(repo, guard, events, clock.System{}, m, log)

	if cfg.AdminID != "" {
		if err = service.Bootstrap(ctx, cfg.AdminID); err != nil {
			logg.Fatalf("failed to set administrator: %s", err)
		}
	} else {
		log.Warn("ADMIN_ID is empty, first `/election bootstrap` caller becomes administrator")
	}

	client := model.NewAPIv4Client(cfg.MmURL)
	client.SetToken(cfg.BotToken)
	webSocketClient, err := model.NewWebSocketClient4(cfg.MmWsURL, cfg.BotToken)
	if err != nil {
		logg.Fatalf("failed to connect to webSocket: %v", err)
	}
	handler := api.New(service, log, client, cfg.ChannelID)

	var botID string
	if user, _, err := client.GetUser("me", ""); err != nil {
		logg.Fatalf("failed to get user: %s", err)
	} else {
		botID = user.Id
	}

	metricsServer := &http.Server{
		Addr:              ":" + cfg.RestPort,
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("metrics listening", zap.String("port", cfg.RestPort))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server stopped", zap.Error(err))
		}
	}()

	webSocketClient.Listen()
	go func() {
		for event := range webSocketClient.EventChannel {
			if event.EventType() == model.WebsocketEventPosted {
				log.Debug("new message", zap.String("event", event.EventType()))
				handler.HandleMessage(ctx, event, botID)
			}
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop metrics server", zap.Error(err))
	}
	webSocketClient.Close()
	log.Info("server graceful stopped",
		zap.Uint64("elections", service.ElectionCount()),
		zap.Int("events", len(service.Events())))
}

// auditSinks builds the event mirror selected by AUDIT_BACKEND.
func auditSinks(cfg *config.Config, log *zap.Logger) ([]eventlog.Sink, func(), error) {
	switch cfg.AuditBackend {
	case config.AuditTarantool:
		conn, err := tarantool.New(cfg.Tarantool)
		if err != nil {
			return nil, nil, err
		}
		if err = tarantool.EnsureSpace(conn, repository.EventsSpace); err != nil {
			_ = conn.Close()
			return nil, nil, err
		}
		log.Info("auditing to tarantool", zap.String("addr", cfg.Tarantool.Addr()))
		return []eventlog.Sink{repository.NewTarantoolAuditSink(conn, log)},
			func() { _ = conn.CloseGraceful() }, nil
	case config.AuditBolt:
		sink, err := repository.NewBoltAuditSink(cfg.AuditBoltDir, log)
		if err != nil {
			return nil, nil, err
		}
		log.Info("auditing to bolt", zap.String("dir", cfg.AuditBoltDir))
		return []eventlog.Sink{sink}, func() { _ = sink.Close() }, nil
	default:
		return nil, func() {}, nil
	}
}
