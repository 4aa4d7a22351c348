package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	maxbot "github.com/max-messenger/max-bot-api-client-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"chatguard-bot/internal/audit"
	"chatguard-bot/internal/config"
	"chatguard-bot/internal/handler"
	"chatguard-bot/internal/metrics"
	"chatguard-bot/internal/platform"
	"chatguard-bot/internal/repository"
	"chatguard-bot/internal/service"
	"chatguard-bot/internal/transport/events"
	"chatguard-bot/internal/transport/polling"
	"chatguard-bot/internal/transport/webhook"
)

type App struct {
	cfg    *config.Config
	logger *slog.Logger
	bot    *maxbot.Api
	tracer trace.Tracer
}

func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	bot, err := maxbot.New(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot client: %w", err)
	}

	return &App{
		cfg:    cfg,
		logger: logger,
		bot:    bot,
		tracer: otel.Tracer("chatguard-bot"),
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a.logger.Info("Starting ChatGuard Bot")

	botInfo, err := a.bot.Bots.GetBot(ctx)
	if err != nil {
		return fmt.Errorf("failed to get bot info: %w", err)
	}
	a.logger.Info("Bot connected", "username", botInfo.Username, "id", botInfo.UserId)

	db, err := repository.NewPostgresDB(a.cfg.GetDSN())
	if err != nil {
		return fmt.Errorf("failed to init db: %w", err)
	}

	configRepo := repository.NewConfigRepository(db, a.cfg.EnableCache)
	patternRepo := repository.NewPatternRepository(db)
	warningRepo := repository.NewWarningRepository(db)
	punishmentRepo := repository.NewPunishmentRepository(db)
	restrictionRepo := repository.NewRestrictionRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	tokenRepo := repository.NewPairingTokenRepository(db)

	client := platform.NewBotClient(a.logger, a.bot, restrictionRepo)
	auditLog := service.NewAuditDispatcher(a.logger, client, configRepo, audit.DefaultDebounceWindow)
	defer auditLog.Flush()

	svc := service.NewModerationService(
		a.logger,
		configRepo, patternRepo, warningRepo, punishmentRepo,
		restrictionRepo, sessionRepo, tokenRepo,
		client, client, auditLog,
	)
	svc.StartMetricsUpdater(ctx)
	svc.StartSweeper(ctx)

	h := handler.NewHandler(a.logger, svc, a.bot, a.cfg)

	metricsSrv := metrics.NewServer(a.logger, a.cfg.MetricsAddr)
	go func() {
		if err := metricsSrv.Listen(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("Metrics server failed", "error", err)
		}
	}()

	if a.cfg.EventsAddr != "" && a.cfg.WebhookSecret != "" {
		eventsSrv := events.NewServer(a.logger, a.cfg.EventsAddr, a.cfg.WebhookSecret,
			newEventBridge(a.logger, svc))
		go func() {
			if err := eventsSrv.Listen(); err != nil && err != http.ErrServerClosed {
				a.logger.Error("Events server failed", "error", err)
			}
		}()
		defer func() {
			if err := eventsSrv.Shutdown(context.Background()); err != nil {
				a.logger.Error("Events server shutdown failed", "error", err)
			}
		}()
	}

	if a.cfg.WebhookHost != "" {
		a.logger.Info("Starting in Webhook mode", "host", a.cfg.WebhookHost)
		srv := webhook.NewServer(a.logger, a.bot, a.cfg.WebhookHost, a.cfg.Port, a.cfg.WebhookSecret)

		updates, cleanup, err := srv.Start(ctx)
		if err != nil {
			return fmt.Errorf("failed to start webhook server: %w", err)
		}
		if cleanup != nil {
			defer func() {
				if err := cleanup(); err != nil {
					a.logger.Error("Cleanup failed", "error", err)
				}
			}()
		}
		go polling.Consume(ctx, updates, h.HandleUpdate)
	} else {
		poller := polling.NewPoller(a.logger, a.bot, h.HandleUpdate)
		go poller.Run(ctx)
	}

	<-ctx.Done()
	a.logger.Info("Shutting down...")

	return nil
}
