package handler

import (
	"context"
	"fmt"
	"log/slog"

	maxbot "github.com/max-messenger/max-bot-api-client-go"
	"github.com/max-messenger/max-bot-api-client-go/schemes"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"chatguard-bot/internal/config"
	"chatguard-bot/internal/service"
)

type Handler struct {
	logger *slog.Logger
	svc    service.Service
	bot    *maxbot.Api
	tracer trace.Tracer
	config *config.Config
}

func NewHandler(logger *slog.Logger, svc service.Service, bot *maxbot.Api, cfg *config.Config) *Handler {
	return &Handler{
		logger: logger,
		svc:    svc,
		bot:    bot,
		tracer: otel.Tracer("handler"),
		config: cfg,
	}
}

// isGlobalAdmin reports whether the user is one of the bot operators
// listed in ADMIN_USER_IDS. Operators bypass per-chat admin checks.
func (h *Handler) isGlobalAdmin(userID int64) bool {
	for _, id := range h.config.AdminUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (h *Handler) HandleUpdate(ctx context.Context, upd schemes.UpdateInterface) {
	var span trace.Span
	if h.config.EnableTelemetry {
		ctx, span = h.tracer.Start(ctx, "HandleUpdate")
		defer span.End()
	}

	switch u := upd.(type) {
	case *schemes.MessageCreatedUpdate:
		if h.config.EnableTelemetry {
			span.SetAttributes(attribute.String("update_type", "message_created"))
		}
		h.handleMessageCreated(ctx, u)
	case *schemes.MessageCallbackUpdate:
		if h.config.EnableTelemetry {
			span.SetAttributes(attribute.String("update_type", "message_callback"))
		}
		h.handleCallback(ctx, u)
	case *schemes.BotStartedUpdate:
		if h.config.EnableTelemetry {
			span.SetAttributes(attribute.String("update_type", "bot_started"))
		}
		h.handleBotStarted(ctx, u)
	default:
		h.logger.Debug("Received unhandled update type", "type", fmt.Sprintf("%T", u))
	}
}
