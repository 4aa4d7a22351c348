package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/max-messenger/max-bot-api-client-go/schemes"
	"go.opentelemetry.io/otel/attribute"

	"chatguard-bot/internal/repository"
)

func (h *Handler) handleCallback(ctx context.Context, upd *schemes.MessageCallbackUpdate) {
	payload := upd.Callback.Payload
	userID := upd.Callback.User.UserId

	ctx, span := h.tracer.Start(ctx, "handleCallback")
	defer span.End()
	span.SetAttributes(
		attribute.String("payload", payload),
		attribute.Int64("user_id", userID),
	)

	h.logger.Info("Received callback", "payload", payload, "user_id", userID)

	// Config menus are replaced, not stacked.
	if upd.Message != nil {
		go func() {
			bgCtx := context.Background()
			if _, err := h.bot.Messages.DeleteMessage(bgCtx, upd.Message.Body.Mid); err != nil {
				h.logger.Warn("Failed to delete callback message", "error", err)
			}
		}()
	}

	var chatID int64
	switch {
	case strings.HasPrefix(payload, "cfg_scan_"):
		if _, err := fmt.Sscanf(payload, "cfg_scan_%d", &chatID); err == nil {
			h.handleConfigCallback(ctx, chatID, userID, func(ctx context.Context) error {
				_, err := h.svc.ToggleScan(ctx, chatID, userID)
				return err
			})
		}
	case strings.HasPrefix(payload, "cfg_warn_dec_"):
		if _, err := fmt.Sscanf(payload, "cfg_warn_dec_%d", &chatID); err == nil {
			h.handleConfigCallback(ctx, chatID, userID, func(ctx context.Context) error {
				_, err := h.svc.AdjustMaxWarnings(ctx, chatID, userID, -1)
				return err
			})
		}
	case strings.HasPrefix(payload, "cfg_warn_inc_"):
		if _, err := fmt.Sscanf(payload, "cfg_warn_inc_%d", &chatID); err == nil {
			h.handleConfigCallback(ctx, chatID, userID, func(ctx context.Context) error {
				_, err := h.svc.AdjustMaxWarnings(ctx, chatID, userID, 1)
				return err
			})
		}
	case strings.HasPrefix(payload, "cfg_threshold_"):
		if _, err := fmt.Sscanf(payload, "cfg_threshold_%d", &chatID); err == nil {
			h.handleConfigCallback(ctx, chatID, userID, func(ctx context.Context) error {
				_, err := h.svc.CycleThresholdAction(ctx, chatID, userID)
				return err
			})
		}
	default:
		h.logger.Warn("Unknown callback payload", "payload", payload)
	}
}

// handleConfigCallback verifies the pressing user still admins the chat,
// applies the edit and redraws the menu with the new state.
func (h *Handler) handleConfigCallback(ctx context.Context, chatID, userID int64, apply func(context.Context) error) {
	isAdmin, err := h.svc.IsChatAdmin(ctx, chatID, userID, false)
	if err != nil {
		h.logger.Error("Failed to check admin status for callback", "error", err)
		return
	}
	if !isAdmin {
		h.logger.Warn("Non-admin pressed a config button", "chat_id", chatID, "user_id", userID)
		return
	}

	if err := apply(ctx); err != nil {
		h.logger.Error("Failed to apply config edit", "chat_id", chatID, "error", err)
		return
	}

	session, err := h.svc.GetSession(ctx, userID)
	if err != nil || session == nil || session.ChatID != chatID {
		session = &repository.AdminSession{ChatID: chatID}
	}
	h.sendConfigMenu(ctx, userID, session)
}
