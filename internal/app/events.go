package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"chatguard-bot/internal/repository"
	"chatguard-bot/internal/service"
	"chatguard-bot/internal/transport/events"
)

// eventBridge routes verified external event pushes into the engine.
// User reports become warnings and ride the normal escalation path.
type eventBridge struct {
	logger *slog.Logger
	svc    service.Service
}

func newEventBridge(logger *slog.Logger, svc service.Service) *eventBridge {
	return &eventBridge{logger: logger, svc: svc}
}

func (b *eventBridge) HandleNotification(ctx context.Context, n events.Notification) error {
	switch n.Kind {
	case "report":
		out, err := b.svc.IssueWarning(ctx, n.ChatID, n.UserID, n.ReporterID, n.Reason)
		if err != nil {
			return fmt.Errorf("failed to process report: %w", err)
		}
		if out.Triggered {
			var dur *time.Duration
			if out.ThresholdDurationMinutes != nil {
				d := time.Duration(*out.ThresholdDurationMinutes) * time.Minute
				dur = &d
			}
			b.svc.ExecutePunishment(ctx, service.PunishmentRequest{
				ChatID:     n.ChatID,
				UserID:     n.UserID,
				IssuedByID: n.ReporterID,
				Type:       out.ThresholdAction,
				Duration:   dur,
				Reason:     n.Reason,
				Source:     repository.SourceThreshold,
			})
		}
		return nil
	default:
		b.logger.Warn("Ignoring event of unknown kind", "kind", n.Kind)
		return nil
	}
}
