package service

import (
	"context"
	"fmt"
	"time"

	"chatguard-bot/internal/audit"
	"chatguard-bot/internal/metrics"
	"chatguard-bot/internal/repository"
)

// WarningOutcome reports the state of a user's warning counter right
// after a warning was issued. Triggered is true only on the call that
// moved the active count onto the threshold.
type WarningOutcome struct {
	ActiveCount              int64
	MaxWarnings              int
	Triggered                bool
	ThresholdAction          repository.ActionType
	ThresholdDurationMinutes *int
}

func (s *ModerationService) IssueWarning(ctx context.Context, chatID, userID, issuedByID int64, reason string) (*WarningOutcome, error) {
	ctx, span := s.tracer.Start(ctx, "IssueWarning")
	defer span.End()

	cfg, err := s.configRepo.GetConfig(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat config: %w", err)
	}

	warning := &repository.Warning{
		ChatID:     chatID,
		UserID:     userID,
		IssuedByID: issuedByID,
		Reason:     reason,
		Active:     true,
		ExpiresAt:  time.Now().Add(time.Duration(cfg.WarningTTLHours) * time.Hour),
	}

	// Insert and count under a per-(chat, user) lock so concurrent
	// warnings observe distinct counts and exactly one call lands on
	// the threshold.
	key := fmt.Sprintf("%d:%d", chatID, userID)
	s.warnLocks.Lock(key)
	count, err := s.warningRepo.InsertAndCount(ctx, warning)
	s.warnLocks.Unlock(key)
	if err != nil {
		return nil, fmt.Errorf("failed to record warning: %w", err)
	}

	triggered := count == int64(cfg.MaxWarnings)

	metrics.WarningsIssued.Inc()
	if triggered {
		metrics.ThresholdTriggers.Inc()
	}
	go func() {
		if err := s.punishmentRepo.IncrementStat(context.Background(), chatID, "warnings_issued"); err != nil {
			s.logger.Error("Failed to increment warning stat", "error", err)
		}
	}()

	s.auditLog.LogImmediate(ctx, audit.Entry{
		ChatID:    chatID,
		AdminID:   issuedByID,
		Action:    "WARN",
		Reason:    fmt.Sprintf("user %d: %s (%d/%d)", userID, reason, count, cfg.MaxWarnings),
		Timestamp: time.Now(),
	})

	s.logger.Info("Warning issued",
		"chat_id", chatID, "user_id", userID, "count", count, "triggered", triggered)

	return &WarningOutcome{
		ActiveCount:              count,
		MaxWarnings:              cfg.MaxWarnings,
		Triggered:                triggered,
		ThresholdAction:          cfg.ThresholdAction,
		ThresholdDurationMinutes: cfg.ThresholdDurationMinutes,
	}, nil
}

// RemoveWarnings deactivates every active warning for the user. Calling
// it for a clean user is a no-op.
func (s *ModerationService) RemoveWarnings(ctx context.Context, chatID, userID, issuedByID int64) error {
	ctx, span := s.tracer.Start(ctx, "RemoveWarnings")
	defer span.End()

	removed, err := s.warningRepo.DeactivateAll(ctx, chatID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove warnings: %w", err)
	}
	if removed == 0 {
		return nil
	}

	s.auditLog.LogImmediate(ctx, audit.Entry{
		ChatID:    chatID,
		AdminID:   issuedByID,
		Action:    "UNWARN",
		Reason:    fmt.Sprintf("user %d: %d warning(s) cleared", userID, removed),
		Timestamp: time.Now(),
	})

	s.logger.Info("Warnings cleared", "chat_id", chatID, "user_id", userID, "removed", removed)
	return nil
}
