package service

import (
	"context"
	"fmt"
	"time"

	"chatguard-bot/internal/audit"
	"chatguard-bot/internal/metrics"
	"chatguard-bot/internal/repository"
	"chatguard-bot/internal/utils"
)

// PunishmentRequest describes one punishment to execute. A nil Duration
// means the restriction is permanent.
type PunishmentRequest struct {
	ChatID     int64
	UserID     int64
	IssuedByID int64
	Type       repository.ActionType
	Duration   *time.Duration
	Reason     string
	Source     repository.PunishmentSource
}

func (r PunishmentRequest) until() *time.Time {
	if r.Duration == nil {
		return nil
	}
	t := time.Now().Add(*r.Duration)
	return &t
}

func (r PunishmentRequest) durationSeconds() *int64 {
	if r.Duration == nil {
		return nil
	}
	secs := int64(r.Duration.Seconds())
	return &secs
}

// ExecutePunishment applies the requested action and records it in the
// punishment ledger. Every accepted request writes exactly one ledger
// row, whatever its outcome; a malformed request writes none. The return
// value reports whether the action took effect (NOTHING counts as
// success: there was nothing to fail).
func (s *ModerationService) ExecutePunishment(ctx context.Context, req PunishmentRequest) bool {
	ctx, span := s.tracer.Start(ctx, "ExecutePunishment")
	defer span.End()

	var result repository.PunishmentResult
	var actionErr error

	switch req.Type {
	case repository.ActionNothing:
		result = repository.ResultSkipped
	case repository.ActionMute:
		actionErr = s.platform.Mute(ctx, req.ChatID, req.UserID, req.until())
	case repository.ActionBan:
		actionErr = s.platform.Ban(ctx, req.ChatID, req.UserID, req.until())
	case repository.ActionKick:
		actionErr = s.platform.Kick(ctx, req.ChatID, req.UserID)
	default:
		s.logger.Error("Rejected punishment with unknown type",
			"chat_id", req.ChatID, "user_id", req.UserID, "type", req.Type)
		return false
	}

	if result == "" {
		if actionErr != nil {
			result = repository.ResultFailed
			s.logger.Error("Failed to apply punishment",
				"chat_id", req.ChatID, "user_id", req.UserID, "type", req.Type, "error", actionErr)
		} else {
			result = repository.ResultApplied
		}
	}

	record := &repository.Punishment{
		ChatID:          req.ChatID,
		UserID:          req.UserID,
		IssuedByID:      req.IssuedByID,
		Type:            req.Type,
		DurationSeconds: req.durationSeconds(),
		Reason:          req.Reason,
		Source:          req.Source,
		Result:          result,
	}
	if err := s.punishmentRepo.Create(ctx, record); err != nil {
		s.logger.Error("Failed to record punishment", "chat_id", req.ChatID, "user_id", req.UserID, "error", err)
	}

	metrics.IncPunishment(string(req.Type), string(req.Source), string(result))
	if result == repository.ResultApplied && req.Type != repository.ActionNothing {
		go func() {
			if err := s.punishmentRepo.IncrementStat(context.Background(), req.ChatID, "punishments_applied"); err != nil {
				s.logger.Error("Failed to increment punishment stat", "error", err)
			}
		}()
	}

	s.auditLog.LogImmediate(ctx, audit.Entry{
		ChatID:    req.ChatID,
		AdminID:   req.IssuedByID,
		Action:    string(req.Type),
		Source:    req.Source,
		Reason:    fmt.Sprintf("user %d: %s (%s, %s)", req.UserID, req.Reason, durationLabel(req.Duration), result),
		Timestamp: time.Now(),
	})

	return result != repository.ResultFailed
}

func durationLabel(d *time.Duration) string {
	if d == nil {
		return "permanent"
	}
	return utils.HumanDuration(*d)
}

func (s *ModerationService) Unmute(ctx context.Context, chatID, adminID, userID int64) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "Unmute")
	defer span.End()

	lifted, err := s.platform.Unmute(ctx, chatID, userID)
	if err != nil {
		return false, err
	}
	if lifted {
		s.auditLog.LogImmediate(ctx, audit.Entry{
			ChatID:    chatID,
			AdminID:   adminID,
			Action:    "UNMUTE",
			Reason:    fmt.Sprintf("user %d", userID),
			Timestamp: time.Now(),
		})
	}
	return lifted, nil
}

func (s *ModerationService) Unban(ctx context.Context, chatID, adminID, userID int64) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "Unban")
	defer span.End()

	lifted, err := s.platform.Unban(ctx, chatID, userID)
	if err != nil {
		return false, err
	}
	if lifted {
		s.auditLog.LogImmediate(ctx, audit.Entry{
			ChatID:    chatID,
			AdminID:   adminID,
			Action:    "UNBAN",
			Reason:    fmt.Sprintf("user %d", userID),
			Timestamp: time.Now(),
		})
	}
	return lifted, nil
}

// RecentPunishments returns the chat's newest ledger rows, newest first.
func (s *ModerationService) RecentPunishments(ctx context.Context, chatID int64, limit int) ([]repository.Punishment, error) {
	ctx, span := s.tracer.Start(ctx, "RecentPunishments")
	defer span.End()
	return s.punishmentRepo.ListRecent(ctx, chatID, limit)
}
