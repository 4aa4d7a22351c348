package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chatguard-bot/internal/audit"
	"chatguard-bot/internal/repository"
	"chatguard-bot/internal/utils"
)

var (
	ErrEmptyPattern    = errors.New("pattern text is empty")
	ErrInvalidSeverity = fmt.Errorf("severity must be between %d and %d", repository.MinSeverity, repository.MaxSeverity)
)

// PatternInput carries the admin's raw pattern submission. Action and
// MatchType arrive as strings straight from the command parser.
type PatternInput struct {
	Text          string
	MatchType     string
	Action        string
	DurationHours *int
	Severity      int
	AdminID       int64
	Global        bool
}

// AddPattern validates and upserts a blocklist pattern. The second return
// value reports whether an existing pattern was updated rather than a new
// one created.
func (s *ModerationService) AddPattern(ctx context.Context, chatID int64, input PatternInput) (*repository.BlocklistPattern, bool, error) {
	ctx, span := s.tracer.Start(ctx, "AddPattern")
	defer span.End()

	text := utils.NormalizePattern(input.Text)
	if text == "" {
		return nil, false, ErrEmptyPattern
	}
	if input.Severity < repository.MinSeverity || input.Severity > repository.MaxSeverity {
		return nil, false, ErrInvalidSeverity
	}

	matchType := repository.MatchExact
	if input.MatchType != "" {
		mt, err := repository.ParseMatchType(input.MatchType)
		if err != nil {
			return nil, false, err
		}
		matchType = mt
	}

	var action repository.ActionType
	if input.Action != "" {
		a, err := repository.ParseAction(input.Action)
		if err != nil {
			return nil, false, err
		}
		action = a
	}

	pattern := &repository.BlocklistPattern{
		PatternText:         text,
		MatchType:           matchType,
		Action:              action,
		ActionDurationHours: input.DurationHours,
		Severity:            input.Severity,
	}
	if !input.Global {
		id := chatID
		pattern.ChatID = &id
	}

	saved, updated, err := s.patternRepo.Upsert(ctx, pattern)
	if err != nil {
		return nil, false, fmt.Errorf("failed to save pattern: %w", err)
	}

	verb := "PATTERN_ADDED"
	if updated {
		verb = "PATTERN_UPDATED"
	}
	s.auditLog.LogImmediate(ctx, audit.Entry{
		ChatID:    chatID,
		AdminID:   input.AdminID,
		Action:    verb,
		Reason:    fmt.Sprintf("%q (%s, %s, severity %d)", saved.PatternText, saved.MatchType, saved.Action, saved.Severity),
		Timestamp: time.Now(),
	})

	s.logger.Info("Pattern saved", "chat_id", chatID, "pattern", saved.PatternText, "updated", updated)
	return saved, updated, nil
}

func (s *ModerationService) RemovePattern(ctx context.Context, chatID int64, id uint) error {
	ctx, span := s.tracer.Start(ctx, "RemovePattern")
	defer span.End()

	if err := s.patternRepo.Delete(ctx, chatID, id); err != nil {
		return err
	}
	s.logger.Info("Pattern removed", "chat_id", chatID, "pattern_id", id)
	return nil
}

func (s *ModerationService) ListPatterns(ctx context.Context, chatID int64) ([]repository.BlocklistPattern, error) {
	ctx, span := s.tracer.Start(ctx, "ListPatterns")
	defer span.End()
	return s.patternRepo.ListForChat(ctx, chatID)
}
