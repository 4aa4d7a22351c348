package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"chatguard-bot/internal/audit"
	"chatguard-bot/internal/repository"
)

var (
	ErrTokenInvalid  = errors.New("pairing token is invalid or expired")
	ErrTokenNotYours = errors.New("pairing token was issued for another user")
)

// Connect binds the admin's private dialog to a chat so subsequent
// private commands target it. Any previous session is replaced.
func (s *ModerationService) Connect(ctx context.Context, userID, chatID int64, chatTitle string) error {
	ctx, span := s.tracer.Start(ctx, "Connect")
	defer span.End()

	if err := s.sessionRepo.Connect(ctx, userID, chatID, chatTitle); err != nil {
		return fmt.Errorf("failed to connect session: %w", err)
	}
	s.logger.Info("Admin session connected", "user_id", userID, "chat_id", chatID)
	return nil
}

func (s *ModerationService) Disconnect(ctx context.Context, userID int64) error {
	ctx, span := s.tracer.Start(ctx, "Disconnect")
	defer span.End()
	return s.sessionRepo.Disconnect(ctx, userID)
}

func (s *ModerationService) GetSession(ctx context.Context, userID int64) (*repository.AdminSession, error) {
	ctx, span := s.tracer.Start(ctx, "GetSession")
	defer span.End()
	return s.sessionRepo.Get(ctx, userID)
}

// GeneratePairingToken issues a one-time token the admin posts in the
// target chat to prove they can write there.
func (s *ModerationService) GeneratePairingToken(ctx context.Context, userID int64) (string, error) {
	ctx, span := s.tracer.Start(ctx, "GeneratePairingToken")
	defer span.End()

	token, err := s.tokenRepo.Create(ctx, userID, pairingTTL)
	if err != nil {
		return "", fmt.Errorf("failed to create pairing token: %w", err)
	}
	return token, nil
}

// RedeemPairingToken consumes the token posted in a chat and connects
// the issuing admin to that chat.
func (s *ModerationService) RedeemPairingToken(ctx context.Context, token string, chatID, userID int64, chatTitle string) error {
	ctx, span := s.tracer.Start(ctx, "RedeemPairingToken")
	defer span.End()

	stored, err := s.tokenRepo.Get(ctx, token)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrTokenInvalid
	}
	if err != nil {
		return fmt.Errorf("failed to look up pairing token: %w", err)
	}
	if stored.UserID != userID {
		return ErrTokenNotYours
	}

	if err := s.sessionRepo.Connect(ctx, userID, chatID, chatTitle); err != nil {
		return fmt.Errorf("failed to connect session: %w", err)
	}
	if err := s.tokenRepo.Delete(ctx, token); err != nil {
		s.logger.Error("Failed to burn pairing token", "error", err)
	}

	s.auditLog.LogImmediate(ctx, audit.Entry{
		ChatID:    chatID,
		AdminID:   userID,
		Action:    "PAIRED",
		Reason:    "admin paired via token",
		Timestamp: time.Now(),
	})
	return nil
}
