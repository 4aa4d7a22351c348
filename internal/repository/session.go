package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

type SessionRepository interface {
	// Connect replaces any existing session for the user: one connected
	// chat per admin, ever.
	Connect(ctx context.Context, userID, chatID int64, chatTitle string) error
	// Disconnect is a no-op when no session exists.
	Disconnect(ctx context.Context, userID int64) error
	// Get returns (nil, nil) when the user has no session.
	Get(ctx context.Context, userID int64) (*AdminSession, error)
}

type PostgresSessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &PostgresSessionRepository{db: db}
}

func (r *PostgresSessionRepository) Connect(ctx context.Context, userID, chatID int64, chatTitle string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&AdminSession{}).Error; err != nil {
			return fmt.Errorf("failed to clear previous session: %w", err)
		}
		session := AdminSession{
			UserID:    userID,
			ChatID:    chatID,
			ChatTitle: chatTitle,
			CreatedAt: time.Now(),
		}
		if err := tx.Create(&session).Error; err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}
		return nil
	})
}

func (r *PostgresSessionRepository) Disconnect(ctx context.Context, userID int64) error {
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&AdminSession{}).Error; err != nil {
		return fmt.Errorf("failed to disconnect session: %w", err)
	}
	return nil
}

func (r *PostgresSessionRepository) Get(ctx context.Context, userID int64) (*AdminSession, error) {
	var session AdminSession
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, nil
}
