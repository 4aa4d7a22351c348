package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

type WarningRepository interface {
	// InsertAndCount creates the warning and returns the active count for
	// its (chat, user) inside one transaction, so the count reflects the
	// row just written. Callers serialize per key around it.
	InsertAndCount(ctx context.Context, w *Warning) (int64, error)
	CountActive(ctx context.Context, chatID, userID int64) (int64, error)
	// DeactivateAll soft-deletes every active warning for the user and
	// returns how many rows it touched. Zero rows is not an error.
	DeactivateAll(ctx context.Context, chatID, userID int64) (int64, error)
	ListActive(ctx context.Context, chatID, userID int64) ([]Warning, error)
}

type PostgresWarningRepository struct {
	db *gorm.DB
}

func NewWarningRepository(db *gorm.DB) WarningRepository {
	return &PostgresWarningRepository{db: db}
}

func activeScope(db *gorm.DB, chatID, userID int64) *gorm.DB {
	return db.Model(&Warning{}).
		Where("chat_id = ? AND user_id = ? AND active AND expires_at > ?", chatID, userID, time.Now())
}

func (r *PostgresWarningRepository) InsertAndCount(ctx context.Context, w *Warning) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(w).Error; err != nil {
			return fmt.Errorf("failed to create warning: %w", err)
		}
		if err := activeScope(tx, w.ChatID, w.UserID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count active warnings: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PostgresWarningRepository) CountActive(ctx context.Context, chatID, userID int64) (int64, error) {
	var count int64
	if err := activeScope(r.db.WithContext(ctx), chatID, userID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count active warnings: %w", err)
	}
	return count, nil
}

func (r *PostgresWarningRepository) DeactivateAll(ctx context.Context, chatID, userID int64) (int64, error) {
	res := activeScope(r.db.WithContext(ctx), chatID, userID).Update("active", false)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to deactivate warnings: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *PostgresWarningRepository) ListActive(ctx context.Context, chatID, userID int64) ([]Warning, error) {
	var warnings []Warning
	err := activeScope(r.db.WithContext(ctx), chatID, userID).
		Order("created_at").
		Find(&warnings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active warnings: %w", err)
	}
	return warnings, nil
}
