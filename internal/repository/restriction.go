package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

type RestrictionRepository interface {
	// Apply upserts a restriction of the given kind; an existing one is
	// only extended, never shortened.
	Apply(ctx context.Context, chatID, userID int64, kind RestrictionKind, until time.Time) error
	// Lift removes the restriction and reports whether there was one.
	Lift(ctx context.Context, chatID, userID int64, kind RestrictionKind) (bool, error)
	IsRestricted(ctx context.Context, chatID, userID int64) (bool, RestrictionKind, time.Time, error)
	CountActive(ctx context.Context) (int64, error)
	DeleteExpired(ctx context.Context) error
}

type PostgresRestrictionRepository struct {
	db *gorm.DB
}

func NewRestrictionRepository(db *gorm.DB) RestrictionRepository {
	return &PostgresRestrictionRepository{db: db}
}

func (r *PostgresRestrictionRepository) Apply(ctx context.Context, chatID, userID int64, kind RestrictionKind, until time.Time) error {
	var existing Restriction
	err := r.db.WithContext(ctx).
		Where("chat_id = ? AND user_id = ? AND kind = ?", chatID, userID, kind).
		First(&existing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			row := Restriction{ChatID: chatID, UserID: userID, Kind: kind, ExpiresAt: until}
			if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
				return fmt.Errorf("failed to create restriction: %w", err)
			}
			return nil
		}
		return fmt.Errorf("failed to check existing restriction: %w", err)
	}

	if until.After(existing.ExpiresAt) {
		if err := r.db.WithContext(ctx).Model(&existing).Update("expires_at", until).Error; err != nil {
			return fmt.Errorf("failed to extend restriction: %w", err)
		}
	}
	return nil
}

func (r *PostgresRestrictionRepository) Lift(ctx context.Context, chatID, userID int64, kind RestrictionKind) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("chat_id = ? AND user_id = ? AND kind = ? AND expires_at > ?", chatID, userID, kind, time.Now()).
		Delete(&Restriction{})
	if res.Error != nil {
		return false, fmt.Errorf("failed to lift restriction: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *PostgresRestrictionRepository) IsRestricted(ctx context.Context, chatID, userID int64) (bool, RestrictionKind, time.Time, error) {
	var restriction Restriction
	err := r.db.WithContext(ctx).
		Where("chat_id = ? AND user_id = ? AND expires_at > ?", chatID, userID, time.Now()).
		Order("expires_at DESC").
		First(&restriction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, "", time.Time{}, nil
		}
		return false, "", time.Time{}, fmt.Errorf("failed to check restriction: %w", err)
	}
	return true, restriction.Kind, restriction.ExpiresAt, nil
}

func (r *PostgresRestrictionRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Restriction{}).
		Where("expires_at > ?", time.Now()).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count restrictions: %w", err)
	}
	return count, nil
}

func (r *PostgresRestrictionRepository) DeleteExpired(ctx context.Context) error {
	if err := r.db.WithContext(ctx).Where("expires_at <= ?", time.Now()).Delete(&Restriction{}).Error; err != nil {
		return fmt.Errorf("failed to delete expired restrictions: %w", err)
	}
	return nil
}
