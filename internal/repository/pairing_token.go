package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PairingTokenRepository interface {
	Create(ctx context.Context, userID int64, ttl time.Duration) (string, error)
	Get(ctx context.Context, token string) (*PairingToken, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context) error
}

type PostgresPairingTokenRepository struct {
	db *gorm.DB
}

func NewPairingTokenRepository(db *gorm.DB) PairingTokenRepository {
	return &PostgresPairingTokenRepository{db: db}
}

func (r *PostgresPairingTokenRepository) Create(ctx context.Context, userID int64, ttl time.Duration) (string, error) {
	token := uuid.New().String()
	row := PairingToken{
		Token:     token,
		UserID:    userID,
		ExpiresAt: time.Now().Add(ttl),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", fmt.Errorf("failed to create pairing token: %w", err)
	}
	return token, nil
}

func (r *PostgresPairingTokenRepository) Get(ctx context.Context, token string) (*PairingToken, error) {
	var row PairingToken
	if err := r.db.WithContext(ctx).First(&row, "token = ?", token).Error; err != nil {
		return nil, fmt.Errorf("failed to get pairing token: %w", err)
	}
	if time.Now().After(row.ExpiresAt) {
		if err := r.Delete(ctx, token); err != nil {
			return nil, errors.Join(gorm.ErrRecordNotFound, err)
		}
		return nil, gorm.ErrRecordNotFound
	}
	return &row, nil
}

func (r *PostgresPairingTokenRepository) Delete(ctx context.Context, token string) error {
	if err := r.db.WithContext(ctx).Delete(&PairingToken{}, "token = ?", token).Error; err != nil {
		return fmt.Errorf("failed to delete pairing token: %w", err)
	}
	return nil
}

func (r *PostgresPairingTokenRepository) DeleteExpired(ctx context.Context) error {
	if err := r.db.WithContext(ctx).Where("expires_at < ?", time.Now()).Delete(&PairingToken{}).Error; err != nil {
		return fmt.Errorf("failed to delete expired tokens: %w", err)
	}
	return nil
}
