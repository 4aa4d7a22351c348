package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var ErrPatternNotFound = errors.New("pattern not found")

type PatternRepository interface {
	// Upsert creates a pattern or, when (chatID, patternText) already
	// exists, updates its match type, action, duration and severity in
	// place. The second return value reports which of the two happened.
	Upsert(ctx context.Context, p *BlocklistPattern) (*BlocklistPattern, bool, error)
	Delete(ctx context.Context, chatID int64, id uint) error
	// ListForChat returns the chat's own patterns followed by global ones.
	// The relative order of equal-severity matches downstream follows this
	// ordering and is implementation-defined, not part of the contract.
	ListForChat(ctx context.Context, chatID int64) ([]BlocklistPattern, error)
}

type PostgresPatternRepository struct {
	db *gorm.DB
}

func NewPatternRepository(db *gorm.DB) PatternRepository {
	return &PostgresPatternRepository{db: db}
}

func (r *PostgresPatternRepository) Upsert(ctx context.Context, p *BlocklistPattern) (*BlocklistPattern, bool, error) {
	var existing BlocklistPattern
	wasUpdate := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Where("pattern_text = ?", p.PatternText)
		if p.ChatID == nil {
			q = q.Where("chat_id IS NULL")
		} else {
			q = q.Where("chat_id = ?", *p.ChatID)
		}

		err := q.First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := tx.Create(p).Error; err != nil {
				return fmt.Errorf("failed to create pattern: %w", err)
			}
			existing = *p
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to look up pattern: %w", err)
		}

		wasUpdate = true
		existing.MatchType = p.MatchType
		existing.Action = p.Action
		existing.ActionDurationHours = p.ActionDurationHours
		existing.Severity = p.Severity
		if err := tx.Save(&existing).Error; err != nil {
			return fmt.Errorf("failed to update pattern: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &existing, wasUpdate, nil
}

func (r *PostgresPatternRepository) Delete(ctx context.Context, chatID int64, id uint) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND chat_id = ?", id, chatID).
		Delete(&BlocklistPattern{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete pattern: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrPatternNotFound
	}
	return nil
}

func (r *PostgresPatternRepository) ListForChat(ctx context.Context, chatID int64) ([]BlocklistPattern, error) {
	var patterns []BlocklistPattern
	err := r.db.WithContext(ctx).
		Where("chat_id = ? OR chat_id IS NULL", chatID).
		Order("chat_id IS NULL, id").
		Find(&patterns).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list patterns: %w", err)
	}
	return patterns, nil
}
