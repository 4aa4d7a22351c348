package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PunishmentRepository interface {
	Create(ctx context.Context, p *Punishment) error
	ListRecent(ctx context.Context, chatID int64, limit int) ([]Punishment, error)
	IncrementStat(ctx context.Context, chatID int64, field string) error
	GetChatTotalStats(ctx context.Context, chatID int64) (*ChatStats, error)
}

type PostgresPunishmentRepository struct {
	db *gorm.DB
}

func NewPunishmentRepository(db *gorm.DB) PunishmentRepository {
	return &PostgresPunishmentRepository{db: db}
}

func (r *PostgresPunishmentRepository) Create(ctx context.Context, p *Punishment) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("failed to record punishment: %w", err)
	}
	return nil
}

func (r *PostgresPunishmentRepository) ListRecent(ctx context.Context, chatID int64, limit int) ([]Punishment, error) {
	var punishments []Punishment
	err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at DESC").
		Limit(limit).
		Find(&punishments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list punishments: %w", err)
	}
	return punishments, nil
}

func statRow(chatID int64, date time.Time, field string) ChatStats {
	row := ChatStats{ChatID: chatID, Date: date}
	switch field {
	case "blocklist_hits":
		row.BlocklistHits = 1
	case "warnings_issued":
		row.WarningsIssued = 1
	case "punishments_applied":
		row.PunishmentsApplied = 1
	case "messages_deleted":
		row.MessagesDeleted = 1
	}
	return row
}

func (r *PostgresPunishmentRepository) IncrementStat(ctx context.Context, chatID int64, field string) error {
	day := time.Now().Truncate(24 * time.Hour)
	row := statRow(chatID, day, field)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "chat_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			field: clause.Expr{SQL: "chat_stats." + field + " + 1"},
		}),
	}).Create(&row).Error
}

func (r *PostgresPunishmentRepository) GetChatTotalStats(ctx context.Context, chatID int64) (*ChatStats, error) {
	var stats ChatStats
	err := r.db.WithContext(ctx).Model(&ChatStats{}).
		Select("chat_id, SUM(blocklist_hits) as blocklist_hits, SUM(warnings_issued) as warnings_issued, SUM(punishments_applied) as punishments_applied, SUM(messages_deleted) as messages_deleted").
		Where("chat_id = ?", chatID).
		Group("chat_id").
		First(&stats).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &ChatStats{ChatID: chatID}, nil
		}
		return nil, fmt.Errorf("failed to get chat stats: %w", err)
	}
	return &stats, nil
}
