package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

type ConfigRepository interface {
	// GetConfig returns the chat's config, creating a defaults row on the
	// first miss.
	GetConfig(ctx context.Context, chatID int64) (*ChatConfig, error)
	UpdateConfig(ctx context.Context, cfg *ChatConfig) error
	InitConfig(ctx context.Context, chatID int64) error
}

type CachedConfigRepository struct {
	db          *gorm.DB
	cache       sync.Map
	enableCache bool
}

type cachedConfig struct {
	cfg       *ChatConfig
	expiresAt time.Time
}

// clone detaches a config from the cache: callers mutate the returned
// struct before UpdateConfig, and cached entries are read concurrently by
// the scan pipeline.
func (c *ChatConfig) clone() *ChatConfig {
	dup := *c
	dup.ExemptUserIDs = append(pq.Int64Array(nil), c.ExemptUserIDs...)
	if c.ThresholdDurationMinutes != nil {
		v := *c.ThresholdDurationMinutes
		dup.ThresholdDurationMinutes = &v
	}
	if c.LogChannelID != nil {
		v := *c.LogChannelID
		dup.LogChannelID = &v
	}
	return &dup
}

const configCacheTTL = 5 * time.Minute

func NewConfigRepository(db *gorm.DB, enableCache bool) ConfigRepository {
	return &CachedConfigRepository{db: db, enableCache: enableCache}
}

func defaultConfig(chatID int64) ChatConfig {
	return ChatConfig{
		ChatID:                 chatID,
		MaxWarnings:            3,
		WarningTTLHours:        24,
		ThresholdAction:        ActionMute,
		DefaultBlocklistAction: ActionWarn,
		ScanEnabled:            true,
	}
}

func (r *CachedConfigRepository) GetConfig(ctx context.Context, chatID int64) (*ChatConfig, error) {
	if r.enableCache {
		if val, ok := r.cache.Load(chatID); ok {
			entry := val.(*cachedConfig)
			if time.Now().Before(entry.expiresAt) {
				return entry.cfg.clone(), nil
			}
			r.cache.Delete(chatID)
		}
	}

	var cfg ChatConfig
	err := r.db.WithContext(ctx).First(&cfg, "chat_id = ?", chatID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if initErr := r.InitConfig(ctx, chatID); initErr != nil {
				return nil, fmt.Errorf("failed to init config on miss: %w", initErr)
			}
			defaults := defaultConfig(chatID)
			return &defaults, nil
		}
		return nil, fmt.Errorf("failed to get config: %w", err)
	}

	if r.enableCache {
		r.cache.Store(chatID, &cachedConfig{cfg: &cfg, expiresAt: time.Now().Add(configCacheTTL)})
		return cfg.clone(), nil
	}
	return &cfg, nil
}

func (r *CachedConfigRepository) InitConfig(ctx context.Context, chatID int64) error {
	cfg := defaultConfig(chatID)
	if err := r.db.WithContext(ctx).FirstOrCreate(&cfg, ChatConfig{ChatID: chatID}).Error; err != nil {
		return fmt.Errorf("failed to init config: %w", err)
	}
	return nil
}

func (r *CachedConfigRepository) UpdateConfig(ctx context.Context, cfg *ChatConfig) error {
	if err := r.db.WithContext(ctx).Save(cfg).Error; err != nil {
		return fmt.Errorf("failed to update config: %w", err)
	}
	if r.enableCache {
		r.cache.Store(cfg.ChatID, &cachedConfig{cfg: cfg.clone(), expiresAt: time.Now().Add(configCacheTTL)})
	}
	return nil
}
