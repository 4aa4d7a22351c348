package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

type ActionType string

const (
	ActionNothing ActionType = "NOTHING"
	ActionWarn    ActionType = "WARN"
	ActionMute    ActionType = "MUTE"
	ActionBan     ActionType = "BAN"
	ActionKick    ActionType = "KICK"
)

func ParseAction(s string) (ActionType, error) {
	switch ActionType(strings.ToUpper(strings.TrimSpace(s))) {
	case ActionNothing:
		return ActionNothing, nil
	case ActionWarn:
		return ActionWarn, nil
	case ActionMute:
		return ActionMute, nil
	case ActionBan:
		return ActionBan, nil
	case ActionKick:
		return ActionKick, nil
	}
	return "", fmt.Errorf("unknown action: %s", s)
}

type MatchType string

const (
	MatchExact    MatchType = "EXACT"
	MatchWildcard MatchType = "WILDCARD"
)

func ParseMatchType(s string) (MatchType, error) {
	switch MatchType(strings.ToUpper(strings.TrimSpace(s))) {
	case MatchExact:
		return MatchExact, nil
	case MatchWildcard:
		return MatchWildcard, nil
	}
	return "", fmt.Errorf("unknown match type: %s", s)
}

type PunishmentSource string

const (
	SourceManual    PunishmentSource = "MANUAL"
	SourceThreshold PunishmentSource = "THRESHOLD"
	SourceBlocklist PunishmentSource = "BLOCKLIST"
	SourceFlood     PunishmentSource = "FLOOD"
)

type PunishmentResult string

const (
	ResultApplied PunishmentResult = "applied"
	ResultFailed  PunishmentResult = "failed"
	ResultSkipped PunishmentResult = "skipped"
)

type RestrictionKind string

const (
	RestrictionMute RestrictionKind = "mute"
	RestrictionBan  RestrictionKind = "ban"
)

const (
	MinSeverity = 0
	MaxSeverity = 10
)

// Permanent marks restrictions with no expiry; a far-future timestamp keeps
// the "expires_at > now" queries uniform.
var Permanent = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)

// BlocklistPattern is upserted on (chat_id, pattern_text); chat_id NULL
// means the pattern applies to every chat.
type BlocklistPattern struct {
	ID                  uint       `gorm:"primaryKey"`
	ChatID              *int64     `gorm:"index:idx_pattern_chat_text,unique"`
	PatternText         string     `gorm:"size:255;not null;index:idx_pattern_chat_text,unique"`
	MatchType           MatchType  `gorm:"size:16;not null"`
	Action              ActionType `gorm:"size:16"`
	ActionDurationHours *int
	Severity            int
	CreatedAt           time.Time
}

type Warning struct {
	ID         uint   `gorm:"primaryKey"`
	ChatID     int64  `gorm:"not null;index:idx_warning_chat_user,priority:1"`
	UserID     int64  `gorm:"not null;index:idx_warning_chat_user,priority:2"`
	IssuedByID int64  `gorm:"not null"`
	Reason     string `gorm:"size:255"`
	CreatedAt  time.Time
	ExpiresAt  time.Time `gorm:"index"`
	Active     bool      `gorm:"default:true"`
}

// Punishment is an append-only ledger: every executor run writes exactly
// one row, including NOTHING and failed platform calls.
type Punishment struct {
	ID              uint       `gorm:"primaryKey"`
	ChatID          int64      `gorm:"index:idx_punishment_chat_user,priority:1"`
	UserID          int64      `gorm:"index:idx_punishment_chat_user,priority:2"`
	IssuedByID      int64      `gorm:"not null"`
	Type            ActionType `gorm:"column:punishment_type;size:16;not null"`
	DurationSeconds *int64
	Reason          string           `gorm:"size:255"`
	Source          PunishmentSource `gorm:"size:16;not null"`
	Result          PunishmentResult `gorm:"size:16;not null"`
	CreatedAt       time.Time
}

type ChatConfig struct {
	ChatID                   int64      `gorm:"primaryKey;autoIncrement:false"`
	MaxWarnings              int        `gorm:"default:3"`
	WarningTTLHours          int        `gorm:"default:24"`
	ThresholdAction          ActionType `gorm:"size:16;default:MUTE"`
	ThresholdDurationMinutes *int
	DefaultBlocklistAction   ActionType `gorm:"size:16;default:WARN"`
	LogChannelID             *int64
	ScanEnabled              bool          `gorm:"default:true"`
	ExemptUserIDs            pq.Int64Array `gorm:"type:bigint[]"`
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

func (c *ChatConfig) IsExempt(userID int64) bool {
	for _, id := range c.ExemptUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// AdminSession binds a direct-message admin to the one chat their private
// commands target. It carries no authorization weight of its own.
type AdminSession struct {
	UserID    int64  `gorm:"primaryKey;autoIncrement:false"`
	ChatID    int64  `gorm:"not null"`
	ChatTitle string `gorm:"size:255"`
	CreatedAt time.Time
}

type Restriction struct {
	ID        uint            `gorm:"primaryKey"`
	ChatID    int64           `gorm:"index:idx_restriction_chat_user,priority:1"`
	UserID    int64           `gorm:"index:idx_restriction_chat_user,priority:2"`
	Kind      RestrictionKind `gorm:"size:8;not null"`
	ExpiresAt time.Time       `gorm:"index"`
	CreatedAt time.Time
}

type PairingToken struct {
	Token     string    `gorm:"primaryKey"`
	UserID    int64     `gorm:"index"`
	ExpiresAt time.Time `gorm:"index"`
}

type ChatStats struct {
	ChatID             int64     `gorm:"primaryKey;autoIncrement:false"`
	Date               time.Time `gorm:"primaryKey;type:date"`
	BlocklistHits      int64     `gorm:"default:0"`
	WarningsIssued     int64     `gorm:"default:0"`
	PunishmentsApplied int64     `gorm:"default:0"`
	MessagesDeleted    int64     `gorm:"default:0"`
}
