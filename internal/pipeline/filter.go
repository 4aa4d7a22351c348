package pipeline

import (
	"context"

	"chatguard-bot/internal/repository"
)

// Result describes what a filter decided about a message. A disallowed
// result carries the consequence the caller should route: WARN goes through
// the warning ledger, everything else straight to the punishment executor.
type Result struct {
	IsAllowed     bool
	Reason        string
	FilterName    string
	ShouldDelete  bool
	Action        repository.ActionType
	DurationHours *int
	Source        repository.PunishmentSource
	PatternID     uint
}

type Filter interface {
	Name() string
	Process(ctx context.Context, payload Payload) (*Result, error)
}
