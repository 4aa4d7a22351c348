package filters

import (
	"context"
	"sync"
	"time"

	"chatguard-bot/internal/messages"
	"chatguard-bot/internal/pipeline"
	"chatguard-bot/internal/repository"
)

const floodMuteHours = 1

type FloodFilter struct {
	mu            sync.Mutex
	msgTimestamps map[string][]time.Time
	limit         int
	window        time.Duration
}

func NewFloodFilter(limit int, window time.Duration) *FloodFilter {
	return &FloodFilter{
		msgTimestamps: make(map[string][]time.Time),
		limit:         limit,
		window:        window,
	}
}

func (f *FloodFilter) Name() string {
	return "flood_filter"
}

func (f *FloodFilter) Process(_ context.Context, payload pipeline.Payload) (*pipeline.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := payload.SenderKey()
	now := time.Now()

	var valid []time.Time
	for _, t := range f.msgTimestamps[key] {
		if now.Sub(t) <= f.window {
			valid = append(valid, t)
		}
	}
	valid = append(valid, now)
	f.msgTimestamps[key] = valid

	if len(valid) > f.limit {
		hours := floodMuteHours
		return &pipeline.Result{
			IsAllowed:     false,
			Reason:        messages.MsgReasonFloodLimit,
			FilterName:    f.Name(),
			ShouldDelete:  true,
			Action:        repository.ActionMute,
			DurationHours: &hours,
			Source:        repository.SourceFlood,
		}, nil
	}

	return &pipeline.Result{IsAllowed: true}, nil
}
