package pipeline

import (
	"context"
	"log/slog"

	"chatguard-bot/internal/metrics"
)

// Manager runs filters in registration order and stops at the first
// disallowing verdict or error. Order encodes precedence: flood control
// runs before restriction enforcement, which runs before the blocklist.
type Manager struct {
	logger  *slog.Logger
	filters []Filter
}

func NewManager(logger *slog.Logger, filters ...Filter) *Manager {
	return &Manager{logger: logger, filters: filters}
}

func (m *Manager) Process(ctx context.Context, payload Payload) (*Result, error) {
	for _, f := range m.filters {
		res, err := f.Process(ctx, payload)
		if err != nil {
			metrics.IncFilterVerdict(f.Name(), "error")
			return nil, err
		}
		if !res.IsAllowed {
			if res.FilterName == "" {
				res.FilterName = f.Name()
			}
			metrics.IncFilterVerdict(f.Name(), "blocked")
			m.logger.Debug("Filter blocked message",
				"filter", f.Name(), "chat_id", payload.ChatID, "user_id", payload.SenderID,
				"reason", res.Reason)
			return res, nil
		}
	}
	return &Result{IsAllowed: true}, nil
}
