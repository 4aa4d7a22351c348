package service

import (
	"context"
	"log/slog"
	"time"

	"chatguard-bot/internal/audit"
	"chatguard-bot/internal/platform"
	"chatguard-bot/internal/repository"
)

// logChannelResolver looks up each chat's configured log channel. Chats
// without one configured produce no audit traffic.
type logChannelResolver struct {
	configs repository.ConfigRepository
}

func (r *logChannelResolver) LogChannel(ctx context.Context, chatID int64) (int64, bool) {
	cfg, err := r.configs.GetConfig(ctx, chatID)
	if err != nil || cfg.LogChannelID == nil {
		return 0, false
	}
	return *cfg.LogChannelID, true
}

type platformSink struct {
	client platform.Client
}

func (s *platformSink) Send(ctx context.Context, channelID int64, text string) error {
	_, err := s.client.SendMessage(ctx, channelID, text)
	return err
}

// NewAuditDispatcher wires the audit log to the platform client and the
// per-chat log channel config.
func NewAuditDispatcher(logger *slog.Logger, client platform.Client, configs repository.ConfigRepository, window time.Duration) *audit.Dispatcher {
	return audit.NewDispatcher(logger, &platformSink{client: client}, &logChannelResolver{configs: configs}, window)
}
