package filters

import (
	"context"

	"chatguard-bot/internal/matcher"
	"chatguard-bot/internal/messages"
	"chatguard-bot/internal/metrics"
	"chatguard-bot/internal/pipeline"
	"chatguard-bot/internal/repository"
)

type BlocklistFilter struct {
	configRepo     repository.ConfigRepository
	patternRepo    repository.PatternRepository
	punishmentRepo repository.PunishmentRepository
}

func NewBlocklistFilter(configRepo repository.ConfigRepository, patternRepo repository.PatternRepository, punishmentRepo repository.PunishmentRepository) *BlocklistFilter {
	return &BlocklistFilter{
		configRepo:     configRepo,
		patternRepo:    patternRepo,
		punishmentRepo: punishmentRepo,
	}
}

func (f *BlocklistFilter) Name() string {
	return "blocklist_filter"
}

func (f *BlocklistFilter) Process(ctx context.Context, payload pipeline.Payload) (*pipeline.Result, error) {
	cfg, err := f.configRepo.GetConfig(ctx, payload.ChatID)
	if err != nil {
		return &pipeline.Result{IsAllowed: true}, nil
	}
	if !cfg.ScanEnabled || cfg.IsExempt(payload.SenderID) {
		return &pipeline.Result{IsAllowed: true}, nil
	}

	patterns, err := f.patternRepo.ListForChat(ctx, payload.ChatID)
	if err != nil {
		return &pipeline.Result{IsAllowed: true}, nil
	}

	res := matcher.Match(patterns, payload.Text)
	if res == nil {
		return &pipeline.Result{IsAllowed: true}, nil
	}

	action := res.Action
	if action == "" {
		action = cfg.DefaultBlocklistAction
	}

	metrics.IncBlocklistHit(string(action))
	go func(chatID int64) {
		_ = f.punishmentRepo.IncrementStat(context.Background(), chatID, "blocklist_hits")
	}(payload.ChatID)

	return &pipeline.Result{
		IsAllowed:     false,
		Reason:        messages.MsgReasonBlockedPattern,
		FilterName:    f.Name(),
		ShouldDelete:  true,
		Action:        action,
		DurationHours: res.DurationHours,
		Source:        repository.SourceBlocklist,
		PatternID:     res.Pattern.ID,
	}, nil
}
