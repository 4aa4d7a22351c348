package filters

import (
	"context"
	"fmt"
	"time"

	"chatguard-bot/internal/messages"
	"chatguard-bot/internal/pipeline"
	"chatguard-bot/internal/repository"
)

// RestrictionFilter enforces bot-side mutes and bans: messages from a
// currently restricted user are deleted on sight, with no further
// escalation.
type RestrictionFilter struct {
	restrictionRepo repository.RestrictionRepository
}

func NewRestrictionFilter(restrictionRepo repository.RestrictionRepository) *RestrictionFilter {
	return &RestrictionFilter{restrictionRepo: restrictionRepo}
}

func (f *RestrictionFilter) Name() string {
	return "restriction_filter"
}

func (f *RestrictionFilter) Process(ctx context.Context, payload pipeline.Payload) (*pipeline.Result, error) {
	restricted, _, expiresAt, err := f.restrictionRepo.IsRestricted(ctx, payload.ChatID, payload.SenderID)
	if err != nil {
		return &pipeline.Result{IsAllowed: true}, nil
	}
	if !restricted {
		return &pipeline.Result{IsAllowed: true}, nil
	}

	until := expiresAt.Format(time.RFC822)
	if expiresAt.Equal(repository.Permanent) {
		until = "further notice"
	}
	return &pipeline.Result{
		IsAllowed:    false,
		Reason:       fmt.Sprintf(messages.MsgReasonUserRestricted, until),
		FilterName:   f.Name(),
		ShouldDelete: true,
		Action:       repository.ActionNothing,
	}, nil
}
