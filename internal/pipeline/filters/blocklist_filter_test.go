package filters

import (
	"context"
	"testing"

	"chatguard-bot/internal/pipeline"
	"chatguard-bot/internal/repository"
)

func TestBlocklistFilter_Process(t *testing.T) {
	hours := 12
	patterns := []repository.BlocklistPattern{
		{ID: 1, PatternText: "spam", MatchType: repository.MatchExact, Action: repository.ActionMute, ActionDurationHours: &hours, Severity: 5},
		{ID: 2, PatternText: "crypto*", MatchType: repository.MatchWildcard, Severity: 3},
	}

	tests := []struct {
		name        string
		text        string
		wantAllowed bool
		wantAction  repository.ActionType
	}{
		{"clean message", "hello there", true, ""},
		{"exact hit routes pattern action", "buy SPAM now", false, repository.ActionMute},
		{"actionless pattern falls back to chat default", "cryptocurrency tips", false, repository.ActionWarn},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewBlocklistFilter(
				&mockConfigRepo{},
				&mockPatternRepo{patterns: patterns},
				&mockPunishmentRepo{},
			)
			res, err := f.Process(context.Background(), pipeline.Payload{ChatID: 100, SenderID: 7, Text: tt.text})
			if err != nil {
				t.Fatalf("Process() error = %v", err)
			}
			if res.IsAllowed != tt.wantAllowed {
				t.Errorf("Process() allowed = %v, want %v", res.IsAllowed, tt.wantAllowed)
			}
			if !tt.wantAllowed {
				if res.Action != tt.wantAction {
					t.Errorf("Process() action = %s, want %s", res.Action, tt.wantAction)
				}
				if res.Source != repository.SourceBlocklist {
					t.Errorf("Process() source = %s, want BLOCKLIST", res.Source)
				}
				if !res.ShouldDelete {
					t.Error("blocked message should be deleted")
				}
			}
		})
	}
}

func TestBlocklistFilter_ScanDisabled(t *testing.T) {
	f := NewBlocklistFilter(
		&mockConfigRepo{cfg: &repository.ChatConfig{ChatID: 100, ScanEnabled: false}},
		&mockPatternRepo{patterns: []repository.BlocklistPattern{
			{PatternText: "spam", MatchType: repository.MatchExact, Severity: 1},
		}},
		&mockPunishmentRepo{},
	)

	res, err := f.Process(context.Background(), pipeline.Payload{ChatID: 100, Text: "spam"})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if !res.IsAllowed {
		t.Error("scanning disabled but message blocked")
	}
}

func TestBlocklistFilter_ExemptSender(t *testing.T) {
	f := NewBlocklistFilter(
		&mockConfigRepo{cfg: &repository.ChatConfig{
			ChatID:        100,
			ScanEnabled:   true,
			ExemptUserIDs: []int64{7},
		}},
		&mockPatternRepo{patterns: []repository.BlocklistPattern{
			{PatternText: "spam", MatchType: repository.MatchExact, Severity: 1},
		}},
		&mockPunishmentRepo{},
	)

	res, err := f.Process(context.Background(), pipeline.Payload{ChatID: 100, SenderID: 7, Text: "spam"})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if !res.IsAllowed {
		t.Error("exempt sender was blocked")
	}
}
