package handler

import (
	"testing"

	"chatguard-bot/internal/config"
	"chatguard-bot/internal/repository"
)

func TestIsGlobalAdmin(t *testing.T) {
	h := &Handler{config: &config.Config{AdminUserIDs: []int64{42, 7}}}

	tests := []struct {
		name   string
		userID int64
		want   bool
	}{
		{"listed operator", 42, true},
		{"second operator", 7, true},
		{"regular user", 100, false},
		{"zero user", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := h.isGlobalAdmin(tt.userID); got != tt.want {
				t.Errorf("isGlobalAdmin(%d) = %v, want %v", tt.userID, got, tt.want)
			}
		})
	}

	empty := &Handler{config: &config.Config{}}
	if empty.isGlobalAdmin(42) {
		t.Error("isGlobalAdmin with no operators configured should be false")
	}
}

func TestParseBlockArgs(t *testing.T) {
	tests := []struct {
		name          string
		args          []string
		wantOK        bool
		wantText      string
		wantSeverity  int
		wantAction    string
		wantMatchType string
	}{
		{
			name:          "Plain pattern",
			args:          []string{"spam"},
			wantOK:        true,
			wantText:      "spam",
			wantMatchType: string(repository.MatchExact),
		},
		{
			name:          "Severity and action",
			args:          []string{"8", "mute", "buy", "now"},
			wantOK:        true,
			wantText:      "buy now",
			wantSeverity:  8,
			wantAction:    "mute",
			wantMatchType: string(repository.MatchExact),
		},
		{
			name:          "Wildcard detected",
			args:          []string{"5", "*spam*"},
			wantOK:        true,
			wantText:      "*spam*",
			wantSeverity:  5,
			wantMatchType: string(repository.MatchWildcard),
		},
		{
			name:          "Single-char wildcard",
			args:          []string{"b?d"},
			wantOK:        true,
			wantText:      "b?d",
			wantMatchType: string(repository.MatchWildcard),
		},
		{
			name:   "No pattern left",
			args:   []string{},
			wantOK: false,
		},
		{
			name: "Options only still needs a pattern",
			// The last token is always the pattern, even if it parses
			// as an action name.
			args:          []string{"5", "ban"},
			wantOK:        true,
			wantText:      "ban",
			wantSeverity:  5,
			wantMatchType: string(repository.MatchExact),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input, ok := parseBlockArgs(tt.args)
			if ok != tt.wantOK {
				t.Fatalf("parseBlockArgs() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if input.Text != tt.wantText {
				t.Errorf("text = %q, want %q", input.Text, tt.wantText)
			}
			if input.Severity != tt.wantSeverity {
				t.Errorf("severity = %d, want %d", input.Severity, tt.wantSeverity)
			}
			if input.Action != tt.wantAction {
				t.Errorf("action = %q, want %q", input.Action, tt.wantAction)
			}
			if input.MatchType != tt.wantMatchType {
				t.Errorf("match type = %q, want %q", input.MatchType, tt.wantMatchType)
			}
		})
	}
}
