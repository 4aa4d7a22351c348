package matcher

import (
	"testing"

	"chatguard-bot/internal/repository"
)

func exact(text string, severity int, action repository.ActionType) repository.BlocklistPattern {
	return repository.BlocklistPattern{
		PatternText: text,
		MatchType:   repository.MatchExact,
		Action:      action,
		Severity:    severity,
	}
}

func wildcard(text string, severity int, action repository.ActionType) repository.BlocklistPattern {
	return repository.BlocklistPattern{
		PatternText: text,
		MatchType:   repository.MatchWildcard,
		Action:      action,
		Severity:    severity,
	}
}

func TestMatch_Exact(t *testing.T) {
	patterns := []repository.BlocklistPattern{exact("spam", 5, repository.ActionWarn)}

	tests := []struct {
		name    string
		text    string
		wantHit bool
	}{
		{"case insensitive substring", "This is SPAM message", true},
		{"clean text", "clean", false},
		{"inside a word", "antispammer", true},
		{"empty text", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Match(patterns, tt.text)
			if (res != nil) != tt.wantHit {
				t.Errorf("Match(%q) hit = %v, want %v", tt.text, res != nil, tt.wantHit)
			}
		})
	}
}

func TestMatch_Wildcard(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		text    string
		wantHit bool
	}{
		{"star matches run", "bad*", "bad word", true},
		{"star matches suffix", "bad*", "badness", true},
		{"question matches one char", "b?d", "bad", true},
		{"question needs a char", "b?d", "bd", false},
		{"question is exactly one", "b?d", "baad", false},
		{"metacharacters stay literal", "price: $5*", "price: $50 only", true},
		{"dot stays literal", "v1.0", "v1x0", false},
		{"question crosses newline", "b?d", "b\nd", true},
		{"star crosses newline", "buy*now", "buy cheap\nright now", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			patterns := []repository.BlocklistPattern{wildcard(tt.pattern, 1, repository.ActionWarn)}
			res := Match(patterns, tt.text)
			if (res != nil) != tt.wantHit {
				t.Errorf("Match(%q, %q) hit = %v, want %v", tt.pattern, tt.text, res != nil, tt.wantHit)
			}
		})
	}
}

func TestMatch_SeverityArbitration(t *testing.T) {
	patterns := []repository.BlocklistPattern{
		wildcard("*spam*", 5, repository.ActionMute),
		exact("buy", 10, repository.ActionBan),
	}

	res := Match(patterns, "buy spam pills")
	if res == nil {
		t.Fatal("expected a match")
	}
	if res.Action != repository.ActionBan {
		t.Errorf("winning action = %s, want BAN", res.Action)
	}
	if res.Pattern.PatternText != "buy" {
		t.Errorf("winning pattern = %q, want %q", res.Pattern.PatternText, "buy")
	}
}

func TestMatch_TieKeepsCandidateOrder(t *testing.T) {
	patterns := []repository.BlocklistPattern{
		exact("spam", 5, repository.ActionMute),
		exact("pills", 5, repository.ActionBan),
	}

	res := Match(patterns, "spam pills")
	if res == nil {
		t.Fatal("expected a match")
	}
	if res.Pattern.PatternText != "spam" {
		t.Errorf("tie winner = %q, want first candidate %q", res.Pattern.PatternText, "spam")
	}
}

func TestMatch_DurationCarried(t *testing.T) {
	hours := 48
	p := wildcard("scam*", 8, repository.ActionMute)
	p.ActionDurationHours = &hours

	res := Match([]repository.BlocklistPattern{p}, "scammers here")
	if res == nil {
		t.Fatal("expected a match")
	}
	if res.DurationHours == nil || *res.DurationHours != 48 {
		t.Errorf("duration = %v, want 48", res.DurationHours)
	}
}

func TestMatch_InvalidWildcardSkipped(t *testing.T) {
	// QuoteMeta keeps user input from producing an invalid expression, so
	// even regex-looking patterns match literally rather than erroring.
	patterns := []repository.BlocklistPattern{wildcard("a(b", 3, repository.ActionWarn)}

	if res := Match(patterns, "a(b"); res == nil {
		t.Error("literal parenthesis pattern should match its own text")
	}
	if res := Match(patterns, "ab"); res != nil {
		t.Error("parenthesis must not be treated as a regex group")
	}
}
