package matcher

import (
	"regexp"
	"strings"
	"sync"

	"chatguard-bot/internal/repository"
)

// Result is the winning blocklist match for a message. Action falls back to
// the chat's default when the pattern itself does not name one.
type Result struct {
	Pattern       repository.BlocklistPattern
	Action        repository.ActionType
	DurationHours *int
}

var compiled sync.Map // pattern text -> *regexp.Regexp

// Match evaluates text against the candidate patterns and returns the
// highest-severity hit, or nil. Ties keep the earlier candidate, so the
// caller's ordering decides.
func Match(patterns []repository.BlocklistPattern, text string) *Result {
	lower := strings.ToLower(text)

	var best *repository.BlocklistPattern
	for i := range patterns {
		p := &patterns[i]
		if !matches(p, lower) {
			continue
		}
		if best == nil || p.Severity > best.Severity {
			best = p
		}
	}
	if best == nil {
		return nil
	}
	return &Result{
		Pattern:       *best,
		Action:        best.Action,
		DurationHours: best.ActionDurationHours,
	}
}

func matches(p *repository.BlocklistPattern, lowerText string) bool {
	switch p.MatchType {
	case repository.MatchExact:
		return strings.Contains(lowerText, strings.ToLower(p.PatternText))
	case repository.MatchWildcard:
		re, err := compileWildcard(p.PatternText)
		if err != nil {
			return false
		}
		return re.MatchString(lowerText)
	default:
		return false
	}
}

// compileWildcard turns a glob into an unanchored regexp: * spans any run
// of characters, ? exactly one, everything else is literal. (?s) keeps the
// wildcards spanning newlines in multiline message bodies.
func compileWildcard(pattern string) (*regexp.Regexp, error) {
	if re, ok := compiled.Load(pattern); ok {
		return re.(*regexp.Regexp), nil
	}

	var b strings.Builder
	b.WriteString("(?s)")
	for _, r := range strings.ToLower(pattern) {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, err
	}
	compiled.Store(pattern, re)
	return re, nil
}
