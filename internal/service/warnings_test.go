package service

import (
	"context"
	"sync"
	"testing"

	"chatguard-bot/internal/repository"
)

func TestIssueWarning_CountsAndTriggers(t *testing.T) {
	svc, deps := newTestService(nil)
	ctx := context.Background()

	for i, want := range []struct {
		count     int64
		triggered bool
	}{
		{1, false},
		{2, false},
		{3, true},
		{4, false},
	} {
		out, err := svc.IssueWarning(ctx, 100, 200, 1, "spam")
		if err != nil {
			t.Fatalf("IssueWarning() #%d error = %v", i+1, err)
		}
		if out.ActiveCount != want.count {
			t.Errorf("IssueWarning() #%d count = %d, want %d", i+1, out.ActiveCount, want.count)
		}
		if out.Triggered != want.triggered {
			t.Errorf("IssueWarning() #%d triggered = %v, want %v", i+1, out.Triggered, want.triggered)
		}
	}

	if out, _ := svc.IssueWarning(ctx, 100, 201, 1, "spam"); out.Triggered {
		t.Error("warning for a different user should not trigger")
	}
	_ = deps
}

func TestIssueWarning_ConcurrentExactlyOnceTrigger(t *testing.T) {
	svc, deps := newTestService(nil)
	ctx := context.Background()

	const n = 10
	outcomes := make([]*WarningOutcome, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			out, err := svc.IssueWarning(ctx, 100, 200, 1, "flood")
			if err != nil {
				t.Errorf("IssueWarning() error = %v", err)
				return
			}
			outcomes[i] = out
		}(i)
	}
	wg.Wait()

	count, err := deps.warnings.CountActive(ctx, 100, 200)
	if err != nil {
		t.Fatalf("CountActive() error = %v", err)
	}
	if count != n {
		t.Errorf("final active count = %d, want %d", count, n)
	}

	triggered := 0
	seen := make(map[int64]bool)
	for _, out := range outcomes {
		if out == nil {
			continue
		}
		if seen[out.ActiveCount] {
			t.Errorf("duplicate observed count %d", out.ActiveCount)
		}
		seen[out.ActiveCount] = true
		if out.Triggered {
			triggered++
			if out.ActiveCount != 3 {
				t.Errorf("triggered at count %d, want 3", out.ActiveCount)
			}
		}
	}
	if triggered != 1 {
		t.Errorf("triggered %d times, want exactly 1", triggered)
	}
}

func TestIssueWarning_ThresholdMirrorsConfig(t *testing.T) {
	mins := 90
	configs := &mockConfigRepo{config: &repository.ChatConfig{
		ChatID:                   100,
		MaxWarnings:              1,
		WarningTTLHours:          24,
		ThresholdAction:          repository.ActionBan,
		ThresholdDurationMinutes: &mins,
	}}
	svc, _ := newTestService(&testDeps{configs: configs})

	out, err := svc.IssueWarning(context.Background(), 100, 200, 1, "spam")
	if err != nil {
		t.Fatalf("IssueWarning() error = %v", err)
	}
	if !out.Triggered {
		t.Error("first warning should trigger with max_warnings = 1")
	}
	if out.ThresholdAction != repository.ActionBan {
		t.Errorf("threshold action = %s, want BAN", out.ThresholdAction)
	}
	if out.ThresholdDurationMinutes == nil || *out.ThresholdDurationMinutes != 90 {
		t.Errorf("threshold duration = %v, want 90", out.ThresholdDurationMinutes)
	}
}

func TestRemoveWarnings_Idempotent(t *testing.T) {
	svc, deps := newTestService(nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.IssueWarning(ctx, 100, 200, 1, "spam"); err != nil {
			t.Fatalf("IssueWarning() error = %v", err)
		}
	}

	if err := svc.RemoveWarnings(ctx, 100, 200, 1); err != nil {
		t.Fatalf("RemoveWarnings() error = %v", err)
	}
	count, _ := deps.warnings.CountActive(ctx, 100, 200)
	if count != 0 {
		t.Errorf("active count after removal = %d, want 0", count)
	}

	// Second run touches nothing and still succeeds.
	if err := svc.RemoveWarnings(ctx, 100, 200, 1); err != nil {
		t.Fatalf("RemoveWarnings() repeat error = %v", err)
	}
}

func TestRemoveWarnings_ResetsThresholdPath(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		svc.IssueWarning(ctx, 100, 200, 1, "spam")
	}
	if err := svc.RemoveWarnings(ctx, 100, 200, 1); err != nil {
		t.Fatalf("RemoveWarnings() error = %v", err)
	}

	// The counter starts over: the next crossing triggers again.
	var triggered int
	for i := 0; i < 3; i++ {
		out, err := svc.IssueWarning(ctx, 100, 200, 1, "spam")
		if err != nil {
			t.Fatalf("IssueWarning() error = %v", err)
		}
		if out.Triggered {
			triggered++
		}
	}
	if triggered != 1 {
		t.Errorf("triggered %d times after reset, want 1", triggered)
	}
}
