package quota

import (
	"context"
	"errors"
	"testing"
	"time"

	"novel-trans-api/internal/config"
)

func testModels() []config.ModelConfig {
	return []config.ModelConfig{
		{Name: "flash", Provider: "gemini", Tier: TierPrimary, Priority: 1, DailyLimit: 3, PerMinute: 2},
		{Name: "flash-lite", Provider: "gemini", Tier: TierPrimary, Priority: 2, DailyLimit: 10},
		{Name: "pro", Provider: "gemini", Tier: TierFallback, Priority: 1, DailyLimit: 10},
	}
}

func newTestLedger(t *testing.T, at time.Time) *Ledger {
	t.Helper()
	l := NewLedger(testModels(), nil)
	l.now = func() time.Time { return at }
	return l
}

func TestLedgerDailyLimit(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	l := newTestLedger(t, now)

	for i := 0; i < 3; i++ {
		// 避开 RPM 窗口，只验证日配额
		l.now = func() time.Time { return now.Add(time.Duration(i) * 2 * time.Minute) }
		if err := l.CanUse("flash"); err != nil {
			t.Fatalf("request %d: unexpected unavailable: %v", i, err)
		}
		l.Record(ctx, "flash")
	}

	l.now = func() time.Time { return now.Add(10 * time.Minute) }
	err := l.CanUse("flash")
	var unavail UnavailableError
	if !errors.As(err, &unavail) || unavail.Reason != ReasonDailyLimit {
		t.Fatalf("expected daily limit error, got %v", err)
	}
}

func TestLedgerDailyReset(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 23, 0, 0, 0, time.UTC)
	l := newTestLedger(t, now)

	for i := 0; i < 3; i++ {
		l.Record(ctx, "flash")
	}
	l.ReportDepleted(ctx, "flash")

	if err := l.CanUse("flash"); err == nil {
		t.Fatal("expected flash to be unavailable before midnight")
	}

	// 跨日后计数与粘滞标记都要清除
	l.now = func() time.Time { return now.Add(2 * time.Hour) }
	if err := l.CanUse("flash"); err != nil {
		t.Fatalf("expected flash available after daily reset, got %v", err)
	}

	snap := l.Snapshot()
	for _, u := range snap {
		if u.Model == "flash" {
			if u.RequestsToday != 0 || u.IsDepleted {
				t.Fatalf("expected reset usage, got requests=%d depleted=%v", u.RequestsToday, u.IsDepleted)
			}
		}
	}
}

func TestLedgerRateLimitCooldown(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	l := newTestLedger(t, now)

	l.ReportRateLimited(ctx, "flash")

	err := l.CanUse("flash")
	var unavail UnavailableError
	if !errors.As(err, &unavail) || unavail.Reason != ReasonCooldown {
		t.Fatalf("expected cooldown error, got %v", err)
	}

	l.now = func() time.Time { return now.Add(61 * time.Second) }
	if err := l.CanUse("flash"); err != nil {
		t.Fatalf("expected flash available after cooldown, got %v", err)
	}
}

func TestLedgerDepletedSticky(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	l := newTestLedger(t, now)

	l.ReportDepleted(ctx, "flash")

	// 长冷却过了也保持粘滞，直到跨日
	l.now = func() time.Time { return now.Add(2 * time.Hour) }
	err := l.CanUse("flash")
	var unavail UnavailableError
	if !errors.As(err, &unavail) || unavail.Reason != ReasonDepleted {
		t.Fatalf("expected depleted error, got %v", err)
	}
}

func TestLedgerManualReset(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	l := newTestLedger(t, now)

	l.Record(ctx, "flash")
	l.ReportDepleted(ctx, "flash")
	l.ReportRateLimited(ctx, "flash-lite")

	l.Reset(ctx)

	if err := l.CanUse("flash"); err != nil {
		t.Fatalf("expected flash available after reset, got %v", err)
	}
	if err := l.CanUse("flash-lite"); err != nil {
		t.Fatalf("expected flash-lite available after reset, got %v", err)
	}
	for _, u := range l.Snapshot() {
		if u.RequestsToday != 0 || u.IsDepleted || len(u.RecentRequests) != 0 {
			t.Fatalf("usage for %s not cleared: %+v", u.Model, u)
		}
	}
}

func TestLedgerRPMWindow(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	l := newTestLedger(t, now)

	l.Record(ctx, "flash")
	l.Record(ctx, "flash")

	err := l.CanUse("flash")
	var unavail UnavailableError
	if !errors.As(err, &unavail) || unavail.Reason != ReasonRPMLimit {
		t.Fatalf("expected rpm limit error, got %v", err)
	}

	// 窗口滑出后恢复
	l.now = func() time.Time { return now.Add(rpmWindow + time.Second) }
	if err := l.CanUse("flash"); err != nil {
		t.Fatalf("expected flash available after rpm window, got %v", err)
	}
}

func TestSelectorOrder(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	l := newTestLedger(t, now)
	s := NewSelector(testModels(), l)

	m, err := s.Next(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Name != "flash" {
		t.Fatalf("expected flash first, got %s", m.Name)
	}

	// primary 梯队耗尽后落到下一个 primary，再落到 fallback
	l.ReportDepleted(ctx, "flash")
	m, err = s.Next(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Name != "flash-lite" {
		t.Fatalf("expected flash-lite, got %s", m.Name)
	}

	m, err = s.Next(map[string]bool{"flash-lite": true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Name != "pro" {
		t.Fatalf("expected pro, got %s", m.Name)
	}

	l.ReportDepleted(ctx, "flash-lite")
	l.ReportDepleted(ctx, "pro")
	if _, err := s.Next(nil); err == nil {
		t.Fatal("expected error when all models depleted")
	}
}
