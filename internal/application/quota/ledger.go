// Package quota 提供模型配额记账与调度选择能力
package quota

import (
	"context"
	"fmt"
	"sync"
	"time"

	"novel-trans-api/internal/config"
	"novel-trans-api/pkg/logger"
	"novel-trans-api/pkg/metrics"
)

// 冷却时长
const (
	rateLimitCooldown = time.Minute
	depletedCooldown  = time.Hour
	rpmWindow         = time.Minute
)

// ModelUsage 单个模型的配额使用状态
type ModelUsage struct {
	Model          string      `json:"model"`
	RequestsToday  int         `json:"requests_today"`
	LastResetDate  string      `json:"last_reset_date"` // YYYY-MM-DD
	RecentRequests []time.Time `json:"recent_requests"`
	CooldownUntil  time.Time   `json:"cooldown_until"`
	IsDepleted     bool        `json:"is_depleted"`
}

// UsageStore 配额状态持久化端口
type UsageStore interface {
	// Load 读取模型的使用状态，不存在时返回 nil
	Load(ctx context.Context, model string) (*ModelUsage, error)

	// Save 保存模型的使用状态
	Save(ctx context.Context, usage *ModelUsage) error
}

// UnavailableReason 模型不可用的原因
type UnavailableReason string

const (
	ReasonDepleted   UnavailableReason = "depleted"
	ReasonCooldown   UnavailableReason = "cooldown"
	ReasonDailyLimit UnavailableReason = "daily_limit"
	ReasonRPMLimit   UnavailableReason = "rpm_limit"
)

// UnavailableError 表示模型当前不可调度
type UnavailableError struct {
	Model  string
	Reason UnavailableReason
	Until  time.Time
}

func (e UnavailableError) Error() string {
	if !e.Until.IsZero() {
		return fmt.Sprintf("model %s unavailable (%s) until %s", e.Model, e.Reason, e.Until.Format(time.RFC3339))
	}
	return fmt.Sprintf("model %s unavailable (%s)", e.Model, e.Reason)
}

// Ledger 模型配额账本
// 内存中维护每个模型的使用状态，变更后写入 UsageStore。
// 所有读写都经过互斥锁，保证并发翻译下的记账一致性。
type Ledger struct {
	mu     sync.Mutex
	models map[string]config.ModelConfig
	usage  map[string]*ModelUsage
	store  UsageStore
	now    func() time.Time
}

// NewLedger 创建配额账本
func NewLedger(models []config.ModelConfig, store UsageStore) *Ledger {
	byName := make(map[string]config.ModelConfig, len(models))
	for _, m := range models {
		byName[m.Name] = m
	}
	return &Ledger{
		models: byName,
		usage:  make(map[string]*ModelUsage),
		store:  store,
		now:    time.Now,
	}
}

// Restore 从持久化存储恢复所有已配置模型的使用状态
func (l *Ledger) Restore(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for name := range l.models {
		if l.store == nil {
			continue
		}
		u, err := l.store.Load(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to restore usage for %s: %w", name, err)
		}
		if u != nil {
			l.usage[name] = u
		}
	}
	return nil
}

// CanUse 判断模型当前是否可以发起请求。
// 不可用时返回 UnavailableError 说明原因。
func (l *Ledger) CanUse(model string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.canUseLocked(model)
}

func (l *Ledger) canUseLocked(model string) error {
	cfg, ok := l.models[model]
	if !ok {
		return UnavailableError{Model: model, Reason: ReasonDepleted}
	}
	u := l.usageLocked(model)
	now := l.now()
	l.resetIfNewDayLocked(u, now)

	if u.IsDepleted {
		return UnavailableError{Model: model, Reason: ReasonDepleted, Until: u.CooldownUntil}
	}
	if now.Before(u.CooldownUntil) {
		return UnavailableError{Model: model, Reason: ReasonCooldown, Until: u.CooldownUntil}
	}
	if cfg.DailyLimit > 0 && u.RequestsToday >= cfg.DailyLimit {
		return UnavailableError{Model: model, Reason: ReasonDailyLimit}
	}
	if cfg.PerMinute > 0 {
		recent := 0
		for _, t := range u.RecentRequests {
			if now.Sub(t) < rpmWindow {
				recent++
			}
		}
		if recent >= cfg.PerMinute {
			return UnavailableError{Model: model, Reason: ReasonRPMLimit, Until: u.RecentRequests[0].Add(rpmWindow)}
		}
	}
	return nil
}

// Record 记录一次成功发出的请求
func (l *Ledger) Record(ctx context.Context, model string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	u := l.usageLocked(model)
	now := l.now()
	l.resetIfNewDayLocked(u, now)

	u.RequestsToday++
	u.RecentRequests = l.pruneLocked(u.RecentRequests, now)
	u.RecentRequests = append(u.RecentRequests, now)

	metrics.QuotaRequestsToday.WithLabelValues(model).Set(float64(u.RequestsToday))
	l.persistLocked(ctx, u)
}

// ReportRateLimited 记录一次 429，进入短冷却
func (l *Ledger) ReportRateLimited(ctx context.Context, model string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	u := l.usageLocked(model)
	u.CooldownUntil = l.now().Add(rateLimitCooldown)
	metrics.QuotaCooldowns.WithLabelValues(model, "rate_limit").Inc()
	l.persistLocked(ctx, u)
}

// ReportDepleted 记录配额耗尽，标记为不可用并进入长冷却。
// IsDepleted 在当日内保持粘滞，跨日重置时清除。
func (l *Ledger) ReportDepleted(ctx context.Context, model string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	u := l.usageLocked(model)
	u.IsDepleted = true
	u.CooldownUntil = l.now().Add(depletedCooldown)
	metrics.QuotaCooldowns.WithLabelValues(model, "depleted").Inc()
	l.persistLocked(ctx, u)
}

// Reset 清空所有模型的计数、冷却与耗尽标记
func (l *Ledger) Reset(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	today := l.now().Format("2006-01-02")
	for name := range l.models {
		u := l.usageLocked(name)
		u.RequestsToday = 0
		u.LastResetDate = today
		u.RecentRequests = nil
		u.IsDepleted = false
		u.CooldownUntil = time.Time{}
		metrics.QuotaRequestsToday.WithLabelValues(name).Set(0)
		l.persistLocked(ctx, u)
	}
}

// Snapshot 返回所有已配置模型的使用状态副本
func (l *Ledger) Snapshot() []ModelUsage {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	out := make([]ModelUsage, 0, len(l.models))
	for name := range l.models {
		u := l.usageLocked(name)
		l.resetIfNewDayLocked(u, now)
		cp := *u
		cp.RecentRequests = append([]time.Time(nil), u.RecentRequests...)
		out = append(out, cp)
	}
	return out
}

// usageLocked 获取或初始化模型使用状态，调用方需持锁
func (l *Ledger) usageLocked(model string) *ModelUsage {
	u, ok := l.usage[model]
	if !ok {
		u = &ModelUsage{
			Model:         model,
			LastResetDate: l.now().Format("2006-01-02"),
		}
		l.usage[model] = u
	}
	return u
}

// resetIfNewDayLocked 跨日重置计数与粘滞标记
func (l *Ledger) resetIfNewDayLocked(u *ModelUsage, now time.Time) {
	today := now.Format("2006-01-02")
	if u.LastResetDate == today {
		return
	}
	u.RequestsToday = 0
	u.LastResetDate = today
	u.RecentRequests = nil
	u.IsDepleted = false
	u.CooldownUntil = time.Time{}
}

// pruneLocked 丢弃滑动窗口外的请求时间戳
func (l *Ledger) pruneLocked(ts []time.Time, now time.Time) []time.Time {
	out := ts[:0]
	for _, t := range ts {
		if now.Sub(t) < rpmWindow {
			out = append(out, t)
		}
	}
	return out
}

func (l *Ledger) persistLocked(ctx context.Context, u *ModelUsage) {
	if l.store == nil {
		return
	}
	// 持久化失败不阻塞调度，状态仍在内存中
	if err := l.store.Save(ctx, u); err != nil {
		logger.Warn(ctx, "failed to persist model usage", "model", u.Model, "error", err.Error())
	}
}
