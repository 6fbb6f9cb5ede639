package dto

import (
	"errors"
	"time"

	"novel-trans-api/internal/application/quota"
)

// CrawlRequest 抓取请求
type CrawlRequest struct {
	// StartURL 为空时从项目断点续抓
	StartURL string `json:"start_url,omitempty" binding:"omitempty,url"`
	MaxPages int    `json:"max_pages,omitempty" binding:"omitempty,gte=1,lte=200"`
	// AutoTranslate 抓完自动为新章节入队翻译
	AutoTranslate bool `json:"auto_translate,omitempty"`
	// Async 为 true 时任务进入消息队列，由 worker 执行
	Async bool `json:"async,omitempty"`
}

// CrawlResponse 抓取结果
type CrawlResponse struct {
	JobID    string `json:"job_id,omitempty"`
	Added    int    `json:"added,omitempty"`
	Enqueued bool   `json:"enqueued"`
}

// TranslateChapterRequest 单章翻译请求
type TranslateChapterRequest struct {
	// Force 为 true 时已完成章节也重新翻译
	Force bool `json:"force,omitempty"`
	// Async 为 true 时任务进入消息队列
	Async bool `json:"async,omitempty"`
}

// TranslateBatchRequest 批量翻译请求
type TranslateBatchRequest struct {
	// ChapterIDs 为空时翻译项目下全部可译章节
	ChapterIDs []string `json:"chapter_ids,omitempty"`
	Force      bool     `json:"force,omitempty"`
}

// TranslateBatchResponse 批量翻译响应
type TranslateBatchResponse struct {
	Queued int `json:"queued"`
}

// BatchStatusResponse 批量翻译状态
type BatchStatusResponse struct {
	Active  bool `json:"active"`
	Pending int  `json:"pending"`
}

// AnalyzeContextResponse 叙事档案分析结果
type AnalyzeContextResponse struct {
	GlobalContext string `json:"global_context"`
}

// ModelUsageResponse 单个模型的配额状态
type ModelUsageResponse struct {
	Model          string     `json:"model"`
	RequestsToday  int        `json:"requests_today"`
	RecentRequests int        `json:"recent_requests"`
	CooldownUntil  *time.Time `json:"cooldown_until,omitempty"`
	IsDepleted     bool       `json:"is_depleted"`
	Available      bool       `json:"available"`
	Reason         string     `json:"reason,omitempty"`
}

// QuotaResponse 配额总览
type QuotaResponse struct {
	Models []*ModelUsageResponse `json:"models"`
}

// ToQuotaResponse 账本快照转响应
func ToQuotaResponse(usages []quota.ModelUsage, ledger *quota.Ledger) *QuotaResponse {
	out := make([]*ModelUsageResponse, 0, len(usages))
	for _, u := range usages {
		item := &ModelUsageResponse{
			Model:          u.Model,
			RequestsToday:  u.RequestsToday,
			RecentRequests: len(u.RecentRequests),
			IsDepleted:     u.IsDepleted,
			Available:      true,
		}
		if !u.CooldownUntil.IsZero() {
			t := u.CooldownUntil
			item.CooldownUntil = &t
		}
		if err := ledger.CanUse(u.Model); err != nil {
			item.Available = false
			var unavail quota.UnavailableError
			if errors.As(err, &unavail) {
				item.Reason = string(unavail.Reason)
			}
		}
		out = append(out, item)
	}
	return &QuotaResponse{Models: out}
}
