// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"novel-trans-api/internal/domain/entity"
)

// ProjectRepository 项目仓储接口
type ProjectRepository interface {
	// Create 创建项目
	Create(ctx context.Context, project *entity.Project) error

	// GetByID 根据 ID 获取项目
	GetByID(ctx context.Context, id string) (*entity.Project, error)

	// Update 更新项目
	Update(ctx context.Context, project *entity.Project) error

	// Delete 删除项目（级联删除章节）
	Delete(ctx context.Context, id string) error

	// List 获取项目列表
	List(ctx context.Context, pagination Pagination) (*PagedResult[*entity.Project], error)

	// UpdateLastCrawlURL 记录最近一次抓取的地址，便于断点续抓
	UpdateLastCrawlURL(ctx context.Context, id, url string) error

	// UpdateGlobalContext 更新跨章节叙事摘要
	UpdateGlobalContext(ctx context.Context, id, globalContext string) error

	// GetStats 获取项目统计信息
	GetStats(ctx context.Context, id string) (*ProjectStats, error)
}

// ProjectStats 项目统计信息
type ProjectStats struct {
	TotalChapters     int64 `json:"total_chapters"`
	TranslatedCount   int64 `json:"translated_count"`
	ErrorCount        int64 `json:"error_count"`
	TotalSourceRunes  int64 `json:"total_source_runes"`
	DictionaryEntries int   `json:"dictionary_entries"`
}
