// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"novel-trans-api/internal/domain/entity"
)

// ChapterFilter 章节过滤条件
type ChapterFilter struct {
	Status entity.ChapterStatus
}

// ChapterRepository 章节仓储接口
type ChapterRepository interface {
	// Create 创建章节
	Create(ctx context.Context, chapter *entity.Chapter) error

	// CreateBatch 批量创建章节
	CreateBatch(ctx context.Context, chapters []*entity.Chapter) error

	// GetByID 根据 ID 获取章节
	GetByID(ctx context.Context, id string) (*entity.Chapter, error)

	// Update 更新章节
	Update(ctx context.Context, chapter *entity.Chapter) error

	// Delete 删除章节
	Delete(ctx context.Context, id string) error

	// ListByProject 获取项目章节列表（按阅读顺序分页）
	ListByProject(ctx context.Context, projectID string, filter *ChapterFilter, pagination Pagination) (*PagedResult[*entity.Chapter], error)

	// ListAllByProject 获取项目全部章节（按阅读顺序）
	ListAllByProject(ctx context.Context, projectID string) ([]*entity.Chapter, error)

	// GetNextOrderIndex 获取下一个阅读顺序号
	GetNextOrderIndex(ctx context.Context, projectID string) (int, error)
}
