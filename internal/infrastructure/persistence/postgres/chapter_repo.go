package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"novel-trans-api/internal/domain/entity"
	"novel-trans-api/internal/domain/repository"
)

// ChapterRepository 章节仓储实现
type ChapterRepository struct {
	client *Client
}

// NewChapterRepository 创建章节仓储
func NewChapterRepository(client *Client) *ChapterRepository {
	return &ChapterRepository{client: client}
}

// Create 创建章节
func (r *ChapterRepository) Create(ctx context.Context, chapter *entity.Chapter) error {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.Create")
	defer span.End()

	if err := getDB(ctx, r.client.db).Create(chapter).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create chapter: %w", err)
	}
	return nil
}

// CreateBatch 批量创建章节
func (r *ChapterRepository) CreateBatch(ctx context.Context, chapters []*entity.Chapter) error {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.CreateBatch")
	defer span.End()

	if len(chapters) == 0 {
		return nil
	}
	if err := getDB(ctx, r.client.db).CreateInBatches(chapters, 100).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create chapters: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取章节，不存在时返回 nil
func (r *ChapterRepository) GetByID(ctx context.Context, id string) (*entity.Chapter, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.GetByID")
	defer span.End()

	var chapter entity.Chapter
	err := getDB(ctx, r.client.db).First(&chapter, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get chapter: %w", err)
	}
	return &chapter, nil
}

// Update 更新章节
func (r *ChapterRepository) Update(ctx context.Context, chapter *entity.Chapter) error {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.Update")
	defer span.End()

	if err := getDB(ctx, r.client.db).Save(chapter).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update chapter: %w", err)
	}
	return nil
}

// Delete 删除章节
func (r *ChapterRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.Delete")
	defer span.End()

	if err := getDB(ctx, r.client.db).Delete(&entity.Chapter{}, "id = ?", id).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete chapter: %w", err)
	}
	return nil
}

// ListByProject 获取项目章节列表，按阅读顺序分页
func (r *ChapterRepository) ListByProject(ctx context.Context, projectID string, filter *repository.ChapterFilter, pagination repository.Pagination) (*repository.PagedResult[*entity.Chapter], error) {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.ListByProject")
	defer span.End()

	db := getDB(ctx, r.client.db).Model(&entity.Chapter{}).Where("project_id = ?", projectID)
	if filter != nil && filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count chapters: %w", err)
	}

	var chapters []*entity.Chapter
	// 列表页不带正文，正文单独取
	err := db.Omit("content", "translated_content").
		Order("order_index ASC").
		Limit(pagination.Limit()).
		Offset(pagination.Offset()).
		Find(&chapters).Error
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list chapters: %w", err)
	}

	return repository.NewPagedResult(chapters, total, pagination), nil
}

// ListAllByProject 获取项目全部章节，按阅读顺序
func (r *ChapterRepository) ListAllByProject(ctx context.Context, projectID string) ([]*entity.Chapter, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.ListAllByProject")
	defer span.End()

	var chapters []*entity.Chapter
	err := getDB(ctx, r.client.db).
		Where("project_id = ?", projectID).
		Order("order_index ASC").
		Find(&chapters).Error
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list chapters: %w", err)
	}
	return chapters, nil
}

// GetNextOrderIndex 获取下一个阅读顺序号
func (r *ChapterRepository) GetNextOrderIndex(ctx context.Context, projectID string) (int, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.GetNextOrderIndex")
	defer span.End()

	var maxIndex int
	err := getDB(ctx, r.client.db).Model(&entity.Chapter{}).
		Where("project_id = ?", projectID).
		Select("COALESCE(MAX(order_index), 0)").
		Scan(&maxIndex).Error
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to get next order index: %w", err)
	}
	return maxIndex + 1, nil
}
