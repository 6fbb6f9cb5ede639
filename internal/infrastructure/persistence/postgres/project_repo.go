// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"novel-trans-api/internal/domain/entity"
	"novel-trans-api/internal/domain/repository"
)

// ProjectRepository 项目仓储实现
type ProjectRepository struct {
	client *Client
}

// NewProjectRepository 创建项目仓储
func NewProjectRepository(client *Client) *ProjectRepository {
	return &ProjectRepository{client: client}
}

// Create 创建项目
func (r *ProjectRepository) Create(ctx context.Context, project *entity.Project) error {
	ctx, span := tracer.Start(ctx, "postgres.ProjectRepository.Create")
	defer span.End()

	if err := getDB(ctx, r.client.db).Create(project).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取项目，不存在时返回 nil
func (r *ProjectRepository) GetByID(ctx context.Context, id string) (*entity.Project, error) {
	ctx, span := tracer.Start(ctx, "postgres.ProjectRepository.GetByID")
	defer span.End()

	var project entity.Project
	err := getDB(ctx, r.client.db).First(&project, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return &project, nil
}

// Update 更新项目
func (r *ProjectRepository) Update(ctx context.Context, project *entity.Project) error {
	ctx, span := tracer.Start(ctx, "postgres.ProjectRepository.Update")
	defer span.End()

	if err := getDB(ctx, r.client.db).Save(project).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update project: %w", err)
	}
	return nil
}

// Delete 删除项目及其全部章节
func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "postgres.ProjectRepository.Delete")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Delete(&entity.Chapter{}, "project_id = ?", id).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete project chapters: %w", err)
	}
	if err := db.Delete(&entity.Project{}, "id = ?", id).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return nil
}

// List 获取项目列表，按最近更新排序
func (r *ProjectRepository) List(ctx context.Context, pagination repository.Pagination) (*repository.PagedResult[*entity.Project], error) {
	ctx, span := tracer.Start(ctx, "postgres.ProjectRepository.List")
	defer span.End()

	db := getDB(ctx, r.client.db)

	var total int64
	if err := db.Model(&entity.Project{}).Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count projects: %w", err)
	}

	var projects []*entity.Project
	err := db.Order("updated_at DESC").
		Limit(pagination.Limit()).
		Offset(pagination.Offset()).
		Find(&projects).Error
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	return repository.NewPagedResult(projects, total, pagination), nil
}

// UpdateLastCrawlURL 记录最近一次抓取的地址
func (r *ProjectRepository) UpdateLastCrawlURL(ctx context.Context, id, url string) error {
	ctx, span := tracer.Start(ctx, "postgres.ProjectRepository.UpdateLastCrawlURL")
	defer span.End()

	err := getDB(ctx, r.client.db).Model(&entity.Project{}).
		Where("id = ?", id).
		Update("last_crawl_url", url).Error
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update last crawl url: %w", err)
	}
	return nil
}

// UpdateGlobalContext 更新跨章节叙事摘要
func (r *ProjectRepository) UpdateGlobalContext(ctx context.Context, id, globalContext string) error {
	ctx, span := tracer.Start(ctx, "postgres.ProjectRepository.UpdateGlobalContext")
	defer span.End()

	err := getDB(ctx, r.client.db).Model(&entity.Project{}).
		Where("id = ?", id).
		Update("global_context", globalContext).Error
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update global context: %w", err)
	}
	return nil
}

// GetStats 获取项目统计信息
func (r *ProjectRepository) GetStats(ctx context.Context, id string) (*repository.ProjectStats, error) {
	ctx, span := tracer.Start(ctx, "postgres.ProjectRepository.GetStats")
	defer span.End()

	db := getDB(ctx, r.client.db)

	var stats repository.ProjectStats
	row := db.Raw(`
		SELECT
			COALESCE(COUNT(*), 0) AS total_chapters,
			COALESCE(COUNT(*) FILTER (WHERE status = 'completed'), 0) AS translated_count,
			COALESCE(COUNT(*) FILTER (WHERE status = 'error'), 0) AS error_count,
			COALESCE(SUM(word_count), 0) AS total_source_runes
		FROM chapters
		WHERE project_id = ?
	`, id).Row()
	if err := row.Scan(&stats.TotalChapters, &stats.TranslatedCount, &stats.ErrorCount, &stats.TotalSourceRunes); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get project stats: %w", err)
	}

	var project entity.Project
	if err := db.Select("dictionary").First(&project, "id = ?", id).Error; err == nil {
		stats.DictionaryEntries = len(project.Dictionary)
	}

	return &stats, nil
}
