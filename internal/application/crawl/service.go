// Package crawl 把抓取提取流程落到项目章节上
package crawl

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"novel-trans-api/internal/application/extract"
	"novel-trans-api/internal/domain/entity"
	"novel-trans-api/internal/domain/repository"
	"novel-trans-api/internal/infrastructure/messaging"
	apperrors "novel-trans-api/pkg/errors"
	"novel-trans-api/pkg/logger"
)

var tracer = otel.Tracer("crawl")

// Service 抓取服务
// 沿"下一章"链接逐页提取正文，落库为章节并推进断点。
type Service struct {
	extractor *extract.Extractor
	projects  repository.ProjectRepository
	chapters  repository.ChapterRepository
	producer  *messaging.Producer
	maxPages  int
}

// NewService 创建抓取服务
func NewService(extractor *extract.Extractor, projects repository.ProjectRepository, chapters repository.ChapterRepository, producer *messaging.Producer, maxPages int) *Service {
	if maxPages <= 0 {
		maxPages = 20
	}
	return &Service{
		extractor: extractor,
		projects:  projects,
		chapters:  chapters,
		producer:  producer,
		maxPages:  maxPages,
	}
}

// Run 执行一次抓取任务，返回新增章节数。
// 起始地址缺省时从项目的断点继续。
func (s *Service) Run(ctx context.Context, job *messaging.CrawlJobMessage) (int, error) {
	ctx, span := tracer.Start(ctx, "crawl.Run",
		trace.WithAttributes(attribute.String("project.id", job.ProjectID)))
	defer span.End()

	ctx = logger.WithContext(ctx, logger.ProjectIDKey, job.ProjectID)

	project, err := s.projects.GetByID(ctx, job.ProjectID)
	if err != nil {
		return 0, err
	}
	if project == nil {
		return 0, apperrors.New(apperrors.CodeProjectNotFound, "project not found")
	}

	startURL := job.StartURL
	if startURL == "" {
		startURL = project.LastCrawlURL
	}
	if startURL == "" {
		return 0, apperrors.New(apperrors.CodeInvalidParam, "no start url and no crawl checkpoint")
	}

	maxPages := job.MaxPages
	if maxPages <= 0 {
		maxPages = s.maxPages
	}

	orderIndex, err := s.chapters.GetNextOrderIndex(ctx, job.ProjectID)
	if err != nil {
		return 0, err
	}

	added := 0
	err = s.extractor.Follow(ctx, startURL, maxPages, func(res *extract.Result) (bool, error) {
		chapter := entity.NewChapter(job.ProjectID, res.Title, res.Content, orderIndex)
		chapter.SourceURL = res.PageURL
		if err := s.chapters.Create(ctx, chapter); err != nil {
			return false, err
		}
		orderIndex++
		added++

		if err := s.projects.UpdateLastCrawlURL(ctx, job.ProjectID, res.PageURL); err != nil {
			logger.Warn(ctx, "failed to advance crawl checkpoint", "error", err.Error())
		}

		if job.AutoTranslate && s.producer != nil {
			if _, err := s.producer.PublishTranslateJob(ctx, &messaging.TranslateJobMessage{
				JobID:     chapter.ID,
				ProjectID: job.ProjectID,
				ChapterID: chapter.ID,
			}); err != nil {
				logger.Warn(ctx, "failed to enqueue translate job", "chapter_id", chapter.ID, "error", err.Error())
			}
		}

		logger.Info(ctx, "chapter crawled",
			"title", res.Title,
			"url", res.PageURL,
			"strategy", res.Strategy,
			"runes", len([]rune(res.Content)))
		return true, nil
	})

	// 已经抓到部分章节时不把整个任务算失败
	if err != nil && added == 0 {
		span.RecordError(err)
		return 0, err
	}
	if err != nil {
		logger.Warn(ctx, "crawl stopped early", "added", added, "error", err.Error())
	}

	span.SetAttributes(attribute.Int("crawl.added", added))
	return added, nil
}
