// Package batch 提供章节翻译的执行与排队调度
package batch

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"novel-trans-api/internal/application/translate"
	"novel-trans-api/internal/domain/repository"
	apperrors "novel-trans-api/pkg/errors"
	"novel-trans-api/pkg/logger"
)

var tracer = otel.Tracer("batch")

// Service 单章翻译执行器
// 负责状态流转：processing -> completed/error，失败原因落在章节上。
type Service struct {
	translator *translate.Translator
	analyzer   *translate.Analyzer
	projects   repository.ProjectRepository
	chapters   repository.ChapterRepository
}

// NewService 创建翻译执行器
func NewService(translator *translate.Translator, analyzer *translate.Analyzer, projects repository.ProjectRepository, chapters repository.ChapterRepository) *Service {
	return &Service{
		translator: translator,
		analyzer:   analyzer,
		projects:   projects,
		chapters:   chapters,
	}
}

// TranslateChapter 翻译一个章节并落库。
// force 为 false 时只处理 idle/error 状态的章节。
func (s *Service) TranslateChapter(ctx context.Context, projectID, chapterID string, force bool) error {
	ctx, span := tracer.Start(ctx, "batch.TranslateChapter",
		trace.WithAttributes(
			attribute.String("project.id", projectID),
			attribute.String("chapter.id", chapterID),
		))
	defer span.End()

	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return err
	}
	if project == nil {
		return apperrors.New(apperrors.CodeProjectNotFound, "project not found")
	}

	chapter, err := s.chapters.GetByID(ctx, chapterID)
	if err != nil {
		return err
	}
	if chapter == nil {
		return apperrors.New(apperrors.CodeChapterNotFound, "chapter not found")
	}
	if !force && !chapter.IsTranslatable() {
		logger.Info(ctx, "chapter skipped", "chapter_id", chapterID, "status", chapter.Status)
		return nil
	}

	chapter.MarkProcessing()
	if err := s.chapters.Update(ctx, chapter); err != nil {
		return err
	}

	out, err := s.translator.TranslateChapter(ctx, project, chapter)
	if err != nil {
		span.RecordError(err)
		chapter.MarkError(err.Error())
		if updateErr := s.chapters.Update(ctx, chapter); updateErr != nil {
			logger.Error(ctx, "failed to record chapter error", updateErr)
		}
		return err
	}

	chapter.MarkCompleted(out.Title, out.Content, out.Model)
	return s.chapters.Update(ctx, chapter)
}

// EnsureContext 项目还没有叙事档案时分析样章生成一份
func (s *Service) EnsureContext(ctx context.Context, projectID string) error {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return err
	}
	if project == nil {
		return apperrors.New(apperrors.CodeProjectNotFound, "project not found")
	}
	if project.GlobalContext != "" {
		return nil
	}

	chapters, err := s.chapters.ListAllByProject(ctx, projectID)
	if err != nil {
		return err
	}
	if len(chapters) == 0 {
		return nil
	}

	analysis, err := s.analyzer.AnalyzeContext(ctx, project, chapters)
	if err != nil {
		return err
	}
	return s.projects.UpdateGlobalContext(ctx, projectID, analysis)
}
