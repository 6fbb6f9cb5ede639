package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"novel-trans-api/internal/application/batch"
	"novel-trans-api/internal/application/translate"
	"novel-trans-api/internal/domain/repository"
	"novel-trans-api/internal/infrastructure/messaging"
	"novel-trans-api/internal/interfaces/http/dto"
	"novel-trans-api/pkg/logger"
)

// TranslateHandler 翻译处理器
type TranslateHandler struct {
	batchSvc    *batch.Service
	scheduler   *batch.Scheduler
	analyzer    *translate.Analyzer
	producer    *messaging.Producer
	projectRepo repository.ProjectRepository
	chapterRepo repository.ChapterRepository
}

// NewTranslateHandler 创建翻译处理器
func NewTranslateHandler(
	batchSvc *batch.Service,
	scheduler *batch.Scheduler,
	analyzer *translate.Analyzer,
	producer *messaging.Producer,
	projectRepo repository.ProjectRepository,
	chapterRepo repository.ChapterRepository,
) *TranslateHandler {
	return &TranslateHandler{
		batchSvc:    batchSvc,
		scheduler:   scheduler,
		analyzer:    analyzer,
		producer:    producer,
		projectRepo: projectRepo,
		chapterRepo: chapterRepo,
	}
}

// TranslateChapter 翻译单章
// @Summary 翻译单章
// @Description 同步翻译一个章节，或在 async 模式下投递到消息队列
// @Tags Translate
// @Accept json
// @Produce json
// @Param pid path string true "项目 ID"
// @Param cid path string true "章节 ID"
// @Param body body dto.TranslateChapterRequest false "翻译选项"
// @Success 200 {object} dto.Response[dto.ChapterDetailResponse]
// @Success 202 {object} dto.Response[dto.TranslateBatchResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Failure 429 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/chapters/{cid}/translate [post]
func (h *TranslateHandler) TranslateChapter(c *gin.Context) {
	ctx := c.Request.Context()
	projectID := dto.BindProjectID(c)
	chapterID := dto.BindChapterID(c)

	var req dto.TranslateChapterRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	if req.Async {
		if h.producer == nil {
			dto.ServiceUnavailable(c, "message queue not configured")
			return
		}
		job := &messaging.TranslateJobMessage{
			JobID:     uuid.NewString(),
			ProjectID: projectID,
			ChapterID: chapterID,
			Force:     req.Force,
		}
		if _, err := h.producer.PublishTranslateJob(ctx, job); err != nil {
			respondError(c, err, "failed to enqueue translate job")
			return
		}
		dto.Accepted(c, &dto.TranslateBatchResponse{Queued: 1})
		return
	}

	if err := h.batchSvc.TranslateChapter(ctx, projectID, chapterID, req.Force); err != nil {
		respondError(c, err, "failed to translate chapter")
		return
	}

	chapter, err := h.chapterRepo.GetByID(ctx, chapterID)
	if err != nil || chapter == nil {
		respondError(c, err, "failed to reload chapter")
		return
	}
	dto.Success(c, dto.ToChapterDetailResponse(chapter))
}

// TranslateBatch 批量翻译
// @Summary 批量翻译
// @Description 把指定章节（缺省为全部待译章节）加入串行翻译队列
// @Tags Translate
// @Accept json
// @Produce json
// @Param pid path string true "项目 ID"
// @Param body body dto.TranslateBatchRequest false "批量选项"
// @Success 202 {object} dto.Response[dto.TranslateBatchResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/translate [post]
func (h *TranslateHandler) TranslateBatch(c *gin.Context) {
	ctx := c.Request.Context()
	projectID := dto.BindProjectID(c)

	var req dto.TranslateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	project, err := h.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		respondError(c, err, "failed to get project")
		return
	}
	if project == nil {
		dto.NotFound(c, "project not found")
		return
	}

	chapterIDs := req.ChapterIDs
	if len(chapterIDs) == 0 {
		chapters, err := h.chapterRepo.ListAllByProject(ctx, projectID)
		if err != nil {
			respondError(c, err, "failed to list chapters")
			return
		}
		for _, ch := range chapters {
			if req.Force || ch.IsTranslatable() {
				chapterIDs = append(chapterIDs, ch.ID)
			}
		}
	}
	if len(chapterIDs) == 0 {
		dto.Success(c, &dto.TranslateBatchResponse{Queued: 0})
		return
	}

	// 批量开始前先生成叙事档案，后续每章共用
	if err := h.batchSvc.EnsureContext(ctx, projectID); err != nil {
		logger.Warn(ctx, "failed to prepare story context, translating without it", "project_id", projectID, "error", err)
	}

	jobs := make([]batch.Job, 0, len(chapterIDs))
	for _, id := range chapterIDs {
		jobs = append(jobs, batch.Job{ProjectID: projectID, ChapterID: id, Force: req.Force})
	}
	queued, err := h.scheduler.Enqueue(ctx, jobs)
	if err != nil {
		respondError(c, err, "failed to enqueue batch")
		return
	}

	dto.Accepted(c, &dto.TranslateBatchResponse{Queued: queued})
}

// BatchStatus 批量翻译状态
// @Summary 批量翻译状态
// @Description 查看串行翻译队列是否在跑以及积压章节数
// @Tags Translate
// @Produce json
// @Success 200 {object} dto.Response[dto.BatchStatusResponse]
// @Router /v1/batch [get]
func (h *TranslateHandler) BatchStatus(c *gin.Context) {
	dto.Success(c, &dto.BatchStatusResponse{
		Active:  h.scheduler.Active(),
		Pending: h.scheduler.Pending(),
	})
}

// StopBatch 停止批量翻译
// @Summary 停止批量翻译
// @Description 清空队列并中断当前章节，已完成的译文保留
// @Tags Translate
// @Produce json
// @Success 200 {object} dto.Response[dto.BatchStatusResponse]
// @Router /v1/batch/stop [post]
func (h *TranslateHandler) StopBatch(c *gin.Context) {
	h.scheduler.Stop()
	dto.Success(c, &dto.BatchStatusResponse{
		Active:  h.scheduler.Active(),
		Pending: h.scheduler.Pending(),
	})
}

// AnalyzeContext 分析叙事档案
// @Summary 分析叙事档案
// @Description 基于开头章节让模型生成全书设定摘要并保存到项目
// @Tags Translate
// @Produce json
// @Param pid path string true "项目 ID"
// @Success 200 {object} dto.Response[dto.AnalyzeContextResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Failure 429 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/analyze-context [post]
func (h *TranslateHandler) AnalyzeContext(c *gin.Context) {
	ctx := c.Request.Context()
	projectID := dto.BindProjectID(c)

	project, err := h.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		respondError(c, err, "failed to get project")
		return
	}
	if project == nil {
		dto.NotFound(c, "project not found")
		return
	}

	chapters, err := h.chapterRepo.ListAllByProject(ctx, projectID)
	if err != nil {
		respondError(c, err, "failed to list chapters")
		return
	}
	if len(chapters) == 0 {
		dto.BadRequest(c, "project has no chapters to analyze")
		return
	}

	summary, err := h.analyzer.AnalyzeContext(ctx, project, chapters)
	if err != nil {
		respondError(c, err, "failed to analyze story context")
		return
	}

	if err := h.projectRepo.UpdateGlobalContext(ctx, projectID, summary); err != nil {
		respondError(c, err, "failed to save story context")
		return
	}

	dto.Success(c, &dto.AnalyzeContextResponse{GlobalContext: summary})
}
