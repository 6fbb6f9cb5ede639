package handler

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"novel-trans-api/internal/application/ingest"
	"novel-trans-api/internal/domain/entity"
	"novel-trans-api/internal/domain/repository"
	"novel-trans-api/internal/interfaces/http/dto"
)

// maxImportBytes 导入文件大小上限
const maxImportBytes = 64 << 20

// ChapterHandler 章节处理器
type ChapterHandler struct {
	projectRepo repository.ProjectRepository
	chapterRepo repository.ChapterRepository
	txMgr       repository.Transactor
}

// NewChapterHandler 创建章节处理器
func NewChapterHandler(projectRepo repository.ProjectRepository, chapterRepo repository.ChapterRepository, txMgr repository.Transactor) *ChapterHandler {
	return &ChapterHandler{
		projectRepo: projectRepo,
		chapterRepo: chapterRepo,
		txMgr:       txMgr,
	}
}

// ListChapters 获取章节列表
// @Summary 获取章节列表
// @Description 按阅读顺序分页获取章节列表，不含正文
// @Tags Chapters
// @Accept json
// @Produce json
// @Param pid path string true "项目 ID"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页条数" default(20)
// @Param status query string false "状态过滤"
// @Success 200 {object} dto.Response[[]dto.ChapterResponse]
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/chapters [get]
func (h *ChapterHandler) ListChapters(c *gin.Context) {
	ctx := c.Request.Context()
	projectID := dto.BindProjectID(c)
	pageReq := dto.BindPage(c)

	var filter *repository.ChapterFilter
	if status := c.Query("status"); status != "" {
		filter = &repository.ChapterFilter{Status: entity.ChapterStatus(status)}
	}

	result, err := h.chapterRepo.ListByProject(ctx, projectID, filter, repository.NewPagination(pageReq.Page, pageReq.PageSize))
	if err != nil {
		respondError(c, err, "failed to list chapters")
		return
	}

	resp := dto.ToChapterListResponse(result.Items)
	meta := dto.NewPageMeta(pageReq.Page, pageReq.PageSize, int(result.Total))
	dto.SuccessWithPage(c, resp, meta)
}

// CreateChapter 创建章节
// @Summary 创建章节
// @Description 在项目末尾追加一个章节
// @Tags Chapters
// @Accept json
// @Produce json
// @Param pid path string true "项目 ID"
// @Param body body dto.CreateChapterRequest true "章节内容"
// @Success 201 {object} dto.Response[dto.ChapterResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/chapters [post]
func (h *ChapterHandler) CreateChapter(c *gin.Context) {
	ctx := c.Request.Context()
	projectID := dto.BindProjectID(c)

	var req dto.CreateChapterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
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

	var chapter *entity.Chapter
	err = h.txMgr.WithTransaction(ctx, func(txCtx context.Context) error {
		orderIndex, err := h.chapterRepo.GetNextOrderIndex(txCtx, projectID)
		if err != nil {
			return err
		}
		chapter = entity.NewChapter(projectID, req.Title, req.Content, orderIndex)
		return h.chapterRepo.Create(txCtx, chapter)
	})
	if err != nil {
		respondError(c, err, "failed to create chapter")
		return
	}

	dto.Created(c, dto.ToChapterResponse(chapter))
}

// GetChapter 获取章节详情
// @Summary 获取章节详情
// @Description 获取章节详情，含原文与译文
// @Tags Chapters
// @Accept json
// @Produce json
// @Param pid path string true "项目 ID"
// @Param cid path string true "章节 ID"
// @Success 200 {object} dto.Response[dto.ChapterDetailResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/chapters/{cid} [get]
func (h *ChapterHandler) GetChapter(c *gin.Context) {
	ctx := c.Request.Context()
	chapterID := dto.BindChapterID(c)

	chapter, err := h.chapterRepo.GetByID(ctx, chapterID)
	if err != nil {
		respondError(c, err, "failed to get chapter")
		return
	}
	if chapter == nil || chapter.ProjectID != dto.BindProjectID(c) {
		dto.NotFound(c, "chapter not found")
		return
	}

	dto.Success(c, dto.ToChapterDetailResponse(chapter))
}

// UpdateChapter 更新章节
// @Summary 更新章节
// @Description 更新章节标题、正文或译文，未提供的字段保持不变
// @Tags Chapters
// @Accept json
// @Produce json
// @Param pid path string true "项目 ID"
// @Param cid path string true "章节 ID"
// @Param body body dto.UpdateChapterRequest true "更新内容"
// @Success 200 {object} dto.Response[dto.ChapterDetailResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/chapters/{cid} [put]
func (h *ChapterHandler) UpdateChapter(c *gin.Context) {
	ctx := c.Request.Context()
	chapterID := dto.BindChapterID(c)

	var req dto.UpdateChapterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	chapter, err := h.chapterRepo.GetByID(ctx, chapterID)
	if err != nil {
		respondError(c, err, "failed to get chapter")
		return
	}
	if chapter == nil || chapter.ProjectID != dto.BindProjectID(c) {
		dto.NotFound(c, "chapter not found")
		return
	}

	req.Apply(chapter)
	if err := h.chapterRepo.Update(ctx, chapter); err != nil {
		respondError(c, err, "failed to update chapter")
		return
	}

	dto.Success(c, dto.ToChapterDetailResponse(chapter))
}

// DeleteChapter 删除章节
// @Summary 删除章节
// @Description 删除指定章节
// @Tags Chapters
// @Accept json
// @Produce json
// @Param pid path string true "项目 ID"
// @Param cid path string true "章节 ID"
// @Success 204 "No Content"
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/chapters/{cid} [delete]
func (h *ChapterHandler) DeleteChapter(c *gin.Context) {
	ctx := c.Request.Context()
	chapterID := dto.BindChapterID(c)

	chapter, err := h.chapterRepo.GetByID(ctx, chapterID)
	if err != nil {
		respondError(c, err, "failed to get chapter")
		return
	}
	if chapter == nil || chapter.ProjectID != dto.BindProjectID(c) {
		dto.NotFound(c, "chapter not found")
		return
	}

	if err := h.chapterRepo.Delete(ctx, chapterID); err != nil {
		respondError(c, err, "failed to delete chapter")
		return
	}

	c.Status(http.StatusNoContent)
}

// ImportChapters 导入章节文件
// @Summary 导入章节文件
// @Description 上传 txt、zip 或 epub 文件，切分为章节后批量追加到项目
// @Tags Chapters
// @Accept multipart/form-data
// @Produce json
// @Param pid path string true "项目 ID"
// @Param file formData file true "小说文件"
// @Param mode formData string false "切分模式 auto/heading/length"
// @Success 201 {object} dto.Response[dto.ImportResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/chapters/import [post]
func (h *ChapterHandler) ImportChapters(c *gin.Context) {
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

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		dto.BadRequest(c, "missing upload file: "+err.Error())
		return
	}
	defer file.Close()

	if header.Size > maxImportBytes {
		dto.BadRequest(c, "file too large")
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxImportBytes+1))
	if err != nil {
		respondError(c, err, "failed to read upload file")
		return
	}
	if int64(len(data)) > maxImportBytes {
		dto.BadRequest(c, "file too large")
		return
	}

	opts := ingest.Options{Mode: ingest.Mode(c.PostForm("mode"))}
	if opts.Mode == "" {
		opts.Mode = ingest.ModeAuto
	}
	if p := c.PostForm("heading_pattern"); p != "" {
		opts.HeadingPattern = p
	}

	var raws []ingest.RawChapter
	switch strings.ToLower(filepath.Ext(header.Filename)) {
	case ".txt":
		raws, err = ingest.SplitText(string(data), opts)
	case ".zip":
		raws, err = ingest.ImportZip(bytes.NewReader(data), int64(len(data)), opts)
	case ".epub":
		raws, err = ingest.ImportEpub(bytes.NewReader(data), int64(len(data)))
	default:
		dto.BadRequest(c, "unsupported file type, expected .txt, .zip or .epub")
		return
	}
	if err != nil {
		respondError(c, err, "failed to parse upload file")
		return
	}
	if len(raws) == 0 {
		dto.BadRequest(c, "no chapters recognized in upload file")
		return
	}

	// 顺序号分配和批量写入放在同一个事务里，避免并发导入交叉编号
	var chapters []*entity.Chapter
	err = h.txMgr.WithTransaction(ctx, func(txCtx context.Context) error {
		orderIndex, err := h.chapterRepo.GetNextOrderIndex(txCtx, projectID)
		if err != nil {
			return err
		}
		chapters = make([]*entity.Chapter, 0, len(raws))
		for i, raw := range raws {
			chapters = append(chapters, entity.NewChapter(projectID, raw.Title, raw.Content, orderIndex+i))
		}
		return h.chapterRepo.CreateBatch(txCtx, chapters)
	})
	if err != nil {
		respondError(c, err, "failed to import chapters")
		return
	}

	dto.Created(c, &dto.ImportResponse{
		Imported: len(chapters),
		Chapters: dto.ToChapterListResponse(chapters),
	})
}
