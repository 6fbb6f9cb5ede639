package handler

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"novel-trans-api/internal/application/export"
	"novel-trans-api/internal/domain/entity"
	"novel-trans-api/internal/domain/repository"
	"novel-trans-api/internal/interfaces/http/dto"
)

// ExportHandler 导出处理器
type ExportHandler struct {
	projectRepo repository.ProjectRepository
	chapterRepo repository.ChapterRepository
}

// NewExportHandler 创建导出处理器
func NewExportHandler(projectRepo repository.ProjectRepository, chapterRepo repository.ChapterRepository) *ExportHandler {
	return &ExportHandler{
		projectRepo: projectRepo,
		chapterRepo: chapterRepo,
	}
}

// loadProjectChapters 取项目和按阅读顺序的全部章节
func (h *ExportHandler) loadProjectChapters(c *gin.Context) (*entity.Project, []*entity.Chapter, bool) {
	ctx := c.Request.Context()
	projectID := dto.BindProjectID(c)

	project, err := h.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		respondError(c, err, "failed to get project")
		return nil, nil, false
	}
	if project == nil {
		dto.NotFound(c, "project not found")
		return nil, nil, false
	}

	chapters, err := h.chapterRepo.ListAllByProject(ctx, projectID)
	if err != nil {
		respondError(c, err, "failed to list chapters")
		return nil, nil, false
	}
	return project, chapters, true
}

// ExportTxt 导出合并文本
// @Summary 导出合并文本
// @Description 把已完成章节的译文合并为一个 txt 文件下载
// @Tags Export
// @Produce plain
// @Param pid path string true "项目 ID"
// @Success 200 {string} string "合并后的译文"
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/export/txt [get]
func (h *ExportHandler) ExportTxt(c *gin.Context) {
	project, chapters, ok := h.loadProjectChapters(c)
	if !ok {
		return
	}

	merged, err := export.MergeTxt(project, chapters)
	if err != nil {
		respondError(c, err, "failed to merge chapters")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", project.Title+".txt"))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(merged))
}

// ExportEpub 导出 EPUB
// @Summary 导出 EPUB
// @Description 把已完成章节的译文打包为 EPUB 3 文件下载
// @Tags Export
// @Produce application/epub+zip
// @Param pid path string true "项目 ID"
// @Success 200 {file} binary "EPUB 文件"
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/export/epub [get]
func (h *ExportHandler) ExportEpub(c *gin.Context) {
	project, chapters, ok := h.loadProjectChapters(c)
	if !ok {
		return
	}

	// 先在内存里整本打包，失败时还能返回结构化错误
	var buf bytes.Buffer
	if err := export.BuildEpub(&buf, project, chapters); err != nil {
		respondError(c, err, "failed to build epub")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", project.Title+".epub"))
	c.Data(http.StatusOK, "application/epub+zip", buf.Bytes())
}
