// Package handler 提供 HTTP 请求处理器
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"novel-trans-api/internal/domain/repository"
	"novel-trans-api/internal/infrastructure/persistence/redis"
	"novel-trans-api/internal/interfaces/http/dto"
	"novel-trans-api/pkg/logger"
)

// statsCacheTTL 统计信息缓存时长
const statsCacheTTL = 30 * time.Second

// ProjectHandler 项目处理器
type ProjectHandler struct {
	projectRepo repository.ProjectRepository
	cache       *redis.Cache
}

// NewProjectHandler 创建项目处理器
func NewProjectHandler(projectRepo repository.ProjectRepository, cache *redis.Cache) *ProjectHandler {
	return &ProjectHandler{
		projectRepo: projectRepo,
		cache:       cache,
	}
}

// ListProjects 获取项目列表
// @Summary 获取项目列表
// @Description 按更新时间倒序分页获取项目列表
// @Tags Projects
// @Accept json
// @Produce json
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页条数" default(20)
// @Success 200 {object} dto.Response[[]dto.ProjectResponse]
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/projects [get]
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	ctx := c.Request.Context()
	pageReq := dto.BindPage(c)

	result, err := h.projectRepo.List(ctx, repository.NewPagination(pageReq.Page, pageReq.PageSize))
	if err != nil {
		respondError(c, err, "failed to list projects")
		return
	}

	resp := dto.ToProjectListResponse(result.Items)
	meta := dto.NewPageMeta(pageReq.Page, pageReq.PageSize, int(result.Total))
	dto.SuccessWithPage(c, resp, meta)
}

// CreateProject 创建项目
// @Summary 创建项目
// @Description 创建新的翻译项目
// @Tags Projects
// @Accept json
// @Produce json
// @Param body body dto.CreateProjectRequest true "项目信息"
// @Success 201 {object} dto.Response[dto.ProjectResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/projects [post]
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	project := req.ToProjectEntity()
	if err := h.projectRepo.Create(ctx, project); err != nil {
		respondError(c, err, "failed to create project")
		return
	}

	dto.Created(c, dto.ToProjectResponse(project))
}

// GetProject 获取项目详情
// @Summary 获取项目详情
// @Description 获取指定项目的详细信息
// @Tags Projects
// @Accept json
// @Produce json
// @Param pid path string true "项目 ID"
// @Success 200 {object} dto.Response[dto.ProjectResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/projects/{pid} [get]
func (h *ProjectHandler) GetProject(c *gin.Context) {
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

	dto.Success(c, dto.ToProjectResponse(project))
}

// UpdateProject 更新项目
// @Summary 更新项目
// @Description 更新指定项目的信息，未提供的字段保持不变
// @Tags Projects
// @Accept json
// @Produce json
// @Param pid path string true "项目 ID"
// @Param body body dto.UpdateProjectRequest true "更新内容"
// @Success 200 {object} dto.Response[dto.ProjectResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/projects/{pid} [put]
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	ctx := c.Request.Context()
	projectID := dto.BindProjectID(c)

	var req dto.UpdateProjectRequest
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

	req.Apply(project)
	if err := h.projectRepo.Update(ctx, project); err != nil {
		respondError(c, err, "failed to update project")
		return
	}
	h.invalidate(c, projectID)

	dto.Success(c, dto.ToProjectResponse(project))
}

// DeleteProject 删除项目
// @Summary 删除项目
// @Description 删除指定项目及其全部章节
// @Tags Projects
// @Accept json
// @Produce json
// @Param pid path string true "项目 ID"
// @Success 204 "No Content"
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/projects/{pid} [delete]
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	ctx := c.Request.Context()
	projectID := dto.BindProjectID(c)

	if err := h.projectRepo.Delete(ctx, projectID); err != nil {
		respondError(c, err, "failed to delete project")
		return
	}
	h.invalidate(c, projectID)

	c.Status(http.StatusNoContent)
}

// GetProjectStats 获取项目统计
// @Summary 获取项目统计
// @Description 获取项目章节数、译完数、失败数和术语表规模
// @Tags Projects
// @Accept json
// @Produce json
// @Param pid path string true "项目 ID"
// @Success 200 {object} dto.Response[dto.ProjectStatsResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/stats [get]
func (h *ProjectHandler) GetProjectStats(c *gin.Context) {
	ctx := c.Request.Context()
	projectID := dto.BindProjectID(c)

	load := func() (interface{}, error) {
		return h.projectRepo.GetStats(ctx, projectID)
	}

	var stats repository.ProjectStats
	if h.cache != nil {
		data, err := h.cache.GetOrLoadSafe(ctx, redis.BuildStatsKey(projectID), statsCacheTTL, load)
		if err != nil {
			respondError(c, err, "failed to get project stats")
			return
		}
		if err := json.Unmarshal(data, &stats); err != nil {
			respondError(c, err, "failed to decode project stats")
			return
		}
	} else {
		s, err := h.projectRepo.GetStats(ctx, projectID)
		if err != nil {
			respondError(c, err, "failed to get project stats")
			return
		}
		stats = *s
	}

	dto.Success(c, dto.ToProjectStatsResponse(&stats))
}

// UpdateDictionary 更新术语表
// @Summary 更新术语表
// @Description 合并或整表替换项目术语表
// @Tags Projects
// @Accept json
// @Produce json
// @Param pid path string true "项目 ID"
// @Param body body dto.UpdateDictionaryRequest true "术语表内容"
// @Success 200 {object} dto.Response[dto.ProjectResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/dictionary [put]
func (h *ProjectHandler) UpdateDictionary(c *gin.Context) {
	ctx := c.Request.Context()
	projectID := dto.BindProjectID(c)

	var req dto.UpdateDictionaryRequest
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

	if req.Replace {
		project.Dictionary = req.Entries
	} else {
		for source, target := range req.Entries {
			project.SetDictionaryEntry(source, target)
		}
	}

	if err := h.projectRepo.Update(ctx, project); err != nil {
		respondError(c, err, "failed to update dictionary")
		return
	}
	h.invalidate(c, projectID)

	dto.Success(c, dto.ToProjectResponse(project))
}

// invalidate 让项目相关缓存失效，失败只记日志
func (h *ProjectHandler) invalidate(c *gin.Context, projectID string) {
	if h.cache == nil {
		return
	}
	if err := h.cache.InvalidateProject(c.Request.Context(), projectID); err != nil {
		logger.Warn(c.Request.Context(), "failed to invalidate project cache", "project_id", projectID, "error", err)
	}
}
