package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"novel-trans-api/internal/application/crawl"
	"novel-trans-api/internal/infrastructure/messaging"
	"novel-trans-api/internal/interfaces/http/dto"
)

// CrawlHandler 抓取处理器
type CrawlHandler struct {
	crawlSvc *crawl.Service
	producer *messaging.Producer
}

// NewCrawlHandler 创建抓取处理器
func NewCrawlHandler(crawlSvc *crawl.Service, producer *messaging.Producer) *CrawlHandler {
	return &CrawlHandler{
		crawlSvc: crawlSvc,
		producer: producer,
	}
}

// Crawl 抓取章节
// @Summary 抓取章节
// @Description 从起始地址顺着下一章链接抓取章节；start_url 缺省时从项目断点续抓
// @Tags Crawl
// @Accept json
// @Produce json
// @Param pid path string true "项目 ID"
// @Param body body dto.CrawlRequest false "抓取选项"
// @Success 200 {object} dto.Response[dto.CrawlResponse]
// @Success 202 {object} dto.Response[dto.CrawlResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/crawl [post]
func (h *CrawlHandler) Crawl(c *gin.Context) {
	ctx := c.Request.Context()
	projectID := dto.BindProjectID(c)

	var req dto.CrawlRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	job := &messaging.CrawlJobMessage{
		JobID:         uuid.NewString(),
		ProjectID:     projectID,
		StartURL:      req.StartURL,
		MaxPages:      req.MaxPages,
		AutoTranslate: req.AutoTranslate,
	}

	if req.Async {
		if h.producer == nil {
			dto.ServiceUnavailable(c, "message queue not configured")
			return
		}
		if _, err := h.producer.PublishCrawlJob(ctx, job); err != nil {
			respondError(c, err, "failed to enqueue crawl job")
			return
		}
		dto.Accepted(c, &dto.CrawlResponse{JobID: job.JobID, Enqueued: true})
		return
	}

	added, err := h.crawlSvc.Run(ctx, job)
	if err != nil {
		respondError(c, err, "crawl failed")
		return
	}

	dto.Success(c, &dto.CrawlResponse{JobID: job.JobID, Added: added})
}
