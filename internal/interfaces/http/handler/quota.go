package handler

import (
	"github.com/gin-gonic/gin"

	"novel-trans-api/internal/application/quota"
	"novel-trans-api/internal/interfaces/http/dto"
)

// QuotaHandler 配额处理器
type QuotaHandler struct {
	ledger *quota.Ledger
}

// NewQuotaHandler 创建配额处理器
func NewQuotaHandler(ledger *quota.Ledger) *QuotaHandler {
	return &QuotaHandler{ledger: ledger}
}

// GetQuota 获取模型配额状态
// @Summary 获取模型配额状态
// @Description 查看各模型今日用量、滑动窗口请求数和冷却状态
// @Tags Quota
// @Produce json
// @Success 200 {object} dto.Response[dto.QuotaResponse]
// @Router /v1/quota [get]
func (h *QuotaHandler) GetQuota(c *gin.Context) {
	dto.Success(c, dto.ToQuotaResponse(h.ledger.Snapshot(), h.ledger))
}

// ResetQuota 重置模型配额状态
// @Summary 重置模型配额状态
// @Description 清空所有模型的当日计数、冷却与耗尽标记
// @Tags Quota
// @Produce json
// @Success 200 {object} dto.Response[dto.QuotaResponse]
// @Router /v1/quota/reset [post]
func (h *QuotaHandler) ResetQuota(c *gin.Context) {
	h.ledger.Reset(c.Request.Context())
	dto.Success(c, dto.ToQuotaResponse(h.ledger.Snapshot(), h.ledger))
}
