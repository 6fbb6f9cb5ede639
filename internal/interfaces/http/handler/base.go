package handler

import (
	"github.com/gin-gonic/gin"

	"novel-trans-api/internal/interfaces/http/dto"
	"novel-trans-api/pkg/errors"
	"novel-trans-api/pkg/logger"
)

// respondError 把应用错误映射为 HTTP 响应
// 非 AppError 的未知错误记日志并返回 500，不向客户端泄露内部细节。
func respondError(c *gin.Context, err error, fallbackMsg string) {
	if errors.IsAppError(err) {
		appErr := errors.AsAppError(err)
		c.JSON(appErr.HTTPStatus, dto.ErrorResponse{
			Code:    appErr.HTTPStatus,
			Message: appErr.Message,
			TraceID: c.GetString("trace_id"),
		})
		return
	}
	logger.Error(c.Request.Context(), fallbackMsg, err)
	dto.InternalError(c, fallbackMsg)
}
