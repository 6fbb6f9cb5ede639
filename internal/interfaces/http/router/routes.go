// Package router 提供 HTTP 路由配置
package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterV1Routes 注册 v1 版本路由
func RegisterV1Routes(v1 *gin.RouterGroup, h Handlers) {
	// 项目管理
	projects := v1.Group("/projects")
	{
		projects.GET("", h.Project.ListProjects)
		projects.POST("", h.Project.CreateProject)
		projects.GET("/:pid", h.Project.GetProject)
		projects.PUT("/:pid", h.Project.UpdateProject)
		projects.DELETE("/:pid", h.Project.DeleteProject)

		// 统计与术语表
		projects.GET("/:pid/stats", h.Project.GetProjectStats)
		projects.PUT("/:pid/dictionary", h.Project.UpdateDictionary)

		// 项目下的章节
		projects.GET("/:pid/chapters", h.Chapter.ListChapters)
		projects.POST("/:pid/chapters", h.Chapter.CreateChapter)
		projects.POST("/:pid/chapters/import", h.Chapter.ImportChapters)
		projects.GET("/:pid/chapters/:cid", h.Chapter.GetChapter)
		projects.PUT("/:pid/chapters/:cid", h.Chapter.UpdateChapter)
		projects.DELETE("/:pid/chapters/:cid", h.Chapter.DeleteChapter)

		// 抓取与翻译
		projects.POST("/:pid/crawl", h.Crawl.Crawl)
		projects.POST("/:pid/chapters/:cid/translate", h.Translate.TranslateChapter)
		projects.POST("/:pid/translate", h.Translate.TranslateBatch)
		projects.POST("/:pid/analyze-context", h.Translate.AnalyzeContext)

		// 导出
		projects.GET("/:pid/export/txt", h.Export.ExportTxt)
		projects.GET("/:pid/export/epub", h.Export.ExportEpub)
	}

	// 批量翻译队列
	batch := v1.Group("/batch")
	{
		batch.GET("", h.Translate.BatchStatus)
		batch.POST("/stop", h.Translate.StopBatch)
	}

	// 模型配额
	v1.GET("/quota", h.Quota.GetQuota)
	v1.POST("/quota/reset", h.Quota.ResetQuota)
}
