package dto

import (
	"time"

	"novel-trans-api/internal/domain/entity"
)

// CreateChapterRequest 创建章节请求
type CreateChapterRequest struct {
	Title   string `json:"title" binding:"max=255"`
	Content string `json:"content" binding:"required"`
}

// UpdateChapterRequest 更新章节请求，nil 字段不修改
type UpdateChapterRequest struct {
	Title             *string `json:"title,omitempty" binding:"omitempty,max=255"`
	Content           *string `json:"content,omitempty"`
	TranslatedTitle   *string `json:"translated_title,omitempty" binding:"omitempty,max=255"`
	TranslatedContent *string `json:"translated_content,omitempty"`
}

// Apply 把请求合并到章节实体
func (r *UpdateChapterRequest) Apply(chapter *entity.Chapter) {
	if r.Title != nil {
		chapter.Title = *r.Title
	}
	if r.Content != nil {
		chapter.SetContent(*r.Content)
	}
	if r.TranslatedTitle != nil {
		chapter.TranslatedTitle = *r.TranslatedTitle
	}
	if r.TranslatedContent != nil {
		chapter.TranslatedContent = *r.TranslatedContent
	}
}

// ChapterResponse 章节响应（不含正文）
type ChapterResponse struct {
	ID              string    `json:"id"`
	ProjectID       string    `json:"project_id"`
	OrderIndex      int       `json:"order_index"`
	Title           string    `json:"title"`
	TranslatedTitle string    `json:"translated_title,omitempty"`
	SourceURL       string    `json:"source_url,omitempty"`
	WordCount       int       `json:"word_count"`
	Status          string    `json:"status"`
	ErrorMessage    string    `json:"error_message,omitempty"`
	RetryCount      int       `json:"retry_count,omitempty"`
	UsedModel       string    `json:"used_model,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ChapterDetailResponse 章节详情响应（含正文与译文）
type ChapterDetailResponse struct {
	ChapterResponse
	Content           string `json:"content,omitempty"`
	TranslatedContent string `json:"translated_content,omitempty"`
}

// ToChapterResponse 章节实体转响应
func ToChapterResponse(c *entity.Chapter) *ChapterResponse {
	return &ChapterResponse{
		ID:              c.ID,
		ProjectID:       c.ProjectID,
		OrderIndex:      c.OrderIndex,
		Title:           c.Title,
		TranslatedTitle: c.TranslatedTitle,
		SourceURL:       c.SourceURL,
		WordCount:       c.WordCount,
		Status:          string(c.Status),
		ErrorMessage:    c.ErrorMessage,
		RetryCount:      c.RetryCount,
		UsedModel:       c.UsedModel,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

// ToChapterDetailResponse 章节实体转详情响应
func ToChapterDetailResponse(c *entity.Chapter) *ChapterDetailResponse {
	return &ChapterDetailResponse{
		ChapterResponse:   *ToChapterResponse(c),
		Content:           c.Content,
		TranslatedContent: c.TranslatedContent,
	}
}

// ImportResponse 章节导入结果
type ImportResponse struct {
	Imported int                `json:"imported"`
	Chapters []*ChapterResponse `json:"chapters"`
}

// ToChapterListResponse 章节列表转响应
func ToChapterListResponse(chapters []*entity.Chapter) []*ChapterResponse {
	out := make([]*ChapterResponse, 0, len(chapters))
	for _, c := range chapters {
		out = append(out, ToChapterResponse(c))
	}
	return out
}
