// Package entity 定义领域实体
package entity

import (
	"time"
)

// ChapterStatus 章节翻译状态
type ChapterStatus string

const (
	ChapterStatusIdle       ChapterStatus = "idle"
	ChapterStatusProcessing ChapterStatus = "processing"
	ChapterStatusCompleted  ChapterStatus = "completed"
	ChapterStatusError      ChapterStatus = "error"
)

// Chapter 章节实体
// Content 为原文，TranslatedContent 为译文。OrderIndex 决定阅读顺序。
type Chapter struct {
	ID                string        `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProjectID         string        `json:"project_id" gorm:"type:uuid;index;not null"`
	OrderIndex        int           `json:"order_index" gorm:"not null;index"`
	Title             string        `json:"title" gorm:"type:varchar(255)"`
	TranslatedTitle   string        `json:"translated_title,omitempty" gorm:"type:varchar(255)"`
	Content           string        `json:"content,omitempty" gorm:"type:text"`
	TranslatedContent string        `json:"translated_content,omitempty" gorm:"type:text"`
	SourceURL         string        `json:"source_url,omitempty" gorm:"type:varchar(2048)"`
	WordCount         int           `json:"word_count" gorm:"default:0"`
	Status            ChapterStatus `json:"status" gorm:"type:varchar(50);default:'idle'"`
	ErrorMessage      string        `json:"error_message,omitempty" gorm:"type:text"`
	RetryCount        int           `json:"retry_count" gorm:"default:0"`
	UsedModel         string        `json:"used_model,omitempty" gorm:"type:varchar(128)"`
	CreatedAt         time.Time     `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt         time.Time     `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Chapter) TableName() string {
	return "chapters"
}

// NewChapter 创建新章节
func NewChapter(projectID, title, content string, orderIndex int) *Chapter {
	now := time.Now()
	return &Chapter{
		ProjectID:  projectID,
		OrderIndex: orderIndex,
		Title:      title,
		Content:    content,
		WordCount:  len([]rune(content)),
		Status:     ChapterStatusIdle,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// SetContent 设置章节原文
func (c *Chapter) SetContent(content string) {
	c.Content = content
	c.WordCount = len([]rune(content))
	c.UpdatedAt = time.Now()
}

// MarkProcessing 标记为翻译中
func (c *Chapter) MarkProcessing() {
	c.Status = ChapterStatusProcessing
	c.ErrorMessage = ""
	c.UpdatedAt = time.Now()
}

// MarkCompleted 标记为已完成，并记录使用的模型
func (c *Chapter) MarkCompleted(translatedTitle, translatedContent, model string) {
	c.Status = ChapterStatusCompleted
	c.TranslatedTitle = translatedTitle
	c.TranslatedContent = translatedContent
	c.UsedModel = model
	c.ErrorMessage = ""
	c.UpdatedAt = time.Now()
}

// MarkError 标记为失败并累加重试计数
func (c *Chapter) MarkError(msg string) {
	c.Status = ChapterStatusError
	c.ErrorMessage = msg
	c.RetryCount++
	c.UpdatedAt = time.Now()
}

// IsTranslatable 章节是否可以进入翻译
func (c *Chapter) IsTranslatable() bool {
	return c.Status == ChapterStatusIdle || c.Status == ChapterStatusError
}
