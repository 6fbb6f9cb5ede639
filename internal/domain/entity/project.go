// Package entity 定义领域实体
package entity

import (
	"time"
)

// ProjectInfo 作品信息，用于填充提示词模板
type ProjectInfo struct {
	Genre       string `json:"genre,omitempty"`
	Personality string `json:"personality,omitempty"`
	Setting     string `json:"setting,omitempty"`
	Flow        string `json:"flow,omitempty"`
}

// Project 翻译项目实体
// Dictionary 为术语表（原文词 -> 译文词），GlobalContext 为跨章节的叙事摘要。
type Project struct {
	ID             string            `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Title          string            `json:"title" gorm:"type:varchar(255);not null"`
	Author         string            `json:"author,omitempty" gorm:"type:varchar(255)"`
	TargetLanguage string            `json:"target_language" gorm:"type:varchar(50);default:'Vietnamese'"`
	Info           *ProjectInfo      `json:"info,omitempty" gorm:"type:jsonb;serializer:json"`
	PromptTemplate string            `json:"prompt_template,omitempty" gorm:"type:text"`
	Dictionary     map[string]string `json:"dictionary,omitempty" gorm:"type:jsonb;serializer:json"`
	GlobalContext  string            `json:"global_context,omitempty" gorm:"type:text"`
	LastCrawlURL   string            `json:"last_crawl_url,omitempty" gorm:"type:varchar(2048)"`
	ChapterCount   int               `json:"chapter_count" gorm:"default:0"`
	CreatedAt      time.Time         `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time         `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Project) TableName() string {
	return "projects"
}

// NewProject 创建新项目
func NewProject(title, author, targetLanguage string) *Project {
	now := time.Now()
	if targetLanguage == "" {
		targetLanguage = "Vietnamese"
	}
	return &Project{
		Title:          title,
		Author:         author,
		TargetLanguage: targetLanguage,
		Info:           &ProjectInfo{},
		Dictionary:     map[string]string{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// SetDictionaryEntry 添加或更新术语表条目
func (p *Project) SetDictionaryEntry(source, target string) {
	if p.Dictionary == nil {
		p.Dictionary = map[string]string{}
	}
	p.Dictionary[source] = target
	p.UpdatedAt = time.Now()
}
