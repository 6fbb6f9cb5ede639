package dto

import (
	"time"

	"novel-trans-api/internal/domain/entity"
	"novel-trans-api/internal/domain/repository"
)

// ProjectInfoDTO 作品信息
type ProjectInfoDTO struct {
	Genre       string `json:"genre,omitempty"`
	Personality string `json:"personality,omitempty"`
	Setting     string `json:"setting,omitempty"`
	Flow        string `json:"flow,omitempty"`
}

// CreateProjectRequest 创建项目请求
type CreateProjectRequest struct {
	Title          string          `json:"title" binding:"required,max=255"`
	Author         string          `json:"author,omitempty" binding:"max=255"`
	TargetLanguage string          `json:"target_language,omitempty" binding:"max=50"`
	Info           *ProjectInfoDTO `json:"info,omitempty"`
	PromptTemplate string          `json:"prompt_template,omitempty"`
}

// ToProjectEntity 转换为项目实体
func (r *CreateProjectRequest) ToProjectEntity() *entity.Project {
	project := entity.NewProject(r.Title, r.Author, r.TargetLanguage)
	project.PromptTemplate = r.PromptTemplate
	if r.Info != nil {
		project.Info = &entity.ProjectInfo{
			Genre:       r.Info.Genre,
			Personality: r.Info.Personality,
			Setting:     r.Info.Setting,
			Flow:        r.Info.Flow,
		}
	}
	return project
}

// UpdateProjectRequest 更新项目请求，nil 字段不修改
type UpdateProjectRequest struct {
	Title          *string         `json:"title,omitempty" binding:"omitempty,max=255"`
	Author         *string         `json:"author,omitempty" binding:"omitempty,max=255"`
	TargetLanguage *string         `json:"target_language,omitempty" binding:"omitempty,max=50"`
	Info           *ProjectInfoDTO `json:"info,omitempty"`
	PromptTemplate *string         `json:"prompt_template,omitempty"`
	GlobalContext  *string         `json:"global_context,omitempty"`
}

// Apply 把请求合并到项目实体
func (r *UpdateProjectRequest) Apply(project *entity.Project) {
	if r.Title != nil {
		project.Title = *r.Title
	}
	if r.Author != nil {
		project.Author = *r.Author
	}
	if r.TargetLanguage != nil {
		project.TargetLanguage = *r.TargetLanguage
	}
	if r.PromptTemplate != nil {
		project.PromptTemplate = *r.PromptTemplate
	}
	if r.GlobalContext != nil {
		project.GlobalContext = *r.GlobalContext
	}
	if r.Info != nil {
		project.Info = &entity.ProjectInfo{
			Genre:       r.Info.Genre,
			Personality: r.Info.Personality,
			Setting:     r.Info.Setting,
			Flow:        r.Info.Flow,
		}
	}
}

// UpdateDictionaryRequest 更新术语表请求
type UpdateDictionaryRequest struct {
	// Entries 原文词 -> 译文词；Replace 为 true 时整表替换，否则合并
	Entries map[string]string `json:"entries" binding:"required"`
	Replace bool              `json:"replace,omitempty"`
}

// ProjectResponse 项目响应
type ProjectResponse struct {
	ID             string            `json:"id"`
	Title          string            `json:"title"`
	Author         string            `json:"author,omitempty"`
	TargetLanguage string            `json:"target_language"`
	Info           *ProjectInfoDTO   `json:"info,omitempty"`
	PromptTemplate string            `json:"prompt_template,omitempty"`
	Dictionary     map[string]string `json:"dictionary,omitempty"`
	GlobalContext  string            `json:"global_context,omitempty"`
	LastCrawlURL   string            `json:"last_crawl_url,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// ToProjectResponse 项目实体转响应
func ToProjectResponse(p *entity.Project) *ProjectResponse {
	resp := &ProjectResponse{
		ID:             p.ID,
		Title:          p.Title,
		Author:         p.Author,
		TargetLanguage: p.TargetLanguage,
		PromptTemplate: p.PromptTemplate,
		Dictionary:     p.Dictionary,
		GlobalContext:  p.GlobalContext,
		LastCrawlURL:   p.LastCrawlURL,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
	if p.Info != nil {
		resp.Info = &ProjectInfoDTO{
			Genre:       p.Info.Genre,
			Personality: p.Info.Personality,
			Setting:     p.Info.Setting,
			Flow:        p.Info.Flow,
		}
	}
	return resp
}

// ToProjectListResponse 项目列表转响应
func ToProjectListResponse(projects []*entity.Project) []*ProjectResponse {
	out := make([]*ProjectResponse, 0, len(projects))
	for _, p := range projects {
		out = append(out, ToProjectResponse(p))
	}
	return out
}

// ProjectStatsResponse 项目统计响应
type ProjectStatsResponse struct {
	TotalChapters     int64 `json:"total_chapters"`
	TranslatedCount   int64 `json:"translated_count"`
	ErrorCount        int64 `json:"error_count"`
	TotalSourceRunes  int64 `json:"total_source_runes"`
	DictionaryEntries int   `json:"dictionary_entries"`
}

// ToProjectStatsResponse 统计信息转响应
func ToProjectStatsResponse(s *repository.ProjectStats) *ProjectStatsResponse {
	return &ProjectStatsResponse{
		TotalChapters:     s.TotalChapters,
		TranslatedCount:   s.TranslatedCount,
		ErrorCount:        s.ErrorCount,
		TotalSourceRunes:  s.TotalSourceRunes,
		DictionaryEntries: s.DictionaryEntries,
	}
}
