// Package export 提供译文导出能力
package export

import (
	"strings"

	"novel-trans-api/internal/domain/entity"
	apperrors "novel-trans-api/pkg/errors"
)

// chapterTitle 导出时优先用译名
func chapterTitle(c *entity.Chapter) string {
	if c.TranslatedTitle != "" {
		return c.TranslatedTitle
	}
	return c.Title
}

// completedChapters 过滤出有译文的章节，输入已按阅读顺序排列
func completedChapters(chapters []*entity.Chapter) []*entity.Chapter {
	out := make([]*entity.Chapter, 0, len(chapters))
	for _, c := range chapters {
		if c.Status == entity.ChapterStatusCompleted && c.TranslatedContent != "" {
			out = append(out, c)
		}
	}
	return out
}

// MergeTxt 把已完成章节合并为单个纯文本文件
func MergeTxt(project *entity.Project, chapters []*entity.Chapter) (string, error) {
	done := completedChapters(chapters)
	if len(done) == 0 {
		return "", apperrors.New(apperrors.CodeValidationFailed, "no completed chapters to export")
	}

	var b strings.Builder
	b.WriteString(project.Title)
	if project.Author != "" {
		b.WriteString("\n")
		b.WriteString(project.Author)
	}
	b.WriteString("\n\n")

	for i, c := range done {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(chapterTitle(c))
		b.WriteString("\n\n")
		b.WriteString(strings.TrimSpace(c.TranslatedContent))
	}
	b.WriteString("\n")
	return b.String(), nil
}
