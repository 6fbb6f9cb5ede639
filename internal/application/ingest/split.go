// Package ingest 提供小说文本导入与章节切分能力
package ingest

import (
	"fmt"
	"regexp"
	"strings"

	apperrors "novel-trans-api/pkg/errors"
)

// DefaultHeadingPattern 默认章节标题识别模式，覆盖中文、英文与越南文常见写法
const DefaultHeadingPattern = `^\s*(?:第[0-9零一二三四五六七八九十百千]+[章話话节節回].*|(?i:chapter)\s+[0-9]+.*|(?i:chương)\s+[0-9]+.*|(?i:hồi)\s+[0-9]+.*|[0-9]+[\.．]\s+.*|[0-9]+話.*)\s*$`

// 长度切分的兜底块大小
const defaultSplitRunes = 6000

// RawChapter 导入得到的原始章节
type RawChapter struct {
	Title   string
	Content string
}

// Mode 切分模式
type Mode string

const (
	// ModeAuto 优先按章节标题切，识别不到标题时退回按长度切
	ModeAuto Mode = "auto"
	// ModeHeading 按章节标题切分
	ModeHeading Mode = "heading"
	// ModeLength 按固定长度切分
	ModeLength Mode = "length"
)

// Options 切分选项
type Options struct {
	Mode           Mode
	HeadingPattern string
	MaxRunes       int
}

func (o Options) pattern() string {
	if o.HeadingPattern != "" {
		return o.HeadingPattern
	}
	return DefaultHeadingPattern
}

func (o Options) maxRunes() int {
	if o.MaxRunes > 0 {
		return o.MaxRunes
	}
	return defaultSplitRunes
}

// SplitText 把整本文本切分为章节序列
func SplitText(content string, opts Options) ([]RawChapter, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.New(apperrors.CodeInvalidParam, "content is empty")
	}

	switch opts.Mode {
	case ModeLength:
		return splitByLength(content, opts.maxRunes()), nil
	case ModeHeading:
		chapters, err := splitByHeading(content, opts.pattern())
		if err != nil {
			return nil, err
		}
		if len(chapters) == 0 {
			return nil, apperrors.New(apperrors.CodeValidationFailed, "no chapter headings matched")
		}
		return chapters, nil
	default:
		chapters, err := splitByHeading(content, opts.pattern())
		if err != nil {
			return nil, err
		}
		if len(chapters) < 2 {
			return splitByLength(content, opts.maxRunes()), nil
		}
		return chapters, nil
	}
}

// splitByHeading 扫描行，匹配标题行的位置开新章
func splitByHeading(content, pattern string) ([]RawChapter, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInvalidParam, "invalid heading pattern")
	}

	lines := strings.Split(content, "\n")
	var chapters []RawChapter
	var title string
	var body []string

	flush := func() {
		text := strings.TrimSpace(strings.Join(body, "\n"))
		if title == "" && text == "" {
			return
		}
		if title == "" {
			// 第一个标题之前的前言
			title = "Mở đầu"
		}
		chapters = append(chapters, RawChapter{Title: title, Content: text})
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && re.MatchString(trimmed) {
			flush()
			title = trimmed
			body = body[:0]
			continue
		}
		body = append(body, line)
	}
	flush()

	// 只有前言没有任何标题时视为未命中
	if len(chapters) == 1 && chapters[0].Title == "Mở đầu" {
		return nil, nil
	}
	return chapters, nil
}

// splitByLength 按行累积到块上限，章节名为 Phần N
func splitByLength(content string, maxRunes int) []RawChapter {
	lines := strings.Split(content, "\n")
	var chapters []RawChapter
	var buf []string
	size := 0

	flush := func() {
		text := strings.TrimSpace(strings.Join(buf, "\n"))
		if text == "" {
			return
		}
		chapters = append(chapters, RawChapter{
			Title:   chapterPartTitle(len(chapters) + 1),
			Content: text,
		})
	}

	for _, line := range lines {
		n := len([]rune(line))
		if size > 0 && size+n+1 > maxRunes {
			flush()
			buf = buf[:0]
			size = 0
		}
		buf = append(buf, line)
		if size > 0 {
			size++
		}
		size += n
	}
	flush()
	return chapters
}

func chapterPartTitle(n int) string {
	return fmt.Sprintf("Phần %d", n)
}
