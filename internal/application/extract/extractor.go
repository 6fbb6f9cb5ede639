// Package extract 实现章节页面的正文提取与翻页跟随
package extract

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"novel-trans-api/internal/config"
	apperrors "novel-trans-api/pkg/errors"
	"novel-trans-api/pkg/logger"
	"novel-trans-api/pkg/metrics"
)

var tracer = otel.Tracer("extract")

// 正文判定阈值（按 rune 计）
const (
	selectorMinRunes  = 200 // 选择器命中的容器至少要有的正文长度
	selectorMaxLinks  = 10  // 超过则视为目录/导航容器
	scoringMinRunes   = 150 // 参与打分的容器的最短文本
	minBodyRunes      = 100 // 低于此长度视为提取失败，换通道重试
	maxTitleRunes     = 150 // h1 超长时退回 document title
	maxAnchorRunes    = 20  // 锚文本更长视为含关键词的正文而非导航链接
	maxChapterPages   = 20  // 单章翻页合并的页数上限
	junkPhrasePenalty = 500
	fallbackTitle     = "Chương mới"
)

// Fetcher 页面抓取端口
type Fetcher interface {
	// Fetch 通过第 attempt 个通道抓取页面，返回 UTF-8 HTML
	Fetch(ctx context.Context, rawURL string, attempt int) (string, error)

	// Attempts 可尝试的通道数量
	Attempts() int
}

// Result 单页提取结果。
// NextURL 指向下一章；NextPageURL 指向同一章被拆出的下一个 HTML 页。
type Result struct {
	Title       string
	Content     string
	NextURL     string
	NextPageURL string
	PageURL     string
	Strategy    string // selector / scored / body
}

// Extractor 正文提取器
type Extractor struct {
	fetcher Fetcher
	delay   time.Duration
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewExtractor 创建提取器
func NewExtractor(fetcher Fetcher, cfg *config.CrawlerConfig) *Extractor {
	delay := cfg.CrawlDelay
	if delay <= 0 {
		delay = 1200 * time.Millisecond
	}
	return &Extractor{
		fetcher: fetcher,
		delay:   delay,
		sleep:   sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Extract 提取一个完整章节。
// 章节被站点拆成多个 HTML 页时，沿"下一页"链接逐页抓取并拼接正文，
// NextURL 取自最深一页的下一章链接。
func (e *Extractor) Extract(ctx context.Context, pageURL string) (*Result, error) {
	ctx, span := tracer.Start(ctx, "extract.Extract",
		trace.WithAttributes(attribute.String("page.url", pageURL)))
	defer span.End()

	res, err := e.extractPage(ctx, pageURL)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	visited := map[string]bool{pageURL: true}
	for page := 1; page < maxChapterPages && res.NextPageURL != ""; page++ {
		if visited[res.NextPageURL] {
			logger.Warn(ctx, "pagination loop within chapter", "url", res.NextPageURL)
			break
		}
		visited[res.NextPageURL] = true

		if err := e.sleep(ctx, e.delay); err != nil {
			return nil, err
		}
		more, err := e.extractPage(ctx, res.NextPageURL)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}

		res.Content = res.Content + "\n\n" + more.Content
		res.NextURL = more.NextURL
		res.NextPageURL = more.NextPageURL
	}

	span.SetAttributes(
		attribute.String("extract.strategy", res.Strategy),
		attribute.Int("extract.runes", len([]rune(res.Content))),
		attribute.Int("chapter.pages", len(visited)),
	)
	return res, nil
}

// extractPage 提取单个 HTML 页。
// 依次尝试每个抓取通道，提取结果过短视为失败并换下一通道。
func (e *Extractor) extractPage(ctx context.Context, pageURL string) (*Result, error) {
	var lastErr error
	for attempt := 0; attempt < e.fetcher.Attempts(); attempt++ {
		html, err := e.fetcher.Fetch(ctx, pageURL, attempt)
		if err != nil {
			lastErr = err
			continue
		}

		res, err := Parse(html, pageURL)
		if err != nil {
			lastErr = err
			continue
		}

		metrics.ExtractedChars.WithLabelValues(res.Strategy).Observe(float64(len([]rune(res.Content))))
		return res, nil
	}

	if lastErr == nil {
		lastErr = apperrors.ErrExtractEmpty
	}
	return nil, apperrors.Wrap(lastErr, apperrors.CodeFetchFailed, "all fetch attempts failed")
}

// Follow 从起始地址开始沿"下一章"链接连续提取。
// 每处理完一章调用一次 fn；fn 返回 false 或没有下一章时停止。
// 章与章之间加固定延迟，避免触发站点风控。
func (e *Extractor) Follow(ctx context.Context, startURL string, maxPages int, fn func(res *Result) (bool, error)) error {
	ctx, span := tracer.Start(ctx, "extract.Follow",
		trace.WithAttributes(
			attribute.String("start.url", startURL),
			attribute.Int("max.pages", maxPages),
		))
	defer span.End()

	current := startURL
	visited := make(map[string]bool)

	for page := 0; page < maxPages && current != ""; page++ {
		if visited[current] {
			logger.Warn(ctx, "pagination loop detected", "url", current)
			break
		}
		visited[current] = true

		res, err := e.Extract(ctx, current)
		if err != nil {
			span.RecordError(err)
			return err
		}

		cont, err := fn(res)
		if err != nil {
			return err
		}
		if !cont || res.NextURL == "" {
			break
		}

		current = res.NextURL
		if err := e.sleep(ctx, e.delay); err != nil {
			return err
		}
	}
	return nil
}

// Parse 从 HTML 中提取标题、正文与下一章链接
func Parse(rawHTML, pageURL string) (*Result, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeExtractEmpty, "failed to parse html")
	}

	// 翻页链接要在噪声节点清理前找，不少站点把翻页放在页脚导航里
	nextURL, nextPageURL := findNextLinks(doc, pageURL)
	title := extractTitle(doc)

	doc.Find(junkElementSelector).Remove()

	container, strategy := findContainer(doc)
	content := cleanBody(container, title)
	title = NormalizeTitle(title)

	if len([]rune(content)) < minBodyRunes {
		return nil, apperrors.New(apperrors.CodeExtractEmpty, "no readable content extracted").WithDetail(pageURL)
	}

	return &Result{
		Title:       title,
		Content:     content,
		NextURL:     nextURL,
		NextPageURL: nextPageURL,
		PageURL:     pageURL,
		Strategy:    strategy,
	}, nil
}

// findNextLinks 按锚文本关键词查找翻页链接并转为绝对地址，
// 区分同章翻页（"下一页"且地址只差页码后缀）与真正的下一章链接。
// 锚文本超过 maxAnchorRunes 的按正文语句处理，不参与匹配。
func findNextLinks(doc *goquery.Document, pageURL string) (nextChapter, nextPage string) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", ""
	}

	doc.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		text := strings.ToLower(strings.TrimSpace(a.Text()))
		if text == "" || len([]rune(text)) > maxAnchorRunes {
			return true
		}
		href, ok := a.Attr("href")
		if !ok || href == "#" || strings.HasPrefix(href, "javascript") {
			return true
		}
		ref, err := url.Parse(href)
		if err != nil {
			return true
		}
		target := base.ResolveReference(ref).String()

		switch {
		case containsAny(text, nextPageKeywords) && isPageVariant(base, target):
			if nextPage == "" {
				nextPage = target
			}
		case containsAny(text, nextChapterKeywords) || containsAny(text, nextPageKeywords):
			if nextChapter == "" {
				nextChapter = target
			}
		}
		return nextChapter == "" || nextPage == ""
	})
	return nextChapter, nextPage
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// 路径末段的页码后缀，如 123_2.html、123-p3
var pageSuffixPattern = regexp.MustCompile(`[_-]p?\d+(\.\w+)?$`)

// isPageVariant 判断目标地址是否只比当前页多出页码差异
func isPageVariant(base *url.URL, target string) bool {
	next, err := url.Parse(target)
	if err != nil || next.Host != base.Host || next.String() == base.String() {
		return false
	}
	if next.Path == base.Path {
		// 同路径时只允许 page/p 查询参数不同
		bq, nq := base.Query(), next.Query()
		for _, k := range []string{"page", "p"} {
			bq.Del(k)
			nq.Del(k)
		}
		return bq.Encode() == nq.Encode()
	}
	stripped := stripPageSuffix(next.Path)
	return stripped == base.Path || stripped == stripPageSuffix(base.Path)
}

// stripPageSuffix 去掉路径里的页码后缀：/book/123_2.html -> /book/123.html
func stripPageSuffix(path string) string {
	return pageSuffixPattern.ReplaceAllString(path, "$1")
}

// extractTitle 取 h1，过长或缺失时退回 document title 并截掉站名后缀
func extractTitle(doc *goquery.Document) string {
	title := strings.TrimSpace(doc.Find("title").First().Text())
	title = strings.TrimSpace(strings.Split(strings.Split(title, "_")[0], "-")[0])
	if title == "" {
		title = fallbackTitle
	}

	h1 := strings.TrimSpace(doc.Find("h1").First().Text())
	if h1 != "" && len([]rune(h1)) < maxTitleRunes {
		title = h1
	}
	return title
}

// findContainer 定位正文容器：先试已知选择器，再退回打分算法
func findContainer(doc *goquery.Document) (*goquery.Selection, string) {
	for _, selector := range contentSelectors {
		found := doc.Find(selector).First()
		if found.Length() == 0 {
			continue
		}
		text := strings.TrimSpace(found.Text())
		if len([]rune(text)) <= selectorMinRunes {
			continue
		}
		if found.Find("a").Length() >= selectorMaxLinks {
			continue
		}
		return found, "selector"
	}

	var best *goquery.Selection
	var maxScore int
	doc.Find("div, section, article").Each(func(_ int, container *goquery.Selection) {
		text := strings.TrimSpace(flatText(container))
		textLen := len([]rune(text))
		if textLen < scoringMinRunes {
			return
		}

		pCount := container.Find("p").Length()
		brCount := container.Find("br").Length()

		container.Find("a").Each(func(_ int, a *goquery.Selection) {
			textLen -= len([]rune(a.Text()))
		})

		penalty := 0
		for _, phrase := range junkPhrases {
			if strings.Contains(text, phrase) {
				penalty += junkPhrasePenalty
			}
		}

		score := textLen + pCount*50 + brCount*20 - penalty
		if score > maxScore {
			maxScore = score
			best = container
		}
	})
	if best != nil {
		return best, "scored"
	}
	return doc.Find("body").First(), "body"
}

// cleanBody 把容器内容整理成以空行分隔的段落文本。
// 噪声词行与重复标题的行一并剔除。
func cleanBody(container *goquery.Selection, title string) string {
	var lines []string

	// 段落结构清晰时按 <p> 取，否则按换行切
	paragraphs := container.Find("p")
	if paragraphs.Length() > 5 {
		paragraphs.Each(func(_ int, p *goquery.Selection) {
			lines = append(lines, strings.TrimSpace(p.Text()))
		})
	} else {
		for _, l := range strings.Split(flatText(container), "\n") {
			lines = append(lines, strings.TrimSpace(l))
		}
	}

	clean := lines[:0]
	for _, line := range lines {
		if len([]rune(line)) < 2 {
			continue
		}
		if containsJunk(line) {
			continue
		}
		if line == title {
			continue
		}
		clean = append(clean, line)
	}

	return strings.TrimSpace(strings.Join(clean, "\n\n"))
}

func containsJunk(line string) bool {
	lower := strings.ToLower(line)
	for _, phrase := range junkPhrases {
		if strings.Contains(lower, strings.ToLower(phrase)) {
			return true
		}
	}
	return false
}
