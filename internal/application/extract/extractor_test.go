package extract

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"novel-trans-api/internal/config"
)

const chapterPage = `<!DOCTYPE html>
<html><head><title>第12章 风云突变_飘天文学</title></head>
<body>
<header><a href="/">首页</a></header>
<h1>第12章 风云突变</h1>
<div id="content">
	<p>山风骤起，林间落叶纷飞，整座山谷像是被一只无形的大手搅动，枝头的宿鸟扑棱棱地四散而去。</p>
	<p>陈默握紧了手中的长剑，指节因为用力而微微发白，目光死死盯着前方缓缓逼近的黑影，不敢有半分松懈。</p>
	<p>“你终于来了。”黑影缓缓开口，声音沙哑得像是砂石摩擦，每一个字都带着说不出的疲惫与杀意。</p>
	<p>他等这一天已经等了十年，十年里的每一个夜晚他都在磨砺剑锋，也在磨砺自己早已千疮百孔的心。</p>
	<p>雨点开始落下，打在青石板上溅起细碎的水花，远处的山峦渐渐隐入云雾，天地间只剩下两个人的呼吸声。</p>
	<p>“动手吧。”陈默吐出两个字，脚下的碎石悄然移位，剑尖在雨幕中划出一道几不可察的弧线。</p>
	<p>本站提供最新章节阅读，请记住永久地址 www.example.com</p>
</div>
<div class="bottom-link"><a href="/list">目录</a></div>
<a href="chapter13.html">下一章</a>
<footer>版权归原作者所有 本站立场无关</footer>
</body></html>`

func TestParseSelectorStrategy(t *testing.T) {
	res, err := Parse(chapterPage, "https://www.example.com/book/chapter12.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Title != "Chương 12 风云突变" {
		t.Fatalf("unexpected title: %q", res.Title)
	}
	if res.Strategy != "selector" {
		t.Fatalf("expected selector strategy, got %s", res.Strategy)
	}
	if !strings.Contains(res.Content, "山风骤起") {
		t.Fatalf("expected body text, got: %q", res.Content)
	}
	// 尾部水印行命中噪声词，应被过滤
	if strings.Contains(res.Content, "永久地址") {
		t.Fatalf("junk line leaked into content: %q", res.Content)
	}
	if res.NextURL != "https://www.example.com/book/chapter13.html" {
		t.Fatalf("unexpected next url: %q", res.NextURL)
	}
}

func TestParseTitleFallsBackToDocumentTitle(t *testing.T) {
	longH1 := strings.Repeat("很", 200)
	page := fmt.Sprintf(`<html><head><title>第5章 夜行_笔趣阁</title></head><body>
<h1>%s</h1>
<div id="content"><p>%s</p><p>%s</p><p>a</p><p>b</p><p>c</p><p>d</p></div>
</body></html>`, longH1, strings.Repeat("正文内容。", 60), strings.Repeat("更多内容。", 60))

	res, err := Parse(page, "https://example.com/c5.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Title != "Chương 5 夜行" {
		t.Fatalf("expected document title without site suffix, got %q", res.Title)
	}
}

func TestParseScoredFallback(t *testing.T) {
	// 没有任何已知选择器命中，依赖打分挑出段落最多的容器
	page := fmt.Sprintf(`<html><head><title>无名章节</title></head><body>
<div class="sidebar">%s</div>
<div class="misc">
	<p>%s</p><p>%s</p><p>%s</p><p>%s</p><p>%s</p><p>%s</p>
</div>
</body></html>`,
		strings.Repeat("<a href='#'>推荐链接</a>", 30),
		strings.Repeat("夜色渐深。", 40), strings.Repeat("他继续前行。", 40),
		strings.Repeat("风声呼啸。", 40), strings.Repeat("灯火阑珊。", 40),
		strings.Repeat("剑鸣不止。", 40), strings.Repeat("尘埃落定。", 40))

	res, err := Parse(page, "https://example.com/x.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Strategy != "scored" {
		t.Fatalf("expected scored strategy, got %s", res.Strategy)
	}
	if !strings.Contains(res.Content, "夜色渐深") {
		t.Fatalf("expected scored body, got %q", res.Content)
	}
}

func TestParseScoredArticleContainer(t *testing.T) {
	// article 因链接过多被选择器阶段拒绝后，打分阶段也要能看到它
	links := strings.Repeat(`<a href="#">荐</a>`, 12)
	page := fmt.Sprintf(`<html><head><title>无名章节</title></head><body>
<article>%s<p>%s</p><p>%s</p><p>%s</p></article>
</body></html>`, links,
		strings.Repeat("夜风拂过。", 40), strings.Repeat("故事继续。", 40), strings.Repeat("直到天明。", 40))

	res, err := Parse(page, "https://example.com/a.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Strategy != "scored" {
		t.Fatalf("expected scored strategy, got %s", res.Strategy)
	}
	if !strings.Contains(res.Content, "夜风拂过") {
		t.Fatalf("expected article body, got %q", res.Content)
	}
}

func TestParseClassifiesPaginationLink(t *testing.T) {
	page := fmt.Sprintf(`<html><head><title>第7章 雨夜_某站</title></head><body>
<h1>第7章 雨夜</h1>
<div id="content"><p>%s</p><p>%s</p><p>a1</p><p>b2</p><p>c3</p><p>d4</p></div>
<a href="c7_2.html">下一页</a>
<a href="c8.html">下一章</a>
</body></html>`, strings.Repeat("雨还在下。", 40), strings.Repeat("没有停意。", 40))

	res, err := Parse(page, "https://example.com/book/c7.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.NextPageURL != "https://example.com/book/c7_2.html" {
		t.Fatalf("expected pagination link, got %q", res.NextPageURL)
	}
	if res.NextURL != "https://example.com/book/c8.html" {
		t.Fatalf("expected next chapter link, got %q", res.NextURL)
	}
}

func TestParseNextPageTextToDifferentChapterIsNotPagination(t *testing.T) {
	// 有些站把下一章链接写成"下一页"，地址不是页码变体时不能按分页合并
	page := fmt.Sprintf(`<html><head><title>第7章</title></head><body>
<div id="content"><p>%s</p><p>%s</p><p>a1</p><p>b2</p><p>c3</p><p>d4</p></div>
<a href="c8.html">下一页</a>
</body></html>`, strings.Repeat("正文内容。", 40), strings.Repeat("还在继续。", 40))

	res, err := Parse(page, "https://example.com/book/c7.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.NextPageURL != "" {
		t.Fatalf("expected no pagination link, got %q", res.NextPageURL)
	}
	if res.NextURL != "https://example.com/book/c8.html" {
		t.Fatalf("expected next chapter link, got %q", res.NextURL)
	}
}

func TestParseIgnoresLongAnchorText(t *testing.T) {
	// 含关键词的长句锚点是正文广告，不是导航链接
	page := fmt.Sprintf(`<html><head><title>第9章</title></head><body>
<div id="content"><p>%s</p><p>%s</p><p>a1</p><p>b2</p><p>c3</p><p>d4</p></div>
<a href="ad.html">点这里马上阅读下一章精彩内容，更多最新章节等你回来继续阅读</a>
<a href="c10.html">下一章</a>
</body></html>`, strings.Repeat("山路崎岖。", 40), strings.Repeat("夜色沉沉。", 40))

	res, err := Parse(page, "https://example.com/book/c9.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.NextURL != "https://example.com/book/c10.html" {
		t.Fatalf("expected short anchor to win, got %q", res.NextURL)
	}
}

func TestParseRejectsShortContent(t *testing.T) {
	page := `<html><head><title>空页</title></head><body><div id="content"><p>太短</p></div></body></html>`
	if _, err := Parse(page, "https://example.com/empty.html"); err == nil {
		t.Fatal("expected error for short content")
	}
}

type stubFetcher struct {
	pages map[string]string
	calls []string
}

func (s *stubFetcher) Fetch(_ context.Context, rawURL string, _ int) (string, error) {
	s.calls = append(s.calls, rawURL)
	page, ok := s.pages[rawURL]
	if !ok {
		return "", fmt.Errorf("no page for %s", rawURL)
	}
	return page, nil
}

func (s *stubFetcher) Attempts() int { return 1 }

func buildPage(title, next string) string {
	var nextLink string
	if next != "" {
		nextLink = fmt.Sprintf(`<a href="%s">下一章</a>`, next)
	}
	return fmt.Sprintf(`<html><head><title>%s</title></head><body>
<h1>%s</h1>
<div id="content"><p>%s</p><p>%s</p><p>e</p><p>f</p><p>g</p><p>h</p></div>
%s</body></html>`, title, title,
		strings.Repeat("故事正文。", 50), strings.Repeat("还在继续。", 50), nextLink)
}

func TestFollowPagination(t *testing.T) {
	fetcher := &stubFetcher{pages: map[string]string{
		"https://example.com/c1.html": buildPage("第1章", "c2.html"),
		"https://example.com/c2.html": buildPage("第2章", "c3.html"),
		"https://example.com/c3.html": buildPage("第3章", ""),
	}}

	e := NewExtractor(fetcher, &config.CrawlerConfig{CrawlDelay: time.Millisecond})
	e.sleep = func(context.Context, time.Duration) error { return nil }

	var titles []string
	err := e.Follow(context.Background(), "https://example.com/c1.html", 20, func(res *Result) (bool, error) {
		titles = append(titles, res.Title)
		return true, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(titles) != 3 {
		t.Fatalf("expected 3 chapters, got %d: %v", len(titles), titles)
	}
	if titles[0] != "Chương 1" || titles[2] != "Chương 3" {
		t.Fatalf("unexpected titles: %v", titles)
	}
}

func TestExtractMergesPaginationPages(t *testing.T) {
	page1 := fmt.Sprintf(`<html><head><title>第7章 雨夜</title></head><body>
<h1>第7章 雨夜</h1>
<div id="content"><p>%s</p><p>%s</p><p>a1</p><p>b2</p><p>c3</p><p>d4</p></div>
<a href="c7_2.html">下一页</a>
</body></html>`, strings.Repeat("前半段正文。", 40), strings.Repeat("雨下得很大。", 40))
	page2 := fmt.Sprintf(`<html><head><title>第7章 雨夜(2)</title></head><body>
<div id="content"><p>%s</p><p>%s</p><p>a1</p><p>b2</p><p>c3</p><p>d4</p></div>
<a href="c8.html">下一章</a>
</body></html>`, strings.Repeat("后半段正文。", 40), strings.Repeat("天快亮了。", 40))

	fetcher := &stubFetcher{pages: map[string]string{
		"https://example.com/book/c7.html":   page1,
		"https://example.com/book/c7_2.html": page2,
	}}
	e := NewExtractor(fetcher, &config.CrawlerConfig{CrawlDelay: time.Millisecond})
	e.sleep = func(context.Context, time.Duration) error { return nil }

	res, err := e.Extract(context.Background(), "https://example.com/book/c7.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(res.Content, "前半段正文") || !strings.Contains(res.Content, "后半段正文") {
		t.Fatalf("expected both pages merged, got %q", res.Content)
	}
	if res.Title != "Chương 7 雨夜" {
		t.Fatalf("expected first page title kept, got %q", res.Title)
	}
	// 下一章链接取自最深一页
	if res.NextURL != "https://example.com/book/c8.html" {
		t.Fatalf("unexpected next url: %q", res.NextURL)
	}
	if res.NextPageURL != "" {
		t.Fatalf("expected pagination fully consumed, got %q", res.NextPageURL)
	}
	if len(fetcher.calls) != 2 {
		t.Fatalf("expected 2 fetches, got %v", fetcher.calls)
	}
}

func TestFollowHonorsMaxPages(t *testing.T) {
	// c1 和 c2 相互指向，封顶之外还要靠去重兜底
	fetcher := &stubFetcher{pages: map[string]string{
		"https://example.com/c1.html": buildPage("第1章", "c2.html"),
		"https://example.com/c2.html": buildPage("第2章", "c1.html"),
	}}

	e := NewExtractor(fetcher, &config.CrawlerConfig{CrawlDelay: time.Millisecond})
	e.sleep = func(context.Context, time.Duration) error { return nil }

	count := 0
	err := e.Follow(context.Background(), "https://example.com/c1.html", 20, func(res *Result) (bool, error) {
		count++
		return true, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected loop detection after 2 pages, got %d", count)
	}
}
