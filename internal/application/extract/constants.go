package extract

// 盗版站正文里常见的水印/导航噪声词
var junkPhrases = []string{
	"重要声明", "本站", "版权归", "All rights reserved", "最新章节", "永久地址",
	"网友发表", "来自搜索引擎", "本站立场无关", "www.", ".com", ".net", ".org",
	"点击下一页", "继续阅读", "顶点小说", "笔趣阁", "69书吧", "飘天文学",
}

// 小说站常用的正文容器选择器，按命中率排序
var contentSelectors = []string{
	"#content", "#htmlContent", "#article", "#booktxt", "#chaptercontent",
	".content", ".showtxt", ".read-content", ".chapter-content", ".post-content",
	"article", "main",
}

// 下一章链接的锚文本关键词
var nextChapterKeywords = []string{
	"下一章", "下一节", "next chapter", "chương sau", "chương tiếp",
}

// 同章翻页链接的锚文本关键词。
// 命中但目标地址不是当前页的页码变体时，仍按下一章链接处理。
var nextPageKeywords = []string{
	"下一页", "next page", "trang sau",
}

// 提取正文前整体移除的噪声节点
const junkElementSelector = "script, style, iframe, ins, aside, header, footer, nav, .ads, #ads, .app-download, .bottom-link"

// IsJunkLine 判断一行是否命中站点噪声词（大小写不敏感）
func IsJunkLine(line string) bool {
	return containsJunk(line)
}
