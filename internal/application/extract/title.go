package extract

import (
	"regexp"
	"strings"
)

var (
	arabicChapterRe  = regexp.MustCompile(`第\s*([0-9]+)\s*[章話话节節回]`)
	chineseChapterRe = regexp.MustCompile(`第\s*([零一二三四五六七八九十]+)\s*[章話话节節回]`)
	englishChapterRe = regexp.MustCompile(`(?i)chapter\s+([0-9]+)`)
)

// 只映射 1-10 的汉字数字，更大的保持原样
var chineseNumerals = map[string]string{
	"一": "1", "二": "2", "三": "3", "四": "4", "五": "5",
	"六": "6", "七": "7", "八": "8", "九": "9", "十": "10",
}

// NormalizeTitle 把各种章节编号写法归一成 "Chương N" 前缀。
// 识别 "第N章"、"Chapter N" 与十以内的汉字数字章节号，其余原样保留。
func NormalizeTitle(title string) string {
	title = strings.TrimSpace(title)

	if arabicChapterRe.MatchString(title) {
		return arabicChapterRe.ReplaceAllString(title, "Chương $1")
	}
	if m := chineseChapterRe.FindStringSubmatch(title); m != nil {
		if digit, ok := chineseNumerals[m[1]]; ok {
			return strings.Replace(title, m[0], "Chương "+digit, 1)
		}
		return title
	}
	if englishChapterRe.MatchString(title) {
		return englishChapterRe.ReplaceAllString(title, "Chương $1")
	}
	return title
}
