package translate

import (
	"regexp"
	"strings"
	"unicode"

	"novel-trans-api/internal/application/extract"
)

var (
	// 汉字、假名、谚文、西里尔——译文里残留这些就说明没翻干净
	foreignRe    = regexp.MustCompile(`[\x{4e00}-\x{9fa5}\x{3040}-\x{309f}\x{30a0}-\x{30ff}\x{ac00}-\x{d7af}\x{0400}-\x{04ff}]`)
	chineseRe    = regexp.MustCompile(`[\x{4e00}-\x{9fa5}]`)
	vietnameseRe = regexp.MustCompile(`(?i)[a-záàảãạâấầẩẫậăắằẳẵặéèẻẽẹêếềểễệíìỉĩịóòỏõọôốồổỗộơớờởỡợúùủũụưứừửữựýỳỷỹỵđ]`)

	// 模型偶尔加的开场白/收尾语
	preambleRe = regexp.MustCompile(`(?i)^(here is|here's|sure[,!]|certainly|of course|dưới đây là|đây là bản dịch|bản dịch[:：]|ghi chú[:：]|lưu ý[:：])`)
)

// CountForeign 统计源语言文字的字符数
func CountForeign(text string) int {
	return len(foreignRe.FindAllString(text, -1))
}

// ForeignRatio 计算源语言字符占非空白字符的比例
func ForeignRatio(text string) float64 {
	total := 0
	for _, r := range text {
		if !unicode.IsSpace(r) {
			total++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(CountForeign(text)) / float64(total)
}

// 开场白/收尾语只在文首文尾几行内清理，避免误伤正文
const preambleWindow = 3

// Cleanup 对拼接后的整章译文做行级清理：
// 去掉模型开场白、站点噪声行、只含源语言的残留行，并折叠连续空行。
func Cleanup(text string) string {
	lines := strings.Split(text, "\n")

	kept := make([]string, 0, len(lines))
	nonEmptySeen := 0
	totalNonEmpty := 0
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			totalNonEmpty++
		}
	}

	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			kept = append(kept, "")
			continue
		}
		nonEmptySeen++

		nearEdge := nonEmptySeen <= preambleWindow || nonEmptySeen > totalNonEmpty-preambleWindow
		if nearEdge && preambleRe.MatchString(line) {
			continue
		}
		if extract.IsJunkLine(line) {
			continue
		}
		// 有汉字却没有一个越南语字母的行是残留原文
		if chineseRe.MatchString(line) && !vietnameseRe.MatchString(line) {
			continue
		}
		kept = append(kept, line)
	}

	// 折叠连续空行
	out := make([]string, 0, len(kept))
	blank := false
	for _, l := range kept {
		if l == "" {
			if blank {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		out = append(out, l)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
