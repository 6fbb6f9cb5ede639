package translate

import "strings"

// SplitChunks 把章节正文切成不超过 maxRunes 的块，只在换行处断开。
// 单个段落超过上限时独占一块，不再往下细分。
func SplitChunks(content string, maxRunes int) []string {
	text := strings.TrimSpace(content)
	if text == "" {
		return nil
	}
	if maxRunes <= 0 || len([]rune(text)) <= maxRunes {
		return []string{text}
	}

	var chunks []string
	var current []string
	currentLen := 0

	for _, line := range strings.Split(text, "\n") {
		lineLen := len([]rune(line))
		// +1 补上拼接时的换行符
		if currentLen > 0 && currentLen+lineLen+1 > maxRunes {
			chunks = append(chunks, strings.Join(current, "\n"))
			current = current[:0]
			currentLen = 0
		}
		current = append(current, line)
		if currentLen > 0 {
			currentLen++
		}
		currentLen += lineLen
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, "\n"))
	}
	return chunks
}
