// Package translate 实现配额感知的多模型分块翻译
package translate

import (
	"sort"
	"strings"
)

// FormatDictionary 把术语表 map 渲染成 "原文=译文" 行，按原文排序保证稳定
func FormatDictionary(dict map[string]string) string {
	if len(dict) == 0 {
		return ""
	}
	keys := make([]string, 0, len(dict))
	for k := range dict {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(dict[k])
	}
	return b.String()
}

// OptimizeDictionary 从完整术语表中筛出正文实际用到的条目。
// 逐行解析 "key=value"，跳过注释行，按 key 去重（后出现的覆盖先出现的），
// 只保留 key 在正文中出现的行。条目保持首次出现的顺序。
func OptimizeDictionary(dictionary, content string) string {
	if dictionary == "" || content == "" {
		return ""
	}

	order := make([]string, 0, 64)
	byKey := make(map[string]string)

	for _, line := range strings.Split(dictionary, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "//") {
			continue
		}
		eq := strings.Index(trimmed, "=")
		if eq == -1 {
			continue
		}
		key := strings.TrimSpace(trimmed[:eq])
		if key == "" {
			continue
		}
		if _, seen := byKey[key]; !seen {
			order = append(order, key)
		}
		byKey[key] = trimmed
	}

	used := make([]string, 0, len(order))
	for _, key := range order {
		if strings.Contains(content, key) {
			used = append(used, byKey[key])
		}
	}
	return strings.Join(used, "\n")
}
