package translate

import "strings"

// llmFailure LLM 调用失败的分类
type llmFailure int

const (
	failureOther llmFailure = iota
	failureRateLimited
	failureDepleted
)

// classifyLLMError 按错误信息归类失败原因。
// 供应商的错误结构五花八门，只能按消息子串匹配。
func classifyLLMError(err error) llmFailure {
	if err == nil {
		return failureOther
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "quota"), strings.Contains(msg, "exhausted"):
		return failureDepleted
	case strings.Contains(msg, "429"), strings.Contains(msg, "rate limit"), strings.Contains(msg, "too many requests"):
		return failureRateLimited
	default:
		return failureOther
	}
}
