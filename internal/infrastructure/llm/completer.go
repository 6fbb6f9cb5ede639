package llm

import (
	"context"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"novel-trans-api/internal/config"
	einoobs "novel-trans-api/internal/observability/eino"
	apperrors "novel-trans-api/pkg/errors"
	"novel-trans-api/pkg/metrics"
)

var tracer = otel.Tracer("llm")

// Completer 基于 Eino 工厂的补全适配器
type Completer struct {
	factory *EinoFactory
}

// NewCompleter 创建补全适配器
func NewCompleter(factory *EinoFactory) *Completer {
	return &Completer{factory: factory}
}

// Complete 向指定模型发起一次补全请求
func (c *Completer) Complete(ctx context.Context, m config.ModelConfig, system, user string) (string, error) {
	ctx, span := tracer.Start(ctx, "llm.Complete",
		trace.WithAttributes(
			attribute.String("llm.provider", m.Provider),
			attribute.String("llm.model", m.Name),
		))
	defer span.End()
	ctx = einoobs.WithProvider(ctx, m.Provider)

	chatModel, err := c.factory.Get(ctx, m.Provider)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeLLMProviderError, "failed to get chat model")
	}

	messages := []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(user),
	}

	opts := []model.Option{model.WithModel(m.Name)}
	if m.Temperature > 0 {
		opts = append(opts, model.WithTemperature(float32(m.Temperature)))
	}
	if m.MaxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(m.MaxTokens))
	}

	start := time.Now()
	resp, err := chatModel.Generate(ctx, messages, opts...)
	metrics.LLMCallDuration.WithLabelValues(m.Provider, m.Name).Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		metrics.LLMCallTotal.WithLabelValues(m.Provider, m.Name, "error").Inc()
		// 原样返回底层错误，调用方按错误内容区分 429 与配额耗尽
		return "", err
	}
	metrics.LLMCallTotal.WithLabelValues(m.Provider, m.Name, "success").Inc()

	if resp.ResponseMeta != nil && resp.ResponseMeta.Usage != nil {
		metrics.LLMTokensUsed.WithLabelValues(m.Provider, m.Name, "prompt").Add(float64(resp.ResponseMeta.Usage.PromptTokens))
		metrics.LLMTokensUsed.WithLabelValues(m.Provider, m.Name, "completion").Add(float64(resp.ResponseMeta.Usage.CompletionTokens))
	}

	return resp.Content, nil
}
