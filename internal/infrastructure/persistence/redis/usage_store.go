package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"novel-trans-api/internal/application/quota"
)

var usageTracer = otel.Tracer("redis.usage")

// 使用状态保留两天，跨日重置后旧状态自然过期
const usageTTL = 48 * time.Hour

// UsageStore 模型配额状态的 Redis 持久化实现。
// 进程重启后账本通过它恢复当日计数与冷却状态。
type UsageStore struct {
	client *Client
}

// NewUsageStore 创建配额状态存储
func NewUsageStore(client *Client) *UsageStore {
	return &UsageStore{client: client}
}

func usageKey(model string) string {
	return fmt.Sprintf("quota:usage:%s", model)
}

// Load 读取模型的使用状态，不存在时返回 nil
func (s *UsageStore) Load(ctx context.Context, model string) (*quota.ModelUsage, error) {
	ctx, span := usageTracer.Start(ctx, "usage.Load",
		trace.WithAttributes(attribute.String("quota.model", model)))
	defer span.End()

	val, err := s.client.rdb.Get(ctx, usageKey(model)).Bytes()
	if err != nil {
		if IsNil(err) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to load usage for %s: %w", model, err)
	}

	var usage quota.ModelUsage
	if err := json.Unmarshal(val, &usage); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to decode usage for %s: %w", model, err)
	}
	return &usage, nil
}

// Save 保存模型的使用状态
func (s *UsageStore) Save(ctx context.Context, usage *quota.ModelUsage) error {
	ctx, span := usageTracer.Start(ctx, "usage.Save",
		trace.WithAttributes(attribute.String("quota.model", usage.Model)))
	defer span.End()

	bytes, err := json.Marshal(usage)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to encode usage for %s: %w", usage.Model, err)
	}

	if err := s.client.rdb.Set(ctx, usageKey(usage.Model), bytes, usageTTL).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to save usage for %s: %w", usage.Model, err)
	}
	return nil
}
