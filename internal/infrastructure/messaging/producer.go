// Package messaging 提供消息队列实现
package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("messaging")

// Producer 消息生产者
type Producer struct {
	client *redis.Client
	maxLen int64
}

// NewProducer 创建消息生产者
func NewProducer(client *redis.Client, maxLen int64) *Producer {
	if maxLen <= 0 {
		maxLen = 100000
	}
	return &Producer{
		client: client,
		maxLen: maxLen,
	}
}

// Publish 发布消息到指定流
func (p *Producer) Publish(ctx context.Context, stream Stream, msg *Message) (string, error) {
	ctx, span := tracer.Start(ctx, "producer.Publish",
		trace.WithAttributes(
			attribute.String("stream", string(stream)),
			attribute.String("message.id", msg.ID),
			attribute.String("message.type", msg.Type),
		))
	defer span.End()

	data, err := json.Marshal(msg)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}

	result, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: string(stream),
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()

	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to publish message: %w", err)
	}

	span.SetAttributes(attribute.String("stream.message_id", result))
	return result, nil
}

// PublishTranslateJob 发布章节翻译任务
func (p *Producer) PublishTranslateJob(ctx context.Context, job *TranslateJobMessage) (string, error) {
	msg, err := NewMessage(job.JobID, "chapter_translate", job.ProjectID, job.ChapterID, job)
	if err != nil {
		return "", err
	}

	msg.SetMetadata("priority", fmt.Sprintf("%d", job.Priority))
	return p.Publish(ctx, StreamTranslate, msg)
}

// PublishCrawlJob 发布抓取任务
func (p *Producer) PublishCrawlJob(ctx context.Context, job *CrawlJobMessage) (string, error) {
	msg, err := NewMessage(job.JobID, "crawl", job.ProjectID, "", job)
	if err != nil {
		return "", err
	}

	return p.Publish(ctx, StreamCrawl, msg)
}

// TranslateJobMessage 章节翻译任务消息
type TranslateJobMessage struct {
	JobID     string `json:"job_id"`
	ProjectID string `json:"project_id"`
	ChapterID string `json:"chapter_id"`
	Priority  int    `json:"priority"`
	// Force 为 true 时跳过状态检查，已完成章节也重新翻译
	Force bool `json:"force,omitempty"`
}

// CrawlJobMessage 抓取任务消息
type CrawlJobMessage struct {
	JobID     string `json:"job_id"`
	ProjectID string `json:"project_id"`
	StartURL  string `json:"start_url"`
	MaxPages  int    `json:"max_pages,omitempty"`
	// AutoTranslate 为 true 时抓取完成后为新章节入队翻译任务
	AutoTranslate bool `json:"auto_translate,omitempty"`
}
