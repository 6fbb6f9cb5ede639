package translate

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"novel-trans-api/internal/application/quota"
	"novel-trans-api/internal/config"
	"novel-trans-api/internal/domain/entity"
	apperrors "novel-trans-api/pkg/errors"
	"novel-trans-api/pkg/logger"
	"novel-trans-api/pkg/metrics"
)

var tracer = otel.Tracer("translate")

// Completer LLM 补全端口
type Completer interface {
	Complete(ctx context.Context, m config.ModelConfig, system, user string) (string, error)
}

// Output 整章翻译结果
type Output struct {
	Title   string
	Content string
	Model   string
	Chunks  int
}

// Translator 分块翻译器
// 按块顺序翻译，块内按模型优先级逐个尝试，质量门槛不过的输出按失败处理。
type Translator struct {
	completer Completer
	selector  *quota.Selector
	ledger    *quota.Ledger
	cfg       *config.TranslatorConfig
}

// NewTranslator 创建翻译器
func NewTranslator(completer Completer, selector *quota.Selector, ledger *quota.Ledger, cfg *config.TranslatorConfig) *Translator {
	return &Translator{
		completer: completer,
		selector:  selector,
		ledger:    ledger,
		cfg:       cfg,
	}
}

func (t *Translator) chunkSize() int {
	if t.cfg.ChunkSize > 0 {
		return t.cfg.ChunkSize
	}
	return 6000
}

func (t *Translator) qualityThreshold() float64 {
	if t.cfg.QualityThreshold > 0 {
		return t.cfg.QualityThreshold
	}
	return 0.3
}

// TranslateChapter 翻译单个章节。
// 任何一块在所有模型上都失败时整章失败，不保留半成品译文。
func (t *Translator) TranslateChapter(ctx context.Context, project *entity.Project, chapter *entity.Chapter) (*Output, error) {
	ctx, span := tracer.Start(ctx, "translate.TranslateChapter",
		trace.WithAttributes(
			attribute.String("project.id", project.ID),
			attribute.String("chapter.id", chapter.ID),
		))
	defer span.End()

	ctx = logger.WithContext(ctx, logger.ChapterIDKey, chapter.ID)
	start := time.Now()

	dictionary := OptimizeDictionary(FormatDictionary(project.Dictionary), chapter.Content)
	userPrompt := ReplaceVariables(project.PromptTemplate, project)
	system := SystemPrompt(project.TargetLanguage)

	chunks := SplitChunks(chapter.Content, t.chunkSize())
	if len(chunks) == 0 {
		return nil, apperrors.New(apperrors.CodeInvalidParam, "chapter has no content")
	}
	span.SetAttributes(attribute.Int("chunk.count", len(chunks)))

	var (
		parts           = make([]string, 0, len(chunks))
		translatedTitle string
		usedModel       string
	)

	for i, chunk := range chunks {
		titleArg := ""
		if i == 0 {
			titleArg = chapter.Title
		}
		prompt := BuildChunkPrompt(dictionary, project.GlobalContext, userPrompt, titleArg, chunk, i, len(chunks))

		out, model, err := t.translateChunk(ctx, system, prompt)
		if err != nil {
			span.RecordError(err)
			metrics.TranslationTotal.WithLabelValues(usedModel, "error").Inc()
			return nil, err
		}

		if i == 0 {
			if title, rest := ExtractTitle(out); title != "" {
				translatedTitle = title
				out = rest
			}
		}
		parts = append(parts, out)
		usedModel = model
	}

	if translatedTitle == "" {
		translatedTitle = chapter.Title
	}

	content := Cleanup(strings.Join(parts, "\n\n"))

	metrics.TranslationTotal.WithLabelValues(usedModel, "success").Inc()
	metrics.TranslationDuration.WithLabelValues(usedModel).Observe(time.Since(start).Seconds())
	metrics.TranslationChunks.WithLabelValues(usedModel).Observe(float64(len(chunks)))
	logger.Info(ctx, "chapter translated",
		"model", usedModel,
		"chunks", len(chunks),
		"source_runes", len([]rune(chapter.Content)),
		"output_runes", len([]rune(content)))

	return &Output{
		Title:   translatedTitle,
		Content: content,
		Model:   usedModel,
		Chunks:  len(chunks),
	}, nil
}

// translateChunk 对单块按模型优先级尝试，返回首个通过质量门槛的输出
func (t *Translator) translateChunk(ctx context.Context, system, prompt string) (string, string, error) {
	excluded := make(map[string]bool)
	threshold := t.qualityThreshold()

	for {
		m, err := t.selector.Next(excluded)
		if err != nil {
			return "", "", apperrors.Wrap(err, apperrors.CodeTranslationFailed, "all models failed for chunk")
		}

		out, err := t.completer.Complete(ctx, m, system, prompt)
		if err != nil {
			switch classifyLLMError(err) {
			case failureDepleted:
				t.ledger.ReportDepleted(ctx, m.Name)
				logger.Warn(ctx, "model quota depleted", "model", m.Name, "error", err.Error())
			case failureRateLimited:
				t.ledger.ReportRateLimited(ctx, m.Name)
				logger.Warn(ctx, "model rate limited", "model", m.Name, "error", err.Error())
			default:
				logger.Warn(ctx, "model call failed", "model", m.Name, "error", err.Error())
			}
			excluded[m.Name] = true
			continue
		}

		t.ledger.Record(ctx, m.Name)

		out = strings.TrimSpace(out)
		if out == "" {
			excluded[m.Name] = true
			continue
		}

		// 输出里源语言字符占比过高说明模型在偷懒回显原文
		if ratio := ForeignRatio(out); ratio > threshold {
			metrics.QualityGateRejections.WithLabelValues(m.Name).Inc()
			logger.Warn(ctx, "translation rejected by quality gate", "model", m.Name, "foreign_ratio", ratio)
			excluded[m.Name] = true
			continue
		}

		return out, m.Name, nil
	}
}
