package translate

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"novel-trans-api/internal/application/quota"
	"novel-trans-api/internal/config"
	"novel-trans-api/internal/domain/entity"
	apperrors "novel-trans-api/pkg/errors"
	"novel-trans-api/pkg/logger"
)

// 术语表分析系统提示词：从样章提炼文风、人名术语对照与翻译注意项
const glossaryAnalysisPrompt = `**PROMPT: LẬP HỒ SƠ PHÂN TÍCH VĂN HỌC (SERIES BIBLE)**

**VAI TRÒ:** Bạn là một Nhà Phê Bình Văn Học và Chuyên Gia Ngữ học.
**NHIỆM VỤ:** Phân tích các chương mẫu và trích xuất thông tin để đảm bảo bản dịch nhất quán.

**YÊU CẦU ĐẦU RA (Markdown):**
---
### 1. PHÂN TÍCH VĂN PHONG
- Nhận diện giọng văn (Hài hước, bi tráng, u ám...).
- Đề xuất cách xưng hô chủ đạo.

### 2. TỪ ĐIỂN NHÂN VẬT & THUẬT NGỮ
- [Tên Gốc] = [Tên Dịch] (Giới tính, Xưng hô).
- [Thuật ngữ gốc] = [Nghĩa dịch chuẩn].

### 3. LƯU Ý ĐẶC BIỆT
- Các từ cần giữ nguyên.
- Các thói quen ngôn ngữ của tác giả cần chú ý.
---
`

// Analyzer 叙事背景分析器
// 取开头几章喂给高优先级模型，产出跨章节共享的 GlobalContext。
type Analyzer struct {
	completer Completer
	selector  *quota.Selector
	ledger    *quota.Ledger
	cfg       *config.TranslatorConfig
}

// NewAnalyzer 创建背景分析器
func NewAnalyzer(completer Completer, selector *quota.Selector, ledger *quota.Ledger, cfg *config.TranslatorConfig) *Analyzer {
	return &Analyzer{
		completer: completer,
		selector:  selector,
		ledger:    ledger,
		cfg:       cfg,
	}
}

// AnalyzeContext 分析样章并生成叙事档案
func (a *Analyzer) AnalyzeContext(ctx context.Context, project *entity.Project, chapters []*entity.Chapter) (string, error) {
	ctx, span := tracer.Start(ctx, "translate.AnalyzeContext",
		trace.WithAttributes(attribute.String("project.id", project.ID)))
	defer span.End()

	maxChapters := a.cfg.ContextChapters
	if maxChapters <= 0 {
		maxChapters = 5
	}
	maxRunes := a.cfg.ContextMaxRunes
	if maxRunes <= 0 {
		maxRunes = 50000
	}

	if len(chapters) > maxChapters {
		chapters = chapters[:maxChapters]
	}
	var b strings.Builder
	for _, c := range chapters {
		b.WriteString(c.Content)
		b.WriteString("\n")
	}
	sample := []rune(b.String())
	if len(sample) > maxRunes {
		sample = sample[:maxRunes]
	}
	if len(sample) == 0 {
		return "", apperrors.New(apperrors.CodeInvalidParam, "no chapter content to analyze")
	}

	prompt := "Phân tích cốt truyện và lập từ điển nhân vật từ nội dung sau:\n" + string(sample)

	excluded := make(map[string]bool)
	for {
		m, err := a.selector.Next(excluded)
		if err != nil {
			return "", apperrors.Wrap(err, apperrors.CodeTranslationFailed, "context analysis failed on all models")
		}

		out, err := a.completer.Complete(ctx, m, glossaryAnalysisPrompt, prompt)
		if err != nil {
			switch classifyLLMError(err) {
			case failureDepleted:
				a.ledger.ReportDepleted(ctx, m.Name)
			case failureRateLimited:
				a.ledger.ReportRateLimited(ctx, m.Name)
			}
			logger.Warn(ctx, "context analysis model failed", "model", m.Name, "error", err.Error())
			excluded[m.Name] = true
			continue
		}

		a.ledger.Record(ctx, m.Name)
		out = strings.TrimSpace(out)
		if out == "" {
			excluded[m.Name] = true
			continue
		}
		logger.Info(ctx, "story context analyzed", "model", m.Name, "output_runes", len([]rune(out)))
		return out, nil
	}
}
