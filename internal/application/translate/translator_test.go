package translate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"novel-trans-api/internal/application/quota"
	"novel-trans-api/internal/config"
	"novel-trans-api/internal/domain/entity"
)

type stubCompleter struct {
	fn    func(m config.ModelConfig, system, user string) (string, error)
	calls []string
}

func (s *stubCompleter) Complete(_ context.Context, m config.ModelConfig, system, user string) (string, error) {
	s.calls = append(s.calls, m.Name)
	return s.fn(m, system, user)
}

func testTranslator(completer Completer) (*Translator, *quota.Ledger) {
	models := []config.ModelConfig{
		{Name: "flash", Provider: "gemini", Tier: quota.TierPrimary, Priority: 1},
		{Name: "flash-lite", Provider: "gemini", Tier: quota.TierPrimary, Priority: 2},
		{Name: "pro", Provider: "gemini", Tier: quota.TierFallback, Priority: 1},
	}
	ledger := quota.NewLedger(models, nil)
	selector := quota.NewSelector(models, ledger)
	cfg := &config.TranslatorConfig{ChunkSize: 6000, QualityThreshold: 0.3}
	return NewTranslator(completer, selector, ledger, cfg), ledger
}

func testProject() *entity.Project {
	return &entity.Project{
		ID:             "p1",
		Title:          "测试小说",
		Author:         "某人",
		TargetLanguage: "Vietnamese",
		Dictionary:     map[string]string{"陈默": "Trần Mặc"},
		PromptTemplate: "Dịch truyện {{TITLE}} của {{AUTHOR}}.",
	}
}

func testChapter(content string) *entity.Chapter {
	return &entity.Chapter{
		ID:        "c1",
		ProjectID: "p1",
		Title:     "Chương 1 开端",
		Content:   content,
	}
}

func TestTranslateChapterSuccess(t *testing.T) {
	stub := &stubCompleter{fn: func(m config.ModelConfig, system, user string) (string, error) {
		if !strings.Contains(user, "[CONTENT_TO_TRANSLATE]") {
			t.Fatalf("prompt missing content section: %q", user)
		}
		if !strings.Contains(user, "陈默=Trần Mặc") {
			t.Fatalf("prompt missing optimized dictionary: %q", user)
		}
		return "[TIÊU ĐỀ] Chương 1 Khởi Đầu\nTrần Mặc bước ra khỏi sơn môn, lòng đầy quyết tâm.", nil
	}}

	tr, _ := testTranslator(stub)
	out, err := tr.TranslateChapter(context.Background(), testProject(), testChapter("陈默走出山门。"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Title != "Chương 1 Khởi Đầu" {
		t.Fatalf("unexpected title: %q", out.Title)
	}
	if out.Model != "flash" {
		t.Fatalf("expected flash, got %s", out.Model)
	}
	if strings.Contains(out.Content, "[TIÊU ĐỀ]") {
		t.Fatalf("title marker leaked into content: %q", out.Content)
	}
	if out.Chunks != 1 {
		t.Fatalf("expected 1 chunk, got %d", out.Chunks)
	}
}

func TestTranslateChapterQualityGateExhaustsAllModels(t *testing.T) {
	// 所有模型都回显原文，质量门槛应逐个拒绝直至整章失败
	stub := &stubCompleter{fn: func(m config.ModelConfig, _, user string) (string, error) {
		return "陈默走出山门，身后是十年苦修的岁月。", nil
	}}

	tr, _ := testTranslator(stub)
	_, err := tr.TranslateChapter(context.Background(), testProject(), testChapter("陈默走出山门，身后是十年苦修的岁月。"))
	if err == nil {
		t.Fatal("expected error when every model echoes source text")
	}
	if len(stub.calls) != 3 {
		t.Fatalf("expected all 3 models tried, got %v", stub.calls)
	}
}

func TestTranslateChapterFallsBackOnRateLimit(t *testing.T) {
	stub := &stubCompleter{fn: func(m config.ModelConfig, _, _ string) (string, error) {
		if m.Name == "flash" {
			return "", errors.New("google: error 429: too many requests")
		}
		return "Bản dịch hoàn chỉnh của chương này, văn phong mượt mà.", nil
	}}

	tr, ledger := testTranslator(stub)
	out, err := tr.TranslateChapter(context.Background(), testProject(), testChapter("陈默走出山门。"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Model != "flash-lite" {
		t.Fatalf("expected fallback to flash-lite, got %s", out.Model)
	}

	// 429 要进短冷却
	if err := ledger.CanUse("flash"); err == nil {
		t.Fatal("expected flash in cooldown after 429")
	}
}

func TestTranslateChapterDepletedQuota(t *testing.T) {
	stub := &stubCompleter{fn: func(m config.ModelConfig, _, _ string) (string, error) {
		if m.Name == "flash" {
			return "", errors.New("RESOURCE_EXHAUSTED: quota exceeded for this model")
		}
		return "Nội dung dịch xong xuôi cả rồi đây.", nil
	}}

	tr, ledger := testTranslator(stub)
	out, err := tr.TranslateChapter(context.Background(), testProject(), testChapter("陈默走出山门。"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Model != "flash-lite" {
		t.Fatalf("expected flash-lite, got %s", out.Model)
	}

	var unavail quota.UnavailableError
	if err := ledger.CanUse("flash"); !errors.As(err, &unavail) || unavail.Reason != quota.ReasonDepleted {
		t.Fatalf("expected flash marked depleted, got %v", err)
	}
}

func TestTranslateChapterMultiChunkOrder(t *testing.T) {
	var prompts []string
	stub := &stubCompleter{fn: func(_ config.ModelConfig, _, user string) (string, error) {
		prompts = append(prompts, user)
		return "Phần dịch tương ứng với đoạn này.", nil
	}}

	content := strings.Repeat("这是一个足够长的段落内容。\n", 40)
	tr, _ := testTranslator(stub)
	tr.cfg.ChunkSize = 100

	out, err := tr.TranslateChapter(context.Background(), testProject(), testChapter(content))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Chunks < 2 {
		t.Fatalf("expected multiple chunks, got %d", out.Chunks)
	}
	if len(prompts) != out.Chunks {
		t.Fatalf("expected %d prompts, got %d", out.Chunks, len(prompts))
	}
	if !strings.Contains(prompts[0], "[PART 1/") {
		t.Fatalf("first prompt missing part marker: %q", prompts[0][:80])
	}
	if !strings.Contains(prompts[1], "[PART 2/") || !strings.Contains(prompts[1], "Tiếp tục dịch") {
		t.Fatalf("second prompt missing continuation framing")
	}
}

func TestAnalyzeContext(t *testing.T) {
	stub := &stubCompleter{fn: func(m config.ModelConfig, system, user string) (string, error) {
		if !strings.Contains(system, "SERIES BIBLE") {
			t.Fatalf("unexpected system prompt: %q", system)
		}
		return "### 1. PHÂN TÍCH VĂN PHONG\nGiọng văn nghiêm túc.", nil
	}}

	models := []config.ModelConfig{
		{Name: "pro", Provider: "gemini", Tier: quota.TierPrimary, Priority: 1},
	}
	ledger := quota.NewLedger(models, nil)
	selector := quota.NewSelector(models, ledger)
	a := NewAnalyzer(stub, selector, ledger, &config.TranslatorConfig{})

	chapters := []*entity.Chapter{testChapter("第一章的内容。"), testChapter("第二章的内容。")}
	out, err := a.AnalyzeContext(context.Background(), testProject(), chapters)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Giọng văn") {
		t.Fatalf("unexpected analysis output: %q", out)
	}
}
