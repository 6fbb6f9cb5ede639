package batch

import (
	"context"
	"strings"
	"testing"

	"novel-trans-api/internal/application/quota"
	"novel-trans-api/internal/application/translate"
	"novel-trans-api/internal/config"
	"novel-trans-api/internal/domain/entity"
	"novel-trans-api/internal/domain/repository"
)

type stubCompleter struct {
	fn func(m config.ModelConfig, system, user string) (string, error)
}

func (s *stubCompleter) Complete(_ context.Context, m config.ModelConfig, system, user string) (string, error) {
	return s.fn(m, system, user)
}

type stubProjectRepo struct {
	repository.ProjectRepository
	project *entity.Project
}

func (r *stubProjectRepo) GetByID(_ context.Context, id string) (*entity.Project, error) {
	if r.project != nil && r.project.ID == id {
		return r.project, nil
	}
	return nil, nil
}

type stubChapterRepo struct {
	repository.ChapterRepository
	chapter *entity.Chapter
	updates []entity.ChapterStatus
}

func (r *stubChapterRepo) GetByID(_ context.Context, id string) (*entity.Chapter, error) {
	if r.chapter != nil && r.chapter.ID == id {
		return r.chapter, nil
	}
	return nil, nil
}

func (r *stubChapterRepo) Update(_ context.Context, chapter *entity.Chapter) error {
	r.updates = append(r.updates, chapter.Status)
	return nil
}

func testService(completer translate.Completer) (*Service, *stubChapterRepo) {
	models := []config.ModelConfig{
		{Name: "flash", Provider: "gemini", Tier: quota.TierPrimary, Priority: 1},
	}
	ledger := quota.NewLedger(models, nil)
	selector := quota.NewSelector(models, ledger)
	cfg := &config.TranslatorConfig{ChunkSize: 6000, QualityThreshold: 0.3}
	translator := translate.NewTranslator(completer, selector, ledger, cfg)
	analyzer := translate.NewAnalyzer(completer, selector, ledger, cfg)

	projects := &stubProjectRepo{project: &entity.Project{
		ID:             "p1",
		Title:          "测试小说",
		TargetLanguage: "Vietnamese",
	}}
	chapters := &stubChapterRepo{chapter: &entity.Chapter{
		ID:        "c1",
		ProjectID: "p1",
		Title:     "Chương 1 开端",
		Content:   "陈默走出山门，身后是十年苦修的岁月。",
		Status:    entity.ChapterStatusIdle,
	}}
	return NewService(translator, analyzer, projects, chapters), chapters
}

func TestServiceTranslateChapterCompletes(t *testing.T) {
	stub := &stubCompleter{fn: func(config.ModelConfig, string, string) (string, error) {
		return "Trần Mặc bước ra khỏi sơn môn, sau lưng là mười năm khổ tu.", nil
	}}
	svc, chapters := testService(stub)

	if err := svc.TranslateChapter(context.Background(), "p1", "c1", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ch := chapters.chapter
	if ch.Status != entity.ChapterStatusCompleted {
		t.Fatalf("expected completed, got %s", ch.Status)
	}
	if !strings.Contains(ch.TranslatedContent, "Trần Mặc") {
		t.Fatalf("translation not stored: %q", ch.TranslatedContent)
	}
	if ch.UsedModel != "flash" {
		t.Fatalf("expected used model recorded, got %q", ch.UsedModel)
	}
	want := []entity.ChapterStatus{entity.ChapterStatusProcessing, entity.ChapterStatusCompleted}
	if len(chapters.updates) != 2 || chapters.updates[0] != want[0] || chapters.updates[1] != want[1] {
		t.Fatalf("unexpected status sequence: %v", chapters.updates)
	}
}

func TestServiceTranslateChapterMarksError(t *testing.T) {
	// 模型回显原文，质量门槛拒绝后所有模型耗尽，章节要落到 error 而不是卡在 processing
	stub := &stubCompleter{fn: func(_ config.ModelConfig, _, user string) (string, error) {
		return "陈默走出山门，身后是十年苦修的岁月。", nil
	}}
	svc, chapters := testService(stub)

	if err := svc.TranslateChapter(context.Background(), "p1", "c1", false); err == nil {
		t.Fatal("expected error when every model echoes source text")
	}

	ch := chapters.chapter
	if ch.Status != entity.ChapterStatusError {
		t.Fatalf("expected error status, got %s", ch.Status)
	}
	if ch.ErrorMessage == "" {
		t.Fatal("expected failure reason recorded on chapter")
	}
	want := []entity.ChapterStatus{entity.ChapterStatusProcessing, entity.ChapterStatusError}
	if len(chapters.updates) != 2 || chapters.updates[0] != want[0] || chapters.updates[1] != want[1] {
		t.Fatalf("unexpected status sequence: %v", chapters.updates)
	}
}

func TestServiceTranslateChapterSkipsCompleted(t *testing.T) {
	stub := &stubCompleter{fn: func(config.ModelConfig, string, string) (string, error) {
		t.Fatal("completer should not be called for completed chapter")
		return "", nil
	}}
	svc, chapters := testService(stub)
	chapters.chapter.Status = entity.ChapterStatusCompleted

	if err := svc.TranslateChapter(context.Background(), "p1", "c1", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chapters.updates) != 0 {
		t.Fatalf("expected no status updates, got %v", chapters.updates)
	}
}
