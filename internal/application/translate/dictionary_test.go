package translate

import (
	"testing"

	"novel-trans-api/internal/domain/entity"
)

func TestOptimizeDictionaryFiltersUnusedEntries(t *testing.T) {
	dict := "# 注释行\n陈默=Trần Mặc\n苏青雪=Tô Thanh Tuyết\n// another comment\n剑宗=Kiếm Tông"
	content := "陈默望着剑宗的山门。"

	got := OptimizeDictionary(dict, content)
	want := "陈默=Trần Mặc\n剑宗=Kiếm Tông"
	if got != want {
		t.Fatalf("OptimizeDictionary = %q, want %q", got, want)
	}
}

func TestOptimizeDictionaryDeduplicatesByKey(t *testing.T) {
	dict := "陈默=Trần Mặc\n陈默=Trần Mạc (sửa)"
	got := OptimizeDictionary(dict, "陈默出场")
	if got != "陈默=Trần Mạc (sửa)" {
		t.Fatalf("expected last entry to win, got %q", got)
	}
}

func TestOptimizeDictionaryIdempotent(t *testing.T) {
	dict := "陈默=Trần Mặc\n剑宗=Kiếm Tông\n苏青雪=Tô Thanh Tuyết"
	content := "陈默加入了剑宗。"

	once := OptimizeDictionary(dict, content)
	twice := OptimizeDictionary(once, content)
	if once != twice {
		t.Fatalf("not idempotent:\nonce  %q\ntwice %q", once, twice)
	}
}

func TestOptimizeDictionaryEmptyInputs(t *testing.T) {
	if got := OptimizeDictionary("", "content"); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
	if got := OptimizeDictionary("a=b", ""); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}

func TestFormatDictionaryStableOrder(t *testing.T) {
	m := map[string]string{"乙": "b", "甲": "a"}
	first := FormatDictionary(m)
	for i := 0; i < 5; i++ {
		if FormatDictionary(m) != first {
			t.Fatal("FormatDictionary output is not stable")
		}
	}
}

func TestReplaceVariables(t *testing.T) {
	p := &entity.Project{
		Title:          "凡人修仙传",
		Author:         "忘语",
		TargetLanguage: "Vietnamese",
		Info:           &entity.ProjectInfo{Genre: "Tiên hiệp"},
	}
	tpl := "Truyện {{TITLE}} của {{AUTHOR}}, thể loại {{GENRE}}, bối cảnh {{SETTING}}, ngôn ngữ {{LANGUAGE}}."
	got := ReplaceVariables(tpl, p)
	want := "Truyện 凡人修仙传 của 忘语, thể loại Tiên hiệp, bối cảnh Chưa rõ, ngôn ngữ Vietnamese."
	if got != want {
		t.Fatalf("ReplaceVariables = %q, want %q", got, want)
	}
}

func TestExtractTitle(t *testing.T) {
	out := "[TIÊU ĐỀ] Chương 12 Phong Vân Đột Biến\n\nNội dung bản dịch ở đây."
	title, rest := ExtractTitle(out)
	if title != "Chương 12 Phong Vân Đột Biến" {
		t.Fatalf("unexpected title: %q", title)
	}
	if rest != "Nội dung bản dịch ở đây." {
		t.Fatalf("unexpected rest: %q", rest)
	}

	// 没有标记时原样返回
	title, rest = ExtractTitle("Chỉ có nội dung.")
	if title != "" || rest != "Chỉ có nội dung." {
		t.Fatalf("unexpected: %q / %q", title, rest)
	}
}
