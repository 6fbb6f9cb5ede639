package export

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"

	"novel-trans-api/internal/domain/entity"
)

func testChapters() []*entity.Chapter {
	return []*entity.Chapter{
		{
			Title:             "第一章",
			TranslatedTitle:   "Chương 1 Khởi đầu",
			TranslatedContent: "Dòng một.\nDòng hai.",
			Status:            entity.ChapterStatusCompleted,
			OrderIndex:        1,
		},
		{
			Title:      "第二章",
			Status:     entity.ChapterStatusIdle,
			OrderIndex: 2,
		},
		{
			Title:             "第三章",
			TranslatedTitle:   "Chương 3 Kết thúc",
			TranslatedContent: "Dòng cuối.",
			Status:            entity.ChapterStatusCompleted,
			OrderIndex:        3,
		},
	}
}

func TestMergeTxt(t *testing.T) {
	project := &entity.Project{Title: "Tiểu thuyết thử nghiệm", Author: "Tác giả"}

	out, err := MergeTxt(project, testChapters())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.HasPrefix(out, "Tiểu thuyết thử nghiệm\nTác giả\n\n") {
		t.Fatalf("missing header: %q", out[:60])
	}
	// 未完成章节不导出
	if strings.Contains(out, "第二章") {
		t.Fatalf("idle chapter leaked into export: %q", out)
	}
	if !strings.Contains(out, "Chương 1 Khởi đầu\n\nDòng một.") {
		t.Fatalf("chapter 1 missing: %q", out)
	}
	pos1 := strings.Index(out, "Chương 1")
	pos3 := strings.Index(out, "Chương 3")
	if pos1 < 0 || pos3 < 0 || pos1 > pos3 {
		t.Fatalf("chapters out of order: %q", out)
	}
}

func TestMergeTxtNoCompleted(t *testing.T) {
	project := &entity.Project{Title: "Trống"}
	chapters := []*entity.Chapter{{Title: "第一章", Status: entity.ChapterStatusIdle}}
	if _, err := MergeTxt(project, chapters); err == nil {
		t.Fatal("expected error when nothing is translated")
	}
}

func TestBuildEpub(t *testing.T) {
	project := &entity.Project{Title: "Tiểu thuyết thử nghiệm", Author: "Tác giả"}

	var buf bytes.Buffer
	if err := BuildEpub(&buf, project, testChapters()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("output is not a valid zip: %v", err)
	}

	// mimetype 必须是第一个条目且未压缩
	first := zr.File[0]
	if first.Name != "mimetype" || first.Method != zip.Store {
		t.Fatalf("first entry = %q (method %d)", first.Name, first.Method)
	}

	read := func(name string) string {
		t.Helper()
		for _, f := range zr.File {
			if f.Name != name {
				continue
			}
			rc, err := f.Open()
			if err != nil {
				t.Fatalf("failed to open %s: %v", name, err)
			}
			defer rc.Close()
			var b bytes.Buffer
			if _, err := b.ReadFrom(rc); err != nil {
				t.Fatalf("failed to read %s: %v", name, err)
			}
			return b.String()
		}
		t.Fatalf("missing entry %s", name)
		return ""
	}

	opf := read("OEBPS/content.opf")
	if !strings.Contains(opf, "<dc:title>Tiểu thuyết thử nghiệm</dc:title>") {
		t.Fatalf("opf missing title: %q", opf)
	}
	if !strings.Contains(opf, `<itemref idref="ch2"/>`) || strings.Contains(opf, `<itemref idref="ch3"/>`) {
		t.Fatalf("spine should list exactly 2 chapters: %q", opf)
	}

	nav := read("OEBPS/nav.xhtml")
	if !strings.Contains(nav, "Chương 1 Khởi đầu") || !strings.Contains(nav, "Chương 3 Kết thúc") {
		t.Fatalf("nav missing chapter titles: %q", nav)
	}

	ch1 := read("OEBPS/Text/ch1.xhtml")
	if !strings.Contains(ch1, "<p>Dòng một.</p>") || !strings.Contains(ch1, "<p>Dòng hai.</p>") {
		t.Fatalf("chapter body malformed: %q", ch1)
	}
}

func TestBuildEpubNoCompleted(t *testing.T) {
	var buf bytes.Buffer
	err := BuildEpub(&buf, &entity.Project{Title: "Trống"}, nil)
	if err == nil {
		t.Fatal("expected error when nothing is translated")
	}
}
