package ingest

import (
	"archive/zip"
	"bytes"
	"testing"
)

func buildZip(t *testing.T, files map[string]string) *bytes.Reader {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("failed to create zip entry: %v", err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("failed to write zip entry: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to close zip: %v", err)
	}
	return bytes.NewReader(buf.Bytes())
}

func TestImportZipNaturalOrder(t *testing.T) {
	r := buildZip(t, map[string]string{
		"chuong_10.txt": "第十章的正文。",
		"chuong_2.txt":  "第二章的正文。",
		"chuong_1.txt":  "第一章的正文。",
	})

	chapters, err := ImportZip(r, r.Size(), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chapters) != 3 {
		t.Fatalf("expected 3 chapters, got %d", len(chapters))
	}
	want := []string{"chuong_1", "chuong_2", "chuong_10"}
	for i, w := range want {
		if chapters[i].Title != w {
			t.Fatalf("chapter %d title = %q, want %q", i, chapters[i].Title, w)
		}
	}
}

func TestImportZipSplitsMultiChapterFile(t *testing.T) {
	r := buildZip(t, map[string]string{
		"book.txt": "第一章 开端\n内容一。\n第二章 发展\n内容二。",
	})

	chapters, err := ImportZip(r, r.Size(), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chapters) != 2 {
		t.Fatalf("expected 2 chapters, got %d", len(chapters))
	}
	if chapters[0].Title != "第一章 开端" || chapters[1].Title != "第二章 发展" {
		t.Fatalf("unexpected titles: %q %q", chapters[0].Title, chapters[1].Title)
	}
}

func TestImportZipIgnoresNonTxt(t *testing.T) {
	r := buildZip(t, map[string]string{
		"cover.jpg": "not text",
		"ch1.txt":   "正文内容。",
	})

	chapters, err := ImportZip(r, r.Size(), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chapters) != 1 || chapters[0].Title != "ch1" {
		t.Fatalf("unexpected chapters: %+v", chapters)
	}
}

func TestImportZipEmpty(t *testing.T) {
	r := buildZip(t, map[string]string{"readme.md": "nothing"})
	if _, err := ImportZip(r, r.Size(), Options{}); err == nil {
		t.Fatal("expected error for zip without txt files")
	}
}

func TestImportEpub(t *testing.T) {
	r := buildZip(t, map[string]string{
		"mimetype": "application/epub+zip",
		"META-INF/container.xml": `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`,
		"OEBPS/content.opf": `<?xml version="1.0"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0">
  <manifest>
    <item id="ch1" href="Text/ch1.xhtml" media-type="application/xhtml+xml"/>
    <item id="ch2" href="Text/ch2.xhtml" media-type="application/xhtml+xml"/>
  </manifest>
  <spine>
    <itemref idref="ch1"/>
    <itemref idref="ch2"/>
  </spine>
</package>`,
		"OEBPS/Text/ch1.xhtml": `<html><head><title>ch1</title></head><body><h1>Chương 1 Khởi đầu</h1><p>Đoạn văn thứ nhất của chương một.</p><p>Đoạn văn thứ hai.</p></body></html>`,
		"OEBPS/Text/ch2.xhtml": `<html><head><title>Chương 2</title></head><body><p>Nội dung chương hai đủ dài để được giữ lại.</p></body></html>`,
	})

	chapters, err := ImportEpub(r, r.Size())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chapters) != 2 {
		t.Fatalf("expected 2 chapters, got %d", len(chapters))
	}
	if chapters[0].Title != "Chương 1 Khởi đầu" {
		t.Fatalf("chapter 1 title = %q", chapters[0].Title)
	}
	if chapters[0].Content != "Đoạn văn thứ nhất của chương một.\nĐoạn văn thứ hai." {
		t.Fatalf("chapter 1 content = %q", chapters[0].Content)
	}
	if chapters[1].Title != "Chương 2" {
		t.Fatalf("chapter 2 title = %q", chapters[1].Title)
	}
}

func TestImportEpubRejectsGarbage(t *testing.T) {
	r := buildZip(t, map[string]string{"random.txt": "not an epub"})
	if _, err := ImportEpub(r, r.Size()); err == nil {
		t.Fatal("expected error for zip without container.xml")
	}
}
