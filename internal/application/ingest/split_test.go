package ingest

import (
	"strings"
	"testing"
)

func TestSplitTextByHeading(t *testing.T) {
	content := strings.Join([]string{
		"某本小说的简介文字。",
		"第一章 初入江湖",
		"少年背着行囊走出了村口。",
		"山路蜿蜒，不知通向何方。",
		"第二章 偶遇",
		"客栈里人声嘈杂。",
		"Chapter 3 The Duel",
		"剑光一闪。",
	}, "\n")

	chapters, err := SplitText(content, Options{Mode: ModeHeading})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chapters) != 4 {
		t.Fatalf("expected 4 chapters, got %d", len(chapters))
	}
	if chapters[0].Title != "Mở đầu" {
		t.Fatalf("preface title = %q", chapters[0].Title)
	}
	if chapters[1].Title != "第一章 初入江湖" {
		t.Fatalf("chapter 1 title = %q", chapters[1].Title)
	}
	if !strings.Contains(chapters[1].Content, "少年背着行囊") {
		t.Fatalf("chapter 1 content = %q", chapters[1].Content)
	}
	if chapters[3].Title != "Chapter 3 The Duel" {
		t.Fatalf("chapter 3 title = %q", chapters[3].Title)
	}
}

func TestSplitTextHeadingVariants(t *testing.T) {
	cases := []string{
		"第十二章 风波",
		"第一百零三回 大结局",
		"Chương 5 Gặp gỡ",
		"Hồi 9 Trùng phùng",
		"12. 夜谈",
		"3話 帰還",
	}
	for _, heading := range cases {
		content := "引子\n" + heading + "\n正文内容若干。"
		chapters, err := SplitText(content, Options{Mode: ModeHeading})
		if err != nil {
			t.Fatalf("heading %q: %v", heading, err)
		}
		last := chapters[len(chapters)-1]
		if last.Title != heading {
			t.Fatalf("heading %q not recognized, got %q", heading, last.Title)
		}
	}
}

func TestSplitTextAutoFallsBackToLength(t *testing.T) {
	// 没有任何标题行，应退回按长度切
	line := strings.Repeat("字", 50)
	content := strings.Repeat(line+"\n", 10)

	chapters, err := SplitText(content, Options{Mode: ModeAuto, MaxRunes: 120})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chapters) < 2 {
		t.Fatalf("expected length-based split, got %d chapters", len(chapters))
	}
	if chapters[0].Title != "Phần 1" || chapters[1].Title != "Phần 2" {
		t.Fatalf("unexpected titles: %q %q", chapters[0].Title, chapters[1].Title)
	}
}

func TestSplitTextHeadingModeRequiresMatch(t *testing.T) {
	if _, err := SplitText("只有普通文本，没有标题。", Options{Mode: ModeHeading}); err == nil {
		t.Fatal("expected error when no heading matches")
	}
}

func TestSplitTextEmpty(t *testing.T) {
	if _, err := SplitText("   ", Options{}); err == nil {
		t.Fatal("expected error for empty content")
	}
}

func TestNaturalLess(t *testing.T) {
	ordered := []struct {
		a, b string
	}{
		{"chapter_2.txt", "chapter_10.txt"},
		{"1.txt", "2.txt"},
		{"ch9part2.txt", "ch10part1.txt"},
		{"a.txt", "b.txt"},
	}
	for _, c := range ordered {
		if !naturalLess(c.a, c.b) {
			t.Fatalf("expected %q < %q", c.a, c.b)
		}
		if naturalLess(c.b, c.a) {
			t.Fatalf("expected %q >= %q", c.b, c.a)
		}
	}
}
