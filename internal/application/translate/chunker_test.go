package translate

import (
	"strings"
	"testing"
)

func TestSplitChunksShortTextSingleChunk(t *testing.T) {
	chunks := SplitChunks("只有一段。", 6000)
	if len(chunks) != 1 || chunks[0] != "只有一段。" {
		t.Fatalf("unexpected chunks: %v", chunks)
	}
}

func TestSplitChunksEmpty(t *testing.T) {
	if chunks := SplitChunks("   \n  ", 6000); chunks != nil {
		t.Fatalf("expected nil for blank input, got %v", chunks)
	}
}

func TestSplitChunksRespectsCeilingAndParagraphs(t *testing.T) {
	para := strings.Repeat("句", 40)
	var lines []string
	for i := 0; i < 30; i++ {
		lines = append(lines, para)
	}
	text := strings.Join(lines, "\n")

	chunks := SplitChunks(text, 100)
	for i, c := range chunks {
		if len([]rune(c)) > 100 {
			t.Fatalf("chunk %d exceeds ceiling: %d runes", i, len([]rune(c)))
		}
		// 不允许把段落从中间切开
		for _, l := range strings.Split(c, "\n") {
			if l != para {
				t.Fatalf("chunk %d contains split paragraph: %q", i, l)
			}
		}
	}
}

func TestSplitChunksReconstruction(t *testing.T) {
	text := "第一段内容。\n第二段内容稍微长一点。\n第三段。\n第四段收尾。"
	chunks := SplitChunks(text, 15)

	joined := strings.Join(chunks, "\n")
	if joined != text {
		t.Fatalf("reconstruction mismatch:\nwant %q\ngot  %q", text, joined)
	}
}

func TestSplitChunksOversizedParagraphOwnChunk(t *testing.T) {
	huge := strings.Repeat("长", 300)
	text := "短段。\n" + huge + "\n结尾。"

	chunks := SplitChunks(text, 100)
	found := false
	for _, c := range chunks {
		if c == huge {
			found = true
		}
	}
	if !found {
		t.Fatalf("oversized paragraph should be its own chunk, got %d chunks", len(chunks))
	}
}
