package translate

import (
	"strings"
	"testing"
)

func TestForeignRatio(t *testing.T) {
	if r := ForeignRatio("Toàn bộ là tiếng Việt."); r != 0 {
		t.Fatalf("expected 0 ratio for pure Vietnamese, got %f", r)
	}
	if r := ForeignRatio("全是中文内容"); r != 1 {
		t.Fatalf("expected ratio 1 for pure Chinese, got %f", r)
	}
	if r := ForeignRatio(""); r != 0 {
		t.Fatalf("expected 0 for empty text, got %f", r)
	}

	mixed := ForeignRatio("Trần Mặc nói: 你好")
	if mixed <= 0 || mixed >= 0.5 {
		t.Fatalf("unexpected mixed ratio: %f", mixed)
	}
}

func TestCleanupDropsResidualSourceLines(t *testing.T) {
	in := strings.Join([]string{
		"Đây là câu đã dịch xong.",
		"这一行是残留的中文",
		"Câu tiếp theo có tên 陈默 vẫn giữ được.",
	}, "\n")

	got := Cleanup(in)
	if strings.Contains(got, "这一行是残留的中文") {
		t.Fatalf("residual source line not dropped: %q", got)
	}
	if !strings.Contains(got, "陈默 vẫn giữ được") {
		t.Fatalf("mixed line wrongly dropped: %q", got)
	}
}

func TestCleanupDropsPreambleOnlyNearEdges(t *testing.T) {
	lines := []string{"Đây là bản dịch: mời đọc."}
	for i := 0; i < 10; i++ {
		lines = append(lines, "Nội dung chương rất dài dòng số "+string(rune('a'+i))+".")
	}
	in := strings.Join(lines, "\n")

	got := Cleanup(in)
	if strings.Contains(got, "Đây là bản dịch") {
		t.Fatalf("preamble at start not dropped: %q", got)
	}
	if !strings.Contains(got, "dòng số a") {
		t.Fatalf("body line wrongly dropped: %q", got)
	}
}

func TestCleanupDropsJunkAndCollapsesBlanks(t *testing.T) {
	in := "Dòng một.\n\n\n\nDòng hai đọc tại 笔趣阁 nhé.\n\nDòng ba."
	got := Cleanup(in)

	if strings.Contains(got, "笔趣阁") {
		t.Fatalf("junk line not dropped: %q", got)
	}
	if strings.Contains(got, "\n\n\n") {
		t.Fatalf("blank lines not collapsed: %q", got)
	}
}
