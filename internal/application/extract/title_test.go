package extract

import "testing"

func TestNormalizeTitle(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"第12章 风云突变", "Chương 12 风云突变"},
		{"第1章", "Chương 1"},
		{"第 3 章 夜雨", "Chương 3 夜雨"},
		{"第七章 归途", "Chương 7 归途"},
		{"第十章 决战", "Chương 10 决战"},
		// 十以外的汉字数字不做转换
		{"第一百章 新篇", "第一百章 新篇"},
		{"Chapter 7: The Road", "Chương 7: The Road"},
		{"chapter 12", "Chương 12"},
		{"尾声", "尾声"},
		{"  第2回 再会  ", "Chương 2 再会"},
	}

	for _, c := range cases {
		if got := NormalizeTitle(c.in); got != c.want {
			t.Fatalf("NormalizeTitle(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
