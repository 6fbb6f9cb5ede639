package ingest

import (
	"archive/zip"
	"io"
	"path"
	"sort"
	"strings"
	"unicode"

	apperrors "novel-trans-api/pkg/errors"
)

// ImportZip 从 zip 包导入章节。
// 包内每个 .txt 文件按自然序排列后依次切分，无标题的文件整体作为一章，
// 章节名取文件名。
func ImportZip(r io.ReaderAt, size int64, opts Options) ([]RawChapter, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInvalidParam, "invalid zip archive")
	}

	var files []*zip.File
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name := strings.ToLower(f.Name)
		if strings.HasSuffix(name, ".txt") && !strings.HasPrefix(path.Base(name), ".") {
			files = append(files, f)
		}
	}
	if len(files) == 0 {
		return nil, apperrors.New(apperrors.CodeValidationFailed, "zip archive contains no txt files")
	}

	sort.Slice(files, func(i, j int) bool {
		return naturalLess(files[i].Name, files[j].Name)
	})

	var chapters []RawChapter
	for _, f := range files {
		rc, err := f.Open()
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeStorageError, "failed to open zip entry")
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeStorageError, "failed to read zip entry")
		}

		content := strings.TrimSpace(string(data))
		if content == "" {
			continue
		}

		split, err := SplitText(content, Options{Mode: ModeHeading, HeadingPattern: opts.HeadingPattern})
		if err == nil && len(split) > 1 {
			chapters = append(chapters, split...)
			continue
		}
		chapters = append(chapters, RawChapter{
			Title:   fileTitle(f.Name),
			Content: content,
		})
	}

	if len(chapters) == 0 {
		return nil, apperrors.New(apperrors.CodeValidationFailed, "zip archive contains no usable content")
	}
	return chapters, nil
}

// fileTitle 文件名去掉路径与扩展名作为章节名
func fileTitle(name string) string {
	base := path.Base(name)
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	return base
}

// naturalLess 自然序比较：文件名里的数字按数值比较，chapter_2 排在 chapter_10 前
func naturalLess(a, b string) bool {
	ra, rb := []rune(a), []rune(b)
	i, j := 0, 0
	for i < len(ra) && j < len(rb) {
		ca, cb := ra[i], rb[j]
		if unicode.IsDigit(ca) && unicode.IsDigit(cb) {
			// 取出完整数字段比较
			si := i
			for i < len(ra) && unicode.IsDigit(ra[i]) {
				i++
			}
			sj := j
			for j < len(rb) && unicode.IsDigit(rb[j]) {
				j++
			}
			na := strings.TrimLeft(string(ra[si:i]), "0")
			nb := strings.TrimLeft(string(rb[sj:j]), "0")
			if len(na) != len(nb) {
				return len(na) < len(nb)
			}
			if na != nb {
				return na < nb
			}
			continue
		}
		if ca != cb {
			return ca < cb
		}
		i++
		j++
	}
	return len(ra)-i < len(rb)-j
}
