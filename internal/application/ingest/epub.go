package ingest

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"

	apperrors "novel-trans-api/pkg/errors"
)

// container.xml 指向 OPF 文件
type epubContainer struct {
	Rootfiles []struct {
		FullPath string `xml:"full-path,attr"`
	} `xml:"rootfiles>rootfile"`
}

// OPF 清单与阅读顺序
type epubPackage struct {
	Manifest struct {
		Items []struct {
			ID   string `xml:"id,attr"`
			Href string `xml:"href,attr"`
		} `xml:"item"`
	} `xml:"manifest"`
	Spine struct {
		ItemRefs []struct {
			IDRef string `xml:"idref,attr"`
		} `xml:"itemref"`
	} `xml:"spine"`
}

// ImportEpub 从 EPUB 导入章节，按 spine 顺序读取正文文档。
// 章节名优先取文档内的 h1/h2/h3 标题，缺失时用 title 标签。
func ImportEpub(r io.ReaderAt, size int64) ([]RawChapter, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInvalidParam, "invalid epub file")
	}

	entries := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		entries[f.Name] = f
	}

	containerData, err := readZipEntry(entries, "META-INF/container.xml")
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeValidationFailed, "epub missing container.xml")
	}
	var container epubContainer
	if err := xml.Unmarshal(containerData, &container); err != nil || len(container.Rootfiles) == 0 {
		return nil, apperrors.New(apperrors.CodeValidationFailed, "epub container.xml is malformed")
	}

	opfPath := container.Rootfiles[0].FullPath
	opfData, err := readZipEntry(entries, opfPath)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeValidationFailed, "epub missing package document")
	}
	var pkg epubPackage
	if err := xml.Unmarshal(opfData, &pkg); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeValidationFailed, "epub package document is malformed")
	}

	hrefByID := make(map[string]string, len(pkg.Manifest.Items))
	for _, item := range pkg.Manifest.Items {
		hrefByID[item.ID] = item.Href
	}

	opfDir := path.Dir(opfPath)
	var chapters []RawChapter
	for i, ref := range pkg.Spine.ItemRefs {
		href, ok := hrefByID[ref.IDRef]
		if !ok {
			continue
		}
		docPath := href
		if opfDir != "." {
			docPath = path.Join(opfDir, href)
		}
		data, err := readZipEntry(entries, docPath)
		if err != nil {
			continue
		}

		title, content := parseEpubDocument(data)
		if len([]rune(content)) < 20 {
			// 封面页、目录页之类的跳过
			continue
		}
		if title == "" {
			title = chapterPartTitle(i + 1)
		}
		chapters = append(chapters, RawChapter{Title: title, Content: content})
	}

	if len(chapters) == 0 {
		return nil, apperrors.New(apperrors.CodeValidationFailed, "epub contains no readable chapters")
	}
	return chapters, nil
}

func readZipEntry(entries map[string]*zip.File, name string) ([]byte, error) {
	f, ok := entries[name]
	if !ok {
		return nil, io.ErrUnexpectedEOF
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// parseEpubDocument 提取单个 xhtml 文档的标题与正文
func parseEpubDocument(data []byte) (string, string) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", ""
	}

	title := strings.TrimSpace(doc.Find("h1, h2, h3").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	var lines []string
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			lines = append(lines, text)
		}
	})
	if len(lines) == 0 {
		// 没有段落标签时退回整页文本
		for _, l := range strings.Split(doc.Find("body").Text(), "\n") {
			if text := strings.TrimSpace(l); text != "" {
				lines = append(lines, text)
			}
		}
	}

	content := strings.Join(lines, "\n")
	// 标题行混进正文时去掉
	if title != "" && len(lines) > 0 && lines[0] == title {
		content = strings.Join(lines[1:], "\n")
	}
	return title, content
}
