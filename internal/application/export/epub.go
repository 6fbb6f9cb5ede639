package export

import (
	"archive/zip"
	"fmt"
	"html"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"novel-trans-api/internal/domain/entity"
	apperrors "novel-trans-api/pkg/errors"
)

const epubCSS = `body { font-family: serif; line-height: 1.6; margin: 1em; }
h1 { text-align: center; font-size: 1.3em; margin: 1.5em 0; }
p { text-indent: 2em; margin: 0.4em 0; }
`

// BuildEpub 把已完成章节打包为 EPUB 3 写入 w
func BuildEpub(w io.Writer, project *entity.Project, chapters []*entity.Chapter) error {
	done := completedChapters(chapters)
	if len(done) == 0 {
		return apperrors.New(apperrors.CodeValidationFailed, "no completed chapters to export")
	}

	zw := zip.NewWriter(w)

	// mimetype 必须是第一个条目且不压缩
	mimeWriter, err := zw.CreateHeader(&zip.FileHeader{
		Name:   "mimetype",
		Method: zip.Store,
	})
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeStorageError, "failed to create mimetype entry")
	}
	if _, err := mimeWriter.Write([]byte("application/epub+zip")); err != nil {
		return apperrors.Wrap(err, apperrors.CodeStorageError, "failed to write mimetype")
	}

	files := []struct {
		name    string
		content string
	}{
		{"META-INF/container.xml", containerXML()},
		{"OEBPS/content.opf", packageOPF(project, done)},
		{"OEBPS/nav.xhtml", navXHTML(project, done)},
		{"OEBPS/Styles/style.css", epubCSS},
	}
	for i, c := range done {
		files = append(files, struct {
			name    string
			content string
		}{
			name:    fmt.Sprintf("OEBPS/Text/ch%d.xhtml", i+1),
			content: chapterXHTML(c),
		})
	}

	for _, f := range files {
		fw, err := zw.Create(f.name)
		if err != nil {
			return apperrors.Wrap(err, apperrors.CodeStorageError, fmt.Sprintf("failed to create %s", f.name))
		}
		if _, err := fw.Write([]byte(f.content)); err != nil {
			return apperrors.Wrap(err, apperrors.CodeStorageError, fmt.Sprintf("failed to write %s", f.name))
		}
	}

	if err := zw.Close(); err != nil {
		return apperrors.Wrap(err, apperrors.CodeStorageError, "failed to finalize epub")
	}
	return nil
}

func containerXML() string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>
`
}

func packageOPF(project *entity.Project, chapters []*entity.Chapter) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0" unique-identifier="book-id">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
`)
	fmt.Fprintf(&b, "    <dc:identifier id=\"book-id\">urn:uuid:%s</dc:identifier>\n", uuid.NewString())
	fmt.Fprintf(&b, "    <dc:title>%s</dc:title>\n", html.EscapeString(project.Title))
	if project.Author != "" {
		fmt.Fprintf(&b, "    <dc:creator>%s</dc:creator>\n", html.EscapeString(project.Author))
	}
	b.WriteString("    <dc:language>vi</dc:language>\n")
	fmt.Fprintf(&b, "    <meta property=\"dcterms:modified\">%s</meta>\n", time.Now().UTC().Format("2006-01-02T15:04:05Z"))
	b.WriteString(`  </metadata>
  <manifest>
    <item id="nav" href="nav.xhtml" media-type="application/xhtml+xml" properties="nav"/>
    <item id="css" href="Styles/style.css" media-type="text/css"/>
`)
	for i := range chapters {
		fmt.Fprintf(&b, "    <item id=\"ch%d\" href=\"Text/ch%d.xhtml\" media-type=\"application/xhtml+xml\"/>\n", i+1, i+1)
	}
	b.WriteString("  </manifest>\n  <spine>\n")
	for i := range chapters {
		fmt.Fprintf(&b, "    <itemref idref=\"ch%d\"/>\n", i+1)
	}
	b.WriteString("  </spine>\n</package>\n")
	return b.String()
}

func navXHTML(project *entity.Project, chapters []*entity.Chapter) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops">
<head><title>`)
	b.WriteString(html.EscapeString(project.Title))
	b.WriteString(`</title></head>
<body>
  <nav epub:type="toc">
    <h1>Mục lục</h1>
    <ol>
`)
	for i, c := range chapters {
		fmt.Fprintf(&b, "      <li><a href=\"Text/ch%d.xhtml\">%s</a></li>\n", i+1, html.EscapeString(chapterTitle(c)))
	}
	b.WriteString(`    </ol>
  </nav>
</body>
</html>
`)
	return b.String()
}

func chapterXHTML(c *entity.Chapter) string {
	var b strings.Builder
	title := html.EscapeString(chapterTitle(c))
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
  <title>`)
	b.WriteString(title)
	b.WriteString(`</title>
  <link rel="stylesheet" type="text/css" href="../Styles/style.css"/>
</head>
<body>
`)
	fmt.Fprintf(&b, "  <h1>%s</h1>\n", title)
	for _, line := range strings.Split(c.TranslatedContent, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fmt.Fprintf(&b, "  <p>%s</p>\n", html.EscapeString(line))
	}
	b.WriteString("</body>\n</html>\n")
	return b.String()
}
