package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

const (
	docxDocumentPath    = "word/document.xml"
	contentTypesPath    = "[Content_Types].xml"
	docxMainContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
)

// wtTag matches <w:t>text</w:t> with any attributes.
var wtTag = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)

// wpEnd marks paragraph boundaries so that line structure survives into the parser prompt.
var wpEnd = regexp.MustCompile(`</w:p>`)

// mainPartRe finds the main document part in [Content_Types].xml in either attribute order.
var mainPartRe = []*regexp.Regexp{
	regexp.MustCompile(`<Override[^>]+PartName="([^"]+)"[^>]+ContentType="` + regexp.QuoteMeta(docxMainContentType) + `"`),
	regexp.MustCompile(`<Override[^>]+ContentType="` + regexp.QuoteMeta(docxMainContentType) + `"[^>]+PartName="([^"]+)"`),
}

// extractDOCX reads the document through the docx package. Packages it rejects (no
// relationships part, or a main part declared elsewhere in [Content_Types].xml) are read
// directly from the zip.
func extractDOCX(content []byte) (string, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(content), int64(len(content)))
	if err == nil {
		defer r.Close()
		if text := docxXMLText(r.Editable().GetContent()); text != "" {
			return text, nil
		}
	}

	zr, zerr := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if zerr != nil {
		return "", fmt.Errorf("extract DOCX: not a zip: %w", zerr)
	}
	path := mainDocumentPath(zr)
	if path == "" {
		path = docxDocumentPath
	}
	xml, err := readZipFile(zr, path)
	if err != nil {
		return "", fmt.Errorf("extract DOCX: %w", err)
	}
	return docxXMLText(string(xml)), nil
}

// docxXMLText joins w:t runs with spaces and paragraphs with newlines.
func docxXMLText(xml string) string {
	var lines []string
	for _, para := range wpEnd.Split(xml, -1) {
		var b strings.Builder
		for _, m := range wtTag.FindAllStringSubmatch(para, -1) {
			t := strings.TrimSpace(m[1])
			if t == "" {
				continue
			}
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(t)
		}
		if b.Len() > 0 {
			lines = append(lines, b.String())
		}
	}
	return strings.Join(lines, "\n")
}

func mainDocumentPath(zr *zip.Reader) string {
	ct, err := readZipFile(zr, contentTypesPath)
	if err != nil {
		return ""
	}
	for _, re := range mainPartRe {
		if m := re.FindSubmatch(ct); len(m) > 1 {
			return strings.TrimPrefix(string(m[1]), "/")
		}
	}
	return ""
}

// readZipFile returns the contents of the named zip member.
func readZipFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(rc); err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("%s not found", name)
}
