package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"regexp"
	"strings"
)

const odtContentPath = "content.xml"

// odtBlock matches paragraphs and headings; odtInline strips spans and other inline tags.
var (
	odtBlock  = regexp.MustCompile(`(?s)<text:(p|h)[^>]*>(.*?)</text:(p|h)>`)
	odtInline = regexp.MustCompile(`<[^>]+>`)
)

// extractODT extracts text from .odt bytes, one line per paragraph or heading in
// document order.
func extractODT(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("extract ODT: not a zip: %w", err)
	}
	xml, err := readZipFile(zr, odtContentPath)
	if err != nil {
		return "", fmt.Errorf("extract ODT: %w", err)
	}
	var lines []string
	for _, m := range odtBlock.FindAllSubmatch(xml, -1) {
		line := strings.TrimSpace(unescapeXML(odtInline.ReplaceAllString(string(m[2]), "")))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}

var xmlEntities = strings.NewReplacer("&lt;", "<", "&gt;", ">", "&quot;", `"`, "&apos;", "'", "&amp;", "&")

func unescapeXML(s string) string {
	return xmlEntities.Replace(s)
}
