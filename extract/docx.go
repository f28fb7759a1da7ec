package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// docxDocumentPath is the conventional location of the document body
// inside a .docx package.
const docxDocumentPath = "word/document.xml"

// wtTag matches <w:t>text</w:t> including variants carrying attributes,
// e.g. <w:t xml:space="preserve">.
var wtTag = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)

// xmlEntityReplacer undoes the entity escaping of text nodes.
var xmlEntityReplacer = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&apos;", "'",
)

// extractDOCX extracts text from .docx bytes. A .docx file is a zip
// holding OOXML; the visible text lives in <w:t> nodes of the document
// body. Reading the text nodes directly keeps content extractable
// regardless of paragraph or run attributes.
func extractDOCX(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open docx: not a zip: %w", err)
	}

	var docXML []byte
	for _, f := range zr.File {
		if f.Name != docxDocumentPath {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("open docx body: %w", err)
		}
		docXML, err = io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("read docx body: %w", err)
		}
		break
	}
	if docXML == nil {
		return "", fmt.Errorf("docx body %s not found", docxDocumentPath)
	}

	parts := wtTag.FindAllStringSubmatch(string(docXML), -1)
	var b strings.Builder
	for i, p := range parts {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(xmlEntityReplacer.Replace(p[1]))
	}
	return strings.TrimSpace(b.String()), nil
}
