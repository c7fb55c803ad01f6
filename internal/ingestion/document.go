package ingestion

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/jonathan/career-compass/internal/llm"
	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

// ErrUnsupportedType is returned by ExtractText for documents it cannot read as text.
var ErrUnsupportedType = errors.New("unsupported document type")

// minExtractedText is the length below which extracted text is treated as missing,
// as with scanned PDFs that carry only images.
const minExtractedText = 40

// ExtractText returns the plain text of a text, PDF or DOCX document.
func ExtractText(mime string, data []byte) (string, error) {
	switch mime {
	case MIMEText, "text/markdown":
		return CleanText(string(data)), nil
	case MIMEPDF:
		text, err := extractPDFText(bytes.NewReader(data))
		if err != nil {
			return "", err
		}
		return CleanText(text), nil
	case MIMEDocx:
		text, err := extractDocxText(bytes.NewReader(data))
		if err != nil {
			return "", err
		}
		return CleanText(text), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mime)
	}
}

func extractPDFText(r *bytes.Reader) (text string, err error) {
	// The pdf reader panics on some malformed files.
	defer func() {
		if p := recover(); p != nil {
			text, err = "", fmt.Errorf("failed to read pdf: %v", p)
		}
	}()

	reader, err := pdf.NewReader(r, r.Size())
	if err != nil {
		return "", fmt.Errorf("failed to read pdf: %w", err)
	}
	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(pageText)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

var (
	docxParagraphEnd = regexp.MustCompile(`</w:p>`)
	xmlTag           = regexp.MustCompile(`<[^>]+>`)
)

func extractDocxText(r *bytes.Reader) (string, error) {
	doc, err := docx.ReadDocxFromMemory(r, r.Size())
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer func() { _ = doc.Close() }()

	// GetContent returns document.xml; keep paragraph breaks and drop the markup.
	content := doc.Editable().GetContent()
	content = docxParagraphEnd.ReplaceAllString(content, "\n")
	content = xmlTag.ReplaceAllString(content, "")
	return unescapeXML(content), nil
}

var xmlEntities = strings.NewReplacer("&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`, "&apos;", "'")

func unescapeXML(s string) string {
	return xmlEntities.Replace(s)
}

// Document is an uploaded file prepared for a prompt: either its extracted
// text, or the raw bytes to attach when no text could be read.
type Document struct {
	MIMEType   string
	Text       string
	Attachment *llm.Part
}

// Inline reports whether the document text can be placed in the prompt.
func (d *Document) Inline() bool {
	return d.Attachment == nil
}

// PrepareDocument decodes a data URI and extracts its text. Images, unknown types
// and documents without a text layer come back as attachments.
func PrepareDocument(dataURI string) (*Document, error) {
	uri, err := ParseDataURI(dataURI)
	if err != nil {
		return nil, err
	}
	if len(uri.Data) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidDataURI)
	}

	text, err := ExtractText(uri.MIMEType, uri.Data)
	if err == nil && len(text) >= minExtractedText {
		return &Document{MIMEType: uri.MIMEType, Text: text}, nil
	}
	if err != nil && !errors.Is(err, ErrUnsupportedType) && uri.MIMEType != MIMEPDF {
		return nil, err
	}
	return &Document{
		MIMEType:   uri.MIMEType,
		Attachment: &llm.Part{MIMEType: uri.MIMEType, Data: uri.Data},
	}, nil
}

// ReadAll reads r up to limit bytes and fails if more remain.
func ReadAll(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("document exceeds %d bytes", limit)
	}
	return data, nil
}
