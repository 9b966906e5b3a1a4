package rag

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Mime types accepted for upload.
const (
	MimeText = "text/plain"
	MimePDF  = "application/pdf"
	MimeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// UnsupportedFormatError reports an upload mime type the extractor does not
// handle. It blocks that file's ingestion only.
type UnsupportedFormatError struct {
	MimeType string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file type: %s", e.MimeType)
}

// ExtractionError reports that both primary and fallback extraction failed
// for a file. Sibling files in the same batch proceed independently.
type ExtractionError struct {
	Filename string
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("failed to extract text from %s: %v", e.Filename, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

var (
	printableRuns = regexp.MustCompile(`[a-zA-Z0-9\s.,!?;:'"()-]+`)
	docxTextRuns  = regexp.MustCompile(`<w:t[^>]*>([^<]+)</w:t>`)
	xmlTags       = regexp.MustCompile(`<[^>]+>`)
	whitespace    = regexp.MustCompile(`\s+`)
)

// ExtractText converts an uploaded file's raw bytes into plain text. PDF and
// DOCX get structured extraction first and a byte-scan fallback when that
// fails; plain text is decoded directly.
func ExtractText(data []byte, mimeType, filename string) (string, error) {
	switch mimeType {
	case MimeText:
		return string(data), nil
	case MimePDF:
		text, err := extractPDF(data)
		if err != nil || strings.TrimSpace(text) == "" {
			text = extractPrintableRuns(data)
			if text == "" {
				if err == nil {
					err = errors.New("no text extracted from PDF")
				}
				return "", &ExtractionError{Filename: filename, Err: err}
			}
		}
		return text, nil
	case MimeDocx:
		text, err := extractDocx(data)
		if err != nil || strings.TrimSpace(text) == "" {
			text = extractDocxFallback(data)
			if text == "" {
				if err == nil {
					err = errors.New("no text extracted from document")
				}
				return "", &ExtractionError{Filename: filename, Err: err}
			}
		}
		return text, nil
	default:
		return "", &UnsupportedFormatError{MimeType: mimeType}
	}
}

// extractPDF reads per-page plain text, skipping pages the parser cannot
// handle. The pdf library panics on some malformed inputs, so the panic is
// converted into an error and the caller falls back to a byte scan.
func extractPDF(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parse panic: %v", r)
		}
	}()
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	var builder strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			// Skip problematic pages instead of failing entirely.
			continue
		}
		builder.WriteString(pageText)
		builder.WriteString("\n")
	}
	return builder.String(), nil
}

// extractPrintableRuns scans raw bytes for runs of printable ASCII and
// punctuation, joining them with collapsed whitespace.
func extractPrintableRuns(data []byte) string {
	matches := printableRuns.FindAllString(string(data), -1)
	if len(matches) == 0 {
		return ""
	}
	joined := strings.Join(matches, " ")
	return strings.TrimSpace(whitespace.ReplaceAllString(joined, " "))
}

// extractDocx unzips the OOXML package and collects the text runs of
// word/document.xml.
func extractDocx(data []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("read docx document: %w", err)
		}
		defer rc.Close()
		return collectTextRuns(rc)
	}
	return "", errors.New("docx has no word/document.xml")
}

// collectTextRuns walks the document XML, keeping <w:t> contents and
// separating paragraphs with spaces.
func collectTextRuns(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)
	var builder strings.Builder
	inTextRun := false
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse docx xml: %w", err)
		}
		switch t := token.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inTextRun = true
			}
		case xml.EndElement:
			if t.Name.Local == "t" {
				inTextRun = false
			}
			if t.Name.Local == "p" {
				builder.WriteString(" ")
			}
		case xml.CharData:
			if inTextRun {
				builder.Write(t)
			}
		}
	}
	return strings.TrimSpace(whitespace.ReplaceAllString(builder.String(), " ")), nil
}

// extractDocxFallback regex-scans the raw bytes for inline text-run markup
// and strips the tags.
func extractDocxFallback(data []byte) string {
	matches := docxTextRuns.FindAllString(string(data), -1)
	if len(matches) == 0 {
		return ""
	}
	parts := make([]string, 0, len(matches))
	for _, match := range matches {
		parts = append(parts, xmlTags.ReplaceAllString(match, ""))
	}
	return strings.Join(parts, " ")
}
