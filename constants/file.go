package constants

import (
	"path/filepath"
	"strings"
)

// Format is the document format a blob is routed to for text extraction.
type Format string

const (
	FormatPDF   Format = "PDF"
	FormatDOCX  Format = "DOCX"
	FormatPlain Format = "PLAIN"
)

// Media types recognised by the sniffer.
const (
	MediaTypePDF  = "application/pdf"
	MediaTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// AllowedExtensions holds the default allowed file extensions for inbox ingestion.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"docx": {},
	"txt":  {},
	"md":   {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// ExtOf returns the normalized extension of a filename, or "" when it has none.
func ExtOf(filename string) string {
	return NormalizeExt(filepath.Ext(filename))
}

// BaseMediaType strips parameters such as "; charset=utf-8" and lowercases.
func BaseMediaType(mediaType string) string {
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = mediaType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}
