package ingest

import (
	"fmt"

	"github.com/h2non/filetype"

	"github.com/joseph-ayodele/contract-auditor/constants"
)

// Sniff classifies a document by declared media type first and filename
// extension second. It is total: anything unrecognised is plain text.
func Sniff(mediaType, filename string) constants.Format {
	mt := constants.BaseMediaType(mediaType)
	ext := constants.ExtOf(filename)

	if mt == constants.MediaTypePDF || ext == "pdf" {
		return constants.FormatPDF
	}
	if mt == constants.MediaTypeDOCX || ext == "docx" {
		return constants.FormatDOCX
	}
	return constants.FormatPlain
}

// ContentMismatch inspects the magic bytes of data and describes any
// disagreement with the sniffed format. It returns "" when the content is
// consistent or unrecognised. The result is diagnostic only.
func ContentMismatch(format constants.Format, data []byte) string {
	if len(data) == 0 {
		return ""
	}
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown {
		return ""
	}

	switch format {
	case constants.FormatPDF:
		if kind.Extension != "pdf" {
			return fmt.Sprintf("declared PDF but content looks like %s", kind.MIME.Value)
		}
	case constants.FormatDOCX:
		if kind.Extension != "docx" && kind.Extension != "zip" {
			return fmt.Sprintf("declared DOCX but content looks like %s", kind.MIME.Value)
		}
	default:
		return fmt.Sprintf("treated as plain text but content looks like %s", kind.MIME.Value)
	}
	return ""
}
