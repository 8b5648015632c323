package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"github.com/joseph-ayodele/contract-auditor/constants"
)

const docxBodyPart = "word/document.xml"

var errBodyTooLarge = errors.New("document body exceeds size limit")

// Docx extracts raw text from the main document part. Paragraphs are
// separated by a blank line. Empty input yields empty text.
func (e *Extractor) Docx(ctx context.Context, data []byte) (ExtractedText, error) {
	res := ExtractedText{Format: constants.FormatDOCX}
	if len(data) == 0 {
		return res, nil
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return res, malformed(constants.FormatDOCX, "not a zip container", err)
	}

	var body *zip.File
	for _, f := range zr.File {
		if f.Name == docxBodyPart {
			body = f
			break
		}
	}
	if body == nil {
		return res, malformed(constants.FormatDOCX, "missing "+docxBodyPart, nil)
	}

	rc, err := body.Open()
	if err != nil {
		return res, malformed(constants.FormatDOCX, "cannot open "+docxBodyPart, err)
	}
	defer rc.Close()

	text, err := docxText(ctx, &capReader{r: rc, remaining: e.cfg.MaxDocxBodyBytes})
	if err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		return res, malformed(constants.FormatDOCX, "cannot read "+docxBodyPart, err)
	}
	res.Pages = 1
	res.Text = Normalize(text)
	return res, nil
}

// docxText walks WordprocessingML tokens: w:t runs carry text, w:tab is a
// tab, w:br and w:cr are line breaks and every w:p starts a new paragraph.
// Tab stop definitions (w:tabs/w:tab) are not content.
func docxText(ctx context.Context, r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var (
		b      strings.Builder
		inText bool
		inTabs bool
		n      int
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		if n++; n%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return "", err
			}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tabs":
				inTabs = true
			case "tab":
				if !inTabs {
					b.WriteByte('\t')
				}
			case "br", "cr":
				b.WriteByte('\n')
			case "p":
				if b.Len() > 0 {
					b.WriteString("\n\n")
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "tabs":
				inTabs = false
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return b.String(), nil
}

// capReader fails once more than remaining bytes have been read.
type capReader struct {
	r         io.Reader
	remaining int64
}

func (c *capReader) Read(p []byte) (int, error) {
	if c.remaining <= 0 {
		var one [1]byte
		if n, _ := c.r.Read(one[:]); n > 0 {
			return 0, errBodyTooLarge
		}
		return 0, io.EOF
	}
	if int64(len(p)) > c.remaining {
		p = p[:c.remaining]
	}
	n, err := c.r.Read(p)
	c.remaining -= int64(n)
	return n, err
}
