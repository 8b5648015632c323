package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/joseph-ayodele/contract-auditor/constants"
	"github.com/joseph-ayodele/contract-auditor/internal/common"
)

// PDF extracts the text layer page by page. A document without a text layer
// (scanned images) yields EmptyOrImageOnlyDocument; bytes that do not parse
// as a PDF yield MalformedDocument.
func (e *Extractor) PDF(ctx context.Context, data []byte) (res ExtractedText, err error) {
	res.Format = constants.FormatPDF
	if len(data) == 0 {
		return res, malformed(constants.FormatPDF, "empty document", nil)
	}

	// ledongthuc/pdf panics on some corrupt object graphs.
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("extract.pdf.panic", "panic", r)
			res = ExtractedText{Format: constants.FormatPDF}
			err = malformed(constants.FormatPDF, "parser failure", fmt.Errorf("%v", r))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return res, malformed(constants.FormatPDF, "cannot open", err)
	}

	total := reader.NumPage()
	pages := total
	if e.cfg.MaxPages > 0 && pages > e.cfg.MaxPages {
		res.Warnings = append(res.Warnings, fmt.Sprintf("only the first %d of %d pages were read", e.cfg.MaxPages, total))
		pages = e.cfg.MaxPages
	}

	var b strings.Builder
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		text, perr := pageText(reader, i)
		if perr != nil {
			e.logger.Warn("extract.pdf.page_error", "page", i, "error", perr)
			res.Warnings = append(res.Warnings, fmt.Sprintf("page %d skipped: %v", i, perr))
			continue
		}
		if text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(text)
	}

	res.Pages = total
	res.Text = Normalize(b.String())
	if res.Text == "" {
		return res, common.NewAppError(common.KindEmptyOrImageOnlyDocument,
			fmt.Sprintf("no text layer found in %d page(s); scanned documents are not supported", total), nil)
	}
	return res, nil
}

func pageText(reader *pdf.Reader, i int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("page decode panic: %v", r)
		}
	}()
	page := reader.Page(i)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}
