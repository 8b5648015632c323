package extract

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/contract-auditor/constants"
	"github.com/joseph-ayodele/contract-auditor/internal/common"
)

func newTestExtractor() *Extractor {
	return NewExtractor(Config{}, nil)
}

func TestPDF_TextInPageOrder(t *testing.T) {
	data := buildPDF(t, textOp("First page terms"), textOp("Second page terms"))

	res, err := newTestExtractor().PDF(context.Background(), data)
	require.NoError(t, err)

	assert.Equal(t, constants.FormatPDF, res.Format)
	assert.Equal(t, 2, res.Pages)
	first := strings.Index(res.Text, "First page terms")
	second := strings.Index(res.Text, "Second page terms")
	require.GreaterOrEqual(t, first, 0)
	require.GreaterOrEqual(t, second, 0)
	assert.Less(t, first, second)
	assert.NotContains(t, res.Text, "\r")
}

func TestPDF_ImageOnly(t *testing.T) {
	data := buildPDF(t, imageOnlyOp, imageOnlyOp)

	_, err := newTestExtractor().PDF(context.Background(), data)
	require.Error(t, err)
	assert.Equal(t, common.KindEmptyOrImageOnlyDocument, common.KindOf(err))
}

func TestPDF_Malformed(t *testing.T) {
	inputs := map[string][]byte{
		"empty":     nil,
		"not a pdf": []byte("this is a plain text file, not a pdf"),
		"truncated": buildPDF(t, textOp("cut off"))[:60],
		"garbage":   append([]byte("%PDF-1.7\n"), []byte(strings.Repeat("\x00\xff", 200))...),
	}
	for name, data := range inputs {
		t.Run(name, func(t *testing.T) {
			_, err := newTestExtractor().PDF(context.Background(), data)
			require.Error(t, err)
			assert.Equal(t, common.KindMalformedDocument, common.KindOf(err))
		})
	}
}

func TestPDF_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestExtractor().PDF(ctx, buildPDF(t, textOp("x")))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDocx_Paragraphs(t *testing.T) {
	body := `<w:p><w:r><w:t>Hello</w:t></w:r><w:r><w:tab/><w:t xml:space="preserve"> world</w:t></w:r></w:p>` +
		`<w:p/><w:p/>` +
		`<w:p><w:pPr><w:tabs><w:tab w:val="left" w:pos="720"/></w:tabs></w:pPr><w:r><w:t>Second</w:t><w:br/><w:t>line</w:t></w:r></w:p>`

	res, err := newTestExtractor().Docx(context.Background(), buildDocx(t, body))
	require.NoError(t, err)
	assert.Equal(t, constants.FormatDOCX, res.Format)
	assert.Equal(t, "Hello\t world\n\nSecond\nline", res.Text)
}

func TestDocx_EmptyInput(t *testing.T) {
	res, err := newTestExtractor().Docx(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, res.Text)
}

func TestDocx_Malformed(t *testing.T) {
	inputs := map[string][]byte{
		"not zip":      []byte("PK but not really"),
		"missing body": buildZip(t, map[string]string{"word/styles.xml": "<x/>"}),
		"bad xml":      buildZip(t, map[string]string{"word/document.xml": "<w:document><w:body>"}),
	}
	for name, data := range inputs {
		t.Run(name, func(t *testing.T) {
			_, err := newTestExtractor().Docx(context.Background(), data)
			require.Error(t, err)
			assert.Equal(t, common.KindMalformedDocument, common.KindOf(err))
		})
	}
}

func TestDocx_BodyLimit(t *testing.T) {
	body := `<w:p><w:r><w:t>` + strings.Repeat("a", 4096) + `</w:t></w:r></w:p>`
	x := NewExtractor(Config{MaxDocxBodyBytes: 1024}, nil)

	_, err := x.Docx(context.Background(), buildDocx(t, body))
	require.Error(t, err)
	assert.Equal(t, common.KindMalformedDocument, common.KindOf(err))
	assert.ErrorIs(t, err, errBodyTooLarge)
}

func TestPlain_NeverFails(t *testing.T) {
	x := newTestExtractor()

	assert.Equal(t, "", x.Plain(nil).Text)
	assert.Equal(t, "clause one\n\nclause two", x.Plain([]byte("\xef\xbb\xbfclause one\r\n\r\n\r\nclause two\r\n")).Text)

	bad := x.Plain([]byte("rent \xff\xfe due"))
	assert.Contains(t, bad.Text, "rent ")
	assert.Contains(t, bad.Text, "�")
	assert.Contains(t, bad.Text, " due")

	utf16 := x.Plain([]byte{0xFF, 0xFE, 'h', 0, 'i', 0})
	assert.Equal(t, "hi", utf16.Text)
}

func TestExtract_Dispatch(t *testing.T) {
	x := newTestExtractor()
	ctx := context.Background()

	res, err := x.Extract(ctx, DocumentBlob{Data: buildPDF(t, textOp("Lease")), MediaType: "application/pdf", Filename: "lease"})
	require.NoError(t, err)
	assert.Equal(t, constants.FormatPDF, res.Format)
	assert.Contains(t, res.Text, "Lease")

	res, err = x.Extract(ctx, DocumentBlob{Data: buildDocx(t, `<w:p><w:r><w:t>NDA</w:t></w:r></w:p>`), Filename: "nda.DOCX"})
	require.NoError(t, err)
	assert.Equal(t, constants.FormatDOCX, res.Format)
	assert.Equal(t, "NDA", res.Text)

	res, err = x.Extract(ctx, DocumentBlob{Data: []byte("  plain terms  "), MediaType: "text/plain"})
	require.NoError(t, err)
	assert.Equal(t, constants.FormatPlain, res.Format)
	assert.Equal(t, "plain terms", res.Text)
}

func TestExtract_MismatchWarning(t *testing.T) {
	pdf := buildPDF(t, textOp("Hidden pdf"))
	res, err := newTestExtractor().Extract(context.Background(), DocumentBlob{Data: pdf, Filename: "notes.txt"})
	require.NoError(t, err)
	assert.Equal(t, constants.FormatPlain, res.Format)
	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[0], "application/pdf")
}
