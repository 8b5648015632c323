package extract

import (
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/joseph-ayodele/contract-auditor/constants"
)

// Plain decodes data as UTF-8 (honouring a UTF-8 or UTF-16 byte order mark),
// replacing invalid sequences with U+FFFD. It never fails.
func (e *Extractor) Plain(data []byte) ExtractedText {
	res := ExtractedText{Format: constants.FormatPlain, Pages: 1}
	if len(data) == 0 {
		return res
	}
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(decoder, data)
	if err != nil {
		e.logger.Warn("extract.plain.decode_fallback", "error", err)
		out = []byte(strings.ToValidUTF8(string(data), "�"))
	}
	res.Text = Normalize(string(out))
	return res
}
