// Package redact masks common personal identifiers in contract text before it
// leaves the process.
//
// Redaction is best-effort, not exhaustive. It catches five structured
// patterns (email addresses, North-American style phone numbers, dollar
// amounts, numeric dates and simple street addresses). Names, foreign formats,
// spelled-out numbers and anything else a regular expression cannot see pass
// through untouched.
package redact

import (
	"regexp"
)

// Kind identifies what a rule redacts.
type Kind string

const (
	KindEmail   Kind = "EMAIL"
	KindPhone   Kind = "PHONE"
	KindAmount  Kind = "CURRENCY_AMOUNT"
	KindDate    Kind = "DATE"
	KindAddress Kind = "STREET_ADDRESS"
)

// Replacement tokens. None of them can be matched by any default rule, so
// redacting already-redacted text is a no-op.
const (
	TokenEmail   = "[REDACTED_EMAIL]"
	TokenPhone   = "[REDACTED_PHONE]"
	TokenAmount  = "[REDACTED_AMOUNT]"
	TokenDate    = "[REDACTED_DATE]"
	TokenAddress = "[REDACTED_ADDRESS]"
)

// Rule replaces every non-overlapping match of Pattern with Replacement.
type Rule struct {
	Kind        Kind
	Pattern     *regexp.Regexp
	Replacement string
}

var defaultRules = []Rule{
	{KindEmail, regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`), TokenEmail},
	{KindPhone, regexp.MustCompile(`(\+\d{1,2}\s?)?\(?\d{3}\)?[\s.-]?\d{3}[\s.-]?\d{4}`), TokenPhone},
	{KindAmount, regexp.MustCompile(`\$\s?(\d{1,3}(,\d{3})+|\d+)(\.\d{2})?`), TokenAmount},
	{KindDate, regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b`), TokenDate},
	{KindAddress, regexp.MustCompile(`(?i)\d+\s[A-Za-z]+\s(St|Ave|Blvd|Road|Ln|Dr|Drive|Street|Avenue)\b`), TokenAddress},
}

// DefaultRules returns the standard rules in application order. Order matters:
// emails go before phones so digits in a mailbox name stay part of the email,
// phones go before dates and amounts.
func DefaultRules() []Rule {
	out := make([]Rule, len(defaultRules))
	copy(out, defaultRules)
	return out
}

// Result is redacted text plus how many substitutions each rule made.
type Result struct {
	Text   string
	Counts map[Kind]int
}

// Total returns the number of substitutions across all rules.
func (r Result) Total() int {
	n := 0
	for _, c := range r.Counts {
		n += c
	}
	return n
}

// Anonymizer applies an ordered rule list. It holds no mutable state and is
// safe for concurrent use.
type Anonymizer struct {
	rules []Rule
}

// New builds an Anonymizer over rules, or over DefaultRules when none are given.
func New(rules ...Rule) *Anonymizer {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Anonymizer{rules: rules}
}

// Redact runs every rule in order over the output of the previous one.
func (a *Anonymizer) Redact(text string) Result {
	res := Result{Text: text, Counts: make(map[Kind]int, len(a.rules))}
	for _, rule := range a.rules {
		n := 0
		res.Text = rule.Pattern.ReplaceAllStringFunc(res.Text, func(string) string {
			n++
			return rule.Replacement
		})
		if n > 0 {
			res.Counts[rule.Kind] += n
		}
	}
	return res
}

// Anonymize is Redact without the counts.
func (a *Anonymizer) Anonymize(text string) string {
	return a.Redact(text).Text
}

var std = New()

// Anonymize redacts text with the default rules.
func Anonymize(text string) string {
	return std.Anonymize(text)
}
