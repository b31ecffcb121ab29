package llm

import (
	"regexp"
	"strings"
)

// RepairStage is one named text fix applied before a parse retry. Stages
// run cumulatively: each sees the output of the previous one.
type RepairStage struct {
	Name  string
	Apply func(string) string
}

var (
	trailingCommaRegex = regexp.MustCompile(`,\s*([\]}])`)
	controlWSRegex     = regexp.MustCompile(`[\n\r\t]`)
	quoteCommaRegex    = regexp.MustCompile(`"\s*,\s*"`)
)

// DefaultRepairs is the repair chain, in application order.
var DefaultRepairs = []RepairStage{
	{Name: "trailing-commas", Apply: StripTrailingCommas},
	{Name: "control-whitespace", Apply: FlattenControlWhitespace},
	{Name: "quote-commas", Apply: NormalizeQuoteCommas},
	{Name: "unescape-quotes", Apply: UnescapeQuotes},
	{Name: "unescape-backslashes", Apply: UnescapeBackslashes},
}

// StripTrailingCommas drops commas that sit right before a closing bracket or brace.
func StripTrailingCommas(s string) string {
	return trailingCommaRegex.ReplaceAllString(s, "$1")
}

// FlattenControlWhitespace turns raw newlines and tabs into spaces.
func FlattenControlWhitespace(s string) string {
	return controlWSRegex.ReplaceAllString(s, " ")
}

// NormalizeQuoteCommas tightens `" , "` between string values.
func NormalizeQuoteCommas(s string) string {
	return quoteCommaRegex.ReplaceAllString(s, `","`)
}

// UnescapeQuotes turns \" into ".
func UnescapeQuotes(s string) string {
	return strings.ReplaceAll(s, `\"`, `"`)
}

// UnescapeBackslashes turns \\ into \.
func UnescapeBackslashes(s string) string {
	return strings.ReplaceAll(s, `\\`, `\`)
}
