package render

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

var (
	blankLinesRegex = regexp.MustCompile(`\n{2,}`)
	spaceRunRegex   = regexp.MustCompile(`\s{2,}`)
)

// CleanContent normalizes model-produced HTML: escaped newlines and quotes
// become literal, stray backslashes are dropped, and runs of blank lines and
// whitespace are collapsed.
func CleanContent(content string) string {
	s := strings.ReplaceAll(content, `\n`, "\n")
	s = strings.ReplaceAll(s, `\"`, `"`)
	s = strings.ReplaceAll(s, `\`, "")
	s = blankLinesRegex.ReplaceAllString(s, "\n")
	s = spaceRunRegex.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// SourceSection is the attributed link block that closes every generated article.
func SourceSection(url string) string {
	u := html.EscapeString(url)
	return fmt.Sprintf(`<h2>Source</h2><p><a href="%s" target="_blank" rel="noopener noreferrer">%s</a></p>`, u, u)
}

// HasLink reports whether the fragment contains an anchor whose href is exactly url.
// The stored permalink must match byte for byte, since duplicate lookups search for it.
func HasLink(fragment, url string) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.Contains(fragment, url)
	}
	found := false
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if href, _ := s.Attr("href"); href == url {
			found = true
			return false
		}
		return true
	})
	return found
}

// EnsureSourceLink appends the source section when the model left it out.
func EnsureSourceLink(fragment, url string) string {
	if url == "" || HasLink(fragment, url) {
		return fragment
	}
	return strings.TrimSpace(fragment) + "\n" + SourceSection(url)
}

// Excerpt returns up to n characters of the fragment's visible text.
func Excerpt(fragment string, n int) string {
	text := fragment
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment)); err == nil {
		var b strings.Builder
		doc.Find("h1, h2, h3, p, li").Each(func(_ int, s *goquery.Selection) {
			b.WriteString(strings.TrimSpace(s.Text()))
			b.WriteString(" ")
		})
		if b.Len() > 0 {
			text = b.String()
		} else {
			text = doc.Text()
		}
	}
	text = strings.TrimSpace(spaceRunRegex.ReplaceAllString(text, " "))
	if n <= 0 || utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	cut := strings.TrimSpace(string(runes[:n]))
	if i := strings.LastIndex(cut, " "); i > n/2 {
		cut = cut[:i]
	}
	return cut + "..."
}

// Sanitizer strips anything from article HTML that the public site should not render.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer builds the article policy: user-generated-content tags, with
// absolute links opened in a new tab and no referrer.
func NewSanitizer() *Sanitizer {
	policy := bluemonday.UGCPolicy()
	policy.AddTargetBlankToFullyQualifiedLinks(true)
	policy.RequireNoReferrerOnLinks(true)
	return &Sanitizer{policy: policy}
}

// Sanitize cleans a fragment. Empty input stays empty.
func (s *Sanitizer) Sanitize(fragment string) string {
	if fragment == "" {
		return ""
	}
	return strings.TrimSpace(s.policy.Sanitize(fragment))
}
