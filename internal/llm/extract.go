package llm

import (
	"blogsmith/internal/core"
	"blogsmith/internal/render"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrNoJSON means the reply had no {...} span at all.
	ErrNoJSON = errors.New("no JSON object found in model response")
	// ErrUnparseable means neither parsing, repair nor field extraction worked.
	ErrUnparseable = errors.New("model response could not be parsed")
	// ErrMissingFields means a required field was absent or empty.
	ErrMissingFields = errors.New("generated content is missing required fields")
	// ErrLowConfidence means only pattern-based field extraction succeeded
	// and the policy does not accept it.
	ErrLowConfidence = errors.New("generated content only recovered by field extraction")
)

// StageStrict and StageFallback name the first and last extraction steps.
const (
	StageStrict   = "strict"
	StageFallback = "field-extraction"
)

var (
	fenceRegex      = regexp.MustCompile("```(?:json|JSON)?")
	objectSpanRegex = regexp.MustCompile(`\{[\s\S]*\}`)
)

// Policy decides what extraction results count as usable.
type Policy struct {
	// AcceptFallback lets pattern-extracted records through.
	AcceptFallback bool
	// Repairs overrides the repair chain. Nil means DefaultRepairs.
	Repairs []RepairStage
}

// Extraction is a usable article plus the step that produced it.
type Extraction struct {
	Article core.GeneratedArticle
	Stage   string
}

type payload struct {
	Title           string `json:"title"`
	MetaDescription string `json:"metaDescription"`
	Content         string `json:"content"`
}

// Extract pulls the article record out of free-form model output. It strips
// code fences, isolates the outermost object span, tries a strict parse, then
// re-parses after each repair stage, and finally falls back to per-field
// pattern extraction. Partial records are never returned.
func Extract(reply string, policy Policy) (*Extraction, error) {
	stripped := strings.TrimSpace(fenceRegex.ReplaceAllString(reply, ""))
	span := objectSpanRegex.FindString(stripped)
	if span == "" {
		return nil, ErrNoJSON
	}

	if p, err := parse(span); err == nil {
		return finish(p, StageStrict)
	}

	repairs := policy.Repairs
	if repairs == nil {
		repairs = DefaultRepairs
	}
	candidate := span
	for _, stage := range repairs {
		candidate = stage.Apply(candidate)
		if p, err := parse(candidate); err == nil {
			return finish(p, stage.Name)
		}
	}

	article := extractFields(span)
	if !article.Complete() {
		if article.Title == "" && article.MetaDescription == "" && article.Content == "" {
			return nil, ErrUnparseable
		}
		return nil, ErrMissingFields
	}
	if !policy.AcceptFallback {
		return nil, ErrLowConfidence
	}
	article.Fallback = true
	article.Content = render.CleanContent(article.Content)
	return &Extraction{Article: article, Stage: StageFallback}, nil
}

// parse only reports syntax and type errors. Field presence is checked by finish.
func parse(s string) (payload, error) {
	var p payload
	if err := json.Unmarshal([]byte(s), &p); err != nil {
		return payload{}, err
	}
	return p, nil
}

func finish(p payload, stage string) (*Extraction, error) {
	article := core.GeneratedArticle{
		Title:           strings.TrimSpace(p.Title),
		MetaDescription: strings.TrimSpace(p.MetaDescription),
		Content:         p.Content,
	}
	if !article.Complete() {
		return nil, fmt.Errorf("%w (parsed at stage %s)", ErrMissingFields, stage)
	}
	article.Content = render.CleanContent(article.Content)
	return &Extraction{Article: article, Stage: stage}, nil
}

func fieldRegex(name string) *regexp.Regexp {
	return regexp.MustCompile(`"` + name + `"\s*:\s*"((?:[^"\\]|\\.)*)"`)
}

var (
	titleField   = fieldRegex("title")
	metaField    = fieldRegex("metaDescription")
	contentField = fieldRegex("content")
)

func extractFields(s string) core.GeneratedArticle {
	return core.GeneratedArticle{
		Title:           strings.TrimSpace(matchField(titleField, s)),
		MetaDescription: strings.TrimSpace(matchField(metaField, s)),
		Content:         matchField(contentField, s),
	}
}

func matchField(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	if unquoted, err := strconv.Unquote(`"` + m[1] + `"`); err == nil {
		return unquoted
	}
	return m[1]
}
