// Package extractor locates post text and the comment editor inside a
// third-party feed document whose markup changes without notice.
package extractor

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf16"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// ContainerSelector names the element that owns one feed item.
const ContainerSelector = "article"

const (
	tierMinLen   = 10
	rescueMinLen = 20
)

// Strategy is one tier of the cascade: the first element matching Selector
// inside the container is accepted when its trimmed text is longer than MinLen.
type Strategy struct {
	Name     string
	Selector string
	MinLen   int
}

// DefaultStrategies are ordered from most to least specific.
var DefaultStrategies = []Strategy{
	{Name: "ltr-span", Selector: "div.update-components-text span.break-words span[dir='ltr']", MinLen: tierMinLen},
	{Name: "nested-span", Selector: "div.update-components-text span.break-words span span", MinLen: tierMinLen},
	{Name: "span", Selector: "div.update-components-text span.break-words span", MinLen: tierMinLen},
	{Name: "break-words", Selector: "span.break-words", MinLen: tierMinLen},
}

// Apply runs the tier against container.
func (s Strategy) Apply(container *goquery.Selection) (string, bool) {
	el := container.Find(s.Selector).First()
	if el.Length() == 0 {
		return "", false
	}
	text := strings.TrimSpace(InnerText(el))
	if textLen(text) <= s.MinLen {
		return "", false
	}
	return text, true
}

// textLen counts UTF-16 code units, the unit the feed's own length checks
// use; characters outside the BMP (most emoji) count twice.
func textLen(s string) int {
	return len(utf16.Encode([]rune(s)))
}

// Counters and timestamps go first so "12 comments" is not left as "12 s".
var chromePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\d+( reactions| comments| shares)`),
	regexp.MustCompile(`(?i)\d+[smhdw] ago`),
	regexp.MustCompile(`(?i)(Like|Comment|Share|Send)`),
}

// Rescue strips UI chrome from the container's whole visible text and keeps
// the remainder only if it is longer than 20 characters.
func Rescue(container *goquery.Selection) string {
	text := InnerText(container)
	for _, re := range chromePatterns {
		text = re.ReplaceAllString(text, "")
	}
	text = strings.TrimSpace(text)
	if textLen(text) <= rescueMinLen {
		return ""
	}
	return text
}

// Target is the trigger element together with its document. Focused is the
// element holding keyboard focus, if the caller knows it.
type Target struct {
	Doc     *goquery.Document
	Trigger *goquery.Selection
	Focused *goquery.Selection
}

// Container returns the feed item owning the trigger, or nil.
func (t Target) Container() *goquery.Selection {
	if t.Trigger == nil || t.Trigger.Length() == 0 {
		return nil
	}
	c := t.Trigger.First().Closest(ContainerSelector)
	if c.Length() == 0 {
		return nil
	}
	return c
}

// Extractor runs a strategy cascade with a final rescue tier.
type Extractor struct {
	strategies []Strategy
	logger     *zap.Logger
}

// New returns an Extractor; no strategies means DefaultStrategies.
func New(logger *zap.Logger, strategies ...Strategy) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(strategies) == 0 {
		strategies = DefaultStrategies
	}
	return &Extractor{strategies: strategies, logger: logger}
}

// Extract never fails: "" means no usable text.
func (e *Extractor) Extract(t Target) (text string) {
	defer e.recoverEmpty(&text)
	container := t.Container()
	if container == nil {
		return ""
	}
	return e.ExtractFrom(container)
}

// recoverEmpty turns a panic while querying the document into "".
func (e *Extractor) recoverEmpty(text *string) {
	if r := recover(); r != nil {
		e.logger.Error("post text extraction failed", zap.Any("panic", r))
		*text = ""
	}
}

// ExtractFrom runs the cascade on an already located container. Like
// Extract it never fails.
func (e *Extractor) ExtractFrom(container *goquery.Selection) (text string) {
	defer e.recoverEmpty(&text)
	for _, s := range e.strategies {
		if text, ok := s.Apply(container); ok {
			e.logger.Debug("post text found", zap.String("tier", s.Name), zap.Int("len", len(text)))
			return text
		}
	}
	text = Rescue(container)
	e.logger.Debug("post text rescue", zap.Int("len", len(text)))
	return text
}

// Extract uses the default cascade.
func Extract(t Target) string {
	return New(nil).Extract(t)
}

// Page is a parsed document with its trigger resolved.
type Page struct {
	Target
	PostText string
	Editor   *goquery.Selection
}

// Load parses r and resolves the first element matching triggerSelector.
// focusedSelector may be empty.
func Load(r io.Reader, triggerSelector, focusedSelector string) (Target, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Target{}, fmt.Errorf("parse html: %w", err)
	}
	t := Target{Doc: doc}
	if strings.TrimSpace(triggerSelector) != "" {
		t.Trigger = doc.Find(triggerSelector).First()
	}
	if strings.TrimSpace(focusedSelector) != "" {
		t.Focused = doc.Find(focusedSelector).First()
	}
	return t, nil
}

// Analyze loads a document, extracts post text and locates the editor.
func (e *Extractor) Analyze(r io.Reader, triggerSelector, focusedSelector string) (Page, error) {
	t, err := Load(r, triggerSelector, focusedSelector)
	if err != nil {
		return Page{}, err
	}
	return Page{Target: t, PostText: e.Extract(t), Editor: LocateEditor(t)}, nil
}

// FromHTML parses r and extracts the post text for the trigger.
func FromHTML(r io.Reader, triggerSelector string) (string, error) {
	t, err := Load(r, triggerSelector, "")
	if err != nil {
		return "", err
	}
	return Extract(t), nil
}
