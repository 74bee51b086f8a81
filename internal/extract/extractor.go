// Package extract reads message attributes from the host page.
//
// Extraction never fails: a missing node, an unparsable document or an empty
// field all resolve to the placeholder for that field.
package extract

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/mikey/phish-interrogator/internal/core"
	"github.com/mikey/phish-interrogator/internal/utils"
)

// Selectors locate each attribute in the host document
type Selectors struct {
	From         string
	To           string
	Date         string
	Subject      string
	Body         string
	ReceiverName string
}

// DefaultSelectors match the webmail layout the overlay ships for
func DefaultSelectors() Selectors {
	return Selectors{
		From:         ".sender-row strong",
		To:           "#email-details p:nth-child(2)",
		Date:         "#email-details p:nth-child(3)",
		Subject:      ".subject",
		Body:         ".email-body",
		ReceiverName: ".receiver-name",
	}
}

// Extractor reads MessageAttributes from an HTML document
type Extractor struct {
	selectors     Selectors
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewExtractor creates a new extractor; empty selectors fall back to the defaults
func NewExtractor(selectors Selectors, logger *zap.Logger, textProcessor *utils.TextProcessor) *Extractor {
	defaults := DefaultSelectors()
	if selectors.From == "" {
		selectors.From = defaults.From
	}
	if selectors.To == "" {
		selectors.To = defaults.To
	}
	if selectors.Date == "" {
		selectors.Date = defaults.Date
	}
	if selectors.Subject == "" {
		selectors.Subject = defaults.Subject
	}
	if selectors.Body == "" {
		selectors.Body = defaults.Body
	}
	if selectors.ReceiverName == "" {
		selectors.ReceiverName = defaults.ReceiverName
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if textProcessor == nil {
		textProcessor = utils.NewTextProcessor(logger)
	}

	return &Extractor{
		selectors:     selectors,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// Extract reads the six attributes from the document in r
func (e *Extractor) Extract(r io.Reader) core.MessageAttributes {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		e.logger.Warn("Failed to parse host document", zap.Error(err))
		return core.NewMessageAttributes("", "", "", "", "", "")
	}

	attrs := core.NewMessageAttributes(
		e.read(doc, e.selectors.From),
		stripPrefix(e.read(doc, e.selectors.To), "to:"),
		stripPrefix(e.read(doc, e.selectors.Date), "date:"),
		e.read(doc, e.selectors.Subject),
		e.read(doc, e.selectors.Body),
		stripPrefix(e.read(doc, e.selectors.ReceiverName), "to "),
	)

	e.logger.Debug("Extracted message attributes",
		zap.String("sender", attrs.From),
		zap.Bool("has_subject", attrs.Subject != core.NoSubject),
		zap.Int("body_size", len(attrs.Body)))

	return attrs
}

// ExtractString is Extract for an in-memory document
func (e *Extractor) ExtractString(page string) core.MessageAttributes {
	return e.Extract(strings.NewReader(page))
}

func (e *Extractor) read(doc *goquery.Document, selector string) string {
	sel, ok := find(doc, selector)
	if !ok {
		return ""
	}
	return e.textProcessor.Normalize(innerText(sel.Nodes[0]))
}

// find guards against selectors cascadia rejects; an invalid selector is an absent field
func find(doc *goquery.Document, selector string) (sel *goquery.Selection, ok bool) {
	defer func() {
		if recover() != nil {
			sel, ok = nil, false
		}
	}()
	sel = doc.Find(selector).First()
	return sel, sel.Length() > 0
}

// stripPrefix removes a leading label such as "to:" or "date:", ignoring case
func stripPrefix(text, label string) string {
	if len(text) >= len(label) && strings.EqualFold(text[:len(label)], label) {
		text = text[len(label):]
	}
	return strings.TrimSpace(text)
}

var blockElements = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Blockquote: true, atom.Div: true,
	atom.Dl: true, atom.Dt: true, atom.Dd: true, atom.Footer: true, atom.Form: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Header: true, atom.Hr: true, atom.Li: true, atom.Main: true, atom.Nav: true,
	atom.Ol: true, atom.P: true, atom.Pre: true, atom.Section: true, atom.Table: true,
	atom.Tr: true, atom.Ul: true,
}

// innerText approximates the browser's rendered text: line breaks for <br> and
// block boundaries, collapsed whitespace outside <pre>, no script or style content
func innerText(n *html.Node) string {
	var b textBuilder
	var walk func(n *html.Node, pre bool)
	walk = func(n *html.Node, pre bool) {
		switch n.Type {
		case html.TextNode:
			if pre {
				b.write(n.Data)
			} else {
				b.writeCollapsed(n.Data)
			}
			return
		case html.ElementNode:
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Template, atom.Head:
				return
			case atom.Br:
				b.newline()
				return
			case atom.Pre:
				pre = true
			}
		}

		block := n.Type == html.ElementNode && blockElements[n.DataAtom]
		if block {
			b.lineBreak()
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, pre)
		}
		if block {
			b.lineBreak()
		}
	}
	walk(n, false)
	return b.String()
}

type textBuilder struct {
	sb   strings.Builder
	last rune
}

func (b *textBuilder) write(s string) {
	if s == "" {
		return
	}
	b.sb.WriteString(s)
	b.last = rune(s[len(s)-1])
}

func (b *textBuilder) writeCollapsed(s string) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		if s != "" && b.last != 0 && b.last != ' ' && b.last != '\n' {
			b.write(" ")
		}
		return
	}
	if isSpace(s[0]) && b.last != 0 && b.last != ' ' && b.last != '\n' {
		b.write(" ")
	}
	b.write(strings.Join(fields, " "))
	if isSpace(s[len(s)-1]) {
		b.write(" ")
	}
}

func (b *textBuilder) newline() {
	b.write("\n")
}

// lineBreak starts a new line unless one was just started
func (b *textBuilder) lineBreak() {
	if b.last != 0 && b.last != '\n' {
		b.newline()
	}
}

func (b *textBuilder) String() string {
	lines := strings.Split(b.sb.String(), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}
	return strings.Join(lines, "\n")
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}
