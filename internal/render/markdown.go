// Package render converts assistant-authored Markdown into the restricted
// HTML subset accepted by Telegram. The conversion goes through two stages:
// goldmark renders the Markdown to standard HTML, and a token-stream
// converter rewrites that HTML into Telegram-safe markup. Anything the
// target does not support is dropped while its text content survives.
package render

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/net/html"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.Table, extension.Strikethrough),
)

var multiNewline = regexp.MustCompile(`\n{3,}`)

// Render converts Markdown to Telegram-compatible HTML. It never panics;
// callers fall back to delivering the raw text when an error is returned.
func Render(src string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}

	c := &converter{}
	c.feed(buf.Bytes())
	return c.result(), nil
}

// converter rewrites an HTML token stream into Telegram markup. It keeps an
// explicit open-tag stack to detect mismatched closes and to tell inline
// code apart from code nested inside a <pre> block, and switches into a
// table accumulator while inside a <table>.
type converter struct {
	out   strings.Builder
	stack []string

	inTable bool
	table   tableBuilder
}

// voidTags never receive a matching end tag and must not be pushed onto the
// open-tag stack.
var voidTags = map[string]struct{}{
	"br":  {},
	"hr":  {},
	"img": {},
}

func (c *converter) feed(doc []byte) {
	z := html.NewTokenizer(bytes.NewReader(doc))
	for {
		switch z.Next() {
		case html.ErrorToken:
			// Includes io.EOF; malformed input simply ends the stream.
			return
		case html.StartTagToken:
			tok := z.Token()
			c.handleStartTag(tok.Data, tok.Attr)
		case html.SelfClosingTagToken:
			tok := z.Token()
			c.handleStartTag(tok.Data, tok.Attr)
			c.handleEndTag(tok.Data)
		case html.EndTagToken:
			name, _ := z.TagName()
			c.handleEndTag(string(name))
		case html.TextToken:
			c.handleText(string(z.Text()))
		}
	}
}

func (c *converter) handleStartTag(tag string, attrs []html.Attribute) {
	if _, void := voidTags[tag]; !void {
		c.stack = append(c.stack, tag)
	}

	switch tag {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		c.out.WriteString("<b>")
	case "strong", "b":
		c.out.WriteString("<b>")
	case "em", "i":
		c.out.WriteString("<i>")
	case "u":
		c.out.WriteString("<u>")
	case "s", "del", "strike":
		c.out.WriteString("<s>")
	case "code":
		if !c.nestedInPre() {
			c.out.WriteString("<code>")
		}
	case "pre":
		c.out.WriteString("<pre>")
	case "a":
		if href, ok := attrValue(attrs, "href"); ok {
			fmt.Fprintf(&c.out, `<a href="%s">`, html.EscapeString(href))
		}
	case "blockquote":
		c.out.WriteString("<blockquote>")
	case "br":
		c.out.WriteString("\n")
	case "table":
		c.inTable = true
		c.table = tableBuilder{}
	}
}

func (c *converter) handleEndTag(tag string) {
	if n := len(c.stack); n > 0 && c.stack[n-1] == tag {
		c.stack = c.stack[:n-1]
	}

	switch tag {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		c.out.WriteString("</b>\n\n")
	case "strong", "b":
		c.out.WriteString("</b>")
	case "em", "i":
		c.out.WriteString("</i>")
	case "u":
		c.out.WriteString("</u>")
	case "s", "del", "strike":
		c.out.WriteString("</s>")
	case "code":
		if !c.inPre() {
			c.out.WriteString("</code>")
		}
	case "pre":
		c.out.WriteString("</pre>\n")
	case "a":
		c.out.WriteString("</a>")
	case "blockquote":
		c.out.WriteString("</blockquote>\n")
	case "p":
		c.out.WriteString("\n\n")
	case "th", "td":
		if c.inTable {
			c.table.closeCell()
		}
	case "tr":
		if c.inTable {
			c.table.closeRow()
		}
	case "table":
		c.inTable = false
		c.out.WriteString(c.table.render())
	}
}

func (c *converter) handleText(text string) {
	if c.inTable {
		if tag, ok := c.top(); ok && (tag == "th" || tag == "td") {
			c.table.writeCellText(text)
		}
		return
	}
	c.out.WriteString(html.EscapeString(text))
}

// result collapses runs of three or more newlines to exactly two and trims
// surrounding whitespace.
func (c *converter) result() string {
	text := multiNewline.ReplaceAllString(c.out.String(), "\n\n")
	return strings.TrimSpace(text)
}

func (c *converter) top() (string, bool) {
	if len(c.stack) == 0 {
		return "", false
	}
	return c.stack[len(c.stack)-1], true
}

// nestedInPre reports whether a <pre> is open below the tag just pushed.
func (c *converter) nestedInPre() bool {
	for _, tag := range c.stack[:len(c.stack)-1] {
		if tag == "pre" {
			return true
		}
	}
	return false
}

// inPre reports whether a <pre> is still open. Called after the end tag has
// been popped.
func (c *converter) inPre() bool {
	for _, tag := range c.stack {
		if tag == "pre" {
			return true
		}
	}
	return false
}

func attrValue(attrs []html.Attribute, name string) (string, bool) {
	for _, a := range attrs {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}
