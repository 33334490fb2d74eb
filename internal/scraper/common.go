package scraper

import (
	"bytes"
	"errors"
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
	nethtml "golang.org/x/net/html"
)

// ErrNotHTML is returned when the input contains no markup at all.
var ErrNotHTML = errors.New("input is not html")

// newDocument parses raw leniently. The HTML5 parser wraps any text in a
// synthetic html/head/body tree, so the input itself must carry at least one
// tag to count as a document.
func newDocument(raw []byte) (*goquery.Document, error) {
	if !hasElement(raw) {
		return nil, ErrNotHTML
	}
	return goquery.NewDocumentFromReader(bytes.NewReader(raw))
}

func hasElement(raw []byte) bool {
	z := nethtml.NewTokenizer(bytes.NewReader(raw))
	for {
		switch z.Next() {
		case nethtml.ErrorToken:
			return false
		case nethtml.StartTagToken, nethtml.SelfClosingTagToken:
			return true
		}
	}
}

// collapseSpace folds runs of whitespace into single spaces. Text taken from
// goquery is already entity-decoded and must not be decoded again.
func collapseSpace(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

// cleanText decodes entities in raw markup before collapsing whitespace.
func cleanText(value string) string {
	return collapseSpace(html.UnescapeString(value))
}

// cutRunes returns the first max characters of value.
func cutRunes(value string, max int) (string, bool) {
	n := 0
	for i := range value {
		if n == max {
			return value[:i], true
		}
		n++
	}
	return value, false
}

func truncate(value string, max int) string {
	if max <= 0 {
		return value
	}
	value = strings.TrimSpace(value)
	cut, ok := cutRunes(value, max)
	if !ok {
		return value
	}
	return strings.TrimSpace(cut) + "..."
}
