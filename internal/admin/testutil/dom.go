package testutil

import (
	"bytes"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

// ParseHTML parses a full page or a fragment for goquery assertions.
func ParseHTML(t testing.TB, body []byte) *goquery.Document {
	t.Helper()

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

// PanelState returns the data-state of the panel for attribute, or "" when
// the document has no such panel.
func PanelState(doc *goquery.Document, attribute string) string {
	return doc.Find("#panel-"+attribute).AttrOr("data-state", "")
}
