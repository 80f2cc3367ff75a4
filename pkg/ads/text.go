package ads

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// DecodeText undoes the escaping found in ad copy: URL encoding (with '+'
// as space), HTML entities and invalid UTF-8 sequences. Text that is not
// valid URL encoding is only entity-decoded.
func DecodeText(s string) string {
	if u, err := url.QueryUnescape(s); err == nil {
		s = u
	}
	s = html.UnescapeString(s)
	return strings.ToValidUTF8(s, "\uFFFD")
}

// HTMLText returns the text content of an HTML fragment.
func HTMLText(fragment string) string {
	if fragment == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	return strings.TrimSpace(doc.Text())
}
