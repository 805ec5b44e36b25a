package crawl

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const nonContentSelector = "script, style, meta, link"

// parseHTML builds a goquery document with non-content elements removed.
func parseHTML(data []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	doc.Find(nonContentSelector).Remove()
	return doc, nil
}

// ExtractText returns the visible text of an HTML document: every remaining
// text node joined by a single space, whitespace runs collapsed and the
// result trimmed. Malformed or empty input yields "".
func ExtractText(data []byte) string {
	if len(bytes.TrimSpace(data)) == 0 {
		return ""
	}
	doc, err := parseHTML(data)
	if err != nil {
		return ""
	}
	return documentText(doc)
}

func documentText(doc *goquery.Document) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			parts = append(parts, n.Data)
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	for _, n := range doc.Nodes {
		walk(n)
	}
	// strings.Fields splits on any whitespace run, which collapses and trims
	// in one pass.
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

// ExtractLinks returns the href of every anchor in document order, resolved
// against pageURL with the fragment removed. The query string is kept.
// Hrefs that fail to parse are dropped; duplicates are kept.
func ExtractLinks(doc *goquery.Document, pageURL *url.URL) []string {
	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		resolved, err := pageURL.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		resolved.Fragment = ""
		resolved.RawFragment = ""
		links = append(links, resolved.String())
	})
	return links
}
