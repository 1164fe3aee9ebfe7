package crawler

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// noiseSelector matches elements that never carry article text or links.
const noiseSelector = "script, style, noscript, svg, iframe, canvas, template, link, meta, form"

// keptAttributes are the only attributes left on elements after cleaning.
// href carries the article links used for discovery; datetime often carries
// the publish date.
var keptAttributes = map[string]bool{
	"href":     true,
	"datetime": true,
	"title":    true,
}

var blankRun = regexp.MustCompile(`\s{2,}`)

// Clean reduces an HTML page to the markup relevant for URL discovery and
// content extraction.
//
// Design decision: We clean the page before sending it to the oracle rather
// than sending raw HTML because:
//  1. Scripts and inline styles often make up most of a news page
//  2. Oracle requests are billed and bounded by input size
//  3. Links and visible text survive cleaning unchanged
func Clean(page string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("parse page: %w", err)
	}

	doc.Find(noiseSelector).Remove()
	removeComments(doc.Selection)

	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		for _, n := range s.Nodes {
			n.Attr = filterAttributes(n.Attr)
		}
	})

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}

	out, err := root.Html()
	if err != nil {
		return "", fmt.Errorf("render page: %w", err)
	}

	return strings.TrimSpace(blankRun.ReplaceAllString(out, " ")), nil
}

// removeComments drops comment nodes anywhere below s.
func removeComments(s *goquery.Selection) {
	s.Contents().Each(func(_ int, child *goquery.Selection) {
		if len(child.Nodes) == 0 {
			return
		}
		if child.Nodes[0].Type == html.CommentNode {
			child.Remove()
			return
		}
		removeComments(child)
	})
}

// filterAttributes keeps only attributes in keptAttributes.
func filterAttributes(attrs []html.Attribute) []html.Attribute {
	kept := attrs[:0]
	for _, attr := range attrs {
		if keptAttributes[attr.Key] {
			kept = append(kept, attr)
		}
	}
	return kept
}
