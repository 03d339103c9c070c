package extractor

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Metadata scraping is best-effort extraction with prioritized fallbacks:
// each source declares ordered rule lists, tried until one matches, with a
// documented default when all fail. Adding a selector or pattern never
// touches control flow.

// selectorRule targets one known location of a piece of metadata
type selectorRule struct {
	selector string
	attr     string // empty means text content
}

// firstSelectorMatch tries rules in order, returns the first non-empty hit
func firstSelectorMatch(doc *goquery.Document, rules []selectorRule) (string, bool) {
	for _, rule := range rules {
		sel := doc.Find(rule.selector).First()
		if sel.Length() == 0 {
			continue
		}

		var val string
		if rule.attr == "" {
			val = sel.Text()
		} else {
			val, _ = sel.Attr(rule.attr)
		}

		if val = strings.TrimSpace(val); val != "" {
			return val, true
		}
	}
	return "", false
}

// firstPatternMatch tries regexps in order over raw markup, returns the
// first capture group of the first pattern that matches
func firstPatternMatch(markup string, patterns []*regexp.Regexp) (string, bool) {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(markup); len(m) > 1 {
			return m[1], true
		}
	}
	return "", false
}
