package extract

import (
	"net/url"
	"regexp"
	"strconv"

	"github.com/PuerkitoBio/goquery"

	"github.com/civicpie/wardsync/internal/civic"
)

var wardNumberPattern = regexp.MustCompile(`(?i)ward[^0-9]{0,3}([0-9]{1,2})`)

// Directory extracts per-ward entity links from the council directory page.
// Each discovered link carries the ward number parsed from the link text or
// href; links whose ward cannot be determined, or whose URL is malformed,
// are dropped and counted.
func Directory(pageURL string, doc *goquery.Document) RawExtraction {
	out := newExtraction(0, civic.StageDirectory)
	base, _ := url.Parse(pageURL)

	seen := make(map[int]struct{})
	doc.Find("a.ward-link").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		resolved, ok := resolveLink(base, href)
		if !ok {
			out.DroppedLinks++
			return
		}
		ward, ok := parseWardNumber(sel.Text(), resolved)
		if !ok {
			out.DroppedLinks++
			return
		}
		if _, dup := seen[ward]; dup {
			return
		}
		seen[ward] = struct{}{}
		out.Links = append(out.Links, DiscoveredLink{Ward: ward, URL: resolved})
	})
	return out
}

// parseWardNumber pulls a ward number out of the link text, falling back to
// the href, and rejects numbers outside the valid range.
func parseWardNumber(text, href string) (int, bool) {
	for _, candidate := range []string{text, href} {
		m := wardNumberPattern.FindStringSubmatch(candidate)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n >= civic.MinWard && n <= civic.MaxWard {
			return n, true
		}
	}
	return 0, false
}
