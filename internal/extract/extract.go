// Package extract holds the pure extraction rules that turn fetched pages
// into typed partial records. Rules never fail on missing markup: absent
// content yields absent fields, and malformed links are dropped with a
// count rather than aborting the page.
package extract

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/civicpie/wardsync/internal/civic"
)

// maxContentChars caps the stored text of one subpage.
const maxContentChars = 5000

// DiscoveredLink is a link an extraction rule found and validated. Ward is
// set for directory-discovered entity links; PageType is set for typed
// subpage links.
type DiscoveredLink struct {
	Ward     int
	PageType civic.PageType
	URL      string
}

// NewsItem is one news/blog entry extracted from an official's site.
type NewsItem struct {
	Title   string `json:"title,omitempty"`
	Date    string `json:"date,omitempty"`
	Summary string `json:"summary,omitempty"`
	Link    string `json:"link,omitempty"`
}

// MeetingItem is one meeting/event entry extracted from an official's site.
type MeetingItem struct {
	Title       string `json:"title,omitempty"`
	Date        string `json:"date,omitempty"`
	Time        string `json:"time,omitempty"`
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`
}

// ContactInfo is the contact block extracted from an official's site.
type ContactInfo struct {
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Hours   string `json:"hours,omitempty"`
}

// RawExtraction is the immutable product of running one rule over one
// fetched page. Fields only contains keys the page actually supplied, so
// the accumulator's last-non-empty-wins merge never sees defaulted values.
type RawExtraction struct {
	Ward         int
	Stage        civic.Stage
	PageType     civic.PageType
	Fields       map[string]string
	Links        []DiscoveredLink
	News         []NewsItem
	Meetings     []MeetingItem
	Contact      *ContactInfo
	DroppedLinks int
}

func newExtraction(ward int, stage civic.Stage) RawExtraction {
	return RawExtraction{
		Ward:   ward,
		Stage:  stage,
		Fields: make(map[string]string),
	}
}

// setField stores the trimmed value only when the page actually supplied one.
func (e *RawExtraction) setField(key, value string) {
	value = strings.TrimSpace(value)
	if value != "" {
		e.Fields[key] = value
	}
}

// resolveLink validates href against the page URL. Absolute and resolvable
// relative URLs pass; empty, fragment-only, and non-HTTP schemes do not.
func resolveLink(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}
	lower := strings.ToLower(href)
	if strings.HasPrefix(lower, "mailto:") || strings.HasPrefix(lower, "javascript:") || strings.HasPrefix(lower, "tel:") {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	resolved := ref
	if base != nil {
		resolved = base.ResolveReference(ref)
	}
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", false
	}
	if resolved.Host == "" {
		return "", false
	}
	resolved.Fragment = ""
	return resolved.String(), true
}

func firstText(doc *goquery.Selection, selector string) string {
	return strings.TrimSpace(doc.Find(selector).First().Text())
}

func firstAttr(doc *goquery.Selection, selector, attr string) string {
	val, _ := doc.Find(selector).First().Attr(attr)
	return strings.TrimSpace(val)
}

// truncate caps s at limit bytes without splitting a multi-byte rune.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

// collapseWhitespace flattens runs of whitespace into single spaces, the
// same cleanup applied before storing page text.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
