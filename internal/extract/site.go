package extract

import (
	"net/url"

	"github.com/PuerkitoBio/goquery"

	"github.com/civicpie/wardsync/internal/civic"
)

// maxItems caps the news and meeting collections per entity. The cap bounds
// memory and keeps the request volume to the official's site polite.
const maxItems = 10

// subpageKeywords maps each page type to the href substring that identifies
// its link, mirroring how the officials' sites are actually laid out.
var subpageKeywords = []struct {
	pageType civic.PageType
	keyword  string
}{
	{civic.PageAbout, "about"},
	{civic.PageMeetings, "meeting"},
	{civic.PageNews, "news"},
	{civic.PageContact, "contact"},
	{civic.PageServices, "service"},
}

// Site extracts the landing page of an official's external site: the page
// title, at most one typed subpage link per page type, and the news,
// meeting, and contact blocks when present.
func Site(ward int, pageURL string, doc *goquery.Document) RawExtraction {
	out := newExtraction(ward, civic.StageSite)
	base, _ := url.Parse(pageURL)

	out.setField(FieldSiteTitle, firstText(doc.Selection, "title"))

	for _, kw := range subpageKeywords {
		href := firstAttr(doc.Selection, `a[href*="`+kw.keyword+`"]`, "href")
		if href == "" {
			continue
		}
		resolved, ok := resolveLink(base, href)
		if !ok {
			out.DroppedLinks++
			continue
		}
		out.Links = append(out.Links, DiscoveredLink{Ward: ward, PageType: kw.pageType, URL: resolved})
	}

	out.News = extractNews(base, doc, &out.DroppedLinks)
	out.Meetings = extractMeetings(doc)
	out.Contact = extractContact(doc)
	return out
}

func extractNews(base *url.URL, doc *goquery.Document, dropped *int) []NewsItem {
	var items []NewsItem
	doc.Find(".news-item, .post, article").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if i >= maxItems {
			return false
		}
		item := NewsItem{
			Title:   firstText(sel, "h2, h3, .title"),
			Date:    firstText(sel, ".date, time"),
			Summary: firstText(sel, "p"),
		}
		if href := firstAttr(sel, "a", "href"); href != "" {
			if resolved, ok := resolveLink(base, href); ok {
				item.Link = resolved
			} else {
				*dropped++
			}
		}
		if item != (NewsItem{}) {
			items = append(items, item)
		}
		return true
	})
	return items
}

func extractMeetings(doc *goquery.Document) []MeetingItem {
	var items []MeetingItem
	doc.Find(".meeting, .event").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if i >= maxItems {
			return false
		}
		item := MeetingItem{
			Title:       firstText(sel, ".title, h3"),
			Date:        firstText(sel, ".date"),
			Time:        firstText(sel, ".time"),
			Location:    firstText(sel, ".location"),
			Description: firstText(sel, ".description, p"),
		}
		if item != (MeetingItem{}) {
			items = append(items, item)
		}
		return true
	})
	return items
}

func extractContact(doc *goquery.Document) *ContactInfo {
	contact := ContactInfo{
		Address: firstText(doc.Selection, ".address"),
		Phone:   firstText(doc.Selection, ".phone"),
		Email:   firstText(doc.Selection, ".email"),
		Hours:   firstText(doc.Selection, ".hours"),
	}
	if contact == (ContactInfo{}) {
		return nil
	}
	return &contact
}
