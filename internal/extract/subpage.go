package extract

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/civicpie/wardsync/internal/civic"
)

// Subpage extracts the title and main textual content of one typed subpage.
// Content is stored under a page-type-scoped key so the accumulator keeps
// each subpage's text independently.
func Subpage(ward int, pageType civic.PageType, doc *goquery.Document) RawExtraction {
	out := newExtraction(ward, civic.StageSubpage)
	out.PageType = pageType

	out.setField(TitleField(pageType), firstText(doc.Selection, "h1, .page-title"))

	content := doc.Find("main, .content, article, .entry-content").Text()
	out.setField(ContentField(pageType), truncate(collapseWhitespace(content), maxContentChars))
	return out
}

// ContentField returns the accumulator key for a subpage's body text.
func ContentField(pageType civic.PageType) string {
	return "content_" + string(pageType)
}

// TitleField returns the accumulator key for a subpage's title.
func TitleField(pageType civic.PageType) string {
	return "title_" + string(pageType)
}
