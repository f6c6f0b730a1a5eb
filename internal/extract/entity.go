package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/civicpie/wardsync/internal/civic"
)

// Field keys contributed by the entity-page rule. Subpage content keys are
// derived per page type ("content_about" etc).
const (
	FieldOfficialName  = "official_name"
	FieldOfficeAddress = "office_address"
	FieldOfficePhone   = "office_phone"
	FieldEmail         = "email"
	FieldWebsite       = "website"
	FieldCommittees    = "committees"
	FieldSiteTitle     = "site_title"
)

// EntityPage extracts the ward profile from the directory's per-ward page
// and discovers the official's external site link when one is present and
// well-formed. A missing link is a normal, terminal outcome for the entity.
func EntityPage(ward int, pageURL string, doc *goquery.Document) RawExtraction {
	out := newExtraction(ward, civic.StageEntity)
	base, _ := url.Parse(pageURL)

	root := doc.Selection
	out.setField(FieldOfficialName, firstText(root, ".alderman-name"))
	out.setField(FieldOfficeAddress, firstText(root, ".office-address"))
	out.setField(FieldOfficePhone, firstText(root, ".office-phone"))
	out.setField(FieldEmail, firstText(root, ".office-email"))

	var committees []string
	root.Find(".committee").Each(func(_ int, sel *goquery.Selection) {
		if c := strings.TrimSpace(sel.Text()); c != "" {
			committees = append(committees, c)
		}
	})
	out.setField(FieldCommittees, strings.Join(committees, "; "))

	if href := firstAttr(root, "a.alderman-website, .alderman-website", "href"); href != "" {
		if resolved, ok := resolveLink(base, href); ok {
			out.setField(FieldWebsite, resolved)
			out.Links = append(out.Links, DiscoveredLink{Ward: ward, URL: resolved})
		} else {
			out.DroppedLinks++
		}
	}
	return out
}
