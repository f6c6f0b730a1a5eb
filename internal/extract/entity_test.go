package extract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEntityPageExtractsProfileFields(t *testing.T) {
	t.Parallel()

	html := `<html><body>
		<h1 class="alderman-name"> Daniel La Spata </h1>
		<div class="office-address">1958 N Milwaukee Ave</div>
		<div class="office-phone">(872) 206-2685</div>
		<div class="office-email">info@the1stward.com</div>
		<ul>
			<li class="committee">Zoning</li>
			<li class="committee">Transportation</li>
		</ul>
		<a class="alderman-website" href="https://www.the1stward.com">Website</a>
	</body></html>`
	out := EntityPage(1, "https://www.chicago.gov/ward/1", docFromHTML(t, html))

	require.Equal(t, 1, out.Ward)
	require.Equal(t, "Daniel La Spata", out.Fields[FieldOfficialName])
	require.Equal(t, "1958 N Milwaukee Ave", out.Fields[FieldOfficeAddress])
	require.Equal(t, "(872) 206-2685", out.Fields[FieldOfficePhone])
	require.Equal(t, "info@the1stward.com", out.Fields[FieldEmail])
	require.Equal(t, "Zoning; Transportation", out.Fields[FieldCommittees])
	require.Equal(t, "https://www.the1stward.com", out.Fields[FieldWebsite])

	require.Len(t, out.Links, 1)
	require.Equal(t, "https://www.the1stward.com", out.Links[0].URL)
}

func TestEntityPageMissingMarkupYieldsAbsentFields(t *testing.T) {
	t.Parallel()

	out := EntityPage(2, "https://www.chicago.gov/ward/2", docFromHTML(t, "<html><body><p>nothing</p></body></html>"))

	require.Empty(t, out.Fields)
	require.Empty(t, out.Links)
	require.Zero(t, out.DroppedLinks)
}

func TestEntityPageDropsMalformedWebsiteLink(t *testing.T) {
	t.Parallel()

	html := `<a class="alderman-website" href="javascript:void(0)">Website</a>`
	out := EntityPage(3, "https://www.chicago.gov/ward/3", docFromHTML(t, html))

	require.Empty(t, out.Links)
	require.Equal(t, 1, out.DroppedLinks)
	require.NotContains(t, out.Fields, FieldWebsite)
}

func TestEntityPageResolvesRelativeWebsiteLink(t *testing.T) {
	t.Parallel()

	html := `<a class="alderman-website" href="/official/site">Website</a>`
	out := EntityPage(4, "https://www.chicago.gov/ward/4", docFromHTML(t, html))

	require.Len(t, out.Links, 1)
	require.Equal(t, "https://www.chicago.gov/official/site", out.Links[0].URL)
}
