package extract

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"

	"github.com/civicpie/wardsync/internal/civic"
)

func TestSiteDiscoversTypedSubpageLinks(t *testing.T) {
	t.Parallel()

	html := `<html><head><title>Ward 5 Office</title></head><body>
		<nav>
			<a href="/about">About</a>
			<a href="/meetings">Meetings</a>
			<a href="/news">News</a>
			<a href="/contact">Contact</a>
			<a href="/services">Services</a>
		</nav>
	</body></html>`
	out := Site(5, "https://ward5.example.org/", docFromHTML(t, html))

	require.Equal(t, "Ward 5 Office", out.Fields[FieldSiteTitle])
	require.Len(t, out.Links, 5)

	byType := make(map[civic.PageType]string)
	for _, link := range out.Links {
		byType[link.PageType] = link.URL
	}
	require.Equal(t, "https://ward5.example.org/about", byType[civic.PageAbout])
	require.Equal(t, "https://ward5.example.org/meetings", byType[civic.PageMeetings])
	require.Equal(t, "https://ward5.example.org/news", byType[civic.PageNews])
	require.Equal(t, "https://ward5.example.org/contact", byType[civic.PageContact])
	require.Equal(t, "https://ward5.example.org/services", byType[civic.PageServices])
}

func TestSiteCapsNewsAndMeetings(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	sb.WriteString("<html><body>")
	for i := 0; i < 15; i++ {
		fmt.Fprintf(&sb, `<div class="news-item"><h3>News %d</h3><p>Summary %d</p></div>`, i, i)
	}
	for i := 0; i < 15; i++ {
		fmt.Fprintf(&sb, `<div class="meeting"><h3>Meeting %d</h3><span class="date">2026-01-%02d</span></div>`, i, i+1)
	}
	sb.WriteString("</body></html>")

	out := Site(6, "https://ward6.example.org/", docFromHTML(t, sb.String()))

	require.Len(t, out.News, 10)
	require.Len(t, out.Meetings, 10)
	require.Equal(t, "News 0", out.News[0].Title)
	require.Equal(t, "Meeting 0", out.Meetings[0].Title)
}

func TestSiteExtractsContactBlock(t *testing.T) {
	t.Parallel()

	html := `<html><body>
		<div class="address">123 Main St</div>
		<div class="phone">555-0100</div>
		<div class="email">office@ward.org</div>
		<div class="hours">M-F 9-5</div>
	</body></html>`
	out := Site(7, "https://ward7.example.org/", docFromHTML(t, html))

	require.NotNil(t, out.Contact)
	require.Equal(t, "123 Main St", out.Contact.Address)
	require.Equal(t, "555-0100", out.Contact.Phone)
	require.Equal(t, "office@ward.org", out.Contact.Email)
	require.Equal(t, "M-F 9-5", out.Contact.Hours)
}

func TestSiteNoContactBlockYieldsNil(t *testing.T) {
	t.Parallel()

	out := Site(8, "https://ward8.example.org/", docFromHTML(t, "<html><body></body></html>"))
	require.Nil(t, out.Contact)
	require.Empty(t, out.News)
	require.Empty(t, out.Meetings)
}

func TestSubpageExtractsTitleAndCappedContent(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("lorem ipsum ", 1000)
	html := `<html><body><h1>About Ward 9</h1><main>` + long + `</main></body></html>`
	out := Subpage(9, civic.PageAbout, docFromHTML(t, html))

	require.Equal(t, "About Ward 9", out.Fields[TitleField(civic.PageAbout)])
	content := out.Fields[ContentField(civic.PageAbout)]
	require.NotEmpty(t, content)
	require.LessOrEqual(t, len(content), 5000)
}

func TestSubpageContentCapKeepsValidUTF8(t *testing.T) {
	t.Parallel()

	// Multi-byte runes all the way through the cap; a byte-offset slice
	// would split one and store invalid UTF-8.
	long := strings.Repeat("市議会だより ", 600)
	html := `<html><body><h1>会報</h1><main>` + long + `</main></body></html>`
	out := Subpage(11, civic.PageNews, docFromHTML(t, html))

	content := out.Fields[ContentField(civic.PageNews)]
	require.NotEmpty(t, content)
	require.LessOrEqual(t, len(content), 5000)
	require.True(t, utf8.ValidString(content))
}

func TestTruncateBacksUpToRuneBoundary(t *testing.T) {
	t.Parallel()

	s := "abécd" // é is 2 bytes at offsets 2-3
	require.Equal(t, "ab", truncate(s, 3))
	require.Equal(t, "abé", truncate(s, 4))
	require.Equal(t, s, truncate(s, len(s)))
}

func TestSubpageMissingContent(t *testing.T) {
	t.Parallel()

	out := Subpage(10, civic.PageNews, docFromHTML(t, "<html><body></body></html>"))
	require.NotContains(t, out.Fields, ContentField(civic.PageNews))
	require.NotContains(t, out.Fields, TitleField(civic.PageNews))
}
