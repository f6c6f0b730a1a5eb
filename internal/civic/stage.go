package civic

// Stage identifies one phase of the crawl state machine. The only legal
// progression is Directory → Entity → Site → Subpage; the crawl package's
// task constructors make deeper chains unrepresentable.
type Stage string

const (
	StageDirectory Stage = "directory"
	StageEntity    Stage = "entity"
	StageSite      Stage = "site"
	StageSubpage   Stage = "subpage"
)

// PageType classifies a typed subpage on an official's external site.
type PageType string

const (
	PageAbout    PageType = "about"
	PageMeetings PageType = "meetings"
	PageNews     PageType = "news"
	PageContact  PageType = "contact"
	PageServices PageType = "services"
)

// PageTypes lists every subpage type in discovery order.
var PageTypes = []PageType{PageAbout, PageMeetings, PageNews, PageContact, PageServices}
