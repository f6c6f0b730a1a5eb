package crawl

import (
	"sort"
	"sync"

	"github.com/civicpie/wardsync/internal/extract"
)

// EntityRecord accumulates the merged extractions for one ward across all
// crawl stages. It becomes terminal once the frontier holds no task
// referencing the ward.
type EntityRecord struct {
	Ward     int                   `json:"ward"`
	Fields   map[string]string     `json:"fields"`
	News     []extract.NewsItem    `json:"news,omitempty"`
	Meetings []extract.MeetingItem `json:"meetings,omitempty"`
	Contact  *extract.ContactInfo  `json:"contact,omitempty"`
	Pages    int                   `json:"pages"`
}

// accumulator merges RawExtractions into per-ward records. Merge policy is
// last-non-empty-wins per field: a field from an earlier extraction is
// retained when a later one omits it and overwritten when a later one
// supplies a value. Extractions only carry non-empty fields, so the merge
// is a plain overwrite and therefore insensitive to which worker finished
// first for disjoint fields.
type accumulator struct {
	mu       sync.Mutex
	entities map[int]*EntityRecord
}

func newAccumulator() *accumulator {
	return &accumulator{entities: make(map[int]*EntityRecord)}
}

func (a *accumulator) merge(ex extract.RawExtraction) {
	if ex.Ward == 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	rec, ok := a.entities[ex.Ward]
	if !ok {
		rec = &EntityRecord{Ward: ex.Ward, Fields: make(map[string]string)}
		a.entities[ex.Ward] = rec
	}
	rec.Pages++

	for key, value := range ex.Fields {
		if value != "" {
			rec.Fields[key] = value
		}
	}

	rec.News = appendCapped(rec.News, ex.News)
	rec.Meetings = appendCapped(rec.Meetings, ex.Meetings)

	if ex.Contact != nil {
		if rec.Contact == nil {
			rec.Contact = &extract.ContactInfo{}
		}
		mergeContact(rec.Contact, ex.Contact)
	}
}

// records returns the accumulated entities ordered by ward number.
func (a *accumulator) records() []EntityRecord {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]EntityRecord, 0, len(a.entities))
	for _, rec := range a.entities {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ward < out[j].Ward })
	return out
}

// appendCapped appends items while enforcing the per-entity collection cap.
func appendCapped[T any](dst, src []T) []T {
	for _, item := range src {
		if len(dst) >= maxCollectionItems {
			break
		}
		dst = append(dst, item)
	}
	return dst
}

func mergeContact(dst, src *extract.ContactInfo) {
	if src.Address != "" {
		dst.Address = src.Address
	}
	if src.Phone != "" {
		dst.Phone = src.Phone
	}
	if src.Email != "" {
		dst.Email = src.Email
	}
	if src.Hours != "" {
		dst.Hours = src.Hours
	}
}

// maxCollectionItems caps news and meeting lists per entity, matching the
// extraction-side cap so a second contributing page cannot grow a record
// past the bound.
const maxCollectionItems = 10
