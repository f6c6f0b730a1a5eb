package feed

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/civicpie/wardsync/internal/civic"
	"github.com/civicpie/wardsync/internal/metrics"
)

// RawRecord mirrors one feed record as published. Several fields are
// polymorphic upstream: website and photo_link arrive either as a bare
// string or as an object with a url key, so they decode lazily.
type RawRecord struct {
	Ward            string          `json:"ward"`
	Alderman        string          `json:"alderman"`
	Address         string          `json:"address"`
	City            string          `json:"city"`
	State           string          `json:"state"`
	Zipcode         string          `json:"zipcode"`
	WardPhone       string          `json:"ward_phone"`
	WardFax         string          `json:"ward_fax"`
	Email           string          `json:"email"`
	Website         json.RawMessage `json:"website"`
	CityHallAddress string          `json:"city_hall_address"`
	CityHallPhone   string          `json:"city_hall_phone"`
	PhotoLink       json.RawMessage `json:"photo_link"`
	Location        *rawLocation    `json:"location"`
}

type rawLocation struct {
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
}

// MalformedRecordError marks a single feed record that cannot be
// normalized. The sync skips the record and continues; it never aborts
// the run.
type MalformedRecordError struct {
	Ward   string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed feed record (ward %q): %s", e.Ward, e.Reason)
}

// Normalize converts raw feed records into the canonical schema, attaching
// curated neighborhoods by ward. Malformed records are logged, counted,
// and skipped. The returned slice is ordered by ward number.
func Normalize(records []RawRecord, neighborhoods map[int][]string, logger *zap.Logger) ([]civic.WardRecord, int) {
	out := make([]civic.WardRecord, 0, len(records))
	skipped := 0
	for _, raw := range records {
		rec, err := normalizeOne(raw, neighborhoods)
		if err != nil {
			skipped++
			metrics.ObserveFeedRecord("skipped")
			logger.Warn("skipping feed record", zap.Error(err))
			continue
		}
		metrics.ObserveFeedRecord("normalized")
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ward < out[j].Ward })
	return out, skipped
}

func normalizeOne(raw RawRecord, neighborhoods map[int][]string) (civic.WardRecord, error) {
	ward, err := strconv.Atoi(strings.TrimSpace(raw.Ward))
	if err != nil {
		return civic.WardRecord{}, &MalformedRecordError{Ward: raw.Ward, Reason: "ward is not numeric"}
	}
	if !civic.ValidWard(ward) {
		return civic.WardRecord{}, &MalformedRecordError{Ward: raw.Ward, Reason: "ward out of range"}
	}

	rec := civic.WardRecord{
		Ward:            ward,
		OfficialName:    FormatOfficialName(raw.Alderman),
		OfficeAddress:   strings.TrimSpace(raw.Address),
		OfficeCity:      defaultString(raw.City, "Chicago"),
		OfficeState:     defaultString(raw.State, "IL"),
		OfficeZip:       strings.TrimSpace(raw.Zipcode),
		OfficePhone:     strings.TrimSpace(raw.WardPhone),
		OfficeFax:       strings.TrimSpace(raw.WardFax),
		Email:           strings.TrimSpace(raw.Email),
		Website:         decodeURLValue(raw.Website),
		CityHallAddress: strings.TrimSpace(raw.CityHallAddress),
		CityHallPhone:   strings.TrimSpace(raw.CityHallPhone),
		PhotoURL:        decodeURLValue(raw.PhotoLink),
		Neighborhoods:   neighborhoods[ward],
	}

	if raw.Location != nil {
		rec.Latitude = parseCoord(raw.Location.Latitude)
		rec.Longitude = parseCoord(raw.Location.Longitude)
	}
	return rec, nil
}

// FormatOfficialName rewrites "Last, First" into "First Last", splitting on
// the first comma only so suffixed names keep their remainder intact. Names
// without a comma pass through unchanged.
func FormatOfficialName(name string) string {
	name = strings.TrimSpace(name)
	last, first, found := strings.Cut(name, ",")
	if !found {
		return name
	}
	first = strings.TrimSpace(first)
	last = strings.TrimSpace(last)
	if first == "" {
		return last
	}
	return first + " " + last
}

// decodeURLValue accepts the feed's two encodings of a link field: a JSON
// string, or an object carrying a url key. Anything else yields "".
func decodeURLValue(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var obj struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return strings.TrimSpace(obj.URL)
	}
	return ""
}

func parseCoord(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}

func defaultString(s, fallback string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	return s
}
