// Package civic defines the canonical ward dataset schema shared by the
// crawl pipeline, the feed normalizer, the change detector, and the
// snapshot stores.
package civic

import (
	"sort"
	"strings"
	"time"
)

// MinWard and MaxWard bound the valid ward number range for the city.
const (
	MinWard = 1
	MaxWard = 50
)

// WardRecord is the reconciled, schema-complete representation of one ward
// and its elected official. It is the long-lived artifact whose lifetime
// spans pipeline runs: the previous run's records are the baseline the next
// run diffs against.
type WardRecord struct {
	Ward            int      `json:"ward"`
	OfficialName    string   `json:"official_name"`
	OfficeAddress   string   `json:"office_address"`
	OfficeCity      string   `json:"office_city"`
	OfficeState     string   `json:"office_state"`
	OfficeZip       string   `json:"office_zip"`
	OfficePhone     string   `json:"office_phone"`
	OfficeFax       string   `json:"office_fax,omitempty"`
	Email           string   `json:"email"`
	Website         string   `json:"website,omitempty"`
	CityHallAddress string   `json:"city_hall_address"`
	CityHallPhone   string   `json:"city_hall_phone"`
	PhotoURL        string   `json:"photo_url,omitempty"`
	Neighborhoods   []string `json:"neighborhoods"`
	Latitude        float64  `json:"latitude"`
	Longitude       float64  `json:"longitude"`
}

// ValidWard reports whether n is inside [MinWard, MaxWard].
func ValidWard(n int) bool {
	return n >= MinWard && n <= MaxWard
}

// ValidWard reports whether the record's ward number is inside [MinWard, MaxWard].
func (r WardRecord) ValidWard() bool {
	return ValidWard(r.Ward)
}

// HasLocation reports whether the record carries a real coordinate.
// The feed omits coordinates for some wards and those normalize to (0, 0),
// which callers must treat as unknown rather than a point in the Gulf of Guinea.
func (r WardRecord) HasLocation() bool {
	return r.Latitude != 0 || r.Longitude != 0
}

// Dataset is one full, versioned publication of the canonical records.
// Stores persist and retrieve datasets atomically as a unit; a reader never
// observes a partially written version.
type Dataset struct {
	Version     int64        `json:"version"`
	GeneratedAt time.Time    `json:"generated_at"`
	Wards       []WardRecord `json:"wards"`
}

// SortWards orders the records ascending by ward number.
func (d *Dataset) SortWards() {
	sort.Slice(d.Wards, func(i, j int) bool { return d.Wards[i].Ward < d.Wards[j].Ward })
}

// ChangeKind distinguishes a field-level value change from a ward that
// disappeared from the feed entirely.
type ChangeKind string

const (
	ChangeModified ChangeKind = "modified"
	ChangeRemoved  ChangeKind = "removed"
)

// FieldChange is one entry of a change report.
type FieldChange struct {
	Ward  int        `json:"ward"`
	Field string     `json:"field"`
	Old   string     `json:"old"`
	New   string     `json:"new"`
	Kind  ChangeKind `json:"kind"`
}

// ChangeReport lists every field-level delta between two dataset versions,
// ordered ascending by ward and then by FieldOrder. An empty report is a
// valid and common result.
type ChangeReport struct {
	GeneratedAt time.Time     `json:"generated_at"`
	Changes     []FieldChange `json:"changes"`
}

// Empty reports whether the run detected no changes.
func (r ChangeReport) Empty() bool { return len(r.Changes) == 0 }

// FieldOrder is the stable comparison order the change detector walks for
// every ward. Report consumers rely on this ordering being deterministic
// between runs.
var FieldOrder = []string{
	"official_name",
	"office_address",
	"office_city",
	"office_state",
	"office_zip",
	"office_phone",
	"office_fax",
	"email",
	"website",
	"city_hall_address",
	"city_hall_phone",
	"photo_url",
	"neighborhoods",
	"latitude",
	"longitude",
}

// FieldValue returns the comparable string form of the named field.
// Neighborhood lists and coordinates are flattened so the differ can apply
// exact-value equality uniformly.
func (r WardRecord) FieldValue(field string) string {
	switch field {
	case "official_name":
		return r.OfficialName
	case "office_address":
		return r.OfficeAddress
	case "office_city":
		return r.OfficeCity
	case "office_state":
		return r.OfficeState
	case "office_zip":
		return r.OfficeZip
	case "office_phone":
		return r.OfficePhone
	case "office_fax":
		return r.OfficeFax
	case "email":
		return r.Email
	case "website":
		return r.Website
	case "city_hall_address":
		return r.CityHallAddress
	case "city_hall_phone":
		return r.CityHallPhone
	case "photo_url":
		return r.PhotoURL
	case "neighborhoods":
		return strings.Join(r.Neighborhoods, "; ")
	case "latitude":
		return trimFloat(r.Latitude)
	case "longitude":
		return trimFloat(r.Longitude)
	default:
		return ""
	}
}
