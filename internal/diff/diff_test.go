package diff

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/civicpie/wardsync/internal/civic"
	"github.com/civicpie/wardsync/internal/metrics"
)

func init() {
	metrics.Init()
}

func baselineWards() []civic.WardRecord {
	return []civic.WardRecord{
		{
			Ward:          1,
			OfficialName:  "Daniel La Spata",
			OfficePhone:   "(872) 206-2685",
			Email:         "info@the1stward.com",
			Neighborhoods: []string{"Logan Square", "West Town"},
		},
		{
			Ward:         5,
			OfficialName: "Desmon Yancy",
			Email:        "ward05@cityofchicago.org",
		},
		{
			Ward:         9,
			OfficialName: "Anthony Beale",
		},
	}
}

func TestDiffIdenticalDatasetsIsEmpty(t *testing.T) {
	t.Parallel()

	wards := baselineWards()
	report := Diff(wards, wards)
	require.True(t, report.Empty())
}

func TestDiffSingleFieldChange(t *testing.T) {
	t.Parallel()

	previous := baselineWards()
	current := baselineWards()
	current[1].Email = "newoffice@cityofchicago.org"

	report := Diff(previous, current)
	require.Len(t, report.Changes, 1)

	change := report.Changes[0]
	require.Equal(t, 5, change.Ward)
	require.Equal(t, "email", change.Field)
	require.Equal(t, "ward05@cityofchicago.org", change.Old)
	require.Equal(t, "newoffice@cityofchicago.org", change.New)
	require.Equal(t, civic.ChangeModified, change.Kind)
}

func TestDiffNewWardReportsChangesFromEmpty(t *testing.T) {
	t.Parallel()

	current := []civic.WardRecord{{Ward: 3, OfficialName: "Pat Dowell", Email: "ward03@cityofchicago.org"}}
	report := Diff(nil, current)

	require.Len(t, report.Changes, 2)
	require.Equal(t, "official_name", report.Changes[0].Field)
	require.Equal(t, "", report.Changes[0].Old)
	require.Equal(t, "Pat Dowell", report.Changes[0].New)
	require.Equal(t, "email", report.Changes[1].Field)
}

func TestDiffRemovedWard(t *testing.T) {
	t.Parallel()

	previous := baselineWards()
	current := baselineWards()[:2]

	report := Diff(previous, current)
	require.Len(t, report.Changes, 1)

	change := report.Changes[0]
	require.Equal(t, 9, change.Ward)
	require.Equal(t, "ward", change.Field)
	require.Equal(t, "Anthony Beale", change.Old)
	require.Equal(t, civic.ChangeRemoved, change.Kind)
}

func TestDiffOrderingWardThenField(t *testing.T) {
	t.Parallel()

	previous := baselineWards()
	current := baselineWards()
	current[2].OfficialName = "New Person"
	current[2].Email = "new@cityofchicago.org"
	current[0].OfficePhone = "(555) 555-5555"

	report := Diff(previous, current)
	require.Len(t, report.Changes, 3)
	require.Equal(t, 1, report.Changes[0].Ward)
	require.Equal(t, "office_phone", report.Changes[0].Field)
	require.Equal(t, 9, report.Changes[1].Ward)
	require.Equal(t, "official_name", report.Changes[1].Field)
	require.Equal(t, 9, report.Changes[2].Ward)
	require.Equal(t, "email", report.Changes[2].Field)
}

func TestDiffMixedRemovalKeepsWardOrder(t *testing.T) {
	t.Parallel()

	// Ward 3 is removed while ward 9 is modified; the removal entry must
	// appear at ward 3's position, not after the modifications.
	previous := []civic.WardRecord{
		{Ward: 3, OfficialName: "Pat Dowell"},
		{Ward: 9, OfficialName: "Anthony Beale"},
	}
	current := []civic.WardRecord{
		{Ward: 9, OfficialName: "New Person"},
	}

	report := Diff(previous, current)
	require.Len(t, report.Changes, 2)

	require.Equal(t, 3, report.Changes[0].Ward)
	require.Equal(t, civic.ChangeRemoved, report.Changes[0].Kind)
	require.Equal(t, "Pat Dowell", report.Changes[0].Old)
	require.Equal(t, 9, report.Changes[1].Ward)
	require.Equal(t, civic.ChangeModified, report.Changes[1].Kind)

	for i := 1; i < len(report.Changes); i++ {
		require.LessOrEqual(t, report.Changes[i-1].Ward, report.Changes[i].Ward)
	}
}

func TestDiffNeighborhoodOrderMatters(t *testing.T) {
	t.Parallel()

	previous := []civic.WardRecord{{Ward: 2, Neighborhoods: []string{"Old Town", "Gold Coast"}}}
	current := []civic.WardRecord{{Ward: 2, Neighborhoods: []string{"Gold Coast", "Old Town"}}}

	report := Diff(previous, current)
	require.Len(t, report.Changes, 1)
	require.Equal(t, "neighborhoods", report.Changes[0].Field)
}
