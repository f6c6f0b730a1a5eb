package crawl

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/civicpie/wardsync/internal/civic"
	"github.com/civicpie/wardsync/internal/extract"
)

func extraction(ward int, stage civic.Stage, fields map[string]string) extract.RawExtraction {
	return extract.RawExtraction{Ward: ward, Stage: stage, Fields: fields}
}

func TestMergeLastNonEmptyWins(t *testing.T) {
	t.Parallel()

	acc := newAccumulator()
	acc.merge(extraction(3, civic.StageEntity, map[string]string{
		"official_name": "Pat Dowell",
		"office_phone":  "(773) 373-9273",
	}))
	acc.merge(extraction(3, civic.StageSite, map[string]string{
		"site_title": "3rd Ward Chicago",
	}))

	records := acc.records()
	require.Len(t, records, 1)
	require.Equal(t, "Pat Dowell", records[0].Fields["official_name"])
	require.Equal(t, "(773) 373-9273", records[0].Fields["office_phone"])
	require.Equal(t, "3rd Ward Chicago", records[0].Fields["site_title"])
	require.Equal(t, 2, records[0].Pages)
}

func TestMergeOrderIndependenceForDisjointFields(t *testing.T) {
	t.Parallel()

	extractions := []extract.RawExtraction{
		extraction(7, civic.StageEntity, map[string]string{"official_name": "Greg Mitchell"}),
		extraction(7, civic.StageSite, map[string]string{"site_title": "Ward 7"}),
		extraction(7, civic.StageSubpage, map[string]string{"content_about": "About the ward."}),
		extraction(7, civic.StageSubpage, map[string]string{"content_news": "Latest updates."}),
	}

	// All permutations of four extractions must converge on the same record.
	var baseline map[string]string
	permute(extractions, func(perm []extract.RawExtraction) {
		acc := newAccumulator()
		for _, ex := range perm {
			acc.merge(ex)
		}
		records := acc.records()
		require.Len(t, records, 1)
		if baseline == nil {
			baseline = records[0].Fields
			return
		}
		require.Equal(t, baseline, records[0].Fields)
	})
}

func permute(items []extract.RawExtraction, visit func([]extract.RawExtraction)) {
	var rec func(k int)
	rec = func(k int) {
		if k == len(items) {
			visit(append([]extract.RawExtraction(nil), items...))
			return
		}
		for i := k; i < len(items); i++ {
			items[k], items[i] = items[i], items[k]
			rec(k + 1)
			items[k], items[i] = items[i], items[k]
		}
	}
	rec(0)
}

func TestMergeIgnoresWardZero(t *testing.T) {
	t.Parallel()

	acc := newAccumulator()
	acc.merge(extraction(0, civic.StageDirectory, map[string]string{"x": "y"}))
	require.Empty(t, acc.records())
}

func TestMergeCapsNewsAndMeetings(t *testing.T) {
	t.Parallel()

	acc := newAccumulator()
	for page := 0; page < 3; page++ {
		var news []extract.NewsItem
		for i := 0; i < 6; i++ {
			news = append(news, extract.NewsItem{Title: fmt.Sprintf("page %d item %d", page, i)})
		}
		acc.merge(extract.RawExtraction{Ward: 4, Stage: civic.StageSite, News: news})
	}

	records := acc.records()
	require.Len(t, records[0].News, maxCollectionItems)
}

func TestMergeContactFieldwise(t *testing.T) {
	t.Parallel()

	acc := newAccumulator()
	acc.merge(extract.RawExtraction{Ward: 9, Stage: civic.StageSite, Contact: &extract.ContactInfo{Phone: "555-0100"}})
	acc.merge(extract.RawExtraction{Ward: 9, Stage: civic.StageSubpage, Contact: &extract.ContactInfo{Email: "office@ward9.org"}})

	records := acc.records()
	require.NotNil(t, records[0].Contact)
	require.Equal(t, "555-0100", records[0].Contact.Phone)
	require.Equal(t, "office@ward9.org", records[0].Contact.Email)
}

func TestRecordsSortedByWard(t *testing.T) {
	t.Parallel()

	acc := newAccumulator()
	for _, ward := range []int{30, 2, 17} {
		acc.merge(extraction(ward, civic.StageEntity, map[string]string{"official_name": "x"}))
	}
	records := acc.records()
	require.Equal(t, []int{2, 17, 30}, []int{records[0].Ward, records[1].Ward, records[2].Ward})
}
