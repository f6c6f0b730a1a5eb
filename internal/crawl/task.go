// Package crawl implements the multi-stage crawl pipeline: the frontier
// that owns task lifecycles, the per-entity accumulator, and the worker
// pool that drives both.
package crawl

import (
	"github.com/civicpie/wardsync/internal/civic"
	"github.com/civicpie/wardsync/internal/extract"
)

// Task is one unit of crawl work. Tasks are immutable once enqueued; the
// frontier owns their lifecycle from creation to completion. Tasks can only
// be built through the stage-specific constructors, so the directory →
// entity → site → subpage progression is the only chain the type can
// express: there is no constructor that would extend a subpage.
type Task struct {
	URL      string
	Stage    civic.Stage
	Ward     int
	PageType civic.PageType
}

// DirectoryTask seeds a run. It is the sole entry point of the state
// machine; its failure is fatal to the run.
func DirectoryTask(url string) Task {
	return Task{URL: url, Stage: civic.StageDirectory}
}

func entityTask(ward int, url string) Task {
	return Task{URL: url, Stage: civic.StageEntity, Ward: ward}
}

func siteTask(ward int, url string) Task {
	return Task{URL: url, Stage: civic.StageSite, Ward: ward}
}

func subpageTask(ward int, pageType civic.PageType, url string) Task {
	return Task{URL: url, Stage: civic.StageSubpage, Ward: ward, PageType: pageType}
}

// successors maps an extraction's discovered links to the next stage's
// tasks. Subpage extractions have no successors, which is what bounds the
// crawl depth structurally.
func successors(task Task, ex extract.RawExtraction) []Task {
	var next []Task
	switch task.Stage {
	case civic.StageDirectory:
		for _, link := range ex.Links {
			next = append(next, entityTask(link.Ward, link.URL))
		}
	case civic.StageEntity:
		for _, link := range ex.Links {
			next = append(next, siteTask(link.Ward, link.URL))
		}
	case civic.StageSite:
		for _, link := range ex.Links {
			next = append(next, subpageTask(link.Ward, link.PageType, link.URL))
		}
	case civic.StageSubpage:
		// terminal
	}
	return next
}
