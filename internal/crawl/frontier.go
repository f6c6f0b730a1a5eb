package crawl

import (
	"context"
	"sync"
)

// frontier owns the pending/in-flight task set. A (url, stage) pair is
// admitted at most once per run; the task channel closes itself once no
// task remains outstanding, which is how workers learn the run is drained.
type frontier struct {
	tasks chan Task

	mu          sync.Mutex
	seen        map[taskKey]struct{}
	outstanding int
	perWard     map[int]int
	closed      bool
}

type taskKey struct {
	url   string
	stage string
}

func newFrontier(depth int) *frontier {
	if depth <= 0 {
		depth = 128
	}
	return &frontier{
		tasks:   make(chan Task, depth),
		seen:    make(map[taskKey]struct{}),
		perWard: make(map[int]int),
	}
}

// enqueue admits the task unless its (url, stage) pair was already seen.
// The hand-off to the channel happens asynchronously so a worker enqueueing
// successors can never deadlock against a full queue.
func (f *frontier) enqueue(ctx context.Context, task Task) bool {
	key := taskKey{url: task.URL, stage: string(task.Stage)}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return false
	}
	if _, dup := f.seen[key]; dup {
		f.mu.Unlock()
		return false
	}
	f.seen[key] = struct{}{}
	f.outstanding++
	if task.Ward != 0 {
		f.perWard[task.Ward]++
	}
	f.mu.Unlock()

	go func() {
		select {
		case f.tasks <- task:
		case <-ctx.Done():
			f.done(task)
		}
	}()
	return true
}

// done marks a claimed (or abandoned) task complete. When the last
// outstanding task finishes the channel closes and workers drain out.
// It returns true when the task was the last one referencing its ward,
// i.e. the entity is now terminal.
func (f *frontier) done(task Task) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	entityDone := false
	if task.Ward != 0 {
		f.perWard[task.Ward]--
		entityDone = f.perWard[task.Ward] == 0
	}
	f.outstanding--
	if f.outstanding == 0 && !f.closed {
		f.closed = true
		close(f.tasks)
	}
	return entityDone
}
