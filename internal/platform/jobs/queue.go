package jobs

import "container/heap"

// jobQueue is a min-heap of pending jobs ordered by run time, with a tag
// index for cancellation. Canceled entries stay in the heap marked dead and
// are discarded when they surface.
type jobQueue struct {
	items  []*queueItem
	byTag  map[string]*queueItem
}

type queueItem struct {
	job      Job
	canceled bool
}

func newJobQueue() *jobQueue {
	q := &jobQueue{byTag: make(map[string]*queueItem)}
	heap.Init(q)
	return q
}

func (q *jobQueue) Len() int { return len(q.items) }

func (q *jobQueue) Less(i, j int) bool {
	return q.items[i].job.RunAt.Before(q.items[j].job.RunAt)
}

func (q *jobQueue) Swap(i, j int) {
	q.items[i], q.items[j] = q.items[j], q.items[i]
}

func (q *jobQueue) Push(x any) {
	item, ok := x.(*queueItem)
	if !ok {
		return
	}
	q.items = append(q.items, item)
}

func (q *jobQueue) Pop() any {
	n := len(q.items)
	if n == 0 {
		return nil
	}
	item := q.items[n-1]
	q.items = q.items[:n-1]
	return item
}

// add pushes a job, replacing any live entry with the same tag.
func (q *jobQueue) add(job Job) {
	if prev, ok := q.byTag[job.Tag]; ok {
		prev.canceled = true
	}
	item := &queueItem{job: job}
	q.byTag[job.Tag] = item
	heap.Push(q, item)
}

// cancel marks the live entry for tag as dead. Unknown tags are a no-op.
func (q *jobQueue) cancel(tag string) {
	if item, ok := q.byTag[tag]; ok {
		item.canceled = true
		delete(q.byTag, tag)
	}
}

// peek returns the earliest live job without removing it, skimming off any
// dead entries that have reached the top.
func (q *jobQueue) peek() (Job, bool) {
	for q.Len() > 0 {
		top := q.items[0]
		if !top.canceled {
			return top.job, true
		}
		heap.Pop(q)
	}
	return Job{}, false
}

// pop removes and returns the earliest live job.
func (q *jobQueue) pop() (Job, bool) {
	if _, ok := q.peek(); !ok {
		return Job{}, false
	}
	item := heap.Pop(q).(*queueItem)
	if q.byTag[item.job.Tag] == item {
		delete(q.byTag, item.job.Tag)
	}
	return item.job, true
}

// pending counts live entries.
func (q *jobQueue) pending() int {
	return len(q.byTag)
}

// has reports whether a live entry exists for tag.
func (q *jobQueue) has(tag string) bool {
	_, ok := q.byTag[tag]
	return ok
}
