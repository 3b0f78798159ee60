// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package vqueue implements the timed violation queue: a min-heap of
// pending expiries keyed by vkey ("client=action"), with update-in-
// place semantics and a perpetual NEVER sentinel so the queue front
// is always defined.
package vqueue

import "container/heap"

// Never is the sentinel expiry timestamp: 2^32 - 1 seconds, a value
// no real deadline will ever reach.
const Never = int64(1<<32 - 1)

// maxWakeup bounds how long the main loop may sleep even when the
// queue is otherwise empty, so periodic work (reload checks, metrics)
// still happens during quiet periods.
const maxWakeup = 60

// Key joins client and action name into the vkey that uniquely
// identifies an in-flight violation.
func Key(client, action string) string {
	return client + "=" + action
}

// Entry is one pending expiry: the expire action to fire, its
// template-expansion argument snapshot, and the vkey that dedupes it.
type Entry struct {
	ExpireAt     int64
	ExpireAction string
	Args         map[string]string
	VKey         string
	index        int
}

type entryHeap []*Entry

func (h entryHeap) Len() int            { return len(h) }
func (h entryHeap) Less(i, j int) bool  { return h[i].ExpireAt < h[j].ExpireAt }
func (h entryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *entryHeap) Push(x any) {
	e := x.(*Entry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// Queue is the heap-backed violation queue. The zero value is not
// usable; construct with New.
type Queue struct {
	h     entryHeap
	byKey map[string]*Entry
}

// New returns an empty Queue, already seeded with the NEVER sentinel.
func New() *Queue {
	q := &Queue{byKey: make(map[string]*Entry)}
	heap.Init(&q.h)
	heap.Push(&q.h, &Entry{ExpireAt: Never})
	return q
}

// Enqueue records a violation for vkey expiring at now+duration. If
// vkey already has a live entry, its deadline is pushed forward and
// isNew is false (a refresh, not a new violation - the caller should
// not re-fire the immediate action). Otherwise a new entry is
// inserted and isNew is true (the caller must fire the immediate
// violation action).
func (q *Queue) Enqueue(now, duration int64, vkey, expireAction string, args map[string]string) (isNew bool) {
	expireAt := now + duration

	if e, ok := q.byKey[vkey]; ok {
		e.ExpireAt = expireAt
		e.ExpireAction = expireAction
		e.Args = args
		heap.Fix(&q.h, e.index)
		return false
	}

	e := &Entry{ExpireAt: expireAt, ExpireAction: expireAction, Args: args, VKey: vkey}
	heap.Push(&q.h, e)
	q.byKey[vkey] = e
	return true
}

// Tick pops and returns every entry whose ExpireAt has passed as of
// now, in expiry order. The sentinel (ExpireAt == Never) is never
// popped.
func (q *Queue) Tick(now int64) []*Entry {
	var fired []*Entry
	for q.h.Len() > 0 && q.h[0].VKey != "" && q.h[0].ExpireAt <= now {
		e := heap.Pop(&q.h).(*Entry)
		delete(q.byKey, e.VKey)
		fired = append(fired, e)
	}
	return fired
}

// Flush removes and returns every non-sentinel entry whose argument map
// is a superset of filter (a nil or empty filter matches everything).
// The sentinel is left in place.
func (q *Queue) Flush(filter map[string]string) []*Entry {
	var fired []*Entry
	kept := make(entryHeap, 0, len(q.h))

	for _, e := range q.h {
		if e.VKey != "" && isSuperset(e.Args, filter) {
			fired = append(fired, e)
			delete(q.byKey, e.VKey)
			continue
		}
		kept = append(kept, e)
	}

	q.h = kept
	heap.Init(&q.h)
	return fired
}

func isSuperset(args, filter map[string]string) bool {
	for k, v := range filter {
		if args[k] != v {
			return false
		}
	}
	return true
}

// NextWakeup computes how long the main loop may sleep before the
// front of the queue next needs attention: max(0, min(60,
// front.ExpireAt - now)).
func (q *Queue) NextWakeup(now int64) int64 {
	wait := q.h[0].ExpireAt - now
	if wait > maxWakeup {
		wait = maxWakeup
	}
	if wait < 0 {
		wait = 0
	}
	return wait
}

// Entries returns every non-sentinel entry currently queued, for
// dump/debug output. Order is unspecified (heap order).
func (q *Queue) Entries() []*Entry {
	out := make([]*Entry, 0, len(q.h))
	for _, e := range q.h {
		if e.VKey != "" {
			out = append(out, e)
		}
	}
	return out
}

// Len reports the number of live (non-sentinel) entries.
func (q *Queue) Len() int {
	return len(q.h) - 1
}
