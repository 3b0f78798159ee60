// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package ratewindow implements the per-key sliding-window hit
// counter used for both the global threshold check and any
// per-trigger thresholds. Buckets are keyed by second-of-day so the
// counter tolerates limited out-of-order delivery from the tail
// source.
package ratewindow

// gracePeriod is the fixed 30-second tolerance window: buckets newer
// than the count window but within this grace period are retained
// (so a late-arriving record can still land in its correct bucket)
// but are not summed into the current crossing check.
const gracePeriod = 30

// Counter is a bucketed-by-second hit counter for one window size.
// The zero value is not usable; construct with New.
type Counter struct {
	window  int
	buckets map[int]map[string]int
}

// New returns a Counter with the given sliding-window size in
// seconds.
func New(window int) *Counter {
	return &Counter{window: window, buckets: make(map[int]map[string]int)}
}

// Hit records one occurrence of key at second s and reports whether
// the running count within the window (including this hit) exceeds
// threshold - i.e. this is the N+1'th hit, not the N'th.
//
// Steps, per second s and key k:
//  1. countWindow = s - window; bufferWindow = countWindow - 30.
//  2. Purge every bucket at or before bufferWindow.
//  3. Increment hits[s][k].
//  4. Sum hits[second][k] for every bucket with countWindow < second <=
//     s (buckets in (bufferWindow, countWindow] are kept for
//     out-of-order tolerance but excluded from the sum; buckets after
//     s belong to later, not-yet-processed records and must not count
//     toward this hit, which matters when s arrives out of order).
//  5. Fire only when that sum strictly exceeds threshold.
func (c *Counter) Hit(s int, key string, threshold int) bool {
	countWindow := s - c.window
	bufferWindow := countWindow - gracePeriod

	for sec := range c.buckets {
		if sec <= bufferWindow {
			delete(c.buckets, sec)
		}
	}

	bucket, ok := c.buckets[s]
	if !ok {
		bucket = make(map[string]int)
		c.buckets[s] = bucket
	}
	bucket[key]++

	sum := 0
	for sec, b := range c.buckets {
		if sec > countWindow && sec <= s {
			sum += b[key]
		}
	}

	return sum > threshold
}

// Clear discards all buckets. Called on the date/timezone-rollover
// CLEAR event and on config reload.
func (c *Counter) Clear() {
	c.buckets = make(map[int]map[string]int)
}

// Len reports the number of distinct second-buckets currently held,
// for metrics/diagnostics.
func (c *Counter) Len() int {
	return len(c.buckets)
}
