// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package ratewindow

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestCounter_ThresholdCrossing reproduces the threshold scenario:
// threshold=2 window=30s, five hits from the same key at seconds
// 100, 100, 101, 101, 102 - the 3rd hit (first line at 101) crosses.
func TestCounter_ThresholdCrossing(t *testing.T) {
	c := New(30)
	seconds := []int{100, 100, 101, 101, 102}
	crossedAt := -1
	for i, s := range seconds {
		if c.Hit(s, "10.1.1.1", 2) && crossedAt == -1 {
			crossedAt = i
		}
	}
	require.Equal(t, 2, crossedAt, "crossing should land on the 3rd hit")
}

// TestCounter_OutOfOrderTolerance reproduces the out-of-order
// scenario: threshold 2/30s, hits at 200, 201, 170, 202. The 170 hit
// must be retained (not purged) but excluded from the count; the 202
// hit crosses with exactly two in-window predecessors.
func TestCounter_OutOfOrderTolerance(t *testing.T) {
	c := New(30)

	require.False(t, c.Hit(200, "k", 2), "unexpected crossing at 200")
	require.False(t, c.Hit(201, "k", 2), "unexpected crossing at 201")
	require.False(t, c.Hit(170, "k", 2), "170 should not count toward the 202 window")

	_, ok := c.buckets[170]
	require.True(t, ok, "bucket for second 170 should be retained, not purged")

	require.True(t, c.Hit(202, "k", 2), "202 should cross with two in-window predecessors")
}

func TestCounter_Purge(t *testing.T) {
	c := New(30)
	c.Hit(100, "k", 100)
	c.Hit(400, "k", 100)
	_, ok := c.buckets[100]
	require.False(t, ok, "bucket 100 should have been purged by the time we hit at 400")
}

func TestCounter_Clear(t *testing.T) {
	c := New(30)
	c.Hit(100, "k", 100)
	c.Clear()
	require.Zero(t, c.Len())
}

func TestCounter_DistinctKeys(t *testing.T) {
	c := New(30)
	require.False(t, c.Hit(100, "a", 2), "unexpected crossing for a")
	require.False(t, c.Hit(100, "b", 2), "distinct key b should not inherit a's count")
}
