// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package vqueue

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnqueue_NewFiresImmediate(t *testing.T) {
	q := New()
	isNew := q.Enqueue(100, 60, Key("1.2.3.4", "block"), "unblock", map[string]string{"client": "1.2.3.4"})
	require.True(t, isNew, "first Enqueue for a vkey should report isNew=true")
	require.Equal(t, 1, q.Len())
}

func TestEnqueue_RefreshDoesNotRefire(t *testing.T) {
	q := New()
	vkey := Key("1.2.3.4", "block")
	q.Enqueue(100, 60, vkey, "unblock", nil)
	isNew := q.Enqueue(101, 60, vkey, "unblock", nil)
	require.False(t, isNew, "refresh of an existing vkey should report isNew=false")
	require.Equal(t, 1, q.Len(), "refresh must not duplicate")
}

func TestTick_FiresInExpiryOrder(t *testing.T) {
	q := New()
	q.Enqueue(100, 60, Key("a", "block"), "unblock", nil) // expires 160
	q.Enqueue(100, 10, Key("b", "block"), "unblock", nil) // expires 110
	q.Enqueue(100, 30, Key("c", "block"), "unblock", nil) // expires 130

	fired := q.Tick(120)
	require.Len(t, fired, 1)
	require.Equal(t, Key("b", "block"), fired[0].VKey)

	fired = q.Tick(200)
	require.Len(t, fired, 2)
	require.Equal(t, Key("c", "block"), fired[0].VKey)
	require.Equal(t, Key("a", "block"), fired[1].VKey)
}

func TestFlush_Superset(t *testing.T) {
	q := New()
	q.Enqueue(100, 60, Key("1.2.3.4", "block"), "unblock", map[string]string{"client": "1.2.3.4"})
	q.Enqueue(100, 60, Key("5.6.7.8", "block"), "unblock", map[string]string{"client": "5.6.7.8"})

	fired := q.Flush(map[string]string{"client": "1.2.3.4"})
	require.Len(t, fired, 1)
	require.Equal(t, Key("1.2.3.4", "block"), fired[0].VKey)
	require.Equal(t, 1, q.Len(), "one entry should remain")
}

func TestFlush_EmptyFilterDrainsAll(t *testing.T) {
	q := New()
	q.Enqueue(100, 60, Key("a", "x"), "y", nil)
	q.Enqueue(100, 60, Key("b", "x"), "y", nil)

	fired := q.Flush(nil)
	require.Len(t, fired, 2)
	require.Zero(t, q.Len())
}

func TestNextWakeup_EmptyQueueUsesSentinel(t *testing.T) {
	q := New()
	require.Equal(t, int64(maxWakeup), q.NextWakeup(1000))
}

func TestNextWakeup_BoundedByFront(t *testing.T) {
	q := New()
	q.Enqueue(100, 5, Key("a", "x"), "y", nil)
	require.Equal(t, int64(5), q.NextWakeup(100))
}

func TestNextWakeup_NeverNegative(t *testing.T) {
	q := New()
	q.Enqueue(100, 5, Key("a", "x"), "y", nil)
	require.Equal(t, int64(0), q.NextWakeup(200))
}
