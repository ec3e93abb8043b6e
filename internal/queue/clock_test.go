package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClock_StrictlyIncreasing_SameMillisecond(t *testing.T) {
	fixed := time.UnixMilli(1700000000000)
	c := NewClockWithSource(func() time.Time { return fixed })

	first := c.Next()
	second := c.Next()
	third := c.Next()

	assert.Equal(t, int64(1700000000000), first)
	assert.Equal(t, first+1, second, "same-millisecond IDs bump by one")
	assert.Equal(t, second+1, third)
}

func TestClock_FollowsWallTime(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	c := NewClockWithSource(func() time.Time { return now })

	first := c.Next()
	now = now.Add(250 * time.Millisecond)
	second := c.Next()

	assert.Equal(t, first+250, second)
}

func TestClock_BackwardsWallTime(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	c := NewClockWithSource(func() time.Time { return now })

	first := c.Next()
	now = now.Add(-time.Hour)
	second := c.Next()

	assert.Equal(t, first+1, second, "clock never goes backwards")
}

func TestClock_Observe(t *testing.T) {
	now := time.UnixMilli(1000)
	c := NewClockWithSource(func() time.Time { return now })

	c.Observe(5000)
	id := c.Next()
	require.Greater(t, id, int64(5000), "observed IDs are never reissued")

	// Observing a smaller ID is a no-op.
	c.Observe(10)
	assert.Greater(t, c.Next(), id)
}

func TestClock_ConcurrentUnique(t *testing.T) {
	c := NewClock()
	const n = 200

	ids := make(chan int64, n)
	for i := 0; i < n; i++ {
		go func() { ids <- c.Next() }()
	}

	seen := make(map[int64]bool, n)
	for i := 0; i < n; i++ {
		id := <-ids
		require.False(t, seen[id], "duplicate ID %d", id)
		seen[id] = true
	}
}
