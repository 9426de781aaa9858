package storage

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySessionTrackerCompletesExactlyOnce(t *testing.T) {
	tracker := NewMemorySessionTracker()
	ctx := context.Background()
	const total = 50

	var completions atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < total; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := tracker.Append(ctx, "s1", FilePair{
				Original: fmt.Sprintf("photo-%d.png", i),
				Stored:   fmt.Sprintf("stored-%d.png", i),
			}, total)
			assert.NoError(t, err)
			if p.Complete {
				completions.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), completions.Load())

	pairs, err := tracker.Snapshot(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, pairs, total)

	seen := map[string]bool{}
	for _, p := range pairs {
		assert.False(t, seen[p.Original], "duplicate %s", p.Original)
		seen[p.Original] = true
	}
}

func TestMemorySessionTrackerIncompleteSession(t *testing.T) {
	tracker := NewMemorySessionTracker()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		p, err := tracker.Append(ctx, "s1", FilePair{Original: fmt.Sprintf("%d.jpg", i), Stored: "x"}, 3)
		require.NoError(t, err)
		assert.False(t, p.Complete)
		assert.Equal(t, i+1, p.Received)
		assert.Equal(t, 3, p.Total)
	}
}

func TestMemorySessionTrackerSessionIsolation(t *testing.T) {
	tracker := NewMemorySessionTracker()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		for _, session := range []string{"a", "b"} {
			wg.Add(1)
			go func(session string, i int) {
				defer wg.Done()
				_, err := tracker.Append(ctx, session, FilePair{
					Original: fmt.Sprintf("%s-%d", session, i),
					Stored:   fmt.Sprintf("%s-stored-%d", session, i),
				}, 3)
				require.NoError(t, err)
			}(session, i)
		}
	}
	wg.Wait()

	for _, session := range []string{"a", "b"} {
		pairs, err := tracker.Snapshot(ctx, session)
		require.NoError(t, err)
		require.Len(t, pairs, 3)
		for _, p := range pairs {
			assert.Contains(t, p.Original, session+"-")
		}
	}
}

func TestMemorySessionTrackerKeepsArrivalOrder(t *testing.T) {
	tracker := NewMemorySessionTracker()
	ctx := context.Background()

	names := []string{"c.png", "a.png", "b.png"}
	for _, n := range names {
		_, err := tracker.Append(ctx, "s", FilePair{Original: n, Stored: "stored-" + n}, len(names))
		require.NoError(t, err)
	}

	pairs, err := tracker.Snapshot(ctx, "s")
	require.NoError(t, err)
	got := make([]string, len(pairs))
	for i, p := range pairs {
		got[i] = p.Original
	}
	assert.Equal(t, names, got)
}

func TestMemorySessionTrackerDuplicateNameDoesNotCount(t *testing.T) {
	tracker := NewMemorySessionTracker()
	ctx := context.Background()

	_, _ = tracker.Append(ctx, "s", FilePair{Original: "a.png", Stored: "1.png"}, 2)
	p, err := tracker.Append(ctx, "s", FilePair{Original: "a.png", Stored: "2.png"}, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Received)
	assert.False(t, p.Complete)

	pairs, _ := tracker.Snapshot(ctx, "s")
	require.Len(t, pairs, 1)
	assert.Equal(t, "2.png", pairs[0].Stored)
}

func TestMemorySessionTrackerRefusesArrivalsAfterCompletion(t *testing.T) {
	tracker := NewMemorySessionTracker()
	ctx := context.Background()

	_, _ = tracker.Append(ctx, "s", FilePair{Original: "a.png", Stored: "1.png"}, 2)
	p, err := tracker.Append(ctx, "s", FilePair{Original: "b.png", Stored: "2.png"}, 2)
	require.NoError(t, err)
	require.True(t, p.Complete)

	late, err := tracker.Append(ctx, "s", FilePair{Original: "c.png", Stored: "3.png"}, 2)
	require.NoError(t, err)
	assert.False(t, late.Complete)
	assert.True(t, late.Closed)
	assert.Equal(t, 2, late.Received)

	again, err := tracker.Append(ctx, "s", FilePair{Original: "a.png", Stored: "4.png"}, 2)
	require.NoError(t, err)
	assert.True(t, again.Closed)

	pairs, _ := tracker.Snapshot(ctx, "s")
	require.Len(t, pairs, 2)
	assert.Equal(t, "1.png", pairs[0].Stored)
	assert.Equal(t, "2.png", pairs[1].Stored)
}

func TestMemorySessionTrackerRemoveAndSweep(t *testing.T) {
	tracker := NewMemorySessionTracker()
	ctx := context.Background()
	now := time.Now()
	tracker.now = func() time.Time { return now }

	_, _ = tracker.Append(ctx, "old", FilePair{Original: "a", Stored: "a"}, 2)
	now = now.Add(2 * time.Hour)
	_, _ = tracker.Append(ctx, "fresh", FilePair{Original: "b", Stored: "b"}, 2)

	removed := tracker.Sweep(time.Hour)
	assert.Equal(t, []string{"old"}, removed)
	assert.Equal(t, 1, tracker.Len())

	require.NoError(t, tracker.Remove(ctx, "fresh"))
	pairs, err := tracker.Snapshot(ctx, "fresh")
	require.NoError(t, err)
	assert.Empty(t, pairs)
	assert.Equal(t, 0, tracker.Len())
}
