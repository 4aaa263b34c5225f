package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRingPublishAndGetCommit(t *testing.T) {
	r := newRing[int](3)
	r.Publish(10, 100)

	v, ok := r.getCommit(10)
	require.True(t, ok)
	require.Equal(t, 100, v)
	require.Equal(t, 100, r.getHead())
	require.Equal(t, Timestamp(10), r.Current())
}

func TestRingEvictsOldestBeyondDepth(t *testing.T) {
	r := newRing[int](2)
	r.Publish(1, 10)
	r.Publish(2, 20)
	r.Publish(3, 30)

	_, ok := r.getCommit(1)
	require.False(t, ok, "frame 1 should have been evicted")

	v, ok := r.getCommit(3)
	require.True(t, ok)
	require.Equal(t, 30, v)
}

func TestRingGetHistoryDataForwardRange(t *testing.T) {
	r := newRing[int](5)
	r.Publish(1, 10)
	r.Publish(2, 20)
	r.Publish(3, 30)

	got := r.getHistoryData(3, 1)
	require.Equal(t, []frameValue[int]{
		{Timestamp: 2, Value: 20},
		{Timestamp: 3, Value: 30},
	}, got)
}

func TestRingGetHistoryDataTimesOutWhenFrameNeverArrives(t *testing.T) {
	r := newRing[int](3)
	start := time.Now()
	got := r.getHistoryData(1_000_000, 0)
	elapsed := time.Since(start)

	require.Nil(t, got)
	require.GreaterOrEqual(t, elapsed, pullWait)
	require.Less(t, elapsed, pullWait+200*time.Millisecond)
}

func TestRingGetHistoryDataWakesOnPublish(t *testing.T) {
	r := newRing[int](3)
	done := make(chan []frameValue[int], 1)
	go func() {
		done <- r.getHistoryData(5, 0)
	}()

	time.Sleep(20 * time.Millisecond)
	r.Publish(5, 50)

	select {
	case got := <-done:
		require.Equal(t, []frameValue[int]{{Timestamp: 5, Value: 50}}, got)
	case <-time.After(pullWait):
		t.Fatal("getHistoryData did not wake up on publish")
	}
}

func TestRingGetReverseHistoryDataDescends(t *testing.T) {
	r := newRing[int](5)
	r.Publish(1, 10)
	r.Publish(2, 20)
	r.Publish(3, 30)

	got := r.getReverseHistoryData(0, 3)
	require.Equal(t, []frameValue[int]{
		{Timestamp: 3, Value: 30},
		{Timestamp: 2, Value: 20},
		{Timestamp: 1, Value: 10},
	}, got)
}

func TestRingRebaseOverwritesAndAdvancesCurrent(t *testing.T) {
	r := newRing[int](5)
	r.Publish(1, 10)
	r.Publish(2, 20)
	r.Publish(3, 30)

	newCurrent := r.rebase([]frameValue[int]{
		{Timestamp: 2, Value: 2020},
		{Timestamp: 4, Value: 40},
	})

	require.Equal(t, Timestamp(4), newCurrent)
	require.Equal(t, Timestamp(4), r.Current())

	v, ok := r.getCommit(2)
	require.True(t, ok)
	require.Equal(t, 2020, v)

	v, ok = r.getCommit(4)
	require.True(t, ok)
	require.Equal(t, 40, v)

	// A caller that has already consumed up through frame 2 has seen
	// data that the rebase above invalidated (the rebase's source is 1,
	// meaning everything after frame 1 was rewritten).
	_, source, found := r.rebasePoint(10, 2)
	require.True(t, found)
	require.Equal(t, Timestamp(1), source)
}

func TestRingRebaseIsSuppressedByLaterMarker(t *testing.T) {
	r := newRing[int](8)
	for ts := Timestamp(1); ts <= 6; ts++ {
		r.Publish(ts, int(ts)*10)
	}

	// This rebase rewrites history from frame 5 on and records a marker
	// whose source (4) is the last untouched frame.
	r.rebase([]frameValue[int]{{Timestamp: 5, Value: 555}, {Timestamp: 7, Value: 70}})
	before, _ := r.getCommit(2)

	// An older alternate history starting at frame 2 arrives late; its
	// earliest frame (2) is behind the recorded marker's source (4), so
	// it must be suppressed rather than overwrite fresher data.
	r.rebase([]frameValue[int]{{Timestamp: 2, Value: 222}})

	after, _ := r.getCommit(2)
	require.Equal(t, before, after, "a rebase suppressed by a later marker must not touch history")
}
