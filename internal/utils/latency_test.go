package utils

import (
	"testing"
	"time"
)

func TestLatencyTrackerEmpty(t *testing.T) {
	tracker := NewLatencyTracker(4)
	if tracker.Percentile(95) != 0 || tracker.Count() != 0 {
		t.Fatalf("empty tracker should report zero")
	}
}

func TestLatencyTrackerPercentiles(t *testing.T) {
	tracker := NewLatencyTracker(10)
	for i := 1; i <= 5; i++ {
		tracker.Observe(time.Duration(i) * time.Millisecond)
	}
	if got := tracker.Percentile(0); got != time.Millisecond {
		t.Fatalf("p0 = %v", got)
	}
	if got := tracker.Percentile(50); got != 3*time.Millisecond {
		t.Fatalf("p50 = %v", got)
	}
	if got := tracker.Percentile(100); got != 5*time.Millisecond {
		t.Fatalf("p100 = %v", got)
	}
}

func TestLatencyTrackerRingOverwritesOldest(t *testing.T) {
	tracker := NewLatencyTracker(3)
	for _, ms := range []int{100, 1, 2, 3} {
		tracker.Observe(time.Duration(ms) * time.Millisecond)
	}
	if tracker.Count() != 3 {
		t.Fatalf("Count = %d, want 3", tracker.Count())
	}
	if tracker.Total() != 4 {
		t.Fatalf("Total = %d, want 4", tracker.Total())
	}
	if got := tracker.Percentile(100); got != 3*time.Millisecond {
		t.Fatalf("oldest sample should be evicted, max = %v", got)
	}
}
