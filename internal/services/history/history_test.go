package history

import (
	"fmt"
	"testing"
)

func TestAppendEvictsOldest(t *testing.T) {
	tr := NewTracker(DefaultSize)
	for i := 0; i < 25; i++ {
		tr.Append(1, fmt.Sprintf("m%d", i))
		if tr.Len(1) > DefaultSize {
			t.Fatalf("history grew to %d", tr.Len(1))
		}
	}

	got := tr.Recent(1)
	if len(got) != DefaultSize {
		t.Fatalf("len: got %d, want %d", len(got), DefaultSize)
	}
	if got[0] != "m5" || got[len(got)-1] != "m24" {
		t.Errorf("window: first %q last %q", got[0], got[len(got)-1])
	}
}

func TestUsersAreIndependent(t *testing.T) {
	tr := NewTracker(3)
	tr.Append(1, "a")
	tr.Append(2, "b")
	tr.Clear(1)

	if tr.Len(1) != 0 {
		t.Errorf("user 1 not cleared")
	}
	if got := tr.Recent(2); len(got) != 1 || got[0] != "b" {
		t.Errorf("user 2: %v", got)
	}
}

func TestRecentReturnsCopy(t *testing.T) {
	tr := NewTracker(3)
	tr.Append(1, "a")
	got := tr.Recent(1)
	got[0] = "z"
	if tr.Recent(1)[0] != "a" {
		t.Error("Recent aliases internal buffer")
	}
}
