package mood

import (
	"errors"
	"testing"
)

func TestStateDefaultsToNeutral(t *testing.T) {
	var s State
	if s.Get() != Neutral {
		t.Errorf("got %q, want neutral", s.Get())
	}
}

func TestSet(t *testing.T) {
	var s State
	m, err := s.Set(" HAPPY ")
	if err != nil {
		t.Fatalf("Set: %v", err)
	}
	if m != Happy || s.Get() != Happy {
		t.Errorf("mood: got %q", s.Get())
	}

	_, err = s.Set("grumpy")
	if !errors.Is(err, ErrUnknownMood) {
		t.Fatalf("expected ErrUnknownMood, got %v", err)
	}
	if s.Get() != Happy {
		t.Errorf("unknown token mutated state to %q", s.Get())
	}
}

func TestEveryMoodHasAsides(t *testing.T) {
	for _, m := range All {
		if len(Asides(m)) == 0 {
			t.Errorf("%s: no asides", m)
		}
		if _, err := Parse(string(m)); err != nil {
			t.Errorf("%s: %v", m, err)
		}
	}
}
