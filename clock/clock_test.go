package clock

import (
	"testing"
	"time"
)

func TestFixed(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	c := NewFixed(start)

	if !c.Now().Equal(start) {
		t.Fatalf("Now() = %v, want %v", c.Now(), start)
	}

	c.Advance(90 * time.Minute)
	if want := start.Add(90 * time.Minute); !c.Now().Equal(want) {
		t.Errorf("after Advance: %v, want %v", c.Now(), want)
	}

	later := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	c.Set(later)
	if !c.Now().Equal(later) {
		t.Errorf("after Set: %v, want %v", c.Now(), later)
	}
}

func TestFunc(t *testing.T) {
	pinned := time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC)
	var c Clock = Func(func() time.Time { return pinned })
	if !c.Now().Equal(pinned) {
		t.Errorf("Func clock = %v", c.Now())
	}
}
