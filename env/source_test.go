package env

import (
	"math"
	"testing"
	"time"
)

// plainSource has no declared range and must pass through WrapLooping.
type plainSource struct{}

func (plainSource) BuffersAt(t time.Time) (*BufferSet, error) {
	return NewBufferSet(t), nil
}

func TestWrapLoopingPassthrough(t *testing.T) {
	src := plainSource{}
	if wrapped := WrapLooping(src); wrapped != Source(src) {
		t.Errorf("unbounded source was wrapped: %T", wrapped)
	}

	empty := NewSyntheticSource(SyntheticConfig{
		Rows: 4, Cols: 4, LatStep: 0.01, LonStep: 0.01,
		SpanDays: 0,
	})
	if wrapped := WrapLooping(empty); wrapped != Source(empty) {
		t.Errorf("zero-span source was wrapped: %T", wrapped)
	}
}

func TestWrapLoopingBoundsRequests(t *testing.T) {
	src := NewSyntheticSource(DefaultSyntheticConfig(3))
	start, end := src.TimeRange()

	looped, ok := WrapLooping(src).(*LoopingSource)
	if !ok {
		t.Fatalf("ranged source not wrapped")
	}

	tests := []struct {
		name string
		req  time.Time
		want time.Time
	}{
		{"in range", start.Add(2 * time.Hour), start.Add(2 * time.Hour)},
		{"past end", end.Add(5 * time.Hour), start.Add(5 * time.Hour)},
		{"before start", start.Add(-3 * time.Hour), end.Add(-3 * time.Hour)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := looped.BuffersAt(tt.req)
			if err != nil {
				t.Fatalf("BuffersAt: %v", err)
			}
			if !set.Time.Equal(tt.want) {
				t.Errorf("set time = %v, want %v", set.Time, tt.want)
			}
		})
	}
}

func TestLoopingSourceMatchesDirectQuery(t *testing.T) {
	src := NewSyntheticSource(DefaultSyntheticConfig(11))
	start, end := src.TimeRange()
	looped := NewLoopingSource(src, start, end)

	wrapped, err := looped.BuffersAt(end.Add(7 * time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	direct, err := src.BuffersAt(start.Add(7 * time.Hour))
	if err != nil {
		t.Fatal(err)
	}

	a := wrapped.Get(VarWaveHeight)
	b := direct.Get(VarWaveHeight)
	for _, rc := range [][2]int{{10, 10}, {50, 80}, {90, 20}} {
		got, want := a.At(rc[0], rc[1]), b.At(rc[0], rc[1])
		if math.IsNaN(got) && math.IsNaN(want) {
			continue
		}
		if got != want {
			t.Errorf("wave at (%d,%d) = %v, want %v", rc[0], rc[1], got, want)
		}
	}
}
