package env

import "time"

// Source produces the per-tick buffer set for a timestamp. Implementations
// outside the core load real gridded data (with nearest-time selection); the
// synthetic source below backs tests and the explicit void/demo mode.
type Source interface {
	BuffersAt(t time.Time) (*BufferSet, error)
}

// Ranged is implemented by sources whose data covers a bounded time span.
type Ranged interface {
	TimeRange() (start, end time.Time)
}

// LoopingSource wraps a bounded source so requests past its coverage wrap
// around via LoopTime instead of pinning to the last field.
type LoopingSource struct {
	src        Source
	start, end time.Time
}

// NewLoopingSource wraps src with the given coverage.
func NewLoopingSource(src Source, start, end time.Time) *LoopingSource {
	return &LoopingSource{src: src, start: start, end: end}
}

// BuffersAt forwards to the wrapped source at the looped timestamp.
func (s *LoopingSource) BuffersAt(t time.Time) (*BufferSet, error) {
	return s.src.BuffersAt(LoopTime(t, s.start, s.end))
}

// WrapLooping wraps src in a LoopingSource when it declares a bounded,
// non-empty range. Unbounded sources pass through unchanged.
func WrapLooping(src Source) Source {
	r, ok := src.(Ranged)
	if !ok {
		return src
	}
	start, end := r.TimeRange()
	if !end.After(start) {
		return src
	}
	return NewLoopingSource(src, start, end)
}

// LoopTime maps a requested timestamp into [start, end) by modulo of the
// range, so simulations longer than the dataset's temporal coverage wrap
// around to the beginning instead of pinning to the last field.
func LoopTime(t, start, end time.Time) time.Time {
	span := end.Sub(start)
	if span <= 0 {
		return start
	}
	offset := t.Sub(start) % span
	if offset < 0 {
		offset += span
	}
	return start.Add(offset)
}
