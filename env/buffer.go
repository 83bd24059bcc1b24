// Package env provides the per-tick environment buffer set and the stateless
// point query that agents use to sense their surroundings. Buffers are regular
// lat/lon rasters; NaN cells encode missing data, which for the depth layer
// doubles as the land mask.
package env

import (
	"math"
	"time"
)

// Variable names used as BufferSet keys. Downstream record schemas depend on
// these staying stable.
const (
	VarDepth       = "depth"
	VarWaveHeight  = "wave_height"
	VarChlorophyll = "chlorophyll"
	VarTemperature = "temperature"
	VarCurrentU    = "current_u"
	VarCurrentV    = "current_v"
)

// Buffer is a single-variable raster with its grid descriptor.
// Data is row-major: Data[r*Cols+c], row r maps to latitude LatMin + r*LatStep.
type Buffer struct {
	Data    []float64
	LatMin  float64
	LonMin  float64
	LatStep float64
	LonStep float64
	Rows    int
	Cols    int
}

// NewBuffer allocates an all-NaN buffer with the given grid.
func NewBuffer(latMin, lonMin, latStep, lonStep float64, rows, cols int) *Buffer {
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = math.NaN()
	}
	return &Buffer{
		Data:    data,
		LatMin:  latMin,
		LonMin:  lonMin,
		LatStep: latStep,
		LonStep: lonStep,
		Rows:    rows,
		Cols:    cols,
	}
}

// Index returns the nearest-cell indices for a position. The result may be out
// of bounds; callers decide whether to skip or clamp.
func (b *Buffer) Index(lat, lon float64) (row, col int) {
	row = int(math.Round((lat - b.LatMin) / b.LatStep))
	col = int(math.Round((lon - b.LonMin) / b.LonStep))
	return row, col
}

// InBounds reports whether (row, col) addresses a cell.
func (b *Buffer) InBounds(row, col int) bool {
	return row >= 0 && row < b.Rows && col >= 0 && col < b.Cols
}

// Clamp forces indices into range.
func (b *Buffer) Clamp(row, col int) (int, int) {
	if row < 0 {
		row = 0
	} else if row >= b.Rows {
		row = b.Rows - 1
	}
	if col < 0 {
		col = 0
	} else if col >= b.Cols {
		col = b.Cols - 1
	}
	return row, col
}

// At returns the cell value. Panics on out-of-range indices, like a slice.
func (b *Buffer) At(row, col int) float64 {
	return b.Data[row*b.Cols+col]
}

// Set writes a cell value.
func (b *Buffer) Set(row, col int, v float64) {
	b.Data[row*b.Cols+col] = v
}

// CellCenter returns the (lat, lon) of a cell's center.
func (b *Buffer) CellCenter(row, col int) (lat, lon float64) {
	return b.LatMin + float64(row)*b.LatStep, b.LonMin + float64(col)*b.LonStep
}

// BufferSet is the read-only snapshot of all variable buffers for one tick.
// Different variables may live on different grids. Agents never mutate a set;
// the driver rebuilds it when the timestamp changes.
type BufferSet struct {
	Time    time.Time
	Buffers map[string]*Buffer
}

// NewBufferSet creates an empty set for a timestamp.
func NewBufferSet(t time.Time) *BufferSet {
	return &BufferSet{Time: t, Buffers: make(map[string]*Buffer)}
}

// Get returns the named buffer, or nil.
func (s *BufferSet) Get(name string) *Buffer {
	if s == nil {
		return nil
	}
	return s.Buffers[name]
}
