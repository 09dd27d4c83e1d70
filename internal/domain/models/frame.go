package models

import (
	"fmt"
	"math"
	"time"
)

// Frame is the columnar analysis table every pipeline stage reads and
// extends. Numeric series use NaN as the missing-value marker; downstream
// code must treat NaN as undefined, never as zero. Stages clone the frame
// they receive and attach their outputs to the clone, so a frame handed to a
// stage is never mutated.
type Frame struct {
	times  []time.Time
	cols   map[Column][]float64
	flags  map[Flag][]bool
	labels map[Label][]string
}

// NewFrame builds a frame from an ordered bar sequence. The five base
// columns are always present afterwards.
func NewFrame(bars []Bar) *Frame {
	n := len(bars)
	f := &Frame{
		times:  make([]time.Time, n),
		cols:   make(map[Column][]float64, 8),
		flags:  make(map[Flag][]bool, 4),
		labels: make(map[Label][]string, 2),
	}
	open := make([]float64, n)
	high := make([]float64, n)
	low := make([]float64, n)
	closes := make([]float64, n)
	volume := make([]float64, n)
	for i, b := range bars {
		f.times[i] = b.Time
		open[i] = b.Open
		high[i] = b.High
		low[i] = b.Low
		closes[i] = b.Close
		volume[i] = b.Volume
	}
	f.cols[ColOpen] = open
	f.cols[ColHigh] = high
	f.cols[ColLow] = low
	f.cols[ColClose] = closes
	f.cols[ColVolume] = volume
	return f
}

func (f *Frame) Len() int {
	return len(f.times)
}

func (f *Frame) Time(i int) time.Time {
	return f.times[i]
}

// Times returns the shared timestamp index. Callers must not modify it.
func (f *Frame) Times() []time.Time {
	return f.times
}

// Col returns the series for c, or nil when the frame does not carry it.
func (f *Frame) Col(c Column) []float64 {
	return f.cols[c]
}

func (f *Frame) HasCol(c Column) bool {
	_, ok := f.cols[c]
	return ok
}

// SetCol attaches a numeric series. The length must match the frame.
func (f *Frame) SetCol(c Column, vals []float64) {
	if len(vals) != f.Len() {
		panic(fmt.Sprintf("frame: column %s has %d values, frame has %d rows", c, len(vals), f.Len()))
	}
	f.cols[c] = vals
}

// Value returns the value at row i, or NaN when the column is absent.
func (f *Frame) Value(c Column, i int) float64 {
	col, ok := f.cols[c]
	if !ok {
		return math.NaN()
	}
	return col[i]
}

// Defined reports whether the value at row i exists and is not NaN.
func (f *Frame) Defined(c Column, i int) bool {
	col, ok := f.cols[c]
	return ok && !math.IsNaN(col[i])
}

// Flag returns the boolean series for fl, or nil when absent. Absent flags
// read as false through FlagAt.
func (f *Frame) Flag(fl Flag) []bool {
	return f.flags[fl]
}

func (f *Frame) HasFlag(fl Flag) bool {
	_, ok := f.flags[fl]
	return ok
}

func (f *Frame) SetFlag(fl Flag, vals []bool) {
	if len(vals) != f.Len() {
		panic(fmt.Sprintf("frame: flag %s has %d values, frame has %d rows", fl, len(vals), f.Len()))
	}
	f.flags[fl] = vals
}

func (f *Frame) FlagAt(fl Flag, i int) bool {
	col, ok := f.flags[fl]
	return ok && col[i]
}

// Label returns the categorical series for l, or nil when absent.
func (f *Frame) Label(l Label) []string {
	return f.labels[l]
}

func (f *Frame) HasLabel(l Label) bool {
	_, ok := f.labels[l]
	return ok
}

func (f *Frame) SetLabel(l Label, vals []string) {
	if len(vals) != f.Len() {
		panic(fmt.Sprintf("frame: label %s has %d values, frame has %d rows", l, len(vals), f.Len()))
	}
	f.labels[l] = vals
}

func (f *Frame) LabelAt(l Label, i int) string {
	col, ok := f.labels[l]
	if !ok {
		return ""
	}
	return col[i]
}

// SetTrends stores per-bar trend labels under the trend label column.
func (f *Frame) SetTrends(trends []Trend) {
	vals := make([]string, len(trends))
	for i, t := range trends {
		vals[i] = string(t)
	}
	f.SetLabel(LabelTrend, vals)
}

// Trends returns the trend labels, or nil when the frame has none.
func (f *Frame) Trends() []Trend {
	vals, ok := f.labels[LabelTrend]
	if !ok {
		return nil
	}
	out := make([]Trend, len(vals))
	for i, v := range vals {
		out[i] = Trend(v)
	}
	return out
}

// Clone returns a deep copy. The copy shares nothing with the original.
func (f *Frame) Clone() *Frame {
	c := &Frame{
		times:  append([]time.Time(nil), f.times...),
		cols:   make(map[Column][]float64, len(f.cols)),
		flags:  make(map[Flag][]bool, len(f.flags)),
		labels: make(map[Label][]string, len(f.labels)),
	}
	for k, v := range f.cols {
		c.cols[k] = append([]float64(nil), v...)
	}
	for k, v := range f.flags {
		c.flags[k] = append([]bool(nil), v...)
	}
	for k, v := range f.labels {
		c.labels[k] = append([]string(nil), v...)
	}
	return c
}

// Slice returns a new frame holding rows [from, Len), re-indexed from 0.
func (f *Frame) Slice(from int) *Frame {
	if from < 0 || from > f.Len() {
		panic(fmt.Sprintf("frame: slice from %d out of range (len %d)", from, f.Len()))
	}
	c := &Frame{
		times:  append([]time.Time(nil), f.times[from:]...),
		cols:   make(map[Column][]float64, len(f.cols)),
		flags:  make(map[Flag][]bool, len(f.flags)),
		labels: make(map[Label][]string, len(f.labels)),
	}
	for k, v := range f.cols {
		c.cols[k] = append([]float64(nil), v[from:]...)
	}
	for k, v := range f.flags {
		c.flags[k] = append([]bool(nil), v[from:]...)
	}
	for k, v := range f.labels {
		c.labels[k] = append([]string(nil), v[from:]...)
	}
	return c
}

// Bars rebuilds the bar sequence from the base columns.
func (f *Frame) Bars() []Bar {
	n := f.Len()
	bars := make([]Bar, n)
	open, high := f.cols[ColOpen], f.cols[ColHigh]
	low, closes, volume := f.cols[ColLow], f.cols[ColClose], f.cols[ColVolume]
	for i := 0; i < n; i++ {
		bars[i] = Bar{Time: f.times[i], Open: open[i], High: high[i], Low: low[i], Close: closes[i], Volume: volume[i]}
	}
	return bars
}
