// Package recorder collects rows of samples during a run and writes them out
// as CSV.
package recorder

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
)

// ErrNoRow is returned by Add before any row exists.
var ErrNoRow = errors.New("recorder: no row to add to")

// Recorder stores variable width rows. Values registered with Record or
// RecordFunc are sampled on every Update.
type Recorder struct {
	Titles []string
	Rows   [][]float64

	// Precision is the number of significant digits written by CSV. Zero
	// writes the shortest representation that round-trips.
	Precision int

	sources []func() float64
}

func New() *Recorder {
	return &Recorder{}
}

// Record samples *v on every Update.
func (r *Recorder) Record(v *float64, title string) {
	r.RecordFunc(func() float64 { return *v }, title)
}

func (r *Recorder) RecordFunc(f func() float64, title string) {
	r.Titles = append(r.Titles, title)
	r.sources = append(r.sources, f)
}

// Update appends a row holding the current value of every recorded source.
func (r *Recorder) Update() {
	row := make([]float64, len(r.sources))
	for i, f := range r.sources {
		row[i] = f()
	}
	r.Rows = append(r.Rows, row)
}

// Push appends a complete row.
func (r *Recorder) Push(row ...float64) {
	r.Rows = append(r.Rows, append([]float64(nil), row...))
}

// Add extends the last row.
func (r *Recorder) Add(vals ...float64) error {
	if len(r.Rows) == 0 {
		return ErrNoRow
	}
	last := len(r.Rows) - 1
	r.Rows[last] = append(r.Rows[last], vals...)
	return nil
}

func (r *Recorder) Len() int { return len(r.Rows) }

// Column returns the i-th value of every row that has one.
func (r *Recorder) Column(i int) []float64 {
	out := make([]float64, 0, len(r.Rows))
	for _, row := range r.Rows {
		if i < len(row) {
			out = append(out, row[i])
		}
	}
	return out
}

func (r *Recorder) Reset() {
	r.Rows = r.Rows[:0]
}

func (r *Recorder) format(v float64) string {
	if r.Precision > 0 {
		return strconv.FormatFloat(v, 'g', r.Precision, 64)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// CSV writes the header (titles, or r.Titles when none are given) followed
// by every row.
func (r *Recorder) CSV(w io.Writer, titles ...string) error {
	if len(titles) == 0 {
		titles = r.Titles
	}

	cw := csv.NewWriter(w)
	if len(titles) > 0 {
		if err := cw.Write(titles); err != nil {
			return err
		}
	}

	rec := make([]string, 0, len(titles))
	for _, row := range r.Rows {
		rec = rec[:0]
		for _, v := range row {
			rec = append(rec, r.format(v))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveCSV writes the recording to path.
func (r *Recorder) SaveCSV(path string, titles ...string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("recorder: %w", err)
	}
	if err := r.CSV(f, titles...); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
