// Package dataset implements the in-memory tabular dataset the pipeline is
// built around: ordered named columns, logically immutable, copy-on-derive.
// Every transformation returns a new Dataset that shares no mutable state
// with its input, so the train/validation partitions can be read from any
// number of per-label workers.
package dataset

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sensorcast/pkg/errors"
)

// Kind is the declared semantic type of a column.
type Kind int

const (
	// KindNumeric marks a float64-valued column.
	KindNumeric Kind = iota
	// KindString marks a string-valued column. Identifier and raw timestamp
	// columns are kept as strings so their native formatting survives a
	// load/store round trip.
	KindString
)

// Series is one named column. Accessors return the underlying storage; a
// Series is treated as immutable once it is part of a Dataset.
type Series struct {
	name string
	kind Kind
	nums []float64
	strs []string
}

// NewNumericSeries creates a float64-valued column.
func NewNumericSeries(name string, values []float64) *Series {
	return &Series{name: name, kind: KindNumeric, nums: values}
}

// NewStringSeries creates a string-valued column.
func NewStringSeries(name string, values []string) *Series {
	return &Series{name: name, kind: KindString, strs: values}
}

// Name returns the column name.
func (s *Series) Name() string { return s.name }

// Kind returns the declared column type.
func (s *Series) Kind() Kind { return s.kind }

// Len returns the number of values in the column.
func (s *Series) Len() int {
	if s.kind == KindNumeric {
		return len(s.nums)
	}
	return len(s.strs)
}

// Floats returns the numeric values in row order. It returns an error for a
// string column rather than converting implicitly.
func (s *Series) Floats() ([]float64, error) {
	if s.kind != KindNumeric {
		return nil, errors.NewValidationError("column", "not a numeric column", s.name)
	}
	return s.nums, nil
}

// Strings returns the string values in row order.
func (s *Series) Strings() ([]string, error) {
	if s.kind != KindString {
		return nil, errors.NewValidationError("column", "not a string column", s.name)
	}
	return s.strs, nil
}

// take builds a new Series holding the values at the given row indices.
func (s *Series) take(indices []int) *Series {
	out := &Series{name: s.name, kind: s.kind}
	if s.kind == KindNumeric {
		out.nums = make([]float64, len(indices))
		for i, idx := range indices {
			out.nums[i] = s.nums[idx]
		}
		return out
	}
	out.strs = make([]string, len(indices))
	for i, idx := range indices {
		out.strs[i] = s.strs[idx]
	}
	return out
}

// Dataset is an ordered sequence of rows sharing a fixed ordered set of
// named columns. Column order is insertion order.
type Dataset struct {
	cols  []*Series
	index map[string]int
	rows  int
}

// New creates a Dataset from the given columns. All columns must have the
// same length and distinct names.
func New(cols ...*Series) (*Dataset, error) {
	ds := &Dataset{index: make(map[string]int, len(cols))}
	for _, c := range cols {
		if len(ds.cols) == 0 {
			ds.rows = c.Len()
		} else if c.Len() != ds.rows {
			return nil, errors.NewLengthMismatchError("New", ds.rows, c.Len())
		}
		if _, dup := ds.index[c.Name()]; dup {
			return nil, errors.NewValidationError("columns", "duplicate column name", c.Name())
		}
		ds.index[c.Name()] = len(ds.cols)
		ds.cols = append(ds.cols, c)
	}
	return ds, nil
}

// NumRows returns the number of rows.
func (d *Dataset) NumRows() int { return d.rows }

// NumCols returns the number of columns.
func (d *Dataset) NumCols() int { return len(d.cols) }

// Names returns the column names in column order.
func (d *Dataset) Names() []string {
	names := make([]string, len(d.cols))
	for i, c := range d.cols {
		names[i] = c.Name()
	}
	return names
}

// Column returns read-only access to one column.
func (d *Dataset) Column(name string) (*Series, error) {
	i, ok := d.index[name]
	if !ok {
		return nil, errors.NewColumnNotFoundError("Column", name)
	}
	return d.cols[i], nil
}

// Select projects the dataset to the named columns, in the given order.
func (d *Dataset) Select(names ...string) (*Dataset, error) {
	cols := make([]*Series, 0, len(names))
	for _, name := range names {
		i, ok := d.index[name]
		if !ok {
			return nil, errors.NewColumnNotFoundError("Select", name)
		}
		cols = append(cols, d.cols[i])
	}
	out, err := New(cols...)
	if err != nil {
		return nil, err
	}
	out.rows = d.rows
	return out, nil
}

// Drop returns the dataset without the named columns.
func (d *Dataset) Drop(names ...string) (*Dataset, error) {
	dropped := make(map[string]bool, len(names))
	for _, name := range names {
		if _, ok := d.index[name]; !ok {
			return nil, errors.NewColumnNotFoundError("Drop", name)
		}
		dropped[name] = true
	}

	cols := make([]*Series, 0, len(d.cols)-len(dropped))
	for _, c := range d.cols {
		if !dropped[c.Name()] {
			cols = append(cols, c)
		}
	}
	out, err := New(cols...)
	if err != nil {
		return nil, err
	}
	out.rows = d.rows
	return out, nil
}

// WithColumn returns a new dataset with the column appended. When a column
// of the same name already exists it is replaced in place, keeping its
// position (last write wins).
func (d *Dataset) WithColumn(s *Series) (*Dataset, error) {
	if len(d.cols) > 0 && s.Len() != d.rows {
		return nil, errors.NewLengthMismatchError("WithColumn", d.rows, s.Len())
	}

	cols := make([]*Series, len(d.cols))
	copy(cols, d.cols)
	if i, ok := d.index[s.Name()]; ok {
		cols[i] = s
	} else {
		cols = append(cols, s)
	}
	out, err := New(cols...)
	if err != nil {
		return nil, err
	}
	if len(d.cols) == 0 {
		out.rows = s.Len()
	} else {
		out.rows = d.rows
	}
	return out, nil
}

// Matrix converts the named columns (all columns when none are named) into a
// dense row-major matrix for model input. Every referenced column must be
// numeric.
func (d *Dataset) Matrix(names ...string) (*mat.Dense, error) {
	if len(names) == 0 {
		names = d.Names()
	}
	if d.rows == 0 || len(names) == 0 {
		return nil, errors.NewEmptyDataError("Matrix")
	}

	m := mat.NewDense(d.rows, len(names), nil)
	for j, name := range names {
		col, err := d.Column(name)
		if err != nil {
			return nil, err
		}
		vals, err := col.Floats()
		if err != nil {
			return nil, err
		}
		for i := 0; i < d.rows; i++ {
			m.Set(i, j, vals[i])
		}
	}
	return m, nil
}

// Take builds a new dataset from the rows at the given indices, in the
// given order.
func (d *Dataset) Take(indices []int) *Dataset {
	cols := make([]*Series, len(d.cols))
	for i, c := range d.cols {
		cols[i] = c.take(indices)
	}
	out := &Dataset{cols: cols, index: make(map[string]int, len(cols)), rows: len(indices)}
	for i, c := range cols {
		out.index[c.Name()] = i
	}
	return out
}
