package dataset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/sensorcast/pkg/errors"
)

func sample(t *testing.T) *Dataset {
	t.Helper()
	ds, err := New(
		NewStringSeries("序号", []string{"1", "2", "3"}),
		NewNumericSeries("a", []float64{1, 2, 3}),
		NewNumericSeries("b", []float64{4, 5, 6}),
	)
	require.NoError(t, err)
	return ds
}

func TestNewRejectsLengthMismatch(t *testing.T) {
	_, err := New(
		NewNumericSeries("a", []float64{1, 2}),
		NewNumericSeries("b", []float64{1}),
	)
	var lm *errors.LengthMismatchError
	require.True(t, errors.As(err, &lm))
}

func TestSelectProjectsInOrder(t *testing.T) {
	ds := sample(t)

	out, err := ds.Select("b", "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, out.Names())
	assert.Equal(t, 3, out.NumRows())

	// The input keeps its own column set.
	assert.Equal(t, []string{"序号", "a", "b"}, ds.Names())
}

func TestSelectUnknownColumn(t *testing.T) {
	ds := sample(t)

	_, err := ds.Select("missing")
	var cnf *errors.ColumnNotFoundError
	require.True(t, errors.As(err, &cnf))
	assert.Equal(t, "missing", cnf.Column)
}

func TestDrop(t *testing.T) {
	ds := sample(t)

	out, err := ds.Drop("序号")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, out.Names())

	_, err = ds.Drop("nope")
	var cnf *errors.ColumnNotFoundError
	require.True(t, errors.As(err, &cnf))
}

func TestWithColumnAppends(t *testing.T) {
	ds := sample(t)

	out, err := ds.WithColumn(NewNumericSeries("c", []float64{7, 8, 9}))
	require.NoError(t, err)
	assert.Equal(t, []string{"序号", "a", "b", "c"}, out.Names())
	assert.Equal(t, 3, ds.NumCols(), "input dataset must not grow")
}

func TestWithColumnReplacesExisting(t *testing.T) {
	ds := sample(t)

	out, err := ds.WithColumn(NewNumericSeries("a", []float64{9, 9, 9}))
	require.NoError(t, err)
	assert.Equal(t, []string{"序号", "a", "b"}, out.Names(), "replace keeps position, no duplicate")

	col, err := out.Column("a")
	require.NoError(t, err)
	vals, err := col.Floats()
	require.NoError(t, err)
	assert.Equal(t, []float64{9, 9, 9}, vals)

	// Original column unchanged.
	orig, _ := ds.Column("a")
	origVals, _ := orig.Floats()
	assert.Equal(t, []float64{1, 2, 3}, origVals)
}

func TestWithColumnLengthMismatch(t *testing.T) {
	ds := sample(t)

	_, err := ds.WithColumn(NewNumericSeries("c", []float64{1}))
	var lm *errors.LengthMismatchError
	require.True(t, errors.As(err, &lm))
	assert.Equal(t, 3, lm.Expected)
	assert.Equal(t, 1, lm.Got)
}

func TestMatrix(t *testing.T) {
	ds := sample(t)

	m, err := ds.Matrix("a", "b")
	require.NoError(t, err)
	r, c := m.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, 4.0, m.At(0, 1))

	_, err = ds.Matrix("序号")
	require.Error(t, err, "string column must not convert implicitly")
}

func TestTakeReordersRows(t *testing.T) {
	ds := sample(t)

	out := ds.Take([]int{2, 0})
	assert.Equal(t, 2, out.NumRows())
	col, _ := out.Column("a")
	vals, _ := col.Floats()
	assert.Equal(t, []float64{3, 1}, vals)
}

func TestCSVRoundTrip(t *testing.T) {
	in := "序号,时间,a\n1,2023/3/1 0:00,1.5\n2,2023/3/1 0:15,2.5\n"
	ds, err := ReadCSV(strings.NewReader(in), Schema{IDColumn: "序号", TimeColumn: "时间"})
	require.NoError(t, err)
	assert.Equal(t, 2, ds.NumRows())

	idCol, err := ds.Column("序号")
	require.NoError(t, err)
	assert.Equal(t, KindString, idCol.Kind())

	aCol, err := ds.Column("a")
	require.NoError(t, err)
	vals, err := aCol.Floats()
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, 2.5}, vals)

	var sb strings.Builder
	require.NoError(t, WriteCSV(&sb, ds))
	assert.Contains(t, sb.String(), "序号")
	assert.Contains(t, sb.String(), "2023/3/1 0:15")
}

func TestReadCSVRejectsNonNumeric(t *testing.T) {
	in := "序号,a\n1,oops\n"
	_, err := ReadCSV(strings.NewReader(in), Schema{IDColumn: "序号"})
	var ve *errors.ValidationError
	require.True(t, errors.As(err, &ve))
}
