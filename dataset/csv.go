package dataset

import (
	"io"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	gseries "github.com/go-gota/gota/series"

	"github.com/YuminosukeSato/sensorcast/pkg/errors"
)

// Schema declares which columns carry non-numeric payloads. Column names are
// opaque identifiers taken from the source file; they are never translated.
type Schema struct {
	// IDColumn is the per-row unique key, kept as a string column.
	IDColumn string
	// TimeColumn is the raw timestamp column, kept as a string column until
	// feature extraction parses it.
	TimeColumn string
}

// ReadCSV loads a CSV table into a Dataset. Type detection is disabled on
// the gota side; the schema decides which columns stay strings, everything
// else is parsed as float64 at load time so later operations never have to
// re-infer cell types.
func ReadCSV(r io.Reader, schema Schema) (*Dataset, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(gseries.String),
	)
	if df.Err != nil {
		return nil, errors.Wrap(df.Err, "sensorcast: reading csv")
	}

	nrows, _ := df.Dims()
	records := df.Records() // records[0] is the header row
	names := df.Names()

	cols := make([]*Series, 0, len(names))
	for j, name := range names {
		if name == schema.IDColumn || name == schema.TimeColumn {
			vals := make([]string, nrows)
			for i := 0; i < nrows; i++ {
				vals[i] = records[i+1][j]
			}
			cols = append(cols, NewStringSeries(name, vals))
			continue
		}

		vals := make([]float64, nrows)
		for i := 0; i < nrows; i++ {
			v, err := strconv.ParseFloat(records[i+1][j], 64)
			if err != nil {
				return nil, errors.NewValidationError(name, "non-numeric value in numeric column", records[i+1][j])
			}
			vals[i] = v
		}
		cols = append(cols, NewNumericSeries(name, vals))
	}

	return New(cols...)
}

// WriteCSV writes the dataset as a CSV table, preserving column order.
func WriteCSV(w io.Writer, ds *Dataset) error {
	gcols := make([]gseries.Series, 0, ds.NumCols())
	for _, name := range ds.Names() {
		col, err := ds.Column(name)
		if err != nil {
			return err
		}
		switch col.Kind() {
		case KindNumeric:
			vals, _ := col.Floats()
			gcols = append(gcols, gseries.New(vals, gseries.Float, name))
		case KindString:
			vals, _ := col.Strings()
			gcols = append(gcols, gseries.New(vals, gseries.String, name))
		}
	}

	df := dataframe.New(gcols...)
	if df.Err != nil {
		return errors.Wrap(df.Err, "sensorcast: building csv frame")
	}
	if err := df.WriteCSV(w); err != nil {
		return errors.Wrap(err, "sensorcast: writing csv")
	}
	return nil
}
