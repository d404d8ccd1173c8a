// Package features derives calendar features from a timestamp column. The
// extraction is the only feature engineering the pipeline performs: the
// timestamp is replaced by eight integer-valued calendar fields and the
// identifier column is removed, leaving a purely numeric feature table.
package features

import (
	"time"

	"github.com/YuminosukeSato/sensorcast/dataset"
	"github.com/YuminosukeSato/sensorcast/pkg/errors"
)

// Derived column names, appended in this order.
var derivedColumns = []string{
	"month", "day", "hour", "minute",
	"weekofyear", "dayofyear", "dayofweek", "is_weekend",
}

// timeLayouts are the accepted timestamp formats, tried in order.
var timeLayouts = []string{
	"2006/1/2 15:04",
	"2006/1/2 15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05Z07:00",
}

// parseTimestamp tries each accepted layout in order.
func parseTimestamp(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// ExtractTimeFeatures returns a copy of ds with the identifier column
// removed and the timestamp column replaced by eight calendar features:
// month (1-12), day (1-31), hour (0-23), minute (0-59), ISO week-of-year
// (1-53), day-of-year (1-366), day-of-week (0=Monday .. 6=Sunday) and an
// is_weekend indicator.
//
// is_weekend is 1 only when day-of-week is 6 (Sunday). Saturday is not
// flagged. The rule mirrors the reference pipeline's dayofweek floor-division
// by 6 and is kept asymmetric on purpose; see DESIGN.md.
//
// When stripLabels is non-empty those columns are dropped as well, which is
// how the label columns are kept out of the train/validation feature set.
// The input dataset is never mutated. An unparseable timestamp fails the
// whole call; no row is silently dropped.
func ExtractTimeFeatures(ds *dataset.Dataset, timeColumn, idColumn string, stripLabels []string) (*dataset.Dataset, error) {
	out, err := ds.Drop(idColumn)
	if err != nil {
		return nil, err
	}

	col, err := out.Column(timeColumn)
	if err != nil {
		return nil, err
	}
	raw, err := col.Strings()
	if err != nil {
		return nil, err
	}

	n := len(raw)
	stamps := make([]time.Time, n)
	for i, v := range raw {
		t, err := parseTimestamp(v)
		if err != nil {
			return nil, errors.NewTimestampParseError(timeColumn, i, v, err)
		}
		stamps[i] = t
	}

	derived := make(map[string][]float64, len(derivedColumns))
	for _, name := range derivedColumns {
		derived[name] = make([]float64, n)
	}
	for i, t := range stamps {
		_, isoWeek := t.ISOWeek()
		// Go counts the week from Sunday; the pipeline counts from Monday.
		dow := (int(t.Weekday()) + 6) % 7

		derived["month"][i] = float64(t.Month())
		derived["day"][i] = float64(t.Day())
		derived["hour"][i] = float64(t.Hour())
		derived["minute"][i] = float64(t.Minute())
		derived["weekofyear"][i] = float64(isoWeek)
		derived["dayofyear"][i] = float64(t.YearDay())
		derived["dayofweek"][i] = float64(dow)
		derived["is_weekend"][i] = float64(dow / 6)
	}

	for _, name := range derivedColumns {
		out, err = out.WithColumn(dataset.NewNumericSeries(name, derived[name]))
		if err != nil {
			return nil, err
		}
	}

	out, err = out.Drop(timeColumn)
	if err != nil {
		return nil, err
	}

	if len(stripLabels) > 0 {
		out, err = out.Drop(stripLabels...)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
