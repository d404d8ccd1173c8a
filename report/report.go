// Package report renders the per-label validation scores. The output is a
// diagnostic artifact, not a machine contract.
package report

import (
	"fmt"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/sensorcast/pkg/errors"
)

// Write dumps one line per label in iteration order, followed by the mean
// MAE across labels.
func Write(w io.Writer, scores map[string]float64, order []string) error {
	if len(order) == 0 {
		return errors.NewEmptyDataError("report.Write")
	}

	var sum float64
	for _, label := range order {
		score, ok := scores[label]
		if !ok {
			return errors.NewColumnNotFoundError("report.Write", label)
		}
		if _, err := fmt.Fprintf(w, "%s\t%.6f\n", label, score); err != nil {
			return errors.Wrap(err, "sensorcast: writing report")
		}
		sum += score
	}
	if _, err := fmt.Fprintf(w, "mean\t%.6f\n", sum/float64(len(order))); err != nil {
		return errors.Wrap(err, "sensorcast: writing report")
	}
	return nil
}

// SavePlot renders the scores as a bar chart PNG.
func SavePlot(path string, scores map[string]float64, order []string) error {
	if len(order) == 0 {
		return errors.NewEmptyDataError("report.SavePlot")
	}

	values := make(plotter.Values, len(order))
	for i, label := range order {
		score, ok := scores[label]
		if !ok {
			return errors.NewColumnNotFoundError("report.SavePlot", label)
		}
		values[i] = score
	}

	p := plot.New()
	p.Title.Text = "Validation MAE per label"
	p.Y.Label.Text = "MAE"

	bars, err := plotter.NewBarChart(values, vg.Points(12))
	if err != nil {
		return errors.Wrap(err, "sensorcast: building bar chart")
	}
	p.Add(bars)
	p.NominalX(order...)
	p.X.Tick.Label.Rotation = 1.2
	p.X.Tick.Label.XAlign = -0.5
	p.X.Tick.Label.YAlign = -0.5

	width := vg.Points(float64(24*len(order)) + 100)
	if err := p.Save(width, vg.Points(300), path); err != nil {
		return errors.Wrap(err, "sensorcast: saving plot")
	}
	return nil
}
