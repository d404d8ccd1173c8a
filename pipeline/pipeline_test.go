package pipeline

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sensorcast/dataset"
	"github.com/YuminosukeSato/sensorcast/pkg/errors"
)

// meanRegressor is a stub Regressor predicting the training label mean.
type meanRegressor struct {
	mean   float64
	fitted bool
}

func (m *meanRegressor) Fit(X, y, valX, valY *mat.Dense) error {
	rows, _ := y.Dims()
	var sum float64
	for i := 0; i < rows; i++ {
		sum += y.At(i, 0)
	}
	m.mean = sum / float64(rows)
	m.fitted = true
	return nil
}

func (m *meanRegressor) Predict(X *mat.Dense) ([]float64, error) {
	if !m.fitted {
		return nil, errors.New("not fitted")
	}
	rows, _ := X.Dims()
	out := make([]float64, rows)
	for i := range out {
		out[i] = m.mean
	}
	return out, nil
}

func (m *meanRegressor) BestIteration() int { return 0 }

func (m *meanRegressor) BestScore() float64 { return 0 }

// buildTables creates a training table with nTrain rows, one feature column
// and the given label columns over one month of timestamps, plus a test
// table with nTest rows and no labels.
func buildTables(t *testing.T, nTrain, nTest int, labels []string) (*dataset.Dataset, *dataset.Dataset) {
	t.Helper()
	start := time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)

	makeCols := func(n, idOffset int, withLabels bool) []*dataset.Series {
		ids := make([]string, n)
		stamps := make([]string, n)
		x := make([]float64, n)
		for i := 0; i < n; i++ {
			ids[i] = fmt.Sprintf("%d", idOffset+i+1)
			stamps[i] = start.Add(time.Duration(i) * 15 * time.Minute).Format("2006/1/2 15:04")
			x[i] = float64(i % 10)
		}
		cols := []*dataset.Series{
			dataset.NewStringSeries("序号", ids),
			dataset.NewStringSeries("时间", stamps),
			dataset.NewNumericSeries("x", x),
		}
		if withLabels {
			for li, label := range labels {
				y := make([]float64, n)
				for i := 0; i < n; i++ {
					y[i] = 2*x[i] + float64(li)
				}
				cols = append(cols, dataset.NewNumericSeries(label, y))
			}
		}
		return cols
	}

	train, err := dataset.New(makeCols(nTrain, 0, true)...)
	require.NoError(t, err)
	test, err := dataset.New(makeCols(nTest, nTrain, false)...)
	require.NoError(t, err)
	return train, test
}

func TestRunEndToEndSingleLabel(t *testing.T) {
	train, test := buildTables(t, 100, 20, []string{"target"})

	cfg := DefaultConfig()
	cfg.NumLabels = 1
	cfg.NumIterations = 30

	res, err := Run(train, test, cfg)
	require.NoError(t, err)

	assert.Equal(t, []string{"target"}, res.Labels)
	require.Contains(t, res.Scores, "target")
	assert.GreaterOrEqual(t, res.Scores["target"], 0.0)
	assert.Len(t, res.Scores, 1)

	require.NotNil(t, res.Submission)
	assert.Equal(t, 20, res.Submission.NumRows())
	assert.Equal(t, []string{"序号", "target"}, res.Submission.Names())
}

func TestRunMultiLabelParallelMatchesSequential(t *testing.T) {
	labels := []string{"y1", "y2", "y3", "y4"}
	train, test := buildTables(t, 80, 10, labels)

	run := func(workers int) *Result {
		cfg := DefaultConfig()
		cfg.NumLabels = len(labels)
		cfg.Workers = workers
		cfg.NewRegressor = func() Regressor { return &meanRegressor{} }
		res, err := Run(train, test, cfg)
		require.NoError(t, err)
		return res
	}

	seq := run(1)
	par := run(4)

	assert.Equal(t, seq.Scores, par.Scores)
	assert.Equal(t, seq.Labels, par.Labels)
	assert.Equal(t, append([]string{"序号"}, labels...), par.Submission.Names(),
		"submission column order follows label order regardless of completion order")

	for _, label := range labels {
		s, _ := seq.Submission.Column(label)
		p, _ := par.Submission.Column(label)
		sv, _ := s.Floats()
		pv, _ := p.Floats()
		assert.Equal(t, sv, pv)
	}
}

func TestRunRejectsTooFewColumns(t *testing.T) {
	train, test := buildTables(t, 30, 5, []string{"target"})

	cfg := DefaultConfig()
	cfg.NumLabels = 34 // table only has one label column

	_, err := Run(train, test, cfg)
	var ve *errors.ValidationError
	require.True(t, errors.As(err, &ve))
}

func TestRunInvalidHoldout(t *testing.T) {
	train, test := buildTables(t, 30, 5, []string{"target"})

	cfg := DefaultConfig()
	cfg.NumLabels = 1
	cfg.HoldoutFraction = 1.5

	_, err := Run(train, test, cfg)
	var ve *errors.ValidationError
	require.True(t, errors.As(err, &ve))
}

func TestTrainAndPredictDimensionMismatch(t *testing.T) {
	trainX := mat.NewDense(10, 3, nil)
	trainY := mat.NewDense(9, 1, nil)
	validX := mat.NewDense(4, 3, nil)
	validY := mat.NewDense(4, 1, nil)
	testX := mat.NewDense(2, 3, nil)

	_, _, _, err := TrainAndPredict(trainX, trainY, validX, validY, testX, &meanRegressor{})
	var dim *errors.DimensionError
	require.True(t, errors.As(err, &dim))
	assert.Equal(t, 10, dim.Expected)
	assert.Equal(t, 9, dim.Got)
}

func TestTrainAndPredictEmptyInput(t *testing.T) {
	_, _, _, err := TrainAndPredict(nil, nil, nil, nil, nil, &meanRegressor{})
	var empty *errors.EmptyDataError
	require.True(t, errors.As(err, &empty))
}

func TestRunWrapsFitFailures(t *testing.T) {
	train, test := buildTables(t, 40, 5, []string{"target"})

	cfg := DefaultConfig()
	cfg.NumLabels = 1
	cfg.NewRegressor = func() Regressor { return &failingRegressor{} }

	_, err := Run(train, test, cfg)
	var fit *errors.ModelFitError
	require.True(t, errors.As(err, &fit))
	assert.Equal(t, "target", fit.Label)
}

type failingRegressor struct{}

func (f *failingRegressor) Fit(X, y, valX, valY *mat.Dense) error {
	return errors.New("synthetic fit failure")
}

func (f *failingRegressor) Predict(X *mat.Dense) ([]float64, error) {
	return nil, errors.New("not fitted")
}

func (f *failingRegressor) BestIteration() int { return -1 }

func (f *failingRegressor) BestScore() float64 { return 0 }
