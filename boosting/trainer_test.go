package boosting

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sensorcast/pkg/errors"
)

// makeLinearData builds y = 2*x1 + 3*x2 with mild deterministic noise.
func makeLinearData(n int) (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		x1 := float64(i%50) / 10.0
		x2 := float64(i%7) / 3.0
		X.Set(i, 0, x1)
		X.Set(i, 1, x2)
		y.Set(i, 0, 2*x1+3*x2+0.05*(float64(i%3)-1))
	}
	return X, y
}

func mae(pred []float64, y *mat.Dense) float64 {
	var sum float64
	for i, p := range pred {
		sum += math.Abs(p - y.At(i, 0))
	}
	return sum / float64(len(pred))
}

func TestTrainerLearnsSignal(t *testing.T) {
	X, y := makeLinearData(400)
	valX, valY := makeLinearData(100)

	trainer := NewTrainer(Params{
		NumIterations:   100,
		LearningRate:    0.1,
		NumLeaves:       32,
		MinDataInLeaf:   5,
		LambdaL2:        10,
		FeatureFraction: 0.8,
		BaggingFraction: 0.8,
		BaggingFreq:     4,
		Seed:            42,
	})

	model, err := trainer.Fit(X, y, valX, valY)
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if len(model.Trees) == 0 {
		t.Fatal("no trees were built")
	}

	pred, err := model.Predict(valX)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}

	// Predicting the median scores around the data's spread; the trained
	// ensemble must beat that comfortably.
	obj := NewL1Objective()
	targets := make([]float64, 100)
	for i := range targets {
		targets[i] = valY.At(i, 0)
	}
	median := obj.InitScore(targets)
	base := make([]float64, 100)
	for i := range base {
		base[i] = median
	}

	got := mae(pred, valY)
	baseline := mae(base, valY)
	if got >= baseline/2 {
		t.Errorf("validation MAE %.4f did not improve enough on baseline %.4f", got, baseline)
	}
}

func TestTrainerBestIterationTracked(t *testing.T) {
	X, y := makeLinearData(200)
	valX, valY := makeLinearData(60)

	params := DefaultParams()
	params.NumIterations = 50
	trainer := NewTrainer(params)

	model, err := trainer.Fit(X, y, valX, valY)
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	if model.BestIteration < 0 || model.BestIteration >= 50 {
		t.Errorf("best iteration %d out of range [0, 50)", model.BestIteration)
	}
	if len(model.Trees) != model.BestIteration+1 {
		t.Errorf("model holds %d trees, want %d (trees past the best iteration must be discarded)",
			len(model.Trees), model.BestIteration+1)
	}
	if math.IsNaN(model.BestScore) || model.BestScore < 0 {
		t.Errorf("best score %.4f must be a non-negative MAE", model.BestScore)
	}
}

func TestTrainerDeterministicAcrossRuns(t *testing.T) {
	X, y := makeLinearData(150)
	valX, valY := makeLinearData(40)

	run := func() []float64 {
		params := DefaultParams()
		params.NumIterations = 30
		params.Seed = 7
		model, err := NewTrainer(params).Fit(X, y, valX, valY)
		if err != nil {
			t.Fatalf("Fit failed: %v", err)
		}
		pred, err := model.Predict(valX)
		if err != nil {
			t.Fatalf("Predict failed: %v", err)
		}
		return pred
	}

	p1 := run()
	p2 := run()
	for i := range p1 {
		if p1[i] != p2[i] {
			t.Fatalf("prediction %d differs across same-seed runs: %v vs %v", i, p1[i], p2[i])
		}
	}
}

func TestTrainerDimensionMismatch(t *testing.T) {
	X := mat.NewDense(10, 2, nil)
	y := mat.NewDense(9, 1, nil)

	_, err := NewTrainer(DefaultParams()).Fit(X, y, nil, nil)
	var dim *errors.DimensionError
	if !errors.As(err, &dim) {
		t.Fatalf("want DimensionError, got %v", err)
	}
	if dim.Expected != 10 || dim.Got != 9 {
		t.Errorf("unexpected dimensions in error: %+v", dim)
	}
}

func TestPredictRejectsWrongWidth(t *testing.T) {
	X, y := makeLinearData(100)
	model, err := NewTrainer(DefaultParams()).Fit(X, y, nil, nil)
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	bad := mat.NewDense(5, 3, nil)
	_, err = model.Predict(bad)
	var dim *errors.DimensionError
	if !errors.As(err, &dim) {
		t.Fatalf("want DimensionError, got %v", err)
	}
}

func TestFitWithoutValidationUsesCeiling(t *testing.T) {
	X, y := makeLinearData(100)

	params := DefaultParams()
	params.NumIterations = 20
	model, err := NewTrainer(params).Fit(X, y, nil, nil)
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if model.BestIteration != 19 {
		t.Errorf("without validation the last iteration is best, got %d", model.BestIteration)
	}
	if !math.IsNaN(model.BestScore) {
		t.Errorf("best score must be NaN without validation, got %v", model.BestScore)
	}
}

func TestL1ObjectiveInitScoreIsMedian(t *testing.T) {
	obj := NewL1Objective()
	if got := obj.InitScore([]float64{5, 1, 3}); got != 3 {
		t.Errorf("odd-length median: got %v, want 3", got)
	}
	if got := obj.InitScore([]float64{4, 1, 3, 2}); got != 2.5 {
		t.Errorf("even-length median: got %v, want 2.5", got)
	}
	if got := obj.InitScore(nil); got != 0 {
		t.Errorf("empty targets: got %v, want 0", got)
	}
}
