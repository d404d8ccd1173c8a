// Package pipeline orchestrates the multi-target regression run: one shared
// train/validation split, calendar feature extraction, then one independent
// gradient-boosted model per target label. Per-label iterations only read
// the shared partitions and write to disjoint accumulator keys, so they can
// be fanned out over workers without changing any result.
package pipeline

import (
	"log/slog"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sensorcast/boosting"
	"github.com/YuminosukeSato/sensorcast/dataset"
	"github.com/YuminosukeSato/sensorcast/features"
	"github.com/YuminosukeSato/sensorcast/metrics"
	"github.com/YuminosukeSato/sensorcast/pkg/errors"
)

// Config controls one pipeline run. Column names are opaque identifiers
// taken from the input files.
type Config struct {
	// IDColumn is the per-row unique key aligning test predictions with the
	// submission table. Never used as a feature.
	IDColumn string
	// TimeColumn is the timestamp column consumed by feature extraction.
	TimeColumn string
	// NumLabels is how many trailing columns of the training table are
	// targets.
	NumLabels int
	// HoldoutFraction of training rows reserved for validation.
	HoldoutFraction float64
	// Seed drives the split and every model's sampling.
	Seed int64
	// LearningRate for the boosted trainer. The two observed baselines run
	// 0.03 and 0.05.
	LearningRate float64
	// NumIterations is the boosting round ceiling.
	NumIterations int
	// Workers bounds the per-label fan-out. 1 reproduces the strictly
	// sequential reference behavior.
	Workers int
	// NewRegressor overrides the model factory; nil selects the boosted
	// trainer.
	NewRegressor func() Regressor
}

// DefaultConfig mirrors the reference run.
func DefaultConfig() Config {
	return Config{
		IDColumn:        "序号",
		TimeColumn:      "时间",
		NumLabels:       34,
		HoldoutFraction: 0.2,
		Seed:            42,
		LearningRate:    0.05,
		NumIterations:   200,
		Workers:         1,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.IDColumn == "" {
		c.IDColumn = def.IDColumn
	}
	if c.TimeColumn == "" {
		c.TimeColumn = def.TimeColumn
	}
	if c.NumLabels == 0 {
		c.NumLabels = def.NumLabels
	}
	if c.HoldoutFraction == 0 {
		c.HoldoutFraction = def.HoldoutFraction
	}
	if c.LearningRate == 0 {
		c.LearningRate = def.LearningRate
	}
	if c.NumIterations == 0 {
		c.NumIterations = def.NumIterations
	}
	if c.Workers == 0 {
		c.Workers = def.Workers
	}
	return c
}

// Validate checks the configuration before a run.
func (c Config) Validate() error {
	if c.HoldoutFraction <= 0 || c.HoldoutFraction >= 1 {
		return errors.NewValidationError("HoldoutFraction", "must be in (0, 1) exclusive", c.HoldoutFraction)
	}
	if c.NumLabels < 1 {
		return errors.NewValidationError("NumLabels", "must be at least 1", c.NumLabels)
	}
	if c.Workers < 1 {
		return errors.NewValidationError("Workers", "must be at least 1", c.Workers)
	}
	if c.LearningRate <= 0 {
		return errors.NewValidationError("LearningRate", "must be positive", c.LearningRate)
	}
	if c.NumIterations < 1 {
		return errors.NewValidationError("NumIterations", "must be at least 1", c.NumIterations)
	}
	return nil
}

func (c Config) boostingParams() boosting.Params {
	p := boosting.DefaultParams()
	p.LearningRate = c.LearningRate
	p.NumIterations = c.NumIterations
	p.Seed = c.Seed
	return p
}

// Result is the output of one run.
type Result struct {
	// Labels in iteration order (the trailing columns of the training
	// table).
	Labels []string
	// Scores maps each label to its validation MAE.
	Scores map[string]float64
	// BestIterations maps each label to the boosting round its predictions
	// were produced at.
	BestIterations map[string]int
	// Submission is the identifier column followed by one prediction column
	// per label, row-aligned to the test table.
	Submission *dataset.Dataset
}

// Run executes the full pipeline. Any error is fatal: no partial submission
// is ever produced, so an emitted Result always covers every label.
func Run(train, test *dataset.Dataset, cfg Config) (*Result, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if train.NumRows() == 0 || test.NumRows() == 0 {
		return nil, errors.NewEmptyDataError("Run")
	}

	names := train.Names()
	if len(names) < cfg.NumLabels+2 {
		return nil, errors.NewValidationError("NumLabels",
			"training table needs id, timestamp and this many trailing label columns", cfg.NumLabels)
	}
	labels := names[len(names)-cfg.NumLabels:]

	slog.Info("pipeline started",
		"train_rows", train.NumRows(),
		"test_rows", test.NumRows(),
		"labels", len(labels),
		"workers", cfg.Workers)

	trainPart, validPart, err := dataset.Split(train, cfg.HoldoutFraction, cfg.Seed)
	if err != nil {
		return nil, errors.Wrap(err, "splitting training data")
	}

	// Feature extraction happens once; the per-label loop reuses the same
	// read-only matrices.
	trainFeat, err := features.ExtractTimeFeatures(trainPart, cfg.TimeColumn, cfg.IDColumn, labels)
	if err != nil {
		return nil, errors.Wrap(err, "extracting training features")
	}
	validFeat, err := features.ExtractTimeFeatures(validPart, cfg.TimeColumn, cfg.IDColumn, labels)
	if err != nil {
		return nil, errors.Wrap(err, "extracting validation features")
	}
	testFeat, err := features.ExtractTimeFeatures(test, cfg.TimeColumn, cfg.IDColumn, nil)
	if err != nil {
		return nil, errors.Wrap(err, "extracting test features")
	}

	trainX, err := trainFeat.Matrix()
	if err != nil {
		return nil, err
	}
	validX, err := validFeat.Matrix()
	if err != nil {
		return nil, err
	}
	testX, err := testFeat.Matrix()
	if err != nil {
		return nil, err
	}

	idCol, err := test.Column(cfg.IDColumn)
	if err != nil {
		return nil, err
	}
	submission, err := dataset.New(idCol)
	if err != nil {
		return nil, err
	}

	newRegressor := cfg.NewRegressor
	if newRegressor == nil {
		params := cfg.boostingParams()
		newRegressor = func() Regressor { return NewBoostedRegressor(params) }
	}

	scores := make(map[string]float64, len(labels))
	bestIterations := make(map[string]int, len(labels))

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		firstErr error
	)
	work := make(chan string)

	worker := func() {
		defer wg.Done()
		for label := range work {
			score, testPred, bestIter, err := runLabel(label, trainPart, validPart, trainX, validX, testX, newRegressor())

			mu.Lock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				continue
			}
			scores[label] = score
			bestIterations[label] = bestIter
			if firstErr == nil {
				submission, err = submission.WithColumn(dataset.NewNumericSeries(label, testPred))
				if err != nil {
					firstErr = err
				}
			}
			mu.Unlock()

			slog.Debug("label trained", "label", label, "mae", score, "best_iteration", bestIter)
		}
	}

	wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go worker()
	}
	for _, label := range labels {
		work <- label
	}
	close(work)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	// Workers append columns in completion order; fix the submission layout
	// to the label order.
	order := append([]string{cfg.IDColumn}, labels...)
	submission, err = submission.Select(order...)
	if err != nil {
		return nil, err
	}

	slog.Info("pipeline finished", "labels", len(labels))

	return &Result{
		Labels:         labels,
		Scores:         scores,
		BestIterations: bestIterations,
		Submission:     submission,
	}, nil
}

// runLabel trains and scores one target.
func runLabel(label string, trainPart, validPart *dataset.Dataset, trainX, validX, testX *mat.Dense, reg Regressor) (float64, []float64, int, error) {
	trainY, err := labelVector(trainPart, label)
	if err != nil {
		return 0, nil, 0, err
	}
	validY, err := labelVector(validPart, label)
	if err != nil {
		return 0, nil, 0, err
	}

	validPred, testPred, bestIter, err := TrainAndPredict(trainX, trainY, validX, validY, testX, reg)
	if err != nil {
		return 0, nil, 0, errors.NewModelFitError(label, err)
	}

	validTruth := make([]float64, validY.RawMatrix().Rows)
	for i := range validTruth {
		validTruth[i] = validY.At(i, 0)
	}
	score, err := metrics.MAESlice(validTruth, validPred)
	if err != nil {
		return 0, nil, 0, errors.NewModelFitError(label, err)
	}
	return score, testPred, bestIter, nil
}

// labelVector extracts one label column as an n×1 matrix.
func labelVector(ds *dataset.Dataset, label string) (*mat.Dense, error) {
	col, err := ds.Column(label)
	if err != nil {
		return nil, err
	}
	vals, err := col.Floats()
	if err != nil {
		return nil, err
	}
	out := mat.NewDense(len(vals), 1, nil)
	for i, v := range vals {
		out.Set(i, 0, v)
	}
	return out, nil
}
