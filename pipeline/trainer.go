package pipeline

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sensorcast/boosting"
	"github.com/YuminosukeSato/sensorcast/pkg/errors"
)

// Regressor is the capability interface the per-label loop trains through.
// It hides the boosting implementation so the loop can be exercised with a
// stub in tests.
type Regressor interface {
	// Fit trains on (X, y) and uses (valX, valY) for best-iteration
	// selection only.
	Fit(X, y, valX, valY *mat.Dense) error
	// Predict returns one prediction per row of X at the best iteration.
	Predict(X *mat.Dense) ([]float64, error)
	// BestIteration is the zero-based boosting round used for predictions.
	BestIteration() int
	// BestScore is the validation metric at the best iteration.
	BestScore() float64
}

// boostedRegressor adapts a boosting.Trainer and its Model to the
// Regressor interface.
type boostedRegressor struct {
	params boosting.Params
	model  *boosting.Model
}

// NewBoostedRegressor returns the default gradient-boosted Regressor.
func NewBoostedRegressor(params boosting.Params) Regressor {
	return &boostedRegressor{params: params}
}

func (r *boostedRegressor) Fit(X, y, valX, valY *mat.Dense) error {
	model, err := boosting.NewTrainer(r.params).Fit(X, y, valX, valY)
	if err != nil {
		return err
	}
	r.model = model
	return nil
}

func (r *boostedRegressor) Predict(X *mat.Dense) ([]float64, error) {
	if r.model == nil {
		return nil, errors.New("sensorcast: regressor is not fitted yet. Call Fit() before Predict()")
	}
	return r.model.Predict(X)
}

func (r *boostedRegressor) BestIteration() int {
	if r.model == nil {
		return -1
	}
	return r.model.BestIteration
}

func (r *boostedRegressor) BestScore() float64 {
	if r.model == nil {
		return 0
	}
	return r.model.BestScore
}

// TrainAndPredict fits reg for one label and produces predictions for the
// validation and inference feature sets. The returned iteration is the
// boosting round both prediction sets were produced at.
func TrainAndPredict(trainX, trainY, validX, validY, testX *mat.Dense, reg Regressor) (validPred, testPred []float64, bestIteration int, err error) {
	for _, m := range []*mat.Dense{trainX, trainY, validX, validY, testX} {
		if m == nil {
			return nil, nil, 0, errors.NewEmptyDataError("TrainAndPredict")
		}
		if r, _ := m.Dims(); r == 0 {
			return nil, nil, 0, errors.NewEmptyDataError("TrainAndPredict")
		}
	}

	trainRows, _ := trainX.Dims()
	labelRows, _ := trainY.Dims()
	if trainRows != labelRows {
		return nil, nil, 0, errors.NewDimensionError("TrainAndPredict", trainRows, labelRows, 0)
	}
	validRows, _ := validX.Dims()
	validLabelRows, _ := validY.Dims()
	if validRows != validLabelRows {
		return nil, nil, 0, errors.NewDimensionError("TrainAndPredict", validRows, validLabelRows, 0)
	}

	if err := reg.Fit(trainX, trainY, validX, validY); err != nil {
		return nil, nil, 0, err
	}

	validPred, err = reg.Predict(validX)
	if err != nil {
		return nil, nil, 0, err
	}
	testPred, err = reg.Predict(testX)
	if err != nil {
		return nil, nil, 0, err
	}
	return validPred, testPred, reg.BestIteration(), nil
}
