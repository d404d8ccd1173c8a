// Package metrics implements the regression metrics used to score the
// per-label validation predictions.
package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sensorcast/pkg/errors"
)

// MAE computes the mean absolute error between two vectors.
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewEmptyDataError("MAE")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError("MAE", n, yPred.Len(), 0)
	}

	// MAE = (1/n) * Σ|yTrue - yPred|
	var sum float64
	for i := 0; i < n; i++ {
		sum += math.Abs(yTrue.AtVec(i) - yPred.AtVec(i))
	}
	return sum / float64(n), nil
}

// MAESlice is a convenience wrapper over MAE for plain float64 slices.
func MAESlice(yTrue, yPred []float64) (float64, error) {
	if len(yTrue) == 0 {
		return 0, errors.NewEmptyDataError("MAE")
	}
	if len(yPred) != len(yTrue) {
		return 0, errors.NewDimensionError("MAE", len(yTrue), len(yPred), 0)
	}
	return MAE(mat.NewVecDense(len(yTrue), yTrue), mat.NewVecDense(len(yPred), yPred))
}

// MSE computes the mean squared error between two vectors.
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewEmptyDataError("MSE")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError("MSE", n, yPred.Len(), 0)
	}

	var sum float64
	for i := 0; i < n; i++ {
		diff := yTrue.AtVec(i) - yPred.AtVec(i)
		sum += diff * diff
	}
	return sum / float64(n), nil
}

// RMSE computes the root mean squared error between two vectors.
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}
