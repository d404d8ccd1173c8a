package boosting

import (
	"math"
	"sort"
)

// Objective defines the loss the ensemble minimizes.
type Objective interface {
	// Gradient is the first derivative of the loss for a single sample.
	Gradient(prediction, target float64) float64
	// Hessian is the second derivative of the loss for a single sample.
	Hessian(prediction, target float64) float64
	// Loss is the per-sample loss value.
	Loss(prediction, target float64) float64
	// InitScore is the constant base prediction for this objective.
	InitScore(targets []float64) float64
	// Name returns the objective's name.
	Name() string
}

// L1Objective minimizes mean absolute error.
type L1Objective struct{}

// NewL1Objective returns the MAE objective.
func NewL1Objective() *L1Objective {
	return &L1Objective{}
}

func (o *L1Objective) Gradient(prediction, target float64) float64 {
	if prediction > target {
		return 1.0
	}
	if prediction < target {
		return -1.0
	}
	return 0.0
}

func (o *L1Objective) Hessian(prediction, target float64) float64 {
	// L1 has no curvature away from zero; LightGBM substitutes 1.0.
	return 1.0
}

func (o *L1Objective) Loss(prediction, target float64) float64 {
	return math.Abs(prediction - target)
}

// InitScore returns the median, the constant minimizer of absolute error.
func (o *L1Objective) InitScore(targets []float64) float64 {
	if len(targets) == 0 {
		return 0.0
	}
	sorted := make([]float64, len(targets))
	copy(sorted, targets)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

func (o *L1Objective) Name() string {
	return "regression_l1"
}
