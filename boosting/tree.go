package boosting

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sensorcast/pkg/errors"
	"github.com/YuminosukeSato/sensorcast/pkg/parallel"
)

// Node is a single node in a regression tree. Internal nodes route on
// feature <= threshold; leaves carry the unshrunk output value.
type Node struct {
	Feature    int
	Threshold  float64
	LeftChild  int
	RightChild int
	LeafValue  float64
	IsLeaf     bool
}

// Tree is one additive member of the ensemble.
type Tree struct {
	Nodes         []Node
	ShrinkageRate float64
}

// predictRow routes one feature vector to a leaf and returns the shrunk
// leaf value.
func (t *Tree) predictRow(features []float64) float64 {
	if len(t.Nodes) == 0 {
		return 0.0
	}
	idx := 0
	for {
		node := t.Nodes[idx]
		if node.IsLeaf {
			return node.LeafValue * t.ShrinkageRate
		}
		if features[node.Feature] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
	}
}

// Model is the immutable artifact a Fit call produces. It holds only the
// trees up to and including the best iteration, so Predict always reflects
// the iteration with the lowest validation error seen during training.
type Model struct {
	Trees       []Tree
	InitScore   float64
	NumFeatures int

	// BestIteration is the zero-based round with the lowest validation MAE.
	BestIteration int
	// BestScore is the validation MAE at BestIteration.
	BestScore float64
}

// Predict returns one prediction per row of X.
func (m *Model) Predict(X *mat.Dense) ([]float64, error) {
	rows, cols := X.Dims()
	if rows == 0 {
		return nil, errors.NewEmptyDataError("Model.Predict")
	}
	if cols != m.NumFeatures {
		return nil, errors.NewDimensionError("Model.Predict", m.NumFeatures, cols, 1)
	}

	out := make([]float64, rows)
	parallel.ParallelizeWithThreshold(rows, 256, func(start, end int) {
		features := make([]float64, cols)
		for i := start; i < end; i++ {
			mat.Row(features, i, X)
			pred := m.InitScore
			for k := range m.Trees {
				pred += m.Trees[k].predictRow(features)
			}
			out[i] = pred
		}
	})
	return out, nil
}
