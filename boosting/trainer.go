package boosting

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sensorcast/pkg/errors"
)

// Trainer fits one gradient-boosted tree ensemble. A Trainer is single-use:
// construct one per Fit call. Independent Trainers are safe to run
// concurrently; no state is shared between them.
type Trainer struct {
	params    Params
	objective Objective
	rng       *rand.Rand

	xrows [][]float64
	y     []float64
	nRows int
	nCols int

	gradients []float64
	hessians  []float64
	trainPred []float64
	trees     []Tree
	initScore float64
}

// NewTrainer creates a trainer with the given parameters.
func NewTrainer(params Params) *Trainer {
	p := params.withDefaults()
	return &Trainer{
		params:    p,
		objective: NewL1Objective(),
		rng:       rand.New(rand.NewSource(p.Seed)),
	}
}

// splitInfo describes the best split found for one leaf.
type splitInfo struct {
	feature   int
	threshold float64
	gain      float64
	valid     bool
}

// leafCandidate is a grown leaf that may still be split.
type leafCandidate struct {
	nodeIdx int
	indices []int
	split   splitInfo
}

// Fit trains the ensemble to the round ceiling and returns the model
// truncated at the best iteration. valX/valY drive best-iteration selection
// only; they contribute nothing to the gradients. When they are nil the last
// iteration is the best iteration.
//
// Training is silent: no per-iteration diagnostics are emitted.
func (t *Trainer) Fit(X, y *mat.Dense, valX, valY *mat.Dense) (model *Model, err error) {
	defer errors.Recover(&err, "boosting.Trainer.Fit")

	rows, cols := X.Dims()
	if rows == 0 || cols == 0 {
		return nil, errors.NewEmptyDataError("Trainer.Fit")
	}
	yRows, yCols := y.Dims()
	if yRows != rows {
		return nil, errors.NewDimensionError("Trainer.Fit", rows, yRows, 0)
	}
	if yCols != 1 {
		return nil, errors.NewDimensionError("Trainer.Fit", 1, yCols, 1)
	}

	t.nRows, t.nCols = rows, cols
	t.xrows = make([][]float64, rows)
	t.y = make([]float64, rows)
	for i := 0; i < rows; i++ {
		row := make([]float64, cols)
		mat.Row(row, i, X)
		t.xrows[i] = row
		t.y[i] = y.At(i, 0)
	}

	t.gradients = make([]float64, rows)
	t.hessians = make([]float64, rows)
	t.initScore = t.objective.InitScore(t.y)
	t.trainPred = make([]float64, rows)
	for i := range t.trainPred {
		t.trainPred[i] = t.initScore
	}

	// Validation state for best-iteration tracking.
	var valRows [][]float64
	var valTargets []float64
	var valPred []float64
	if valX != nil && valY != nil {
		vr, vc := valX.Dims()
		if vc != cols {
			return nil, errors.NewDimensionError("Trainer.Fit", cols, vc, 1)
		}
		vyRows, _ := valY.Dims()
		if vyRows != vr {
			return nil, errors.NewDimensionError("Trainer.Fit", vr, vyRows, 0)
		}
		valRows = make([][]float64, vr)
		valTargets = make([]float64, vr)
		valPred = make([]float64, vr)
		for i := 0; i < vr; i++ {
			row := make([]float64, vc)
			mat.Row(row, i, valX)
			valRows[i] = row
			valTargets[i] = valY.At(i, 0)
			valPred[i] = t.initScore
		}
	}

	bestIteration := t.params.NumIterations - 1
	bestScore := math.Inf(1)
	sampleIdx := t.allRows()

	for iter := 0; iter < t.params.NumIterations; iter++ {
		t.calculateGradients()

		if t.params.BaggingFraction < 1.0 && t.params.BaggingFreq > 0 && iter%t.params.BaggingFreq == 0 {
			sampleIdx = t.drawBag()
		}
		featureSet := t.drawFeatures()

		tree := t.buildTree(sampleIdx, featureSet)
		t.trees = append(t.trees, tree)

		// Incremental ensemble update on train and validation rows.
		for i := 0; i < t.nRows; i++ {
			t.trainPred[i] += tree.predictRow(t.xrows[i])
		}
		if valPred != nil {
			var absSum float64
			for i := range valRows {
				valPred[i] += tree.predictRow(valRows[i])
				absSum += math.Abs(valPred[i] - valTargets[i])
			}
			score := absSum / float64(len(valPred))
			if score < bestScore {
				bestScore = score
				bestIteration = iter
			}
		}
	}

	trees := t.trees[:bestIteration+1]
	if valPred == nil {
		bestScore = math.NaN()
	}
	return &Model{
		Trees:         trees,
		InitScore:     t.initScore,
		NumFeatures:   cols,
		BestIteration: bestIteration,
		BestScore:     bestScore,
	}, nil
}

func (t *Trainer) allRows() []int {
	idx := make([]int, t.nRows)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

// drawBag samples rows without replacement at the bagging fraction.
func (t *Trainer) drawBag() []int {
	k := int(t.params.BaggingFraction*float64(t.nRows) + 0.5)
	if k < 1 {
		k = 1
	}
	if k >= t.nRows {
		return t.allRows()
	}
	perm := t.rng.Perm(t.nRows)
	bag := perm[:k]
	sort.Ints(bag)
	return bag
}

// drawFeatures samples the per-tree feature subset.
func (t *Trainer) drawFeatures() []int {
	if t.params.FeatureFraction >= 1.0 {
		feats := make([]int, t.nCols)
		for j := range feats {
			feats[j] = j
		}
		return feats
	}
	k := int(t.params.FeatureFraction*float64(t.nCols) + 0.5)
	if k < 1 {
		k = 1
	}
	perm := t.rng.Perm(t.nCols)
	feats := perm[:k]
	sort.Ints(feats)
	return feats
}

func (t *Trainer) calculateGradients() {
	for i := 0; i < t.nRows; i++ {
		t.gradients[i] = t.objective.Gradient(t.trainPred[i], t.y[i])
		t.hessians[i] = t.objective.Hessian(t.trainPred[i], t.y[i])
	}
}

// buildTree grows one tree leaf-wise: the candidate leaf with the greatest
// split gain is expanded first, until the leaf cap is reached or no leaf
// has a split worth taking.
func (t *Trainer) buildTree(sampleIdx, featureSet []int) Tree {
	tree := Tree{ShrinkageRate: t.params.LearningRate}

	rootIdx := t.appendLeaf(&tree, sampleIdx)
	candidates := []*leafCandidate{{
		nodeIdx: rootIdx,
		indices: sampleIdx,
		split:   t.findBestSplit(sampleIdx, featureSet),
	}}

	numLeaves := 1
	for numLeaves < t.params.NumLeaves {
		best := -1
		for i, cand := range candidates {
			if !cand.split.valid {
				continue
			}
			if best == -1 || cand.split.gain > candidates[best].split.gain {
				best = i
			}
		}
		if best == -1 {
			break
		}

		cand := candidates[best]
		candidates = append(candidates[:best], candidates[best+1:]...)

		left, right := t.partition(cand.indices, cand.split)

		tree.Nodes[cand.nodeIdx].IsLeaf = false
		tree.Nodes[cand.nodeIdx].Feature = cand.split.feature
		tree.Nodes[cand.nodeIdx].Threshold = cand.split.threshold
		leftIdx := t.appendLeaf(&tree, left)
		rightIdx := t.appendLeaf(&tree, right)
		tree.Nodes[cand.nodeIdx].LeftChild = leftIdx
		tree.Nodes[cand.nodeIdx].RightChild = rightIdx

		candidates = append(candidates,
			&leafCandidate{nodeIdx: leftIdx, indices: left, split: t.findBestSplit(left, featureSet)},
			&leafCandidate{nodeIdx: rightIdx, indices: right, split: t.findBestSplit(right, featureSet)},
		)
		numLeaves++
	}

	return tree
}

// appendLeaf adds a leaf node holding the regularized optimal value for the
// given rows.
func (t *Trainer) appendLeaf(tree *Tree, indices []int) int {
	var sumGrad, sumHess float64
	for _, idx := range indices {
		sumGrad += t.gradients[idx]
		sumHess += t.hessians[idx]
	}

	const epsilon = 1e-10
	if math.Abs(sumHess) < epsilon {
		sumHess = epsilon
	}

	nodeIdx := len(tree.Nodes)
	tree.Nodes = append(tree.Nodes, Node{
		IsLeaf:     true,
		LeafValue:  -sumGrad / (sumHess + t.params.LambdaL2 + epsilon),
		LeftChild:  -1,
		RightChild: -1,
	})
	return nodeIdx
}

// findBestSplit scans every feature in the subset for the highest-gain
// threshold over the given rows.
func (t *Trainer) findBestSplit(indices, featureSet []int) splitInfo {
	if len(indices) < 2*t.params.MinDataInLeaf {
		return splitInfo{}
	}

	var totalGrad, totalHess float64
	for _, idx := range indices {
		totalGrad += t.gradients[idx]
		totalHess += t.hessians[idx]
	}

	best := splitInfo{gain: math.Inf(-1)}
	order := make([]int, len(indices))

	for _, feature := range featureSet {
		copy(order, indices)
		sort.Slice(order, func(a, b int) bool {
			return t.xrows[order[a]][feature] < t.xrows[order[b]][feature]
		})

		var leftGrad, leftHess float64
		for i := 0; i < len(order)-1; i++ {
			idx := order[i]
			leftGrad += t.gradients[idx]
			leftHess += t.hessians[idx]

			cur := t.xrows[idx][feature]
			next := t.xrows[order[i+1]][feature]
			if cur == next {
				continue
			}

			leftCount := i + 1
			rightCount := len(order) - leftCount
			if leftCount < t.params.MinDataInLeaf || rightCount < t.params.MinDataInLeaf {
				continue
			}

			gain := t.splitGain(leftGrad, leftHess, totalGrad-leftGrad, totalHess-leftHess, totalGrad, totalHess)
			if gain > best.gain {
				best = splitInfo{
					feature:   feature,
					threshold: (cur + next) / 2,
					gain:      gain,
					valid:     true,
				}
			}
		}
	}

	if !best.valid || best.gain < t.params.MinGainToSplit {
		return splitInfo{}
	}
	return best
}

// splitGain is the standard second-order gain with L2 regularization.
func (t *Trainer) splitGain(leftGrad, leftHess, rightGrad, rightHess, totalGrad, totalHess float64) float64 {
	lambda := t.params.LambdaL2
	leftScore := (leftGrad * leftGrad) / (leftHess + lambda)
	rightScore := (rightGrad * rightGrad) / (rightHess + lambda)
	totalScore := (totalGrad * totalGrad) / (totalHess + lambda)
	return 0.5 * (leftScore + rightScore - totalScore)
}

// partition splits rows on the chosen threshold.
func (t *Trainer) partition(indices []int, split splitInfo) ([]int, []int) {
	var left, right []int
	for _, idx := range indices {
		if t.xrows[idx][split.feature] <= split.threshold {
			left = append(left, idx)
		} else {
			right = append(right, idx)
		}
	}
	return left, right
}
