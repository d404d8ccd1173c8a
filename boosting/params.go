// Package boosting implements the gradient-boosted regression tree trainer
// behind the pipeline's Regressor interface. Trees are grown leaf-wise: at
// every step the candidate leaf with the greatest gain is split first, the
// same growth strategy LightGBM uses. The objective is mean absolute error
// and the validation split is used only to select the best iteration.
package boosting

// Params holds the training hyperparameters. The pipeline fixes everything
// except the learning rate and seed, which are exposed as configuration.
type Params struct {
	// NumIterations is the boosting round ceiling. Training always runs to
	// the ceiling; the best iteration is selected afterwards.
	NumIterations int
	// LearningRate shrinks each tree's contribution.
	LearningRate float64
	// NumLeaves caps the number of leaves per tree.
	NumLeaves int
	// MinDataInLeaf is the minimum number of samples in a leaf.
	MinDataInLeaf int
	// LambdaL2 is the L2 regularization on leaf weights.
	LambdaL2 float64
	// MinGainToSplit stops splitting a leaf below this gain.
	MinGainToSplit float64
	// FeatureFraction subsamples features once per tree.
	FeatureFraction float64
	// BaggingFraction subsamples rows every BaggingFreq iterations.
	BaggingFraction float64
	// BaggingFreq is how often (in iterations) the row sample is redrawn.
	// Zero disables bagging.
	BaggingFreq int
	// Seed drives all sampling.
	Seed int64
}

// DefaultParams returns the reference configuration of the pipeline.
func DefaultParams() Params {
	return Params{
		NumIterations:   200,
		LearningRate:    0.05,
		NumLeaves:       32,
		MinDataInLeaf:   5,
		LambdaL2:        10,
		MinGainToSplit:  1e-7,
		FeatureFraction: 0.8,
		BaggingFraction: 0.8,
		BaggingFreq:     4,
		Seed:            42,
	}
}

func (p Params) withDefaults() Params {
	if p.NumIterations == 0 {
		p.NumIterations = 200
	}
	if p.LearningRate == 0 {
		p.LearningRate = 0.05
	}
	if p.NumLeaves == 0 {
		p.NumLeaves = 32
	}
	if p.MinDataInLeaf == 0 {
		p.MinDataInLeaf = 5
	}
	if p.MinGainToSplit == 0 {
		p.MinGainToSplit = 1e-7
	}
	if p.FeatureFraction == 0 {
		p.FeatureFraction = 1.0
	}
	if p.BaggingFraction == 0 {
		p.BaggingFraction = 1.0
	}
	return p
}
