package dataset

import (
	"math"
	"math/rand"

	"github.com/YuminosukeSato/sensorcast/pkg/errors"
)

// Split partitions the dataset into a training subset and a validation
// subset by seeded uniform random row sampling. round(rows*holdoutFraction)
// rows go to validation, the remainder to training. The two partitions are
// disjoint and together cover every input row exactly once; row order within
// a partition follows the sampling order.
//
// Split is invoked once per pipeline run and its output is shared read-only
// across every per-label iteration, so all label scores are computed on the
// same partition.
func Split(ds *Dataset, holdoutFraction float64, seed int64) (train, valid *Dataset, err error) {
	if holdoutFraction <= 0 || holdoutFraction >= 1 {
		return nil, nil, errors.NewValidationError("holdoutFraction", "must be in (0, 1) exclusive", holdoutFraction)
	}
	if ds.NumRows() == 0 {
		return nil, nil, errors.NewEmptyDataError("Split")
	}

	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(ds.NumRows())

	nValid := int(math.Round(float64(ds.NumRows()) * holdoutFraction))
	valid = ds.Take(perm[:nValid])
	train = ds.Take(perm[nValid:])
	return train, valid, nil
}
