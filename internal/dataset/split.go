package dataset

import "math/rand"

// Split shuffles the rows with the given seed and cuts them into train and
// test sets. testRatio is clamped to [0,1]; the same seed always produces
// the same split.
func (d *Dataset) Split(testRatio float64, seed int64) (train, test *Dataset) {
	if testRatio < 0 {
		testRatio = 0
	}
	if testRatio > 1 {
		testRatio = 1
	}

	shuffled := make([]Row, len(d.Rows))
	copy(shuffled, d.Rows)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	cut := len(shuffled) - int(float64(len(shuffled))*testRatio)
	return &Dataset{Rows: shuffled[:cut]}, &Dataset{Rows: shuffled[cut:]}
}
