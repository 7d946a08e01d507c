package kernel

import (
	"math"
	"math/rand"
)

// XavierMatrix allocates a rows×cols matrix with values drawn uniformly from
// [-scale, +scale], scale = sqrt(2/(rows+cols)). rng may be nil, in which
// case a fresh source seeded with 1 is used, so every call with a nil rng
// draws the same values.
func XavierMatrix(rows, cols int, rng *rand.Rand) *Dense {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	scale := math.Sqrt(2.0 / float64(rows+cols))
	d := NewDense(rows, cols)
	for i := 0; i < rows*cols; i++ {
		d.data[i] = float32((rng.Float64()*2 - 1) * scale)
	}
	return d
}

// InitVector allocates a length-n vector with values drawn uniformly from
// [-scale, +scale], scale = sqrt(1/n).
func InitVector(n int, rng *rand.Rand) []float32 {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	scale := math.Sqrt(1.0 / float64(n))
	out := make([]float32, n)
	for i := range out {
		out[i] = float32((rng.Float64()*2 - 1) * scale)
	}
	return out
}
