package kernel

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSoftmaxSumsToOne(t *testing.T) {
	out := Softmax([]float32{1, 2, 3})
	var sum float32
	for _, v := range out {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-5)
	assert.Greater(t, out[2], out[1])
	assert.Greater(t, out[1], out[0])
}

func TestSoftmaxEmpty(t *testing.T) {
	out := Softmax(nil)
	assert.Empty(t, out)
}

func TestSoftmaxStableUnderShift(t *testing.T) {
	a := Softmax([]float32{1000, 1001, 1002})
	for _, v := range a {
		assert.False(t, math.IsNaN(float64(v)))
		assert.False(t, math.IsInf(float64(v), 0))
	}
}

func TestLeakyReLU(t *testing.T) {
	assert.Equal(t, float32(2), LeakyReLU(2, 0.2))
	assert.InDelta(t, float32(-0.4), LeakyReLU(-2, 0.2), 1e-6)
}

func TestELU(t *testing.T) {
	assert.Equal(t, float32(2), ELU(2, 1))
	assert.Less(t, ELU(-2, 1), float32(0))
	assert.Greater(t, ELU(-2, 1), float32(-1))
}

func TestSigmoidBounds(t *testing.T) {
	assert.InDelta(t, 0.5, Sigmoid(0), 1e-6)
	assert.Greater(t, Sigmoid(10), float32(0.99))
	assert.Less(t, Sigmoid(-10), float32(0.01))
}

func TestCosineZeroNorm(t *testing.T) {
	assert.Equal(t, float32(0), Cosine([]float32{0, 0}, []float32{1, 1}))
	assert.Equal(t, float32(0), Cosine([]float32{1, 1}, []float32{0, 0}))
}

func TestCosineIdentical(t *testing.T) {
	v := []float32{1, 2, 3}
	assert.InDelta(t, 1.0, Cosine(v, v), 1e-5)
}

func TestBCEClamping(t *testing.T) {
	// pred==label exactly should be near zero loss, never NaN/Inf even at 0/1.
	l0 := BCE(0, 0)
	l1 := BCE(1, 1)
	assert.False(t, math.IsNaN(float64(l0)))
	assert.False(t, math.IsNaN(float64(l1)))
	assert.Less(t, l0, float32(0.01))
	assert.Less(t, l1, float32(0.01))
}

func TestMatMulTransposed(t *testing.T) {
	a := NewDenseFromRows([][]float32{{1, 2}, {3, 4}})
	b := NewDenseFromRows([][]float32{{1, 0}, {0, 1}, {1, 1}})
	c := MatMulTransposed(a, b)
	require.Equal(t, 2, c.Rows())
	require.Equal(t, 3, c.Cols())
	assert.Equal(t, float32(1), c.At(0, 0))
	assert.Equal(t, float32(2), c.At(0, 1))
	assert.Equal(t, float32(3), c.At(0, 2))
	assert.Equal(t, float32(3), c.At(1, 0))
	assert.Equal(t, float32(4), c.At(1, 1))
	assert.Equal(t, float32(7), c.At(1, 2))
}

func TestXavierMatrixBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	d := XavierMatrix(4, 8, rng)
	scale := math.Sqrt(2.0 / 12.0)
	for r := 0; r < d.Rows(); r++ {
		for _, v := range d.Row(r) {
			assert.LessOrEqual(t, math.Abs(float64(v)), scale)
		}
	}
}

func TestInitVectorBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	v := InitVector(16, rng)
	scale := math.Sqrt(1.0 / 16.0)
	for _, x := range v {
		assert.LessOrEqual(t, math.Abs(float64(x)), scale)
	}
}

func TestDenseZero(t *testing.T) {
	d := NewDense(2, 2)
	d.Set(0, 0, 5)
	d.Zero()
	assert.Equal(t, float32(0), d.At(0, 0))
}
