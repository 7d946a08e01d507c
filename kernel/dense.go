package kernel

import "fmt"

// Dense is a row-major matrix of float32 values: r rows, c columns, data
// holds r*c elements with element (i,j) at data[i*c+j].
type Dense struct {
	r, c int
	data []float32
}

// NewDense allocates an r×c matrix of zeros. Zero is a valid dimension (an
// empty hypergraph has zero tools or zero capabilities); only negative
// dimensions are a programming error.
func NewDense(rows, cols int) *Dense {
	if rows < 0 || cols < 0 {
		panic(fmt.Errorf("kernel.NewDense(%d,%d): %w", rows, cols, ErrInvalidDimensions))
	}
	return &Dense{r: rows, c: cols, data: make([]float32, rows*cols)}
}

// NewDenseFromRows builds a Dense by stacking equal-length row vectors.
func NewDenseFromRows(rows [][]float32) *Dense {
	if len(rows) == 0 {
		panic(fmt.Errorf("kernel.NewDenseFromRows: %w", ErrInvalidDimensions))
	}
	cols := len(rows[0])
	d := NewDense(len(rows), cols)
	for i, row := range rows {
		if len(row) != cols {
			panic(fmt.Errorf("kernel.NewDenseFromRows: row %d has len %d, want %d: %w", i, len(row), cols, ErrShapeMismatch))
		}
		copy(d.data[i*cols:(i+1)*cols], row)
	}
	return d
}

// Rows returns the number of rows.
func (d *Dense) Rows() int { return d.r }

// Cols returns the number of columns.
func (d *Dense) Cols() int { return d.c }

func (d *Dense) indexOf(row, col int) int {
	if row < 0 || row >= d.r || col < 0 || col >= d.c {
		panic(fmt.Errorf("kernel.Dense: (%d,%d) out of bounds for %dx%d: %w", row, col, d.r, d.c, ErrIndexOutOfBounds))
	}
	return row*d.c + col
}

// At returns the element at (row, col).
func (d *Dense) At(row, col int) float32 { return d.data[d.indexOf(row, col)] }

// Set writes v into (row, col).
func (d *Dense) Set(row, col int, v float32) { d.data[d.indexOf(row, col)] = v }

// Row returns a mutable view of row i's backing slice (length Cols()).
func (d *Dense) Row(i int) []float32 {
	if i < 0 || i >= d.r {
		panic(fmt.Errorf("kernel.Dense.Row(%d): %w", i, ErrIndexOutOfBounds))
	}
	return d.data[i*d.c : (i+1)*d.c]
}

// SetRow overwrites row i with v (len(v) must equal Cols()).
func (d *Dense) SetRow(i int, v []float32) {
	if len(v) != d.c {
		panic(fmt.Errorf("kernel.Dense.SetRow(%d): len=%d, want %d: %w", i, len(v), d.c, ErrShapeMismatch))
	}
	copy(d.Row(i), v)
}

// Clone returns a deep copy.
func (d *Dense) Clone() *Dense {
	out := &Dense{r: d.r, c: d.c, data: make([]float32, len(d.data))}
	copy(out.data, d.data)
	return out
}

// Zero resets every element to 0, in place. Used to reset gradient
// accumulators between batches without reallocating.
func (d *Dense) Zero() {
	for i := range d.data {
		d.data[i] = 0
	}
}

// MatMulTransposed computes C[i][j] = Σ_x a[i][x]·b[j][x] for a: n×m and
// b: k×m, returning an n×k matrix. This is the "project by W^T" shape used
// throughout the message-passing engine (features × weightsᵀ).
func MatMulTransposed(a, b *Dense) *Dense {
	if a.Cols() != b.Cols() {
		panic(fmt.Errorf("kernel.MatMulTransposed: a is %dx%d, b is %dx%d: %w", a.r, a.c, b.r, b.c, ErrShapeMismatch))
	}
	n, k, m := a.Rows(), b.Rows(), a.Cols()
	out := NewDense(n, k)
	for i := 0; i < n; i++ {
		ai := a.Row(i)
		for j := 0; j < k; j++ {
			bj := b.Row(j)
			var sum float32
			for x := 0; x < m; x++ {
				sum += ai[x] * bj[x]
			}
			out.Set(i, j, sum)
		}
	}
	return out
}
