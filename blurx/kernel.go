package blurx

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrInvalidKernelSize is returned when a kernel dimension
	// is zero or negative.
	ErrInvalidKernelSize = errors.New("blurx: kernel dimensions must be positive")
	// ErrInvalidSigma is returned when a spread parameter is zero
	// or negative. Computing weights with sigma <= 0 would divide
	// by zero and fill the kernel with NaN, so it is rejected up
	// front instead.
	ErrInvalidSigma = errors.New("blurx: sigma must be positive")
)

// Kernel is a normalized 2-dimensional weight matrix.
// Its weights always sum to 1, so convolving with it
// preserves the average brightness of an image.
// A Kernel must not be modified after construction.
type Kernel struct {
	weights *mat.Dense
	rows    int
	cols    int
}

// NewGaussianKernel builds a rows x cols Gaussian kernel with the
// given horizontal and vertical spread.
//
// The kernel center sits at column cols/2 and row rows/2 using
// integer division. For even dimensions this biases the center
// toward the top-left cell of the central 2x2 block, which shifts
// the filter response by half a pixel. That matches the behavior
// of the program this package reimplements and is kept on purpose.
//
// rows=1 or cols=1 degenerates to a 1-D Gaussian and is valid.
func NewGaussianKernel(
	rows, cols int,
	sigmaX, sigmaY float64,
) (*Kernel, error) {
	if rows < 1 || cols < 1 {
		return nil, ErrInvalidKernelSize
	}
	if sigmaX <= 0 || sigmaY <= 0 {
		return nil, ErrInvalidSigma
	}
	centerX := cols / 2
	centerY := rows / 2
	varX2 := 2 * sigmaX * sigmaX
	varY2 := 2 * sigmaY * sigmaY
	w := mat.NewDense(rows, cols, nil)
	var sum float64
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			x := float64(j - centerX)
			y := float64(i - centerY)
			v := math.Exp(-(x*x/varX2 + y*y/varY2))
			w.Set(i, j, v)
			sum += v
		}
	}
	w.Scale(1/sum, w)
	return &Kernel{weights: w, rows: rows, cols: cols}, nil
}

// Dims returns the number of rows and columns of the kernel.
func (k *Kernel) Dims() (rows, cols int) {
	return k.rows, k.cols
}

// At returns the weight at row i, column j.
func (k *Kernel) At(i, j int) float64 {
	return k.weights.At(i, j)
}
