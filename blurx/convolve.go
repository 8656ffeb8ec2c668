package blurx

import (
	"errors"
	"image"
	"runtime"
	"sync"

	"github.com/disintegration/imaging"
)

// Convolve correlates src with the kernel and returns a new image
// of the same width and height. The source image is never modified.
//
// The kernel is applied without flipping (correlation). The source
// pixel for kernel cell (i, j) at output pixel (x, y) is
// (x + j - cols/2, y + i - rows/2) using integer division, the same
// center convention as NewGaussianKernel.
//
// Pixels outside the image are handled by edge replication: source
// coordinates are clamped to the image bounds. This makes the result
// well defined even when the kernel is larger than the image in
// either axis.
//
// All four NRGBA channels are filtered. Each channel is accumulated
// in float64, rounded to nearest, and clamped to [0, 255].
func Convolve(
	src image.Image,
	k *Kernel,
	opts ...ConvolveOption,
) (*image.NRGBA, error) {
	if k == nil {
		return nil, errors.New("blurx: nil kernel")
	}
	// Set up default options
	o := convolveOptions{
		pChunk: 32,
		pLimit: runtime.GOMAXPROCS(0),
	}
	// Apply user option overrides
	for i := range opts {
		opts[i].apply(&o)
	}
	if err := o.validate(); err != nil {
		return nil, err
	}

	// Clone normalizes any image.Image into an NRGBA buffer with
	// bounds starting at the origin.
	in := imaging.Clone(src)
	width := in.Rect.Dx()
	height := in.Rect.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, width, height))
	if width == 0 || height == 0 {
		return out, nil
	}

	kRows, kCols := k.Dims()
	offX := kCols / 2
	offY := kRows / 2

	convolveRow := func(y int) {
		dstOff := y * out.Stride
		for x := 0; x < width; x++ {
			var sum [4]float64
			for i := 0; i < kRows; i++ {
				sy := y + i - offY
				if sy < 0 {
					sy = 0
				} else if sy >= height {
					sy = height - 1
				}
				rowOff := sy * in.Stride
				for j := 0; j < kCols; j++ {
					sx := x + j - offX
					if sx < 0 {
						sx = 0
					} else if sx >= width {
						sx = width - 1
					}
					w := k.At(i, j)
					srcOff := rowOff + sx*4
					sum[0] += float64(in.Pix[srcOff+0]) * w
					sum[1] += float64(in.Pix[srcOff+1]) * w
					sum[2] += float64(in.Pix[srcOff+2]) * w
					sum[3] += float64(in.Pix[srcOff+3]) * w
				}
			}
			out.Pix[dstOff+0] = floatToByte(sum[0])
			out.Pix[dstOff+1] = floatToByte(sum[1])
			out.Pix[dstOff+2] = floatToByte(sum[2])
			out.Pix[dstOff+3] = floatToByte(sum[3])
			dstOff += 4
		}
	}

	parallel(0, height, o.pChunk, o.pLimit, func(chunks <-chan chunk) {
		for c := range chunks {
			for y := c.start; y < c.stop; y++ {
				convolveRow(y)
			}
		}
	})

	return out, nil
}

// Each output pixel depends only on a read-only neighborhood of the
// input, so rows can be processed concurrently without locking.
// parallel splits [start, stop) into chunks and runs fn in up to
// limit goroutines.
func parallel(start, stop, size, limit int, fn func(<-chan chunk)) {
	if stop <= start {
		return
	}
	count := (stop-start-1)/size + 1
	if limit > count {
		limit = count
	}
	c := make(chan chunk, count)
	for i := start; i < stop; i += size {
		end := i + size
		if end > stop {
			end = stop
		}
		c <- chunk{start: i, stop: end}
	}
	close(c)

	if limit <= 1 {
		fn(c)
		return
	}

	var wg sync.WaitGroup
	for i := 0; i < limit; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(c)
		}()
	}
	wg.Wait()
}

type chunk struct {
	start int
	stop  int
}

func floatToByte(x float64) uint8 {
	v := int64(x + 0.5)
	if v > 255 {
		return 255
	}
	if v > 0 {
		return uint8(v)
	}
	return 0
}

type convolveOptions struct {
	// number of rows in each work
	// batch processed by workers
	pChunk int
	// parallel limit
	pLimit int
}

func (o *convolveOptions) validate() error {
	if o.pChunk <= 0 {
		return errors.New(
			"invalid value for parallel batch size, must be greater than 0",
		)
	}
	if o.pLimit <= 0 {
		return errors.New(
			"invalid value for parallel limit, must be greater than 0",
		)
	}
	return nil
}

type ConvolveOption interface {
	apply(*convolveOptions)
}

type convolveOptionFunc func(*convolveOptions)

func (f convolveOptionFunc) apply(opts *convolveOptions) {
	f(opts)
}

// Maximum number of parallel workers (go routines).
// A limit of 1 processes all rows sequentially. The
// output does not depend on the limit.
func WithConvolveParallelLimit(limit int) ConvolveOption {
	return convolveOptionFunc(func(opts *convolveOptions) {
		opts.pLimit = limit
	})
}

// Number of image rows in each job that the workers
// (go routines) take on.
func WithConvolveParallelBatchSize(rows int) ConvolveOption {
	return convolveOptionFunc(func(opts *convolveOptions) {
		opts.pChunk = rows
	})
}
