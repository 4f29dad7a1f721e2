// Package quantization provides per-node vertex quantization matrices.
//
// A node's forward matrix maps model coordinates lying inside the node box
// onto the integer grid [0, 2^bits-1] on every axis; the inverse matrix maps
// quantized coordinates back to world space.
package quantization

import (
	"github.com/eak1mov/go-octiles/octree"
	"github.com/go-gl/mathgl/mgl64"
)

const DefaultBits = 16

// Quantizer implements octree.Quantizer.
type Quantizer struct {
	model    mgl64.Mat4
	maxValue float64
}

type config struct {
	Bits  int
	Model mgl64.Mat4
}

type Option func(*config)

// WithBits sets the number of bits per quantized component. Values outside
// [1, 32] fall back to DefaultBits.
func WithBits(bits int) Option {
	return func(c *config) { c.Bits = bits }
}

// WithModelTransform sets the transform applied to vertices before they are
// compared against node bounds.
func WithModelTransform(m mgl64.Mat4) Option {
	return func(c *config) { c.Model = m }
}

func New(opts ...Option) *Quantizer {
	c := config{
		Bits:  DefaultBits,
		Model: mgl64.Ident4(),
	}
	for _, opt := range opts {
		opt(&c)
	}
	if c.Bits < 1 || c.Bits > 32 {
		c.Bits = DefaultBits
	}
	return &Quantizer{
		model:    c.Model,
		maxValue: float64(uint64(1)<<c.Bits - 1),
	}
}

// MaxValue returns the largest quantized component.
func (q *Quantizer) MaxValue() float64 { return q.maxValue }

func (q *Quantizer) QuantizationMatrices(bounds octree.Bounds) (forward, inverse mgl64.Mat4) {
	scale := func(extent float64) float64 {
		if extent == 0 {
			return 1
		}
		return q.maxValue / extent
	}
	forward = mgl64.Scale3D(scale(bounds[3]), scale(bounds[4]), scale(bounds[5])).
		Mul4(mgl64.Translate3D(-bounds[0], -bounds[1], -bounds[2])).
		Mul4(q.model)
	return forward, forward.Inv()
}

var _ octree.Quantizer = (*Quantizer)(nil)
