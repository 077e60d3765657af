package inventory

import "math/rand"

// Placement picks a position for nodes created without one: both coordinates
// are drawn uniformly from [Min, Min+Span).
type Placement struct {
	Min  float64
	Span float64
	rnd  func() float64
}

func DefaultPlacement() Placement { return NewPlacement(200, 400, nil) }

// NewPlacement uses rnd as the [0,1) source, or math/rand when nil.
func NewPlacement(lo, span float64, rnd func() float64) Placement {
	if rnd == nil {
		rnd = rand.Float64
	}
	return Placement{Min: lo, Span: span, rnd: rnd}
}

func (p Placement) Next() Position {
	rnd := p.rnd
	if rnd == nil {
		rnd = rand.Float64
	}
	return Position{X: p.Min + rnd()*p.Span, Y: p.Min + rnd()*p.Span}
}

// Contains reports whether pos lies in the band.
func (p Placement) Contains(pos Position) bool {
	in := func(v float64) bool { return v >= p.Min && v < p.Min+p.Span }
	return in(pos.X) && in(pos.Y)
}
