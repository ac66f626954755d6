package renderer

import "time"

// VisitorBuilderOption is a functional option applied to a draw visitor during construction.
type VisitorBuilderOption func(*drawVisitor)

// WithAmbient sets the ambient light color written into every draw's light block.
//
// Parameters:
//   - ambient: the ambient color as RGB
//
// Returns:
//   - VisitorBuilderOption: a function that applies the ambient color to a visitor
func WithAmbient(ambient [3]float32) VisitorBuilderOption {
	return func(v *drawVisitor) {
		v.ambient = ambient
	}
}

// WithClock sets the clock used to stamp buffer uploads.
//
// Parameters:
//   - now: the clock
//
// Returns:
//   - VisitorBuilderOption: a function that applies the clock to a visitor
func WithClock(now func() time.Time) VisitorBuilderOption {
	return func(v *drawVisitor) {
		if now != nil {
			v.now = now
		}
	}
}
