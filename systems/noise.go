package systems

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// WanderField produces smooth pseudo-random headings for idle motion.
// Each bird samples the field at its own seed offset so flocks do not
// drift in lock-step.
type WanderField struct {
	noise opensimplex.Noise
}

// NewWanderField creates a wander field from a world seed.
func NewWanderField(seed int64) *WanderField {
	return &WanderField{noise: opensimplex.NewNormalized(seed)}
}

// Heading returns a unit direction for the given bird seed at time t.
// The heading turns continuously as t advances.
func (w *WanderField) Heading(birdSeed float32, t float64) (dx, dy float32) {
	angle := w.noise.Eval2(float64(birdSeed), t*0.15) * 2 * math.Pi * 2
	return float32(math.Cos(angle)), float32(math.Sin(angle))
}

// Jitter returns a small offset in [-scale, scale] for cache placement
// and perch spacing.
func (w *WanderField) Jitter(birdSeed float32, t float64, scale float32) (dx, dy float32) {
	nx := w.noise.Eval2(float64(birdSeed)+17.3, t*0.5)*2 - 1
	ny := w.noise.Eval2(float64(birdSeed)+91.7, t*0.5)*2 - 1
	return float32(nx) * scale, float32(ny) * scale
}
