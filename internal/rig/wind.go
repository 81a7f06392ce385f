package rig

import (
	"math"

	"github.com/calderlab/mobile/internal/geom"
)

// WindBaseForce scales direction*intensity into engine force units.
const WindBaseForce = 2.0

type WindMode int

const (
	WindUniform WindMode = iota
	WindTurbulent
)

// Wind is the environmental force field. Uniform mode pushes every
// body the same way; turbulent mode samples a smooth pseudo-noise
// field at the body's position and simulation time.
type Wind struct {
	Mode       WindMode
	Direction  geom.Vec3
	Intensity  float64
	Turbulence float64 // 0..1, noise amplitude in turbulent mode
}

// Force is the per-body per-frame wind force. Zero intensity disables
// wind entirely regardless of mode or direction.
func (w Wind) Force(pos geom.Vec3, simTime float64) geom.Vec3 {
	if w.Intensity == 0 {
		return geom.Vec3{}
	}
	base := w.Direction.Normalize().Scale(WindBaseForce * w.Intensity)
	if w.Mode != WindTurbulent {
		return base
	}

	n := noise(pos, simTime) * w.Turbulence

	// Noise modulates magnitude, swirls the horizontal components,
	// and breathes the vertical one.
	f := base.Scale(0.5 + n*0.5)
	f = f.RotateXZ(n * math.Pi * 0.3)
	f.Y *= 0.8 + n*0.4
	return f
}

// noise is a smooth field in roughly [-1,1]: three sine/cosine cross
// terms over position and time.
func noise(p geom.Vec3, t float64) float64 {
	return (math.Sin(p.X*1.3+t*0.7)*math.Cos(p.Y*1.7+t*0.9) +
		math.Sin(p.Y*0.9+t*1.1)*math.Cos(p.Z*1.5+t*0.6) +
		math.Sin(p.Z*1.1+t*0.8)*math.Cos(p.X*0.7+t*1.3)) / 3
}
