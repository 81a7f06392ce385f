// Package solver computes the analytical equilibrium of a mobile: per-arm
// tilt angles, balance feedback, and a full-tree positional solve. Every
// function here is pure; the same tree always produces the same answer.
package solver

import (
	"math"

	"github.com/calderlab/mobile/internal/tree"
)

// MaxTilt caps how far an arm may tip, 30 degrees either way.
const MaxTilt = math.Pi / 6

// SelfTorque is the torque of the arm's own beam mass, acting at its
// geometric center. Positive means the center of mass sits right of the
// pivot and the beam's weight pulls the right side down.
func SelfTorque(a *tree.Arm) float64 {
	return a.Mass() * a.Length * (0.5 - a.Pivot)
}

// torques returns net and total torque about the arm's pivot, both
// including the arm's own mass.
func torques(a *tree.Arm) (net, total float64) {
	leftMass := tree.SubtreeMass(a.Left)
	rightMass := tree.SubtreeMass(a.Right)

	leftTorque := leftMass * a.LeftDist()
	rightTorque := rightMass * a.RightDist()
	net = leftTorque - rightTorque - SelfTorque(a)

	avgDist := (a.LeftDist() + a.RightDist()) / 2
	total = (leftMass + rightMass + a.Mass()) * avgDist
	return net, total
}

// TiltAngle is the arm's equilibrium tilt under gravity. Positive tilt
// tips the left side down. A degenerate arm with zero total torque
// hangs level.
func TiltAngle(a *tree.Arm) float64 {
	net, total := torques(a)
	if total == 0 {
		return 0
	}
	imbalance := net / total
	tilt := imbalance * MaxTilt * 2
	if tilt > MaxTilt {
		return MaxTilt
	}
	if tilt < -MaxTilt {
		return -MaxTilt
	}
	return tilt
}

// BalanceRatio measures how close the arm is to zero net torque:
// 1 is perfectly balanced, 0 fully imbalanced. Never negative.
func BalanceRatio(a *tree.Arm) float64 {
	net, total := torques(a)
	if total == 0 {
		return 1
	}
	r := 1 - math.Abs(net)/total
	if r < 0 {
		return 0
	}
	return r
}
