// Package balance computes auto-balance targets and animates pivots
// toward them.
package balance

import (
	"github.com/calderlab/mobile/internal/tree"
)

// OptimalPivot is the pivot position that zeroes the arm's net torque,
// its own beam mass included, clamped to the legal pivot range. Each
// arm is optimized locally; subtree masses do not depend on pivots, so
// one bottom-up pass settles the whole tree.
func OptimalPivot(a *tree.Arm) float64 {
	leftMass := tree.SubtreeMass(a.Left)
	rightMass := tree.SubtreeMass(a.Right)
	total := leftMass + rightMass + a.Mass()
	if total == 0 {
		return a.Pivot
	}
	p := (rightMass + a.Mass()/2) / total
	if p < tree.MinPivot {
		return tree.MinPivot
	}
	if p > tree.MaxPivot {
		return tree.MaxPivot
	}
	return p
}

// Targets computes the optimal pivot for every arm, children before
// parents. Post-order matters only for intent clarity: a child's own
// balance is settled before its mass is weighed by the parent.
func Targets(root tree.Node) map[string]float64 {
	targets := make(map[string]float64)
	collect(root, targets)
	return targets
}

func collect(n tree.Node, targets map[string]float64) {
	a, ok := n.(*tree.Arm)
	if !ok {
		return
	}
	collect(a.Left, targets)
	collect(a.Right, targets)
	targets[a.ID] = OptimalPivot(a)
}

// Apply sets every arm's pivot to its target immediately, without
// animation. Used by headless commands.
func Apply(root tree.Node, targets map[string]float64) {
	tree.Walk(root, func(n tree.Node) bool {
		if a, ok := n.(*tree.Arm); ok {
			if t, ok := targets[a.ID]; ok {
				a.Pivot = t
			}
		}
		return true
	})
}
