package balance

import (
	"time"

	"github.com/calderlab/mobile/internal/tree"
)

// Duration is the fixed auto-balance animation window.
const Duration = 500 * time.Millisecond

// Animator interpolates pivots from their values at start toward the
// optimizer's targets over a fixed window with ease-out-cubic motion.
// It works on its own clone of the tree: the caller reads Tree() after
// each Advance and decides what to publish. Structural edits elsewhere
// never corrupt the animation snapshot.
type Animator struct {
	root    tree.Node
	initial map[string]float64
	targets map[string]float64
	elapsed time.Duration
	done    bool
}

// NewAnimator snapshots the current pivots and computes targets once.
// A tree with no arms yields an animator that is immediately done.
func NewAnimator(root tree.Node) *Animator {
	snap := tree.Clone(root)
	a := &Animator{
		root:    snap,
		initial: make(map[string]float64),
		targets: Targets(snap),
	}
	tree.Walk(snap, func(n tree.Node) bool {
		if arm, ok := n.(*tree.Arm); ok {
			a.initial[arm.ID] = arm.Pivot
		}
		return true
	})
	a.done = len(a.targets) == 0
	return a
}

// Advance moves the animation forward by dt and applies the eased
// pivots to the animator's tree. It is a cooperative per-frame step:
// each call is cheap and synchronous. Returns true while the animation
// is still running.
func (a *Animator) Advance(dt time.Duration) bool {
	if a.done {
		return false
	}
	a.elapsed += dt
	progress := float64(a.elapsed) / float64(Duration)
	if progress >= 1 {
		progress = 1
		a.done = true
	}
	eased := easeOutCubic(progress)

	tree.Walk(a.root, func(n tree.Node) bool {
		arm, ok := n.(*tree.Arm)
		if !ok {
			return true
		}
		from, okFrom := a.initial[arm.ID]
		to, okTo := a.targets[arm.ID]
		if okFrom && okTo {
			arm.Pivot = from + (to-from)*eased
		}
		return true
	})
	return !a.done
}

// Tree exposes the animator's working tree for publishing after an
// Advance. Callers must clone before mutating it structurally.
func (a *Animator) Tree() tree.Node { return a.root }

func (a *Animator) Done() bool { return a.done }

func easeOutCubic(p float64) float64 {
	q := 1 - p
	return 1 - q*q*q
}
