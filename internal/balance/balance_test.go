package balance

import (
	"math"
	"testing"
	"time"

	"github.com/calderlab/mobile/internal/solver"
	"github.com/calderlab/mobile/internal/tree"
)

const eps = 1e-9

func lopsided(ids *tree.IDSource) *tree.Arm {
	return &tree.Arm{
		ID: ids.Next(), WireLength: 0.7, Length: 4, Pivot: 0.5,
		Left:  &tree.Weight{ID: ids.Next(), WireLength: 0.7, Mass: 2, Shape: tree.Sphere, Size: 0.3},
		Right: &tree.Weight{ID: ids.Next(), WireLength: 0.7, Mass: 1, Shape: tree.Sphere, Size: 0.3},
	}
}

func TestOptimalPivot_ZeroesTilt(t *testing.T) {
	ids := tree.NewIDSource()
	a := lopsided(ids)

	a.Pivot = OptimalPivot(a)
	if tilt := solver.TiltAngle(a); math.Abs(tilt) > eps {
		t.Errorf("tilt at optimal pivot = %v, want 0", tilt)
	}
	if r := solver.BalanceRatio(a); math.Abs(r-1) > eps {
		t.Errorf("ratio at optimal pivot = %v, want 1", r)
	}
}

func TestOptimalPivot_Clamped(t *testing.T) {
	ids := tree.NewIDSource()
	a := lopsided(ids)

	// an extreme mass ratio pushes the ideal pivot past the legal range
	a.Left.(*tree.Weight).Mass = 0.1
	a.Right.(*tree.Weight).Mass = 10
	if p := OptimalPivot(a); p != tree.MaxPivot {
		t.Errorf("pivot = %v, want clamp at %v", p, tree.MaxPivot)
	}

	a.Left.(*tree.Weight).Mass = 10
	a.Right.(*tree.Weight).Mass = 0.1
	if p := OptimalPivot(a); p != tree.MinPivot {
		t.Errorf("pivot = %v, want clamp at %v", p, tree.MinPivot)
	}
}

func TestTargetsAndApply(t *testing.T) {
	ids := tree.NewIDSource()
	inner := lopsided(ids)
	root := &tree.Arm{
		ID: ids.Next(), WireLength: 0.7, Length: 5, Pivot: 0.8,
		Left:  inner,
		Right: &tree.Weight{ID: ids.Next(), WireLength: 0.7, Mass: 0.5, Shape: tree.Sphere, Size: 0.3},
	}

	targets := Targets(root)
	if len(targets) != 2 {
		t.Fatalf("got %d targets, want one per arm", len(targets))
	}

	Apply(root, targets)
	tree.Walk(root, func(n tree.Node) bool {
		if a, ok := n.(*tree.Arm); ok {
			if tilt := solver.TiltAngle(a); math.Abs(tilt) > eps {
				t.Errorf("arm %s still tilted by %v after Apply", a.ID, tilt)
			}
		}
		return true
	})
}

func TestTargets_WeightOnly(t *testing.T) {
	ids := tree.NewIDSource()
	if got := Targets(tree.NewDefaultWeight(ids)); len(got) != 0 {
		t.Errorf("got %d targets for a lone weight, want 0", len(got))
	}
}

func TestAnimator_Progression(t *testing.T) {
	ids := tree.NewIDSource()
	root := lopsided(ids)
	start := root.Pivot
	target := OptimalPivot(root)

	an := NewAnimator(root)
	if an.Done() {
		t.Fatal("animator done before any Advance")
	}

	// the animator works on a clone; the live tree is untouched
	if running := an.Advance(100 * time.Millisecond); !running {
		t.Fatal("animation ended after 100ms of a 500ms window")
	}
	if root.Pivot != start {
		t.Errorf("source tree pivot changed to %v", root.Pivot)
	}

	mid := an.Tree().(*tree.Arm).Pivot
	wantMid := start + (target-start)*easeOutCubic(0.2)
	if math.Abs(mid-wantMid) > eps {
		t.Errorf("pivot at 100ms = %v, want %v", mid, wantMid)
	}

	// ease-out: the first fifth of the window covers over a third of the
	// distance
	if frac := (mid - start) / (target - start); frac <= 0.2 {
		t.Errorf("eased progress %v not ahead of linear", frac)
	}
}

func TestAnimator_LandsOnTarget(t *testing.T) {
	ids := tree.NewIDSource()
	root := lopsided(ids)
	target := OptimalPivot(root)

	an := NewAnimator(root)
	for an.Advance(16 * time.Millisecond) {
	}
	if !an.Done() {
		t.Fatal("loop exited with animator not done")
	}
	if got := an.Tree().(*tree.Arm).Pivot; math.Abs(got-target) > eps {
		t.Errorf("final pivot = %v, want exactly %v", got, target)
	}

	// advancing a finished animator is a no-op
	if an.Advance(time.Second) {
		t.Error("Advance returned true after completion")
	}
}

func TestAnimator_NoArms(t *testing.T) {
	ids := tree.NewIDSource()
	an := NewAnimator(tree.NewDefaultWeight(ids))
	if !an.Done() {
		t.Error("animator over an armless tree should start done")
	}
}

func TestEaseOutCubic(t *testing.T) {
	if got := easeOutCubic(0); got != 0 {
		t.Errorf("easeOutCubic(0) = %v", got)
	}
	if got := easeOutCubic(1); got != 1 {
		t.Errorf("easeOutCubic(1) = %v", got)
	}
	if easeOutCubic(0.5) <= 0.5 {
		t.Error("ease-out must lead the linear ramp at the midpoint")
	}
}
