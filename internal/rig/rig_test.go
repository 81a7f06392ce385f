package rig

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/calderlab/mobile/internal/geom"
	"github.com/calderlab/mobile/internal/solver"
	"github.com/calderlab/mobile/internal/tree"
)

const eps = 1e-9

var errRemoved = errors.New("body removed")

type fakeBody struct {
	def      BodyDef
	pos      geom.Vec3
	vel      geom.Vec3
	angle    float64
	fixed    bool
	removed  bool
	forces   []geom.Vec3
	impulses []geom.Vec3
}

func (b *fakeBody) Position() geom.Vec3 { return b.pos }
func (b *fakeBody) Velocity() geom.Vec3 { return b.vel }

func (b *fakeBody) SetTransform(pos geom.Vec3, angle float64) error {
	if b.removed {
		return errRemoved
	}
	b.pos, b.angle = pos, angle
	return nil
}

func (b *fakeBody) SetVelocity(vel geom.Vec3) error {
	if b.removed {
		return errRemoved
	}
	b.vel = vel
	return nil
}

func (b *fakeBody) ApplyForce(f geom.Vec3) error {
	if b.removed {
		return errRemoved
	}
	b.forces = append(b.forces, f)
	return nil
}

func (b *fakeBody) ApplyImpulse(imp geom.Vec3) error {
	if b.removed {
		return errRemoved
	}
	b.impulses = append(b.impulses, imp)
	return nil
}

type fakeJoint struct {
	parent, child             Body
	parentAnchor, childAnchor geom.Vec3
}

type fakeEngine struct {
	gravity             geom.Vec3
	posIters, fricIters int
	bodies              []*fakeBody
	joints              []fakeJoint
	steps               int
	collide             func(a, b Body)
}

func (e *fakeEngine) SetGravity(g geom.Vec3) { e.gravity = g }

func (e *fakeEngine) SetIterations(position, friction int) {
	e.posIters, e.fricIters = position, friction
}

func (e *fakeEngine) CreateBody(def BodyDef) Body {
	b := &fakeBody{def: def, pos: def.Position}
	e.bodies = append(e.bodies, b)
	return b
}

func (e *fakeEngine) CreateFixedBody(pos geom.Vec3) Body {
	b := &fakeBody{pos: pos, fixed: true}
	e.bodies = append(e.bodies, b)
	return b
}

func (e *fakeEngine) CreateJoint(parent, child Body, parentAnchor, childAnchor geom.Vec3) {
	e.joints = append(e.joints, fakeJoint{parent, child, parentAnchor, childAnchor})
}

func (e *fakeEngine) RemoveBody(b Body) { b.(*fakeBody).removed = true }

func (e *fakeEngine) OnCollision(fn func(a, b Body)) { e.collide = fn }

func (e *fakeEngine) Step(dt float64) { e.steps++ }

func (e *fakeEngine) live() []*fakeBody {
	var out []*fakeBody
	for _, b := range e.bodies {
		if !b.removed {
			out = append(out, b)
		}
	}
	return out
}

func starterTree(t *testing.T) tree.Node {
	t.Helper()
	return tree.NewDefaultTree(tree.NewIDSource())
}

func quiet(a *Adapter) { a.warnf = func(string, ...any) {} }

func TestBuild_Graph(t *testing.T) {
	e := &fakeEngine{}
	a := NewAdapter(e)
	root := starterTree(t)

	a.Build(root)

	// one fixed anchor plus one dynamic body per node
	if got := len(e.bodies); got != 4 {
		t.Fatalf("engine holds %d bodies, want 4", got)
	}
	var fixed int
	for _, b := range e.bodies {
		if b.fixed {
			fixed++
		}
	}
	if fixed != 1 {
		t.Errorf("engine holds %d fixed bodies, want 1", fixed)
	}

	// one wire joint per node, all child anchors at the wire top
	if got := len(e.joints); got != 3 {
		t.Fatalf("engine holds %d joints, want 3", got)
	}
	for _, j := range e.joints {
		child := j.child.(*fakeBody)
		if math.Abs(j.childAnchor.Y-childAnchorWire(root, a, child)) > eps {
			t.Errorf("child anchor %v not at the wire top", j.childAnchor)
		}
	}

	// arm endpoints feed the children's parent-side anchors
	arm := root.(*tree.Arm)
	var sawLeft, sawRight bool
	for _, j := range e.joints {
		switch {
		case math.Abs(j.parentAnchor.X-(-arm.LeftDist())) < eps && j.parentAnchor.X != 0:
			sawLeft = true
		case math.Abs(j.parentAnchor.X-arm.RightDist()) < eps && j.parentAnchor.X != 0:
			sawRight = true
		}
	}
	if !sawLeft || !sawRight {
		t.Error("arm endpoint anchors missing from the joint set")
	}

	if e.gravity.Y >= 0 {
		t.Errorf("gravity = %+v, want downward", e.gravity)
	}
	if e.posIters == 0 || e.fricIters == 0 {
		t.Error("solver iterations never configured")
	}
}

// childAnchorWire looks up the wire length of the node owning the body.
func childAnchorWire(root tree.Node, a *Adapter, b *fakeBody) float64 {
	for id, cand := range a.bodies {
		if cand == Body(b) {
			return tree.Find(root, id).WireLen()
		}
	}
	return math.NaN()
}

func TestBuild_RestPose(t *testing.T) {
	e := &fakeEngine{}
	a := NewAdapter(e)
	root := starterTree(t)
	root.(*tree.Arm).Left.(*tree.Weight).Mass = 3 // force a tilt

	a.Build(root)

	layout := solver.Solve(root)
	tree.Walk(root, func(n tree.Node) bool {
		b, ok := a.Body(n.NodeID())
		if !ok {
			t.Fatalf("no body for %s", n.NodeID())
		}
		p, _ := layout.Placement(n.NodeID())
		if got := b.Position(); got.Sub(p.Position).Len() > eps {
			t.Errorf("body %s at %+v, want rest pose %+v", n.NodeID(), got, p.Position)
		}
		return true
	})
}

func TestBuild_Masses(t *testing.T) {
	e := &fakeEngine{}
	a := NewAdapter(e)
	root := starterTree(t).(*tree.Arm)
	root.Left.(*tree.Weight).Mass = 2.5

	a.Build(root)

	armBody, _ := a.Body(root.ID)
	if got := armBody.(*fakeBody).def.Mass; math.Abs(got-root.Mass()) > eps {
		t.Errorf("arm body mass = %v, want beam mass %v", got, root.Mass())
	}
	leftBody, _ := a.Body(root.Left.NodeID())
	if got := leftBody.(*fakeBody).def.Mass; got != 2.5 {
		t.Errorf("weight body mass = %v, want 2.5", got)
	}
	if !leftBody.(*fakeBody).def.NeverSleep {
		t.Error("bodies must never sleep")
	}
}

func TestBuild_ModelMassFromMesh(t *testing.T) {
	e := &fakeEngine{}
	a := NewAdapter(e)
	a.SetMeshLookup(func(modelID string) (geom.MeshStats, bool) {
		if modelID == "bird" {
			return geom.MeshStats{Volume: 2}, true
		}
		return geom.MeshStats{}, false
	})

	root := starterTree(t).(*tree.Arm)
	w := root.Left.(*tree.Weight)
	w.Shape = tree.Model
	w.ModelID = "bird"
	w.ModelScale = 1
	w.Mass = 9 // stored mass loses to the volume estimate

	a.Build(root)
	b, _ := a.Body(w.ID)
	want := geom.MassFromVolume(2)
	if got := b.(*fakeBody).def.Mass; math.Abs(got-want) > eps {
		t.Errorf("model mass = %v, want volume-derived %v", got, want)
	}

	// a user-set mass always wins
	w.MassSetByUser = true
	a.Build(root)
	b, _ = a.Body(w.ID)
	if got := b.(*fakeBody).def.Mass; got != 9 {
		t.Errorf("user mass = %v, want 9", got)
	}
}

func TestBuild_Rebuild(t *testing.T) {
	e := &fakeEngine{}
	a := NewAdapter(e)
	root := starterTree(t)

	a.Build(root)
	a.Build(root)

	// the first graph is gone, the second complete
	if got := len(e.live()); got != 4 {
		t.Errorf("%d live bodies after rebuild, want 4", got)
	}
}

func TestDamping_Mapping(t *testing.T) {
	e := &fakeEngine{}
	a := NewAdapter(e)
	a.SetDamping(2) // clamps to 1
	a.Build(starterTree(t))

	for _, b := range e.live() {
		if b.fixed {
			continue
		}
		if math.Abs(b.def.LinearDamping-1.5) > eps {
			t.Errorf("linear damping = %v, want 1.5 at full damping", b.def.LinearDamping)
		}
		if math.Abs(b.def.AngularDamping-2.0) > eps {
			t.Errorf("angular damping = %v, want 2.0 at full damping", b.def.AngularDamping)
		}
	}
}

func TestAdvance_FixedStep(t *testing.T) {
	e := &fakeEngine{}
	a := NewAdapter(e)
	a.Build(starterTree(t))
	a.SetTimestep(1.0 / 60)

	// under one step of real time accumulates without stepping
	a.Advance(10 * time.Millisecond)
	if e.steps != 0 {
		t.Errorf("stepped %d times on 10ms at 60Hz", e.steps)
	}
	a.Advance(10 * time.Millisecond)
	if e.steps != 1 {
		t.Errorf("stepped %d times on 20ms at 60Hz, want 1", e.steps)
	}

	// a stalled frame is clamped instead of spiraling
	a.Advance(10 * time.Second)
	if e.steps > 1+int(maxFrameClamp*60)+1 {
		t.Errorf("stepped %d times after a stall, want the clamp to bound it", e.steps)
	}
}

func TestAdvance_Paused(t *testing.T) {
	e := &fakeEngine{}
	a := NewAdapter(e)
	a.Build(starterTree(t))

	a.Pause()
	a.Advance(time.Second)
	if e.steps != 0 {
		t.Errorf("paused adapter stepped %d times", e.steps)
	}
	if !a.Paused() {
		t.Error("Paused() = false after Pause")
	}
	a.Resume()
	a.Advance(time.Second)
	if e.steps == 0 {
		t.Error("resumed adapter never stepped")
	}
}

func TestTimeScale_SlowsAccumulation(t *testing.T) {
	e := &fakeEngine{}
	a := NewAdapter(e)
	a.Build(starterTree(t))
	a.SetTimestep(0.01)
	a.SetTimeScale(0.5)

	a.Advance(100 * time.Millisecond) // 50ms of sim time
	if e.steps != 5 {
		t.Errorf("stepped %d times, want 5 at half speed", e.steps)
	}

	// the scale clamps to [0.1, 1.0]
	a.SetTimeScale(7)
	if a.timeScale != 1.0 {
		t.Errorf("timeScale = %v, want clamp at 1.0", a.timeScale)
	}
	a.SetTimeScale(0)
	if a.timeScale != 0.1 {
		t.Errorf("timeScale = %v, want clamp at 0.1", a.timeScale)
	}
}

func TestWindForces(t *testing.T) {
	e := &fakeEngine{}
	a := NewAdapter(e)
	a.Build(starterTree(t))
	a.SetTimestep(0.01)

	// zero intensity: bodies feel nothing
	a.SetWind(Wind{Direction: geom.Vec3{X: 1}, Intensity: 0})
	a.Advance(10 * time.Millisecond)
	for _, b := range e.live() {
		if len(b.forces) != 0 {
			t.Fatal("wind applied at zero intensity")
		}
	}

	// uniform wind pushes every body identically
	a.SetWind(Wind{Direction: geom.Vec3{X: 1}, Intensity: 0.5})
	a.Advance(10 * time.Millisecond)
	want := geom.Vec3{X: WindBaseForce * 0.5}
	for _, b := range e.live() {
		if b.fixed {
			continue
		}
		if len(b.forces) != 1 {
			t.Fatalf("body got %d wind forces, want 1", len(b.forces))
		}
		if b.forces[0].Sub(want).Len() > eps {
			t.Errorf("uniform wind force = %+v, want %+v", b.forces[0], want)
		}
	}
}

func TestWind_Turbulent(t *testing.T) {
	w := Wind{
		Mode:       WindTurbulent,
		Direction:  geom.Vec3{X: 1},
		Intensity:  1,
		Turbulence: 1,
	}

	if got := (Wind{Mode: WindTurbulent, Direction: geom.Vec3{X: 1}}).Force(geom.Vec3{}, 0); got.Len() != 0 {
		t.Errorf("turbulent wind at zero intensity = %+v, want zero", got)
	}

	// the field varies over position and over time
	a := w.Force(geom.Vec3{X: 1}, 0)
	b := w.Force(geom.Vec3{X: 4, Y: 2}, 0)
	c := w.Force(geom.Vec3{X: 1}, 3)
	if a.Sub(b).Len() < eps {
		t.Error("turbulent wind identical at two positions")
	}
	if a.Sub(c).Len() < eps {
		t.Error("turbulent wind identical at two times")
	}

	// magnitude stays within the modulation envelope
	base := WindBaseForce * w.Intensity
	for _, tm := range []float64{0, 0.5, 1.1, 2.7, 9.3} {
		f := w.Force(geom.Vec3{X: tm, Y: -tm, Z: tm / 2}, tm)
		if f.Len() > base*1.5 {
			t.Errorf("turbulent force %v exceeds envelope %v", f.Len(), base*1.5)
		}
	}
}

func TestSetWind_ClampsTurbulence(t *testing.T) {
	a := NewAdapter(&fakeEngine{})

	a.SetWind(Wind{Mode: WindTurbulent, Direction: geom.Vec3{X: 1}, Intensity: 1, Turbulence: 3})
	if got := a.Wind().Turbulence; got != 1 {
		t.Errorf("turbulence = %v, want clamp at 1", got)
	}
	a.SetWind(Wind{Mode: WindTurbulent, Direction: geom.Vec3{X: 1}, Intensity: 1, Turbulence: -0.5})
	if got := a.Wind().Turbulence; got != 0 {
		t.Errorf("turbulence = %v, want clamp at 0", got)
	}

	// inside the clamp the value passes through untouched
	a.SetWind(Wind{Mode: WindTurbulent, Direction: geom.Vec3{X: 1}, Intensity: 1, Turbulence: 0.4})
	if got := a.Wind().Turbulence; got != 0.4 {
		t.Errorf("turbulence = %v, want 0.4", got)
	}
}

func TestDrag_ForceAndImpulse(t *testing.T) {
	e := &fakeEngine{}
	a := NewAdapter(e)
	root := starterTree(t)
	a.Build(root)
	a.SetTimestep(0.01)
	id := root.(*tree.Arm).Left.NodeID()

	a.StartDrag(id, geom.Vec2{X: 10, Y: 10})
	a.Drag(id, geom.Vec2{X: 30, Y: 10}) // 20px right

	a.Advance(10 * time.Millisecond)
	b, _ := a.Body(id)
	fb := b.(*fakeBody)
	if len(fb.forces) != 1 {
		t.Fatalf("dragged body got %d forces, want 1", len(fb.forces))
	}
	want := geom.Vec3{X: 20 * dragForceScale}
	if fb.forces[0].Sub(want).Len() > eps {
		t.Errorf("drag force = %+v, want %+v", fb.forces[0], want)
	}

	// holding still: the reference decays toward the pointer, so the
	// next tick's force is smaller
	a.Advance(10 * time.Millisecond)
	if len(fb.forces) != 2 {
		t.Fatalf("dragged body got %d forces, want 2", len(fb.forces))
	}
	if fb.forces[1].Len() >= fb.forces[0].Len() {
		t.Errorf("drag force grew from %v to %v while holding still", fb.forces[0].Len(), fb.forces[1].Len())
	}

	// release fires one impulse from the total screen delta, Y flipped
	a.Drag(id, geom.Vec2{X: 30, Y: 40})
	a.EndDrag(id)
	if len(fb.impulses) != 1 {
		t.Fatalf("got %d impulses, want 1", len(fb.impulses))
	}
	wantImp := geom.Vec3{X: 20 * dragImpulseScale, Y: -30 * dragImpulseScale}
	if fb.impulses[0].Sub(wantImp).Len() > eps {
		t.Errorf("impulse = %+v, want %+v", fb.impulses[0], wantImp)
	}
}

func TestDrag_RemovedBody(t *testing.T) {
	e := &fakeEngine{}
	a := NewAdapter(e)
	quiet(a)
	root := starterTree(t)
	a.Build(root)
	a.SetTimestep(0.01)
	id := root.(*tree.Arm).Left.NodeID()

	a.StartDrag("no-such-node", geom.Vec2{})
	if len(a.drags) != 0 {
		t.Error("drag registered for an unknown node")
	}

	a.StartDrag(id, geom.Vec2{})
	a.Drag(id, geom.Vec2{X: 50})
	a.Unregister(id)

	// the held drag dissolves without touching the removed body
	a.Advance(10 * time.Millisecond)
	a.EndDrag(id)
	if _, ok := a.Body(id); ok {
		t.Error("unregistered body still resolvable")
	}
}

func TestResetToRest(t *testing.T) {
	e := &fakeEngine{}
	a := NewAdapter(e)
	root := starterTree(t)
	a.Build(root)

	// disturb every body
	for _, b := range e.live() {
		if b.fixed {
			continue
		}
		b.pos = b.pos.Add(geom.Vec3{X: 3, Y: 1})
		b.vel = geom.Vec3{X: 5}
	}

	a.ResetToRest(root)

	layout := solver.Solve(root)
	tree.Walk(root, func(n tree.Node) bool {
		b, _ := a.Body(n.NodeID())
		p, _ := layout.Placement(n.NodeID())
		if b.Position().Sub(p.Position).Len() > eps {
			t.Errorf("body %s not restored to rest pose", n.NodeID())
		}
		if b.Velocity().Len() != 0 {
			t.Errorf("body %s still moving after reset", n.NodeID())
		}
		return true
	})
	if a.Paused() {
		t.Error("reset must restore the running state")
	}
	if a.accum != 0 {
		t.Error("reset must drop accumulated time")
	}
}

func TestCollision_Translation(t *testing.T) {
	e := &fakeEngine{}
	a := NewAdapter(e)
	root := starterTree(t).(*tree.Arm)
	a.Build(root)

	var events []CollisionEvent
	a.OnCollision(func(ev CollisionEvent) { events = append(events, ev) })

	left, _ := a.Body(root.Left.NodeID())
	right, _ := a.Body(root.Right.NodeID())
	e.collide(left, right)

	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].NodeA != root.Left.NodeID() || events[0].NodeB != root.Right.NodeID() {
		t.Errorf("event names %s/%s", events[0].NodeA, events[0].NodeB)
	}
	if events[0].At.IsZero() {
		t.Error("event missing a timestamp")
	}

	// contacts involving unowned bodies are dropped
	e.collide(left, &fakeBody{})
	if len(events) != 1 {
		t.Error("event fired for a body outside the rig")
	}
}
