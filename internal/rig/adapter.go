package rig

import (
	"log"
	"time"

	"github.com/calderlab/mobile/internal/config"
	"github.com/calderlab/mobile/internal/geom"
	"github.com/calderlab/mobile/internal/solver"
	"github.com/calderlab/mobile/internal/tree"
)

const (
	armColliderRadius = 0.08

	// maxFrameClamp bounds accumulated real time so a stalled frame
	// cannot trigger a catch-up spiral.
	maxFrameClamp = 0.25
)

// MeshLookup resolves a model id to its analyzer output. Nil lookups
// fall back to the node's stored mass.
type MeshLookup func(modelID string) (geom.MeshStats, bool)

// Adapter owns the body graph for one tree: a fixed anchor, one dynamic
// body per node, a ball-and-socket joint per wire, and the per-tick
// force pipeline (wind, then drag, then the joint solve, then collision
// callbacks).
type Adapter struct {
	engine Engine
	wind   Wind
	meshes MeshLookup
	warnf  func(format string, args ...any)

	bodies map[string]Body // node id -> live handle
	owners map[Body]string
	anchor Body

	drags map[string]*dragState

	damping   float64
	dt        float64
	timeScale float64
	accum     float64
	simTime   float64
	paused    bool

	onCollision func(CollisionEvent)
}

type dragState struct {
	ref     geom.Vec2
	current geom.Vec2
	start   geom.Vec2
}

func NewAdapter(e Engine) *Adapter {
	a := &Adapter{
		engine:    e,
		warnf:     log.Printf,
		bodies:    make(map[string]Body),
		owners:    make(map[Body]string),
		drags:     make(map[string]*dragState),
		dt:        config.DefaultDt,
		timeScale: config.DefaultTimeScale,
		damping:   config.DefaultDamping,
	}
	e.SetGravity(geom.Vec3{Y: -config.DefaultGravity})
	e.SetIterations(config.PositionIterations, config.FrictionIterations)
	e.OnCollision(a.handleCollision)
	return a
}

// SetWind installs the wind field, clamping turbulence to its
// documented 0..1 range so the noise sample stays inside the force
// modulation envelope.
func (a *Adapter) SetWind(w Wind) {
	w.Turbulence = geom.Clamp(w.Turbulence, 0, 1)
	a.wind = w
}

func (a *Adapter) Wind() Wind                 { return a.wind }
func (a *Adapter) SetMeshLookup(m MeshLookup) { a.meshes = m }

// SetDamping takes the user damping parameter in [0,1] and maps it to
// engine damping on the next Build.
func (a *Adapter) SetDamping(d float64) {
	a.damping = geom.Clamp(d, 0, 1)
}

// SetTimeScale slows simulation relative to real time; it never runs
// faster than real time.
func (a *Adapter) SetTimeScale(s float64) {
	a.timeScale = geom.Clamp(s, 0.1, 1.0)
}

func (a *Adapter) SetTimestep(dt float64) {
	if dt > 0 {
		a.dt = dt
	}
}

func (a *Adapter) OnCollision(fn func(CollisionEvent)) { a.onCollision = fn }

func (a *Adapter) Paused() bool { return a.paused }

// Pause freezes force application and stepping. Velocities are kept;
// only ResetToRest zeroes motion.
func (a *Adapter) Pause()  { a.paused = true }
func (a *Adapter) Resume() { a.paused = false }

// Body exposes the registry: any node can be targeted for external
// force application by id.
func (a *Adapter) Body(id string) (Body, bool) {
	b, ok := a.bodies[id]
	return b, ok
}

// Build tears down any previous graph and maps the tree onto bodies and
// joints, placing every body at its analytical rest pose so switching
// from analytical mode does not jump.
func (a *Adapter) Build(root tree.Node) {
	a.teardown()
	if root == nil {
		return
	}
	layout := solver.Solve(root)
	a.anchor = a.engine.CreateFixedBody(layout.Anchor)
	a.mount(root, a.anchor, geom.Vec3{}, layout)
}

func (a *Adapter) teardown() {
	for id, b := range a.bodies {
		a.engine.RemoveBody(b)
		delete(a.bodies, id)
		delete(a.owners, b)
	}
	if a.anchor != nil {
		a.engine.RemoveBody(a.anchor)
		a.anchor = nil
	}
	a.drags = make(map[string]*dragState)
}

// mount creates the body for n, joints it to the parent body at the
// parent-frame wire attachment offset, and recurses. The child-side
// anchor is always the wire top, [0, wireLength, 0].
func (a *Adapter) mount(n tree.Node, parent Body, parentAnchor geom.Vec3, layout *solver.Layout) {
	p, ok := layout.Placement(n.NodeID())
	if !ok {
		return
	}
	def := BodyDef{
		Position:       p.Position,
		Mass:           a.nodeMass(n),
		Radius:         colliderRadius(n),
		LinearDamping:  0.05 + a.damping*1.45,
		AngularDamping: 0.1 + a.damping*1.9,
		NeverSleep:     true,
	}
	b := a.engine.CreateBody(def)
	a.bodies[n.NodeID()] = b
	a.owners[b] = n.NodeID()

	a.engine.CreateJoint(parent, b, parentAnchor, geom.Vec3{Y: n.WireLen()})

	if arm, ok := n.(*tree.Arm); ok {
		a.mount(arm.Left, b, geom.Vec3{X: -arm.LeftDist()}, layout)
		a.mount(arm.Right, b, geom.Vec3{X: arm.RightDist()}, layout)
	}
}

// nodeMass mirrors the analytical mass model exactly. The one exception
// is a model-shape weight whose mass the user never touched: there the
// analyzer's volume estimate wins.
func (a *Adapter) nodeMass(n tree.Node) float64 {
	switch v := n.(type) {
	case *tree.Arm:
		return v.Mass()
	case *tree.Weight:
		if v.Shape == tree.Model && !v.MassSetByUser && a.meshes != nil {
			if stats, ok := a.meshes(v.ModelID); ok {
				scale := v.ModelScale
				if scale <= 0 {
					scale = 1
				}
				return geom.MassFromVolume(stats.Volume * scale * scale * scale)
			}
		}
		return v.Mass
	default:
		return 0
	}
}

func colliderRadius(n tree.Node) float64 {
	if w, ok := n.(*tree.Weight); ok && w.Size > 0 {
		return w.Size
	}
	return armColliderRadius
}

// Unregister drops a node's body when it unmounts mid-session. Joints
// referencing it are the engine's cleanup.
func (a *Adapter) Unregister(id string) {
	b, ok := a.bodies[id]
	if !ok {
		return
	}
	a.engine.RemoveBody(b)
	delete(a.bodies, id)
	delete(a.owners, b)
	delete(a.drags, id)
}

func (a *Adapter) handleCollision(x, y Body) {
	if a.onCollision == nil {
		return
	}
	idA, okA := a.owners[x]
	idB, okB := a.owners[y]
	if !okA || !okB {
		return
	}
	a.onCollision(CollisionEvent{NodeA: idA, NodeB: idB, At: time.Now()})
}

// Advance feeds real elapsed time into the fixed-timestep stepper.
// Within one tick all forces read the same position snapshot; the order
// is wind, drag, joint solve, collision callbacks.
func (a *Adapter) Advance(elapsed time.Duration) {
	if a.paused {
		return
	}
	a.accum += elapsed.Seconds() * a.timeScale
	if a.accum > maxFrameClamp {
		a.accum = maxFrameClamp
	}
	for a.accum >= a.dt {
		a.tick(a.dt)
		a.accum -= a.dt
	}
}

func (a *Adapter) tick(dt float64) {
	// Snapshot positions so processing order cannot feed one body's
	// update into another's force.
	type sample struct {
		id  string
		b   Body
		pos geom.Vec3
	}
	snap := make([]sample, 0, len(a.bodies))
	for id, b := range a.bodies {
		snap = append(snap, sample{id, b, b.Position()})
	}

	if a.wind.Intensity != 0 {
		for _, s := range snap {
			if err := s.b.ApplyForce(a.wind.Force(s.pos, a.simTime)); err != nil {
				a.warnf("wind: body %s: %v", s.id, err)
			}
		}
	}

	a.applyDragForces()

	a.engine.Step(dt)
	a.simTime += dt
}

// ResetToRest snaps every body back to the analytical equilibrium pose
// and zeroes motion: a brief pause, re-snap, resume cycle.
func (a *Adapter) ResetToRest(root tree.Node) {
	wasPaused := a.paused
	a.paused = true
	layout := solver.Solve(root)
	for id, b := range a.bodies {
		p, ok := layout.Placement(id)
		if !ok {
			continue
		}
		if err := b.SetTransform(p.Position, p.Angle); err != nil {
			a.warnf("reset: body %s: %v", id, err)
			continue
		}
		if err := b.SetVelocity(geom.Vec3{}); err != nil {
			a.warnf("reset: body %s: %v", id, err)
		}
	}
	a.accum = 0
	a.paused = wasPaused
}
