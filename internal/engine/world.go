// Package engine is the built-in rigid-body backend: semi-implicit
// integration with iterative positional projection of ball-and-socket
// joints and sphere-proxy contact detection. It satisfies rig.Engine;
// a heavier external solver can replace it behind the same interface.
package engine

import (
	"errors"
	"math"

	"github.com/calderlab/mobile/internal/geom"
	"github.com/calderlab/mobile/internal/rig"
)

var errBodyRemoved = errors.New("body removed")

type body struct {
	pos     geom.Vec3
	prev    geom.Vec3
	vel     geom.Vec3
	angle   float64
	angVel  float64
	force   geom.Vec3
	invMass float64
	radius  float64
	linDamp float64
	angDamp float64
	alive   bool
}

func (b *body) Position() geom.Vec3 { return b.pos }
func (b *body) Velocity() geom.Vec3 { return b.vel }

func (b *body) SetTransform(pos geom.Vec3, angle float64) error {
	if !b.alive {
		return errBodyRemoved
	}
	b.pos = pos
	b.prev = pos
	b.angle = angle
	return nil
}

func (b *body) SetVelocity(vel geom.Vec3) error {
	if !b.alive {
		return errBodyRemoved
	}
	b.vel = vel
	b.angVel = 0
	return nil
}

func (b *body) ApplyForce(f geom.Vec3) error {
	if !b.alive {
		return errBodyRemoved
	}
	if b.invMass == 0 {
		return nil
	}
	b.force = b.force.Add(f)
	return nil
}

func (b *body) ApplyImpulse(imp geom.Vec3) error {
	if !b.alive {
		return errBodyRemoved
	}
	b.vel = b.vel.Add(imp.Scale(b.invMass))
	return nil
}

type joint struct {
	parent, child *body
	parentAnchor  geom.Vec3
	childAnchor   geom.Vec3
}

// World is the default engine instance.
type World struct {
	gravity       geom.Vec3
	posIters      int
	frictionIters int
	bodies        []*body
	joints        []*joint
	onCollision   func(a, b rig.Body)
}

func NewWorld() *World {
	return &World{
		gravity:       geom.Vec3{Y: -9.81},
		posIters:      8,
		frictionIters: 4,
	}
}

func (w *World) SetGravity(g geom.Vec3) { w.gravity = g }

func (w *World) SetIterations(position, friction int) {
	if position > 0 {
		w.posIters = position
	}
	if friction > 0 {
		w.frictionIters = friction
	}
}

func (w *World) CreateBody(def rig.BodyDef) rig.Body {
	invMass := 0.0
	if def.Mass > 0 {
		invMass = 1 / def.Mass
	}
	b := &body{
		pos:     def.Position,
		prev:    def.Position,
		invMass: invMass,
		radius:  def.Radius,
		linDamp: def.LinearDamping,
		angDamp: def.AngularDamping,
		alive:   true,
	}
	w.bodies = append(w.bodies, b)
	return b
}

func (w *World) CreateFixedBody(pos geom.Vec3) rig.Body {
	b := &body{pos: pos, prev: pos, alive: true}
	w.bodies = append(w.bodies, b)
	return b
}

func (w *World) CreateJoint(parent, child rig.Body, parentAnchor, childAnchor geom.Vec3) {
	p, okP := parent.(*body)
	c, okC := child.(*body)
	if !okP || !okC {
		return
	}
	w.joints = append(w.joints, &joint{
		parent:       p,
		child:        c,
		parentAnchor: parentAnchor,
		childAnchor:  childAnchor,
	})
}

// RemoveBody kills the handle and drops every joint touching it.
func (w *World) RemoveBody(b rig.Body) {
	dead, ok := b.(*body)
	if !ok {
		return
	}
	dead.alive = false
	bodies := w.bodies[:0]
	for _, bb := range w.bodies {
		if bb != dead {
			bodies = append(bodies, bb)
		}
	}
	w.bodies = bodies
	joints := w.joints[:0]
	for _, j := range w.joints {
		if j.parent != dead && j.child != dead {
			joints = append(joints, j)
		}
	}
	w.joints = joints
}

func (w *World) OnCollision(fn func(a, b rig.Body)) { w.onCollision = fn }

// Step advances the world one fixed timestep: integrate velocities,
// predict positions, project joints, resolve contacts, then derive the
// post-projection velocities from the actual motion.
func (w *World) Step(dt float64) {
	if dt <= 0 {
		return
	}

	for _, b := range w.bodies {
		if b.invMass == 0 {
			b.prev = b.pos
			continue
		}
		acc := w.gravity.Add(b.force.Scale(b.invMass))
		b.vel = b.vel.Add(acc.Scale(dt))
		b.vel = b.vel.Scale(1 / (1 + b.linDamp*dt))
		b.prev = b.pos
		b.pos = b.pos.Add(b.vel.Scale(dt))
		b.force = geom.Vec3{}
	}

	for i := 0; i < w.posIters; i++ {
		for _, j := range w.joints {
			w.projectJoint(j)
		}
	}

	contacts := w.resolveContacts()

	for _, b := range w.bodies {
		if b.invMass == 0 {
			continue
		}
		b.vel = b.pos.Sub(b.prev).Scale(1 / dt)
		b.angVel *= 1 / (1 + b.angDamp*dt)
		b.angle += b.angVel * dt
	}

	if w.onCollision != nil {
		for _, c := range contacts {
			w.onCollision(c[0], c[1])
		}
	}
}

// projectJoint pins the child's wire top to the parent's attachment
// point, splitting the correction by inverse mass.
func (w *World) projectJoint(j *joint) {
	pa := j.parent.pos.Add(j.parentAnchor.RotateXY(j.parent.angle))
	ca := j.child.pos.Add(j.childAnchor.RotateXY(j.child.angle))
	d := ca.Sub(pa)

	sum := j.parent.invMass + j.child.invMass
	if sum == 0 {
		return
	}
	j.parent.pos = j.parent.pos.Add(d.Scale(j.parent.invMass / sum))
	j.child.pos = j.child.pos.Sub(d.Scale(j.child.invMass / sum))

	// Torque the parent toward alignment when its anchor sits off
	// center: the beam follows its hanging children.
	if j.parent.invMass > 0 && (j.parentAnchor.X != 0 || j.parentAnchor.Y != 0) {
		lever := j.parentAnchor.RotateXY(j.parent.angle)
		j.parent.angVel += (lever.X*d.Y - lever.Y*d.X) * j.parent.invMass * 0.5
	}
}

// resolveContacts separates overlapping dynamic sphere proxies (jointed
// pairs excluded) and damps tangential motion over the friction
// iterations. Returns the colliding pairs for callback dispatch.
func (w *World) resolveContacts() [][2]*body {
	var contacts [][2]*body
	for it := 0; it < w.frictionIters; it++ {
		for i := 0; i < len(w.bodies); i++ {
			for k := i + 1; k < len(w.bodies); k++ {
				a, b := w.bodies[i], w.bodies[k]
				if a.invMass == 0 && b.invMass == 0 {
					continue
				}
				if a.radius == 0 || b.radius == 0 || w.jointed(a, b) {
					continue
				}
				d := b.pos.Sub(a.pos)
				dist := d.Len()
				overlap := a.radius + b.radius - dist
				if overlap <= 0 {
					continue
				}
				var n geom.Vec3
				if dist > 0 {
					n = d.Scale(1 / dist)
				} else {
					n = geom.Vec3{Y: 1}
				}
				sum := a.invMass + b.invMass
				a.pos = a.pos.Sub(n.Scale(overlap * a.invMass / sum))
				b.pos = b.pos.Add(n.Scale(overlap * b.invMass / sum))

				rel := b.vel.Sub(a.vel)
				tangential := rel.Sub(n.Scale(rel.Dot(n)))
				a.vel = a.vel.Add(tangential.Scale(0.1 * a.invMass / sum))
				b.vel = b.vel.Sub(tangential.Scale(0.1 * b.invMass / sum))

				if it == 0 {
					contacts = append(contacts, [2]*body{a, b})
				}
			}
		}
	}
	return contacts
}

func (w *World) jointed(a, b *body) bool {
	for _, j := range w.joints {
		if (j.parent == a && j.child == b) || (j.parent == b && j.child == a) {
			return true
		}
	}
	return false
}

// Energy sums kinetic energy over all dynamic bodies, a cheap health
// probe for tests and the sim command.
func (w *World) Energy() float64 {
	e := 0.0
	for _, b := range w.bodies {
		if b.invMass == 0 {
			continue
		}
		v := b.vel.Len()
		e += 0.5 * (1 / b.invMass) * v * v
	}
	if math.IsNaN(e) {
		return 0
	}
	return e
}
