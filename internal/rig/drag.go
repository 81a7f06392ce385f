package rig

import "github.com/calderlab/mobile/internal/geom"

const (
	dragForceScale   = 0.05
	dragImpulseScale = 0.02

	// dragRefDecay moves the force reference point toward the pointer
	// each frame, so holding still bleeds the force off.
	dragRefDecay = 0.1
)

// StartDrag begins a pointer drag on the node's body. Screen
// coordinates are whatever 2D space the host projects into; only
// deltas matter here.
func (a *Adapter) StartDrag(id string, screen geom.Vec2) {
	if _, ok := a.bodies[id]; !ok {
		return
	}
	a.drags[id] = &dragState{ref: screen, current: screen, start: screen}
}

// Drag updates the pointer position for an active drag.
func (a *Adapter) Drag(id string, screen geom.Vec2) {
	if d, ok := a.drags[id]; ok {
		d.current = screen
	}
}

// EndDrag releases the drag and fires the one-shot impulse from the
// total delta. A body deleted mid-drag makes this a warned no-op.
func (a *Adapter) EndDrag(id string) {
	d, ok := a.drags[id]
	if !ok {
		return
	}
	delete(a.drags, id)

	b, ok := a.bodies[id]
	if !ok {
		return
	}
	total := d.current.Sub(d.start)
	imp := geom.Vec3{X: total.X * dragImpulseScale, Y: -total.Y * dragImpulseScale}
	if err := b.ApplyImpulse(imp); err != nil {
		a.warnf("drag impulse: body %s: %v", id, err)
	}
}

// applyDragForces runs once per tick while drags are held: a small
// continuous push proportional to the pointer delta, with the reference
// point decaying toward the pointer.
func (a *Adapter) applyDragForces() {
	if a.paused {
		return
	}
	for id, d := range a.drags {
		b, ok := a.bodies[id]
		if !ok {
			delete(a.drags, id)
			continue
		}
		delta := d.current.Sub(d.ref)
		f := geom.Vec3{X: delta.X * dragForceScale, Y: -delta.Y * dragForceScale}
		if err := b.ApplyForce(f); err != nil {
			a.warnf("drag force: body %s: %v", id, err)
			continue
		}
		d.ref = d.ref.Add(delta.Scale(dragRefDecay))
	}
}
