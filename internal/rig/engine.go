// Package rig maps the sculpture tree onto a joint-connected rigid-body
// graph and drives it: wire joints, wind, drag impulses, collision
// reporting. The underlying constraint solver is a collaborator reached
// only through the Engine interface, so it stays swappable.
package rig

import (
	"time"

	"github.com/calderlab/mobile/internal/geom"
)

// Body is a live handle into the engine. Calls on a removed body
// return an error instead of faulting; a node can be deleted mid
// interaction in a live session.
type Body interface {
	Position() geom.Vec3
	Velocity() geom.Vec3
	SetTransform(pos geom.Vec3, angle float64) error
	SetVelocity(vel geom.Vec3) error
	ApplyForce(f geom.Vec3) error
	ApplyImpulse(imp geom.Vec3) error
}

// BodyDef describes a dynamic body at creation time. Radius is the
// collider proxy; NeverSleep keeps the body integrating so continuous
// micro-forces from wind and drag keep acting.
type BodyDef struct {
	Position       geom.Vec3
	Mass           float64
	Radius         float64
	LinearDamping  float64
	AngularDamping float64
	NeverSleep     bool
}

// Engine is the narrow capability surface this adapter needs from a
// rigid-body engine.
type Engine interface {
	SetGravity(g geom.Vec3)
	SetIterations(position, friction int)
	CreateBody(def BodyDef) Body
	CreateFixedBody(pos geom.Vec3) Body
	// CreateJoint connects child to parent with a ball-and-socket
	// joint; anchors are offsets in each body's rest frame.
	CreateJoint(parent, child Body, parentAnchor, childAnchor geom.Vec3)
	RemoveBody(b Body)
	OnCollision(fn func(a, b Body))
	Step(dt float64)
}

// CollisionEvent reports contact between two sculpture nodes. Pruning
// stale events is the consumer's concern.
type CollisionEvent struct {
	NodeA, NodeB string
	At           time.Time
}
