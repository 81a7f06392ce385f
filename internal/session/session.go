// Package session owns the live sculpture: the current tree, its id
// source, and every mutation. Mutations follow one discipline: deep
// clone the whole tree, mutate the clone, swap it in atomically. The
// externally visible tree is never edited in place.
package session

import (
	"github.com/calderlab/mobile/internal/config"
	"github.com/calderlab/mobile/internal/geom"
	"github.com/calderlab/mobile/internal/tree"
)

type Session struct {
	limits config.Limits
	ids    *tree.IDSource
	root   tree.Node
	rev    int
	subs   []func()
}

func New(cfg *config.Config) *Session {
	s := &Session{
		limits: cfg.Limits,
		ids:    tree.NewIDSource(),
	}
	s.root = tree.NewDefaultTree(s.ids)
	return s
}

// Tree is the current sculpture. Callers must treat it as read-only;
// it is replaced wholesale by every mutation.
func (s *Session) Tree() tree.Node { return s.root }

// Revision increments after every successful mutation, letting the TUI
// and the rig notice staleness cheaply.
func (s *Session) Revision() int { return s.rev }

// Subscribe registers a callback fired after every successful mutation.
func (s *Session) Subscribe(fn func()) {
	s.subs = append(s.subs, fn)
}

// swap publishes a new tree.
func (s *Session) swap(root tree.Node) {
	s.root = root
	s.rev++
	for _, fn := range s.subs {
		fn()
	}
}

// SetTree swaps in an externally prepared tree, cloning it first so the
// session keeps exclusive ownership. The auto-balance animator
// publishes through this.
func (s *Session) SetTree(root tree.Node) {
	if root == nil {
		return
	}
	s.swap(tree.Clone(root))
}

// Reset returns to the default starter sculpture with a fresh id
// sequence.
func (s *Session) Reset() {
	s.swap(tree.NewDefaultTree(s.ids))
}

// ExpandWeight turns a weight into an arm carrying two fresh weights,
// the left one inheriting the old color. A weight at the depth limit,
// a missing id, or an arm id all make this a no-op.
func (s *Session) ExpandWeight(id string) bool {
	if !tree.CanExpand(s.root, id) {
		return false
	}
	root := tree.Clone(s.root)
	old, _ := tree.Find(root, id).(*tree.Weight)
	if old == nil {
		return false
	}

	arm := &tree.Arm{
		ID:         s.ids.Next(),
		WireLength: old.WireLength,
		Length:     tree.DefaultArmLength,
		Pivot:      0.5,
	}
	left := tree.NewDefaultWeight(s.ids)
	left.Color = old.Color
	arm.Left = left
	arm.Right = tree.NewDefaultWeight(s.ids)

	if !replaceChild(root, id, arm) {
		if root.NodeID() != id {
			return false
		}
		root = arm
	}
	s.swap(root)
	return true
}

// DeleteNode replaces a non-root node and its whole subtree with a
// single fresh default weight. Deleting the root is a no-op.
func (s *Session) DeleteNode(id string) bool {
	if s.root.NodeID() == id {
		return false
	}
	if tree.Find(s.root, id) == nil {
		return false
	}
	root := tree.Clone(s.root)
	if !replaceChild(root, id, tree.NewDefaultWeight(s.ids)) {
		return false
	}
	s.swap(root)
	return true
}

// replaceChild swaps the node with the given id for repl somewhere
// under root. Returns false if id names the root or nothing.
func replaceChild(root tree.Node, id string, repl tree.Node) bool {
	parent := tree.FindParent(root, id)
	if parent == nil {
		return false
	}
	if parent.Left.NodeID() == id {
		parent.Left = repl
	} else {
		parent.Right = repl
	}
	return true
}

// ArmPatch carries the fields of an arm update; nil means unchanged.
type ArmPatch struct {
	Length     *float64
	Pivot      *float64
	WireLength *float64
}

// UpdateArm patches an arm's geometry. Out-of-range values are clamped
// silently; a missing or mismatched id is a no-op.
func (s *Session) UpdateArm(id string, patch ArmPatch) bool {
	if a, _ := tree.Find(s.root, id).(*tree.Arm); a == nil {
		return false
	}
	root := tree.Clone(s.root)
	a := tree.Find(root, id).(*tree.Arm)
	if patch.Length != nil {
		a.Length = geom.Clamp(*patch.Length, s.limits.MinArmLength, s.limits.MaxArmLength)
	}
	if patch.Pivot != nil {
		a.Pivot = geom.Clamp(*patch.Pivot, tree.MinPivot, tree.MaxPivot)
	}
	if patch.WireLength != nil {
		a.WireLength = geom.Clamp(*patch.WireLength, s.limits.MinWireLength, s.limits.MaxWireLength)
	}
	s.swap(root)
	return true
}

// WeightPatch carries the fields of a weight update; nil means
// unchanged. Setting Mass marks the weight as user-massed, which stops
// the rig from overwriting it with a volume estimate.
type WeightPatch struct {
	Mass       *float64
	Size       *float64
	WireLength *float64
	Thickness  *float64
	Shape      *tree.Shape
	Color      *string
	BlobPoints *int
	BlobSeed   *int64
	ModelID    *string
	ModelScale *float64
}

func (s *Session) UpdateWeight(id string, patch WeightPatch) bool {
	if w, _ := tree.Find(s.root, id).(*tree.Weight); w == nil {
		return false
	}
	root := tree.Clone(s.root)
	w := tree.Find(root, id).(*tree.Weight)
	if patch.Mass != nil {
		w.Mass = geom.Clamp(*patch.Mass, s.limits.MinMass, s.limits.MaxMass)
		w.MassSetByUser = true
	}
	if patch.Size != nil {
		w.Size = geom.Clamp(*patch.Size, s.limits.MinSize, s.limits.MaxSize)
	}
	if patch.WireLength != nil {
		w.WireLength = geom.Clamp(*patch.WireLength, s.limits.MinWireLength, s.limits.MaxWireLength)
	}
	if patch.Thickness != nil {
		w.Thickness = *patch.Thickness
	}
	if patch.Shape != nil && patch.Shape.Valid() {
		w.Shape = *patch.Shape
	}
	if patch.Color != nil {
		w.Color = *patch.Color
	}
	if patch.BlobPoints != nil {
		w.BlobPoints = *patch.BlobPoints
	}
	if patch.BlobSeed != nil {
		w.BlobSeed = *patch.BlobSeed
	}
	if patch.ModelID != nil {
		w.ModelID = *patch.ModelID
	}
	if patch.ModelScale != nil {
		w.ModelScale = *patch.ModelScale
	}
	s.swap(root)
	return true
}
