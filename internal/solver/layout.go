package solver

import (
	"github.com/calderlab/mobile/internal/geom"
	"github.com/calderlab/mobile/internal/tree"
)

// Placement is one node's solved pose. Weights never rotate on their
// own, so their Angle is always 0; arms also carry balance feedback.
type Placement struct {
	Position geom.Vec3
	Angle    float64
	Ratio    float64
	Color    string
	IsArm    bool
}

// Layout is the result of one full solve: a placement per node, in
// pre-order, plus the fixed suspension anchor.
type Layout struct {
	Anchor     geom.Vec3
	placements map[string]Placement
	Order      []string
}

func (l *Layout) Placement(id string) (Placement, bool) {
	p, ok := l.placements[id]
	return p, ok
}

// Bounds returns the extent of all solved positions, for fitting a
// viewport.
func (l *Layout) Bounds() geom.Box {
	b := geom.Box{Min: l.Anchor, Max: l.Anchor}
	for _, p := range l.placements {
		if p.Position.X < b.Min.X {
			b.Min.X = p.Position.X
		}
		if p.Position.Y < b.Min.Y {
			b.Min.Y = p.Position.Y
		}
		if p.Position.X > b.Max.X {
			b.Max.X = p.Position.X
		}
		if p.Position.Y > b.Max.Y {
			b.Max.Y = p.Position.Y
		}
	}
	return b
}

// Solve runs the analytical equilibrium solve for the whole tree in one
// depth-first pass. The root hangs from the anchor at the origin by its
// own wire; each arm tilts by its equilibrium angle on top of its
// parent's rotation; each child hangs from the arm endpoint by its own
// wire. Re-run after any geometry change; the solve itself never
// mutates the tree.
func Solve(root tree.Node) *Layout {
	l := &Layout{
		placements: make(map[string]Placement),
	}
	if root == nil {
		return l
	}
	pos := l.Anchor.Sub(geom.Vec3{Y: root.WireLen()})
	place(l, root, pos, 0)
	return l
}

func place(l *Layout, n tree.Node, pos geom.Vec3, parentAngle float64) {
	switch v := n.(type) {
	case *tree.Weight:
		l.placements[v.ID] = Placement{Position: pos}
		l.Order = append(l.Order, v.ID)
	case *tree.Arm:
		angle := parentAngle + TiltAngle(v)
		ratio := BalanceRatio(v)
		l.placements[v.ID] = Placement{
			Position: pos,
			Angle:    angle,
			Ratio:    ratio,
			Color:    BalanceColor(ratio),
			IsArm:    true,
		}
		l.Order = append(l.Order, v.ID)

		leftEnd := pos.Add(geom.Vec3{X: -v.LeftDist()}.RotateXY(angle))
		rightEnd := pos.Add(geom.Vec3{X: v.RightDist()}.RotateXY(angle))

		place(l, v.Left, leftEnd.Sub(geom.Vec3{Y: v.Left.WireLen()}), angle)
		place(l, v.Right, rightEnd.Sub(geom.Vec3{Y: v.Right.WireLen()}), angle)
	}
}

// EndPoints returns the two wire attachment points of a solved arm.
func EndPoints(a *tree.Arm, p Placement) (left, right geom.Vec3) {
	left = p.Position.Add(geom.Vec3{X: -a.LeftDist()}.RotateXY(p.Angle))
	right = p.Position.Add(geom.Vec3{X: a.RightDist()}.RotateXY(p.Angle))
	return left, right
}
