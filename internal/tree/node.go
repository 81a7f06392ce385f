package tree

import "fmt"

// Mass model constants. Every component that derives an arm's mass
// (solver, optimizer, rig) must use these, never local copies.
const (
	ArmBaseMass      = 0.1
	ArmMassPerLength = 0.05
)

const (
	// MaxDepth is the deepest a weight may hang, root arm counted as
	// depth 1.
	MaxDepth = 5

	MinPivot = 0.1
	MaxPivot = 0.9

	DefaultWireLength = 0.7
	DefaultArmLength  = 2.0
	DefaultWeightMass = 1.0
	DefaultWeightSize = 0.3
	DefaultColor      = "#60a5fa"
)

// Shape is the visual form of a weight.
type Shape string

const (
	Sphere      Shape = "sphere"
	Cube        Shape = "cube"
	Cylinder    Shape = "cylinder"
	Cone        Shape = "cone"
	Torus       Shape = "torus"
	Octahedron  Shape = "octahedron"
	Tetrahedron Shape = "tetrahedron"
	Disk        Shape = "disk"
	Organic     Shape = "organic"
	Model       Shape = "model"
)

// Shapes lists every valid shape.
var Shapes = []Shape{Sphere, Cube, Cylinder, Cone, Torus, Octahedron, Tetrahedron, Disk, Organic, Model}

func (s Shape) Valid() bool {
	for _, v := range Shapes {
		if s == v {
			return true
		}
	}
	return false
}

// Node is either an *Arm or a *Weight. Consumers dispatch with a type
// switch; there is no third variant.
type Node interface {
	NodeID() string
	WireLen() float64
	isNode()
}

// Arm is a rigid beam suspended at Pivot (fraction of Length from the
// left end) with a child hanging from each end. A valid arm always has
// both children.
type Arm struct {
	ID         string
	WireLength float64
	Length     float64
	Pivot      float64
	Left       Node
	Right      Node
}

func (a *Arm) NodeID() string   { return a.ID }
func (a *Arm) WireLen() float64 { return a.WireLength }
func (a *Arm) isNode()          {}

// Mass is the arm's own beam mass, derived from its length.
func (a *Arm) Mass() float64 {
	return ArmBaseMass + a.Length*ArmMassPerLength
}

// LeftDist and RightDist are the distances from the pivot to each end.
func (a *Arm) LeftDist() float64  { return a.Pivot * a.Length }
func (a *Arm) RightDist() float64 { return (1 - a.Pivot) * a.Length }

// Weight is a leaf: a suspended mass with a visual shape.
type Weight struct {
	ID            string
	WireLength    float64
	Mass          float64
	Shape         Shape
	Size          float64
	Thickness     float64 // disk, organic
	BlobPoints    int     // organic
	BlobSeed      int64   // organic
	ModelID       string  // model
	ModelScale    float64 // model
	Color         string
	MassSetByUser bool
}

func (w *Weight) NodeID() string   { return w.ID }
func (w *Weight) WireLen() float64 { return w.WireLength }
func (w *Weight) isNode()          {}

// IDSource hands out node ids. Ids are monotonic within one tree and
// the counter is reset whenever a tree is created fresh (new session,
// preset load, import).
type IDSource struct {
	n int
}

func NewIDSource() *IDSource { return &IDSource{} }

func (s *IDSource) Next() string {
	s.n++
	return fmt.Sprintf("node-%d", s.n)
}

func (s *IDSource) Reset() { s.n = 0 }

// NewDefaultWeight builds the weight used as the fresh leaf after
// expansion or deletion.
func NewDefaultWeight(ids *IDSource) *Weight {
	return &Weight{
		ID:         ids.Next(),
		WireLength: DefaultWireLength,
		Mass:       DefaultWeightMass,
		Shape:      Sphere,
		Size:       DefaultWeightSize,
		Color:      DefaultColor,
	}
}

// NewDefaultTree builds the session's starting sculpture: one root arm
// over two default weights. The id counter is reset first so ids start
// from node-1.
func NewDefaultTree(ids *IDSource) *Arm {
	ids.Reset()
	root := &Arm{
		ID:         ids.Next(),
		WireLength: DefaultWireLength,
		Length:     DefaultArmLength,
		Pivot:      0.5,
	}
	root.Left = NewDefaultWeight(ids)
	root.Right = NewDefaultWeight(ids)
	return root
}
