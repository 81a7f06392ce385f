package tree

import "fmt"

// NodeJSON is the persisted form of a node. Ids are deliberately
// absent: they are regenerated on import so re-imported trees never
// collide with a live session's id sequence.
type NodeJSON struct {
	Type       string    `json:"type"`
	WireLength float64   `json:"wireLength"`
	Length     float64   `json:"length,omitempty"`
	Pivot      float64   `json:"pivotPosition,omitempty"`
	Left       *NodeJSON `json:"leftChild,omitempty"`
	Right      *NodeJSON `json:"rightChild,omitempty"`
	Mass       float64   `json:"mass,omitempty"`
	Shape      string    `json:"shape,omitempty"`
	Size       float64   `json:"size,omitempty"`
	Thickness  float64   `json:"thickness,omitempty"`
	BlobPoints int       `json:"blobPoints,omitempty"`
	BlobSeed   int64     `json:"blobSeed,omitempty"`
	ModelID    string    `json:"modelId,omitempty"`
	ModelScale float64   `json:"modelScale,omitempty"`
	Color      string    `json:"color,omitempty"`
	UserMass   bool      `json:"massSetByUser,omitempty"`
}

// Export converts a live node to its persisted form, stripped of ids.
func Export(n Node) *NodeJSON {
	switch v := n.(type) {
	case *Weight:
		return &NodeJSON{
			Type:       "weight",
			WireLength: v.WireLength,
			Mass:       v.Mass,
			Shape:      string(v.Shape),
			Size:       v.Size,
			Thickness:  v.Thickness,
			BlobPoints: v.BlobPoints,
			BlobSeed:   v.BlobSeed,
			ModelID:    v.ModelID,
			ModelScale: v.ModelScale,
			Color:      v.Color,
			UserMass:   v.MassSetByUser,
		}
	case *Arm:
		return &NodeJSON{
			Type:       "arm",
			WireLength: v.WireLength,
			Length:     v.Length,
			Pivot:      v.Pivot,
			Left:       Export(v.Left),
			Right:      Export(v.Right),
		}
	default:
		return nil
	}
}

// Import rebuilds a live tree from its persisted form, assigning fresh
// ids depth-first from the supplied source. The root must declare type
// "arm" or "weight"; anything else is a validation error, as are
// half-built arms.
func Import(j *NodeJSON, ids *IDSource) (Node, error) {
	if j == nil {
		return nil, fmt.Errorf("missing node")
	}
	switch j.Type {
	case "weight":
		w := &Weight{
			ID:            ids.Next(),
			WireLength:    j.WireLength,
			Mass:          j.Mass,
			Shape:         Shape(j.Shape),
			Size:          j.Size,
			Thickness:     j.Thickness,
			BlobPoints:    j.BlobPoints,
			BlobSeed:      j.BlobSeed,
			ModelID:       j.ModelID,
			ModelScale:    j.ModelScale,
			Color:         j.Color,
			MassSetByUser: j.UserMass,
		}
		if w.WireLength <= 0 {
			w.WireLength = DefaultWireLength
		}
		if !w.Shape.Valid() {
			w.Shape = Sphere
		}
		if w.Mass <= 0 {
			w.Mass = DefaultWeightMass
		}
		return w, nil
	case "arm":
		a := &Arm{
			ID:         ids.Next(),
			WireLength: j.WireLength,
			Length:     j.Length,
			Pivot:      j.Pivot,
		}
		if a.WireLength <= 0 {
			a.WireLength = DefaultWireLength
		}
		if a.Length <= 0 {
			a.Length = DefaultArmLength
		}
		if a.Pivot < MinPivot {
			a.Pivot = MinPivot
		} else if a.Pivot > MaxPivot {
			a.Pivot = MaxPivot
		}
		if j.Left == nil || j.Right == nil {
			return nil, fmt.Errorf("arm is missing a child")
		}
		var err error
		if a.Left, err = Import(j.Left, ids); err != nil {
			return nil, err
		}
		if a.Right, err = Import(j.Right, ids); err != nil {
			return nil, err
		}
		return a, nil
	default:
		return nil, fmt.Errorf("invalid node type: %q", j.Type)
	}
}
