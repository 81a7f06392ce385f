package tree

// SubtreeMass totals the mass hanging below and including n: a weight
// contributes its own mass, an arm its derived beam mass plus both
// subtrees. Nil contributes nothing. The total is independent of
// traversal direction.
func SubtreeMass(n Node) float64 {
	switch v := n.(type) {
	case *Weight:
		return v.Mass
	case *Arm:
		return v.Mass() + SubtreeMass(v.Left) + SubtreeMass(v.Right)
	default:
		return 0
	}
}

// Depth is 1 for a leaf weight, 1 + the deeper child for an arm.
func Depth(n Node) int {
	switch v := n.(type) {
	case *Weight:
		return 1
	case *Arm:
		l, r := Depth(v.Left), Depth(v.Right)
		if r > l {
			l = r
		}
		return 1 + l
	default:
		return 0
	}
}

func CountNodes(n Node) int {
	switch v := n.(type) {
	case *Weight:
		return 1
	case *Arm:
		return 1 + CountNodes(v.Left) + CountNodes(v.Right)
	default:
		return 0
	}
}

// Find locates a node by id, depth-first, left before right.
func Find(root Node, id string) Node {
	if root == nil {
		return nil
	}
	if root.NodeID() == id {
		return root
	}
	if a, ok := root.(*Arm); ok {
		if n := Find(a.Left, id); n != nil {
			return n
		}
		return Find(a.Right, id)
	}
	return nil
}

// FindParent returns the arm whose left or right child has the given
// id, or nil for the root or an unknown id.
func FindParent(root Node, id string) *Arm {
	a, ok := root.(*Arm)
	if !ok || a == nil {
		return nil
	}
	if a.Left.NodeID() == id || a.Right.NodeID() == id {
		return a
	}
	if p := FindParent(a.Left, id); p != nil {
		return p
	}
	return FindParent(a.Right, id)
}

// Side reports which side of its parent a node hangs from: "left",
// "right", or "" for the root or an unknown id.
func Side(root Node, id string) string {
	p := FindParent(root, id)
	if p == nil {
		return ""
	}
	if p.Left.NodeID() == id {
		return "left"
	}
	return "right"
}

// depthOf returns the depth of the node with the given id measured from
// root (root = 1), or 0 if absent.
func depthOf(n Node, id string, d int) int {
	if n == nil {
		return 0
	}
	if n.NodeID() == id {
		return d
	}
	if a, ok := n.(*Arm); ok {
		if found := depthOf(a.Left, id, d+1); found != 0 {
			return found
		}
		return depthOf(a.Right, id, d+1)
	}
	return 0
}

// CanExpand reports whether the weight with the given id may be turned
// into an arm: it must exist, be a weight, and sit above the depth
// limit. Expanding replaces the weight (depth d) with an arm whose
// children land at depth d+1, so d must stay below MaxDepth.
func CanExpand(root Node, weightID string) bool {
	n := Find(root, weightID)
	if _, ok := n.(*Weight); !ok {
		return false
	}
	return depthOf(root, weightID, 1) < MaxDepth
}

// Clone produces a fully independent deep copy sharing no nodes with
// the source.
func Clone(n Node) Node {
	switch v := n.(type) {
	case *Weight:
		c := *v
		return &c
	case *Arm:
		c := *v
		c.Left = Clone(v.Left)
		c.Right = Clone(v.Right)
		return &c
	default:
		return nil
	}
}

// Walk visits every node pre-order, left before right, until fn
// returns false.
func Walk(n Node, fn func(Node) bool) bool {
	if n == nil {
		return true
	}
	if !fn(n) {
		return false
	}
	if a, ok := n.(*Arm); ok {
		if !Walk(a.Left, fn) {
			return false
		}
		return Walk(a.Right, fn)
	}
	return true
}
