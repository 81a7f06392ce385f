package session

import (
	"fmt"
	"sort"

	"github.com/calderlab/mobile/internal/tree"
)

// presets are named starter sculptures. Each builder receives a fresh
// id source and returns a complete tree.
var presets = map[string]func(*tree.IDSource) tree.Node{
	"starter":   buildStarter,
	"butterfly": buildButterfly,
	"cascade":   buildCascade,
}

// Presets lists the available preset names, sorted.
func Presets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadPreset swaps in a named preset sculpture with a reset id
// sequence.
func (s *Session) LoadPreset(name string) error {
	build, ok := presets[name]
	if !ok {
		return fmt.Errorf("unknown preset: %s (available: %v)", name, Presets())
	}
	s.ids.Reset()
	s.swap(build(s.ids))
	return nil
}

func weight(ids *tree.IDSource, mass, size float64, shape tree.Shape, color string) *tree.Weight {
	w := tree.NewDefaultWeight(ids)
	w.Mass = mass
	w.Size = size
	w.Shape = shape
	w.Color = color
	return w
}

func arm(ids *tree.IDSource, length, pivot float64, left, right tree.Node) *tree.Arm {
	return &tree.Arm{
		ID:         ids.Next(),
		WireLength: tree.DefaultWireLength,
		Length:     length,
		Pivot:      pivot,
		Left:       left,
		Right:      right,
	}
}

func buildStarter(ids *tree.IDSource) tree.Node {
	return tree.NewDefaultTree(ids)
}

// buildButterfly is a symmetric three-level mobile with paired wings.
func buildButterfly(ids *tree.IDSource) tree.Node {
	root := &tree.Arm{ID: ids.Next(), WireLength: tree.DefaultWireLength, Length: 4, Pivot: 0.5}
	root.Left = arm(ids, 2, 0.5,
		weight(ids, 0.8, 0.25, tree.Disk, "#f472b6"),
		weight(ids, 0.8, 0.25, tree.Disk, "#fb923c"),
	)
	root.Right = arm(ids, 2, 0.5,
		weight(ids, 0.8, 0.25, tree.Disk, "#a78bfa"),
		weight(ids, 0.8, 0.25, tree.Disk, "#34d399"),
	)
	return root
}

// buildCascade descends arm-by-arm to the depth limit, heavier on each
// outer end. Deliberately unbalanced so auto-balance has work to do.
func buildCascade(ids *tree.IDSource) tree.Node {
	leaf := weight(ids, 2.5, 0.4, tree.Sphere, "#f87171")
	cur := tree.Node(leaf)
	for i := 0; i < tree.MaxDepth-1; i++ {
		length := 3.5 - float64(i)*0.5
		cur = arm(ids, length, 0.4,
			cur,
			weight(ids, 0.6+float64(i)*0.2, 0.2, tree.Cone, "#fbbf24"),
		)
	}
	return cur
}
