package viz

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/calderlab/mobile/internal/geom"
	"github.com/calderlab/mobile/internal/rig"
	"github.com/calderlab/mobile/internal/solver"
	"github.com/calderlab/mobile/internal/tree"
)

// viewport maps world coordinates into canvas sub-pixels, world +Y up.
type viewport struct {
	scale  float64
	cx, cy float64
	w, h   int
}

func newViewport(b geom.Box, w, h int, focusX float64) viewport {
	size := b.Size()
	span := size.X
	if size.Y > span {
		span = size.Y
	}
	if span < 1 {
		span = 1
	}
	margin := 0.85
	scale := float64(min(w*2, h*4)) * margin / span
	// blend the center toward the spring-eased focus so selection
	// changes glide instead of snapping
	cx := (b.Min.X+b.Max.X)/2*0.7 + focusX*0.3
	return viewport{
		scale: scale,
		cx:    cx,
		cy:    (b.Min.Y + b.Max.Y) / 2,
		w:     w,
		h:     h,
	}
}

func (v viewport) point(p geom.Vec3) (int, int) {
	px := int(float64(v.w) + (p.X-v.cx)*v.scale)
	py := int(float64(v.h)*2 - (p.Y-v.cy)*v.scale)
	return px, py
}

func (m *Model) View() string {
	m.canvas.Clear()
	root := m.sess.Tree()

	vp := newViewport(m.layout.Bounds(), canvasWidth, canvasHeight, m.viewX)
	if m.physics {
		m.drawPhysics(root, vp)
	} else {
		m.drawAnalytical(root, vp)
	}

	left := canvasStyle.Render(m.canvas.String())
	right := panelStyle.Render(m.panel(root))
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	return body + "\n" + helpStyle.Render(m.help.View(m.keys))
}

func (m *Model) drawAnalytical(root tree.Node, vp viewport) {
	// suspension wire from the top of the frame down to the root
	if p, ok := m.layout.Placement(root.NodeID()); ok {
		ax, ay := vp.point(m.layout.Anchor)
		px, py := vp.point(p.Position)
		m.canvas.Line(ax, 0, ax, ay)
		m.canvas.Line(ax, ay, px, py)
	}

	tree.Walk(root, func(n tree.Node) bool {
		p, ok := m.layout.Placement(n.NodeID())
		if !ok {
			return true
		}
		switch v := n.(type) {
		case *tree.Arm:
			l, r := solver.EndPoints(v, p)
			lx, ly := vp.point(l)
			rx, ry := vp.point(r)
			m.canvas.Line(lx, ly, rx, ry)
			for _, child := range []tree.Node{v.Left, v.Right} {
				cp, ok := m.layout.Placement(child.NodeID())
				if !ok {
					continue
				}
				cx, cy := vp.point(cp.Position)
				end := l
				if child == v.Right {
					end = r
				}
				ex, ey := vp.point(end)
				m.canvas.Line(ex, ey, cx, cy)
			}
		case *tree.Weight:
			x, y := vp.point(p.Position)
			m.canvas.Disc(x, y, int(v.Size*vp.scale))
		}
		return true
	})

	if p, ok := m.layout.Placement(m.selectedID()); ok {
		x, y := vp.point(p.Position)
		m.canvas.Mark(x, y, '◎')
	}
}

// drawPhysics reads live body positions from the registry; wires are
// drawn straight from parent body to child body.
func (m *Model) drawPhysics(root tree.Node, vp viewport) {
	tree.Walk(root, func(n tree.Node) bool {
		b, ok := m.adapter.Body(n.NodeID())
		if !ok {
			return true
		}
		x, y := vp.point(b.Position())
		if w, ok := n.(*tree.Weight); ok {
			m.canvas.Disc(x, y, int(w.Size*vp.scale))
		}
		if a, ok := n.(*tree.Arm); ok {
			for _, child := range []tree.Node{a.Left, a.Right} {
				cb, ok := m.adapter.Body(child.NodeID())
				if !ok {
					continue
				}
				cx, cy := vp.point(cb.Position())
				m.canvas.Line(x, y, cx, cy)
			}
		}
		return true
	})

	if b, ok := m.adapter.Body(m.selectedID()); ok {
		x, y := vp.point(b.Position())
		m.canvas.Mark(x, y, '◎')
	}
}

func (m *Model) panel(root tree.Node) string {
	var b strings.Builder

	mode := "analytical"
	if m.physics {
		mode = "physics"
	}
	b.WriteString(headerStyle.Render("mobile editor") + "  " + modeStyle.Render(mode))
	if m.physics && m.adapter.Paused() {
		b.WriteString(" " + pausedStyle.Render("paused"))
	}
	b.WriteString("\n\n")

	sel := tree.Find(root, m.selectedID())
	switch v := sel.(type) {
	case *tree.Arm:
		b.WriteString(selectedStyle.Render("arm "+v.ID) + "\n")
		length, lu := m.units.FormatLength(v.Length)
		wire, _ := m.units.FormatLength(v.WireLength)
		row(&b, "length", fmt.Sprintf("%.2f %s", length, lu))
		row(&b, "pivot", fmt.Sprintf("%.3f", v.Pivot))
		row(&b, "wire", fmt.Sprintf("%.2f %s", wire, lu))
		mass, mu := m.units.FormatMass(v.Mass())
		row(&b, "beam mass", fmt.Sprintf("%.3f %s", mass, mu))
		if p, ok := m.layout.Placement(v.ID); ok {
			ratio := ratioStyle(p.Color).Render(fmt.Sprintf("%.3f", p.Ratio))
			b.WriteString(labelStyle.Render("balance") + ratio + "\n")
			row(&b, "tilt", fmt.Sprintf("%+.1f°", p.Angle*180/math.Pi))
		}
	case *tree.Weight:
		b.WriteString(selectedStyle.Render("weight "+v.ID) + "\n")
		mass, mu := m.units.FormatMass(v.Mass)
		row(&b, "mass", fmt.Sprintf("%.2f %s", mass, mu))
		row(&b, "shape", string(v.Shape))
		size, su := m.units.FormatLength(v.Size)
		row(&b, "size", fmt.Sprintf("%.2f %s", size, su))
		row(&b, "color", v.Color)
	}

	if side := tree.Side(root, m.selectedID()); side != "" {
		row(&b, "side", side)
	}

	b.WriteString("\n")
	total, mu := m.units.FormatMass(tree.SubtreeMass(root))
	row(&b, "total mass", fmt.Sprintf("%.2f %s", total, mu))
	row(&b, "nodes", fmt.Sprintf("%d", tree.CountNodes(root)))
	row(&b, "depth", fmt.Sprintf("%d/%d", tree.Depth(root), tree.MaxDepth))

	w := m.adapter.Wind()
	windMode := "uniform"
	if w.Mode == rig.WindTurbulent {
		windMode = "turbulent"
	}
	row(&b, "wind", fmt.Sprintf("%s %.1f", windMode, w.Intensity))
	if m.physics {
		row(&b, "contacts", fmt.Sprintf("%d", m.contacts))
	}

	if len(m.ratioHist) > 2 {
		graph := asciigraph.Plot(m.ratioHist,
			asciigraph.Height(5),
			asciigraph.Width(34),
			asciigraph.Caption("balance ratio"),
		)
		b.WriteString(graphStyle.Render(graph))
	}

	if m.status != "" {
		b.WriteString("\n" + valueStyle.Render(m.status))
	}
	return b.String()
}

func row(b *strings.Builder, label, value string) {
	b.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
}
