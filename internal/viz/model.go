// Package viz is the interactive terminal editor: an ASCII side view of
// the solved sculpture with live balance feedback, plus the physics
// mode driven from the same frame clock.
package viz

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"

	"github.com/calderlab/mobile/internal/balance"
	"github.com/calderlab/mobile/internal/config"
	"github.com/calderlab/mobile/internal/engine"
	"github.com/calderlab/mobile/internal/rig"
	"github.com/calderlab/mobile/internal/session"
	"github.com/calderlab/mobile/internal/solver"
	"github.com/calderlab/mobile/internal/store"
	"github.com/calderlab/mobile/internal/tree"
)

const (
	canvasWidth     = 78
	canvasHeight    = 26
	frameRate       = 60
	historyCapacity = 300
)

type TickMsg time.Time

type keymap struct {
	Next, Prev     key.Binding
	Expand, Delete key.Binding
	Balance        key.Binding
	Physics        key.Binding
	Pause          key.Binding
	WindMode       key.Binding
	WindUp         key.Binding
	WindDown       key.Binding
	PivotL, PivotR key.Binding
	Longer         key.Binding
	Shorter        key.Binding
	Heavier        key.Binding
	Lighter        key.Binding
	Rest           key.Binding
	Units          key.Binding
	Save           key.Binding
	Help           key.Binding
	Quit           key.Binding
}

func newKeymap() keymap {
	return keymap{
		Next:     key.NewBinding(key.WithKeys("tab", "right"), key.WithHelp("tab", "next node")),
		Prev:     key.NewBinding(key.WithKeys("shift+tab", "left"), key.WithHelp("s-tab", "prev node")),
		Expand:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "expand weight")),
		Delete:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete node")),
		Balance:  key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "auto-balance")),
		Physics:  key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "physics mode")),
		Pause:    key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "pause")),
		WindMode: key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "wind mode")),
		WindUp:   key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "wind up")),
		WindDown: key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "wind down")),
		PivotL:   key.NewBinding(key.WithKeys("["), key.WithHelp("[", "pivot left")),
		PivotR:   key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "pivot right")),
		Longer:   key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "lengthen")),
		Shorter:  key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "shorten")),
		Heavier:  key.NewBinding(key.WithKeys("M"), key.WithHelp("M", "heavier")),
		Lighter:  key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "lighter")),
		Rest:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset to rest")),
		Units:    key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "units")),
		Save:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save snapshot")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keymap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Expand, k.Balance, k.Physics, k.Save, k.Help, k.Quit}
}

func (k keymap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev, k.Expand, k.Delete},
		{k.PivotL, k.PivotR, k.Longer, k.Shorter, k.Heavier, k.Lighter},
		{k.Balance, k.Physics, k.Pause, k.WindMode, k.WindUp, k.WindDown, k.Rest},
		{k.Units, k.Save, k.Help, k.Quit},
	}
}

type Model struct {
	sess  *session.Session
	st    *store.Store
	units *session.Units

	adapter *rig.Adapter
	layout  *solver.Layout
	order   []string
	rev     int

	selected  int
	physics   bool
	animator  *balance.Animator
	lastTick  time.Time
	contacts  int
	ratioHist []float64
	status    string

	canvas *Canvas
	spring harmonica.Spring
	viewX  float64
	viewV  float64

	keys keymap
	help help.Model
}

func NewModel(cfg *config.Config, sess *session.Session, st *store.Store) *Model {
	adapter := rig.NewAdapter(engine.NewWorld())
	adapter.SetDamping(cfg.Physics.Damping)
	adapter.SetTimestep(cfg.Physics.Dt)
	adapter.SetTimeScale(cfg.Physics.TimeScale)
	adapter.SetWind(windFromConfig(cfg.Physics))

	m := &Model{
		sess:    sess,
		st:      st,
		units:   session.NewUnits(),
		adapter: adapter,
		canvas:  NewCanvas(canvasWidth, canvasHeight),
		spring:  harmonica.NewSpring(harmonica.FPS(frameRate), 5.0, 0.8),
		keys:    newKeymap(),
		help:    help.New(),
	}
	adapter.OnCollision(func(rig.CollisionEvent) { m.contacts++ })
	m.refresh()
	return m
}

func windFromConfig(p config.PhysicsConfig) rig.Wind {
	mode := rig.WindUniform
	if p.WindMode == "turbulent" {
		mode = rig.WindTurbulent
	}
	dir := rig.Wind{
		Mode:       mode,
		Intensity:  p.Intensity,
		Turbulence: p.Turbulence,
	}
	dir.Direction.X, dir.Direction.Y, dir.Direction.Z = p.WindX, p.WindY, p.WindZ
	if dir.Direction.Len() == 0 {
		dir.Direction.X = 1
	}
	return dir
}

// Run starts the interactive editor.
func Run(cfg *config.Config, sess *session.Session, st *store.Store) error {
	p := tea.NewProgram(NewModel(cfg, sess, st))
	_, err := p.Run()
	return err
}

func (m *Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// refresh re-solves the tree and rebuilds the physics graph after any
// mutation.
func (m *Model) refresh() {
	root := m.sess.Tree()
	m.layout = solver.Solve(root)
	m.order = m.layout.Order
	m.rev = m.sess.Revision()
	if m.selected >= len(m.order) {
		m.selected = len(m.order) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
	if m.physics {
		m.adapter.Build(root)
	}
}

func (m *Model) selectedID() string {
	if len(m.order) == 0 {
		return ""
	}
	return m.order[m.selected]
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.handleKey(msg)
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case TickMsg:
		m.advance(time.Time(msg))
		return m, tick()
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) {
	k := m.keys
	switch {
	case key.Matches(msg, k.Next):
		if len(m.order) > 0 {
			m.selected = (m.selected + 1) % len(m.order)
		}
	case key.Matches(msg, k.Prev):
		if len(m.order) > 0 {
			m.selected = (m.selected + len(m.order) - 1) % len(m.order)
		}
	case key.Matches(msg, k.Expand):
		if !m.sess.ExpandWeight(m.selectedID()) {
			m.status = "cannot expand here"
		}
	case key.Matches(msg, k.Delete):
		if !m.sess.DeleteNode(m.selectedID()) {
			m.status = "cannot delete the root"
		}
	case key.Matches(msg, k.Balance):
		m.animator = balance.NewAnimator(m.sess.Tree())
		m.status = "balancing"
	case key.Matches(msg, k.Physics):
		m.physics = !m.physics
		if m.physics {
			m.adapter.Build(m.sess.Tree())
			m.adapter.Resume()
		}
	case key.Matches(msg, k.Pause):
		if m.adapter.Paused() {
			m.adapter.Resume()
		} else {
			m.adapter.Pause()
		}
	case key.Matches(msg, k.WindMode):
		w := m.adapter.Wind()
		if w.Mode == rig.WindUniform {
			w.Mode = rig.WindTurbulent
		} else {
			w.Mode = rig.WindUniform
		}
		m.adapter.SetWind(w)
	case key.Matches(msg, k.WindUp):
		w := m.adapter.Wind()
		w.Intensity += 0.1
		m.adapter.SetWind(w)
	case key.Matches(msg, k.WindDown):
		w := m.adapter.Wind()
		if w.Intensity -= 0.1; w.Intensity < 0 {
			w.Intensity = 0
		}
		m.adapter.SetWind(w)
	case key.Matches(msg, k.PivotL):
		m.nudgeArm(func(a *tree.Arm) session.ArmPatch {
			p := a.Pivot - 0.02
			return session.ArmPatch{Pivot: &p}
		})
	case key.Matches(msg, k.PivotR):
		m.nudgeArm(func(a *tree.Arm) session.ArmPatch {
			p := a.Pivot + 0.02
			return session.ArmPatch{Pivot: &p}
		})
	case key.Matches(msg, k.Longer):
		m.nudgeArm(func(a *tree.Arm) session.ArmPatch {
			l := a.Length * 1.1
			return session.ArmPatch{Length: &l}
		})
	case key.Matches(msg, k.Shorter):
		m.nudgeArm(func(a *tree.Arm) session.ArmPatch {
			l := a.Length / 1.1
			return session.ArmPatch{Length: &l}
		})
	case key.Matches(msg, k.Heavier):
		m.nudgeWeight(1.1)
	case key.Matches(msg, k.Lighter):
		m.nudgeWeight(1 / 1.1)
	case key.Matches(msg, k.Rest):
		m.adapter.ResetToRest(m.sess.Tree())
	case key.Matches(msg, k.Units):
		if m.units.Get() == session.Metric {
			m.units.Set(session.Imperial)
		} else {
			m.units.Set(session.Metric)
		}
	case key.Matches(msg, k.Save):
		m.saveSnapshot()
	case key.Matches(msg, k.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
}

func (m *Model) nudgeArm(patch func(*tree.Arm) session.ArmPatch) {
	a, _ := tree.Find(m.sess.Tree(), m.selectedID()).(*tree.Arm)
	if a == nil {
		return
	}
	m.sess.UpdateArm(a.ID, patch(a))
}

func (m *Model) nudgeWeight(factor float64) {
	w, _ := tree.Find(m.sess.Tree(), m.selectedID()).(*tree.Weight)
	if w == nil {
		return
	}
	mass := w.Mass * factor
	m.sess.UpdateWeight(w.ID, session.WeightPatch{Mass: &mass})
}

func (m *Model) saveSnapshot() {
	data, err := m.sess.Export()
	if err != nil {
		m.status = fmt.Sprintf("export failed: %v", err)
		return
	}
	id, err := m.st.Save("editor snapshot", m.sess.Tree(), data)
	if err != nil {
		m.status = fmt.Sprintf("save failed: %v", err)
		return
	}
	m.status = "saved " + id[:8]
}

// advance runs one frame: the auto-balance animation, the physics
// stepper, the view spring, and the feedback history.
func (m *Model) advance(now time.Time) {
	var dt time.Duration
	if !m.lastTick.IsZero() {
		dt = now.Sub(m.lastTick)
	}
	m.lastTick = now

	if m.animator != nil {
		running := m.animator.Advance(dt)
		m.sess.SetTree(m.animator.Tree())
		if !running {
			m.animator = nil
			m.status = "balanced"
		}
	}

	if m.physics {
		m.adapter.Advance(dt)
	}

	if m.rev != m.sess.Revision() {
		m.refresh()
	}

	if p, ok := m.layout.Placement(m.selectedRatioID()); ok {
		m.ratioHist = append(m.ratioHist, p.Ratio)
		if len(m.ratioHist) > historyCapacity {
			m.ratioHist = m.ratioHist[1:]
		}
	}

	if p, ok := m.layout.Placement(m.selectedID()); ok {
		m.viewX, m.viewV = m.spring.Update(m.viewX, m.viewV, p.Position.X)
	}
}

// selectedRatioID is the selected arm, or the nearest arm above the
// selected weight, so the feedback strip always shows something useful.
func (m *Model) selectedRatioID() string {
	id := m.selectedID()
	root := m.sess.Tree()
	if _, ok := tree.Find(root, id).(*tree.Arm); ok {
		return id
	}
	if p := tree.FindParent(root, id); p != nil {
		return p.ID
	}
	return id
}
