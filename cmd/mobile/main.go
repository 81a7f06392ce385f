package main

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/calderlab/mobile/internal/balance"
	"github.com/calderlab/mobile/internal/config"
	"github.com/calderlab/mobile/internal/engine"
	"github.com/calderlab/mobile/internal/geom"
	"github.com/calderlab/mobile/internal/rig"
	"github.com/calderlab/mobile/internal/session"
	"github.com/calderlab/mobile/internal/solver"
	"github.com/calderlab/mobile/internal/store"
	"github.com/calderlab/mobile/internal/tree"
	"github.com/calderlab/mobile/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string
	outFile    string
	write      bool
	// sim parameters
	duration   float64
	dt         float64
	windMode   string
	windForce  float64
	turbulence float64
	damping    float64
	timeScale  float64
	trackNode  string
)

// main registers commands and flags; with no subcommand the interactive
// editor starts. Exits with status 1 if command execution fails.
func main() {
	rootCmd := &cobra.Command{
		Use:   "mobile",
		Short: "kinetic mobile sculpture editor",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, sess, st, err := setup()
			if err != nil {
				return err
			}
			return viz.Run(cfg, sess, st)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "data directory (default from config)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")

	newCmd := &cobra.Command{
		Use:   "new",
		Short: "create a sculpture and print (or save) its JSON",
		RunE:  runNew,
	}
	newCmd.Flags().StringVar(&preset, "preset", "", "start from a preset")
	newCmd.Flags().StringVarP(&outFile, "out", "o", "", "write to file instead of stdout")

	showCmd := &cobra.Command{
		Use:   "show [file]",
		Short: "solve a sculpture file and print its equilibrium",
		Args:  cobra.ExactArgs(1),
		RunE:  runShow,
	}

	balanceCmd := &cobra.Command{
		Use:   "balance [file]",
		Short: "apply auto-balance pivots to a sculpture file",
		Args:  cobra.ExactArgs(1),
		RunE:  runBalance,
	}
	balanceCmd.Flags().BoolVarP(&write, "write", "w", false, "overwrite the input file")

	simCmd := &cobra.Command{
		Use:   "sim [file]",
		Short: "run the constraint physics simulation headless",
		Args:  cobra.ExactArgs(1),
		RunE:  runSim,
	}
	simCmd.Flags().Float64Var(&duration, "time", 10.0, "simulated duration")
	simCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	simCmd.Flags().StringVar(&windMode, "wind-mode", "uniform", "uniform or turbulent")
	simCmd.Flags().Float64Var(&windForce, "wind", 0.0, "wind intensity")
	simCmd.Flags().Float64Var(&turbulence, "turbulence", config.DefaultTurbulence, "turbulence amount 0..1")
	simCmd.Flags().Float64Var(&damping, "damping", config.DefaultDamping, "damping 0..1")
	simCmd.Flags().Float64Var(&timeScale, "timescale", 1.0, "simulation time scale 0.1..1.0")
	simCmd.Flags().StringVar(&trackNode, "track", "", "node id to plot (default: deepest weight)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved snapshots",
		RunE:  runList,
	}

	importCmd := &cobra.Command{
		Use:   "import [file]",
		Short: "validate a sculpture file and save it as a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE:  runImport,
	}

	exportCmd := &cobra.Command{
		Use:   "export [snapshot-id]",
		Short: "print a snapshot's sculpture JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  runExport,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range session.Presets() {
				fmt.Println(name)
			}
		},
	}

	rootCmd.AddCommand(newCmd, showCmd, balanceCmd, simCmd, listCmd, importCmd, exportCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setup() (*config.Config, *session.Session, *store.Store, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	st := store.New(cfg.DataDir)
	if err := st.Init(); err != nil {
		return nil, nil, nil, err
	}
	sess := session.New(cfg)
	if cfg.Preset != "" {
		if err := sess.LoadPreset(cfg.Preset); err != nil {
			return nil, nil, nil, err
		}
	}
	return cfg, sess, st, nil
}

func loadSession(path string) (*session.Session, error) {
	cfg := config.DefaultConfig()
	sess := session.New(cfg)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if res := sess.Import(data); !res.Success {
		return nil, fmt.Errorf("import %s: %s", path, res.Error)
	}
	return sess, nil
}

func runNew(cmd *cobra.Command, args []string) error {
	_, sess, _, err := setup()
	if err != nil {
		return err
	}
	if preset != "" {
		if err := sess.LoadPreset(preset); err != nil {
			return err
		}
	}
	data, err := sess.Export()
	if err != nil {
		return err
	}
	if outFile != "" {
		return os.WriteFile(outFile, data, 0644)
	}
	fmt.Println(string(data))
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	sess, err := loadSession(args[0])
	if err != nil {
		return err
	}
	root := sess.Tree()
	layout := solver.Solve(root)

	fmt.Printf("nodes: %d  depth: %d/%d  total mass: %.3f\n\n",
		tree.CountNodes(root), tree.Depth(root), tree.MaxDepth, tree.SubtreeMass(root))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tX\tY\tTILT\tBALANCE\tCOLOR")
	for _, id := range layout.Order {
		p, _ := layout.Placement(id)
		n := tree.Find(root, id)
		switch n.(type) {
		case *tree.Arm:
			fmt.Fprintf(w, "%s\tarm\t%.3f\t%.3f\t%+.2f°\t%.3f\t%s\n",
				id, p.Position.X, p.Position.Y, p.Angle*180/math.Pi, p.Ratio, p.Color)
		case *tree.Weight:
			fmt.Fprintf(w, "%s\tweight\t%.3f\t%.3f\t\t\t\n", id, p.Position.X, p.Position.Y)
		}
	}
	return w.Flush()
}

func runBalance(cmd *cobra.Command, args []string) error {
	sess, err := loadSession(args[0])
	if err != nil {
		return err
	}
	root := tree.Clone(sess.Tree())
	targets := balance.Targets(root)
	balance.Apply(root, targets)
	sess.SetTree(root)

	layout := solver.Solve(sess.Tree())
	worst := 1.0
	for _, id := range layout.Order {
		if p, _ := layout.Placement(id); p.IsArm && p.Ratio < worst {
			worst = p.Ratio
		}
	}
	fmt.Fprintf(os.Stderr, "balanced %d arms, worst ratio %.4f\n", len(targets), worst)

	data, err := sess.Export()
	if err != nil {
		return err
	}
	if write {
		return os.WriteFile(args[0], data, 0644)
	}
	fmt.Println(string(data))
	return nil
}

func runSim(cmd *cobra.Command, args []string) error {
	sess, err := loadSession(args[0])
	if err != nil {
		return err
	}
	root := sess.Tree()

	world := engine.NewWorld()
	adapter := rig.NewAdapter(world)
	adapter.SetDamping(damping)
	adapter.SetTimestep(dt)
	adapter.SetTimeScale(timeScale)

	mode := rig.WindUniform
	if windMode == "turbulent" {
		mode = rig.WindTurbulent
	}
	adapter.SetWind(rig.Wind{
		Mode:       mode,
		Direction:  geom.Vec3{X: 1},
		Intensity:  windForce,
		Turbulence: turbulence,
	})

	contacts := 0
	adapter.OnCollision(func(rig.CollisionEvent) { contacts++ })
	adapter.Build(root)

	target := trackNode
	if target == "" {
		target = deepestWeight(root)
	}
	b, ok := adapter.Body(target)
	if !ok {
		return fmt.Errorf("unknown node id: %s", target)
	}

	fmt.Printf("simulating %.1fs (dt=%.4f, wind=%s %.2f)...\n", duration, dt, windMode, windForce)
	start := time.Now()

	var xs []float64
	steps := int(duration / dt)
	frame := time.Duration(float64(time.Second) * dt / timeScale)
	for i := 0; i < steps; i++ {
		adapter.Advance(frame)
		if i%4 == 0 {
			xs = append(xs, b.Position().X)
		}
	}
	elapsed := time.Since(start)

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("steps: %d  contacts: %d  kinetic energy: %.5f\n\n", steps, contacts, world.Energy())

	if len(xs) > 1 {
		graph := asciigraph.Plot(xs,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("%s horizontal position", target)),
		)
		fmt.Println(graph)
	}
	return nil
}

func deepestWeight(root tree.Node) string {
	best := root.NodeID()
	bestDepth := 0
	var walk func(n tree.Node, d int)
	walk = func(n tree.Node, d int) {
		switch v := n.(type) {
		case *tree.Weight:
			if d > bestDepth {
				bestDepth = d
				best = v.ID
			}
		case *tree.Arm:
			walk(v.Left, d+1)
			walk(v.Right, d+1)
		}
	}
	walk(root, 1)
	return best
}

func runList(cmd *cobra.Command, args []string) error {
	_, _, st, err := setup()
	if err != nil {
		return err
	}
	metas, err := st.List()
	if err != nil {
		return err
	}
	if len(metas) == 0 {
		fmt.Println("no snapshots found")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCREATED\tNODES\tDEPTH\tMASS")
	for _, m := range metas {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.2f\n",
			m.ID, m.Name, m.CreatedAt.Format("2006-01-02 15:04:05"), m.Nodes, m.Depth, m.TotalMass)
	}
	return w.Flush()
}

func runImport(cmd *cobra.Command, args []string) error {
	_, sess, st, err := setup()
	if err != nil {
		return err
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	if res := sess.Import(data); !res.Success {
		return fmt.Errorf("import failed: %s", res.Error)
	}
	id, err := st.Save(snapshotName(args[0]), sess.Tree(), data)
	if err != nil {
		return err
	}
	fmt.Printf("snapshot id: %s\n", id)
	return nil
}

// snapshotName derives a snapshot's listing name from the imported
// file's path, so `list` shows "foo.json" rather than the full path.
func snapshotName(path string) string {
	return filepath.Base(path)
}

func runExport(cmd *cobra.Command, args []string) error {
	_, _, st, err := setup()
	if err != nil {
		return err
	}
	data, err := st.Load(args[0])
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
