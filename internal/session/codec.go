package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/calderlab/mobile/internal/tree"
)

const (
	// FormatVersion is the persisted-file schema version.
	FormatVersion = "1.0"
	// AppName tags exported files with their producer.
	AppName = "mobile-editor"
)

// Envelope is the flat JSON container a sculpture is saved in. The
// tree inside carries no node ids.
type Envelope struct {
	Version   string         `json:"version"`
	CreatedAt time.Time      `json:"createdAt"`
	App       string         `json:"app"`
	Tree      *tree.NodeJSON `json:"tree"`
}

// Result is the structured outcome of an import. Validation failures
// never cross this boundary as panics or raw errors; the caller decides
// presentation.
type Result struct {
	Success bool
	Error   string
}

// Export serializes the current sculpture, ids stripped.
func (s *Session) Export() ([]byte, error) {
	env := Envelope{
		Version:   FormatVersion,
		CreatedAt: time.Now().UTC(),
		App:       AppName,
		Tree:      tree.Export(s.root),
	}
	return json.MarshalIndent(env, "", "  ")
}

// Import parses a previously exported sculpture and swaps it in. Ids
// are reassigned depth-first from a reset counter, so an imported tree
// can never collide with ids handed out earlier in the session. The
// fresh counter is installed only on success; a failed import leaves
// both the tree and the live id sequence untouched.
func (s *Session) Import(data []byte) Result {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Result{Error: fmt.Sprintf("malformed mobile file: %v", err)}
	}
	if env.Tree == nil {
		return Result{Error: "missing tree"}
	}
	if env.Tree.Type != "arm" && env.Tree.Type != "weight" {
		return Result{Error: fmt.Sprintf("invalid tree root type: %q", env.Tree.Type)}
	}
	ids := tree.NewIDSource()
	root, err := tree.Import(env.Tree, ids)
	if err != nil {
		return Result{Error: err.Error()}
	}
	s.ids = ids
	s.swap(root)
	return Result{Success: true}
}
