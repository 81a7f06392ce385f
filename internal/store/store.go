// Package store persists sculpture snapshots under a data directory,
// one subdirectory per snapshot: mobile.json holds the exported
// sculpture, meta.json a small summary for listings.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/calderlab/mobile/internal/tree"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type Meta struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	Nodes     int       `json:"nodes"`
	Weights   int       `json:"weights"`
	TotalMass float64   `json:"totalMass"`
	Depth     int       `json:"depth"`
}

// Save writes a snapshot and returns its id. The sculpture JSON is the
// session's export payload, stored verbatim.
func (s *Store) Save(name string, root tree.Node, mobileJSON []byte) (string, error) {
	id := uuid.NewString()
	dir := filepath.Join(s.baseDir, id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	weights := 0
	tree.Walk(root, func(n tree.Node) bool {
		if _, ok := n.(*tree.Weight); ok {
			weights++
		}
		return true
	})
	meta := Meta{
		ID:        id,
		Name:      name,
		CreatedAt: time.Now().UTC(),
		Nodes:     tree.CountNodes(root),
		Weights:   weights,
		TotalMass: tree.SubtreeMass(root),
		Depth:     tree.Depth(root),
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(dir, "meta.json"), data, 0644); err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(dir, "mobile.json"), mobileJSON, 0644); err != nil {
		return "", err
	}
	return id, nil
}

// List returns every snapshot's metadata, newest first. Unreadable
// entries are skipped, not fatal.
func (s *Store) List() ([]Meta, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Meta{}, nil
		}
		return nil, err
	}

	metas := make([]Meta, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name(), "meta.json"))
		if err != nil {
			continue
		}
		var meta Meta
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		metas = append(metas, meta)
	}
	sort.Slice(metas, func(i, j int) bool {
		return metas[i].CreatedAt.After(metas[j].CreatedAt)
	})
	return metas, nil
}

// Load returns a snapshot's sculpture JSON, ready for session import.
func (s *Store) Load(id string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, id, "mobile.json"))
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", id, err)
	}
	return data, nil
}

func (s *Store) Delete(id string) error {
	return os.RemoveAll(filepath.Join(s.baseDir, id))
}
