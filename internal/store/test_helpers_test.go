package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/pulse/internal/ir"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun creates a fixed-mode run with minimal required fields.
func createTestRun(id, resultKey string) *ir.RunRecord {
	return &ir.RunRecord{
		ID:          id,
		ResultKey:   resultKey,
		NetworkHash: "net-hash",
		Network: []ir.NodeDecl{
			{ID: "broadcaster", Kind: ir.KindRelay, Destinations: []ir.NodeID{"a"}},
			{ID: "a", Kind: ir.KindToggle, Destinations: []ir.NodeID{"output"}},
		},
		Mode:    ir.ModeFixed,
		Trigger: ir.Broadcaster,
		Presses: 1000,
		Counts:  ir.Counts{High: 500, Low: 2500},
		Answer:  1250000,
	}
}
