package replay

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Checkpoint marks the last operation line whose results and events were
// persisted, along with the event sequence the engine had reached there.
type Checkpoint struct {
	Line     uint64 `json:"line"`
	EventSeq uint64 `json:"event_seq"`
	SavedAt  string `json:"saved_at"`
}

// Verify reports whether re-executing up to cp.Line produced the same event
// sequence. A mismatch means the input or genesis changed under the checkpoint.
func (cp Checkpoint) Verify(seq uint64) error {
	if seq != cp.EventSeq {
		return fmt.Errorf("replay diverged at line %d: event seq %d, checkpoint has %d", cp.Line, seq, cp.EventSeq)
	}
	return nil
}

// CheckpointStore reads and writes a single checkpoint file. A disabled store
// loads nothing and saves nothing.
type CheckpointStore struct {
	path string
}

func NewCheckpointStore(path string, enabled bool) *CheckpointStore {
	if !enabled {
		path = ""
	}
	return &CheckpointStore{path: path}
}

func (c *CheckpointStore) Load() (Checkpoint, bool, error) {
	var cp Checkpoint
	if c.path == "" {
		return cp, false, nil
	}
	data, err := os.ReadFile(c.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return cp, false, nil
	case err != nil:
		return cp, false, fmt.Errorf("read checkpoint %s: %w", c.path, err)
	}
	if err := json.Unmarshal(data, &cp); err != nil {
		return cp, false, fmt.Errorf("decode checkpoint %s: %w", c.path, err)
	}
	return cp, true, nil
}

func (c *CheckpointStore) Save(line, seq uint64) error {
	if c.path == "" {
		return nil
	}
	data, err := json.Marshal(Checkpoint{
		Line:     line,
		EventSeq: seq,
		SavedAt:  time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create checkpoint dir: %w", err)
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	return os.Rename(tmp, c.path)
}
