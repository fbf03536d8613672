// Package save implements the Save/Load Adapter: schema-versioned
// checkpoint/rollback persistence with an atomic write-temp-then-rename
// discipline (spec §4.8), grounded on the teacher's jsonl-writer pattern.
package save

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// BranchHistoryEntry is one committed (or rejected) branch in a save's history.
type BranchHistoryEntry struct {
	ID      string `yaml:"id"`
	Outcome string `yaml:"outcome"`
}

// Payload is the persisted state of one save slot.
type Payload struct {
	SchemaVersion    int                   `yaml:"schema_version"`
	GameState        []byte                `yaml:"game_state"`
	BranchHistory    []BranchHistoryEntry  `yaml:"branch_history"`
	LastCheckpointID string                `yaml:"last_checkpoint_id"`
	LoreHistory      []string              `yaml:"lore_history"`
}

// IncompatibleAction is the caller's resolution when a loaded schema
// version doesn't match what was expected.
type IncompatibleAction string

const (
	ActionAccept   IncompatibleAction = "accept"
	ActionMigrate  IncompatibleAction = "migrate"
	ActionRollback IncompatibleAction = "rollback"
)

// OnIncompatible is invoked when stored schema_version != expected. It
// returns the action to take and, for migrate, the migrated payload.
type OnIncompatible func(stored *Payload, expectedVersion int) (action IncompatibleAction, migrated *Payload, err error)

// Adapter persists save payloads under a single directory, one file per
// save id. It is single-writer per spec §5's shared-resource policy; the
// caller (typically the Runtime Orchestrator) must serialize calls for the
// same id.
type Adapter struct {
	dir string
}

// NewAdapter constructs an Adapter rooted at dir, creating it if absent.
func NewAdapter(dir string) (*Adapter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("save: create directory %s: %w", dir, err)
	}
	return &Adapter{dir: dir}, nil
}

func (a *Adapter) pathFor(id string) string {
	return filepath.Join(a.dir, id+".yaml")
}

// WriteSave atomically persists payload under id via write-to-temp-then-
// rename, so a crash mid-write never leaves a half-written save in place.
func (a *Adapter) WriteSave(id string, payload Payload) (string, error) {
	finalPath := a.pathFor(id)

	data, err := yaml.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("save: marshal payload for %s: %w", id, err)
	}

	tmp, err := os.CreateTemp(a.dir, "."+id+"-*.tmp")
	if err != nil {
		return "", fmt.Errorf("save: create temp file for %s: %w", id, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("save: write temp file for %s: %w", id, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("save: sync temp file for %s: %w", id, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("save: close temp file for %s: %w", id, err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return "", fmt.Errorf("save: rename temp file into place for %s: %w", id, err)
	}
	return finalPath, nil
}

// LoadSave reads the save for id. When the stored schema_version doesn't
// match expectedVersion, onIncompatible decides how to proceed: accept
// (use the stored payload as-is), migrate (substitute the returned
// payload), or rollback (the caller is expected to restore the pre-branch
// checkpoint and treat this load as failed).
func (a *Adapter) LoadSave(id string, expectedVersion int, onIncompatible OnIncompatible) (*Payload, error) {
	data, err := os.ReadFile(a.pathFor(id))
	if err != nil {
		return nil, fmt.Errorf("save: read %s: %w", id, err)
	}

	var payload Payload
	if err := yaml.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("save: unmarshal %s: %w", id, err)
	}

	if payload.SchemaVersion == expectedVersion {
		return &payload, nil
	}
	if onIncompatible == nil {
		return nil, fmt.Errorf("save: %s has schema_version %d, expected %d, no resolution provided",
			id, payload.SchemaVersion, expectedVersion)
	}

	action, migrated, err := onIncompatible(&payload, expectedVersion)
	if err != nil {
		return nil, fmt.Errorf("save: onIncompatible for %s: %w", id, err)
	}

	switch action {
	case ActionAccept:
		return &payload, nil
	case ActionMigrate:
		if migrated == nil {
			return nil, fmt.Errorf("save: migrate action for %s returned nil payload", id)
		}
		return migrated, nil
	case ActionRollback:
		return nil, fmt.Errorf("save: %s rolled back due to incompatible schema_version %d", id, payload.SchemaVersion)
	default:
		return nil, fmt.Errorf("save: unknown incompatible action %q for %s", action, id)
	}
}

// Checkpoint persists payload as the pre-mutation checkpoint (pre_inject).
// It is a thin alias over WriteSave: the distinction from Commit is in
// when the orchestrator calls it, not in the write mechanics.
func (a *Adapter) Checkpoint(id string, payload Payload) (string, error) {
	return a.WriteSave(id, payload)
}

// Commit persists payload after a committed beat (post_checkpoint).
func (a *Adapter) Commit(id string, payload Payload) (string, error) {
	return a.WriteSave(id, payload)
}
