// Package preference implements the Player Preference store: a
// per-branch-type running EMA estimate in [0,1], persisted locally and
// serialized through a single updater goroutine so concurrent accept/
// decline outcomes never race each other (spec §3, §5).
package preference

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	// defaultScore is the running estimate for a branch type that has
	// never received an outcome.
	defaultScore = 0.5
	// defaultAlpha is the EMA smoothing factor: higher weighs recent
	// outcomes more heavily.
	defaultAlpha = 0.2
)

type updateRequest struct {
	branchType string
	accepted   bool
	result     chan error
}

// Store holds the running preference estimate per branch type.
type Store struct {
	path  string
	alpha float64

	mu     sync.RWMutex
	values map[string]float64

	updateCh chan updateRequest
	wg       sync.WaitGroup
}

// Option configures a Store.
type Option func(*Store)

// WithAlpha overrides the default EMA smoothing factor.
func WithAlpha(alpha float64) Option {
	return func(s *Store) {
		if alpha > 0 && alpha <= 1 {
			s.alpha = alpha
		}
	}
}

// Open loads path (if it exists) and starts the single updater goroutine.
// Callers must call Close when done.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{
		path:     path,
		alpha:    defaultAlpha,
		values:   make(map[string]float64),
		updateCh: make(chan updateRequest),
	}
	for _, opt := range opts {
		opt(s)
	}

	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &s.values); err != nil {
			return nil, fmt.Errorf("preference: parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("preference: read %s: %w", path, err)
	}

	s.wg.Add(1)
	go s.run()
	return s, nil
}

func (s *Store) run() {
	defer s.wg.Done()
	for req := range s.updateCh {
		outcome := 0.0
		if req.accepted {
			outcome = 1.0
		}
		prev := s.Get(req.branchType)
		next := s.alpha*outcome + (1-s.alpha)*prev

		s.mu.Lock()
		s.values[req.branchType] = next
		s.mu.Unlock()

		req.result <- s.persist()
	}
}

// Get returns the current running estimate for branchType, defaulting to
// 0.5 when no outcome has ever been recorded.
func (s *Store) Get(branchType string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.values[branchType]; ok {
		return v
	}
	return defaultScore
}

// Update records an accept/decline outcome for branchType and blocks until
// the serialized updater has applied the EMA update and persisted it.
func (s *Store) Update(branchType string, accepted bool) error {
	req := updateRequest{branchType: branchType, accepted: accepted, result: make(chan error, 1)}
	s.updateCh <- req
	return <-req.result
}

// Close stops the updater goroutine and waits for it to drain.
func (s *Store) Close() error {
	close(s.updateCh)
	s.wg.Wait()
	return nil
}

func (s *Store) persist() error {
	s.mu.RLock()
	data, err := yaml.Marshal(s.values)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("preference: marshal: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".preference-*.tmp")
	if err != nil {
		return fmt.Errorf("preference: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("preference: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("preference: close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("preference: rename temp file into place: %w", err)
	}
	return nil
}
