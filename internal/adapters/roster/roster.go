// Package roster loads designer profiles from a YAML file and keeps a cached
// snapshot that is invalidated when the file changes.
package roster

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/SFZPL/tms-sub000/internal/domain/model"
	"github.com/SFZPL/tms-sub000/pkg/logger"
	"github.com/SFZPL/tms-sub000/pkg/metrics"
)

// ErrInvalidRoster is returned for roster files that decode but hold
// unusable profiles.
var ErrInvalidRoster = errors.New("invalid roster")

// Source returns the current roster snapshot.
type Source interface {
	Snapshot(ctx context.Context) ([]model.DesignerProfile, error)
}

type file struct {
	Designers []model.DesignerProfile `yaml:"designers"`
}

// Parse decodes a roster document:
//
//	designers:
//	  - id: d-1
//	    name: Lina Haddad
//	    role: Motion Designer
//	    tools: [After Effects, Cinema 4D]
//	    outputs: [animation]
//	    languages: [Arabic, English]
func Parse(data []byte) ([]model.DesignerProfile, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse roster: %w", err)
	}
	for i, d := range f.Designers {
		if strings.TrimSpace(d.Name) == "" {
			return nil, fmt.Errorf("%w: designer %d has no name", ErrInvalidRoster, i+1)
		}
	}
	return f.Designers, nil
}

// Load reads a roster file.
func Load(path string) ([]model.DesignerProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}
	return Parse(data)
}

// Static is a Source over a fixed slice.
type Static []model.DesignerProfile

// Snapshot implements Source.
func (s Static) Snapshot(context.Context) ([]model.DesignerProfile, error) {
	return slices.Clone(s), nil
}

// Option applies a configuration option to the FileSource.
type Option func(*FileSource)

// WithLogger sets the source's logger.
func WithLogger(l logger.Logger) Option {
	return func(s *FileSource) {
		if l != nil {
			s.log = l
		}
	}
}

// FileSource serves a cached roster read from path. The cache is dropped
// whenever the watcher sees the file change, or on Invalidate.
type FileSource struct {
	path string
	log  logger.Logger

	mu     sync.RWMutex
	cached []model.DesignerProfile
	valid  bool
	loads  int

	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewFileSource creates a new FileSource for path.
func NewFileSource(path string, opts ...Option) *FileSource {
	s := &FileSource{path: path, log: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot implements Source. Callers get their own copy.
func (s *FileSource) Snapshot(ctx context.Context) ([]model.DesignerProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	if s.valid {
		out := slices.Clone(s.cached)
		s.mu.RUnlock()
		return out, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.valid {
		designers, err := Load(s.path)
		if err != nil {
			return nil, err
		}
		s.cached = designers
		s.valid = true
		s.loads++
		metrics.UpdateRosterSize(len(designers))
		s.log.Info(ctx, "roster loaded",
			logger.String("path", s.path),
			logger.Int("designers", len(designers)))
	}
	return slices.Clone(s.cached), nil
}

// Invalidate drops the cached roster.
func (s *FileSource) Invalidate() {
	s.mu.Lock()
	s.valid = false
	s.mu.Unlock()
}

// Loads returns how many times the file has been read.
func (s *FileSource) Loads() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loads
}

// Start watches the roster file's directory, so editors that replace the
// file are noticed too. It returns once the watch is registered.
func (s *FileSource) Start(ctx context.Context) error {
	if s.watcher != nil {
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create roster watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(s.path)); err != nil {
		_ = w.Close()
		return fmt.Errorf("watch roster directory: %w", err)
	}
	s.watcher = w
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	go s.run(ctx)
	return nil
}

// Stop ends the watch and waits for the watcher goroutine to exit.
func (s *FileSource) Stop() {
	if s.watcher == nil {
		return
	}
	close(s.stopCh)
	<-s.doneCh
	if err := s.watcher.Close(); err != nil {
		s.log.Warn(context.Background(), "closing roster watcher", logger.Error(err))
	}
	s.watcher = nil
}

func (s *FileSource) run(ctx context.Context) {
	defer close(s.doneCh)
	name := filepath.Clean(s.path)
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != name {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			s.Invalidate()
			s.log.Debug(ctx, "roster changed, cache dropped",
				logger.String("path", event.Name),
				logger.String("op", event.Op.String()))
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			metrics.RecordErrorByComponent("roster", "watch")
			s.log.Warn(ctx, "roster watcher error", logger.Error(err))
		}
	}
}
