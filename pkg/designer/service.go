package designer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/stagecue/stagecue/internal/log"
	"github.com/stagecue/stagecue/pkg/media"
)

// Service binds one project at a time and tracks its transport position for
// the timeline engine. With a media graph bound the project follows the
// graph clock; a designer-only composition runs free-wheeling on a wall
// clock.
type Service struct {
	mu       sync.Mutex
	projects []*Project

	current   *Project
	graph     media.Graph
	playing   bool
	startedAt time.Time
	elapsed   time.Duration
}

// NewService creates a service with an empty project list.
func NewService() *Service {
	return &Service{}
}

// LoadProjects reads every project file from dir. Unreadable files are
// skipped; a missing directory yields an empty list.
func (s *Service) LoadProjects(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			s.mu.Lock()
			s.projects = nil
			s.mu.Unlock()
			return nil
		}
		return fmt.Errorf("designer: read projects dir: %w", err)
	}

	var projects []*Project
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			log.Warn("skipping unreadable designer project", "file", e.Name(), "err", err)
			continue
		}
		var p Project
		if err := json.Unmarshal(data, &p); err != nil {
			log.Warn("skipping invalid designer project", "file", e.Name(), "err", err)
			continue
		}
		projects = append(projects, &p)
	}

	s.mu.Lock()
	s.projects = projects
	s.mu.Unlock()

	log.Info("designer projects loaded", "count", len(projects))
	return nil
}

// ProjectByCompositionName returns the project authored for a composition,
// nil when there is none.
func (s *Service) ProjectByCompositionName(name string) *Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.projects {
		if p.CompositionName == name {
			return p
		}
	}
	return nil
}

// Load binds a project for the next play session. graph may be nil for a
// designer-only composition.
func (s *Service) Load(project *Project, graph media.Graph) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = project
	s.graph = graph
	s.playing = false
	s.elapsed = 0
	log.Debug("designer project bound", "project", project.Name)
	return nil
}

// Play starts the timeline clock. Without a bound project this is a no-op.
func (s *Service) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil || s.playing {
		return nil
	}
	s.playing = true
	s.startedAt = time.Now()
	return nil
}

// Pause freezes the timeline clock.
func (s *Service) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.playing {
		return nil
	}
	s.elapsed += time.Since(s.startedAt)
	s.playing = false
	return nil
}

// Seek jumps the timeline clock.
func (s *Service) Seek(positionMillis int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elapsed = time.Duration(positionMillis) * time.Millisecond
	s.startedAt = time.Now()
	return nil
}

// PositionMillis reports the timeline position. A bound graph is the
// authoritative clock.
func (s *Service) PositionMillis() int64 {
	s.mu.Lock()
	graph := s.graph
	pos := s.elapsed
	if s.playing {
		pos += time.Since(s.startedAt)
	}
	s.mu.Unlock()

	if graph != nil {
		return graph.PositionMillis()
	}
	return pos.Milliseconds()
}

// Close releases the bound project.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	s.graph = nil
	s.playing = false
	s.elapsed = 0
	return nil
}
