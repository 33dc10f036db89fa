// Package player manages the composition list and the players running them:
// the current show player, the optional background default composition and
// the preview sample player.
package player

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/stagecue/stagecue/internal/caps"
	"github.com/stagecue/stagecue/internal/config"
	"github.com/stagecue/stagecue/internal/log"
	"github.com/stagecue/stagecue/pkg/composition"
	"github.com/stagecue/stagecue/pkg/media"
	"github.com/stagecue/stagecue/pkg/midi"
)

// Deps are the collaborators handed to every player the service creates.
type Deps struct {
	Settings  *config.Settings
	Caps      caps.Capabilities
	Notifier  composition.Notifier
	Designer  composition.Designer
	DeviceOut midi.DeviceOut
	Lighting  midi.LightingSink

	// Build overrides the media engine, nil uses the registered one.
	Build media.Factory
}

// Service is the transport facade the web API talks to. It owns the sorted
// composition list and routes transport operations to the current player.
type Service struct {
	deps Deps

	mu            sync.Mutex
	compositions  []*composition.Composition
	current       *composition.Player
	sample        *composition.Player
	defaultPlayer *composition.Player
}

// NewService creates the service with an empty composition list. Call
// LoadCompositions before serving transport requests.
func NewService(deps Deps) *Service {
	s := &Service{deps: deps}
	s.current = s.newPlayer()
	return s
}

func (s *Service) newPlayer() *composition.Player {
	return composition.NewPlayer(composition.Deps{
		Settings:  s.deps.Settings,
		Caps:      s.deps.Caps,
		Notifier:  s.deps.Notifier,
		Designer:  s.deps.Designer,
		Finished:  s,
		DeviceOut: s.deps.DeviceOut,
		Lighting:  s.deps.Lighting,
		Build:     s.deps.Build,
	})
}

// LoadCompositions reads every composition file from the configured
// directory and sorts the set by name. Unreadable files are skipped so one
// broken show file cannot take the whole set down. A missing directory
// yields an empty list.
func (s *Service) LoadCompositions() error {
	dir := s.deps.Settings.CompositionsDir()

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			s.mu.Lock()
			s.compositions = nil
			s.mu.Unlock()
			return nil
		}
		return fmt.Errorf("player: read compositions dir: %w", err)
	}

	var comps []*composition.Composition
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		c, err := composition.LoadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			log.Warn("skipping unreadable composition", "file", e.Name(), "err", err)
			continue
		}
		comps = append(comps, c)
	}
	sort.Slice(comps, func(i, j int) bool { return comps[i].Name < comps[j].Name })

	s.mu.Lock()
	s.compositions = comps
	selectFirst := s.current.Composition() == nil && len(comps) > 0
	s.mu.Unlock()

	log.Info("compositions loaded", "count", len(comps))

	if selectFirst {
		s.current.SetComposition(comps[0])
	}
	return nil
}

// Compositions returns the sorted composition list.
func (s *Service) Compositions() []*composition.Composition {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*composition.Composition(nil), s.compositions...)
}

// CompositionByName looks up one composition.
func (s *Service) CompositionByName(name string) *composition.Composition {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.compositions {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func (s *Service) currentPlayer() *composition.Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// SetComposition stops the current session and selects the named
// composition.
func (s *Service) SetComposition(name string) error {
	c := s.CompositionByName(name)
	if c == nil {
		return fmt.Errorf("player: unknown composition %q", name)
	}

	p := s.currentPlayer()
	if err := p.Stop(); err != nil {
		return err
	}
	p.SetComposition(c)
	return nil
}

// Next selects the composition after the current one. At the end of the
// list this is a no-op.
func (s *Service) Next() error { return s.step(1) }

// Previous selects the composition before the current one. At the start of
// the list this is a no-op.
func (s *Service) Previous() error { return s.step(-1) }

func (s *Service) step(delta int) error {
	s.mu.Lock()
	comps := s.compositions
	p := s.current
	s.mu.Unlock()

	idx := -1
	if c := p.Composition(); c != nil {
		for i, candidate := range comps {
			if candidate.Name == c.Name {
				idx = i
				break
			}
		}
	}

	next := idx + delta
	if next < 0 || next >= len(comps) {
		return nil
	}

	if err := p.Stop(); err != nil {
		return err
	}
	p.SetComposition(comps[next])
	return nil
}

// Play stops the background default composition and starts the current one.
func (s *Service) Play() error {
	s.stopDefault()
	return s.currentPlayer().Play()
}

// Pause freezes the current player.
func (s *Service) Pause() error {
	return s.currentPlayer().Pause()
}

// Stop halts the current player and resumes the background default.
func (s *Service) Stop() error {
	if err := s.currentPlayer().Stop(); err != nil {
		return err
	}
	s.resumeDefault()
	return nil
}

// TogglePlay stops a playing composition and plays anything else.
func (s *Service) TogglePlay() error {
	if s.currentPlayer().State() == composition.Playing {
		return s.Stop()
	}
	return s.Play()
}

// Seek jumps the current player to a position.
func (s *Service) Seek(positionMillis int64) error {
	return s.currentPlayer().Seek(positionMillis)
}

// Status returns the current player's transport snapshot.
func (s *Service) Status() composition.Status {
	return s.currentPlayer().Status()
}

// PlayDefaultComposition starts the configured background composition,
// looping, on its own silent player. A blank configuration disables it.
func (s *Service) PlayDefaultComposition() error {
	name := s.deps.Settings.DefaultComposition
	if name == "" {
		return nil
	}
	c := s.CompositionByName(name)
	if c == nil {
		return fmt.Errorf("player: unknown default composition %q", name)
	}

	s.mu.Lock()
	if s.defaultPlayer == nil {
		s.defaultPlayer = s.newPlayer()
		s.defaultPlayer.SetDefaultComposition(true)
	}
	p := s.defaultPlayer
	p.SetSample(false)
	s.mu.Unlock()

	looped := *c
	looped.Loop = true
	p.SetComposition(&looped)

	log.Info("playing default composition", "composition", name)
	return p.Play()
}

func (s *Service) stopDefault() {
	s.mu.Lock()
	p := s.defaultPlayer
	s.mu.Unlock()
	if p == nil {
		return
	}
	if err := p.Stop(); err != nil {
		log.Error("stop default composition", "err", err)
	}
}

func (s *Service) resumeDefault() {
	if err := s.PlayDefaultComposition(); err != nil {
		log.Error("resume default composition", "err", err)
	}
}

// PlaySample previews a single media file on a dedicated silent player
// without touching the current session.
func (s *Service) PlaySample(fileType, name string) error {
	info := composition.FileInfo{Name: name, Active: true}

	var f composition.File
	switch fileType {
	case "audio", "":
		f = composition.AudioFile{FileInfo: info, Channels: 2, Volume: 1.0}
	case "midi":
		f = composition.MidiFile{FileInfo: info}
	case "video":
		f = composition.VideoFile{FileInfo: info}
	default:
		return fmt.Errorf("player: unknown sample file type %q", fileType)
	}

	s.mu.Lock()
	if s.sample == nil {
		s.sample = s.newPlayer()
		s.sample.SetSample(true)
	}
	p := s.sample
	s.mu.Unlock()

	if err := p.Stop(); err != nil {
		return err
	}
	p.SetComposition(&composition.Composition{
		Name:  "sample " + name,
		Files: []composition.File{f},
	})
	return p.Play()
}

// StopSample halts a running preview.
func (s *Service) StopSample() error {
	s.mu.Lock()
	p := s.sample
	s.mu.Unlock()
	if p == nil {
		return nil
	}
	return p.Stop()
}

// CompositionPlayerFinishedPlaying handles the natural end of a non-looping
// composition: the session is torn down, the show advances to the next
// composition and the background default resumes.
func (s *Service) CompositionPlayerFinishedPlaying(p *composition.Player) {
	s.mu.Lock()
	isCurrent := p == s.current
	s.mu.Unlock()

	if err := p.Stop(); err != nil {
		log.Error("stop finished composition", "err", err)
	}
	if !isCurrent {
		return
	}

	if err := s.step(1); err != nil {
		log.Error("advance to next composition", "err", err)
	}
	s.resumeDefault()
}

// Close stops every player the service owns.
func (s *Service) Close() {
	s.mu.Lock()
	players := []*composition.Player{s.current, s.sample, s.defaultPlayer}
	s.mu.Unlock()

	for _, p := range players {
		if p == nil {
			continue
		}
		if err := p.Stop(); err != nil {
			log.Error("stop player on shutdown", "err", err)
		}
	}
}
