package composition

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/stagecue/stagecue/internal/caps"
	"github.com/stagecue/stagecue/internal/config"
	"github.com/stagecue/stagecue/internal/log"
	"github.com/stagecue/stagecue/pkg/designer"
	"github.com/stagecue/stagecue/pkg/media"
	"github.com/stagecue/stagecue/pkg/midi"
)

// Status is the transport snapshot broadcast to observers.
type Status struct {
	PlayState      PlayState `json:"playState"`
	Composition    string    `json:"composition,omitempty"`
	PositionMillis int64     `json:"positionMillis"`
}

// Notifier broadcasts transport state and monitoring events to connected
// clients. Implementations are fire-and-forget; they must never block the
// player for long or propagate failures.
type Notifier interface {
	NotifyState(Status)
	NotifyAlert(message string)
	NotifyMidi(sig midi.Signal, direction midi.Direction, source midi.Source)
	NotifyLevels(peaks []float64)
}

// Designer is the lighting-timeline collaborator. At most one project is
// bound per player; the project is looked up on load and released on stop.
type Designer interface {
	ProjectByCompositionName(name string) *designer.Project
	Load(project *designer.Project, graph media.Graph) error
	Play() error
	Pause() error
	Seek(positionMillis int64) error
	PositionMillis() int64
	Close() error
}

// FinishedHandler is told when a non-looping composition reaches its natural
// end. The owning service decides whether to advance to the next one.
type FinishedHandler interface {
	CompositionPlayerFinishedPlaying(p *Player)
}

// Deps are the collaborators a player needs. Notifier, Designer, Finished,
// DeviceOut and Lighting may be nil when the install does not provide them.
type Deps struct {
	Settings  *config.Settings
	Caps      caps.Capabilities
	Notifier  Notifier
	Designer  Designer
	Finished  FinishedHandler
	DeviceOut midi.DeviceOut
	Lighting  midi.LightingSink

	// Build overrides the media engine, nil uses the registered one.
	Build media.Factory
}

// Player runs a single composition. Public operations are called from
// request-handler goroutines and race with graph-internal callbacks, so all
// state lives behind one mutex; blocking work (graph build and teardown)
// happens outside it.
type Player struct {
	id    string
	deps  Deps
	build media.Factory

	mu            sync.Mutex
	composition   *Composition
	state         PlayState
	startPosition int64
	graph         media.Graph
	routers       []*midi.Router
	project       *designer.Project

	defaultComposition bool
	sample             bool
}

// NewPlayer creates a stopped player.
func NewPlayer(deps Deps) *Player {
	build := deps.Build
	if build == nil {
		build = media.Build
	}
	return &Player{
		id:    uuid.NewString(),
		deps:  deps,
		build: build,
		state: Stopped,
	}
}

// ID is the unique identity of this player instance.
func (p *Player) ID() string { return p.id }

// State returns the current transport state.
func (p *Player) State() PlayState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Composition returns the currently assigned composition.
func (p *Player) Composition() *Composition {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.composition
}

// SetComposition assigns the composition to play. Only valid between play
// sessions; a running session keeps its own graph until stopped.
func (p *Player) SetComposition(c *Composition) {
	p.mu.Lock()
	p.composition = c
	st := p.statusLocked()
	notify := p.shouldNotifyLocked()
	p.mu.Unlock()

	if notify {
		p.deps.Notifier.NotifyState(st)
	}
}

// SetDefaultComposition marks this player as the background default. Default
// players never appear in transport broadcasts.
func (p *Player) SetDefaultComposition(v bool) {
	p.mu.Lock()
	p.defaultComposition = v
	p.mu.Unlock()
}

// SetSample marks this player as a preview/sample player. Sample players
// suppress all client notifications.
func (p *Player) SetSample(v bool) {
	p.mu.Lock()
	p.sample = v
	p.mu.Unlock()
}

// Status returns the current transport snapshot.
func (p *Player) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.statusLocked()
}

// statusLocked builds the broadcast snapshot. Caller holds mu.
func (p *Player) statusLocked() Status {
	name := ""
	if p.composition != nil {
		name = p.composition.Name
	}
	return Status{
		PlayState:      p.state,
		Composition:    name,
		PositionMillis: p.positionLocked(),
	}
}

// shouldNotifyLocked reports whether transport broadcasts are wanted.
// Caller holds mu.
func (p *Player) shouldNotifyLocked() bool {
	return p.deps.Notifier != nil && !p.defaultComposition && !p.sample
}

// positionLocked implements the position lookup order: a pending deferred
// seek wins, then the graph clock, then the designer. Caller holds mu.
func (p *Player) positionLocked() int64 {
	if p.startPosition > 0 {
		return p.startPosition
	}
	if p.composition == nil {
		return 0
	}
	if p.graph != nil {
		return p.graph.PositionMillis()
	}
	if p.project != nil && p.deps.Designer != nil {
		return p.deps.Designer.PositionMillis()
	}
	return 0
}

// PositionMillis returns the current playback position.
func (p *Player) PositionMillis() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.positionLocked()
}

// LoadFiles scans the composition, tears down any previous session and
// builds the media graph and designer binding for the next one. It only
// acts from the Stopped state. A composition without active files and
// without a lighting project is a no-op (for example a lead sheet).
func (p *Player) LoadFiles() error {
	p.mu.Lock()
	if p.state != Stopped || p.composition == nil {
		p.mu.Unlock()
		return nil
	}
	comp := p.composition

	var project *designer.Project
	if p.deps.Designer != nil {
		project = p.deps.Designer.ProjectByCompositionName(comp.Name)
	}

	hasActive := comp.HasActiveFile()

	if !hasActive && project == nil {
		st := p.statusLocked()
		notify := p.shouldNotifyLocked()
		p.mu.Unlock()
		if notify {
			p.deps.Notifier.NotifyState(st)
		}
		return nil
	}

	if hasActive && !p.deps.Caps.Gstreamer {
		p.mu.Unlock()
		return fmt.Errorf("load composition %q: %w", comp.Name, media.ErrEngineUnavailable)
	}

	p.state = Loading
	st := p.statusLocked()
	notify := p.shouldNotifyLocked()

	oldGraph := p.graph
	oldRouters := p.routers
	oldProject := p.project
	p.graph = nil
	p.routers = nil
	p.project = nil
	p.mu.Unlock()

	if notify {
		p.deps.Notifier.NotifyState(st)
	}
	log.Debug("loading composition", "composition", comp.Name)

	// Release the previous session first: the output device must be free
	// before the next graph claims it.
	p.teardownSession(oldGraph, oldRouters, oldProject)

	var graph media.Graph
	var routers []*midi.Router
	if hasActive {
		spec, specRouters := p.buildGraphSpec(comp)
		g, err := p.build(spec)
		if err != nil {
			for _, r := range specRouters {
				r.Close()
			}
			p.mu.Lock()
			p.state = Stopped
			p.mu.Unlock()
			return fmt.Errorf("load composition %q: %w", comp.Name, err)
		}
		graph = g
		routers = specRouters
	}

	if project != nil {
		if err := p.deps.Designer.Load(project, graph); err != nil {
			p.teardownSession(graph, routers, nil)
			p.mu.Lock()
			p.state = Stopped
			p.mu.Unlock()
			return fmt.Errorf("load designer project %q: %w", project.Name, err)
		}
	}

	log.Debug("composition loaded", "composition", comp.Name)

	p.mu.Lock()
	if p.state != Loading {
		// A concurrent stop won the race; discard the fresh session.
		p.mu.Unlock()
		p.teardownSession(graph, routers, project)
		return nil
	}
	p.graph = graph
	p.routers = routers
	p.project = project
	p.state = Loaded
	st = p.statusLocked()
	notify = p.shouldNotifyLocked()
	p.mu.Unlock()

	if notify {
		p.deps.Notifier.NotifyState(st)
	}
	return nil
}

// teardownSession releases one play session's resources. Must be called
// without holding mu: graph teardown can block.
func (p *Player) teardownSession(graph media.Graph, routers []*midi.Router, project *designer.Project) {
	if graph != nil {
		if err := graph.Stop(); err != nil {
			log.Error("stop media graph", "player", p.id, "err", err)
		}
		graph.Close()
	}
	if project != nil && p.deps.Designer != nil {
		if err := p.deps.Designer.Close(); err != nil {
			log.Error("close designer project", "player", p.id, "err", err)
		}
	}
	for _, r := range routers {
		r.Close()
	}
}

// Play loads the composition if needed and starts the graph and the
// designer project.
func (p *Player) Play() error {
	p.mu.Lock()
	if p.composition == nil {
		p.mu.Unlock()
		return nil
	}
	name := p.composition.Name
	p.mu.Unlock()

	if err := p.LoadFiles(); err != nil {
		return err
	}

	log.Info("playing composition", "composition", name)

	p.mu.Lock()
	graph := p.graph
	project := p.project
	p.mu.Unlock()

	if graph != nil {
		if err := graph.Play(); err != nil {
			return fmt.Errorf("start graph for %q: %w", name, err)
		}
	}
	if project != nil && p.deps.Designer != nil {
		if err := p.deps.Designer.Play(); err != nil {
			return fmt.Errorf("start designer for %q: %w", name, err)
		}
	}

	if graph == nil && project != nil {
		// Designer-only composition: no graph state change will arrive, so
		// flip to playing here.
		p.mu.Lock()
		p.state = Playing
		st := p.statusLocked()
		notify := p.shouldNotifyLocked()
		p.mu.Unlock()
		if notify {
			p.deps.Notifier.NotifyState(st)
		}
	}
	return nil
}

// Pause freezes the graph and the designer project without releasing them.
func (p *Player) Pause() error {
	p.mu.Lock()
	if p.state == Paused || p.composition == nil {
		p.mu.Unlock()
		return nil
	}
	name := p.composition.Name
	graph := p.graph
	project := p.project
	p.mu.Unlock()

	log.Info("pausing composition", "composition", name)

	if graph != nil {
		if err := graph.Pause(); err != nil {
			return fmt.Errorf("pause graph for %q: %w", name, err)
		}
	}
	if project != nil && p.deps.Designer != nil {
		if err := p.deps.Designer.Pause(); err != nil {
			return fmt.Errorf("pause designer for %q: %w", name, err)
		}
	}

	p.mu.Lock()
	p.state = Paused
	st := p.statusLocked()
	notify := p.shouldNotifyLocked()
	p.mu.Unlock()

	if notify {
		p.deps.Notifier.NotifyState(st)
	}
	return nil
}

// Stop tears down the graph, the designer binding and all MIDI routers and
// returns the player to Stopped. Calling Stop on a stopped player is a
// no-op. Stop is safe while LoadFiles is still loading: the load discards
// its session when it finds the state changed.
func (p *Player) Stop() error {
	p.mu.Lock()
	p.startPosition = 0
	if p.composition == nil || p.state == Stopped {
		p.mu.Unlock()
		return nil
	}
	name := p.composition.Name
	p.state = Stopping
	st := p.statusLocked()
	notify := p.shouldNotifyLocked()
	graph := p.graph
	routers := p.routers
	project := p.project
	p.graph = nil
	p.routers = nil
	p.project = nil
	p.mu.Unlock()

	if notify {
		p.deps.Notifier.NotifyState(st)
	}
	log.Info("stopping composition", "composition", name)

	p.teardownSession(graph, routers, project)

	p.mu.Lock()
	p.state = Stopped
	st = p.statusLocked()
	p.mu.Unlock()

	if notify {
		p.deps.Notifier.NotifyState(st)
	}
	log.Info("composition stopped", "composition", name)
	return nil
}

// TogglePlay stops a playing composition and plays anything else.
func (p *Player) TogglePlay() error {
	if p.State() == Playing {
		return p.Stop()
	}
	return p.Play()
}

// Seek jumps to a position. Before the graph reaches its playing condition
// the position is stored and applied exactly once on that transition.
func (p *Player) Seek(positionMillis int64) error {
	p.mu.Lock()
	p.startPosition = positionMillis
	graph := p.graph
	project := p.project
	notify := p.deps.Notifier != nil && !p.sample
	p.mu.Unlock()

	log.Debug("seek", "player", p.id, "positionMillis", positionMillis)

	if graph != nil {
		if err := graph.Seek(positionMillis); err != nil {
			return fmt.Errorf("seek graph: %w", err)
		}
	}
	if project != nil && p.deps.Designer != nil {
		if err := p.deps.Designer.Seek(positionMillis); err != nil {
			return fmt.Errorf("seek designer: %w", err)
		}
	}

	if notify {
		p.mu.Lock()
		st := p.statusLocked()
		p.mu.Unlock()
		p.deps.Notifier.NotifyState(st)
	}
	return nil
}

// buildGraphSpec maps the composition onto a media graph spec and creates
// one router per active MIDI file. Caller must close the routers if the
// graph is never published.
func (p *Player) buildGraphSpec(comp *Composition) (media.Spec, []*midi.Router) {
	settings := p.deps.Settings

	spec := media.Spec{
		Buses:        settings.AudioBuses,
		GlobalVolume: settings.AudioVolume,
		Device:       settings.AudioDevice,
		SampleRate:   settings.AudioSampleRate,
		Loop:         comp.Loop,
		Metering:     settings.EnableMonitor && !p.sample,
		Handlers: media.Handlers{
			OnError:   p.handleGraphError,
			OnPlaying: p.handleGraphPlaying,
			OnEOS:     p.handleGraphEOS,
			OnLevels:  p.handleGraphLevels,
		},
	}

	var routers []*midi.Router
	for _, f := range comp.Files {
		if !f.Info().Active {
			continue
		}
		switch v := f.(type) {
		case MidiFile:
			router := midi.NewRouter(v.Routings, &settings.MidiMapping, p.deps.DeviceOut, p.deps.Lighting)
			routers = append(routers, router)
			spec.Midi = append(spec.Midi, media.MidiSource{
				Path:         settings.MidiFilePath(v.Name),
				OffsetMillis: settings.OffsetMillisMidi + v.OffsetMillis,
				Deliver: func(buf []byte) {
					p.deliverMidiBuffer(buf, router)
				},
			})
		case AudioFile:
			spec.Audio = append(spec.Audio, media.AudioSource{
				Path:         settings.AudioFilePath(v.Name),
				OutputBus:    v.OutputBus,
				Channels:     v.Channels,
				Volume:       v.Volume,
				OffsetMillis: settings.OffsetMillisAudio + v.OffsetMillis,
			})
		case VideoFile:
			spec.Video = append(spec.Video, media.VideoSource{
				Path: settings.VideoFilePath(v.Name),
			})
		}
	}
	return spec, routers
}

// deliverMidiBuffer runs on the graph's delivery goroutine for every buffer
// of one MIDI file.
func (p *Player) deliverMidiBuffer(buf []byte, router *midi.Router) {
	sig, ok, err := midi.Decode(buf)
	if err != nil {
		log.Error("decode midi buffer", "player", p.id, "err", err)
		return
	}
	if !ok {
		return
	}

	if err := router.SendSignal(sig); err != nil {
		log.Error("send midi signal from file", "player", p.id, "err", err)
	}

	if p.deps.Settings.EnableMonitor && p.deps.Notifier != nil {
		p.deps.Notifier.NotifyMidi(sig, midi.DirectionIn, midi.SourceMidiFile)
	}
}

// handleGraphError runs on the graph's notification goroutine. Errors never
// propagate to transport callers; the composition is stopped and observers
// get an alert.
func (p *Player) handleGraphError(err error) {
	log.Error("media graph error", "player", p.id, "err", err)

	if p.deps.Notifier != nil {
		p.deps.Notifier.NotifyAlert(err.Error() + " Please check your audio settings.")
	}
	if stopErr := p.Stop(); stopErr != nil {
		log.Error("stop composition after graph error", "player", p.id, "err", stopErr)
	}
}

// handleGraphPlaying applies a pending deferred seek exactly once, flips the
// state to Playing and notifies observers. The callback is asynchronous, so
// it can arrive after a stop already tore the session down; a stale callback
// must not resurrect the Playing state.
func (p *Player) handleGraphPlaying() {
	p.mu.Lock()
	if p.playingCallbackStaleLocked() {
		p.mu.Unlock()
		return
	}
	pos := p.startPosition
	p.mu.Unlock()

	if pos > 0 {
		if err := p.Seek(pos); err != nil {
			log.Error("apply deferred start position", "player", p.id, "err", err)
		}
	}

	p.mu.Lock()
	if p.playingCallbackStaleLocked() {
		p.mu.Unlock()
		return
	}
	p.startPosition = 0
	p.state = Playing
	st := p.statusLocked()
	notify := p.shouldNotifyLocked()
	p.mu.Unlock()

	if notify {
		p.deps.Notifier.NotifyState(st)
	}
}

// playingCallbackStaleLocked reports whether a graph playing callback refers
// to a session that is already gone. Stop clears the graph reference before
// tearing it down, so a nil graph means the callback's sender was discarded.
// Caller holds mu.
func (p *Player) playingCallbackStaleLocked() bool {
	return p.graph == nil || p.state == Stopping || p.state == Stopped
}

// handleGraphEOS fires on natural end of stream of a non-looping graph.
func (p *Player) handleGraphEOS() {
	if p.deps.Finished != nil {
		p.deps.Finished.CompositionPlayerFinishedPlaying(p)
	}
}

// handleGraphLevels forwards peak meter values to monitoring clients.
func (p *Player) handleGraphLevels(peaks []float64) {
	if p.deps.Notifier != nil {
		p.deps.Notifier.NotifyLevels(peaks)
	}
}
