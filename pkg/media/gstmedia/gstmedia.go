// Package gstmedia implements the media graph on GStreamer. Importing it
// registers the engine with the media package.
package gstmedia

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-gst/go-gst/gst"

	"github.com/stagecue/stagecue/internal/log"
	"github.com/stagecue/stagecue/pkg/media"
)

const pipelineName = "stagecue-play"

// busPollInterval bounds how long Close waits for the watch goroutine.
const busPollInterval = 100 * time.Millisecond

var initOnce sync.Once

func init() {
	media.Register(Build)
}

// Build assembles one pipeline for a play session: every audio file feeds a
// shared mixer through its own convert/resample branch, every MIDI file gets
// a parse branch ending in an appsink, and video files render on their own
// playback element. All branches share the pipeline clock, which is what
// keeps the composition in sync.
func Build(spec media.Spec) (media.Graph, error) {
	initOnce.Do(func() {
		gst.Init(nil)
	})

	pipeline, err := gst.NewPipeline(pipelineName)
	if err != nil {
		return nil, fmt.Errorf("gstmedia: create pipeline: %w", err)
	}

	g := &graph{
		pipeline:  pipeline,
		spec:      spec,
		quit:      make(chan struct{}),
		watchDone: make(chan struct{}),
		events:    newEventQueue(),
	}

	if spec.HasAudio() {
		if err := g.buildAudio(); err != nil {
			return nil, err
		}
	}
	for i, src := range spec.Midi {
		if err := g.buildMidiBranch(i, src); err != nil {
			return nil, err
		}
	}
	for i, src := range spec.Video {
		if err := g.buildVideoBranch(i, src); err != nil {
			return nil, err
		}
	}

	go g.events.run()
	go g.watch()
	return g, nil
}

type graph struct {
	pipeline *gst.Pipeline
	spec     media.Spec

	quit      chan struct{}
	watchDone chan struct{}
	events    *eventQueue
	closeOnce sync.Once
}

func (g *graph) Play() error {
	if err := g.pipeline.SetState(gst.StatePlaying); err != nil {
		return fmt.Errorf("gstmedia: set playing: %w", err)
	}
	return nil
}

func (g *graph) Pause() error {
	if err := g.pipeline.SetState(gst.StatePaused); err != nil {
		return fmt.Errorf("gstmedia: set paused: %w", err)
	}
	return nil
}

func (g *graph) Stop() error {
	if err := g.pipeline.SetState(gst.StateNull); err != nil {
		return fmt.Errorf("gstmedia: set null: %w", err)
	}
	return nil
}

func (g *graph) Seek(positionMillis int64) error {
	pos := positionMillis * int64(time.Millisecond)
	ok := g.pipeline.Seek(1.0, gst.FormatTime,
		gst.SeekFlagFlush|gst.SeekFlagKeyUnit,
		gst.SeekTypeSet, pos,
		gst.SeekTypeNone, -1)
	if !ok {
		return fmt.Errorf("gstmedia: seek to %dms refused", positionMillis)
	}
	return nil
}

func (g *graph) PositionMillis() int64 {
	ok, pos := g.pipeline.QueryPosition(gst.FormatTime)
	if !ok || pos < 0 {
		return 0
	}
	return pos / int64(time.Millisecond)
}

// Close releases the pipeline and joins the bus watcher. The watcher never
// blocks in handler code (handlers run on the event queue), so this join is
// safe even when Close is reached from a handler stopping the composition.
// The event queue itself is only signaled, never joined: the caller may be
// running on it.
func (g *graph) Close() {
	g.closeOnce.Do(func() {
		if err := g.pipeline.SetState(gst.StateNull); err != nil {
			log.Error("release pipeline", "err", err)
		}
		close(g.quit)
		<-g.watchDone
		g.events.stop()
	})
}

// watch polls the pipeline bus until Close. The bus is polled rather than
// attached to a GLib main loop so the engine needs no main-loop ownership.
func (g *graph) watch() {
	defer close(g.watchDone)

	bus := g.pipeline.GetPipelineBus()
	for {
		select {
		case <-g.quit:
			return
		default:
		}

		msg := bus.TimedPop(gst.ClockTime(busPollInterval))
		if msg == nil {
			continue
		}
		g.handleMessage(msg)
	}
}

// handleMessage translates one bus message. Handler callbacks are queued to
// the event goroutine; only pipeline-internal reactions (the loop restart)
// run here.
func (g *graph) handleMessage(msg *gst.Message) {
	switch msg.Type() {
	case gst.MessageError:
		gerr := msg.ParseError()
		log.Error("pipeline error", "source", msg.Source(), "err", gerr.Error())
		if h := g.spec.Handlers.OnError; h != nil {
			err := errors.New(gerr.Error())
			g.events.dispatch(func() { h(err) })
		}

	case gst.MessageWarning, gst.MessageInfo:
		log.Warn("pipeline notice", "source", msg.Source(), "message", msg.String())

	case gst.MessageEOS:
		if g.spec.Loop {
			if err := g.Seek(0); err != nil {
				log.Error("loop restart", "err", err)
			}
			return
		}
		if h := g.spec.Handlers.OnEOS; h != nil {
			g.events.dispatch(h)
		}

	case gst.MessageStateChanged:
		// Only the top-level pipeline's transition counts; every element
		// reports its own.
		if msg.Source() != pipelineName {
			return
		}
		_, newState := msg.ParseStateChanged()
		if newState == gst.StatePlaying {
			if h := g.spec.Handlers.OnPlaying; h != nil {
				g.events.dispatch(h)
			}
		}

	case gst.MessageElement:
		g.handleElementMessage(msg)
	}
}

// handleElementMessage extracts peak values from level element messages.
func (g *graph) handleElementMessage(msg *gst.Message) {
	h := g.spec.Handlers.OnLevels
	if h == nil {
		return
	}
	s := msg.GetStructure()
	if s == nil || s.Name() != "level" {
		return
	}
	v, err := s.GetValue("peak")
	if err != nil {
		return
	}
	if peaks := floatSlice(v); len(peaks) > 0 {
		g.events.dispatch(func() { h(peaks) })
	}
}

// floatSlice normalizes the boxed array the level element emits.
func floatSlice(v interface{}) []float64 {
	switch vals := v.(type) {
	case []float64:
		return vals
	case []interface{}:
		peaks := make([]float64, 0, len(vals))
		for _, x := range vals {
			if f, ok := x.(float64); ok {
				peaks = append(peaks, f)
			}
		}
		return peaks
	}
	return nil
}
