package gstmedia

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-gst/go-gst/gst"
	"github.com/go-gst/go-gst/gst/app"

	"github.com/stagecue/stagecue/internal/log"
	"github.com/stagecue/stagecue/pkg/audio"
	"github.com/stagecue/stagecue/pkg/media"
)

// levelInterval is how often the level element reports peaks.
const levelInterval = time.Second

// buildAudio creates the shared mixing tail and one decode branch per audio
// source. The tail is mixer -> caps -> (level) -> queue -> sink; the caps
// filter pins the global channel count so the mix matrices line up.
func (g *graph) buildAudio() error {
	mixer, err := g.makeElement("audiomixer", "mix")
	if err != nil {
		return err
	}

	capsfilter, err := g.makeElement("capsfilter", "outputcaps")
	if err != nil {
		return err
	}
	caps := gst.NewCapsFromString(fmt.Sprintf("audio/x-raw,channels=%d,rate=%d",
		audio.TotalChannels(g.spec.Buses), g.spec.SampleRate))
	if err := capsfilter.SetProperty("caps", caps); err != nil {
		return fmt.Errorf("gstmedia: set output caps: %w", err)
	}

	tail := []*gst.Element{mixer, capsfilter}

	if g.spec.Metering {
		level, err := g.makeElement("level", "meter")
		if err != nil {
			return err
		}
		if err := level.SetProperty("interval", uint64(levelInterval)); err != nil {
			return fmt.Errorf("gstmedia: set level interval: %w", err)
		}
		tail = append(tail, level)
	}

	queue, err := g.makeElement("queue", "outputqueue")
	if err != nil {
		return err
	}
	tail = append(tail, queue)

	sink, err := g.buildAudioSink()
	if err != nil {
		return err
	}
	tail = append(tail, sink)

	if err := gst.ElementLinkMany(tail...); err != nil {
		return fmt.Errorf("gstmedia: link mixing tail: %w", err)
	}

	for i, src := range g.spec.Audio {
		if err := g.buildAudioBranch(i, src, mixer); err != nil {
			return err
		}
	}
	return nil
}

// buildAudioSink picks alsasink for a configured device, otherwise the
// platform default.
func (g *graph) buildAudioSink() (*gst.Element, error) {
	if g.spec.Device == "" {
		return g.makeElement("autoaudiosink", "audiosink")
	}
	sink, err := g.makeElement("alsasink", "audiosink")
	if err != nil {
		return nil, err
	}
	if err := sink.SetProperty("device", g.spec.Device); err != nil {
		return nil, fmt.Errorf("gstmedia: set audio device: %w", err)
	}
	return sink, nil
}

// buildAudioBranch wires uridecodebin -> audioconvert -> audioresample into a
// requested mixer pad. The convert element carries the mix matrix that places
// the file on its output bus; the mixer pad carries the start offset.
func (g *graph) buildAudioBranch(i int, src media.AudioSource, mixer *gst.Element) error {
	decode, err := g.makeElement("uridecodebin", fmt.Sprintf("audiosrc%d", i))
	if err != nil {
		return err
	}
	if err := decode.SetProperty("uri", fileURI(src.Path)); err != nil {
		return fmt.Errorf("gstmedia: set audio uri: %w", err)
	}

	convert, err := g.makeElement("audioconvert", fmt.Sprintf("audioconvert%d", i))
	if err != nil {
		return err
	}
	bus, ok := audio.BusByName(g.spec.Buses, src.OutputBus)
	if !ok && len(g.spec.Buses) > 0 {
		bus = g.spec.Buses[0]
	}
	matrix := audio.MixMatrix(g.spec.Buses, bus, src.Channels, src.Volume, g.spec.GlobalVolume)
	convert.SetArg("mix-matrix", audio.FormatMixMatrix(matrix))

	resample, err := g.makeElement("audioresample", fmt.Sprintf("audioresample%d", i))
	if err != nil {
		return err
	}

	if err := gst.ElementLinkMany(convert, resample); err != nil {
		return fmt.Errorf("gstmedia: link audio branch %d: %w", i, err)
	}

	mixerPad := mixer.GetRequestPad("sink_%u")
	if mixerPad == nil {
		return fmt.Errorf("gstmedia: no free mixer pad for audio branch %d", i)
	}
	if src.OffsetMillis != 0 {
		mixerPad.SetOffset(src.OffsetMillis * int64(time.Millisecond))
	}
	srcPad := resample.GetStaticPad("src")
	if ret := srcPad.Link(mixerPad); ret != gst.PadLinkOK {
		return fmt.Errorf("gstmedia: link audio branch %d to mixer: %v", i, ret)
	}

	g.linkDecodedPads(decode, convert, "audio/")
	return nil
}

// buildMidiBranch wires filesrc -> midiparse -> queue -> appsink. The queue
// decouples the parser from the delivery callback; the appsink runs
// synchronized to the pipeline clock, so each event buffer is delivered at
// its own timestamp.
func (g *graph) buildMidiBranch(i int, src media.MidiSource) error {
	filesrc, err := g.makeElement("filesrc", fmt.Sprintf("midisrc%d", i))
	if err != nil {
		return err
	}
	if err := filesrc.SetProperty("location", src.Path); err != nil {
		return fmt.Errorf("gstmedia: set midi location: %w", err)
	}

	parse, err := g.makeElement("midiparse", fmt.Sprintf("midiparse%d", i))
	if err != nil {
		return err
	}

	queue, err := g.makeElement("queue", fmt.Sprintf("midiqueue%d", i))
	if err != nil {
		return err
	}

	sinkEl, err := g.makeElement("appsink", fmt.Sprintf("midisink%d", i))
	if err != nil {
		return err
	}
	if err := sinkEl.SetProperty("sync", true); err != nil {
		return fmt.Errorf("gstmedia: set midi sink sync: %w", err)
	}
	if src.OffsetMillis != 0 {
		sinkEl.GetStaticPad("sink").SetOffset(src.OffsetMillis * int64(time.Millisecond))
	}

	deliver := src.Deliver
	deliverSample := func(sample *gst.Sample) gst.FlowReturn {
		if sample == nil {
			return gst.FlowEOS
		}
		buf := sample.GetBuffer()
		if buf == nil {
			return gst.FlowOK
		}
		if m := buf.Map(gst.MapRead); m != nil {
			if deliver != nil {
				deliver(append([]byte(nil), m.Bytes()...))
			}
			buf.Unmap()
		}
		return gst.FlowOK
	}

	appSink := app.SinkFromElement(sinkEl)
	appSink.SetCallbacks(&app.SinkCallbacks{
		// Prerolled buffers matter too: after a flushing seek the first
		// event arrives as a preroll.
		NewPrerollFunc: func(s *app.Sink) gst.FlowReturn {
			return deliverSample(s.PullPreroll())
		},
		NewSampleFunc: func(s *app.Sink) gst.FlowReturn {
			return deliverSample(s.PullSample())
		},
	})

	if err := gst.ElementLinkMany(filesrc, parse, queue, sinkEl); err != nil {
		return fmt.Errorf("gstmedia: link midi branch %d: %w", i, err)
	}
	return nil
}

// buildVideoBranch adds a playbin for the file. Playbin handles its own
// decoding and sinks, including any audio track inside the video file, and
// rides the shared pipeline clock. Video has no offset support.
func (g *graph) buildVideoBranch(i int, src media.VideoSource) error {
	play, err := g.makeElement("playbin", fmt.Sprintf("video%d", i))
	if err != nil {
		return err
	}
	if err := play.SetProperty("uri", fileURI(src.Path)); err != nil {
		return fmt.Errorf("gstmedia: set video uri: %w", err)
	}
	return nil
}

// makeElement creates an element and adds it to the pipeline.
func (g *graph) makeElement(factory, name string) (*gst.Element, error) {
	el, err := gst.NewElementWithName(factory, name)
	if err != nil {
		return nil, fmt.Errorf("gstmedia: create %s: %w", factory, err)
	}
	if err := g.pipeline.Add(el); err != nil {
		return nil, fmt.Errorf("gstmedia: add %s: %w", factory, err)
	}
	return el, nil
}

// linkDecodedPads links the dynamic pads of a decodebin matching the media
// prefix to the branch head. Decodebins expose their pads only once the
// stream type is known.
func (g *graph) linkDecodedPads(decode, head *gst.Element, mediaPrefix string) {
	_, err := decode.Connect("pad-added", func(_ *gst.Element, pad *gst.Pad) {
		caps := pad.GetCurrentCaps()
		if caps == nil || caps.GetSize() == 0 {
			return
		}
		if !strings.HasPrefix(caps.GetStructureAt(0).Name(), mediaPrefix) {
			return
		}
		sinkPad := head.GetStaticPad("sink")
		if sinkPad == nil || sinkPad.IsLinked() {
			return
		}
		if ret := pad.Link(sinkPad); ret != gst.PadLinkOK {
			log.Error("link decoded pad", "element", decode.GetName(), "result", int(ret))
		}
	})
	if err != nil {
		log.Error("connect pad-added", "element", decode.GetName(), "err", err)
	}
}

// fileURI renders a local absolute path as a file URI.
func fileURI(path string) string {
	return "file://" + path
}
