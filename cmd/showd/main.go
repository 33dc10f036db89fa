// showd is the stagecue playback daemon. It loads the settings snapshot and
// the composition list, wires the MIDI and lighting collaborators and serves
// the transport API.
package main

import (
	"flag"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"

	"github.com/stagecue/stagecue/internal/caps"
	"github.com/stagecue/stagecue/internal/config"
	"github.com/stagecue/stagecue/internal/log"
	"github.com/stagecue/stagecue/pkg/designer"
	"github.com/stagecue/stagecue/pkg/lighting"
	"github.com/stagecue/stagecue/pkg/midi"
	"github.com/stagecue/stagecue/pkg/midi/midiout"
	"github.com/stagecue/stagecue/pkg/notify"
	"github.com/stagecue/stagecue/pkg/player"
	"github.com/stagecue/stagecue/pkg/web"

	// Registers the GStreamer engine.
	_ "github.com/stagecue/stagecue/pkg/media/gstmedia"
)

func main() {
	settingsPath := flag.String("settings", "settings.yaml", "path to the settings file")
	flag.Parse()

	settings, err := config.Load(*settingsPath)
	if err != nil {
		stdlog.Fatalf("load settings: %v", err)
	}
	log.Init(settings.LogLevel)

	capabilities := caps.Detect()
	if !capabilities.Gstreamer {
		log.Warn("gstreamer not found, media playback disabled")
	}

	hub := notify.NewHub("updates")
	go hub.Run()
	notifier := notify.NewService(hub)

	var deviceOut midi.DeviceOut
	if settings.MidiOutDevice != "" {
		port, err := midiout.Open(settings.MidiOutDevice)
		if err != nil {
			log.Warn("midi output unavailable", "device", settings.MidiOutDevice, "err", err)
		} else {
			defer port.Close()
			deviceOut = port
			log.Info("midi output connected", "device", settings.MidiOutDevice)
		}
	}

	var lightingSink midi.LightingSink
	if settings.LightingTarget != "" {
		sender, err := lighting.DialArtNet(settings.LightingTarget, 0)
		if err != nil {
			log.Warn("lighting unavailable", "target", settings.LightingTarget, "err", err)
		} else {
			defer sender.Close()
			lightingSink = lighting.NewConverter(sender)
			log.Info("lighting connected", "target", settings.LightingTarget)
		}
	}

	designerSvc := designer.NewService()
	if err := designerSvc.LoadProjects(settings.DesignerDir()); err != nil {
		log.Error("load designer projects", "err", err)
	}

	players := player.NewService(player.Deps{
		Settings:  settings,
		Caps:      capabilities,
		Notifier:  notifier,
		Designer:  designerSvc,
		DeviceOut: deviceOut,
		Lighting:  lightingSink,
	})
	if err := players.LoadCompositions(); err != nil {
		stdlog.Fatalf("load compositions: %v", err)
	}
	if err := players.PlayDefaultComposition(); err != nil {
		log.Error("start default composition", "err", err)
	}

	srv := web.NewServer(settings.WebPort, players, hub)
	go func() {
		if err := srv.Start(); err != nil {
			stdlog.Fatalf("web server: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info("shutting down")
	players.Close()
	if err := srv.Shutdown(); err != nil {
		log.Error("shutdown web server", "err", err)
	}
}
