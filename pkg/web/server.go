// Package web exposes the transport API and the update websocket.
package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/stagecue/stagecue/internal/log"
	"github.com/stagecue/stagecue/pkg/notify"
	"github.com/stagecue/stagecue/pkg/player"
)

// Server is the HTTP and websocket front of the engine.
type Server struct {
	app     *fiber.App
	port    string
	players *player.Service
	hub     *notify.Hub
}

// NewServer builds the fiber app and its routes. The hub's Run loop must be
// started by the caller.
func NewServer(port string, players *player.Service, hub *notify.Hub) *Server {
	s := &Server{
		port:    port,
		players: players,
		hub:     hub,
	}

	app := fiber.New(fiber.Config{
		AppName:               "stagecue",
		DisableStartupMessage: true,
	})

	// CORS for the remote-control frontends.
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/compositions", s.handleListCompositions)
	api.Post("/compositions/reload", s.handleReloadCompositions)

	transport := api.Group("/transport")
	transport.Post("/play", s.handlePlay)
	transport.Post("/pause", s.handlePause)
	transport.Post("/stop", s.handleStop)
	transport.Post("/toggle", s.handleToggle)
	transport.Post("/next", s.handleNext)
	transport.Post("/previous", s.handlePrevious)
	transport.Post("/seek", s.handleSeek)
	transport.Post("/set", s.handleSetComposition)

	sample := api.Group("/sample")
	sample.Post("/play", s.handlePlaySample)
	sample.Post("/stop", s.handleStopSample)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/updates", websocket.New(s.handleUpdatesWS))

	s.app = app
	return s
}

// Start serves until Shutdown. It blocks.
func (s *Server) Start() error {
	log.Info("web api listening", "port", s.port)
	return s.app.Listen(":" + s.port)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
