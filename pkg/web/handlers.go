package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/stagecue/stagecue/internal/log"
	"github.com/stagecue/stagecue/pkg/notify"
)

// transportAction runs one transport operation and answers with the fresh
// status snapshot.
func (s *Server) transportAction(c *fiber.Ctx, action func() error) error {
	if err := action(); err != nil {
		log.Error("transport request failed", "path", c.Path(), "err", err)
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(s.players.Status())
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.players.Status())
}

func (s *Server) handleListCompositions(c *fiber.Ctx) error {
	return c.JSON(s.players.Compositions())
}

func (s *Server) handleReloadCompositions(c *fiber.Ctx) error {
	return s.transportAction(c, s.players.LoadCompositions)
}

func (s *Server) handlePlay(c *fiber.Ctx) error {
	return s.transportAction(c, s.players.Play)
}

func (s *Server) handlePause(c *fiber.Ctx) error {
	return s.transportAction(c, s.players.Pause)
}

func (s *Server) handleStop(c *fiber.Ctx) error {
	return s.transportAction(c, s.players.Stop)
}

func (s *Server) handleToggle(c *fiber.Ctx) error {
	return s.transportAction(c, s.players.TogglePlay)
}

func (s *Server) handleNext(c *fiber.Ctx) error {
	return s.transportAction(c, s.players.Next)
}

func (s *Server) handlePrevious(c *fiber.Ctx) error {
	return s.transportAction(c, s.players.Previous)
}

func (s *Server) handleSeek(c *fiber.Ctx) error {
	millis := c.QueryInt("millis", -1)
	if millis < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "missing or negative millis")
	}
	return s.transportAction(c, func() error {
		return s.players.Seek(int64(millis))
	})
}

func (s *Server) handleSetComposition(c *fiber.Ctx) error {
	name := c.Query("composition")
	if name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing composition")
	}
	if s.players.CompositionByName(name) == nil {
		return fiber.NewError(fiber.StatusNotFound, "unknown composition "+name)
	}
	return s.transportAction(c, func() error {
		return s.players.SetComposition(name)
	})
}

func (s *Server) handlePlaySample(c *fiber.Ctx) error {
	name := c.Query("name")
	if name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing name")
	}
	fileType := c.Query("type", "audio")
	return s.transportAction(c, func() error {
		return s.players.PlaySample(fileType, name)
	})
}

func (s *Server) handleStopSample(c *fiber.Ctx) error {
	return s.transportAction(c, s.players.StopSample)
}

// handleUpdatesWS attaches one websocket subscriber to the notification hub
// and blocks until the connection closes.
func (s *Server) handleUpdatesWS(conn *websocket.Conn) {
	client := notify.NewClient(s.hub, conn)
	client.Run()
}
