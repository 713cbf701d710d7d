// Package server exposes the relay over HTTP: the session WebSocket,
// a stateless REST surface, and the monitor WebSocket. All transports
// funnel into the same relay state machine.
package server

import (
	"crypto/subtle"
	"log/slog"
	"sync/atomic"
	"time"

	ws "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	monitorws "github.com/gofiber/websocket/v2"

	"github.com/voxrelay/voxrelay/pkg/hub"
	"github.com/voxrelay/voxrelay/pkg/relay"
	"github.com/voxrelay/voxrelay/pkg/session"
	"github.com/voxrelay/voxrelay/pkg/speech"
)

// Server is the HTTP/WebSocket front end for the relay.
type Server struct {
	app          *fiber.App
	relay        *relay.Relay
	monitor      *hub.Hub
	synthesizer  speech.Synthesizer
	presharedKey string
	defaultVoice session.VoiceSelector
	logger       *slog.Logger
	started      time.Time

	messagesIn  atomic.Uint64
	messagesOut atomic.Uint64
}

// Options configures a Server.
type Options struct {
	// Relay handles all conversational traffic.
	Relay *relay.Relay

	// Monitor serves the read-only monitoring WebSocket. May be nil, in
	// which case /ws/monitor connections are refused.
	Monitor *hub.Hub

	// Synthesizer backs the voice listing and preview endpoints. May be
	// nil when speech output is not configured.
	Synthesizer speech.Synthesizer

	// PresharedKey authenticates every inbound request. Empty disables
	// authentication.
	PresharedKey string

	// DefaultVoice is the voice used for previews when the request
	// names none.
	DefaultVoice string
}

// New creates a Server with all routes registered.
func New(opts Options) *Server {
	app := fiber.New(fiber.Config{
		AppName:               "voxrelay",
		DisableStartupMessage: true,
	})

	s := &Server{
		app:          app,
		relay:        opts.Relay,
		monitor:      opts.Monitor,
		synthesizer:  opts.Synthesizer,
		presharedKey: opts.PresharedKey,
		defaultVoice: session.DefaultVoice(opts.DefaultVoice),
		logger:       slog.Default().With("component", "server"),
		started:      time.Now(),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.app.Use(recover.New())
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type,X-API-Key",
	}))
	s.app.Use(s.requireKey)

	s.app.Use("/ws", func(c *fiber.Ctx) error {
		if ws.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	s.app.Get("/ws", ws.New(s.handleSession))
	s.app.Get("/ws/monitor", monitorws.New(s.handleMonitor))

	api := s.app.Group("/api")
	api.Post("/chat", s.handleChat)
	api.Get("/health", s.handleHealth)
	api.Get("/voices", s.handleVoices)
	api.Post("/voices/preview", s.handleVoicePreview)
}

// requireKey enforces the pre-shared key. Browser WebSocket clients
// cannot set headers on the dial, so the key is also accepted as a
// query parameter.
func (s *Server) requireKey(c *fiber.Ctx) error {
	if s.presharedKey == "" {
		return c.Next()
	}

	key := c.Get("X-API-Key")
	if key == "" {
		key = c.Query("key")
	}
	if subtle.ConstantTimeCompare([]byte(key), []byte(s.presharedKey)) != 1 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid or missing API key",
		})
	}
	return c.Next()
}

// handleMonitor attaches a monitoring client to the event hub.
func (s *Server) handleMonitor(c *monitorws.Conn) {
	if s.monitor == nil {
		c.Close()
		return
	}
	hub.NewClient(s.monitor, c).Run()
}

// App returns the underlying fiber application, primarily for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen starts serving on the given address and blocks.
func (s *Server) Listen(addr string) error {
	s.logger.Info("listening", "addr", addr)
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
