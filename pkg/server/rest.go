package server

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/voxrelay/voxrelay/pkg/protocol"
	"github.com/voxrelay/voxrelay/pkg/session"
	"github.com/voxrelay/voxrelay/pkg/speech"
)

// chatRequest is the body of POST /api/chat.
type chatRequest struct {
	Message   string          `json:"message"`
	SessionID string          `json:"sessionId"`
	ModelID   string          `json:"modelId"`
	ModelType string          `json:"modelType"`
	Voice     json.RawMessage `json:"voice"`
}

type modelInfo struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// chatResponse folds one conversational turn into a single body.
type chatResponse struct {
	SessionID   string    `json:"sessionId"`
	Message     string    `json:"message"`
	Model       modelInfo `json:"model"`
	Audio       string    `json:"audio,omitempty"`
	AudioFormat string    `json:"audioFormat,omitempty"`
	Voice       string    `json:"voice,omitempty"`
}

// captureSender collects the envelopes a turn emits so the REST layer
// can fold them into one response. REST shares the exact message path
// WebSocket clients use.
type captureSender struct {
	envelopes []*protocol.Envelope
}

func (c *captureSender) Send(env *protocol.Envelope) error {
	c.envelopes = append(c.envelopes, env)
	return nil
}

func (c *captureSender) first(t protocol.MessageType) *protocol.Envelope {
	for _, env := range c.envelopes {
		if env.Type == t {
			return env
		}
	}
	return nil
}

// handleChat runs one full turn over REST. The session persists across
// requests when the caller echoes back the returned sessionId.
func (s *Server) handleChat(c *fiber.Ctx) error {
	var req chatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if strings.TrimSpace(req.Message) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Message is required",
		})
	}

	sess, _ := s.relay.Sessions().GetOrCreate(req.SessionID)
	sess.Lock()
	defer sess.Unlock()

	if req.ModelID != "" || req.ModelType != "" || len(req.Voice) > 0 {
		if len(req.Voice) > 0 {
			// A per-request voice means the caller wants audio back.
			sess.AudioEnabled = true
		}
		cfg := &captureSender{}
		s.relay.HandleMessage(c.UserContext(), sess, &protocol.Envelope{
			Type:      protocol.TypeConfig,
			ModelID:   req.ModelID,
			ModelType: req.ModelType,
			Voice:     req.Voice,
		}, cfg)
		if errEnv := cfg.first(protocol.TypeError); errEnv != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": errEnv.Error,
			})
		}
	}

	capture := &captureSender{}
	s.relay.HandleMessage(c.UserContext(), sess, &protocol.Envelope{
		Type:    protocol.TypeChat,
		Message: req.Message,
	}, capture)

	if errEnv := capture.first(protocol.TypeError); errEnv != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": errEnv.Error,
		})
	}
	bot := capture.first(protocol.TypeBotMessage)
	if bot == nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "No response generated",
		})
	}

	resp := chatResponse{
		SessionID: sess.ID,
		Message:   bot.Text,
		Model: modelInfo{
			ID:   sess.Model.ModelID,
			Type: string(sess.Model.Backend),
		},
	}
	if audioEnv := capture.first(protocol.TypeAudioMessage); audioEnv != nil {
		resp.Audio = audioEnv.Audio
		resp.AudioFormat = audioEnv.Format
		if v, err := protocol.ParseVoice(audioEnv.Voice); err == nil {
			resp.Voice = v.Name
		}
	}
	return c.JSON(resp)
}

// handleHealth reports liveness and traffic counters. It never mutates
// the session registry.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	resp := fiber.Map{
		"status":   "ok",
		"sessions": s.relay.Sessions().Len(),
		"uptime":   time.Since(s.started).Round(time.Second).String(),
		"messages": fiber.Map{
			"received": s.messagesIn.Load(),
			"sent":     s.messagesOut.Load(),
		},
	}
	if s.monitor != nil {
		resp["monitor"] = s.monitor.Stats()
	}
	return c.JSON(resp)
}

// handleVoices lists available synthesis voices, optionally filtered by
// ?languageCode=.
func (s *Server) handleVoices(c *fiber.Ctx) error {
	if s.synthesizer == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Speech synthesis is not configured",
		})
	}

	voices, err := s.synthesizer.Voices(c.UserContext(), c.Query("languageCode"))
	if err != nil {
		s.logger.Error("voice listing failed", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Failed to list voices",
		})
	}
	return c.JSON(fiber.Map{
		"voices": voices,
		"count":  len(voices),
	})
}

// previewRequest is the body of POST /api/voices/preview.
type previewRequest struct {
	Text  string          `json:"text"`
	Voice json.RawMessage `json:"voice"`
}

// handleVoicePreview synthesizes a short sample without touching any
// session.
func (s *Server) handleVoicePreview(c *fiber.Ctx) error {
	if s.synthesizer == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Speech synthesis is not configured",
		})
	}

	var req previewRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if strings.TrimSpace(req.Text) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Text is required",
		})
	}

	voiceIn, err := protocol.ParseVoice(req.Voice)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid voice configuration",
		})
	}
	voice := session.ResolveVoice(voiceIn, s.defaultVoice)

	audioBytes, err := s.synthesizer.Synthesize(c.UserContext(), req.Text, speech.Voice{
		LanguageCode: voice.LanguageCode,
		Name:         voice.Name,
		Gender:       voice.Gender,
	})
	if err != nil {
		s.logger.Error("preview synthesis failed", "voice", voice.Name, "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Synthesis failed",
		})
	}

	return c.JSON(fiber.Map{
		"audio":  base64.StdEncoding.EncodeToString(audioBytes),
		"format": "mp3",
		"voice":  voice.Name,
	})
}
