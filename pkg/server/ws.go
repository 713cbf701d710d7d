package server

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	ws "github.com/gofiber/contrib/websocket"

	"github.com/voxrelay/voxrelay/pkg/protocol"
)

const (
	// sessionQueueSize bounds the per-connection backlog of unhandled
	// messages. A full queue applies backpressure to the read loop.
	sessionQueueSize = 32

	// wsWriteTimeout is the deadline for a single outbound frame.
	wsWriteTimeout = 10 * time.Second
)

// wsSender serializes writes to one session WebSocket. The relay's
// handler goroutine and the inline interrupt path both send through it.
type wsSender struct {
	mu   sync.Mutex
	conn *ws.Conn
	out  *atomic.Uint64
}

func (w *wsSender) Send(env *protocol.Envelope) error {
	data, err := env.Bytes()
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := w.conn.WriteMessage(ws.TextMessage, data); err != nil {
		return err
	}
	w.out.Add(1)
	return nil
}

// handleSession runs one session WebSocket connection. Messages are
// handled in order by a per-connection worker; interrupt and ping are
// dispatched inline from the read loop so an interrupt is never stuck
// behind the turn it is trying to cancel.
func (s *Server) handleSession(c *ws.Conn) {
	sess, created := s.relay.Sessions().GetOrCreate(c.Query("sessionId"))
	sender := &wsSender{conn: c, out: &s.messagesOut}

	logger := s.logger.With("session_id", sess.ID)
	logger.Info("client connected", "remote", c.RemoteAddr().String(), "resumed", !created)

	if err := sender.Send(protocol.NewConnected(sess.ID)); err != nil {
		logger.Warn("handshake send failed", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	queue := make(chan *protocol.Envelope, sessionQueueSize)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for env := range queue {
			sess.Lock()
			s.relay.HandleMessage(ctx, sess, env, sender)
			sess.Unlock()
		}
	}()

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			break
		}
		s.messagesIn.Add(1)

		env, err := protocol.Parse(data)
		if err != nil {
			logger.Warn("unparseable message", "error", err)
			sender.Send(protocol.NewError("Failed to process message"))
			continue
		}

		switch env.Type {
		case protocol.TypeInterrupt, protocol.TypePing:
			// Gate and keepalive state are safe to touch concurrently
			// with the worker.
			s.relay.HandleMessage(ctx, sess, env, sender)
		default:
			queue <- env
		}
	}

	close(queue)
	<-done

	// Sessions attached by id may outlive the connection; only
	// connection-scoped ones are torn down here.
	if created {
		s.relay.Sessions().Remove(sess.ID)
	}
	logger.Info("client disconnected")
}
