package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/deylin/studio/internal/engine"
	"github.com/deylin/studio/internal/session"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	maxMsgSize = 64 * 1024
)

// Message is the websocket envelope in both directions.
type Message struct {
	Type     string          `json:"type"`
	ClientID string          `json:"clientId,omitempty"`
	Seq      int64           `json:"seq,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

const (
	TypeWelcome = "welcome"
	TypeGesture = "gesture"
	TypeAck     = "ack"
	TypeRender  = "render"
	TypeError   = "error"
)

type RenderPayload struct {
	Version  uint64               `json:"version"`
	Selected string               `json:"selected,omitempty"`
	Commands []engine.DrawCommand `json:"commands"`
}

type AckPayload struct {
	Changed bool `json:"changed"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}

// Stream upgrades to a websocket that accepts gesture steps and pushes the
// re-rendered scene after every change.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request, s *session.Session) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.origins})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	c := &client{
		handler:  h,
		session:  s,
		conn:     conn,
		clientID: uuid.NewString(),
	}
	updates, unsubscribe := s.Subscribe(c.clientID)
	defer unsubscribe()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	c.conn.SetReadLimit(maxMsgSize)
	c.direct(ctx, Message{Type: TypeWelcome, ClientID: c.clientID})
	c.direct(ctx, renderMessage(s))

	go func() {
		c.writePump(ctx, updates)
		cancel()
	}()
	c.readPump(ctx)
}

type client struct {
	handler  *Handler
	session  *session.Session
	conn     *websocket.Conn
	clientID string
}

func (c *client) readPump(ctx context.Context) {
	defer c.conn.Close(websocket.StatusNormalClosure, "")

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			if status := websocket.CloseStatus(err); status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
				slog.Debug("read error", "error", err, "client", c.clientID)
			}
			// Commit a gesture the client abandoned mid-way.
			c.session.Engine.Controller().Flush()
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Warn("invalid message", "error", err, "client", c.clientID)
			c.sendError(ctx, 0, "invalid message")
			continue
		}
		c.handle(ctx, msg)
	}
}

func (c *client) handle(ctx context.Context, msg Message) {
	if msg.Type != TypeGesture {
		c.sendError(ctx, msg.Seq, "unknown message type "+msg.Type)
		return
	}

	var g engine.Gesture
	if err := json.Unmarshal(msg.Payload, &g); err != nil {
		c.sendError(ctx, msg.Seq, "invalid gesture payload")
		return
	}
	changed, err := c.session.Engine.ApplyGesture(g)
	if err != nil {
		c.sendError(ctx, msg.Seq, err.Error())
		return
	}

	ack, _ := json.Marshal(AckPayload{Changed: changed})
	c.direct(ctx, Message{Type: TypeAck, Seq: msg.Seq, Payload: ack})
	if changed || g.Type == engine.GestureEnd {
		c.handler.publish(c.session)
	}
}

func (c *client) writePump(ctx context.Context, updates <-chan []byte) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case data, ok := <-updates:
			if !ok {
				c.conn.Close(websocket.StatusGoingAway, "session closed")
				return
			}
			if err := c.write(ctx, data); err != nil {
				slog.Debug("write error", "error", err, "client", c.clientID)
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

func (c *client) write(ctx context.Context, data []byte) error {
	writeCtx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()
	return c.conn.Write(writeCtx, websocket.MessageText, data)
}

// direct writes msg to this client only.
func (c *client) direct(ctx context.Context, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("marshal message", "error", err)
		return
	}
	if err := c.write(ctx, data); err != nil {
		slog.Debug("write error", "error", err, "client", c.clientID)
	}
}

func (c *client) sendError(ctx context.Context, seq int64, text string) {
	payload, _ := json.Marshal(ErrorPayload{Error: text})
	c.direct(ctx, Message{Type: TypeError, Seq: seq, Payload: payload})
}

func renderMessage(s *session.Session) Message {
	payload, err := json.Marshal(RenderPayload{
		Version:  s.Engine.Store().Version(),
		Selected: s.Engine.Store().SelectedID(),
		Commands: s.Engine.Render(),
	})
	if err != nil {
		slog.Error("marshal render", "error", err)
	}
	return Message{Type: TypeRender, Payload: payload}
}

// publish pushes the current render to every websocket on the session.
func (h *Handler) publish(s *session.Session) {
	if s.Subscribers() == 0 {
		return
	}
	data, err := json.Marshal(renderMessage(s))
	if err != nil {
		slog.Error("marshal render message", "error", err)
		return
	}
	s.Broadcast(data)
}
