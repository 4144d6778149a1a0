// Package protocol is the connection gateway: it deserializes and validates
// inbound frames, serializes event processing, and turns machine effects
// into dispatched messages.
package protocol

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/sevenrishi/TypingAI-backend/domain"
	"github.com/sevenrishi/TypingAI-backend/race"
)

// TimeRequest and TimeResponse implement the clock-offset echo. Not
// room-scoped.
type TimeRequest struct {
	ClientSent int64 `json:"clientSent"`
}

type TimeResponse struct {
	ClientSent int64 `json:"clientSent"`
	ServerTime int64 `json:"serverTime"`
}

type Handler struct {
	machine    *race.Machine
	dispatcher domain.Dispatcher
	validate   *validator.Validate

	// mu serializes event processing across all rooms: one transition runs
	// to completion, broadcasts included, before the next begins. This is
	// the system's only exclusion mechanism; the registry and rooms rely
	// on it.
	mu sync.Mutex
}

func NewHandler(m *race.Machine, d domain.Dispatcher) *Handler {
	return &Handler{
		machine:    m,
		dispatcher: d,
		validate:   validator.New(),
	}
}

func (h *Handler) Handle(conn domain.Connection, data []byte) {
	var env domain.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		slog.Warn("invalid message", "clientId", conn.ID(), "error", err)
		return
	}

	if env.Type == "time:request" {
		h.echoTime(conn, env.Data)
		return
	}

	ev, err := h.decode(env)
	if err != nil {
		slog.Warn("rejected event", "clientId", conn.ID(), "type", env.Type, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.run(conn, h.machine.Apply(conn.ID(), ev))
}

// HandleDisconnect synthesizes a leave for every room the connection is a
// member of.
func (h *Handler) HandleDisconnect(conn domain.Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.run(conn, h.machine.Disconnect(conn.ID()))
}

func (h *Handler) decode(env domain.Envelope) (race.Event, error) {
	var ev race.Event
	switch env.Type {
	case "room:create":
		ev = &race.Create{}
	case "room:join":
		ev = &race.Join{}
	case "room:progress":
		ev = &race.Progress{}
	case "player:ready":
		ev = &race.Ready{}
	case "room:leave":
		ev = &race.Leave{}
	case "race:start":
		ev = &race.Start{}
	case "race:reset":
		ev = &race.Reset{}
	case "room:setText":
		ev = &race.SetText{}
	default:
		return nil, fmt.Errorf("unknown event type %q", env.Type)
	}

	if err := json.Unmarshal(env.Data, ev); err != nil {
		return nil, err
	}
	if err := h.validate.Struct(ev); err != nil {
		return nil, err
	}
	return ev, nil
}

func (h *Handler) run(conn domain.Connection, effects []race.Effect) {
	for _, eff := range effects {
		switch e := eff.(type) {
		case race.Subscribe:
			h.dispatcher.Subscribe(e.Room, conn)
		case race.Unsubscribe:
			h.dispatcher.Unsubscribe(e.Room, conn.ID())
		case race.Broadcast:
			if data, ok := h.encode(conn, e.Type, e.Body); ok {
				h.dispatcher.Broadcast(e.Room, data)
			}
		case race.Reply:
			if data, ok := h.encode(conn, e.Type, e.Body); ok {
				conn.Send(data)
			}
		case race.CloseRoom:
			body := race.ClosedBody{Room: e.Room, Reason: e.Reason}
			if data, ok := h.encode(conn, domain.MsgRoomClosed, body); ok {
				h.dispatcher.Drop(e.Room, data)
			}
		}
	}
}

func (h *Handler) encode(conn domain.Connection, msgType string, body any) ([]byte, bool) {
	data, err := domain.Encode(msgType, body)
	if err != nil {
		slog.Warn("marshal error", "clientId", conn.ID(), "type", msgType, "error", err)
		return nil, false
	}
	return data, true
}

func (h *Handler) echoTime(conn domain.Connection, data json.RawMessage) {
	var req TimeRequest
	if err := json.Unmarshal(data, &req); err != nil {
		slog.Warn("invalid time request", "clientId", conn.ID(), "error", err)
		return
	}
	resp := TimeResponse{ClientSent: req.ClientSent, ServerTime: time.Now().UnixMilli()}
	if out, err := domain.Encode(domain.MsgTimeResponse, resp); err == nil {
		conn.Send(out)
	}
}
