package protocol

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevenrishi/TypingAI-backend/domain"
	"github.com/sevenrishi/TypingAI-backend/hub"
	"github.com/sevenrishi/TypingAI-backend/race"
	"github.com/sevenrishi/TypingAI-backend/registry"
)

type mockConn struct {
	id   string
	sent [][]byte
	mu   sync.Mutex
}

func (m *mockConn) ID() string { return m.id }

func (m *mockConn) Send(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, data)
	return nil
}

func (m *mockConn) Close() error { return nil }

func (m *mockConn) frames(t *testing.T) []domain.Envelope {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Envelope, 0, len(m.sent))
	for _, data := range m.sent {
		var env domain.Envelope
		require.NoError(t, json.Unmarshal(data, &env))
		out = append(out, env)
	}
	return out
}

func (m *mockConn) lastOf(t *testing.T, msgType string) json.RawMessage {
	t.Helper()
	var body json.RawMessage
	for _, env := range m.frames(t) {
		if env.Type == msgType {
			body = env.Data
		}
	}
	require.NotNil(t, body, "no %s frame received by %s", msgType, m.id)
	return body
}

func newTestHandler() (*Handler, *registry.Registry) {
	reg := registry.New()
	return NewHandler(race.NewMachine(reg), hub.New()), reg
}

func send(h *Handler, conn domain.Connection, msgType, data string) {
	h.Handle(conn, []byte(fmt.Sprintf(`{"type":%q,"data":%s}`, msgType, data)))
}

func TestHandler_RejectsMalformedInput(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "not json", raw: "not json"},
		{name: "unknown event type", raw: `{"type":"room:explode","data":{"room":"R1"}}`},
		{name: "missing payload", raw: `{"type":"room:create"}`},
		{name: "missing room field", raw: `{"type":"room:create","data":{"text":"hi","name":"A"}}`},
		{name: "wrong field type", raw: `{"type":"room:progress","data":{"room":"R1","progress":"fast"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, reg := newTestHandler()
			conn := &mockConn{id: "A"}

			h.Handle(conn, []byte(tt.raw))

			assert.Empty(t, conn.frames(t), "rejected input must not produce output")
			_, ok := reg.Get("R1")
			assert.False(t, ok)
		})
	}
}

func TestHandler_CreateBroadcastsState(t *testing.T) {
	h, reg := newTestHandler()
	conn := &mockConn{id: "A"}

	send(h, conn, "room:create", `{"room":"R1","text":"hello","name":"A"}`)

	var state domain.Snapshot
	require.NoError(t, json.Unmarshal(conn.lastOf(t, domain.MsgRoomState), &state))
	assert.Equal(t, "hello", state.Text)
	assert.Equal(t, "A", state.Host)
	assert.Nil(t, state.RaceStart)

	_, ok := reg.Get("R1")
	assert.True(t, ok)
}

func TestHandler_ErrorGoesToOriginatorOnly(t *testing.T) {
	h, _ := newTestHandler()
	a := &mockConn{id: "A"}
	b := &mockConn{id: "B"}
	send(h, a, "room:create", `{"room":"R1","text":"hello","name":"A"}`)
	send(h, b, "room:join", `{"room":"R1","name":"B"}`)
	aFrames := len(a.frames(t))

	send(h, b, "race:start", `{"room":"R1"}`)

	var errBody race.ErrorBody
	require.NoError(t, json.Unmarshal(b.lastOf(t, domain.MsgRoomError), &errBody))
	assert.Equal(t, "Only host can start the race", errBody.Error)
	assert.Len(t, a.frames(t), aFrames, "host saw nothing of the rejected event")
}

func TestHandler_RaceFlow(t *testing.T) {
	h, reg := newTestHandler()
	a := &mockConn{id: "A"}
	b := &mockConn{id: "B"}

	send(h, a, "room:create", `{"room":"R1","text":"hello","name":"A"}`)
	send(h, b, "room:join", `{"room":"R1","name":"B"}`)
	send(h, a, "race:start", `{"room":"R1"}`)

	// Both members see the state push before the countdown signal.
	var sawState bool
	for _, env := range b.frames(t) {
		switch env.Type {
		case domain.MsgRoomState:
			sawState = true
		case domain.MsgRaceStart:
			require.True(t, sawState, "race:start arrived before room:state")
		}
	}

	var start race.StartBody
	require.NoError(t, json.Unmarshal(b.lastOf(t, domain.MsgRaceStart), &start))
	assert.Equal(t, "R1", start.Room)
	assert.Equal(t, "A", start.Host)
	assert.Positive(t, start.StartAt)

	send(h, b, "room:progress", `{"room":"R1","progress":1.0,"wpm":80,"accuracy":0.97}`)
	send(h, a, "room:progress", `{"room":"R1","progress":1.0,"wpm":70,"accuracy":0.95}`)

	var state domain.Snapshot
	require.NoError(t, json.Unmarshal(a.lastOf(t, domain.MsgRoomState), &state))
	assert.Equal(t, []string{"B", "A"}, state.FinishedPlayers)
	assert.Nil(t, state.RaceStart, "race over once everybody finished")

	// Host leaves with everyone finished: remaining member is told the room
	// closed and the room is gone.
	send(h, a, "room:leave", `{"room":"R1"}`)

	var closed race.ClosedBody
	require.NoError(t, json.Unmarshal(b.lastOf(t, domain.MsgRoomClosed), &closed))
	assert.Equal(t, race.ClosedBody{Room: "R1", Reason: "host-left"}, closed)

	_, ok := reg.Get("R1")
	assert.False(t, ok)
}

func TestHandler_DisconnectTransfersHost(t *testing.T) {
	h, reg := newTestHandler()
	a := &mockConn{id: "A"}
	b := &mockConn{id: "B"}
	send(h, a, "room:create", `{"room":"R1","text":"hello","name":"A"}`)
	send(h, b, "room:join", `{"room":"R1","name":"B"}`)

	h.HandleDisconnect(a)

	var host race.HostBody
	require.NoError(t, json.Unmarshal(b.lastOf(t, domain.MsgRoomHost), &host))
	assert.Equal(t, "B", host.Host)

	var state domain.Snapshot
	require.NoError(t, json.Unmarshal(b.lastOf(t, domain.MsgRoomState), &state))
	assert.Equal(t, "B", state.Host)

	room, ok := reg.Get("R1")
	require.True(t, ok)
	assert.Equal(t, "B", room.Host)
}

func TestHandler_TimeEcho(t *testing.T) {
	h, _ := newTestHandler()
	conn := &mockConn{id: "A"}

	send(h, conn, "time:request", `{"clientSent":12345}`)

	var resp TimeResponse
	require.NoError(t, json.Unmarshal(conn.lastOf(t, domain.MsgTimeResponse), &resp))
	assert.Equal(t, int64(12345), resp.ClientSent)
	assert.Positive(t, resp.ServerTime)
}

func TestHandler_LateEventAfterClose(t *testing.T) {
	h, _ := newTestHandler()
	a := &mockConn{id: "A"}
	send(h, a, "room:create", `{"room":"R1","text":"hello","name":"A"}`)
	send(h, a, "room:leave", `{"room":"R1"}`)

	send(h, a, "player:ready", `{"room":"R1","ready":true}`)

	var errBody race.ErrorBody
	require.NoError(t, json.Unmarshal(a.lastOf(t, domain.MsgRoomError), &errBody))
	assert.Equal(t, "Room not found", errBody.Error)
}
