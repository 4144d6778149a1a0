package domain

import "encoding/json"

// Outbound message names.
const (
	MsgRoomState    = "room:state"
	MsgRoomError    = "room:error"
	MsgRoomHost     = "room:host"
	MsgRaceStart    = "race:start"
	MsgRoomClosed   = "room:closed"
	MsgTimeResponse = "time:response"
)

// Envelope is the wire frame for every message, in both directions.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Encode wraps a message body in an Envelope and marshals it.
func Encode(msgType string, body any) ([]byte, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: msgType, Data: raw})
}

// Connection is one live transport link. The identity is opaque and stable
// for the lifetime of the connection; it doubles as the player key.
type Connection interface {
	ID() string
	Send(data []byte) error
	Close() error
}

// Dispatcher maintains per-room subscriber sets and delivers messages to
// them. Delivery is fire-and-forget.
type Dispatcher interface {
	Subscribe(room string, conn Connection)
	Unsubscribe(room, connID string)
	Broadcast(room string, data []byte)
	// Drop delivers a final message to every subscriber, then removes the
	// room's channel entirely.
	Drop(room string, data []byte)
	Stats() (rooms, clients int)
}

// MessageHandler consumes inbound frames and disconnection signals from the
// transport layer.
type MessageHandler interface {
	Handle(conn Connection, data []byte)
	HandleDisconnect(conn Connection)
}
