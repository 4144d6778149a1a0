package race

// Room close reasons.
const (
	ReasonEmpty    = "empty"
	ReasonHostLeft = "host-left"
)

// Effect is an outbound consequence of a transition. The machine never
// touches the transport: the gateway interprets effects against the
// dispatcher and the originating connection.
type Effect interface {
	isEffect()
}

// Subscribe attaches the originator to the room's broadcast channel.
type Subscribe struct {
	Room string
}

// Unsubscribe detaches the originator from the room's broadcast channel.
type Unsubscribe struct {
	Room string
}

// Broadcast delivers a message to every subscriber of the room.
type Broadcast struct {
	Room string
	Type string
	Body any
}

// Reply delivers a message to the originator only. Used exclusively for
// errors.
type Reply struct {
	Type string
	Body any
}

// CloseRoom notifies all remaining subscribers that the room closed and
// detaches them.
type CloseRoom struct {
	Room   string
	Reason string
}

func (Subscribe) isEffect()   {}
func (Unsubscribe) isEffect() {}
func (Broadcast) isEffect()   {}
func (Reply) isEffect()       {}
func (CloseRoom) isEffect()   {}

// ErrorBody is the payload of a room:error message.
type ErrorBody struct {
	Error string `json:"error"`
}

// HostBody is the payload of a room:host message.
type HostBody struct {
	Host string `json:"host"`
}

// StartBody is the payload of an outbound race:start message.
type StartBody struct {
	Room    string `json:"room"`
	StartAt int64  `json:"startAt"`
	Host    string `json:"host"`
}

// ClosedBody is the payload of a room:closed message.
type ClosedBody struct {
	Room   string `json:"room"`
	Reason string `json:"reason"`
}
