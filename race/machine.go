// Package race holds the room state machine: a transition per inbound event,
// applied under the gateway's single-flight discipline, yielding effects for
// the dispatcher.
package race

import (
	"time"

	"github.com/sevenrishi/TypingAI-backend/domain"
	"github.com/sevenrishi/TypingAI-backend/registry"
)

// Countdown is how far in the future a race start is scheduled. The server
// never arms a timer: the instant is handed to clients as-is.
const Countdown = 5000 * time.Millisecond

const (
	errRoomNotFound       = "Room not found"
	errRaceAlreadyStarted = "Race already started. Please wait for the next round."
	errStartNotHost       = "Only host can start the race"
	errSetTextNotHost     = "Only host can set the script"
)

type Machine struct {
	registry *registry.Registry
	now      func() time.Time
}

func NewMachine(reg *registry.Registry) *Machine {
	return &Machine{registry: reg, now: time.Now}
}

// Apply runs one event against the registry and returns the outbound
// effects. Errors are effects too: a Reply to the originator, with no
// mutation and no broadcast.
func (m *Machine) Apply(origin string, ev Event) []Effect {
	switch e := ev.(type) {
	case *Create:
		return m.create(origin, e)
	case *Join:
		return m.join(origin, e)
	case *Progress:
		return m.progress(origin, e)
	case *Ready:
		return m.ready(origin, e)
	case *Leave:
		room, ok := m.registry.Get(e.Room)
		if !ok {
			return errorTo(errRoomNotFound)
		}
		return m.leaveRoom(origin, e.Room, room)
	case *Start:
		return m.start(origin, e)
	case *Reset:
		return m.reset(origin, e)
	case *SetText:
		return m.setText(origin, e)
	}
	return nil
}

// Disconnect synthesizes a leave for every room the identity is a member of.
func (m *Machine) Disconnect(origin string) []Effect {
	var effects []Effect
	for _, id := range m.registry.RoomsWithMember(origin) {
		room, ok := m.registry.Get(id)
		if !ok {
			continue
		}
		effects = append(effects, m.leaveRoom(origin, id, room)...)
	}
	return effects
}

func (m *Machine) create(origin string, e *Create) []Effect {
	room := domain.NewRoom(e.Text)
	room.AddPlayer(origin, e.Name)
	room.Host = origin
	m.registry.Create(e.Room, room)
	return []Effect{Subscribe{Room: e.Room}, stateOf(e.Room, room)}
}

func (m *Machine) join(origin string, e *Join) []Effect {
	room, ok := m.registry.Get(e.Room)
	if !ok {
		return errorTo(errRoomNotFound)
	}
	if room.RaceStart != 0 {
		return errorTo(errRaceAlreadyStarted)
	}
	room.AddPlayer(origin, e.Name)
	return []Effect{Subscribe{Room: e.Room}, stateOf(e.Room, room)}
}

func (m *Machine) progress(origin string, e *Progress) []Effect {
	room, ok := m.registry.Get(e.Room)
	if !ok {
		return errorTo(errRoomNotFound)
	}
	p, ok := room.Players[origin]
	if !ok {
		return nil
	}
	p.Progress = e.Progress
	p.WPM = e.WPM
	p.Accuracy = e.Accuracy
	if e.Progress >= 1.0 && !p.Finished {
		p.Finished = true
		room.DropFinisher(origin)
		room.Finished = append(room.Finished, origin)
	}
	if room.AllFinished() {
		room.RaceStart = 0
	}
	return []Effect{stateOf(e.Room, room)}
}

func (m *Machine) ready(origin string, e *Ready) []Effect {
	room, ok := m.registry.Get(e.Room)
	if !ok {
		return errorTo(errRoomNotFound)
	}
	if p, ok := room.Players[origin]; ok {
		p.Ready = e.Ready
	}
	return []Effect{stateOf(e.Room, room)}
}

// leaveRoom covers both the explicit leave event and the synthesized
// disconnect. The originator is always detached first so a close
// notification only reaches the remaining members.
func (m *Machine) leaveRoom(origin, roomID string, room *domain.Room) []Effect {
	wasHost := room.Host == origin
	room.RemovePlayer(origin)

	effects := []Effect{Unsubscribe{Room: roomID}}
	switch {
	case len(room.Players) == 0:
		m.registry.Delete(roomID)
		return append(effects, CloseRoom{Room: roomID, Reason: ReasonEmpty})
	case wasHost && room.AllFinished():
		m.registry.Delete(roomID)
		return append(effects, CloseRoom{Room: roomID, Reason: ReasonHostLeft})
	case wasHost:
		room.Host = room.NextHost()
		effects = append(effects, Broadcast{Room: roomID, Type: domain.MsgRoomHost, Body: HostBody{Host: room.Host}})
	}
	return append(effects, stateOf(roomID, room))
}

func (m *Machine) start(origin string, e *Start) []Effect {
	room, ok := m.registry.Get(e.Room)
	if !ok {
		return errorTo(errRoomNotFound)
	}
	if room.Host != origin {
		return errorTo(errStartNotHost)
	}
	startAt := m.now().Add(Countdown).UnixMilli()
	room.RaceStart = startAt
	room.Finished = nil
	for _, p := range room.Players {
		p.Finished = false
	}
	// State first so clients hold the script before the countdown signal.
	return []Effect{
		stateOf(e.Room, room),
		Broadcast{Room: e.Room, Type: domain.MsgRaceStart, Body: StartBody{Room: e.Room, StartAt: startAt, Host: room.Host}},
	}
}

func (m *Machine) reset(origin string, e *Reset) []Effect {
	room, ok := m.registry.Get(e.Room)
	if !ok {
		return errorTo(errRoomNotFound)
	}
	if p, ok := room.Players[origin]; ok {
		*p = domain.PlayerState{Name: p.Name}
	}
	room.DropFinisher(origin)
	return []Effect{stateOf(e.Room, room)}
}

func (m *Machine) setText(origin string, e *SetText) []Effect {
	room, ok := m.registry.Get(e.Room)
	if !ok {
		return errorTo(errRoomNotFound)
	}
	if room.Host != origin {
		return errorTo(errSetTextNotHost)
	}
	room.Text = e.Text
	return []Effect{stateOf(e.Room, room)}
}

func stateOf(roomID string, room *domain.Room) Effect {
	return Broadcast{Room: roomID, Type: domain.MsgRoomState, Body: room.Snapshot()}
}

func errorTo(msg string) []Effect {
	return []Effect{Reply{Type: domain.MsgRoomError, Body: ErrorBody{Error: msg}}}
}
