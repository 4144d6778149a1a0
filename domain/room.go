package domain

import "github.com/samber/lo"

// DefaultPlayerName is used when a player joins without a name.
const DefaultPlayerName = "Anon"

// PlayerState is one member's race state. Progress, wpm and accuracy are
// client-reported and not validated.
type PlayerState struct {
	Name     string  `json:"name"`
	Progress float64 `json:"progress"`
	WPM      float64 `json:"wpm"`
	Accuracy float64 `json:"accuracy"`
	Ready    bool    `json:"ready"`
	Finished bool    `json:"finished"`
}

// Room is one ephemeral race session. It lives only in the Registry and is
// mutated by exactly one event transition at a time.
type Room struct {
	Text    string
	Players map[string]*PlayerState
	// Order holds member identities in join order; the earliest remaining
	// member inherits the host role.
	Order []string
	// Host is empty only transiently while a transition runs; the Registry
	// never holds a hostless room between events.
	Host string
	// RaceStart is the scheduled start in epoch milliseconds, 0 when no race
	// is scheduled or in progress.
	RaceStart int64
	// Finished records identities in finish order, each at most once.
	Finished []string
}

func NewRoom(text string) *Room {
	return &Room{
		Text:    text,
		Players: make(map[string]*PlayerState),
	}
}

// AddPlayer inserts a fresh player entry. A rejoining identity keeps its
// original position in the join order.
func (r *Room) AddPlayer(id, name string) {
	if name == "" {
		name = DefaultPlayerName
	}
	if _, ok := r.Players[id]; !ok {
		r.Order = append(r.Order, id)
	}
	r.Players[id] = &PlayerState{Name: name}
}

// RemovePlayer deletes the identity from the member set, the join order and
// the finish order.
func (r *Room) RemovePlayer(id string) {
	delete(r.Players, id)
	r.Order = lo.Filter(r.Order, func(member string, _ int) bool { return member != id })
	r.DropFinisher(id)
}

// DropFinisher removes the identity from the finish order only.
func (r *Room) DropFinisher(id string) {
	r.Finished = lo.Filter(r.Finished, func(member string, _ int) bool { return member != id })
}

// NextHost returns the earliest remaining member, or "" for an empty room.
func (r *Room) NextHost() string {
	if len(r.Order) == 0 {
		return ""
	}
	return r.Order[0]
}

// AllFinished reports whether every current player has finished.
func (r *Room) AllFinished() bool {
	return len(r.Players) > 0 && lo.EveryBy(lo.Values(r.Players), func(p *PlayerState) bool {
		return p.Finished
	})
}

// Snapshot is the canonical full-state shape broadcast to room members.
type Snapshot struct {
	Text            string                  `json:"text"`
	Players         map[string]*PlayerState `json:"players"`
	Host            string                  `json:"host,omitempty"`
	RaceStart       *int64                  `json:"raceStart"`
	FinishedPlayers []string                `json:"finishedPlayers"`
}

// Snapshot builds the broadcast view of the room. RaceStart marshals as null
// when no race is scheduled and FinishedPlayers is always an array.
func (r *Room) Snapshot() Snapshot {
	s := Snapshot{
		Text:            r.Text,
		Players:         r.Players,
		Host:            r.Host,
		FinishedPlayers: r.Finished,
	}
	if r.RaceStart != 0 {
		start := r.RaceStart
		s.RaceStart = &start
	}
	if s.FinishedPlayers == nil {
		s.FinishedPlayers = []string{}
	}
	return s
}
