package race

// Event is a closed set of inbound protocol events. Each variant carries the
// required-field tags checked at the gateway boundary before it reaches the
// machine.
type Event interface {
	isEvent()
}

// Create replaces or inserts a room with the originator as sole member and
// host.
type Create struct {
	Room string `json:"room" validate:"required"`
	Text string `json:"text"`
	Name string `json:"name"`
}

// Join adds the originator to an open room.
type Join struct {
	Room string `json:"room" validate:"required"`
	Name string `json:"name"`
}

// Progress reports the originator's typing progress. Values are taken as
// sent: no range or monotonicity checks.
type Progress struct {
	Room     string  `json:"room" validate:"required"`
	Progress float64 `json:"progress"`
	WPM      float64 `json:"wpm"`
	Accuracy float64 `json:"accuracy"`
}

// Ready toggles the originator's ready flag.
type Ready struct {
	Room  string `json:"room" validate:"required"`
	Ready bool   `json:"ready"`
}

// Leave removes the originator from the room.
type Leave struct {
	Room string `json:"room" validate:"required"`
}

// Start schedules a race countdown. Host only.
type Start struct {
	Room string `json:"room" validate:"required"`
}

// Reset clears only the originator's own race state.
type Reset struct {
	Room string `json:"room" validate:"required"`
}

// SetText replaces the race script. Host only.
type SetText struct {
	Room string `json:"room" validate:"required"`
	Text string `json:"text"`
}

func (Create) isEvent()   {}
func (Join) isEvent()     {}
func (Progress) isEvent() {}
func (Ready) isEvent()    {}
func (Leave) isEvent()    {}
func (Start) isEvent()    {}
func (Reset) isEvent()    {}
func (SetText) isEvent()  {}
