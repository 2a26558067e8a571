package session

// Status is the single user-visible session status.
type Status string

const (
	StatusIdle           Status = "idle"
	StatusConnected      Status = "connected-to-signaling"
	StatusSharing        Status = "sharing"
	StatusNegotiating    Status = "negotiating"
	StatusMediaConnected Status = "media-connected"
	StatusDisconnected   Status = "disconnected"
)

// Role tells which side of a room this process currently plays.
type Role string

const (
	RoleNone   Role = ""
	RoleSharer Role = "sharer"
	RoleViewer Role = "viewer"
)

// State is everything the controller needs to decide the next step.
// It is a value type; Transition never mutates its argument.
type State struct {
	Status Status
	Role   Role
	RoomID string

	RelayUp     bool
	Capturing   bool
	SessionOpen bool
	Receiving   bool

	Available int
	Rooms     []string
	LastError string
}

// Initial returns the state of a freshly started controller.
func Initial() State {
	return State{Status: StatusIdle}
}

// Active reports whether a share or view cycle is in progress.
func (s State) Active() bool {
	switch s.Status {
	case StatusSharing, StatusNegotiating, StatusMediaConnected:
		return true
	}
	return false
}

func (s State) String() string {
	if s.Role == RoleNone {
		return string(s.Status)
	}
	return string(s.Status) + " (" + string(s.Role) + ")"
}

// restingStatus is where a finished cycle lands: connected when the relay is
// still up, disconnected otherwise.
func (s State) restingStatus() Status {
	if s.RelayUp {
		return StatusConnected
	}
	return StatusDisconnected
}
