package relay

import "time"

// Room pairs one sharer with at most one viewer.
type Room struct {
	ID      string
	Sharer  *Client
	Viewer  *Client
	Created time.Time
}

// other returns the party of the room that is not c.
func (r *Room) other(c *Client) *Client {
	switch c {
	case r.Sharer:
		return r.Viewer
	case r.Viewer:
		return r.Sharer
	}
	return nil
}

// RoomInfo is the public description of a room.
type RoomInfo struct {
	ID        string    `json:"id"`
	HasViewer bool      `json:"hasViewer"`
	Created   time.Time `json:"created"`
}
