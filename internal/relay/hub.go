package relay

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/saiful3278/Screenshare-fronted/internal/signaling"
)

// Hub is the central brain of the relay. A single goroutine (Run) owns every
// room and client; everything else talks to it through channels.
type Hub struct {
	rooms   map[string]*Room
	clients map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	inbound    chan *Message
	queries    chan func()
	done       chan struct{}

	log zerolog.Logger
}

// NewHub creates a new Hub instance.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		rooms:      make(map[string]*Room),
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan *Message),
		queries:    make(chan func()),
		done:       make(chan struct{}),
		log:        log.With().Str("module", "relay.hub").Logger(),
	}
}

// Run processes hub traffic until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				close(c.Send)
			}
			h.clients = map[*Client]struct{}{}
			h.rooms = map[string]*Room{}
			return

		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.log.Info().Str("client", c.ID).Str("addr", c.Conn.RemoteAddr().String()).Msg("client registered")

		case c := <-h.unregister:
			if _, ok := h.clients[c]; !ok {
				continue
			}
			h.log.Info().Str("client", c.ID).Msg("client unregistered")
			changed := h.leave(c)
			delete(h.clients, c)
			close(c.Send)
			if changed {
				h.broadcastAvailability()
			}

		case msg := <-h.inbound:
			if _, ok := h.clients[msg.client]; !ok {
				continue
			}
			h.handle(msg)

		case q := <-h.queries:
			q()
		}
	}
}

// Rooms returns a snapshot of every open room, oldest first.
func (h *Hub) Rooms(ctx context.Context) ([]RoomInfo, error) {
	result := make(chan []RoomInfo, 1)
	query := func() {
		infos := make([]RoomInfo, 0, len(h.rooms))
		for _, r := range h.rooms {
			infos = append(infos, RoomInfo{ID: r.ID, HasViewer: r.Viewer != nil, Created: r.Created})
		}
		sort.Slice(infos, func(i, j int) bool {
			if infos[i].Created.Equal(infos[j].Created) {
				return infos[i].ID < infos[j].ID
			}
			return infos[i].Created.Before(infos[j].Created)
		})
		result <- infos
	}

	select {
	case h.queries <- query:
	case <-h.done:
		return nil, fmt.Errorf("hub stopped")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return <-result, nil
}

func (h *Hub) handle(msg *Message) {
	c := msg.client
	log := h.log.With().Str("client", c.ID).Str("type", msg.Type).Logger()
	log.Debug().Str("room", c.RoomID).Msg("message received")

	switch msg.Type {

	case signaling.EventStartShare:
		h.leave(c)
		room := &Room{ID: h.generateRoomID(), Sharer: c, Created: time.Now()}
		h.rooms[room.ID] = room
		c.RoomID = room.ID
		log.Info().Str("room", room.ID).Msg("room created")

		h.deliver(c, newMessage(signaling.EventRoomCreated, signaling.RoomPayload{RoomID: room.ID}))
		h.broadcastAvailability()

	case signaling.EventStopShare:
		room, ok := h.rooms[c.RoomID]
		if !ok || room.Sharer != c {
			return
		}
		h.closeRoom(room)
		h.broadcastAvailability()

	case signaling.EventJoinView:
		var p signaling.RoomPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil || p.RoomID == "" {
			h.deliver(c, errorMessage("Invalid room id"))
			return
		}

		room, ok := h.rooms[p.RoomID]
		switch {
		case !ok:
			log.Info().Str("room", p.RoomID).Msg("join failed: room not found")
			h.deliver(c, errorMessage("Room not found"))
			return
		case room.Sharer == c:
			h.deliver(c, errorMessage("Cannot view your own room"))
			return
		case room.Viewer == c:
			return
		case room.Viewer != nil:
			log.Info().Str("room", p.RoomID).Msg("join failed: room is full")
			h.deliver(c, errorMessage("Room is full"))
			return
		}

		h.leave(c)
		room.Viewer = c
		c.RoomID = room.ID
		log.Info().Str("room", room.ID).Msg("viewer joined")

		h.deliver(room.Sharer, newMessage(signaling.EventViewerJoined, nil))
		h.broadcastAvailability()

	case signaling.EventLeaveView:
		room, ok := h.rooms[c.RoomID]
		if !ok || room.Viewer != c {
			return
		}
		h.leave(c)
		h.broadcastAvailability()

	case signaling.EventOffer, signaling.EventAnswer, signaling.EventICECandidate:
		room, ok := h.rooms[c.RoomID]
		if !ok {
			log.Info().Msg("signal failed: not in a room")
			h.deliver(c, errorMessage("You must join a room first"))
			return
		}
		target := room.other(c)
		if target == nil {
			log.Debug().Str("room", room.ID).Msg("signal dropped: no other peer")
			return
		}
		h.deliver(target, &Message{Type: msg.Type, Payload: msg.Payload})

	case signaling.EventGetAvailable:
		h.deliver(c, h.availableCount())

	case signaling.EventGetRooms:
		h.deliver(c, h.availableRooms())

	default:
		log.Warn().Msg("unknown message type")
	}
}

// leave removes c from whatever room it is in and notifies the other party.
// It reports whether room availability changed.
func (h *Hub) leave(c *Client) bool {
	room, ok := h.rooms[c.RoomID]
	c.RoomID = ""
	if !ok {
		return false
	}

	switch c {
	case room.Sharer:
		room.Sharer = nil
		h.closeRoom(room)
	case room.Viewer:
		room.Viewer = nil
		h.log.Info().Str("room", room.ID).Str("client", c.ID).Msg("viewer left")
		if room.Sharer != nil {
			h.deliver(room.Sharer, newMessage(signaling.EventViewerLeft, nil))
		}
	}
	return true
}

// closeRoom deletes room and tells its viewer the sharer is gone.
func (h *Hub) closeRoom(room *Room) {
	delete(h.rooms, room.ID)
	if room.Sharer != nil {
		room.Sharer.RoomID = ""
	}
	if room.Viewer != nil {
		room.Viewer.RoomID = ""
		h.deliver(room.Viewer, newMessage(signaling.EventSharerLeft, nil))
	}
	h.log.Info().Str("room", room.ID).Msg("room closed")
}

// available lists the rooms a viewer can still join.
func (h *Hub) available() []string {
	ids := make([]string, 0, len(h.rooms))
	for id, r := range h.rooms {
		if r.Viewer == nil {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func (h *Hub) availableCount() *Message {
	return newMessage(signaling.EventAvailableCount, signaling.CountPayload{Count: len(h.available())})
}

func (h *Hub) availableRooms() *Message {
	return newMessage(signaling.EventAvailableRooms, signaling.RoomsPayload{Rooms: h.available()})
}

func (h *Hub) broadcastAvailability() {
	count, rooms := h.availableCount(), h.availableRooms()
	for c := range h.clients {
		h.deliver(c, count)
		h.deliver(c, rooms)
	}
}

// deliver never blocks the hub; a client that cannot keep up loses messages.
func (h *Hub) deliver(c *Client, msg *Message) {
	select {
	case c.Send <- msg:
	default:
		h.log.Warn().Str("client", c.ID).Str("type", msg.Type).Msg("send buffer full, message dropped")
	}
}

// generateRoomID creates a random, memorable room ID like "sleepy-otter-comet".
func (h *Hub) generateRoomID() string {
	for {
		id := fmt.Sprintf("%s-%s-%s",
			adjectives[randomIndex(len(adjectives))],
			animals[randomIndex(len(animals))],
			things[randomIndex(len(things))],
		)
		if _, ok := h.rooms[id]; !ok {
			return id
		}
	}
}

// randomIndex returns a cryptographically secure random index for a slice of given length.
func randomIndex(max int) int {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		panic(fmt.Sprintf("generate random index: %v", err))
	}
	return int(n.Int64())
}
