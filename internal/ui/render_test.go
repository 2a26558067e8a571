package ui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saiful3278/Screenshare-fronted/internal/controller"
	"github.com/saiful3278/Screenshare-fronted/internal/media"
	"github.com/saiful3278/Screenshare-fronted/internal/session"
)

func plain(v controller.View) string {
	return ansi.Strip(Render(v))
}

func TestRenderSharingRoom(t *testing.T) {
	v := controller.View{
		State: session.State{
			Status:    session.StatusSharing,
			Role:      session.RoleSharer,
			RoomID:    "abc123",
			RelayUp:   true,
			Capturing: true,
			Rooms:     []string{"abc123"},
			Available: 1,
		},
		Link:   "http://localhost:8080/?room=abc123",
		Source: "screen.ivf (1280x720)",
	}

	out := plain(v)
	assert.Contains(t, out, "Room ID: abc123")
	assert.Contains(t, out, "room=abc123")
	assert.Contains(t, out, "sharing")
	assert.Contains(t, out, "Waiting for a viewer")
	assert.Contains(t, out, "screen.ivf (1280x720)")
	assert.Contains(t, out, "Available rooms (1)")
}

func TestRenderIdle(t *testing.T) {
	out := plain(controller.View{State: session.Initial()})
	assert.Contains(t, out, "idle")
	assert.Contains(t, out, "relay offline")
	assert.Contains(t, out, "No rooms available")
	assert.Contains(t, out, "c retry")
	assert.NotContains(t, out, "Room ID:")
}

func TestRenderDisconnected(t *testing.T) {
	out := plain(controller.View{State: session.State{
		Status:    session.StatusDisconnected,
		LastError: "relay connection lost",
	}})
	assert.Contains(t, out, "disconnected")
	assert.Contains(t, out, "relay connection lost")
	assert.Contains(t, out, "press c to reconnect")

	assert.NotContains(t, plain(controller.View{State: session.Initial()}), "press c to reconnect")
}

func TestRenderViewer(t *testing.T) {
	v := controller.View{
		State: session.State{
			Status:    session.StatusMediaConnected,
			Role:      session.RoleViewer,
			RoomID:    "calm-otter-comet",
			RelayUp:   true,
			Receiving: true,
		},
		Stats: media.Stats{Codec: "video/VP8", Packets: 42, Bytes: 2048},
	}
	out := plain(v)
	assert.Contains(t, out, "Viewing room calm-otter-comet")
	assert.Contains(t, out, "42 packets")
	assert.Contains(t, out, "2.0 KB")
	assert.Contains(t, out, "media-connected")
	assert.NotContains(t, out, "Room ID:")
}

func TestRenderError(t *testing.T) {
	v := controller.View{State: session.State{
		Status:    session.StatusDisconnected,
		LastError: "peer connection failed",
	}}
	assert.Contains(t, plain(v), "peer connection failed")
}

func TestRenderIsPure(t *testing.T) {
	v := controller.View{State: session.State{Status: session.StatusConnected, RelayUp: true, Rooms: []string{"a", "b"}}}
	assert.Equal(t, Render(v), Render(v))
	assert.Equal(t, []string{"a", "b"}, v.Rooms)
}

func TestRoomTableTruncates(t *testing.T) {
	rooms := make([]string, 13)
	for i := range rooms {
		rooms[i] = "room"
	}
	out := ansi.Strip(NewRoomTable(rooms, "").View())
	assert.Contains(t, out, "3 more")
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "512 B", FormatSize(512))
	assert.Equal(t, "1.5 KB", FormatSize(1536))
	assert.Equal(t, "3.0 MB", FormatSize(3*1024*1024))
}

type recorder struct{ events []session.Event }

func (r *recorder) Post(ev session.Event) { r.events = append(r.events, ev) }

func press(m tea.Model, keys ...tea.KeyMsg) tea.Model {
	for _, k := range keys {
		m, _ = m.Update(k)
	}
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModelKeys(t *testing.T) {
	rec := &recorder{}
	m := NewModel(rec, controller.View{State: session.Initial()}, nil)

	press(m, runes("s"), runes("x"), runes("r"), runes("c"))
	assert.Equal(t, []session.Event{
		session.ShareRequested{},
		session.StopRequested{},
		session.RefreshRequested{},
		session.RetryRequested{},
	}, rec.events)
}

func TestModelViewPrompt(t *testing.T) {
	rec := &recorder{}
	var m tea.Model = NewModel(rec, controller.View{State: session.Initial()}, nil)

	m = press(m, runes("v"))
	assert.Contains(t, ansi.Strip(m.View()), "Room:")

	// Keys typed into the prompt are not commands.
	for _, r := range "http://relay/?room=abc123" {
		m = press(m, runes(string(r)))
	}
	assert.Empty(t, rec.events)

	m = press(m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Len(t, rec.events, 1)
	assert.Equal(t, session.ViewRequested{RoomID: "abc123"}, rec.events[0])
	assert.NotContains(t, ansi.Strip(m.View()), "Room:")
}

func TestModelPromptCancel(t *testing.T) {
	rec := &recorder{}
	var m tea.Model = NewModel(rec, controller.View{State: session.Initial()}, nil)
	m = press(m, runes("v"), runes("a"), tea.KeyMsg{Type: tea.KeyEsc})
	assert.Empty(t, rec.events)

	m = press(m, runes("s"))
	assert.Equal(t, []session.Event{session.ShareRequested{}}, rec.events)
}

func TestModelSnapshotAndQuit(t *testing.T) {
	rec := &recorder{}
	var m tea.Model = NewModel(rec, controller.View{State: session.Initial()}, nil)

	m, _ = m.Update(viewMsg(controller.View{State: session.State{Status: session.StatusNegotiating, Role: session.RoleViewer, RoomID: "abc123", RelayUp: true}}))
	assert.Contains(t, ansi.Strip(m.View()), "negotiating")

	m, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())
}
