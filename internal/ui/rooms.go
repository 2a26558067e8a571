package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// RoomRow is one line of the rooms report.
type RoomRow struct {
	ID        string
	HasViewer bool
	Created   time.Time
}

// RenderRooms writes the relay's rooms as a go-pretty table, joinable rooms
// first in the order given.
func RenderRooms(w io.Writer, rooms []RoomRow, now time.Time) {
	if len(rooms) == 0 {
		fmt.Fprintln(w, MutedStyle.Render("No rooms open on this relay"))
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.Style().Title.Align = text.AlignCenter
	t.SetTitle(IconRoom + " Rooms")
	t.AppendHeader(table.Row{"#", "Room", "Status", "Open for"})

	available := 0
	for i, r := range rooms {
		status := "available"
		if r.HasViewer {
			status = "watching"
		} else {
			available++
		}
		t.AppendRow(table.Row{i + 1, r.ID, status, formatAge(now.Sub(r.Created))})
	}
	t.AppendFooter(table.Row{"", "", "available", available})
	t.Render()
}

func formatAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
	}
}
