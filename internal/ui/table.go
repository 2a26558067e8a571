package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

const maxRoomRows = 10

// RoomTable renders the rooms a viewer can join using lipgloss/table
type RoomTable struct {
	rooms    []string
	selected string
}

// NewRoomTable creates a new room table. selected is highlighted when present.
func NewRoomTable(rooms []string, selected string) *RoomTable {
	return &RoomTable{rooms: rooms, selected: selected}
}

// View renders the table as a string
func (t *RoomTable) View() string {
	if len(t.rooms) == 0 {
		return MutedStyle.Render("No rooms available")
	}

	var rows [][]string
	for i, room := range t.rooms {
		if i == maxRoomRows {
			rows = append(rows, []string{"", fmt.Sprintf("… %d more", len(t.rooms)-maxRoomRows)})
			break
		}
		rows = append(rows, []string{fmt.Sprintf("%d", i+1), room})
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(Primary)).
		Headers("#", "Room").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return TableHeaderStyle
			case row >= 0 && row < len(t.rooms) && t.rooms[row] == t.selected:
				return TableRowStyle.Foreground(Success).Bold(true)
			case row%2 == 0:
				return TableRowStyle
			default:
				return TableRowAltStyle
			}
		})

	return tbl.Render()
}

type RoomInfo struct {
	RoomID   string
	RoomLink string
}

func NewRoomInfo(roomID, roomLink string) *RoomInfo {
	return &RoomInfo{
		RoomID:   roomID,
		RoomLink: roomLink,
	}
}

func (r *RoomInfo) View() string {
	content := fmt.Sprintf("%s Room Created!\n\n%s Room ID: %s",
		IconSuccess,
		IconCopy, BoldStyle.Foreground(Primary).Render(r.RoomID),
	)
	if r.RoomLink != "" {
		content += fmt.Sprintf("\n%s Link:    %s", IconWeb, MutedStyle.Render(r.RoomLink))
	}
	return SuccessBoxStyle.Render(content)
}
