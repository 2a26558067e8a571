package ui

import (
	"fmt"
	"strings"

	"github.com/saiful3278/Screenshare-fronted/internal/controller"
	"github.com/saiful3278/Screenshare-fronted/internal/session"
)

// Render draws a controller snapshot. It has no side effects and reads
// nothing but v.
func Render(v controller.View) string {
	var b strings.Builder

	b.WriteString(HeaderStyle.Render(IconScreen + " screenshare"))
	b.WriteString("\n")

	b.WriteString(statusBadge(v.Status))
	if v.Role != session.RoleNone {
		b.WriteString(" " + MutedStyle.Render(string(v.Role)))
	}
	b.WriteString("  " + relayLine(v.RelayUp))
	b.WriteString("\n\n")

	switch {
	case v.Sharing() && v.RoomID != "":
		b.WriteString(NewRoomInfo(v.RoomID, v.Link).View())
		b.WriteString("\n")
		if v.Source != "" {
			b.WriteString(MutedStyle.Render("source: " + v.Source))
			b.WriteString("\n")
		}
		b.WriteString(sharerHint(v.Status))
		b.WriteString("\n")

	case v.Sharing():
		b.WriteString("Opening room...\n")

	case v.Role == session.RoleSharer:
		b.WriteString("Waiting for screen capture...\n")

	case v.Viewing():
		b.WriteString(fmt.Sprintf("%s Viewing room %s\n", IconView, BoldStyle.Render(v.RoomID)))
		if v.Receiving {
			b.WriteString(MutedStyle.Render(fmt.Sprintf("video %s  %d packets  %s",
				v.Stats.Codec, v.Stats.Packets, FormatSize(int64(v.Stats.Bytes)))))
			b.WriteString("\n")
		}
	}

	if v.LastError != "" {
		b.WriteString(ErrorStyle.Render(IconError + " " + v.LastError))
		b.WriteString("\n")
	}
	if v.Status == session.StatusDisconnected {
		b.WriteString(WarningStyle.Render(IconWarning + " press c to reconnect"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(TitleStyle.Render(fmt.Sprintf("Available rooms (%d)", v.Available)))
	b.WriteString("\n")
	b.WriteString(NewRoomTable(v.Rooms, v.RoomID).View())
	b.WriteString("\n")

	b.WriteString(FooterStyle.Render(keyHelp(v)))
	return b.String()
}

func statusBadge(s session.Status) string {
	style, ok := statusStyles[string(s)]
	if !ok {
		style = StatusStyle
	}
	return style.Render(string(s))
}

func relayLine(up bool) string {
	if up {
		return SuccessStyle.Render(IconRelay + " relay connected")
	}
	return WarningStyle.Render(IconOffline + " relay offline")
}

func sharerHint(s session.Status) string {
	switch s {
	case session.StatusNegotiating:
		return "Viewer joined, connecting..."
	case session.StatusMediaConnected:
		return SuccessStyle.Render("Viewer connected")
	}
	return MutedStyle.Render("Waiting for a viewer")
}

func keyHelp(v controller.View) string {
	keys := []string{key("s", "share"), key("v", "view")}
	if v.Active() || v.Role != session.RoleNone {
		keys = append(keys, key("x", "stop"))
	}
	keys = append(keys, key("r", "refresh"))
	if !v.RelayUp || v.Status == session.StatusDisconnected {
		keys = append(keys, key("c", "retry"))
	}
	keys = append(keys, key("q", "quit"))
	return strings.Join(keys, "  ")
}

func key(k, label string) string {
	return KeyStyle.Render(k) + " " + label
}

// FormatSize formats a byte count for humans.
func FormatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
