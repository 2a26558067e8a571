package ui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/saiful3278/Screenshare-fronted/internal/config"
	"github.com/saiful3278/Screenshare-fronted/internal/controller"
	"github.com/saiful3278/Screenshare-fronted/internal/session"
)

// Poster accepts user requests. *controller.Controller satisfies it.
type Poster interface {
	Post(session.Event)
}

type viewMsg controller.View

// Model is the interactive session screen. It never touches session state
// directly: keys become controller events and snapshots come back as
// viewMsg.
type Model struct {
	ctl     Poster
	updates <-chan controller.View

	view      controller.View
	spinner   spinner.Model
	input     textinput.Model
	prompting bool
	quitting  bool
}

// NewModel creates a model that posts to ctl and redraws on every snapshot
// received from updates.
func NewModel(ctl Poster, initial controller.View, updates <-chan controller.View) Model {
	in := textinput.New()
	in.Placeholder = "room id or share link"
	in.Prompt = "Room: "
	in.CharLimit = 256

	return Model{
		ctl:     ctl,
		updates: updates,
		view:    initial,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(SpinnerStyle)),
		input:   in,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForView())
}

func (m Model) waitForView() tea.Cmd {
	if m.updates == nil {
		return nil
	}
	return func() tea.Msg {
		v, ok := <-m.updates
		if !ok {
			return nil
		}
		return viewMsg(v)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case viewMsg:
		m.view = controller.View(msg)
		return m, m.waitForView()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.prompting {
			return m.updatePrompt(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "s":
		m.ctl.Post(session.ShareRequested{})
	case "v":
		m.prompting = true
		m.input.Reset()
		return m, m.input.Focus()
	case "x":
		m.ctl.Post(session.StopRequested{})
	case "r":
		m.ctl.Post(session.RefreshRequested{})
	case "c":
		m.ctl.Post(session.RetryRequested{})
	}
	return m, nil
}

func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		m.quitting = true
		return m, tea.Quit
	case tea.KeyEsc:
		m.prompting = false
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		room := config.ParseRoom(m.input.Value())
		m.prompting = false
		m.input.Blur()
		m.ctl.Post(session.ViewRequested{RoomID: room})
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	if m.view.Status == session.StatusNegotiating {
		b.WriteString(m.spinner.View() + " negotiating\n")
	}
	b.WriteString(Render(m.view))
	if m.prompting {
		b.WriteString("\n\n" + m.input.View())
		b.WriteString("\n" + MutedStyle.Render("enter to join, esc to cancel"))
	}
	return b.String() + "\n"
}

// Run shows the session screen until the user quits or ctx is cancelled.
func Run(ctx context.Context, ctl *controller.Controller) error {
	updates := make(chan controller.View, 1)
	ctl.OnChange(func(v controller.View) {
		// Keep only the newest snapshot; the loop must never wait on the UI.
		select {
		case <-updates:
		default:
		}
		select {
		case updates <- v:
		default:
		}
	})

	p := tea.NewProgram(NewModel(ctl, ctl.View(), updates), tea.WithContext(ctx), tea.WithAltScreen())
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
