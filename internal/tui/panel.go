// SPDX-License-Identifier: MIT
/*
Package tui is the terminal settings panel. It drives a settings.Panel and
pushes every change to the page host a short moment after it settles.
*/
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	applog "voxcut/internal/log"
	"voxcut/internal/settings"
	"voxcut/internal/transport"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	// ApplyDelay is how long a control change settles before it is sent.
	ApplyDelay = 100 * time.Millisecond
	// StatusInterval is the status line refresh period.
	StatusInterval = time.Second

	opTimeout = 2 * time.Second
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5"))

	highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#25A065")).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E84855")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D7D7D"))
)

// Forwarder sends a complete settings snapshot to the page.
type Forwarder interface {
	Forward(ctx context.Context, s settings.Settings, forceReinit bool) error
}

// StatusFunc asks the page whether processing is active.
type StatusFunc func(ctx context.Context) (transport.Status, error)

type (
	applyMsg struct{ seq int }
	// appliedMsg reports the outcome of a send.
	appliedMsg struct{ err error }
	statusTick struct{}
	statusMsg  struct{ active bool }
)

// Model is the bubbletea model of the panel.
type Model struct {
	panel   *settings.Panel
	forward Forwarder
	status  StatusFunc

	cursor int
	seq    int // latest scheduled apply
	active bool
	err    error
	notice string

	naming bool
	name   textinput.Model
	help   help.Model
}

// New returns a panel model. status may be nil to hide the status line.
func New(panel *settings.Panel, forward Forwarder, status StatusFunc) Model {
	ti := textinput.New()
	ti.Placeholder = settings.DefaultCustomName
	ti.CharLimit = 32
	return Model{
		panel:   panel,
		forward: forward,
		status:  status,
		name:    ti,
		help:    help.New(),
	}
}

// Init starts the status refresh loop.
func (m Model) Init() tea.Cmd {
	if m.status == nil {
		return nil
	}
	return m.queryStatus
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width

	case applyMsg:
		// Only the last change in a burst is sent; it carries the whole record.
		if msg.seq != m.seq {
			return m, nil
		}
		return m, m.send(false)

	case appliedMsg:
		m.err = msg.err
		if msg.err != nil {
			applog.Warnf("Panel: %v", msg.err)
		}

	case statusTick:
		return m, m.queryStatus

	case statusMsg:
		m.active = msg.active
		return m, tea.Tick(StatusInterval, func(time.Time) tea.Msg { return statusTick{} })

	case tea.KeyMsg:
		if m.naming {
			return m.updateNaming(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, keys.Down):
		if m.cursor < len(rows)-1 {
			m.cursor++
		}

	case key.Matches(msg, keys.Decrease):
		return m.change(-1)

	case key.Matches(msg, keys.Increase):
		return m.change(1)

	case key.Matches(msg, keys.Toggle):
		return m.change(0)

	case key.Matches(msg, keys.Soft):
		return m.applyPreset(settings.PresetSoft)
	case key.Matches(msg, keys.Aggro):
		return m.applyPreset(settings.PresetAggressive)
	case key.Matches(msg, keys.Factory):
		return m.applyPreset(settings.PresetFactory)
	case key.Matches(msg, keys.Custom):
		return m.applyPreset(settings.PresetCustom)

	case key.Matches(msg, keys.Save):
		m.naming = true
		m.name.SetValue("")
		return m, m.name.Focus()

	case key.Matches(msg, keys.Reinit):
		m.notice = "Reinitialising"
		return m, m.send(true)
	}
	return m, nil
}

func (m Model) updateNaming(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.naming = false
		m.name.Blur()
		return m, nil
	case tea.KeyEnter:
		m.naming = false
		m.name.Blur()
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		if err := m.panel.SaveCustom(ctx, m.name.Value()); err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		m.notice = fmt.Sprintf("Saved %q", m.panel.CustomPreset().Name)
		return m, nil
	}
	var cmd tea.Cmd
	m.name, cmd = m.name.Update(msg)
	return m, cmd
}

// change steps the selected row by dir, or flips it when dir is 0 and the
// row is a toggle.
func (m Model) change(dir int) (tea.Model, tea.Cmd) {
	r := rows[m.cursor]
	s := m.panel.Settings()
	cur := value(s, r.key)

	var next float64
	switch {
	case r.kind == rowToggle:
		next = 1 - cur
	case dir == 0:
		return m, nil
	case r.key == settings.KeyVoiceGain && s.MuteMid:
		m.notice = "Voice is muted"
		return m, nil
	default:
		next = r.nudge(cur, dir)
		if next == cur {
			return m, nil
		}
	}

	m.notice = ""
	if r.key == settings.KeyMasterEnabled {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		if err := m.panel.SetMaster(ctx, next > 0); err != nil {
			m.err = err
			return m, nil
		}
		return m, m.send(false)
	}

	if err := m.panel.Adjust(r.key, next); err != nil {
		m.err = err
		return m, nil
	}
	m.seq++
	seq := m.seq
	return m, tea.Tick(ApplyDelay, func(time.Time) tea.Msg { return applyMsg{seq: seq} })
}

func (m Model) applyPreset(name string) (tea.Model, tea.Cmd) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if err := m.panel.ApplyPreset(ctx, name); err != nil {
		m.err = err
		return m, nil
	}
	m.err = nil
	m.notice = ""
	return m, m.send(false)
}

// send snapshots the working settings now and forwards them.
func (m Model) send(force bool) tea.Cmd {
	s := m.panel.Settings()
	fwd := m.forward
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		return appliedMsg{err: fwd.Forward(ctx, s, force)}
	}
}

func (m Model) queryStatus() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	st, err := m.status(ctx)
	if err != nil {
		applog.Debugf("Panel: status: %v", err)
	}
	return statusMsg{active: st.Active}
}

// View renders the panel.
func (m Model) View() string {
	var sb strings.Builder
	s := m.panel.Settings()

	sb.WriteString(titleStyle.Render("Voice Remover"))
	if m.status != nil {
		if m.active {
			sb.WriteString("  " + highlightStyle.Render("● processing active"))
		} else {
			sb.WriteString("  " + dimStyle.Render("○ inactive"))
		}
	}
	sb.WriteString("\n\n")

	for i, r := range rows {
		cursor := "  "
		if i == m.cursor {
			cursor = "▶ "
		}
		val := r.format(value(s, r.key))
		if r.key == settings.KeyVoiceGain && s.MuteMid {
			val = mutedStyle.Render("MUTE")
		}
		line := fmt.Sprintf("%s%-16s %s", cursor, r.label, val)
		if i == m.cursor {
			line = highlightStyle.Render(line)
		}
		sb.WriteString(line + "\n")
	}

	sb.WriteString("\n" + m.presetLine() + "\n")

	if m.naming {
		sb.WriteString("\nPreset name: " + m.name.View() + "\n")
	}
	if m.err != nil {
		sb.WriteString("\n" + mutedStyle.Render("Error: "+m.err.Error()) + "\n")
	} else if m.notice != "" {
		sb.WriteString("\n" + infoStyle.Render(m.notice) + "\n")
	}

	sb.WriteString("\n" + m.help.View(keys))
	return sb.String()
}

func (m Model) presetLine() string {
	current := m.panel.CurrentPreset()
	names := append(settings.Builtin(), settings.PresetCustom)
	custom := m.panel.CustomPreset()

	parts := make([]string, 0, len(names))
	for i, name := range names {
		var label string
		if p, err := settings.LookupPreset(name, custom); err == nil {
			label = p.Name
		} else {
			label = dimStyle.Render("(no custom preset)")
		}
		label = fmt.Sprintf("[%d] %s", i+1, label)
		if name == current {
			label = highlightStyle.Render(label)
		}
		parts = append(parts, label)
	}
	return strings.Join(parts, "  ")
}

// Run starts the panel on the alternate screen and blocks until it quits.
func Run(m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
