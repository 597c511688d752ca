// Package info provides the info tab with settings controls and build details.
package info

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/israelmirsky/claude-codex-usage/internal/app"
	"github.com/israelmirsky/claude-codex-usage/internal/config"
	"github.com/israelmirsky/claude-codex-usage/internal/providers/openrouter"
	"github.com/israelmirsky/claude-codex-usage/internal/services"
)

const (
	thresholdStep = 5
	thresholdMin  = 10
	thresholdMax  = 100
)

// keyMap defines the key bindings specific to the info tab.
type keyMap struct {
	ToggleNotify   key.Binding
	RaiseThreshold key.Binding
	LowerThreshold key.Binding
	FasterRefresh  key.Binding
	SlowerRefresh  key.Binding
	Up             key.Binding
	Down           key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		ToggleNotify: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "toggle notifications"),
		),
		RaiseThreshold: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "raise threshold"),
		),
		LowerThreshold: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "lower threshold"),
		),
		FasterRefresh: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "refresh sooner"),
		),
		SlowerRefresh: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "refresh later"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll down"),
		),
	}
}

// keyStatusMsg carries the OpenRouter key status loaded on init.
type keyStatusMsg struct {
	status openrouter.KeyStatus
	err    error
}

// Model represents the info tab state.
type Model struct {
	state    *app.AppState
	services *services.Manager
	config   *config.Config
	width    int
	height   int
	keys     keyMap
	viewport viewport.Model

	settings  config.Settings
	keyStatus openrouter.KeyStatus
}

// New creates a new info model.
func New(state *app.AppState, svc *services.Manager, cfg *config.Config) *Model {
	settings := config.DefaultSettings()
	if svc != nil {
		settings = svc.Settings()
	}

	return &Model{
		state:    state,
		services: svc,
		config:   cfg,
		keys:     defaultKeyMap(),
		viewport: viewport.New(0, 0),
		settings: settings,
	}
}

// Init initializes the info tab.
func (m *Model) Init() tea.Cmd {
	return m.loadKeyStatusCmd()
}

func (m *Model) loadKeyStatusCmd() tea.Cmd {
	svc := m.services
	return func() tea.Msg {
		if svc == nil {
			return keyStatusMsg{}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		status, err := svc.OpenRouter().Status(ctx)
		return keyStatusMsg{status: status, err: err}
	}
}

// updateSettingsCmd persists a settings change and reports the result.
func (m *Model) updateSettingsCmd(fn func(*config.Settings)) tea.Cmd {
	svc := m.services
	if svc == nil {
		fn(&m.settings)
		return nil
	}
	return func() tea.Msg {
		settings, err := svc.UpdateSettings(fn)
		return app.SettingsUpdatedMsg{Settings: settings, Error: err}
	}
}

// Update handles messages for the info tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case keyStatusMsg:
		if msg.err == nil {
			m.keyStatus = msg.status
		}

	case app.SettingsUpdatedMsg:
		if msg.Error == nil {
			m.settings = msg.Settings
		}

	case app.ServiceEventMsg:
		if ev, ok := msg.Event.(services.SettingsChangedEvent); ok {
			m.settings = ev.Settings
		}

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (app.Tab, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ToggleNotify):
		return m, m.updateSettingsCmd(func(s *config.Settings) {
			s.NotificationsEnabled = !s.NotificationsEnabled
		})

	case key.Matches(msg, m.keys.RaiseThreshold):
		return m, m.updateSettingsCmd(func(s *config.Settings) {
			s.NotifyThreshold = clampThreshold(s.NotifyThreshold + thresholdStep)
		})

	case key.Matches(msg, m.keys.LowerThreshold):
		return m, m.updateSettingsCmd(func(s *config.Settings) {
			s.NotifyThreshold = clampThreshold(s.NotifyThreshold - thresholdStep)
		})

	case key.Matches(msg, m.keys.FasterRefresh):
		return m, m.updateSettingsCmd(func(s *config.Settings) {
			if s.RefreshIntervalSecs > 60 {
				s.RefreshIntervalSecs -= 60
			}
		})

	case key.Matches(msg, m.keys.SlowerRefresh):
		return m, m.updateSettingsCmd(func(s *config.Settings) {
			s.RefreshIntervalSecs += 60
		})
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func clampThreshold(v int) int {
	if v < thresholdMin {
		return thresholdMin
	}
	if v > thresholdMax {
		return thresholdMax
	}
	return v
}

// SetSize sets the available size for the info tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.ToggleNotify,
		m.keys.RaiseThreshold,
		m.keys.LowerThreshold,
	}
}
