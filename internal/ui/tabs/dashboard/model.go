// Package dashboard provides the main usage overview tab.
package dashboard

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/israelmirsky/claude-codex-usage/internal/app"
	"github.com/israelmirsky/claude-codex-usage/internal/services"
	"github.com/israelmirsky/claude-codex-usage/internal/ui/components"
)

// keyMap defines the key bindings specific to the dashboard tab.
type keyMap struct {
	Refresh key.Binding
	Up      key.Binding
	Down    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
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

// Model represents the dashboard tab state.
type Model struct {
	state    *app.AppState
	services *services.Manager
	width    int
	height   int
	keys     keyMap
	viewport viewport.Model
	spinner  components.LoadingSpinner
	usageBar components.UsageBar

	providers []string
}

// New creates a new dashboard model.
func New(state *app.AppState, svc *services.Manager) *Model {
	providers := []string{"Claude", "Codex"}
	if svc != nil {
		providers = svc.Providers()
	}

	return &Model{
		state:     state,
		services:  svc,
		keys:      defaultKeyMap(),
		viewport:  viewport.New(0, 0),
		spinner:   components.NewSpinner("Fetching usage..."),
		usageBar:  components.NewUsageBar(),
		providers: providers,
	}
}

// Init initializes the dashboard tab.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Init()
}

// Update handles messages for the dashboard tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)

	default:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// SetSize sets the available size for the dashboard tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.Refresh, m.keys.Up, m.keys.Down}
}
