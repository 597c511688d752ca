// Package history provides the history tab with usage charts over time.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/israelmirsky/claude-codex-usage/internal/app"
	"github.com/israelmirsky/claude-codex-usage/internal/db"
	"github.com/israelmirsky/claude-codex-usage/internal/services"
)

// metricKind selects which percentage series is plotted.
type metricKind int

const (
	metricSession metricKind = iota
	metricWeekly
	metricModel
)

func (k metricKind) String() string {
	switch k {
	case metricSession:
		return "Session"
	case metricWeekly:
		return "Weekly (all models)"
	case metricModel:
		return "Weekly (single model)"
	default:
		return "Unknown"
	}
}

func (k metricKind) next() metricKind {
	return (k + 1) % 3
}

// sampleLimit caps how many points are plotted at once.
const sampleLimit = 120

// keyMap defines the key bindings specific to the history tab.
type keyMap struct {
	ToggleProvider key.Binding
	ToggleMetric   key.Binding
	Refresh        key.Binding
	Up             key.Binding
	Down           key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		ToggleProvider: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "switch provider"),
		),
		ToggleMetric: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "switch metric"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload chart"),
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

// historyLoadedMsg is sent when history samples are loaded.
type historyLoadedMsg struct {
	provider string
	points   []db.UsagePoint
}

// historyErrorMsg is sent when loading history fails.
type historyErrorMsg struct {
	err string
}

// Model represents the history tab state.
type Model struct {
	state    *app.AppState
	services *services.Manager
	width    int
	height   int
	keys     keyMap
	viewport viewport.Model

	providers   []string
	providerIdx int
	metric      metricKind

	points      []db.UsagePoint
	loading     bool
	lastRefresh time.Time
	errorMsg    string
}

// New creates a new history model.
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
		providers: providers,
	}
}

// Provider returns the provider whose history is shown.
func (m *Model) Provider() string {
	if len(m.providers) == 0 {
		return ""
	}
	return m.providers[m.providerIdx%len(m.providers)]
}

// Init initializes the history tab.
func (m *Model) Init() tea.Cmd {
	m.loading = true
	return m.loadHistoryCmd()
}

// loadHistoryCmd creates a command to load history samples.
func (m *Model) loadHistoryCmd() tea.Cmd {
	provider := m.Provider()
	svc := m.services

	return func() tea.Msg {
		if svc == nil {
			return historyErrorMsg{err: "History unavailable"}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		points, err := svc.History(ctx, provider, sampleLimit)
		if err != nil {
			return historyErrorMsg{err: err.Error()}
		}
		return historyLoadedMsg{provider: provider, points: points}
	}
}

// Update handles messages for the history tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case historyLoadedMsg:
		if msg.provider == m.Provider() {
			m.points = msg.points
			m.loading = false
			m.lastRefresh = time.Now()
			m.errorMsg = ""
		}

	case historyErrorMsg:
		m.loading = false
		m.errorMsg = msg.err
		cmds = append(cmds, func() tea.Msg {
			return app.AddNotificationMsg{
				Type:     app.NotificationError,
				Message:  fmt.Sprintf("History error: %s", msg.err),
				Duration: app.LongNotificationDuration,
			}
		})

	case app.TabSwitchMsg:
		if msg.Tab == app.TabHistory && !m.loading {
			m.loading = true
			cmds = append(cmds, m.loadHistoryCmd())
		}

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	switch {
	case key.Matches(msg, m.keys.ToggleProvider):
		if len(m.providers) > 0 {
			m.providerIdx = (m.providerIdx + 1) % len(m.providers)
			m.loading = true
			cmds = append(cmds, m.loadHistoryCmd())
		}

	case key.Matches(msg, m.keys.ToggleMetric):
		m.metric = m.metric.next()

	case key.Matches(msg, m.keys.Refresh):
		m.loading = true
		cmds = append(cmds, m.loadHistoryCmd())

	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// SetSize sets the available size for the history tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.ToggleProvider,
		m.keys.ToggleMetric,
		m.keys.Refresh,
	}
}

// series extracts the plotted values for the current metric selection.
func (m *Model) series() []float64 {
	values := make([]float64, 0, len(m.points))
	for _, p := range m.points {
		switch m.metric {
		case metricSession:
			values = append(values, p.SessionPct)
		case metricWeekly:
			values = append(values, p.WeeklyPct)
		case metricModel:
			values = append(values, p.ModelPct)
		}
	}
	return values
}
