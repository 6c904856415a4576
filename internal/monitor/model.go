// Package monitor is a terminal view of a running host: it follows the
// event feed and polls the battery.
package monitor

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/recera/vecremote/internal/hub"
	"github.com/recera/vecremote/internal/robot"
)

const (
	maxEvents      = 12
	reconnectDelay = 2 * time.Second
	batteryEvery   = 5 * time.Second

	// Vector reports battery level 0..3
	maxBatteryLevel = 3
)

// KeyMap defines the monitor's shortcuts
type KeyMap struct {
	Quit  key.Binding
	Clear key.Binding
}

var DefaultKeyMap = KeyMap{
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c", "q"),
		key.WithHelp("q", "quit"),
	),
	Clear: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "clear events"),
	),
}

// Messages
type connectedMsg struct{ feed *Feed }
type disconnectedMsg struct{ err error }
type eventMsg hub.Event
type reconnectMsg struct{}
type batteryMsg robot.Battery
type batteryErrMsg struct{ err error }
type pollBatteryMsg struct{}

// Model is the monitor's state
type Model struct {
	width int

	ctx       context.Context
	eventsURL string
	battery   *BatteryClient

	feed      *Feed
	connected bool
	id        string
	state     *robot.State
	level     *robot.Battery
	events    []hub.Event
	err       error
	quitting  bool

	spinner  spinner.Model
	progress progress.Model
}

// NewModel creates a monitor for the host at base.
func NewModel(ctx context.Context, base string) (Model, error) {
	wsURL, err := EventsURL(base)
	if err != nil {
		return Model{}, err
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return Model{
		ctx:       ctx,
		eventsURL: wsURL,
		battery:   NewBatteryClient(base),
		spinner:   s,
		progress:  progress.New(progress.WithDefaultGradient(), progress.WithWidth(30)),
	}, nil
}

// Init starts connecting and polling
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.connect(), m.fetchBattery())
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progress.Width = min(max(msg.Width-20, 10), 40)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, DefaultKeyMap.Quit):
			m.quitting = true
			if m.feed != nil {
				_ = m.feed.Close()
				m.feed = nil
			}
			return m, tea.Quit
		case key.Matches(msg, DefaultKeyMap.Clear):
			m.events = nil
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case connectedMsg:
		m.feed = msg.feed
		m.connected = true
		m.err = nil
		return m, m.listen()

	case disconnectedMsg:
		m.connected = false
		m.feed = nil
		m.err = msg.err
		if m.quitting {
			return m, nil
		}
		return m, tea.Tick(reconnectDelay, func(time.Time) tea.Msg { return reconnectMsg{} })

	case reconnectMsg:
		return m, m.connect()

	case eventMsg:
		m.apply(hub.Event(msg))
		return m, m.listen()

	case batteryMsg:
		b := robot.Battery(msg)
		m.level = &b
		return m, pollLater()

	case batteryErrMsg:
		m.level = nil
		return m, pollLater()

	case pollBatteryMsg:
		return m, m.fetchBattery()
	}

	return m, nil
}

func (m *Model) apply(ev hub.Event) {
	switch ev.Type {
	case hub.EventHello:
		m.id = ev.ID
		if ev.State != nil {
			m.state = ev.State
		}
	case hub.EventState:
		if ev.State != nil {
			m.state = ev.State
		}
	case hub.EventKeyDown, hub.EventKeyUp:
		m.events = append(m.events, ev)
		if len(m.events) > maxEvents {
			m.events = m.events[len(m.events)-maxEvents:]
		}
	}
}

func (m Model) connect() tea.Cmd {
	ctx, url := m.ctx, m.eventsURL
	return func() tea.Msg {
		feed, err := Dial(ctx, url)
		if err != nil {
			return disconnectedMsg{err: err}
		}
		return connectedMsg{feed: feed}
	}
}

func (m Model) listen() tea.Cmd {
	feed := m.feed
	if feed == nil {
		return nil
	}
	return func() tea.Msg {
		ev, err := feed.Next()
		if err != nil {
			return disconnectedMsg{err: err}
		}
		return eventMsg(ev)
	}
}

func (m Model) fetchBattery() tea.Cmd {
	ctx, client := m.ctx, m.battery
	return func() tea.Msg {
		b, err := client.Fetch(ctx)
		if err != nil {
			return batteryErrMsg{err: err}
		}
		return batteryMsg(b)
	}
}

func pollLater() tea.Cmd {
	return tea.Tick(batteryEvery, func(time.Time) tea.Msg { return pollBatteryMsg{} })
}

// Run starts the monitor against the host at base and blocks until the
// user quits or ctx is done.
func Run(ctx context.Context, base string) error {
	m, err := NewModel(ctx, base)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
