package monitor

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recera/vecremote/internal/hub"
	"github.com/recera/vecremote/internal/robot"
	"github.com/recera/vecremote/pkg/bridge"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	m, err := NewModel(context.Background(), "http://localhost:5000")
	require.NoError(t, err)
	return m
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

func TestEventsURL(t *testing.T) {
	tests := []struct {
		base string
		want string
		err  bool
	}{
		{"http://localhost:5000", "ws://localhost:5000/events", false},
		{"https://robot.lan/console/", "wss://robot.lan/console/events", false},
		{"ws://10.0.0.2:5000", "ws://10.0.0.2:5000/events", false},
		{"ftp://x", "", true},
	}
	for _, tt := range tests {
		got, err := EventsURL(tt.base)
		if tt.err {
			assert.Error(t, err, tt.base)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestModel_AppliesEvents(t *testing.T) {
	m := newTestModel(t)
	m.connected = true

	m, _ = update(t, m, eventMsg(hub.Event{Type: hub.EventHello, ID: "abc", State: &robot.State{Drive: 1}}))
	assert.Equal(t, "abc", m.id)
	require.NotNil(t, m.state)
	assert.Equal(t, 1, m.state.Drive)

	m, _ = update(t, m, eventMsg(hub.Event{Type: hub.EventState, State: &robot.State{Lift: -1}}))
	assert.Equal(t, -1, m.state.Lift)

	for i := 0; i < maxEvents+3; i++ {
		m, _ = update(t, m, eventMsg(hub.Event{
			Type: hub.EventKeyDown,
			Time: time.Now(),
			Key:  &bridge.KeyPayload{KeyCode: 65 + i},
		}))
	}
	require.Len(t, m.events, maxEvents)
	assert.Equal(t, 68, m.events[0].Key.KeyCode)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'c'}})
	assert.Empty(t, m.events)
}

func TestModel_Quit(t *testing.T) {
	m := newTestModel(t)
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	assert.True(t, m.quitting)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.Empty(t, m.View())

	m = newTestModel(t)
	_, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestModel_DisconnectSchedulesReconnect(t *testing.T) {
	m := newTestModel(t)
	m.connected = true

	m, cmd := update(t, m, disconnectedMsg{err: errors.New("connection reset")})
	assert.False(t, m.connected)
	assert.NotNil(t, cmd)
	assert.Contains(t, m.View(), "connecting to ws://localhost:5000/events")
	assert.Contains(t, m.View(), "connection reset")
}

func TestModel_Battery(t *testing.T) {
	m := newTestModel(t)
	m.connected = true

	m, cmd := update(t, m, batteryMsg(robot.Battery{Volts: 3.8, Level: 2}))
	assert.NotNil(t, cmd)
	require.NotNil(t, m.level)
	assert.Contains(t, m.View(), "3.80V")

	m, _ = update(t, m, batteryErrMsg{err: errors.New("down")})
	assert.Nil(t, m.level)
	assert.Contains(t, m.View(), "unknown")
}

func TestKeyLabel(t *testing.T) {
	assert.Equal(t, "shift+alt+Z", keyLabel(bridge.KeyPayload{KeyCode: 90, HasShift: 1, HasAlt: 1}))
	assert.Equal(t, "ctrl+#13", keyLabel(bridge.KeyPayload{KeyCode: 13, HasCtrl: 1}))
}

func TestFeed_ReadsHub(t *testing.T) {
	h := hub.New(hub.WithSnapshot(func() *robot.State { return &robot.State{Head: 1} }))
	srv := httptest.NewServer(h)
	defer srv.Close()

	url, err := EventsURL(srv.URL)
	require.NoError(t, err)

	// The hub answers on every path; /events is what a real host serves.
	feed, err := Dial(context.Background(), url)
	require.NoError(t, err)
	defer feed.Close()

	hello, err := feed.Next()
	require.NoError(t, err)
	assert.Equal(t, hub.EventHello, hello.Type)
	require.NotNil(t, hello.State)
	assert.Equal(t, 1, hello.State.Head)
}

func TestBatteryClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/battery" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"volt":3.7,"level":1,"on_charge":true}`))
	}))
	defer srv.Close()

	b, err := NewBatteryClient(srv.URL).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3.7, b.Volts)
	assert.True(t, b.Charging)

	_, err = NewBatteryClient(srv.URL + "/missing").Fetch(context.Background())
	assert.Error(t, err)
}
