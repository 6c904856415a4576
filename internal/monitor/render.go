package monitor

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/recera/vecremote/internal/hub"
	"github.com/recera/vecremote/pkg/bridge"
)

var (
	primaryColor = lipgloss.Color("#3b82f6")
	successColor = lipgloss.Color("#10b981")
	errorColor   = lipgloss.Color("#ef4444")
	mutedColor   = lipgloss.Color("#94a3b8")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Width(10)

	downStyle = lipgloss.NewStyle().Foreground(successColor)
	upStyle   = lipgloss.NewStyle().Foreground(mutedColor)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			MarginTop(1)
)

// View renders the monitor
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("vecremote monitor"))
	b.WriteString("\n")

	if !m.connected {
		b.WriteString(fmt.Sprintf("%s connecting to %s", m.spinner.View(), m.eventsURL))
		if m.err != nil {
			b.WriteString("\n")
			b.WriteString(errorStyle.Render(m.err.Error()))
		}
		b.WriteString("\n")
		b.WriteString(m.help())
		return b.String()
	}

	b.WriteString(boxStyle.Render(m.renderState()))
	b.WriteString("\n")
	b.WriteString(m.renderEvents())
	b.WriteString(m.help())
	return b.String()
}

func (m Model) renderState() string {
	row := func(label, value string) string {
		return labelStyle.Render(label) + value
	}

	lines := []string{row("session", m.id)}
	if s := m.state; s != nil {
		speed := "normal"
		switch {
		case s.Fast && !s.Slow:
			speed = "fast"
		case s.Slow && !s.Fast:
			speed = "slow"
		}
		lines = append(lines,
			row("drive", fmt.Sprintf("%+d  turn %+d  (%.0f / %.0f mm/s)", s.Drive, s.Turn, s.Wheels.Left, s.Wheels.Right)),
			row("lift", fmt.Sprintf("%+d  (%.1f rad/s)", s.Lift, s.LiftSpeed)),
			row("head", fmt.Sprintf("%+d  (%.1f rad/s)", s.Head, s.HeadSpeed)),
			row("speed", speed),
			row("queued", fmt.Sprintf("%d", s.Queued)),
		)
	}

	if m.level != nil {
		pct := float64(m.level.Level) / maxBatteryLevel
		charge := ""
		if m.level.Charging {
			charge = " charging"
		}
		lines = append(lines, row("battery", fmt.Sprintf("%s %.2fV%s", m.progress.ViewAs(pct), m.level.Volts, charge)))
	} else {
		lines = append(lines, row("battery", "unknown"))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderEvents() string {
	if len(m.events) == 0 {
		return upStyle.Render("no key events yet") + "\n"
	}
	var b strings.Builder
	for _, ev := range m.events {
		b.WriteString(formatEvent(ev))
		b.WriteString("\n")
	}
	return b.String()
}

func formatEvent(ev hub.Event) string {
	if ev.Key == nil {
		return ev.Type
	}
	label := keyLabel(*ev.Key)
	stamp := ev.Time.Format("15:04:05.000")
	if ev.Type == hub.EventKeyDown {
		return fmt.Sprintf("%s %s %s", stamp, downStyle.Render("▼"), label)
	}
	return fmt.Sprintf("%s %s %s", stamp, upStyle.Render("▲"), label)
}

func keyLabel(p bridge.KeyPayload) string {
	var mods []string
	if p.HasShift != 0 {
		mods = append(mods, "shift")
	}
	if p.HasCtrl != 0 {
		mods = append(mods, "ctrl")
	}
	if p.HasAlt != 0 {
		mods = append(mods, "alt")
	}
	name := fmt.Sprintf("#%d", p.KeyCode)
	if p.KeyCode >= 0x20 && p.KeyCode < 0x7f {
		name = string(rune(p.KeyCode))
	}
	return strings.Join(append(mods, name), "+")
}

func (m Model) help() string {
	return helpStyle.Render(fmt.Sprintf("%s • %s",
		DefaultKeyMap.Quit.Help().Key+" "+DefaultKeyMap.Quit.Help().Desc,
		DefaultKeyMap.Clear.Help().Key+" "+DefaultKeyMap.Clear.Help().Desc,
	))
}
