package monitor

import (
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"skylink-gateway/internal/telemetry"
)

// telemetryMsg carries one live frame into the model.
type telemetryMsg struct{ telemetry.Frame }

// logMsg carries a log line for the viewport.
type logMsg struct{ line string }

// errMsg reports a stream failure.
type errMsg struct{ err error }

const maxLogLines = 200

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	badStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	borderStyle = lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("240"))
)

type tuiModel struct {
	table      table.Model
	vp         viewport.Model
	frames     map[string]telemetry.Frame
	logs       []string
	width      int
	height     int
	err        error
	autoscroll bool
}

func newTUIModel() tuiModel {
	cols := []table.Column{
		{Title: "Drone", Width: 16},
		{Title: "Battery", Width: 8},
		{Title: "Lat", Width: 10},
		{Title: "Lon", Width: 10},
		{Title: "Alt", Width: 7},
		{Title: "Signal", Width: 7},
		{Title: "Status", Width: 12},
		{Title: "Updated", Width: 9},
	}
	t := table.New(table.WithColumns(cols), table.WithHeight(10))
	return tuiModel{
		table:      t,
		vp:         viewport.New(0, 0),
		frames:     make(map[string]telemetry.Frame),
		autoscroll: true,
	}
}

func (m tuiModel) Init() tea.Cmd { return nil }

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "a":
			m.autoscroll = !m.autoscroll
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetHeight(max(4, msg.Height/2-3))
		m.vp.Width = msg.Width - 2
		m.vp.Height = max(3, msg.Height-m.table.Height()-6)
		m.refreshLog()
	case telemetryMsg:
		m.frames[msg.DroneID] = msg.Frame
		m.refreshTable()
	case logMsg:
		m.logs = append(m.logs, msg.line)
		if len(m.logs) > maxLogLines {
			m.logs = m.logs[len(m.logs)-maxLogLines:]
		}
		m.refreshLog()
	case errMsg:
		m.err = msg.err
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *tuiModel) refreshTable() {
	ids := make([]string, 0, len(m.frames))
	for id := range m.frames {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	rows := make([]table.Row, 0, len(ids))
	for _, id := range ids {
		f := m.frames[id]
		rows = append(rows, table.Row{
			id,
			batteryCell(f.Battery),
			fmt.Sprintf("%.5f", f.Latitude),
			fmt.Sprintf("%.5f", f.Longitude),
			fmt.Sprintf("%.0f", f.Altitude),
			fmt.Sprintf("%.0f%%", f.SignalQuality),
			f.Status,
			f.UpdatedAt.Format("15:04:05"),
		})
	}
	m.table.SetRows(rows)
}

func batteryCell(battery float64) string {
	text := fmt.Sprintf("%.0f%%", battery)
	switch {
	case battery < 20:
		return badStyle.Render(text)
	case battery < 50:
		return warnStyle.Render(text)
	}
	return okStyle.Render(text)
}

func (m *tuiModel) refreshLog() {
	var body string
	for _, line := range m.logs {
		body += wordwrap.String(line, max(20, m.vp.Width)) + "\n"
	}
	m.vp.SetContent(body)
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m tuiModel) View() string {
	header := headerStyle.Render(fmt.Sprintf("SkyLink fleet monitor | %d drones | %s",
		len(m.frames), time.Now().Format("15:04:05")))
	if m.err != nil {
		header += "  " + badStyle.Render("stream error: "+m.err.Error())
	}
	return header + "\n" +
		borderStyle.Render(m.table.View()) + "\n" +
		borderStyle.Render(m.vp.View()) + "\n" +
		"q quit · a autoscroll"
}
