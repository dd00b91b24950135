// Terminal dashboard for a running gateway. Connects to the SSE telemetry
// stream and renders the fleet as a live table plus an event log.
package monitor

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"skylink-gateway/internal/telemetry"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// Monitor owns the TUI program and the stream feed behind it.
type Monitor struct {
	program teaProgram
	baseURL string
}

// New creates a Monitor pointed at the gateway's HTTP base URL.
func New(baseURL string) *Monitor {
	return &Monitor{baseURL: baseURL}
}

// Run blocks until the user quits or the context is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newTUIModel(), tea.WithAltScreen(), tea.WithContext(ctx))
	m.program = p

	go m.feed(ctx)

	_, err := p.Run()
	return err
}

// feed pumps stream frames into the program, reconnecting with backoff
// while the gateway is away.
func (m *Monitor) feed(ctx context.Context) {
	for ctx.Err() == nil {
		err := streamFrames(ctx, m.baseURL, func(frame telemetry.Frame) {
			m.program.Send(telemetryMsg{frame})
			m.program.Send(logMsg{line: frameLine(frame)})
		})
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			m.program.Send(errMsg{err: err})
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(2 * time.Second):
		}
	}
}

func frameLine(f telemetry.Frame) string {
	return fmt.Sprintf("[%s] drone=%s batt=%.0f%% pos=(%.5f,%.5f) alt=%.0f spd=%.1f sig=%.0f%% status=%s",
		f.UpdatedAt.Format(time.RFC3339), f.DroneID, f.Battery,
		f.Latitude, f.Longitude, f.Altitude, f.Speed, f.SignalQuality, f.Status)
}
