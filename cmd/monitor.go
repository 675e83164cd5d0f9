// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 HM Lab

package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/hmlab/hubctl/pkg/device"
	"github.com/hmlab/hubctl/pkg/hubproto"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Live device log and power monitor",
	Long: `Live TUI showing USB power telemetry and the device's log stream.

The device pushes power samples and log lines continuously; this command
renders both until you quit with q or Ctrl+C. There is no protocol-level
stop message; leaving the monitor simply stops reading.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}

// Messages from the session reader goroutine
type powerMsg hubproto.PowerStats
type logMsg string
type monitorErrMsg struct{ err error }

// Styles
var (
	monitorTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("6")).Padding(0, 1)
	monitorHintStyle  = lipgloss.NewStyle().Faint(true)
	ratingStyles      = map[string]lipgloss.Style{
		"Healthy":  lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		"Warning":  lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		"Critical": lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
	}
)

const monitorMaxLogLines = 500

type monitorModel struct {
	viewport viewport.Model
	logs     []string
	stats    *hubproto.PowerStats
	width    int
	height   int
	ready    bool
	err      error
}

func (m monitorModel) Init() tea.Cmd {
	return nil
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// Title, power line, blank line, footer
		vpHeight := msg.Height - 4
		if vpHeight < 1 {
			vpHeight = 1
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = vpHeight
		}
		m.refreshLog()

	case powerMsg:
		stats := hubproto.PowerStats(msg)
		m.stats = &stats

	case logMsg:
		line := fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), string(msg))
		m.logs = append(m.logs, line)
		if len(m.logs) > monitorMaxLogLines {
			m.logs = m.logs[len(m.logs)-monitorMaxLogLines:]
		}
		m.refreshLog()

	case monitorErrMsg:
		m.err = msg.err
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *monitorModel) refreshLog() {
	if !m.ready {
		return
	}
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(lipgloss.NewStyle().Width(m.viewport.Width).Render(joinLines(m.logs)))
	if atBottom {
		m.viewport.GotoBottom()
	}
}

func joinLines(lines []string) string {
	if len(lines) == 0 {
		return "(no device log output yet)"
	}
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}

func (m monitorModel) View() string {
	if !m.ready {
		return "starting monitor..."
	}

	power := "waiting for power telemetry..."
	if m.stats != nil {
		rating := hubproto.PowerRating(m.stats.BusVoltage)
		style, ok := ratingStyles[rating]
		if !ok {
			style = lipgloss.NewStyle()
		}
		power = style.Render(hubproto.FormatPowerStats(*m.stats))
	}

	return fmt.Sprintf("%s\n%s\n%s\n%s",
		monitorTitleStyle.Render("Z-NEO hub monitor"),
		power,
		m.viewport.View(),
		monitorHintStyle.Render("q to quit"),
	)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	s, err := OpenSession()
	if err != nil {
		return err
	}
	defer s.Close()

	p := tea.NewProgram(monitorModel{}, tea.WithAltScreen())

	go func() {
		for {
			ev, err := s.ReadEvent()
			if err != nil {
				// A quiet device is not an error; keep listening.
				var timeout *device.TimeoutError
				if errors.As(err, &timeout) {
					continue
				}
				p.Send(monitorErrMsg{err: err})
				return
			}
			switch ev := ev.(type) {
			case device.PowerEvent:
				p.Send(powerMsg(ev.Stats))
			case device.LogEvent:
				p.Send(logMsg(ev.Message))
			}
		}
	}()

	final, err := p.Run()
	if err != nil {
		return err
	}
	if m, ok := final.(monitorModel); ok && m.err != nil {
		return m.err
	}
	return nil
}
