// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Felixrising

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/Felixrising/CYD-SmartShunt/pkg/vedirect"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Live telemetry dashboard",
	Long: `Full-screen dashboard showing the live VE.Direct telemetry: battery values
from the periodic Text blocks, the latest history block, stream statistics
and a scrolling anomaly log.

Keys: q quits, r resets statistics, up/down scroll the log.`,
	RunE: runTui,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

// Styles
var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Width(18)
	valueStyle  = lipgloss.NewStyle().Bold(true)
	alertStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	borderStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// Messages
type tickMsg time.Time

type streamMsg struct {
	record           *vedirect.TextRecord
	reply            *vedirect.HexReply
	validationErrors []vedirect.ValidationError
	err              error
}

type logEntry struct {
	timestamp time.Time
	message   string
	isError   bool
}

// TUI model
type tuiModel struct {
	connInfo string
	stream   chan streamMsg

	stats      *vedirect.Statistics
	lastRecord *vedirect.TextRecord
	lastHist   *vedirect.TextRecord
	log        []logEntry
	logView    viewport.Model

	width    int
	height   int
	quitting bool
}

const maxLogEntries = 200

func runTui(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	stream := make(chan streamMsg, 64)
	go readStream(conn, stream)

	m := tuiModel{
		connInfo: connInfo,
		stream:   stream,
		stats:    vedirect.NewStatistics(),
		logView:  viewport.New(80, 8),
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

// readStream decodes connection bytes into stream messages.
func readStream(conn Connection, stream chan<- streamMsg) {
	reader := vedirect.NewReader()
	buf := make([]byte, 256)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			stream <- streamMsg{err: err}
			return
		}
		for i := 0; i < n; i++ {
			record, reply, decodeErr := reader.ReadByte(buf[i])
			if decodeErr != nil {
				stream <- streamMsg{err: decodeErr}
				continue
			}
			if reply != nil {
				stream <- streamMsg{reply: reply}
			}
			if record != nil {
				stream <- streamMsg{
					record:           record,
					validationErrors: vedirect.ValidateRecord(record),
				}
			}
		}
	}
}

func waitForStream(stream chan streamMsg) tea.Cmd {
	return func() tea.Msg {
		return <-stream
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	return tea.Batch(waitForStream(m.stream), tick())
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "r":
			m.stats.Reset()
			return m, nil
		}
		var cmd tea.Cmd
		m.logView, cmd = m.logView.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.logView.Width = msg.Width - 4
		m.logView.Height = max(4, msg.Height-18)
		return m, nil

	case tickMsg:
		return m, tick()

	case streamMsg:
		m.apply(msg)
		return m, waitForStream(m.stream)
	}

	return m, nil
}

func (m *tuiModel) apply(msg streamMsg) {
	switch {
	case msg.err != nil:
		m.stats.UpdateHex(msg.err)
		m.appendLog(msg.err.Error(), true)
	case msg.reply != nil:
		m.stats.UpdateHex(nil)
		m.appendLog(strings.TrimSuffix(vedirect.FormatHexReply(msg.reply), "\n"), false)
	case msg.record != nil:
		m.stats.UpdateRecord(msg.record, msg.validationErrors)
		if msg.record.IsHistory() {
			m.lastHist = msg.record
		} else {
			m.lastRecord = msg.record
		}
		for _, e := range msg.validationErrors {
			m.appendLog(e.Message, true)
		}
	}
}

func (m *tuiModel) appendLog(message string, isError bool) {
	m.log = append(m.log, logEntry{timestamp: time.Now(), message: message, isError: isError})
	if len(m.log) > maxLogEntries {
		m.log = m.log[len(m.log)-maxLogEntries:]
	}
	var sb strings.Builder
	for _, entry := range m.log {
		line := fmt.Sprintf("%s %s", entry.timestamp.Format("15:04:05"), entry.message)
		if entry.isError {
			line = alertStyle.Render(line)
		}
		sb.WriteString(line + "\n")
	}
	m.logView.SetContent(sb.String())
	m.logView.GotoBottom()
}

func (m tuiModel) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("SmartShunt - VE.Direct Dashboard"))
	sb.WriteString("  " + m.connInfo + "\n\n")

	sb.WriteString(borderStyle.Render(m.telemetryView()) + "\n")
	sb.WriteString(borderStyle.Render(m.statsView()) + "\n")
	sb.WriteString(m.logView.View() + "\n")
	sb.WriteString(labelStyle.Render("q: quit  r: reset stats"))
	return sb.String()
}

func (m tuiModel) telemetryView() string {
	if m.lastRecord == nil {
		return "waiting for telemetry..."
	}
	age := time.Since(m.lastRecord.Timestamp)
	fresh := okStyle.Render("live")
	if age > 3*time.Second {
		fresh = alertStyle.Render(fmt.Sprintf("stale (%s)", age.Round(time.Second)))
	}

	rows := []struct {
		label string
		field string
		unit  string
	}{
		{"Voltage", "V", " mV"},
		{"Current", "I", " mA"},
		{"Power", "P", " W"},
		{"Consumed", "CE", " mAh"},
		{"State of charge", "SOC", " ‰"},
		{"Time to go", "TTG", " min"},
		{"Alarm", "Alarm", ""},
		{"Relay", "Relay", ""},
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Telemetry (%s)\n", fresh)
	for _, row := range rows {
		value, ok := m.lastRecord.Get(row.field)
		if !ok {
			value = "-"
		}
		sb.WriteString(labelStyle.Render(row.label) + valueStyle.Render(value+row.unit) + "\n")
	}
	if m.lastHist != nil {
		sb.WriteString(labelStyle.Render("History") + vedirect.FormatRecordLine(m.lastHist))
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func (m tuiModel) statsView() string {
	m.stats.CalculateRates()
	return fmt.Sprintf("records %d  valid %d  checksum errs %d  anomalies %d  hex %d  rate %.1f/s",
		m.stats.TotalRecords, m.stats.ValidRecords, m.stats.ChecksumErrors,
		m.stats.AnomalousValues, m.stats.HexReplies, m.stats.RecordRate)
}
