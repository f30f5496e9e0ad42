// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Thermoquad/turtlelink/pkg/kobuki"
)

// Error log entry
type errorLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool // true for errors, false for warnings
}

// TUI model
type model struct {
	connInfo      string
	statsInterval int
	showAll       bool
	stats         *kobuki.Statistics
	errorLog      []errorLogEntry
	maxLogEntries int
	synchronized  bool
	skippedReads  uint64
	width         int
	height        int
	quitting      bool
	linkFailed    bool
	lastFeedback  *kobuki.Feedback
}

// Messages
type tickMsg time.Time
type feedbackMsg struct {
	batch []checked
}
type syncMsg struct {
	skippedReads uint64
}
type linkErrorMsg struct {
	err error
}

// formatUptime formats a duration in milliseconds to human-friendly string
func formatUptime(ms uint64) string {
	if ms == 0 {
		return "0 seconds"
	}

	seconds := ms / 1000
	minutes := seconds / 60
	hours := minutes / 60
	days := hours / 24

	seconds %= 60
	minutes %= 60
	hours %= 24

	plural := func(n uint64, unit string) string {
		if n == 1 {
			return "1 " + unit
		}
		return fmt.Sprintf("%d %ss", n, unit)
	}

	parts := []string{}
	if days > 0 {
		parts = append(parts, plural(days, "day"))
	}
	if hours > 0 {
		parts = append(parts, plural(hours, "hour"))
	}
	if minutes > 0 {
		parts = append(parts, plural(minutes, "minute"))
	}
	if seconds > 0 || len(parts) == 0 {
		parts = append(parts, plural(seconds, "second"))
	}

	// Join with commas and "and" for last item
	if len(parts) == 1 {
		return parts[0]
	}
	if len(parts) == 2 {
		return parts[0] + " and " + parts[1]
	}
	last := parts[len(parts)-1]
	rest := strings.Join(parts[:len(parts)-1], ", ")
	return rest + ", and " + last
}

func initialModel(connInfo string, statsInterval int, showAll bool, stats *kobuki.Statistics) model {
	return model{
		connInfo:      connInfo,
		statsInterval: statsInterval,
		showAll:       showAll,
		stats:         stats,
		errorLog:      make([]errorLogEntry, 0),
		maxLogEntries: 100,
		width:         80,
		height:        24,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		tea.EnterAltScreen,
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "r":
			m.stats.Reset()
			m.addLogEntry("Statistics reset", false)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		return m, tickCmd()

	case syncMsg:
		m.synchronized = true
		m.skippedReads = msg.skippedReads
		if msg.skippedReads > 0 {
			m.addLogEntry(fmt.Sprintf("Synchronized after skipping %d reads", msg.skippedReads), false)
		} else {
			m.addLogEntry("Synchronized", false)
		}

	case linkErrorMsg:
		m.linkFailed = true
		m.addLogEntry(fmt.Sprintf("LINK ERROR: %v", msg.err), true)

	case feedbackMsg:
		for _, r := range msg.batch {
			if r.feedback.BasicSensor != nil {
				m.lastFeedback = r.feedback
			}
			if len(r.anomalies) > 0 {
				for _, err := range r.anomalies {
					m.addLogEntry(fmt.Sprintf("%s: %s", err.Type, err.Message), true)
				}
			} else if m.showAll {
				m.addLogEntry(fmt.Sprintf("%d sub-records (valid)", len(r.feedback.Present())), false)
			}
		}
	}

	return m, nil
}

func (m *model) addLogEntry(message string, isError bool) {
	entry := errorLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	}
	m.errorLog = append(m.errorLog, entry)

	// Keep only last N entries
	if len(m.errorLog) > m.maxLogEntries {
		m.errorLog = m.errorLog[len(m.errorLog)-m.maxLogEntries:]
	}
}

// Shared styles
var (
	titleStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Background(lipgloss.Color("235")).Padding(0, 1)
	headerStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statsLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	statsValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	warningStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	boxStyle        = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
)

// renderStats renders the statistics box shared by the TUIs
func renderStats(snap *kobuki.Statistics) string {
	frames := snap.ValidFrames + snap.ChecksumErrors + snap.DroppedResidues
	frameErrors := snap.ChecksumErrors + snap.DroppedResidues + snap.UnknownSubrecords + snap.MalformedSubrecords
	var validPercent, errorPercent float64
	if frames > 0 {
		validPercent = float64(snap.ValidFrames) * 100.0 / float64(frames)
		errorPercent = float64(frameErrors) * 100.0 / float64(frames)
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
		statsLabelStyle.Render("Reads:"), statsValueStyle.Render(fmt.Sprintf("%d", snap.Reads)),
		statsLabelStyle.Render("Valid:"), statsValueStyle.Render(fmt.Sprintf("%d (%.1f%%)", snap.ValidFrames, validPercent)),
		statsLabelStyle.Render("Errors:"), errorStyle.Render(fmt.Sprintf("%d (%.1f%%)", frameErrors, errorPercent)),
	))

	if snap.ChecksumErrors > 0 || snap.DroppedResidues > 0 {
		b.WriteString(fmt.Sprintf("%s %s   %s %s\n",
			statsLabelStyle.Render("Checksum Errors:"), errorStyle.Render(fmt.Sprintf("%d", snap.ChecksumErrors)),
			statsLabelStyle.Render("Dropped Residues:"), errorStyle.Render(fmt.Sprintf("%d", snap.DroppedResidues)),
		))
	}

	if snap.UnknownSubrecords > 0 || snap.MalformedSubrecords > 0 {
		b.WriteString(fmt.Sprintf("%s %s   %s %s\n",
			statsLabelStyle.Render("Unknown:"), errorStyle.Render(fmt.Sprintf("%d", snap.UnknownSubrecords)),
			statsLabelStyle.Render("Malformed:"), errorStyle.Render(fmt.Sprintf("%d", snap.MalformedSubrecords)),
		))
	}

	if snap.RepairedFrames > 0 || snap.ShortReads > 0 {
		b.WriteString(fmt.Sprintf("%s %d   %s %d\n",
			headerStyle.Render("repaired"), snap.RepairedFrames,
			headerStyle.Render("short reads"), snap.ShortReads,
		))
	}

	if snap.Anomalies > 0 {
		b.WriteString(fmt.Sprintf("%s %s", statsLabelStyle.Render("Anomalies:"),
			warningStyle.Render(fmt.Sprintf("%d", snap.Anomalies))))
		var parts []string
		for t := kobuki.AnomalyBumper; t <= kobuki.AnomalyStaleTimestamp; t++ {
			if n := snap.AnomaliesByType[t]; n > 0 {
				parts = append(parts, fmt.Sprintf("%s: %d", headerStyle.Render(t.String()), n))
			}
		}
		if len(parts) > 0 {
			b.WriteString(" (" + strings.Join(parts, ", ") + ")")
		}
		b.WriteString("\n")
	}

	errRate := statsValueStyle.Render(fmt.Sprintf("%.1f err/s", snap.ErrorRate))
	if snap.ErrorRate > 0 {
		errRate = errorStyle.Render(fmt.Sprintf("%.1f err/s", snap.ErrorRate))
	}
	b.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s",
		statsLabelStyle.Render("Frame Rate:"), statsValueStyle.Render(fmt.Sprintf("%.1f frames/s", snap.FrameRate)),
		statsLabelStyle.Render("Error Rate:"), errRate,
		statsLabelStyle.Render("Running:"), statsValueStyle.Render(formatUptime(uint64(time.Since(snap.StartTime).Milliseconds()))),
	))

	return boxStyle.Render(b.String())
}

// renderSensor renders the latest BasicSensor block
func renderSensor(f *kobuki.Feedback) string {
	b := f.BasicSensor
	var s strings.Builder

	s.WriteString(fmt.Sprintf("%s %s   %s %s\n",
		statsLabelStyle.Render("Battery:"), statsValueStyle.Render(fmt.Sprintf("%.1fV", b.BatteryVolts())),
		statsLabelStyle.Render("Sensor Time:"), statsValueStyle.Render(fmt.Sprintf("%d ms", b.Timestamp)),
	))
	s.WriteString(fmt.Sprintf("%s L=%d R=%d   %s L=%d R=%d\n",
		statsLabelStyle.Render("Encoders:"), b.LeftEncoder, b.RightEncoder,
		statsLabelStyle.Render("PWM:"), int8(b.LeftPWM), int8(b.RightPWM),
	))

	safety := func(label string, v uint8) string {
		if v != 0 {
			return statsLabelStyle.Render(label) + " " + errorStyle.Render(fmt.Sprintf("0x%02X", v))
		}
		return statsLabelStyle.Render(label) + " " + statsValueStyle.Render("clear")
	}
	s.WriteString(strings.Join([]string{
		safety("Bumper:", b.Bumper),
		safety("Drop:", b.WheelDrop),
		safety("Cliff:", b.Cliff),
		safety("Overcurrent:", b.Overcurrent),
	}, "   "))

	if f.InertialSensor != nil {
		s.WriteString(fmt.Sprintf("\n%s %s",
			statsLabelStyle.Render("Heading:"),
			statsValueStyle.Render(fmt.Sprintf("%.2f° (%.2f°/s)", f.InertialSensor.Degrees(), f.InertialSensor.RateDegreesPerSecond())),
		))
	}

	return boxStyle.Render(s.String())
}

// renderLog renders the newest entries that fit in height lines
func renderLog(entries []errorLogEntry, height, width int) string {
	var logContent strings.Builder
	startIdx := len(entries) - height
	if startIdx < 0 {
		startIdx = 0
	}

	if len(entries) == 0 {
		logContent.WriteString(headerStyle.Render("  (no events yet)"))
	} else {
		for i := startIdx; i < len(entries); i++ {
			entry := entries[i]
			timestamp := entry.timestamp.Format("01/02/06 15:04:05.000")
			if entry.isError {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					errorStyle.Render("✗ "+entry.message),
				))
			} else {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					warningStyle.Render("ℹ "+entry.message),
				))
			}
		}
	}

	return boxStyle.Width(width - 4).Render(logContent.String())
}

func (m model) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render("TURTLELINK - ERROR DETECTION"))
	s.WriteString("\n")
	mode := "Anomalies only"
	if m.showAll {
		mode = "All feedback"
	}
	s.WriteString(headerStyle.Render(fmt.Sprintf("%s | Mode: %s | 'r' reset stats, 'q' quit", m.connInfo, mode)))
	s.WriteString("\n\n")

	// Sync status
	switch {
	case m.linkFailed:
		s.WriteString(errorStyle.Render("✗ Link lost"))
	case !m.synchronized:
		s.WriteString(warningStyle.Render("⏳ Waiting for synchronization..."))
	default:
		s.WriteString(statsValueStyle.Render("✓ Synchronized"))
		if m.skippedReads > 0 {
			s.WriteString(headerStyle.Render(fmt.Sprintf(" (skipped %d reads)", m.skippedReads)))
		}
	}
	s.WriteString("\n\n")

	snap := m.stats.Snapshot()
	s.WriteString(renderStats(&snap))
	s.WriteString("\n\n")

	if m.lastFeedback != nil {
		s.WriteString(statsLabelStyle.Render("Latest Sensors:"))
		s.WriteString("\n")
		s.WriteString(renderSensor(m.lastFeedback))
		s.WriteString("\n\n")
	}

	s.WriteString(statsLabelStyle.Render("Recent Events:"))
	s.WriteString("\n")

	logHeight := m.height - 20
	if logHeight < 5 {
		logHeight = 5
	}
	s.WriteString(renderLog(m.errorLog, logHeight, m.width))

	return s.String()
}
