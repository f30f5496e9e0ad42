// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Thermoquad/turtlelink/pkg/kobuki"
	"github.com/Thermoquad/turtlelink/pkg/link"
)

//////////////////////////////////////////////////////////////
// Constants
//////////////////////////////////////////////////////////////

const (
	driveInterval = 100 * time.Millisecond // Base control is resent at this rate
	speedStep     = 50                     // mm/s per key press
	maxSpeed      = 700                    // mm/s
	spinSpeed     = 150                    // mm/s wheel speed while rotating in place
)

// Focus states
const (
	focusDrive = iota
	focusSpeedInput
	focusSoundList
)

// LED colors cycled by the "l" key
var ledCycle = []kobuki.GPO{
	{},
	{LED1Green: true, LED2Green: true},
	{LED1Red: true, LED1Green: true, LED2Red: true, LED2Green: true},
	{LED1Red: true, LED2Red: true},
}

//////////////////////////////////////////////////////////////
// Types
//////////////////////////////////////////////////////////////

// soundItem is one built-in sequence in the sound list
type soundItem kobuki.SoundSequence

// Implement list.Item interface
func (s soundItem) Title() string       { return kobuki.SoundSequence(s).String() }
func (s soundItem) Description() string { return fmt.Sprintf("sequence %d", uint8(s)) }
func (s soundItem) FilterValue() string { return kobuki.SoundSequence(s).String() }

// controller is the part of the link runtime the TUI drives
type controller interface {
	BaseControl(speed, radius uint16) error
	SoundSequence(seq kobuki.SoundSequence) error
	GPO(g kobuki.GPO) error
	RequestExtra(hw, fw, udid bool) error
	GetControllerGain() error
}

// controlModel is the Bubble Tea model for the control TUI
type controlModel struct {
	rt       controller
	connInfo string

	// Drive state
	speed    int16 // mm/s, negative is backwards
	radius   int16 // mm, 0 is straight, 1 rotates in place
	lastSent time.Time
	ledIndex int

	// Monitoring
	stats         *kobuki.Statistics
	errorLog      []errorLogEntry
	maxLogEntries int
	lastFeedback  *kobuki.Feedback
	hardware      *kobuki.Version
	firmware      *kobuki.Version
	udid          string
	gains         *kobuki.ControllerInfo

	// Controls
	speedInput   textinput.Model
	soundList    list.Model
	focusedField int

	// UI state
	width          int
	height         int
	synchronized   bool
	quitting       bool
	connectionLost bool
}

//////////////////////////////////////////////////////////////
// Messages
//////////////////////////////////////////////////////////////

type controlTickMsg time.Time

type controlBatchMsg struct {
	feedbacks []*kobuki.Feedback
}

type connectionLostMsg struct {
	err error
}

type reconnectedMsg struct {
	connInfo string
}

//////////////////////////////////////////////////////////////
// Model Initialization
//////////////////////////////////////////////////////////////

func initialControlModel(rt controller, stats *kobuki.Statistics, connInfo string) controlModel {
	ti := textinput.New()
	ti.Placeholder = "200"
	ti.CharLimit = 5
	ti.Width = 10

	items := make([]list.Item, 0, int(kobuki.SequenceCleaningEnd)+1)
	for s := kobuki.SequenceOn; s <= kobuki.SequenceCleaningEnd; s++ {
		items = append(items, soundItem(s))
	}
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	delegate.SetHeight(1)
	delegate.SetSpacing(0)
	soundList := list.New(items, delegate, 24, len(items)+2)
	soundList.Title = "Sounds"
	soundList.SetShowStatusBar(false)
	soundList.SetShowHelp(false)
	soundList.SetFilteringEnabled(false)

	return controlModel{
		rt:            rt,
		connInfo:      connInfo,
		stats:         stats,
		errorLog:      make([]errorLogEntry, 0),
		maxLogEntries: 100,
		speedInput:    ti,
		soundList:     soundList,
		focusedField:  focusDrive,
		width:         80,
		height:        24,
	}
}

//////////////////////////////////////////////////////////////
// Bubble Tea Interface
//////////////////////////////////////////////////////////////

func (m controlModel) Init() tea.Cmd {
	return controlTickCmd()
}

func controlTickCmd() tea.Cmd {
	return tea.Tick(driveInterval, func(t time.Time) tea.Msg {
		return controlTickMsg(t)
	})
}

func (m controlModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case controlTickMsg:
		// Keep the base moving while a nonzero speed is held
		if m.speed != 0 && !m.connectionLost {
			m.sendDrive()
		}
		return m, controlTickCmd()

	case controlBatchMsg:
		if !m.synchronized {
			m.synchronized = true
			m.addLogEntry("Synchronized", false)
		}
		for _, f := range msg.feedbacks {
			m.processFeedback(f)
		}

	case connectionLostMsg:
		m.connectionLost = true
		m.speed, m.radius = 0, 0
		m.addLogEntry(fmt.Sprintf("Connection lost (%v) - reconnecting...", msg.err), true)

	case reconnectedMsg:
		m.connectionLost = false
		m.connInfo = msg.connInfo
		m.synchronized = false
		m.addLogEntry("Reconnected", false)
	}

	return m, nil
}

func (m controlModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "tab":
		return m.cycleFocus(1), nil

	case "shift+tab":
		return m.cycleFocus(-1), nil

	case "esc":
		m.focusedField = focusDrive
		m.speedInput.Blur()
		return m, nil
	}

	switch m.focusedField {
	case focusSpeedInput:
		if msg.String() == "enter" {
			m.applySpeedInput()
			return m, nil
		}
		var cmd tea.Cmd
		m.speedInput, cmd = m.speedInput.Update(msg)
		return m, cmd

	case focusSoundList:
		if msg.String() == "enter" {
			if item, ok := m.soundList.SelectedItem().(soundItem); ok {
				m.send(fmt.Sprintf("Sound %s", kobuki.SoundSequence(item)),
					m.rt.SoundSequence(kobuki.SoundSequence(item)))
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.soundList, cmd = m.soundList.Update(msg)
		return m, cmd
	}

	return m.handleDriveKey(msg.String())
}

// handleDriveKey applies a key in the drive panel
func (m controlModel) handleDriveKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "up", "w":
		if m.radius != 0 {
			m.speed = 0
		}
		m.radius = 0
		m.speed = clampSpeed(int(m.speed) + speedStep)
		m.sendDrive()

	case "down", "s":
		if m.radius != 0 {
			m.speed = 0
		}
		m.radius = 0
		m.speed = clampSpeed(int(m.speed) - speedStep)
		m.sendDrive()

	case "left", "a":
		m.speed, m.radius = spinSpeed, 1
		m.sendDrive()

	case "right", "d":
		m.speed, m.radius = -spinSpeed, 1
		m.sendDrive()

	case " ", "space":
		m.speed, m.radius = 0, 0
		m.sendDrive()

	case "l":
		m.ledIndex = (m.ledIndex + 1) % len(ledCycle)
		m.send(fmt.Sprintf("LEDs 0x%03X", ledCycle[m.ledIndex].Flags()), m.rt.GPO(ledCycle[m.ledIndex]))

	case "x":
		m.send("Request versions and UDID", m.rt.RequestExtra(true, true, true))

	case "g":
		m.send("Request controller gains", m.rt.GetControllerGain())
	}

	return m, nil
}

func clampSpeed(v int) int16 {
	if v > maxSpeed {
		return maxSpeed
	}
	if v < -maxSpeed {
		return -maxSpeed
	}
	return int16(v)
}

func (m controlModel) cycleFocus(delta int) controlModel {
	const focusCount = focusSoundList + 1
	m.focusedField = (m.focusedField + delta + focusCount) % focusCount

	if m.focusedField == focusSpeedInput {
		m.speedInput.Focus()
	} else {
		m.speedInput.Blur()
	}
	return m
}

// applySpeedInput drives straight at the typed speed
func (m *controlModel) applySpeedInput() {
	v, err := strconv.Atoi(strings.TrimSpace(m.speedInput.Value()))
	if err != nil {
		m.addLogEntry(fmt.Sprintf("Invalid speed %q", m.speedInput.Value()), true)
		return
	}
	m.speed, m.radius = clampSpeed(v), 0
	m.sendDrive()
	m.speedInput.SetValue("")
}

// sendDrive sends the current speed and radius
func (m *controlModel) sendDrive() {
	if m.connectionLost {
		return
	}
	err := m.rt.BaseControl(uint16(m.speed), uint16(m.radius))
	if err != nil {
		m.addLogEntry(fmt.Sprintf("Base control failed: %v", err), true)
		return
	}
	m.lastSent = time.Now()
}

// send logs the outcome of a one-shot command
func (m *controlModel) send(what string, err error) {
	switch {
	case m.connectionLost:
		m.addLogEntry("Cannot send command: connection lost", true)
	case err != nil:
		m.addLogEntry(fmt.Sprintf("%s failed: %v", what, err), true)
	default:
		m.addLogEntry(what, false)
	}
}

func (m *controlModel) addLogEntry(message string, isError bool) {
	m.errorLog = append(m.errorLog, errorLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	})
	if len(m.errorLog) > m.maxLogEntries {
		m.errorLog = m.errorLog[len(m.errorLog)-m.maxLogEntries:]
	}
}

//////////////////////////////////////////////////////////////
// Data Processing
//////////////////////////////////////////////////////////////

func (m *controlModel) processFeedback(f *kobuki.Feedback) {
	if f.BasicSensor != nil {
		prev := m.lastFeedback
		m.lastFeedback = f
		if prev != nil && prev.BasicSensor.Bumper == 0 && f.BasicSensor.Bumper != 0 {
			m.addLogEntry("Bumper pressed", true)
		}
		if prev != nil && prev.BasicSensor.Button != f.BasicSensor.Button && f.BasicSensor.Button != 0 {
			m.addLogEntry(fmt.Sprintf("Button 0x%02X pressed", f.BasicSensor.Button), false)
		}
	}
	if f.HardwareVersion != nil {
		v := f.HardwareVersion.Version
		m.hardware = &v
		m.addLogEntry(fmt.Sprintf("Hardware %s", v), false)
	}
	if f.FirmwareVersion != nil {
		v := f.FirmwareVersion.Version
		m.firmware = &v
		m.addLogEntry(fmt.Sprintf("Firmware %s", v), false)
	}
	if f.UniqueDeviceID != nil {
		m.udid = f.UniqueDeviceID.String()
	}
	if f.ControllerInfo != nil {
		m.gains = f.ControllerInfo
		p, i, d := f.ControllerInfo.Gains()
		m.addLogEntry(fmt.Sprintf("Gains P=%.3f I=%.3f D=%.3f", p, i, d), false)
	}
}

//////////////////////////////////////////////////////////////
// View
//////////////////////////////////////////////////////////////

var (
	focusedBoxStyle    = boxStyle.BorderForeground(lipgloss.Color("12"))
	buttonStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("12")).Padding(0, 2)
	focusedButtonStyle = buttonStyle.Background(lipgloss.Color("10"))
)

func (m controlModel) View() string {
	if m.quitting {
		return "Stopping base...\n"
	}

	var s strings.Builder

	s.WriteString(titleStyle.Render("TURTLELINK CONTROL"))
	s.WriteString(" ")
	connStatus := m.connInfo
	if m.connectionLost {
		connStatus = warningStyle.Render("RECONNECTING...")
	}
	s.WriteString(headerStyle.Render(fmt.Sprintf("| %s | q=quit Tab=switch", connStatus)))
	s.WriteString("\n\n")

	// Layout: left panel (sounds) | right panel (drive)
	leftWidth := 26
	rightWidth := m.width - leftWidth - 6
	if rightWidth < 30 {
		rightWidth = 30
	}

	listStyle := boxStyle.Width(leftWidth)
	if m.focusedField == focusSoundList {
		listStyle = focusedBoxStyle.Width(leftWidth)
	}
	soundPanel := listStyle.Render(m.soundList.View())

	driveStyle := boxStyle.Width(rightWidth)
	if m.focusedField != focusSoundList {
		driveStyle = focusedBoxStyle.Width(rightWidth)
	}
	drivePanel := driveStyle.Render(m.renderDrivePanel())

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, soundPanel, " ", drivePanel))
	s.WriteString("\n\n")

	snap := m.stats.Snapshot()
	s.WriteString(renderStats(&snap))
	s.WriteString("\n\n")

	if m.lastFeedback != nil {
		s.WriteString(renderSensor(m.lastFeedback))
		s.WriteString("\n\n")
	}

	if info := m.renderDeviceInfo(); info != "" {
		s.WriteString(info)
		s.WriteString("\n\n")
	}

	s.WriteString(statsLabelStyle.Render("EVENTS"))
	s.WriteString("\n")
	s.WriteString(renderLog(m.errorLog, 8, m.width))

	return s.String()
}

func (m controlModel) renderDrivePanel() string {
	var s strings.Builder

	motion := "stopped"
	switch {
	case m.radius == 1 && m.speed > 0:
		motion = "rotating left"
	case m.radius == 1 && m.speed < 0:
		motion = "rotating right"
	case m.speed > 0:
		motion = "forward"
	case m.speed < 0:
		motion = "reverse"
	}
	s.WriteString(fmt.Sprintf("%s %s   %s %s\n",
		statsLabelStyle.Render("Speed:"), statsValueStyle.Render(fmt.Sprintf("%d mm/s", m.speed)),
		statsLabelStyle.Render("Motion:"), statsValueStyle.Render(motion),
	))
	if !m.lastSent.IsZero() {
		s.WriteString(headerStyle.Render(fmt.Sprintf("last command %s ago", time.Since(m.lastSent).Truncate(time.Millisecond))))
	}
	s.WriteString("\n\n")

	s.WriteString(statsLabelStyle.Render("Set speed: "))
	if m.focusedField == focusSpeedInput {
		s.WriteString(m.speedInput.View())
	} else {
		val := m.speedInput.Value()
		if val == "" {
			val = m.speedInput.Placeholder
		}
		s.WriteString(fmt.Sprintf("[%s]", val))
	}
	s.WriteString("\n\n")

	stop := buttonStyle.Render("[ Space: Stop ]")
	if m.speed != 0 {
		stop = focusedButtonStyle.Render("[ Space: Stop ]")
	}
	s.WriteString(stop)
	s.WriteString("\n")
	s.WriteString(headerStyle.Render("↑/w ↓/s speed  ←/a →/d rotate  l LEDs  x versions  g gains"))

	return s.String()
}

func (m controlModel) renderDeviceInfo() string {
	var parts []string
	if m.hardware != nil {
		parts = append(parts, fmt.Sprintf("%s %s", statsLabelStyle.Render("HW:"), statsValueStyle.Render(m.hardware.String())))
	}
	if m.firmware != nil {
		parts = append(parts, fmt.Sprintf("%s %s", statsLabelStyle.Render("FW:"), statsValueStyle.Render(m.firmware.String())))
	}
	if m.udid != "" {
		parts = append(parts, fmt.Sprintf("%s %s", statsLabelStyle.Render("UDID:"), statsValueStyle.Render(m.udid)))
	}
	if m.gains != nil {
		p, i, d := m.gains.Gains()
		parts = append(parts, fmt.Sprintf("%s %s", statsLabelStyle.Render("PID:"),
			statsValueStyle.Render(fmt.Sprintf("%.3f/%.3f/%.3f", p, i, d))))
	}
	if len(parts) == 0 {
		return ""
	}
	return boxStyle.Width(m.width - 4).Render(strings.Join(parts, "   "))
}

// controller is satisfied by the link runtime
var _ controller = (*link.Runtime)(nil)
