package main

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/BYTE-6D65/timebase/pkg/clock"
	"github.com/BYTE-6D65/timebase/pkg/feed"
	"github.com/BYTE-6D65/timebase/pkg/timestamp"
)

const (
	demoSampleRate = 48000.0
	refreshEvery   = 100 * time.Millisecond
	anchorEvery    = 10 // Publish a render anchor every N refreshes (1s)
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#7D56F4")).
		PaddingLeft(2)

	panelStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#7D56F4")).
		Padding(1, 2).
		MarginLeft(2)

	labelStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#626262"))

	valueStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#50FA7B"))

	warnStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFB800")).
		Bold(true)

	helpStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#626262")).
		PaddingTop(1).
		PaddingLeft(2)
)

// Messages
type refreshMsg struct{}

type anchorUpdateMsg feed.Update

// model holds the inspector state.
type model struct {
	sourceName string
	source     clock.Source
	manual     *clock.ManualSource // non-nil when the source is synthetic

	tracker *timestamp.AnchorTracker
	anchors *feed.Feed
	sub     *feed.Subscription

	startTicks clock.Ticks
	refreshes  int

	now      timestamp.Timestamp
	resolved timestamp.Timestamp

	latestJSON string

	width  int
	height int
}

func initialModel(sourceName string, src clock.Source) (model, error) {
	anchors := feed.New(feed.WithBufferSize(16), feed.WithDropSlow(true))
	sub, err := anchors.Subscribe("demo:*")
	if err != nil {
		return model{}, err
	}

	manual, _ := src.(*clock.ManualSource)

	return model{
		sourceName: sourceName,
		source:     src,
		manual:     manual,
		tracker:    timestamp.NewAnchorTracker(),
		anchors:    anchors,
		sub:        sub,
		startTicks: src.Ticks(),
	}, nil
}

func (m model) Init() tea.Cmd {
	return tea.Batch(refresh(), waitForAnchor(m.sub))
}

func refresh() tea.Cmd {
	return tea.Tick(refreshEvery, func(t time.Time) tea.Msg {
		return refreshMsg{}
	})
}

func waitForAnchor(sub *feed.Subscription) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-sub.Updates()
		if !ok {
			return nil
		}
		return anchorUpdateMsg(u)
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.anchors.Close()
			return m, tea.Quit
		case "a":
			m.publishAnchor()
			return m, nil
		case "r":
			m.startTicks = m.source.Ticks()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case refreshMsg:
		// The synthetic counter only moves when we move it
		if m.manual != nil {
			m.manual.Advance(refreshEvery)
		}

		m.refreshes++
		m.now = timestamp.Now()
		m.resolved = m.tracker.Resolve(m.now)

		if m.refreshes%anchorEvery == 0 {
			m.publishAnchor()
		}
		return m, refresh()

	case anchorUpdateMsg:
		u := feed.Update(msg)
		if data, err := feed.Encode(u); err == nil {
			m.latestJSON = string(data)
		}
		m.tracker.Observe(u.Timestamp())
		return m, waitForAnchor(m.sub)
	}

	return m, nil
}

// publishAnchor simulates the render callback: the device knows both the
// host ticks and the frame position of the buffer it is about to play.
func (m *model) publishAnchor() {
	nowTicks := m.source.Ticks()
	elapsed := timestamp.AtHostTicks(nowTicks).Seconds(m.startTicks)
	frame := int64(elapsed * demoSampleRate)

	anchor := timestamp.Resolved(nowTicks, frame, demoSampleRate)
	u, err := feed.NewUpdate("demo:render", anchor)
	if err != nil {
		return
	}
	_ = m.anchors.Publish(context.Background(), u)
}

func (m model) View() string {
	s := titleStyle.Render("⏱  Timebase Inspector") + "\n\n"

	s += panelStyle.Render(m.renderClockPanel()) + "\n"
	s += panelStyle.Render(m.renderAnchorPanel()) + "\n"

	s += helpStyle.Render("a: publish anchor now • r: reset reference • q: quit")
	return s
}

func (m model) renderClockPanel() string {
	degraded := ""
	if timestamp.ConversionDegraded() {
		degraded = "  " + warnStyle.Render("⚠ degraded (identity ratio)")
	}

	ticks, _ := m.now.HostTicks()

	return fmt.Sprintf("%s %s\n%s %d\n%s %.6f s\n%s %.6g s/tick • %.6g ticks/s%s",
		labelStyle.Render("Source:      "), valueStyle.Render(m.sourceName),
		labelStyle.Render("Host ticks:  "), ticks,
		labelStyle.Render("Elapsed:     "), m.now.Seconds(m.startTicks),
		labelStyle.Render("Conversion:  "), timestamp.TicksToSeconds(), timestamp.SecondsToTicks(),
		degraded)
}

func (m model) renderAnchorPanel() string {
	resolvedLine := "waiting for first anchor..."
	if m.resolved.FullyResolved() {
		frame, _ := m.resolved.SampleFrame()
		resolvedLine = fmt.Sprintf("frame %d @ %g Hz", frame, m.resolved.SampleRate())
	}

	latest := m.latestJSON
	if latest == "" {
		latest = "(none yet)"
	}

	return fmt.Sprintf("%s %d\n%s %s\n%s %s",
		labelStyle.Render("Anchors:     "), m.tracker.Observed(),
		labelStyle.Render("Now resolves:"), valueStyle.Render(resolvedLine),
		labelStyle.Render("Last update: "), latest)
}

func startTUI(sourceName string, src clock.Source) error {
	m, err := initialModel(sourceName, src)
	if err != nil {
		return err
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
