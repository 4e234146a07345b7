package tui

import (
	"fmt"
	"time"

	"ethlookup/pkg/lookup"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = max(msg.Width-8, 0)
		m.viewport.Height = max(msg.Height/3, 5)
		m.search.Width = max(msg.Width-10, 10)

	case lookup.Event:
		// Re-subscribe to next event
		cmds = append(cmds, listenForEvents(m.sub))

		if msg.Generation != m.generation {
			m.logger.Debug("dropping stale event", "type", msg.Type, "generation", msg.Generation)
			break
		}
		if msg.Apply(&m.inputs) {
			m.updateDetailViewport()
		}

	case spinner.TickMsg:
		if m.loading() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case clearStatusMsg:
		m.statusMessage = ""

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, tea.Batch(cmds...)
}

func (m model) quit() (tea.Model, tea.Cmd) {
	if m.invalid == nil {
		m.service.Stop()
		m.service.Unsubscribe(m.sub)
	}
	return m, tea.Quit
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m.quit()
	}

	if m.invalid != nil {
		switch msg.String() {
		case "q", "esc":
			return m.quit()
		}
		return m, nil
	}

	if m.searching {
		switch msg.String() {
		case "esc", "enter":
			m.searching = false
			m.search.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		m.controller.SetQuery(m.search.Value())
		m.updateDetailViewport()
		return m, cmd
	}

	if msg.String() == "?" {
		m.showHelp = !m.showHelp
		return m, nil
	}
	if m.showHelp {
		if msg.String() == "q" || msg.String() == "esc" {
			m.showHelp = false
		}
		return m, nil
	}

	if m.showChart {
		switch msg.String() {
		case "g", "q", "esc":
			m.showChart = false
		case "t":
			m.controller.CycleDirection()
		}
		return m, nil
	}

	var cmds []tea.Cmd
	switch msg.String() {
	case "q":
		return m.quit()

	case "/":
		m.searching = true
		cmd := m.search.Focus()
		return m, cmd

	case "esc":
		if m.controller.Query() != "" {
			m.search.SetValue("")
			m.controller.SetQuery("")
		} else if m.controller.ShowDetails() {
			m.controller.ToggleDetails()
		}
		m.updateDetailViewport()

	case "up", "k":
		m.moveCursor(-1)
	case "down", "j":
		m.moveCursor(1)

	case "pgup", "pgdown":
		if m.controller.ShowDetails() {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			cmds = append(cmds, cmd)
		}

	case "d":
		m.controller.ToggleDetails()
		m.updateDetailViewport()

	case "f":
		if !m.focusLastTransaction() {
			m.statusMessage = "No transaction to focus on"
			cmds = append(cmds, clearStatusAfter(2*time.Second))
		}

	case "t":
		dir := m.controller.CycleDirection()
		m.updateDetailViewport()
		m.statusMessage = fmt.Sprintf("Showing %s transactions", dir)
		cmds = append(cmds, clearStatusAfter(2*time.Second))

	case "g":
		m.showChart = true

	case "o":
		url := m.openTarget()
		if url == "" {
			break
		}
		if err := openURL(url); err != nil {
			m.statusMessage = fmt.Sprintf("Failed to open browser: %v", err)
		} else {
			m.statusMessage = "Opened in browser"
		}
		cmds = append(cmds, clearStatusAfter(2*time.Second))

	case "c":
		value, label := m.copyTarget()
		if value == "" {
			break
		}
		if err := writeClipboard(value); err != nil {
			m.statusMessage = "Failed to copy to clipboard"
		} else {
			m.statusMessage = fmt.Sprintf("%s copied to clipboard!", label)
		}
		cmds = append(cmds, clearStatusAfter(2*time.Second))

	case "r":
		m.startLookup()
		m.updateDetailViewport()
		m.statusMessage = "Refreshing data..."
		cmds = append(cmds, m.spinner.Tick, clearStatusAfter(2*time.Second))
	}

	return m, tea.Batch(cmds...)
}
