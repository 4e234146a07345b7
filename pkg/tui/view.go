package tui

import (
	"fmt"
	"strings"

	"ethlookup/pkg/filter"
	"ethlookup/pkg/snapshot"
	"ethlookup/pkg/utils"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

func (m model) View() string {
	if m.invalid != nil {
		return m.viewInvalid()
	}
	if m.showHelp {
		return m.viewHelp()
	}
	if m.showChart {
		return m.viewChart()
	}

	s := m.snapshot()
	items := m.items()
	cursor := m.cursor(items)

	title := titleStyle.Render("Ethereum Lookup")
	if m.loading() {
		title = lipgloss.JoinHorizontal(lipgloss.Center, title, " ", m.spinner.View())
	}

	var blocks []string
	blocks = append(blocks, title, "")

	if m.searching || m.controller.Query() != "" {
		blocks = append(blocks, m.search.View(), "")
	}

	offset := 0
	if m.controller.ShowAccount() {
		blocks = append(blocks, m.viewAccount(s, cursor), "")
		offset = 4
	}
	blocks = append(blocks, m.viewTransactions(items, cursor, offset))

	if m.controller.ShowDetails() {
		blocks = append(blocks, "", boxStyle.Render(m.viewport.View()))
	}

	footer := subtleStyle.Render(fmt.Sprintf("/:search • ↑/↓:select • d:details • o:open • c:copy • f:focus • t:dir • g:chart • r:refresh • ?:help • q:quit • v%s", Version))
	if failed := failedFields(m.inputs); !m.loading() && len(failed) > 0 {
		footer = lipgloss.JoinVertical(lipgloss.Left, errStyle.Render("Unavailable: "+strings.Join(failed, ", ")), footer)
	}
	if m.statusMessage != "" {
		footer = lipgloss.JoinVertical(lipgloss.Left, infoStyle.Render(m.statusMessage), footer)
	}
	blocks = append(blocks, "", footer)

	return lipgloss.JoinVertical(lipgloss.Left, blocks...)
}

func cursorFor(selected bool) string {
	if selected {
		return "> "
	}
	return "  "
}

func (m model) viewAccount(s snapshot.Snapshot, cursor int) string {
	balance := s.ETHBalance
	if s.BalanceWei != "" {
		balance = fmt.Sprintf("%s (%s)", s.ETHBalance, s.USDBalance)
	}
	last := s.LastTransaction
	if s.HasLastTransaction {
		last = utils.CompressHash(last)
	}

	lines := []struct{ label, value string }{
		{"Address", s.Address},
		{"ENS", s.Name},
		{"Balance", balance},
		{"Last transaction sent", last},
	}

	var rows []string
	for i, l := range lines {
		row := fmt.Sprintf("%s%-22s %s", cursorFor(i == cursor), l.label, l.value)
		if i == cursor {
			row = selectedStyle.Render(row)
		}
		rows = append(rows, row)
	}
	return lipgloss.JoinVertical(lipgloss.Left, sectionStyle.Render("Account"), strings.Join(rows, "\n"))
}

func (m model) viewTransactions(items []item, cursor, offset int) string {
	header := "Transactions"
	if dir := m.controller.Direction(); dir != filter.DirectionAll {
		header = fmt.Sprintf("Transactions (%s)", dir)
	}

	var body string
	switch {
	case m.inputs.Transactions.IsPending():
		body = subtleStyle.Render(snapshot.LoadingText)
	case m.inputs.Transactions.IsFailed():
		body = errStyle.Render(snapshot.UnavailableText)
	case len(items) == offset:
		body = subtleStyle.Render("No transactions found.")
	default:
		var rows []string
		rows = append(rows, tableHeaderStyle.Render(fmt.Sprintf("  %-12s %-16s %-19s %-12s %-22s %s", "HASH", "FUNCTION", "DATE", "BLOCK", "VALUE", "STATUS")))
		focused := m.controller.FocusIndex(m.visibleTransactions())
		for i := offset; i < len(items); i++ {
			row := m.viewRow(*items[i].tx, i == cursor)
			if i-offset == focused {
				row += infoStyle.Render(" ◆")
			}
			rows = append(rows, row)
		}
		body = strings.Join(rows, "\n")
	}
	return lipgloss.JoinVertical(lipgloss.Left, sectionStyle.Render(header), body)
}

func (m model) viewRow(r snapshot.Row, selected bool) string {
	date := ""
	if !r.Date.IsZero() {
		date = r.Date.Local().Format("2006-01-02 15:04")
	}
	status := successStyle.Render("Success")
	if !r.Success {
		status = errStyle.Render("Failure")
	}
	line := fmt.Sprintf("%s%-12s %-16s %-19s %-12s %-22s ",
		cursorFor(selected),
		r.Compressed,
		utils.TruncateString(r.FunctionName, 16),
		date,
		r.BlockNumber,
		utils.TruncateString(r.ValueETH, 22),
	)
	if selected {
		line = selectedStyle.Render(line)
	}
	return line + status + subtleStyle.Render(" → "+r.ToCompressed)
}

func (m model) viewInvalid() string {
	content := boxStyle.Render(lipgloss.JoinVertical(lipgloss.Center,
		titleStyle.Render("Ethereum Lookup"),
		"\n",
		errStyle.Render(InvalidAddressText),
	))
	footer := subtleStyle.Render("q/esc: quit")
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center, content, "\n", footer))
}

func (m model) viewChart() string {
	header := titleStyle.Render(fmt.Sprintf("Activity: %s (%s)", utils.CompressHash(m.address), m.controller.Direction()))

	targetBoxWidth := max(m.width-4, 0)

	var graph, stats string
	series := m.activitySeries()
	if len(series) > 0 {
		var in, out float64
		for _, v := range series {
			if v >= 0 {
				in += v
			} else {
				out -= v
			}
		}
		stats = subtleStyle.Render(fmt.Sprintf("Txs: %d • In: %s ETH • Out: %s ETH",
			len(series), utils.FormatFloat(in, 4), utils.FormatFloat(out, 4)))
	}
	if len(series) >= 2 {
		graphWidth := max(targetBoxWidth-14, 10)
		graphHeight := max(m.height-12, 1)
		graph = asciigraph.Plot(series,
			asciigraph.Height(graphHeight),
			asciigraph.Width(graphWidth),
			asciigraph.Caption("ETH moved per transaction (in +, out -)"),
		)
	} else {
		graph = "Not enough data to draw graph."
	}

	content := boxStyle.Width(targetBoxWidth).Align(lipgloss.Center).Render(lipgloss.JoinVertical(lipgloss.Center, header, "\n", stats, "\n", graph))
	footer := subtleStyle.Render("t: direction • g/q/esc: back")
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, lipgloss.JoinVertical(lipgloss.Center, content, "\n", footer))
}

func (m model) viewHelp() string {
	shortcuts := []string{
		"/: Search transactions",
		"esc: Clear search / hide details",
		"↑/k ↓/j: Select",
		"pgup/pgdown: Scroll details",
		"d: Toggle details",
		"o: Open in explorer",
		"c: Copy address, name, URL or hash",
		"f: Focus on last transaction",
		"t: Cycle direction (all/out/in)",
		"g: Activity chart",
		"r: Refresh",
		"q: Quit",
		"?: Toggle Help",
	}

	header := titleStyle.Render("Help")
	content := boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, header, "\n", strings.Join(shortcuts, "\n")))
	footer := subtleStyle.Render("Press '?' or 'esc' to close")

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center, content, "\n", footer))
}

// failedFields names the fetches that failed, for the status line.
func failedFields(in snapshot.Inputs) []string {
	var out []string
	for _, f := range []struct {
		name string
		err  error
	}{
		{"balance", in.Balance.Err},
		{"transactions", in.Transactions.Err},
		{"price", in.Price.Err},
		{"name", in.Name.Err},
	} {
		if f.err != nil {
			out = append(out, f.name)
		}
	}
	return out
}
