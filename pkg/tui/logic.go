package tui

import (
	"fmt"
	"strings"

	"ethlookup/pkg/lookup"
	"ethlookup/pkg/models"
	"ethlookup/pkg/snapshot"
	"ethlookup/pkg/utils"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Account rows use fixed ids; transaction rows use their hash.
const (
	itemAddress         = "address"
	itemName            = "ens"
	itemBalance         = "balance"
	itemLastTransaction = "last-transaction"
)

type item struct {
	id string
	tx *snapshot.Row
}

func (m model) snapshot() snapshot.Snapshot {
	return snapshot.Build(m.inputs, m.explorerURL)
}

// visibleTransactions applies the direction and text filters to the fetched list.
func (m model) visibleTransactions() []models.Transaction {
	txs, ok := m.inputs.Transactions.Get()
	if !ok {
		return nil
	}
	return m.controller.Apply(txs, m.address)
}

// items lists the selectable rows top to bottom: the account section, unless
// a filter is active, followed by the visible transactions.
func (m model) items() []item {
	var out []item
	if m.controller.ShowAccount() {
		out = append(out,
			item{id: itemAddress},
			item{id: itemName},
			item{id: itemBalance},
			item{id: itemLastTransaction},
		)
	}
	rows := snapshot.Rows(m.visibleTransactions(), m.explorerURL)
	for i := range rows {
		out = append(out, item{id: rows[i].Hash, tx: &rows[i]})
	}
	return out
}

// cursor is the index of the selected row, falling back to the first row when
// the selection is not visible.
func (m model) cursor(items []item) int {
	sel := m.controller.Selected()
	for i, it := range items {
		if it.id == sel {
			return i
		}
	}
	return 0
}

func (m model) selectedItem() (item, bool) {
	items := m.items()
	if len(items) == 0 {
		return item{}, false
	}
	return items[m.cursor(items)], true
}

func (m *model) moveCursor(delta int) {
	items := m.items()
	if len(items) == 0 {
		return
	}
	idx := m.cursor(items) + delta
	if idx < 0 {
		idx = 0
	}
	if idx >= len(items) {
		idx = len(items) - 1
	}
	m.controller.Select(items[idx].id)
	m.updateDetailViewport()
}

// focusLastTransaction jumps to the most recent transaction. It is a no-op
// unless the last-transaction row is selected and a transaction exists.
func (m *model) focusLastTransaction() bool {
	it, ok := m.selectedItem()
	if !ok || it.id != itemLastTransaction {
		return false
	}
	s := m.snapshot()
	if !s.HasLastTransaction {
		return false
	}
	m.controller.Focus(s.LastTransaction)
	m.updateDetailViewport()
	return true
}

// copyTarget is what "c" puts on the clipboard for the selected row.
func (m model) copyTarget() (string, string) {
	it, ok := m.selectedItem()
	if !ok {
		return "", ""
	}
	s := m.snapshot()
	switch it.id {
	case itemAddress:
		return s.Address, "Address"
	case itemName:
		if s.HasName {
			return s.Name, "ENS name"
		}
		return "", ""
	case itemBalance:
		return s.AddressURL, "Explorer URL"
	case itemLastTransaction:
		if s.HasLastTransaction {
			return s.LastTransaction, "Transaction hash"
		}
		return "", ""
	}
	return it.tx.Hash, "Transaction hash"
}

// openTarget is the explorer page for the selected row.
func (m model) openTarget() string {
	it, ok := m.selectedItem()
	if !ok {
		return ""
	}
	s := m.snapshot()
	switch it.id {
	case itemAddress, itemName, itemBalance:
		return s.AddressURL
	case itemLastTransaction:
		if s.HasLastTransaction {
			return snapshot.TxURL(m.explorerURL, s.LastTransaction)
		}
		return ""
	}
	return it.tx.URL
}

// activitySeries is the ETH moved by each visible transaction, oldest first.
// Incoming value is positive and outgoing value negative.
func (m model) activitySeries() []float64 {
	txs := m.visibleTransactions()
	series := make([]float64, 0, len(txs))
	for i := len(txs) - 1; i >= 0; i-- {
		v := utils.WeiToEther(txs[i].Value)
		if strings.EqualFold(txs[i].From, m.address) {
			v = -v
		}
		series = append(series, v)
	}
	return series
}

func (m *model) updateDetailViewport() {
	it, ok := m.selectedItem()
	if !ok || it.tx == nil {
		m.viewport.SetContent(subtleStyle.Render("Select a transaction to see its details."))
		return
	}
	m.viewport.SetContent(renderDetails(*it.tx))
	m.viewport.GotoTop()
}

// detailLines renders label/value pairs with the values aligned.
func detailLines(pairs ...string) string {
	width := 0
	for i := 0; i < len(pairs); i += 2 {
		width = max(width, len(pairs[i]))
	}
	lines := make([]string, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		lines = append(lines, fmt.Sprintf("%-*s %s", width+1, pairs[i]+":", pairs[i+1]))
	}
	return strings.Join(lines, "\n")
}

func renderDetails(r snapshot.Row) string {
	status := successStyle.Render("Success")
	if !r.Success {
		status = errStyle.Render("Failure")
	}
	date := "-"
	if !r.Date.IsZero() {
		date = r.Date.Local().Format("2006-01-02 15:04:05")
	}

	metadata := detailLines(
		"Hash", r.Hash,
		"Nonce", r.Nonce,
		"Block number", r.BlockNumber,
		"Block hash", r.BlockHash,
		"Timestamp", r.TimeStamp,
		"Date", date,
		"Confirmations", r.Confirmations,
	)
	data := detailLines(
		"From", r.From,
		"To", r.To,
		"Value", r.ValueETH,
		"Gas", r.Gas,
		"Gas price", r.GasPrice,
		"Gas used", r.GasUsed,
		"Cumulative gas used", r.CumulativeGasUsed,
	)
	txStatus := detailLines(
		"Transaction index", r.TransactionIndex,
		"Receipt status", r.ReceiptStatus,
		"Is error", r.IsError,
	)

	sections := []string{
		sectionStyle.Render("Metadata"), metadata, "",
		sectionStyle.Render("Data"), data, "",
		sectionStyle.Render("Status"), status, txStatus,
	}
	if r.Signature != "" {
		var pairs []string
		if r.ContractAddress != "" {
			pairs = append(pairs, "Contract address", r.ContractAddress)
		}
		pairs = append(pairs,
			"Input", utils.TruncateString(r.Input, 66),
			"Method ID", r.MethodID,
			"Function", r.FunctionName,
			"Signature", r.Signature,
		)
		sections = append(sections, "",
			sectionStyle.Render("Contract interaction"), detailLines(pairs...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func listenForEvents(sub lookup.Subscriber) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-sub
		if !ok {
			return nil
		}
		return ev
	}
}
