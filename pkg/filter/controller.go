package filter

import "ethlookup/pkg/models"

// Controller holds the list interaction state: the filter text, the focus
// pointer, the selected item and the global details toggle.
type Controller struct {
	query       string
	direction   Direction
	focus       string
	selected    string
	showDetails bool
}

func NewController() *Controller {
	return &Controller{direction: DirectionAll}
}

func (c *Controller) SetQuery(q string) { c.query = q }
func (c *Controller) Query() string     { return c.query }

func (c *Controller) CycleDirection() Direction {
	c.direction = c.direction.Next()
	return c.direction
}

func (c *Controller) Direction() Direction { return c.direction }

// ShowAccount is false while a filter is active; the account summary and
// filtering are mutually exclusive.
func (c *Controller) ShowAccount() bool {
	return c.query == ""
}

// Apply returns the visible subset of txs for account.
func (c *Controller) Apply(txs []models.Transaction, account string) []models.Transaction {
	return Filter(ByDirection(txs, account, c.direction), c.query)
}

// Focus points at the transaction with hash and selects it. Focus is a weak
// reference: it has no effect when the hash is not visible. Unlike Select it
// leaves the details pane as it was.
func (c *Controller) Focus(hash string) {
	c.focus = hash
	c.selected = hash
}

func (c *Controller) Focused() string { return c.focus }

// Select moves the selection to id. A change of selection collapses the
// details and drops the focus pointer.
func (c *Controller) Select(id string) {
	if id == c.selected {
		return
	}
	c.selected = id
	c.showDetails = false
	c.focus = ""
}

func (c *Controller) Selected() string { return c.selected }

func (c *Controller) ToggleDetails() bool {
	c.showDetails = !c.showDetails
	return c.showDetails
}

func (c *Controller) ShowDetails() bool { return c.showDetails }

// FocusIndex returns the position of the focused transaction in visible, or -1.
func (c *Controller) FocusIndex(visible []models.Transaction) int {
	if c.focus == "" {
		return -1
	}
	for i, tx := range visible {
		if tx.Hash == c.focus {
			return i
		}
	}
	return -1
}
