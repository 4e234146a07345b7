package lookup

import (
	"ethlookup/pkg/models"
	"ethlookup/pkg/snapshot"
)

// EventType defines the type of event being broadcast.
type EventType string

const (
	EventBalanceUpdated      EventType = "balance_updated"
	EventTransactionsUpdated EventType = "transactions_updated"
	EventPriceUpdated        EventType = "price_updated"
	EventNameUpdated         EventType = "name_updated"
	EventLookupSettled       EventType = "lookup_settled"
)

// Event reports one settled fetch of the lookup identified by Generation.
type Event struct {
	Type       EventType   `json:"type"`
	Generation uint64      `json:"generation"`
	Address    string      `json:"address"`
	Data       interface{} `json:"data,omitempty"`
}

// Subscriber is a channel that receives events.
type Subscriber chan Event

// Apply records the result carried by e into in. It reports whether in changed.
func (e Event) Apply(in *snapshot.Inputs) bool {
	switch e.Type {
	case EventBalanceUpdated:
		r, ok := e.Data.(models.BalanceResult)
		if ok {
			in.Balance = r
		}
		return ok
	case EventTransactionsUpdated:
		r, ok := e.Data.(models.TransactionsResult)
		if ok {
			in.Transactions = r
		}
		return ok
	case EventPriceUpdated:
		r, ok := e.Data.(models.PriceResult)
		if ok {
			in.Price = r
		}
		return ok
	case EventNameUpdated:
		r, ok := e.Data.(models.NameResult)
		if ok {
			in.Name = r
		}
		return ok
	}
	return false
}
