package filter

import (
	"strings"

	"ethlookup/pkg/models"
)

// Matches reports whether query is a case-sensitive substring of any
// searchable raw field of tx. The empty query matches everything.
func Matches(tx models.Transaction, query string) bool {
	if query == "" {
		return true
	}
	for _, field := range []string{
		tx.BlockHash,
		tx.BlockNumber,
		tx.ContractAddress,
		tx.FunctionName,
		tx.Hash,
		tx.Input,
		tx.Nonce,
		tx.Value,
		tx.To,
	} {
		if strings.Contains(field, query) {
			return true
		}
	}
	return false
}

// Filter returns the transactions matching query in their original order.
func Filter(txs []models.Transaction, query string) []models.Transaction {
	if query == "" {
		return txs
	}
	out := make([]models.Transaction, 0, len(txs))
	for _, tx := range txs {
		if Matches(tx, query) {
			out = append(out, tx)
		}
	}
	return out
}

// Direction narrows the list to transactions sent from or received by the account.
type Direction string

const (
	DirectionAll Direction = "all"
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

func (d Direction) Next() Direction {
	switch d {
	case DirectionAll:
		return DirectionOut
	case DirectionOut:
		return DirectionIn
	default:
		return DirectionAll
	}
}

// ByDirection keeps order. account is compared case-insensitively.
func ByDirection(txs []models.Transaction, account string, d Direction) []models.Transaction {
	if d == DirectionAll || d == "" {
		return txs
	}
	var out []models.Transaction
	for _, tx := range txs {
		isFrom := strings.EqualFold(tx.From, account)
		if d == DirectionIn && !isFrom {
			out = append(out, tx)
		} else if d == DirectionOut && isFrom {
			out = append(out, tx)
		}
	}
	return out
}
