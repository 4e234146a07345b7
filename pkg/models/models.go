package models

import (
	"encoding/json"
	"math/big"
	"time"
)

// Transaction holds one entry of an account's transaction list as returned by
// the account-data API. Numeric fields stay string-encoded to avoid precision loss.
type Transaction struct {
	BlockNumber       string    `json:"blockNumber"`
	TimeStamp         string    `json:"timeStamp"`
	Date              time.Time `json:"date"`
	Hash              string    `json:"hash"`
	Nonce             string    `json:"nonce"`
	BlockHash         string    `json:"blockHash"`
	TransactionIndex  string    `json:"transactionIndex"`
	From              string    `json:"from"`
	To                string    `json:"to"`
	Value             string    `json:"value"`
	Gas               string    `json:"gas"`
	GasPrice          string    `json:"gasPrice"`
	IsError           string    `json:"isError"`
	TxReceiptStatus   string    `json:"txreceipt_status"`
	Input             string    `json:"input"`
	ContractAddress   string    `json:"contractAddress"`
	CumulativeGasUsed string    `json:"cumulativeGasUsed"`
	GasUsed           string    `json:"gasUsed"`
	Confirmations     string    `json:"confirmations"`
	MethodID          string    `json:"methodId"`
	FunctionName      string    `json:"functionName"`
}

// Failed reports whether the receipt status marks the transaction as reverted.
func (t Transaction) Failed() bool {
	return t.TxReceiptStatus == "0"
}

// AsyncState is the state of a single fetch.
type AsyncState int

const (
	StatePending AsyncState = iota
	StateReady
	StateFailed
)

func (s AsyncState) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "pending"
	}
}

// AsyncResult wraps the outcome of one fetch: pending, ready with a value, or failed.
type AsyncResult[T any] struct {
	State AsyncState
	Value T
	Err   error
}

func Pending[T any]() AsyncResult[T] {
	return AsyncResult[T]{State: StatePending}
}

func Ready[T any](v T) AsyncResult[T] {
	return AsyncResult[T]{State: StateReady, Value: v}
}

func Failed[T any](err error) AsyncResult[T] {
	return AsyncResult[T]{State: StateFailed, Err: err}
}

// Settle converts a (value, error) pair into a ready or failed result.
func Settle[T any](v T, err error) AsyncResult[T] {
	if err != nil {
		return Failed[T](err)
	}
	return Ready(v)
}

func (r AsyncResult[T]) IsPending() bool { return r.State == StatePending }
func (r AsyncResult[T]) IsReady() bool   { return r.State == StateReady }
func (r AsyncResult[T]) IsFailed() bool  { return r.State == StateFailed }

// Get returns the value and true only when the result is ready.
func (r AsyncResult[T]) Get() (T, bool) {
	if r.State != StateReady {
		var zero T
		return zero, false
	}
	return r.Value, true
}

func (r AsyncResult[T]) MarshalJSON() ([]byte, error) {
	out := struct {
		State string `json:"state"`
		Value *T     `json:"value,omitempty"`
		Error string `json:"error,omitempty"`
	}{State: r.State.String()}
	switch r.State {
	case StateReady:
		v := r.Value
		out.Value = &v
	case StateFailed:
		if r.Err != nil {
			out.Error = r.Err.Error()
		}
	}
	return json.Marshal(out)
}

// BalanceResult, TransactionsResult, PriceResult and NameResult are the
// four fetches of one lookup.
type (
	BalanceResult      = AsyncResult[string]
	TransactionsResult = AsyncResult[[]Transaction]
	PriceResult        = AsyncResult[*big.Int]
	NameResult         = AsyncResult[string]
)
