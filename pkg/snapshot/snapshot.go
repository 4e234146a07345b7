package snapshot

import (
	"math/big"
	"strings"
	"time"

	"ethlookup/pkg/models"
	"ethlookup/pkg/utils"
)

const (
	LoadingText     = "Loading…"
	UnavailableText = "Unavailable"
	NoneText        = "None"
)

var weiPerEther = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// Inputs are the four fetch results of one lookup of Address.
type Inputs struct {
	Address      string
	Balance      models.BalanceResult
	Transactions models.TransactionsResult
	Price        models.PriceResult
	Name         models.NameResult
}

func NewInputs(address string) Inputs {
	return Inputs{
		Address:      address,
		Balance:      models.Pending[string](),
		Transactions: models.Pending[[]models.Transaction](),
		Price:        models.Pending[*big.Int](),
		Name:         models.Pending[string](),
	}
}

// Loading is true while any of the four fetches is pending.
func (in Inputs) Loading() bool {
	return in.Balance.IsPending() || in.Transactions.IsPending() ||
		in.Price.IsPending() || in.Name.IsPending()
}

// Row is the display form of one transaction.
type Row struct {
	Hash              string    `json:"hash"`
	Compressed        string    `json:"compressed"`
	FunctionName      string    `json:"function_name"`
	Signature         string    `json:"signature,omitempty"`
	MethodID          string    `json:"method_id,omitempty"`
	TimeStamp         string    `json:"timestamp"`
	Date              time.Time `json:"date"`
	BlockNumber       string    `json:"block_number"`
	BlockHash         string    `json:"block_hash"`
	Confirmations     string    `json:"confirmations"`
	TransactionIndex  string    `json:"transaction_index"`
	From              string    `json:"from"`
	To                string    `json:"to"`
	ToCompressed      string    `json:"to_compressed"`
	ContractAddress   string    `json:"contract_address,omitempty"`
	Nonce             string    `json:"nonce"`
	Value             string    `json:"value"`
	ValueETH          string    `json:"value_eth"`
	Gas               string    `json:"gas"`
	GasPrice          string    `json:"gas_price"`
	GasUsed           string    `json:"gas_used"`
	CumulativeGasUsed string    `json:"cumulative_gas_used"`
	Input             string    `json:"input"`
	ReceiptStatus     string    `json:"receipt_status"`
	IsError           string    `json:"is_error"`
	Success           bool      `json:"success"`
	URL               string    `json:"url"`
}

// Snapshot is the aggregated, render-ready state of a lookup.
type Snapshot struct {
	Address            string            `json:"address"`
	AddressURL         string            `json:"address_url"`
	Name               string            `json:"name"`
	HasName            bool              `json:"has_name"`
	BalanceWei         string            `json:"balance_wei,omitempty"`
	ETHBalance         string            `json:"eth_balance"`
	USDBalance         string            `json:"usd_balance"`
	LastTransaction    string            `json:"last_transaction"`
	HasLastTransaction bool              `json:"has_last_transaction"`
	Loading            bool              `json:"loading"`
	Transactions       []Row             `json:"transactions"`
	Errors             map[string]string `json:"errors,omitempty"`
}

// Build derives the snapshot from the current inputs. Each field depends only
// on the results it needs, so a failed or pending fetch never hides the others.
func Build(in Inputs, explorerURL string) Snapshot {
	s := Snapshot{
		Address:    in.Address,
		AddressURL: AddressURL(explorerURL, in.Address),
		Loading:    in.Loading(),
		Errors:     map[string]string{},
	}

	switch name, ok := in.Name.Get(); {
	case in.Name.IsPending():
		s.Name = LoadingText
	case ok && name != "":
		s.Name = name
		s.HasName = true
	default:
		s.Name = NoneText
	}

	balance, balanceOK := in.Balance.Get()
	switch {
	case in.Balance.IsPending():
		s.ETHBalance = LoadingText
	case balanceOK:
		s.BalanceWei = balance
		s.ETHBalance = utils.FormatWei("ETH", balance, true)
	default:
		s.ETHBalance = UnavailableText
	}

	price, priceOK := in.Price.Get()
	switch {
	case in.Balance.IsFailed() || in.Price.IsFailed():
		s.USDBalance = UnavailableText
	case balanceOK && priceOK:
		s.USDBalance = utils.FormatBigWei("$", USDValue(price, utils.ParseWei(balance)), true)
	default:
		s.USDBalance = LoadingText
	}

	txs, txsOK := in.Transactions.Get()
	switch {
	case in.Transactions.IsPending():
		s.LastTransaction = LoadingText
	case !txsOK:
		s.LastTransaction = UnavailableText
	case len(txs) == 0:
		s.LastTransaction = NoneText
	default:
		s.LastTransaction = txs[0].Hash
		s.HasLastTransaction = true
	}
	s.Transactions = Rows(txs, explorerURL)

	for field, err := range map[string]error{
		"balance":      in.Balance.Err,
		"transactions": in.Transactions.Err,
		"price":        in.Price.Err,
		"name":         in.Name.Err,
	} {
		if err != nil {
			s.Errors[field] = err.Error()
		}
	}
	return s
}

// USDValue converts a base-unit balance to an 18-decimal USD amount given an
// 18-decimal price. Integer division truncates.
func USDValue(price, balance *big.Int) *big.Int {
	if price == nil || balance == nil {
		return new(big.Int)
	}
	v := new(big.Int).Mul(price, balance)
	return v.Quo(v, weiPerEther)
}

// Rows maps transactions to display rows, keeping their order.
func Rows(txs []models.Transaction, explorerURL string) []Row {
	rows := make([]Row, 0, len(txs))
	for _, tx := range txs {
		rows = append(rows, Row{
			Hash:              tx.Hash,
			Compressed:        utils.CompressHash(tx.Hash),
			FunctionName:      utils.FunctionName(tx.FunctionName),
			Signature:         tx.FunctionName,
			MethodID:          tx.MethodID,
			TimeStamp:         tx.TimeStamp,
			Date:              tx.Date,
			BlockNumber:       tx.BlockNumber,
			BlockHash:         tx.BlockHash,
			Confirmations:     tx.Confirmations,
			TransactionIndex:  tx.TransactionIndex,
			From:              tx.From,
			To:                tx.To,
			ToCompressed:      utils.CompressHash(tx.To),
			ContractAddress:   tx.ContractAddress,
			Nonce:             tx.Nonce,
			Value:             tx.Value,
			ValueETH:          utils.FormatWei("ETH", tx.Value, false),
			Gas:               tx.Gas,
			GasPrice:          tx.GasPrice,
			GasUsed:           tx.GasUsed,
			CumulativeGasUsed: tx.CumulativeGasUsed,
			Input:             tx.Input,
			ReceiptStatus:     tx.TxReceiptStatus,
			IsError:           tx.IsError,
			Success:           !tx.Failed(),
			URL:               TxURL(explorerURL, tx.Hash),
		})
	}
	return rows
}

func AddressURL(explorerURL, address string) string {
	return strings.TrimRight(explorerURL, "/") + "/address/" + address
}

func TxURL(explorerURL, hash string) string {
	return strings.TrimRight(explorerURL, "/") + "/tx/" + hash
}
