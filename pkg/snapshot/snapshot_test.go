package snapshot

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"ethlookup/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	explorer = "https://etherscan.io"
	address  = "0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045"
)

var sampleTxs = []models.Transaction{
	{
		Hash:            "0x5c504ed432cb51138bcf09aa5e8a410dd4a1e204ef84bfed1be16dfba1b22060",
		To:              "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48",
		FunctionName:    "approve(address,uint256)",
		BlockNumber:     "17000000",
		Value:           "0",
		TxReceiptStatus: "1",
		Date:            time.Unix(1700000000, 0),
	},
	{
		Hash:            "0x0f3b4a7c0c2b9dd5ec8c8b62a3a4f4c5d5e5f5a5b5c5d5e5f5a5b5c5d5e5f5a5",
		To:              "0x1111111111111111111111111111111111111111",
		Value:           "1500000000000000000",
		TxReceiptStatus: "0",
	},
}

func readyInputs() Inputs {
	price, _ := new(big.Int).SetString("2000000000000000000000", 10)
	return Inputs{
		Address:      address,
		Balance:      models.Ready("1000000000000000000"),
		Transactions: models.Ready(sampleTxs),
		Price:        models.Ready(price),
		Name:         models.Ready("vitalik.eth"),
	}
}

func TestBuildReady(t *testing.T) {
	s := Build(readyInputs(), explorer)

	assert.False(t, s.Loading)
	assert.Equal(t, "vitalik.eth", s.Name)
	assert.True(t, s.HasName)
	assert.Equal(t, "1 ETH", s.ETHBalance)
	assert.Equal(t, "2000 $", s.USDBalance)
	assert.Equal(t, sampleTxs[0].Hash, s.LastTransaction)
	assert.True(t, s.HasLastTransaction)
	assert.Equal(t, "https://etherscan.io/address/"+address, s.AddressURL)
	assert.Empty(t, s.Errors)

	require.Len(t, s.Transactions, 2)
	first := s.Transactions[0]
	assert.Equal(t, "approve", first.FunctionName)
	assert.Equal(t, "0x5c5…22060", first.Compressed)
	assert.Equal(t, "0xa0b…6eb48", first.ToCompressed)
	assert.True(t, first.Success)
	assert.Equal(t, "https://etherscan.io/tx/"+sampleTxs[0].Hash, first.URL)

	second := s.Transactions[1]
	assert.Equal(t, "transfer", second.FunctionName)
	assert.Equal(t, "1.5 ETH", second.ValueETH)
	assert.False(t, second.Success)
}

func TestBuildTruncatesBalance(t *testing.T) {
	in := readyInputs()
	in.Balance = models.Ready("1234567890123456789")

	s := Build(in, explorer)
	assert.Equal(t, "1.234 ETH", s.ETHBalance)
	assert.Equal(t, "2469.135 $", s.USDBalance)
	assert.Equal(t, "1234567890123456789", s.BalanceWei)
}

func TestBuildPending(t *testing.T) {
	s := Build(NewInputs(address), explorer)

	assert.True(t, s.Loading)
	assert.Equal(t, LoadingText, s.Name)
	assert.Equal(t, LoadingText, s.ETHBalance)
	assert.Equal(t, LoadingText, s.USDBalance)
	assert.Equal(t, LoadingText, s.LastTransaction)
	assert.False(t, s.HasLastTransaction)
	assert.Empty(t, s.Transactions)
}

func TestBuildLoadingUntilAllSettle(t *testing.T) {
	in := readyInputs()
	in.Name = models.Pending[string]()

	s := Build(in, explorer)
	assert.True(t, s.Loading)
	assert.Equal(t, "1 ETH", s.ETHBalance)
	assert.Equal(t, "2000 $", s.USDBalance)
	assert.Equal(t, LoadingText, s.Name)
}

func TestBuildIsolatesFailures(t *testing.T) {
	in := readyInputs()
	in.Price = models.Failed[*big.Int](models.ErrOracle)
	in.Name = models.Failed[string](models.ErrOracle)
	in.Transactions = models.Failed[[]models.Transaction](errors.New("rate limited"))

	s := Build(in, explorer)
	assert.False(t, s.Loading)
	assert.Equal(t, "1 ETH", s.ETHBalance)
	assert.Equal(t, UnavailableText, s.USDBalance)
	assert.Equal(t, NoneText, s.Name)
	assert.False(t, s.HasName)
	assert.Equal(t, UnavailableText, s.LastTransaction)
	assert.False(t, s.HasLastTransaction)
	assert.Contains(t, s.Errors, "price")
	assert.Contains(t, s.Errors, "transactions")
	assert.NotContains(t, s.Errors, "balance")
}

func TestBuildBalanceFailed(t *testing.T) {
	in := readyInputs()
	in.Balance = models.Failed[string](models.ErrNetwork)

	s := Build(in, explorer)
	assert.Equal(t, UnavailableText, s.ETHBalance)
	assert.Equal(t, UnavailableText, s.USDBalance)
	assert.Equal(t, "vitalik.eth", s.Name)
	assert.True(t, s.HasLastTransaction)
}

func TestBuildEmptyHistory(t *testing.T) {
	in := readyInputs()
	in.Transactions = models.Ready([]models.Transaction{})

	s := Build(in, explorer)
	assert.Equal(t, NoneText, s.LastTransaction)
	assert.False(t, s.HasLastTransaction)
	assert.Equal(t, "1 ETH", s.ETHBalance)
	assert.Equal(t, "vitalik.eth", s.Name)
}

func TestBuildNoName(t *testing.T) {
	in := readyInputs()
	in.Name = models.Ready("")

	s := Build(in, explorer)
	assert.Equal(t, NoneText, s.Name)
	assert.False(t, s.HasName)
}

func TestUSDValue(t *testing.T) {
	price := new(big.Int).Mul(big.NewInt(200000000000), big.NewInt(10000000000))
	balance, _ := new(big.Int).SetString("1000000000000000000", 10)

	assert.Equal(t, "2000000000000000000000", USDValue(price, balance).String())
	assert.Equal(t, "0", USDValue(nil, balance).String())
}

func TestExplorerURLs(t *testing.T) {
	assert.Equal(t, "https://sepolia.etherscan.io/tx/0xabc", TxURL("https://sepolia.etherscan.io/", "0xabc"))
	assert.Equal(t, "https://etherscan.io/address/0x1", AddressURL(explorer, "0x1"))
}
