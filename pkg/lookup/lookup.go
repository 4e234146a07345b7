package lookup

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"strings"
	"sync"

	"ethlookup/pkg/config"
	"ethlookup/pkg/etherscan"
	"ethlookup/pkg/models"
	"ethlookup/pkg/rpc"
	"ethlookup/pkg/snapshot"

	"github.com/charmbracelet/log"
	"github.com/ethereum/go-ethereum/common"
)

// DataSource defines the four fetches of a lookup.
type DataSource interface {
	Balance(ctx context.Context, address string) (string, error)
	Transactions(ctx context.Context, address string) ([]models.Transaction, error)
	EthUSDPrice(ctx context.Context) (*big.Int, error)
	LookupAddress(ctx context.Context, address string) (string, error)
}

// RealDataSource serves balance and history from the account-data API and
// price and name from an RPC node, dialled per call.
type RealDataSource struct {
	etherscan *etherscan.Client
	rpcURL    string
	rpcErr    error
	priceFeed string
}

func NewRealDataSource(prefs config.Preferences, doer etherscan.Doer) *RealDataSource {
	rpcURL, rpcErr := prefs.RPCEndpoint()
	return &RealDataSource{
		etherscan: etherscan.NewClient(doer, prefs.EtherscanEndpoint(), prefs.EtherscanAPIKey),
		rpcURL:    rpcURL,
		rpcErr:    rpcErr,
		priceFeed: prefs.PriceFeed,
	}
}

func (d *RealDataSource) Balance(ctx context.Context, address string) (string, error) {
	return d.etherscan.Balance(ctx, address)
}

func (d *RealDataSource) Transactions(ctx context.Context, address string) ([]models.Transaction, error) {
	return d.etherscan.Transactions(ctx, address)
}

func (d *RealDataSource) EthUSDPrice(ctx context.Context) (*big.Int, error) {
	var price *big.Int
	err := d.withRPC(ctx, func(c *rpc.Client) error {
		var err error
		price, err = c.EthUSDPrice(ctx, d.priceFeed)
		return err
	})
	return price, err
}

func (d *RealDataSource) LookupAddress(ctx context.Context, address string) (string, error) {
	var name string
	err := d.withRPC(ctx, func(c *rpc.Client) error {
		var err error
		name, err = c.LookupAddress(ctx, address)
		return err
	})
	return name, err
}

func (d *RealDataSource) withRPC(ctx context.Context, fn func(*rpc.Client) error) error {
	if d.rpcErr != nil {
		return fmt.Errorf("%w: %v", models.ErrOracle, d.rpcErr)
	}
	client, err := rpc.Dial(ctx, d.rpcURL)
	if err != nil {
		return err
	}
	defer client.Close()
	return fn(client)
}

// Validate trims address and checks its format. Mixed-case input must carry
// a valid EIP-55 checksum.
func Validate(address string) (string, error) {
	address = strings.TrimSpace(address)
	if !common.IsHexAddress(address) {
		return "", fmt.Errorf("%w: %q", models.ErrValidation, address)
	}
	hex := strings.TrimPrefix(strings.TrimPrefix(address, "0x"), "0X")
	if hex != strings.ToLower(hex) && hex != strings.ToUpper(hex) {
		if common.HexToAddress(address).Hex() != "0x"+hex {
			return "", fmt.Errorf("%w: bad checksum %q", models.ErrValidation, address)
		}
	}
	return address, nil
}

func discardLogger() *log.Logger {
	return log.New(io.Discard)
}

// Fetch runs the four fetches of one lookup concurrently and returns once all
// have settled. emit, if set, receives one event per settled fetch and a final
// EventLookupSettled; it may be called from several goroutines. A failure in
// one fetch never affects the others.
func Fetch(ctx context.Context, ds DataSource, address string, generation uint64, logger *log.Logger, emit func(Event)) snapshot.Inputs {
	if logger == nil {
		logger = discardLogger()
	}
	in := snapshot.NewInputs(address)
	var mu sync.Mutex
	var wg sync.WaitGroup

	settle := func(fetch string, typ EventType, run func() interface{}) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Debug("fetch started", "fetch", fetch, "address", address, "generation", generation)
			ev := Event{Type: typ, Generation: generation, Address: address, Data: run()}

			mu.Lock()
			ev.Apply(&in)
			mu.Unlock()

			logger.Debug("fetch settled", "fetch", fetch, "address", address, "generation", generation)
			if emit != nil {
				emit(ev)
			}
		}()
	}

	settle("balance", EventBalanceUpdated, func() interface{} {
		balance, err := ds.Balance(ctx, address)
		logFailure(logger, "balance", address, err)
		return models.Settle(balance, err)
	})
	settle("transactions", EventTransactionsUpdated, func() interface{} {
		txs, err := ds.Transactions(ctx, address)
		logFailure(logger, "transactions", address, err)
		return models.Settle(txs, err)
	})
	settle("price", EventPriceUpdated, func() interface{} {
		price, err := ds.EthUSDPrice(ctx)
		logFailure(logger, "price", address, err)
		return models.Settle(price, err)
	})
	settle("name", EventNameUpdated, func() interface{} {
		name, err := ds.LookupAddress(ctx, address)
		logFailure(logger, "name", address, err)
		return models.Settle(name, err)
	})

	wg.Wait()
	if emit != nil {
		emit(Event{Type: EventLookupSettled, Generation: generation, Address: address})
	}
	return in
}

func logFailure(logger *log.Logger, fetch, address string, err error) {
	if err != nil {
		logger.Warn("fetch failed", "fetch", fetch, "address", address, "err", err)
	}
}
