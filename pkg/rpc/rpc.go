package rpc

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"ethlookup/pkg/models"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
)

// DefaultPriceFeed is the ENS name of the Chainlink ETH/USD aggregator.
const DefaultPriceFeed = "eth-usd.data.eth"

var CallTimeout = 10 * time.Second

// The feed answers with 8 decimals; scaling by 10^10 gives an 18-decimal USD value.
var feedScale = new(big.Int).Exp(big.NewInt(10), big.NewInt(10), nil)

const aggregatorABIJSON = `[{"name":"latestRoundData","type":"function","stateMutability":"view","inputs":[],"outputs":[
	{"name":"roundId","type":"uint80"},{"name":"answer","type":"int256"},{"name":"startedAt","type":"uint256"},
	{"name":"updatedAt","type":"uint256"},{"name":"answeredInRound","type":"uint80"}]}]`

var aggregatorABI = mustParseABI(aggregatorABIJSON)

var errNoData = errors.New("empty call result")

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(fmt.Sprintf("rpc: bad abi: %v", err))
	}
	return parsed
}

// Client wraps an ethclient connection for read-only contract calls.
type Client struct {
	eth      *ethclient.Client
	URL      string
	Registry common.Address
}

func Dial(ctx context.Context, url string) (*Client, error) {
	eth, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", models.ErrOracle, url, err)
	}
	return &Client{eth: eth, URL: url, Registry: RegistryAddress}, nil
}

func (c *Client) Close() {
	c.eth.Close()
}

func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	ctx, cancel := context.WithTimeout(ctx, CallTimeout)
	defer cancel()
	id, err := c.eth.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: chain id: %v", models.ErrOracle, err)
	}
	return id, nil
}

// call packs method with args, runs eth_call against to at the latest block
// and unpacks the outputs.
func (c *Client) call(ctx context.Context, contract abi.ABI, to common.Address, method string, args ...interface{}) ([]interface{}, error) {
	data, err := contract.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	ctx, cancel := context.WithTimeout(ctx, CallTimeout)
	defer cancel()

	out, err := c.eth.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, errNoData
	}
	values, err := contract.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return values, nil
}

// EthUSDPrice reads the latest ETH/USD answer from feed, which is either a
// contract address or an ENS name, and returns it scaled to 18 decimals.
func (c *Client) EthUSDPrice(ctx context.Context, feed string) (*big.Int, error) {
	if feed == "" {
		feed = DefaultPriceFeed
	}

	var aggregator common.Address
	if common.IsHexAddress(feed) {
		aggregator = common.HexToAddress(feed)
	} else {
		addr, err := c.ResolveName(ctx, feed)
		if err != nil {
			return nil, err
		}
		if addr == (common.Address{}) {
			return nil, fmt.Errorf("%w: price feed %s does not resolve", models.ErrOracle, feed)
		}
		aggregator = addr
	}

	values, err := c.call(ctx, aggregatorABI, aggregator, "latestRoundData")
	if err != nil {
		return nil, fmt.Errorf("%w: latestRoundData: %v", models.ErrOracle, err)
	}
	answer, ok := values[1].(*big.Int)
	if !ok || answer.Sign() < 0 {
		return nil, fmt.Errorf("%w: unexpected price answer %v", models.ErrOracle, values[1])
	}
	return new(big.Int).Mul(answer, feedScale), nil
}

// isRevert reports whether err is the node rejecting the call rather than a
// transport failure.
func isRevert(err error) bool {
	if errors.Is(err, errNoData) {
		return true
	}
	var rpcErr gethrpc.Error
	if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == 3 {
		return true
	}
	return strings.Contains(err.Error(), "execution reverted")
}
