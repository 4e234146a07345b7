package rpc

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"ethlookup/pkg/models"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	feedAddress     = common.HexToAddress("0x5f4eC3Df9cbd43714FE2740f5E3616155c5b8419")
	resolverAddress = common.HexToAddress("0x4976fb03C32e5B8cfe2b6cCB31c09Ba78EBaBa41")
	vitalik         = common.HexToAddress("0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045")
)

// chain is a fake JSON-RPC node answering eth_call by contract and selector.
type chain struct {
	t       *testing.T
	answers map[string][]byte
	reverts map[string]bool
	calls   atomic.Int32
}

func newChain(t *testing.T) *chain {
	return &chain{t: t, answers: map[string][]byte{}, reverts: map[string]bool{}}
}

func callKey(to common.Address, contract abi.ABI, method string) string {
	return strings.ToLower(to.Hex()) + ":" + hex.EncodeToString(contract.Methods[method].ID)
}

func (c *chain) answer(to common.Address, contract abi.ABI, method string, values ...interface{}) {
	out, err := contract.Methods[method].Outputs.Pack(values...)
	require.NoError(c.t, err)
	c.answers[callKey(to, contract, method)] = out
}

func (c *chain) revert(to common.Address, contract abi.ABI, method string) {
	c.reverts[callKey(to, contract, method)] = true
}

func (c *chain) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     json.RawMessage   `json:"id"`
		Method string            `json:"method"`
		Params []json.RawMessage `json:"params"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	c.calls.Add(1)

	resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
	switch req.Method {
	case "eth_call":
		var msg struct {
			To    string `json:"to"`
			Input string `json:"input"`
			Data  string `json:"data"`
		}
		_ = json.Unmarshal(req.Params[0], &msg)
		input := msg.Input
		if input == "" {
			input = msg.Data
		}
		selector := strings.TrimPrefix(input, "0x")
		if len(selector) > 8 {
			selector = selector[:8]
		}
		key := strings.ToLower(msg.To) + ":" + selector
		if c.reverts[key] {
			resp["error"] = map[string]interface{}{"code": 3, "message": "execution reverted", "data": "0x"}
		} else if out, ok := c.answers[key]; ok {
			resp["result"] = "0x" + hex.EncodeToString(out)
		} else {
			resp["result"] = "0x"
		}
	case "eth_chainId":
		resp["result"] = "0x1"
	default:
		resp["result"] = "0x0"
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func dialChain(t *testing.T, c *chain) *Client {
	t.Helper()
	server := httptest.NewServer(c)
	t.Cleanup(server.Close)

	client, err := Dial(context.Background(), server.URL)
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return client
}

// registerName points every name at addr through a single resolver.
func (c *chain) registerName(addr common.Address) {
	c.answer(RegistryAddress, registryABI, "resolver", resolverAddress)
	c.answer(resolverAddress, resolverABI, "addr", addr)
}

func TestNamehash(t *testing.T) {
	assert.Equal(t, [32]byte{}, Namehash(""))
	assert.Equal(t,
		"0x93cdeb708b7545dc668eb9280176169d1c33cfd8ed6f04690a0bcc88a93fc4ae",
		common.Hash(Namehash("eth")).Hex())
	assert.Equal(t,
		"0xde9b09fd7c5f901e23a3f19fecc54828e9c848539801e86591bd9801b019f84f",
		common.Hash(Namehash("foo.eth")).Hex())
	assert.Equal(t, Namehash("foo.eth"), Namehash("FOO.eth"))
}

func TestReverseNode(t *testing.T) {
	expected := Namehash("d8da6bf26964af9d7eed9e03e53415d37aa96045.addr.reverse")
	assert.Equal(t, expected, ReverseNode(vitalik))
}

func TestEthUSDPrice(t *testing.T) {
	c := newChain(t)
	c.registerName(feedAddress)
	c.answer(feedAddress, aggregatorABI, "latestRoundData",
		big.NewInt(1), big.NewInt(200000000000), big.NewInt(0), big.NewInt(0), big.NewInt(1))
	client := dialChain(t, c)

	price, err := client.EthUSDPrice(context.Background(), DefaultPriceFeed)
	require.NoError(t, err)
	assert.Equal(t, "2000000000000000000000", price.String())
}

func TestEthUSDPriceByAddress(t *testing.T) {
	c := newChain(t)
	c.answer(feedAddress, aggregatorABI, "latestRoundData",
		big.NewInt(1), big.NewInt(312345000000), big.NewInt(0), big.NewInt(0), big.NewInt(1))
	client := dialChain(t, c)

	price, err := client.EthUSDPrice(context.Background(), feedAddress.Hex())
	require.NoError(t, err)
	assert.Equal(t, "3123450000000000000000", price.String())
	assert.EqualValues(t, 1, c.calls.Load())
}

func TestEthUSDPriceErrors(t *testing.T) {
	t.Run("reverted", func(t *testing.T) {
		c := newChain(t)
		c.revert(feedAddress, aggregatorABI, "latestRoundData")
		client := dialChain(t, c)

		_, err := client.EthUSDPrice(context.Background(), feedAddress.Hex())
		assert.ErrorIs(t, err, models.ErrOracle)
	})

	t.Run("unresolved feed", func(t *testing.T) {
		client := dialChain(t, newChain(t))

		_, err := client.EthUSDPrice(context.Background(), DefaultPriceFeed)
		assert.ErrorIs(t, err, models.ErrOracle)
	})

	t.Run("node down", func(t *testing.T) {
		server := httptest.NewServer(newChain(t))
		client, err := Dial(context.Background(), server.URL)
		require.NoError(t, err)
		defer client.Close()
		server.Close()

		_, err = client.EthUSDPrice(context.Background(), feedAddress.Hex())
		assert.ErrorIs(t, err, models.ErrOracle)
	})
}

func TestLookupAddress(t *testing.T) {
	c := newChain(t)
	c.answer(RegistryAddress, registryABI, "resolver", resolverAddress)
	c.answer(resolverAddress, resolverABI, "name", "vitalik.eth")
	c.answer(resolverAddress, resolverABI, "addr", vitalik)
	client := dialChain(t, c)

	name, err := client.LookupAddress(context.Background(), vitalik.Hex())
	require.NoError(t, err)
	assert.Equal(t, "vitalik.eth", name)
}

func TestLookupAddressWithoutName(t *testing.T) {
	t.Run("no resolver", func(t *testing.T) {
		c := newChain(t)
		c.answer(RegistryAddress, registryABI, "resolver", common.Address{})
		client := dialChain(t, c)

		name, err := client.LookupAddress(context.Background(), vitalik.Hex())
		require.NoError(t, err)
		assert.Empty(t, name)
	})

	t.Run("forward mismatch", func(t *testing.T) {
		c := newChain(t)
		c.answer(RegistryAddress, registryABI, "resolver", resolverAddress)
		c.answer(resolverAddress, resolverABI, "name", "impostor.eth")
		c.answer(resolverAddress, resolverABI, "addr", feedAddress)
		client := dialChain(t, c)

		name, err := client.LookupAddress(context.Background(), vitalik.Hex())
		require.NoError(t, err)
		assert.Empty(t, name)
	})

	t.Run("resolver reverts", func(t *testing.T) {
		c := newChain(t)
		c.answer(RegistryAddress, registryABI, "resolver", resolverAddress)
		c.revert(resolverAddress, resolverABI, "name")
		client := dialChain(t, c)

		name, err := client.LookupAddress(context.Background(), vitalik.Hex())
		require.NoError(t, err)
		assert.Empty(t, name)
	})
}

func TestLookupAddressErrors(t *testing.T) {
	client := dialChain(t, newChain(t))
	_, err := client.LookupAddress(context.Background(), "not-an-address")
	assert.ErrorIs(t, err, models.ErrValidation)

	server := httptest.NewServer(newChain(t))
	down, err := Dial(context.Background(), server.URL)
	require.NoError(t, err)
	defer down.Close()
	server.Close()

	_, err = down.LookupAddress(context.Background(), vitalik.Hex())
	assert.ErrorIs(t, err, models.ErrOracle)
}

func TestChainID(t *testing.T) {
	client := dialChain(t, newChain(t))

	id, err := client.ChainID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), id.Int64())
}
