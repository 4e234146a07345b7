package main

import (
	"bytes"
	"context"
	"encoding/json"
	"math/big"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"ethlookup/pkg/config"
	"ethlookup/pkg/models"
	"ethlookup/pkg/tui"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAddress = "0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045"

type stubDataSource struct {
	calls atomic.Int32
}

func (d *stubDataSource) Balance(ctx context.Context, address string) (string, error) {
	d.calls.Add(1)
	return "1234000000000000000", nil
}

func (d *stubDataSource) Transactions(ctx context.Context, address string) ([]models.Transaction, error) {
	d.calls.Add(1)
	return []models.Transaction{{Hash: "0xfeedfacecafebeef", Value: "0"}}, nil
}

func (d *stubDataSource) EthUSDPrice(ctx context.Context) (*big.Int, error) {
	d.calls.Add(1)
	price, _ := new(big.Int).SetString("2000000000000000000000", 10)
	return price, nil
}

func (d *stubDataSource) LookupAddress(ctx context.Context, address string) (string, error) {
	d.calls.Add(1)
	return "", nil
}

func TestRunJSON(t *testing.T) {
	ds := &stubDataSource{}
	var out bytes.Buffer

	err := runJSON(context.Background(), &out, ds, "  "+testAddress+" ", "https://etherscan.io", nil)
	require.NoError(t, err)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.Equal(t, testAddress, resp["address"])
	assert.Equal(t, "1.234 ETH", resp["eth_balance"])
	assert.Equal(t, "2468 $", resp["usd_balance"])
	assert.Equal(t, "None", resp["name"])
	assert.Equal(t, "0xfeedfacecafebeef", resp["last_transaction"])
	assert.EqualValues(t, 4, ds.calls.Load())
}

func TestRunJSONInvalidAddress(t *testing.T) {
	ds := &stubDataSource{}
	var out bytes.Buffer

	err := runJSON(context.Background(), &out, ds, "0xnothex", "https://etherscan.io", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Contains(t, err.Error(), tui.InvalidAddressText)
	assert.Zero(t, ds.calls.Load())
	assert.Empty(t, out.String())
}

func TestJSONFlagRequiresAddress(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs([]string{"--json", "--config", filepath.Join(t.TempDir(), "prefs.json")})

	err := cmd.Execute()
	assert.ErrorContains(t, err, "address argument is required")
}

func TestVersionFlag(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs([]string{"--version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "ethlookup version "+Version)
}

func TestConfigInitAndRestore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")

	execute := func(args ...string) (string, error) {
		var out bytes.Buffer
		cmd := newRootCmd(&out)
		cmd.SetArgs(append(args, "--config", path))
		err := cmd.Execute()
		return out.String(), err
	}

	out, err := execute("config", "init", "--yes", "--network", "sepolia", "--etherscan-key", "first")
	require.NoError(t, err)
	assert.Contains(t, out, path)

	prefs, err := config.LoadConfigFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "sepolia", prefs.Network)
	assert.Equal(t, "first", prefs.EtherscanAPIKey)

	_, err = execute("config", "init", "--yes")
	assert.ErrorContains(t, err, "already exists")

	_, err = execute("config", "init", "--yes", "--force", "--etherscan-key", "second")
	require.NoError(t, err)
	prefs, err = config.LoadConfigFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", prefs.EtherscanAPIKey)

	out, err = execute("config", "restore")
	require.NoError(t, err)
	assert.Contains(t, out, "Restored configuration from")

	prefs, err = config.LoadConfigFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first", prefs.EtherscanAPIKey)
}

func TestConfigInitRejectsUnknownNetwork(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs([]string{"config", "init", "--yes", "--network", "ropsten", "--config", path})

	assert.ErrorContains(t, cmd.Execute(), "unknown network")
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestNewLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ethlookup.log")
	logger, closeLog, err := newLogger(&options{logFile: path, debug: true}, true)
	require.NoError(t, err)

	logger.Debug("fetch started", "fetch", "balance")
	closeLog()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "fetch started")
	assert.Contains(t, string(data), "fetch=balance")
}
