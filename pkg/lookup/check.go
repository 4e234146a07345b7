package lookup

import (
	"context"
	"strings"

	"ethlookup/pkg/config"
	"ethlookup/pkg/etherscan"
	"ethlookup/pkg/models"
	"ethlookup/pkg/rpc"

	"github.com/ethereum/go-ethereum/common"
)

// Check validates prefs and probes every endpoint they point at: the
// account-data API, the RPC node's chain id and the price feed.
func Check(ctx context.Context, prefs config.Preferences, path string, doer etherscan.Doer) models.CheckReport {
	report := models.CheckReport{
		ConfigPath:      path,
		Network:         prefs.Network,
		ValidStructure:  true,
		ExpectedChainID: prefs.ChainID(),
	}
	if err := prefs.Validate(); err != nil {
		report.ValidStructure = false
		report.StructureErrors = append(report.StructureErrors, err.Error())
	}

	endpoint := prefs.EtherscanEndpoint()
	report.Etherscan = models.EndpointResult{URL: endpoint, Status: "ok"}
	client := etherscan.NewClient(doer, endpoint, prefs.EtherscanAPIKey)
	if _, err := client.Balance(ctx, common.Address{}.Hex()); err != nil {
		report.Etherscan.Status = "error"
		report.Etherscan.Error = err.Error()
	}

	report.PriceFeed = models.EndpointResult{URL: prefs.PriceFeed, Status: "error"}
	url, err := prefs.RPCEndpoint()
	if err != nil {
		report.StructureErrors = append(report.StructureErrors, err.Error())
		report.PriceFeed.Error = "no RPC endpoint"
		return report
	}

	// Transport errors quote the URL, which carries the API key.
	redact := func(s string) string {
		if prefs.AlchemyAPIKey == "" {
			return s
		}
		return strings.ReplaceAll(s, prefs.AlchemyAPIKey, "****")
	}

	report.RPC = &models.EndpointResult{URL: redact(url), Status: "error"}
	c, err := rpc.Dial(ctx, url)
	if err != nil {
		report.RPC.Error = redact(err.Error())
		report.PriceFeed.Error = "no RPC endpoint"
		return report
	}
	defer c.Close()

	id, err := c.ChainID(ctx)
	if err != nil {
		report.RPC.Error = redact(err.Error())
	} else {
		report.RPC.Status = "ok"
		report.RPC.ChainID = id.Int64()
		report.ChainIDMismatch = report.ExpectedChainID != 0 && id.Int64() != report.ExpectedChainID
	}

	if _, err := c.EthUSDPrice(ctx, prefs.PriceFeed); err != nil {
		report.PriceFeed.Error = redact(err.Error())
	} else {
		report.PriceFeed.Status = "ok"
	}
	return report
}
