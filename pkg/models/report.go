package models

// EndpointResult holds the probe result for one remote endpoint.
type EndpointResult struct {
	URL     string `json:"url"`
	Status  string `json:"status"` // "ok" or "error"
	ChainID int64  `json:"chain_id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// CheckReport holds the results of the configuration check.
type CheckReport struct {
	ConfigPath      string          `json:"config_path"`
	Network         string          `json:"network"`
	ValidStructure  bool            `json:"valid_structure"`
	StructureErrors []string        `json:"structure_errors,omitempty"`
	Etherscan       EndpointResult  `json:"etherscan"`
	RPC             *EndpointResult `json:"rpc,omitempty"`
	ExpectedChainID int64           `json:"expected_chain_id"`
	ChainIDMismatch bool            `json:"chain_id_mismatch"`
	PriceFeed       EndpointResult  `json:"price_feed"`
}

// Healthy is true when the structure is valid and every probe succeeded.
func (r CheckReport) Healthy() bool {
	if !r.ValidStructure || r.ChainIDMismatch || r.Etherscan.Status != "ok" || r.PriceFeed.Status != "ok" {
		return false
	}
	return r.RPC != nil && r.RPC.Status == "ok"
}
