package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"ethlookup/pkg/rpc"
)

const ConfigFileName = ".ethlookup.json"

const (
	EnvEtherscanAPIKey = "ETHERSCAN_API_KEY"
	EnvAlchemyAPIKey   = "ALCHEMY_API_KEY"
)

var ErrNoRPCEndpoint = errors.New("no RPC endpoint configured: set alchemy_api_key or rpc_url")

// Network holds the endpoints used for one chain.
type Network struct {
	ChainID      int64
	EtherscanAPI string
	AlchemyURL   string
	ExplorerURL  string
}

var Networks = map[string]Network{
	"mainnet": {
		ChainID:      1,
		EtherscanAPI: "https://api.etherscan.io/api",
		AlchemyURL:   "https://eth-mainnet.g.alchemy.com/v2",
		ExplorerURL:  "https://etherscan.io",
	},
	"goerli": {
		ChainID:      5,
		EtherscanAPI: "https://api-goerli.etherscan.io/api",
		AlchemyURL:   "https://eth-goerli.g.alchemy.com/v2",
		ExplorerURL:  "https://goerli.etherscan.io",
	},
	"sepolia": {
		ChainID:      11155111,
		EtherscanAPI: "https://api-sepolia.etherscan.io/api",
		AlchemyURL:   "https://eth-sepolia.g.alchemy.com/v2",
		ExplorerURL:  "https://sepolia.etherscan.io",
	},
}

// Preferences holds the user settings. They are loaded once per run.
type Preferences struct {
	EtherscanAPIKey    string `json:"etherscan_api_key"`
	AlchemyAPIKey      string `json:"alchemy_api_key"`
	Network            string `json:"network"`
	RPCURL             string `json:"rpc_url,omitempty"`
	ExplorerURL        string `json:"explorer_url,omitempty"`
	PriceFeed          string `json:"price_feed"`
	HTTPTimeoutSeconds int    `json:"http_timeout_seconds"`
}

func Defaults() Preferences {
	return Preferences{
		Network:            "mainnet",
		PriceFeed:          rpc.DefaultPriceFeed,
		HTTPTimeoutSeconds: 15,
	}
}

func GetConfigPath(customPath string) (string, error) {
	if customPath != "" {
		return customPath, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ConfigFileName), nil
}

// LoadConfigFromFile reads preferences from path. A missing file yields the defaults.
func LoadConfigFromFile(path string) (Preferences, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return Defaults(), nil
	}
	if err != nil {
		return Preferences{}, err
	}
	defer func() { _ = f.Close() }()
	return LoadConfig(f)
}

func LoadConfig(r io.Reader) (Preferences, error) {
	var cfg struct {
		EtherscanAPIKey    string  `json:"etherscan_api_key"`
		AlchemyAPIKey      string  `json:"alchemy_api_key"`
		Network            *string `json:"network"`
		RPCURL             string  `json:"rpc_url"`
		ExplorerURL        string  `json:"explorer_url"`
		PriceFeed          *string `json:"price_feed"`
		HTTPTimeoutSeconds *int    `json:"http_timeout_seconds"`
	}
	if err := json.NewDecoder(r).Decode(&cfg); err != nil {
		return Preferences{}, err
	}

	prefs := Defaults()
	prefs.EtherscanAPIKey = strings.TrimSpace(cfg.EtherscanAPIKey)
	prefs.AlchemyAPIKey = strings.TrimSpace(cfg.AlchemyAPIKey)
	prefs.RPCURL = strings.TrimSpace(cfg.RPCURL)
	prefs.ExplorerURL = strings.TrimSpace(cfg.ExplorerURL)
	if cfg.Network != nil && *cfg.Network != "" {
		prefs.Network = strings.ToLower(strings.TrimSpace(*cfg.Network))
	}
	if cfg.PriceFeed != nil && *cfg.PriceFeed != "" {
		prefs.PriceFeed = strings.TrimSpace(*cfg.PriceFeed)
	}
	if cfg.HTTPTimeoutSeconds != nil {
		prefs.HTTPTimeoutSeconds = *cfg.HTTPTimeoutSeconds
	}
	return prefs, nil
}

// ApplyEnv overrides the API keys with non-empty environment values.
func (p *Preferences) ApplyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv(EnvEtherscanAPIKey)); v != "" {
		p.EtherscanAPIKey = v
	}
	if v := strings.TrimSpace(getenv(EnvAlchemyAPIKey)); v != "" {
		p.AlchemyAPIKey = v
	}
}

func (p Preferences) Validate() error {
	if _, ok := Networks[p.Network]; !ok {
		known := make([]string, 0, len(Networks))
		for name := range Networks {
			known = append(known, name)
		}
		sort.Strings(known)
		return fmt.Errorf("validation failed: unknown network %q (want one of %s)", p.Network, strings.Join(known, ", "))
	}
	if p.HTTPTimeoutSeconds < 0 {
		return fmt.Errorf("validation failed: http_timeout_seconds must not be negative")
	}
	if strings.TrimSpace(p.PriceFeed) == "" {
		return fmt.Errorf("validation failed: price_feed is empty")
	}
	return nil
}

func (p Preferences) network() Network {
	if n, ok := Networks[p.Network]; ok {
		return n
	}
	return Networks["mainnet"]
}

func (p Preferences) ChainID() int64 {
	return p.network().ChainID
}

func (p Preferences) EtherscanEndpoint() string {
	return p.network().EtherscanAPI
}

// RPCEndpoint returns rpc_url when set, otherwise the network's Alchemy URL with the key appended.
func (p Preferences) RPCEndpoint() (string, error) {
	if p.RPCURL != "" {
		return p.RPCURL, nil
	}
	if p.AlchemyAPIKey == "" {
		return "", ErrNoRPCEndpoint
	}
	return strings.Join([]string{p.network().AlchemyURL, p.AlchemyAPIKey}, "/"), nil
}

func (p Preferences) Explorer() string {
	if p.ExplorerURL != "" {
		return strings.TrimRight(p.ExplorerURL, "/")
	}
	return p.network().ExplorerURL
}

// HTTPTimeout is zero (no timeout) when http_timeout_seconds is 0.
func (p Preferences) HTTPTimeout() time.Duration {
	return time.Duration(p.HTTPTimeoutSeconds) * time.Second
}

// SaveConfig writes prefs to path atomically, keeping a timestamped backup of
// any existing file.
func SaveConfig(prefs Preferences, path string) error {
	if err := prefs.Validate(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return err
	}

	if len(data) == 0 {
		return fmt.Errorf("validation failed: encoded configuration is empty")
	}

	if _, err := os.Stat(path); err == nil {
		backupPath := fmt.Sprintf("%s.%s.bak", path, time.Now().Format("20060102-150405"))
		input, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read existing config for backup: %w", err)
		}
		if err := os.WriteFile(backupPath, input, 0600); err != nil {
			return fmt.Errorf("failed to write backup config: %w", err)
		}
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

func RestoreLastBackup(configPath string) (string, error) {
	matches, err := filepath.Glob(configPath + ".*.bak")
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no backup files found")
	}
	sort.Strings(matches)
	lastBackup := matches[len(matches)-1]

	data, err := os.ReadFile(lastBackup)
	if err != nil {
		return "", err
	}
	return lastBackup, os.WriteFile(configPath, data, 0600)
}
