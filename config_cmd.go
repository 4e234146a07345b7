package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"

	"ethlookup/pkg/config"
	"ethlookup/pkg/lookup"
	"ethlookup/pkg/models"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

func newConfigCmd(out io.Writer, opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the ethlookup configuration file",
	}
	cmd.AddCommand(newConfigInitCmd(out, opts), newConfigRestoreCmd(out, opts), newConfigTestCmd(out, opts))
	return cmd
}

func newConfigInitCmd(out io.Writer, opts *options) *cobra.Command {
	var force, yes bool
	var network, etherscanKey, alchemyKey string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.GetConfigPath(opts.configPath)
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
			}

			prefs := config.Defaults()
			prefs.ApplyEnv(os.Getenv)
			if network != "" {
				prefs.Network = network
			}
			if etherscanKey != "" {
				prefs.EtherscanAPIKey = etherscanKey
			}
			if alchemyKey != "" {
				prefs.AlchemyAPIKey = alchemyKey
			}
			if !yes {
				if err := preferencesForm(&prefs).Run(); err != nil {
					return err
				}
			}

			if err := config.SaveConfig(prefs, path); err != nil {
				return err
			}
			fmt.Fprintf(out, "Configuration saved to %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file (a backup is kept)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not prompt; use flags, environment and defaults")
	cmd.Flags().StringVar(&network, "network", "", "Network: mainnet, goerli or sepolia")
	cmd.Flags().StringVar(&etherscanKey, "etherscan-key", "", "Etherscan API key")
	cmd.Flags().StringVar(&alchemyKey, "alchemy-key", "", "Alchemy API key")
	return cmd
}

func preferencesForm(prefs *config.Preferences) *huh.Form {
	networks := make([]string, 0, len(config.Networks))
	for name := range config.Networks {
		networks = append(networks, name)
	}
	sort.Strings(networks)

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Etherscan API key").
				Value(&prefs.EtherscanAPIKey),
			huh.NewInput().
				Title("Alchemy API key").
				Description("Used for the price feed and ENS names").
				Value(&prefs.AlchemyAPIKey),
			huh.NewSelect[string]().
				Title("Network").
				Options(huh.NewOptions(networks...)...).
				Value(&prefs.Network),
		),
	)
}

func newConfigRestoreCmd(out io.Writer, opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "restore",
		Short: "Restore the most recent configuration backup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.GetConfigPath(opts.configPath)
			if err != nil {
				return err
			}
			backup, err := config.RestoreLastBackup(path)
			if err != nil {
				return fmt.Errorf("restoring %s: %w", path, err)
			}
			fmt.Fprintf(out, "Restored configuration from %s\n", backup)
			return nil
		},
	}
}

func newConfigTestCmd(out io.Writer, opts *options) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Check the configuration and probe every endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			prefs, path, err := loadPreferences(opts.configPath)
			if err != nil {
				return err
			}
			report := lookup.Check(cmd.Context(), prefs, path, &http.Client{Timeout: prefs.HTTPTimeout()})

			if jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else {
				printReport(out, report)
			}
			if !report.Healthy() {
				return errors.New("configuration check failed")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output test results as JSON")
	return cmd
}

func printReport(w io.Writer, r models.CheckReport) {
	fmt.Fprintf(w, "Testing configuration at: %s\n", r.ConfigPath)
	fmt.Fprintf(w, "Network: %s (chain id %d)\n", r.Network, r.ExpectedChainID)
	for _, e := range r.StructureErrors {
		fmt.Fprintf(w, "Error: %s\n", e)
	}

	printEndpoint(w, "Etherscan", r.Etherscan)
	if r.RPC != nil {
		printEndpoint(w, "RPC", *r.RPC)
		if r.ChainIDMismatch {
			fmt.Fprintf(w, "  WARNING: chain id mismatch! Expected %d, got %d\n", r.ExpectedChainID, r.RPC.ChainID)
		}
	}
	printEndpoint(w, "Price feed", r.PriceFeed)
}

func printEndpoint(w io.Writer, label string, e models.EndpointResult) {
	if e.Status == "ok" {
		fmt.Fprintf(w, "%-10s %s ... OK\n", label, e.URL)
		return
	}
	fmt.Fprintf(w, "%-10s %s ... Failed: %s\n", label, e.URL, e.Error)
}
