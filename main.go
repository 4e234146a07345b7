package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"

	"ethlookup/pkg/config"
	"ethlookup/pkg/lookup"
	"ethlookup/pkg/server"
	"ethlookup/pkg/snapshot"
	"ethlookup/pkg/tui"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// Version should be set during build
var Version = "dev"

type options struct {
	configPath string
	jsonOut    bool
	serve      bool
	port       int
	logFile    string
	debug      bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "ethlookup [address]",
		Short: "Look up an Ethereum account",
		Long: `ethlookup shows the balance, USD value, ENS name and transaction history
of an Ethereum address.

Balances and history come from the Etherscan API, the ETH/USD price from the
Chainlink feed and the name from reverse ENS resolution, both read over an
RPC node. Keys are read from the config file or from the ETHERSCAN_API_KEY
and ALCHEMY_API_KEY environment variables.`,
		Args:          cobra.MaximumNArgs(1),
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), out, opts, args)
		},
	}
	cmd.SetOut(out)

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to configuration file (default ~/"+config.ConfigFileName+")")
	cmd.PersistentFlags().StringVar(&opts.logFile, "log-file", "", "Write logs to this file")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "Print the lookup as JSON and exit")
	cmd.Flags().BoolVar(&opts.serve, "serve", false, "Run the HTTP/WebSocket API instead of the terminal UI")
	cmd.Flags().IntVar(&opts.port, "port", 8080, "Port for API server")

	cmd.AddCommand(newConfigCmd(out, opts))
	return cmd
}

func loadPreferences(customPath string) (config.Preferences, string, error) {
	path, err := config.GetConfigPath(customPath)
	if err != nil {
		return config.Preferences{}, "", fmt.Errorf("determining config path: %w", err)
	}
	prefs, err := config.LoadConfigFromFile(path)
	if err != nil {
		return config.Preferences{}, path, fmt.Errorf("loading config from %s: %w", path, err)
	}
	prefs.ApplyEnv(os.Getenv)
	return prefs, path, nil
}

// newLogger writes to the log file when one is given. Otherwise it writes to
// stderr unless the terminal UI owns the screen, in which case logs are dropped.
func newLogger(opts *options, interactive bool) (*log.Logger, func(), error) {
	var w io.Writer = os.Stderr
	closeFn := func() {}
	switch {
	case opts.logFile != "":
		f, err := os.OpenFile(opts.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return nil, closeFn, fmt.Errorf("opening log file: %w", err)
		}
		w = f
		closeFn = func() { _ = f.Close() }
	case interactive:
		w = io.Discard
	}

	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          "ethlookup",
	})
	if opts.debug {
		logger.SetLevel(log.DebugLevel)
	}
	return logger, closeFn, nil
}

func run(ctx context.Context, out io.Writer, opts *options, args []string) error {
	prefs, path, err := loadPreferences(opts.configPath)
	if err != nil {
		return err
	}
	if err := prefs.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", path, err)
	}

	logger, closeLog, err := newLogger(opts, !opts.jsonOut && !opts.serve)
	if err != nil {
		return err
	}
	defer closeLog()
	logger.Debug("configuration loaded", "path", path, "network", prefs.Network)

	ds := lookup.NewRealDataSource(prefs, &http.Client{Timeout: prefs.HTTPTimeout()})
	explorer := prefs.Explorer()

	switch {
	case opts.serve:
		return server.NewServer(ds, explorer, logger).Start(opts.port)
	case opts.jsonOut:
		if len(args) == 0 {
			return errors.New("an address argument is required with --json")
		}
		return runJSON(ctx, out, ds, args[0], explorer, logger)
	}

	var address string
	if len(args) > 0 {
		address = args[0]
	} else if address, err = promptAddress(); err != nil {
		return err
	}
	return tui.Start(ctx, lookup.NewService(ds, logger), address, explorer, Version, logger)
}

// runJSON performs one lookup to completion and prints its snapshot.
func runJSON(ctx context.Context, w io.Writer, ds lookup.DataSource, address, explorer string, logger *log.Logger) error {
	clean, err := lookup.Validate(address)
	if err != nil {
		return fmt.Errorf("%s (%w)", tui.InvalidAddressText, err)
	}
	in := lookup.Fetch(ctx, ds, clean, 1, logger, nil)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snapshot.Build(in, explorer))
}

func promptAddress() (string, error) {
	var address string
	err := huh.NewInput().
		Title("Ethereum address").
		Description("Address to look up (Ctrl+v to paste)").
		Placeholder("0x...").
		Value(&address).
		Validate(func(s string) error {
			if _, err := lookup.Validate(s); err != nil {
				return errors.New("invalid ethereum address")
			}
			return nil
		}).
		Run()
	return address, err
}
