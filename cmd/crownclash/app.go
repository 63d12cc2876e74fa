package main

import (
	"fmt"
	"os"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/fystack/crown-clash/internal/account"
	"github.com/fystack/crown-clash/internal/arbiter"
	"github.com/fystack/crown-clash/internal/config"
	"github.com/fystack/crown-clash/internal/events"
	"github.com/fystack/crown-clash/internal/rpc"
	solanarpc "github.com/fystack/crown-clash/internal/rpc/solana"
	"github.com/fystack/crown-clash/internal/storage"
	"github.com/fystack/crown-clash/pkg/common/logger"
	"github.com/fystack/crown-clash/pkg/kvstore"
)

type app struct {
	configPath string
	logLevel   string

	cfg   *config.Config
	keys  config.Keys
	addrs account.Addresses

	store   *storage.Store
	emitter events.Emitter
	arbiter *arbiter.Arbiter
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:          "crownclash",
		Short:        "Run the crown clash game against a local ledger.",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "configs/config.yaml", "path to config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override logging.level (debug, info, warn, error)")

	root.AddCommand(
		a.initCmd(),
		a.fundCmd(),
		a.tokensCmd(),
		a.balanceCmd(),
		a.stealCmd(),
		a.endCmd(),
		a.resetCmd(),
		a.burnCmd(),
		a.statusCmd(),
		a.roundsCmd(),
		a.dumpCmd(),
		a.watchCmd(),
	)
	return root
}

// loadConfig reads the config and sets up the process logger.
func (a *app) loadConfig() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	level := cfg.Logging.Level
	if a.logLevel != "" {
		level = a.logLevel
	}
	lvl, err := logger.ParseLevel(level)
	if err != nil {
		return err
	}
	timeFormat := cfg.Logging.TimeFormat
	if timeFormat == "" {
		timeFormat = time.RFC3339
	}
	logger.Init(&logger.Options{
		Level:      lvl,
		Writer:     os.Stderr,
		TimeFormat: timeFormat,
	})

	keys, err := cfg.Game.Keys()
	if err != nil {
		return err
	}
	programID := keys.ProgramID
	if programID.IsZero() {
		programID = account.ProgramID
	}
	addrs, err := account.Derive(programID)
	if err != nil {
		return err
	}
	a.cfg, a.keys, a.addrs = cfg, keys, addrs
	return nil
}

// open loads the config and builds the store, the event emitter and the
// arbiter on top of them.
func (a *app) open() error {
	if err := a.loadConfig(); err != nil {
		return err
	}
	store, err := storage.Open(kvstore.Options{
		Directory: a.cfg.Storage.Directory,
		InMemory:  a.cfg.Storage.InMemory,
		Prefix:    a.cfg.Storage.Prefix,
	}, a.addrs.Vault)
	if err != nil {
		return err
	}
	a.store = store

	a.emitter = events.Nop()
	if a.cfg.NATS.Enabled {
		conn, err := events.Connect(a.cfg.NATS, a.cfg.Environment)
		if err != nil {
			a.close()
			return fmt.Errorf("connect nats: %w", err)
		}
		a.emitter = events.NewEmitter(
			events.NewNATSPublisher(conn),
			a.cfg.NATS.Subject,
			events.WithRetry(a.cfg.NATS.PublishRetries, a.cfg.NATS.RetryInterval),
		)
	}

	tokens, err := a.tokenSource()
	if err != nil {
		a.close()
		return err
	}
	a.arbiter = arbiter.New(store, tokens, arbiter.WithEmitter(a.emitter))
	return nil
}

// tokenSource returns nil for the local token book, which the arbiter falls
// back to.
func (a *app) tokenSource() (arbiter.TokenBalances, error) {
	if a.cfg.Identity.Source != config.IdentityRPC {
		return nil, nil
	}
	rc := a.cfg.Identity.RPC
	urls := append([]string{rc.URL}, rc.FallbackURLs...)
	cfgs := make([]solanarpc.Config, 0, len(urls))
	for _, url := range urls {
		cfgs = append(cfgs, solanarpc.Config{
			URL:               url,
			RequestsPerSecond: rc.RequestsPerSecond,
			BurstSize:         rc.BurstSize,
			Options: rpc.Options{
				Timeout:    rc.RequestTimeout,
				MaxRetries: uint64(rc.MaxRetries),
			},
		})
	}
	logger.Info("Reading token balances from Solana RPC", "endpoints", len(cfgs))
	return solanarpc.NewPool(cfgs, nil)
}

func (a *app) close() {
	if a.emitter != nil {
		a.emitter.Close()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			logger.Error("Failed to close store", "error", err)
		}
	}
}

// run opens the game for the duration of fn.
func (a *app) run(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := a.open(); err != nil {
			return err
		}
		defer a.close()
		return fn(cmd, args)
	}
}

// parseWallet accepts a base58 key or one of the names vault, dev and beast.
func (a *app) parseWallet(s string) (solana.PublicKey, error) {
	switch s {
	case "vault":
		return a.addrs.Vault, nil
	case "dev":
		return a.keys.Wallets.Dev, nil
	case "beast":
		return a.keys.Wallets.Beast, nil
	}
	pk, err := solana.PublicKeyFromBase58(s)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("wallet %q: %w", s, err)
	}
	return pk, nil
}
