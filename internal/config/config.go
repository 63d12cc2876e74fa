package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/gagliardetto/solana-go"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/fystack/crown-clash/internal/game"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"

	IdentityLocal = "local"
	IdentityRPC   = "rpc"

	// EnvPrefix is prepended to every environment override.
	EnvPrefix = "CROWNCLASH_"
)

var validate = validator.New()

type Config struct {
	Environment string         `yaml:"environment" env:"ENVIRONMENT" validate:"required,oneof=production development"`
	Game        GameConfig     `yaml:"game" envPrefix:"GAME_"`
	Storage     StorageConfig  `yaml:"storage" envPrefix:"STORAGE_"`
	NATS        NATSConfig     `yaml:"nats" envPrefix:"NATS_"`
	Identity    IdentityConfig `yaml:"identity" envPrefix:"IDENTITY_"`
	Logging     LoggingConfig  `yaml:"logging" envPrefix:"LOG_"`
}

type GameConfig struct {
	// ProgramID seeds the derived game and vault addresses.
	ProgramID   string `yaml:"program_id" env:"PROGRAM_ID"`
	Authority   string `yaml:"authority" env:"AUTHORITY" validate:"required"`
	DevWallet   string `yaml:"dev_wallet" env:"DEV_WALLET" validate:"required"`
	BeastWallet string `yaml:"beast_wallet" env:"BEAST_WALLET" validate:"required"`
	StealMint   string `yaml:"steal_mint" env:"STEAL_MINT" validate:"required"`
	// SeasonStart is a unix timestamp; 0 opens play immediately.
	SeasonStart int64  `yaml:"season_start" env:"SEASON_START" validate:"min=0"`
	JackpotSeed uint64 `yaml:"jackpot_seed" env:"JACKPOT_SEED"`
	YieldSeed   uint64 `yaml:"yield_seed" env:"YIELD_SEED"`
}

type StorageConfig struct {
	Directory string `yaml:"directory" env:"DIRECTORY" validate:"required_without=InMemory"`
	InMemory  bool   `yaml:"in_memory" env:"IN_MEMORY"`
	Prefix    string `yaml:"prefix" env:"PREFIX"`
}

type NATSConfig struct {
	Enabled        bool          `yaml:"enabled" env:"ENABLED"`
	URL            string        `yaml:"url" env:"URL" validate:"omitempty,url"`
	Subject        string        `yaml:"subject" env:"SUBJECT" validate:"required"`
	Username       string        `yaml:"username" env:"USERNAME"`
	Password       string        `yaml:"password" env:"PASSWORD"`
	TLS            NATSTLSConfig `yaml:"tls" envPrefix:"TLS_"`
	PublishRetries int           `yaml:"publish_retries" env:"PUBLISH_RETRIES" validate:"min=1"`
	RetryInterval  time.Duration `yaml:"retry_interval" env:"RETRY_INTERVAL"`
}

type NATSTLSConfig struct {
	ClientCert string `yaml:"client_cert" env:"CLIENT_CERT"`
	ClientKey  string `yaml:"client_key" env:"CLIENT_KEY"`
	CACert     string `yaml:"ca_cert" env:"CA_CERT"`
}

// IdentityConfig picks where token balances for the VIP check come from.
type IdentityConfig struct {
	Source string    `yaml:"source" env:"SOURCE" validate:"required,oneof=local rpc"`
	RPC    RPCConfig `yaml:"rpc" envPrefix:"RPC_"`
}

type RPCConfig struct {
	URL string `yaml:"url" env:"URL" validate:"omitempty,url"`
	// FallbackURLs are tried in order once URL is blacklisted.
	FallbackURLs      []string      `yaml:"fallback_urls" env:"FALLBACK_URLS" envSeparator:"," validate:"dive,url"`
	RequestsPerSecond int           `yaml:"requests_per_second" env:"RPS" validate:"min=1"`
	BurstSize         int           `yaml:"burst_size" env:"BURST" validate:"min=1"`
	RequestTimeout    time.Duration `yaml:"request_timeout" env:"TIMEOUT"`
	MaxRetries        int           `yaml:"max_retries" env:"MAX_RETRIES" validate:"min=1"`
}

type LoggingConfig struct {
	Level      string `yaml:"level" env:"LEVEL" validate:"oneof=debug info warn error"`
	TimeFormat string `yaml:"time_format" env:"TIME_FORMAT"`
}

// Load reads the YAML file at path, fills defaults, applies CROWNCLASH_*
// environment overrides and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("struct validation failed: %w", err)
	}
	if cfg.Identity.Source == IdentityRPC && cfg.Identity.RPC.URL == "" {
		return nil, fmt.Errorf("identity source %q needs rpc.url", IdentityRPC)
	}
	if _, err := cfg.Game.Keys(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Environment == "" {
		c.Environment = EnvDevelopment
	}
	if c.Storage.Prefix == "" {
		c.Storage.Prefix = "crownclash"
	}
	if c.NATS.Subject == "" {
		c.NATS.Subject = "crownclash.events"
	}
	if c.NATS.PublishRetries == 0 {
		c.NATS.PublishRetries = 3
	}
	if c.NATS.RetryInterval == 0 {
		c.NATS.RetryInterval = 200 * time.Millisecond
	}
	if c.Identity.Source == "" {
		c.Identity.Source = IdentityLocal
	}
	if c.Identity.RPC.RequestsPerSecond == 0 {
		c.Identity.RPC.RequestsPerSecond = 10
	}
	if c.Identity.RPC.BurstSize == 0 {
		c.Identity.RPC.BurstSize = c.Identity.RPC.RequestsPerSecond
	}
	if c.Identity.RPC.RequestTimeout == 0 {
		c.Identity.RPC.RequestTimeout = 10 * time.Second
	}
	if c.Identity.RPC.MaxRetries == 0 {
		c.Identity.RPC.MaxRetries = 3
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Keys holds the parsed identities of GameConfig.
type Keys struct {
	ProgramID solana.PublicKey
	Authority solana.PublicKey
	Wallets   game.Wallets
	StealMint solana.PublicKey
}

func (g GameConfig) Keys() (Keys, error) {
	var (
		k   Keys
		err error
	)
	parse := func(name, value string, dst *solana.PublicKey) {
		if err != nil {
			return
		}
		var pk solana.PublicKey
		if pk, err = solana.PublicKeyFromBase58(value); err != nil {
			err = fmt.Errorf("game.%s: %w", name, err)
			return
		}
		*dst = pk
	}
	if g.ProgramID != "" {
		parse("program_id", g.ProgramID, &k.ProgramID)
	}
	parse("authority", g.Authority, &k.Authority)
	parse("dev_wallet", g.DevWallet, &k.Wallets.Dev)
	parse("beast_wallet", g.BeastWallet, &k.Wallets.Beast)
	parse("steal_mint", g.StealMint, &k.StealMint)
	return k, err
}
