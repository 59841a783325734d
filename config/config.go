// Package config loads the toolkit settings from a YAML file, a .env file and
// the process environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/ruteri/eas-attestation-toolkit/interfaces"
	"gopkg.in/yaml.v3"
)

// Sepolia deployments used when no address is configured.
const (
	DefaultEASAddress            = "0xC2679fBD37d54388Ce493F1DB75320D236e1815e"
	DefaultSchemaRegistryAddress = "0x0a7E2Ff54e76B8E6659aedc9103FB21c038050D0"
	DefaultResultLog             = "attestations.log"
	DefaultConfirmationTimeout   = 5 * time.Minute
)

type Config struct {
	PrivateKey            string        `yaml:"privateKey"            envconfig:"PRIVATE_KEY"`
	RPCProvider           string        `yaml:"rpcProvider"           envconfig:"RPC_PROVIDER"`
	EASAddress            string        `yaml:"easAddress"            envconfig:"EAS_ADDRESS"`
	SchemaRegistryAddress string        `yaml:"schemaRegistryAddress" envconfig:"SCHEMA_REGISTRY_ADDRESS"`
	ResultLog             string        `yaml:"resultLog"             envconfig:"RESULT_LOG"`
	ArchiveURIs           []string      `yaml:"archiveURIs"           envconfig:"ARCHIVE_URIS"`
	ConfirmationTimeout   time.Duration `yaml:"confirmationTimeout"   envconfig:"CONFIRMATION_TIMEOUT"`
}

func Default() *Config {
	return &Config{
		EASAddress:            DefaultEASAddress,
		SchemaRegistryAddress: DefaultSchemaRegistryAddress,
		ResultLog:             DefaultResultLog,
		ConfirmationTimeout:   DefaultConfirmationTimeout,
	}
}

// Load builds the configuration. configFile is an optional YAML file and
// envFile an optional dotenv file; a missing envFile is not an error.
func Load(configFile, envFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	if envFile != "" {
		// godotenv never overrides variables already present in the environment.
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error loading %s: %w", envFile, err)
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}

	cfg.PrivateKey = strings.TrimSpace(cfg.PrivateKey)
	cfg.RPCProvider = strings.TrimSpace(cfg.RPCProvider)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that are always required to be well-formed.
// Credentials are checked separately by RequireRPC and RequireSigner since
// offline commands do not need them.
func (c *Config) Validate() error {
	if !common.IsHexAddress(c.EASAddress) {
		return fmt.Errorf("%w: invalid EAS_ADDRESS %q", interfaces.ErrConfigurationMissing, c.EASAddress)
	}
	if !common.IsHexAddress(c.SchemaRegistryAddress) {
		return fmt.Errorf("%w: invalid SCHEMA_REGISTRY_ADDRESS %q", interfaces.ErrConfigurationMissing, c.SchemaRegistryAddress)
	}
	if c.ConfirmationTimeout <= 0 {
		return fmt.Errorf("%w: CONFIRMATION_TIMEOUT must be positive", interfaces.ErrConfigurationMissing)
	}
	return nil
}

// RequireRPC reports ErrConfigurationMissing when RPC_PROVIDER is unset.
func (c *Config) RequireRPC() error {
	if c.RPCProvider == "" {
		return fmt.Errorf("%w: RPC_PROVIDER is not set", interfaces.ErrConfigurationMissing)
	}
	return nil
}

// RequireSigner reports ErrConfigurationMissing when either PRIVATE_KEY or
// RPC_PROVIDER is unset.
func (c *Config) RequireSigner() error {
	if c.PrivateKey == "" {
		return fmt.Errorf("%w: PRIVATE_KEY is not set", interfaces.ErrConfigurationMissing)
	}
	return c.RequireRPC()
}

func (c *Config) EAS() common.Address {
	return common.HexToAddress(c.EASAddress)
}

func (c *Config) SchemaRegistry() common.Address {
	return common.HexToAddress(c.SchemaRegistryAddress)
}
