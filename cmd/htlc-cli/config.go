package main

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/Erichy-dev/htlc"
	"github.com/go-playground/validator/v10"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

var (
	appName = "htlc"
)

const (
	defaultLogLevel      = "info"
	defaultStatusSource  = "lncli"
	defaultLncliTimeout  = 60 * time.Second
	defaultLNDPort       = 10009
	defaultDataDirSuffix = "data"
)

// Config is loaded from the YAML file (global).
type Config struct {
	DataDir      string               `yaml:"data_dir,omitempty"`
	LogLevel     string               `yaml:"log_level,omitempty" validate:"omitempty,oneof=trace debug info warn error critical off"`
	Network      string               `yaml:"network,omitempty" validate:"omitempty,oneof=mainnet testnet testnet4 signet simnet regtest"`
	PollInterval time.Duration        `yaml:"poll_interval,omitempty" validate:"gte=0"`
	Workers      int                  `yaml:"workers,omitempty" validate:"gte=0"`
	StatusSource string               `yaml:"status_source,omitempty" validate:"omitempty,oneof=lncli grpc"`
	Lncli        LncliConfig          `yaml:"lncli,omitempty"`
	LNDConfig    *LNDConfig           `yaml:"lnd,omitempty" validate:"required_if=StatusSource grpc"`
	Service      htlc.ServiceCommands `yaml:"service,omitempty"`
}

// LncliConfig holds the settings passed to every lncli invocation.
type LncliConfig struct {
	Path         string        `yaml:"path,omitempty"`
	RPCServer    string        `yaml:"rpcserver,omitempty" validate:"omitempty,hostname_port"`
	TLSCertPath  string        `yaml:"tls_cert_path,omitempty"`
	MacaroonPath string        `yaml:"macaroon_path,omitempty"`
	Timeout      time.Duration `yaml:"timeout,omitempty" validate:"gte=0"`
}

// LNDConfig holds the LND node connection settings
type LNDConfig struct {
	Host         string `yaml:"host,omitempty" validate:"required"`
	Port         int    `yaml:"port,omitempty" validate:"omitempty,min=1,max=65535"`
	TLSCertPath  string `yaml:"tls_cert_path,omitempty" validate:"required"`
	MacaroonPath string `yaml:"macaroon_path,omitempty" validate:"required"`
}

// Validate performs basic validation of the config values.
func (c *Config) validate() error {
	// Validate all fields with required tag
	validator := validator.New()
	return validator.Struct(c)
}

func (c *Config) setDefaults() error {
	if c.DataDir == "" {
		path, err := configDirFilePath(defaultDataDirSuffix)
		if err != nil {
			return err
		}
		c.DataDir = path
	}

	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}

	if c.Network == "" {
		c.Network = htlc.DefaultNetwork
	}

	if c.PollInterval == 0 {
		c.PollInterval = htlc.DefaultPollInterval
	}

	if c.Workers == 0 {
		c.Workers = htlc.DefaultWorkers
	}

	if c.StatusSource == "" {
		c.StatusSource = defaultStatusSource
	}

	if c.Lncli.Path == "" {
		c.Lncli.Path = htlc.DefaultBinary
	}

	if c.Lncli.Timeout == 0 {
		c.Lncli.Timeout = defaultLncliTimeout
	}

	if c.LNDConfig != nil && c.LNDConfig.Port == 0 {
		c.LNDConfig.Port = defaultLNDPort
	}

	return nil
}

func (c *Config) gatewayConfig() htlc.GatewayConfig {
	return htlc.GatewayConfig{
		Binary:       c.Lncli.Path,
		Network:      c.Network,
		RPCServer:    c.Lncli.RPCServer,
		TLSCertPath:  c.Lncli.TLSCertPath,
		MacaroonPath: c.Lncli.MacaroonPath,
		Timeout:      c.Lncli.Timeout,
	}
}

func loadConfig(c *cli.Context) (*Config, error) {
	var (
		configFile string
		explicit   = c.IsSet("config")
		err        error
	)

	if explicit {
		configFile = c.String("config")
	} else if configFile, err = defaultConfigPath(); err != nil {
		return nil, err
	}

	return loadConfigFile(configFile, explicit)
}

// loadConfigFile reads and validates the config at path. A missing file is
// only an error if it was requested explicitly; otherwise the defaults are
// used.
func loadConfigFile(path string, explicit bool) (*Config, error) {
	cfg := &Config{}

	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		b = nil

	case err != nil:
		return nil, err
	}

	if len(bytes.TrimSpace(b)) > 0 {
		// new YAML decoder that errors on unknown fields,
		decoder := yaml.NewDecoder(bytes.NewReader(b))
		decoder.KnownFields(true)

		if err = decoder.Decode(cfg); err != nil {
			return nil, fmt.Errorf("unmarshaling config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if err := cfg.setDefaults(); err != nil {
		return nil, fmt.Errorf("setting config defaults: %w", err)
	}

	return cfg, nil
}

// DefaultConfigPath returns a reasonable per-user path like
//
//	Linux/macOS: $XDG_CONFIG_HOME/<app>/config.yaml
func defaultConfigPath() (string, error) {
	return configDirFilePath("config.yaml")
}

func configDirFilePath(filename string) (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName, filename), nil
}
