package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// sampleConfig is written by initconfig. It only sets what most setups need
// to look at; everything else falls back to defaults.
func sampleConfig() *Config {
	return &Config{
		LogLevel:     defaultLogLevel,
		Network:      "testnet",
		StatusSource: defaultStatusSource,
		Lncli: LncliConfig{
			Path:      "lncli",
			RPCServer: "127.0.0.1:10009",
		},
	}
}

func saveConfig(path string, cfg *Config) error {
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return writeFileAtomic(path, b)
}

func writeFileAtomic(path string, data []byte) error {
	// ensure dir exists (0700)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer func() {
		f.Close()
		os.Remove(tmp)
	}()

	if _, err := f.Write(data); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	// atomic rename on same filesystem
	return os.Rename(tmp, path)
}
