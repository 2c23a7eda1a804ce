package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Erichy-dev/htlc"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfig(t, `
data_dir: /tmp/htlc
log_level: debug
network: regtest
poll_interval: 30s
workers: 2
lncli:
  path: /usr/local/bin/lncli
  rpcserver: 127.0.0.1:10010
  timeout: 5s
service:
  start: systemctl --user start lnd
`)

	cfg, err := loadConfigFile(path, true)
	require.NoError(t, err)
	require.Equal(t, "/tmp/htlc", cfg.DataDir)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, "regtest", cfg.Network)
	require.Equal(t, 30*time.Second, cfg.PollInterval)
	require.Equal(t, 2, cfg.Workers)
	require.Equal(t, "lncli", cfg.StatusSource)
	require.Equal(t, "systemctl --user start lnd", cfg.Service.Start)

	gw := cfg.gatewayConfig()
	require.Equal(t, "/usr/local/bin/lncli", gw.Binary)
	require.Equal(t, "127.0.0.1:10010", gw.RPCServer)
	require.Equal(t, 5*time.Second, gw.Timeout)
	require.Equal(t, "regtest", gw.Network)
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, "")

	cfg, err := loadConfigFile(path, true)
	require.NoError(t, err)
	require.Equal(t, htlc.DefaultNetwork, cfg.Network)
	require.Equal(t, defaultLogLevel, cfg.LogLevel)
	require.Equal(t, htlc.DefaultPollInterval, cfg.PollInterval)
	require.Equal(t, htlc.DefaultWorkers, cfg.Workers)
	require.Equal(t, htlc.DefaultBinary, cfg.Lncli.Path)
	require.Equal(t, defaultLncliTimeout, cfg.Lncli.Timeout)
	require.NotEmpty(t, cfg.DataDir)
}

func TestLoadConfigMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")

	_, err := loadConfigFile(path, true)
	require.Error(t, err)

	cfg, err := loadConfigFile(path, false)
	require.NoError(t, err)
	require.Equal(t, htlc.DefaultNetwork, cfg.Network)
}

func TestLoadConfigRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, "relay_urls: [wss://relay]\n")

	_, err := loadConfigFile(path, true)
	require.Error(t, err)
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "bad network", content: "network: moonnet\n"},
		{name: "bad level", content: "log_level: loud\n"},
		{name: "bad source", content: "status_source: rest\n"},
		{name: "grpc without lnd", content: "status_source: grpc\n"},
		{name: "lnd without cert", content: "status_source: grpc\nlnd:\n  host: localhost\n  macaroon_path: /m\n"},
		{name: "bad rpcserver", content: "lncli:\n  rpcserver: nocolon\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := loadConfigFile(writeConfig(t, tc.content), true)
			require.Error(t, err)
		})
	}
}

func TestLoadConfigGRPC(t *testing.T) {
	path := writeConfig(t, `
status_source: grpc
lnd:
  host: localhost
  tls_cert_path: /lnd/tls.cert
  macaroon_path: /lnd/admin.macaroon
`)

	cfg, err := loadConfigFile(path, true)
	require.NoError(t, err)
	require.Equal(t, "grpc", cfg.StatusSource)
	require.Equal(t, defaultLNDPort, cfg.LNDConfig.Port)
}

func TestSaveSampleConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, saveConfig(path, sampleConfig()))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	_, err = os.Stat(path + ".tmp")
	require.True(t, os.IsNotExist(err))

	cfg, err := loadConfigFile(path, true)
	require.NoError(t, err)
	require.Equal(t, "testnet", cfg.Network)
	require.Equal(t, "127.0.0.1:10009", cfg.Lncli.RPCServer)
}
