package htlc

import (
	"context"
	"errors"
	"testing"

	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestClassifyRPC(t *testing.T) {
	info := &lnrpc.GetInfoResponse{
		IdentityPubkey: "02aa",
		Alias:          "bob",
		BlockHeight:    42,
		SyncedToChain:  true,
		Version:        "0.19.3-beta",
		Chains: []*lnrpc.Chain{
			{Chain: "bitcoin", Network: "signet"},
		},
	}

	res := classifyRPC(info, nil)
	require.Equal(t, StateRunning, res.State)
	require.Equal(t, WalletUnlocked, res.Wallet)
	require.True(t, res.Synced)
	require.Equal(t, uint32(42), res.BlockHeight)
	require.Equal(t, "signet", res.Network)
	require.Equal(t, "02aa", res.IdentityPubKey)

	locked := status.Error(codes.Unknown,
		"wallet locked, unlock it to enable full RPC access")
	res = classifyRPC(nil, locked)
	require.Equal(t, StateRunning, res.State)
	require.Equal(t, WalletLocked, res.Wallet)

	unavailable := status.Error(codes.Unavailable, "connection refused")
	res = classifyRPC(nil, unavailable)
	require.Equal(t, StateOffline, res.State)
	require.Contains(t, res.Err, "connection refused")

	res = classifyRPC(nil, errors.New("plain error"))
	require.Equal(t, StateOffline, res.State)
}

func TestMacaroonCredential(t *testing.T) {
	cred := &MacaroonCredential{MacaroonHex: "0201"}

	md, err := cred.GetRequestMetadata(context.Background())
	require.NoError(t, err)
	require.Equal(t, map[string]string{"macaroon": "0201"}, md)
	require.True(t, cred.RequireTransportSecurity())
}

func TestNewLNDMissingFiles(t *testing.T) {
	_, err := NewLND("/nonexistent/tls.cert", "/nonexistent/admin.macaroon",
		"localhost", 10009)
	require.Error(t, err)
}
