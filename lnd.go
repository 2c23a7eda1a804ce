package htlc

import (
	"context"
	"encoding/hex"
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/lightningnetwork/lnd/lnrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/status"
)

// MacaroonCredential implements the credentials.PerRPCCredentials interface
type MacaroonCredential struct {
	MacaroonHex string
}

func (m *MacaroonCredential) GetRequestMetadata(ctx context.Context,
	uri ...string) (map[string]string, error) {

	return map[string]string{
		"macaroon": m.MacaroonHex,
	}, nil
}

func (m *MacaroonCredential) RequireTransportSecurity() bool {
	return true
}

// LND reports node status over lnd's gRPC interface instead of lncli.
type LND struct {
	conn   *grpc.ClientConn
	client lnrpc.LightningClient
	clock  clock.Clock
}

func NewLND(tlsCertPath string, macaroonPath string, host string,
	port int) (*LND, error) {

	// Read TLS certificate
	tlsCert, err := credentials.NewClientTLSFromFile(tlsCertPath, "")
	if err != nil {
		return nil, fmt.Errorf("reading TLS cert: %w", err)
	}

	// Read macaroon
	macBytes, err := os.ReadFile(macaroonPath)
	if err != nil {
		return nil, fmt.Errorf("reading macaroon: %w", err)
	}

	conn, err := grpc.NewClient(
		net.JoinHostPort(host, strconv.Itoa(port)),
		grpc.WithTransportCredentials(tlsCert),
		grpc.WithPerRPCCredentials(&MacaroonCredential{
			MacaroonHex: hex.EncodeToString(macBytes),
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("creating gRPC channel to LND: %w", err)
	}

	return &LND{
		conn:   conn,
		client: lnrpc.NewLightningClient(conn),
		clock:  clock.NewDefaultClock(),
	}, nil
}

func (l *LND) Close() error {
	return l.conn.Close()
}

// NodeStatus implements StatusSource. A locked wallet is recognized from the
// error lnd returns while only the wallet unlocker service is up.
func (l *LND) NodeStatus(ctx context.Context) NodeStatus {
	info, err := l.client.GetInfo(ctx, &lnrpc.GetInfoRequest{})
	res := classifyRPC(info, err)
	res.CheckedAt = l.clock.Now()
	return res
}

func classifyRPC(info *lnrpc.GetInfoResponse, err error) NodeStatus {
	if err != nil {
		msg := err.Error()
		if s, ok := status.FromError(err); ok {
			msg = s.Message()
		}
		if IsWalletLockedMessage(msg) {
			return NodeStatus{State: StateRunning, Wallet: WalletLocked}
		}
		return NodeStatus{
			State: StateOffline,
			Err:   fmt.Sprintf("lnd getting info: %v", err),
		}
	}

	res := NodeStatus{
		State:          StateRunning,
		Wallet:         WalletUnlocked,
		Synced:         info.SyncedToChain,
		BlockHeight:    info.BlockHeight,
		Version:        info.Version,
		IdentityPubKey: info.IdentityPubkey,
		Alias:          info.Alias,
	}
	if len(info.Chains) > 0 {
		res.Network = info.Chains[0].Network
	}
	return res
}

// compile-time check to ensure LND implements the StatusSource interface
var _ StatusSource = (*LND)(nil)
