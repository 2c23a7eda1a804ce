package htlc

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/lightningnetwork/lnd/clock"
)

// ErrNetworkMismatch is returned when the ledger was created for a different
// network than the one the node is configured for.
var ErrNetworkMismatch = errors.New("ledger network mismatch")

type NodeConfig struct {
	// Runner executes lncli commands.
	Runner CommandRunner

	// Ledger stores invoice records and cached node settings.
	Ledger *Ledger

	// Network is the network passed to lncli.
	Network string

	// Clock stamps new records. Defaults to the wall clock.
	Clock clock.Clock
}

// Node drives a local lnd through lncli and keeps the invoice ledger in sync
// with what it creates.
type Node struct {
	runner  CommandRunner
	ledger  *Ledger
	clock   clock.Clock
	network string

	mu sync.Mutex

	// Cache of the node's identity pubkey.
	pubKey string
}

func NewNode(cfg NodeConfig) (*Node, error) {
	if cfg.Runner == nil || cfg.Ledger == nil {
		return nil, errors.New("node needs a command runner and a ledger")
	}
	if !IsValidNetwork(cfg.Network) {
		return nil, fmt.Errorf("invalid network: %s", cfg.Network)
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.NewDefaultClock()
	}

	stored, err := cfg.Ledger.Network()
	if err != nil {
		return nil, err
	}
	switch stored {
	case "":
		if err := cfg.Ledger.SetNetwork(cfg.Network); err != nil {
			return nil, err
		}
	case cfg.Network:
	default:
		return nil, fmt.Errorf("%w: ledger holds %s invoices, node "+
			"is configured for %s", ErrNetworkMismatch, stored,
			cfg.Network)
	}

	pubKey, err := cfg.Ledger.IdentityPubKey()
	if err != nil {
		return nil, err
	}

	return &Node{
		runner:  cfg.Runner,
		ledger:  cfg.Ledger,
		clock:   cfg.Clock,
		network: cfg.Network,
		pubKey:  pubKey,
	}, nil
}

func (n *Node) Network() string {
	return n.network
}

func (n *Node) Ledger() *Ledger {
	return n.ledger
}

// GetInfo runs getinfo and refreshes the cached identity pubkey.
func (n *Node) GetInfo(ctx context.Context) (*GetInfoResponse, error) {
	out, err := n.runner.Run(ctx, "getinfo")
	if err != nil {
		return nil, fmt.Errorf("getting node info: %w", err)
	}

	info, err := Decode[GetInfoResponse](out, "identity_pubkey")
	if err != nil {
		return nil, fmt.Errorf("getting node info: %w", err)
	}

	if network := info.Network(); network != "" && network != n.network {
		log.Warnf("Node reports network %s, configured for %s",
			network, n.network)
	}

	n.cachePubKey(info.IdentityPubkey)
	return info, nil
}

// NodeStatus implements StatusSource using lncli getinfo.
func (n *Node) NodeStatus(ctx context.Context) NodeStatus {
	out, err := n.runner.Run(ctx, "getinfo")
	status := Classify(out, err)
	status.CheckedAt = n.clock.Now()
	if status.IdentityPubKey != "" {
		n.cachePubKey(status.IdentityPubKey)
	}
	return status
}

func (n *Node) cachePubKey(pubKey string) {
	if pubKey == "" {
		return
	}

	n.mu.Lock()
	changed := n.pubKey != pubKey
	n.pubKey = pubKey
	n.mu.Unlock()

	if !changed {
		return
	}
	if err := n.ledger.SetIdentityPubKey(pubKey); err != nil {
		log.Errorf("Caching identity pubkey: %v", err)
	}
}

// identityPubKey returns the cached identity pubkey, asking the node when it
// is not known yet.
func (n *Node) identityPubKey(ctx context.Context) (string, error) {
	n.mu.Lock()
	pubKey := n.pubKey
	n.mu.Unlock()

	if pubKey != "" {
		return pubKey, nil
	}

	info, err := n.GetInfo(ctx)
	if err != nil {
		return "", err
	}
	return info.IdentityPubkey, nil
}

var (
	_ LightningNode = (*Node)(nil)
	_ StatusSource  = (*Node)(nil)
)
