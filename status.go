package htlc

import (
	"errors"
	"strings"
	"time"
)

type NodeState uint8

const (
	StateUnknown NodeState = iota
	StateOffline
	StateRunning
)

func (s NodeState) String() string {
	switch s {
	case StateOffline:
		return "offline"
	case StateRunning:
		return "running"
	default:
		return "unknown"
	}
}

func (s NodeState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type WalletState uint8

const (
	WalletUnknown WalletState = iota
	WalletLocked
	WalletUnlocked
)

func (s WalletState) String() string {
	switch s {
	case WalletLocked:
		return "locked"
	case WalletUnlocked:
		return "unlocked"
	default:
		return "unknown"
	}
}

func (s WalletState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// NodeStatus is a point-in-time view of the node, refreshed by the poller.
type NodeStatus struct {
	State          NodeState   `json:"state"`
	Wallet         WalletState `json:"wallet"`
	Synced         bool        `json:"synced"`
	BlockHeight    uint32      `json:"block_height"`
	Version        string      `json:"version,omitempty"`
	IdentityPubKey string      `json:"identity_pubkey,omitempty"`
	Alias          string      `json:"alias,omitempty"`
	Network        string      `json:"network,omitempty"`
	Err            string      `json:"error,omitempty"`
	CheckedAt      time.Time   `json:"checked_at"`
}

// Running reports whether the daemon answered, locked or not.
func (s NodeStatus) Running() bool {
	return s.State == StateRunning
}

// SyncText is the short human readable sync state.
func (s NodeStatus) SyncText() string {
	switch {
	case s.State == StateUnknown:
		return "Unknown"
	case s.State == StateOffline:
		return "Offline"
	case s.Wallet == WalletLocked:
		return "Wallet locked"
	case s.Synced:
		return "Chain synced"
	default:
		return "Syncing..."
	}
}

var walletLockedIndicators = []string{
	"wallet locked",
	"wallet not unlocked",
	"wallet state: locked",
	"unlock it to enable full rpc access",
}

// IsWalletLockedMessage reports whether CLI or RPC output says the wallet is
// locked.
func IsWalletLockedMessage(s string) bool {
	s = strings.ToLower(s)
	for _, indicator := range walletLockedIndicators {
		if strings.Contains(s, indicator) {
			return true
		}
	}
	return false
}

// Classify turns the outcome of a getinfo call into a NodeStatus.
//
// A process that could not be run is offline. A wallet lock indicator in
// stdout or stderr means the daemon is up with a locked wallet. Any other
// non-zero exit is offline. Otherwise the node is running and unlocked, with
// the remaining fields taken from the getinfo response.
func Classify(out string, err error) NodeStatus {
	var cmdErr *CommandFailedError
	switch {
	case err != nil && !errors.As(err, &cmdErr):
		return NodeStatus{State: StateOffline, Err: err.Error()}

	case IsWalletLockedMessage(out),
		cmdErr != nil && IsWalletLockedMessage(cmdErr.Stderr):

		return NodeStatus{State: StateRunning, Wallet: WalletLocked}

	case cmdErr != nil:
		return NodeStatus{State: StateOffline, Err: cmdErr.Error()}
	}

	status := NodeStatus{State: StateRunning, Wallet: WalletUnlocked}
	info, perr := Decode[GetInfoResponse](out, "synced_to_chain")
	if perr != nil {
		status.Err = perr.Error()
		return status
	}
	status.fromInfo(info)
	return status
}

func (s *NodeStatus) fromInfo(info *GetInfoResponse) {
	s.Synced = info.SyncedToChain
	s.BlockHeight = info.BlockHeight
	s.Version = info.Version
	s.IdentityPubKey = info.IdentityPubkey
	s.Alias = info.Alias
	s.Network = info.Network()
}
