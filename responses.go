package htlc

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// The types below mirror the JSON lncli prints. Only the fields this package
// consumes are declared.

type Chain struct {
	Chain   string `json:"chain"`
	Network string `json:"network"`
}

type GetInfoResponse struct {
	Version             string  `json:"version"`
	CommitHash          string  `json:"commit_hash"`
	IdentityPubkey      string  `json:"identity_pubkey"`
	Alias               string  `json:"alias"`
	NumPendingChannels  uint32  `json:"num_pending_channels"`
	NumActiveChannels   uint32  `json:"num_active_channels"`
	NumInactiveChannels uint32  `json:"num_inactive_channels"`
	NumPeers            uint32  `json:"num_peers"`
	BlockHeight         uint32  `json:"block_height"`
	BlockHash           string  `json:"block_hash"`
	SyncedToChain       bool    `json:"synced_to_chain"`
	SyncedToGraph       bool    `json:"synced_to_graph"`
	Chains              []Chain `json:"chains"`
}

// Network returns the network of the first reported chain.
func (r *GetInfoResponse) Network() string {
	if len(r.Chains) == 0 {
		return ""
	}
	return r.Chains[0].Network
}

// AddInvoiceResponse covers both addinvoice and addholdinvoice. The latter
// does not echo the payment hash.
type AddInvoiceResponse struct {
	RHash          string `json:"r_hash"`
	PaymentRequest string `json:"payment_request"`
	AddIndex       Int64  `json:"add_index"`
	PaymentAddr    string `json:"payment_addr"`
}

type PayReqResponse struct {
	Destination string `json:"destination"`
	PaymentHash string `json:"payment_hash"`
	NumSatoshis Int64  `json:"num_satoshis"`
	Timestamp   Int64  `json:"timestamp"`
	Expiry      Int64  `json:"expiry"`
	Description string `json:"description"`
	CltvExpiry  Int64  `json:"cltv_expiry"`
	PaymentAddr string `json:"payment_addr"`
	NumMsat     Int64  `json:"num_msat"`
}

type Invoice struct {
	Memo           string `json:"memo"`
	RPreimage      string `json:"r_preimage"`
	RHash          string `json:"r_hash"`
	Value          Int64  `json:"value"`
	Settled        bool   `json:"settled"`
	CreationDate   Int64  `json:"creation_date"`
	SettleDate     Int64  `json:"settle_date"`
	PaymentRequest string `json:"payment_request"`
	Expiry         Int64  `json:"expiry"`
	AddIndex       Int64  `json:"add_index"`
	AmtPaidSat     Int64  `json:"amt_paid_sat"`
	State          string `json:"state"`
	IsKeysend      bool   `json:"is_keysend"`
	PaymentAddr    string `json:"payment_addr"`
}

type ListInvoicesResponse struct {
	Invoices         []Invoice `json:"invoices"`
	LastIndexOffset  Int64     `json:"last_index_offset"`
	FirstIndexOffset Int64     `json:"first_index_offset"`
}

type Channel struct {
	Active        bool   `json:"active"`
	RemotePubkey  string `json:"remote_pubkey"`
	ChannelPoint  string `json:"channel_point"`
	ChanID        string `json:"chan_id"`
	Capacity      Int64  `json:"capacity"`
	LocalBalance  Int64  `json:"local_balance"`
	RemoteBalance Int64  `json:"remote_balance"`
	Private       bool   `json:"private"`
	PeerAlias     string `json:"peer_alias"`
}

type ListChannelsResponse struct {
	Channels []Channel `json:"channels"`
}

type Peer struct {
	PubKey    string `json:"pub_key"`
	Address   string `json:"address"`
	BytesSent Int64  `json:"bytes_sent"`
	BytesRecv Int64  `json:"bytes_recv"`
	SatSent   Int64  `json:"sat_sent"`
	SatRecv   Int64  `json:"sat_recv"`
	Inbound   bool   `json:"inbound"`
	PingTime  Int64  `json:"ping_time"`
}

type ListPeersResponse struct {
	Peers []Peer `json:"peers"`
}

type WalletBalanceResponse struct {
	TotalBalance       Int64 `json:"total_balance"`
	ConfirmedBalance   Int64 `json:"confirmed_balance"`
	UnconfirmedBalance Int64 `json:"unconfirmed_balance"`
	LockedBalance      Int64 `json:"locked_balance"`
}

type Amount struct {
	Sat  Int64 `json:"sat"`
	Msat Int64 `json:"msat"`
}

type ChannelBalanceResponse struct {
	Balance            Int64  `json:"balance"`
	PendingOpenBalance Int64  `json:"pending_open_balance"`
	LocalBalance       Amount `json:"local_balance"`
	RemoteBalance      Amount `json:"remote_balance"`
}

type OpenChannelResponse struct {
	FundingTxid  string `json:"funding_txid"`
	ChannelPoint string `json:"channel_point"`
}

// FundingTxID returns the funding transaction id, taken from funding_txid or
// from the txid part of channel_point.
func (r *OpenChannelResponse) FundingTxID() (*chainhash.Hash, error) {
	txid := r.FundingTxid
	if txid == "" {
		txid, _, _ = strings.Cut(r.ChannelPoint, ":")
	}
	if txid == "" {
		return nil, &ParseError{Field: "funding_txid", Err: ErrFieldMissing}
	}

	hash, err := chainhash.NewHashFromStr(txid)
	if err != nil {
		return nil, &ParseError{
			Field: "funding_txid",
			Err:   fmt.Errorf("invalid txid %q: %w", txid, err),
		}
	}
	return hash, nil
}

type PaymentResponse struct {
	PaymentHash     string `json:"payment_hash"`
	PaymentPreimage string `json:"payment_preimage"`
	Status          string `json:"status"`
	FailureReason   string `json:"failure_reason"`
	ValueSat        Int64  `json:"value_sat"`
	FeeSat          Int64  `json:"fee_sat"`
	PaymentRequest  string `json:"payment_request"`
}
