package htlc

import (
	"context"

	"github.com/lightningnetwork/lnd/lntypes"
)

// StatusSource reports the current status of a Lightning node. Failures are
// folded into the returned status rather than returned as errors.
type StatusSource interface {
	NodeStatus(ctx context.Context) NodeStatus
}

// InvoiceNode creates and resolves invoices on behalf of the local node.
type InvoiceNode interface {
	// CreateHoldInvoice generates a fresh preimage and registers a hold
	// invoice locked to its hash.
	CreateHoldInvoice(ctx context.Context, req InvoiceRequest) (
		*InvoiceRecord, error)

	// CreateStandardInvoice registers an invoice whose preimage is kept
	// by the node.
	CreateStandardInvoice(ctx context.Context, req InvoiceRequest) (
		*InvoiceRecord, error)

	// SettleInvoice settles the hold invoice for hash with the preimage
	// stored in the ledger.
	SettleInvoice(ctx context.Context, hash lntypes.Hash) (
		lntypes.Preimage, error)

	// CancelInvoice cancels an open invoice.
	CancelInvoice(ctx context.Context, hash lntypes.Hash) error

	// ListInvoices lists the node's invoices annotated with ledger data.
	ListInvoices(ctx context.Context) ([]InvoiceView, error)
}

// LightningNode is the full set of node operations the front ends use.
type LightningNode interface {
	StatusSource
	InvoiceNode

	GetInfo(ctx context.Context) (*GetInfoResponse, error)

	Unlock(ctx context.Context, password string) error

	WalletBalance(ctx context.Context) (*WalletBalanceResponse, error)

	ChannelBalance(ctx context.Context) (*ChannelBalanceResponse, error)

	Connect(ctx context.Context, peer PeerAddress) error

	OpenChannel(ctx context.Context, req ChannelRequest) (string, error)

	ListChannels(ctx context.Context) ([]Channel, error)

	ListPeers(ctx context.Context) ([]Peer, error)

	PayInvoice(ctx context.Context, payReq string) (*PaymentResponse,
		error)
}
