package htlc

import (
	"context"
	"fmt"

	"github.com/lightningnetwork/lnd/lntypes"
)

// GeneratePairTask generates a preimage pair without touching the node.
func GeneratePairTask() Task {
	return func(context.Context) (Update, error) {
		preimage, hash := GeneratePreimage()
		return Batch(
			SetPreimagePair(preimage, hash),
			StatusMessage("Generated new preimage pair"),
		), nil
	}
}

// RefreshInvoicesTask reloads the invoice list.
func RefreshInvoicesTask(node InvoiceNode) Task {
	return func(ctx context.Context) (Update, error) {
		views, err := node.ListInvoices(ctx)
		if err != nil {
			return nil, err
		}
		return SetInvoices(views), nil
	}
}

// CreateHoldInvoiceTask creates a hold invoice and records its pair.
func CreateHoldInvoiceTask(node InvoiceNode, req InvoiceRequest) Task {
	return func(ctx context.Context) (Update, error) {
		rec, err := node.CreateHoldInvoice(ctx, req)
		if err != nil {
			return nil, err
		}
		return Batch(
			SetPreimagePair(rec.PreimageHex(), rec.PaymentHash.String()),
			StatusMessage(fmt.Sprintf("Created hold invoice %v",
				rec.PaymentHash)),
		), nil
	}
}

// SettleInvoiceTask settles the hold invoice for hash.
func SettleInvoiceTask(node InvoiceNode, hash lntypes.Hash) Task {
	return func(ctx context.Context) (Update, error) {
		if _, err := node.SettleInvoice(ctx, hash); err != nil {
			return nil, err
		}
		return StatusMessage("Invoice settlement successful"), nil
	}
}

// CreateStandardInvoiceTask creates an invoice whose preimage stays with the
// node.
func CreateStandardInvoiceTask(node InvoiceNode, req InvoiceRequest) Task {
	return func(ctx context.Context) (Update, error) {
		rec, err := node.CreateStandardInvoice(ctx, req)
		if err != nil {
			return nil, err
		}
		return StatusMessage(fmt.Sprintf("Created invoice %v: %s",
			rec.PaymentHash, rec.PaymentRequest)), nil
	}
}

// CancelInvoiceTask cancels the open invoice for hash.
func CancelInvoiceTask(node InvoiceNode, hash lntypes.Hash) Task {
	return func(ctx context.Context) (Update, error) {
		if err := node.CancelInvoice(ctx, hash); err != nil {
			return nil, err
		}
		return StatusMessage(fmt.Sprintf("Canceled invoice %v", hash)),
			nil
	}
}
