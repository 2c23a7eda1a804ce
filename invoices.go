package htlc

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lightningnetwork/lnd/lntypes"
)

// CreationDateLayout formats invoice creation dates in listings.
const CreationDateLayout = "2006-01-02 15:04:05 UTC"

// ErrPaymentFailed is returned by PayInvoice when the payment did not
// succeed.
var ErrPaymentFailed = errors.New("payment failed")

// CreateHoldInvoice generates a fresh preimage pair and registers a hold
// invoice for its hash. The preimage is stored in the ledger before the call
// returns.
func (n *Node) CreateHoldInvoice(ctx context.Context, req InvoiceRequest) (
	*InvoiceRecord, error) {

	preimage, _ := NewPreimagePair()
	return n.CreateHoldInvoiceWithPreimage(ctx, preimage, req)
}

// CreateHoldInvoiceWithPreimage registers a hold invoice locked to the hash
// of preimage and stores the pair in the ledger. Once lncli has accepted the
// invoice the pair stays in the ledger, even if the checks that follow fail.
func (n *Node) CreateHoldInvoiceWithPreimage(ctx context.Context,
	preimage lntypes.Preimage, req InvoiceRequest) (*InvoiceRecord, error) {

	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid invoice request: %w", err)
	}

	hash := preimage.Hash()
	out, err := n.runner.Run(ctx, "addholdinvoice",
		"--memo", req.Memo,
		"--amt", strconv.FormatInt(req.AmountSat, 10),
		hash.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("adding hold invoice: %w", err)
	}

	resp, err := Decode[AddInvoiceResponse](out, "payment_request")
	if err != nil {
		return nil, fmt.Errorf("adding hold invoice: %w", err)
	}

	rec := &InvoiceRecord{
		PaymentHash:    hash,
		Preimage:       &preimage,
		PaymentAddr:    resp.PaymentAddr,
		PaymentRequest: resp.PaymentRequest,
		AmountSat:      req.AmountSat,
		Memo:           req.Memo,
		Kind:           KindHold,
		CreatedAt:      n.clock.Now(),
	}

	// The invoice is live on the node from here on. Store the preimage
	// before anything else can fail, or the invoice could never be
	// settled.
	if err := n.ledger.PutInvoice(rec); err != nil {
		return nil, err
	}
	if err := n.finishInvoice(ctx, rec); err != nil {
		log.Errorf("Hold invoice %v stored but not verified: %v", hash,
			err)
		return nil, fmt.Errorf("verifying hold invoice %v: %w", hash,
			err)
	}

	log.Infof("Created hold invoice %v for %d sat", hash, req.AmountSat)
	return rec, nil
}

// CreateStandardInvoice registers an invoice whose preimage is generated and
// kept by the node. The ledger record carries no preimage.
func (n *Node) CreateStandardInvoice(ctx context.Context, req InvoiceRequest) (
	*InvoiceRecord, error) {

	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid invoice request: %w", err)
	}

	out, err := n.runner.Run(ctx, "addinvoice",
		"--memo", req.Memo,
		"--amt", strconv.FormatInt(req.AmountSat, 10),
	)
	if err != nil {
		return nil, fmt.Errorf("adding invoice: %w", err)
	}

	resp, err := Decode[AddInvoiceResponse](out, "r_hash",
		"payment_request")
	if err != nil {
		return nil, fmt.Errorf("adding invoice: %w", err)
	}
	hash, err := lntypes.MakeHashFromStr(resp.RHash)
	if err != nil {
		return nil, &ParseError{Field: "r_hash", Err: err}
	}

	rec := &InvoiceRecord{
		PaymentHash:    hash,
		PaymentAddr:    resp.PaymentAddr,
		PaymentRequest: resp.PaymentRequest,
		AmountSat:      req.AmountSat,
		Memo:           req.Memo,
		Kind:           KindStandard,
		CreatedAt:      n.clock.Now(),
	}
	if err := n.finishInvoice(ctx, rec); err != nil {
		return nil, err
	}

	log.Infof("Created invoice %v for %d sat", hash, req.AmountSat)
	return rec, nil
}

// finishInvoice decodes the payment request of a freshly created invoice,
// checks that it commits to the record's hash, determines ownership and
// stores the record with the ownership flag set.
func (n *Node) finishInvoice(ctx context.Context, rec *InvoiceRecord) error {
	payReq, err := n.DecodePayReq(ctx, rec.PaymentRequest)
	if err != nil {
		return err
	}
	if !strings.EqualFold(payReq.PaymentHash, rec.PaymentHash.String()) {
		return fmt.Errorf("%w: node reports %s, want %v",
			ErrPayReqHashMismatch, payReq.PaymentHash,
			rec.PaymentHash)
	}

	err = CheckPayReq(rec.PaymentRequest, n.network, rec.PaymentHash)
	switch {
	case errors.Is(err, errUnsupportedNetwork):
		log.Warnf("Skipping local payment request check: %v", err)
	case err != nil:
		return err
	}

	localPubKey, err := n.identityPubKey(ctx)
	if err != nil {
		return err
	}
	rec.IsOwnInvoice = n.ledger.AnnotateOwnership(rec.PaymentHash,
		payReq.Destination, localPubKey)

	return n.ledger.PutInvoice(rec)
}

func (n *Node) DecodePayReq(ctx context.Context, payReq string) (
	*PayReqResponse, error) {

	out, err := n.runner.Run(ctx, "decodepayreq", payReq)
	if err != nil {
		return nil, fmt.Errorf("decoding payment request: %w", err)
	}
	return Decode[PayReqResponse](out, "destination", "payment_hash")
}

// SettleInvoice settles the hold invoice for hash using the preimage from
// the ledger and returns that preimage.
func (n *Node) SettleInvoice(ctx context.Context, hash lntypes.Hash) (
	lntypes.Preimage, error) {

	preimage, err := n.ledger.ResolvePreimageForSettlement(hash)
	if err != nil {
		return lntypes.Preimage{}, err
	}

	_, err = n.runner.Run(ctx, "settleinvoice", "--preimage",
		preimage.String())
	if err != nil {
		return lntypes.Preimage{}, fmt.Errorf("settling invoice %v: %w",
			hash, err)
	}

	log.Infof("Settled invoice %v", hash)
	return preimage, nil
}

func (n *Node) CancelInvoice(ctx context.Context, hash lntypes.Hash) error {
	if _, err := n.runner.Run(ctx, "cancelinvoice", hash.String()); err != nil {
		return fmt.Errorf("canceling invoice %v: %w", hash, err)
	}
	log.Infof("Canceled invoice %v", hash)
	return nil
}

// PayInvoice pays a BOLT11 payment request and waits for the outcome.
func (n *Node) PayInvoice(ctx context.Context, payReq string) (
	*PaymentResponse, error) {

	out, err := n.runner.Run(ctx, "payinvoice", "--force", "--json", payReq)
	if err != nil {
		return nil, fmt.Errorf("paying invoice: %w", err)
	}

	resp, err := Decode[PaymentResponse](out, "status")
	if err != nil {
		return nil, fmt.Errorf("paying invoice: %w", err)
	}
	if resp.Status != "SUCCEEDED" {
		return resp, fmt.Errorf("%w: status %s, reason %s",
			ErrPaymentFailed, resp.Status, resp.FailureReason)
	}

	log.Infof("Paid invoice %s (%d sat, fee %d sat)", resp.PaymentHash,
		resp.ValueSat, resp.FeeSat)
	return resp, nil
}

func (n *Node) LookupInvoice(ctx context.Context, hash lntypes.Hash) (
	*Invoice, error) {

	out, err := n.runner.Run(ctx, "lookupinvoice", hash.String())
	if err != nil {
		return nil, fmt.Errorf("looking up invoice %v: %w", hash, err)
	}
	return Decode[Invoice](out, "r_hash", "state")
}

// InvoiceView is an invoice as reported by the node, annotated with what the
// ledger knows about it.
type InvoiceView struct {
	PaymentHash    string `json:"r_hash"`
	Memo           string `json:"memo"`
	Value          int64  `json:"value"`
	AmtPaidSat     int64  `json:"amt_paid_sat"`
	State          string `json:"state"`
	CreationDate   string `json:"creation_date"`
	PaymentRequest string `json:"payment_request,omitempty"`
	IsOwnInvoice   bool   `json:"is_own_invoice"`
	HasPreimage    bool   `json:"has_preimage"`
}

// ListInvoices lists the node's invoices. Ownership and preimage knowledge
// come from the ledger; invoices the ledger does not know are not owned.
func (n *Node) ListInvoices(ctx context.Context) ([]InvoiceView, error) {
	out, err := n.runner.Run(ctx, "listinvoices")
	if err != nil {
		return nil, fmt.Errorf("listing invoices: %w", err)
	}
	resp, err := Decode[ListInvoicesResponse](out, "invoices")
	if err != nil {
		return nil, fmt.Errorf("listing invoices: %w", err)
	}

	views := make([]InvoiceView, 0, len(resp.Invoices))
	for _, inv := range resp.Invoices {
		view := InvoiceView{
			PaymentHash:    inv.RHash,
			Memo:           inv.Memo,
			Value:          int64(inv.Value),
			AmtPaidSat:     int64(inv.AmtPaidSat),
			State:          inv.State,
			CreationDate:   FormatCreationDate(int64(inv.CreationDate)),
			PaymentRequest: inv.PaymentRequest,
		}

		hash, err := lntypes.MakeHashFromStr(inv.RHash)
		if err != nil {
			log.Warnf("Invoice with invalid r_hash %q: %v", inv.RHash,
				err)
			views = append(views, view)
			continue
		}

		rec, err := n.ledger.GetInvoice(hash)
		if err != nil {
			log.Warnf("Ledger lookup for %v: %v", hash, err)
		}
		if rec != nil {
			view.IsOwnInvoice = rec.IsOwnInvoice
			view.HasPreimage = rec.Preimage != nil
		}
		views = append(views, view)
	}
	return views, nil
}

// FormatCreationDate renders a unix timestamp in UTC.
func FormatCreationDate(unix int64) string {
	return time.Unix(unix, 0).UTC().Format(CreationDateLayout)
}
