package htlc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/lightningnetwork/lnd/lntypes"
	"github.com/lightningnetwork/lnd/tlv"
)

// InvoiceKind tells how an invoice was created.
type InvoiceKind uint8

const (
	KindUnknown InvoiceKind = iota
	KindStandard
	KindHold
)

func (k InvoiceKind) String() string {
	switch k {
	case KindStandard:
		return "standard"
	case KindHold:
		return "hold"
	default:
		return "unknown"
	}
}

// InvoiceRecord is the local knowledge about one invoice, keyed by its
// payment hash.
type InvoiceRecord struct {
	PaymentHash lntypes.Hash

	// Preimage is nil when the secret is kept by the node itself, which
	// is the case for standard invoices.
	Preimage *lntypes.Preimage

	PaymentAddr string

	// IsOwnInvoice is set when the invoice destination equals the local
	// identity pubkey.
	IsOwnInvoice bool

	PaymentRequest string
	AmountSat      int64
	Memo           string
	Kind           InvoiceKind
	CreatedAt      time.Time
}

// PreimageHex returns the hex preimage or an empty string if none is known.
func (r *InvoiceRecord) PreimageHex() string {
	if r.Preimage == nil {
		return ""
	}
	return r.Preimage.String()
}

type recordJSON struct {
	PaymentHash    string    `json:"payment_hash"`
	Preimage       string    `json:"preimage,omitempty"`
	PaymentAddr    string    `json:"payment_addr,omitempty"`
	IsOwnInvoice   bool      `json:"is_own_invoice"`
	PaymentRequest string    `json:"payment_request,omitempty"`
	AmountSat      int64     `json:"amount_sat"`
	Memo           string    `json:"memo,omitempty"`
	Kind           string    `json:"kind"`
	CreatedAt      time.Time `json:"created_at,omitzero"`
}

// MarshalJSON renders hashes and preimages as hex.
func (r InvoiceRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordJSON{
		PaymentHash:    r.PaymentHash.String(),
		Preimage:       r.PreimageHex(),
		PaymentAddr:    r.PaymentAddr,
		IsOwnInvoice:   r.IsOwnInvoice,
		PaymentRequest: r.PaymentRequest,
		AmountSat:      r.AmountSat,
		Memo:           r.Memo,
		Kind:           r.Kind.String(),
		CreatedAt:      r.CreatedAt,
	})
}

const (
	preimageType       tlv.Type = 0
	paymentAddrType    tlv.Type = 2
	ownInvoiceType     tlv.Type = 4
	paymentRequestType tlv.Type = 6
	amountType         tlv.Type = 8
	memoType           tlv.Type = 10
	kindType           tlv.Type = 12
	createdAtType      tlv.Type = 14
)

func (r *InvoiceRecord) encode(w io.Writer) error {
	var preimage []byte
	if r.Preimage != nil {
		preimage = r.Preimage[:]
	}

	var own uint8
	if r.IsOwnInvoice {
		own = 1
	}

	var createdAt uint64
	if !r.CreatedAt.IsZero() {
		createdAt = uint64(r.CreatedAt.UnixNano())
	}

	paymentAddr := []byte(r.PaymentAddr)
	payReq := []byte(r.PaymentRequest)
	memo := []byte(r.Memo)
	amount := uint64(r.AmountSat)
	kind := uint8(r.Kind)

	stream, err := tlv.NewStream(
		tlv.MakePrimitiveRecord(preimageType, &preimage),
		tlv.MakePrimitiveRecord(paymentAddrType, &paymentAddr),
		tlv.MakePrimitiveRecord(ownInvoiceType, &own),
		tlv.MakePrimitiveRecord(paymentRequestType, &payReq),
		tlv.MakePrimitiveRecord(amountType, &amount),
		tlv.MakePrimitiveRecord(memoType, &memo),
		tlv.MakePrimitiveRecord(kindType, &kind),
		tlv.MakePrimitiveRecord(createdAtType, &createdAt),
	)
	if err != nil {
		return err
	}
	return stream.Encode(w)
}

func decodeInvoiceRecord(hash lntypes.Hash, b []byte) (*InvoiceRecord, error) {
	var (
		preimage, paymentAddr, payReq, memo []byte
		own, kind                           uint8
		amount, createdAt                   uint64
	)

	stream, err := tlv.NewStream(
		tlv.MakePrimitiveRecord(preimageType, &preimage),
		tlv.MakePrimitiveRecord(paymentAddrType, &paymentAddr),
		tlv.MakePrimitiveRecord(ownInvoiceType, &own),
		tlv.MakePrimitiveRecord(paymentRequestType, &payReq),
		tlv.MakePrimitiveRecord(amountType, &amount),
		tlv.MakePrimitiveRecord(memoType, &memo),
		tlv.MakePrimitiveRecord(kindType, &kind),
		tlv.MakePrimitiveRecord(createdAtType, &createdAt),
	)
	if err != nil {
		return nil, err
	}
	if err := stream.Decode(bytes.NewReader(b)); err != nil {
		return nil, err
	}

	rec := &InvoiceRecord{
		PaymentHash:    hash,
		PaymentAddr:    string(paymentAddr),
		IsOwnInvoice:   own == 1,
		PaymentRequest: string(payReq),
		AmountSat:      int64(amount),
		Memo:           string(memo),
		Kind:           InvoiceKind(kind),
	}

	if len(preimage) > 0 {
		p, err := lntypes.MakePreimage(preimage)
		if err != nil {
			return nil, fmt.Errorf("stored preimage: %w", err)
		}
		rec.Preimage = &p
	}

	if createdAt != 0 {
		rec.CreatedAt = time.Unix(0, int64(createdAt)).UTC()
	}

	return rec, nil
}
