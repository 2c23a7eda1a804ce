package htlc

import (
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// MaxMemoSize is the longest memo in bytes lnd accepts on an invoice.
const MaxMemoSize = 1024

// ErrMemoTooLong is returned for invoice memos over MaxMemoSize bytes.
var ErrMemoTooLong = errors.New("memo too long")

type InvoiceRequest struct {
	AmountSat int64  `json:"amount_sat" validate:"gte=0"`
	Memo      string `json:"memo,omitempty"`
}

func (r *InvoiceRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return err
	}
	if len(r.Memo) > MaxMemoSize {
		return fmt.Errorf("%w: %d bytes, max %d", ErrMemoTooLong,
			len(r.Memo), MaxMemoSize)
	}
	return nil
}

type PeerAddress struct {
	PubKey string `json:"pubkey" validate:"required,hexadecimal,len=66"`
	Host   string `json:"host" validate:"required,hostname_rfc1123|ip"`
	Port   int    `json:"port" validate:"required,min=1,max=65535"`
}

func (p *PeerAddress) Validate() error {
	if err := validate.Struct(p); err != nil {
		return err
	}
	return ValidatePubKey(p.PubKey)
}

// String returns the pubkey@host:port form lncli connect expects.
func (p *PeerAddress) String() string {
	return p.PubKey + "@" + net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
}

type ChannelRequest struct {
	PubKey    string `json:"pubkey" validate:"required,hexadecimal,len=66"`
	AmountSat int64  `json:"amount_sat" validate:"gt=0"`
}

func (c *ChannelRequest) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	return ValidatePubKey(c.PubKey)
}
