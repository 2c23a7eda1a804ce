package htlc

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/lightningnetwork/lnd/lntypes"
	"github.com/lightningnetwork/lnd/zpay32"
)

var (
	// ErrPayReqHashMismatch is returned when a payment request commits to
	// a different payment hash than the one the invoice was created for.
	ErrPayReqHashMismatch = errors.New("payment request hash mismatch")

	errUnsupportedNetwork = errors.New("unsupported network")
)

func IsValidNetwork(network string) bool {
	switch network {
	case "mainnet", "testnet", "testnet4", "signet", "simnet", "regtest":
		return true
	default:
		return false
	}
}

// ChainParams maps a network name to the chain parameters used for BOLT11
// decoding.
func ChainParams(network string) (*chaincfg.Params, error) {
	switch network {
	case "mainnet":
		return &chaincfg.MainNetParams, nil
	case "testnet":
		return &chaincfg.TestNet3Params, nil
	case "signet":
		return &chaincfg.SigNetParams, nil
	case "simnet":
		return &chaincfg.SimNetParams, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	default:
		return nil, fmt.Errorf("%w: %s", errUnsupportedNetwork, network)
	}
}

// CheckPayReq decodes a BOLT11 payment request locally and verifies that it
// commits to hash.
func CheckPayReq(payReq, network string, hash lntypes.Hash) error {
	params, err := ChainParams(network)
	if err != nil {
		return err
	}

	invoice, err := zpay32.Decode(payReq, params)
	if err != nil {
		return fmt.Errorf("decoding payment request: %w", err)
	}
	if invoice.PaymentHash == nil {
		return fmt.Errorf("%w: no payment hash", ErrPayReqHashMismatch)
	}
	if got := lntypes.Hash(*invoice.PaymentHash); got != hash {
		return fmt.Errorf("%w: got %v, want %v", ErrPayReqHashMismatch,
			got, hash)
	}
	return nil
}

// ValidatePubKey checks that s is a hex encoded compressed secp256k1 public
// key.
func ValidatePubKey(s string) error {
	b, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("invalid pubkey %q: %w", s, err)
	}
	if _, err := btcec.ParsePubKey(b); err != nil {
		return fmt.Errorf("invalid pubkey %q: %w", s, err)
	}
	return nil
}
