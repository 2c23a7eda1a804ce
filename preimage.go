package htlc

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"github.com/lightningnetwork/lnd/lntypes"
)

// ErrPreimageMismatch is returned when a preimage does not hash to the
// payment hash it is paired with.
var ErrPreimageMismatch = errors.New("preimage does not match payment hash")

// GeneratePreimage returns a fresh random preimage and its sha256 payment
// hash, both hex encoded.
func GeneratePreimage() (string, string) {
	preimage, hash := NewPreimagePair()
	return preimage.String(), hash.String()
}

// NewPreimagePair draws 32 random bytes and returns them together with their
// sha256 digest. A failing random source is not recoverable, so it panics.
func NewPreimagePair() (lntypes.Preimage, lntypes.Hash) {
	var preimage lntypes.Preimage
	if _, err := io.ReadFull(rand.Reader, preimage[:]); err != nil {
		panic(fmt.Sprintf("reading random preimage: %v", err))
	}
	return preimage, preimage.Hash()
}

// VerifyPreimage checks that the hex encoded preimage hashes to the hex
// encoded payment hash.
func VerifyPreimage(preimageHex, hashHex string) error {
	preimage, err := lntypes.MakePreimageFromStr(preimageHex)
	if err != nil {
		return fmt.Errorf("parsing preimage: %w", err)
	}
	hash, err := lntypes.MakeHashFromStr(hashHex)
	if err != nil {
		return fmt.Errorf("parsing payment hash: %w", err)
	}
	if !preimage.Matches(hash) {
		return fmt.Errorf("%w: sha256(%v) = %v, want %v",
			ErrPreimageMismatch, preimage, preimage.Hash(), hash)
	}
	return nil
}

// ParseHash parses a hex encoded payment hash.
func ParseHash(s string) (lntypes.Hash, error) {
	return lntypes.MakeHashFromStr(s)
}
