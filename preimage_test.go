package htlc

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/lightningnetwork/lnd/lntypes"
	"github.com/stretchr/testify/require"
)

func TestGeneratePreimage(t *testing.T) {
	preimage, hash := GeneratePreimage()
	require.Len(t, preimage, 64)
	require.Len(t, hash, 64)

	raw, err := hex.DecodeString(preimage)
	require.NoError(t, err)
	sum := sha256.Sum256(raw)
	require.Equal(t, hex.EncodeToString(sum[:]), hash)

	require.NoError(t, VerifyPreimage(preimage, hash))
}

func TestGeneratePreimageUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		preimage, _ := GeneratePreimage()
		_, dup := seen[preimage]
		require.False(t, dup)
		seen[preimage] = struct{}{}
	}
}

func TestVerifyPreimage(t *testing.T) {
	preimage, hash := GeneratePreimage()
	otherPreimage, otherHash := GeneratePreimage()

	tests := []struct {
		name     string
		preimage string
		hash     string
		mismatch bool
		wantErr  bool
	}{
		{name: "match", preimage: preimage, hash: hash},
		{name: "uppercase hex", preimage: strings.ToUpper(preimage),
			hash: strings.ToUpper(hash)},
		{name: "other pair", preimage: otherPreimage, hash: otherHash},
		{name: "swapped", preimage: preimage, hash: otherHash,
			mismatch: true, wantErr: true},
		{name: "hash as preimage", preimage: hash, hash: hash,
			mismatch: true, wantErr: true},
		{name: "bad preimage hex", preimage: "zz", hash: hash,
			wantErr: true},
		{name: "short hash", preimage: preimage, hash: hash[:10],
			wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := VerifyPreimage(tc.preimage, tc.hash)
			if !tc.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			if tc.mismatch {
				require.ErrorIs(t, err, ErrPreimageMismatch)
			} else {
				require.NotErrorIs(t, err, ErrPreimageMismatch)
			}
		})
	}
}

func TestNewPreimagePair(t *testing.T) {
	preimage, hash := NewPreimagePair()
	require.True(t, preimage.Matches(hash))
	require.NotEqual(t, lntypes.Preimage{}, preimage)
	require.Equal(t, lntypes.Hash(sha256.Sum256(preimage[:])), hash)

	parsed, err := ParseHash(hash.String())
	require.NoError(t, err)
	require.Equal(t, hash, parsed)
}
