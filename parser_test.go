package htlc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

const getInfoJSON = `{
    "version": "0.19.3-beta commit=v0.19.3-beta",
    "commit_hash": "abc",
    "identity_pubkey": "02b4b3c0bbd1d4b3a0bd7ef29fe1db50a1b5ba0f55de7b96b7b4da86f5d5a7f1b2",
    "alias": "alice",
    "num_pending_channels": 0,
    "num_active_channels": 2,
    "num_peers": 3,
    "block_height": 2540000,
    "synced_to_chain": true,
    "synced_to_graph": false,
    "chains": [
        {
            "chain": "bitcoin",
            "network": "testnet"
        }
    ]
}`

func TestExtractField(t *testing.T) {
	v, err := ExtractField(getInfoJSON, "alias")
	require.NoError(t, err)
	require.Equal(t, "alice", v)

	v, err = ExtractField(getInfoJSON, "synced_to_chain")
	require.NoError(t, err)
	require.Equal(t, "true", v)

	v, err = ExtractField(getInfoJSON, "chains.0.network")
	require.NoError(t, err)
	require.Equal(t, "testnet", v)
}

func TestExtractFieldMissing(t *testing.T) {
	_, err := ExtractField(getInfoJSON, "payment_addr")

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, "payment_addr", parseErr.Field)
	require.ErrorIs(t, err, ErrFieldMissing)
}

func TestExtractFieldInvalidJSON(t *testing.T) {
	for _, raw := range []string{"", "not json", `{"alias": `} {
		v, err := ExtractField(raw, "alias")
		require.Empty(t, v)

		var parseErr *ParseError
		require.ErrorAs(t, err, &parseErr, raw)
		require.Empty(t, parseErr.Field)
	}
}

func TestDecode(t *testing.T) {
	info, err := Decode[GetInfoResponse](getInfoJSON, "identity_pubkey")
	require.NoError(t, err)
	require.Equal(t, "alice", info.Alias)
	require.Equal(t, uint32(2540000), info.BlockHeight)
	require.True(t, info.SyncedToChain)
	require.Equal(t, "testnet", info.Network())
}

func TestDecodeRequired(t *testing.T) {
	_, err := Decode[AddInvoiceResponse](`{"add_index": "3"}`,
		"payment_request")

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, "payment_request", parseErr.Field)
}

func TestDecodeTypeMismatch(t *testing.T) {
	_, err := Decode[GetInfoResponse](`{"block_height": "high"}`)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestInt64(t *testing.T) {
	var resp struct {
		Quoted Int64 `json:"quoted"`
		Plain  Int64 `json:"plain"`
		Null   Int64 `json:"null"`
	}
	err := json.Unmarshal(
		[]byte(`{"quoted": "1500", "plain": 42, "null": null}`), &resp,
	)
	require.NoError(t, err)
	require.EqualValues(t, 1500, resp.Quoted)
	require.EqualValues(t, 42, resp.Plain)
	require.EqualValues(t, 0, resp.Null)

	err = json.Unmarshal([]byte(`{"quoted": "abc"}`), &resp)
	require.Error(t, err)

	b, err := json.Marshal(Int64(7))
	require.NoError(t, err)
	require.Equal(t, "7", string(b))
}

func TestOpenChannelFundingTxID(t *testing.T) {
	const txid = "a1075db55d416d3ca199f55b6084e2115b9345e16c5cf302fc80e9d5fbf5d48d"

	resp := &OpenChannelResponse{FundingTxid: txid}
	hash, err := resp.FundingTxID()
	require.NoError(t, err)
	require.Equal(t, txid, hash.String())

	resp = &OpenChannelResponse{ChannelPoint: txid + ":1"}
	hash, err = resp.FundingTxID()
	require.NoError(t, err)
	require.Equal(t, txid, hash.String())

	_, err = (&OpenChannelResponse{}).FundingTxID()
	require.ErrorIs(t, err, ErrFieldMissing)

	_, err = (&OpenChannelResponse{FundingTxid: "xyz"}).FundingTxID()
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
}
