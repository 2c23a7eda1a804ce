package htlc

import (
	"context"
	"fmt"
	"strconv"
)

// Connect connects to a peer given as pubkey, host and port.
func (n *Node) Connect(ctx context.Context, peer PeerAddress) error {
	if err := peer.Validate(); err != nil {
		return fmt.Errorf("invalid peer address: %w", err)
	}

	if _, err := n.runner.Run(ctx, "connect", peer.String()); err != nil {
		return fmt.Errorf("connecting to %s: %w", peer.String(), err)
	}
	log.Infof("Connected to peer %s", peer.String())
	return nil
}

// OpenChannel opens a channel and returns the funding transaction id.
func (n *Node) OpenChannel(ctx context.Context, req ChannelRequest) (string,
	error) {

	if err := req.Validate(); err != nil {
		return "", fmt.Errorf("invalid channel request: %w", err)
	}

	out, err := n.runner.Run(ctx, "openchannel", req.PubKey,
		strconv.FormatInt(req.AmountSat, 10))
	if err != nil {
		return "", fmt.Errorf("opening channel to %s: %w", req.PubKey, err)
	}

	resp, err := Decode[OpenChannelResponse](out)
	if err != nil {
		return "", fmt.Errorf("opening channel to %s: %w", req.PubKey, err)
	}
	txid, err := resp.FundingTxID()
	if err != nil {
		return "", err
	}

	log.Infof("Opened channel to %s with %d sat, funding txid %v",
		req.PubKey, req.AmountSat, txid)
	return txid.String(), nil
}

func (n *Node) ListChannels(ctx context.Context) ([]Channel, error) {
	out, err := n.runner.Run(ctx, "listchannels")
	if err != nil {
		return nil, fmt.Errorf("listing channels: %w", err)
	}
	resp, err := Decode[ListChannelsResponse](out, "channels")
	if err != nil {
		return nil, err
	}
	return resp.Channels, nil
}

func (n *Node) ListPeers(ctx context.Context) ([]Peer, error) {
	out, err := n.runner.Run(ctx, "listpeers")
	if err != nil {
		return nil, fmt.Errorf("listing peers: %w", err)
	}
	resp, err := Decode[ListPeersResponse](out, "peers")
	if err != nil {
		return nil, err
	}
	return resp.Peers, nil
}
