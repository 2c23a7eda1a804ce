package htlc

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyPassword is returned by Unlock when no password is given.
var ErrEmptyPassword = errors.New("wallet password is empty")

const walletAlreadyUnlocked = "wallet already unlocked"

// Unlock unlocks the wallet. The password is passed on stdin so it never
// shows up in the process list. A wallet that is already unlocked counts as
// success.
func (n *Node) Unlock(ctx context.Context, password string) error {
	if password == "" {
		return ErrEmptyPassword
	}

	_, err := n.runner.RunWithStdin(ctx, strings.NewReader(password+"\n"),
		"unlock", "--stdin")

	var cmdErr *CommandFailedError
	switch {
	case err == nil:
		log.Infof("Wallet unlocked")
		return nil

	case errors.As(err, &cmdErr) && cmdErr.Contains(walletAlreadyUnlocked):
		log.Infof("Wallet was already unlocked")
		return nil
	}
	return fmt.Errorf("unlocking wallet: %w", err)
}

func (n *Node) WalletBalance(ctx context.Context) (*WalletBalanceResponse,
	error) {

	out, err := n.runner.Run(ctx, "walletbalance")
	if err != nil {
		return nil, fmt.Errorf("getting wallet balance: %w", err)
	}
	return Decode[WalletBalanceResponse](out, "total_balance")
}

func (n *Node) ChannelBalance(ctx context.Context) (*ChannelBalanceResponse,
	error) {

	out, err := n.runner.Run(ctx, "channelbalance")
	if err != nil {
		return nil, fmt.Errorf("getting channel balance: %w", err)
	}
	return Decode[ChannelBalanceResponse](out)
}
