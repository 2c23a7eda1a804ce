package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Erichy-dev/htlc"
	"github.com/lightningnetwork/lnd/lntypes"
	"github.com/lightningnetwork/lnd/ticker"
	"github.com/urfave/cli/v2"
)

var (
	timeoutLightning = 60 * time.Second
	timeoutPayment   = 5 * time.Minute
)

type HtlcApp struct {
	node   *htlc.Node
	ledger *htlc.Ledger
	config *Config
	logger *logger
	ctx    *cli.Context
}

func NewApp(c *cli.Context) (*HtlcApp, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}

	logger, err := setupLogging(cfg.DataDir, cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	ledger, err := htlc.OpenLedger(cfg.DataDir)
	if err != nil {
		logger.Close()
		return nil, fmt.Errorf("opening ledger: %w", err)
	}

	node, err := htlc.NewNode(htlc.NodeConfig{
		Runner:  htlc.NewGateway(cfg.gatewayConfig()),
		Ledger:  ledger,
		Network: cfg.Network,
	})
	if err != nil {
		ledger.Close()
		logger.Close()
		return nil, err
	}

	return &HtlcApp{
		node:   node,
		ledger: ledger,
		config: cfg,
		logger: logger,
		ctx:    c,
	}, nil
}

func (a *HtlcApp) lightningCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(a.ctx.Context, timeoutLightning)
}

// statusSource returns the configured status source and a function releasing
// it.
func (a *HtlcApp) statusSource() (htlc.StatusSource, func(), error) {
	if a.config.StatusSource != "grpc" {
		return a.node, func() {}, nil
	}

	lnd, err := htlc.NewLND(
		a.config.LNDConfig.TLSCertPath,
		a.config.LNDConfig.MacaroonPath,
		a.config.LNDConfig.Host,
		a.config.LNDConfig.Port,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create LND client: %w", err)
	}
	return lnd, func() { lnd.Close() }, nil
}

func (a *HtlcApp) GetInfo() error {
	ctx, cancel := a.lightningCtx()
	defer cancel()

	info, err := a.node.GetInfo(ctx)
	if err != nil {
		return err
	}
	return printJSON(info)
}

func (a *HtlcApp) Status() error {
	source, release, err := a.statusSource()
	if err != nil {
		return err
	}
	defer release()

	ctx, cancel := a.lightningCtx()
	defer cancel()

	status := source.NodeStatus(ctx)
	return printJSON(struct {
		htlc.NodeStatus
		SyncStatus string `json:"sync_status"`
	}{status, status.SyncText()})
}

// Watch polls the node status and prints the application state on every
// change until interrupted. While the wallet is unlocked the invoice list is
// reloaded on every poll, so accepted hold invoices show up. With --console,
// invoice commands are read from stdin and run in the background.
func (a *HtlcApp) Watch() error {
	source, release, err := a.statusSource()
	if err != nil {
		return err
	}
	defer release()

	poller := htlc.NewPoller(
		source, ticker.New(a.config.PollInterval), a.config.Lncli.Timeout,
	)
	loop := htlc.NewEventLoop(
		htlc.NewDispatcher(a.config.Workers), poller.Updates(),
	)
	loop.TrackInvoices(a.node)
	snapshots := loop.Subscribe()

	poller.Start()
	defer poller.Stop()
	defer loop.Close()

	if a.ctx.Bool("console") {
		fmt.Fprintln(os.Stderr, consoleHelp)
		go runConsole(os.Stdin, a.node, loop)
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- loop.Run(a.ctx.Context)
	}()

	for {
		select {
		case state := <-snapshots:
			if err := printJSON(state); err != nil {
				return err
			}

		case err := <-errChan:
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
	}
}

func (a *HtlcApp) Unlock() error {
	password, err := readPassword(os.Stdin, "Wallet password: ")
	if err != nil {
		return err
	}

	ctx, cancel := a.lightningCtx()
	defer cancel()

	if err := a.node.Unlock(ctx, password); err != nil {
		return err
	}
	return printJSON(map[string]string{"status": "unlocked"})
}

func (a *HtlcApp) Connect() error {
	peer := htlc.PeerAddress{
		PubKey: a.ctx.String("pubkey"),
		Host:   a.ctx.String("host"),
		Port:   a.ctx.Int("port"),
	}

	ctx, cancel := a.lightningCtx()
	defer cancel()

	if err := a.node.Connect(ctx, peer); err != nil {
		return err
	}
	return printJSON(map[string]string{"connected": peer.String()})
}

func (a *HtlcApp) OpenChannel() error {
	req := htlc.ChannelRequest{
		PubKey:    a.ctx.String("pubkey"),
		AmountSat: a.ctx.Int64("amt"),
	}

	ctx, cancel := a.lightningCtx()
	defer cancel()

	txid, err := a.node.OpenChannel(ctx, req)
	if err != nil {
		return err
	}
	return printJSON(map[string]string{"funding_txid": txid})
}

func (a *HtlcApp) ListChannels() error {
	ctx, cancel := a.lightningCtx()
	defer cancel()

	channels, err := a.node.ListChannels(ctx)
	if err != nil {
		return err
	}
	return printSliceJSON(channels)
}

func (a *HtlcApp) ListPeers() error {
	ctx, cancel := a.lightningCtx()
	defer cancel()

	peers, err := a.node.ListPeers(ctx)
	if err != nil {
		return err
	}
	return printSliceJSON(peers)
}

func (a *HtlcApp) Balance() error {
	ctx, cancel := a.lightningCtx()
	defer cancel()

	wallet, err := a.node.WalletBalance(ctx)
	if err != nil {
		return err
	}
	channels, err := a.node.ChannelBalance(ctx)
	if err != nil {
		return err
	}

	return printJSON(struct {
		Wallet   *htlc.WalletBalanceResponse  `json:"wallet"`
		Channels *htlc.ChannelBalanceResponse `json:"channels"`
	}{wallet, channels})
}

func (a *HtlcApp) invoiceRequest() htlc.InvoiceRequest {
	return htlc.InvoiceRequest{
		AmountSat: a.ctx.Int64("amt"),
		Memo:      a.ctx.String("memo"),
	}
}

func (a *HtlcApp) AddHoldInvoice() error {
	ctx, cancel := a.lightningCtx()
	defer cancel()

	var (
		rec *htlc.InvoiceRecord
		err error
	)
	if a.ctx.IsSet("preimage") {
		var preimage lntypes.Preimage
		preimage, err = lntypes.MakePreimageFromStr(a.ctx.String("preimage"))
		if err != nil {
			return fmt.Errorf("invalid preimage: %w", err)
		}
		rec, err = a.node.CreateHoldInvoiceWithPreimage(
			ctx, preimage, a.invoiceRequest(),
		)
	} else {
		rec, err = a.node.CreateHoldInvoice(ctx, a.invoiceRequest())
	}
	if err != nil {
		return err
	}
	return printJSON(rec)
}

func (a *HtlcApp) AddInvoice() error {
	ctx, cancel := a.lightningCtx()
	defer cancel()

	rec, err := a.node.CreateStandardInvoice(ctx, a.invoiceRequest())
	if err != nil {
		return err
	}
	return printJSON(rec)
}

func (a *HtlcApp) hashArg() (lntypes.Hash, error) {
	s := a.ctx.String("hash")
	if s == "" {
		s = a.ctx.Args().First()
	}
	if s == "" {
		return lntypes.Hash{}, errors.New("payment hash required")
	}
	return htlc.ParseHash(s)
}

func (a *HtlcApp) SettleInvoice() error {
	hash, err := a.hashArg()
	if err != nil {
		return err
	}

	ctx, cancel := a.lightningCtx()
	defer cancel()

	preimage, err := a.node.SettleInvoice(ctx, hash)
	if err != nil {
		return err
	}
	return printJSON(map[string]string{
		"payment_hash": hash.String(),
		"preimage":     preimage.String(),
		"status":       "settled",
	})
}

func (a *HtlcApp) CancelInvoice() error {
	hash, err := a.hashArg()
	if err != nil {
		return err
	}

	ctx, cancel := a.lightningCtx()
	defer cancel()

	if err := a.node.CancelInvoice(ctx, hash); err != nil {
		return err
	}
	return printJSON(map[string]string{
		"payment_hash": hash.String(),
		"status":       "canceled",
	})
}

func (a *HtlcApp) PayInvoice() error {
	payReq := a.ctx.Args().First()
	if payReq == "" {
		return errors.New("payment request required")
	}

	ctx, cancel := context.WithTimeout(a.ctx.Context, timeoutPayment)
	defer cancel()

	resp, err := a.node.PayInvoice(ctx, payReq)
	if err != nil {
		return err
	}
	return printJSON(resp)
}

func (a *HtlcApp) LookupInvoice() error {
	hash, err := a.hashArg()
	if err != nil {
		return err
	}

	ctx, cancel := a.lightningCtx()
	defer cancel()

	inv, err := a.node.LookupInvoice(ctx, hash)
	if err != nil {
		return err
	}
	return printJSON(inv)
}

func (a *HtlcApp) ListInvoices() error {
	ctx, cancel := a.lightningCtx()
	defer cancel()

	views, err := a.node.ListInvoices(ctx)
	if err != nil {
		return err
	}
	return printSliceJSON(views)
}

func (a *HtlcApp) LedgerList() error {
	records, err := a.ledger.ListInvoices()
	if err != nil {
		return err
	}
	return printSliceJSON(records)
}

func (a *HtlcApp) LedgerGet() error {
	hash, err := a.hashArg()
	if err != nil {
		return err
	}

	rec, err := a.ledger.GetInvoice(hash)
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("%w: %v", htlc.ErrInvoiceNotFound, hash)
	}
	return printJSON(rec)
}

func (a *HtlcApp) LedgerReconcile() error {
	results, err := a.ledger.Reconcile()
	if err != nil {
		return err
	}
	return printSliceJSON(results)
}

func (a *HtlcApp) Close() error {
	err := a.ledger.Close()
	if logErr := a.logger.Close(); err == nil {
		err = logErr
	}
	return err
}
