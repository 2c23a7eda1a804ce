// main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Erichy-dev/htlc"
	"github.com/urfave/cli/v2"
)

var (
	// version is set via ldflags at build time
	version = "dev"
)

func withApp(fn func(app *HtlcApp) error) func(c *cli.Context) error {
	return func(c *cli.Context) error {
		app, err := NewApp(c)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := app.Close(); closeErr != nil {
				fmt.Fprintf(os.Stderr, "error closing app: %v\n", closeErr)
			}
		}()

		return fn(app)
	}
}

// withService runs fn against the configured service commands. It needs
// neither the node nor the ledger.
func withService(fn func(ctx context.Context,
	svc htlc.ServiceController) error) func(c *cli.Context) error {

	return func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		return fn(c.Context, htlc.NewCommandService(cfg.Service))
	}
}

func getInfo(app *HtlcApp) error        { return app.GetInfo() }
func status(app *HtlcApp) error         { return app.Status() }
func watch(app *HtlcApp) error          { return app.Watch() }
func unlock(app *HtlcApp) error         { return app.Unlock() }
func connect(app *HtlcApp) error        { return app.Connect() }
func openChannel(app *HtlcApp) error    { return app.OpenChannel() }
func listChannels(app *HtlcApp) error   { return app.ListChannels() }
func listPeers(app *HtlcApp) error      { return app.ListPeers() }
func balance(app *HtlcApp) error        { return app.Balance() }
func addHoldInvoice(app *HtlcApp) error { return app.AddHoldInvoice() }
func addInvoice(app *HtlcApp) error     { return app.AddInvoice() }
func settleInvoice(app *HtlcApp) error  { return app.SettleInvoice() }
func cancelInvoice(app *HtlcApp) error  { return app.CancelInvoice() }
func payInvoice(app *HtlcApp) error     { return app.PayInvoice() }
func lookupInvoice(app *HtlcApp) error  { return app.LookupInvoice() }
func listInvoices(app *HtlcApp) error   { return app.ListInvoices() }

func newPreimage(_ *cli.Context) error {
	preimage, hash := htlc.GeneratePreimage()
	return printJSON(map[string]string{
		"preimage":     preimage,
		"payment_hash": hash,
	})
}

func verifyPreimage(c *cli.Context) error {
	err := htlc.VerifyPreimage(c.String("preimage"), c.String("hash"))
	switch {
	case errors.Is(err, htlc.ErrPreimageMismatch):
		return printJSON(map[string]bool{"valid": false})
	case err != nil:
		return err
	}
	return printJSON(map[string]bool{"valid": true})
}

func initConfig(c *cli.Context) error {
	var (
		filename string
		err      error
	)

	if c.IsSet("config") {
		filename = c.String("config")
	} else if filename, err = defaultConfigPath(); err != nil {
		return err
	}

	if _, err := os.Stat(filename); err == nil && !c.Bool("force") {
		return fmt.Errorf("config file %s exists, use --force to "+
			"overwrite", filename)
	}

	if err := saveConfig(filename, sampleConfig()); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("Wrote sample config to %s\n", filename)
	return nil
}

func serviceStart(ctx context.Context, svc htlc.ServiceController) error {
	if err := svc.Start(ctx); err != nil {
		return err
	}
	return printJSON(map[string]string{"service": "started"})
}

func serviceStop(ctx context.Context, svc htlc.ServiceController) error {
	if err := svc.Stop(ctx); err != nil {
		return err
	}
	return printJSON(map[string]string{"service": "stopped"})
}

func serviceStatus(ctx context.Context, svc htlc.ServiceController) error {
	out, err := svc.Status(ctx)
	if err != nil {
		return err
	}
	return printJSON(map[string]string{"status": out})
}

func newCLIApp() *cli.App {
	hashFlag := &cli.StringFlag{Name: "hash", Usage: "payment hash of the invoice (hex)."}
	amtFlag := &cli.Int64Flag{Name: "amt", Usage: "amount in satoshis."}
	memoFlag := &cli.StringFlag{Name: "memo", Usage: "description of the invoice."}
	pubkeyFlag := &cli.StringFlag{Name: "pubkey", Usage: "Lightning node public key.", Required: true}

	return &cli.App{
		Name:    "htlc-cli",
		Version: version,
		Usage: "Creates and settles hold invoices on a local lnd node " +
			"through lncli and keeps their preimages in a local ledger.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "name of the config file (default ~/.config/htlc/config.yaml)"},
		},
		Commands: []*cli.Command{
			{
				Name:   "initconfig",
				Usage:  "Writes a sample config file.",
				Flags:  []cli.Flag{&cli.BoolFlag{Name: "force", Usage: "overwrite an existing file."}},
				Action: initConfig,
			},
			{
				Name:   "getinfo",
				Usage:  "Returns basic information about the connected Lightning node.",
				Action: withApp(getInfo),
			},
			{
				Name:   "status",
				Usage:  "Shows whether the node is running, its wallet unlocked and the chain synced.",
				Action: withApp(status),
			},
			{
				Name:  "watch",
				Usage: "Polls the node status and prints the application state until interrupted.",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "console",
						Usage: "read invoice commands (" + consoleHelp + ") from stdin.",
					},
				},
				Action: withApp(watch),
			},
			{
				Name:   "unlock",
				Usage:  "Unlocks the node's wallet with a password read from stdin.",
				Action: withApp(unlock),
			},
			{
				Name:  "connect",
				Usage: "Connects to a peer.",
				Flags: []cli.Flag{
					pubkeyFlag,
					&cli.StringFlag{Name: "host", Usage: "host of the peer.", Required: true},
					&cli.IntFlag{Name: "port", Usage: "port of the peer.", Value: 9735},
				},
				Action: withApp(connect),
			},
			{
				Name:  "openchannel",
				Usage: "Opens a channel to a connected peer.",
				Flags: []cli.Flag{
					pubkeyFlag,
					&cli.Int64Flag{Name: "amt", Usage: "channel capacity in satoshis.", Required: true},
				},
				Action: withApp(openChannel),
			},
			{
				Name:   "listchannels",
				Usage:  "Lists the node's channels.",
				Action: withApp(listChannels),
			},
			{
				Name:   "listpeers",
				Usage:  "Lists the node's peers.",
				Action: withApp(listPeers),
			},
			{
				Name:   "balance",
				Usage:  "Shows the on-chain and channel balances.",
				Action: withApp(balance),
			},
			{
				Name:   "newpreimage",
				Usage:  "Generates a random preimage and its payment hash.",
				Action: newPreimage,
			},
			{
				Name:  "verifypreimage",
				Usage: "Checks that a preimage hashes to a payment hash.",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "preimage", Usage: "preimage (hex).", Required: true},
					&cli.StringFlag{Name: "hash", Usage: "payment hash (hex).", Required: true},
				},
				Action: verifyPreimage,
			},
			{
				Name:  "addholdinvoice",
				Usage: "Creates a hold invoice and stores its preimage in the ledger.",
				Flags: []cli.Flag{
					amtFlag,
					memoFlag,
					&cli.StringFlag{Name: "preimage", Usage: "use this preimage (hex) instead of a random one."},
				},
				Action: withApp(addHoldInvoice),
			},
			{
				Name:   "addinvoice",
				Usage:  "Creates a standard invoice.",
				Flags:  []cli.Flag{amtFlag, memoFlag},
				Action: withApp(addInvoice),
			},
			{
				Name:      "settleinvoice",
				Usage:     "Settles a hold invoice with the preimage from the ledger.",
				ArgsUsage: "[hash]",
				Flags:     []cli.Flag{hashFlag},
				Action:    withApp(settleInvoice),
			},
			{
				Name:      "cancelinvoice",
				Usage:     "Cancels an open invoice.",
				ArgsUsage: "[hash]",
				Flags:     []cli.Flag{hashFlag},
				Action:    withApp(cancelInvoice),
			},
			{
				Name:      "payinvoice",
				Usage:     "Pays a BOLT11 payment request.",
				ArgsUsage: "payreq",
				Action:    withApp(payInvoice),
			},
			{
				Name:      "lookupinvoice",
				Usage:     "Shows a single invoice as reported by the node.",
				ArgsUsage: "[hash]",
				Flags:     []cli.Flag{hashFlag},
				Action:    withApp(lookupInvoice),
			},
			{
				Name:   "listinvoices",
				Usage:  "Lists the node's invoices annotated with ledger data.",
				Action: withApp(listInvoices),
			},
			{
				Name:  "ledger",
				Usage: "Inspects the local invoice ledger.",
				Subcommands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "Lists all ledger records.",
						Action: withApp(func(app *HtlcApp) error { return app.LedgerList() }),
					},
					{
						Name:      "get",
						Usage:     "Shows the ledger record of a payment hash.",
						ArgsUsage: "[hash]",
						Flags:     []cli.Flag{hashFlag},
						Action:    withApp(func(app *HtlcApp) error { return app.LedgerGet() }),
					},
					{
						Name:   "reconcile",
						Usage:  "Checks every stored preimage against its payment hash.",
						Action: withApp(func(app *HtlcApp) error { return app.LedgerReconcile() }),
					},
				},
			},
			{
				Name:  "service",
				Usage: "Controls the node daemon through the configured service commands.",
				Subcommands: []*cli.Command{
					{Name: "start", Usage: "Starts the daemon.", Action: withService(serviceStart)},
					{Name: "stop", Usage: "Stops the daemon.", Action: withService(serviceStop)},
					{Name: "status", Usage: "Shows the daemon status.", Action: withService(serviceStatus)},
				},
			},
		},
	}
}

func run() int {
	// main ctx that cancels on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newCLIApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(run())
}
