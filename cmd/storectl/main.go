// storectl drives the storefront cart from a terminal. Each command is one
// page operation for one browser profile, with local state kept on disk so
// consecutive commands behave like page loads of the same browser.
//
// Examples:
//
//	storectl products --first 5
//	storectl product --handle tee --option Size=M
//	storectl add gid://shopify/ProductVariant/1 -q 2
//	storectl checkout
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"storefront/internal/adapter"
	"storefront/internal/cart"
	"storefront/internal/config"
	"storefront/internal/profile"
	"storefront/internal/shopify"
	"storefront/internal/storage"
)

// ANSI color codes
var (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorGray  = "\033[90m"
	colorBold  = "\033[1m"
)

func init() {
	if os.Getenv("NO_COLOR") != "" {
		disableColors()
	}
}

func disableColors() {
	colorReset, colorRed, colorGreen, colorGray, colorBold = "", "", "", "", ""
}

func main() {
	a := &app{out: os.Stdout, errOut: os.Stderr, connect: connectShopify}
	os.Exit(execute(context.Background(), a, os.Args[1:]))
}

// execute runs one command line and returns the process exit code.
func execute(ctx context.Context, a *app, args []string) int {
	root := newRootCmd(a)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if cerr := a.close(); err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintf(a.errOut, "%serror:%s %v\n", colorRed, colorReset, err)
		return 1
	}
	return 0
}

// connectShopify builds the storefront client from the same configuration
// the server uses (CONFIG_FILE or environment).
func connectShopify(ctx context.Context) (adapter.Adapter, string, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("loading config: %w", err)
	}
	client, err := shopify.New(cfg.ClientConfig())
	if err != nil {
		return nil, "", err
	}
	return client, cfg.CheckoutHost, nil
}

// app carries global flags and the per-invocation state shared by commands.
type app struct {
	out     io.Writer
	errOut  io.Writer
	connect func(ctx context.Context) (adapter.Adapter, string, error)

	// global flags
	storePath string
	backend   string
	profileID string
	asJSON    bool
	verbose   bool

	store   storage.Backend
	svc     *cart.Service
	notices *cart.NoticeBuffer
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "storectl",
		Short:         "Browse the storefront catalog and manage a cart",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Context())
		},
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&a.storePath, "store", defaultStorePath(), "path of the local state file")
	pf.StringVar(&a.backend, "backend", storage.BackendFile, "local state backend: file or sqlite")
	pf.StringVar(&a.profileID, "profile", "default", "browser profile to act for")
	pf.BoolVar(&a.asJSON, "json", false, "print JSON instead of text")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(
		newProductsCmd(a),
		newProductCmd(a),
		newAddCmd(a),
		newQuickAddCmd(a),
		newCartCmd(a),
		newCountCmd(a),
		newUpdateCmd(a),
		newRemoveCmd(a),
		newCheckoutCmd(a),
		newResetCmd(a),
	)
	return root
}

func (a *app) setup(ctx context.Context) error {
	if err := profile.Validate(a.profileID); err != nil {
		return err
	}
	switch a.backend {
	case storage.BackendFile, storage.BackendSQLite:
	default:
		return fmt.Errorf("unsupported backend %q: use file or sqlite", a.backend)
	}

	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(a.errOut, &slog.HandlerOptions{Level: level}))

	remote, checkoutHost, err := a.connect(ctx)
	if err != nil {
		return err
	}

	if a.store, err = storage.Open(a.backend, a.storePath, logger); err != nil {
		return fmt.Errorf("opening local state: %w", err)
	}

	a.svc = cart.NewService(remote, cart.Options{CheckoutHost: checkoutHost, Logger: logger})
	a.notices = &cart.NoticeBuffer{}
	return nil
}

func (a *app) close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}

// page opens the page context for the selected profile.
func (a *app) page(ctx context.Context) *cart.Page {
	return a.svc.Open(ctx, a.profileID, a.store, a.notices)
}

func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "storectl.json"
	}
	return filepath.Join(dir, "storectl", "cart.json")
}
