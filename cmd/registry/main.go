package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"wedding-registry/internal/config"
	"wedding-registry/internal/errs"
	"wedding-registry/internal/logging"
	"wedding-registry/internal/storage"
)

// app is the state shared by every subcommand once the root command has
// opened the registry.
type app struct {
	cfg    *config.Config
	log    zerolog.Logger
	store  *storage.Store
	out    io.Writer
	asJSON bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := execute(ctx, os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, describeError(err))
		stop()
		os.Exit(1)
	}
}

// execute runs one command line and always closes the registry it opened.
func execute(ctx context.Context, out io.Writer, args []string) (err error) {
	a := &app{out: out}
	root := a.rootCmd()
	root.SetArgs(args)
	defer func() {
		err = errors.Join(err, a.close())
	}()
	return root.ExecuteContext(ctx)
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "registry",
		Short:         "Wedding guest and gift registry",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd.Context())
		},
	}
	root.SetOut(a.out)
	root.PersistentFlags().BoolVar(&a.asJSON, "json", false, "Print results as JSON")

	root.AddCommand(
		a.guestCmd(),
		a.invitationCmd(),
		a.fileCmd(),
		a.qrCmd(),
		a.infoCmd(),
		a.exportCmd(),
		a.migrateCmd(),
	)
	return root
}

func (a *app) open(ctx context.Context) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})

	store, err := storage.Open(ctx, cfg.DBPath, a.log)
	if err != nil {
		return err
	}
	a.store = store
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

func (a *app) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Bring the database schema up to date",
		Long:  "Creates missing tables, adds columns missing from older databases and fills in converted amounts. Every command does this on start; migrate reports what changed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			report := a.store.OpenReport()
			if a.asJSON {
				return a.printJSON(report)
			}
			if !report.Changed() {
				fmt.Fprintln(a.out, "Database is up to date")
				return nil
			}
			fmt.Fprintf(a.out, "Applied migrations: %v\n", report.Applied)
			fmt.Fprintf(a.out, "Added columns: %v\n", report.AddedColumns)
			fmt.Fprintf(a.out, "Backfilled guests: %d\n", report.Backfilled)
			return nil
		},
	}
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

// describeError renders validation details under the message.
func describeError(err error) string {
	e := errs.As(err)
	if e == nil || e.Details() == nil {
		return "Error: " + err.Error()
	}
	details, jerr := json.MarshalIndent(e.Details(), "", "  ")
	if jerr != nil {
		return "Error: " + err.Error()
	}
	return fmt.Sprintf("Error: %s\n%s", err.Error(), details)
}

func changedRows(out io.Writer, n int64, what string) {
	if n == 0 {
		fmt.Fprintf(out, "No %s changed\n", what)
		return
	}
	fmt.Fprintf(out, "%d %s changed\n", n, what)
}
