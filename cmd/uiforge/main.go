// Package main provides the uiforge CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"uiforge/catalog"
	"uiforge/engine"
	"uiforge/internal/config"
	"uiforge/internal/store"
)

// Version is the current uiforge version.
var Version = "0.1.0"

// app holds the state shared by every command.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	out    io.Writer

	configPath string
	dbPath     string
	docName    string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "uiforge",
		Short: "uiforge - visual UI builder document engine",
		Long: `uiforge edits a tree of UI elements stored in a local SQLite database and
generates React component source from it.

Every editing command loads the document's undo history, applies one
operation and saves the history back, so undo and redo work across runs.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				a.logger.Sync()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "YAML config file overlaid on the environment")
	pf.StringVar(&a.dbPath, "db", "", "SQLite database path (default $UIFORGE_DB or uiforge.db)")
	pf.StringVar(&a.docName, "doc", "", "Document name (default $UIFORGE_DOC or main)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		a.catalogCmd(),
		a.addCmd(),
		a.rmCmd(),
		a.setCmd(),
		a.mvCmd(),
		a.dupCmd(),
		a.dropCmd(),
		a.undoCmd(),
		a.redoCmd(),
		a.treeCmd(),
		a.historyCmd(),
		a.exportCmd(),
		a.diffCmd(),
		a.docsCmd(),
		a.serveCmd(),
	)
	return root
}

// setup resolves configuration: environment, then the config file, then flags.
func (a *app) setup(cmd *cobra.Command) error {
	a.cfg = config.FromEnv()
	if a.configPath != "" {
		if err := a.cfg.LoadFile(a.configPath); err != nil {
			return err
		}
	}
	if a.dbPath != "" {
		a.cfg.DBPath = a.dbPath
	}
	if a.docName != "" {
		a.cfg.Document = a.docName
	}
	if a.verbose {
		a.cfg.Debug = true
	}
	if err := a.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := newLogger(a.cfg.Debug)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	a.logger = logger
	a.out = cmd.OutOrStdout()
	return nil
}

func newLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

func (a *app) catalog() (*catalog.Catalog, error) {
	if a.cfg.CatalogPath == "" {
		return catalog.Default(), nil
	}
	return catalog.LoadFile(a.cfg.CatalogPath)
}

// load opens the configured document. A document that was never saved
// starts empty.
func (a *app) load(ctx context.Context, db *store.DB) (*engine.Engine, error) {
	cat, err := a.catalog()
	if err != nil {
		return nil, err
	}
	e := engine.New(engine.Options{
		Catalog:  cat,
		Capacity: a.cfg.HistoryCapacity,
		Logger:   a.logger.With(zap.String("document", a.cfg.Document)),
	})

	entries, cursor, err := db.LoadHistory(ctx, a.cfg.Document)
	switch {
	case errors.Is(err, store.ErrDocumentNotFound):
		return e, nil
	case err != nil:
		return nil, err
	}
	if err := e.RestoreHistory(entries, cursor); err != nil {
		return nil, fmt.Errorf("restoring %s: %w", a.cfg.Document, err)
	}
	return e, nil
}

// view runs fn against the document without saving.
func (a *app) view(ctx context.Context, fn func(db *store.DB, e *engine.Engine) error) error {
	db, err := store.Open(a.cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	e, err := a.load(ctx, db)
	if err != nil {
		return err
	}
	return fn(db, e)
}

// edit runs fn against the document and saves its history when fn
// changed anything.
func (a *app) edit(ctx context.Context, fn func(e *engine.Engine) error) error {
	return a.view(ctx, func(db *store.DB, e *engine.Engine) error {
		before := e.Revision()
		if err := fn(e); err != nil {
			return err
		}
		if e.Revision() == before {
			return nil
		}
		cp := e.Checkpoint()
		if err := db.SaveHistory(ctx, a.cfg.Document, cp.Entries, cp.Cursor, cp.Revision); err != nil {
			return fmt.Errorf("saving %s: %w", a.cfg.Document, err)
		}
		return nil
	})
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
