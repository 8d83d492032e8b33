package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/roach88/stash/internal/config"
	"github.com/roach88/stash/internal/durable"
	"github.com/roach88/stash/internal/legacy"
	"github.com/roach88/stash/internal/store"
)

// env bundles everything a command needs for one invocation.
type env struct {
	cfg    config.Config
	logger *slog.Logger
	file   *durable.File
	legacy *legacy.Store
	store  *store.Store
}

// openEnv loads config, opens the durable file and legacy database, and
// builds the store over the loaded document.
func openEnv(opts *RootOptions) (*env, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := os.MkdirAll(filepath.Dir(cfg.DocumentPath), 0o700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	file := durable.NewFile(cfg.DocumentPath, logger)
	l, err := legacy.Open(cfg.LegacyPath)
	if err != nil {
		return nil, err
	}

	s := store.New(file.Load(), file, store.Options{
		Delay:  cfg.Debounce,
		Logger: logger,
	})

	return &env{cfg: cfg, logger: logger, file: file, legacy: l, store: s}, nil
}

// close flushes the store and releases the legacy database. Flush runs
// first so a pending deferred write still becomes durable on the way out.
func (e *env) close() error {
	return errors.Join(e.store.Flush(), e.legacy.Close())
}
