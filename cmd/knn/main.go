// Package main is the knn CLI entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/knn/internal/config"
	"github.com/hyperjump/knn/internal/index"
	"github.com/hyperjump/knn/internal/service"
	"github.com/hyperjump/knn/internal/storage"
	"github.com/hyperjump/knn/internal/vector"
	"github.com/hyperjump/knn/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/knn/config.yaml"

func main() {
	if err := newRootCmd(version).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads config from path. When path is the default, config.yaml in the
// current directory takes precedence, and a missing default file yields built-in defaults.
// Returns the config and the path it was loaded from ("" for built-in defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, err := os.Getwd(); err == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, err := os.Stat(fallback); err == nil {
				cfg, err := config.Load(fallback)
				if err != nil {
					return nil, "", err
				}
				return cfg, fallback, nil
			}
		}
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			cfg := &config.Config{}
			config.ApplyDefaults(cfg)
			return cfg, "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// Components holds the opened storage and engine for a command.
type Components struct {
	Storage storage.Storage
	Engine  *service.Engine
}

// Close releases the storage.
func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

func newSearcher(cfg *config.Config) (index.Searcher, error) {
	return index.New(index.Options{
		Type:        cfg.Index.Type,
		Dimensions:  cfg.Index.Dimensions,
		Distance:    cfg.Index.Distance,
		Projections: cfg.Index.Projections,
		SearchSize:  cfg.Index.SearchSize,
		Seed:        cfg.Index.Seed,
	})
}

// initializeComponents opens storage, builds the searcher, and restores stored items into it.
func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	searcher, err := newSearcher(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize index: %w", err)
	}
	store, err := storage.Open(cfg.Storage.Backend, cfg.Storage.DatabasePath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	engine := service.NewEngine(store, searcher, &cfg.Search, logger)
	if err := engine.Restore(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to restore index: %w", err)
	}
	logger.Debug("index initialized",
		zap.String("storage", cfg.Storage.Backend),
		zap.String("type", searcher.Type()),
		zap.Int("dimension", searcher.Dimension()),
		zap.Int("search_size", searcher.SearchSize()))
	return &Components{Storage: store, Engine: engine}, nil
}

// parseVectorArgs joins positional arguments so "1,2,3", "1 2 3" and "1, 2, 3" all parse.
func parseVectorArgs(args []string) (vector.Vector, error) {
	var fields []string
	for _, a := range args {
		for _, f := range strings.FieldsFunc(a, func(r rune) bool { return r == ',' || r == ' ' }) {
			fields = append(fields, f)
		}
	}
	return vector.Parse(strings.Join(fields, ","))
}

// newLogger builds the command logger; the config's debug setting or --debug enables debug output.
func newLogger(cfg *config.Config, debugFlag bool) (*zap.Logger, bool, error) {
	debug := cfg.Debug || debugFlag
	logger, err := utils.NewLogger(debug)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, debug, nil
}
