package main

import (
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"linkarr/internal/config"
	"linkarr/internal/events"
	"linkarr/internal/linker"
	"linkarr/internal/logging"
	"linkarr/internal/records"
	"linkarr/internal/scanner"
	"linkarr/internal/settings"
	"linkarr/internal/tmdb"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// runtime bundles the wired pipeline components a command operates on.
type runtime struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *records.Store
	settings *settings.Store
	bus      *events.Bus
	catalog  *tmdb.Client
	scanner  *scanner.Scanner
}

// openRuntime builds the full pipeline against the local data directory.
func (c *commandContext) openRuntime(logger *slog.Logger) (*runtime, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if strings.TrimSpace(cfg.TMDB.APIKey) == "" {
		return nil, errors.New("tmdb.api_key is required; set TMDB_API_KEY or run `linkarr config init` and edit the file")
	}

	store, err := records.Open(cfg.DatabasePath())
	if err != nil {
		return nil, err
	}

	settingsStore, err := settings.NewStore(cfg.SettingsPath(), logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	doc := settingsStore.Current()
	catalog, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, doc.TMDBLanguage)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	bus := events.NewBus(logger)
	matcher := tmdb.NewMatcher(catalog, logger)
	sc := scanner.New(store, settingsStore, matcher, linker.New(logger), bus, logger, nil)

	return &runtime{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		settings: settingsStore,
		bus:      bus,
		catalog:  catalog,
		scanner:  sc,
	}, nil
}

func (rt *runtime) Close() {
	if rt == nil || rt.store == nil {
		return
	}
	_ = rt.store.Close()
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
