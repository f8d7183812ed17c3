// Package app wires the client together: defaults, config file, sealer,
// local state store, API client, caches and the service core. Both
// front ends (cobra commands and the TUI) start from an App.
package app

import (
	"fmt"
	"log/slog"
	"os"

	"alsun-go/internal/academy"
	"alsun-go/internal/api"
	"alsun-go/internal/cache"
	"alsun-go/internal/config"
	"alsun-go/internal/model"
	"alsun-go/internal/sealing"
	"alsun-go/internal/store"
)

// App is the assembled client: everything a command needs to run one
// operation against the backend and the local state.
type App struct {
	Config  *config.Config
	Service *academy.Service
	Gateway *api.Client
	Store   *store.Store
	Logger  *slog.Logger

	operation *ClientOperation
	logFile   *os.File
}

// New loads the config from its default (or ALSUN_CONFIG_PATH) location
// and assembles the client. operation names the invocation for the audit
// log; params should carry only non-sensitive parameters.
func New(operation string, params map[string]string) (*App, error) {
	defaults, err := GetDefaults()
	if err != nil {
		return nil, err
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("loading config (run `alsun config init` first?): %w", err)
	}
	if cfg.LogDir == "" {
		cfg.LogDir = defaults["log_dir"]
	}

	return NewFromConfig(cfg, operation, params)
}

// NewFromConfig assembles the client from an already-loaded config.
func NewFromConfig(cfg *config.Config, operation string, params map[string]string) (*App, error) {
	clock := academy.RealClock{}
	ids := academy.UUIDGenerator{}

	logger, logFile, err := newLogger(cfg.LogDir, operation)
	if err != nil {
		return nil, err
	}

	sealer, err := sealing.NewSealerFromConfig(cfg.Sealing)
	if err != nil {
		logFile.Close()
		return nil, err
	}

	st, err := store.NewStoreFromConfig(cfg.Storage, cfg.DeviceID, sealer)
	if err != nil {
		logFile.Close()
		return nil, err
	}

	gateway, err := api.New(cfg.BaseURL, cfg.Timeout(), cfg.UploadTimeout(), logger)
	if err != nil {
		st.Close()
		logFile.Close()
		return nil, err
	}

	contents := cache.New[[]model.Content](cfg.CacheTTL(), cfg.CacheMaxEntries(), clock)
	messages := cache.New[[]model.Message](cfg.CacheTTL(), cfg.CacheMaxEntries(), clock)
	service := academy.NewService(gateway, st, contents, messages, &slogAdapter{l: logger}, clock)

	op, err := NewClientOperation(st, ids, clock, operation, params)
	if err != nil {
		st.Close()
		logFile.Close()
		return nil, err
	}

	logger.Info("client started", "operation", operation, "device", cfg.DeviceID)

	return &App{
		Config:    cfg,
		Service:   service,
		Gateway:   gateway,
		Store:     st,
		Logger:    logger,
		operation: op,
		logFile:   logFile,
	}, nil
}

// Close finishes the audit record with the operation outcome and
// releases the store and log file.
func (a *App) Close(opErr error) error {
	if a.operation != nil {
		if err := a.operation.Finish(opErr); err != nil {
			a.Logger.Warn("finishing operation record failed", "error", err)
		}
	}

	var firstErr error
	if err := a.Store.Close(); err != nil {
		firstErr = err
	}
	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
