package store

import (
	"fmt"
	"os"
	"path/filepath"

	"alsun-go/internal/config"
	"alsun-go/internal/sealing"
)

// NewStoreFromConfig creates a Store based on the storage config type.
// For type=sqlite the database file is named after the device id so two
// installs sharing a data dir do not share sessions.
func NewStoreFromConfig(cfg config.StorageConfig, deviceID string, sealer sealing.Sealer) (*Store, error) {
	switch cfg.Type {
	case "sqlite", "":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite storage")
		}
		if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		return Open(filepath.Join(cfg.DataDir, deviceID+".db"), sealer)
	case "memory":
		return Open(":memory:", sealer)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
