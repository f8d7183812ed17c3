// Package sealing protects the persisted session value at rest. The
// backend has no session tokens — the stored user snapshot is the whole
// session — so installations that share a machine can opt into age
// encryption of that value.
package sealing

import (
	"fmt"

	"alsun-go/internal/config"
)

// Sealer encrypts and decrypts small values for at-rest storage.
type Sealer interface {
	Seal(plaintext []byte) ([]byte, error)
	Open(ciphertext []byte) ([]byte, error)
}

// NewSealerFromConfig creates a Sealer based on the configured type.
func NewSealerFromConfig(cfg config.SealingConfig) (Sealer, error) {
	switch cfg.Type {
	case "none", "":
		return Plain{}, nil
	case "age":
		return NewAgeSealer(cfg), nil
	default:
		return nil, fmt.Errorf("unknown sealing type: %q", cfg.Type)
	}
}

// Plain is the default Sealer: values are stored as-is.
type Plain struct{}

func (Plain) Seal(plaintext []byte) ([]byte, error)  { return plaintext, nil }
func (Plain) Open(ciphertext []byte) ([]byte, error) { return ciphertext, nil }
