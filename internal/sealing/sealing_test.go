package sealing

import (
	"bytes"
	"path/filepath"
	"testing"

	"alsun-go/internal/config"
)

func tempSealerConfig(t *testing.T) config.SealingConfig {
	t.Helper()
	dir := t.TempDir()
	return config.SealingConfig{
		Type:          "age",
		RecipientPath: filepath.Join(dir, "alsun.pub"),
		IdentityPath:  filepath.Join(dir, "alsun.key"),
	}
}

func TestAgeSealer_RoundTrip(t *testing.T) {
	s := NewAgeSealer(tempSealerConfig(t))
	if err := s.Setup(); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	plaintext := []byte(`{"code":"T1","role":"member"}`)
	sealed, err := s.Seal(plaintext)
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}
	if bytes.Equal(sealed, plaintext) {
		t.Error("sealed value equals plaintext")
	}

	opened, err := s.Open(sealed)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if !bytes.Equal(opened, plaintext) {
		t.Errorf("Open() = %q, want %q", opened, plaintext)
	}
}

func TestAgeSealer_SetupRefusesExistingKeys(t *testing.T) {
	s := NewAgeSealer(tempSealerConfig(t))
	if err := s.Setup(); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if err := s.Setup(); err == nil {
		t.Error("second Setup() expected error")
	}
}

func TestAgeSealer_OpenRejectsGarbage(t *testing.T) {
	s := NewAgeSealer(tempSealerConfig(t))
	if err := s.Setup(); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if _, err := s.Open([]byte("not an age payload")); err == nil {
		t.Error("Open(garbage) expected error")
	}
}

func TestNewSealerFromConfig(t *testing.T) {
	s, err := NewSealerFromConfig(config.SealingConfig{Type: "none"})
	if err != nil {
		t.Fatalf("NewSealerFromConfig(none) error = %v", err)
	}
	if _, ok := s.(Plain); !ok {
		t.Errorf("type = %T, want Plain", s)
	}

	s, err = NewSealerFromConfig(config.SealingConfig{})
	if err != nil {
		t.Fatalf("NewSealerFromConfig(empty) error = %v", err)
	}
	if _, ok := s.(Plain); !ok {
		t.Errorf("empty type = %T, want Plain", s)
	}

	if _, err := NewSealerFromConfig(config.SealingConfig{Type: "rot13"}); err == nil {
		t.Error("unknown type expected error")
	}
}

func TestPlain_PassesThrough(t *testing.T) {
	var p Plain
	in := []byte("value")

	sealed, err := p.Seal(in)
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}
	opened, err := p.Open(sealed)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if !bytes.Equal(opened, in) {
		t.Errorf("round trip = %q, want %q", opened, in)
	}
}
