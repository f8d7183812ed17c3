package app

import (
	"errors"
	"path/filepath"
	"testing"

	"alsun-go/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.NewConfig("dev-test", t.TempDir())
	cfg.Storage.Type = "memory"
	return cfg
}

func TestNewFromConfig(t *testing.T) {
	cfg := testConfig(t)

	a, err := NewFromConfig(cfg, "Whoami", nil)
	if err != nil {
		t.Fatalf("NewFromConfig() error = %v", err)
	}

	// The invocation is in the audit log as soon as the app is up.
	ops, err := a.Store.RecentOperations(1)
	if err != nil {
		t.Fatalf("RecentOperations() error = %v", err)
	}
	if len(ops) != 1 || ops[0].Operation != "Whoami" || ops[0].Status != "running" {
		t.Fatalf("ops = %+v", ops)
	}

	if _, ok := a.Service.RestoreSession(); ok {
		t.Error("fresh app has a session")
	}

	if err := a.Close(nil); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestAppClose_RecordsOutcome(t *testing.T) {
	cfg := testConfig(t)

	a, err := NewFromConfig(cfg, "Send", nil)
	if err != nil {
		t.Fatalf("NewFromConfig() error = %v", err)
	}

	if err := a.operation.Finish(errors.New("boom")); err != nil {
		t.Fatalf("Finish() error = %v", err)
	}
	ops, _ := a.Store.RecentOperations(1)
	if ops[0].Status != "failed" {
		t.Errorf("Status = %s", ops[0].Status)
	}

	a.operation = nil // already finished above
	if err := a.Close(nil); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestNewFromConfig_BadBaseURL(t *testing.T) {
	cfg := testConfig(t)
	cfg.BaseURL = "not a url"
	cfg.LogDir = filepath.Join(t.TempDir(), "log")

	if _, err := NewFromConfig(cfg, "Whoami", nil); err == nil {
		t.Error("expected error for invalid base URL")
	}
}
