package app

import (
	"errors"
	"testing"

	"alsun-go/internal/store"
	"alsun-go/internal/testutil"
)

func newOpFixture(t *testing.T) (*store.Store, *testutil.StubClock, *testutil.StubIDGenerator) {
	t.Helper()
	s, err := store.Open(":memory:", nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, testutil.FixedClock(), testutil.NewStubIDGenerator()
}

func TestClientOperation_Success(t *testing.T) {
	s, clock, ids := newOpFixture(t)

	op, err := NewClientOperation(s, ids, clock, "Upload", map[string]string{"title": "Notes", "department": "CS"})
	if err != nil {
		t.Fatalf("NewClientOperation() error = %v", err)
	}
	if err := op.Finish(nil); err != nil {
		t.Fatalf("Finish() error = %v", err)
	}

	ops, err := s.RecentOperations(10)
	if err != nil {
		t.Fatalf("RecentOperations() error = %v", err)
	}
	if len(ops) != 1 {
		t.Fatalf("len(ops) = %d", len(ops))
	}
	if ops[0].ID != "id-1" {
		t.Errorf("ID = %s", ops[0].ID)
	}
	if ops[0].Operation != "Upload" {
		t.Errorf("Operation = %s", ops[0].Operation)
	}
	if ops[0].Parameters != "department=CS title=Notes" {
		t.Errorf("Parameters = %q", ops[0].Parameters)
	}
	if ops[0].Status != "success" {
		t.Errorf("Status = %s", ops[0].Status)
	}
}

func TestClientOperation_Failed(t *testing.T) {
	s, clock, ids := newOpFixture(t)

	op, err := NewClientOperation(s, ids, clock, "Send", nil)
	if err != nil {
		t.Fatalf("NewClientOperation() error = %v", err)
	}
	if err := op.Finish(errors.New("server unreachable")); err != nil {
		t.Fatalf("Finish() error = %v", err)
	}

	ops, _ := s.RecentOperations(1)
	if ops[0].Status != "failed" {
		t.Errorf("Status = %s", ops[0].Status)
	}
	if ops[0].Parameters != "" {
		t.Errorf("Parameters = %q", ops[0].Parameters)
	}
}
