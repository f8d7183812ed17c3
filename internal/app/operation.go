package app

import (
	"fmt"
	"sort"
	"strings"

	"alsun-go/internal/academy"
	"alsun-go/internal/store"
)

// ClientOperation tracks one top-level client invocation in the local
// audit log. It records start, parameters and outcome so `alsun ops`
// can answer "what did this device do and when".
type ClientOperation struct {
	ID        string
	Operation string
	store     *store.Store
	clock     academy.Clock
}

// NewClientOperation records the start of an operation and returns a
// handle used to record its outcome.
func NewClientOperation(s *store.Store, ids academy.IDGenerator, clock academy.Clock, operation string, params map[string]string) (*ClientOperation, error) {
	op := &ClientOperation{
		ID:        ids.New(),
		Operation: operation,
		store:     s,
		clock:     clock,
	}

	if err := s.CreateOperation(op.ID, operation, encodeParams(params), clock.Now()); err != nil {
		return nil, fmt.Errorf("starting operation %s: %w", operation, err)
	}
	return op, nil
}

// Finish records the operation outcome: "success" when err is nil,
// "failed" otherwise.
func (op *ClientOperation) Finish(err error) error {
	status := "success"
	if err != nil {
		status = "failed"
	}
	return op.store.FinishOperation(op.ID, status, op.clock.Now())
}

// encodeParams flattens parameters into a stable "k=v k=v" string.
// Values that could identify a person beyond their code (passwords in
// particular) must not be passed in.
func encodeParams(params map[string]string) string {
	if len(params) == 0 {
		return ""
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+params[k])
	}
	return strings.Join(parts, " ")
}
