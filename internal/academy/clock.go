package academy

import (
	"time"

	"github.com/google/uuid"
)

// Clock abstracts time retrieval so message ids, timestamps and cache
// freshness are deterministic in tests.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual current time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// IDGenerator abstracts unique ID generation so tests are deterministic.
// Used for operation audit records, not message ids (those are derived
// from the clock because the backend expects millisecond timestamps).
type IDGenerator interface {
	New() string
}

// UUIDGenerator produces random UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) New() string { return uuid.New().String() }
