// Package entropy provides ULID generation that is safe for concurrent use.
package entropy

import (
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// lockedMonotonic serializes reads from a monotonic entropy source.
// See https://github.com/oklog/ulid#usage
type lockedMonotonic struct {
	mtx sync.Mutex
	ulid.MonotonicReader
}

func (r *lockedMonotonic) MonotonicRead(ms uint64, p []byte) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	return r.MonotonicReader.MonotonicRead(ms, p)
}

func (r *lockedMonotonic) Read(p []byte) (int, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	return r.MonotonicReader.Read(p)
}

// New returns a MonotonicReader safe for concurrent use.
func New() ulid.MonotonicReader {
	// nolint:gosec // ULIDs are identifiers, not secrets
	source := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &lockedMonotonic{MonotonicReader: ulid.Monotonic(source, 0)}
}

// ID returns a new ULID string for the current time.
func ID(entropy io.Reader) (string, error) {
	id, err := ulid.New(ulid.Now(), entropy)
	if err != nil {
		return "", fmt.Errorf("cannot generate unique ID: %w", err)
	}

	return id.String(), nil
}
