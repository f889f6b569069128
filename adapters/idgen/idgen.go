// Package idgen provides ID generation implementations.
package idgen

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/tokenmeter/tokenmeter/ports"
)

// UUID generates UUID v4 event identifiers.
type UUID struct{}

func (UUID) New() string {
	return uuid.New().String()
}

// Sequential generates predictable IDs for tests.
type Sequential struct {
	prefix  string
	counter uint64
}

func NewSequential(prefix string) *Sequential {
	return &Sequential{prefix: prefix}
}

func (s *Sequential) New() string {
	n := atomic.AddUint64(&s.counter, 1)
	return s.prefix + strconv.FormatUint(n, 10)
}

// Ensure interface compliance.
var (
	_ ports.IDGenerator = UUID{}
	_ ports.IDGenerator = (*Sequential)(nil)
)
