package storage

import (
	"encoding/binary"
	"sync"
	"time"
)

// Source marks are kept as url -> big-endian unix expiry.
const expiryValueBytes = 8

func encodeExpiry(t time.Time) []byte {
	buf := make([]byte, expiryValueBytes)
	binary.BigEndian.PutUint64(buf, uint64(t.Unix()))
	return buf
}

func decodeExpiry(value []byte) (time.Time, bool) {
	if len(value) != expiryValueBytes {
		return time.Time{}, false
	}
	unix := int64(binary.BigEndian.Uint64(value))
	if unix <= 0 {
		return time.Time{}, false
	}
	return time.Unix(unix, 0), true
}

// liveMark reports whether a stored mark is still within its TTL at now.
func liveMark(value []byte, now time.Time) bool {
	expiry, ok := decodeExpiry(value)
	return ok && expiry.After(now)
}

// sweeper runs a prune function at most once per interval.
type sweeper struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
}

func newSweeper(interval time.Duration, now time.Time) *sweeper {
	return &sweeper{interval: interval, last: now}
}

// maybe prunes when the interval has elapsed. A failed prune is retried on
// the next call.
func (s *sweeper) maybe(now time.Time, prune func(now time.Time) (int, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if now.Sub(s.last) < s.interval {
		return nil
	}
	if _, err := prune(now); err != nil {
		return err
	}
	s.last = now
	return nil
}
