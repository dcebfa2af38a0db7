package pipeline

import (
	"errors"
	"math/rand/v2"
	"net"
	"time"

	"github.com/dgallion1/reportforge/internal/store"
)

// IsRetryable checks if an error is worth retrying. Transient source
// failures are; missing artifacts and malformed requests are not.
func IsRetryable(err error) bool {
	var remoteErr *store.RemoteError
	if errors.As(err, &remoteErr) {
		return remoteErr.Retryable()
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

const MaxRetries = 3
