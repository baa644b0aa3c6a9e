package cache

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"

	"github.com/go-redis/redis/v8"
)

var (
	// ErrMiss is returned by Store.Get when the key is absent or expired.
	ErrMiss = errors.New("cache: miss")
	// ErrStaticReadDisallowed is returned by a guarded store while the process
	// is pre-rendering and the backend may not be read from.
	ErrStaticReadDisallowed = errors.New("cache: reads disallowed during static generation")
)

type CacheError struct {
	Operation string
	Err       error
	Retryable bool
}

func NewCacheError(operation string, err error, retryable bool) *CacheError {
	return &CacheError{
		Operation: operation,
		Err:       err,
		Retryable: retryable,
	}
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("cache operation %s failed: %v", e.Operation, e.Err)
}

func (e *CacheError) Unwrap() error {
	return e.Err
}

// ComputeFailedError is the only error GetOrCompute surfaces: the compute
// function itself failed after every cache fallback was exhausted.
type ComputeFailedError struct {
	Key string
	Err error
}

func (e *ComputeFailedError) Error() string {
	return fmt.Sprintf("compute for key %s failed: %v", e.Key, e.Err)
}

func (e *ComputeFailedError) Unwrap() error {
	return e.Err
}

// IsConnectionError reports whether err means the backend could not be
// reached, as opposed to a well-formed error reply.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var ce *CacheError
	if errors.As(err, &ce) && ce.Retryable {
		return true
	}
	if errors.Is(err, redis.ErrClosed) || errors.Is(err, net.ErrClosed) ||
		errors.Is(err, sql.ErrConnDone) || errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.EOF) ||
		errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// backendError wraps a raw backend failure, flagging connection problems as
// retryable.
func backendError(operation string, err error) *CacheError {
	return NewCacheError(operation, err, IsConnectionError(err))
}
