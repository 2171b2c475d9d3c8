// Package netutil classifies network failures for retry decisions and logs.
package netutil

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/url"
	"syscall"
	"time"
)

// Failure kinds reported by Classify.
const (
	KindTimeout = "timeout"
	KindDNS     = "dns"
	KindDial    = "dial"
	KindReset   = "reset"
	KindTLS     = "tls"
	KindUnknown = "unknown"
)

// Classify names the network failure behind err. Errors that are not
// network failures yield KindUnknown, nil yields "".
func Classify(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return KindTimeout
		}
		return KindDNS
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNABORTED) {
		return KindReset
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return KindDial
	}
	var alert tls.AlertError
	var certErr *tls.CertificateVerificationError
	if errors.As(err, &alert) || errors.As(err, &certErr) {
		return KindTLS
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil && urlErr.Err != err {
		return Classify(urlErr.Err)
	}
	return KindUnknown
}

// ShouldRetry reports whether err is a transient failure: a timeout, a
// refused or failed dial, or a reset connection. TLS and DNS lookup
// errors are not retried.
func ShouldRetry(err error) bool {
	switch Classify(err) {
	case KindTimeout, KindDial, KindReset:
		return true
	}
	return false
}

// Backoff is the linear delay before retry number attempt (1-based).
func Backoff(base time.Duration, attempt int) time.Duration {
	if base <= 0 || attempt <= 0 {
		return 0
	}
	return base * time.Duration(attempt)
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
