package geocode

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"
)

// Kind classifies why a reverse lookup failed.
type Kind string

// Failure kinds reported by LookupError.
const (
	KindNetwork        Kind = "network"
	KindTimeout        Kind = "timeout"
	KindCredential     Kind = "credential"
	KindNoResult       Kind = "no_result"
	KindRateLimited    Kind = "rate_limited"
	KindInvalidRequest Kind = "invalid_request"
	KindProvider       Kind = "provider"
)

// LookupError describes a failed reverse lookup against a provider.
type LookupError struct {
	Kind       Kind
	Provider   string
	Status     string // provider status string, e.g. "ZERO_RESULTS"
	StatusCode int    // HTTP status code, 0 when no response was received
	Err        error
}

func (e *LookupError) Error() string {
	msg := fmt.Sprintf("geocode: %s lookup failed (%s)", e.Provider, e.Kind)
	if e.Status != "" {
		msg += ": status " + e.Status
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": http %d", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// NoResult reports whether the provider answered but had no address.
func (e *LookupError) NoResult() bool {
	return e.Kind == KindNoResult
}

// KindOf returns the Kind carried by err, classifying unknown errors with
// Classify. A nil error has an empty Kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var le *LookupError
	if errors.As(err, &le) {
		return le.Kind
	}
	return Classify(err)
}

// Classify maps a transport-level error to a Kind. Timeouts and deadline
// expiry are KindTimeout, connection failures are KindNetwork, and anything
// else is KindProvider.
func Classify(err error) Kind {
	if err == nil {
		return ""
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return KindNetwork
	}

	// String-based heuristics for wrapped errors from HTTP clients.
	msg := strings.ToLower(err.Error())
	for _, p := range []string{"i/o timeout", "tls handshake timeout", "client.timeout exceeded"} {
		if strings.Contains(msg, p) {
			return KindTimeout
		}
	}
	for _, p := range []string{
		"connection reset by peer",
		"connection refused",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"server closed idle connection",
		"transport connection broken",
	} {
		if strings.Contains(msg, p) {
			return KindNetwork
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return KindNetwork
	}

	return KindProvider
}

// kindForHTTPStatus maps a non-200 HTTP status to a Kind.
func kindForHTTPStatus(code int) Kind {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return KindCredential
	case code == http.StatusTooManyRequests:
		return KindRateLimited
	case code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout:
		return KindTimeout
	case code == http.StatusBadRequest:
		return KindInvalidRequest
	default:
		return KindProvider
	}
}

func transportError(provider string, err error) *LookupError {
	return &LookupError{Kind: Classify(err), Provider: provider, Err: err}
}
