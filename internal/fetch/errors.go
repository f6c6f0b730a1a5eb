package fetch

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Kind classifies fetch failures so callers can apply the right policy:
// network failures retry, robots denials and 4xx do not, certificate
// failures surface immediately.
type Kind int

const (
	KindUnknown Kind = iota
	KindNetwork
	KindHTTPStatus
	KindRobots
	KindCertificate
)

// String returns the log-friendly name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindHTTPStatus:
		return "http_status"
	case KindRobots:
		return "robots_disallowed"
	case KindCertificate:
		return "certificate"
	default:
		return "unknown"
	}
}

// Error is the classified failure returned by Client.Fetch.
type Error struct {
	Kind       Kind
	URL        string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch %s: %s (status %d): %v", e.URL, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the classification from an error chain.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// IsRobotsDenied reports whether the error is a robots denial.
func IsRobotsDenied(err error) bool {
	return KindOf(err) == KindRobots
}

// retryable reports whether the classified error is worth another attempt:
// transient network failures and 5xx responses, never 4xx, robots denials,
// certificate failures, or context cancellation.
func retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var fe *Error
	if errors.As(err, &fe) {
		switch fe.Kind {
		case KindNetwork:
			return true
		case KindHTTPStatus:
			return fe.StatusCode >= 500
		default:
			return false
		}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

// classify turns a raw transport error plus an optional HTTP status into the
// taxonomy above. statusCode is zero when no response arrived.
func classify(rawURL string, statusCode int, err error) *Error {
	kind := KindNetwork
	switch {
	case statusCode > 0 && statusCode != 200:
		kind = KindHTTPStatus
	case isCertificateError(err):
		kind = KindCertificate
	}
	return &Error{
		Kind:       kind,
		URL:        rawURL,
		StatusCode: statusCode,
		Err:        err,
	}
}

func isCertificateError(err error) bool {
	if err == nil {
		return false
	}
	var (
		unknownAuthority x509.UnknownAuthorityError
		hostnameErr      x509.HostnameError
		invalidCert      x509.CertificateInvalidError
		verifyErr        *tls.CertificateVerificationError
	)
	if errors.As(err, &unknownAuthority) ||
		errors.As(err, &hostnameErr) ||
		errors.As(err, &invalidCert) ||
		errors.As(err, &verifyErr) {
		return true
	}
	return strings.Contains(err.Error(), "x509:")
}
