package errors

import (
	"errors"
	"net/http"
)

// Kind classifies failures surfaced by the catalog loader and its sources.
type Kind int

const (
	// KindUnknown is any error that is not one of the kinds below.
	KindUnknown Kind = iota
	// KindTransport means no response was received.
	KindTransport
	// KindHTTPStatus means the server answered with a non-2xx status.
	KindHTTPStatus
	// KindRateLimited means the server answered 429.
	KindRateLimited
	// KindDecode means the response body could not be decoded.
	KindDecode
	// KindMissingCredentials means credentials were not configured.
	KindMissingCredentials
)

var kindNames = [...]string{
	KindUnknown:            "unknown",
	KindTransport:          "transport",
	KindHTTPStatus:         "http_status",
	KindRateLimited:        "rate_limited",
	KindDecode:             "decode",
	KindMissingCredentials: "missing_credentials",
}

// String returns the kind name.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return kindNames[KindUnknown]
	}
	return kindNames[k]
}

// KindOf reports the Kind of err, looking through wrapped errors. Rate
// limiting wins over the generic status kind.
func KindOf(err error) Kind {
	var (
		rateErr      *RateLimitError
		apiErr       *APIError
		transportErr *TransportError
		parseErr     *ParseError
		authErr      *AuthenticationError
	)
	switch {
	case err == nil:
		return KindUnknown
	case errors.As(err, &rateErr):
		return KindRateLimited
	case errors.As(err, &apiErr) && apiErr.StatusCode != 0:
		if apiErr.StatusCode == http.StatusTooManyRequests {
			return KindRateLimited
		}
		return KindHTTPStatus
	case errors.As(err, &transportErr):
		return KindTransport
	case errors.As(err, &parseErr):
		return KindDecode
	case errors.As(err, &authErr):
		return KindMissingCredentials
	default:
		return KindUnknown
	}
}
