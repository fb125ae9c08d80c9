package transport

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/agentstation/plantmap/pkg/errors"
)

// maxErrorBody bounds how much of an error body is kept in messages.
const maxErrorBody = 512

// CheckStatus maps a non-2xx response to a typed error: 429 becomes a
// *errors.RateLimitError, anything else an *errors.APIError.
func CheckStatus(resp *http.Response, provider, endpoint string, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := ParseRetryAfter(resp.Header.Get("Retry-After"), time.Now())
		return errors.NewRateLimitError(provider, endpoint, retryAfter)
	}

	message := strings.TrimSpace(string(body))
	if len(message) > maxErrorBody {
		message = message[:maxErrorBody]
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	return &errors.APIError{
		Provider:   provider,
		StatusCode: resp.StatusCode,
		Message:    message,
		Endpoint:   endpoint,
	}
}

// ParseRetryAfter reads a Retry-After header given as delta-seconds or as
// an HTTP date. It returns zero when the header is absent or unusable.
func ParseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0
		}
		return time.Duration(seconds) * time.Second
	}

	if when, err := http.ParseTime(value); err == nil {
		if d := when.Sub(now); d > 0 {
			return d.Round(time.Second)
		}
	}
	return 0
}

// DecodeResponse checks the status and decodes a JSON response into target.
func DecodeResponse(resp *http.Response, provider string, target any) error {
	body, err := ReadBody(resp, provider)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, target); err != nil {
		return errors.WrapParse("json", "response", err)
	}
	return nil
}
