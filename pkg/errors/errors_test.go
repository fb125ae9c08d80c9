package errors_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/agentstation/plantmap/pkg/errors"
)

func TestNotFoundError(t *testing.T) {
	t.Run("basic error", func(t *testing.T) {
		err := &pkgerrors.NotFoundError{Resource: "favorite", ID: "42"}
		assert.Equal(t, "favorite with ID 42 not found", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrNotFound))
	})

	t.Run("wrapped error", func(t *testing.T) {
		base := pkgerrors.NewNotFoundError("detail", "rosa")
		wrapped := fmt.Errorf("lookup: %w", base)
		assert.True(t, pkgerrors.IsNotFound(wrapped))
	})
}

func TestValidationError(t *testing.T) {
	t.Run("with field", func(t *testing.T) {
		err := pkgerrors.NewValidationError("page", 0, "must be >= 1")
		assert.Equal(t, "validation failed for field page: must be >= 1", err.Error())
		assert.True(t, pkgerrors.IsValidationError(err))
	})

	t.Run("without field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{Message: "bad config"}
		assert.Equal(t, "validation failed: bad config", err.Error())
	})
}

func TestAPIError(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		rateLimited bool
		unavailable bool
		keyInvalid  bool
	}{
		{"not found", 404, false, false, false},
		{"unauthorized", 401, false, false, true},
		{"too many requests", 429, true, false, false},
		{"server error", 503, false, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := pkgerrors.NewAPIError("perenual", tt.status, "boom")
			assert.Contains(t, err.Error(), "perenual")
			assert.Contains(t, err.Error(), fmt.Sprint(tt.status))
			assert.Equal(t, tt.rateLimited, pkgerrors.IsRateLimited(err))
			assert.Equal(t, tt.unavailable, pkgerrors.IsProviderUnavailable(err))
			assert.Equal(t, tt.keyInvalid, errors.Is(err, pkgerrors.ErrAPIKeyInvalid))
		})
	}
}

func TestRateLimitError(t *testing.T) {
	t.Run("with retry after", func(t *testing.T) {
		err := pkgerrors.NewRateLimitError("perenual", "/species-list", 30*time.Second)
		assert.Equal(t, 30*time.Second, err.RetryAfter)
		assert.Contains(t, err.Error(), "30s")
		assert.True(t, pkgerrors.IsRateLimited(err))
	})

	t.Run("without retry after", func(t *testing.T) {
		err := pkgerrors.NewRateLimitError("perenual", "", 0)
		assert.Equal(t, "rate limited by perenual", err.Error())
	})
}

func TestTransportError(t *testing.T) {
	base := errors.New("connection refused")
	err := pkgerrors.WrapTransport("perenual", "https://example.com", base)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsProviderUnavailable(err))
	assert.ErrorIs(t, err, base)
	assert.Nil(t, pkgerrors.WrapTransport("perenual", "x", nil))
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want pkgerrors.Kind
	}{
		{"nil", nil, pkgerrors.KindUnknown},
		{"plain", errors.New("x"), pkgerrors.KindUnknown},
		{"transport", pkgerrors.NewTransportError("p", "e", errors.New("dial")), pkgerrors.KindTransport},
		{"status", pkgerrors.NewAPIError("p", 500, "x"), pkgerrors.KindHTTPStatus},
		{"status 429 as api error", pkgerrors.NewAPIError("p", 429, "x"), pkgerrors.KindRateLimited},
		{"rate limited", pkgerrors.NewRateLimitError("p", "e", time.Second), pkgerrors.KindRateLimited},
		{"decode", pkgerrors.WrapParse("json", "response", errors.New("eof")), pkgerrors.KindDecode},
		{"credentials", pkgerrors.NewAuthenticationError("plantbook", "client_credentials", "missing", nil), pkgerrors.KindMissingCredentials},
		{"wrapped", fmt.Errorf("page 3: %w", pkgerrors.NewAPIError("p", 404, "x")), pkgerrors.KindHTTPStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pkgerrors.KindOf(tt.err))
		})
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "rate_limited", pkgerrors.KindRateLimited.String())
	assert.Equal(t, "missing_credentials", pkgerrors.KindMissingCredentials.String())
	assert.Equal(t, "unknown", pkgerrors.Kind(99).String())
	assert.Equal(t, "unknown", pkgerrors.Kind(-1).String())
}

func TestAuthenticationError(t *testing.T) {
	err := pkgerrors.NewAuthenticationError("plantbook", "client_credentials", "client id not configured", nil)
	assert.Contains(t, err.Error(), "plantbook")
	assert.Contains(t, err.Error(), "client_credentials")
	assert.True(t, pkgerrors.IsAPIKeyError(err))
}

func TestWrapHelpers(t *testing.T) {
	t.Run("WrapIO", func(t *testing.T) {
		err := pkgerrors.WrapIO("write", "/tmp/plants.json", errors.New("disk full"))
		assert.Contains(t, err.Error(), "write")
		assert.Contains(t, err.Error(), "/tmp/plants.json")
		assert.Nil(t, pkgerrors.WrapIO("read", "file", nil))
	})

	t.Run("WrapResource", func(t *testing.T) {
		err := pkgerrors.WrapResource("delete", "record", "7", errors.New("locked"))
		assert.Contains(t, err.Error(), "failed to delete record 7")
		assert.Nil(t, pkgerrors.WrapResource("create", "store", "", nil))
	})

	t.Run("WrapParse", func(t *testing.T) {
		err := pkgerrors.WrapParse("json", "plants.json", errors.New("invalid syntax"))
		assert.Contains(t, err.Error(), "plants.json")
		assert.Nil(t, pkgerrors.WrapParse("json", "x", nil))
	})
}

func TestErrorChaining(t *testing.T) {
	base := errors.New("connection reset")
	ioErr := pkgerrors.WrapIO("read", "response body", base)
	apiErr := &pkgerrors.APIError{Provider: "plantbook", Message: "read failed", Err: ioErr}

	var target *pkgerrors.IOError
	require.True(t, errors.As(apiErr, &target))
	assert.Equal(t, "read", target.Operation)
	assert.ErrorIs(t, apiErr, base)
}

func TestConfigError(t *testing.T) {
	cfg := pkgerrors.NewConfigError("store", "unknown driver", nil)
	assert.Equal(t, "configuration error in store: unknown driver", cfg.Error())
}
