package httpclient

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Arthurkhan/star-gazer-analysis-sub004/pkg/errors"
)

func makeResponse(status int, body string) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(body))}
}

func TestParseResponseError_Mapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		want     int
		sentinel error
	}{
		{"not found", 404, `{"error":{"message":"model not found","type":"invalid_request_error"}}`, 404, apperrors.ErrNotFound},
		{"bad request", 400, `{"error":{"message":"max_tokens too large","type":"invalid_request_error"}}`, 400, apperrors.ErrInvalidInput},
		{"unprocessable", 422, `{"error":{"code":"INVALID_INPUT","message":"bad"}}`, 400, apperrors.ErrInvalidInput},
		{"unauthorized", 401, `{"error":{"message":"bad key","code":"invalid_api_key"}}`, 401, apperrors.ErrUnauthorized},
		{"forbidden", 403, `{"error":{"message":"no access"}}`, 403, apperrors.ErrForbidden},
		{"conflict", 409, `{"error":{"message":"dup"}}`, 409, apperrors.ErrConflict},
		{"rate limited", 429, `{"error":{"message":"slow down","type":"rate_limit_error"}}`, 503, apperrors.ErrServiceUnavail},
		{"server error", 500, `{"error":{"message":"overloaded"}}`, 503, apperrors.ErrServiceUnavail},
		{"html gateway", 502, `<html>Bad Gateway</html>`, 503, apperrors.ErrServiceUnavail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ParseResponseError(makeResponse(tt.status, tt.body), "openai")
			require.Error(t, err)
			assert.Equal(t, tt.want, apperrors.HTTPStatus(err))
			assert.ErrorIs(t, err, tt.sentinel)
		})
	}
}

func TestParseResponseError_KeepsMessage(t *testing.T) {
	err := ParseResponseError(makeResponse(400, `{"error":{"message":"context length exceeded"}}`), "openai")
	assert.Contains(t, err.Error(), "context length exceeded")
	assert.Contains(t, err.Error(), "openai")
}

func TestParseResponseError_UnknownStatusUsesCode(t *testing.T) {
	err := ParseResponseError(makeResponse(418, `{"error":{"code":"TEAPOT","message":"short and stout"}}`), "svc")

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "TEAPOT", appErr.Code)
	assert.Equal(t, 418, appErr.Status)
}

func TestParseResponseError_UnstructuredBody(t *testing.T) {
	err := ParseResponseError(makeResponse(418, "nope"), "svc")

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "UPSTREAM_ERROR", appErr.Code)
	assert.Contains(t, appErr.Message, "nope")
}

func TestIsClientError(t *testing.T) {
	assert.True(t, IsClientError(400))
	assert.True(t, IsClientError(499))
	assert.False(t, IsClientError(500))
	assert.False(t, IsClientError(399))
}
