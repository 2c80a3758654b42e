package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/Arthurkhan/star-gazer-analysis-sub004/pkg/errors"
)

// upstreamErrorBody covers the {"error":{...}} shape returned by our own API
// and by OpenAI-compatible providers.
type upstreamErrorBody struct {
	Error *struct {
		Code    any    `json:"code"`
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// ParseResponseError consumes and closes the body of a non-2xx response and
// maps it to an AppError. Throttling and 5xx map to 503 so callers can fall
// back instead of surfacing an internal error.
func ParseResponseError(resp *http.Response, upstream string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", upstream, resp.StatusCode, err)
	}

	code, message := "", string(body)
	var parsed upstreamErrorBody
	if json.Unmarshal(body, &parsed) == nil && parsed.Error != nil {
		message = parsed.Error.Message
		code = parsed.Error.Type
		if s, ok := parsed.Error.Code.(string); ok && s != "" {
			code = s
		}
	}

	return mapUpstreamError(resp.StatusCode, code, message, upstream)
}

func mapUpstreamError(status int, code, message, upstream string) error {
	qualified := fmt.Sprintf("%s: %s", upstream, message)

	switch {
	case status == http.StatusNotFound:
		return apperrors.NotFound(upstream, message)
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return apperrors.InvalidInput(qualified)
	case status == http.StatusUnauthorized:
		return apperrors.Unauthorized(qualified)
	case status == http.StatusForbidden:
		return apperrors.Forbidden(qualified)
	case status == http.StatusConflict:
		return &apperrors.AppError{Code: "CONFLICT", Message: qualified, Status: status, Err: apperrors.ErrConflict}
	case status == http.StatusTooManyRequests, status >= 500:
		return apperrors.Unavailable(upstream, fmt.Errorf("status %d (%s): %s: %w", status, code, message, apperrors.ErrServiceUnavail))
	default:
		if code == "" {
			code = "UPSTREAM_ERROR"
		}
		return &apperrors.AppError{Code: code, Message: qualified, Status: status}
	}
}

// IsClientError reports whether status is 4xx.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}
