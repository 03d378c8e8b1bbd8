package shared

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/go-retryablehttp"
)

// Responses from URLs containing these fragments never have their bodies logged.
var redactedURLs = []string{"oauth2.googleapis.com/token", "/oauth2/v3/userinfo"}

// NewHTTPClient returns the outbound [http.Client] used for provider calls.
//
// It is backed by [retryablehttp] with RetryMax set to zero, so each request is attempted exactly once
// and non-2xx responses are passed through to the caller unchanged. The client's only extra behaviour
// is response logging: HTTP errors at WARN, everything at DEBUG.
func NewHTTPClient(logger *log.Logger) *http.Client {
	return newRetryableClient(logger).StandardClient()
}

func newRetryableClient(logger *log.Logger) *retryablehttp.Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 0
	rc.Logger = nil
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	if logger != nil {
		rc.ResponseLogHook = func(_ retryablehttp.Logger, r *http.Response) {
			logResponse(logger, r)
		}
	}
	return rc
}

// logResponse logs HTTP errors and, at debug level, every response.
func logResponse(logger *log.Logger, r *http.Response) {
	isDebug := logger.GetLevel() <= log.DebugLevel
	isHTTPError := r.StatusCode >= 400
	if !isDebug && !isHTTPError {
		return
	}

	body, err := extractBodyForLog(r)
	if err != nil {
		logger.Error("failed to extract response body", "error", err)
		body = nil
	}

	args := []any{
		"method", r.Request.Method,
		"url", redactQuery(r.Request.URL.String()),
		"status", statusText(r),
		"body", body,
	}

	if isHTTPError {
		logger.Warn("HTTP response", args...)
	} else {
		logger.Debug("HTTP response", args...)
	}
}

func extractBodyForLog(r *http.Response) (any, error) {
	var parts []string
	for _, s := range strings.Split(r.Header.Get("Content-Type"), ";") {
		parts = append(parts, strings.TrimSpace(s))
	}
	isJSON := slices.Contains(parts, "application/json")

	redacted := slices.ContainsFunc(redactedURLs, func(x string) bool {
		return strings.Contains(r.Request.URL.Host+r.Request.URL.Path, x)
	})
	if redacted {
		if !isJSON {
			return "xxxxx", nil
		}
		return map[string]bool{"redacted": true}, nil
	}

	body, err := copyResponseBody(r)
	if err != nil || body == nil {
		return nil, err
	}
	if !isJSON {
		return string(body), nil
	}

	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return string(body), nil
	}
	return v, nil
}

// copyResponseBody returns a copy of the response body of r and preserves the body for the caller.
func copyResponseBody(r *http.Response) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	r.Body = io.NopCloser(bytes.NewBuffer(body))
	return body, nil
}

func statusText(r *http.Response) string {
	return fmt.Sprintf("%d %s", r.StatusCode, http.StatusText(r.StatusCode))
}

// redactQuery masks the value of the "key" query parameter so API keys never reach the log.
func redactQuery(rawURL string) string {
	before, query, ok := strings.Cut(rawURL, "?")
	if !ok {
		return rawURL
	}
	params := strings.Split(query, "&")
	for i, p := range params {
		if strings.HasPrefix(p, "key=") {
			params[i] = "key=xxxxx"
		}
	}
	return before + "?" + strings.Join(params, "&")
}
