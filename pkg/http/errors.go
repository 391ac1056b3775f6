package http

import (
	"fmt"
	"io"
	"net/http"
	"strings"
)

// StatusError carries the status code and raw body of a failed upstream
// response. Provider error types embed it.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e StatusError) String() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Body)
}

// NewStatusError drains the response body into a StatusError. A body that
// cannot be read is reported in place of the text.
func NewStatusError(resp *http.Response) StatusError {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return StatusError{
			StatusCode: resp.StatusCode,
			Body:       fmt.Sprintf("<failed to read body: %v>", err),
		}
	}
	return StatusError{
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
	}
}

// IsSuccess reports whether the status is 2xx.
func IsSuccess(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}
