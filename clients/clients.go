// Package clients holds HTTP clients for the model services the pipeline
// calls out to. Each service gets its own file with request/response types
// and a method on HTTP.
package clients

import (
	"errors"
	"net/http"
	"time"
)

const defaultTimeout = 60 * time.Second

// ErrEmptyResponse is returned when a service answers 200 with no usable payload.
var ErrEmptyResponse = errors.New("empty service response")

type HTTP struct{ c *http.Client }

// NewHTTP returns a client with the given request timeout (60s when zero).
func NewHTTP(timeout time.Duration) *HTTP {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTP{c: &http.Client{Timeout: timeout}}
}
