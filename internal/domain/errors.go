package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrUnsupportedChain    = errors.New("unsupported chain id")
	ErrUnsupportedNetwork  = errors.New("unsupported network")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// UpstreamError is returned when an upstream API responds with a non-2xx
// status. Transport-level failures (timeout, DNS) are never wrapped in an
// UpstreamError; they propagate as plain wrapped errors, so callers can tell
// the two classes apart with errors.As.
type UpstreamError struct {
	Provider   string // e.g. "geckoterminal", "moralis"
	Status     int
	StatusText string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: HTTP %d %s", e.Provider, e.Status, e.StatusText)
}

// Is makes a 404 UpstreamError match ErrNotFound, so call sites need a single
// errors.Is check regardless of which provider produced the miss.
func (e *UpstreamError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}
