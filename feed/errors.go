package feed

import "fmt"

// FormatError reports an upstream payload that could not be decoded at all.
// Callers fall back to their last good cache entry rather than surfacing it.
type FormatError struct {
	Cause error
}

func (e *FormatError) Error() string { return fmt.Sprintf("malformed feed payload: %v", e.Cause) }

func (e *FormatError) Unwrap() error { return e.Cause }

// TransportError reports a timeout or connection failure talking to an
// outbound collaborator. Every call site has a documented fallback value.
type TransportError struct {
	URL   string
	Cause error
}

func (e *TransportError) Error() string { return fmt.Sprintf("fetch %s: %v", e.URL, e.Cause) }

func (e *TransportError) Unwrap() error { return e.Cause }
