package backlog

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidIdentifier = errors.New("invalid document identifier")
	ErrInvalidMaxDepth   = fmt.Errorf("%w: maxDepth must be greater than or equal to 0", ErrInvalidIdentifier)
)

// CircularReferenceError reports a document that is its own ancestor.
type CircularReferenceError struct {
	DocumentID string
}

func (e *CircularReferenceError) Error() string {
	return fmt.Sprintf("detected circular reference for document %s", e.DocumentID)
}

// NetworkError reports a request that never produced an HTTP response.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("backlog api request failed: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// RemoteAPIError reports a non-2xx response. Detail is what could be scraped
// from the response body and may be empty.
type RemoteAPIError struct {
	StatusCode int
	StatusText string
	Detail     string
}

func (e *RemoteAPIError) Error() string {
	msg := e.StatusText
	if e.Detail != "" {
		msg = fmt.Sprintf("%s (%s)", e.StatusText, e.Detail)
	}
	return fmt.Sprintf("backlog api request failed with status %d: %s", e.StatusCode, msg)
}

// ContentMissingError reports a document whose body could not be resolved
// from the document endpoint nor the content endpoint.
type ContentMissingError struct {
	DocumentID string
}

func (e *ContentMissingError) Error() string {
	return fmt.Sprintf("backlog document %s did not contain content", e.DocumentID)
}

// DecodeError reports a 2xx response whose body is not the expected JSON,
// such as an HTML login page served by a proxy. Path never includes the API key.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("backlog api returned an unreadable response for %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// InvalidChildError reports a child summary whose id cannot address a document.
// Unlike ErrInvalidIdentifier it is an upstream fault: the id came from Backlog.
type InvalidChildError struct {
	ParentID string
	Reason   string
}

func (e *InvalidChildError) Error() string {
	return fmt.Sprintf("backlog document %s listed a child with an invalid id: %s", e.ParentID, e.Reason)
}

// IsUpstream reports whether err originates from Backlog itself or the path to it,
// as opposed to a bad argument from the caller.
func IsUpstream(err error) bool {
	var (
		circular *CircularReferenceError
		network  *NetworkError
		remote   *RemoteAPIError
		missing  *ContentMissingError
		decode   *DecodeError
		child    *InvalidChildError
	)
	return errors.As(err, &circular) ||
		errors.As(err, &network) ||
		errors.As(err, &remote) ||
		errors.As(err, &missing) ||
		errors.As(err, &decode) ||
		errors.As(err, &child)
}
