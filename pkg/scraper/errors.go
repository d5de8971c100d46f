package scraper

import (
	"fmt"
	"net/http"
)

// NetworkError reports a failed request or a non-2xx response. Status is
// zero when no response was received.
type NetworkError struct {
	Status int
	Header http.Header
	Body   []byte
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("network: status %d: %v", e.Status, e.Err)
	}
	return fmt.Sprintf("network: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// DecodeError reports a content encoding that could not be removed. It is
// recovered from by decoding the raw bytes as text.
type DecodeError struct {
	Encoding string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Encoding, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ParseError reports a response body that is not valid JSON.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
