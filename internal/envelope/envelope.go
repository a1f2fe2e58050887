// Package envelope strips non-JSON framing from upstream response bodies.
//
// The schedule feed is occasionally served with JSONP-like padding or stray
// log lines around the payload. Extraction anchors on the first '{' and the
// last '}' only; it is not a relaxed JSON parser and does no bracket matching.
package envelope

import (
	"bytes"
	"encoding/json"
	"errors"
)

// ErrInvalidEnvelope means the body holds no decodable JSON object.
// Distinct from transport failures so callers can tell a bad body from a bad connection.
var ErrInvalidEnvelope = errors.New("envelope: no valid JSON object in body")

// Extract locates the outermost '{' ... '}' span of raw and returns it as
// validated JSON. Returns ErrInvalidEnvelope when either anchor is missing or
// the span does not decode.
func Extract(raw []byte) (json.RawMessage, error) {
	start := bytes.IndexByte(raw, '{')
	end := bytes.LastIndexByte(raw, '}')
	if start < 0 || end < start {
		return nil, ErrInvalidEnvelope
	}
	span := raw[start : end+1]
	if !json.Valid(span) {
		return nil, ErrInvalidEnvelope
	}
	return json.RawMessage(span), nil
}

// Validate reports whether raw passes Extract. Intended as a per-attempt
// check inside a retrying fetch, so a malformed body is retried like any
// other upstream failure.
func Validate(raw []byte) error {
	_, err := Extract(raw)
	return err
}
