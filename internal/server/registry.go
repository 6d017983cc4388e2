// Package server is the HTTP front of the emulator: the X-Amz-Target
// dispatcher, the JWKS and discovery endpoints, and the health and dev
// routes.
package server

import (
	"context"
	"encoding/json"
)

// Target is the X-Amz-Target service prefix of every operation.
const Target = "AWSCognitoIdentityProviderService"

// HandlerFunc handles one wire operation: raw request body in, response
// value (marshalled as the body) or domain error out. A nil response
// serializes as {}.
type HandlerFunc func(ctx context.Context, raw json.RawMessage) (any, error)

// Registry maps operation names to handlers. Handler packages register
// their operations at startup; dispatch is a plain map lookup.
type Registry map[string]HandlerFunc

// NewRegistry returns an empty registry.
func NewRegistry() Registry { return make(Registry) }

// Add registers op. Registering the same operation twice panics: that is a
// wiring bug, not a runtime condition.
func (r Registry) Add(op string, h HandlerFunc) {
	if _, dup := r[op]; dup {
		panic("server: duplicate operation " + op)
	}
	r[op] = h
}
