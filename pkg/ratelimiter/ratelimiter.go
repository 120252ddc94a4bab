// Package ratelimiter provides the request throttling used in front of the
// LLM-backed query endpoints. Every answered query costs an embedding call
// and a chat-completion call, so limits are enforced per user rather than
// globally.
package ratelimiter

// RateLimiter admits or rejects a single request.
type RateLimiter interface {
	// Allow returns true if the request is allowed, otherwise returns false.
	Allow() bool
}
