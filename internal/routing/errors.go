package routing

import "errors"

// ErrInvalidInput is the only error that crosses the routing boundary: the
// message was empty or whitespace-only. Dependency failures never surface;
// they degrade to IntentUserDecision.
var ErrInvalidInput = errors.New("routing: message must be non-empty text")

// errDependencyUnavailable marks LLM transport failures (network, timeout, auth).
var errDependencyUnavailable = errors.New("routing: verifier unavailable")

// errMalformedResponse marks LLM answers outside the required structured shape.
var errMalformedResponse = errors.New("routing: verifier response malformed")
