// Package governance holds the runtime safety controls that sit in front of the
// remote services: linear backoff retries for credential acquisition, and a
// circuit breaker plus token bucket guarding the completion endpoint.
//
// None of these controls queue work. When a guard refuses a call the caller is
// expected to take its local fallback path immediately.
package governance
