// Package domain defines the core types shared by the code enhancement engine.
//
// This package contains pure domain types with ZERO external dependencies outside
// the Go standard library. Registries, credentials, requests and results are
// described here; behaviour lives in the packages that consume them:
//
//	analysis    → pattern extraction, module scoring, suggestion ranking
//	credential  → short-lived credential cache
//	enhance     → rule-based module application
//	enhancer    → transformation orchestration and local fallback
//
// The dependency direction is always Infrastructure → Domain.
package domain
