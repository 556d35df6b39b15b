// Package enhancer orchestrates code transformations.
//
// Service.Transform moves each request through validation, credential
// acquisition, the remote completion call and, when any of those fail, a
// deterministic local simulation. Apart from validation errors every failure
// is absorbed into the result as warnings, so callers always get code back.
package enhancer
