// Package analysis derives pattern profiles from source text and ranks
// enhancement modules against them.
//
// Everything here is a pure function of its inputs. The scoring constants are a
// fixed policy: changing them changes which modules are recommended.
package analysis
