// Package enhance applies enhancement modules to JavaScript source.
//
// Each known module id maps to a Rule, a textual rewrite that may fail. The
// Applier runs the rules in caller order and isolates failures: a failing
// rule becomes a warning and the remaining modules still run.
package enhance
