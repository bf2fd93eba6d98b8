// Package testutil provides fixtures for testing code built on the engine:
// call-counting factories and cleanup recorders for asserting construction
// and teardown behavior.
package testutil
