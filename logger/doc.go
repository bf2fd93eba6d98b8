// Package logger provides structured logging for the wirekit engine,
// wrapping zerolog with engine-specific field conventions.
//
// The engine components log through a *Logger handed to them explicitly; the
// package-level functions delegate to a global logger for code that has no
// better home for one.
package logger
