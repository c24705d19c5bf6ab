// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package device defines the small ambient-logging collaborator the
// filter orchestrator reports non-fatal Warning-kind errors to: the
// device's job is only to surface them, never to decide whether
// execution continues.
package device

import "log"

// Log receives non-fatal diagnostics: an unknown parameter name or a
// type mismatch on a setter, surfaced as a Warning-kind error rather
// than returned.
type Log interface {
	Warning(msg string)
}

// StdLog is a Log backed by the standard library logger.
type StdLog struct{}

// NewStdLog constructs the default Log implementation.
func NewStdLog() StdLog { return StdLog{} }

func (StdLog) Warning(msg string) { log.Printf("warning: %s", msg) }

// NopLog discards every warning. Useful for tests that want to assert
// on a Filter's other behavior without stderr noise.
type NopLog struct{}

func (NopLog) Warning(msg string) {}
