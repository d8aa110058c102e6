// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package log defines pkgdepdb's logger interface, scoped to the three
// severities spec.md §7 actually distinguishes: Debugf for soft-skip
// conditions (NotELF, an absent config/database file), Warnf for
// warning-level errors (unknown osabi, unknown config option, unknown
// JSON bit), and Errorf for everything that fails the current file or
// operation outright. By default it logs through the standard library's
// `log` package but a caller may install its own implementation with
// SetLogger.
package log

import "log"

// Logger is pkgdepdb's logging interface.
type Logger interface {
	Errorf(format string, args ...any)
	Warnf(format string, args ...any)
	Debugf(format string, args ...any)
}

var logger Logger = &DefaultLogger{}

// SetLogger overwrites the default logger with a caller-supplied one. The
// CLI (cmd/pkgdepdb) calls this from commandInit to wire --verbose/--debug
// into DefaultLogger.Verbose.
func SetLogger(l Logger) { logger = l }

// Errorf logs a hard failure: ElfMalformed, ArchiveError,
// DBVersionUnsupported, DBCorrupt, IoError, RuleMalformed (§7).
func Errorf(format string, args ...any) {
	logger.Errorf(format, args...)
}

// Warnf logs a warning-level condition that does not abort the current
// operation: unknown osabi, unknown config option, unknown JSON bit (§7).
func Warnf(format string, args ...any) {
	logger.Warnf(format, args...)
}

// Debugf logs a soft-skip condition, shown only when the logger is
// verbose: NotELF, an absent config file, an absent database file (§7).
func Debugf(format string, args ...any) {
	logger.Debugf(format, args...)
}

// DefaultLogger logs to stderr via the standard library's `log` package.
// Debugf is gated on Verbose; Errorf and Warnf always print, matching the
// CLI's default of surfacing everything but per-file debug noise.
type DefaultLogger struct {
	Verbose bool
}

// Errorf logs a formatted error unconditionally.
func (DefaultLogger) Errorf(format string, args ...any) {
	log.Printf(format, args...)
}

// Warnf logs a formatted warning unconditionally.
func (DefaultLogger) Warnf(format string, args ...any) {
	log.Printf(format, args...)
}

// Debugf logs a formatted debug message only when Verbose is set.
func (l *DefaultLogger) Debugf(format string, args ...any) {
	if l.Verbose {
		log.Printf(format, args...)
	}
}
