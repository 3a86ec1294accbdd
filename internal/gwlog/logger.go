// Package gwlog wires up the gateway's shared logrus logger: text output to
// stderr during development, JSON when LOG_FORMAT=json, and a level parsed
// from LOG_LEVEL (matching the ambient logging conventions SPEC_FULL.md
// describes for this codebase).
package gwlog

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New builds a logrus.Logger from the LOG_LEVEL and LOG_FORMAT environment
// variables, defaulting to info/text.
func New() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)

	if os.Getenv("LOG_FORMAT") == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)
	return l
}
