// Package logging configures the shared logrus logger for the CLI. Log
// output goes to stderr so stdout stays reserved for command results.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New creates a logger at the named level. Unknown level names fall back
// to info.
func New(level string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)

	log.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})
	return log
}
