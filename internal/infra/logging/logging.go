// Package logging builds the process logger.
package logging

import (
	"io"
	"strings"

	log "github.com/sirupsen/logrus"
)

// New returns a logrus logger writing to out. Unknown levels fall back to
// info; format "json" selects the JSON formatter, anything else is text.
func New(out io.Writer, level, format string) *log.Logger {
	logger := log.New()
	logger.SetOutput(out)

	lvl, err := log.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = log.InfoLevel
	}
	logger.SetLevel(lvl)

	if strings.EqualFold(strings.TrimSpace(format), "json") {
		logger.SetFormatter(&log.JSONFormatter{})
	} else {
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return logger
}
