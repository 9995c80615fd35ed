// Package logging provides the resolver's ambient logging stack:
// a global structured logrus logger for operational messages, and a
// per-query Transcript that buffers each hop's narration and flushes
// it to logs/<hostname>-<type>.txt, mirroring the reference resolver's
// _log/_flush_logs behavior.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// logger is the global structured logger (spec §6: logrus, one entry per
// hop at debug level, one terminal-outcome entry at info level).
var logger = logrus.New()

func init() {
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	logger.SetLevel(logrus.InfoLevel)
}

// Configure applies the CLI's requested verbosity to the global logger.
func Configure(debug bool) {
	if debug {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}
}

// Log returns the global logger.
func Log() *logrus.Logger {
	return logger
}

// PrefixedLog returns the global logger scoped with a "component" field.
func PrefixedLog(component string) *logrus.Entry {
	return logger.WithField("component", component)
}

// Transcript accumulates the human-readable narration of a single query
// (one hop per line) and writes it to a file on Flush, the same shape as
// the reference resolver's per-query log file.
type Transcript struct {
	dir   string
	lines []string
}

// NewTranscript returns a Transcript that will flush under dir.
func NewTranscript(dir string) *Transcript {
	return &Transcript{dir: dir}
}

// Logf appends a formatted line to the transcript and mirrors it to the
// global logger at debug level.
func (t *Transcript) Logf(format string, args ...interface{}) {
	line := fmt.Sprintf(format, args...)
	t.lines = append(t.lines, line)
	logger.Debug(line)
}

// Flush writes the accumulated transcript to
// <dir>/<hostname>-<type>.txt, creating dir if needed.
func (t *Transcript) Flush(hostname, recordType string) error {
	if err := os.MkdirAll(t.dir, 0o755); err != nil {
		return err
	}
	name := sanitizeFilename(hostname) + "-" + recordType + ".txt"
	path := filepath.Join(t.dir, name)
	return os.WriteFile(path, []byte(strings.Join(t.lines, "\n")), 0o644)
}

func sanitizeFilename(s string) string {
	s = strings.TrimSuffix(s, ".")
	return strings.ReplaceAll(s, "/", "_")
}

// Timestamp renders the current time in the reference resolver's
// "Mon Jan 02 15:04:05 2006" style, for transcript lines that echo it.
func Timestamp() string {
	return time.Now().Format("Mon Jan 02 15:04:05 2006")
}
