// Package logging provides the single process-wide structured logger used
// by the command, pipeline, and gateway layers. The teacher (dungo) logs
// with bare fmt.Printf in its cmd/ entrypoint only and has no ambient
// logging package of its own; zerolog is adopted from
// alexisbeaulieu97-Streamy's declared dependency stack as the pack's one
// structured-logging candidate (see DESIGN.md for the caveat that
// Streamy's own source does not end up importing it either).
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// New builds a console-formatted zerolog.Logger writing to w at the given
// minimum level. verbose raises the level to debug, mirroring the
// teacher's -verbose CLI flag gating extra fmt.Printf output.
func New(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	output := zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}

// Default builds a logger writing to stderr, the common case for cmd/bpmnlayoutd.
func Default(verbose bool) zerolog.Logger {
	return New(os.Stderr, verbose)
}

// Nop returns a logger that discards everything, for tests and library
// callers that don't want command-layer logging on stderr.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
