// Package logging builds the root hclog logger shared by every component.
package logging

import (
    "io"
    "os"

    "github.com/hashicorp/go-hclog"
)

// New returns the root logger.  Components derive their own with Named.
func New(level string, json bool) hclog.Logger {
    return newWithOutput(level, json, os.Stderr)
}

func newWithOutput(level string, json bool, out io.Writer) hclog.Logger {
    lvl := hclog.LevelFromString(level)
    if lvl == hclog.NoLevel {
        lvl = hclog.Info
    }
    return hclog.New(&hclog.LoggerOptions{
        Name:       "theatre",
        Level:      lvl,
        Output:     out,
        JSONFormat: json,
    })
}
