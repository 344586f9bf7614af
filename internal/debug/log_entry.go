// Package debug provides the component-scoped, leveled loggers the SPU core
// and its host collaborators write through, restructured from the teacher's
// hand-rolled ring-buffer logger (internal/debug.Logger, Component,
// LogLevel) onto github.com/charmbracelet/log: one *log.Logger per
// component, all sharing a single io.Writer sink so a host program can
// redirect output (to a file, a TUI pane, or stderr) without touching the
// core.
package debug

import "github.com/charmbracelet/log"

// Component names a subsystem that logs independently of the others,
// mirroring the teacher's Component enum but scoped to the SPU core's own
// units instead of a CPU/PPU/APU console.
type Component string

const (
	ComponentSPU    Component = "spu"
	ComponentReverb Component = "reverb"
	ComponentDMA    Component = "dma"
	ComponentIRQ    Component = "irq"
)

// Level re-exports charmbracelet/log's level type so callers configuring a
// component's verbosity don't need to import charmbracelet/log themselves.
type Level = log.Level

const (
	LevelDebug = log.DebugLevel
	LevelInfo  = log.InfoLevel
	LevelWarn  = log.WarnLevel
	LevelError = log.ErrorLevel
)
