// Package consoleout is an abstraction over the host-side console sink
// that the BDOS shim writes to.
//
// The emulator itself only ever needs to emit a stream of raw bytes, so
// the interface is deliberately tiny. We still keep it behind a
// name-keyed factory, in the style used elsewhere in this codebase, so
// a caller can select a driver by flag without the rest of the system
// caring which one it got.
package consoleout

import (
	"fmt"
	"io"
	"strings"
)

// Driver is the interface that must be implemented by anything that
// wishes to act as a console output sink.
//
// An implementation registers itself, by name, via Register.
type Driver interface {

	// WriteByte emits a single output byte.
	WriteByte(c byte)

	// Name returns the name this driver was registered under.
	Name() string

	// SetWriter updates the underlying writer.
	SetWriter(io.Writer)
}

// Recorder is implemented by drivers which retain the bytes they have
// been asked to output, so tests can inspect them without scraping
// stdout.
type Recorder interface {
	// Output returns everything written so far.
	Output() string

	// Reset discards any recorded output.
	Reset()
}

// Constructor builds a fresh instance of a named driver.
type Constructor func() Driver

var handlers = struct {
	m map[string]Constructor
}{m: make(map[string]Constructor)}

// Register makes a console driver available, by name.
func Register(name string, ctor Constructor) {
	handlers.m[strings.ToLower(name)] = ctor
}

// Console wraps a selected Driver, and lets it be swapped at runtime.
type Console struct {
	driver Driver
}

// New creates a Console using the driver registered under name.
func New(name string) (*Console, error) {
	ctor, ok := handlers.m[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("no console driver named %q", name)
	}
	return &Console{driver: ctor()}, nil
}

// Driver returns the underlying driver, for callers that need to reach
// driver-specific behaviour such as Recorder.
func (c *Console) Driver() Driver {
	return c.driver
}

// ChangeDriver swaps the active driver for a freshly constructed one
// registered under name.
func (c *Console) ChangeDriver(name string) error {
	ctor, ok := handlers.m[strings.ToLower(name)]
	if !ok {
		return fmt.Errorf("no console driver named %q", name)
	}
	c.driver = ctor()
	return nil
}

// Name returns the name of the active driver.
func (c *Console) Name() string {
	return c.driver.Name()
}

// Drivers returns the names of every registered driver, excluding the
// internal "null" driver used for diagnostics.
func Drivers() []string {
	var names []string
	for name := range handlers.m {
		if name != "null" {
			names = append(names, name)
		}
	}
	return names
}

// WriteByte emits a single byte via the active driver.
func (c *Console) WriteByte(b byte) {
	c.driver.WriteByte(b)
}
