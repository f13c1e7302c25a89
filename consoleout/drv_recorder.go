package consoleout

import (
	"io"
	"os"
)

// RecorderDriver accumulates every byte it is given in memory, so
// tests can assert on console output without capturing os.Stdout.
type RecorderDriver struct {
	writer  io.Writer
	history string
}

// Name returns the name this driver was registered under.
func (r *RecorderDriver) Name() string {
	return "recorder"
}

// WriteByte appends c to the recorded history.
//
// This is part of the Driver interface.
func (r *RecorderDriver) WriteByte(c byte) {
	r.history += string(c)
}

// SetWriter updates the underlying writer. The recorder never actually
// writes to it - it only satisfies the Driver interface.
func (r *RecorderDriver) SetWriter(w io.Writer) {
	r.writer = w
}

// Output returns everything recorded so far.
//
// This is part of the Recorder interface.
func (r *RecorderDriver) Output() string {
	return r.history
}

// Reset discards any recorded output.
//
// This is part of the Recorder interface.
func (r *RecorderDriver) Reset() {
	r.history = ""
}

func init() {
	Register("recorder", func() Driver {
		return &RecorderDriver{writer: os.Stdout}
	})
}
