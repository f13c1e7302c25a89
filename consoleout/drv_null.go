package consoleout

import (
	"io"
	"os"
)

// NullDriver discards everything it is given. It exists so a caller
// can run a binary purely for its exit code/side effects without any
// console noise.
type NullDriver struct {
	writer io.Writer
}

// Name returns the name this driver was registered under.
func (n *NullDriver) Name() string {
	return "null"
}

// WriteByte discards c.
func (n *NullDriver) WriteByte(c byte) {
	// nothing happens
}

// SetWriter updates the underlying writer. It has no effect, since the
// null driver never writes anywhere, but is required to satisfy Driver.
func (n *NullDriver) SetWriter(w io.Writer) {
	n.writer = w
}

func init() {
	Register("null", func() Driver {
		return &NullDriver{writer: os.Stdout}
	})
}
