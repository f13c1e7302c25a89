package consoleout

import (
	"fmt"
	"io"
	"os"
)

// StdoutDriver writes every byte it is given straight to its writer,
// verbatim and untranslated - CP/M's C_WRITESTR is defined to pass
// control bytes through as-is, so there is no escape-sequence handling
// here.
type StdoutDriver struct {
	writer io.Writer
}

// Name returns the name this driver was registered under.
func (s *StdoutDriver) Name() string {
	return "stdout"
}

// WriteByte writes c to the underlying writer.
func (s *StdoutDriver) WriteByte(c byte) {
	fmt.Fprintf(s.writer, "%c", c)
}

// SetWriter updates the underlying writer.
func (s *StdoutDriver) SetWriter(w io.Writer) {
	s.writer = w
}

func init() {
	Register("stdout", func() Driver {
		return &StdoutDriver{writer: os.Stdout}
	})
}
