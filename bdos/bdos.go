// Package bdos implements the two CP/M BDOS functions this emulator
// supports: function 0 (System Reset / WBOOT) and function 9
// (C_WRITESTR). It is grounded on cpm.BdosSysCallWriteString and
// cpm.BdosSysCallExit from the teacher repo, cut down to the surface
// this emulator's non-goals actually require.
package bdos

import (
	"fmt"
	"log/slog"

	"github.com/skx/i8080emu/consoleout"
	"github.com/skx/i8080emu/cpu"
)

// funcWBOOT is BDOS function 0: System Reset. A real CP/M would
// re-load the CCP from disk; this emulator has nothing to reload, so
// it just halts the CPU.
const funcWBOOT = 0x00

// funcWriteString is BDOS function 9: C_WRITESTR. DE points at a
// '$'-terminated string to send to the console.
const funcWriteString = 0x09

// terminator is the byte that ends a C_WRITESTR buffer. CP/M's
// convention, not ASCII's - the string itself may contain any other
// byte value.
const terminator = '$'

// UnknownBDOSCall is returned when a program invokes a BDOS function
// this emulator doesn't implement. Real CP/M exposes several dozen;
// this one only needs the two the specification calls out.
type UnknownBDOSCall struct {
	Func uint8
}

func (e *UnknownBDOSCall) Error() string {
	return fmt.Sprintf("unimplemented BDOS function %d (0x%02X)", e.Func, e.Func)
}

// BDOS implements cpu.BDOS against a console output sink.
type BDOS struct {
	console *consoleout.Console
	logger  *slog.Logger
}

// New returns a BDOS shim that writes C_WRITESTR output to console.
func New(console *consoleout.Console, logger *slog.Logger) *BDOS {
	return &BDOS{console: console, logger: logger}
}

// Call dispatches on the function code in the CPU's C register, per
// the CP/M convention that CALL 0x0005 is BDOS with C selecting the
// function and the other registers (here, only DE) carrying arguments.
func (b *BDOS) Call(c *cpu.CPU) error {
	fn := c.Reg[cpu.RegC]

	if b.logger != nil {
		b.logger.Debug("bdos call", slog.Int("func", int(fn)))
	}

	switch fn {

	case funcWBOOT:
		c.RequestHalt()
		return nil

	case funcWriteString:
		return b.writeString(c)

	default:
		return &UnknownBDOSCall{Func: fn}
	}
}

// writeString implements C_WRITESTR: copy bytes from DE to the console
// until a '$' terminator, then clear HL/B/A the way real CP/M does.
func (b *BDOS) writeString(c *cpu.CPU) error {
	addr := c.DE()

	for {
		ch := c.Memory.Get(addr)
		if ch == terminator {
			break
		}
		b.console.WriteByte(ch)
		addr++
	}

	c.SetHL(0x0000)
	c.Reg[cpu.RegB] = 0x00
	c.Reg[cpu.RegA] = 0x00

	return nil
}
