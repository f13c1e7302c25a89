package cpu

import "fmt"

// Outcome reports what Step observed after executing one instruction.
type Outcome int

const (
	// Continue means execution should carry on from the new PC.
	Continue Outcome = iota

	// Halt means the run ended cleanly: a WBOOT, an explicit HLT, or
	// an RST 0.
	Halt
)

func (o Outcome) String() string {
	switch o {
	case Continue:
		return "Continue"
	case Halt:
		return "Halt"
	default:
		return "Unknown"
	}
}

// UnknownOpcode is returned by Step when the decoder has no family for
// the fetched byte - either a genuinely undocumented 8080 opcode, or a
// documented-but-unsupported one.
type UnknownOpcode struct {
	Byte byte
	PC   uint16
}

func (e *UnknownOpcode) Error() string {
	return fmt.Sprintf("unknown opcode 0x%02X at 0x%04X", e.Byte, e.PC)
}

// BDOS is the interface the CPU calls into when it sees a CALL to the
// CP/M BDOS entry point (0x0005). It is implemented by package bdos;
// the CPU only needs the interface, which keeps the two packages free
// of an import cycle.
type BDOS interface {
	// Call dispatches the BDOS function currently in cpu's C register,
	// using DE as its argument. A WBOOT is reported by calling
	// cpu.RequestHalt(), not by returning a sentinel error, so the
	// CPU's control flow stays uniform regardless of how a program
	// chose to stop.
	Call(cpu *CPU) error
}
