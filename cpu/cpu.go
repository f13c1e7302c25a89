// Package cpu implements the Intel 8080 fetch-decode-execute cycle: the
// register file, the flags, the ALU, the 256-entry opcode decoder, and
// the single Step operation an external driver calls in a loop.
package cpu

import (
	"log/slog"

	"github.com/skx/i8080emu/memory"
)

// CPU holds all 8080 state: the seven working registers, the flags
// byte, the program counter and stack pointer, and the collaborators
// it needs to execute an instruction (the address space it runs
// against, and the BDOS shim it calls into for CP/M system calls).
//
// All of it is created at construction and mutated only from within
// Step; there is no hidden state elsewhere.
type CPU struct {
	// Reg holds the seven working registers, indexed by the RegB..RegA
	// constants. Index RegM (6) is never read or written directly -
	// getReg/setReg resolve it to memory[HL] instead.
	Reg [8]uint8

	// PC is the program counter; SP is the stack pointer. Both wrap
	// modulo 0x10000 because they are plain uint16s.
	PC uint16
	SP uint16

	// Flags is the PSW byte described in the data model: CY/P/AC/Z/S
	// packed at bits 0/2/4/6/7.
	Flags uint8

	// Memory is the 64K address space this CPU fetches from and
	// reads/writes during execution. The CPU borrows it; it is never
	// owned or closed here.
	Memory *memory.Memory

	// BDOS is invoked whenever a CALL resolves to address 0x0005, the
	// CP/M BDOS entry point. It may be nil; a CALL that reaches 0x0005
	// with a nil BDOS makes Step return an *UnknownOpcode error at the
	// address of that CALL.
	BDOS BDOS

	// Logger receives step-level detail (opcode, PC) at debug level.
	// It is never consulted for control flow.
	Logger *slog.Logger

	halted bool
}

// New returns a freshly reset CPU: PC at the CP/M program origin, SP at
// the top of memory, all registers and flags zero.
func New(mem *memory.Memory, bdos BDOS, logger *slog.Logger) *CPU {
	return &CPU{
		PC:     0x0100,
		SP:     0xFFFF,
		Memory: mem,
		BDOS:   bdos,
		Logger: logger,
	}
}

// RequestHalt marks the run as finished. It is exported so a BDOS
// implementation can stop the CPU (WBOOT, function 0) without the cpu
// and bdos packages needing to agree on a shared sentinel error.
func (c *CPU) RequestHalt() {
	c.halted = true
}

// Halted reports whether the program has requested to stop.
func (c *CPU) Halted() bool {
	return c.halted
}

// fetchByte returns the byte at PC, then advances PC by one.
func (c *CPU) fetchByte() uint8 {
	b := c.Memory.Get(c.PC)
	c.PC++
	return b
}

// fetchWord returns the little-endian word at PC, then advances PC by
// two.
func (c *CPU) fetchWord() uint16 {
	w := c.Memory.GetU16(c.PC)
	c.PC += 2
	return w
}

// push writes a 16-bit value to the stack, high byte first, so the low
// byte ends up at the lower address - matching PUSH's documented
// byte order.
func (c *CPU) push(v uint16) {
	c.SP--
	c.Memory.Set(c.SP, uint8(v>>8))
	c.SP--
	c.Memory.Set(c.SP, uint8(v))
}

// pop reads a 16-bit value off the stack, low byte first.
func (c *CPU) pop() uint16 {
	lo := c.Memory.Get(c.SP)
	c.SP++
	hi := c.Memory.Get(c.SP)
	c.SP++
	return uint16(hi)<<8 | uint16(lo)
}

// Step executes exactly one instruction: fetch, decode, execute.
//
// It returns Halt once the program has asked to stop (WBOOT, HLT, or
// RST 0), and a non-nil error only for the two fatal kinds: an
// unrecognised opcode, or a BDOS function this emulator doesn't
// implement. Every other situation - wrapping arithmetic, stack wrap,
// memory wrap - is handled silently per the architecture's own rules.
func (c *CPU) Step() (Outcome, error) {

	pc := c.PC
	op := c.fetchByte()
	in := opcodeTable[op]

	if c.Logger != nil {
		c.Logger.Debug("step",
			slog.Int("pc", int(pc)),
			slog.Int("opcode", int(op)))
	}

	if err := c.execute(in, op, pc); err != nil {
		return Continue, err
	}

	if c.halted {
		return Halt, nil
	}
	return Continue, nil
}

// execute carries out the decoded instruction in. op and fetchPC are
// passed through only so a famBad instruction can report exactly which
// byte, and where, failed to decode.
func (c *CPU) execute(in instr, op uint8, fetchPC uint16) error {
	switch in.family {

	case famNOP:
		// nothing to do

	case famHLT:
		c.RequestHalt()

	case famMOV:
		c.setReg(in.reg1, c.getReg(in.reg2))

	case famMVI:
		c.setReg(in.reg1, c.fetchByte())

	case famINR:
		v := c.getReg(in.reg1)
		cy := c.CY()
		c.setReg(in.reg1, c.add8(v, 1, 0))
		c.setFlag(flagCY, cy)

	case famDCR:
		v := c.getReg(in.reg1)
		cy := c.CY()
		c.setReg(in.reg1, c.sub8(v, 1, 0))
		c.setFlag(flagCY, cy)

	case famLXI:
		c.setPair(in.rp, c.fetchWord())

	case famINX:
		c.setPair(in.rp, c.getPair(in.rp)+1)

	case famDCX:
		c.setPair(in.rp, c.getPair(in.rp)-1)

	case famDAD:
		wide := uint32(c.HL()) + uint32(c.getPair(in.rp))
		c.SetHL(uint16(wide))
		c.setFlag(flagCY, wide&0x10000 != 0)

	case famSTAX:
		c.Memory.Set(c.getPair(in.rp), c.Reg[RegA])

	case famLDAX:
		c.Reg[RegA] = c.Memory.Get(c.getPair(in.rp))

	case famSHLD:
		addr := c.fetchWord()
		c.Memory.Set(addr, c.Reg[RegL])
		c.Memory.Set(addr+1, c.Reg[RegH])

	case famLHLD:
		addr := c.fetchWord()
		c.Reg[RegL] = c.Memory.Get(addr)
		c.Reg[RegH] = c.Memory.Get(addr + 1)

	case famSTA:
		c.Memory.Set(c.fetchWord(), c.Reg[RegA])

	case famLDA:
		c.Reg[RegA] = c.Memory.Get(c.fetchWord())

	case famRotate:
		c.rotate(in.rot)

	case famDAA:
		c.daa()

	case famCMA:
		c.Reg[RegA] = ^c.Reg[RegA]

	case famSTC:
		c.setFlag(flagCY, true)

	case famCMC:
		c.setFlag(flagCY, !c.CY())

	case famALUReg:
		c.execALU(in.alu, c.getReg(in.reg2))

	case famALUImm:
		c.execALU(in.alu, c.fetchByte())

	case famRcc:
		c.execRET(c.evalCond(in.cond))

	case famRET:
		c.execRET(true)

	case famJcc:
		c.execJMP(c.evalCond(in.cond))

	case famJMP:
		c.execJMP(true)

	case famCcc:
		return c.execCALL(c.evalCond(in.cond))

	case famCALL:
		return c.execCALL(true)

	case famPOP:
		c.execPOP(in.rp)

	case famPUSH:
		c.execPUSH(in.rp)

	case famRST:
		c.push(c.PC)
		c.PC = uint16(in.rst) * 8
		if in.rst == 0 {
			c.RequestHalt()
		}

	case famPCHL:
		c.PC = c.HL()

	case famXCHG:
		h, l := c.Reg[RegH], c.Reg[RegL]
		c.Reg[RegH], c.Reg[RegL] = c.Reg[RegD], c.Reg[RegE]
		c.Reg[RegD], c.Reg[RegE] = h, l

	case famXTHL:
		top := c.Memory.GetU16(c.SP)
		c.Memory.SetU16(c.SP, c.HL())
		c.SetHL(top)

	case famSPHL:
		c.SP = c.HL()

	case famINOUT:
		c.fetchByte() // port number; IN/OUT are parsed, not wired to a device

	case famEIDI:
		// interrupt enable/disable: parsed, no interrupt controller to affect

	default:
		return &UnknownOpcode{Byte: op, PC: fetchPC}
	}

	return nil
}

// rotate implements RLC/RRC/RAL/RAR, which only ever affect CY.
func (c *CPU) rotate(op rotOp) {
	a := c.Reg[RegA]
	switch op {
	case rotRLC:
		bit7 := a >> 7
		c.Reg[RegA] = (a << 1) | bit7
		c.setFlag(flagCY, bit7 != 0)
	case rotRRC:
		bit0 := a & 0x01
		c.Reg[RegA] = (a >> 1) | (bit0 << 7)
		c.setFlag(flagCY, bit0 != 0)
	case rotRAL:
		bit7 := a >> 7
		cy := uint8(0)
		if c.CY() {
			cy = 1
		}
		c.Reg[RegA] = (a << 1) | cy
		c.setFlag(flagCY, bit7 != 0)
	case rotRAR:
		bit0 := a & 0x01
		cy := uint8(0)
		if c.CY() {
			cy = 1
		}
		c.Reg[RegA] = (a >> 1) | (cy << 7)
		c.setFlag(flagCY, bit0 != 0)
	}
}

// execALU carries out one of the eight ALU-group operations against A.
func (c *CPU) execALU(op aluOp, value uint8) {
	a := c.Reg[RegA]
	switch op {
	case aluADD:
		c.Reg[RegA] = c.add8(a, value, 0)
	case aluADC:
		c.Reg[RegA] = c.add8(a, value, carryBit(c.CY()))
	case aluSUB:
		c.Reg[RegA] = c.sub8(a, value, 0)
	case aluSBB:
		c.Reg[RegA] = c.sub8(a, value, carryBit(c.CY()))
	case aluANA:
		c.Reg[RegA] = c.and8(a, value)
	case aluXRA:
		c.Reg[RegA] = c.xor8(a, value)
	case aluORA:
		c.Reg[RegA] = c.or8(a, value)
	case aluCMP:
		c.cmp8(a, value)
	}
}

// carryBit turns a bool flag into the 0/1 the ALU primitives expect.
func carryBit(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// evalCond evaluates one of the eight 3-bit condition codes against
// the current flags.
func (c *CPU) evalCond(cond uint8) bool {
	switch cond {
	case 0: // NZ
		return !c.Z()
	case 1: // Z
		return c.Z()
	case 2: // NC
		return !c.CY()
	case 3: // C
		return c.CY()
	case 4: // PO (parity odd)
		return !c.P()
	case 5: // PE (parity even)
		return c.P()
	case 6: // P (sign plus)
		return !c.S()
	default: // M (sign minus)
		return c.S()
	}
}

// execJMP always fetches the 16-bit target; it only takes the jump if
// taken is true. Jumping to address 0 is the CP/M warm-boot
// convention, so it halts instead of actually branching there.
func (c *CPU) execJMP(taken bool) {
	target := c.fetchWord()
	if !taken {
		return
	}
	if target == 0x0000 {
		c.RequestHalt()
		return
	}
	c.PC = target
}

// execCALL always fetches the 16-bit target; it only acts on it if
// taken is true. A target of exactly 0x0005 is the BDOS entry point:
// rather than pushing a return address and jumping into ROM that
// doesn't exist, the CPU calls directly into the BDOS shim and then
// carries on with the instruction after the CALL.
func (c *CPU) execCALL(taken bool) error {
	target := c.fetchWord()
	if !taken {
		return nil
	}

	if target == 0x0005 {
		if c.BDOS == nil {
			return &UnknownOpcode{Byte: 0xCD, PC: c.PC - 3}
		}
		return c.BDOS.Call(c)
	}

	c.push(c.PC)
	c.PC = target
	return nil
}

// execRET pops a return address off the stack if taken is true.
func (c *CPU) execRET(taken bool) {
	if !taken {
		return
	}
	c.PC = c.pop()
}

// execPUSH pushes register pair rp (rp == RPSPorPSW means PSW: A and
// the flags byte, in the documented reserved-bit pattern).
func (c *CPU) execPUSH(rp uint8) {
	if rp == RPSPorPSW {
		c.SP--
		c.Memory.Set(c.SP, c.Reg[RegA])
		c.SP--
		c.Memory.Set(c.SP, c.pswByte())
		return
	}
	c.push(c.getPair(rp))
}

// execPOP pops register pair rp (rp == RPSPorPSW means PSW).
func (c *CPU) execPOP(rp uint8) {
	if rp == RPSPorPSW {
		flags := c.Memory.Get(c.SP)
		c.SP++
		a := c.Memory.Get(c.SP)
		c.SP++
		c.setPSWByte(flags)
		c.Reg[RegA] = a
		return
	}
	c.setPair(rp, c.pop())
}
