package cpu

import (
	"testing"

	"github.com/skx/i8080emu/memory"
)

// mockBDOS is a stand-in for package bdos, used to test the CPU's
// CALL 0x0005 interception without importing bdos (which itself
// imports cpu).
type mockBDOS struct {
	calls   int
	lastC   uint8
	written []byte
}

func (m *mockBDOS) Call(c *CPU) error {
	m.calls++
	m.lastC = c.Reg[RegC]

	if m.lastC == 0x09 {
		addr := c.DE()
		for {
			ch := c.Memory.Get(addr)
			if ch == '$' {
				break
			}
			m.written = append(m.written, ch)
			addr++
		}
		c.SetHL(0)
		c.Reg[RegB] = 0
		c.Reg[RegA] = 0
		return nil
	}

	c.RequestHalt()
	return nil
}

func newCPU(t *testing.T, image []byte) *CPU {
	t.Helper()
	mem := &memory.Memory{}
	if err := mem.LoadImage(image, 0x0100); err != nil {
		t.Fatalf("failed to load image: %s", err)
	}
	return New(mem, &mockBDOS{}, nil)
}

func run(t *testing.T, c *CPU, maxSteps int) {
	t.Helper()
	for i := 0; i < maxSteps; i++ {
		outcome, err := c.Step()
		if err != nil {
			t.Fatalf("step %d: unexpected error: %s", i, err)
		}
		if outcome == Halt {
			return
		}
	}
	t.Fatalf("program did not halt within %d steps", maxSteps)
}

func TestMVIAndADD(t *testing.T) {
	c := newCPU(t, []byte{0x3E, 0x05, 0x06, 0x03, 0x80, 0x76})
	run(t, c, 10)

	if c.Reg[RegA] != 8 {
		t.Fatalf("expected A=8, got %d", c.Reg[RegA])
	}
	if c.Z() || c.S() || c.P() || c.CY() || c.AC() {
		t.Fatalf("expected all flags clear, got Flags=%08b", c.Flags)
	}
}

func TestCarryOnAdd(t *testing.T) {
	c := newCPU(t, []byte{0x3E, 0xFF, 0xC6, 0x01, 0x76})
	run(t, c, 10)

	if c.Reg[RegA] != 0x00 {
		t.Fatalf("expected A=0x00, got 0x%02X", c.Reg[RegA])
	}
	if !c.Z() || !c.CY() || !c.AC() || !c.P() || c.S() {
		t.Fatalf("unexpected flags: Z=%v CY=%v AC=%v P=%v S=%v", c.Z(), c.CY(), c.AC(), c.P(), c.S())
	}
}

func TestLXIAndDAD(t *testing.T) {
	c := newCPU(t, []byte{0x01, 0x34, 0x12, 0x21, 0x01, 0x00, 0x09, 0x76})
	run(t, c, 10)

	if c.Reg[RegH] != 0x12 || c.Reg[RegL] != 0x35 {
		t.Fatalf("expected HL=0x1235, got H=0x%02X L=0x%02X", c.Reg[RegH], c.Reg[RegL])
	}
	if c.CY() {
		t.Fatalf("expected CY clear")
	}
}

func TestBDOSStringPrint(t *testing.T) {
	c := newCPU(t, []byte{0x0E, 0x09, 0x11, 0x00, 0x02, 0xCD, 0x05, 0x00, 0x76})
	c.Memory.SetRange(0x0200, 'H', 'I', '$')

	run(t, c, 20)

	mock := c.BDOS.(*mockBDOS)
	if string(mock.written) != "HI" {
		t.Fatalf("expected console to observe %q, got %q", "HI", string(mock.written))
	}
}

func TestConditionalRETTaken(t *testing.T) {
	c := newCPU(t, []byte{0xC8}) // RZ
	c.SP = 0x0300
	c.Memory.SetU16(0x0300, 0x1234)
	c.setFlag(flagZ, true)

	if _, err := c.Step(); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if c.PC != 0x1234 {
		t.Fatalf("expected PC=0x1234, got 0x%04X", c.PC)
	}
	if c.SP != 0x0302 {
		t.Fatalf("expected SP=0x0302, got 0x%04X", c.SP)
	}
}

func TestConditionalRETNotTaken(t *testing.T) {
	c := newCPU(t, []byte{0xC8}) // RZ
	c.SP = 0x0300
	c.Memory.SetU16(0x0300, 0x1234)

	if _, err := c.Step(); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if c.PC != 0x0101 {
		t.Fatalf("expected PC=0x0101, got 0x%04X", c.PC)
	}
	if c.SP != 0x0300 {
		t.Fatalf("expected SP unchanged at 0x0300, got 0x%04X", c.SP)
	}
}

func TestDAAScenario(t *testing.T) {
	c := newCPU(t, []byte{0x27}) // DAA
	c.Reg[RegA] = 0x9B

	if _, err := c.Step(); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if c.Reg[RegA] != 0x01 {
		t.Fatalf("expected A=0x01, got 0x%02X", c.Reg[RegA])
	}
	if !c.CY() || !c.AC() || c.Z() {
		t.Fatalf("unexpected flags: CY=%v AC=%v Z=%v", c.CY(), c.AC(), c.Z())
	}
}

func TestUnknownOpcode(t *testing.T) {
	c := newCPU(t, []byte{0xDD})

	_, err := c.Step()
	if err == nil {
		t.Fatalf("expected an UnknownOpcode error")
	}
	uo, ok := err.(*UnknownOpcode)
	if !ok {
		t.Fatalf("expected *UnknownOpcode, got %T", err)
	}
	if uo.Byte != 0xDD || uo.PC != 0x0100 {
		t.Fatalf("unexpected UnknownOpcode fields: %+v", uo)
	}
}

func TestXCHGIsSelfInverse(t *testing.T) {
	c := newCPU(t, []byte{0xEB, 0xEB}) // XCHG; XCHG
	c.Reg[RegH], c.Reg[RegL] = 0x12, 0x34
	c.Reg[RegD], c.Reg[RegE] = 0x56, 0x78

	c.Step()
	c.Step()

	if c.Reg[RegH] != 0x12 || c.Reg[RegL] != 0x34 || c.Reg[RegD] != 0x56 || c.Reg[RegE] != 0x78 {
		t.Fatalf("double XCHG did not restore original state")
	}
}

func TestCMAIsSelfInverse(t *testing.T) {
	c := newCPU(t, []byte{0x2F, 0x2F}) // CMA; CMA
	c.Reg[RegA] = 0x5A
	before := c.Flags

	c.Step()
	c.Step()

	if c.Reg[RegA] != 0x5A {
		t.Fatalf("double CMA did not restore A, got 0x%02X", c.Reg[RegA])
	}
	if c.Flags != before {
		t.Fatalf("CMA must not affect flags")
	}
}

func TestSTCThenCMCClearsCarry(t *testing.T) {
	c := newCPU(t, []byte{0x37, 0x3F}) // STC; CMC
	c.Step()
	c.Step()

	if c.CY() {
		t.Fatalf("expected CY=0 after STC;CMC")
	}
}

func TestPushPopRoundTrip(t *testing.T) {
	c := newCPU(t, []byte{0xC5, 0xC1}) // PUSH B; POP B
	c.Reg[RegB], c.Reg[RegC] = 0xAB, 0xCD
	sp := c.SP

	c.Step()
	c.Step()

	if c.Reg[RegB] != 0xAB || c.Reg[RegC] != 0xCD {
		t.Fatalf("PUSH/POP did not round-trip BC")
	}
	if c.SP != sp {
		t.Fatalf("expected SP restored to 0x%04X, got 0x%04X", sp, c.SP)
	}
}

func TestCallRetRoundTrip(t *testing.T) {
	// CALL 0x0106; at 0x0106: RET. After RET, PC should be 0x0103,
	// the instruction right after the 3-byte CALL.
	c := newCPU(t, []byte{0xCD, 0x06, 0x01, 0x76, 0x00, 0x00, 0xC9})

	c.Step() // CALL
	if c.PC != 0x0106 {
		t.Fatalf("expected PC=0x0106 after CALL, got 0x%04X", c.PC)
	}
	c.Step() // RET
	if c.PC != 0x0103 {
		t.Fatalf("expected PC=0x0103 after RET, got 0x%04X", c.PC)
	}
}

func TestJMPToZeroHalts(t *testing.T) {
	c := newCPU(t, []byte{0xC3, 0x00, 0x00})

	outcome, err := c.Step()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if outcome != Halt {
		t.Fatalf("expected Halt outcome for JMP 0x0000")
	}
}

func TestHLTHalts(t *testing.T) {
	c := newCPU(t, []byte{0x76})

	outcome, err := c.Step()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if outcome != Halt {
		t.Fatalf("expected Halt outcome for HLT")
	}
}

func TestRST0Halts(t *testing.T) {
	c := newCPU(t, []byte{0xC7})

	outcome, err := c.Step()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if outcome != Halt {
		t.Fatalf("expected Halt outcome for RST 0")
	}
}

func TestAdd8Algebra(t *testing.T) {
	c := New(&memory.Memory{}, nil, nil)

	for a := 0; a < 256; a += 17 {
		for b := 0; b < 256; b += 23 {
			res := c.add8(uint8(a), uint8(b), 0)
			want := uint8((a + b) & 0xFF)
			if res != want {
				t.Fatalf("add8(%d,%d)=%d, want %d", a, b, res, want)
			}
			if c.Z() != (res == 0) {
				t.Fatalf("add8(%d,%d): Z flag mismatch", a, b)
			}
			if c.S() != (res >= 128) {
				t.Fatalf("add8(%d,%d): S flag mismatch", a, b)
			}
			if c.CY() != (a+b >= 256) {
				t.Fatalf("add8(%d,%d): CY flag mismatch", a, b)
			}
		}
	}
}

func TestSub8Algebra(t *testing.T) {
	c := New(&memory.Memory{}, nil, nil)

	for a := 0; a < 256; a += 17 {
		for b := 0; b < 256; b += 23 {
			res := c.sub8(uint8(a), uint8(b), 0)
			want := uint8((a - b) & 0xFF)
			if res != want {
				t.Fatalf("sub8(%d,%d)=%d, want %d", a, b, res, want)
			}
			if c.CY() != (a < b) {
				t.Fatalf("sub8(%d,%d): CY (borrow) flag mismatch", a, b)
			}
		}
	}
}

func TestDecodeIsAFunction(t *testing.T) {
	// Re-classifying every opcode twice must yield identical results.
	for op := 0; op < 256; op++ {
		a := classify(uint8(op))
		b := classify(uint8(op))
		if a != b {
			t.Fatalf("classify(0x%02X) is not deterministic", op)
		}
	}
}

func TestINRDCRDoNotAffectCarry(t *testing.T) {
	c := newCPU(t, []byte{0x37, 0x3C}) // STC; INR A
	c.Step()
	c.Step()

	if !c.CY() {
		t.Fatalf("INR must not clear a carry set by a prior instruction")
	}
}
