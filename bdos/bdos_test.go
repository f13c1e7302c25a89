package bdos

import (
	"testing"

	"github.com/skx/i8080emu/consoleout"
	"github.com/skx/i8080emu/cpu"
	"github.com/skx/i8080emu/memory"
)

func newTestCPU(t *testing.T) (*cpu.CPU, *consoleout.Console, *BDOS) {
	t.Helper()

	con, err := consoleout.New("recorder")
	if err != nil {
		t.Fatalf("failed to create recorder console: %s", err)
	}

	b := New(con, nil)
	mem := &memory.Memory{}
	c := cpu.New(mem, b, nil)
	return c, con, b
}

func TestWriteString(t *testing.T) {
	c, con, b := newTestCPU(t)

	msg := "HI$"
	for i, ch := range []byte(msg) {
		c.Memory.Set(0x0200+uint16(i), ch)
	}
	c.SetDE(0x0200)
	c.Reg[cpu.RegC] = funcWriteString

	if err := b.Call(c); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	rec := con.Driver().(consoleout.Recorder)
	if rec.Output() != "HI" {
		t.Fatalf("expected %q, got %q", "HI", rec.Output())
	}

	if c.HL() != 0 || c.Reg[cpu.RegB] != 0 || c.Reg[cpu.RegA] != 0 {
		t.Fatalf("expected HL/B/A cleared, got HL=%04X B=%02X A=%02X", c.HL(), c.Reg[cpu.RegB], c.Reg[cpu.RegA])
	}
}

func TestWBOOT(t *testing.T) {
	c, _, b := newTestCPU(t)

	c.Reg[cpu.RegC] = funcWBOOT

	if err := b.Call(c); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if !c.Halted() {
		t.Fatalf("expected CPU to be halted after WBOOT")
	}
}

func TestUnknownFunction(t *testing.T) {
	c, _, b := newTestCPU(t)

	c.Reg[cpu.RegC] = 0xFE

	err := b.Call(c)
	if err == nil {
		t.Fatalf("expected an error for an unknown BDOS function")
	}

	var unk *UnknownBDOSCall
	if _, ok := err.(*UnknownBDOSCall); !ok {
		t.Fatalf("expected *UnknownBDOSCall, got %T (%s)", err, err)
	}
	_ = unk
}
