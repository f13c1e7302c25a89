package cpu

// family identifies which handler in cpu.go an opcode dispatches to.
// The decode table stores one of these per opcode, along with the
// bit-fields the base specification's opcode table calls out, so
// execute() never has to re-examine the raw opcode byte.
type family uint8

const (
	famNOP family = iota
	famINR
	famDCR
	famMVI
	famLXI
	famINX
	famDCX
	famDAD
	famSTAX
	famLDAX
	famSHLD
	famLHLD
	famSTA
	famLDA
	famRotate
	famDAA
	famCMA
	famSTC
	famCMC
	famMOV
	famHLT
	famALUReg
	famALUImm
	famRcc
	famPOP
	famJcc
	famJMP
	famCcc
	famPUSH
	famRST
	famRET
	famCALL
	famPCHL
	famXCHG
	famXTHL
	famSPHL
	famINOUT // IN/OUT: decoded, but a documented no-op beyond consuming the port byte
	famEIDI  // EI/DI: decoded, but a documented no-op
	famBad   // no documented 8080 opcode matches
)

// aluOp identifies which of the eight ALU-group operations (ADD, ADC,
// SUB, SBB, ANA, XRA, ORA, CMP) an opcode selects.
type aluOp uint8

const (
	aluADD aluOp = iota
	aluADC
	aluSUB
	aluSBB
	aluANA
	aluXRA
	aluORA
	aluCMP
)

// rotOp identifies which of the four single-bit rotate opcodes (RLC,
// RRC, RAL, RAR) an opcode selects.
type rotOp uint8

const (
	rotRLC rotOp = iota
	rotRRC
	rotRAL
	rotRAR
)

// instr is one fully-decoded opcode: its family, plus whatever fields
// the family's handler needs, extracted once at table-build time
// instead of on every fetch.
type instr struct {
	family family

	reg1 uint8 // destination register field (INR/DCR/MVI/MOV)
	reg2 uint8 // source register field (MOV/ALU-reg)
	rp   uint8 // register-pair field (LXI/INX/DCX/DAD/STAX/LDAX/PUSH/POP)
	cond uint8 // condition-code field (Rcc/Jcc/Ccc)
	alu  aluOp // ALU-group operation (ALUReg/ALUImm)
	rot  rotOp // rotate operation (Rotate)
	rst  uint8 // RST target (0-7, multiplied by 8 to get the address)
}

// opcodeTable is built once, at package init, by classifying every one
// of the 256 possible opcode bytes by the bit-field patterns from the
// specification. Indexing is then a single array lookup instead of a
// chain of masked comparisons on every instruction fetch.
var opcodeTable [256]instr

func init() {
	for op := 0; op < 256; op++ {
		opcodeTable[op] = classify(uint8(op))
	}
}

// classify derives the instr for a single opcode byte, by matching the
// bit-field patterns documented in the 8080 opcode table. The patterns
// are checked from most to least specific, since several families
// share the same top two bits.
func classify(op uint8) instr {

	rrr := (op >> 3) & 0x07 // destination-field position shared by several families
	sss := op & 0x07        // source-field position shared by several families
	rp := (op >> 4) & 0x03
	ccc := (op >> 3) & 0x07

	switch {

	case op&0xC7 == 0x00:
		// 00 000 000 and its documented NOP aliases (00 rrr 000).
		return instr{family: famNOP}

	case op == 0x76:
		return instr{family: famHLT}

	case op&0xC0 == 0x40:
		// 01 ddd sss, excluding the HLT collision handled above.
		return instr{family: famMOV, reg1: rrr, reg2: sss}

	case op&0xC0 == 0x80:
		// 10 ooo sss
		return instr{family: famALUReg, alu: aluOp(rrr), reg2: sss}

	case op&0xC7 == 0x04:
		return instr{family: famINR, reg1: rrr}

	case op&0xC7 == 0x05:
		return instr{family: famDCR, reg1: rrr}

	case op&0xC7 == 0x06:
		return instr{family: famMVI, reg1: rrr}

	case op&0xCF == 0x01:
		return instr{family: famLXI, rp: rp}

	case op&0xCF == 0x03:
		return instr{family: famINX, rp: rp}

	case op&0xCF == 0x0B:
		return instr{family: famDCX, rp: rp}

	case op&0xCF == 0x09:
		return instr{family: famDAD, rp: rp}

	case op&0xCF == 0x02 && (rp == RPBC || rp == RPDE):
		return instr{family: famSTAX, rp: rp}

	case op&0xCF == 0x0A && (rp == RPBC || rp == RPDE):
		return instr{family: famLDAX, rp: rp}

	case op == 0x22:
		return instr{family: famSHLD}

	case op == 0x2A:
		return instr{family: famLHLD}

	case op == 0x32:
		return instr{family: famSTA}

	case op == 0x3A:
		return instr{family: famLDA}

	case op&0xE7 == 0x07:
		// 00 0oo 111 - RLC/RRC/RAL/RAR
		return instr{family: famRotate, rot: rotOp((op >> 3) & 0x03)}

	case op == 0x27:
		return instr{family: famDAA}

	case op == 0x2F:
		return instr{family: famCMA}

	case op == 0x37:
		return instr{family: famSTC}

	case op == 0x3F:
		return instr{family: famCMC}

	case op == 0xD3, op == 0xDB:
		// OUT d8 / IN d8
		return instr{family: famINOUT}

	case op == 0xF3, op == 0xFB:
		// DI / EI
		return instr{family: famEIDI}

	case op&0xC7 == 0xC0:
		return instr{family: famRcc, cond: ccc}

	case op&0xC7 == 0xC2:
		return instr{family: famJcc, cond: ccc}

	case op == 0xC3:
		return instr{family: famJMP}

	case op&0xC7 == 0xC4:
		return instr{family: famCcc, cond: ccc}

	case op&0xCF == 0xC1:
		return instr{family: famPOP, rp: rp}

	case op&0xCF == 0xC5:
		return instr{family: famPUSH, rp: rp}

	case op&0xC7 == 0xC6:
		return instr{family: famALUImm, alu: aluOp(rrr)}

	case op&0xC7 == 0xC7:
		return instr{family: famRST, rst: rrr}

	case op == 0xC9:
		return instr{family: famRET}

	case op == 0xCD:
		return instr{family: famCALL}

	case op == 0xE9:
		return instr{family: famPCHL}

	case op == 0xEB:
		return instr{family: famXCHG}

	case op == 0xE3:
		return instr{family: famXTHL}

	case op == 0xF9:
		return instr{family: famSPHL}

	default:
		return instr{family: famBad}
	}
}
