// Package insts provides LC-3 instruction definitions and decoding.
//
// This package implements decoding of LC-3 machine words into structured
// instruction representations. The LC-3 encodes one instruction per 16-bit
// word; the top four bits select the opcode and the remaining twelve carry
// register numbers, immediates, and PC-relative offsets.
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst := decoder.Decode(0x1261) // ADD R1, R1, #1
//	fmt.Printf("Op: %v, DR: %v, Imm5: %d\n", inst.Op, inst.DR, inst.Imm5)
package insts

// Op represents an LC-3 opcode, the top four bits of an instruction word.
type Op uint16

// The sixteen LC-3 opcodes, in encoding order.
const (
	OpBR   Op = iota // conditional branch
	OpADD            // add (register or imm5)
	OpLD             // load PC-relative
	OpST             // store PC-relative
	OpJSR            // jump to subroutine (JSR/JSRR)
	OpAND            // bitwise and (register or imm5)
	OpLDR            // load base+offset6
	OpSTR            // store base+offset6
	OpRTI            // return from interrupt (no-op in user mode)
	OpNOT            // bitwise complement
	OpLDI            // load indirect PC-relative
	OpSTI            // store indirect PC-relative
	OpJMP            // jump to register (RET is JMP R7)
	OpRES            // reserved (no-op)
	OpLEA            // load effective address
	OpTRAP           // invoke OS service
)

var opNames = [16]string{
	"BR", "ADD", "LD", "ST", "JSR", "AND", "LDR", "STR",
	"RTI", "NOT", "LDI", "STI", "JMP", "RES", "LEA", "TRAP",
}

// String returns the assembler mnemonic for the opcode.
func (op Op) String() string {
	if op < 16 {
		return opNames[op]
	}
	return "???"
}

// Register identifies one of the ten register-file slots. The decoder only
// ever produces R0..R7 from the 3-bit register fields; PC and COND exist so
// the whole file can be addressed uniformly.
type Register uint8

// Register-file slots.
const (
	R0 Register = iota
	R1
	R2
	R3
	R4
	R5
	R6
	R7
	PC
	COND
)

// NumRegs is the size of the register file.
const NumRegs = 10

var registerNames = [NumRegs]string{
	"R0", "R1", "R2", "R3", "R4", "R5", "R6", "R7", "PC", "COND",
}

// String returns the conventional register name.
func (r Register) String() string {
	if r < NumRegs {
		return registerNames[r]
	}
	return "R?"
}

// Condition flag values held in COND. Exactly one is set after any
// instruction that writes a general register.
const (
	FlagPos uint16 = 1 << 0 // P
	FlagZro uint16 = 1 << 1 // Z
	FlagNeg uint16 = 1 << 2 // N
)

// Trap vectors serviced by the emulator, the low byte of a TRAP word.
const (
	TrapGETC  uint8 = 0x20 // read one character, no echo
	TrapOUT   uint8 = 0x21 // write one character
	TrapPUTS  uint8 = 0x22 // write a word-per-character string
	TrapIN    uint8 = 0x23 // prompt, read one character, echo
	TrapPUTSP uint8 = 0x24 // write a packed byte string
	TrapHALT  uint8 = 0x25 // stop the machine
)

// SignExtend widens the low bitCount bits of x, interpreted as a
// two's-complement integer, to a full 16-bit word. Bits at and above
// bitCount must be clear on input; the decoder masks its fields before
// extending them.
func SignExtend(x uint16, bitCount uint) uint16 {
	if (x>>(bitCount-1))&1 != 0 {
		x |= 0xFFFF << bitCount
	}
	return x
}
