// Package emu provides functional LC-3 emulation.
package emu

import (
	"fmt"
	"io"
	"os"

	"github.com/lc3sim/lc3sim/insts"
	"github.com/lc3sim/lc3sim/loader"
)

// StepResult represents the result of executing a single instruction.
type StepResult struct {
	// Halted is true if the program stopped via the HALT trap.
	Halted bool

	// Err is set if an error occurred during execution.
	Err error
}

// Emulator executes LC-3 instructions functionally.
type Emulator struct {
	regFile     *RegFile
	memory      *Memory
	decoder     *insts.Decoder
	trapHandler TrapHandler

	// I/O for the trap services
	in  io.Reader
	out io.Writer

	// Execution state
	instructionCount uint64
	maxInstructions  uint64 // 0 means no limit
}

// EmulatorOption is a functional option for configuring the Emulator.
type EmulatorOption func(*Emulator)

// WithInput sets the byte stream consumed by the GETC and IN traps.
func WithInput(r io.Reader) EmulatorOption {
	return func(e *Emulator) {
		e.in = r
	}
}

// WithOutput sets the byte stream written by the OUT, PUTS, IN, and PUTSP
// traps.
func WithOutput(w io.Writer) EmulatorOption {
	return func(e *Emulator) {
		e.out = w
	}
}

// WithKeyboard attaches the readiness source polled on KBSR reads.
func WithKeyboard(kb Keyboard) EmulatorOption {
	return func(e *Emulator) {
		e.memory.SetKeyboard(kb)
	}
}

// WithTrapHandler sets a custom trap handler.
func WithTrapHandler(handler TrapHandler) EmulatorOption {
	return func(e *Emulator) {
		e.trapHandler = handler
	}
}

// WithMaxInstructions sets the maximum number of instructions to execute.
// A value of 0 means no limit.
func WithMaxInstructions(max uint64) EmulatorOption {
	return func(e *Emulator) {
		e.maxInstructions = max
	}
}

// NewEmulator creates a new LC-3 emulator in the power-on state: PC at
// 0x3000, Z flag set, memory clear.
func NewEmulator(opts ...EmulatorOption) *Emulator {
	e := &Emulator{
		regFile: NewRegFile(),
		memory:  NewMemory(),
		decoder: insts.NewDecoder(),
		in:      os.Stdin,
		out:     os.Stdout,
	}

	// Apply options first (may set streams or the handler)
	for _, opt := range opts {
		opt(e)
	}

	// If no trap handler was provided, create a default one
	if e.trapHandler == nil {
		e.trapHandler = NewDefaultTrapHandler(e.regFile, e.memory, e.in, e.out)
	}

	return e
}

// RegFile returns the emulator's register file.
func (e *Emulator) RegFile() *RegFile {
	return e.regFile
}

// Memory returns the emulator's memory.
func (e *Emulator) Memory() *Memory {
	return e.memory
}

// InstructionCount returns the number of instructions executed.
func (e *Emulator) InstructionCount() uint64 {
	return e.instructionCount
}

// LoadProgram copies an object image into memory at its origin. The PC is
// not moved: LC-3 programs start at 0x3000 regardless of where the image
// loads.
func (e *Emulator) LoadProgram(prog *loader.Program) {
	addr := prog.Origin
	for _, w := range prog.Words {
		e.memory.Write(addr, w)
		addr++
	}
}

// Step executes a single instruction.
// Returns a StepResult indicating whether execution should continue.
func (e *Emulator) Step() StepResult {
	// Check instruction limit before executing
	if e.maxInstructions > 0 && e.instructionCount >= e.maxInstructions {
		return StepResult{
			Err: fmt.Errorf("max instructions reached"),
		}
	}

	// 1. Fetch: read the word at PC, then increment PC
	pc := e.regFile.Read(insts.PC)
	word := e.memory.Read(pc)
	e.regFile.Write(insts.PC, pc+1)

	// 2. Decode
	inst := e.decoder.Decode(word)

	// 3. Execute
	result := e.execute(inst)

	e.instructionCount++

	return result
}

// Run executes instructions until the program halts or an error occurs.
func (e *Emulator) Run() error {
	for {
		result := e.Step()
		if result.Halted {
			return nil
		}
		if result.Err != nil {
			return result.Err
		}
	}
}

// execute dispatches a decoded instruction. The PC read inside any handler
// is the already-incremented PC; branching opcodes overwrite it.
func (e *Emulator) execute(inst *insts.Instruction) StepResult {
	switch inst.Op {
	case insts.OpBR:
		e.executeBR(inst)
	case insts.OpADD:
		e.executeADD(inst)
	case insts.OpLD:
		e.executeLD(inst)
	case insts.OpST:
		e.executeST(inst)
	case insts.OpJSR:
		e.executeJSR(inst)
	case insts.OpAND:
		e.executeAND(inst)
	case insts.OpLDR:
		e.executeLDR(inst)
	case insts.OpSTR:
		e.executeSTR(inst)
	case insts.OpNOT:
		e.executeNOT(inst)
	case insts.OpLDI:
		e.executeLDI(inst)
	case insts.OpSTI:
		e.executeSTI(inst)
	case insts.OpJMP:
		e.executeJMP(inst)
	case insts.OpLEA:
		e.executeLEA(inst)
	case insts.OpTRAP:
		return e.executeTRAP(inst)
	case insts.OpRTI, insts.OpRES:
		// Privileged/reserved encodings are architectural no-ops in
		// user mode.
	}

	return StepResult{}
}

// executeBR takes the branch when any flag in the instruction's n/z/p mask
// is set in COND.
func (e *Emulator) executeBR(inst *insts.Instruction) {
	if e.regFile.CondMatches(inst.CondMask) {
		pc := e.regFile.Read(insts.PC)
		e.regFile.Write(insts.PC, pc+inst.PCOffset9)
	}
}

// executeADD computes DR <- SR1 + (imm5 | SR2), wrapping mod 2^16.
func (e *Emulator) executeADD(inst *insts.Instruction) {
	op1 := e.regFile.Read(inst.SR1)
	var op2 uint16
	if inst.ImmFlag {
		op2 = inst.Imm5
	} else {
		op2 = e.regFile.Read(inst.SR2)
	}
	result := op1 + op2
	e.regFile.Write(inst.DR, result)
	e.regFile.SetCondFlags(result)
}

// executeAND computes DR <- SR1 & (imm5 | SR2).
func (e *Emulator) executeAND(inst *insts.Instruction) {
	op1 := e.regFile.Read(inst.SR1)
	var op2 uint16
	if inst.ImmFlag {
		op2 = inst.Imm5
	} else {
		op2 = e.regFile.Read(inst.SR2)
	}
	result := op1 & op2
	e.regFile.Write(inst.DR, result)
	e.regFile.SetCondFlags(result)
}

// executeNOT computes DR <- ^SR1.
func (e *Emulator) executeNOT(inst *insts.Instruction) {
	result := ^e.regFile.Read(inst.SR1)
	e.regFile.Write(inst.DR, result)
	e.regFile.SetCondFlags(result)
}

// executeLD loads DR from the PC-relative address.
func (e *Emulator) executeLD(inst *insts.Instruction) {
	addr := e.regFile.Read(insts.PC) + inst.PCOffset9
	value := e.memory.Read(addr)
	e.regFile.Write(inst.DR, value)
	e.regFile.SetCondFlags(value)
}

// executeLDI loads DR through the pointer word at the PC-relative address.
func (e *Emulator) executeLDI(inst *insts.Instruction) {
	addr := e.regFile.Read(insts.PC) + inst.PCOffset9
	value := e.memory.Read(e.memory.Read(addr))
	e.regFile.Write(inst.DR, value)
	e.regFile.SetCondFlags(value)
}

// executeLDR loads DR from base register plus offset6.
func (e *Emulator) executeLDR(inst *insts.Instruction) {
	addr := e.regFile.Read(inst.SR1) + inst.Offset6
	value := e.memory.Read(addr)
	e.regFile.Write(inst.DR, value)
	e.regFile.SetCondFlags(value)
}

// executeLEA loads DR with the PC-relative address itself.
func (e *Emulator) executeLEA(inst *insts.Instruction) {
	addr := e.regFile.Read(insts.PC) + inst.PCOffset9
	e.regFile.Write(inst.DR, addr)
	e.regFile.SetCondFlags(addr)
}

// executeST stores DR at the PC-relative address.
func (e *Emulator) executeST(inst *insts.Instruction) {
	addr := e.regFile.Read(insts.PC) + inst.PCOffset9
	e.memory.Write(addr, e.regFile.Read(inst.DR))
}

// executeSTI stores DR through the pointer word at the PC-relative address.
func (e *Emulator) executeSTI(inst *insts.Instruction) {
	addr := e.regFile.Read(insts.PC) + inst.PCOffset9
	e.memory.Write(e.memory.Read(addr), e.regFile.Read(inst.DR))
}

// executeSTR stores DR at base register plus offset6.
func (e *Emulator) executeSTR(inst *insts.Instruction) {
	addr := e.regFile.Read(inst.SR1) + inst.Offset6
	e.memory.Write(addr, e.regFile.Read(inst.DR))
}

// executeJMP sets PC from the base register. RET is the same encoding with
// base R7.
func (e *Emulator) executeJMP(inst *insts.Instruction) {
	e.regFile.Write(insts.PC, e.regFile.Read(inst.BaseR))
}

// executeJSR saves the return address in R7, then jumps PC-relative (JSR)
// or through the base register (JSRR).
func (e *Emulator) executeJSR(inst *insts.Instruction) {
	pc := e.regFile.Read(insts.PC)
	e.regFile.Write(insts.R7, pc)

	if inst.LongFlag {
		e.regFile.Write(insts.PC, pc+inst.PCOffset11)
	} else {
		e.regFile.Write(insts.PC, e.regFile.Read(inst.BaseR))
	}
}

// executeTRAP saves the return address in R7 and dispatches to the trap
// handler on the vector in the low byte.
func (e *Emulator) executeTRAP(inst *insts.Instruction) StepResult {
	e.regFile.Write(insts.R7, e.regFile.Read(insts.PC))

	trapResult := e.trapHandler.Handle(inst.TrapVect)

	return StepResult{
		Halted: trapResult.Halted,
		Err:    trapResult.Err,
	}
}
