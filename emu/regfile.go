// Package emu provides functional LC-3 emulation.
package emu

import "github.com/lc3sim/lc3sim/insts"

// PCStart is the address where LC-3 user programs begin executing.
const PCStart uint16 = 0x3000

// RegFile represents the LC-3 register file: the eight general-purpose
// registers R0-R7, the program counter, and the condition-code register,
// stored as a flat array of ten words and addressed by insts.Register.
type RegFile struct {
	regs [insts.NumRegs]uint16
}

// NewRegFile creates a register file in the LC-3 power-on state: PC at
// 0x3000 and the Z flag set.
func NewRegFile() *RegFile {
	r := &RegFile{}
	r.Reset()
	return r
}

// Reset restores the power-on state. General registers clear, PC returns to
// PCStart, and COND holds Z (one flag must be set at all times).
func (r *RegFile) Reset() {
	r.regs = [insts.NumRegs]uint16{}
	r.regs[insts.PC] = PCStart
	r.regs[insts.COND] = insts.FlagZro
}

// Read returns the value of the given register.
func (r *RegFile) Read(reg insts.Register) uint16 {
	return r.regs[reg]
}

// Write stores a value into the given register.
func (r *RegFile) Write(reg insts.Register, value uint16) {
	r.regs[reg] = value
}

// SetCondFlags classifies value as a two's-complement integer and stores the
// matching flag in COND: negative sets N, zero sets Z, positive sets P.
func (r *RegFile) SetCondFlags(value uint16) {
	switch {
	case value == 0:
		r.regs[insts.COND] = insts.FlagZro
	case value>>15 != 0:
		r.regs[insts.COND] = insts.FlagNeg
	default:
		r.regs[insts.COND] = insts.FlagPos
	}
}

// CondMatches reports whether any flag in the branch condition mask is
// currently set in COND.
func (r *RegFile) CondMatches(mask uint16) bool {
	return r.regs[insts.COND]&mask != 0
}
