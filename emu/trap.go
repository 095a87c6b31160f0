// Package emu provides functional LC-3 emulation.
package emu

import (
	"errors"
	"fmt"
	"io"

	"github.com/lc3sim/lc3sim/insts"
)

// ErrUnknownTrap reports a TRAP instruction whose vector is outside the six
// services the emulator implements.
var ErrUnknownTrap = errors.New("unknown trap vector")

// TrapResult represents the result of servicing a trap.
type TrapResult struct {
	// Halted is true if the trap stopped the machine (HALT).
	Halted bool

	// Err is set if the trap failed: an undefined vector, or an error on
	// the underlying input/output streams.
	Err error
}

// TrapHandler is the interface for servicing LC-3 trap instructions.
type TrapHandler interface {
	// Handle executes the service selected by the 8-bit trap vector.
	// LC-3 trap convention: the character argument or result lives in R0,
	// string arguments are word sequences in memory starting at R0.
	Handle(vector uint8) TrapResult
}

// DefaultTrapHandler services the six LC-3 traps against an input byte
// stream and an output byte stream.
type DefaultTrapHandler struct {
	regFile *RegFile
	memory  *Memory
	in      io.Reader
	out     io.Writer
}

// NewDefaultTrapHandler creates a trap handler bound to the given register
// file, memory, and byte streams.
func NewDefaultTrapHandler(regFile *RegFile, memory *Memory, in io.Reader, out io.Writer) *DefaultTrapHandler {
	return &DefaultTrapHandler{
		regFile: regFile,
		memory:  memory,
		in:      in,
		out:     out,
	}
}

// Handle executes the service selected by vector.
func (h *DefaultTrapHandler) Handle(vector uint8) TrapResult {
	switch vector {
	case insts.TrapGETC:
		return h.handleGetc()
	case insts.TrapOUT:
		return h.handleOut()
	case insts.TrapPUTS:
		return h.handlePuts()
	case insts.TrapIN:
		return h.handleIn()
	case insts.TrapPUTSP:
		return h.handlePutsp()
	case insts.TrapHALT:
		return TrapResult{Halted: true}
	default:
		return TrapResult{Err: fmt.Errorf("%w: 0x%02X", ErrUnknownTrap, vector)}
	}
}

// handleGetc reads one byte from input into R0 without echoing it.
func (h *DefaultTrapHandler) handleGetc() TrapResult {
	b, err := h.readByte()
	if err != nil {
		return TrapResult{Err: fmt.Errorf("GETC: %w", err)}
	}
	h.regFile.Write(insts.R0, uint16(b))
	return TrapResult{}
}

// handleOut writes the low byte of R0 to output.
func (h *DefaultTrapHandler) handleOut() TrapResult {
	c := byte(h.regFile.Read(insts.R0))
	if err := h.writeBytes(c); err != nil {
		return TrapResult{Err: fmt.Errorf("OUT: %w", err)}
	}
	return TrapResult{}
}

// handlePuts writes the zero-terminated string starting at R0, one
// character per word.
func (h *DefaultTrapHandler) handlePuts() TrapResult {
	addr := h.regFile.Read(insts.R0)
	for {
		c := h.memory.Read(addr)
		if c == 0 {
			break
		}
		if err := h.writeBytes(byte(c)); err != nil {
			return TrapResult{Err: fmt.Errorf("PUTS: %w", err)}
		}
		addr++
	}
	if err := h.flush(); err != nil {
		return TrapResult{Err: fmt.Errorf("PUTS: %w", err)}
	}
	return TrapResult{}
}

// handleIn prompts for a character, reads one byte, echoes it, and stores it
// in R0.
func (h *DefaultTrapHandler) handleIn() TrapResult {
	if err := h.writeBytes([]byte("Enter a character: ")...); err != nil {
		return TrapResult{Err: fmt.Errorf("IN: %w", err)}
	}
	b, err := h.readByte()
	if err != nil {
		return TrapResult{Err: fmt.Errorf("IN: %w", err)}
	}
	if err := h.writeBytes(b); err != nil {
		return TrapResult{Err: fmt.Errorf("IN: %w", err)}
	}
	h.regFile.Write(insts.R0, uint16(b))
	return TrapResult{}
}

// handlePutsp writes the zero-terminated packed string starting at R0, two
// characters per word, low byte first. A zero high byte ends its word early
// (odd-length strings leave it empty).
func (h *DefaultTrapHandler) handlePutsp() TrapResult {
	addr := h.regFile.Read(insts.R0)
	for {
		c := h.memory.Read(addr)
		if c == 0 {
			break
		}
		if err := h.writeBytes(byte(c & 0xFF)); err != nil {
			return TrapResult{Err: fmt.Errorf("PUTSP: %w", err)}
		}
		if hi := byte(c >> 8); hi != 0 {
			if err := h.writeBytes(hi); err != nil {
				return TrapResult{Err: fmt.Errorf("PUTSP: %w", err)}
			}
		}
		addr++
	}
	if err := h.flush(); err != nil {
		return TrapResult{Err: fmt.Errorf("PUTSP: %w", err)}
	}
	return TrapResult{}
}

// readByte blocks until one byte arrives on the input stream.
func (h *DefaultTrapHandler) readByte() (byte, error) {
	var buf [1]byte
	if _, err := io.ReadFull(h.in, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// writeBytes sends bytes to the output stream and flushes, so printed
// characters reach the terminal before the program blocks on input.
func (h *DefaultTrapHandler) writeBytes(b ...byte) error {
	if _, err := h.out.Write(b); err != nil {
		return err
	}
	return h.flush()
}

func (h *DefaultTrapHandler) flush() error {
	if f, ok := h.out.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}
