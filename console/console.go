// Package console drives the controlling terminal for the emulator.
//
// LC-3 programs expect character-at-a-time keyboard input: no line
// buffering, no echo. Open switches standard input into that mode and Close
// restores the settings captured at startup. The Console doubles as the
// emulator's byte streams and as the non-blocking readiness source behind
// the memory-mapped keyboard status register.
package console

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// Console wraps an input file and an output stream for the duration of a
// run.
type Console struct {
	in    *os.File
	out   *bufio.Writer
	saved *unix.Termios // nil when the input is not a terminal
}

// New creates a console over the given streams without touching terminal
// modes. Reads block, Poll never does.
func New(in *os.File, out io.Writer) *Console {
	return &Console{
		in:  in,
		out: bufio.NewWriter(out),
	}
}

// Open prepares the controlling terminal: the current termios settings of
// standard input are captured and canonical mode and echo are switched off.
// When standard input is not a terminal (a pipe or a file), there is
// nothing to configure and reads pass through unchanged.
func Open() (*Console, error) {
	c := New(os.Stdin, os.Stdout)

	fd := int(c.in.Fd())
	tio, err := unix.IoctlGetTermios(fd, ioctlReadTermios)
	if err != nil {
		// Not a terminal: piped input needs no mode switch.
		return c, nil
	}

	saved := *tio
	tio.Lflag &^= unix.ICANON | unix.ECHO
	tio.Cc[unix.VMIN] = 1
	tio.Cc[unix.VTIME] = 0
	if err := unix.IoctlSetTermios(fd, ioctlWriteTermios, tio); err != nil {
		return nil, fmt.Errorf("failed to set terminal mode: %w", err)
	}

	c.saved = &saved
	return c, nil
}

// Close flushes pending output and restores the terminal settings captured
// by Open. It is idempotent, so it can sit on every exit path.
func (c *Console) Close() error {
	_ = c.out.Flush()
	if c.saved == nil {
		return nil
	}
	saved := c.saved
	c.saved = nil
	if err := unix.IoctlSetTermios(int(c.in.Fd()), ioctlWriteTermios, saved); err != nil {
		return fmt.Errorf("failed to restore terminal mode: %w", err)
	}
	return nil
}

// Read blocks for input bytes. With the terminal in character mode a single
// keystroke satisfies a one-byte read.
func (c *Console) Read(p []byte) (int, error) {
	return c.in.Read(p)
}

// Poll reports the next pending input byte without blocking. No byte ready
// means (0, false); the keyboard status register then reads as clear.
func (c *Console) Poll() (byte, bool) {
	fds := []unix.PollFd{{Fd: int32(c.in.Fd()), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, 0)
	if err != nil || n == 0 || fds[0].Revents&unix.POLLIN == 0 {
		return 0, false
	}

	var buf [1]byte
	if k, err := c.in.Read(buf[:]); err != nil || k == 0 {
		return 0, false
	}
	return buf[0], true
}

// Write buffers output bytes.
func (c *Console) Write(p []byte) (int, error) {
	return c.out.Write(p)
}

// Flush pushes buffered output to the terminal.
func (c *Console) Flush() error {
	return c.out.Flush()
}
