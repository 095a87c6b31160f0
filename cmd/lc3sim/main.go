// Package main provides the lc3sim command: a functional emulator for the
// LC-3 instruction set.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lc3sim/lc3sim/console"
	"github.com/lc3sim/lc3sim/emu"
	"github.com/lc3sim/lc3sim/loader"
)

func main() {
	os.Exit(run())
}

// run is separated from main so deferred terminal restoration executes
// before the process exit code is set.
func run() int {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "Usage: lc3sim <image-file>\n")
		return 1
	}

	prog, err := loader.Load(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading image: %v\n", err)
		return 1
	}

	cons, err := console.Open()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error preparing terminal: %v\n", err)
		return 1
	}
	defer func() { _ = cons.Close() }()

	// The terminal must come back even when the process is killed
	// mid-run.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		_ = cons.Close()
		os.Exit(1)
	}()

	emulator := emu.NewEmulator(
		emu.WithInput(cons),
		emu.WithOutput(cons),
		emu.WithKeyboard(cons),
	)
	emulator.LoadProgram(prog)

	if err := emulator.Run(); err != nil {
		_ = cons.Close()
		fmt.Fprintf(os.Stderr, "Emulation error: %v\n", err)
		return 1
	}

	return 0
}
