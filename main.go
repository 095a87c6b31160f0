// Package main provides the entry point for lc3sim.
// lc3sim is a functional emulator for the LC-3 instruction set.
//
// For the full CLI, use: go run ./cmd/lc3sim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("lc3sim - LC-3 instruction set emulator")
	fmt.Println("")
	fmt.Println("Usage: lc3sim <image-file>")
	fmt.Println("")
	fmt.Println("The image file is a raw LC-3 object image: big-endian words,")
	fmt.Println("the first being the load origin.")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/lc3sim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/lc3sim' instead.")
	}
}
