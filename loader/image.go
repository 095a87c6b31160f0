// Package loader provides LC-3 object image loading.
//
// An object image is a raw sequence of big-endian 16-bit words. The first
// word is the origin, the address at which the remaining words are placed.
package loader

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrOddImageSize reports an image whose byte count is not a multiple of the
// 16-bit word size.
var ErrOddImageSize = errors.New("image has an odd number of bytes")

// ErrEmptyImage reports an image too short to carry an origin word.
var ErrEmptyImage = errors.New("image is missing the origin word")

// Program represents a loaded object image ready for execution.
type Program struct {
	// Origin is the address where the first payload word is placed.
	Origin uint16

	// Words contains the payload in load order, one memory cell each.
	Words []uint16
}

// Load reads an LC-3 object image from a file.
func Load(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer func() { _ = f.Close() }()

	prog, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read image %s: %w", path, err)
	}
	return prog, nil
}

// Read parses an object image from a byte stream: a big-endian origin word
// followed by the payload words. The payload length is the remaining byte
// count over two; an odd byte count is malformed.
func Read(r io.Reader) (*Program, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	if len(data)%2 != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrOddImageSize, len(data))
	}
	if len(data) < 2 {
		return nil, ErrEmptyImage
	}

	prog := &Program{
		Origin: binary.BigEndian.Uint16(data),
		Words:  make([]uint16, 0, len(data)/2-1),
	}
	for off := 2; off < len(data); off += 2 {
		prog.Words = append(prog.Words, binary.BigEndian.Uint16(data[off:]))
	}

	return prog, nil
}
