package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/lc3sim/lc3sim/emu"
)

// scriptedKeyboard feeds a fixed byte sequence to KBSR polls.
type scriptedKeyboard struct {
	bytes []byte
}

func (k *scriptedKeyboard) Poll() (byte, bool) {
	if len(k.bytes) == 0 {
		return 0, false
	}
	b := k.bytes[0]
	k.bytes = k.bytes[1:]
	return b, true
}

var _ = Describe("Memory", func() {
	var memory *emu.Memory

	BeforeEach(func() {
		memory = emu.NewMemory()
	})

	Describe("Read and Write", func() {
		It("should start zero-filled", func() {
			Expect(memory.Read(0x0000)).To(Equal(uint16(0)))
			Expect(memory.Read(0x3000)).To(Equal(uint16(0)))
			Expect(memory.Read(0xFFFF)).To(Equal(uint16(0)))
		})

		It("should round-trip stores", func() {
			memory.Write(0x3000, 0xBEEF)
			Expect(memory.Read(0x3000)).To(Equal(uint16(0xBEEF)))
		})

		It("should address the full 16-bit space", func() {
			memory.Write(0xFFFF, 0x1234)
			memory.Write(0x0000, 0x5678)

			Expect(memory.Read(0xFFFF)).To(Equal(uint16(0x1234)))
			Expect(memory.Read(0x0000)).To(Equal(uint16(0x5678)))
		})
	})

	Describe("keyboard status register", func() {
		It("should read as clear with no keyboard attached", func() {
			Expect(memory.Read(emu.AddrKBSR)).To(Equal(uint16(0)))
		})

		It("should latch a pending byte into KBDR and set the high bit", func() {
			memory.SetKeyboard(&scriptedKeyboard{bytes: []byte{'Z'}})

			Expect(memory.Read(emu.AddrKBSR)).To(Equal(uint16(0x8000)))
			Expect(memory.Read(emu.AddrKBDR)).To(Equal(uint16('Z')))
		})

		It("should clear the status once the script drains", func() {
			memory.SetKeyboard(&scriptedKeyboard{bytes: []byte{'a'}})

			Expect(memory.Read(emu.AddrKBSR)).To(Equal(uint16(0x8000)))
			Expect(memory.Read(emu.AddrKBDR)).To(Equal(uint16('a')))
			Expect(memory.Read(emu.AddrKBSR)).To(Equal(uint16(0)))
		})

		It("should keep KBDR stable while only the status is re-polled", func() {
			memory.SetKeyboard(&scriptedKeyboard{bytes: []byte{'x'}})

			Expect(memory.Read(emu.AddrKBSR)).To(Equal(uint16(0x8000)))
			Expect(memory.Read(emu.AddrKBSR)).To(Equal(uint16(0)))
			Expect(memory.Read(emu.AddrKBDR)).To(Equal(uint16('x')))
		})

		It("should not poll on KBDR reads", func() {
			kb := &scriptedKeyboard{bytes: []byte{'q'}}
			memory.SetKeyboard(kb)

			Expect(memory.Read(emu.AddrKBDR)).To(Equal(uint16(0)))
			Expect(kb.bytes).To(HaveLen(1))
		})

		It("should allow program stores to the keyboard registers", func() {
			memory.Write(emu.AddrKBSR, 0x1234)
			memory.Write(emu.AddrKBDR, 0x5678)

			Expect(memory.Read(emu.AddrKBDR)).To(Equal(uint16(0x5678)))
			// The next status poll overwrites the stored KBSR value.
			Expect(memory.Read(emu.AddrKBSR)).To(Equal(uint16(0)))
		})
	})
})
