// Copyright (c) 2024 The Anvil Contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

// Package elfwriter produces byte-exact ELF32/ELF64 object files from
// a target machine/ABI/type/bitness/endianness and a set of named
// section blobs. Grounded on
// original_source/include/Inertia/ELF/ELFWriter.hpp's ELFWriter: a
// growable header byte buffer and an ELF_Tracker recording the
// offsets of fields that can only be filled in once the rest of the
// layout is known. Where the C++ writer serializes in host-native
// order and conditionally byte-flips when the target endianness
// differs, this writer gets the same result more directly: every
// multi-byte field is always encoded with the target's own
// binary.ByteOrder, so host endianness never enters the encoding
// path at all.
package elfwriter

import (
	"bytes"
	"encoding/binary"

	"anvil/internal/diag"
)

// Bitness selects 32- or 64-bit ELF class.
type Bitness int

const (
	Bits32 Bitness = 32
	Bits64 Bitness = 64
)

// Fixed on-disk struct sizes for the 32- and 64-bit ELF formats.
const (
	Header32Size = 52
	Header64Size = 64
	Phdr32Size   = 32
	Phdr64Size   = 56
	Shdr32Size   = 40
	Shdr64Size   = 64
)

// ELFType is the e_type field (ET_*).
type ELFType uint16

const (
	ETNone         ELFType = 0
	ETRelocatable  ELFType = 1
	ETExecutable   ELFType = 2
	ETSharedObject ELFType = 3
	ETCore         ELFType = 4
)

// ELFABI is the e_ident[EI_OSABI] field.
type ELFABI uint8

const (
	ABISystemV ELFABI = 0
	ABILinux   ELFABI = 3
)

// ELFMachine is the e_machine field, one value per target.Arch.
type ELFMachine uint16

const (
	EMX86_64  ELFMachine = 62
	EMAArch64 ELFMachine = 183
)

// tracker records the byte offsets of header fields that are zeroed
// at construction time and patched once the section/program header
// layout is known. Mirrors ELF_Tracker's offset_e_* members.
type tracker struct {
	entry, phoff, shoff    int
	phnum, shnum, shstrndx int
}

// Header is an in-progress ELF file header.
type Header struct {
	buf          bytes.Buffer
	bits         Bitness
	littleTarget bool
	track        tracker
}

func (h *Header) order() binary.ByteOrder {
	if h.littleTarget {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

func (h *Header) putUint16(v uint16) {
	var b [2]byte
	h.order().PutUint16(b[:], v)
	h.buf.Write(b[:])
}

func (h *Header) putUint32(v uint32) {
	var b [4]byte
	h.order().PutUint32(b[:], v)
	h.buf.Write(b[:])
}

func (h *Header) putUint64(v uint64) {
	var b [8]byte
	h.order().PutUint64(b[:], v)
	h.buf.Write(b[:])
}

// putAddr writes a field whose width depends on bitness: 4 bytes for
// ELF32, 8 bytes for ELF64.
func (h *Header) putAddr(v uint64) {
	if h.bits == Bits32 {
		h.putUint32(uint32(v))
		return
	}
	h.putUint64(v)
}

func (h *Header) patchUint16(offset int, v uint16) {
	var b [2]byte
	h.order().PutUint16(b[:], v)
	copy(h.buf.Bytes()[offset:], b[:])
}

func (h *Header) patchAddr(offset int, v uint64) {
	raw := h.buf.Bytes()
	if h.bits == Bits32 {
		var b [4]byte
		h.order().PutUint32(b[:], uint32(v))
		copy(raw[offset:], b[:])
		return
	}
	var b [8]byte
	h.order().PutUint64(b[:], v)
	copy(raw[offset:], b[:])
}

// phEntSize and shEntSize return the fixed program/section header
// entry sizes for this header's bitness.
func (h *Header) phEntSize() uint16 {
	if h.bits == Bits32 {
		return Phdr32Size
	}
	return Phdr64Size
}

func (h *Header) shEntSize() uint16 {
	if h.bits == Bits32 {
		return Shdr32Size
	}
	return Shdr64Size
}

// newHeader lays out the fixed-position fields of the ELF identification
// block and the scalar header fields, following CreateHeader's field
// order exactly, and records tracker offsets for the fields this
// writer can only fill in after sections and program headers exist.
func newHeader(bits Bitness, little bool, machine ELFMachine, abi ELFABI, typ ELFType) (*Header, error) {
	if bits != Bits32 && bits != Bits64 {
		return nil, &diag.WriterError{What: "unsupported ELF bitness"}
	}
	h := &Header{bits: bits, littleTarget: little}

	h.buf.Write([]byte{0x7F, 'E', 'L', 'F'})
	if bits == Bits64 {
		h.buf.WriteByte(2)
	} else {
		h.buf.WriteByte(1)
	}
	if little {
		h.buf.WriteByte(1)
	} else {
		h.buf.WriteByte(2)
	}
	h.buf.WriteByte(1) // EI_VERSION
	h.buf.WriteByte(byte(abi))
	h.buf.WriteByte(0) // EI_ABIVERSION
	h.buf.Write(make([]byte, 7))

	h.putUint16(uint16(typ))
	h.putUint16(uint16(machine))
	h.putUint32(1) // e_version

	h.track.entry = h.buf.Len()
	h.putAddr(0)
	h.track.phoff = h.buf.Len()
	h.putAddr(0)
	h.track.shoff = h.buf.Len()
	h.putAddr(0)

	h.putUint32(0) // e_flags

	ehsize := uint16(Header64Size)
	if bits == Bits32 {
		ehsize = Header32Size
	}
	h.putUint16(ehsize)
	h.putUint16(h.phEntSize())

	h.track.phnum = h.buf.Len()
	h.putUint16(0)

	h.putUint16(h.shEntSize())

	h.track.shnum = h.buf.Len()
	h.putUint16(0)

	h.track.shstrndx = h.buf.Len()
	h.putUint16(0)

	return h, nil
}

// patchLayout fills in every tracker-recorded field once the section
// and program header tables have been laid out.
func (h *Header) patchLayout(entry, phoff, shoff uint64, phnum, shnum, shstrndx uint16) {
	h.patchAddr(h.track.entry, entry)
	h.patchAddr(h.track.phoff, phoff)
	h.patchAddr(h.track.shoff, shoff)
	h.patchUint16(h.track.phnum, phnum)
	h.patchUint16(h.track.shnum, shnum)
	h.patchUint16(h.track.shstrndx, shstrndx)
}
