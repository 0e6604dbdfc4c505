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
package elfwriter

import (
	"bytes"
	"io"

	"anvil/target"
)

// SectionFlag mirrors ELFSectionFlags from
// original_source/include/Inertia/ELF/ELFWriter.hpp.
type SectionFlag uint64

const (
	SHFWrite     SectionFlag = 0x1
	SHFAlloc     SectionFlag = 0x2
	SHFExecInstr SectionFlag = 0x4
	SHFMerge     SectionFlag = 0x10
	SHFStrings   SectionFlag = 0x20
)

// Section types (sh_type).
const (
	SHTNull     uint32 = 0
	SHTProgBits uint32 = 1
	SHTSymTab   uint32 = 2
	SHTStrTab   uint32 = 3
	SHTNoBits   uint32 = 8
)

// Standard section flag combinations for the common section kinds.
const (
	TextSectionFlags   = SHFAlloc | SHFExecInstr
	DataSectionFlags   = SHFAlloc | SHFWrite
	RODataSectionFlags = SHFAlloc | SHFStrings
	BSSSectionFlags    = SHFAlloc | SHFWrite
)

// Section is one named, typed chunk of section data to embed in the
// object, plus its header flags and alignment. NoBits sections (e.g.
// .bss) still carry a Size even though Data is empty: Write treats
// SHTNoBits specially, consuming zero file bytes but recording Size
// in sh_size.
type Section struct {
	Name  string
	Data  []byte
	Type  uint32
	Flags SectionFlag
	Align uint64
	Size  uint64 // used instead of len(Data) when Type == SHTNoBits
}

// Segment is one program header entry (a PT_LOAD-style mapping).
type Segment struct {
	Type   uint32
	Flags  uint32
	Offset uint64
	VAddr  uint64
	PAddr  uint64
	FileSz uint64
	MemSz  uint64
	Align  uint64
}

// Object describes a complete ELF file: its machine/ABI/type/bitness/
// endianness and the named sections (and, for executables, program
// header segments) to serialize.
type Object struct {
	Machine  ELFMachine
	ABI      ELFABI
	Type     ELFType
	Bits     Bitness
	Little   bool
	Entry    uint64
	Sections []Section
	Segments []Segment
}

// ForTriple fills in Machine/ABI/Bits/Little from t: x86_64 maps to
// EM_X86_64, AArch64 to EM_AARCH64, and a SystemV ABI triple maps to
// OSABI ELFOSABI_SYSV. Bits defaults to 64 (both builtin targets are
// 64-bit only); callers needing ELF32 set Bits explicitly.
func ForTriple(t target.Triple) Object {
	o := Object{Bits: Bits64, Little: true, Type: ETRelocatable}
	switch t.Arch {
	case target.ArchX86_64:
		o.Machine = EMX86_64
	case target.ArchAArch64:
		o.Machine = EMAArch64
	}
	if t.ABI == target.ABISystemV {
		o.ABI = ABISystemV
	}
	return o
}

// align returns n rounded up to the next multiple of a (a must be a
// power of two; a == 0 is treated as 1, meaning no alignment).
func align(n, a uint64) uint64 {
	if a <= 1 {
		return n
	}
	return (n + a - 1) &^ (a - 1)
}

// Write serializes o, following an append-then-patch discipline:
// sections (and, if any, program header segments) are laid out and
// appended first so their file offsets are known, then the ELF
// header's offset/count fields are patched in at the end. Grounded
// on ELFWriter::CreateHeader + WriteHeader's two-phase structure.
func (o *Object) Write(w io.Writer) error {
	hdr, err := newHeader(o.Bits, o.Little, o.Machine, o.ABI, o.Type)
	if err != nil {
		return err
	}

	ehsize := uint64(Header64Size)
	if o.Bits == Bits32 {
		ehsize = Header32Size
	}
	phentsize := uint64(hdr.phEntSize())
	shentsize := uint64(hdr.shEntSize())

	phoff := uint64(0)
	if len(o.Segments) > 0 {
		phoff = ehsize
	}
	bodyOffset := ehsize + phentsize*uint64(len(o.Segments))

	// Lay out section data in order, after the header and program
	// header table, each aligned per its own Align.
	type placed struct {
		sec    Section
		offset uint64
	}
	placedSecs := make([]placed, 0, len(o.Sections))
	cursor := bodyOffset
	var body bytes.Buffer
	for _, s := range o.Sections {
		if s.Type == SHTNoBits {
			placedSecs = append(placedSecs, placed{sec: s, offset: cursor})
			continue
		}
		padded := align(cursor, s.Align)
		for ; cursor < padded; cursor++ {
			body.WriteByte(0)
		}
		placedSecs = append(placedSecs, placed{sec: s, offset: cursor})
		body.Write(s.Data)
		cursor += uint64(len(s.Data))
	}

	// Build .shstrtab: a leading NUL, then every section name
	// (including .shstrtab itself) NUL-terminated, per sh_name being
	// an offset into this blob.
	var shstrtab bytes.Buffer
	shstrtab.WriteByte(0)
	nameOffsets := make([]uint32, len(o.Sections)+2) // +1 null section, +1 shstrtab
	for i, p := range placedSecs {
		nameOffsets[i+1] = uint32(shstrtab.Len())
		shstrtab.WriteString(p.sec.Name)
		shstrtab.WriteByte(0)
	}
	shstrtabNameOff := uint32(shstrtab.Len())
	shstrtab.WriteString(".shstrtab")
	shstrtab.WriteByte(0)
	nameOffsets[len(nameOffsets)-1] = shstrtabNameOff

	shstrtabOffset := align(cursor, 1)
	body.Write(shstrtab.Bytes())
	shstrtabSize := uint64(shstrtab.Len())
	cursor = shstrtabOffset + shstrtabSize

	shoff := align(cursor, 8)
	for ; cursor < shoff; cursor++ {
		body.WriteByte(0)
	}

	shnum := uint16(len(placedSecs) + 2) // null + real sections + shstrtab
	shstrndx := uint16(len(placedSecs) + 1)

	hdr.patchLayout(o.Entry, phoff, shoff, uint16(len(o.Segments)), shnum, shstrndx)

	if _, err := w.Write(hdr.buf.Bytes()); err != nil {
		return err
	}
	for _, seg := range o.Segments {
		writeProgramHeader(w, hdr, seg)
	}
	if _, err := w.Write(body.Bytes()); err != nil {
		return err
	}

	writeSectionHeader(w, hdr, sectionHeaderArgs{}) // null section
	for i, p := range placedSecs {
		size := uint64(len(p.sec.Data))
		if p.sec.Type == SHTNoBits {
			size = p.sec.Size
		}
		writeSectionHeader(w, hdr, sectionHeaderArgs{
			name:   nameOffsets[i+1],
			typ:    p.sec.Type,
			flags:  uint64(p.sec.Flags),
			offset: p.offset,
			size:   size,
			align:  p.sec.Align,
		})
	}
	writeSectionHeader(w, hdr, sectionHeaderArgs{
		name:   shstrtabNameOff,
		typ:    SHTStrTab,
		offset: shstrtabOffset,
		size:   shstrtabSize,
		align:  1,
	})
	return nil
}

type sectionHeaderArgs struct {
	name   uint32
	typ    uint32
	flags  uint64
	addr   uint64
	offset uint64
	size   uint64
	link   uint32
	info   uint32
	align  uint64
}

// writeSectionHeader emits one Shdr32 or Shdr64 record, using hdr's
// target byte order for every multi-byte field.
func writeSectionHeader(w io.Writer, hdr *Header, a sectionHeaderArgs) {
	var b bytes.Buffer
	order := hdr.order()
	put32 := func(v uint32) { var t [4]byte; order.PutUint32(t[:], v); b.Write(t[:]) }
	put64 := func(v uint64) { var t [8]byte; order.PutUint64(t[:], v); b.Write(t[:]) }
	putWord := func(v uint64) {
		if hdr.bits == Bits32 {
			put32(uint32(v))
			return
		}
		put64(v)
	}

	put32(a.name)
	put32(a.typ)
	putWord(a.flags)
	putWord(a.addr)
	putWord(a.offset)
	putWord(a.size)
	put32(a.link)
	put32(a.info)
	putWord(a.align)
	putWord(0) // sh_entsize
	w.Write(b.Bytes())
}

// writeProgramHeader emits one Phdr32 or Phdr64 record. The 32- and
// 64-bit layouts order p_flags differently (64-bit places it right
// after p_type; 32-bit places it last), matching the ELF ABI.
func writeProgramHeader(w io.Writer, hdr *Header, seg Segment) {
	var b bytes.Buffer
	order := hdr.order()
	put32 := func(v uint32) { var t [4]byte; order.PutUint32(t[:], v); b.Write(t[:]) }
	put64 := func(v uint64) { var t [8]byte; order.PutUint64(t[:], v); b.Write(t[:]) }

	if hdr.bits == Bits32 {
		put32(seg.Type)
		put32(uint32(seg.Offset))
		put32(uint32(seg.VAddr))
		put32(uint32(seg.PAddr))
		put32(uint32(seg.FileSz))
		put32(uint32(seg.MemSz))
		put32(seg.Flags)
		put32(uint32(seg.Align))
	} else {
		put32(seg.Type)
		put32(seg.Flags)
		put64(seg.Offset)
		put64(seg.VAddr)
		put64(seg.PAddr)
		put64(seg.FileSz)
		put64(seg.MemSz)
		put64(seg.Align)
	}
	w.Write(b.Bytes())
}
