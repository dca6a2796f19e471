// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zipstream

import "encoding/binary"

// Compression methods.
const (
	Store   uint16 = 0 // directories
	Deflate uint16 = 8 // file payloads
)

const (
	fileHeaderSignature      = 0x04034b50
	directoryHeaderSignature = 0x02014b50
	directoryEndSignature    = 0x06054b50
	directory64LocSignature  = 0x07064b50
	directory64EndSignature  = 0x06064b50
	dataDescriptorSignature  = 0x08074b50 // de-facto standard; required by OS X Finder

	fileHeaderLen       = 30 // + filename + extra
	directoryHeaderLen  = 46 // + filename + extra
	directoryEndLen     = 22
	dataDescriptor64Len = 24 // descriptor with 8 byte sizes
	directory64LocLen   = 20
	directory64EndLen   = 56

	// Version numbers. Made-by advertises APPNOTE 6.3, needed-to-extract is
	// 4.5, the first version with zip64.
	versionMadeBy = 63
	zipVersion45  = 45

	// General purpose bit flags. Bit 3 (sizes in data descriptor) is set only
	// for files; bit 11 (UTF-8 name) is set for everything.
	flagFile = 0x0808
	flagDir  = 0x0800

	uint16max = (1 << 16) - 1
	uint32max = (1 << 32) - 1

	zip64ExtraID = 0x0001 // Zip64 extended information
)

// FileHeader records one archive entry.
//
// A header is created when the entry's local file header is about to be
// written, with Offset set to the running offset at that moment. For files,
// CRC32 and both sizes are filled in after the payload has been encoded and
// do not change afterwards. For directories they stay zero.
type FileHeader struct {
	// Name is the path of the entry inside the archive. It must be relative
	// (no leading slash), use forward slashes, and directories must end
	// with a slash.
	Name string

	IsDir bool

	// Offset of the entry's local file header from the start of the archive.
	Offset uint64

	CRC32              uint32
	CompressedSize64   uint64
	UncompressedSize64 uint64
}

type writeBuf []byte

func (b *writeBuf) uint16(v uint16) {
	binary.LittleEndian.PutUint16(*b, v)
	*b = (*b)[2:]
}

func (b *writeBuf) uint32(v uint32) {
	binary.LittleEndian.PutUint32(*b, v)
	*b = (*b)[4:]
}

func (b *writeBuf) uint64(v uint64) {
	binary.LittleEndian.PutUint64(*b, v)
	*b = (*b)[8:]
}

// appendLocalHeader appends the entry's local file header to dst.
//
// Directories get literal zero sizes and no extra field: they carry no
// payload and no data descriptor, so there is nothing for zip64 to describe.
// Files get 0xFFFFFFFF in both 32-bit size fields and a zip64 extra with
// zero placeholders; the real values follow in the data descriptor.
func (h *FileHeader) appendLocalHeader(dst []byte) []byte {
	if h.IsDir {
		var buf [fileHeaderLen]byte
		b := writeBuf(buf[:])
		b.uint32(fileHeaderSignature)
		b.uint16(zipVersion45)
		b.uint16(flagDir)
		b.uint16(Store)
		b.uint16(0) // last mod file time
		b.uint16(0) // last mod file date
		b.uint32(0) // crc32
		b.uint32(0) // compressed size
		b.uint32(0) // uncompressed size
		b.uint16(uint16(len(h.Name)))
		b.uint16(0) // extra field length
		dst = append(dst, buf[:]...)
		return append(dst, h.Name...)
	}

	const extraLen = 20 // tag + size + 2x uint64 placeholder
	var buf [fileHeaderLen]byte
	b := writeBuf(buf[:])
	b.uint32(fileHeaderSignature)
	b.uint16(zipVersion45)
	b.uint16(flagFile)
	b.uint16(Deflate)
	b.uint16(0)         // last mod file time
	b.uint16(0)         // last mod file date
	b.uint32(0)         // crc32 arrives in the data descriptor
	b.uint32(uint32max) // compressed size, see zip64 extra
	b.uint32(uint32max) // uncompressed size, see zip64 extra
	b.uint16(uint16(len(h.Name)))
	b.uint16(extraLen)
	dst = append(dst, buf[:]...)
	dst = append(dst, h.Name...)

	var extra [extraLen]byte
	eb := writeBuf(extra[:])
	eb.uint16(zip64ExtraID)
	eb.uint16(16) // size of this extra block
	eb.uint64(0)  // uncompressed size placeholder
	eb.uint64(0)  // compressed size placeholder
	return append(dst, extra[:]...)
}

// appendDataDescriptor appends the entry's data descriptor to dst.
//
// The 8-byte-size form is used unconditionally, matching the zip64 extra
// announced in the local header.
func (h *FileHeader) appendDataDescriptor(dst []byte) []byte {
	var buf [dataDescriptor64Len]byte
	b := writeBuf(buf[:])
	b.uint32(dataDescriptorSignature)
	b.uint32(h.CRC32)
	b.uint64(h.CompressedSize64)
	b.uint64(h.UncompressedSize64)
	return append(dst, buf[:]...)
}

// appendDirectoryHeader appends the entry's central directory header to dst.
//
// The legacy 32-bit size, disk number and offset fields hold zip64 sentinels;
// readers find the real values in the zip64 extra block. Directory entries
// keep their zero sizes in the fixed fields and store only the local header
// offset in the extra.
func (h *FileHeader) appendDirectoryHeader(dst []byte) []byte {
	extraLen := uint16(32) // tag + size + 3x uint64 + uint32
	flags := uint16(flagFile)
	method := Deflate
	crc := h.CRC32
	sizeField := uint32(uint32max)
	if h.IsDir {
		extraLen = 16 // tag + size + uint64 + uint32
		flags = flagDir
		method = Store
		crc = 0
		sizeField = 0
	}

	var buf [directoryHeaderLen]byte
	b := writeBuf(buf[:])
	b.uint32(directoryHeaderSignature)
	b.uint16(versionMadeBy)
	b.uint16(zipVersion45)
	b.uint16(flags)
	b.uint16(method)
	b.uint16(0) // last mod file time
	b.uint16(0) // last mod file date
	b.uint32(crc)
	b.uint32(sizeField) // compressed size
	b.uint32(sizeField) // uncompressed size
	b.uint16(uint16(len(h.Name)))
	b.uint16(extraLen)
	b.uint16(0)         // file comment length
	b.uint16(uint16max) // disk number start, see zip64 extra
	b.uint16(0)         // internal file attributes
	b.uint32(0)         // external file attributes
	b.uint32(uint32max) // relative offset of local header, see zip64 extra
	dst = append(dst, buf[:]...)
	dst = append(dst, h.Name...)

	if h.IsDir {
		var extra [16]byte
		eb := writeBuf(extra[:])
		eb.uint16(zip64ExtraID)
		eb.uint16(12)
		eb.uint64(h.Offset)
		eb.uint32(0) // disk number start
		return append(dst, extra[:]...)
	}
	var extra [32]byte
	eb := writeBuf(extra[:])
	eb.uint16(zip64ExtraID)
	eb.uint16(28)
	eb.uint64(h.UncompressedSize64)
	eb.uint64(h.CompressedSize64)
	eb.uint64(h.Offset)
	eb.uint32(0) // disk number start
	return append(dst, extra[:]...)
}

// appendDirectoryEnd appends the archive trailer to dst: the zip64 end of
// central directory record, the zip64 locator, and the legacy end record.
//
// The legacy record always holds zip64 sentinels, even when the values would
// fit: one code path, one byte layout. Readers older than 4.5 will refuse
// such archives.
func appendDirectoryEnd(dst []byte, records, sizeOfCD, startOfCD uint64) []byte {
	var buf [directory64EndLen + directory64LocLen + directoryEndLen]byte
	b := writeBuf(buf[:])

	// zip64 end of central directory record
	b.uint32(directory64EndSignature)
	b.uint64(directory64EndLen - 12) // length minus signature and length fields
	b.uint16(versionMadeBy)
	b.uint16(zipVersion45)
	b.uint32(0)         // number of this disk
	b.uint32(0)         // disk with the start of the central directory
	b.uint64(records)   // entries in the central directory on this disk
	b.uint64(records)   // entries in the central directory
	b.uint64(sizeOfCD)  // size of the central directory
	b.uint64(startOfCD) // offset of start of central directory

	// zip64 end of central directory locator
	b.uint32(directory64LocSignature)
	b.uint32(0)                    // disk with the zip64 end of central directory
	b.uint64(startOfCD + sizeOfCD) // relative offset of the zip64 record
	b.uint32(1)                    // total number of disks

	// end of central directory record
	b.uint32(directoryEndSignature)
	b.uint16(uint16max) // number of this disk
	b.uint16(uint16max) // disk with the start of the central directory
	b.uint16(uint16max) // entries on this disk
	b.uint16(uint16max) // entries total
	b.uint32(uint32max) // size of directory
	b.uint32(uint32max) // start of directory
	b.uint16(0)         // comment length

	return append(dst, buf[:]...)
}
