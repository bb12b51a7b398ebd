// Package endian provides byte order utilities for binary decoding.
//
// It combines the ByteOrder and AppendByteOrder interfaces of the standard
// encoding/binary package into a single EndianEngine interface so that
// format parsers can be written once and driven by whichever byte order a
// file declares.
//
// Archive headers carry an explicit endianness flag byte; use FromFlag to
// translate it:
//
//	engine := endian.FromFlag(flag)
//	size := engine.Uint32(data[0:4])
//
// All returned engines are immutable and safe for concurrent use.
package endian

import "encoding/binary"

// EndianEngine combines the ByteOrder and AppendByteOrder interfaces from
// encoding/binary. It is satisfied by binary.LittleEndian and
// binary.BigEndian, so values of this type interoperate with any code that
// accepts the standard interfaces.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// GetLittleEndianEngine returns the little-endian engine.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// GetBigEndianEngine returns the big-endian engine.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}

// FromFlag selects an engine from an archive header endianness flag byte:
// -1 selects little-endian, any other value selects big-endian.
func FromFlag(flag int8) EndianEngine {
	if flag == -1 {
		return binary.LittleEndian
	}

	return binary.BigEndian
}

// IsLittleEndian reports whether the given engine decodes little-endian data.
func IsLittleEndian(engine EndianEngine) bool {
	return engine == binary.LittleEndian
}
