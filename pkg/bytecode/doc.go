// Package bytecode defines the compiled module format that bcdump
// inspects, along with the deserializer, opcode table, disassembler,
// and section walker.
//
// A module file bundles every function compiled from a program into a
// single artifact:
//
//   - Header: magic "BCMD", format version, flags
//   - String table: shared constant pool referenced by CONST and the
//     function name entries
//   - Filename table: source file names referenced by function records
//   - Function table: per-function metadata plus the raw code bytes
//   - Optional debug section: CBOR-encoded source location records
//   - Epilogue: any trailing bytes after the last section, preserved
//     verbatim
//
// All multi-byte integers in the hand-rolled sections are big-endian.
// The debug section uses canonical CBOR so that re-serializing a module
// is byte-for-byte deterministic.
//
// The virtual offset of a function is the byte position of its first
// code byte within the module file. The deserializer records it while
// walking the function table; the analyzer uses it to resolve
// at-virtual lookups and the disassembler uses it for the -offsets
// listing mode.
package bytecode
