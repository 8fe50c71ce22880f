// Package core reads and writes PDF syntax.
//
// Every PDF value satisfies [Object]: [Null], [Bool], [Int], [Real],
// [String], [Name], [Array], [Dict], [IndirectRef] and [Stream]. The
// [Lexer] and [Parser] work on an in-memory byte slice so offsets from the
// cross-reference data can be used directly.
//
// [XRefParser] follows the startxref chain through classic tables and
// xref streams, merging /Prev sections so the newest entry wins. When that
// data is missing or wrong, [XRefParser.Reconstruct] scans the file for
// "N G obj" headers instead. Objects stored inside object streams are
// unpacked by [ObjectStream].
//
// [Stream.Decode] runs the filter chain, [Stream.SetDecodedData] replaces
// the data of a stream, and [Serialize] and [WriteIndirectObject] produce
// PDF syntax again for the writer.
package core
