// Package writer serializes a document, including its in-memory changes,
// as a complete PDF file.
//
// Output always uses a classic cross-reference table, so objects that
// were stored in object streams are written out as plain objects. With
// [Options.CleanUnused] only objects reachable from the trailer are kept
// and renumbered from 1; content streams replaced during redaction are
// dropped this way. [Options.Compress] Flate-encodes unfiltered streams.
package writer
