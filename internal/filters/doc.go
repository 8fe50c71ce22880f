// Package filters implements the stream filters a page needs decoded:
// FlateDecode and LZWDecode (with TIFF and PNG predictors), ASCIIHexDecode,
// ASCII85Decode, RunLengthDecode and CCITTFaxDecode. FlateEncode is the
// only encoder; the writer uses it to compress rewritten content.
//
// Decode parameters arrive as a Params map converted from /DecodeParms:
//
//	out, err := filters.FlateDecode(raw, filters.Params{"Predictor": 12, "Columns": 5})
package filters
