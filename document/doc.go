// Package document holds a PDF in memory and gives access to its objects
// and pages.
//
// A [Document] is opened from a file or a byte slice:
//
//	doc, err := document.Open("input.pdf")
//	if err != nil {
//	    return err
//	}
//	defer doc.Close()
//
// Objects are parsed lazily from the original bytes through the merged
// cross-reference data (classic tables, cross-reference streams and object
// streams). When that data is missing or damaged, the table is rebuilt by
// scanning the file for object headers.
//
// # Mutation
//
// [Document.SetObject] and [Document.AddObject] change the object store
// in memory; the writer package serializes the result. The store is guarded
// by a read-write mutex, so pages may be processed from several goroutines.
//
// # Errors
//
// Opening fails with [ErrNotPDF], [ErrEncrypted] or [ErrNoXRef], which can be
// tested with errors.Is.
//
// # Images
//
// [Document.PageImages] decodes the image XObjects of a page into [Image]
// values that convert to image.Image and PNG.
package document
