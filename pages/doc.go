// Package pages provides PDF page tree traversal and page access.
//
// PDF documents organize pages in a tree of /Pages nodes. The [PageTree]
// flattens it into document order:
//
//	tree := pages.NewPageTree(pagesDict, doc)
//	count, _ := tree.Count()
//	page, _ := tree.GetPage(0)  // 0-indexed
//
// Inheritable attributes (Resources, MediaBox, CropBox, Rotate) are taken
// from the nearest ancestor that defines them. Nodes without /Type are
// classified by the presence of /Kids, and cycles in the tree are reported
// as errors.
//
// # Page Access
//
// A [Page] exposes its reference, boxes, rotation, resources and content
// streams. [Page.SetContents] and [Page.SetResources] modify the page
// dictionary in place, which is how rewritten content is attached to a
// document.
//
// Indirect references are followed through a core.Resolver, so the package
// does not depend on how the document stores its objects.
package pages
