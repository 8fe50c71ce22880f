package document

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"sync"

	"github.com/tsawler/textstrip/core"
	"github.com/tsawler/textstrip/pages"
)

var (
	// ErrNotPDF is returned when the data does not start with a PDF header
	ErrNotPDF = errors.New("not a PDF file")

	// ErrEncrypted is returned for documents with an /Encrypt dictionary
	ErrEncrypted = errors.New("encrypted PDF documents are not supported")

	// ErrNoXRef is returned when no cross-reference information can be read
	// or rebuilt
	ErrNoXRef = errors.New("no usable cross-reference data")

	// ErrClosed is returned by operations on a closed document
	ErrClosed = errors.New("document is closed")
)

// maxRefChain bounds reference-to-reference chains in Resolve
const maxRefChain = 32

var versionPattern = regexp.MustCompile(`%PDF-(\d+)\.(\d+)`)

// Version represents a PDF version
type Version struct {
	Major int
	Minor int
}

// String returns the version as a string (e.g., "1.7")
func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Document is a PDF held in memory. Objects are parsed from the original
// bytes on first use; new and replaced objects live in the object store
// until the document is saved.
//
// Document is safe for concurrent use. Mutating the same page from several
// goroutines is not.
type Document struct {
	path    string
	data    []byte
	version Version
	xref    *core.XRefTable
	trailer core.Dict

	mu         sync.RWMutex
	objects    map[int]core.Object
	objStreams map[int]*core.ObjectStream
	nextNum    int
	closed     bool

	pagesOnce sync.Once
	pages     []*pages.Page
	pagesErr  error
}

// Open reads and parses the PDF file at path
func Open(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	d, err := OpenBytes(data)
	if err != nil {
		return nil, err
	}
	d.path = path
	return d, nil
}

// OpenBytes parses a PDF held in memory. The document keeps a reference
// to data, which must not be modified afterwards.
func OpenBytes(data []byte) (*Document, error) {
	version, err := parseHeader(data)
	if err != nil {
		return nil, err
	}

	d := &Document{
		data:       data,
		version:    version,
		objects:    make(map[int]core.Object),
		objStreams: make(map[int]*core.ObjectStream),
	}

	parser := core.NewXRefParser(data)
	table, err := parser.ParseAll()
	if err == nil {
		d.setXRef(table)
		if _, cerr := d.Catalog(); cerr != nil {
			err = cerr
		}
	}
	if err != nil {
		// broken or missing xref: rebuild it from the object headers
		rebuilt, rerr := parser.Reconstruct()
		if rerr != nil {
			return nil, fmt.Errorf("%w: %v (reconstruction: %v)", ErrNoXRef, err, rerr)
		}
		d.objects = make(map[int]core.Object)
		d.objStreams = make(map[int]*core.ObjectStream)
		d.setXRef(rebuilt)
	}

	if d.trailer.Has("Encrypt") {
		return nil, ErrEncrypted
	}
	return d, nil
}

// parseHeader finds %PDF-x.y. Leading garbage before the header is
// tolerated within the first kilobyte.
func parseHeader(data []byte) (Version, error) {
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	m := versionPattern.FindSubmatch(head)
	if m == nil {
		if bytes.Contains(head, []byte("%PDF-")) {
			return Version{Major: 1, Minor: 4}, nil
		}
		return Version{}, ErrNotPDF
	}
	major, _ := strconv.Atoi(string(m[1]))
	minor, _ := strconv.Atoi(string(m[2]))
	return Version{Major: major, Minor: minor}, nil
}

func (d *Document) setXRef(table *core.XRefTable) {
	d.xref = table
	d.trailer = table.Trailer
	d.nextNum = 1
	if size, ok := table.Trailer.GetInt("Size"); ok && int(size) > d.nextNum {
		d.nextNum = int(size)
	}
	for num := range table.Entries {
		if num >= d.nextNum {
			d.nextNum = num + 1
		}
	}
}

// Path returns the file the document was opened from, if any
func (d *Document) Path() string {
	return d.path
}

// Version returns the PDF version from the header
func (d *Document) Version() Version {
	return d.version
}

// Trailer returns the trailer dictionary
func (d *Document) Trailer() core.Dict {
	return d.trailer
}

// Close releases the document's data. Pages and objects obtained earlier
// must not be used afterwards.
func (d *Document) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.data = nil
	d.objects = nil
	d.objStreams = nil
	return nil
}

// GetObject loads an object by its number. Free objects yield Null.
func (d *Document) GetObject(num int) (core.Object, error) {
	d.mu.RLock()
	if d.closed {
		d.mu.RUnlock()
		return nil, ErrClosed
	}
	if obj, ok := d.objects[num]; ok {
		d.mu.RUnlock()
		return obj, nil
	}
	entry, ok := d.xref.Get(num)
	d.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("object %d not found in xref table", num)
	}

	var obj core.Object
	var err error
	switch entry.Type {
	case core.EntryFree:
		return core.Null{}, nil
	case core.EntryInUse:
		obj, err = d.parseAt(num, entry.Offset)
	case core.EntryCompressed:
		obj, err = d.parseCompressed(num, entry)
	}
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrClosed
	}
	// a concurrent load or SetObject got there first
	if existing, ok := d.objects[num]; ok {
		return existing, nil
	}
	d.objects[num] = obj
	return obj, nil
}

func (d *Document) parseAt(num int, offset int64) (core.Object, error) {
	if offset < 0 || offset >= int64(len(d.data)) {
		return nil, fmt.Errorf("object %d offset %d outside file", num, offset)
	}
	parser := core.NewParserAt(d.data, int(offset))
	parser.SetReferenceResolver(d)
	ind, err := parser.ParseIndirectObject()
	if err != nil {
		return nil, fmt.Errorf("failed to parse object %d: %w", num, err)
	}
	if ind.Ref.Number != num {
		return nil, fmt.Errorf("object number mismatch: expected %d, got %d", num, ind.Ref.Number)
	}
	return ind.Object, nil
}

func (d *Document) parseCompressed(num int, entry *core.XRefEntry) (core.Object, error) {
	if entry.StreamNumber == num {
		return nil, fmt.Errorf("object %d is stored in itself", num)
	}
	d.mu.RLock()
	objStm, ok := d.objStreams[entry.StreamNumber]
	d.mu.RUnlock()

	if !ok {
		container, err := d.GetObject(entry.StreamNumber)
		if err != nil {
			return nil, fmt.Errorf("object stream %d: %w", entry.StreamNumber, err)
		}
		stream, isStream := container.(*core.Stream)
		if !isStream {
			return nil, fmt.Errorf("object stream %d is not a stream", entry.StreamNumber)
		}
		objStm, err = core.NewObjectStream(stream)
		if err != nil {
			return nil, fmt.Errorf("object stream %d: %w", entry.StreamNumber, err)
		}
		d.mu.Lock()
		if d.objStreams != nil {
			d.objStreams[entry.StreamNumber] = objStm
		}
		d.mu.Unlock()
	}

	obj, err := objStm.GetObject(num, entry.StreamIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to load object %d from stream %d: %w", num, entry.StreamNumber, err)
	}
	return obj, nil
}

// ResolveReference resolves an indirect reference
func (d *Document) ResolveReference(ref core.IndirectRef) (core.Object, error) {
	return d.GetObject(ref.Number)
}

// Resolve follows indirect references. Objects that cannot be loaded
// resolve to Null, as a reference to a missing object means null in PDF.
func (d *Document) Resolve(obj core.Object) core.Object {
	for i := 0; i < maxRefChain; i++ {
		ref, ok := obj.(core.IndirectRef)
		if !ok {
			if obj == nil {
				return core.Null{}
			}
			return obj
		}
		resolved, err := d.GetObject(ref.Number)
		if err != nil {
			return core.Null{}
		}
		obj = resolved
	}
	return core.Null{}
}

// SetObject stores obj under an object number, replacing any existing
// definition
func (d *Document) SetObject(num int, obj core.Object) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.objects[num] = obj
	if num >= d.nextNum {
		d.nextNum = num + 1
	}
}

// AddObject stores obj under a new object number and returns its reference
func (d *Document) AddObject(obj core.Object) core.IndirectRef {
	d.mu.Lock()
	defer d.mu.Unlock()
	num := d.nextNum
	d.nextNum++
	if !d.closed {
		d.objects[num] = obj
	}
	return core.IndirectRef{Number: num}
}

// Generation returns the generation number of an object from the file
func (d *Document) Generation(num int) int {
	if e, ok := d.xref.Get(num); ok && e.Type == core.EntryInUse {
		return e.Generation
	}
	return 0
}

// ObjectNumbers returns the numbers of all objects that are in use, in
// ascending order
func (d *Document) ObjectNumbers() []int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	seen := make(map[int]bool, len(d.xref.Entries)+len(d.objects))
	for num, e := range d.xref.Entries {
		if e.Type != core.EntryFree && num > 0 {
			seen[num] = true
		}
	}
	for num := range d.objects {
		seen[num] = true
	}
	nums := make([]int, 0, len(seen))
	for num := range seen {
		nums = append(nums, num)
	}
	sort.Ints(nums)
	return nums
}

// Catalog returns the document catalog (root object)
func (d *Document) Catalog() (core.Dict, error) {
	rootRef := d.trailer.Get("Root")
	if rootRef == nil {
		return nil, fmt.Errorf("trailer missing /Root entry")
	}
	catalog, ok := d.Resolve(rootRef).(core.Dict)
	if !ok {
		return nil, fmt.Errorf("catalog is not a dictionary: %T", d.Resolve(rootRef))
	}
	return catalog, nil
}

// Info returns the document information dictionary, or nil
func (d *Document) Info() core.Dict {
	info, _ := d.Resolve(d.trailer.Get("Info")).(core.Dict)
	return info
}

// Pages returns all pages in document order. The page tree is walked once.
func (d *Document) Pages() ([]*pages.Page, error) {
	d.pagesOnce.Do(func() {
		catalog, err := d.Catalog()
		if err != nil {
			d.pagesErr = fmt.Errorf("failed to get catalog: %w", err)
			return
		}
		root, err := pages.NewCatalog(catalog, d).Pages()
		if err != nil {
			d.pagesErr = err
			return
		}
		d.pages, d.pagesErr = pages.NewPageTree(root, d).Pages()
	})
	return d.pages, d.pagesErr
}

// PageCount returns the number of pages
func (d *Document) PageCount() (int, error) {
	p, err := d.Pages()
	if err != nil {
		return 0, err
	}
	return len(p), nil
}

// Page returns the page at the given index (0-based)
func (d *Document) Page(index int) (*pages.Page, error) {
	p, err := d.Pages()
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(p) {
		return nil, fmt.Errorf("page index %d out of range [0, %d)", index, len(p))
	}
	return p[index], nil
}
