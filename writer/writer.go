package writer

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/tsawler/textstrip/core"
	"github.com/tsawler/textstrip/document"
)

// Options control how a document is written
type Options struct {
	// Compress Flate-encodes every stream that carries no filter
	Compress bool
	// CleanUnused writes only objects reachable from the trailer and
	// renumbers them densely from 1
	CleanUnused bool
}

// DefaultOptions compresses and drops unreferenced objects
func DefaultOptions() Options {
	return Options{Compress: true, CleanUnused: true}
}

// Save writes a complete PDF with a classic cross-reference table. Objects
// that lived in object streams are written as plain objects; object and
// cross-reference streams themselves are not carried over.
func Save(doc *document.Document, w io.Writer, opts Options) error {
	s := &saver{doc: doc, opts: opts}
	if err := s.plan(); err != nil {
		return err
	}
	return s.write(w)
}

// SaveFile writes the document to path through a temporary file in the
// same directory, so an existing file is only replaced by a complete one
func SaveFile(doc *document.Document, path string, opts Options) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".textstrip-*.pdf")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Save(doc, tmp, opts); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}

type saver struct {
	doc  *document.Document
	opts Options

	trailer core.Dict
	// numbers maps an original object number to its number in the output
	numbers map[int]int
	order   []int // original numbers, in output order
}

// plan decides which objects are written and under which numbers
func (s *saver) plan() error {
	src := s.doc.Trailer()
	root, ok := src.Get("Root").(core.IndirectRef)
	if !ok {
		return fmt.Errorf("trailer has no /Root reference")
	}
	s.trailer = core.Dict{"Root": root}
	if info, ok := src.Get("Info").(core.IndirectRef); ok {
		s.trailer["Info"] = info
	}
	if id, ok := s.doc.Resolve(src.Get("ID")).(core.Array); ok && len(id) == 2 {
		s.trailer["ID"] = id
	}

	s.numbers = make(map[int]int)
	if s.opts.CleanUnused {
		reachable, err := s.reachable()
		if err != nil {
			return err
		}
		for i, num := range reachable {
			s.numbers[num] = i + 1
		}
		s.order = reachable
		return nil
	}

	for _, num := range s.doc.ObjectNumbers() {
		obj, err := s.doc.GetObject(num)
		if errors.Is(err, document.ErrClosed) {
			return err
		}
		if err == nil && isStructural(obj) {
			continue
		}
		s.numbers[num] = num
		s.order = append(s.order, num)
	}
	return nil
}

// reachable returns the numbers of all objects reachable from the
// trailer, sorted
func (s *saver) reachable() ([]int, error) {
	seen := make(map[int]bool)
	var queue []core.IndirectRef
	visit := func(obj core.Object) {
		walkRefs(obj, func(ref core.IndirectRef) {
			if !seen[ref.Number] {
				seen[ref.Number] = true
				queue = append(queue, ref)
			}
		})
	}
	visit(s.trailer)

	var nums []int
	for len(queue) > 0 {
		ref := queue[0]
		queue = queue[1:]
		obj, err := s.doc.GetObject(ref.Number)
		if errors.Is(err, document.ErrClosed) {
			return nil, err
		}
		if err != nil {
			continue
		}
		if _, missing := obj.(core.Null); missing {
			continue
		}
		nums = append(nums, ref.Number)
		visit(obj)
	}
	sort.Ints(nums)
	return nums, nil
}

// walkRefs calls fn for every reference inside obj. Stream lengths are
// skipped since they are recomputed on output.
func walkRefs(obj core.Object, fn func(core.IndirectRef)) {
	switch v := obj.(type) {
	case core.IndirectRef:
		fn(v)
	case core.Array:
		for _, e := range v {
			walkRefs(e, fn)
		}
	case core.Dict:
		for _, k := range v.Keys() {
			walkRefs(v[k], fn)
		}
	case *core.Stream:
		for _, k := range v.Dict.Keys() {
			if k != "Length" {
				walkRefs(v.Dict[k], fn)
			}
		}
	}
}

// isStructural reports object and cross-reference streams, whose content
// is superseded by the plain objects and table written here
func isStructural(obj core.Object) bool {
	s, ok := obj.(*core.Stream)
	if !ok {
		return false
	}
	t, _ := s.Dict.GetName("Type")
	return t == "ObjStm" || t == "XRef"
}

func (s *saver) write(out io.Writer) error {
	cw := &countingWriter{w: bufio.NewWriter(out)}
	v := s.doc.Version()
	fmt.Fprintf(cw, "%%PDF-%d.%d\n%%\xe2\xe3\xcf\xd3\n", v.Major, v.Minor)

	size := 1
	for _, n := range s.numbers {
		size = max(size, n+1)
	}
	offsets := make([]int64, size)
	gens := make([]int, size)

	for _, num := range s.order {
		obj, err := s.doc.GetObject(num)
		if errors.Is(err, document.ErrClosed) {
			return err
		}
		if err != nil {
			obj = core.Null{}
		}
		obj, err = s.prepare(obj)
		if err != nil {
			return fmt.Errorf("object %d: %w", num, err)
		}

		outNum := s.numbers[num]
		gen := 0
		if !s.opts.CleanUnused {
			gen = s.doc.Generation(num)
		}
		offsets[outNum], gens[outNum] = cw.n, gen
		if err := core.WriteIndirectObject(cw, core.IndirectRef{Number: outNum, Generation: gen}, obj); err != nil {
			return fmt.Errorf("failed to write object %d: %w", num, err)
		}
	}

	xref := cw.n
	fmt.Fprintf(cw, "xref\n0 %d\n0000000000 65535 f \n", size)
	for i := 1; i < size; i++ {
		if offsets[i] == 0 {
			fmt.Fprintf(cw, "0000000000 00000 f \n")
			continue
		}
		fmt.Fprintf(cw, "%010d %05d n \n", offsets[i], gens[i])
	}

	trailer, _ := s.renumber(s.trailer).(core.Dict)
	trailer["Size"] = core.Int(size)
	fmt.Fprintf(cw, "trailer\n")
	if err := core.WriteObject(cw, trailer); err != nil {
		return fmt.Errorf("failed to write trailer: %w", err)
	}
	fmt.Fprintf(cw, "\nstartxref\n%d\n%%%%EOF\n", xref)

	if cw.err != nil {
		return fmt.Errorf("failed to write PDF: %w", cw.err)
	}
	if err := cw.w.Flush(); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}

// prepare renumbers references and compresses unfiltered streams. The
// document's own objects are never modified.
func (s *saver) prepare(obj core.Object) (core.Object, error) {
	obj = s.renumber(obj)
	stream, ok := obj.(*core.Stream)
	if !ok || !s.opts.Compress || stream.Dict.Has("Filter") {
		return obj, nil
	}
	if err := stream.SetDecodedData(stream.Data, true); err != nil {
		return nil, err
	}
	return stream, nil
}

// renumber returns a copy of obj with references mapped to output
// numbers. References to objects that are not written become null.
func (s *saver) renumber(obj core.Object) core.Object {
	switch v := obj.(type) {
	case core.IndirectRef:
		n, ok := s.numbers[v.Number]
		if !ok {
			return core.Null{}
		}
		if s.opts.CleanUnused {
			return core.IndirectRef{Number: n}
		}
		return core.IndirectRef{Number: n, Generation: v.Generation}
	case core.Array:
		out := make(core.Array, len(v))
		for i, e := range v {
			out[i] = s.renumber(e)
		}
		return out
	case core.Dict:
		out := make(core.Dict, len(v))
		for k, e := range v {
			out[k] = s.renumber(e)
		}
		return out
	case *core.Stream:
		dict := s.renumber(v.Dict).(core.Dict)
		delete(dict, "Length")
		return &core.Stream{Dict: dict, Data: v.Data}
	}
	return obj
}

// countingWriter tracks the byte offset for the cross-reference table and
// keeps the first error
type countingWriter struct {
	w   *bufio.Writer
	n   int64
	err error
}

func (c *countingWriter) Write(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	n, err := c.w.Write(p)
	c.n += int64(n)
	c.err = err
	return n, err
}
