// Package pdftest builds small, valid PDF files for tests. Offsets in the
// cross-reference data are computed while writing, so fixtures never go
// stale when their content changes.
package pdftest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/tsawler/textstrip/core"
)

// Builder accumulates objects and pages of a document
type Builder struct {
	// ObjectStreams stores every non-stream object in one object stream and
	// writes a cross-reference stream instead of a classic table
	ObjectStreams bool

	// Version is written in the header; defaults to 1.7
	Version string

	objects []core.Object // object n lives at index n-1
	kids    core.Array
	pages   core.IndirectRef
	info    core.Dict
}

// New creates an empty builder. Object 1 is the page tree root.
func New() *Builder {
	b := &Builder{Version: "1.7"}
	b.pages = b.Add(core.Dict{})
	return b
}

// Add stores an object and returns its reference
func (b *Builder) Add(obj core.Object) core.IndirectRef {
	b.objects = append(b.objects, obj)
	return core.IndirectRef{Number: len(b.objects)}
}

// Set replaces the object behind ref
func (b *Builder) Set(ref core.IndirectRef, obj core.Object) {
	b.objects[ref.Number-1] = obj
}

// SetInfo sets the document information dictionary
func (b *Builder) SetInfo(info core.Dict) {
	b.info = info
}

// AddPage appends a US Letter page showing content with the given resources
func (b *Builder) AddPage(content string, resources core.Dict) core.IndirectRef {
	return b.AddPageDict(content, core.Dict{"Resources": resources})
}

// AddPageDict appends a page built from extra page dictionary entries
func (b *Builder) AddPageDict(content string, entries core.Dict) core.IndirectRef {
	page := core.Dict{
		"Type":     core.Name("Page"),
		"Parent":   b.pages,
		"MediaBox": core.Array{core.Int(0), core.Int(0), core.Int(612), core.Int(792)},
		"Contents": b.Add(&core.Stream{Dict: core.Dict{}, Data: []byte(content)}),
	}
	for k, v := range entries {
		if v != nil {
			page[k] = v
		}
	}
	ref := b.Add(page)
	b.kids = append(b.kids, ref)
	return ref
}

// Bytes writes the document
func (b *Builder) Bytes() []byte {
	b.Set(b.pages, core.Dict{
		"Type":  core.Name("Pages"),
		"Kids":  b.kids,
		"Count": core.Int(len(b.kids)),
	})
	catalog := b.Add(core.Dict{"Type": core.Name("Catalog"), "Pages": b.pages})
	trailer := core.Dict{"Root": catalog}
	if b.info != nil {
		trailer["Info"] = b.Add(b.info)
	}
	defer func() { b.objects = b.objects[:catalog.Number-1] }()

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%%PDF-%s\n%%\xe2\xe3\xcf\xd3\n", b.Version)
	if b.ObjectStreams {
		b.writeCompressed(&buf, trailer)
	} else {
		b.writeClassic(&buf, trailer)
	}
	return buf.Bytes()
}

func (b *Builder) writeClassic(buf *bytes.Buffer, trailer core.Dict) {
	offsets := make([]int, len(b.objects)+1)
	for i, obj := range b.objects {
		offsets[i+1] = buf.Len()
		core.WriteIndirectObject(buf, core.IndirectRef{Number: i + 1}, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(buf, "xref\n0 %d\n0000000000 65535 f \n", len(offsets))
	for _, off := range offsets[1:] {
		fmt.Fprintf(buf, "%010d 00000 n \n", off)
	}
	trailer["Size"] = core.Int(len(offsets))
	buf.WriteString("trailer\n")
	core.WriteObject(buf, trailer)
	fmt.Fprintf(buf, "\nstartxref\n%d\n%%%%EOF\n", xref)
}

func (b *Builder) writeCompressed(buf *bytes.Buffer, trailer core.Dict) {
	type entry struct {
		typ    byte
		field2 int
		field3 int
	}
	size := len(b.objects) + 3 // objects, object stream, xref stream
	entries := make([]entry, size)
	objStm := len(b.objects) + 1
	xrefNum := len(b.objects) + 2

	var header, body bytes.Buffer
	index := 0
	for i, obj := range b.objects {
		num := i + 1
		if _, isStream := obj.(*core.Stream); isStream {
			entries[num] = entry{typ: 1, field2: buf.Len()}
			core.WriteIndirectObject(buf, core.IndirectRef{Number: num}, obj)
			continue
		}
		fmt.Fprintf(&header, "%d %d ", num, body.Len())
		core.WriteObject(&body, obj)
		body.WriteByte('\n')
		entries[num] = entry{typ: 2, field2: objStm, field3: index}
		index++
	}

	entries[objStm] = entry{typ: 1, field2: buf.Len()}
	core.WriteIndirectObject(buf, core.IndirectRef{Number: objStm}, &core.Stream{
		Dict: core.Dict{
			"Type":  core.Name("ObjStm"),
			"N":     core.Int(index),
			"First": core.Int(header.Len()),
		},
		Data: append(header.Bytes(), body.Bytes()...),
	})

	entries[xrefNum] = entry{typ: 1, field2: buf.Len()}
	var rows bytes.Buffer
	for _, e := range entries {
		rows.WriteByte(e.typ)
		binary.Write(&rows, binary.BigEndian, uint32(e.field2))
		binary.Write(&rows, binary.BigEndian, uint16(e.field3))
	}
	dict := trailer.Clone()
	dict["Type"] = core.Name("XRef")
	dict["Size"] = core.Int(size)
	dict["W"] = core.Array{core.Int(1), core.Int(4), core.Int(2)}
	xref := buf.Len()
	core.WriteIndirectObject(buf, core.IndirectRef{Number: xrefNum}, &core.Stream{Dict: dict, Data: rows.Bytes()})
	buf.WriteString("startxref\n" + strconv.Itoa(xref) + "\n%%EOF\n")
}
