package vptree

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Archive is a bidirectional named-field codec. The same sequence of calls
// both writes a value (when Loading is false) and reads it back into the same
// pointers (when Loading is true), so a type describes its persisted layout
// once.
//
// Errors are sticky: after the first failure every call is a no-op and Err
// reports that failure. A reader asked for a field other than the next one in
// the stream fails with *FieldMismatchError.
type Archive interface {
	Loading() bool

	Int(name string, v *int)
	Ints(name string, v *[]int)
	Float(name string, v *float64)
	Floats(name string, v *[]float64)
	Bool(name string, v *bool)
	Bytes(name string, v *[]byte)

	Err() error
}

// maxFieldLen bounds the element count of a single slice field on load.
const maxFieldLen = 1 << 28

// NewArchiveWriter returns an Archive that writes fields to w. Each field is
// stored as a length-prefixed name followed by its little-endian value;
// slices carry a signed length with -1 for nil.
func NewArchiveWriter(w io.Writer) Archive {
	return &archiveWriter{w: w}
}

// NewArchiveReader returns an Archive that reads fields written by
// NewArchiveWriter from r.
func NewArchiveReader(r io.Reader) Archive {
	return &archiveReader{r: r}
}

type archiveWriter struct {
	w   io.Writer
	buf [8]byte
	err error
}

func (a *archiveWriter) Loading() bool { return false }
func (a *archiveWriter) Err() error    { return a.err }

func (a *archiveWriter) write(p []byte) {
	if a.err != nil {
		return
	}
	_, a.err = a.w.Write(p)
}

func (a *archiveWriter) tag(name string) {
	if len(name) > math.MaxUint16 {
		a.err = fmt.Errorf("vptree: archive field name too long: %d bytes", len(name))
		return
	}
	binary.LittleEndian.PutUint16(a.buf[:2], uint16(len(name)))
	a.write(a.buf[:2])
	a.write([]byte(name))
}

func (a *archiveWriter) u64(v uint64) {
	binary.LittleEndian.PutUint64(a.buf[:], v)
	a.write(a.buf[:])
}

func (a *archiveWriter) length(n int, isNil bool) {
	if isNil {
		a.u64(uint64(math.MaxUint64)) // -1
		return
	}
	a.u64(uint64(int64(n)))
}

func (a *archiveWriter) Int(name string, v *int) {
	a.tag(name)
	a.u64(uint64(int64(*v)))
}

func (a *archiveWriter) Ints(name string, v *[]int) {
	a.tag(name)
	a.length(len(*v), *v == nil)
	for _, x := range *v {
		a.u64(uint64(int64(x)))
	}
}

func (a *archiveWriter) Float(name string, v *float64) {
	a.tag(name)
	a.u64(math.Float64bits(*v))
}

func (a *archiveWriter) Floats(name string, v *[]float64) {
	a.tag(name)
	a.length(len(*v), *v == nil)
	for _, x := range *v {
		a.u64(math.Float64bits(x))
	}
}

func (a *archiveWriter) Bool(name string, v *bool) {
	a.tag(name)
	b := byte(0)
	if *v {
		b = 1
	}
	a.buf[0] = b
	a.write(a.buf[:1])
}

func (a *archiveWriter) Bytes(name string, v *[]byte) {
	a.tag(name)
	a.length(len(*v), *v == nil)
	a.write(*v)
}

type archiveReader struct {
	r   io.Reader
	buf [8]byte
	err error
}

func (a *archiveReader) Loading() bool { return true }
func (a *archiveReader) Err() error    { return a.err }

func (a *archiveReader) read(p []byte, field string) bool {
	if a.err != nil {
		return false
	}
	if _, err := io.ReadFull(a.r, p); err != nil {
		a.err = &FieldMismatchError{Want: field, cause: err}
		return false
	}
	return true
}

// tag consumes the next field name and checks it against name.
func (a *archiveReader) tag(name string) bool {
	if !a.read(a.buf[:2], name) {
		return false
	}
	got := make([]byte, binary.LittleEndian.Uint16(a.buf[:2]))
	if !a.read(got, name) {
		return false
	}
	if string(got) != name {
		a.err = &FieldMismatchError{Want: name, Got: string(got)}
		return false
	}
	return true
}

func (a *archiveReader) u64(field string) (uint64, bool) {
	if !a.read(a.buf[:], field) {
		return 0, false
	}
	return binary.LittleEndian.Uint64(a.buf[:]), true
}

// length reads a slice length. n < 0 means nil.
func (a *archiveReader) length(field string) (int, bool) {
	u, ok := a.u64(field)
	if !ok {
		return 0, false
	}
	n := int64(u)
	if n > maxFieldLen || n < -1 {
		a.err = &FieldMismatchError{Want: field, cause: fmt.Errorf("invalid length %d", n)}
		return 0, false
	}
	return int(n), true
}

func (a *archiveReader) Int(name string, v *int) {
	if !a.tag(name) {
		return
	}
	if u, ok := a.u64(name); ok {
		*v = int(int64(u))
	}
}

func (a *archiveReader) Ints(name string, v *[]int) {
	if !a.tag(name) {
		return
	}
	n, ok := a.length(name)
	if !ok {
		return
	}
	if n < 0 {
		*v = nil
		return
	}
	out := make([]int, n)
	for i := range out {
		u, ok := a.u64(name)
		if !ok {
			return
		}
		out[i] = int(int64(u))
	}
	*v = out
}

func (a *archiveReader) Float(name string, v *float64) {
	if !a.tag(name) {
		return
	}
	if u, ok := a.u64(name); ok {
		*v = math.Float64frombits(u)
	}
}

func (a *archiveReader) Floats(name string, v *[]float64) {
	if !a.tag(name) {
		return
	}
	n, ok := a.length(name)
	if !ok {
		return
	}
	if n < 0 {
		*v = nil
		return
	}
	out := make([]float64, n)
	for i := range out {
		u, ok := a.u64(name)
		if !ok {
			return
		}
		out[i] = math.Float64frombits(u)
	}
	*v = out
}

func (a *archiveReader) Bool(name string, v *bool) {
	if !a.tag(name) {
		return
	}
	if a.read(a.buf[:1], name) {
		*v = a.buf[0] != 0
	}
}

func (a *archiveReader) Bytes(name string, v *[]byte) {
	if !a.tag(name) {
		return
	}
	n, ok := a.length(name)
	if !ok {
		return
	}
	if n < 0 {
		*v = nil
		return
	}
	out := make([]byte, n)
	if a.read(out, name) {
		*v = out
	}
}
