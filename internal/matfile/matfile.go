// Package matfile reads MATLAB level 5 MAT-files.
//
// Numeric, logical, character, cell and struct arrays are decoded; object
// and sparse arrays are skipped. Complex arrays keep only their real part.
package matfile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/klauspost/compress/zlib"
)

// Data element types.
const (
	miINT8       = 1
	miUINT8      = 2
	miINT16      = 3
	miUINT16     = 4
	miINT32      = 5
	miUINT32     = 6
	miSINGLE     = 7
	miDOUBLE     = 9
	miINT64      = 12
	miUINT64     = 13
	miMATRIX     = 14
	miCOMPRESSED = 15
	miUTF8       = 16
	miUTF16      = 17
	miUTF32      = 18
)

// Class is the MATLAB array class of a variable.
type Class int

const (
	ClassCell   Class = 1
	ClassStruct Class = 2
	ClassObject Class = 3
	ClassChar   Class = 4
	ClassSparse Class = 5
	ClassDouble Class = 6
	ClassSingle Class = 7
	ClassInt8   Class = 8
	ClassUint8  Class = 9
	ClassInt16  Class = 10
	ClassUint16 Class = 11
	ClassInt32  Class = 12
	ClassUint32 Class = 13
	ClassInt64  Class = 14
	ClassUint64 Class = 15
)

const (
	flagComplex = 0x0800
	flagLogical = 0x0200
	headerLen   = 128
)

var (
	// ErrNotLevel5 is returned for files without a level 5 header, such as
	// level 4 MAT-files.
	ErrNotLevel5 = errors.New("not a level 5 MAT-file")
	// ErrHDF5 is returned for version 7.3 MAT-files, which are HDF5 containers.
	ErrHDF5 = errors.New("MAT-file version 7.3 (HDF5) is not supported")
)

// Variable is one decoded array.
type Variable struct {
	Name    string
	Class   Class
	Dims    []int
	Logical bool
	Complex bool
	// Real holds numeric data in MATLAB column-major order.
	Real []float64
	// Strings holds one string per row for char arrays.
	Strings []string
	// Fields names the fields of a struct array.
	Fields []string
	// Elements holds cell contents, or struct field values element by
	// element, in column-major order. Undecodable entries are zero Variables.
	Elements []Variable
}

// Numeric reports whether the variable carries numeric or logical data.
func (v *Variable) Numeric() bool {
	return v.Class >= ClassDouble && v.Class <= ClassUint64
}

// Flatten returns the numeric data in row-major order.
func (v *Variable) Flatten() []float64 {
	return rowMajor(v.Real, v.Dims)
}

// Cells returns the contents of a cell array in row-major order.
func (v *Variable) Cells() []Variable {
	if v.Class != ClassCell {
		return nil
	}
	order := rowMajorOrder(len(v.Elements), v.Dims)
	out := make([]Variable, len(order))
	for i, k := range order {
		out[i] = v.Elements[k]
	}
	return out
}

// Records returns the field values of each struct element in row-major
// order, fields in declaration order.
func (v *Variable) Records() [][]Variable {
	nf := len(v.Fields)
	if v.Class != ClassStruct {
		return nil
	}
	if nf == 0 {
		n := 1
		for _, d := range v.Dims {
			n *= d
		}
		return make([][]Variable, n)
	}
	order := rowMajorOrder(len(v.Elements)/nf, v.Dims)
	out := make([][]Variable, len(order))
	for i, k := range order {
		out[i] = v.Elements[k*nf : (k+1)*nf]
	}
	return out
}

// ReadFile decodes the MAT-file at path.
func ReadFile(path string) ([]Variable, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(b)
}

// Read decodes a MAT-file from r.
func Read(r io.Reader) ([]Variable, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Decode(b)
}

// Decode decodes a complete MAT-file image.
func Decode(b []byte) ([]Variable, error) {
	if len(b) < headerLen || !bytes.HasPrefix(b, []byte("MATLAB")) {
		return nil, ErrNotLevel5
	}
	var order binary.ByteOrder
	switch string(b[126:128]) {
	case "IM":
		order = binary.LittleEndian
	case "MI":
		order = binary.BigEndian
	default:
		return nil, ErrNotLevel5
	}
	if order.Uint16(b[124:126]) == 0x0200 {
		return nil, ErrHDF5
	}
	d := decoder{order: order}
	var vars []Variable
	rest := b[headerLen:]
	for len(rest) >= 8 {
		typ, data, next, err := d.element(rest)
		if err != nil {
			return nil, err
		}
		rest = next
		v, ok, err := d.variable(typ, data)
		if err != nil {
			return nil, err
		}
		if ok {
			vars = append(vars, v)
		}
	}
	return vars, nil
}

type decoder struct {
	order binary.ByteOrder
}

// element splits one tagged data element off buf.
func (d decoder) element(buf []byte) (typ uint32, data, rest []byte, err error) {
	if len(buf) < 8 {
		return 0, nil, nil, fmt.Errorf("truncated element tag")
	}
	w := d.order.Uint32(buf[0:4])
	if n := w >> 16; n != 0 {
		if n > 4 {
			return 0, nil, nil, fmt.Errorf("invalid small element size %d", n)
		}
		return w & 0xffff, buf[4 : 4+n], buf[8:], nil
	}
	n := d.order.Uint32(buf[4:8])
	if uint64(n) > uint64(len(buf)-8) {
		return 0, nil, nil, fmt.Errorf("element of %d bytes exceeds file", n)
	}
	end := 8 + int(n)
	data = buf[8:end]
	if w != miCOMPRESSED {
		end = (end + 7) &^ 7
	}
	if end > len(buf) {
		end = len(buf)
	}
	return w, data, buf[end:], nil
}

func (d decoder) variable(typ uint32, data []byte) (Variable, bool, error) {
	switch typ {
	case miCOMPRESSED:
		zr, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return Variable{}, false, fmt.Errorf("inflate: %w", err)
		}
		raw, err := io.ReadAll(zr)
		zr.Close()
		if err != nil {
			return Variable{}, false, fmt.Errorf("inflate: %w", err)
		}
		inner, payload, _, err := d.element(raw)
		if err != nil {
			return Variable{}, false, err
		}
		return d.variable(inner, payload)
	case miMATRIX:
		return d.matrix(data)
	default:
		return Variable{}, false, nil
	}
}

func (d decoder) matrix(data []byte) (Variable, bool, error) {
	if len(data) == 0 {
		return Variable{}, false, nil
	}
	var v Variable
	_, flags, rest, err := d.element(data)
	if err != nil {
		return v, false, fmt.Errorf("array flags: %w", err)
	}
	if len(flags) < 4 {
		return v, false, fmt.Errorf("array flags too short")
	}
	fw := d.order.Uint32(flags[0:4])
	v.Class = Class(fw & 0xff)
	v.Complex = fw&flagComplex != 0
	v.Logical = fw&flagLogical != 0

	_, dims, rest, err := d.element(rest)
	if err != nil {
		return v, false, fmt.Errorf("dimensions: %w", err)
	}
	for i := 0; i+4 <= len(dims); i += 4 {
		v.Dims = append(v.Dims, int(int32(d.order.Uint32(dims[i:]))))
	}
	_, name, rest, err := d.element(rest)
	if err != nil {
		return v, false, fmt.Errorf("array name: %w", err)
	}
	v.Name = string(name)

	total := 1
	for _, n := range v.Dims {
		if n < 0 {
			return v, false, fmt.Errorf("%s: negative dimension %d", v.Name, n)
		}
		total *= n
	}
	switch {
	case v.Class == ClassCell:
		v.Elements, err = d.children(rest, total)
		if err != nil {
			return v, false, fmt.Errorf("%s: %w", v.Name, err)
		}
		return v, true, nil
	case v.Class == ClassStruct:
		if err := d.structArray(&v, rest, total); err != nil {
			return v, false, fmt.Errorf("%s: %w", v.Name, err)
		}
		return v, true, nil
	case v.Class != ClassChar && !v.Numeric():
		return v, false, nil
	}
	if total == 0 {
		v.Real = []float64{}
		if v.Class == ClassChar {
			v.Strings = []string{}
		}
		return v, true, nil
	}
	ptype, pdata, _, err := d.element(rest)
	if err != nil {
		return v, false, fmt.Errorf("%s: real part: %w", v.Name, err)
	}
	if v.Class == ClassChar {
		v.Strings = d.chars(ptype, pdata, v.Dims)
		return v, true, nil
	}
	v.Real, err = d.numbers(ptype, pdata)
	if err != nil {
		return v, false, fmt.Errorf("%s: %w", v.Name, err)
	}
	if len(v.Real) != total {
		return v, false, fmt.Errorf("%s: %d values for dimensions %v", v.Name, len(v.Real), v.Dims)
	}
	return v, true, nil
}

// structArray reads the field names and then the field values of every
// element.
func (d decoder) structArray(v *Variable, rest []byte, total int) error {
	_, lenb, rest, err := d.element(rest)
	if err != nil {
		return fmt.Errorf("field name length: %w", err)
	}
	if len(lenb) < 4 {
		return fmt.Errorf("field name length too short")
	}
	width := int(d.order.Uint32(lenb))
	_, names, rest, err := d.element(rest)
	if err != nil {
		return fmt.Errorf("field names: %w", err)
	}
	if width <= 0 {
		if len(names) != 0 {
			return fmt.Errorf("invalid field name length %d", width)
		}
		return nil
	}
	for i := 0; i+width <= len(names); i += width {
		name := names[i : i+width]
		if k := bytes.IndexByte(name, 0); k >= 0 {
			name = name[:k]
		}
		v.Fields = append(v.Fields, string(name))
	}
	if len(v.Fields) == 0 {
		return nil
	}
	if total > len(rest)/8/len(v.Fields) {
		return fmt.Errorf("%d struct elements exceed the array data", total)
	}
	v.Elements, err = d.children(rest, total*len(v.Fields))
	return err
}

// children reads n nested miMATRIX elements. Empty, sparse and object
// entries come back as zero Variables.
func (d decoder) children(buf []byte, n int) ([]Variable, error) {
	if n < 0 || n > len(buf)/8 {
		return nil, fmt.Errorf("%d elements exceed the array data", n)
	}
	out := make([]Variable, 0, n)
	for i := 0; i < n; i++ {
		typ, data, rest, err := d.element(buf)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		buf = rest
		if typ != miMATRIX {
			return nil, fmt.Errorf("element %d: unexpected data type %d", i, typ)
		}
		c, ok, err := d.matrix(data)
		if err != nil {
			return nil, err
		}
		if !ok {
			c = Variable{}
		}
		out = append(out, c)
	}
	return out, nil
}

func (d decoder) numbers(typ uint32, b []byte) ([]float64, error) {
	size := map[uint32]int{
		miINT8: 1, miUINT8: 1, miINT16: 2, miUINT16: 2, miINT32: 4, miUINT32: 4,
		miSINGLE: 4, miDOUBLE: 8, miINT64: 8, miUINT64: 8,
	}[typ]
	if size == 0 {
		return nil, fmt.Errorf("unsupported storage type %d", typ)
	}
	out := make([]float64, len(b)/size)
	for i := range out {
		p := b[i*size:]
		switch typ {
		case miINT8:
			out[i] = float64(int8(p[0]))
		case miUINT8:
			out[i] = float64(p[0])
		case miINT16:
			out[i] = float64(int16(d.order.Uint16(p)))
		case miUINT16:
			out[i] = float64(d.order.Uint16(p))
		case miINT32:
			out[i] = float64(int32(d.order.Uint32(p)))
		case miUINT32:
			out[i] = float64(d.order.Uint32(p))
		case miSINGLE:
			out[i] = float64(math.Float32frombits(d.order.Uint32(p)))
		case miDOUBLE:
			out[i] = math.Float64frombits(d.order.Uint64(p))
		case miINT64:
			out[i] = float64(int64(d.order.Uint64(p)))
		case miUINT64:
			out[i] = float64(d.order.Uint64(p))
		}
	}
	return out, nil
}

// chars decodes a char array into one string per row.
func (d decoder) chars(typ uint32, b []byte, dims []int) []string {
	var runes []rune
	switch typ {
	case miUTF8, miINT8, miUINT8:
		for len(b) > 0 {
			r, n := utf8.DecodeRune(b)
			runes = append(runes, r)
			b = b[n:]
		}
	case miUTF16, miUINT16, miINT16:
		units := make([]uint16, len(b)/2)
		for i := range units {
			units[i] = d.order.Uint16(b[2*i:])
		}
		runes = utf16.Decode(units)
	case miUTF32, miUINT32, miINT32:
		for i := 0; i+4 <= len(b); i += 4 {
			runes = append(runes, rune(d.order.Uint32(b[i:])))
		}
	}
	rows, cols := 1, len(runes)
	if len(dims) >= 2 && dims[0] > 0 {
		rows = dims[0]
		cols = len(runes) / rows
	}
	out := make([]string, rows)
	line := make([]rune, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			line[j] = runes[i+j*rows]
		}
		out[i] = string(line)
	}
	return out
}

// rowMajor reorders column-major values into row-major order.
func rowMajor(vals []float64, dims []int) []float64 {
	order := rowMajorOrder(len(vals), dims)
	out := make([]float64, len(order))
	for i, k := range order {
		out[i] = vals[k]
	}
	return out
}

// rowMajorOrder returns, for each row-major position of an n-element array
// with the given dimensions, its column-major offset. When dims do not
// describe n elements the identity order is returned.
func rowMajorOrder(n int, dims []int) []int {
	order := make([]int, n)
	total := 1
	for _, d := range dims {
		total *= d
	}
	if len(dims) == 0 || total != n {
		for i := range order {
			order[i] = i
		}
		return order
	}
	stride := make([]int, len(dims))
	s := 1
	for k, d := range dims {
		stride[k] = s
		s *= d
	}
	idx := make([]int, len(dims))
	for o := range order {
		off := 0
		for k := range dims {
			off += idx[k] * stride[k]
		}
		order[o] = off
		for k := len(dims) - 1; k >= 0; k-- {
			idx[k]++
			if idx[k] < dims[k] {
				break
			}
			idx[k] = 0
		}
	}
	return order
}
