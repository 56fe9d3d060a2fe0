// Package rdata decodes R's XDR serialization format as written by save()
// (.RData, .rda) and saveRDS() (.rds).
package rdata

import (
	"bytes"
	"compress/bzip2"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/ulikunitz/xz"
	"golang.org/x/text/encoding/charmap"
)

const (
	flagObject = 1 << 8
	flagAttr   = 1 << 9
	flagTag    = 1 << 10

	latin1Mask = 1 << 2
)

var (
	// ErrFormat is returned for input that is not XDR serialized R data.
	ErrFormat = errors.New("not an XDR serialized R file")
	// ErrNoDataFrame is returned when a workspace holds no data.frame.
	ErrNoDataFrame = errors.New("no data.frame found")
)

// ReadFile decodes the file at path. A save() workspace yields a pairlist
// whose tags are the variable names; a saveRDS() file yields the object.
func ReadFile(path string) (*Object, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

// Read decompresses r when needed and decodes its contents.
func Read(r io.Reader) (*Object, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	raw, err = decompress(raw)
	if err != nil {
		return nil, err
	}
	switch {
	case bytes.HasPrefix(raw, []byte("RDX2\n")), bytes.HasPrefix(raw, []byte("RDX3\n")):
		raw = raw[5:]
	case bytes.HasPrefix(raw, []byte("RDA")), bytes.HasPrefix(raw, []byte("RDB")):
		return nil, fmt.Errorf("%w: only the xdr variant is supported", ErrFormat)
	}
	if !bytes.HasPrefix(raw, []byte("X\n")) {
		return nil, ErrFormat
	}
	d := &decoder{buf: raw[2:]}
	version, err := d.int()
	if err != nil {
		return nil, err
	}
	if version != 2 && version != 3 {
		return nil, fmt.Errorf("unsupported serialization version %d", version)
	}
	// writer and minimal reader R versions
	if _, err := d.take(8); err != nil {
		return nil, err
	}
	if version == 3 {
		n, err := d.int()
		if err != nil {
			return nil, err
		}
		if _, err := d.take(int(n)); err != nil {
			return nil, err
		}
	}
	return d.item()
}

func decompress(raw []byte) ([]byte, error) {
	var r io.Reader
	var err error
	switch {
	case bytes.HasPrefix(raw, []byte{0x1f, 0x8b}):
		var zr *gzip.Reader
		zr, err = gzip.NewReader(bytes.NewReader(raw))
		if err == nil {
			defer zr.Close()
			r = zr
		}
	case bytes.HasPrefix(raw, []byte("BZh")):
		r = bzip2.NewReader(bytes.NewReader(raw))
	case bytes.HasPrefix(raw, []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}):
		r, err = xz.NewReader(bytes.NewReader(raw))
	default:
		return raw, nil
	}
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	return out, nil
}

type decoder struct {
	buf  []byte
	pos  int
	refs []*Object
}

func (d *decoder) take(n int) ([]byte, error) {
	if n < 0 || n > len(d.buf)-d.pos {
		return nil, io.ErrUnexpectedEOF
	}
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

func (d *decoder) int() (int32, error) {
	b, err := d.take(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(b)), nil
}

func (d *decoder) length() (int, error) {
	n, err := d.int()
	if err != nil {
		return 0, err
	}
	if n != -1 {
		if n < 0 {
			return 0, fmt.Errorf("negative vector length %d", n)
		}
		return int(n), nil
	}
	hi, err := d.int()
	if err != nil {
		return 0, err
	}
	lo, err := d.int()
	if err != nil {
		return 0, err
	}
	return int(int64(hi)<<32 + int64(uint32(lo))), nil
}

// check rejects lengths that cannot fit in the remaining input.
func (d *decoder) check(n, size int) error {
	if n > (len(d.buf)-d.pos)/size {
		return io.ErrUnexpectedEOF
	}
	return nil
}

func (d *decoder) item() (*Object, error) {
	flags, err := d.int()
	if err != nil {
		return nil, err
	}
	typ := int(flags & 0xff)
	levels := int(flags >> 12)
	hasAttr := flags&flagAttr != 0
	hasTag := flags&flagTag != 0

	switch typ {
	case nilValueSXP:
		return nil, nil
	case emptyEnvSXP, baseEnvSXP, globalEnvSXP, unboundSXP, missingArgSXP, baseNamespaceSXP:
		return &Object{Type: EnvType}, nil
	case refSXP:
		idx := int(flags >> 8)
		if idx == 0 {
			n, err := d.int()
			if err != nil {
				return nil, err
			}
			idx = int(n)
		}
		if idx < 1 || idx > len(d.refs) {
			return nil, fmt.Errorf("reference %d out of range", idx)
		}
		return d.refs[idx-1], nil
	case persistSXP, packageSXP, namespaceSXP:
		names, err := d.stringVec()
		if err != nil {
			return nil, err
		}
		o := &Object{Type: EnvType, Strings: names}
		d.refs = append(d.refs, o)
		return o, nil
	case classRefSXP, genericRefSXP:
		return nil, fmt.Errorf("serialization code %d is not supported", typ)
	case altrepSXP:
		return d.altrep()
	case attrLangSXP, attrListSXP, bcRepDefSXP, bcRepRefSXP:
		return nil, fmt.Errorf("byte code marker %d outside byte code", typ)
	}

	t := Type(typ)
	switch t {
	case SymbolType:
		name, err := d.item()
		if err != nil {
			return nil, err
		}
		o := &Object{Type: SymbolType}
		if name != nil {
			o.Text = name.Text
		}
		d.refs = append(d.refs, o)
		return o, nil
	case PairType, LangType, ClosureType, PromiseType, DotType:
		return d.pairlist(t, hasAttr, hasTag)
	case EnvType:
		return d.env()
	}

	o := &Object{Type: t}
	switch t {
	case NilType, S4Type:
	case ExtPtrType:
		d.refs = append(d.refs, o)
		if _, err := d.item(); err != nil {
			return nil, err
		}
		if _, err := d.item(); err != nil {
			return nil, err
		}
	case WeakRefType:
		d.refs = append(d.refs, o)
	case SpecialType, BuiltinType:
		n, err := d.int()
		if err != nil {
			return nil, err
		}
		b, err := d.take(int(n))
		if err != nil {
			return nil, err
		}
		o.Text = string(b)
	case CharType:
		n, err := d.int()
		if err != nil {
			return nil, err
		}
		if n == -1 {
			o.NA = true
			break
		}
		b, err := d.take(int(n))
		if err != nil {
			return nil, err
		}
		o.Text = decodeChars(b, levels)
	case LogicalType, IntType:
		n, err := d.length()
		if err != nil {
			return nil, err
		}
		if err := d.check(n, 4); err != nil {
			return nil, err
		}
		o.Ints = make([]int32, n)
		for i := range o.Ints {
			o.Ints[i], _ = d.int()
		}
	case RealType:
		n, err := d.length()
		if err != nil {
			return nil, err
		}
		if o.Reals, err = d.doubles(n); err != nil {
			return nil, err
		}
	case ComplexType:
		n, err := d.length()
		if err != nil {
			return nil, err
		}
		pairs, err := d.doubles(2 * n)
		if err != nil {
			return nil, err
		}
		o.Reals = make([]float64, n)
		for i := range o.Reals {
			o.Reals[i] = pairs[2*i]
		}
	case StringType:
		n, err := d.length()
		if err != nil {
			return nil, err
		}
		if err := d.check(n, 4); err != nil {
			return nil, err
		}
		o.Strings = make([]String, n)
		for i := range o.Strings {
			c, err := d.item()
			if err != nil {
				return nil, err
			}
			if c == nil || c.NA {
				o.Strings[i].NA = true
				continue
			}
			o.Strings[i].S = c.Text
		}
	case ListType, ExprType:
		n, err := d.length()
		if err != nil {
			return nil, err
		}
		if err := d.check(n, 4); err != nil {
			return nil, err
		}
		o.Items = make([]*Object, n)
		for i := range o.Items {
			if o.Items[i], err = d.item(); err != nil {
				return nil, err
			}
		}
	case BytecodeType:
		if err := d.bytecode(); err != nil {
			return nil, err
		}
	case RawType:
		n, err := d.length()
		if err != nil {
			return nil, err
		}
		if o.Raw, err = d.take(n); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown SEXP type %d", typ)
	}
	if hasAttr {
		attr, err := d.item()
		if err != nil {
			return nil, err
		}
		if t != CharType && attr != nil {
			o.Attrs = attr.Pairs
		}
	}
	return o, nil
}

func (d *decoder) doubles(n int) ([]float64, error) {
	b, err := d.take(n * 8)
	if err != nil || n < 0 {
		return nil, io.ErrUnexpectedEOF
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Float64frombits(binary.BigEndian.Uint64(b[8*i:]))
	}
	return out, nil
}

// stringVec reads the persistent-name vector used by environment markers.
func (d *decoder) stringVec() ([]String, error) {
	if _, err := d.int(); err != nil {
		return nil, err
	}
	n, err := d.int()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("negative name count %d", n)
	}
	if err := d.check(int(n), 4); err != nil {
		return nil, err
	}
	out := make([]String, n)
	for i := range out {
		c, err := d.item()
		if err != nil {
			return nil, err
		}
		if c != nil {
			out[i] = String{S: c.Text, NA: c.NA}
		}
	}
	return out, nil
}

// pairlist reads a chain of cons cells iteratively.
func (d *decoder) pairlist(t Type, hasAttr, hasTag bool) (*Object, error) {
	head := &Object{Type: t}
	for {
		var attrs []Pair
		if hasAttr {
			a, err := d.item()
			if err != nil {
				return nil, err
			}
			if a != nil {
				attrs = a.Pairs
			}
		}
		if len(head.Pairs) == 0 {
			head.Attrs = attrs
		}
		var tag string
		if hasTag {
			sym, err := d.item()
			if err != nil {
				return nil, err
			}
			if sym != nil {
				tag = sym.Text
			}
		}
		car, err := d.item()
		if err != nil {
			return nil, err
		}
		head.Pairs = append(head.Pairs, Pair{Tag: tag, Value: car})

		// peek at the cdr: another cell of the same kind continues the loop
		flags, err := d.int()
		if err != nil {
			return nil, err
		}
		next := int(flags & 0xff)
		if next == nilValueSXP {
			return head, nil
		}
		if Type(next) != PairType || t != PairType {
			d.pos -= 4
			if _, err := d.item(); err != nil {
				return nil, err
			}
			return head, nil
		}
		hasAttr = flags&flagAttr != 0
		hasTag = flags&flagTag != 0
	}
}

func (d *decoder) env() (*Object, error) {
	if _, err := d.int(); err != nil { // locked
		return nil, err
	}
	o := &Object{Type: EnvType}
	d.refs = append(d.refs, o)
	if _, err := d.item(); err != nil { // enclosure
		return nil, err
	}
	frame, err := d.item()
	if err != nil {
		return nil, err
	}
	if frame != nil {
		o.Pairs = append(o.Pairs, frame.Pairs...)
	}
	hash, err := d.item()
	if err != nil {
		return nil, err
	}
	if hash != nil {
		for _, bucket := range hash.Items {
			if bucket != nil {
				o.Pairs = append(o.Pairs, bucket.Pairs...)
			}
		}
	}
	attr, err := d.item()
	if err != nil {
		return nil, err
	}
	if attr != nil {
		o.Attrs = attr.Pairs
	}
	return o, nil
}

func decodeChars(b []byte, levels int) string {
	if levels&latin1Mask != 0 {
		if s, err := charmap.ISO8859_1.NewDecoder().Bytes(b); err == nil {
			return string(s)
		}
	}
	return string(b)
}
