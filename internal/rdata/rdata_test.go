package rdata

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

// xdr builds serialized R objects for tests.
type xdr struct{ bytes.Buffer }

func (w *xdr) int(v int32) *xdr {
	binary.Write(&w.Buffer, binary.BigEndian, v)
	return w
}

func (w *xdr) flags(t int, obj, attr, tag bool) *xdr {
	f := int32(t)
	if obj {
		f |= flagObject
	}
	if attr {
		f |= flagAttr
	}
	if tag {
		f |= flagTag
	}
	return w.int(f)
}

func (w *xdr) char(s string) *xdr {
	w.int(9 | 1<<3<<12)
	w.int(int32(len(s)))
	w.WriteString(s)
	return w
}

func (w *xdr) naChar() *xdr { return w.int(9).int(-1) }

func (w *xdr) sym(s string) *xdr {
	w.int(int32(SymbolType))
	return w.char(s)
}

func (w *xdr) ref(i int) *xdr { return w.int(int32(refSXP | i<<8)) }

func (w *xdr) strs(attr bool, vals ...string) *xdr {
	w.flags(int(StringType), false, attr, false).int(int32(len(vals)))
	for _, v := range vals {
		if v == "<NA>" {
			w.naChar()
			continue
		}
		w.char(v)
	}
	return w
}

func (w *xdr) reals(obj, attr bool, vals ...float64) *xdr {
	w.flags(int(RealType), obj, attr, false).int(int32(len(vals)))
	for _, v := range vals {
		binary.Write(&w.Buffer, binary.BigEndian, math.Float64bits(v))
	}
	return w
}

func (w *xdr) ints(t Type, obj, attr bool, vals ...int32) *xdr {
	w.flags(int(t), obj, attr, false).int(int32(len(vals)))
	for _, v := range vals {
		w.int(v)
	}
	return w
}

func (w *xdr) nilValue() *xdr { return w.int(nilValueSXP) }

// sampleWorkspace encodes
//
//	notdf <- 1:3
//	df <- data.frame(x = c(1.5, NA, 3), g = factor(c("a", "b", NA)),
//	                 s = c("u", NA, "w"), d = as.Date(c(0, 1, 2)), b = c(TRUE, NA, FALSE))
func sampleWorkspace() []byte {
	w := &xdr{}
	w.WriteString("RDX3\nX\n")
	w.int(3).int(0x040300).int(0x030500).int(5)
	w.WriteString("UTF-8")

	// top-level pairlist cell 1: notdf, stored as a compact sequence
	w.flags(int(PairType), false, false, true).sym("notdf")
	w.int(altrepSXP)
	w.flags(int(PairType), false, false, false).sym("compact_intseq")
	w.flags(int(PairType), false, false, false).sym("base")
	w.flags(int(PairType), false, false, false).ints(IntType, false, false, 13).nilValue()
	w.reals(false, false, 3, 1, 1)
	w.nilValue()

	// cell 2: df
	w.flags(int(PairType), false, false, true).sym("df")
	w.flags(int(ListType), true, true, false).int(5)
	w.reals(false, false, 1.5, math.NaN(), 3)
	// factor g; "class" symbol is reference 6 afterwards
	w.ints(IntType, true, true, 1, 2, NAInteger)
	w.flags(int(PairType), false, false, true).sym("levels").strs(false, "a", "b")
	w.flags(int(PairType), false, false, true).sym("class").strs(false, "factor")
	w.nilValue()
	w.strs(false, "u", "<NA>", "w")
	w.reals(true, true, 0, 1, 2)
	w.flags(int(PairType), false, false, true).ref(6).strs(false, "Date")
	w.nilValue()
	w.ints(LogicalType, false, false, 1, NAInteger, 0)
	// data.frame attributes
	w.flags(int(PairType), false, false, true).sym("names").strs(false, "x", "g", "s", "d", "b")
	w.flags(int(PairType), false, false, true).ref(6).strs(false, "data.frame")
	w.flags(int(PairType), false, false, true).sym("row.names").ints(IntType, false, false, NAInteger, -3)
	w.nilValue()
	w.nilValue()
	return w.Bytes()
}

func TestReadWorkspaceFirstDataFrame(t *testing.T) {
	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	zw.Write(sampleWorkspace())
	zw.Close()
	path := filepath.Join(t.TempDir(), "ws.rdata")
	if err := os.WriteFile(path, gz.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	obj, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if obj.Type != PairType || len(obj.Pairs) != 2 {
		t.Fatalf("unexpected top level: %+v", obj)
	}
	if seq := obj.Pairs[0].Value; !reflect.DeepEqual(seq.Ints, []int32{1, 2, 3}) {
		t.Fatalf("compact sequence = %v", seq.Ints)
	}

	f, err := FirstDataFrame(obj)
	if err != nil {
		t.Fatalf("FirstDataFrame: %v", err)
	}
	if f.Name != "df" || !reflect.DeepEqual(f.Names, []string{"x", "g", "s", "d", "b"}) {
		t.Fatalf("frame %q names = %v", f.Name, f.Names)
	}
	want := [][]any{
		{1.5, nil, 3.0},
		{"a", "b", nil},
		{"u", nil, "w"},
		{time.Unix(0, 0).UTC(), time.Unix(86400, 0).UTC(), time.Unix(2*86400, 0).UTC()},
		{true, nil, false},
	}
	if !reflect.DeepEqual(f.Columns, want) {
		t.Fatalf("columns = %#v\nwant %#v", f.Columns, want)
	}
}

func TestReadRejectsNonXDR(t *testing.T) {
	if _, err := Read(bytes.NewReader([]byte("RDA2\nA\n"))); !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrFormat, got %v", err)
	}
	if _, err := Read(bytes.NewReader([]byte("hello"))); !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrFormat, got %v", err)
	}
}

func TestReadTruncated(t *testing.T) {
	b := sampleWorkspace()
	if _, err := Read(bytes.NewReader(b[:len(b)/2])); err == nil {
		t.Fatalf("expected error for truncated input")
	}
}

func TestFirstDataFrameMissing(t *testing.T) {
	w := &xdr{}
	w.WriteString("X\n")
	w.int(2).int(0).int(0)
	w.reals(false, false, 1, 2)
	obj, err := Read(bytes.NewReader(w.Bytes()))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if _, err := FirstDataFrame(obj); !errors.Is(err, ErrNoDataFrame) {
		t.Fatalf("expected ErrNoDataFrame, got %v", err)
	}
}
