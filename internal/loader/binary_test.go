package loader

import (
	"bytes"
	"encoding/binary"
	"math"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/datalens/internal/table"
)

func arrowRecord(t *testing.T) (*arrow.Schema, arrow.Record) {
	t.Helper()
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "a", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
		{Name: "n", Type: arrow.PrimitiveTypes.Int64},
		{Name: "s", Type: arrow.BinaryTypes.String},
	}, nil)
	b := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer b.Release()
	b.Field(0).(*array.Float64Builder).AppendValues([]float64{1.5, 0, 3}, []bool{true, false, true})
	b.Field(1).(*array.Int64Builder).AppendValues([]int64{10, 20, 30}, nil)
	b.Field(2).(*array.StringBuilder).AppendValues([]string{"x", "y", "z"}, nil)
	return schema, b.NewRecord()
}

func checkArrowTable(t *testing.T, tb *table.Table) {
	t.Helper()
	if !reflect.DeepEqual(tb.Names(), []string{"a", "n", "s"}) || tb.Rows() != 3 {
		t.Fatalf("names=%v rows=%d", tb.Names(), tb.Rows())
	}
	if got := tb.NumericColumns(); !reflect.DeepEqual(got, []string{"a", "n"}) {
		t.Fatalf("numeric columns = %v", got)
	}
	if a := tb.Column(0); !a.IsMissing(1) || a.Floats[2] != 3 {
		t.Fatalf("column a = %v", a.Floats)
	}
}

func TestLoadParquet(t *testing.T) {
	schema, rec := arrowRecord(t)
	defer rec.Release()
	tbl := array.NewTableFromRecords(schema, []arrow.Record{rec})
	defer tbl.Release()
	var buf bytes.Buffer
	if err := pqarrow.WriteTable(tbl, &buf, 1024, parquet.NewWriterProperties(), pqarrow.DefaultWriterProps()); err != nil {
		t.Fatalf("write parquet: %v", err)
	}
	checkArrowTable(t, mustLoad(t, writeFile(t, "d.parquet", buf.Bytes())))
}

func TestLoadFeather(t *testing.T) {
	schema, rec := arrowRecord(t)
	defer rec.Release()
	var buf bytes.Buffer
	w, err := ipc.NewFileWriter(&buf, ipc.WithSchema(schema), ipc.WithAllocator(memory.DefaultAllocator))
	if err != nil {
		t.Fatalf("feather writer: %v", err)
	}
	if err := w.Write(rec); err != nil {
		t.Fatalf("write record: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	checkArrowTable(t, mustLoad(t, writeFile(t, "d.feather", buf.Bytes())))
}

func TestLoadXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	rows := [][]any{
		{"a", "b", "label"},
		{1, 2.5, "x"},
		{2, 3.5, "y"},
		{3, nil, "z"},
	}
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Sheet1", cell, &r); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	path := filepath.Join(t.TempDir(), "book.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save xlsx: %v", err)
	}
	tb := mustLoad(t, path)
	if !reflect.DeepEqual(tb.Names(), []string{"a", "b", "label"}) || tb.Rows() != 3 {
		t.Fatalf("names=%v rows=%d", tb.Names(), tb.Rows())
	}
	if got := tb.NumericColumns(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("numeric columns = %v", got)
	}
	if !tb.Column(1).IsMissing(2) {
		t.Fatalf("expected missing b in last row")
	}
}

// matElem encodes one little-endian level 5 data element, padded to 8 bytes.
func matElem(typ uint32, data []byte) []byte {
	le := binary.LittleEndian
	out := make([]byte, 8, 8+len(data)+8)
	le.PutUint32(out, typ)
	le.PutUint32(out[4:], uint32(len(data)))
	out = append(out, data...)
	for len(out)%8 != 0 {
		out = append(out, 0)
	}
	return out
}

// matArray encodes a miMATRIX element; payload follows the name.
func matArray(name string, class uint32, dims []int32, payload []byte) []byte {
	le := binary.LittleEndian
	flags := make([]byte, 8)
	le.PutUint32(flags, class)
	var db []byte
	for _, d := range dims {
		db = le.AppendUint32(db, uint32(d))
	}
	body := matElem(6, flags)
	body = append(body, matElem(5, db)...)
	body = append(body, matElem(1, []byte(name))...)
	body = append(body, payload...)
	return matElem(14, body)
}

// matDouble encodes a double matrix given in column-major order.
func matDouble(name string, dims []int32, colMajor []float64) []byte {
	var vb []byte
	for _, v := range colMajor {
		vb = binary.LittleEndian.AppendUint64(vb, math.Float64bits(v))
	}
	return matArray(name, 6, dims, matElem(9, vb))
}

// matChars encodes a 1xN char array as UTF-8.
func matChars(name, s string) []byte {
	return matArray(name, 4, []int32{1, int32(len(s))}, matElem(16, []byte(s)))
}

func matHeader() []byte {
	h := bytes.Repeat([]byte(" "), 128)
	copy(h, "MATLAB 5.0 MAT-file")
	binary.LittleEndian.PutUint16(h[124:], 0x0100)
	copy(h[126:], "IM")
	return h
}

func TestLoadMAT(t *testing.T) {
	b := matHeader()
	b = append(b, matDouble("x", []int32{1, 4}, []float64{1, 2, 3, 4})...)
	b = append(b, matDouble("m", []int32{2, 2}, []float64{1, 3, 2, 4})...)
	tb := mustLoad(t, writeFile(t, "vars.mat", b))
	if !reflect.DeepEqual(tb.Names(), []string{"x", "m"}) || tb.Rows() != 4 {
		t.Fatalf("names=%v rows=%d", tb.Names(), tb.Rows())
	}
	if got := tb.Column(1).Floats; !reflect.DeepEqual(got, []float64{1, 2, 3, 4}) {
		t.Fatalf("m flattened = %v", got)
	}

	mismatch := append(matHeader(), matDouble("x", []int32{1, 2}, []float64{1, 2})...)
	mismatch = append(mismatch, matDouble("y", []int32{1, 3}, []float64{1, 2, 3})...)
	if _, err := Load(writeFile(t, "bad.mat", mismatch)); err == nil {
		t.Fatalf("expected error for variables of different lengths")
	}
}

func TestLoadMATCellColumn(t *testing.T) {
	// c = {7, 'ab', {1, 2}} next to x = [1 2 3]
	var cells []byte
	cells = append(cells, matDouble("", []int32{1, 1}, []float64{7})...)
	cells = append(cells, matChars("", "ab")...)
	nested := append(matDouble("", []int32{1, 1}, []float64{1}), matDouble("", []int32{1, 1}, []float64{2})...)
	cells = append(cells, matArray("", 1, []int32{1, 2}, nested)...)

	b := matHeader()
	b = append(b, matDouble("x", []int32{1, 3}, []float64{1, 2, 3})...)
	b = append(b, matArray("c", 1, []int32{1, 3}, cells)...)
	tb := mustLoad(t, writeFile(t, "cells.mat", b))
	if !reflect.DeepEqual(tb.Names(), []string{"x", "c"}) || tb.Rows() != 3 {
		t.Fatalf("names=%v rows=%d", tb.Names(), tb.Rows())
	}
	c := tb.Column(1)
	if c.Kind != table.KindText {
		t.Fatalf("cell column kind = %s, want text", c.Kind)
	}
	if got := []string{c.Format(0), c.Format(1), c.Format(2)}; !reflect.DeepEqual(got, []string{"7", "ab", "{1, 2}"}) {
		t.Fatalf("cell values = %q", got)
	}
	if got := tb.NumericColumns(); !reflect.DeepEqual(got, []string{"x"}) {
		t.Fatalf("numeric columns = %v", got)
	}
}

func TestLoadMATStructColumn(t *testing.T) {
	names := make([]byte, 8)
	copy(names, "a")
	copy(names[4:], "b")
	var body []byte
	body = append(body, 5, 0, 4, 0, 4, 0, 0, 0) // small miINT32 element: field name width 4
	body = append(body, matElem(1, names)...)
	body = append(body, matDouble("", []int32{1, 1}, []float64{1.5})...)
	body = append(body, matChars("", "hi")...)

	b := append(matHeader(), matArray("s", 2, []int32{1, 1}, body)...)
	tb := mustLoad(t, writeFile(t, "struct.mat", b))
	if !reflect.DeepEqual(tb.Names(), []string{"s"}) || tb.Rows() != 1 {
		t.Fatalf("names=%v rows=%d", tb.Names(), tb.Rows())
	}
	if got := tb.Column(0).Format(0); got != "(1.5, hi)" {
		t.Fatalf("struct cell = %q", got)
	}
}

func TestLoadPickleColumns(t *testing.T) {
	// {"a": [1, 2], "b": [1.5, None]} at protocol 2
	var p bytes.Buffer
	p.Write([]byte{0x80, 0x02, '}', '('})
	unicode := func(s string) {
		p.WriteByte('X')
		binary.Write(&p, binary.LittleEndian, uint32(len(s)))
		p.WriteString(s)
	}
	unicode("a")
	p.Write([]byte{']', '(', 'K', 1, 'K', 2, 'e'})
	unicode("b")
	p.Write([]byte{']', '(', 'G'})
	binary.Write(&p, binary.BigEndian, math.Float64bits(1.5))
	p.Write([]byte{'N', 'e', 'u', '.'})

	tb := mustLoad(t, writeFile(t, "cols.pickle", p.Bytes()))
	if tb.Rows() != 2 || tb.NumCols() != 2 || len(tb.NumericColumns()) != 2 {
		t.Fatalf("unexpected table %v rows=%d", tb.Names(), tb.Rows())
	}
	b, ok := tb.Lookup("b")
	if !ok || !b.IsMissing(1) || b.Floats[0] != 1.5 {
		t.Fatalf("column b = %+v", b)
	}
}

func TestLoadPickleRecords(t *testing.T) {
	// [{"a": 1, "b": "x"}, {"a": 2, "c": True}] at protocol 2
	var p bytes.Buffer
	unicode := func(s string) {
		p.WriteByte('X')
		binary.Write(&p, binary.LittleEndian, uint32(len(s)))
		p.WriteString(s)
	}
	p.Write([]byte{0x80, 0x02, ']', '(', '}', '('})
	unicode("a")
	p.Write([]byte{'K', 1})
	unicode("b")
	unicode("x")
	p.Write([]byte{'u', '}', '('})
	unicode("a")
	p.Write([]byte{'K', 2})
	unicode("c")
	p.Write([]byte{0x88, 'u', 'e', '.'})

	tb := mustLoad(t, writeFile(t, "records.pickle", p.Bytes()))
	if !reflect.DeepEqual(tb.Names(), []string{"a", "b", "c"}) || tb.Rows() != 2 {
		t.Fatalf("names=%v rows=%d", tb.Names(), tb.Rows())
	}
	if got := tb.NumericColumns(); !reflect.DeepEqual(got, []string{"a"}) {
		t.Fatalf("numeric columns = %v", got)
	}
	if b := tb.Column(1); !b.IsMissing(1) || b.Format(0) != "x" {
		t.Fatalf("column b = %+v", b)
	}
	if c := tb.Column(2); c.Kind != table.KindBool || !c.IsMissing(0) {
		t.Fatalf("column c = %+v", c)
	}
}

// rWorkspace encodes the uncompressed save() image of
//
//	df <- data.frame(x = c(1.5, NA, 3), s = c("u", "v", "w"))
func rWorkspace() []byte {
	var w bytes.Buffer
	put := func(v int32) { binary.Write(&w, binary.BigEndian, v) }
	char := func(s string) {
		put(9)
		put(int32(len(s)))
		w.WriteString(s)
	}
	sym := func(s string) {
		put(1)
		char(s)
	}
	strs := func(vals ...string) {
		put(16)
		put(int32(len(vals)))
		for _, v := range vals {
			char(v)
		}
	}
	const (
		pairTagged = 2 | 1<<10
		nilValue   = 254
	)
	w.WriteString("RDX2\nX\n")
	put(2)
	put(0x040300)
	put(0x020300)

	put(pairTagged)
	sym("df")
	put(19 | 1<<8 | 1<<9)
	put(2)
	put(14)
	put(3)
	for _, v := range []float64{1.5, math.NaN(), 3} {
		binary.Write(&w, binary.BigEndian, math.Float64bits(v))
	}
	strs("u", "v", "w")
	put(pairTagged)
	sym("names")
	strs("x", "s")
	put(pairTagged)
	sym("class")
	strs("data.frame")
	put(nilValue)
	put(nilValue)
	return w.Bytes()
}

func TestLoadRData(t *testing.T) {
	tb := mustLoad(t, writeFile(t, "ws.RData", rWorkspace()))
	if !reflect.DeepEqual(tb.Names(), []string{"x", "s"}) || tb.Rows() != 3 {
		t.Fatalf("names=%v rows=%d", tb.Names(), tb.Rows())
	}
	if got := tb.NumericColumns(); !reflect.DeepEqual(got, []string{"x"}) {
		t.Fatalf("numeric columns = %v", got)
	}
	if !tb.Column(0).IsMissing(1) {
		t.Fatalf("expected NA in x")
	}
}
