package loader

import (
	"bytes"
	"encoding/binary"
	"math"
	"path/filepath"
	"reflect"
	"testing"
	"unicode/utf16"

	"github.com/xuri/excelize/v2"
)

func TestFromGridKeepsInteriorBlankRows(t *testing.T) {
	grid := [][]string{
		nil,
		{"", "  "},
		{"a", "b"},
		{"1", "x"},
		{},
		{"", ""},
		{"3", "z"},
		nil,
		{" "},
	}
	tb, err := fromGrid(grid)
	if err != nil {
		t.Fatalf("fromGrid: %v", err)
	}
	if !reflect.DeepEqual(tb.Names(), []string{"a", "b"}) || tb.Rows() != 4 {
		t.Fatalf("names=%v rows=%d", tb.Names(), tb.Rows())
	}
	a := tb.Column(0)
	if a.Kind.String() != "numeric" || !a.IsMissing(1) || !a.IsMissing(2) || a.Floats[3] != 3 {
		t.Fatalf("column a = %v", a.Floats)
	}
	if _, err := fromGrid([][]string{nil, {""}}); err == nil {
		t.Fatalf("expected error for a blank sheet")
	}
}

func TestLoadXLSXInteriorBlankRow(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	rows := map[int][]any{
		2: {"a", "b"},
		3: {1, "x"},
		5: {2, "y"},
	}
	for r, vals := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, r)
		if err := f.SetSheetRow("Sheet1", cell, &vals); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	path := filepath.Join(t.TempDir(), "gaps.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save xlsx: %v", err)
	}
	tb := mustLoad(t, path)
	if !reflect.DeepEqual(tb.Names(), []string{"a", "b"}) || tb.Rows() != 3 {
		t.Fatalf("names=%v rows=%d", tb.Names(), tb.Rows())
	}
	if !tb.Column(0).IsMissing(1) || !tb.Column(1).IsMissing(1) {
		t.Fatalf("row 2 should be all missing")
	}
}

// biffRecord encodes one BIFF8 record.
func biffRecord(id uint16, data []byte) []byte {
	out := binary.LittleEndian.AppendUint16(nil, id)
	out = binary.LittleEndian.AppendUint16(out, uint16(len(data)))
	return append(out, data...)
}

func biffBOF(kind uint16) []byte {
	var b []byte
	for _, v := range []uint16{0x0600, kind, 0x0DBB, 0x07CC} {
		b = binary.LittleEndian.AppendUint16(b, v)
	}
	b = binary.LittleEndian.AppendUint32(b, 0)
	b = binary.LittleEndian.AppendUint32(b, 6)
	return biffRecord(0x0809, b)
}

func biffLabel(row, col uint16, sst uint32) []byte {
	var b []byte
	b = binary.LittleEndian.AppendUint16(b, row)
	b = binary.LittleEndian.AppendUint16(b, col)
	b = binary.LittleEndian.AppendUint16(b, 0)
	b = binary.LittleEndian.AppendUint32(b, sst)
	return biffRecord(0x00FD, b)
}

func biffNumber(row, col uint16, v float64) []byte {
	var b []byte
	b = binary.LittleEndian.AppendUint16(b, row)
	b = binary.LittleEndian.AppendUint16(b, col)
	b = binary.LittleEndian.AppendUint16(b, 0)
	b = binary.LittleEndian.AppendUint64(b, math.Float64bits(v))
	return biffRecord(0x0203, b)
}

// workbookStream builds a one-sheet BIFF8 workbook:
//
//	a  b  label
//	1  2.5  x
//	(blank)
//	3  4.5  y
func workbookStream() []byte {
	strs := []string{"a", "b", "label", "x", "y"}
	sst := binary.LittleEndian.AppendUint32(nil, uint32(len(strs)))
	sst = binary.LittleEndian.AppendUint32(sst, uint32(len(strs)))
	for _, s := range strs {
		sst = binary.LittleEndian.AppendUint16(sst, uint16(len(s)))
		sst = append(sst, 0)
		sst = append(sst, s...)
	}
	sheetName := "Sheet1"
	boundsheet := func(pos uint32) []byte {
		b := binary.LittleEndian.AppendUint32(nil, pos)
		b = append(b, 0, 0, byte(len(sheetName)), 0)
		return biffRecord(0x0085, append(b, sheetName...))
	}

	globals := biffBOF(0x0005)
	globals = append(globals, biffRecord(0x00E0, make([]byte, 20))...)
	bsAt := len(globals)
	globals = append(globals, boundsheet(0)...)
	globals = append(globals, biffRecord(0x00FC, sst)...)
	globals = append(globals, biffRecord(0x000A, nil)...)
	// patch the sheet offset now that the globals length is known
	binary.LittleEndian.PutUint32(globals[bsAt+4:], uint32(len(globals)))

	sheet := biffBOF(0x0010)
	for col, idx := range []uint32{0, 1, 2} {
		sheet = append(sheet, biffLabel(0, uint16(col), idx)...)
	}
	sheet = append(sheet, biffNumber(1, 0, 1)...)
	sheet = append(sheet, biffNumber(1, 1, 2.5)...)
	sheet = append(sheet, biffLabel(1, 2, 3)...)
	sheet = append(sheet, biffNumber(3, 0, 3)...)
	sheet = append(sheet, biffNumber(3, 1, 4.5)...)
	sheet = append(sheet, biffLabel(3, 2, 4)...)
	sheet = append(sheet, biffRecord(0x000A, nil)...)

	stream := append(globals, sheet...)
	// 4096 bytes keeps the stream out of the mini stream
	return append(stream, make([]byte, 4096-len(stream))...)
}

// compoundFile wraps a 4096-byte Workbook stream in a version 3 compound
// file: header, one FAT sector, one directory sector, eight data sectors.
func compoundFile(workbook []byte) []byte {
	const (
		freeSect   = 0xFFFFFFFF
		endOfChain = 0xFFFFFFFE
		fatSect    = 0xFFFFFFFD
	)
	le := binary.LittleEndian
	header := make([]byte, 512)
	copy(header, []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1})
	le.PutUint16(header[24:], 0x003E)
	le.PutUint16(header[26:], 0x0003)
	le.PutUint16(header[28:], 0xFFFE)
	le.PutUint16(header[30:], 9)
	le.PutUint16(header[32:], 6)
	le.PutUint32(header[44:], 1)    // FAT sectors
	le.PutUint32(header[48:], 1)    // first directory sector
	le.PutUint32(header[56:], 4096) // mini stream cutoff
	le.PutUint32(header[60:], endOfChain)
	le.PutUint32(header[68:], endOfChain)
	le.PutUint32(header[76:], 0)
	for i := 1; i < 109; i++ {
		le.PutUint32(header[76+4*i:], freeSect)
	}

	fat := make([]byte, 512)
	for i := 0; i < 128; i++ {
		v := uint32(freeSect)
		switch {
		case i == 0:
			v = fatSect
		case i == 1, i == 9:
			v = endOfChain
		case i >= 2 && i < 9:
			v = uint32(i + 1)
		}
		le.PutUint32(fat[4*i:], v)
	}

	entry := func(name string, typ byte, child, start, size uint32) []byte {
		e := make([]byte, 128)
		units := utf16.Encode([]rune(name))
		for i, u := range units {
			le.PutUint16(e[2*i:], u)
		}
		le.PutUint16(e[64:], uint16(2*len(units)+2))
		e[66] = typ
		e[67] = 1
		le.PutUint32(e[68:], freeSect)
		le.PutUint32(e[72:], freeSect)
		le.PutUint32(e[76:], child)
		le.PutUint32(e[116:], start)
		le.PutUint32(e[120:], size)
		return e
	}
	dir := entry("Root Entry", 5, 1, endOfChain, 0)
	dir = append(dir, entry("Workbook", 2, freeSect, 2, uint32(len(workbook)))...)
	dir = append(dir, make([]byte, 256)...)

	var out bytes.Buffer
	out.Write(header)
	out.Write(fat)
	out.Write(dir)
	out.Write(workbook)
	return out.Bytes()
}

func TestLoadXLS(t *testing.T) {
	tb := mustLoad(t, writeFile(t, "legacy.xls", compoundFile(workbookStream())))
	if !reflect.DeepEqual(tb.Names(), []string{"a", "b", "label"}) || tb.Rows() != 3 {
		t.Fatalf("names=%v rows=%d", tb.Names(), tb.Rows())
	}
	if got := tb.NumericColumns(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("numeric columns = %v", got)
	}
	b := tb.Column(1)
	if b.Floats[0] != 2.5 || !b.IsMissing(1) || b.Floats[2] != 4.5 {
		t.Fatalf("column b = %v", b.Floats)
	}
	if got := tb.Column(2).Format(2); got != "y" {
		t.Fatalf("label row 3 = %q", got)
	}
}
