package loader

import (
	"context"
	"fmt"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/KaramelBytes/datalens/internal/table"
)

// readParquet reads every row group of a Parquet file into memory.
func readParquet(path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()
	mem := memory.DefaultAllocator
	tbl, err := pqarrow.ReadTable(context.Background(), f, parquet.NewReaderProperties(mem), pqarrow.ArrowReadProperties{}, mem)
	if err != nil {
		return nil, fmt.Errorf("read parquet: %w", err)
	}
	defer tbl.Release()

	cols := make([]table.Column, 0, tbl.NumCols())
	for i := 0; i < int(tbl.NumCols()); i++ {
		col := tbl.Column(i)
		var vals []any
		for _, chunk := range col.Data().Chunks() {
			vals = append(vals, arrowValues(chunk)...)
		}
		cols = append(cols, table.FromValues(col.Name(), vals))
	}
	return table.New(cols...)
}

// readFeather reads a Feather v2 file, which is the Arrow IPC file format.
func readFeather(path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()
	r, err := ipc.NewFileReader(f, ipc.WithAllocator(memory.DefaultAllocator))
	if err != nil {
		return nil, fmt.Errorf("open feather: %w", err)
	}
	defer r.Close()

	schema := r.Schema()
	vals := make([][]any, schema.NumFields())
	for i := 0; i < r.NumRecords(); i++ {
		rec, err := r.Record(i)
		if err != nil {
			return nil, fmt.Errorf("read record batch %d: %w", i, err)
		}
		for j := 0; j < int(rec.NumCols()) && j < len(vals); j++ {
			vals[j] = append(vals[j], arrowValues(rec.Column(j))...)
		}
	}
	cols := make([]table.Column, len(vals))
	for j, field := range schema.Fields() {
		cols[j] = table.FromValues(field.Name, vals[j])
	}
	return table.New(cols...)
}

type valueArray[T any] interface {
	IsNull(i int) bool
	Value(i int) T
}

func fill[T any](out []any, a valueArray[T]) {
	for i := range out {
		if !a.IsNull(i) {
			out[i] = a.Value(i)
		}
	}
}

// arrowValues converts one arrow array into Go values; nulls become nil.
func arrowValues(arr arrow.Array) []any {
	out := make([]any, arr.Len())
	switch a := arr.(type) {
	case *array.Float64:
		fill[float64](out, a)
	case *array.Float32:
		fill[float32](out, a)
	case *array.Int64:
		fill[int64](out, a)
	case *array.Int32:
		fill[int32](out, a)
	case *array.Int16:
		fill[int16](out, a)
	case *array.Int8:
		fill[int8](out, a)
	case *array.Uint64:
		fill[uint64](out, a)
	case *array.Uint32:
		fill[uint32](out, a)
	case *array.Uint16:
		fill[uint16](out, a)
	case *array.Uint8:
		fill[uint8](out, a)
	case *array.Boolean:
		fill[bool](out, a)
	case *array.String:
		fill[string](out, a)
	case *array.LargeString:
		fill[string](out, a)
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		for i := range out {
			if !a.IsNull(i) {
				out[i] = a.Value(i).ToTime(unit)
			}
		}
	case *array.Date32:
		for i := range out {
			if !a.IsNull(i) {
				out[i] = a.Value(i).ToTime()
			}
		}
	case *array.Date64:
		for i := range out {
			if !a.IsNull(i) {
				out[i] = a.Value(i).ToTime()
			}
		}
	case *array.Dictionary:
		dict := arrowValues(a.Dictionary())
		for i := range out {
			if !a.IsNull(i) {
				out[i] = dict[a.GetValueIndex(i)]
			}
		}
	default:
		for i := range out {
			if !arr.IsNull(i) {
				out[i] = arr.ValueStr(i)
			}
		}
	}
	return out
}
