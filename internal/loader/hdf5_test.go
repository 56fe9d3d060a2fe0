package loader

import (
	"path/filepath"
	"reflect"
	"testing"

	"gonum.org/v1/hdf5"
)

type h5Creator interface {
	CreateDataset(name string, dtype *hdf5.Datatype, dspace *hdf5.Dataspace) (*hdf5.Dataset, error)
}

func h5Write(t *testing.T, g h5Creator, name string, dtype *hdf5.Datatype, dims []uint, data any) {
	t.Helper()
	space, err := hdf5.CreateSimpleDataspace(dims, nil)
	if err != nil {
		t.Fatalf("dataspace %s: %v", name, err)
	}
	defer space.Close()
	ds, err := g.CreateDataset(name, dtype, space)
	if err != nil {
		t.Fatalf("dataset %s: %v", name, err)
	}
	defer ds.Close()
	if err := ds.Write(data); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoadHDF5(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.h5")
	f, err := hdf5.CreateFile(path, hdf5.F_ACC_TRUNC)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	grp, err := f.CreateGroup("grp")
	if err != nil {
		t.Fatalf("group: %v", err)
	}
	h5Write(t, grp, "m", hdf5.T_NATIVE_INT32, []uint{3, 2}, &[]int32{1, 2, 3, 4, 5, 6})
	grp.Close()
	h5Write(t, f, "x", hdf5.T_NATIVE_DOUBLE, []uint{3}, &[]float64{0.5, 1.5, 2.5})
	// a different row count is left out
	h5Write(t, f, "y", hdf5.T_NATIVE_DOUBLE, []uint{2}, &[]float64{9, 9})
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	tb := mustLoad(t, path)
	want := []string{"grp/m[0]", "grp/m[1]", "x"}
	if !reflect.DeepEqual(tb.Names(), want) || tb.Rows() != 3 {
		t.Fatalf("names=%v rows=%d", tb.Names(), tb.Rows())
	}
	if got := tb.Column(1).Floats; !reflect.DeepEqual(got, []float64{2, 4, 6}) {
		t.Fatalf("grp/m[1] = %v", got)
	}
	if got := tb.Column(2).Floats; !reflect.DeepEqual(got, []float64{0.5, 1.5, 2.5}) {
		t.Fatalf("x = %v", got)
	}
}
