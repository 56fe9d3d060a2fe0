package loader

import (
	"fmt"
	"path"
	"strconv"

	"gonum.org/v1/hdf5"

	"github.com/KaramelBytes/datalens/internal/table"
)

// h5Container is the group-like surface shared by files and groups.
type h5Container interface {
	NumObjects() (uint, error)
	ObjectNameByIndex(idx uint) (string, error)
	ObjectTypeByIndex(idx uint) (hdf5.GType, error)
	OpenGroup(name string) (*hdf5.Group, error)
	OpenDataset(name string) (*hdf5.Dataset, error)
}

// readHDF5 walks the file and turns every numeric 1-D or 2-D dataset into
// columns. Datasets are named by their path; 2-D datasets contribute one
// column per second-axis index. Only datasets whose row count matches the
// first numeric dataset found are kept. Non-native byte orders are skipped.
func readHDF5(p string) (*table.Table, error) {
	f, err := hdf5.OpenFile(p, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, fmt.Errorf("open hdf5: %w", err)
	}
	defer f.Close()

	w := &h5Walker{rows: -1}
	if err := w.walk(f, "/"); err != nil {
		return nil, err
	}
	if len(w.cols) == 0 {
		return nil, fmt.Errorf("no numeric datasets found")
	}
	return table.New(w.cols...)
}

type h5Walker struct {
	rows int
	cols []table.Column
}

func (w *h5Walker) walk(g h5Container, prefix string) error {
	n, err := g.NumObjects()
	if err != nil {
		return fmt.Errorf("list %s: %w", prefix, err)
	}
	for i := uint(0); i < n; i++ {
		name, err := g.ObjectNameByIndex(i)
		if err != nil {
			return fmt.Errorf("object %d in %s: %w", i, prefix, err)
		}
		typ, err := g.ObjectTypeByIndex(i)
		if err != nil {
			return fmt.Errorf("object %s: %w", name, err)
		}
		full := path.Join(prefix, name)
		switch typ {
		case hdf5.H5G_GROUP:
			sub, err := g.OpenGroup(name)
			if err != nil {
				return fmt.Errorf("open group %s: %w", full, err)
			}
			err = w.walk(sub, full)
			sub.Close()
			if err != nil {
				return err
			}
		case hdf5.H5G_DATASET:
			ds, err := g.OpenDataset(name)
			if err != nil {
				return fmt.Errorf("open dataset %s: %w", full, err)
			}
			err = w.dataset(ds, full)
			ds.Close()
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *h5Walker) dataset(ds *hdf5.Dataset, name string) error {
	dt, err := ds.Datatype()
	if err != nil {
		return fmt.Errorf("datatype of %s: %w", name, err)
	}
	defer dt.Close()
	read := h5Reader(dt)
	if read == nil {
		return nil
	}
	space := ds.Space()
	dims, _, err := space.SimpleExtentDims()
	space.Close()
	if err != nil {
		return fmt.Errorf("dims of %s: %w", name, err)
	}
	if len(dims) == 0 || len(dims) > 2 {
		return nil
	}
	nrow, ncol := int(dims[0]), 1
	if len(dims) == 2 {
		ncol = int(dims[1])
	}
	if w.rows >= 0 && nrow != w.rows {
		return nil
	}
	buf := []float64{}
	if nrow*ncol > 0 {
		if buf, err = read(ds, nrow*ncol); err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
	}
	w.rows = nrow
	name = name[1:]
	if len(dims) == 1 {
		w.cols = append(w.cols, table.NumericColumn(name, buf))
		return nil
	}
	for j := 0; j < ncol; j++ {
		vals := make([]float64, nrow)
		for i := range vals {
			vals[i] = buf[i*ncol+j]
		}
		w.cols = append(w.cols, table.NumericColumn(name+"["+strconv.Itoa(j)+"]", vals))
	}
	return nil
}

type h5ReadFunc func(ds *hdf5.Dataset, n int) ([]float64, error)

// h5Reader picks a reader whose memory type matches the stored type;
// Dataset.Read does no conversion. Non-numeric types yield nil.
func h5Reader(dt *hdf5.Datatype) h5ReadFunc {
	switch dt.Class() {
	case hdf5.T_INTEGER, hdf5.T_FLOAT:
	default:
		return nil
	}
	switch {
	case dt.Equal(hdf5.T_NATIVE_DOUBLE):
		return h5Read[float64]
	case dt.Equal(hdf5.T_NATIVE_FLOAT):
		return h5Read[float32]
	case dt.Equal(hdf5.T_NATIVE_INT64):
		return h5Read[int64]
	case dt.Equal(hdf5.T_NATIVE_INT32):
		return h5Read[int32]
	case dt.Equal(hdf5.T_NATIVE_INT16):
		return h5Read[int16]
	case dt.Equal(hdf5.T_NATIVE_INT8):
		return h5Read[int8]
	case dt.Equal(hdf5.T_NATIVE_UINT64):
		return h5Read[uint64]
	case dt.Equal(hdf5.T_NATIVE_UINT32):
		return h5Read[uint32]
	case dt.Equal(hdf5.T_NATIVE_UINT16):
		return h5Read[uint16]
	case dt.Equal(hdf5.T_NATIVE_UINT8):
		return h5Read[uint8]
	}
	return nil
}

type h5Number interface {
	~float64 | ~float32 | ~int64 | ~int32 | ~int16 | ~int8 | ~uint64 | ~uint32 | ~uint16 | ~uint8
}

func h5Read[T h5Number](ds *hdf5.Dataset, n int) ([]float64, error) {
	buf := make([]T, n)
	if err := ds.Read(&buf); err != nil {
		return nil, err
	}
	out := make([]float64, n)
	for i, v := range buf {
		out[i] = float64(v)
	}
	return out, nil
}
