package loader

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime/debug"

	"github.com/KaramelBytes/datalens/internal/table"
)

// decodeFunc parses one file into a table.
type decodeFunc func(path string) (*table.Table, error)

// decoders maps every supported format to its decode routine.
var decoders = map[Format]decodeFunc{
	FormatCSV:         func(p string) (*table.Table, error) { return readDelimited(p, ',') },
	FormatTSV:         func(p string) (*table.Table, error) { return readDelimited(p, '\t') },
	FormatText:        func(p string) (*table.Table, error) { return readDelimited(p, ',') },
	FormatExcel:       readXLSX,
	FormatExcelLegacy: readXLS,
	FormatJSON:        readJSON,
	FormatXML:         readXML,
	FormatParquet:     readParquet,
	FormatORC:         readORC,
	FormatHDF5:        readHDF5,
	FormatSAS:         readSAS,
	FormatRData:       readRData,
	FormatStata:       readStata,
	FormatMAT:         readMAT,
	FormatFeather:     readFeather,
	FormatPickle:      readPickle,
	FormatHTML:        readHTML,
}

// Loader loads tabular files by extension.
type Loader struct {
	logger *slog.Logger
}

// New returns a Loader that logs through logger (slog.Default when nil).
func New(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load reads path into a table. It returns either a table or an error of
// type *UnsupportedFormatError or *ParseError; it never panics.
func (l *Loader) Load(path string) (*table.Table, error) {
	f := FormatOf(path)
	if f == FormatUnknown {
		err := &UnsupportedFormatError{Path: path, Ext: filepath.Ext(path)}
		l.logger.Warn("unsupported format", "path", path, "ext", err.Ext)
		return nil, err
	}
	t, err := decode(decoders[f], path)
	if err != nil {
		l.logger.Warn("load failed", "path", path, "format", f.String(), "error", err)
		return nil, &ParseError{Path: path, Format: f, Err: err}
	}
	l.logger.Debug("loaded table", "path", path, "format", f.String(), "rows", t.Rows(), "cols", t.NumCols())
	return t, nil
}

var defaultLoader = New(nil)

// Load reads path with a loader that logs through slog.Default.
func Load(path string) (*table.Table, error) {
	return defaultLoader.Load(path)
}

// decode runs fn and converts a panic inside a reader into an error.
func decode(fn decodeFunc, path string) (t *table.Table, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Debug("reader panic", "path", path, "panic", r, "stack", string(debug.Stack()))
			t, err = nil, fmt.Errorf("reader panic: %v", r)
		}
	}()
	t, err = fn(path)
	if err == nil && t == nil {
		err = errors.New("reader returned no table")
	}
	return t, err
}
