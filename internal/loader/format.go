package loader

import (
	"path/filepath"
	"strings"
)

// Format identifies a supported file format.
type Format int

const (
	FormatUnknown Format = iota
	FormatCSV
	FormatTSV
	FormatText
	FormatExcel
	FormatExcelLegacy
	FormatJSON
	FormatXML
	FormatParquet
	FormatORC
	FormatHDF5
	FormatSAS
	FormatRData
	FormatStata
	FormatMAT
	FormatFeather
	FormatPickle
	FormatHTML
)

// FormatInfo describes a supported format.
type FormatInfo struct {
	Format      Format
	Extensions  []string
	Description string
}

var formats = []FormatInfo{
	{FormatCSV, []string{".csv"}, "comma-separated values"},
	{FormatTSV, []string{".tsv"}, "tab-separated values"},
	{FormatText, []string{".txt"}, "plain text, comma-separated"},
	{FormatExcel, []string{".xlsx"}, "Excel workbook (first sheet)"},
	{FormatExcelLegacy, []string{".xls"}, "Excel 97-2003 workbook (first sheet)"},
	{FormatJSON, []string{".json"}, "JSON records, arrays or column objects"},
	{FormatXML, []string{".xml"}, "XML, one row per child of the root element"},
	{FormatParquet, []string{".parquet"}, "Apache Parquet"},
	{FormatORC, []string{".orc"}, "Apache ORC"},
	{FormatHDF5, []string{".h5"}, "HDF5 numeric datasets"},
	{FormatSAS, []string{".sas7bdat"}, "SAS dataset"},
	{FormatRData, []string{".rdata"}, "R workspace (first data.frame)"},
	{FormatStata, []string{".dta"}, "Stata dataset"},
	{FormatMAT, []string{".mat"}, "MATLAB v5 MAT-file (array variables as columns)"},
	{FormatFeather, []string{".feather"}, "Feather v2 / Arrow IPC file"},
	{FormatPickle, []string{".pickle"}, "Python pickle of columns or records"},
	{FormatHTML, []string{".html"}, "HTML (first <table>)"},
}

var byExtension = func() map[string]Format {
	m := make(map[string]Format)
	for _, f := range formats {
		for _, ext := range f.Extensions {
			m[ext] = f.Format
		}
	}
	return m
}()

// Formats returns the supported formats in display order.
func Formats() []FormatInfo {
	out := make([]FormatInfo, len(formats))
	copy(out, formats)
	return out
}

// Extensions returns every supported extension, lower case with leading dot.
func Extensions() []string {
	var out []string
	for _, f := range formats {
		out = append(out, f.Extensions...)
	}
	return out
}

// FormatOf maps a path's extension (case-insensitive) to its format.
func FormatOf(path string) Format {
	ext := strings.ToLower(filepath.Ext(path))
	if f, ok := byExtension[ext]; ok {
		return f
	}
	return FormatUnknown
}

func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatTSV:
		return "tsv"
	case FormatText:
		return "txt"
	case FormatExcel:
		return "xlsx"
	case FormatExcelLegacy:
		return "xls"
	case FormatJSON:
		return "json"
	case FormatXML:
		return "xml"
	case FormatParquet:
		return "parquet"
	case FormatORC:
		return "orc"
	case FormatHDF5:
		return "hdf5"
	case FormatSAS:
		return "sas7bdat"
	case FormatRData:
		return "rdata"
	case FormatStata:
		return "dta"
	case FormatMAT:
		return "mat"
	case FormatFeather:
		return "feather"
	case FormatPickle:
		return "pickle"
	case FormatHTML:
		return "html"
	default:
		return "unknown"
	}
}
