package loader

import "fmt"

// UnsupportedFormatError indicates the file extension is not recognized.
// No parse is attempted for such files.
type UnsupportedFormatError struct {
	Path string
	Ext  string
}

func (e *UnsupportedFormatError) Error() string {
	if e.Ext == "" {
		return fmt.Sprintf("file %s has no extension; cannot determine its format", e.Path)
	}
	return fmt.Sprintf("file type %s is not supported", e.Ext)
}

// ParseError indicates the format-specific reader failed while decoding.
type ParseError struct {
	Path   string
	Format Format
	Err    error
}

func (e *ParseError) Error() string {
	if e == nil {
		return "parse failed"
	}
	return fmt.Sprintf("read %s as %s: %v", e.Path, e.Format, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
