package canon

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Format identifies a source encoding.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatXML  Format = "xml"
)

// ValidFormats lists the supported format names.
var ValidFormats = []Format{FormatJSON, FormatYAML, FormatXML}

// Errors.
var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrMalformedSource   = errors.New("malformed source")
)

// SourceError reports a structural decode failure for a named source.
// It matches ErrMalformedSource with errors.Is.
type SourceError struct {
	Source string
	Format Format
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("malformed %s source %s: %v", e.Format, e.Source, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrMalformedSource) match.
func (e *SourceError) Is(target error) bool { return target == ErrMalformedSource }

// ParseFormat converts a format name such as "yaml" or "yml" to a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "xml":
		return FormatXML, nil
	default:
		return "", fmt.Errorf("%w: %q (valid: json, yaml, xml)", ErrUnsupportedFormat, name)
	}
}

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return "", fmt.Errorf("%w: %s has no extension", ErrUnsupportedFormat, path)
	}
	return ParseFormat(ext)
}

// Decode reads one document in the given format and returns its canonical
// mapping. source names the document in error messages.
func Decode(r io.Reader, format Format, source string) (*Mapping, error) {
	var (
		m   *Mapping
		err error
	)
	switch format {
	case FormatJSON:
		m, err = decodeJSON(r)
	case FormatYAML:
		m, err = decodeYAML(r)
	case FormatXML:
		var root *Element
		root, err = ParseXML(r)
		if err == nil {
			m = NormalizeElement(root)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, &SourceError{Source: source, Format: format, Err: err}
	}
	return m, nil
}

// Encode writes m to w in the given format.
func Encode(w io.Writer, m *Mapping, format Format) error {
	switch format {
	case FormatJSON:
		return encodeJSON(w, m)
	case FormatYAML:
		return encodeYAML(w, m)
	case FormatXML:
		return encodeXML(w, m)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// ReadFile decodes the file at path, choosing the format from its extension.
func ReadFile(path string) (*Mapping, Format, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	m, err := Decode(f, format, path)
	if err != nil {
		return nil, "", err
	}
	return m, format, nil
}

// WriteFile encodes m into path. The file is only replaced once encoding
// has succeeded.
func WriteFile(path string, m *Mapping, format Format) error {
	var buf bytes.Buffer
	if err := Encode(&buf, m, format); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
