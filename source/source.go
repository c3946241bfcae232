// Package source resolves schema names to document locations and converts
// between the textual formats (YAML, JSON) and ordered documents.
//
// The loader only depends on the Source interface; Layered is the stock
// implementation over one or more io/fs trees searched in order.
package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/reoring/blueprint/document"
)

// Format identifies a document encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatOf derives the format from a file extension. Unknown extensions are
// treated as YAML, which is a superset of JSON.
func FormatOf(p string) Format {
	switch strings.ToLower(path.Ext(p)) {
	case ".json":
		return FormatJSON
	default:
		return FormatYAML
	}
}

// ParseFormat maps a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("source: unknown format %q", s)
}

// Location is one candidate document for a schema name.
type Location struct {
	Name   string // schema name as requested
	Layer  string // name of the layer the file was found in
	Path   string // slash-separated path inside the layer
	Format Format
}

func (l Location) String() string {
	if l.Layer == "" {
		return l.Path
	}
	return l.Layer + ":" + l.Path
}

// Source is the document collaborator the loader consumes.
type Source interface {
	// Resolve returns the candidates for name, most specific first. An empty
	// result means the name is unknown.
	Resolve(ctx context.Context, name, variant string) ([]Location, error)
	// Decode reads and decodes one candidate.
	Decode(ctx context.Context, loc Location) (*document.Map, error)
}

// DecodeOptions tunes decoding.
type DecodeOptions struct {
	// AllowDuplicateKeys lets a repeated key replace the earlier value instead
	// of failing the decode.
	AllowDuplicateKeys bool
	// MaxDepth bounds nesting; 0 means unlimited.
	MaxDepth int
}

// Decode decodes r as a document in format f.
func Decode(r io.Reader, f Format, opt DecodeOptions) (*document.Map, error) {
	switch f {
	case FormatJSON:
		return DecodeJSON(r, opt)
	default:
		return DecodeYAML(r, opt)
	}
}

// DecodeData decodes r into plain Go values, the shape data documents use.
func DecodeData(r io.Reader, f Format) (map[string]any, error) {
	doc, err := Decode(r, f, DecodeOptions{})
	if err != nil {
		return nil, err
	}
	return doc.ToMap(), nil
}

// Encode writes doc to w in format f, preserving key order.
func Encode(w io.Writer, doc *document.Map, f Format) error {
	switch f {
	case FormatJSON:
		return encodeJSON(w, doc)
	default:
		return encodeYAML(w, doc)
	}
}

// EncodeToString is Encode into a string.
func EncodeToString(doc *document.Map, f Format) (string, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, doc, f); err != nil {
		return "", err
	}
	return buf.String(), nil
}
