package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/untillpro/goutils/logger"

	"github.com/reoring/blueprint/document"
)

// Layer is one search root of a Layered source.
type Layer struct {
	Name string
	FS   fs.FS
}

// Layered searches its layers in order, so earlier layers override later
// ones (theme before core). A schema name maps to "<name>.yaml", ".yml" or
// ".json" inside the layer; a non-empty variant (the schema context) selects
// a sub-directory.
type Layered struct {
	Layers     []Layer
	Extensions []string
	Options    DecodeOptions
}

var defaultExtensions = []string{".yaml", ".yml", ".json"}

// NewLayered returns a Layered source over layers, most specific first.
func NewLayered(layers ...Layer) *Layered {
	return &Layered{Layers: layers}
}

// Dirs returns a Layered source over operating-system directories, most
// specific first. Each layer is named after its directory.
func Dirs(dirs ...string) *Layered {
	layers := make([]Layer, 0, len(dirs))
	for _, d := range dirs {
		layers = append(layers, Layer{Name: d, FS: os.DirFS(d)})
	}
	return NewLayered(layers...)
}

// ErrInvalidName is returned for names escaping the layer root.
var ErrInvalidName = errors.New("source: invalid schema name")

// Resolve returns at most one candidate per layer.
func (s *Layered) Resolve(ctx context.Context, name, variant string) ([]Location, error) {
	base, err := cleanName(name, variant)
	if err != nil {
		return nil, err
	}
	exts := s.Extensions
	if len(exts) == 0 {
		exts = defaultExtensions
	}
	var out []Location
	for _, layer := range s.Layers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, ext := range exts {
			p := base + ext
			st, err := fs.Stat(layer.FS, p)
			if err != nil || st.IsDir() {
				continue
			}
			out = append(out, Location{Name: name, Layer: layer.Name, Path: p, Format: FormatOf(p)})
			break
		}
	}
	if logger.IsVerbose() {
		logger.Verbose(fmt.Sprintf("source: %s resolved to %d candidate(s)", name, len(out)))
	}
	return out, nil
}

// Decode reads and decodes loc from its layer.
func (s *Layered) Decode(ctx context.Context, loc Location) (*document.Map, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, layer := range s.Layers {
		if layer.Name != loc.Layer {
			continue
		}
		f, err := layer.FS.Open(loc.Path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		doc, err := Decode(f, loc.Format, s.Options)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", loc, err)
		}
		return doc, nil
	}
	return nil, fmt.Errorf("source: unknown layer %q", loc.Layer)
}

func cleanName(name, variant string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrInvalidName
	}
	p := path.Join(variant, name)
	if !fs.ValidPath(p) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, p)
	}
	return p, nil
}
