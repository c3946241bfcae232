package source

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/reoring/blueprint/document"
)

// DuplicateKeyError reports a duplicate key found in a YAML mapping with both
// the first occurrence position and the duplicate occurrence position.
type DuplicateKeyError struct {
	Key       string
	FirstLine int
	FirstCol  int
	Line      int
	Col       int
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate YAML key %q at %d:%d (first at %d:%d)", e.Key, e.Line, e.Col, e.FirstLine, e.FirstCol)
}

// DecodeYAML decodes the first YAML document of r. An empty stream yields an
// empty document.
func DecodeYAML(r io.Reader, opt DecodeOptions) (*document.Map, error) {
	var root yaml.Node
	if err := yaml.NewDecoder(r).Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return document.New(), nil
		}
		return nil, err
	}
	c := yamlConverter{opt: opt}
	v, err := c.value(&root, 0)
	if err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case *document.Map:
		return t, nil
	case nil:
		return document.New(), nil
	default:
		return nil, fmt.Errorf("source: top-level YAML value is %T, want mapping", v)
	}
}

type yamlConverter struct {
	opt DecodeOptions
}

func (c yamlConverter) value(n *yaml.Node, depth int) (any, error) {
	if c.opt.MaxDepth > 0 && depth > c.opt.MaxDepth {
		return nil, fmt.Errorf("source: max depth exceeded at line %d", n.Line)
	}
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return c.value(n.Content[0], depth)
	case yaml.AliasNode:
		return c.value(n.Alias, depth)
	case yaml.MappingNode:
		return c.mapping(n, depth)
	case yaml.SequenceNode:
		arr := make([]any, 0, len(n.Content))
		for _, it := range n.Content {
			v, err := c.value(it, depth+1)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		return arr, nil
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("source: line %d: %w", n.Line, err)
		}
		return v, nil
	default:
		return nil, nil
	}
}

func (c yamlConverter) mapping(n *yaml.Node, depth int) (*document.Map, error) {
	m := document.New()
	first := make(map[string][2]int, len(n.Content)/2)
	var merges []*yaml.Node
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if isMergeKey(k) {
			merges = append(merges, v)
			continue
		}
		key := k.Value
		if pos, dup := first[key]; dup && !c.opt.AllowDuplicateKeys {
			return nil, &DuplicateKeyError{Key: key, FirstLine: pos[0], FirstCol: pos[1], Line: k.Line, Col: k.Column}
		}
		first[key] = [2]int{k.Line, k.Column}
		val, err := c.value(v, depth+1)
		if err != nil {
			return nil, err
		}
		m.Set(key, val)
	}
	// Merge keys only contribute what the mapping does not set itself.
	for _, mn := range merges {
		src, err := c.value(mn, depth+1)
		if err != nil {
			return nil, err
		}
		switch t := src.(type) {
		case *document.Map:
			m = document.MergeScoped(m, t)
		case []any:
			for _, it := range t {
				if sm, ok := it.(*document.Map); ok {
					m = document.MergeScoped(m, sm)
				}
			}
		}
	}
	return m, nil
}

func isMergeKey(k *yaml.Node) bool {
	return k.Kind == yaml.ScalarNode && k.Value == "<<" && (k.Tag == "" || k.Tag == "!" || k.Tag == "!!merge")
}

func encodeYAML(w io.Writer, doc *document.Map) error {
	n, err := toYAMLNode(doc)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(n); err != nil {
		return err
	}
	return enc.Close()
}

func toYAMLNode(v any) (*yaml.Node, error) {
	switch t := v.(type) {
	case *document.Map:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, k := range t.Keys() {
			val, _ := t.Get(k)
			vn, err := toYAMLNode(val)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}, vn)
		}
		return n, nil
	case map[string]any:
		return toYAMLNode(document.FromMap(t))
	case []any:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, it := range t {
			vn, err := toYAMLNode(it)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, vn)
		}
		return n, nil
	default:
		n := &yaml.Node{}
		if err := n.Encode(t); err != nil {
			return nil, err
		}
		return n, nil
	}
}
