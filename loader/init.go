package loader

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/untillpro/goutils/logger"
	"golang.org/x/exp/slices"

	"github.com/reoring/blueprint/document"
)

// walker performs the init pass over a merged document.
type walker struct {
	l    *Loader
	ctx  context.Context
	root *document.Map
	res  *Result
}

// Placement moves Key to At: an integer index or the name of a sibling the
// key is moved after.
type Placement struct {
	Key string
	At  any
}

// walk initializes node in place. path is the raw key path of node; chain
// holds the imports being expanded above it.
func (w *walker) walk(node *document.Map, path []string, chain []string) error {
	origin, err := w.expandImports(node, path, chain)
	if err != nil {
		return err
	}

	var (
		levelOrder any
		moves      []Placement
	)
	fieldsLevel := len(path) > 0 && path[len(path)-1] == "fields"

	for _, key := range node.Keys() {
		val, _ := node.Get(key)
		if d, ok := ParseDirective(key); ok {
			switch {
			case d.Action == ActionOrdering && d.Property == "":
				switch val.(type) {
				case *document.Map, []any:
					levelOrder = val
					node.Delete(key)
				}
				// Scalars position this node among its siblings; the parent
				// collects them.
			case d.Action == ActionUnset && d.Property == "":
				node.Delete(key)
			case d.Action == ActionUnset:
				if document.Truthy(val) {
					node.Delete(d.Property)
				}
				node.Delete(key)
			case d.Action == ActionReplace:
				node.Set(d.Property, val)
				node.Delete(key)
			case d.Property != "":
				w.res.Dynamic = append(w.res.Dynamic, DynamicField{
					Field:    dataPath(path),
					RawPath:  append([]string(nil), path...),
					Property: d.Property,
					Action:   d.Action,
					Params:   document.ToPlain(val),
				})
				node.Delete(key)
			default:
				logger.Warning(fmt.Sprintf("loader: dropping unknown directive %q at %s", key, strings.Join(path, ".")))
				node.Delete(key)
			}
			continue
		}

		child, ok := val.(*document.Map)
		if !ok {
			continue
		}
		if hasUnset(child) {
			node.Delete(key)
			continue
		}
		childChain := chain
		if c, ok := origin[key]; ok {
			childChain = c
		}
		childPath := append(append([]string(nil), path...), key)
		if err := w.walk(child, childPath, childChain); err != nil {
			return err
		}
		if fieldsLevel {
			child.Set("name", key)
		}
		if at, ok := takeOrdering(child); ok {
			moves = append(moves, Placement{Key: key, At: at})
		}
	}

	applyOrdering(node, levelOrder, moves)
	return nil
}

// expandImports replaces every import directive of node with the imported
// content, placed where the directive was. It returns, for keys the imports
// introduced, the import chain their subtree must be walked with.
func (w *walker) expandImports(node *document.Map, path []string, chain []string) (map[string][]string, error) {
	origin := map[string][]string{}
	for {
		key, refs, err := nextImport(node)
		if err != nil {
			return nil, err
		}
		if key == "" {
			return origin, nil
		}
		keyChain := chain
		if c, ok := origin[key]; ok {
			keyChain = c
		}
		pos := node.Index(key)
		node.Delete(key)
		for _, ref := range refs {
			for _, c := range keyChain {
				if c == ref.key() {
					return nil, &CyclicReferenceError{Chain: append(append([]string(nil), keyChain...), ref.key())}
				}
			}
			if len(keyChain) >= w.l.opts.MaxDepth {
				return nil, ErrMaxDepth
			}
			content, err := w.importContent(ref, path)
			if err != nil {
				return nil, err
			}
			next := append(append([]string(nil), keyChain...), ref.key())
			var touched []string
			touched, pos = embedAt(node, pos, content, ref.Append)
			for _, k := range touched {
				origin[k] = next
			}
		}
	}
}

func nextImport(node *document.Map) (string, []Ref, error) {
	for _, k := range node.Keys() {
		d, ok := ParseDirective(k)
		if !ok || d.Property != "" || (d.Action != ActionImport && d.Action != ActionExtends) {
			continue
		}
		v, _ := node.Get(k)
		refs, err := parseRefs(v)
		if err != nil {
			return "", nil, err
		}
		return k, refs, nil
	}
	return "", nil, nil
}

// importContent loads the part of ref's document that is embedded at path:
// "form.fields" inside a fields map, "form" elsewhere, the whole document at
// the root. "type:field" selects the part explicitly; an empty type reads
// from the document being loaded.
func (w *walker) importContent(ref Ref, path []string) (*document.Map, error) {
	name, field, explicit := strings.Cut(ref.Type, ":")
	if !explicit {
		switch {
		case len(path) == 0:
			field = ""
		case path[len(path)-1] == "fields":
			field = "form.fields"
		default:
			field = "form"
		}
	}

	var doc *document.Map
	if name == "" {
		doc = w.root
	} else {
		st := &loadState{visiting: map[string]bool{}, res: w.res}
		var err error
		doc, err = w.l.loadRaw(w.ctx, Ref{Type: name, Context: ref.Context}, st)
		if err != nil {
			return nil, err
		}
	}
	v, ok := doc.LookupDotted(field)
	m, isMap := v.(*document.Map)
	if !ok || !isMap {
		if logger.IsVerbose() {
			logger.Verbose(fmt.Sprintf("loader: import %s has no %q section", ref.Type, field))
		}
		return document.New(), nil
	}
	return m.Clone(), nil
}

// embedAt inserts content's keys into node starting at pos. Keys node already
// holds are merged: local values win unless appendMode is set. It returns the
// keys that were inserted or merged and the position after the last insert.
func embedAt(node *document.Map, pos int, content *document.Map, appendMode bool) ([]string, int) {
	touched := make([]string, 0, content.Len())
	for _, k := range content.Keys() {
		iv, _ := content.Get(k)
		lv, exists := node.Get(k)
		if !exists {
			node.InsertAt(pos, k, document.CloneValue(iv))
			pos++
			touched = append(touched, k)
			continue
		}
		lm, lok := lv.(*document.Map)
		im, iok := iv.(*document.Map)
		switch {
		case lok && iok && appendMode:
			node.Set(k, document.Merge(lm, im))
		case lok && iok:
			node.Set(k, document.MergeScoped(lm, im))
		case appendMode:
			node.Set(k, document.CloneValue(iv))
		default:
			continue
		}
		touched = append(touched, k)
	}
	return touched, pos
}

func takeOrdering(child *document.Map) (any, bool) {
	for _, k := range child.Keys() {
		d, ok := ParseDirective(k)
		if !ok || d.Action != ActionOrdering || d.Property != "" {
			continue
		}
		v, _ := child.Get(k)
		child.Delete(k)
		return v, true
	}
	return nil, false
}

// applyOrdering applies a level-wide ordering (a key list, or a map of key to
// position) followed by the per-field placements.
func applyOrdering(node *document.Map, level any, moves []Placement) {
	switch t := level.(type) {
	case []any:
		order := make([]string, 0, len(t))
		for _, it := range t {
			if s, ok := it.(string); ok {
				order = append(order, s)
			}
		}
		node.Reorder(order)
	case *document.Map:
		lm := make([]Placement, 0, t.Len())
		for _, k := range t.Keys() {
			v, _ := t.Get(k)
			lm = append(lm, Placement{Key: k, At: v})
		}
		moves = append(lm, moves...)
	}
	if len(moves) > 0 {
		node.Reorder(Reorder(node.Keys(), moves))
	}
}

// Reorder moves keys according to placements, applied in order. An integer
// position is an absolute index (clamped); a string names the sibling the
// key is moved after. Unknown keys and unknown siblings are ignored; keys
// without a placement keep their relative order.
func Reorder(keys []string, moves []Placement) []string {
	out := slices.Clone(keys)
	for _, mv := range moves {
		from := slices.Index(out, mv.Key)
		if from < 0 {
			continue
		}
		if idx, ok := position(mv.At); ok {
			out = slices.Delete(out, from, from+1)
			if idx < 0 {
				idx = 0
			}
			if idx > len(out) {
				idx = len(out)
			}
			out = slices.Insert(out, idx, mv.Key)
			continue
		}
		sibling := fmt.Sprint(mv.At)
		if sibling == mv.Key || slices.Index(out, sibling) < 0 {
			continue
		}
		out = slices.Delete(out, from, from+1)
		out = slices.Insert(out, slices.Index(out, sibling)+1, mv.Key)
	}
	return out
}

func position(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		if t == float64(int(t)) {
			return int(t), true
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return n, true
		}
	}
	return 0, false
}

// dataPath derives the dotted data path of a node from its raw path: the keys
// directly under a "fields" map. Nodes outside form fields yield "".
func dataPath(raw []string) string {
	var segs []string
	for i := 1; i < len(raw); i++ {
		if raw[i-1] == "fields" {
			segs = append(segs, raw[i])
		}
	}
	return strings.Join(segs, ".")
}
