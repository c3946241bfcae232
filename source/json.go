package source

import (
	"bytes"
	"io"

	json "github.com/goccy/go-json"

	"github.com/reoring/blueprint/document"
	eng "github.com/reoring/blueprint/internal/engine"
	"github.com/reoring/blueprint/source/gojson"
)

// DecodeJSON decodes one JSON object from r, keeping key order. Duplicate keys
// fail with *engine.DuplicateKeyError unless opt allows them.
func DecodeJSON(r io.Reader, opt DecodeOptions) (*document.Map, error) {
	ts := eng.WrapWithEnforcement(gojson.NewReader(r), eng.EnforceOptions{
		AllowDuplicates: opt.AllowDuplicateKeys,
		MaxDepth:        opt.MaxDepth,
	})
	return eng.DecodeDocument(ts, eng.NumberNative)
}

func encodeJSON(w io.Writer, doc *document.Map) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err = w.Write(buf.Bytes())
	return err
}
