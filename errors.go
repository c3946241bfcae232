package blueprint

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/reoring/blueprint/i18n"
	"github.com/reoring/blueprint/internal/engine"
	"github.com/reoring/blueprint/loader"
	"github.com/reoring/blueprint/source"
	"github.com/reoring/blueprint/validators"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeInvalidType   = validators.CodeInvalidType
	CodeRequired      = validators.CodeRequired
	CodeTooShort      = validators.CodeTooShort
	CodeTooLong       = validators.CodeTooLong
	CodeTooSmall      = validators.CodeTooSmall
	CodeTooBig        = validators.CodeTooBig
	CodeStep          = validators.CodeStep
	CodePattern       = validators.CodePattern
	CodeInvalidEnum   = validators.CodeInvalidEnum
	CodeInvalidFormat = validators.CodeInvalidFormat
	CodeMultiline     = validators.CodeMultiline
	CodeCustom        = validators.CodeCustom

	// Structural codes, reported through ErrorIssue.
	CodeUnknownKey      = "unknown_key"
	CodeDuplicateKey    = "duplicate_key"
	CodeCyclicReference = "cyclic_reference"
	CodeSchemaNotFound  = "schema_not_found"
)

// Issue represents a single validation entry.
type Issue struct {
	Path    string // dotted data path (for example: links.2.url)
	Field   string // schema path of the rule, wildcards and list elements included
	Code    string // One of the codes listed above.
	Message string
	// Params carries structured parameters (e.g., {"min":1, "max":10, "got":42})
	// for i18n and observability.
	Params map[string]any
	// Rule optionally records the constraint name that produced this issue.
	Rule string
}

// Issues is a collection of validation errors that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. required at header.title
		fmt.Fprintf(b, "%s at %s", it.Code, it.Path)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// ByField groups messages by data path, the shape user interfaces render.
func (iss Issues) ByField() map[string][]string {
	out := make(map[string][]string, len(iss))
	for _, it := range iss {
		out[it.Path] = append(out[it.Path], it.Message)
	}
	return out
}

// Paths returns the distinct data paths with issues, sorted.
func (iss Issues) Paths() []string {
	seen := make(map[string]struct{}, len(iss))
	var out []string
	for _, it := range iss {
		if _, ok := seen[it.Path]; ok {
			continue
		}
		seen[it.Path] = struct{}{}
		out = append(out, it.Path)
	}
	sort.Strings(out)
	return out
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// ErrUnknownField matches every *UnknownFieldError with errors.Is.
var ErrUnknownField = errors.New("unknown field")

// UnknownFieldError is returned by Validate in strict mode for the first data
// key the schema does not describe. It is a structural mismatch, reported
// instead of Issues.
type UnknownFieldError struct {
	Path string
}

func (e *UnknownFieldError) Error() string { return fmt.Sprintf("unknown field %q", e.Path) }

func (e *UnknownFieldError) Is(target error) bool { return target == ErrUnknownField }

// ErrorIssue renders the structural errors of loading, decoding and strict
// validation as a single Issue with a localized message. A nil tr uses the
// process-wide translator. The boolean is false for any other error.
func ErrorIssue(err error, tr i18n.Translator) (Issue, bool) {
	if tr == nil {
		tr = i18n.Current()
	}
	var (
		unknown *UnknownFieldError
		cyclic  *loader.CyclicReferenceError
		load    *loader.LoadError
		dupYAML *source.DuplicateKeyError
		dupJSON *engine.DuplicateKeyError
		it      Issue
	)
	switch {
	case errors.As(err, &unknown):
		it = Issue{Path: unknown.Path, Code: CodeUnknownKey, Params: map[string]any{"label": unknown.Path}}
	case errors.As(err, &dupYAML):
		it = Issue{Code: CodeDuplicateKey, Params: map[string]any{"label": dupYAML.Key, "line": dupYAML.Line}}
	case errors.As(err, &dupJSON):
		it = Issue{Path: dupJSON.Path, Code: CodeDuplicateKey, Params: map[string]any{"label": dupJSON.Path}}
	case errors.As(err, &cyclic):
		it = Issue{Code: CodeCyclicReference, Params: map[string]any{"label": strings.Join(cyclic.Chain, " -> ")}}
	case errors.Is(err, ErrNotFound) && errors.As(err, &load):
		it = Issue{Code: CodeSchemaNotFound, Params: map[string]any{"label": load.Name}}
	default:
		return Issue{}, false
	}
	data := make(map[string]string, len(it.Params))
	for k, v := range it.Params {
		data[k] = fmt.Sprint(v)
	}
	it.Message = tr.Message(it.Code, data)
	return it, true
}

// ErrFieldNotFound is returned by Field for paths without a rule.
var ErrFieldNotFound = errors.New("field not found")

// Load failures surface as the loader's types.
type (
	LoadError            = loader.LoadError
	CyclicReferenceError = loader.CyclicReferenceError
)

// ErrNotFound reports a schema name with no source documents.
var ErrNotFound = loader.ErrNotFound
