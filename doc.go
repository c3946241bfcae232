// Package blueprint resolves layered form schemas and runs data against them.
//
// A schema is a YAML or JSON document describing fields (type, validate rules,
// options, nested fields). Documents are found through a source.Source that
// searches several layers (for example a theme over a core directory), and
// the loader resolves extends@, import@, ordering@ and the other directives
// into one ordered document.
//
// A Blueprint wraps that document and offers:
//
//   - Validate: type and constraint checks with Issues (data path, code, message)
//   - Filter: canonical coercion plus pruning of empty values
//   - MergeData and Extra: schema-aware data merge and unknown-key listing
//   - Extend and ResolveDynamicFields: derived Blueprints, never in place
//
// Typical usage:
//
//	l := loader.New(source.Dirs("user/blueprints", "system/blueprints"), loader.Options{})
//	bp, err := blueprint.Load(ctx, l, "pages/default")
//	clean, err := bp.Filter(ctx, data)
//	if err := bp.Validate(ctx, clean); err != nil {
//		iss, _ := blueprint.AsIssues(err)
//		...
//	}
package blueprint
