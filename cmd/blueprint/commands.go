package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/exp/slices"

	"github.com/reoring/blueprint"
	"github.com/reoring/blueprint/document"
	"github.com/reoring/blueprint/i18n"
	"github.com/reoring/blueprint/loader"
	"github.com/reoring/blueprint/schema"
	"github.com/reoring/blueprint/source"
)

var errInvalidData = errors.New("data is not valid")

func newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <name>",
		Short: "Prints the resolved blueprint document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bp, err := loadBlueprint(cmd, args[0])
			if err != nil {
				return err
			}
			return writeDocument(cmd.OutOrStdout(), bp.Raw())
		},
	}
}

func newFieldsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fields <name>",
		Short: "Lists the leaf fields of a blueprint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bp, err := loadBlueprint(cmd, args[0])
			if err != nil {
				return err
			}
			idx, err := bp.Index()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, p := range idx.Paths() {
				printField(w, idx.Flat[p], "")
			}
			for _, d := range bp.Dynamic() {
				fmt.Fprintf(w, "%s %s-%s@ on %s\n", yellow("dynamic"), d.Action, d.Property, d.Field)
			}
			return nil
		},
	}
}

func printField(w io.Writer, f *schema.Field, prefix string) {
	req := ""
	if f.Required() {
		req = " " + red("required")
	}
	fmt.Fprintf(w, "%s%s\t%s%s\n", prefix, f.Path, f.ValidationType(), req)
	if f.Element == nil {
		return
	}
	for _, p := range f.Element.Paths() {
		printField(w, f.Element.Flat[p], prefix+f.Path+"[].")
	}
}

func newDefaultsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "defaults <name>",
		Short: "Prints the default values declared by a blueprint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bp, err := loadBlueprint(cmd, args[0])
			if err != nil {
				return err
			}
			d, err := bp.Defaults()
			if err != nil {
				return err
			}
			return writeDocument(cmd.OutOrStdout(), document.FromMap(d))
		},
	}
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <name> <data-file>",
		Short: "Validates a data file against a blueprint",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bp, data, err := loadWithData(cmd, args[0], args[1])
			if err != nil {
				return err
			}
			ctx := blueprint.WithLanguage(cmd.Context(), lang)
			err = bp.Validate(ctx, data)
			w := cmd.OutOrStdout()
			if err == nil {
				fmt.Fprintln(w, green("valid"))
				return nil
			}
			iss, ok := blueprint.AsIssues(err)
			if !ok {
				return explain(cmd, err)
			}
			for _, it := range iss {
				fmt.Fprintf(w, "%s %s: %s\n", red(it.Code), it.Path, it.Message)
			}
			return fmt.Errorf("%w: %d issue(s)", errInvalidData, len(iss))
		},
	}
}

func newFilterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "filter <name> <data-file>",
		Short: "Prints a data file coerced and pruned by a blueprint",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bp, data, err := loadWithData(cmd, args[0], args[1])
			if err != nil {
				return err
			}
			out, err := bp.Filter(cmd.Context(), data)
			if err != nil {
				return err
			}
			return writeDocument(cmd.OutOrStdout(), document.FromMap(out))
		},
	}
}

func newExtraCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extra <name> <data-file>",
		Short: "Lists data entries a blueprint does not describe",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bp, data, err := loadWithData(cmd, args[0], args[1])
			if err != nil {
				return err
			}
			extra, err := bp.Extra(data)
			if err != nil {
				return err
			}
			keys := make([]string, 0, len(extra))
			for k := range extra {
				keys = append(keys, k)
			}
			slices.Sort(keys)
			w := cmd.OutOrStdout()
			for _, k := range keys {
				fmt.Fprintf(w, "%s\t%v\n", yellow(k), extra[k])
			}
			return nil
		},
	}
}

func loadBlueprint(cmd *cobra.Command, name string) (*blueprint.Blueprint, error) {
	dirs := schemaDirs
	if len(dirs) == 0 {
		dirs = []string{"."}
	}
	l := loader.New(source.Dirs(dirs...), loader.Options{})
	bp, err := blueprint.LoadContext(cmd.Context(), l, name, variant, blueprint.Options{Translator: i18n.New(lang)})
	if err != nil {
		return nil, explain(cmd, err)
	}
	return bp, nil
}

func loadWithData(cmd *cobra.Command, name, dataFile string) (*blueprint.Blueprint, map[string]any, error) {
	bp, err := loadBlueprint(cmd, name)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.Open(dataFile)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	data, err := source.DecodeData(f, source.FormatOf(dataFile))
	if err != nil {
		return nil, nil, explain(cmd, fmt.Errorf("%s: %w", dataFile, err))
	}
	return bp, data, nil
}

// explain prints the localized message of schema and data errors that have
// one before the error itself is reported.
func explain(cmd *cobra.Command, err error) error {
	if it, ok := blueprint.ErrorIssue(err, i18n.New(lang)); ok {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", red(it.Code), it.Message)
	}
	return err
}

func writeDocument(w io.Writer, doc *document.Map) error {
	f, err := source.ParseFormat(outFormat)
	if err != nil {
		return err
	}
	return source.Encode(w, doc, f)
}
