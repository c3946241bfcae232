package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/untillpro/goutils/cobrau"
	"github.com/untillpro/goutils/logger"
)

var version = "0.1.0"

// search path, most specific first (flag --schema-dir)
var schemaDirs []string

// schema variant such as a theme sub-directory (flag --context)
var variant string

// output format: yaml or json (flag --format)
var outFormat string

// message language (flag --lang)
var lang string

var red func(a ...interface{}) string
var green func(a ...interface{}) string
var yellow func(a ...interface{}) string

func main() {
	red = color.New(color.FgRed).SprintFunc()
	green = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	if err := execRootCmd(os.Args, version); err != nil {
		os.Exit(1)
	}
}

func execRootCmd(args []string, ver string) error {
	version = ver
	schemaDirs = nil
	rootCmd := cobrau.PrepareRootCmd(
		"blueprint",
		"Resolve form blueprints and run data against them",
		args,
		version,
		newVersionCmd(),
		newResolveCmd(),
		newFieldsCmd(),
		newDefaultsCmd(),
		newValidateCmd(),
		newFilterCmd(),
		newExtraCmd(),
	)
	rootCmd.PersistentFlags().StringArrayVar(&schemaDirs, "schema-dir", nil, "Blueprint directory; repeat to layer, most specific first (default \".\")")
	rootCmd.PersistentFlags().StringVar(&variant, "context", "", "Blueprint context (sub-directory searched in every layer)")
	rootCmd.PersistentFlags().StringVar(&outFormat, "format", "yaml", "Output format: yaml or json")
	rootCmd.PersistentFlags().StringVar(&lang, "lang", "en", "Message language: en or ja")
	logger.SetLogLevel(getLoggerLevel(args))

	return cobrau.ExecCommandAndCatchInterrupt(rootCmd)
}

func getLoggerLevel(args []string) logger.TLogLevel {
	for _, a := range args {
		switch a {
		case "--trace":
			return logger.LogLevelTrace
		case "-v", "--verbose":
			return logger.LogLevelVerbose
		}
	}
	return logger.LogLevelInfo
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Prints the version of the blueprint utility",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println("blueprint version", version)
		},
	}
}
