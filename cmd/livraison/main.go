package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/kolide/kit/logutil"
	"github.com/kolide/kit/version"
	"github.com/kolide/livraison/pkg/contexts/ctxlog"
	"github.com/peterbourgon/ff/v3"
)

type command func(out io.Writer, args []string) error

func runVersion(out io.Writer, args []string) error {
	version.PrintFull()
	return nil
}

// parseFlags reads flags from args, then LIVRAISON_* environment
// variables, then the file named by -config when the command has one.
func parseFlags(fs *flag.FlagSet, args []string) error {
	return ff.Parse(fs, args,
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.PlainParser),
		ff.WithEnvVarPrefix("LIVRAISON"),
	)
}

func newContext(debug bool) context.Context {
	logger := logutil.NewCLILogger(debug)
	return ctxlog.NewContext(context.Background(), logger)
}

func usageFor(fs *flag.FlagSet, short string) func() {
	return func() {
		fmt.Fprintf(os.Stderr, "USAGE\n")
		fmt.Fprintf(os.Stderr, "  %s\n", short)
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "FLAGS\n")
		w := tabwriter.NewWriter(os.Stderr, 0, 2, 2, ' ', 0)
		fs.VisitAll(func(f *flag.Flag) {
			fmt.Fprintf(w, "\t-%s %s\t%s\n", f.Name, f.DefValue, f.Usage)
		})
		w.Flush()
		fmt.Fprintf(os.Stderr, "\n")
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "USAGE\n")
	fmt.Fprintf(os.Stderr, "  %s <mode> --help\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "MODES\n")
	fmt.Fprintf(os.Stderr, "  pack         Build an msi or deb package from binaries or a bundle manifest\n")
	fmt.Fprintf(os.Stderr, "  script       Render a shell or PowerShell install script\n")
	fmt.Fprintf(os.Stderr, "  lint         Check an msi package for consistency errors\n")
	fmt.Fprintf(os.Stderr, "  summary      Print the summary information of an msi package\n")
	fmt.Fprintf(os.Stderr, "  tables       List the tables of an msi package\n")
	fmt.Fprintf(os.Stderr, "  describe     Print the schema of a table\n")
	fmt.Fprintf(os.Stderr, "  export       Dump a table as tab separated values, or every table to sqlite\n")
	fmt.Fprintf(os.Stderr, "  streams      List the streams of an msi package\n")
	fmt.Fprintf(os.Stderr, "  extract      Copy a stream out of an msi package\n")
	fmt.Fprintf(os.Stderr, "  content      List the files inside every embedded cabinet\n")
	fmt.Fprintf(os.Stderr, "  version      Print full version information\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "VERSION\n")
	fmt.Fprintf(os.Stderr, "  %s\n", version.Version().Version)
	fmt.Fprintf(os.Stderr, "\n")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var run command
	switch strings.ToLower(os.Args[1]) {
	case "version":
		run = runVersion
	case "pack":
		run = runPack
	case "script":
		run = runScript
	case "lint":
		run = runLint
	case "summary":
		run = runSummary
	case "tables":
		run = runTables
	case "describe":
		run = runDescribe
	case "export":
		run = runExport
	case "streams":
		run = runStreams
	case "extract":
		run = runExtract
	case "content":
		run = runContent
	default:
		usage()
		os.Exit(1)
	}

	if err := run(os.Stdout, os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
