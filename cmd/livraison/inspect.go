package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/kolide/livraison/pkg/msi/cab"
	"github.com/kolide/livraison/pkg/msi/lint"
	"github.com/kolide/livraison/pkg/msi/tables"
	"github.com/kolide/livraison/pkg/msidb"
	msibbolt "github.com/kolide/livraison/pkg/msidb/bbolt"
	msisqlite "github.com/kolide/livraison/pkg/msidb/sqlite"
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
)

// parseInspect parses the flags of a read only command and opens the
// package named by the first positional argument. want is the number
// of positional arguments the command takes, the package included.
func parseInspect(flagset *flag.FlagSet, args []string, want int) (*msibbolt.Package, []string, error) {
	if err := parseFlags(flagset, args); err != nil {
		return nil, nil, errors.Wrap(err, "parsing flags")
	}
	return openInspected(flagset, want)
}

func openInspected(flagset *flag.FlagSet, want int) (*msibbolt.Package, []string, error) {
	if flagset.NArg() != want {
		flagset.Usage()
		return nil, nil, errors.Errorf("expected %d argument(s), got %d", want, flagset.NArg())
	}

	pkg, err := msibbolt.Open(flagset.Arg(0), false)
	if err != nil {
		return nil, nil, err
	}
	return pkg, flagset.Args()[1:], nil
}

func printDiagnostics(out io.Writer, report lint.Report) {
	for _, d := range report.Diagnostics {
		fmt.Fprintln(out, d.String())
	}
	fmt.Fprintf(out, "%d diagnostic(s)\n", report.Len())
}

func runLint(out io.Writer, args []string) error {
	flagset := flag.NewFlagSet("livraison lint", flag.ExitOnError)
	var (
		flSuppress = flagset.String(
			"suppress",
			"",
			"comma separated diagnostic codes to ignore",
		)
		flDebug = flagset.Bool(
			"debug",
			false,
			"enable debug logging",
		)
	)
	flagset.Usage = usageFor(flagset, "livraison lint [flags] FILE")

	pkg, _, err := parseInspect(flagset, args, 1)
	if err != nil {
		return err
	}
	defer pkg.Close()

	var suppressed []string
	for _, code := range strings.Split(*flSuppress, ",") {
		if code = strings.TrimSpace(code); code != "" {
			suppressed = append(suppressed, code)
		}
	}

	report := lint.Default().Run(newContext(*flDebug), pkg).Suppress(suppressed...)
	printDiagnostics(out, report)
	if !report.OK() {
		return errors.Errorf("%s has %d diagnostic(s)", flagset.Arg(0), report.Len())
	}
	return nil
}

func runSummary(out io.Writer, args []string) error {
	flagset := flag.NewFlagSet("livraison summary", flag.ExitOnError)
	flagset.Usage = usageFor(flagset, "livraison summary FILE")

	pkg, _, err := parseInspect(flagset, args, 1)
	if err != nil {
		return err
	}
	defer pkg.Close()

	info, err := pkg.SummaryInfo()
	if err != nil {
		return errors.Wrap(err, "reading summary info")
	}

	w := tabwriter.NewWriter(out, 0, 2, 2, ' ', 0)
	fmt.Fprintf(w, "Title:\t%s\n", info.Title)
	fmt.Fprintf(w, "Subject:\t%s\n", info.Subject)
	fmt.Fprintf(w, "Author:\t%s\n", info.Author)
	fmt.Fprintf(w, "Comments:\t%s\n", info.Comments)
	fmt.Fprintf(w, "Creating application:\t%s\n", info.CreatingApplication)
	fmt.Fprintf(w, "Created:\t%s\n", info.CreationTime.UTC().Format(time.RFC3339))
	fmt.Fprintf(w, "Package code:\t%s\n", tables.FormatGUID(info.UUID))
	fmt.Fprintf(w, "Codepage:\t%d\n", int(info.Codepage))
	fmt.Fprintf(w, "Template:\t%s\n", info.Template())
	fmt.Fprintf(w, "Word count:\t%d\n", info.WordCount)
	return w.Flush()
}

func runTables(out io.Writer, args []string) error {
	flagset := flag.NewFlagSet("livraison tables", flag.ExitOnError)
	flagset.Usage = usageFor(flagset, "livraison tables FILE")

	pkg, _, err := parseInspect(flagset, args, 1)
	if err != nil {
		return err
	}
	defer pkg.Close()

	names, err := pkg.Tables()
	if err != nil {
		return errors.Wrap(err, "listing tables")
	}
	slices.Sort(names)

	w := tabwriter.NewWriter(out, 0, 2, 2, ' ', 0)
	for _, name := range names {
		rows, err := pkg.SelectRows(msidb.Select{Table: name})
		if err != nil {
			return errors.Wrapf(err, "reading %s", name)
		}
		fmt.Fprintf(w, "%s\t%d\n", name, len(rows))
	}
	return w.Flush()
}

// describeColumn renders one schema entry: a trailing * marks primary
// key columns, a trailing ? nullable types.
func describeColumn(c msidb.Column) []string {
	name := c.Name
	if c.IsPrimaryKey {
		name += "*"
	}

	typ := c.Type.String()
	if c.Type == msidb.TypeString && c.Size > 0 {
		typ = fmt.Sprintf("%s(%d)", typ, c.Size)
	}
	if c.IsNullable {
		typ += "?"
	}

	fk := ""
	if c.ForeignKey != nil {
		fk = fmt.Sprintf("-> %s.%d", c.ForeignKey.Table, c.ForeignKey.Column)
	}

	return []string{name, typ, string(c.Category), fk}
}

func runDescribe(out io.Writer, args []string) error {
	flagset := flag.NewFlagSet("livraison describe", flag.ExitOnError)
	flagset.Usage = usageFor(flagset, "livraison describe FILE TABLE")

	pkg, rest, err := parseInspect(flagset, args, 2)
	if err != nil {
		return err
	}
	defer pkg.Close()

	columns, err := pkg.Columns(rest[0])
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 2, 2, ' ', 0)
	for _, c := range columns {
		fmt.Fprintln(w, strings.TrimRight(strings.Join(describeColumn(c), "\t"), "\t"))
	}
	return w.Flush()
}

func runExport(out io.Writer, args []string) error {
	flagset := flag.NewFlagSet("livraison export", flag.ExitOnError)
	var (
		flSqlite = flagset.String(
			"sqlite",
			"",
			"write every table and stream into a sqlite database at this path",
		)
		flDebug = flagset.Bool(
			"debug",
			false,
			"enable debug logging",
		)
	)
	flagset.Usage = usageFor(flagset, "livraison export FILE TABLE | livraison export -sqlite OUT FILE")

	if err := parseFlags(flagset, args); err != nil {
		return errors.Wrap(err, "parsing flags")
	}
	want := 2
	if *flSqlite != "" {
		want = 1
	}

	pkg, rest, err := openInspected(flagset, want)
	if err != nil {
		return err
	}
	defer pkg.Close()

	if *flSqlite != "" {
		return msisqlite.Export(newContext(*flDebug), pkg, *flSqlite)
	}

	columns, err := pkg.Columns(rest[0])
	if err != nil {
		return err
	}
	rows, err := pkg.SelectRows(msidb.Select{Table: rest[0]})
	if err != nil {
		return err
	}

	header := make([]string, len(columns))
	for i, c := range columns {
		header[i] = c.Name
	}
	fmt.Fprintln(out, strings.Join(header, "\t"))

	for _, row := range rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = v.Key()
		}
		fmt.Fprintln(out, strings.Join(cells, "\t"))
	}
	return nil
}

func readStream(pkg msidb.Package, name string) ([]byte, error) {
	r, err := pkg.ReadStream(name)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	return data, errors.Wrapf(err, "reading stream %s", name)
}

func runStreams(out io.Writer, args []string) error {
	flagset := flag.NewFlagSet("livraison streams", flag.ExitOnError)
	flagset.Usage = usageFor(flagset, "livraison streams FILE")

	pkg, _, err := parseInspect(flagset, args, 1)
	if err != nil {
		return err
	}
	defer pkg.Close()

	names, err := pkg.Streams()
	if err != nil {
		return errors.Wrap(err, "listing streams")
	}
	slices.Sort(names)

	w := tabwriter.NewWriter(out, 0, 2, 2, ' ', 0)
	for _, name := range names {
		data, err := readStream(pkg, name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%d\n", name, len(data))
	}
	return w.Flush()
}

func runExtract(out io.Writer, args []string) error {
	flagset := flag.NewFlagSet("livraison extract", flag.ExitOnError)
	flOut := flagset.String(
		"out",
		"",
		"where to write the stream (default the stream name, - for stdout)",
	)
	flagset.Usage = usageFor(flagset, "livraison extract [flags] FILE STREAM")

	pkg, rest, err := parseInspect(flagset, args, 2)
	if err != nil {
		return err
	}
	defer pkg.Close()

	data, err := readStream(pkg, rest[0])
	if err != nil {
		return err
	}

	path := *flOut
	if path == "" {
		path = rest[0]
	}
	if path == "-" {
		_, err := out.Write(data)
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	fmt.Fprintln(out, path)
	return nil
}

func runContent(out io.Writer, args []string) error {
	flagset := flag.NewFlagSet("livraison content", flag.ExitOnError)
	flagset.Usage = usageFor(flagset, "livraison content FILE")

	pkg, _, err := parseInspect(flagset, args, 1)
	if err != nil {
		return err
	}
	defer pkg.Close()

	media, err := tables.List(pkg, tables.MediaFromRow)
	if err != nil {
		return err
	}
	files, err := tables.List(pkg, tables.FileFromRow)
	if err != nil {
		return err
	}
	names := make(map[string]string, len(files))
	for _, f := range files {
		names[f.File] = f.FileName
	}

	w := tabwriter.NewWriter(out, 0, 2, 2, ' ', 0)
	for _, m := range media {
		if !strings.HasPrefix(m.Cabinet, "#") {
			continue
		}
		stream := strings.TrimPrefix(m.Cabinet, "#")

		data, err := readStream(pkg, stream)
		if err != nil {
			return err
		}
		cabinet, err := cab.Open(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return errors.Wrapf(err, "opening cabinet %s", stream)
		}

		for _, f := range cabinet.Files() {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", stream, f.Name, names[f.Name], f.Size)
		}
	}
	return w.Flush()
}
