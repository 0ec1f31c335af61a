package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/banshee-data/fgmax/internal/config"
	"github.com/banshee-data/fgmax/internal/monitoring"
	"github.com/banshee-data/fgmax/internal/version"
)

// errUsage marks a command line the user needs to fix; usage has already
// been printed.
var errUsage = errors.New("usage error")

type command struct {
	name    string
	summary string
	run     func(env *env, args []string) error
}

var commands = []command{
	{"write", "Write fgmax_grids.data from an HCL setup file", handleWrite},
	{"show", "Print one grid read back from a data file", handleShow},
	{"read", "Read a grid's results and print a summary", handleRead},
	{"adjust", "Snap a desired extent onto domain cell centres", handleAdjust},
	{"plot", "Plot one field of a grid's results as PNG or HTML", handlePlot},
	{"archive", "Record a grid's results in the SQLite archive", handleArchive},
	{"archive-list", "List archived runs or summarise one", handleArchiveList},
	{"bbox", "Print the extent of a topotype 3 raster", handleBBox},
}

// env carries the output streams and the diagnostics sink for one invocation.
type env struct {
	stdout, stderr io.Writer
	cfg            *config.ToolConfig
	logf           monitoring.LogFunc
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return 1
	}

	e := &env{stdout: stdout, stderr: stderr, cfg: config.EmptyToolConfig()}
	name, rest := args[0], args[1:]
	switch name {
	case "version", "-version", "--version":
		fmt.Fprintln(stdout, version.String())
		return 0
	case "help", "-h", "-help", "--help":
		printUsage(stdout)
		return 0
	}

	for _, c := range commands {
		if c.name != name {
			continue
		}
		if err := c.run(e, rest); err != nil {
			if errors.Is(err, flag.ErrHelp) {
				return 0
			}
			if !errors.Is(err, errUsage) {
				fmt.Fprintf(stderr, "fgmax %s: %v\n", name, err)
			}
			return 1
		}
		return 0
	}

	fmt.Fprintf(stderr, "Unknown command: %s\n\n", name)
	printUsage(stderr)
	return 1
}

func printUsage(w io.Writer) {
	var b strings.Builder
	b.WriteString(`fgmax - fixed grid maximum monitoring tools

Usage: fgmax <command> [options]

Commands:
`)
	for _, c := range commands {
		fmt.Fprintf(&b, "  %-13s %s\n", c.name, c.summary)
	}
	b.WriteString(`  version       Show fgmax version
  help          Show this help message

Common Flags:
  -config <file>   JSON tool config supplying defaults (see config/fgmax.defaults.json)
  -v               Print per-grid diagnostics, not just warnings

Examples:
  # Write the solver input from a setup file
  fgmax write -setup grids.hcl -out fgmax_grids.data

  # Summarise grid 3 after a run, speeds in knots
  fgmax read -fgno 3 -outdir _output -config fgmax.json

  # Plot maximum depth on grid 1
  fgmax plot -fgno 1 -field h -png h_max.png
`)
	fmt.Fprint(w, b.String())
}

// flagSet builds a FlagSet with the flags every command shares. Call
// e.parse rather than fs.Parse so the config and logger are applied.
func (e *env) flagSet(name string) (*flag.FlagSet, *string, *bool) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	cfgPath := fs.String("config", "", "JSON tool config file")
	verbose := fs.Bool("v", false, "print per-grid diagnostics")
	return fs, cfgPath, verbose
}

func (e *env) parse(fs *flag.FlagSet, args []string, cfgPath *string, verbose *bool) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return errUsage
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(e.stderr, "unexpected arguments: %v\n", fs.Args())
		fs.Usage()
		return errUsage
	}
	if *cfgPath != "" {
		cfg, err := config.LoadToolConfig(*cfgPath)
		if err != nil {
			return err
		}
		e.cfg = cfg
	}
	e.logf = newLogger(e.stderr, *verbose || e.cfg.GetVerbose())
	return nil
}

// newLogger writes warnings always and other diagnostics only when verbose.
func newLogger(w io.Writer, verbose bool) monitoring.LogFunc {
	l := log.New(w, "", 0)
	return func(format string, v ...interface{}) {
		if verbose || strings.Contains(format, "warning: ") {
			l.Printf(format, v...)
		}
	}
}

// required reports a missing flag the way the flag package reports errors.
func required(fs *flag.FlagSet, stderr io.Writer, names ...string) error {
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	for _, n := range names {
		if !set[n] {
			fmt.Fprintf(stderr, "Error: -%s flag is required\n", n)
			fs.Usage()
			return errUsage
		}
	}
	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
