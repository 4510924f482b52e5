package main

import (
	"flag"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/flatnest"
	"github.com/wippyai/flatnest/dataset"
	"github.com/wippyai/flatnest/nest"
	"github.com/wippyai/flatnest/storage/filestore"
)

const usageText = `Usage: nestctl [-config file] [-log level] <command> [args]

Commands:
  demo <file>               write the example datasets to a new file
  ls <file>                 list groups, datasets and attributes
  cat [-n limit] <file> <path>
                            print the values of a dataset
  inspect [-i] <file>       summarize a file (-i for interactive mode)
`

func main() {
	var (
		configPath = flag.String("config", "", "Path to TOML config (default $HOME/.config/nestctl.toml)")
		logLevel   = flag.String("log", "", "Log level override (debug, info, warn, error)")
	)
	flag.Usage = func() { fmt.Fprint(os.Stderr, usageText) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	}

	path, explicit := *configPath, *configPath != ""
	if !explicit {
		path = defaultConfigPath()
	}
	cfg, err := loadConfig(path, explicit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	nest.SetLogger(log.Named("nest"))
	filestore.SetLogger(log.Named("filestore"))

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		cfg.Color = false
	}

	if err := run(os.Stdout, cfg, log, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(w io.Writer, cfg config, log *zap.Logger, args []string) error {
	cmd, rest := args[0], args[1:]
	log.Debug("command", zap.String("name", cmd), zap.Strings("args", rest))
	st := newStyles(cfg.Color)

	switch cmd {
	case "demo":
		if len(rest) != 1 {
			return fmt.Errorf("usage: demo <file>")
		}
		return runDemo(w, rest[0])

	case "ls":
		if len(rest) != 1 {
			return fmt.Errorf("usage: ls <file>")
		}
		return withFile(rest[0], func(f *filestore.File) error {
			return list(w, st, f, 0)
		})

	case "cat":
		fs := flag.NewFlagSet("cat", flag.ContinueOnError)
		limit := fs.Int("n", cfg.Preview, "Maximum number of values to print")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if fs.NArg() != 2 {
			return fmt.Errorf("usage: cat [-n limit] <file> <path>")
		}
		return withFile(fs.Arg(0), func(f *filestore.File) error {
			return cat(w, f, fs.Arg(1), *limit)
		})

	case "inspect":
		fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
		interactive := fs.Bool("i", false, "Interactive mode with TUI")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if fs.NArg() != 1 {
			return fmt.Errorf("usage: inspect [-i] <file>")
		}
		if *interactive {
			return runInteractive(fs.Arg(0), cfg)
		}
		return withFile(fs.Arg(0), func(f *filestore.File) error {
			return inspect(w, st, f)
		})

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func withFile(path string, fn func(*filestore.File) error) error {
	f, err := filestore.OpenWithConfig(path, filestore.MustExist, &filestore.Config{ReadOnly: true})
	if err != nil {
		return err
	}
	defer f.Close()
	return fn(f)
}

type styles struct {
	group, dataset, attr, typ, dim lipgloss.Style
}

func newStyles(color bool) styles {
	if !color {
		plain := lipgloss.NewStyle()
		return styles{plain, plain, plain, plain, plain}
	}
	return styles{
		group:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")),
		dataset: lipgloss.NewStyle().Foreground(lipgloss.Color("#98FB98")),
		attr:    lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700")),
		typ:     lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB")),
		dim:     lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")),
	}
}

func list(w io.Writer, st styles, g flatnest.Group, depth int) error {
	pad := strings.Repeat("  ", depth)
	if err := listAttrs(w, st, g, pad); err != nil {
		return err
	}
	for _, name := range g.Datasets() {
		ds, err := g.Dataset(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s%s %s %s\n", pad, st.dataset.Render(name),
			st.typ.Render(ds.Leaf().String()), st.dim.Render(shapeString(ds.Shape())))
		if err := listAttrs(w, st, ds, pad+"  "); err != nil {
			return err
		}
	}
	for _, name := range g.Groups() {
		child, err := g.Group(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s%s\n", pad, st.group.Render(name+"/"))
		if err := list(w, st, child, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func listAttrs(w io.Writer, st styles, a flatnest.Attributes, pad string) error {
	for _, name := range a.AttributeNames() {
		attr, err := a.Attribute(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s%s %s = %s\n", pad, st.attr.Render("@"+name),
			st.typ.Render(attr.Leaf.String()), formatValues(attr.Leaf, attr.Shape, attr.Data, 8))
	}
	return nil
}

func cat(w io.Writer, g flatnest.Group, path string, limit int) error {
	ds, err := dataset.Lookup(g, path)
	if err != nil {
		return err
	}
	raw, err := readAll(ds)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, formatValues(ds.Leaf(), ds.Shape(), raw, limit))
	return nil
}

func inspect(w io.Writer, st styles, f *filestore.File) error {
	var datasets, leaves, bytes int
	kinds := map[string]int{}
	err := dataset.Walk(f, func(path string, ds flatnest.Dataset) error {
		n := nest.Shape(ds.Shape()).Size()
		datasets++
		leaves += n
		bytes += n * int(ds.Leaf().Size)
		kinds[ds.Leaf().String()]++
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s %s\n", st.group.Render("file"), f.Path())
	fmt.Fprintf(w, "datasets: %d\nleaves:   %d\nbytes:    %d\n", datasets, leaves, bytes)
	for _, lt := range slices.Sorted(maps.Keys(kinds)) {
		fmt.Fprintf(w, "  %s %d\n", st.typ.Render(lt), kinds[lt])
	}
	return nil
}
