// paktool is a CLI utility for inspecting Eschalon asset paks.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/Faultbox/eschalon-utils/internal/assets"
	"github.com/Faultbox/eschalon-utils/internal/config"
	"github.com/Faultbox/eschalon-utils/internal/logger"
	"github.com/Faultbox/eschalon-utils/pkg/pak"
)

// errUsage marks errors that should be followed by the usage text.
var errUsage = errors.New("usage")

func main() {
	if err := logger.Init(os.Getenv("ESCHALON_LOG"), ""); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if len(os.Args) < 2 {
		printUsage(os.Stdout)
		os.Exit(1)
	}

	if err := run(os.Args[1], os.Args[2:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		logger.Sync()
		os.Exit(1)
	}
}

func run(command string, args []string, stdout, stderr io.Writer) error {
	switch command {
	case "info":
		return cmdInfo(args, stdout)
	case "list", "ls":
		return cmdList(args, stdout, stderr)
	case "extract", "x":
		return cmdExtract(args, stdout, stderr)
	case "search", "find":
		return cmdSearch(args, stdout, stderr)
	case "help", "-h", "--help":
		printUsage(stdout)
		return nil
	default:
		printUsage(stderr)
		return fmt.Errorf("unknown command: %s", command)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `paktool - Eschalon asset pak utility

Usage:
  paktool <command> [options] <source> ...

A source is a gfx.pak, a datapak zip, an unpacked data directory, or with
--book a game install directory. With --book and --installed the source is
omitted and the install directory comes from the preferences.

Commands:
  info <source>                      Show source information
  list <source> [pattern]            List files (optional glob pattern)
  extract <source> <path> [output]   Extract file(s) to directory
  search <source> <pattern>          Search files by name pattern

Options:
  -b, --book N          Open <source> as the install directory of book N
  -p, --password PASS   Password for a datapak zip
  -i, --installed       Use the configured install directory of --book

Examples:
  paktool info gfx.pak
  paktool list --book 2 ~/eschalon_book_2 "*.png"
  paktool list --book 2 --installed "*.ogg"
  paktool extract gfx.pak "*.ogg" ./sounds
  paktool search -p secret datapak portrait`)
}

// sourceFlags are the options shared by every command.
type sourceFlags struct {
	fs        *pflag.FlagSet
	book      *int
	password  *string
	installed *bool
	prefs     *config.Config
}

func newFlags(name string) *sourceFlags {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	return &sourceFlags{
		fs:        fs,
		book:      fs.IntP("book", "b", 0, "Open the source as the install directory of this book"),
		password:  fs.StringP("password", "p", "", "Password for a datapak zip"),
		installed: fs.BoolP("installed", "i", false, "Use the install directory from the preferences (needs --book)"),
	}
}

// preferences loads the user's preferences once.
func (f *sourceFlags) preferences() (*config.Config, error) {
	if f.prefs == nil {
		prefs, err := config.Load(*f.book)
		if err != nil {
			return nil, err
		}
		f.prefs = prefs
	}
	return f.prefs, nil
}

// operands returns the positional arguments, source first. With
// --installed the source is the book's configured install directory.
func (f *sourceFlags) operands() ([]string, error) {
	args := f.fs.Args()
	if !*f.installed {
		return args, nil
	}
	if *f.book == 0 {
		return nil, fmt.Errorf("%w: --installed requires --book", errUsage)
	}
	prefs, err := f.preferences()
	if err != nil {
		return nil, err
	}
	return append([]string{prefs.GameDir(*f.book)}, args...), nil
}

func (f *sourceFlags) open(path string) (pak.Source, error) {
	var (
		src pak.Source
		err error
	)
	if *f.book != 0 {
		src, err = pak.OpenGame(path, *f.book)
	} else {
		src, err = pak.OpenPath(path, *f.password)
	}
	if err != nil {
		return nil, err
	}
	if _, ok := src.(*pak.ZipArchive); ok {
		if prefs, err := f.preferences(); err != nil {
			logger.Debug("preferences unavailable", zap.Error(err))
		} else if prefs.MapGUI.WarnSlowZip {
			logger.Warn("reading from the encrypted datapak is slow; extract it for repeated use",
				zap.String("path", path))
		}
	}
	return src, nil
}

func cmdInfo(args []string, stdout io.Writer) error {
	f := newFlags("info")
	if err := f.fs.Parse(args); err != nil {
		return err
	}
	ops, err := f.operands()
	if err != nil {
		return err
	}
	if len(ops) < 1 {
		return fmt.Errorf("%w: paktool info <source>", errUsage)
	}

	src, err := f.open(ops[0])
	if err != nil {
		return err
	}
	defer src.Close()

	files := src.List()

	extCount := make(map[string]int)
	var totalSize uint64
	for _, name := range files {
		ext := strings.ToLower(filepath.Ext(name))
		if ext == "" {
			ext = "(no ext)"
		}
		extCount[ext]++
		totalSize += entrySize(src, name)
	}

	fmt.Fprintf(stdout, "Source:  %s\n", ops[0])
	fmt.Fprintf(stdout, "Kind:    %s\n", src.Kind())
	fmt.Fprintf(stdout, "Files:   %d\n", len(files))
	if totalSize > 0 {
		fmt.Fprintf(stdout, "Size:    %.2f MB\n", float64(totalSize)/(1024*1024))
	}
	if a, ok := src.(*pak.GfxArchive); ok {
		h := a.Header()
		fmt.Fprintf(stdout, "Header:  %q unknown %d/%d, index %d bytes\n", h.Magic[:], h.Unknown1, h.Unknown2, h.IndexSize)
	}
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Files by type:")

	type extStat struct {
		ext   string
		count int
	}
	var stats []extStat
	for ext, count := range extCount {
		stats = append(stats, extStat{ext, count})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].count != stats[j].count {
			return stats[i].count > stats[j].count
		}
		return stats[i].ext < stats[j].ext
	})

	for _, s := range stats {
		fmt.Fprintf(stdout, "  %-10s %d\n", s.ext, s.count)
	}
	return nil
}

// entrySize returns the uncompressed size of name when the source records it.
func entrySize(src pak.Source, name string) uint64 {
	switch s := src.(type) {
	case *pak.GfxArchive:
		if e, ok := s.Entry(name); ok {
			return uint64(e.Size)
		}
	case *pak.ZipArchive:
		if n, ok := s.Size(name); ok {
			return n
		}
	}
	return 0
}

// matches reports whether name matches a glob on its base name or contains
// pattern as a substring.
func matches(name, pattern string) bool {
	if pattern == "" {
		return true
	}
	if ok, _ := filepath.Match(pattern, filepath.Base(name)); ok {
		return true
	}
	return strings.Contains(name, pattern)
}

func cmdList(args []string, stdout, stderr io.Writer) error {
	f := newFlags("list")
	limit := f.fs.IntP("limit", "n", 0, "Limit output to N files (0 = all)")
	if err := f.fs.Parse(args); err != nil {
		return err
	}
	ops, err := f.operands()
	if err != nil {
		return err
	}
	if len(ops) < 1 {
		return fmt.Errorf("%w: paktool list <source> [pattern]", errUsage)
	}

	src, err := f.open(ops[0])
	if err != nil {
		return err
	}
	defer src.Close()

	pattern := ""
	if len(ops) > 1 {
		pattern = strings.ToLower(ops[1])
	}

	count := 0
	for _, name := range src.List() {
		if !matches(name, pattern) {
			continue
		}
		fmt.Fprintln(stdout, name)
		count++
		if *limit > 0 && count >= *limit {
			break
		}
	}

	if pattern != "" {
		fmt.Fprintf(stderr, "\n(%d files matched)\n", count)
	}
	return nil
}

func cmdExtract(args []string, stdout, stderr io.Writer) error {
	f := newFlags("extract")
	if err := f.fs.Parse(args); err != nil {
		return err
	}
	ops, err := f.operands()
	if err != nil {
		return err
	}
	if len(ops) < 2 {
		return fmt.Errorf("%w: paktool extract <source> <path> [output_dir]", errUsage)
	}

	filePath := ops[1]
	outputDir := "."
	if len(ops) > 2 {
		outputDir = ops[2]
	}

	src, err := f.open(ops[0])
	if err != nil {
		return err
	}
	mgr := assets.NewManager()
	mgr.AddSource(src)
	defer mgr.Close()

	if strings.Contains(filePath, "*") {
		return extractPattern(mgr, strings.ToLower(filePath), outputDir, stdout, stderr)
	}

	data, err := mgr.Load(filePath)
	if err != nil {
		return err
	}

	outputPath := filepath.Join(outputDir, filepath.Base(filepath.FromSlash(filePath)))
	if err := writeFile(outputPath, data); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Extracted: %s (%d bytes)\n", outputPath, len(data))
	return nil
}

func extractPattern(mgr *assets.Manager, pattern, outputDir string, stdout, stderr io.Writer) error {
	extracted := 0
	for _, name := range mgr.List() {
		if ok, _ := filepath.Match(pattern, filepath.Base(name)); !ok {
			continue
		}

		data, err := mgr.Load(name)
		if err != nil {
			fmt.Fprintf(stderr, "Error reading %s: %v\n", name, err)
			continue
		}

		// Preserve directory structure
		outputPath := filepath.Join(outputDir, filepath.FromSlash(name))
		if err := writeFile(outputPath, data); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			continue
		}

		fmt.Fprintf(stdout, "Extracted: %s\n", outputPath)
		extracted++
	}

	fmt.Fprintf(stderr, "\nExtracted %d files\n", extracted)
	return nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func cmdSearch(args []string, stdout, stderr io.Writer) error {
	f := newFlags("search")
	limit := f.fs.IntP("limit", "n", 50, "Limit results (0 = all)")
	if err := f.fs.Parse(args); err != nil {
		return err
	}
	ops, err := f.operands()
	if err != nil {
		return err
	}
	if len(ops) < 2 {
		return fmt.Errorf("%w: paktool search <source> <pattern>", errUsage)
	}

	src, err := f.open(ops[0])
	if err != nil {
		return err
	}
	defer src.Close()

	pattern := strings.ToLower(ops[1])

	count := 0
	for _, name := range src.List() {
		if !strings.Contains(name, pattern) {
			continue
		}
		fmt.Fprintln(stdout, name)
		count++
		if *limit > 0 && count >= *limit {
			fmt.Fprintf(stderr, "\n(showing first %d matches, use -n 0 for all)\n", *limit)
			break
		}
	}

	if count == 0 {
		fmt.Fprintln(stderr, "No files found")
	} else if *limit == 0 || count < *limit {
		fmt.Fprintf(stderr, "\n(%d files found)\n", count)
	}
	return nil
}
