// eschalon lists and edits Eschalon save files from the command line.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/Faultbox/eschalon-utils/internal/cli"
	"github.com/Faultbox/eschalon-utils/internal/config"
	"github.com/Faultbox/eschalon-utils/internal/constants"
	"github.com/Faultbox/eschalon-utils/internal/logger"
	"github.com/Faultbox/eschalon-utils/pkg/formats"
)

var (
	flagBook     = pflag.Int("book", 0, "Book of the file: 1, 2 or 3 (required with a filename)")
	flagLog      = pflag.String("log", "", "Log level: DEBUG, INFO, WARNING, ERROR or CRITICAL")
	flagChar     = pflag.Bool("char", false, "Treat the file as a character (default)")
	flagMap      = pflag.Bool("map", false, "Treat the file as a map")
	flagSavename = pflag.Bool("savename", false, "Treat the file as a savename")
	flagMerchant = pflag.Bool("merchant", false, "Treat the file as a merchant")
	flagSlots    = pflag.Bool("slots", false, "List the save slots of the book's savegame directory")

	flagList     = pflag.BoolP("list", "l", false, "List the file's contents")
	flagShow     = pflag.StringSliceP("show", "s", nil, "Character sections to list: all, stats, avatar, magic, equip, inv")
	flagUnknowns = pflag.BoolP("unknowns", "u", false, "Include unknown and padding fields")
	flagDump     = pflag.Bool("dump", false, "Dump the parsed structure")

	flagSetPref   = pflag.StringArray("set-pref", nil, "Set a preference, KEY=VALUE (e.g. paths.gamedir_b2=/games/b2); implies --save-prefs")
	flagSavePrefs = pflag.Bool("save-prefs", false, "Save the preferences, including --gamedir and --savegames overrides")

	flagSetGold     = pflag.Int("set-gold", 0, "Set gold")
	flagSetManaMax  = pflag.Int("set-mana-max", 0, "Set maximum mana (current mana follows)")
	flagSetManaCur  = pflag.Int("set-mana-cur", 0, "Set current mana")
	flagSetHPMax    = pflag.Int("set-hp-max", 0, "Set maximum HP (current HP follows)")
	flagSetHPCur    = pflag.Int("set-hp-cur", 0, "Set current HP")
	flagRmDisease   = pflag.Bool("rm-disease", false, "Cure all diseases")
	flagResetHunger = pflag.Bool("reset-hunger", false, "Reset hunger and thirst (Book II and later)")
)

// subsystem selects how the file is parsed.
type subsystem int

const (
	subChar subsystem = iota
	subMap
	subSavename
	subMerchant
)

// options is the parsed command line.
type options struct {
	book     int
	sub      subsystem
	slots    bool
	filename string
	list     bool
	sections []string
	unknowns bool
	dump     bool
	edits    cli.Edits
	prefs    []string
	save     bool
	cfg      *config.Config
}

func main() {
	pflag.Usage = usage
	config.ParseFlags()

	opts, err := parseOptions()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	cfg, err := config.Load(opts.book)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	opts.cfg = cfg

	level := cfg.Logging.Level
	if *flagLog != "" {
		level = *flagLog
	}
	if err := logger.Init(level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	defer logger.Sync()

	if err := run(opts, os.Stdout); err != nil {
		logger.Debug("command failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		logger.Sync()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `eschalon - Eschalon save file utility

Usage:
  eschalon --book N [--char|--map|--savename|--merchant] [options] <file>
  eschalon --book N --slots
  eschalon --set-pref KEY=VALUE ... | --save-prefs

Examples:
  eschalon --book 2 -l -s stats -s inv slot1/char
  eschalon --book 1 --set-gold 5000 --rm-disease slot1/char
  eschalon --book 2 --map -l slot3/outpost.map

Options:
`)
	pflag.PrintDefaults()
}

// parseOptions validates the flag combination.
func parseOptions() (*options, error) {
	opts := &options{
		book:     *flagBook,
		slots:    *flagSlots,
		list:     *flagList,
		sections: *flagShow,
		unknowns: *flagUnknowns,
		dump:     *flagDump,
		prefs:    *flagSetPref,
		save:     *flagSavePrefs,
	}
	if pflag.NArg() > 1 {
		return nil, fmt.Errorf("expected at most one filename, got %d", pflag.NArg())
	}
	opts.filename = pflag.Arg(0)

	selected := 0
	for _, f := range []struct {
		set bool
		sub subsystem
	}{
		{*flagChar, subChar},
		{*flagMap, subMap},
		{*flagSavename, subSavename},
		{*flagMerchant, subMerchant},
	} {
		if f.set {
			opts.sub = f.sub
			selected++
		}
	}
	if selected > 1 {
		return nil, errors.New("--char, --map, --savename and --merchant are mutually exclusive")
	}

	intFlag := func(name string, v *int) *int {
		if pflag.CommandLine.Changed(name) {
			n := *v
			return &n
		}
		return nil
	}
	opts.edits = cli.Edits{
		Gold:        intFlag("set-gold", flagSetGold),
		ManaMax:     intFlag("set-mana-max", flagSetManaMax),
		ManaCur:     intFlag("set-mana-cur", flagSetManaCur),
		HPMax:       intFlag("set-hp-max", flagSetHPMax),
		HPCur:       intFlag("set-hp-cur", flagSetHPCur),
		RmDisease:   *flagRmDisease,
		ResetHunger: *flagResetHunger,
	}
	return opts, nil
}

// run executes the command, writing listings to out.
func run(opts *options, out io.Writer) error {
	if len(opts.prefs) > 0 || opts.save {
		if err := savePrefs(opts, out); err != nil {
			return err
		}
		if opts.filename == "" && !opts.slots {
			return nil
		}
	}
	if opts.filename == "" && !opts.slots {
		if opts.edits.Any() || opts.list {
			return errors.New("a filename is required")
		}
		return errors.New("no graphical editor in this build; pass a filename to list or edit it")
	}

	book, err := formats.ParseBook(opts.book)
	if err != nil {
		return fmt.Errorf("--book is required: %w", err)
	}
	if err := constants.SetCurrent(int(book)); err != nil {
		return err
	}
	sections, err := cli.ParseSections(opts.sections)
	if err != nil {
		return err
	}
	p, err := cli.NewPrinter(out, book)
	if err != nil {
		return err
	}
	p.Unknowns = opts.unknowns

	if opts.slots {
		return listSlots(opts, book, out)
	}
	if opts.sub != subChar && opts.edits.Any() {
		return errors.New("edits apply to characters only")
	}

	var parsed any
	switch opts.sub {
	case subChar:
		c, err := formats.LoadCharacter(opts.filename, book)
		if err != nil {
			return err
		}
		parsed = c
		if opts.list || !opts.edits.Any() {
			p.Character(c, sections)
		}
		applied, err := opts.edits.Apply(out, c)
		if err != nil {
			return err
		}
		if applied {
			if err := c.Save(opts.filename); err != nil {
				return err
			}
			logger.Info("character saved", zap.String("path", opts.filename))
		}
	case subMap:
		m, err := formats.LoadMap(opts.filename, book)
		if err != nil {
			return err
		}
		parsed = m
		p.Map(m)
	case subSavename:
		sn, err := formats.LoadSavename(opts.filename, book)
		if err != nil {
			return err
		}
		parsed = sn
		p.Savename(sn)
	case subMerchant:
		m, err := formats.LoadMerchant(opts.filename, book)
		if err != nil {
			return err
		}
		parsed = m
		p.Merchant(m)
	}

	if opts.dump {
		cfg := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, SortKeys: true}
		cfg.Fdump(out, parsed)
	}
	return nil
}

// savePrefs applies the --set-pref assignments and writes the preferences
// back to their file.
func savePrefs(opts *options, out io.Writer) error {
	cfg := opts.cfg
	if cfg == nil {
		cfg = config.Default()
	}
	for _, kv := range opts.prefs {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("--set-pref %q: expected KEY=VALUE", kv)
		}
		if err := cfg.Set(strings.TrimSpace(key), value); err != nil {
			return err
		}
	}
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("saving preferences: %w", err)
	}
	fmt.Fprintf(out, "Preferences saved to %s\n", cfg.Path())
	return nil
}

// listSlots prints the save slots found in the configured savegame
// directory for book.
func listSlots(opts *options, book formats.Book, out io.Writer) error {
	dir := ""
	if opts.cfg != nil {
		dir = opts.cfg.SavegameDir(int(book))
	}
	if opts.filename != "" {
		dir = opts.filename
	}
	slots, err := formats.ListSlots(dir, book)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s save slots in %s:\n", book, dir)
	for _, s := range slots {
		name := "(unreadable)"
		if sn, err := s.OpenSavename(); err == nil {
			name = sn.Name
		} else {
			logger.Warn("unreadable savename", zap.String("slot", s.Dir), zap.Error(err))
		}
		fmt.Fprintf(out, "  slot%-3d %s\n", s.Number, name)
	}
	return nil
}
