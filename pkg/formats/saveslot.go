package formats

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var slotDirPattern = regexp.MustCompile(`^slot(\d+)$`)

// Saveslot is one slotN directory inside a savegame folder.
type Saveslot struct {
	Book   Book
	Number int
	Dir    string
}

// ListSlots returns the save slots under dir ordered by slot number.
func ListSlots(dir string, book Book) ([]Saveslot, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing save slots: %w", err)
	}
	var slots []Saveslot
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		m := slotDirPattern.FindStringSubmatch(strings.ToLower(e.Name()))
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		slots = append(slots, Saveslot{Book: book, Number: n, Dir: filepath.Join(dir, e.Name())})
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].Number < slots[j].Number })
	return slots, nil
}

// SavenamePath returns the path of the slot's savename file.
func (s Saveslot) SavenamePath() string { return filepath.Join(s.Dir, "savename") }

// CharPath returns the path of the slot's character file.
func (s Saveslot) CharPath() string { return filepath.Join(s.Dir, "char") }

// MapPaths returns the slot's .map files sorted by name.
func (s Saveslot) MapPaths() ([]string, error) { return s.glob(".map") }

// MerchantPaths returns the slot's .mer files sorted by name.
func (s Saveslot) MerchantPaths() ([]string, error) { return s.glob(".mer") }

func (s Saveslot) glob(ext string) ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ext) {
			out = append(out, filepath.Join(s.Dir, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}

// OpenSavename loads the slot's savename file.
func (s Saveslot) OpenSavename() (*Savename, error) { return LoadSavename(s.SavenamePath(), s.Book) }

// OpenCharacter loads the slot's character file.
func (s Saveslot) OpenCharacter() (*Character, error) { return LoadCharacter(s.CharPath(), s.Book) }

// OpenMap loads a map from the slot by file name.
func (s Saveslot) OpenMap(name string) (*Map, error) {
	return LoadMap(filepath.Join(s.Dir, name), s.Book)
}

// OpenMerchant loads a merchant from the slot by file name.
func (s Saveslot) OpenMerchant(name string) (*Merchant, error) {
	return LoadMerchant(filepath.Join(s.Dir, name), s.Book)
}
