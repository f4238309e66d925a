// Package constants holds the per-book lookup tables (skills, spells,
// statuses, item and object types, entities, script commands) and the
// "current book" the editor is working with.
package constants

import (
	"embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
)

//go:embed data/*.toml
var dataFS embed.FS

// EntityInfo is one row of the entity catalog.
type EntityInfo struct {
	ID       int    `toml:"id"`
	Name     string `toml:"name"`
	Health   int    `toml:"health"`
	Friendly bool   `toml:"friendly"`
}

// Catalog is the set of lookup tables for one book.
type Catalog struct {
	Book           int          `toml:"book"`
	Attributes     []string     `toml:"attributes"`
	Skills         []string     `toml:"skills"`
	Spells         []string     `toml:"spells"`
	Statuses       []string     `toml:"statuses"`
	Diseases       []string     `toml:"diseases"`
	Feats          []string     `toml:"feats"`
	Genders        []string     `toml:"genders"`
	Origins        []string     `toml:"origins"`
	Axioms         []string     `toml:"axioms"`
	Classes        []string     `toml:"classes"`
	ItemTypes      []string     `toml:"item_types"`
	TrapTypes      []string     `toml:"trap_types"`
	ObjectTypes    []string     `toml:"object_types"`
	ScriptCommands []string     `toml:"script_commands"`
	Entities       []EntityInfo `toml:"entities"`

	entities map[int]EntityInfo
	commands map[string]bool
}

var (
	loadOnce sync.Once
	loadErr  error
	catalogs map[int]*Catalog

	mu      sync.RWMutex
	current = 1
)

func load() {
	catalogs = make(map[int]*Catalog)
	for book := 1; book <= 3; book++ {
		name := fmt.Sprintf("data/book%d.toml", book)
		data, err := dataFS.ReadFile(name)
		if err != nil {
			loadErr = err
			return
		}
		c, err := parseCatalog(data)
		if err != nil {
			loadErr = fmt.Errorf("%s: %w", name, err)
			return
		}
		if c.Book != book {
			loadErr = fmt.Errorf("%s: declares book %d", name, c.Book)
			return
		}
		catalogs[book] = c
	}
}

func parseCatalog(data []byte) (*Catalog, error) {
	c := &Catalog{}
	if err := toml.Unmarshal(data, c); err != nil {
		return nil, err
	}
	c.entities = make(map[int]EntityInfo, len(c.Entities))
	for _, e := range c.Entities {
		if _, dup := c.entities[e.ID]; dup {
			return nil, fmt.Errorf("duplicate entity id %d", e.ID)
		}
		c.entities[e.ID] = e
	}
	c.commands = make(map[string]bool, len(c.ScriptCommands))
	for _, cmd := range c.ScriptCommands {
		c.commands[strings.ToLower(cmd)] = true
	}
	return c, nil
}

// Get returns the catalog for book.
func Get(book int) (*Catalog, error) {
	loadOnce.Do(load)
	if loadErr != nil {
		return nil, loadErr
	}
	c, ok := catalogs[book]
	if !ok {
		return nil, fmt.Errorf("no catalog for book %d", book)
	}
	return c, nil
}

// SetCurrent switches the current book.
func SetCurrent(book int) error {
	if _, err := Get(book); err != nil {
		return err
	}
	mu.Lock()
	current = book
	mu.Unlock()
	return nil
}

// CurrentBook returns the book selected with SetCurrent (1 by default).
func CurrentBook() int {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Current returns the catalog of the current book. The embedded tables are
// validated by tests, so a load failure here is a build defect.
func Current() *Catalog {
	c, err := Get(CurrentBook())
	if err != nil {
		panic(err)
	}
	return c
}

func lookup(table []string, id int, kind string) string {
	if id >= 0 && id < len(table) && table[id] != "" {
		return table[id]
	}
	return fmt.Sprintf("Unknown %s (%d)", kind, id)
}

// Skill returns the name of skill index i.
func (c *Catalog) Skill(i int) string { return lookup(c.Skills, i, "skill") }

// Spell returns the name of spell index i.
func (c *Catalog) Spell(i int) string { return lookup(c.Spells, i, "spell") }

// Status returns the name of status index i.
func (c *Catalog) Status(i int) string { return lookup(c.Statuses, i, "status") }

// Attribute returns the name of attribute index i.
func (c *Catalog) Attribute(i int) string { return lookup(c.Attributes, i, "attribute") }

// ItemType returns the name of an item category.
func (c *Catalog) ItemType(id int) string { return lookup(c.ItemTypes, id, "item type") }

// TrapType returns the name of a trap kind.
func (c *Catalog) TrapType(id int) string { return lookup(c.TrapTypes, id, "trap") }

// ObjectType returns the name of a tile object type.
func (c *Catalog) ObjectType(id int) string { return lookup(c.ObjectTypes, id, "object") }

// Gender returns a gender name (Book II+).
func (c *Catalog) Gender(id int) string { return lookup(c.Genders, id, "gender") }

// Origin returns an origin name (Book II+).
func (c *Catalog) Origin(id int) string { return lookup(c.Origins, id, "origin") }

// Axiom returns an axiom name (Book II+).
func (c *Catalog) Axiom(id int) string { return lookup(c.Axioms, id, "axiom") }

// Class returns a class name (Book II+).
func (c *Catalog) Class(id int) string { return lookup(c.Classes, id, "class") }

// Entity returns the catalog row for an entity id.
func (c *Catalog) Entity(id int) (EntityInfo, bool) {
	e, ok := c.entities[id]
	return e, ok
}

// EntityName returns the name of an entity id.
func (c *Catalog) EntityName(id int) string {
	if e, ok := c.entities[id]; ok {
		return e.Name
	}
	return fmt.Sprintf("Unknown entity (%d)", id)
}

// EntityIDs returns the catalog's entity ids in ascending order.
func (c *Catalog) EntityIDs() []int {
	ids := make([]int, 0, len(c.entities))
	for id := range c.entities {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// DiseaseNames decodes a disease bitfield. Bits without a name are
// reported by number.
func (c *Catalog) DiseaseNames(mask int) []string {
	return bitNames(c.Diseases, mask, 0, 16, "disease")
}

// FeatNames decodes the high half of a Book II+ permanent-status field.
func (c *Catalog) FeatNames(mask int) []string {
	return bitNames(c.Feats, mask, 16, 32, "feat")
}

func bitNames(names []string, mask, from, to int, kind string) []string {
	var out []string
	for bit := from; bit < to; bit++ {
		if mask&(1<<bit) == 0 {
			continue
		}
		if i := bit - from; i < len(names) {
			out = append(out, names[i])
		} else {
			out = append(out, fmt.Sprintf("Unknown %s (bit %d)", kind, bit))
		}
	}
	return out
}

// IsCommand reports whether word is a known script command.
func (c *Catalog) IsCommand(word string) bool {
	return c.commands[strings.ToLower(word)]
}
