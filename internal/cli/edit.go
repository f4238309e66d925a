package cli

import (
	"fmt"
	"io"

	"github.com/Faultbox/eschalon-utils/pkg/formats"
)

// Edits are the character changes requested on the command line. Nil
// fields are left alone.
type Edits struct {
	Gold        *int
	ManaMax     *int
	ManaCur     *int
	HPMax       *int
	HPCur       *int
	RmDisease   bool
	ResetHunger bool
}

// Any reports whether at least one edit is requested.
func (e Edits) Any() bool {
	return e.Gold != nil || e.ManaMax != nil || e.ManaCur != nil ||
		e.HPMax != nil || e.HPCur != nil || e.RmDisease || e.ResetHunger
}

// Validate rejects edits that cannot apply to c. It changes nothing.
func (e Edits) Validate(c *formats.Character) error {
	for _, v := range []struct {
		name string
		val  *int
	}{
		{"--set-gold", e.Gold},
		{"--set-mana-max", e.ManaMax},
		{"--set-mana-cur", e.ManaCur},
		{"--set-hp-max", e.HPMax},
		{"--set-hp-cur", e.HPCur},
	} {
		if v.val != nil && *v.val < 0 {
			return fmt.Errorf("%s: value must not be negative, got %d", v.name, *v.val)
		}
	}
	if e.ResetHunger && c.Book == formats.Book1 {
		return fmt.Errorf("--reset-hunger: %w: hunger and thirst exist from Book II", formats.ErrNotApplicable)
	}
	return nil
}

// Apply performs the edits on c, writing each old and new value to w. It
// reports whether anything was requested.
func (e Edits) Apply(w io.Writer, c *formats.Character) (bool, error) {
	if !e.Any() {
		return false, nil
	}
	if err := e.Validate(c); err != nil {
		return false, err
	}

	change := func(label string, before, after int) {
		fmt.Fprintf(w, "%s: %d -> %d\n", label, before, after)
	}

	if e.Gold != nil {
		before := c.Gold
		c.SetGold(*e.Gold)
		change("Gold", before, c.Gold)
	}
	if e.HPMax != nil {
		before, beforeCur := c.MaxHP, c.CurHP
		c.SetMaxHP(*e.HPMax)
		change("Max HP", before, c.MaxHP)
		change("Current HP", beforeCur, c.CurHP)
	}
	if e.HPCur != nil {
		before := c.CurHP
		c.SetCurHP(*e.HPCur)
		change("Current HP", before, c.CurHP)
	}
	if e.ManaMax != nil {
		before, beforeCur := c.MaxMana, c.CurMana
		c.SetMaxMana(*e.ManaMax)
		change("Max mana", before, c.MaxMana)
		change("Current mana", beforeCur, c.CurMana)
	}
	if e.ManaCur != nil {
		before := c.CurMana
		c.SetCurMana(*e.ManaCur)
		change("Current mana", before, c.CurMana)
	}
	if e.RmDisease {
		if c.Book == formats.Book1 {
			before := c.Disease
			c.ClearDiseases()
			fmt.Fprintf(w, "Diseases: 0x%04X -> 0x%04X\n", before, c.Disease)
		} else {
			before := c.PermStatuses
			c.ClearDiseases()
			fmt.Fprintf(w, "Permanent statuses: 0x%08X -> 0x%08X\n", before, c.PermStatuses)
		}
	}
	if e.ResetHunger {
		beforeH, beforeT := c.Hunger, c.Thirst
		if err := c.ResetHunger(); err != nil {
			return true, err
		}
		change("Hunger", beforeH, c.Hunger)
		change("Thirst", beforeT, c.Thirst)
	}
	return true, nil
}
