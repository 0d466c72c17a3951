package scm

import "time"

// Commit is one entry of a source-control history together with the files it touched.
type Commit struct {
	Hash          string
	Author        string
	When          time.Time
	Modifications []Modification
}

// Stamped returns the commit's modifications with the commit author and time copied
// into every modification that does not carry its own. The receiver is not modified.
func (c *Commit) Stamped() []Modification {
	mods := make([]Modification, len(c.Modifications))

	for i, mod := range c.Modifications {
		if mod.Author == "" {
			mod.Author = c.Author
		}

		if mod.When.IsZero() {
			mod.When = c.When
		}

		mods[i] = mod
	}

	return mods
}

// ShortHash returns the first seven characters of the commit hash.
func (c *Commit) ShortHash() string {
	const shortHashLen = 7

	if len(c.Hash) <= shortHashLen {
		return c.Hash
	}

	return c.Hash[:shortHashLen]
}
