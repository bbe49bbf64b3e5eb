package fuzzytrie

import "sort"

// LevenshteinConfig parameterizes one automaton builder.
type LevenshteinConfig struct {
	Distance      uint8 `msgpack:"d" toml:"distance"`
	Transposition bool  `msgpack:"t" toml:"transposition"`
}

// Override applies Config to keys of at most MaxLen characters.
type Override struct {
	LevenshteinConfig
	MaxLen int `msgpack:"l" toml:"max_len"`
}

// Config picks a Levenshtein configuration depending on the query length.
//
// Overrides are tried in ascending MaxLen order and the first one whose MaxLen
// is >= the query length wins. Queries longer than every override use Default.
type Config struct {
	Default   LevenshteinConfig `msgpack:"def"`
	Overrides []Override        `msgpack:"ovr,omitempty"`
}

// Sorted returns a copy of c with the overrides ordered by MaxLen.
func (c Config) Sorted() Config {
	out := Config{Default: c.Default}
	if len(c.Overrides) > 0 {
		out.Overrides = make([]Override, len(c.Overrides))
		copy(out.Overrides, c.Overrides)
		sort.SliceStable(out.Overrides, func(i, j int) bool {
			return out.Overrides[i].MaxLen < out.Overrides[j].MaxLen
		})
	}
	return out
}

// Select returns the configuration used for a key of n characters.
// c must already be sorted.
func (c Config) Select(n int) LevenshteinConfig {
	return c.at(c.slot(n))
}

func (c Config) at(slot int) LevenshteinConfig {
	if slot < len(c.Overrides) {
		return c.Overrides[slot].LevenshteinConfig
	}
	return c.Default
}

// slot is the index of the override covering n characters, or
// len(c.Overrides) for the default.
func (c Config) slot(n int) int {
	for i, o := range c.Overrides {
		if n <= o.MaxLen {
			return i
		}
	}
	return len(c.Overrides)
}
