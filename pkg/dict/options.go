package dict

import (
	"fmt"
	"path/filepath"

	"github.com/bastiangx/offdict/pkg/config"
	"github.com/bastiangx/offdict/pkg/fuzzytrie"
	"github.com/bastiangx/offdict/pkg/index"
)

// Layout decides how a write for an existing (headword, dictionary) key is
// applied.
type Layout string

const (
	// LayoutMerge writes merge operands folded by the definition merge.
	LayoutMerge Layout = "merge"
	// LayoutSplit overwrites the key on every write.
	LayoutSplit Layout = "split"
)

// Options configures a Dictionary.
type Options struct {
	Dir      string
	TrieFile string
	DBFile   string
	Layout   Layout

	Trie fuzzytrie.Config

	Backend   index.Backend
	Index     index.Options
	CacheSize int
	Expensive bool

	Limit    int
	MaxQuery int
}

// OptionsFromConfig validates cfg and converts it.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	dir, err := cfg.DataDir()
	if err != nil {
		return Options{}, fmt.Errorf("resolve data dir: %w", err)
	}

	layout := Layout(cfg.Data.Layout)
	if layout != LayoutMerge && layout != LayoutSplit {
		return Options{}, fmt.Errorf("unknown data layout %q", cfg.Data.Layout)
	}
	backend, err := index.ParseBackend(cfg.Index.Backend)
	if err != nil {
		return Options{}, err
	}

	trieCfg, err := trieConfig(cfg.Trie)
	if err != nil {
		return Options{}, err
	}

	return Options{
		Dir:       dir,
		TrieFile:  cfg.Data.TrieFile,
		DBFile:    cfg.Data.DBFile,
		Layout:    layout,
		Trie:      trieCfg,
		Backend:   backend,
		Index:     index.Options{Cap: cfg.Index.Cap, TopKPrefixLen: cfg.Index.TopKPrefixLen, TopK: cfg.Index.TopK},
		CacheSize: cfg.Index.CacheSize,
		Expensive: cfg.Index.Expensive,
		Limit:     cfg.Search.Limit,
		MaxQuery:  cfg.Search.MaxQuery,
	}, nil
}

func distance(d int) (uint8, error) {
	if d < 0 || d > fuzzytrie.MaxDistance {
		return 0, fmt.Errorf("%w: %d", fuzzytrie.ErrDistanceTooLarge, d)
	}
	return uint8(d), nil
}

func trieConfig(c config.TrieConfig) (fuzzytrie.Config, error) {
	d, err := distance(c.Distance)
	if err != nil {
		return fuzzytrie.Config{}, err
	}
	out := fuzzytrie.Config{
		Default: fuzzytrie.LevenshteinConfig{Distance: d, Transposition: c.Transposition},
	}
	for _, o := range c.Overrides {
		d, err := distance(o.Distance)
		if err != nil {
			return fuzzytrie.Config{}, err
		}
		out.Overrides = append(out.Overrides, fuzzytrie.Override{
			LevenshteinConfig: fuzzytrie.LevenshteinConfig{Distance: d, Transposition: o.Transposition},
			MaxLen:            o.MaxLen,
		})
	}
	return out.Sorted(), nil
}

func (o Options) triePath() string { return filepath.Join(o.Dir, o.TrieFile) }

func (o Options) dbPath() string { return filepath.Join(o.Dir, o.DBFile) }
